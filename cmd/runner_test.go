package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/autodev/internal/models"
	"github.com/desertthunder/autodev/internal/shared"
	tu "github.com/desertthunder/autodev/internal/testing"
	"github.com/golang-jwt/jwt/v5"
	"github.com/urfave/cli/v3"
)

const testSpec = `{"appConfig":{"name":"Todo"}}`

// fakeBackend serves the routes the CLI calls and records what it received.
type fakeBackend struct {
	mu       sync.Mutex
	bodies   map[string]string
	auth     []string
	token    string
	archive  []byte
	uploaded []string
}

func (b *fakeBackend) record(r *http.Request) string {
	data, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(data))

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bodies == nil {
		b.bodies = map[string]string{}
	}
	b.bodies[r.Method+" "+r.URL.Path] = string(data)
	b.auth = append(b.auth, r.Header.Get("Authorization"))
	return string(data)
}

func (b *fakeBackend) body(key string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[key]
}

func (b *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.Unmarshal([]byte(b.record(r)), &body)
		json.NewEncoder(w).Encode(models.Project{ID: "p1", Name: body["name"], Description: body["description"]})
	})
	mux.HandleFunc("GET /api/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.Write([]byte(`[{"id":"p1","name":"Todo","description":"Tasks","created_at":"2025-03-10 11:00:00"}]`))
	})
	mux.HandleFunc("GET /api/v1/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		fmt.Fprintf(w, `{"id":%q,"name":"Todo"}`, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE /api/v1/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/v1/upload", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse upload: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var names []string
		for _, fh := range r.MultipartForm.File["files"] {
			names = append(names, "uploads/"+fh.Filename)
		}
		b.mu.Lock()
		b.uploaded = append(b.uploaded, names...)
		b.mu.Unlock()
		json.NewEncoder(w).Encode(models.UploadResult{Files: names})
	})
	mux.HandleFunc("POST /api/v1/generation/job", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.Write([]byte(`{"id":"j1"}`))
	})
	mux.HandleFunc("GET /api/v1/generation/jobs", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if r.URL.Query().Get("project_id") != "p1" {
			t.Errorf("unexpected project filter %q", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"id":"j1","status":"completed","created_at":"2025-03-10 11:00:00"}]`))
	})
	mux.HandleFunc("GET /api/v1/generation/analyze-stream/j1", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", testSpec)
	})
	mux.HandleFunc("POST /api/v1/generation/job/j1/save-spec", func(w http.ResponseWriter, r *http.Request) {
		data := b.record(r)
		fmt.Fprintf(w, `{"message":"Specification saved","spec":%s}`, data)
	})
	mux.HandleFunc("GET /api/v1/generation/job/j1/preview", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		fmt.Fprintf(w, `{"appName":"Todo","description":"Tasks","entities":2,"endpoints":5,"pages":3,"fullSpec":%s}`, testSpec)
	})
	mux.HandleFunc("POST /api/v1/generation/job/j1/generate", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.Write([]byte(`{"status":"completed"}`))
	})
	mux.HandleFunc("GET /api/v1/generation/download/j1", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.Header().Set("Content-Type", "application/zip")
		w.Write(b.archive)
	})
	mux.HandleFunc("GET /api/v1/generation/job/j1/files", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.Write([]byte(`{"files":{"README.md":"# Todo","backend/main.py":"print(1)"}}`))
	})
	mux.HandleFunc("GET /api/v1/generation/job/j1/file", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		fmt.Fprintf(w, `{"content":%q}`, "contents of "+r.URL.Query().Get("file_path"))
	})
	mux.HandleFunc("GET /api/v1/advanced/templates", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.Write([]byte(`[{"id":"crm","name":"CRM System","category":"Business","tech":["FastAPI","Vue.js"]}]`))
	})
	mux.HandleFunc("GET /api/v1/advanced/templates/crm", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.Write([]byte(testSpec))
	})
	mux.HandleFunc("POST /api/v1/advanced/assistant/ask", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.Write([]byte(`{"answer":"Added a footer","modified_files":["frontend/index.html"]}`))
	})
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"bearer"}`, b.token)
	})
	mux.HandleFunc("POST /api/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.Write([]byte(`{"id":"u1","email":"a@b.c"}`))
	})

	return mux
}

// newTestRunner returns a runner pointed at a fake backend, with a private config file and history database.
func newTestRunner(t *testing.T, b *fakeBackend) (*Runner, *bytes.Buffer) {
	t.Helper()

	srv := httptest.NewServer(b.handler(t))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.API.BaseURL = srv.URL + "/api/v1"
	config.API.Token = "tok"
	config.Retry.MaxAttempts = 1
	config.Database.Path = filepath.Join(dir, "history.db")

	out := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(dir, "config.toml"),
		Logger:     log.New(io.Discard),
		Output:     out,
	})
	t.Cleanup(func() { r.Close() })
	return r, out
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "autodev", Commands: r.register(), Writer: io.Discard, ErrWriter: io.Discard}
	return app.Run(context.Background(), append([]string{"autodev"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected config path to be set, got %q", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Fatal("expected default config to be set")
			}
			if runner.client.BaseURL() != "http://localhost:8000/api/v1" {
				t.Errorf("expected default base URL, got %s", runner.client.BaseURL())
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected stdout to be used")
			}
		})

		t.Run("with nil httpClient uses configured timeout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.httpClient == nil || runner.httpClient.Timeout != runner.config.API.Timeout.Duration {
				t.Errorf("expected client with config timeout, got %+v", runner.httpClient)
			}
		})

		t.Run("stream client has no timeout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			runner.streamClient()

			if runner.httpClient.Timeout == 0 {
				t.Error("expected request client timeout to be left untouched")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "{\n  \"key\": \"value\"\n}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "{\"key\":\"value\"}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s\n", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writePlain("test"); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		var names []string
		for _, c := range runner.register() {
			names = append(names, c.Name)
		}

		want := "setup auth project upload job stream watch run history proxy api"
		if strings.Join(names, " ") != want {
			t.Errorf("expected commands %q, got %q", want, strings.Join(names, " "))
		}
	})

	t.Run("saveToken", func(t *testing.T) {
		t.Run("saves token successfully", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			config := shared.DefaultConfig()
			if err := shared.SaveConfig(configPath, config); err != nil {
				t.Fatalf("failed to create test config: %v", err)
			}

			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: configPath})
			if err := runner.saveToken("new_access_token"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			loadedConfig, err := shared.LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loadedConfig.API.Token != "new_access_token" {
				t.Errorf("expected token to be updated, got %s", loadedConfig.API.Token)
			}
		})

		t.Run("handles nil config error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/tmp/test.toml"})
			runner.config = nil

			err := runner.saveToken("test")
			if err == nil || !strings.Contains(err.Error(), "config is nil") {
				t.Errorf("expected nil config error, got %v", err)
			}
		})

		t.Run("rejects empty token", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if err := runner.saveToken(""); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("handles empty configPath", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config})

			if err := runner.saveToken("new_token"); err != nil {
				t.Fatalf("expected no error with empty path, got %v", err)
			}
			if config.API.Token != "new_token" {
				t.Error("expected config to be updated in memory")
			}
		})

		t.Run("handles SaveConfig failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: filepath.Join(t.TempDir(), "missing", "config.toml")})

			err := runner.saveToken("test")
			if err == nil || !strings.Contains(err.Error(), "failed to save config") {
				t.Errorf("expected save config error, got %v", err)
			}
		})

		t.Run("rebuilds client with new token", func(t *testing.T) {
			b := &fakeBackend{}
			runner, _ := newTestRunner(t, b)

			if err := runner.saveToken("fresh"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, err := runner.client.ListProjects(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := b.auth[len(b.auth)-1]; got != "Bearer fresh" {
				t.Errorf("expected new token on request, got %q", got)
			}
		})
	})
}

func TestCommands(t *testing.T) {
	t.Run("Project Create", func(t *testing.T) {
		b := &fakeBackend{}
		r, out := newTestRunner(t, b)

		if err := run(r, "project", "create", "--description", "desc", "Foo"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := b.body("POST /api/v1/projects"); got != `{"name":"Foo","description":"desc"}` {
			t.Errorf("unexpected body %s", got)
		}
		if !strings.Contains(out.String(), "✓ Created project Foo (p1)") {
			t.Errorf("unexpected output %q", out.String())
		}
		if b.auth[0] != "Bearer tok" {
			t.Errorf("expected configured token, got %q", b.auth[0])
		}
	})

	t.Run("Project List JSON", func(t *testing.T) {
		r, out := newTestRunner(t, &fakeBackend{})

		if err := run(r, "project", "list", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var projects []models.Project
		if err := json.Unmarshal(out.Bytes(), &projects); err != nil || len(projects) != 1 {
			t.Errorf("unexpected output %q (%v)", out.String(), err)
		}
	})

	t.Run("Project Get And Delete", func(t *testing.T) {
		r, out := newTestRunner(t, &fakeBackend{})

		if err := run(r, "project", "get", "p1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := run(r, "project", "delete", "p1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), `"id": "p1"`) || !strings.Contains(out.String(), "✓ Deleted project p1") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Upload", func(t *testing.T) {
		b := &fakeBackend{}
		r, out := newTestRunner(t, b)

		dir := t.TempDir()
		a, c := filepath.Join(dir, "a.txt"), filepath.Join(dir, "c.md")
		tu.MustWriteFile(t, a, "alpha")
		tu.MustWriteFile(t, c, "gamma")

		if err := run(r, "upload", a, c); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Join(b.uploaded, ",") != "uploads/a.txt,uploads/c.md" {
			t.Errorf("unexpected uploads %v", b.uploaded)
		}
		if got := b.body("POST /api/v1/upload"); !strings.Contains(got, "alpha") || !strings.Contains(got, "gamma") {
			t.Errorf("expected file contents in upload body, got %q", got)
		}
		if !strings.Contains(out.String(), "✓ Uploaded 2 file(s)") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Job Create And List", func(t *testing.T) {
		b := &fakeBackend{}
		r, out := newTestRunner(t, b)

		if err := run(r, "job", "create", "--project", "p1", "--file", "uploads/a.txt", "--file", "uploads/c.md"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := `{"project_id":"p1","input_files":["uploads/a.txt","uploads/c.md"]}`
		if got := b.body("POST /api/v1/generation/job"); got != want {
			t.Errorf("expected body %s, got %s", want, got)
		}

		if err := run(r, "job", "list", "--project", "p1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "✓ Created job j1") || !strings.Contains(out.String(), "completed") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Job Preview Writes Markdown", func(t *testing.T) {
		r, out := newTestRunner(t, &fakeBackend{})
		md := filepath.Join(t.TempDir(), "spec.md")

		if err := run(r, "job", "preview", "--output", md, "j1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "Entities: 2  Endpoints: 5  Pages: 3") {
			t.Errorf("unexpected output %q", out.String())
		}
		if got := tu.MustReadFile(t, md); !strings.HasPrefix(got, "# Todo") {
			t.Errorf("unexpected markdown %q", got)
		}
	})

	t.Run("Job Save Spec", func(t *testing.T) {
		b := &fakeBackend{}
		r, out := newTestRunner(t, b)
		path := filepath.Join(t.TempDir(), "spec.json")
		tu.MustWriteFile(t, path, testSpec)

		if err := run(r, "job", "save-spec", "--file", path, "j1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := b.body("POST /api/v1/generation/job/j1/save-spec"); got != testSpec {
			t.Errorf("unexpected body %s", got)
		}
		if !strings.Contains(out.String(), "✓ Specification saved") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Job Save Spec Rejects Invalid JSON", func(t *testing.T) {
		r, _ := newTestRunner(t, &fakeBackend{})
		path := filepath.Join(t.TempDir(), "spec.json")
		tu.MustWriteFile(t, path, "{not json")

		if err := run(r, "job", "save-spec", "--file", path, "j1"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Job Generate", func(t *testing.T) {
		r, out := newTestRunner(t, &fakeBackend{})

		if err := run(r, "job", "generate", "j1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), `"status": "completed"`) {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Job Download", func(t *testing.T) {
		b := &fakeBackend{archive: []byte("PK\x03\x04archive")}
		r, out := newTestRunner(t, b)
		dest := filepath.Join(t.TempDir(), "todo.zip")

		if err := run(r, "job", "download", "-o", dest, "j1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := tu.MustReadFile(t, dest); got != "PK\x03\x04archive" {
			t.Errorf("unexpected archive %q", got)
		}
		if !strings.Contains(out.String(), "(11 B)") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Job Files", func(t *testing.T) {
		r, out := newTestRunner(t, &fakeBackend{})
		dir := t.TempDir()

		if err := run(r, "job", "files", "j1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(out.String(), "README.md") || !strings.Contains(out.String(), "backend/main.py") {
			t.Errorf("unexpected listing %q", out.String())
		}

		if err := run(r, "job", "files", "--dir", dir, "j1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "backend", "main.py"))

		out.Reset()
		if err := run(r, "job", "files", "--path", "README.md", "j1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.String() != "contents of README.md" {
			t.Errorf("unexpected file %q", out.String())
		}
	})

	t.Run("Templates", func(t *testing.T) {
		b := &fakeBackend{}
		r, out := newTestRunner(t, b)

		if err := run(r, "template", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "CRM System") || !strings.Contains(out.String(), "FastAPI, Vue.js") {
			t.Errorf("unexpected listing %q", out.String())
		}

		path := filepath.Join(t.TempDir(), "crm.json")
		if err := run(r, "template", "get", "--output", path, "crm"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if data, _ := os.ReadFile(path); string(data) != testSpec {
			t.Errorf("unexpected template file %s", data)
		}

		if err := run(r, "template", "get", "--job", "j1", "crm"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := b.body("POST /api/v1/generation/job/j1/save-spec"); got != testSpec {
			t.Errorf("expected template spec to be saved, got %s", got)
		}
	})

	t.Run("Job Ask", func(t *testing.T) {
		b := &fakeBackend{}
		r, out := newTestRunner(t, b)

		if err := run(r, "job", "ask", "--question", "add a footer", "j1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := b.body("POST /api/v1/advanced/assistant/ask"); got != `{"question":"add a footer","job_id":"j1"}` {
			t.Errorf("unexpected body %s", got)
		}
		if !strings.Contains(out.String(), "Added a footer") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Stream", func(t *testing.T) {
		r, out := newTestRunner(t, &fakeBackend{})

		if err := run(r, "stream", "j1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(out.String(), testSpec) || !strings.Contains(out.String(), "Stream ended after 1 message(s)") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Run Records History", func(t *testing.T) {
		b := &fakeBackend{}
		r, out := newTestRunner(t, b)
		doc := filepath.Join(t.TempDir(), "brief.txt")
		tu.MustWriteFile(t, doc, "a todo app")

		if err := run(r, "run", doc); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := b.body("POST /api/v1/projects"); got != `{"name":"brief","description":""}` {
			t.Errorf("expected project named after the first file, got %s", got)
		}
		if got := b.body("POST /api/v1/generation/job/j1/save-spec"); got != testSpec {
			t.Errorf("unexpected saved spec %s", got)
		}
		if !strings.Contains(out.String(), "Job:      j1") || !strings.Contains(out.String(), "History:  #1") {
			t.Errorf("unexpected output %q", out.String())
		}

		out.Reset()
		if err := run(r, "history", "--status", "completed"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "j1") || !strings.Contains(out.String(), "completed") {
			t.Errorf("unexpected history %q", out.String())
		}
	})

	t.Run("API Get And Post", func(t *testing.T) {
		b := &fakeBackend{}
		r, out := newTestRunner(t, b)

		if err := run(r, "api", "get", "/projects/p1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "\"name\": \"Todo\"") {
			t.Errorf("expected pretty JSON, got %q", out.String())
		}

		if err := run(r, "api", "post", "-d", `{"name":"Raw"}`, "/projects"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := b.body("POST /api/v1/projects"); got != `{"name":"Raw"}` {
			t.Errorf("unexpected body %s", got)
		}

		if err := run(r, "api", "post", "-d", "{", "/projects"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Auth Login Stores Token", func(t *testing.T) {
		b := &fakeBackend{token: "issued"}
		r, out := newTestRunner(t, b)

		if err := run(r, "auth", "login", "-e", "a@b.c", "-p", "pw"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := b.body("POST /api/v1/auth/login"); got != `{"email":"a@b.c","password":"pw"}` {
			t.Errorf("unexpected body %s", got)
		}

		saved, err := shared.LoadConfig(r.configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if saved.API.Token != "issued" {
			t.Errorf("expected stored token, got %q", saved.API.Token)
		}
		if !strings.Contains(out.String(), "✓ Logged in as a@b.c") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Auth Login Without Password", func(t *testing.T) {
		t.Setenv("AUTODEV_PASSWORD", "")
		r, _ := newTestRunner(t, &fakeBackend{})

		if err := run(r, "auth", "login", "-e", "a@b.c"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Auth Register", func(t *testing.T) {
		r, out := newTestRunner(t, &fakeBackend{})

		if err := run(r, "auth", "register", "-e", "a@b.c", "-p", "pw"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "✓ Registered a@b.c (id u1)") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Auth Status", func(t *testing.T) {
		r, out := newTestRunner(t, &fakeBackend{})

		if err := run(r, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "✓ Authenticated (1 project(s))") {
			t.Errorf("unexpected output %q", out.String())
		}

		r.config.API.Token = ""
		if err := run(r, "auth", "status"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Auth Status Expired Token", func(t *testing.T) {
		b := &fakeBackend{}
		r, out := newTestRunner(t, b)

		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "a@b.c",
			"exp": time.Now().Add(-time.Hour).Unix(),
		}).SignedString([]byte("dev-secret-key"))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		r.config.API.Token = tok

		if err := run(r, "auth", "status"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if !strings.Contains(out.String(), "Subject: a@b.c") || !strings.Contains(out.String(), "Token expired") {
			t.Errorf("unexpected output %q", out.String())
		}
		if len(b.auth) != 0 {
			t.Errorf("expected no backend request, got %d", len(b.auth))
		}
	})

	t.Run("Setup", func(t *testing.T) {
		r, out := newTestRunner(t, &fakeBackend{})

		if err := run(r, "setup", "config", "--base-url", "http://api.example.com/api/v1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		saved, err := shared.LoadConfig(r.configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if saved.API.BaseURL != "http://api.example.com/api/v1" {
			t.Errorf("unexpected base URL %s", saved.API.BaseURL)
		}

		if err := run(r, "setup", "config"); err == nil {
			t.Error("expected error for existing config")
		}

		if err := run(r, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, r.config.Database.Path)
		if !strings.Contains(out.String(), "✓ History database ready") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("Proxy Handler", func(t *testing.T) {
		b := &fakeBackend{}
		r, _ := newTestRunner(t, b)

		h, err := r.proxyHandler()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":"p1"`) {
			t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
		}
		if got := b.auth[len(b.auth)-1]; got != "Bearer tok" {
			t.Errorf("expected configured token upstream, got %q", got)
		}
	})

	t.Run("Missing Arguments", func(t *testing.T) {
		r, _ := newTestRunner(t, &fakeBackend{})

		for _, args := range [][]string{
			{"stream"},
			{"job", "download"},
			{"project", "delete"},
			{"api", "get"},
		} {
			if err := run(r, args...); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("%v: expected ErrMissingArgument, got %v", args, err)
			}
		}
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Success", nil, 0},
		{"Interrupted", fmt.Errorf("watch: %w", context.Canceled), exitInterrupted},
		{"Failure", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
