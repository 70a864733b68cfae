package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/autodev/internal/models"
	"github.com/desertthunder/autodev/internal/shared"
	"github.com/desertthunder/autodev/internal/stream"
)

// CreateProject creates a project.
//
// Calls POST /projects with {"name", "description"}.
func (c *Client) CreateProject(ctx context.Context, name, description string) (*models.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: project name", shared.ErrMissingArgument)
	}

	body := struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}{name, description}

	var project models.Project
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/projects", Body: body}, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects returns the caller's projects.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.Do(ctx, Request{Path: "/projects"}, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject fetches one project by ID.
func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: project id", shared.ErrMissingArgument)
	}

	var project models.Project
	if err := c.Do(ctx, Request{Path: "/projects/" + url.PathEscape(id)}, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: project id", shared.ErrMissingArgument)
	}
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: "/projects/" + url.PathEscape(id)}, nil)
}

// UploadFiles sends files as one multipart POST /upload, one "files" part per file in order.
func (c *Client) UploadFiles(ctx context.Context, files []File) (*models.UploadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one file", shared.ErrMissingArgument)
	}

	form := NewForm()
	for _, f := range files {
		form.AddFile("files", f)
	}

	var result models.UploadResult
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/upload", Form: form}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateJob creates a generation job over previously uploaded files.
//
// Calls POST /generation/job.
func (c *Client) CreateJob(ctx context.Context, projectID string, inputFiles []string) (*models.Job, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id", shared.ErrMissingArgument)
	}
	if inputFiles == nil {
		inputFiles = []string{}
	}

	body := struct {
		ProjectID  string   `json:"project_id"`
		InputFiles []string `json:"input_files"`
	}{projectID, inputFiles}

	var job models.Job
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/generation/job", Body: body}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs lists jobs, filtered by project when projectID is set.
func (c *Client) ListJobs(ctx context.Context, projectID string) ([]models.JobSummary, error) {
	path := "/generation/jobs"
	if projectID != "" {
		path += "?" + url.Values{"project_id": {projectID}}.Encode()
	}

	var jobs []models.JobSummary
	if err := c.Do(ctx, Request{Path: path}, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// SaveSpec stores spec, which must be a JSON object, against a job.
//
// Calls POST /generation/job/{id}/save-spec.
func (c *Client) SaveSpec(ctx context.Context, jobID string, spec json.RawMessage) (*models.SaveSpecResult, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}

	var result models.SaveSpecResult
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: jobPath(jobID, "save-spec"), Body: spec}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PreviewSpec summarizes the spec stored on a job.
func (c *Client) PreviewSpec(ctx context.Context, jobID string) (*models.SpecPreview, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}

	var preview models.SpecPreview
	if err := c.Do(ctx, Request{Path: jobPath(jobID, "preview")}, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// Generate triggers code generation for a job and returns the decoded JSON response.
//
// Calls POST /generation/job/{id}/generate with no body.
func (c *Client) Generate(ctx context.Context, jobID string) (any, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}
	return c.Request(ctx, Request{Method: http.MethodPost, Path: jobPath(jobID, "generate")})
}

// Download copies the generated archive for a job to w and returns the byte count.
//
// The archive is buffered so a retried attempt never writes partial data.
func (c *Client) Download(ctx context.Context, jobID string, w io.Writer) (int64, error) {
	if jobID == "" {
		return 0, fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}

	data, err := c.Raw(ctx, Request{
		Path:   "/generation/download/" + url.PathEscape(jobID),
		Header: http.Header{"Accept": []string{"application/zip"}},
	})
	if err != nil {
		return 0, err
	}

	n, err := w.Write(data)
	if err != nil {
		return int64(n), fmt.Errorf("failed to write archive: %w", err)
	}
	return int64(n), nil
}

// JobFiles returns every text file of a generated project.
func (c *Client) JobFiles(ctx context.Context, jobID string) (*models.JobFiles, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}

	var files models.JobFiles
	if err := c.Do(ctx, Request{Path: jobPath(jobID, "files")}, &files); err != nil {
		return nil, err
	}
	return &files, nil
}

// JobFile returns one generated file by project-relative path.
func (c *Client) JobFile(ctx context.Context, jobID, path string) (*models.JobFile, error) {
	if jobID == "" || path == "" {
		return nil, fmt.Errorf("%w: job id and file path", shared.ErrMissingArgument)
	}

	var file models.JobFile
	p := jobPath(jobID, "file") + "?" + url.Values{"file_path": {path}}.Encode()
	if err := c.Do(ctx, Request{Path: p}, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// ListTemplates returns the starter templates the backend offers.
func (c *Client) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	if err := c.Do(ctx, Request{Path: "/advanced/templates"}, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// TemplateSpec returns the full specification of a starter template, ready for [Client.SaveSpec].
func (c *Client) TemplateSpec(ctx context.Context, id string) (json.RawMessage, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: template id", shared.ErrMissingArgument)
	}

	data, err := c.Raw(ctx, Request{Path: "/advanced/templates/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	if err := shared.ValidateJSON(data); err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Ask sends a natural-language change request for a generated project.
//
// Calls POST /advanced/assistant/ask with {"question", "job_id"}; the backend edits the files in place.
func (c *Client) Ask(ctx context.Context, jobID, question string) (any, error) {
	if jobID == "" || question == "" {
		return nil, fmt.Errorf("%w: job id and question", shared.ErrMissingArgument)
	}

	body := struct {
		Question string `json:"question"`
		JobID    string `json:"job_id"`
	}{question, jobID}
	return c.Request(ctx, Request{Method: http.MethodPost, Path: "/advanced/assistant/ask", Body: body})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password", shared.ErrMissingCredentials)
	}

	var user models.User
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/register", Body: credentials{email, password}}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.Token, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password", shared.ErrMissingCredentials)
	}

	var token models.Token
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/login", Body: credentials{email, password}}, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", shared.ErrAuthFailed)
	}
	return &token, nil
}

// AnalyzeStream returns an idle subscriber for a job's analysis stream, sharing this client's transport.
func (c *Client) AnalyzeStream(jobID string) *stream.Subscriber {
	return stream.New(c.URL("/generation/analyze-stream/"+url.PathEscape(jobID)), stream.Options{
		Doer:   c.doer,
		Header: c.header,
		Logger: c.logger,
	})
}

func jobPath(jobID, action string) string {
	return "/generation/job/" + url.PathEscape(jobID) + "/" + action
}
