package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/autodev/internal/client"
	"github.com/desertthunder/autodev/internal/repositories"
	"github.com/desertthunder/autodev/internal/shared"
	"github.com/desertthunder/autodev/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	client     *client.Client
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     *client.Client // Built from Config when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB // History database; opened from Config on first use when nil
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout.Duration}
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		client:     opts.Client,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
		now:        time.Now,
	}
	if r.client == nil {
		r.client = r.newClient(r.httpClient)
	}
	return r
}

// newClient builds a request client from the current configuration.
func (r *Runner) newClient(doer client.Doer) *client.Client {
	return client.New(client.Options{
		BaseURL: r.config.API.BaseURL,
		Doer:    doer,
		Token:   r.config.API.Token,
		Logger:  r.logger,
		Retry: client.RetryPolicy{
			MaxAttempts:      r.config.Retry.MaxAttempts,
			UnavailableDelay: r.config.Retry.UnavailableDelay.Duration,
			FailureDelay:     r.config.Retry.FailureDelay.Duration,
		},
	})
}

// streamClient is used for event streams, which must outlive the request timeout.
func (r *Runner) streamClient() *client.Client {
	c := *r.httpClient
	c.Timeout = 0
	return r.newClient(&c)
}

// SetLogger replaces the runner's logger, used to move logs out of the way of the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// history returns the job history repository, opening the database on first use.
func (r *Runner) history() (*repositories.JobRepository, error) {
	if r.db == nil {
		db, err := shared.OpenHistory(r.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		r.db = db
	}
	return repositories.NewJobRepository(r.db), nil
}

// pipeline wires the pipeline to the stream client and history, logging instead of failing when history is unavailable.
func (r *Runner) pipeline() *tasks.Pipeline {
	var history tasks.JobHistory
	if repo, err := r.history(); err != nil {
		r.logger.Warn("job history disabled", "error", err)
	} else {
		history = repo
	}
	return tasks.NewPipeline(r.streamClient(), history, r.logger)
}

// Close releases resources opened lazily by commands.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, projectCommand, templateCommand, uploadCommand, jobCommand,
		streamCommand, watchCommand, runCommand, historyCommand, proxyCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
