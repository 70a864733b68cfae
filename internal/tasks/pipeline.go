package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/autodev/internal/client"
	"github.com/desertthunder/autodev/internal/models"
	"github.com/desertthunder/autodev/internal/shared"
	"github.com/desertthunder/autodev/internal/stream"
	"golang.org/x/time/rate"
)

var ErrAnalysisFailed = errors.New("analysis failed")

// API is the subset of [client.Client] the pipeline drives.
type API interface {
	CreateProject(ctx context.Context, name, description string) (*models.Project, error)
	UploadFiles(ctx context.Context, files []client.File) (*models.UploadResult, error)
	CreateJob(ctx context.Context, projectID string, inputFiles []string) (*models.Job, error)
	SaveSpec(ctx context.Context, jobID string, spec json.RawMessage) (*models.SaveSpecResult, error)
	Generate(ctx context.Context, jobID string) (any, error)
	AnalyzeStream(jobID string) *stream.Subscriber
}

// JobHistory persists jobs started by the pipeline. [*repositories.JobRepository] satisfies it.
type JobHistory interface {
	Create(job *models.JobRecord) error
	Update(job *models.JobRecord) error
}

// RunOpts configures a single pipeline run.
type RunOpts struct {
	ProjectID    string        // Existing project; when empty a project named ProjectName is created
	ProjectName  string        // Name for a new project
	Description  string        // Description for a new project
	Files        []client.File // Documents to analyze
	BatchSize    int           // Files per upload request (default: 5)
	RateLimit    float64       // Upload requests per second (default: 2)
	SkipGenerate bool          // Stop after the spec is saved
}

// RunResult contains everything produced by a pipeline run.
type RunResult struct {
	Project   *models.Project
	Uploaded  []string // Server-side paths in upload order
	Job       *models.Job
	Analysis  string          // Concatenated stream chunks
	Chunks    int             // Number of streamed chunks
	Spec      json.RawMessage // Extracted spec, nil when the analysis held none
	Saved     *models.SaveSpecResult
	Generated any               // Decoded generate response, nil when skipped
	Record    *models.JobRecord // Local history entry, nil without history
}

// Pipeline runs documents through analysis and code generation.
type Pipeline struct {
	api     API
	history JobHistory
	logger  *log.Logger
}

// NewPipeline creates a Pipeline. history and logger may be nil.
func NewPipeline(api API, history JobHistory, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{api: api, history: history, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (p *Pipeline) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes the full pipeline. On failure the partial result is returned alongside the error.
func (p *Pipeline) Run(ctx context.Context, progress chan<- ProgressUpdate, opts RunOpts) (*RunResult, error) {
	if len(opts.Files) == 0 {
		return nil, fmt.Errorf("%w: at least one document", shared.ErrMissingArgument)
	}
	if opts.ProjectID == "" && opts.ProjectName == "" {
		return nil, fmt.Errorf("%w: project id or name", shared.ErrMissingArgument)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	result := &RunResult{}

	project, err := p.project(ctx, progress, opts)
	if err != nil {
		return result, err
	}
	result.Project = project

	uploaded, err := p.upload(ctx, progress, opts)
	if err != nil {
		return result, err
	}
	result.Uploaded = uploaded

	job, err := p.api.CreateJob(ctx, project.ID, uploaded)
	if err != nil {
		return result, fmt.Errorf("failed to create job: %w", err)
	}
	result.Job = job
	result.Record = p.record(job, project.ID, uploaded)
	p.sendProgress(progress, jobCreatedUpdate(job))

	p.setStatus(result.Record, models.JobProcessing)

	if err := p.analyze(ctx, progress, result); err != nil {
		p.setStatus(result.Record, models.JobFailed)
		return result, err
	}

	spec, err := ExtractSpec(result.Analysis)
	if err != nil {
		p.setStatus(result.Record, models.JobFailed)
		return result, err
	}
	result.Spec = spec

	saved, err := p.api.SaveSpec(ctx, job.ID, spec)
	if err != nil {
		p.setStatus(result.Record, models.JobFailed)
		return result, fmt.Errorf("failed to save spec: %w", err)
	}
	result.Saved = saved
	p.sendProgress(progress, specSavedUpdate(saved))

	if !opts.SkipGenerate {
		p.sendProgress(progress, generatingUpdate(job.ID))
		generated, err := p.api.Generate(ctx, job.ID)
		if err != nil {
			p.setStatus(result.Record, models.JobFailed)
			return result, fmt.Errorf("failed to generate code: %w", err)
		}
		result.Generated = generated
		p.sendProgress(progress, generatedUpdate(generated))
	}

	p.setStatus(result.Record, models.JobCompleted)
	p.sendProgress(progress, doneUpdate(result))
	return result, nil
}

func (p *Pipeline) project(ctx context.Context, progress chan<- ProgressUpdate, opts RunOpts) (*models.Project, error) {
	if opts.ProjectID != "" {
		project := &models.Project{ID: opts.ProjectID, Name: opts.ProjectName}
		p.sendProgress(progress, projectReadyUpdate(project))
		return project, nil
	}

	p.sendProgress(progress, creatingProjectUpdate(opts.ProjectName))
	project, err := p.api.CreateProject(ctx, opts.ProjectName, opts.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	p.sendProgress(progress, projectReadyUpdate(project))
	return project, nil
}

// upload sends files in order, one rate-limited request per batch.
func (p *Pipeline) upload(ctx context.Context, progress chan<- ProgressUpdate, opts RunOpts) ([]string, error) {
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	batches := (len(opts.Files) + opts.BatchSize - 1) / opts.BatchSize
	uploaded := make([]string, 0, len(opts.Files))

	for i := 0; i < batches; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return uploaded, err
		}

		start := i * opts.BatchSize
		end := min(start+opts.BatchSize, len(opts.Files))
		batch := opts.Files[start:end]

		p.sendProgress(progress, uploadBatchUpdate(i+1, batches, len(batch)))
		res, err := p.api.UploadFiles(ctx, batch)
		if err != nil {
			return uploaded, fmt.Errorf("failed to upload batch %d/%d: %w", i+1, batches, err)
		}
		uploaded = append(uploaded, res.Files...)
	}

	p.sendProgress(progress, uploadedUpdate(batches, uploaded))
	return uploaded, nil
}

// analyze consumes the job's stream until the server ends it.
func (p *Pipeline) analyze(ctx context.Context, progress chan<- ProgressUpdate, result *RunResult) error {
	p.sendProgress(progress, analyzingUpdate())

	var b strings.Builder
	sub := p.api.AnalyzeStream(result.Job.ID)
	for chunk, err := range sub.Messages(ctx) {
		if err != nil {
			if errors.Is(err, stream.ErrStreamEnded) {
				break
			}
			result.Analysis = b.String()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
		}
		result.Chunks++
		b.WriteString(chunk)
		p.sendProgress(progress, analysisChunkUpdate(result.Chunks, chunk))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	result.Analysis = b.String()
	p.logger.Debug("analysis stream ended", "job", result.Job.ID, "chunks", result.Chunks, "bytes", b.Len())
	p.sendProgress(progress, analysisDoneUpdate(result.Chunks, b.Len()))
	return nil
}

func (p *Pipeline) record(job *models.Job, projectID string, inputFiles []string) *models.JobRecord {
	if p.history == nil {
		return nil
	}

	rec := models.NewJobRecord(0, job.ID, projectID, inputFiles)
	if err := p.history.Create(rec); err != nil {
		p.logger.Warn("failed to record job", "job", job.ID, "error", err)
		return nil
	}
	return rec
}

func (p *Pipeline) setStatus(rec *models.JobRecord, status models.JobStatus) {
	if rec == nil {
		return
	}

	rec.SetStatus(status)
	if err := p.history.Update(rec); err != nil {
		p.logger.Warn("failed to update job status", "job", rec.RemoteID(), "status", status, "error", err)
	}
}
