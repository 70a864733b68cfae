package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/autodev/internal/client"
	"github.com/desertthunder/autodev/internal/formatter"
	"github.com/desertthunder/autodev/internal/models"
	"github.com/desertthunder/autodev/internal/shared"
	"github.com/desertthunder/autodev/internal/stream"
	"github.com/desertthunder/autodev/internal/tasks"
	"github.com/desertthunder/autodev/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/autodev-tui.log"

// Stream prints a job's analysis stream until the server ends it.
func (r *Runner) Stream(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}

	sub := r.streamClient().AnalyzeStream(id)
	r.logger.Info("subscribing", "url", sub.URL())

	chunks := 0
	for msg, err := range sub.Messages(ctx) {
		if err != nil {
			if errors.Is(err, stream.ErrStreamEnded) {
				break
			}
			return err
		}
		chunks++
		r.writePlain("%s", msg)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.logger.Info("stream ended", "chunks", chunks)
	return r.writePlainln("✓ Stream ended after %d message(s)", chunks)
}

// Watch follows a job's analysis stream in the TUI.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}

	sub := r.streamClient().AnalyzeStream(id)
	return r.runTUI(ctx, "Job "+id, ui.StreamRunner(sub))
}

// Run drives the full pipeline, either in the TUI or with plain progress lines.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	files, err := client.ReadFiles(cmd.StringArgs("files")...)
	if err != nil {
		return err
	}

	name := cmd.String("name")
	if name == "" && cmd.String("project") == "" {
		name = defaultProjectName(cmd.StringArgs("files"))
	}

	opts := tasks.RunOpts{
		ProjectID:    cmd.String("project"),
		ProjectName:  name,
		Description:  cmd.String("description"),
		Files:        files,
		BatchSize:    r.config.Upload.BatchSize,
		RateLimit:    r.config.Upload.RateLimit,
		SkipGenerate: cmd.Bool("skip-generate"),
	}

	if cmd.Bool("tui") {
		return r.runTUI(ctx, "Pipeline: "+opts.ProjectName, ui.PipelineRunner(r.pipeline(), opts))
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			if u.Phase == tasks.Analyze && u.Data != nil {
				continue
			}
			r.logger.Info(u.Message, "phase", u.Phase.String(), "step", u.Step, "total", u.Total)
		}
	}()

	result, err := r.pipeline().Run(ctx, progress, opts)
	close(progress)
	<-done

	if err != nil {
		return err
	}
	return r.writeRunResult(result)
}

func (r *Runner) writeRunResult(res *tasks.RunResult) error {
	r.writePlainHeader("Run complete")
	r.writePlain("Project:  %s (%s)\n", res.Project.Name, res.Project.ID)
	r.writePlain("Uploaded: %d file(s)\n", len(res.Uploaded))
	r.writePlain("Job:      %s\n", res.Job.ID)
	r.writePlain("Analysis: %d chunk(s), spec %s\n", res.Chunks, formatter.FormatSize(int64(len(res.Spec))))
	if res.Generated != nil {
		r.writePlain("Generate: ✓\n")
	}
	if res.Record != nil {
		r.writePlain("History:  #%d\n", res.Record.Sequence())
	}
	return nil
}

// runTUI runs a watcher with logs redirected to a file so they do not interfere with rendering.
func (r *Runner) runTUI(ctx context.Context, title string, run ui.Runner) error {
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, title, run)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return model.Err()
}

// History lists locally recorded jobs.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.history()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if p := cmd.String("project"); p != "" {
		criteria["project_id"] = p
	}
	if s := cmd.String("status"); s != "" {
		criteria["status"] = models.JobStatus(s)
	}

	records, err := repo.List(criteria)
	if err != nil {
		return err
	}
	return formatter.WriteHistory(r.output, records, r.now())
}

func defaultProjectName(paths []string) string {
	if len(paths) == 0 {
		return "Untitled"
	}
	base := filepath.Base(paths[0])
	return base[:len(base)-len(filepath.Ext(base))]
}
