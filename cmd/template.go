package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/autodev/internal/formatter"
	"github.com/urfave/cli/v3"
)

// TemplateList lists the backend's starter templates.
func (r *Runner) TemplateList(ctx context.Context, cmd *cli.Command) error {
	templates, err := r.client.ListTemplates(ctx)
	if err != nil {
		return err
	}

	r.logger.Debug("listed templates", "count", len(templates))
	return formatter.WriteTemplates(r.output, templates, cmd.String("format"))
}

// TemplateGet prints a template's specification, writes it to a file, or saves it to a job.
func (r *Runner) TemplateGet(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	spec, err := r.client.TemplateSpec(ctx, id)
	if err != nil {
		return err
	}

	if job := cmd.String("job"); job != "" {
		r.logger.Info("saving template spec", "template", id, "job", job)
		result, err := r.client.SaveSpec(ctx, job, spec)
		if err != nil {
			return err
		}
		return r.writePlain("✓ %s\n", result.Message)
	}

	if out := cmd.String("output"); out != "" {
		if err := os.WriteFile(out, spec, 0644); err != nil {
			return fmt.Errorf("failed to write template: %w", err)
		}
		return r.writePlain("✓ Wrote %s (%s)\n", out, formatter.FormatSize(int64(len(spec))))
	}
	return r.writeJSON(spec, true)
}

// JobAsk asks the backend assistant to change a generated project.
func (r *Runner) JobAsk(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	r.logger.Info("asking assistant", "job", id)

	result, err := r.client.Ask(ctx, id, cmd.String("question"))
	if err != nil {
		return err
	}
	return r.writeJSON(result, true)
}
