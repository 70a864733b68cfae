package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/desertthunder/autodev/internal/client"
	"github.com/desertthunder/autodev/internal/formatter"
	"github.com/desertthunder/autodev/internal/shared"
	"github.com/urfave/cli/v3"
)

// Upload sends local documents to the backend and prints their server-side paths.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	files, err := client.ReadFiles(cmd.StringArgs("files")...)
	if err != nil {
		return err
	}

	r.logger.Info("uploading files", "count", len(files))

	result, err := r.client.UploadFiles(ctx, files)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("✓ Uploaded %d file(s)\n", len(result.Files))
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

// JobCreate creates a job over uploaded files.
func (r *Runner) JobCreate(ctx context.Context, cmd *cli.Command) error {
	projectID := cmd.String("project")
	inputs := cmd.StringSlice("file")

	r.logger.Info("creating job", "project", projectID, "files", len(inputs))

	job, err := r.client.CreateJob(ctx, projectID, inputs)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created job %s\n", job.ID)
}

// JobList lists the jobs of a project.
func (r *Runner) JobList(ctx context.Context, cmd *cli.Command) error {
	jobs, err := r.client.ListJobs(ctx, cmd.String("project"))
	if err != nil {
		return err
	}
	return formatter.WriteJobs(r.output, jobs, cmd.String("format"), r.now())
}

// JobPreview prints a summary of the job's saved spec, optionally writing it as markdown.
func (r *Runner) JobPreview(ctx context.Context, cmd *cli.Command) error {
	preview, err := r.client.PreviewSpec(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(preview, true)
	}

	if out := cmd.String("output"); out != "" {
		if err := os.WriteFile(out, formatter.SpecMarkdown(preview), 0644); err != nil {
			return fmt.Errorf("failed to write preview: %w", err)
		}
		r.logger.Info("preview saved", "path", out)
	}

	r.writePlainHeader(preview.AppName)
	if preview.Description != "" {
		r.writePlain("%s\n\n", preview.Description)
	}
	return r.writePlain("Entities: %d  Endpoints: %d  Pages: %d\n", preview.Entities, preview.Endpoints, preview.Pages)
}

// JobSaveSpec stores a specification read from a JSON file.
func (r *Runner) JobSaveSpec(ctx context.Context, cmd *cli.Command) error {
	data, err := shared.VerifyAndReadFile(cmd.String("file"))
	if err != nil {
		return err
	}
	if err := shared.ValidateJSON(data); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	r.logger.Info("saving spec", "job", id, "bytes", len(data))

	result, err := r.client.SaveSpec(ctx, id, json.RawMessage(data))
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", result.Message)
}

// JobGenerate triggers generation and prints the backend's response.
func (r *Runner) JobGenerate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	r.logger.Info("generating", "job", id)

	result, err := r.client.Generate(ctx, id)
	if err != nil {
		return err
	}
	if result == nil {
		return r.writePlain("✓ Generation started for job %s\n", id)
	}
	return r.writeJSON(result, true)
}

// JobDownload saves the generated archive.
func (r *Runner) JobDownload(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}

	out := cmd.String("output")
	if out == "" {
		out = id + ".zip"
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}

	n, err := r.client.Download(ctx, id, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		return err
	}

	r.logger.Info("archive saved", "path", out, "bytes", n)
	return r.writePlain("✓ Downloaded %s (%s)\n", out, formatter.FormatSize(n))
}

// JobFiles prints one file, writes every file under a directory, or lists the file tree.
func (r *Runner) JobFiles(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")

	if path := cmd.String("path"); path != "" {
		file, err := r.client.JobFile(ctx, id, path)
		if err != nil {
			return err
		}
		return r.writePlain("%s", file.Content)
	}

	files, err := r.client.JobFiles(ctx, id)
	if err != nil {
		return err
	}

	if dir := cmd.String("dir"); dir != "" {
		written, err := formatter.WriteJobFiles(dir, files.Files)
		if err != nil {
			return err
		}
		r.logger.Info("files written", "dir", dir, "count", len(written))
		return r.writePlain("✓ Wrote %d file(s) to %s\n", len(written), filepath.Clean(dir))
	}

	paths := make([]string, 0, len(files.Files))
	for p := range files.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		r.writePlain("%-50s %s\n", p, formatter.FormatSize(int64(len(files.Files[p]))))
	}
	return nil
}
