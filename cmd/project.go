package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/autodev/internal/formatter"
	"github.com/desertthunder/autodev/internal/shared"
	"github.com/urfave/cli/v3"
)

// ProjectCreate creates a project.
func (r *Runner) ProjectCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")

	r.logger.Info("creating project", "name", name)

	project, err := r.client.CreateProject(ctx, name, cmd.String("description"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(project, true)
	}
	return r.writePlain("✓ Created project %s (%s)\n", project.Name, project.ID)
}

// ProjectList lists projects in the requested format.
func (r *Runner) ProjectList(ctx context.Context, cmd *cli.Command) error {
	projects, err := r.client.ListProjects(ctx)
	if err != nil {
		return err
	}

	r.logger.Debug("listed projects", "count", len(projects))
	return formatter.WriteProjects(r.output, projects, cmd.String("format"), r.now())
}

// ProjectGet shows a single project.
func (r *Runner) ProjectGet(ctx context.Context, cmd *cli.Command) error {
	project, err := r.client.GetProject(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}
	return r.writeJSON(project, true)
}

// ProjectDelete deletes a project.
func (r *Runner) ProjectDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: project id", shared.ErrMissingArgument)
	}

	r.logger.Info("deleting project", "id", id)

	if err := r.client.DeleteProject(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted project %s\n", id)
}
