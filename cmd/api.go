package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/autodev/internal/client"
	"github.com/desertthunder/autodev/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request and prints the body.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	body, err := r.client.Raw(ctx, client.Request{Path: path})
	if err != nil {
		return err
	}

	var data any
	if cmd.Bool("pretty") && json.Unmarshal(body, &data) == nil {
		return r.writeJSON(data, true)
	}

	r.output.Write(body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request with a JSON body.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if err := shared.ValidateJSON([]byte(data)); err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.client.Request(ctx, client.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   json.RawMessage(data),
	})
	if err != nil {
		return err
	}
	if resp == nil {
		return r.writePlain("✓ Empty response\n")
	}
	return r.writeJSON(resp, true)
}
