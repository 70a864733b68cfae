package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/autodev/internal/stream"
	"github.com/desertthunder/autodev/internal/tasks"
)

// Runner performs the watched work, reporting on progress, and returns a one-line summary.
//
// The watcher closes progress after Runner returns.
type Runner func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (string, error)

// StreamRunner follows sub until the server ends the stream, forwarding each message as an analysis chunk.
func StreamRunner(sub *stream.Subscriber) Runner {
	return func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (string, error) {
		chunks := 0
		for msg, err := range sub.Messages(ctx) {
			if err != nil {
				if errors.Is(err, stream.ErrStreamEnded) {
					break
				}
				return "", err
			}

			chunks++
			update := tasks.ProgressUpdate{Phase: tasks.Analyze, Step: chunks, Message: msg, Data: msg}
			select {
			case progress <- update:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return fmt.Sprintf("Stream ended after %d message(s)", chunks), nil
	}
}

// PipelineRunner drives a full pipeline run.
func PipelineRunner(p *tasks.Pipeline, opts tasks.RunOpts) Runner {
	return func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (string, error) {
		res, err := p.Run(ctx, progress, opts)
		if err != nil {
			return "", err
		}
		if res.Generated == nil {
			return fmt.Sprintf("Spec saved for job %s", res.Job.ID), nil
		}
		return fmt.Sprintf("Job %s generated", res.Job.ID), nil
	}
}
