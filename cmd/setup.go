package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/autodev/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a default config file to the runner's config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if r.configPath == "" {
		return fmt.Errorf("%w: config path", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)

	if baseURL := cmd.String("base-url"); baseURL != "" {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return err
		}
		config.API.BaseURL = baseURL
		if err := shared.SaveConfig(r.configPath, config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		r.config.API.BaseURL = baseURL
	}

	return r.writePlain("✓ Config written to %s\n", r.configPath)
}

// SetupDatabase initializes the history database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("running database migrations", "path", r.config.Database.Path)

	if _, err := r.history(); err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ History database ready at %s\n", r.config.Database.Path)
}
