package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/autodev/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthRegister creates a backend account.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	email, password := cmd.String("email"), cmd.String("password")

	r.logger.Info("registering account", "email", email)

	user, err := r.client.Register(ctx, email, password)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Registered %s (id %s)\n", user.Email, user.ID)
}

// AuthLogin exchanges credentials for an access token and stores it in the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email, password := cmd.String("email"), cmd.String("password")

	r.logger.Info("logging in", "email", email)

	token, err := r.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := r.saveToken(token.AccessToken); err != nil {
		return err
	}

	r.logger.Info("authentication successful")
	if info, err := shared.InspectToken(token.AccessToken); err == nil && !info.ExpiresAt.IsZero() {
		return r.writePlain("✓ Logged in as %s (token expires %s)\n", email, info.ExpiresAt.Local().Format(time.DateTime))
	}
	return r.writePlain("✓ Logged in as %s\n", email)
}

// AuthStatus checks the backend is reachable and accepts the stored token.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status", "base_url", r.client.BaseURL())

	r.writePlain("Backend: %s\n", r.client.BaseURL())
	if r.config.API.Token == "" {
		r.writePlain("Authentication: ✗ No token stored\n")
		return fmt.Errorf("%w: run 'autodev auth login'", shared.ErrNotAuthenticated)
	}

	if info, err := shared.InspectToken(r.config.API.Token); err == nil {
		if info.Subject != "" {
			r.writePlain("Subject: %s\n", info.Subject)
		}
		if !info.ExpiresAt.IsZero() {
			r.writePlain("Expires: %s\n", info.ExpiresAt.Local().Format(time.DateTime))
		}
		if info.Expired(r.now()) {
			r.writePlain("Authentication: ✗ Token expired\n")
			return fmt.Errorf("%w: token expired, run 'autodev auth login'", shared.ErrNotAuthenticated)
		}
	} else {
		r.logger.Debug("stored token is opaque", "error", err)
	}

	projects, err := r.client.ListProjects(ctx)
	if err != nil {
		r.writePlain("Authentication: ✗ Token rejected or backend unreachable\n")
		return err
	}

	return r.writePlain("Authentication: ✓ Authenticated (%d project(s))\n", len(projects))
}

// saveToken stores token in memory and, when a config path is known, on disk.
//
// The client is rebuilt so later commands in the same process use the new token.
func (r *Runner) saveToken(token string) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}
	if token == "" {
		return fmt.Errorf("%w: empty token", shared.ErrAuthFailed)
	}

	r.config.API.Token = token
	r.client = r.newClient(r.httpClient)

	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.logger.Info("token saved", "path", r.configPath)
	return nil
}
