package main

import (
	"context"
	"fmt"
	"net"

	"github.com/desertthunder/autodev/internal/server"
	"github.com/urfave/cli/v3"
)

// Proxy serves the local development proxy until interrupted.
func (r *Runner) Proxy(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	handler, err := r.proxyHandler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	r.writePlain("Forwarding http://%s/api/* to %s\n", ln.Addr(), r.config.API.BaseURL)
	return server.Serve(ctx, ln, handler, r.logger)
}

func (r *Runner) proxyHandler() (*server.BasicRouter, error) {
	proxy, err := server.NewProxyHandler(server.ProxyOptions{
		BaseURL:   r.config.API.BaseURL,
		Token:     r.config.API.Token,
		Transport: r.httpClient.Transport,
		Logger:    r.logger,
	})
	if err != nil {
		return nil, err
	}
	return server.NewHandler(proxy, r.logger), nil
}
