package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conductor-ai/conductor/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP+SSE front-end",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr from config")
	return cmd
}

func runServe(parent context.Context, addrFlag string) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b, err := newBootstrap(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	addr := b.cfg.Server.Addr
	if addrFlag != "" {
		addr = addrFlag
	}

	jwtSvc := httpapi.NewJWTService(b.cfg.Server.JWTSecret, 0)
	server := httpapi.NewServer(b.orchestrator, jwtSvc, nil, b.logger)

	fmt.Printf("conductor serve: listening on %s (auth enabled: %v)\n", addr, jwtSvc.Enabled())
	return server.ListenAndServe(ctx, addr)
}
