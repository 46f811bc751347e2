package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pario-ai/promptsmith/pkg/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.buildResolver(); err != nil {
				return err
			}

			srv := server.New(a.cfg, a.resolver, a.sharedCache(), a.tracker)

			log.Printf("starting promptsmith with config: %s", *configPath)
			return srv.ListenAndServe(ctx)
		},
	}
}
