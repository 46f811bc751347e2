package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pario-ai/promptsmith/pkg/mcp"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start Promptsmith as an MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// stdout carries the protocol
			log.SetOutput(os.Stderr)

			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			// usage and cache tools work without providers
			if len(a.cfg.Providers) > 0 {
				if err := a.buildResolver(); err != nil {
					return err
				}
			}

			deps := mcp.Deps{Tracker: a.tracker, Budget: a.budget}
			if a.resolver != nil {
				deps.Resolver = a.resolver
			}
			if a.cache != nil {
				deps.Cache = a.cache
			}
			return mcp.New(deps, version).Run(ctx, os.Stdin, os.Stdout)
		},
	}
}
