package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pario-ai/promptsmith/pkg/cache/sqlite"
)

func newCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the shared prompt cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cache == nil {
				fmt.Println("Cache is disabled.")
				return nil
			}
			stats, err := a.cache.Stats(ctx)
			if err != nil {
				return fmt.Errorf("cache stats: %w", err)
			}
			fmt.Printf("Backend:        %s\nShared entries: %d\n", a.cfg.Cache.Backend, stats.SharedEntries)
			return nil
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear shared cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cache == nil || a.cache.Shared() == nil {
				fmt.Println("No shared cache configured.")
				return nil
			}
			shared := a.cache.Shared()

			if expiredOnly {
				st, ok := shared.(*sqlite.Store)
				if !ok {
					fmt.Println("Redis expires entries on its own; nothing to purge.")
					return nil
				}
				n, err := st.PurgeExpired(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Purged %d expired cache entries.\n", n)
				return nil
			}

			if err := shared.Clear(ctx); err != nil {
				return err
			}
			fmt.Println("All cache entries cleared.")
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only purge expired entries (sqlite backend)")

	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
