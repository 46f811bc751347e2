package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newStatsCmd(configPath *string) *cobra.Command {
	var (
		since  time.Duration
		limit  int
		recent bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show resolution statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

			if recent {
				recs, err := a.tracker.Recent(ctx, limit)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					fmt.Println("No resolutions recorded.")
					return nil
				}
				fmt.Fprintln(w, "TIME\tOUTCOME\tTYPE\tLANG\tPROMPT\tBUDGET\tTOKENS\tLATENCY")
				for _, r := range recs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%dms\n",
						r.CreatedAt.Format("2006-01-02T15:04:05"), r.Outcome, r.Category, r.Language,
						r.Fingerprint, r.Budget, r.TotalTokens, r.LatencyMs)
				}
				return w.Flush()
			}

			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			summary, err := a.tracker.Summary(ctx, from)
			if err != nil {
				return err
			}
			if len(summary) == 0 {
				fmt.Println("No resolutions recorded.")
				return nil
			}
			fmt.Fprintln(w, "OUTCOME\tREQUESTS\tTOKENS\tAVG LATENCY")
			for _, s := range summary {
				fmt.Fprintf(w, "%s\t%d\t%d\t%.0fms\n", s.Outcome, s.RequestCount, s.TotalTokens, s.AvgLatencyMs)
			}
			fmt.Fprintln(w)

			top, err := a.tracker.TopRequested(ctx, from, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "PROMPT\tTYPE\tLANG\tREQUESTS")
			for _, t := range top {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", t.Fingerprint, t.Category, t.Language, t.Count)
			}
			return w.Flush()
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "only count resolutions within this window (e.g. 24h)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "rows to show for top and recent lists")
	cmd.Flags().BoolVar(&recent, "recent", false, "list the latest resolutions instead of the summary")
	return cmd
}
