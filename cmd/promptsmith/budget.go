package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pario-ai/promptsmith/pkg/budget"
	"github.com/pario-ai/promptsmith/pkg/classify"
	"github.com/pario-ai/promptsmith/pkg/config"
	"github.com/pario-ai/promptsmith/pkg/models"
)

func newBudgetCmd(configPath *string) *cobra.Command {
	var category, language string

	cmd := &cobra.Command{
		Use:   "budget [text]",
		Short: "Preview the generation budget for a request, or print the budget table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			alloc, err := newAllocator(cfg.Budget)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			if len(args) == 0 {
				fmt.Fprintln(w, "LANG\tTYPE\tBASE\tTEMPERATURE")
				for _, lang := range models.Languages {
					for _, cat := range models.Categories {
						fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\n", lang, cat, alloc.Base(lang, cat), budget.Temperature(cat))
					}
				}
				fmt.Fprintf(w, "\nminimum\t%d\n", alloc.Minimum())
				return w.Flush()
			}

			req, err := buildRequest(strings.Join(args, " "), category, language)
			if err != nil {
				return err
			}
			text := strings.TrimSpace(req.Text)
			if req.Language == "" {
				req.Language = classify.Language(text)
			}
			if req.Category == "" {
				req.Category = classify.Category(text)
			}
			c := budget.Estimate(text)
			fmt.Fprintf(w, "Type:\t%s\n", req.Category)
			fmt.Fprintf(w, "Language:\t%s\n", req.Language)
			fmt.Fprintf(w, "Complexity:\t%.2f\n", c)
			fmt.Fprintf(w, "Base:\t%d\n", alloc.Base(req.Language, req.Category))
			fmt.Fprintf(w, "Budget:\t%d tokens\n", alloc.ForComplexity(req.Language, req.Category, c))
			fmt.Fprintf(w, "Temperature:\t%.1f\n", budget.Temperature(req.Category))
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&category, "type", "t", "", "category: text, image, video or code (inferred when empty)")
	cmd.Flags().StringVarP(&language, "lang", "l", "", "language: ar or en (detected when empty)")
	return cmd
}
