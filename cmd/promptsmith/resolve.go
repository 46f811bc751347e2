package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pario-ai/promptsmith/pkg/models"
)

func newResolveCmd(configPath *string) *cobra.Command {
	var category, language string

	cmd := &cobra.Command{
		Use:   "resolve <text>",
		Short: "Resolve one request and print the prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(strings.Join(args, " "), category, language)
			if err != nil {
				return err
			}

			ctx := context.Background()
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.buildResolver(); err != nil {
				return err
			}

			resp, err := a.resolver.Resolve(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
			fmt.Fprintf(cmd.ErrOrStderr(), "category=%s language=%s cached=%t rule_based=%t\n",
				resp.Category, resp.Language, resp.Cached, resp.RuleBased)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "type", "t", "", "category: text, image, video or code (inferred when empty)")
	cmd.Flags().StringVarP(&language, "lang", "l", "", "language: ar or en (detected when empty)")
	return cmd
}

func buildRequest(text, category, language string) (models.PromptRequest, error) {
	req := models.PromptRequest{Text: text}
	if category != "" {
		cat, err := models.ParseCategory(strings.ToLower(category))
		if err != nil {
			return req, err
		}
		req.Category = cat
	}
	if language != "" {
		lang, err := models.ParseLanguage(strings.ToLower(language))
		if err != nil {
			return req, err
		}
		req.Language = lang
	}
	return req, nil
}
