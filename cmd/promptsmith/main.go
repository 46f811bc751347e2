package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	var configPath string
	root := &cobra.Command{
		Use:          "promptsmith",
		Short:        "Promptsmith turns short ideas into professional prompts",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "promptsmith.yaml", "path to config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newResolveCmd(&configPath),
		newCacheCmd(&configPath),
		newStatsCmd(&configPath),
		newBudgetCmd(&configPath),
		newMCPCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
