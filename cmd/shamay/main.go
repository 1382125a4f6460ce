// Package main provides the CLI entry point for the Shamay appraisal chat
// service.
//
// Basic usage:
//
//	shamay serve --config shamay.yaml
//	shamay seed --db shamay.db
//
// Configuration can also come from the environment; a local .env file is
// loaded when present. ANTHROPIC_API_KEY supplies the model credential when
// llm.api_key is not set in the config file.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Build information, populated by ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "loaded environment from .env")
	}

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "shamay",
		Short:         "Record-scoped appraisal chat service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(buildServeCmd(), buildSeedCmd(), buildVersionCmd())
	return cmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shamay %s (%s)\n", version, commit)
		},
	}
}
