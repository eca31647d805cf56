// Package cmd holds the command line entry points.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/erp-insight-agent/pkg/config"
)

var Version = "0.1.0"

var envFile string

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "erp-insight-agent",
		Short: "Answer inventory and CRM questions from chat, JSON-RPC or the shell",
		Long: `erp-insight-agent answers natural-language questions about inventory
and the CRM pipeline. Messages are matched to a fixed catalog of queries
that run against a relational store.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if envFile != "" {
				configx.SetEnvFile(envFile)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file (default: $ENV_FILE or ./.env)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newCallCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newSeedCmd())

	return rootCmd
}

func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
