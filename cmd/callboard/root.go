package main

import (
	"github.com/MikeSquared-Agency/callboard/internal/config"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var cfg config.Config

	rootCmd := &cobra.Command{
		Use:           "callboard",
		Short:         "Call tracking backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			setupLogging(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand(&cfg))
	rootCmd.AddCommand(newMigrateCommand(&cfg))
	rootCmd.AddCommand(newTranscriptCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}
