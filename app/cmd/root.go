// Package cmd wires the canvaspilot CLI.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/canvaspilot/canvaspilot/config"
)

var (
	cfgFile string
	envFile string

	globalCfg *config.Config
)

// Execute is the entry point for the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd wires the cobra tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "canvaspilot",
		Short:         "Conversational study assistant for Canvas LMS",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; a named one that is missing is an error.
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("load %s: %w", envFile, err)
				}
			} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if cfgFile == "" {
				cfgFile = config.DefaultPath()
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			globalCfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file")
	root.PersistentFlags().StringVar(&envFile, "env", "", "Path to .env file")

	root.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newToolsCmd(),
		newConfigCmd(),
		newSessionsCmd(),
	)
	return root
}
