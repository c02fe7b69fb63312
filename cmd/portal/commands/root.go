// Package commands wires the portal's command line.
package commands

import (
	"github.com/spf13/cobra"

	"crew-portal/internal/common/config"
)

// Version is stamped at build time with -ldflags "-X crew-portal/cmd/portal/commands.Version=...".
var Version = "dev"

var configPath string

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portal",
		Short:         "Crew and admin web portal for the crew-management backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default configs/config.yaml)")

	root.AddCommand(serveCmd(), configCmd(), registryCmd(), versionCmd())
	return root
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the portal version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("crew-portal %s\n", Version)
		},
	}
}
