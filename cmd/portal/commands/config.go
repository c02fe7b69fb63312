package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"crew-portal/pkg/registry"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect portal configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration, printing it with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}
			if _, err := registry.Load(cfg.Registry.Path); err != nil {
				return fmt.Errorf("section registry invalid: %w", err)
			}
			out, err := json.MarshalIndent(cfg.Redacted(), "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			cmd.Println("Configuration OK.")
			return nil
		},
	})
	return cmd
}
