package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"crew-portal/pkg/registry"
)

const defaultRegistryPath = "configs/sections.json"

func registryCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the sidebar section registry",
		Long: `Manage the section registry that drives the portal sidebar and the
admin permission checks. Without a file the built-in registry is used.`,
	}
	cmd.PersistentFlags().StringVar(&path, "path", defaultRegistryPath, "Path to registry file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Write the built-in registry to --path as a starting point",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists", path)
				}
				if err := registry.Default().Save(path); err != nil {
					return err
				}
				cmd.Printf("Wrote default registry to %s\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the registry file",
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := registry.LoadRegistry(path)
				if err != nil {
					return fmt.Errorf("registry validation failed: %w", err)
				}
				cmd.Printf("Registry validation passed. Found %d sections.\n", len(reg.Sections))
				return nil
			},
		},
		registryListCmd(&path),
		registrySetCmd(&path),
	)
	return cmd
}

func registryListCmd(path *string) *cobra.Command {
	var surface string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sections (the built-in registry when --path does not exist)",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Default()
			if _, err := os.Stat(*path); err == nil {
				loaded, err := registry.LoadRegistry(*path)
				if err != nil {
					return err
				}
				reg = loaded
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSURFACE\tPATH\tPERMISSION\tNAME")
			for _, s := range reg.Sections {
				if surface != "" && s.Surface != surface {
					continue
				}
				perm := s.Permission
				if perm == "" {
					perm = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Surface, s.Path, perm, s.DisplayName)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&surface, "surface", "", "Only list sections of this surface (crew or admin)")
	return cmd
}

func registrySetCmd(path *string) *cobra.Command {
	var id, field, value string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update one field (displayName, path, permission) of a section",
		Example: `  portal registry set --id admin-audit --field permission --value admins
  portal registry set --id admin-support --field displayName --value "Crew Support"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Update(id, field, value); err != nil {
				return err
			}
			if err := reg.Save(*path); err != nil {
				return err
			}
			cmd.Printf("Updated section %s, field %s to %q\n", id, field, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Section ID to update")
	cmd.Flags().StringVar(&field, "field", "", "Field to update")
	cmd.Flags().StringVar(&value, "value", "", "New value for the field")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}
