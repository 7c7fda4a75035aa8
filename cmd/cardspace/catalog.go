package main

import (
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/cardspace/internal/domain/catalog"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/config"
)

func newCatalogCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the effective card type catalog as YAML",
		Long: `Print every card type with its size limits, default size and title.
Overrides are read from --file, or from CATALOG_FILE when the flag is absent.
YAML and TOML override files are accepted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = config.LoadOrDefault().Workspace.CatalogFile
			}

			cat := catalog.New()
			if file != "" {
				if err := cat.LoadFile(file); err != nil {
					return err
				}
			}

			data, err := cat.EncodeYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Catalog override file (.yaml, .yml or .toml)")
	return cmd
}
