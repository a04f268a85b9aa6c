package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/az-math/azmath/internal/datasync"
)

func newExportCommand() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export lessons and problems to YAML files",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			if err := datasync.Export(cmd.Context(), s, outputDir); err != nil {
				return fmt.Errorf("datasync.Export() > %w", err)
			}
			color.Green("Exported lessons and problems to %s", outputDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&outputDir, "out", "backup", "output directory")
	return cmd
}

func newImportCommand() *cobra.Command {
	var inputDir string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import lessons and problems from YAML files",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			if err := datasync.Import(cmd.Context(), s, inputDir); err != nil {
				return fmt.Errorf("datasync.Import() > %w", err)
			}
			color.Green("Imported lessons and problems from %s", inputDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&inputDir, "in", "backup", "input directory")
	return cmd
}
