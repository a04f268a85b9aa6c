package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/az-math/azmath/internal/audit"
)

func newAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit stored content",
	}
	cmd.AddCommand(newAuditImagesCommand())
	return cmd
}

func newAuditImagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "Check every image block URL and report unreachable ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			findings, err := audit.NewImageAuditor(s).Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("auditor.Run() > %w", err)
			}

			if len(findings) == 0 {
				color.Green("All image URLs are reachable")
				return nil
			}
			for _, f := range findings {
				if f.Err != "" {
					color.Red("%s/%s: %s (%s)", f.Collection, f.DocID, f.URL, f.Err)
					continue
				}
				color.Red("%s/%s: %s (HTTP %d)", f.Collection, f.DocID, f.URL, f.StatusCode)
			}
			return fmt.Errorf("%d unreachable image(s)", len(findings))
		},
	}
}
