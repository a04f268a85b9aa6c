package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/az-math/azmath/internal/content"
	"github.com/az-math/azmath/internal/pdf"
	"github.com/az-math/azmath/internal/store"
)

func newPDFCommand() *cobra.Command {
	var (
		lessonID int64
		output   string
	)

	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Export one lesson as a PDF file",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeDB, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			body, err := s.Get(cmd.Context(), store.CollectionLessons, strconv.FormatInt(lessonID, 10))
			if err != nil {
				return fmt.Errorf("store.Get() > %w", err)
			}

			path, err := pdf.ExportLesson(content.HydrateLesson(body), output)
			if err != nil {
				return fmt.Errorf("pdf.ExportLesson() > %w", err)
			}
			color.Green("Wrote %s", path)
			return nil
		},
	}
	cmd.Flags().Int64Var(&lessonID, "lesson", 0, "numeric lesson ID")
	cmd.Flags().StringVar(&output, "out", "lesson.pdf", "output PDF path")
	_ = cmd.MarkFlagRequired("lesson")
	return cmd
}
