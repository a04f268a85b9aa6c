// Package pdf renders lessons into printable PDF files.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mandolyte/mdtopdf"

	"github.com/az-math/azmath/internal/content"
)

// ExportLesson writes the lesson as markdown next to the target path and
// converts it to PDF. It returns the absolute PDF path.
func ExportLesson(lesson content.Lesson, outputPath string) (string, error) {
	if !strings.HasSuffix(outputPath, ".pdf") {
		return "", fmt.Errorf("output file must have .pdf extension: %s", outputPath)
	}

	markdownPath := strings.TrimSuffix(outputPath, ".pdf") + ".md"
	if err := os.WriteFile(markdownPath, []byte(LessonMarkdown(lesson)), 0o644); err != nil {
		return "", fmt.Errorf("os.WriteFile(%s) > %w", markdownPath, err)
	}

	renderer := mdtopdf.NewPdfRenderer("P", "A4", outputPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process([]byte(LessonMarkdown(lesson))); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return outputPath, nil
	}
	return absPath, nil
}

// LessonMarkdown flattens a lesson into markdown: text blocks verbatim
// (math notation stays as-is), images as embeds, references as plain links.
func LessonMarkdown(lesson content.Lesson) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", lesson.Title)
	if lesson.Category != "" {
		fmt.Fprintf(&b, "*%s*\n\n", lesson.Category)
	}

	for _, block := range lesson.Blocks {
		switch block := block.(type) {
		case content.TextBlock:
			b.WriteString(block.Content)
			b.WriteString("\n\n")
		case content.ImageBlock:
			fmt.Fprintf(&b, "![](%s)\n\n", block.URL)
		case content.ProblemRefBlock:
			fmt.Fprintf(&b, "See Problem #%s\n\n", block.ProblemID)
		case content.LessonRefBlock:
			fmt.Fprintf(&b, "See Lesson #%s\n\n", block.LessonID)
		}
	}

	if len(lesson.ProblemRefs) > 0 {
		b.WriteString("## Practice problems\n\n")
		for _, id := range lesson.ProblemRefs {
			fmt.Fprintf(&b, "- Problem #%d\n", id)
		}
		b.WriteString("\n")
	}
	return b.String()
}
