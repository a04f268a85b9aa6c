package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/az-math/azmath/internal/content"
)

func TestLessonMarkdown(t *testing.T) {
	lesson := content.Lesson{
		NumericID: 12,
		Title:     "Quadratic equations",
		Category:  "Algebra",
		Blocks: []content.Block{
			content.TextBlock{Content: "Solve $x^2 = 4$."},
			content.ImageBlock{URL: "https://example.com/parabola.png"},
			content.ProblemRefBlock{ProblemID: "101"},
			content.LessonRefBlock{LessonID: "3"},
		},
		ProblemRefs: []int64{101, 102},
	}

	md := LessonMarkdown(lesson)

	assert.Contains(t, md, "# Quadratic equations\n")
	assert.Contains(t, md, "*Algebra*\n")
	assert.Contains(t, md, "Solve $x^2 = 4$.", "math notation stays verbatim")
	assert.Contains(t, md, "![](https://example.com/parabola.png)")
	assert.Contains(t, md, "See Problem #101")
	assert.Contains(t, md, "See Lesson #3")
	assert.Contains(t, md, "## Practice problems")
	assert.Contains(t, md, "- Problem #102\n")
}

func TestLessonMarkdown_MinimalLesson(t *testing.T) {
	md := LessonMarkdown(content.Lesson{Title: "Bare"})

	assert.Equal(t, "# Bare\n\n", md)
}

func TestExportLesson_RejectsNonPDFPath(t *testing.T) {
	_, err := ExportLesson(content.Lesson{Title: "t"}, "lesson.txt")
	assert.ErrorContains(t, err, ".pdf extension")
}
