// Package content defines the typed content block model shared by lessons and
// problems, the block sequence editor, and the assembly between persisted
// documents and editor state.
package content

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Block type discriminator values as stored in documents.
const (
	BlockTypeText    = "text"
	BlockTypeImage   = "image"
	BlockTypeProblem = "problem"
	BlockTypeLesson  = "lesson"
)

// Block is one typed unit of content inside a lesson body, a problem
// statement, or a solution.
type Block interface {
	// Type returns the persisted discriminator value, or "" for blocks the
	// current code does not understand.
	Type() string
}

// TextBlock holds free text. It may contain $...$ or $$...$$ math notation,
// which is opaque here and typeset client-side.
type TextBlock struct {
	Content string
}

func (TextBlock) Type() string { return BlockTypeText }

// ImageBlock references an externally hosted image. The URL is not checked
// for reachability at edit time; `azmath audit images` reports dead ones.
type ImageBlock struct {
	URL string
}

func (ImageBlock) Type() string { return BlockTypeImage }

// ProblemRefBlock is a cross-reference to a problem by its numeric ID. Old
// documents store the ID either as a JSON number or as a string, so it is
// kept as a string here.
type ProblemRefBlock struct {
	ProblemID string
}

func (ProblemRefBlock) Type() string { return BlockTypeProblem }

// LessonRefBlock is a cross-reference to a lesson by its numeric ID.
type LessonRefBlock struct {
	LessonID string
}

func (LessonRefBlock) Type() string { return BlockTypeLesson }

// UnknownBlock carries a block whose type discriminator is missing or
// unrecognized. The original payload is preserved so that saving an entity
// emits it back unchanged.
type UnknownBlock struct {
	Raw json.RawMessage
}

func (UnknownBlock) Type() string { return "" }

// ParseBlock maps one persisted block record to its typed variant. It never
// fails: missing fields default to empty strings and any unrecognized or
// absent type yields an UnknownBlock wrapping the raw payload.
func ParseBlock(raw json.RawMessage) Block {
	return parseBlock(gjson.ParseBytes(raw))
}

func parseBlock(r gjson.Result) Block {
	switch r.Get("type").String() {
	case BlockTypeText:
		return TextBlock{Content: r.Get("content").String()}
	case BlockTypeImage:
		return ImageBlock{URL: r.Get("url").String()}
	case BlockTypeProblem:
		return ProblemRefBlock{ProblemID: r.Get("problemId").String()}
	case BlockTypeLesson:
		return LessonRefBlock{LessonID: r.Get("lessonId").String()}
	}
	return UnknownBlock{Raw: json.RawMessage(r.Raw)}
}

// ParseBlockSequence maps a persisted JSON array to a block sequence. A
// missing or non-array value yields an empty sequence, never an error.
func ParseBlockSequence(raw json.RawMessage) []Block {
	return parseBlockSequence(gjson.ParseBytes(raw))
}

func parseBlockSequence(r gjson.Result) []Block {
	if !r.IsArray() {
		return nil
	}
	items := r.Array()
	blocks := make([]Block, 0, len(items))
	for _, item := range items {
		blocks = append(blocks, parseBlock(item))
	}
	return blocks
}

// SerializeBlock is the inverse of ParseBlock for the four known variants.
// UnknownBlock serialization re-emits the original payload unchanged.
func SerializeBlock(b Block) any {
	switch b := b.(type) {
	case TextBlock:
		return map[string]any{"type": BlockTypeText, "content": b.Content}
	case ImageBlock:
		return map[string]any{"type": BlockTypeImage, "url": b.URL}
	case ProblemRefBlock:
		return map[string]any{"type": BlockTypeProblem, "problemId": b.ProblemID}
	case LessonRefBlock:
		return map[string]any{"type": BlockTypeLesson, "lessonId": b.LessonID}
	case UnknownBlock:
		if len(b.Raw) == 0 {
			return map[string]any{}
		}
		return b.Raw
	}
	return map[string]any{}
}

// SerializeBlockSequence serializes a block sequence into the persisted array
// shape.
func SerializeBlockSequence(blocks []Block) []any {
	out := make([]any, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, SerializeBlock(b))
	}
	return out
}

// HasMath reports whether any text block in the sequence contains inline or
// display math notation, so pages know to invoke the typesetter after a
// render pass.
func HasMath(blocks []Block) bool {
	for _, b := range blocks {
		if t, ok := b.(TextBlock); ok && strings.Contains(t.Content, "$") {
			return true
		}
	}
	return false
}
