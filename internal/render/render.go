// Package render turns block sequences into HTML fragments for the editor,
// preview, and public views.
package render

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/az-math/azmath/internal/content"
	"github.com/az-math/azmath/internal/resolve"
)

// Context selects the affordances a fragment carries.
type Context string

const (
	// ContextEditor renders editable fields with move/remove controls.
	ContextEditor Context = "editor"
	// ContextPreview renders static fragments inside the admin editor.
	ContextPreview Context = "preview"
	// ContextPublic renders static fragments for the public site.
	ContextPublic Context = "public"
)

//go:embed templates/blocks.html.tmpl
var fallbackBlockTemplates string

// ParseBlockTemplates loads the block templates from templatePath when it
// exists, falling back to the embedded set.
func ParseBlockTemplates(templatePath string) (*template.Template, error) {
	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(templatePath)).ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse block templates, using embedded set",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New("blocks.html.tmpl").Parse(fallbackBlockTemplates)
	if err != nil {
		return nil, fmt.Errorf("parse embedded block templates: %w", err)
	}
	return tmpl, nil
}

// Renderer renders block sequences. Rendering never mutates the sequence;
// reference blocks are looked up read-only through the resolver.
type Renderer struct {
	tmpl     *template.Template
	resolver *resolve.Resolver
}

// NewRenderer creates a Renderer. templatePath may be empty to use the
// embedded templates.
func NewRenderer(resolver *resolve.Resolver, templatePath string) (*Renderer, error) {
	tmpl, err := ParseBlockTemplates(templatePath)
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, resolver: resolver}, nil
}

// Result is one render pass over a sequence.
type Result struct {
	// Fragments holds one fragment per block, in sequence order.
	Fragments []template.HTML
	// NeedsTypeset is set when any text block contains math notation, so
	// the page invokes the client-side typesetter once after insertion.
	NeedsTypeset bool
}

// Render produces one fragment per block in sequence order. Unknown blocks
// render an explicit placeholder rather than disappearing. In preview and
// public contexts reference blocks resolve concurrently, and every resolved
// fragment lands at its block's original index regardless of completion
// order.
func (r *Renderer) Render(ctx context.Context, blocks []content.Block, rc Context) (Result, error) {
	fragments := make([]template.HTML, len(blocks))

	var wg sync.WaitGroup
	var firstErr error
	var mu sync.Mutex

	for i, b := range blocks {
		kind, id, isRef := refFields(b)
		if rc != ContextEditor && isRef {
			wg.Add(1)
			go func(i int, kind, id string) {
				defer wg.Done()
				frag, err := r.renderReference(ctx, kind, id, rc)
				mu.Lock()
				defer mu.Unlock()
				if err != nil && firstErr == nil {
					firstErr = err
				}
				fragments[i] = frag
			}(i, kind, id)
			continue
		}

		frag, err := r.renderStatic(i, b, rc)
		if err != nil {
			return Result{}, err
		}
		fragments[i] = frag
	}
	wg.Wait()

	if firstErr != nil {
		return Result{}, firstErr
	}
	return Result{Fragments: fragments, NeedsTypeset: content.HasMath(blocks)}, nil
}

func (r *Renderer) renderStatic(index int, b content.Block, rc Context) (template.HTML, error) {
	switch b := b.(type) {
	case content.TextBlock:
		if rc == ContextEditor {
			return r.execute("editor_text", map[string]any{"Index": index, "Content": b.Content})
		}
		return r.execute("text", map[string]any{"Content": b.Content})
	case content.ImageBlock:
		if rc == ContextEditor {
			return r.execute("editor_image", map[string]any{"Index": index, "URL": b.URL})
		}
		return r.execute("image", map[string]any{"URL": b.URL})
	case content.ProblemRefBlock:
		return r.execute("editor_ref", map[string]any{"Index": index, "Label": "Problem", "ID": b.ProblemID})
	case content.LessonRefBlock:
		return r.execute("editor_ref", map[string]any{"Index": index, "Label": "Lesson", "ID": b.LessonID})
	}
	if rc == ContextEditor {
		// unknown blocks keep their payload, so the editor still lets
		// them be moved and removed
		return r.execute("editor_unknown", map[string]any{"Index": index})
	}
	return r.execute("unknown", nil)
}

// renderReference renders a reference block for preview/public contexts. A
// dangling reference is a steady state: it still yields a valid link to the
// (possibly nonexistent) target. Store failures degrade to the same dead
// link so a flaky backend can not blank a page.
func (r *Renderer) renderReference(ctx context.Context, kind, id string, rc Context) (template.HTML, error) {
	label, href := refDisplay(kind, id)

	ref, err := r.resolver.Resolve(ctx, kind, id)
	if err != nil {
		if !errors.Is(err, resolve.ErrNotFound) {
			slog.Default().Warn("reference lookup failed, rendering dead link",
				slog.String("kind", kind),
				slog.String("id", id),
				slog.Any("error", err),
			)
		}
		return r.execute("ref_missing", map[string]any{"Label": label, "ID": id, "Href": href})
	}

	return r.execute("ref_resolved", map[string]any{
		"Label":        label,
		"ID":           id,
		"Href":         href,
		"Ref":          ref,
		"ShowSolution": rc == ContextPublic && kind == resolve.KindProblem && ref.Solutions > 0,
	})
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute block template %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func refFields(b content.Block) (kind, id string, ok bool) {
	switch b := b.(type) {
	case content.ProblemRefBlock:
		return resolve.KindProblem, b.ProblemID, true
	case content.LessonRefBlock:
		return resolve.KindLesson, b.LessonID, true
	}
	return "", "", false
}

func refDisplay(kind, id string) (label, href string) {
	if kind == resolve.KindProblem {
		return "Problem", "/problems/" + id
	}
	return "Lesson", "/lessons/" + id
}
