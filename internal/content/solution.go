package content

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Solution is one alternative worked solution to a problem. Ordinal is
// 1-based and display-only: it is always recomputed from list position, never
// trusted from storage, because old documents persisted ids that drifted from
// the visible numbering.
type Solution struct {
	Ordinal int
	Blocks  []Block
}

// SolutionGroup manages the ordered list of solutions in the problem editor.
// Each solution owns its own block sequence editor.
type SolutionGroup struct {
	editors []*SequenceEditor
}

// NewSolutionGroup builds a group from hydrated solutions.
func NewSolutionGroup(solutions []Solution) *SolutionGroup {
	g := &SolutionGroup{}
	for _, s := range solutions {
		g.editors = append(g.editors, NewSequenceEditor(s.Blocks))
	}
	return g
}

// Len returns the number of solutions.
func (g *SolutionGroup) Len() int { return len(g.editors) }

// AddSolution appends a new solution seeded with one empty text block and
// returns its editor.
func (g *SolutionGroup) AddSolution() *SequenceEditor {
	e := NewSequenceEditor(nil)
	g.editors = append(g.editors, e)
	return e
}

// RemoveSolution removes the solution with the given display ordinal.
// Unknown ordinals are ignored. Remaining solutions renumber implicitly
// since ordinals are position-derived.
func (g *SolutionGroup) RemoveSolution(ordinal int) {
	index := ordinal - 1
	if index < 0 || index >= len(g.editors) {
		return
	}
	g.editors = append(g.editors[:index], g.editors[index+1:]...)
}

// Editor returns the block editor for the given display ordinal, or nil.
func (g *SolutionGroup) Editor(ordinal int) *SequenceEditor {
	index := ordinal - 1
	if index < 0 || index >= len(g.editors) {
		return nil
	}
	return g.editors[index]
}

// Solutions snapshots the group with ordinals recomputed from position.
func (g *SolutionGroup) Solutions() []Solution {
	out := make([]Solution, 0, len(g.editors))
	for i, e := range g.editors {
		out = append(out, Solution{Ordinal: i + 1, Blocks: e.Blocks()})
	}
	return out
}

// HydrateSolutions normalizes a persisted solutions field into a Solution
// list. Three historical shapes exist:
//
//	(a) [{"id": 1, "blocks": [...]}, ...]   current
//	(b) [{"type": "text", ...}, ...]        flat block array, one solution
//	(c) [[...], [...]]                      bare block arrays, no ids
//
// Any other shape yields an empty list, never an error. New legacy shapes get
// added here as one more branch rather than scattered call-site checks.
func HydrateSolutions(raw json.RawMessage) []Solution {
	return hydrateSolutions(gjson.ParseBytes(raw))
}

func hydrateSolutions(r gjson.Result) []Solution {
	if !r.IsArray() {
		return nil
	}
	items := r.Array()
	if len(items) == 0 {
		return nil
	}

	first := items[0]
	switch {
	case first.IsObject() && first.Get("blocks").Exists():
		// (a) wrapped solutions; persisted ids are ignored in favor of position
		out := make([]Solution, 0, len(items))
		for i, item := range items {
			out = append(out, Solution{
				Ordinal: i + 1,
				Blocks:  parseBlockSequence(item.Get("blocks")),
			})
		}
		return out
	case first.IsObject():
		// (b) the whole array is a single flat block sequence
		return []Solution{{Ordinal: 1, Blocks: parseBlockSequence(r)}}
	case first.IsArray():
		// (c) bare block arrays, ordinals assigned by position
		out := make([]Solution, 0, len(items))
		for i, item := range items {
			out = append(out, Solution{Ordinal: i + 1, Blocks: parseBlockSequence(item)})
		}
		return out
	}
	return nil
}

// SerializeSolutions writes solutions in the canonical wrapped shape with
// position-derived ids.
func SerializeSolutions(solutions []Solution) []any {
	out := make([]any, 0, len(solutions))
	for i, s := range solutions {
		out = append(out, map[string]any{
			"id":     i + 1,
			"blocks": SerializeBlockSequence(s.Blocks),
		})
	}
	return out
}
