package content

// SequenceEditor is an ordered, mutable block sequence backing the admin
// editor. It owns its slice: UI handlers go through the operation methods
// instead of mutating a shared array.
//
// Invariant: the sequence is never empty. Deleting the last block re-seeds
// one empty text block so the editor always has an insertion point.
type SequenceEditor struct {
	blocks []Block
}

// NewSequenceEditor creates an editor over a copy of initial. An empty
// initial sequence is seeded with one empty text block.
func NewSequenceEditor(initial []Block) *SequenceEditor {
	e := &SequenceEditor{}
	if len(initial) == 0 {
		e.blocks = []Block{TextBlock{}}
		return e
	}
	e.blocks = make([]Block, len(initial))
	copy(e.blocks, initial)
	return e
}

// Len returns the number of blocks.
func (e *SequenceEditor) Len() int { return len(e.blocks) }

// InsertAt inserts b at index, clamped into [0, Len].
func (e *SequenceEditor) InsertAt(index int, b Block) {
	if index < 0 {
		index = 0
	}
	if index > len(e.blocks) {
		index = len(e.blocks)
	}
	e.blocks = append(e.blocks, nil)
	copy(e.blocks[index+1:], e.blocks[index:])
	e.blocks[index] = b
}

// Append adds b at the end of the sequence.
func (e *SequenceEditor) Append(b Block) {
	e.blocks = append(e.blocks, b)
}

// MoveBy swaps the block at index with the block at index+delta. This models
// the two-button move-up/move-down affordance. When either position is out
// of bounds the call is a no-op, not an error.
func (e *SequenceEditor) MoveBy(index, delta int) {
	target := index + delta
	if index < 0 || index >= len(e.blocks) || target < 0 || target >= len(e.blocks) {
		return
	}
	e.blocks[index], e.blocks[target] = e.blocks[target], e.blocks[index]
}

// RemoveAt removes the block at index. Out-of-bounds indices are ignored.
// Removing the last block re-seeds one empty text block.
func (e *SequenceEditor) RemoveAt(index int) {
	if index < 0 || index >= len(e.blocks) {
		return
	}
	e.blocks = append(e.blocks[:index], e.blocks[index+1:]...)
	if len(e.blocks) == 0 {
		e.blocks = []Block{TextBlock{}}
	}
}

// SetAt replaces the block at index, used when editor inputs flush their
// current values back into the sequence. Out-of-bounds indices are ignored.
func (e *SequenceEditor) SetAt(index int, b Block) {
	if index < 0 || index >= len(e.blocks) {
		return
	}
	e.blocks[index] = b
}

// Blocks returns a snapshot copy of the sequence for rendering or
// serialization.
func (e *SequenceEditor) Blocks() []Block {
	out := make([]Block, len(e.blocks))
	copy(out, e.blocks)
	return out
}
