package expression

import "encoding/json"

// Forest is the ordered list of root blocks on the canvas.
//
// Forests are treated as values: operations that change the structure return
// a new Forest and leave the receiver untouched. Unchanged subtrees may be
// shared between forests, so blocks reachable from a forest must not be
// modified in place.
type Forest struct {
	Roots []*Block
}

// NewForest creates a forest from roots.
func NewForest(roots ...*Block) Forest {
	return Forest{Roots: roots}
}

// Len returns the number of roots.
func (f Forest) Len() int {
	return len(f.Roots)
}

// Single returns the only root, or nil when the forest does not hold exactly one.
func (f Forest) Single() *Block {
	if len(f.Roots) != 1 {
		return nil
	}
	return f.Roots[0]
}

// Clone deep-copies every root.
func (f Forest) Clone() Forest {
	roots := make([]*Block, len(f.Roots))
	for i, root := range f.Roots {
		roots[i] = root.Clone()
	}
	return Forest{Roots: roots}
}

// FindWithParent searches the forest depth-first. parent is nil when the
// block is a root; both are nil when nothing matches.
func (f Forest) FindWithParent(id string) (block, parent *Block) {
	return findIn(f.Roots, id, nil)
}

func findIn(blocks []*Block, id string, parent *Block) (*Block, *Block) {
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if b.ID == id {
			return b, parent
		}
		if b.HasChildren() {
			if found, p := findIn(b.Args, id, b); found != nil {
				return found, p
			}
		}
	}
	return nil, nil
}

// InsertRoot returns a forest with block prepended to the roots.
func (f Forest) InsertRoot(block *Block) Forest {
	block.ClearAddress()
	roots := make([]*Block, 0, len(f.Roots)+1)
	roots = append(roots, block)
	roots = append(roots, f.Roots...)
	return Forest{Roots: roots}
}

// DeleteRoot returns a forest without the root at index i.
// ok is false when i is out of range.
func (f Forest) DeleteRoot(i int) (Forest, bool) {
	if i < 0 || i >= len(f.Roots) {
		return f, false
	}
	roots := make([]*Block, 0, len(f.Roots)-1)
	roots = append(roots, f.Roots[:i]...)
	roots = append(roots, f.Roots[i+1:]...)
	return Forest{Roots: roots}, true
}

// ReplaceSlot puts block into parent's operand slot index and updates the
// block's address. With a nil parent the block's root entry is removed
// instead. It mutates the receiver and must only be used on a forest obtained
// from Clone.
func (f *Forest) ReplaceSlot(parent *Block, index int, block *Block) bool {
	if parent == nil {
		roots := f.Roots[:0:0]
		for _, root := range f.Roots {
			if root.ID != block.ID {
				roots = append(roots, root)
			}
		}
		f.Roots = roots
		return true
	}
	if index < 0 || index >= len(parent.Args) {
		return false
	}
	block.SetAddress(index)
	parent.Args[index] = block
	return true
}

// Placeholders counts the unfilled operand slots in the forest.
func (f Forest) Placeholders() int {
	var n int
	for _, root := range f.Roots {
		root.Walk(func(b *Block) {
			if b.Placeholder {
				n++
			}
		})
	}
	return n
}

// VisibleRoots returns the roots that are rendered on the canvas.
// Placeholder roots never are.
func (f Forest) VisibleRoots() []*Block {
	roots := make([]*Block, 0, len(f.Roots))
	for _, root := range f.Roots {
		if !root.Placeholder {
			roots = append(roots, root)
		}
	}
	return roots
}

// MarshalJSON encodes the visible roots as a JSON array.
func (f Forest) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.VisibleRoots())
}

// UnmarshalJSON decodes a JSON array of root blocks.
func (f *Forest) UnmarshalJSON(data []byte) error {
	var roots []*Block
	if err := json.Unmarshal(data, &roots); err != nil {
		return err
	}
	f.Roots = roots
	return nil
}
