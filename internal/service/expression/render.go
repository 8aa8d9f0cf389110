package expression

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	models "visualexpr/internal/domain/models/expression"
	"visualexpr/internal/mathexpr"
)

// RenderTree writes a plain-text outline of the forest, one numbered entry
// per root. Every line ends with the block id so terminal users can address
// blocks in move commands. Empty slots print as "_".
//
//	[0] and                        #5f1c…
//	    ├─ > (args[0])             #a2b4…
//	    │  ├─ x (args[0])          #c011…
func RenderTree(w io.Writer, forest models.Forest) error {
	for i, root := range forest.VisibleRoots() {
		if _, err := fmt.Fprintf(w, "[%d] %s  #%s\n", i, BlockLabel(root), root.ID); err != nil {
			return err
		}
		if err := renderChildren(w, root, "    "); err != nil {
			return err
		}
	}
	return nil
}

func renderChildren(w io.Writer, block *models.Block, prefix string) error {
	for i, child := range block.Args {
		branch, next := "├─ ", "│  "
		if i == len(block.Args)-1 {
			branch, next = "└─ ", "   "
		}
		if child == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s%s%s (%s)  #%s\n", prefix, branch, BlockLabel(child), child.Path, child.ID); err != nil {
			return err
		}
		if err := renderChildren(w, child, prefix+next); err != nil {
			return err
		}
	}
	return nil
}

// BlockLabel is the short text shown for a block.
func BlockLabel(b *models.Block) string {
	switch b.Kind {
	case models.KindConstant:
		if b.Placeholder {
			return "_"
		}
		if s, ok := b.Value.(string); ok {
			return strconv.Quote(s)
		}
		return mathexpr.FormatValue(b.Value)
	case models.KindSymbol:
		return b.Name
	case models.KindOperator:
		return b.Op
	case models.KindFunction:
		return b.Fn + "(" + strings.Repeat(",", max(len(b.Args)-1, 0)) + ")"
	}
	return string(b.Kind)
}
