package expression

import (
	"fmt"

	"visualexpr/internal/domain"
	models "visualexpr/internal/domain/models/expression"
	"visualexpr/internal/mathexpr"
)

// slot is where a decomposed block lands: a parent operand or the root.
type slot struct {
	parent *models.Block
	index  int
}

// Decompose converts a parsed tree into a single-root forest with fresh ids.
//
// Parenthesis nodes are dropped: their content takes over the slot the
// parenthesis occupied, transitively for nested parentheses. A child path
// that does not address an operand slot fails with domain.ErrMalformedPath.
func Decompose(tree mathexpr.Node) (models.Forest, error) {
	if tree == nil {
		return models.Forest{}, nil
	}

	// Lookup tables live for this call only.
	blocks := make(map[mathexpr.Node]*models.Block)
	slots := make(map[mathexpr.Node]slot)

	var root *models.Block
	var walkErr error

	tree.Traverse(func(node mathexpr.Node, path string, parent mathexpr.Node) {
		if walkErr != nil {
			return
		}

		var at slot
		if parent != nil {
			parentBlock := blocks[parent]
			if parentBlock == nil {
				// Parent is a parenthesis: inherit its slot.
				at = slots[parent]
			} else {
				index, ok := mathexpr.ParseArgPath(path)
				if !ok || index >= len(parentBlock.Args) {
					walkErr = fmt.Errorf("%w: %q under %s", domain.ErrMalformedPath, path, parent.Type())
					return
				}
				at = slot{parent: parentBlock, index: index}
			}
		}

		if _, isParen := node.(*mathexpr.ParenthesisNode); isParen {
			slots[node] = at
			return
		}

		block, err := newBlock(node)
		if err != nil {
			walkErr = err
			return
		}
		blocks[node] = block

		if at.parent == nil {
			block.ClearAddress()
			root = block
			return
		}
		block.SetAddress(at.index)
		at.parent.Args[at.index] = block
	})

	if walkErr != nil {
		return models.Forest{}, walkErr
	}
	if root == nil {
		return models.Forest{}, nil
	}
	return models.NewForest(root), nil
}

// newBlock creates the block for one node. Operand slots are sized but left
// empty; Decompose fills them as it reaches the children.
func newBlock(node mathexpr.Node) (*models.Block, error) {
	switch n := node.(type) {
	case *mathexpr.ConstantNode:
		return models.NewConstantBlock(n.Value), nil
	case *mathexpr.SymbolNode:
		return models.NewSymbolBlock(n.Name), nil
	case *mathexpr.OperatorNode:
		b := models.NewOperatorBlock(n.Op, n.Fn, 0)
		b.Args = make([]*models.Block, len(n.Args))
		return b, nil
	case *mathexpr.FunctionNode:
		b := models.NewFunctionBlock(n.Name, 0)
		b.Args = make([]*models.Block, len(n.Args))
		return b, nil
	}
	return nil, fmt.Errorf("%w: unsupported node %s", domain.ErrInvalidBlock, node.Type())
}

// Recompose rebuilds the library tree for a block. It returns nil when the
// block, or anything below it, is a placeholder or has no library form.
func Recompose(block *models.Block) mathexpr.Node {
	if block == nil {
		return nil
	}

	switch block.Kind {
	case models.KindConstant:
		if block.Placeholder {
			return nil
		}
		return mathexpr.NewConstant(block.Value)

	case models.KindSymbol:
		return mathexpr.NewSymbol(block.Name)

	case models.KindOperator, models.KindFunction:
		args := make([]mathexpr.Node, len(block.Args))
		for i, arg := range block.Args {
			node := Recompose(arg)
			if node == nil {
				return nil
			}
			args[i] = node
		}
		if block.Kind == models.KindOperator {
			return mathexpr.NewOperator(block.Op, block.Fn, args)
		}
		return mathexpr.NewFunction(block.Fn, args)
	}

	return nil
}
