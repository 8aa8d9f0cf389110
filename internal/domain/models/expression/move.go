package expression

// Move drops the block sourceID into the operand slot currently held by
// targetID. The displaced target is discarded. The slot the source leaves
// behind is refilled with a placeholder, or its root entry disappears when
// the source was a root.
//
// changed is false, and the receiver is returned, when either id is unknown,
// the target is a root (roots have no slot), source and target are the same
// block, the source is a placeholder, or the target lies inside the source's
// own subtree.
func (f Forest) Move(sourceID, targetID string) (next Forest, changed bool) {
	if sourceID == targetID {
		return f, false
	}

	next = f.Clone()
	source, sourceParent := next.FindWithParent(sourceID)
	target, targetParent := next.FindWithParent(targetID)
	if source == nil || target == nil || targetParent == nil {
		return f, false
	}
	if source.Placeholder || source.Contains(target.ID) {
		return f, false
	}
	if !occupies(targetParent, target) || (sourceParent != nil && !occupies(sourceParent, source)) {
		return f, false
	}

	vacated := source.Index
	if !next.ReplaceSlot(targetParent, target.Index, source) {
		return f, false
	}

	if sourceParent != nil {
		next.ReplaceSlot(sourceParent, vacated, NewPlaceholder())
	} else {
		next.ReplaceSlot(nil, 0, source)
	}
	return next, true
}

// MoveToCanvas detaches sourceID from its parent slot and appends it to the
// roots. The slot is refilled with a placeholder. Roots and unknown ids are
// left alone.
func (f Forest) MoveToCanvas(sourceID string) (next Forest, changed bool) {
	next = f.Clone()
	source, parent := next.FindWithParent(sourceID)
	if source == nil || parent == nil || source.Placeholder {
		return f, false
	}
	if !occupies(parent, source) {
		return f, false
	}

	next.ReplaceSlot(parent, source.Index, NewPlaceholder())
	source.ClearAddress()
	next.Roots = append(next.Roots, source)
	return next, true
}

func occupies(parent, child *Block) bool {
	return child.Index >= 0 && child.Index < len(parent.Args) && parent.Args[child.Index] == child
}
