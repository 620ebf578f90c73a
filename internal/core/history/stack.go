package history

// Stack is a branching undo/redo log. One Stack serves one draft lane and
// is discarded together with the draft.
type Stack struct {
	undo  []Op
	redo  []Op
	limit int
}

// NewStack creates a stack. A limit of 0 keeps every operation; otherwise
// the oldest operations are dropped once the undo list exceeds limit.
func NewStack(limit int) *Stack {
	if limit < 0 {
		limit = 0
	}
	return &Stack{limit: limit}
}

// Record pushes op onto the undo list and clears the redo list.
func (s *Stack) Record(op Op) {
	s.undo = append(s.undo, op)
	if s.limit > 0 && len(s.undo) > s.limit {
		s.undo = s.undo[len(s.undo)-s.limit:]
	}
	s.redo = s.redo[:0]
}

// Do applies op to target and records it.
func (s *Stack) Do(op Op, target Target) error {
	if err := Apply(op, target); err != nil {
		return err
	}
	s.Record(op)
	return nil
}

// Undo reverts the most recent operation on target. It reports false
// when there is nothing to undo.
func (s *Stack) Undo(target Target) (Op, bool, error) {
	if len(s.undo) == 0 {
		return Op{}, false, nil
	}
	op := s.undo[len(s.undo)-1]
	if err := Apply(op.Inverse(), target); err != nil {
		return op, false, err
	}
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, op)
	return op, true, nil
}

// Redo reapplies the most recently undone operation. It reports false
// when there is nothing to redo.
func (s *Stack) Redo(target Target) (Op, bool, error) {
	if len(s.redo) == 0 {
		return Op{}, false, nil
	}
	op := s.redo[len(s.redo)-1]
	if err := Apply(op, target); err != nil {
		return op, false, err
	}
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, op)
	return op, true, nil
}

// CanUndo reports whether Undo would do anything.
func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }

// Len returns the sizes of the undo and redo lists.
func (s *Stack) Len() (undo, redo int) { return len(s.undo), len(s.redo) }

// Clear drops all recorded operations.
func (s *Stack) Clear() {
	s.undo = s.undo[:0]
	s.redo = s.redo[:0]
}
