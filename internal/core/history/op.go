// Package history provides the undo/redo log for point edits within a draft.
//
// Operations are immutable value records. The stack never holds references
// to the live point list; it replays operations against a Target instead.
package history

import (
	"fmt"

	"github.com/johnmalek312/android-ui-collector/internal/core/domain"
)

// Kind identifies an operation type.
type Kind int

const (
	KindAdd Kind = iota + 1
	KindMove
	KindDelete
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindMove:
		return "move"
	case KindDelete:
		return "delete"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Op is one point edit with its before/after payload.
//
//	Add:    New inserted at Index
//	Move:   point at Index changed from Old to New
//	Delete: Old removed from Index
type Op struct {
	Kind  Kind
	Index int
	Old   domain.Point
	New   domain.Point
}

// Add returns an operation inserting p at index.
func Add(index int, p domain.Point) Op {
	return Op{Kind: KindAdd, Index: index, New: p}
}

// Move returns an operation relocating the point at index.
func Move(index int, from, to domain.Point) Op {
	return Op{Kind: KindMove, Index: index, Old: from, New: to}
}

// Delete returns an operation removing p from index.
func Delete(index int, p domain.Point) Op {
	return Op{Kind: KindDelete, Index: index, Old: p}
}

// Inverse returns the operation that undoes op.
func (op Op) Inverse() Op {
	switch op.Kind {
	case KindAdd:
		return Delete(op.Index, op.New)
	case KindDelete:
		return Add(op.Index, op.Old)
	default:
		return Move(op.Index, op.New, op.Old)
	}
}

// String renders the operation for logs.
func (op Op) String() string {
	switch op.Kind {
	case KindAdd:
		return fmt.Sprintf("add[%d] %s", op.Index, op.New)
	case KindDelete:
		return fmt.Sprintf("delete[%d] %s", op.Index, op.Old)
	default:
		return fmt.Sprintf("move[%d] %s -> %s", op.Index, op.Old, op.New)
	}
}

// Target is the point list an operation is replayed against.
type Target interface {
	Len() int
	Insert(index int, p domain.Point)
	Set(index int, p domain.Point)
	Remove(index int)
}

// Apply replays op against target. An index outside the target is a
// contract violation and reported as an error without touching target.
func Apply(op Op, target Target) error {
	n := target.Len()
	switch op.Kind {
	case KindAdd:
		if op.Index < 0 || op.Index > n {
			return fmt.Errorf("history: add index %d out of range [0,%d]", op.Index, n)
		}
		target.Insert(op.Index, op.New)
	case KindMove:
		if op.Index < 0 || op.Index >= n {
			return fmt.Errorf("history: move index %d out of range [0,%d)", op.Index, n)
		}
		target.Set(op.Index, op.New)
	case KindDelete:
		if op.Index < 0 || op.Index >= n {
			return fmt.Errorf("history: delete index %d out of range [0,%d)", op.Index, n)
		}
		target.Remove(op.Index)
	default:
		return fmt.Errorf("history: unknown op %s", op.Kind)
	}
	return nil
}

// Points is a slice-backed Target.
type Points []domain.Point

// Len implements Target.
func (p *Points) Len() int { return len(*p) }

// Insert implements Target.
func (p *Points) Insert(index int, pt domain.Point) {
	s := append(*p, domain.Point{})
	copy(s[index+1:], s[index:])
	s[index] = pt
	*p = s
}

// Set implements Target.
func (p *Points) Set(index int, pt domain.Point) { (*p)[index] = pt }

// Remove implements Target.
func (p *Points) Remove(index int) {
	s := *p
	copy(s[index:], s[index+1:])
	*p = s[:len(s)-1]
}
