package history

import (
	"errors"
	"sync"
)

// Common sentinel errors
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Command is a reversible editing operation. Apply performs it, Revert
// restores the prior state. Both must be safe to call in alternation.
type Command interface {
	Apply() error
	Revert() error
	Name() string
}

// Stack is a bounded undo/redo stack. It is domain-agnostic: any
// reversible operation can be recorded.
type Stack struct {
	mu    sync.Mutex
	undo  []Command
	redo  []Command
	limit int
}

// DefaultLimit bounds the stack when no limit is given.
const DefaultLimit = 100

// NewStack creates a history stack holding at most limit commands.
// A non-positive limit uses DefaultLimit.
func NewStack(limit int) *Stack {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Stack{limit: limit}
}

// Do applies the command and records it. A new action discards the redo
// branch, as in every conventional editor history.
func (s *Stack) Do(c Command) error {
	if err := c.Apply(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.undo = append(s.undo, c)
	if len(s.undo) > s.limit {
		s.undo = s.undo[1:]
	}
	s.redo = s.redo[:0]
	return nil
}

// Undo reverts the most recent command and moves it to the redo stack.
func (s *Stack) Undo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return "", ErrNothingToUndo
	}
	c := s.undo[len(s.undo)-1]
	if err := c.Revert(); err != nil {
		return "", err
	}
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, c)
	return c.Name(), nil
}

// Redo re-applies the most recently undone command.
func (s *Stack) Redo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return "", ErrNothingToRedo
	}
	c := s.redo[len(s.redo)-1]
	if err := c.Apply(); err != nil {
		return "", err
	}
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, c)
	return c.Name(), nil
}

// CanUndo reports whether an undo is available.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether a redo is available.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Clear empties both stacks, e.g. after loading a different project.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = nil
	s.redo = nil
}

// Func wraps a pair of closures as a Command.
type Func struct {
	Label  string
	DoFn   func() error
	UndoFn func() error
}

func (f *Func) Apply() error  { return f.DoFn() }
func (f *Func) Revert() error { return f.UndoFn() }
func (f *Func) Name() string  { return f.Label }
