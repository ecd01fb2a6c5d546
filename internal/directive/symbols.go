package directive

import (
	"vtil/internal/symex"
)

// symbolCapacity bounds bindings per match. Every rule in the tables
// binds far fewer variables than this.
const symbolCapacity = 16

// SymbolTable is a small fixed-capacity map from match-variable
// identifier to the concrete expression it captured.
type SymbolTable struct {
	entries [symbolCapacity]*symex.Expression
	bound   uint16 // bitmap over entries
}

// Add binds the capture d to e. It fails when the capture's kind rejects
// e, when a previous binding of the same variable differs, or when the
// capture's identifier lies beyond the table's capacity.
func (t *SymbolTable) Add(d *Directive, e *symex.Expression) error {
	if !d.IsCapture() || e == nil {
		return symex.ErrStructural
	}
	if !d.Accepts(e) {
		return symex.ErrBindingConflict
	}
	if int(d.id) >= symbolCapacity {
		return symex.ErrCapacityExceeded
	}
	if t.bound&(1<<d.id) != 0 {
		if !t.entries[d.id].Equal(e) {
			return symex.ErrBindingConflict
		}
		return nil
	}
	t.entries[d.id] = e
	t.bound |= 1 << d.id
	return nil
}

// Get returns the binding for a capture identifier.
func (t *SymbolTable) Get(id uint8) (*symex.Expression, bool) {
	if int(id) >= symbolCapacity || t.bound&(1<<id) == 0 {
		return nil, false
	}
	return t.entries[id], true
}

// Merge folds o into t, failing on any inconsistent shared binding.
func (t *SymbolTable) Merge(o *SymbolTable) error {
	for id := 0; id < symbolCapacity; id++ {
		if o.bound&(1<<id) == 0 {
			continue
		}
		if t.bound&(1<<id) != 0 {
			if !t.entries[id].Equal(o.entries[id]) {
				return symex.ErrBindingConflict
			}
			continue
		}
		t.entries[id] = o.entries[id]
		t.bound |= 1 << id
	}
	return nil
}

// Translate rebuilds a concrete expression from a pattern by substituting
// bound captures and reconstructing operator nodes. Unbound captures fail
// translation; Iff nodes translate to their body (the condition is the
// matcher's concern).
func (t *SymbolTable) Translate(d *Directive) (*symex.Expression, error) {
	switch {
	case d == nil:
		return nil, symex.ErrStructural
	case d.capture:
		e, ok := t.Get(d.id)
		if !ok {
			return nil, symex.ErrBindingConflict
		}
		return e, nil
	case d.lit != nil:
		return symex.NewConstantExpr(*d.lit), nil
	case d.iff:
		return t.Translate(d.rhs)
	case d.lhs == nil:
		rhs, err := t.Translate(d.rhs)
		if err != nil {
			return nil, err
		}
		return symex.NewUnary(d.op, rhs)
	default:
		lhs, err := t.Translate(d.lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := t.Translate(d.rhs)
		if err != nil {
			return nil, err
		}
		return symex.NewBinary(lhs, d.op, rhs)
	}
}
