package simplifier

import (
	"vtil/internal/directive"
	"vtil/internal/symex"
)

// match unifies a pattern against a concrete expression and returns every
// consistent binding set. The signature check rejects most non-matches
// before any structural work. Commutative operators are tried in both
// child orders and the resulting tables are unioned.
//
// Iff patterns match their body first; each candidate table survives only
// if the condition, translated under that table, simplifies to a true
// constant. That evaluation runs through the owning simplifier, which is
// why matching lives here rather than in the directive package.
func (s *Simplifier) match(p *directive.Directive, e *symex.Expression) []*directive.SymbolTable {
	if p == nil || e == nil {
		return nil
	}

	if p.IsIff() {
		tables := s.match(p.RHS(), e)
		kept := tables[:0]
		for _, t := range tables {
			if s.conditionHolds(p.LHS(), t) {
				kept = append(kept, t)
			}
		}
		return kept
	}

	if !symex.CanMatch(p.Sig(), e.Sig()) {
		return nil
	}

	switch {
	case p.IsCapture():
		t := &directive.SymbolTable{}
		if t.Add(p, e) != nil {
			return nil
		}
		return []*directive.SymbolTable{t}

	case p.IsLiteral():
		c, ok := e.ConstantValue()
		if !ok || c.Value().Cmp(p.Literal().Value()) != 0 {
			return nil
		}
		return []*directive.SymbolTable{{}}

	default:
		if p.Op() != e.Op() || e.OperandCount() == 0 {
			return nil
		}
		if p.LHS() == nil {
			if e.LHS() != nil {
				return nil
			}
			return s.match(p.RHS(), e.RHS())
		}
		if e.LHS() == nil {
			return nil
		}
		out := s.matchChildren(p, e.LHS(), e.RHS())
		if p.Op().IsCommutative() {
			out = append(out, s.matchChildren(p, e.RHS(), e.LHS())...)
		}
		return out
	}
}

// matchChildren unifies both children of a binary pattern against the
// given subject children and merges the binding tables pairwise.
func (s *Simplifier) matchChildren(p *directive.Directive, lhs, rhs *symex.Expression) []*directive.SymbolTable {
	left := s.match(p.LHS(), lhs)
	if len(left) == 0 {
		return nil
	}
	right := s.match(p.RHS(), rhs)
	if len(right) == 0 {
		return nil
	}
	var out []*directive.SymbolTable
	for _, lt := range left {
		for _, rt := range right {
			merged := *lt
			if merged.Merge(rt) == nil {
				m := merged
				out = append(out, &m)
			}
		}
	}
	return out
}

// conditionHolds translates the condition under the bindings and accepts
// the table only when it simplifies to a true constant.
func (s *Simplifier) conditionHolds(cond *directive.Directive, t *directive.SymbolTable) bool {
	if cond == nil {
		return true
	}
	translated, err := t.Translate(cond)
	if err != nil {
		return false
	}
	c, ok := s.Simplify(translated).ConstantValue()
	return ok && c.IsTrue()
}
