// Package simplifier implements the rule-driven rewrite engine: a
// memoized, bounded-depth loop that drives the pattern matcher over the
// directive tables and only ever returns an expression no more complex
// than its input.
package simplifier

import (
	"vtil/internal/directive"
	"vtil/internal/symex"
)

const (
	// DefaultCacheCapacity bounds the memoization table. On overflow the
	// oldest half is evicted in one pass.
	DefaultCacheCapacity = 65536

	// DefaultJoinDepth is the ceiling on nested join-descriptor
	// applications. Joiners temporarily grow the tree, so their mutual
	// recursion runs under this hard bound.
	DefaultJoinDepth = 20
)

// Simplifier rewrites expressions to semantically equal, no-more-complex
// forms. Instances are not safe for concurrent use: each goroutine (and
// each pass invocation) owns its own simplifier and therefore its own
// cache, which keeps results deterministic regardless of interleaving.
type Simplifier struct {
	cache    map[uint64]cacheEntry
	order    []uint64
	capacity int

	joinDepth   int
	joinCeiling int
}

type cacheEntry struct {
	input  *symex.Expression
	result *symex.Expression
	stable bool
}

// Option configures a Simplifier.
type Option func(*Simplifier)

// WithCacheCapacity overrides the memoization bound.
func WithCacheCapacity(n int) Option {
	return func(s *Simplifier) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithJoinDepth overrides the join-descriptor ceiling.
func WithJoinDepth(n int) Option {
	return func(s *Simplifier) {
		if n > 0 {
			s.joinCeiling = n
		}
	}
}

// New builds a simplifier with a fresh cache.
func New(opts ...Option) *Simplifier {
	s := &Simplifier{
		cache:       make(map[uint64]cacheEntry),
		capacity:    DefaultCacheCapacity,
		joinCeiling: DefaultJoinDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simplify returns a semantically equivalent expression whose complexity
// and depth do not exceed the input's. All internal failures (capacity,
// invalid candidates) are recovered by keeping the current form; Simplify
// never fails and never returns nil for a non-nil input.
func (s *Simplifier) Simplify(e *symex.Expression) *symex.Expression {
	if e == nil {
		return nil
	}
	if e.SimplifyHint() || !e.IsOperation() {
		return e
	}

	if entry, ok := s.cache[e.Hash()]; ok && entry.stable && entry.input.Equal(e) {
		return entry.result
	}

	cur := s.simplifyChildren(e)

	// A variable-free tree collapses to its value when the operator set
	// allows evaluation.
	if !cur.ContainsVariables() {
		if c, err := cur.Evaluate(); err == nil {
			return s.finish(e, symex.NewConstantExpr(c))
		}
	}

	// Rule application to fixed point. Universal and boolean rules accept
	// only strictly smaller results, so the loop runs at most
	// complexity-many times.
	for {
		if r := s.applyRules(directive.UniversalSimplifiers, cur, false); r != nil {
			cur = r
			continue
		}
		if cur.IsOperation() && (cur.Op().IsComparison() || cur.Op().IsLogical()) {
			if r := s.applyRules(directive.BooleanSimplifiers, cur, false); r != nil {
				cur = r
				continue
			}
		}
		if r := s.applyRules(directive.JoinDescriptors, cur, true); r != nil {
			cur = r
			continue
		}
		break
	}

	return s.finish(e, cur)
}

// simplifyChildren recursively simplifies the operands and rebuilds the
// node, reusing the input when nothing changed.
func (s *Simplifier) simplifyChildren(e *symex.Expression) *symex.Expression {
	lhs := s.Simplify(e.LHS())
	rhs := s.Simplify(e.RHS())
	if lhs == e.LHS() && rhs == e.RHS() {
		return e
	}
	var rebuilt *symex.Expression
	var err error
	if lhs == nil {
		rebuilt, err = symex.NewUnary(e.Op(), rhs)
	} else {
		rebuilt, err = symex.NewBinary(lhs, e.Op(), rhs)
	}
	if err != nil {
		return e
	}
	return rebuilt
}

// applyRules tries each rule in order and returns the first simplified
// candidate that is strictly less complex than e and no deeper, or nil.
// Joiners run
// under the join-depth ceiling: once exceeded they are skipped entirely.
func (s *Simplifier) applyRules(rules []directive.Rule, e *symex.Expression, joiner bool) *symex.Expression {
	if joiner && s.joinDepth >= s.joinCeiling {
		return nil
	}
	for i := range rules {
		rule := &rules[i]
		for _, table := range s.match(rule.From, e) {
			if rule.When != nil && !s.conditionHolds(rule.When, table) {
				continue
			}
			candidate, err := table.Translate(rule.To)
			if err != nil {
				continue
			}
			if joiner {
				s.joinDepth++
				candidate = s.Simplify(candidate)
				s.joinDepth--
			} else {
				candidate = s.Simplify(candidate)
			}
			if candidate != nil && candidate.Complexity() < e.Complexity() &&
				candidate.Depth() <= e.Depth() {
				return candidate
			}
		}
	}
	return nil
}

// finish records the result for the input, marks it simplified and
// maintains the cache bound.
func (s *Simplifier) finish(input, result *symex.Expression) *symex.Expression {
	result.MarkSimplified()
	if len(s.cache) >= s.capacity {
		s.evictOldestHalf()
	}
	if _, exists := s.cache[input.Hash()]; !exists {
		s.order = append(s.order, input.Hash())
	}
	s.cache[input.Hash()] = cacheEntry{input: input, result: result, stable: true}
	return result
}

// evictOldestHalf drops the least recently inserted half of the cache in
// one pass.
func (s *Simplifier) evictOldestHalf() {
	half := len(s.order) / 2
	for _, h := range s.order[:half] {
		delete(s.cache, h)
	}
	s.order = append(s.order[:0], s.order[half:]...)
}
