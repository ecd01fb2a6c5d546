package symex

import "errors"

// Failure kinds surfaced by fallible operations. Match failure is not in
// this list: a directive that does not unify is a normal negative
// outcome, not an error.
var (
	// ErrStructural marks malformed construction: a missing child on a
	// binary operation or an Invalid operator on a non-leaf.
	ErrStructural = errors.New("malformed expression structure")

	// ErrEvaluationUnavailable marks Evaluate on a tree containing
	// variables, or on an operator outside the evaluable set.
	ErrEvaluationUnavailable = errors.New("expression is not evaluable")

	// ErrBindingConflict marks a rejected symbol-table binding: a kind
	// mismatch, or an inconsistency with a prior binding of the same
	// variable.
	ErrBindingConflict = errors.New("conflicting symbol binding")

	// ErrCapacityExceeded marks a constant beyond the safety cap or a
	// capture identifier beyond the symbol table's capacity. The
	// simplifier's join-depth ceiling skips joiners without producing
	// this error.
	ErrCapacityExceeded = errors.New("capacity exceeded")
)
