package directive

// Rule is one rewrite: when From unifies with the subject and the
// optional When condition simplifies to a true constant under the
// bindings, the subject may be replaced by the translation of To.
type Rule struct {
	From *Directive
	To   *Directive
	When *Directive
}

// The three rule sets, compiled once. Order within each list encodes
// preference: the simplifier tries rules top to bottom and takes the
// first acceptable result.
//
// Universal simplifiers are one-way rewrites whose result is strictly
// less complex. Join descriptors may temporarily grow the tree (constant
// hoisting, distribution) and run under the join-depth ceiling; the
// engine only keeps their result when recursive simplification ends up
// strictly smaller. Boolean rules cover comparisons and logical
// operators.
var (
	UniversalSimplifiers = compile([]Rule{
		// Identity laws.
		{From: AddOf(A, Num(0)), To: A},
		{From: SubOf(A, Num(0)), To: A},
		{From: MulOf(A, Num(1)), To: A},
		{From: DivOf(A, Num(1)), To: A},
		{From: UDivOf(A, Num(1)), To: A},
		{From: OrOf(A, Num(0)), To: A},
		{From: XorOf(A, Num(0)), To: A},
		{From: ShlOf(A, Num(0)), To: A},
		{From: ShrOf(A, Num(0)), To: A},
		{From: RolOf(A, Num(0)), To: A},
		{From: RorOf(A, Num(0)), To: A},

		// Annihilators.
		{From: MulOf(A, Num(0)), To: Num(0)},
		{From: AndOf(A, Num(0)), To: Num(0)},
		{From: RemOf(A, Num(1)), To: Num(0)},
		{From: URemOf(A, Num(1)), To: Num(0)},

		// Self-application.
		{From: SubOf(A, A), To: Num(0)},
		{From: XorOf(A, A), To: Num(0)},
		{From: AndOf(A, A), To: A},
		{From: OrOf(A, A), To: A},
		{From: AddOf(A, A), To: MulOf(A, Num(2))},

		// Involutions.
		{From: NegOf(NegOf(A)), To: A},
		{From: NotOf(NotOf(A)), To: A},

		// Negation normalization.
		{From: AddOf(A, NegOf(B)), To: SubOf(A, B)},
		{From: SubOf(A, NegOf(B)), To: AddOf(A, B)},
	})

	JoinDescriptors = compile([]Rule{
		// Constant reassociation: surface two constants under the same
		// associative operator so evaluation can fold them.
		{From: AddOf(AddOf(A, U), K), To: AddOf(A, AddOf(U, K))},
		{From: SubOf(AddOf(A, U), K), To: AddOf(A, SubOf(U, K))},
		{From: AddOf(SubOf(A, U), K), To: AddOf(A, SubOf(K, U))},
		{From: SubOf(SubOf(A, U), K), To: SubOf(A, AddOf(U, K))},
		{From: MulOf(MulOf(A, U), K), To: MulOf(A, MulOf(U, K))},
		{From: AndOf(AndOf(A, U), K), To: AndOf(A, AndOf(U, K))},
		{From: OrOf(OrOf(A, U), K), To: OrOf(A, OrOf(U, K))},
		{From: XorOf(XorOf(A, U), K), To: XorOf(A, XorOf(U, K))},

		// Shift fusion, guarded against running off the value.
		{
			From: ShlOf(ShlOf(A, U), K),
			To:   ShlOf(A, AddOf(U, K)),
			When: ULtOf(AddOf(U, K), Num(512)),
		},
		{
			From: ShrOf(ShrOf(A, U), K),
			To:   ShrOf(A, AddOf(U, K)),
			When: ULtOf(AddOf(U, K), Num(512)),
		},

		// Distribution over a constant factor and its inverse. Both can
		// grow the tree; the engine keeps them only when the simplified
		// result is strictly smaller.
		{From: MulOf(AddOf(A, B), U), To: AddOf(MulOf(A, U), MulOf(B, U))},
		{From: AddOf(MulOf(A, U), MulOf(A, K)), To: MulOf(A, AddOf(U, K))},
		{From: AddOf(MulOf(A, U), A), To: MulOf(A, AddOf(U, Num(1)))},
	})

	BooleanSimplifiers = compile([]Rule{
		// Self-comparison folds.
		{From: EqOf(A, A), To: Num(1)},
		{From: LeOf(A, A), To: Num(1)},
		{From: GeOf(A, A), To: Num(1)},
		{From: ULeOf(A, A), To: Num(1)},
		{From: UGeOf(A, A), To: Num(1)},
		{From: NeOf(A, A), To: Num(0)},
		{From: LtOf(A, A), To: Num(0)},
		{From: GtOf(A, A), To: Num(0)},
		{From: ULtOf(A, A), To: Num(0)},
		{From: UGtOf(A, A), To: Num(0)},

		// Logical identities.
		{From: LNotOf(LNotOf(A)), To: A},
		{From: LAndOf(A, A), To: A},
		{From: LOrOf(A, A), To: A},
		{From: LAndOf(A, Num(0)), To: Num(0)},
		{From: LOrOf(A, Num(1)), To: Num(1)},

		// Comparison inversions.
		{From: LNotOf(EqOf(A, B)), To: NeOf(A, B)},
		{From: LNotOf(NeOf(A, B)), To: EqOf(A, B)},
		{From: LNotOf(LtOf(A, B)), To: GeOf(A, B)},
		{From: LNotOf(GtOf(A, B)), To: LeOf(A, B)},
		{From: LNotOf(ULtOf(A, B)), To: UGeOf(A, B)},
		{From: LNotOf(UGtOf(A, B)), To: ULeOf(A, B)},

		// De Morgan, kept only when the rewrite unlocks a reduction.
		{From: LNotOf(LAndOf(A, B)), To: LOrOf(LNotOf(A), LNotOf(B))},
		{From: LNotOf(LOrOf(A, B)), To: LAndOf(LNotOf(A), LNotOf(B))},
	})
)

// compile freezes a rule list. Tables are immutable after package
// initialization and freely shared across simplifier instances.
func compile(rules []Rule) []Rule {
	for i := range rules {
		if rules[i].From == nil || rules[i].To == nil {
			panic("directive: rule with missing side")
		}
	}
	return rules
}
