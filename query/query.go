// Package query implements the compound query algebra the engine filters
// vouchers, details and distributed entities with.
//
// A query is a boolean expression tree over atoms of one fixed atom type:
//
//	Query[A] = Atom(A) | Union(l, r) | Intersect(l, r) | Subtract(l, r) | Complement(q)
//
// The tree is generic over the atom type so that the combinator logic exists
// exactly once; the atom-specific matching rules live in atoms.go. Queries
// are built once (by a parser or by hand) and are immutable afterwards.
//
// A nil query matches everything. That is a deliberate design choice: it
// lets "no filter" compose transparently anywhere a query is expected.
package query

// Query is a node of the boolean expression tree over atoms of type A.
// The set of node kinds is sealed; evaluators type-switch exhaustively.
type Query[A any] interface {
	queryNode(A)
}

// AtomQuery is a leaf holding a single atom. A nil atom is the open filter
// that matches every entity.
type AtomQuery[A any] struct {
	Atom *A
}

// UnionQuery matches entities matched by either branch.
type UnionQuery[A any] struct {
	Left, Right Query[A]
}

// IntersectQuery matches entities matched by both branches.
type IntersectQuery[A any] struct {
	Left, Right Query[A]
}

// SubtractQuery matches entities matched by Left but not Right.
type SubtractQuery[A any] struct {
	Left, Right Query[A]
}

// ComplementQuery matches entities not matched by the inner query.
type ComplementQuery[A any] struct {
	Inner Query[A]
}

func (*AtomQuery[A]) queryNode(A)       {}
func (*UnionQuery[A]) queryNode(A)      {}
func (*IntersectQuery[A]) queryNode(A)  {}
func (*SubtractQuery[A]) queryNode(A)   {}
func (*ComplementQuery[A]) queryNode(A) {}

// Atom wraps a single atom as a query.
func Atom[A any](atom *A) Query[A] {
	return &AtomQuery[A]{Atom: atom}
}

// Union folds any number of queries into a right-leaning chain of binary
// unions. With no operands it yields nil, the open filter.
func Union[A any](qs ...Query[A]) Query[A] {
	return foldRight(qs, func(l, r Query[A]) Query[A] {
		return &UnionQuery[A]{Left: l, Right: r}
	})
}

// Intersect folds any number of queries into a right-leaning chain of
// binary intersections. With no operands it yields nil, the open filter.
func Intersect[A any](qs ...Query[A]) Query[A] {
	return foldRight(qs, func(l, r Query[A]) Query[A] {
		return &IntersectQuery[A]{Left: l, Right: r}
	})
}

// Subtract matches what l matches except what r matches.
func Subtract[A any](l, r Query[A]) Query[A] {
	return &SubtractQuery[A]{Left: l, Right: r}
}

// Complement negates a query.
func Complement[A any](q Query[A]) Query[A] {
	return &ComplementQuery[A]{Inner: q}
}

func foldRight[A any](qs []Query[A], combine func(l, r Query[A]) Query[A]) Query[A] {
	switch len(qs) {
	case 0:
		return nil
	case 1:
		return qs[0]
	}
	return combine(qs[0], foldRight(qs[1:], combine))
}

// Eval folds the query tree over an atom predicate. Branch evaluation
// short-circuits; atom predicates must be pure. A nil query and a nil atom
// both evaluate to true, the open filter.
func Eval[A any](q Query[A], pred func(*A) bool) bool {
	if q == nil {
		return true
	}
	switch n := q.(type) {
	case *AtomQuery[A]:
		if n.Atom == nil {
			return true
		}
		return pred(n.Atom)
	case *UnionQuery[A]:
		return Eval(n.Left, pred) || Eval(n.Right, pred)
	case *IntersectQuery[A]:
		return Eval(n.Left, pred) && Eval(n.Right, pred)
	case *SubtractQuery[A]:
		return Eval(n.Left, pred) && !Eval(n.Right, pred)
	case *ComplementQuery[A]:
		return !Eval(n.Inner, pred)
	default:
		// The node set is sealed; a foreign implementation is a
		// programming error.
		panic("query: unknown node kind")
	}
}
