package ast

// Walk visits f and its descendants in pre-order. Returning false from fn skips
// the children of the node just visited. A comparison whose left operand is a
// value path descends into that value path.
func Walk(f Filter, fn func(Filter) bool) {
	if f == nil || !fn(f) {
		return
	}

	switch node := f.(type) {
	case *Conjunction:
		Walk(node.left, fn)
		Walk(node.right, fn)
	case *Disjunction:
		Walk(node.left, fn)
		Walk(node.right, fn)
	case *Negation:
		Walk(node.inner, fn)
	case *ValuePath:
		Walk(node.filter, fn)
	case *ComparisonExpression:
		if vp, ok := node.path.(*ValuePath); ok {
			Walk(vp, fn)
		}
	}
}

// Attributes returns every attribute path referenced by f in source order.
// Paths found inside a value path's filter are relative to that value path.
func Attributes(f Filter) []*AttributePath {
	var paths []*AttributePath
	Walk(f, func(node Filter) bool {
		switch n := node.(type) {
		case *ValuePath:
			paths = append(paths, n.attributePath)
		case *ComparisonExpression:
			if p, ok := n.path.(*AttributePath); ok {
				paths = append(paths, p)
			}
		}
		return true
	})
	return paths
}
