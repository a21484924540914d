// Copyright 2026 The Chronos Authors. Licensed under the Apache License, Version 2.0.

package filter

// ToCNF rewrites f into conjunctive normal form before bitmap extraction, to
// maximize pushdown (spec.md §4.3). Distribution is only applied to Or nodes
// whose children are themselves And nodes; filters with no such shape are
// returned unchanged (already in CNF, trivially: a single clause).
func ToCNF(f DimFilter) DimFilter {
	f = f.Optimize()
	switch t := f.(type) {
	case And:
		children := make([]DimFilter, len(t.Children))
		for i, c := range t.Children {
			children[i] = ToCNF(c)
		}
		return And{Children: children}.Optimize()
	case Or:
		return distributeOr(t)
	case Not:
		return Not{Child: ToCNF(t.Child)}.Optimize()
	default:
		return f
	}
}

// distributeOr applies (a AND b) OR c == (a OR c) AND (b OR c) whenever one
// of Or's children is itself an And, repeatedly, until no child is an And.
func distributeOr(o Or) DimFilter {
	children := make([]DimFilter, len(o.Children))
	for i, c := range o.Children {
		children[i] = ToCNF(c)
	}
	for i, c := range children {
		if and, ok := c.(And); ok {
			rest := append(append([]DimFilter{}, children[:i]...), children[i+1:]...)
			clauses := make([]DimFilter, 0, len(and.Children))
			for _, term := range and.Children {
				clauses = append(clauses, distributeOr(Or{Children: append(append([]DimFilter{}, rest...), term)}))
			}
			return ToCNF(And{Children: clauses})
		}
	}
	return Or{Children: children}.Optimize()
}
