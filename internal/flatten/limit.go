package flatten

// Limit returns a copy of the document with every list, at every nesting
// depth, truncated to its first n elements. Used to keep the sample-response
// cell readable.
func Limit(v Value, n int) Value {
	switch v.Kind {
	case KindObject:
		out := Value{Kind: KindObject, Members: make([]Member, 0, len(v.Members))}
		for _, m := range v.Members {
			out.Members = append(out.Members, Member{Key: m.Key, Value: Limit(m.Value, n)})
		}
		return out
	case KindArray:
		elems := v.Elems
		if len(elems) > n {
			elems = elems[:n]
		}
		out := Value{Kind: KindArray, Elems: make([]Value, 0, len(elems))}
		for _, e := range elems {
			out.Elems = append(out.Elems, Limit(e, n))
		}
		return out
	default:
		return v
	}
}
