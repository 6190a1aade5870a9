// Package flatten turns OData JSON responses into per-leaf field records for
// documentation. Traversal tracks an entity context that switches whenever a
// key names a navigation relationship.
package flatten

import (
	"fmt"
	"strings"

	"github.com/hris-tools/sf-apidoc/constants"
)

// Field is one scalar leaf of a response document: the entity context in
// effect at that depth, the leaf key, its dotted/indexed path, and the sample
// value.
type Field struct {
	Entity string
	Name   string
	Path   string
	Value  any
}

// Fields flattens a response document. Root selection: if the d object holds
// a results list, only its first element is flattened (one representative
// record per document); a singular result is flattened whole; otherwise the
// d object itself is. Documents without a d object produce no fields.
func Fields(doc Value, rootEntity string) []Field {
	d, ok := doc.Member("d")
	if !ok {
		return nil
	}

	var out []Field
	if results, present := d.Member("results"); present {
		if results.Kind == KindArray && len(results.Elems) > 0 {
			walk(results.Elems[0], "d.results[]", rootEntity, &out)
		}
	} else if result, present := d.Member("result"); present {
		walk(result, "d.result", rootEntity, &out)
	} else {
		walk(d, "d", rootEntity, &out)
	}
	return out
}

func walk(v Value, path, entity string, out *[]Field) {
	switch v.Kind {
	case KindObject:
		for _, m := range v.Members {
			if m.Key == constants.MetadataEnvelopeKey {
				continue
			}
			next := entity
			if stripped, found := strings.CutSuffix(m.Key, constants.NavigationSuffix); found {
				next = stripped
			}
			childPath := path + "." + m.Key
			if m.Value.Kind == KindScalar {
				*out = append(*out, Field{
					Entity: entity,
					Name:   m.Key,
					Path:   childPath,
					Value:  m.Value.Scalar,
				})
			} else {
				walk(m.Value, childPath, next, out)
			}
		}
	case KindArray:
		for i, e := range v.Elems {
			walk(e, fmt.Sprintf("%s[%d]", path, i), entity, out)
		}
	}
}
