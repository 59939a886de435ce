package resolve

import (
	"github.com/wpkg-go/wpkgar/store"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// StackRiskDepth is §4.2.3's warning threshold: a trim walk this deep is
// unusual enough to be worth telling the user about, but not yet fatal.
const StackRiskDepth = 1000

// MaxRecursionDepth bounds the dependency-trim walk (Design notes: cap
// recursion at an explicit depth rather than rely on stack exhaustion).
// Past it the walk is treated as a constraint-violation: a real dependency
// graph has no business needing this many trim iterations.
const MaxRecursionDepth = 4096

// TrimToDependencyClosure implements §4.2.3's trim phase: starting from the
// explicit items, walk Depends/Pre-Depends transitively and discard every
// master-tree item that is neither explicit, installed, nor reachable from
// an explicit item - the candidate set the enumerator will ever need to
// permute over.
func TrimToDependencyClosure(sess *wpkgsession.Session, master *Tree, explicit store.Items) (*Tree, error) {
	byName := map[string]store.Items{}
	for _, it := range master.Items {
		byName[it.Name] = append(byName[it.Name], it)
	}

	keep := map[string]bool{}
	for _, it := range explicit {
		keep[it.Name] = true
	}
	for _, it := range master.Items {
		if it.Kind == store.KindInstalled {
			keep[it.Name] = true
		}
	}

	queue := make([]string, 0, len(explicit))
	for _, it := range explicit {
		queue = append(queue, it.Name)
	}
	visited := map[string]bool{}

	depth := 0
	warned := false
	for len(queue) > 0 {
		depth++
		if depth > MaxRecursionDepth {
			return nil, &recursionDepthFailure{depth: MaxRecursionDepth}
		}
		if depth > StackRiskDepth && !warned {
			warned = true
			if sess != nil {
				sess.Log.Logf("wpkg: dependency trim has run past %d iterations, stack risk\n", StackRiskDepth)
			}
		}
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true

		for _, candidate := range byName[name] {
			for _, fieldName := range []string{"Depends", "Pre-Depends"} {
				field, err := candidate.DependencyField(fieldName)
				if err != nil {
					return nil, err
				}
				for _, dep := range field.Names() {
					if !keep[dep] {
						keep[dep] = true
					}
					if !visited[dep] {
						queue = append(queue, dep)
					}
				}
			}
		}
	}

	var kept store.Items
	for _, it := range master.Items {
		if keep[it.Name] {
			kept = append(kept, it)
		}
	}
	return &Tree{Items: kept}, nil
}

// namesIn is a small helper used by the enumerator to group a trimmed
// tree's items by name without re-walking dependency fields.
func namesIn(items store.Items) map[string]store.Items {
	out := map[string]store.Items{}
	for _, it := range items {
		out[it.Name] = append(out[it.Name], it)
	}
	return out
}
