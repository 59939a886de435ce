// Package resolve implements the dependency resolver of §4.2: pre-dependency
// checking, repository loading, universe trimming, lazy tree enumeration,
// verification and best-tree selection. It is modeled on golang-dep's gps
// solver (solver.go/selection.go/version_queue.go/satisfy.go): a CDCL-ish
// flow of select-candidates -> check-satisfiability -> backtrack-or-commit,
// adapted from Go-import-path solving to Debian-style package-tree solving.
package resolve

import (
	"github.com/wpkg-go/wpkgar/store"
)

// Tree is an ordered candidate installation plan (§3 "Tree"). The master
// tree is the union of explicit + installed + available items; a
// permutation of it selects one candidate per name with alternatives.
type Tree struct {
	Items store.Items
}

// NewTree wraps an item slice as a tree, making a defensive copy so callers
// permuting one tree never mutate another's view of the same items.
func NewTree(items store.Items) *Tree {
	cp := make(store.Items, len(items))
	copy(cp, items)
	return &Tree{Items: cp}
}

// Selected returns every non-invalid, non-available item - the "selected
// set" whose uniqueness-per-name the resolver must preserve (§3 Invariants).
func (t *Tree) Selected() store.Items {
	var out store.Items
	for _, it := range t.Items {
		if it.Kind.IsSelectable() {
			out = append(out, it)
		}
	}
	return out
}

// NamePairs returns the (name, version) set of every selected item, used by
// compare_trees to detect "practically identical" trees (§4.2.5).
func (t *Tree) NamePairs() map[string]string {
	out := map[string]string{}
	for _, it := range t.Selected() {
		out[it.Name] = it.Vers.String()
	}
	return out
}

// BuildMasterTree unions explicit, installed and available items into the
// master tree the resolver's trim/enumerate/verify pipeline operates over.
func BuildMasterTree(explicit, installed, available store.Items) *Tree {
	items := make(store.Items, 0, len(explicit)+len(installed)+len(available))
	items = append(items, explicit...)
	items = append(items, installed...)
	items = append(items, available...)
	return &Tree{Items: items}
}
