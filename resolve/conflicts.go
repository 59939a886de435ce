package resolve

import (
	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
)

// CheckConflicts implements the first bullet of §4.2.3: no two items in the
// selected set may conflict with each other, and an item may not Break an
// already-configured package it does not also replace. Conflicts/Breaks are
// symmetric checks - each pair is examined from both sides, since a
// maintainer may only declare the field on one of the two packages.
func CheckConflicts(tree *Tree) error {
	selected := tree.Selected()
	for i, a := range selected {
		for j, b := range selected {
			if i == j || a.Name == b.Name {
				continue
			}
			if err := checkPairConflicts(a, b); err != nil {
				return err
			}
			if err := checkPairBreaks(a, b); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkPairConflicts(a, b *store.Item) error {
	field, err := a.DependencyField("Conflicts")
	if err != nil {
		return err
	}
	if !fieldMatchesItem(field, b) {
		return nil
	}
	if replaces(a, b) {
		return nil
	}
	return &conflictFailure{kind: "Conflicts", a: a.Name, b: b.Name}
}

func checkPairBreaks(a, b *store.Item) error {
	field, err := a.DependencyField("Breaks")
	if err != nil {
		return err
	}
	if !fieldMatchesItem(field, b) {
		return nil
	}
	// Breaking a package that is not actually configured on the target is
	// harmless; it only matters once b would end up configured.
	if b.Kind != store.KindInstalled &&
		b.Kind != store.KindUpgrade && b.Kind != store.KindUpgradeImplicit &&
		b.Kind != store.KindConfigure {
		return nil
	}
	if replaces(a, b) {
		return nil
	}
	return &conflictFailure{kind: "Breaks", a: a.Name, b: b.Name}
}

// fieldMatchesItem reports whether any alternative, in any line of field,
// names target and (if versioned) is satisfied by target's version. A
// Conflicts/Breaks field with no version qualifier matches any version.
func fieldMatchesItem(field control.Field, target *store.Item) bool {
	for _, line := range field {
		for _, dep := range line {
			if dep.Name != target.Name {
				continue
			}
			if !dep.HasVersion || dep.Satisfies(target.Name, target.Vers) {
				return true
			}
		}
	}
	return false
}

// replaces reports whether a declares a Replaces field naming b, which
// cancels an otherwise-triggered Conflicts/Breaks between the two (the
// conventional upgrade-in-place escape hatch).
func replaces(a, b *store.Item) bool {
	field, err := a.DependencyField("Replaces")
	if err != nil {
		return false
	}
	return fieldMatchesItem(field, b)
}
