package resolve

import (
	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// VerifyTree implements §4.2.4's verify_tree step: a candidate permutation
// is acceptable only if every selected item's Depends/Pre-Depends is
// satisfied from within the same permutation (or already installed), no
// Conflicts/Breaks trigger, and no cycle exists among non-optional edges.
// The §4.2.7 implicit-upgrade and hold rules are not checked here;
// applyImplicitUpgrades enforces them before enumeration.
func VerifyTree(tree *Tree) error {
	if err := CheckConflicts(tree); err != nil {
		return err
	}
	if err := checkCycles(tree); err != nil {
		return err
	}
	selected := tree.Selected()
	byName := map[string]*store.Item{}
	for _, it := range selected {
		byName[it.Name] = it
	}

	for _, it := range selected {
		for _, fieldName := range []string{"Depends", "Pre-Depends"} {
			field, err := it.DependencyField(fieldName)
			if err != nil {
				return err
			}
			for _, line := range field {
				if !lineSatisfied(line, byName) {
					return &unsatisfiedDependencyFailure{dependent: it.Name, dep: line[0]}
				}
			}
		}
	}
	return nil
}

func lineSatisfied(line control.Line, byName map[string]*store.Item) bool {
	for _, dep := range line {
		if it, ok := byName[dep.Name]; ok && dep.Satisfies(it.Name, it.Vers) {
			return true
		}
	}
	return false
}

// CheckImplicitUpgrade implements §4.2.7: an implicitly-pulled-in upgrade
// candidate must not be a downgrade relative to what's installed, must not
// touch a held package, and must not auto-configure a package that is only
// unpacked unless the running task is itself an unpack.
func CheckImplicitUpgrade(candidate, installed *store.Item, held bool, task wpkgsession.Task) error {
	if candidate.Kind != store.KindUpgradeImplicit {
		return nil
	}
	if held {
		return &holdViolationFailure{name: installed.Name}
	}
	if installed.Kind == store.KindUnpacked && task != wpkgsession.TaskUnpack {
		return &unpackedPreventsImplicitFailure{name: installed.Name, task: task}
	}
	if control.Compare(candidate.Vers, installed.Vers) < 0 {
		return &implicitDowngradeFailure{name: installed.Name, installed: installed.Vers, offered: candidate.Vers}
	}
	return nil
}

// checkCycles detects a circular Depends/Pre-Depends chain among the
// selected set (§4.2.6). Only single-alternative lines count as edges; a
// line with alternatives is skipped, so a cycle through it is not reported
// even when every alternative leads back.
func checkCycles(tree *Tree) error {
	selected := tree.Selected()
	byName := map[string]*store.Item{}
	for _, it := range selected {
		byName[it.Name] = it
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			start := 0
			for i, n := range stack {
				if n == name {
					start = i
					break
				}
			}
			chain := append(append([]string{}, stack[start:]...), name)
			return &cycleFailure{chain: chain}
		}
		color[name] = gray
		stack = append(stack, name)

		it, ok := byName[name]
		if ok {
			for _, fieldName := range []string{"Depends", "Pre-Depends"} {
				field, err := it.DependencyField(fieldName)
				if err != nil {
					return err
				}
				for _, line := range field {
					if len(line) != 1 {
						continue // alternatives are not treated as hard edges for cycle detection
					}
					if _, present := byName[line[0].Name]; present {
						if err := visit(line[0].Name); err != nil {
							return err
						}
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[name] = black
		return nil
	}

	for _, it := range selected {
		if color[it.Name] == white {
			if err := visit(it.Name); err != nil {
				return err
			}
		}
	}
	return nil
}
