package resolve

import (
	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
)

// compareTrees implements §4.2.5's compare_trees: a Pareto dominance check
// restricted to the package names present in both trees' selected sets. A
// tree wins only if it is at least as new as the other on every shared
// name and strictly newer on at least one; a mix where each side wins on a
// different shared name - or no shared names at all - is a tie, left for
// SelectBestTree to report as computer indecision. It returns -1 if x
// dominates y, +1 if y dominates x, and 0 on a tie.
func compareTrees(x, y *Tree) int {
	xByName := map[string]*store.Item{}
	for _, it := range x.Selected() {
		xByName[it.Name] = it
	}
	yByName := map[string]*store.Item{}
	for _, it := range y.Selected() {
		yByName[it.Name] = it
	}

	xWins, yWins := false, false
	for name, xi := range xByName {
		yi, ok := yByName[name]
		if !ok {
			continue
		}
		switch c := control.Compare(xi.Vers, yi.Vers); {
		case c > 0:
			xWins = true
		case c < 0:
			yWins = true
		}
	}

	switch {
	case xWins && !yWins:
		return -1
	case yWins && !xWins:
		return 1
	default:
		return 0
	}
}

// SelectBestTree implements the remainder of §4.2.5: fold compareTrees
// across every verified candidate, and fail with indecisionFailure if two
// non-identical best trees remain tied after comparison, per §4.2.5's
// "computer indecision" fatal.
func SelectBestTree(candidates []*Tree) (*Tree, error) {
	if len(candidates) == 0 {
		return nil, &unsatisfiedDependencyFailure{dependent: "", dep: control.Dependency{}}
	}

	best := candidates[0]
	var tiedWithBest []*Tree
	for _, t := range candidates[1:] {
		switch compareTrees(t, best) {
		case -1:
			best = t
			tiedWithBest = nil
		case 0:
			if !sameNamePairs(t, best) {
				tiedWithBest = append(tiedWithBest, t)
			}
		}
	}

	if len(tiedWithBest) > 0 {
		names := map[string]bool{}
		for n := range best.NamePairs() {
			names[n] = true
		}
		for _, t := range tiedWithBest {
			for n := range t.NamePairs() {
				names[n] = true
			}
		}
		out := make([]string, 0, len(names))
		for n := range names {
			out = append(out, n)
		}
		return nil, &indecisionFailure{names: out}
	}
	return best, nil
}

func sameNamePairs(a, b *Tree) bool {
	ap, bp := a.NamePairs(), b.NamePairs()
	if len(ap) != len(bp) {
		return false
	}
	for k, v := range ap {
		if bp[k] != v {
			return false
		}
	}
	return true
}
