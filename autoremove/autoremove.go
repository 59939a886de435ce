// Package autoremove implements §4.7: the fixpoint computation of
// implicitly-installed packages nothing currently installed depends on.
package autoremove

import (
	"sort"

	"github.com/wpkg-go/wpkgar/store"
)

// InstallType records whether a package was installed because the user
// explicitly asked for it or pulled in as a dependency of something else.
// The database preserves this bit in the status file (§4.7).
type InstallType int

const (
	InstallExplicit InstallType = iota
	InstallImplicit
)

// Candidate pairs an installed item with its persisted install type, the
// input autoremove needs per package (the status record's install-type
// field, read by the caller before invoking Candidates).
type Candidate struct {
	Item *store.Item
	Type InstallType
}

// Candidates computes the fixpoint candidate set: every implicitly-
// installed package that, after provisionally removing all previously
// found candidates, no remaining installed package depends on. Removing
// one candidate can expose another (a implicit, B implicit, A depends on
// B: removing A should make B a candidate too even though B was initially
// depended-upon), so the computation repeats until no new candidate is
// found.
func Candidates(all []Candidate) store.Items {
	remaining := map[string]*store.Item{}
	implicit := map[string]bool{}
	for _, c := range all {
		remaining[c.Item.Name] = c.Item
		if c.Type == InstallImplicit {
			implicit[c.Item.Name] = true
		}
	}

	removed := map[string]bool{}
	for {
		progressed := false
		for name := range implicit {
			if removed[name] {
				continue
			}
			if !anyRemainingDependsOn(remaining, removed, name) {
				removed[name] = true
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	var out store.Items
	for name := range removed {
		out = append(out, remaining[name])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// anyRemainingDependsOn reports whether some installed package, not itself
// already marked removed, still names target in Depends or Pre-Depends.
func anyRemainingDependsOn(remaining map[string]*store.Item, removed map[string]bool, target string) bool {
	for name, it := range remaining {
		if name == target || removed[name] {
			continue
		}
		for _, fieldName := range []string{"Depends", "Pre-Depends"} {
			field, err := it.DependencyField(fieldName)
			if err != nil {
				continue
			}
			for _, n := range field.Names() {
				if n == target {
					return true
				}
			}
		}
	}
	return false
}
