package resolve

import (
	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// Result is the resolver's final output: the chosen tree.
type Result struct {
	Tree *Tree
}

// Resolve runs the full §4.2 pipeline: pre-dependency check, repository
// loading, trim to the dependency closure, lazy enumeration, per-candidate
// verification, and best-tree selection. Held names are passed separately
// from installed since a hold is a selection-state property, not a package
// property (§4.4).
func Resolve(sess *wpkgsession.Session, explicit, installed store.Items, sources []SourceEntry, fetchers map[string]Fetcher, wpkgSubst string, target control.Architecture, held map[string]bool, task wpkgsession.Task) (*Result, error) {
	if err := CheckPreDependencies(sess, explicit, installed); err != nil {
		return nil, err
	}

	available, warnings := LoadRepositories(sources, fetchers, wpkgSubst, target, false)
	for _, w := range warnings {
		sess.Log.Logln(w.Error())
	}

	master := BuildMasterTree(explicit, installed, available)
	trimmed, err := TrimToDependencyClosure(sess, master, explicit)
	if err != nil {
		return nil, err
	}

	if err := applyImplicitUpgrades(trimmed, installed, held, task); err != nil {
		return nil, err
	}

	enumerator := NewEnumerator(trimmed)
	var candidates []*Tree
	for {
		candidate := enumerator.Next()
		if candidate == nil {
			break
		}
		if err := VerifyTree(candidate); err != nil {
			continue
		}
		if err := checkMinimumUpgrades(candidate, installed); err != nil {
			continue
		}
		candidates = append(candidates, candidate)
	}

	best, err := SelectBestTree(candidates)
	if err != nil {
		return nil, err
	}
	return &Result{Tree: best}, nil
}

// applyImplicitUpgrades enforces §4.2.7's promotion rule against every
// available candidate that shares a name with an installed package, before
// enumeration ever considers it: lower-versioned installs are linked and
// marked for upgrade, equal versions are an internal error (the trim phase
// should never have left a same-version available candidate standing),
// and higher-versioned, held or unpacked-with-wrong-task installs are
// rejected by CheckImplicitUpgrade.
func applyImplicitUpgrades(tree *Tree, installed store.Items, held map[string]bool, task wpkgsession.Task) error {
	byName := map[string]*store.Item{}
	for _, it := range tree.Items {
		if it.Kind == store.KindAvailable {
			byName[it.Name] = it
		}
	}
	for _, inst := range installed {
		avail, ok := byName[inst.Name]
		if !ok {
			continue
		}
		if control.Compare(avail.Vers, inst.Vers) == 0 {
			return &implicitSameVersionFailure{name: inst.Name, vers: inst.Vers}
		}
		avail.Kind = store.KindUpgradeImplicit
		avail.UpgradeLink = inst
		avail.OriginalStatus = inst.OriginalStatus

		if err := CheckImplicitUpgrade(avail, inst, held[inst.Name], task); err != nil {
			return err
		}
		if err := CheckMinimumUpgradableVersion(avail, inst); err != nil {
			return err
		}
	}
	return nil
}

func checkMinimumUpgrades(tree *Tree, installed store.Items) error {
	installedByName := map[string]*store.Item{}
	for _, it := range installed {
		installedByName[it.Name] = it
	}
	for _, it := range tree.Selected() {
		if prior, ok := installedByName[it.Name]; ok && prior != it {
			if err := CheckMinimumUpgradableVersion(it, prior); err != nil {
				return err
			}
		}
	}
	return nil
}
