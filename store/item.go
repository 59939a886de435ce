package store

import (
	"github.com/wpkg-go/wpkgar/control"
)

// Kind is the 16-valued tag that drives nearly every resolver and executor
// branch (Design notes: "Polymorphism via tags, not inheritance").
type Kind int

const (
	KindExplicit Kind = iota
	KindImplicit
	KindAvailable
	KindInstalled
	KindUnpacked
	KindConfigure
	KindUpgrade
	KindUpgradeImplicit
	KindDowngrade
	KindNotInstalled
	KindInvalid
	KindSame
	KindOlder
	KindDirectory
)

var kindNames = [...]string{
	"explicit", "implicit", "available", "installed", "unpacked",
	"configure", "upgrade", "upgrade-implicit", "downgrade",
	"not-installed", "invalid", "same", "older", "directory",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown-kind"
}

// IsSelectable reports whether an item of this kind may be part of a
// candidate tree's selected set (non-invalid, non-available).
func (k Kind) IsSelectable() bool {
	return k != KindInvalid && k != KindAvailable
}

// LoadedState tracks how much of an item's data has been parsed, enabling
// the lazy "control metadata before file data" discipline of §4.1.
type LoadedState int

const (
	NotLoaded LoadedState = iota
	ControlOnly
	FullyLoaded
)

// Source distinguishes where an item's bytes originate - used to reject
// ambiguous basename collisions (§4.1 Guarantees) and, per SPEC_FULL's
// store supplement, to separate locally supplied archives from ones
// fetched into a repository cache directory.
type Source int

const (
	SourceUnknown Source = iota
	SourceLocalFile
	SourceRepositoryCache
	SourceDatabase
)

// Item is one package candidate under consideration: spec §3 "Package item".
type Item struct {
	Filename string
	Name     string
	Kind     Kind
	Source   Source

	Fields control.Fields
	Arch   control.Architecture
	Vers   control.Version

	// OriginalStatus is the lifecycle state read from the database, if the
	// item corresponds to something already installed.
	OriginalStatus Status

	// UpgradeLink points at the installed item this one supersedes; nil
	// when the item introduces a name not currently on the system. Set by
	// whichever path produced the item - explicit load, implicit
	// promotion - so the lifecycle executor can tell an upgrade from a
	// fresh install regardless of which Items slice the item travels
	// through afterward.
	UpgradeLink *Item

	Loaded LoadedState
}

// NewItem builds an item in the NotLoaded state; callers populate Fields
// via the Store before relying on Name/Arch/Vers.
func NewItem(filename string, kind Kind) *Item {
	return &Item{Filename: filename, Kind: kind, Loaded: NotLoaded}
}

// ApplyFields derives Name, Arch and Vers from a freshly parsed control
// stanza, advancing Loaded to ControlOnly.
func (it *Item) ApplyFields(fields control.Fields) error {
	it.Fields = fields
	if name, ok := fields.Get("Package"); ok {
		it.Name = name
	}
	if archStr, ok := fields.Get("Architecture"); ok {
		arch, err := control.ParseArchitecture(archStr)
		if err != nil {
			return err
		}
		it.Arch = arch
	}
	if verStr, ok := fields.Get("Version"); ok {
		ver, err := control.ParseVersion(verStr)
		if err != nil {
			return err
		}
		it.Vers = ver
	}
	if it.Loaded < ControlOnly {
		it.Loaded = ControlOnly
	}
	return nil
}

// IsEssential reports whether the package declares itself critical to the
// system (§4.3 Essential-file lookup, GLOSSARY "Essential package").
func (it *Item) IsEssential() bool {
	v, _ := it.Fields.Get("Essential")
	return v == "yes"
}

// DependencyField returns the parsed form of one of the dependency-bearing
// control fields (Depends, Pre-Depends, Conflicts, Breaks, ...).
func (it *Item) DependencyField(name string) (control.Field, error) {
	v, ok := it.Fields.Get(name)
	if !ok {
		return nil, nil
	}
	return control.ParseField(v)
}

// Items is an ordered list of package items, with name lookups used
// throughout the resolver and store.
type Items []*Item

// ByName returns the first selectable item with the given name, if any.
func (its Items) ByName(name string) *Item {
	for _, it := range its {
		if it.Name == name && it.Kind.IsSelectable() {
			return it
		}
	}
	return nil
}

// AllByName returns every item (selectable or not) with the given name.
func (its Items) AllByName(name string) Items {
	var out Items
	for _, it := range its {
		if it.Name == name {
			out = append(out, it)
		}
	}
	return out
}

// Installed returns the single installed item for name, if present. Per
// the uniqueness invariant in §3, there can be at most one.
func (its Items) Installed(name string) *Item {
	for _, it := range its {
		if it.Name == name && it.Kind == KindInstalled {
			return it
		}
	}
	return nil
}
