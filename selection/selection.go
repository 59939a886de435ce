// Package selection implements §4.4: the per-package Selection value
// (normal, hold, reject) that persists independently of whether the
// package is actually installed.
package selection

import (
	"fmt"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// Selection is one of the three values a package name may carry.
type Selection int

const (
	Normal Selection = iota
	Hold
	Reject
)

func (s Selection) String() string {
	switch s {
	case Hold:
		return "hold"
	case Reject:
		return "reject"
	default:
		return "normal"
	}
}

// ParseSelection parses the wpkg-status "Selection" field value.
func ParseSelection(s string) (Selection, error) {
	switch s {
	case "", "normal":
		return Normal, nil
	case "hold":
		return Hold, nil
	case "reject":
		return Reject, nil
	default:
		return Normal, fmt.Errorf("wpkg: unrecognized selection %q", s)
	}
}

// PlaceholderVersion is the synthetic version stamped onto a reject record
// created for a name with no installed package (§4.4).
const PlaceholderVersion = "0.0.0.1"

// ErrRejected is returned when a package carrying Reject is targeted by an
// install (§4.4: "attempting to install a rejected package fails even when
// the package is valid otherwise").
type ErrRejected struct {
	Name string
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("wpkg: %s is rejected, refusing to install", e.Name)
}

// ErrHeldWithoutForce is returned when an explicit upgrade of a held
// package is attempted without force-hold.
type ErrHeldWithoutForce struct {
	Name string
}

func (e *ErrHeldWithoutForce) Error() string {
	return fmt.Sprintf("wpkg: %s is held, use force-hold to upgrade explicitly", e.Name)
}

// Store is the narrow persistence boundary selection needs from the
// package database: reading and writing the Selection field of a status
// record, which may not yet exist.
type Store interface {
	SelectionField(name string) (string, error)
	SetSelectionField(name, value string) error
	HasRecord(name string) (bool, error)
	CreatePlaceholder(name, version string) error
}

// Get reads a package's current selection, defaulting to Normal when no
// record exists at all.
func Get(st Store, name string) (Selection, error) {
	raw, err := st.SelectionField(name)
	if err != nil {
		return Normal, err
	}
	return ParseSelection(raw)
}

// Set applies a new selection to name, creating a synthetic placeholder
// record when name has no existing database entry and the selection being
// set is anything other than Normal (§4.4).
func Set(st Store, name string, sel Selection) error {
	exists, err := st.HasRecord(name)
	if err != nil {
		return err
	}
	if !exists {
		if sel == Normal {
			return nil // nothing to persist for a default selection on an unknown name
		}
		if err := st.CreatePlaceholder(name, PlaceholderVersion); err != nil {
			return err
		}
	}
	return st.SetSelectionField(name, sel.String())
}

// CheckExplicitUpgrade enforces §4.4's "explicit upgrade of a held package
// requires force-hold" rule for an item the user named directly on the
// command line.
func CheckExplicitUpgrade(sess *wpkgsession.Session, name string, sel Selection) error {
	if sel != Hold {
		return nil
	}
	if sess.Flags.Has(wpkgsession.ForceHold) {
		return nil
	}
	return &ErrHeldWithoutForce{Name: name}
}

// CheckInstall enforces the reject rule before any other validation runs.
func CheckInstall(st Store, name string) error {
	sel, err := Get(st, name)
	if err != nil {
		return err
	}
	if sel == Reject {
		return &ErrRejected{Name: name}
	}
	return nil
}

// placeholderItem builds the synthetic store.Item a reject-on-absent-name
// record corresponds to, for callers that want to fold it into a tree
// alongside real items.
func placeholderItem(name string) (*store.Item, error) {
	ver, err := control.ParseVersion(PlaceholderVersion)
	if err != nil {
		return nil, err
	}
	it := store.NewItem(name, store.KindNotInstalled)
	it.Name = name
	it.Vers = ver
	it.Source = store.SourceDatabase
	return it, nil
}
