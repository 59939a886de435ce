package diskplan

import (
	"fmt"

	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// OwnerKind classifies what, if anything, already occupies a destination
// path, for the overwrite-policy decision table of §4.3.
type OwnerKind int

const (
	OwnerNone       OwnerKind = iota // nothing at the destination yet
	OwnerSamePkg                     // previously owned by the package being upgraded
	OwnerOtherPkg                    // owned by a different, already-installed package
	OwnerConcurrent                  // shipped by another package installing in the same transaction
)

// DestinationKind is whether the existing filesystem node (if any) and the
// incoming archive entry are directories or regular files.
type DestinationKind int

const (
	DestAbsent DestinationKind = iota
	DestDirectory
	DestFile
)

// OverwriteCheck is one evaluated overwrite decision (§4.3 "Overwrite policy").
type OverwriteCheck struct {
	Path  string
	Fatal error // essential-file overwrite: never bypassable
	Err   error // ordinary overwrite error, bypassable by the named force flag
	Warn  string
}

// CheckOverwrite evaluates the decision table against one destination path.
// isConffile tells whether the incoming package declares path as a
// configuration file (deferred to conffile handling rather than treated as
// a hard error).
func CheckOverwrite(sess *wpkgsession.Session, path string, existing, incoming DestinationKind, owner OwnerKind, isEssentialOwner, isConffile, legitimateUpgrade bool) *OverwriteCheck {
	res := &OverwriteCheck{Path: path}

	if existing == DestDirectory && incoming == DestDirectory {
		return res // both sides directories: silent, permitted
	}

	if existing == DestFile && incoming == DestFile && owner != OwnerSamePkg {
		if isEssentialOwner {
			res.Fatal = fmt.Errorf("wpkg: %s is owned by an essential package and cannot be overwritten", path)
			return res
		}
		if owner == OwnerConcurrent {
			res.Err = fmt.Errorf("wpkg: %s is shipped by another package installing concurrently", path)
			return res
		}
		if isConffile {
			res.Warn = fmt.Sprintf("wpkg: %s is a configuration file, overwrite deferred to conffile handling", path)
			return res
		}
		if !sess.Flags.Has(wpkgsession.ForceOverwrite) {
			res.Err = fmt.Errorf("wpkg: %s already exists, use force-overwrite to replace it", path)
		}
		return res
	}

	if (existing == DestDirectory && incoming == DestFile) || (existing == DestFile && incoming == DestDirectory) {
		if isEssentialOwner {
			res.Fatal = fmt.Errorf("wpkg: %s is owned by an essential package; directory/file type change refused", path)
			return res
		}
		if legitimateUpgrade {
			res.Warn = fmt.Sprintf("wpkg: %s changes type across directory/file during upgrade", path)
			return res
		}
		if !sess.Flags.Has(wpkgsession.ForceOverwriteDir) {
			res.Err = fmt.Errorf("wpkg: %s changes between directory and file, use force-overwrite-dir", path)
		}
		return res
	}

	// existing == DestAbsent: nothing to overwrite.
	return res
}
