package lifecycle

import (
	"path/filepath"
	"sort"

	shutil "github.com/termie/go-shutil"

	"github.com/wpkg-go/wpkgar/store"
)

// SelfUpgradeTracker mirrors the source's add_self registry (§4.5
// "Self-upgrade detection"): the names of packages that ship the running
// executable itself, discovered by the caller at startup (typically just
// the core's own package name, registered once).
type SelfUpgradeTracker struct {
	registered map[string]bool
}

// NewSelfUpgradeTracker builds a tracker pre-seeded with the names known at
// startup to own the running binary.
func NewSelfUpgradeTracker(names ...string) *SelfUpgradeTracker {
	t := &SelfUpgradeTracker{registered: map[string]bool{}}
	for _, n := range names {
		t.registered[n] = true
	}
	return t
}

// AddSelf registers an additional self-owning package name, mirroring the
// source's add_self call made by a package's own postinst.
func (t *SelfUpgradeTracker) AddSelf(name string) { t.registered[name] = true }

// IsSelfUpgrade reports whether unpacking name is a self-upgrade: the
// package shares a name with something previously registered via AddSelf.
func (t *SelfUpgradeTracker) IsSelfUpgrade(name string) bool { return t.registered[name] }

// OrderLast stable-sorts items so that every self-upgrade package sorts
// after every other package, preserving relative order within each group
// (§4.5: "ensures the package is ordered last").
func (t *SelfUpgradeTracker) OrderLast(items store.Items) store.Items {
	out := make(store.Items, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := t.IsSelfUpgrade(out[i].Name), t.IsSelfUpgrade(out[j].Name)
		return !si && sj
	})
	return out
}

// RelocateRunningExecutable copies the currently-running binary to a
// staging path outside the package's own install location, so a caller on
// a platform that cannot overwrite a running executable can re-exec from
// the copy before the core proceeds to unpack over the original (§4.5:
// "the caller is expected to re-exec from a copy"). This is the one
// concrete use of the go-shutil dependency outside the rollback journal.
func RelocateRunningExecutable(executablePath, stagingDir string) (string, error) {
	dst := filepath.Join(stagingDir, filepath.Base(executablePath)+".running")
	if err := shutil.CopyFile(executablePath, dst, false); err != nil {
		return "", err
	}
	return dst, nil
}
