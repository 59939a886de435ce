package resolve

import (
	"testing"

	"github.com/wpkg-go/wpkgar/store"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

func availableItem(t *testing.T, name, version string) *store.Item {
	t.Helper()
	it := versionedItem(t, name, version, store.KindAvailable)
	return it
}

func installedItem(t *testing.T, name, version string, status store.Status, kind store.Kind) *store.Item {
	t.Helper()
	it := versionedItem(t, name, version, kind)
	it.OriginalStatus = status
	return it
}

func TestApplyImplicitUpgradesLinksLowerInstalled(t *testing.T) {
	inst := installedItem(t, "t1", "1.0", store.StatusInstalled, store.KindInstalled)
	avail := availableItem(t, "t1", "1.5")
	tree := &Tree{Items: store.Items{avail}}

	if err := applyImplicitUpgrades(tree, store.Items{inst}, nil, wpkgsession.TaskInstall); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avail.Kind != store.KindUpgradeImplicit {
		t.Errorf("available item should be promoted to upgrade-implicit, got %v", avail.Kind)
	}
	if avail.UpgradeLink != inst {
		t.Error("UpgradeLink should point at the superseded installed item")
	}
}

func TestApplyImplicitUpgradesSameVersionIsInternalError(t *testing.T) {
	inst := installedItem(t, "t1", "1.0", store.StatusInstalled, store.KindInstalled)
	avail := availableItem(t, "t1", "1.0")
	tree := &Tree{Items: store.Items{avail}}

	err := applyImplicitUpgrades(tree, store.Items{inst}, nil, wpkgsession.TaskInstall)
	if _, ok := err.(*implicitSameVersionFailure); !ok {
		t.Fatalf("want *implicitSameVersionFailure, got %T: %v", err, err)
	}
}

func TestApplyImplicitUpgradesHigherInstalledRejectsDowngrade(t *testing.T) {
	inst := installedItem(t, "t1", "2.0", store.StatusInstalled, store.KindInstalled)
	avail := availableItem(t, "t1", "1.0")
	tree := &Tree{Items: store.Items{avail}}

	err := applyImplicitUpgrades(tree, store.Items{inst}, nil, wpkgsession.TaskInstall)
	if _, ok := err.(*implicitDowngradeFailure); !ok {
		t.Fatalf("want *implicitDowngradeFailure, got %T: %v", err, err)
	}
}

func TestApplyImplicitUpgradesHeldRejects(t *testing.T) {
	inst := installedItem(t, "t1", "1.0", store.StatusInstalled, store.KindInstalled)
	avail := availableItem(t, "t1", "1.5")
	tree := &Tree{Items: store.Items{avail}}

	err := applyImplicitUpgrades(tree, store.Items{inst}, map[string]bool{"t1": true}, wpkgsession.TaskInstall)
	if _, ok := err.(*holdViolationFailure); !ok {
		t.Fatalf("want *holdViolationFailure, got %T: %v", err, err)
	}
}

func TestApplyImplicitUpgradesUnpackedRejectsUnlessTaskIsUnpack(t *testing.T) {
	inst := installedItem(t, "t1", "1.0", store.StatusUnpacked, store.KindUnpacked)
	avail := availableItem(t, "t1", "1.5")
	tree := &Tree{Items: store.Items{avail}}

	err := applyImplicitUpgrades(tree, store.Items{inst}, nil, wpkgsession.TaskInstall)
	if _, ok := err.(*unpackedPreventsImplicitFailure); !ok {
		t.Fatalf("want *unpackedPreventsImplicitFailure, got %T: %v", err, err)
	}
}

func TestApplyImplicitUpgradesUnpackedAllowedUnderUnpackTask(t *testing.T) {
	inst := installedItem(t, "t1", "1.0", store.StatusUnpacked, store.KindUnpacked)
	avail := availableItem(t, "t1", "1.5")
	tree := &Tree{Items: store.Items{avail}}

	if err := applyImplicitUpgrades(tree, store.Items{inst}, nil, wpkgsession.TaskUnpack); err != nil {
		t.Fatalf("an unpack task targeting an unpacked predecessor should be allowed, got %v", err)
	}
}
