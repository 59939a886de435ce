package resolve

import (
	"testing"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
)

func versionedItem(t *testing.T, name, version string, kind store.Kind) *store.Item {
	t.Helper()
	it := store.NewItem(name+".deb", kind)
	it.Name = name
	ver, err := control.ParseVersion(version)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", version, err)
	}
	it.Vers = ver
	return it
}

func TestCompareTreesNewerSharedNameDominates(t *testing.T) {
	older := NewTree(store.Items{versionedItem(t, "a", "1.0", store.KindExplicit)})
	newer := NewTree(store.Items{versionedItem(t, "a", "2.0", store.KindUpgrade)})
	if compareTrees(newer, older) != -1 {
		t.Error("a tree with a strictly newer shared package should dominate")
	}
	if compareTrees(older, newer) != 1 {
		t.Error("comparison should be antisymmetric")
	}
}

func TestCompareTreesIdenticalIsTie(t *testing.T) {
	x := NewTree(store.Items{versionedItem(t, "a", "1.0", store.KindExplicit)})
	y := NewTree(store.Items{versionedItem(t, "a", "1.0", store.KindExplicit)})
	if compareTrees(x, y) != 0 {
		t.Error("identical trees should compare as tied")
	}
}

func TestCompareTreesDisjointNamesIsTie(t *testing.T) {
	// No shared names at all: neither tree can claim a strict win on
	// anything the other tree also selected.
	x := NewTree(store.Items{versionedItem(t, "a", "1.0", store.KindExplicit)})
	y := NewTree(store.Items{versionedItem(t, "b", "1.0", store.KindExplicit)})
	if compareTrees(x, y) != 0 {
		t.Error("trees with no shared selected names should tie")
	}
}

func TestCompareTreesMixedWinsIsTie(t *testing.T) {
	// x is newer on "a" but older on "b": a genuinely mixed comparison, not
	// a dominance either way.
	x := NewTree(store.Items{
		versionedItem(t, "a", "2.0", store.KindExplicit),
		versionedItem(t, "b", "1.0", store.KindImplicit),
	})
	y := NewTree(store.Items{
		versionedItem(t, "a", "1.0", store.KindExplicit),
		versionedItem(t, "b", "2.0", store.KindImplicit),
	})
	if compareTrees(x, y) != 0 {
		t.Error("a mixed per-name comparison should tie, not favor either side")
	}
}

func TestCompareTreesExtraUnsharedPackageDoesNotAffectOutcome(t *testing.T) {
	// y additionally selects "c", a name x doesn't have at all: that extra
	// selection is not comparable and must not make y lose.
	x := NewTree(store.Items{versionedItem(t, "a", "1.0", store.KindExplicit)})
	y := NewTree(store.Items{
		versionedItem(t, "a", "2.0", store.KindExplicit),
		versionedItem(t, "c", "1.0", store.KindImplicit),
	})
	if compareTrees(y, x) != -1 {
		t.Error("y should still dominate on the one shared, strictly newer name")
	}
}

func TestSelectBestTreeReturnsUniqueWinner(t *testing.T) {
	worse := NewTree(store.Items{versionedItem(t, "a", "1.0", store.KindExplicit)})
	better := NewTree(store.Items{versionedItem(t, "a", "2.0", store.KindUpgrade)})

	best, err := SelectBestTree([]*Tree{worse, better})
	if err != nil {
		t.Fatalf("SelectBestTree: %v", err)
	}
	if best != better {
		t.Error("SelectBestTree should pick the tree with the strictly newer shared package")
	}
}

func TestSelectBestTreeIndecisionOnTrueTie(t *testing.T) {
	// Same shared name, same version, but a different unshared package on
	// each side: a genuine "computer indecision" between non-identical
	// trees that neither dominates the other.
	x := NewTree(store.Items{
		versionedItem(t, "a", "1.0", store.KindExplicit),
		versionedItem(t, "b", "1.0", store.KindImplicit),
	})
	y := NewTree(store.Items{
		versionedItem(t, "a", "1.0", store.KindExplicit),
		versionedItem(t, "c", "1.0", store.KindImplicit),
	})

	_, err := SelectBestTree([]*Tree{x, y})
	if err == nil {
		t.Fatal("two non-identical, equally-ranked trees should fail with indecision")
	}
	if _, ok := err.(*indecisionFailure); !ok {
		t.Fatalf("want *indecisionFailure, got %T: %v", err, err)
	}
}

func TestSelectBestTreeEmptyCandidates(t *testing.T) {
	if _, err := SelectBestTree(nil); err == nil {
		t.Fatal("expected an error for no candidates")
	}
}
