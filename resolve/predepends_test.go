package resolve

import (
	"bytes"
	"testing"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

func mkItem(t *testing.T, name, version string, predepends string, status store.Status) *store.Item {
	t.Helper()
	fields := control.Fields{"Package": name, "Version": version}
	if predepends != "" {
		fields.Set("Pre-Depends", predepends)
	}
	it := store.NewItem(name+".deb", store.KindExplicit)
	if err := it.ApplyFields(fields); err != nil {
		t.Fatalf("ApplyFields: %v", err)
	}
	it.OriginalStatus = status
	return it
}

func newTestSession() *wpkgsession.Session {
	return wpkgsession.New("/", "var/lib/wpkg", &bytes.Buffer{})
}

func TestCheckPreDependenciesSatisfied(t *testing.T) {
	base := mkItem(t, "base", "1.0", "", store.StatusInstalled)
	app := mkItem(t, "app", "1.0", "base (>= 1.0)", store.StatusNotInstalled)

	err := CheckPreDependencies(newTestSession(), store.Items{app}, store.Items{base})
	if err != nil {
		t.Fatalf("expected satisfied pre-dependency, got error: %v", err)
	}
}

func TestCheckPreDependenciesMissingFails(t *testing.T) {
	app := mkItem(t, "app", "1.0", "base (>= 1.0)", store.StatusNotInstalled)

	err := CheckPreDependencies(newTestSession(), store.Items{app}, store.Items{})
	if err == nil {
		t.Fatal("expected a pre-dependency failure, got nil")
	}
}

func TestCheckPreDependenciesForceDependsOverridesMissing(t *testing.T) {
	app := mkItem(t, "app", "1.0", "base (>= 1.0)", store.StatusNotInstalled)

	sess := newTestSession()
	sess.Flags.Set(wpkgsession.ForceDepends, true)
	if err := CheckPreDependencies(sess, store.Items{app}, store.Items{}); err != nil {
		t.Fatalf("force-depends should suppress missing pre-dependency, got: %v", err)
	}
}

func TestCheckPreDependenciesUnconfiguredFails(t *testing.T) {
	base := mkItem(t, "base", "1.0", "", store.StatusUnpacked)
	app := mkItem(t, "app", "1.0", "base (>= 1.0)", store.StatusNotInstalled)

	err := CheckPreDependencies(newTestSession(), store.Items{app}, store.Items{base})
	if err == nil {
		t.Fatal("an unpacked-but-unconfigured pre-dependency should fail without force-configure-any")
	}
}

func TestCheckPreDependenciesForceConfigureAnyPromotesToConfigure(t *testing.T) {
	base := mkItem(t, "base", "1.0", "", store.StatusUnpacked)
	app := mkItem(t, "app", "1.0", "base (>= 1.0)", store.StatusNotInstalled)

	sess := newTestSession()
	sess.Flags.Set(wpkgsession.ForceConfigureAny, true)
	if err := CheckPreDependencies(sess, store.Items{app}, store.Items{base}); err != nil {
		t.Fatalf("force-configure-any should allow promoting base, got: %v", err)
	}
	if base.Kind != store.KindConfigure {
		t.Errorf("base should be promoted to KindConfigure, got %v", base.Kind)
	}
}

func TestCheckPreDependenciesVersionMismatchFails(t *testing.T) {
	base := mkItem(t, "base", "1.0", "", store.StatusInstalled)
	app := mkItem(t, "app", "1.0", "base (>= 2.0)", store.StatusNotInstalled)

	err := CheckPreDependencies(newTestSession(), store.Items{app}, store.Items{base})
	if err == nil {
		t.Fatal("expected version-mismatch failure")
	}
}
