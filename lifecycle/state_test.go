package lifecycle

import (
	"testing"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
)

func newItem(t *testing.T, name, version string, kind store.Kind, origStatus store.Status) *store.Item {
	t.Helper()
	it := store.NewItem(name+".deb", kind)
	ver, err := control.ParseVersion(version)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", version, err)
	}
	it.Name = name
	it.Vers = ver
	it.OriginalStatus = origStatus
	return it
}

func TestBuildPlanFreshInstallUsesInstallAction(t *testing.T) {
	it := newItem(t, "foo", "1.0", store.KindExplicit, store.StatusNotInstalled)
	plan := BuildPlan(it)
	if len(plan.Steps) != 3 {
		t.Fatalf("want 3 steps (preinst, unpack, postinst), got %d: %+v", len(plan.Steps), plan.Steps)
	}
	wantStages := []Stage{StagePreinst, StageUnpack, StagePostinst}
	for i, step := range plan.Steps {
		if step.Stage != wantStages[i] {
			t.Errorf("step %d: got stage %q, want %q", i, step.Stage, wantStages[i])
		}
	}
	if plan.Steps[0].Action != ActionInstall {
		t.Errorf("fresh install should use install action, got %q", plan.Steps[0].Action)
	}
	if plan.Steps[2].Action != ActionConfigure {
		t.Errorf("final step should configure, got %q", plan.Steps[2].Action)
	}
}

func TestBuildPlanUpgradeUsesUpgradeAction(t *testing.T) {
	for _, status := range []store.Status{store.StatusInstalled, store.StatusUnpacked, store.StatusHalfConfigured} {
		it := newItem(t, "foo", "2.0", store.KindUpgrade, status)
		plan := BuildPlan(it)
		if plan.Steps[0].Action != ActionUpgrade {
			t.Errorf("status %v: want upgrade action, got %q", status, plan.Steps[0].Action)
		}
		if len(plan.Steps[0].Args) == 0 || plan.Steps[0].Args[0] != "2.0" {
			t.Errorf("status %v: upgrade step should carry the new version as arg, got %v", status, plan.Steps[0].Args)
		}
	}
}

func TestBuildPlanUpgradeLinkUsesOldVersionAsArg(t *testing.T) {
	old := newItem(t, "foo", "1.0", store.KindInstalled, store.StatusInstalled)
	next := newItem(t, "foo", "2.0", store.KindExplicit, store.StatusNoPackage)
	next.UpgradeLink = old

	plan := BuildPlan(next)
	if plan.Steps[0].Action != ActionUpgrade {
		t.Fatalf("linked item with an installed predecessor should upgrade, got %q", plan.Steps[0].Action)
	}
	if len(plan.Steps[0].Args) == 0 || plan.Steps[0].Args[0] != "1.0" {
		t.Errorf("upgrade step should carry the old version per §4.5, got %v", plan.Steps[0].Args)
	}
	if plan.Steps[2].Args[0] != "2.0" {
		t.Errorf("configure step should still carry the new version, got %v", plan.Steps[2].Args)
	}
}

func TestBuildPlanUpgradeLinkToNotInstalledStaysInstall(t *testing.T) {
	old := newItem(t, "foo", "0.0", store.KindNotInstalled, store.StatusNotInstalled)
	next := newItem(t, "foo", "1.0", store.KindExplicit, store.StatusNoPackage)
	next.UpgradeLink = old

	plan := BuildPlan(next)
	if plan.Steps[0].Action != ActionInstall {
		t.Errorf("a link to a not-installed predecessor should still be a fresh install, got %q", plan.Steps[0].Action)
	}
}

func TestBuildPlanConfigureOnly(t *testing.T) {
	it := newItem(t, "foo", "1.0", store.KindConfigure, store.StatusUnpacked)
	plan := BuildPlan(it)
	if len(plan.Steps) != 1 {
		t.Fatalf("configure-only plan should have exactly 1 step, got %d", len(plan.Steps))
	}
	if plan.Steps[0].Stage != StagePostinst || plan.Steps[0].Action != ActionConfigure {
		t.Errorf("got %+v, want postinst/configure", plan.Steps[0])
	}
}

func TestBuildRemovalPlanRemove(t *testing.T) {
	it := newItem(t, "foo", "1.0", store.KindInstalled, store.StatusInstalled)
	plan := BuildRemovalPlan(it, false)
	if len(plan.Steps) != 2 || plan.Steps[0].Stage != StagePrerm || plan.Steps[1].Stage != StagePostrm {
		t.Fatalf("want [prerm postrm], got %+v", plan.Steps)
	}
	if plan.Steps[0].Action != ActionRemove || plan.Steps[1].Action != ActionRemove {
		t.Errorf("non-purge removal should use remove action, got %+v", plan.Steps)
	}
}

func TestBuildRemovalPlanPurge(t *testing.T) {
	it := newItem(t, "foo", "1.0", store.KindInstalled, store.StatusConfigFiles)
	plan := BuildRemovalPlan(it, true)
	for _, step := range plan.Steps {
		if step.Action != ActionPurge {
			t.Errorf("purge removal should use purge action throughout, got %q", step.Action)
		}
	}
}

func TestInverseAction(t *testing.T) {
	cases := []struct {
		in      Action
		wantAct Action
		wantNil bool
	}{
		{ActionInstall, ActionAbortInstall, true},
		{ActionUpgrade, ActionAbortUpgrade, false},
		{ActionConfigure, ActionFailedUpgrade, false},
	}
	for _, c := range cases {
		act, args := InverseAction(c.in, []string{"1.0"})
		if act != c.wantAct {
			t.Errorf("InverseAction(%q): got %q, want %q", c.in, act, c.wantAct)
		}
		if c.wantNil && args != nil {
			t.Errorf("InverseAction(%q): want nil args, got %v", c.in, args)
		}
		if !c.wantNil && args == nil {
			t.Errorf("InverseAction(%q): want preserved args, got nil", c.in)
		}
	}
}
