package lifecycle

import (
	"testing"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
)

func depItem(t *testing.T, name string, depends ...string) *store.Item {
	t.Helper()
	fields := control.Fields{"Package": name, "Version": "1.0"}
	if len(depends) > 0 {
		joined := ""
		for i, d := range depends {
			if i > 0 {
				joined += ", "
			}
			joined += d
		}
		fields.Set("Depends", joined)
	}
	it := store.NewItem(name+".deb", store.KindExplicit)
	if err := it.ApplyFields(fields); err != nil {
		t.Fatalf("ApplyFields: %v", err)
	}
	return it
}

func indexOf(items store.Items, name string) int {
	for i, it := range items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

func TestTopologicalOrderDependencyPrecedesDependent(t *testing.T) {
	base := depItem(t, "base")
	app := depItem(t, "app", "base")
	ordered, err := TopologicalOrder(store.Items{app, base})
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	if indexOf(ordered, "base") >= indexOf(ordered, "app") {
		t.Fatalf("base must come before app, got %v", names(ordered))
	}
}

func TestTopologicalOrderTiesBrokenByName(t *testing.T) {
	b := depItem(t, "b")
	a := depItem(t, "a")
	ordered, err := TopologicalOrder(store.Items{b, a})
	if err != nil {
		t.Fatalf("TopologicalOrder: %v", err)
	}
	if names(ordered)[0] != "a" || names(ordered)[1] != "b" {
		t.Fatalf("want [a b] for unrelated packages, got %v", names(ordered))
	}
}

func TestTopologicalOrderDetectsCycle(t *testing.T) {
	a := depItem(t, "a", "b")
	b := depItem(t, "b", "a")
	if _, err := TopologicalOrder(store.Items{a, b}); err == nil {
		t.Fatal("expected a cycle error, got nil")
	}
}

func names(items store.Items) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestStatusAfterStages(t *testing.T) {
	cases := []struct {
		step Step
		want store.Status
	}{
		{Step{Stage: StagePreinst}, store.StatusHalfInstalled},
		{Step{Stage: StageUnpack}, store.StatusUnpacked},
		{Step{Stage: StagePostinst, Action: ActionConfigure}, store.StatusInstalled},
		{Step{Stage: StagePostinst, Action: ActionInstall}, store.StatusUnpacked},
		{Step{Stage: StagePrerm}, store.StatusHalfInstalled},
		{Step{Stage: StagePostrm, Action: ActionPurge}, store.StatusNotInstalled},
		{Step{Stage: StagePostrm, Action: ActionRemove}, store.StatusConfigFiles},
	}
	for _, c := range cases {
		if got := statusAfter(c.step); got != c.want {
			t.Errorf("statusAfter(%+v) = %v, want %v", c.step, got, c.want)
		}
	}
}
