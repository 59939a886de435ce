package autoremove

import (
	"testing"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
)

func item(name string, depends ...string) *store.Item {
	fields := control.Fields{"Package": name}
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
	it := store.NewItem(name+".deb", store.KindInstalled)
	if err := it.ApplyFields(fields); err != nil {
		panic(err)
	}
	return it
}

func TestCandidatesLeavesExplicitAlone(t *testing.T) {
	a := item("a")
	cands := Candidates([]Candidate{{Item: a, Type: InstallExplicit}})
	if len(cands) != 0 {
		t.Fatalf("explicit package should never be a candidate, got %v", cands)
	}
}

func TestCandidatesRemovesUnreferencedImplicit(t *testing.T) {
	libfoo := item("libfoo")
	cands := Candidates([]Candidate{{Item: libfoo, Type: InstallImplicit}})
	if len(cands) != 1 || cands[0].Name != "libfoo" {
		t.Fatalf("want [libfoo], got %v", cands)
	}
}

func TestCandidatesKeepsImplicitStillDependedOn(t *testing.T) {
	libfoo := item("libfoo")
	app := item("app", "libfoo")
	cands := Candidates([]Candidate{
		{Item: libfoo, Type: InstallImplicit},
		{Item: app, Type: InstallExplicit},
	})
	if len(cands) != 0 {
		t.Fatalf("libfoo is still depended on by app, want no candidates, got %v", cands)
	}
}

func TestCandidatesFixpointChainsThroughRemovedCandidates(t *testing.T) {
	// a (implicit) depends on b (implicit); nothing else depends on either.
	// Removing a in round 1 must expose b as a candidate in round 2.
	b := item("b")
	a := item("a", "b")
	cands := Candidates([]Candidate{
		{Item: a, Type: InstallImplicit},
		{Item: b, Type: InstallImplicit},
	})
	if len(cands) != 2 {
		t.Fatalf("want both a and b removed, got %v", cands)
	}
	if cands[0].Name != "a" || cands[1].Name != "b" {
		t.Fatalf("want sorted [a b], got %v", []string{cands[0].Name, cands[1].Name})
	}
}

func TestCandidatesEmptyInput(t *testing.T) {
	if got := Candidates(nil); len(got) != 0 {
		t.Fatalf("want no candidates for empty input, got %v", got)
	}
}
