package store

import (
	"os"
	"testing"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	root := t.TempDir()
	db, err := Init(root, "", "linux-amd64")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return db
}

func TestStoreLoadInstalledNotPresent(t *testing.T) {
	db := newTestDB(t)
	s := New(db, nil)

	it, err := s.Load("t1", false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if it.Kind != KindNotInstalled {
		t.Errorf("Kind = %v, want not-installed", it.Kind)
	}
	if it.OriginalStatus != StatusNotInstalled {
		t.Errorf("OriginalStatus = %v, want not-installed", it.OriginalStatus)
	}
}

func TestStoreLoadInstalledCachesUntilForceReload(t *testing.T) {
	db := newTestDB(t)
	s := New(db, nil)

	if err := db.WriteControl("t1", map[string]string{"package": "t1", "version": "1.0"}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetStatus("t1", StatusInstalled); err != nil {
		t.Fatal(err)
	}

	it1, err := s.Load("t1", false)
	if err != nil {
		t.Fatal(err)
	}
	if it1.Kind != KindInstalled {
		t.Fatalf("Kind = %v, want installed", it1.Kind)
	}

	// Mutate the on-disk status directly; without force-reload the cached
	// item must not change.
	if err := db.SetStatus("t1", StatusHalfConfigured); err != nil {
		t.Fatal(err)
	}
	it2, err := s.Load("t1", false)
	if err != nil {
		t.Fatal(err)
	}
	if it2 != it1 {
		t.Fatal("Load without forceReload should return the cached item")
	}

	it3, err := s.Load("t1", true)
	if err != nil {
		t.Fatal(err)
	}
	if it3.OriginalStatus != StatusHalfConfigured {
		t.Errorf("OriginalStatus after force-reload = %v, want half-configured", it3.OriginalStatus)
	}
}

func TestArchiveNamePatternDistinguishesFromInstalledName(t *testing.T) {
	if !archiveNamePattern.MatchString("t1_1.0-1_any.deb") {
		t.Error("expected archive filename to match")
	}
	if archiveNamePattern.MatchString("t1") {
		t.Error("bare package name must not match the archive pattern")
	}
}

func TestListInstalledPackagesCache(t *testing.T) {
	db := newTestDB(t)
	s := New(db, nil)

	if err := db.WriteControl("t1", map[string]string{"package": "t1"}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetStatus("t1", StatusInstalled); err != nil {
		t.Fatal(err)
	}

	names, err := s.ListInstalledPackages()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "t1" {
		t.Fatalf("ListInstalledPackages = %v, want [t1]", names)
	}

	if err := os.MkdirAll(db.PackageDir("t2"), 0755); err != nil {
		t.Fatal(err)
	}
	names, err = s.ListInstalledPackages()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 {
		t.Fatalf("cached ListInstalledPackages should not see t2 yet, got %v", names)
	}

	s.InvalidateInstalledCache()
	names, err = s.ListInstalledPackages()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Fatalf("after invalidation, want 2 names, got %v", names)
	}
}
