package diskplan

import (
	"testing"

	"github.com/wpkg-go/wpkgar/store"
)

func TestWalkPackageAttributesToLongestPrefixMount(t *testing.T) {
	root := &Disk{MountPath: "/", BlockSize: 1024, FreeSpace: 1 << 30}
	usr := &Disk{MountPath: "/usr", BlockSize: 1024, FreeSpace: 1 << 30}
	disks := []*Disk{root, usr}

	entries := []store.ArchiveEntry{
		{Path: "/usr/bin/foo", Type: store.EntryRegular, Size: 2048},
		{Path: "/etc/foo.conf", Type: store.EntryRegular, Size: 100},
	}

	out := WalkPackage(disks, entries, 1)
	if len(out) != 2 {
		t.Fatalf("want 2 plan entries, got %d", len(out))
	}
	if out[0].Disk.MountPath != "/usr" {
		t.Errorf("/usr/bin/foo should attribute to /usr, got %q", out[0].Disk.MountPath)
	}
	if out[1].Disk.MountPath != "/" {
		t.Errorf("/etc/foo.conf should attribute to /, got %q", out[1].Disk.MountPath)
	}
	if usr.AccumulatedBlocks != 2 {
		t.Errorf("2048 bytes / 1024 block size should accumulate 2 blocks, got %d", usr.AccumulatedBlocks)
	}
	if root.AccumulatedBlocks != 1 {
		t.Errorf("100 bytes should round up to 1 block, got %d", root.AccumulatedBlocks)
	}
}

func TestWalkPackageSkipsDatabaseInternalEntries(t *testing.T) {
	root := &Disk{MountPath: "/", BlockSize: 1024, FreeSpace: 1 << 30}
	entries := []store.ArchiveEntry{
		{Path: "control", Type: store.EntryRegular, Size: 10},
	}
	out := WalkPackage([]*Disk{root}, entries, 1)
	if len(out) != 0 {
		t.Fatalf("non-absolute entries must be skipped, got %v", out)
	}
}

func TestWalkPackageNegativeFactorFreesBlocks(t *testing.T) {
	root := &Disk{MountPath: "/", BlockSize: 1024, FreeSpace: 1 << 30}
	entries := []store.ArchiveEntry{
		{Path: "/bin/old", Type: store.EntryRegular, Size: 1024},
	}
	WalkPackage([]*Disk{root}, entries, -1)
	if root.AccumulatedBlocks != -1 {
		t.Errorf("removal side should decrement accumulated blocks, got %d", root.AccumulatedBlocks)
	}
}

func TestWalkPackageDirectoryRemovalNeverFreesBlocks(t *testing.T) {
	root := &Disk{MountPath: "/", BlockSize: 1024, FreeSpace: 1 << 30}
	entries := []store.ArchiveEntry{
		{Path: "/usr/share/doc", Type: store.EntryDirectory, Size: 4096},
	}
	WalkPackage([]*Disk{root}, entries, -1)
	if root.AccumulatedBlocks != 0 {
		t.Errorf("directory removal should never free blocks, got %d", root.AccumulatedBlocks)
	}
}

func TestVerifySpaceReadOnlyMountFailsOnPositiveAccumulation(t *testing.T) {
	d := &Disk{MountPath: "/mnt/ro", BlockSize: 1024, FreeSpace: 1 << 30, ReadOnly: true, AccumulatedBlocks: 1}
	err := VerifySpace([]*Disk{d})
	if _, ok := err.(*ErrReadOnlyMount); !ok {
		t.Fatalf("want ErrReadOnlyMount, got %v", err)
	}
}

func TestVerifySpaceInsufficientSpace(t *testing.T) {
	d := &Disk{MountPath: "/", BlockSize: 1024, FreeSpace: 1000, AccumulatedBlocks: 1}
	err := VerifySpace([]*Disk{d})
	if _, ok := err.(*ErrInsufficientSpace); !ok {
		t.Fatalf("want ErrInsufficientSpace when net usage crosses the 9/10 margin, got %v", err)
	}
}

func TestVerifySpaceOkWhenWithinMargin(t *testing.T) {
	d := &Disk{MountPath: "/", BlockSize: 1, FreeSpace: 1 << 30, AccumulatedBlocks: 100}
	if err := VerifySpace([]*Disk{d}); err != nil {
		t.Fatalf("expected no error for well within-budget usage, got %v", err)
	}
}

func TestVerifySpaceIgnoresNonPositiveNet(t *testing.T) {
	d := &Disk{MountPath: "/", BlockSize: 1024, FreeSpace: 0, ReadOnly: true, AccumulatedBlocks: -5}
	if err := VerifySpace([]*Disk{d}); err != nil {
		t.Fatalf("net-negative accumulation should never trip read-only or space checks, got %v", err)
	}
}
