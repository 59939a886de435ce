package diskplan

import (
	"strings"

	"github.com/armon/go-radix"

	"github.com/wpkg-go/wpkgar/store"
)

// mountTrie wraps armon/go-radix the way golang-dep's typed_radix.go wraps
// it for deducerTrie: a thin typed façade so callers never type-assert.
// Mount-path attribution is exactly the longest-prefix-match use case the
// library exists for (GLOSSARY "Mount-longest-match").
type mountTrie struct {
	t     *radix.Tree
	disks map[string]*Disk
}

func newMountTrie(disks []*Disk) *mountTrie {
	mt := &mountTrie{t: radix.New(), disks: map[string]*Disk{}}
	for _, d := range disks {
		mt.t.Insert(d.MountPath, d.MountPath)
		mt.disks[d.MountPath] = d
	}
	return mt
}

func (mt *mountTrie) attribute(path string) *Disk {
	_, v, ok := mt.t.LongestPrefix(path)
	if !ok {
		return nil
	}
	return mt.disks[v.(string)]
}

// PlanEntry is one walked archive entry's disk attribution and accounting
// outcome, retained so the overwrite-policy pass can reuse the same walk
// rather than re-scanning the archive.
type PlanEntry struct {
	Path  string
	Entry store.ArchiveEntry
	Disk  *Disk
	Delta int64 // signed block delta applied to Disk.AccumulatedBlocks
}

// ErrReadOnlyMount signals §4.3 bullet 4: a net-positive accumulation
// landed on a read-only mount.
type ErrReadOnlyMount struct {
	MountPath string
}

func (e *ErrReadOnlyMount) Error() string {
	return "wpkg: installation would write to read-only mount " + e.MountPath
}

// ErrInsufficientSpace signals §4.3 bullet 5: the 9/10 safety margin was
// violated on some disk with positive net accumulation.
type ErrInsufficientSpace struct {
	MountPath              string
	NeededBytes, FreeBytes int64
}

func (e *ErrInsufficientSpace) Error() string {
	return "wpkg: insufficient space on " + e.MountPath
}

// WalkPackage implements §4.3 steps 1-3: walk a package's data archive,
// skip database-internal (non-absolute) entries, attribute each to the
// longest-matching mount, and accumulate ceil(size/block-size) blocks
// scaled by factor (+1 fresh install, -1 upgraded-out side).
func WalkPackage(disks []*Disk, entries []store.ArchiveEntry, factor int64) []PlanEntry {
	trie := newMountTrie(disks)
	out := make([]PlanEntry, 0, len(entries))

	for _, e := range entries {
		if !strings.HasPrefix(e.Path, "/") {
			continue // database-internal entry, §4.3 step 1
		}
		disk := trie.attribute(e.Path)
		if disk == nil {
			continue // no mount covers the path; treated as unattributable, not fatal here
		}

		var blocks int64
		switch {
		case e.Type == store.EntryDirectory && factor < 0:
			blocks = 0 // removal side of a directory never frees blocks
		case e.Type == store.EntryDirectory:
			blocks = blocksForSize(e.Size, disk.BlockSize)
		default:
			blocks = blocksForSize(e.Size, disk.BlockSize)
			if blocks < 1 && e.Type != store.EntryRegular {
				blocks = 1 // "other non-regular entries accumulate at least 1 block"
			}
		}

		delta := factor * blocks
		disk.AccumulatedBlocks += delta
		out = append(out, PlanEntry{Path: e.Path, Entry: e, Disk: disk, Delta: delta})
	}
	return out
}

// VerifySpace implements §4.3 steps 4-5 over the accumulated disk table.
func VerifySpace(disks []*Disk) error {
	for _, d := range disks {
		net := d.AccumulatedBlocks * d.BlockSize
		if net <= 0 {
			continue
		}
		if d.ReadOnly {
			return &ErrReadOnlyMount{MountPath: d.MountPath}
		}
		if float64(net) >= float64(d.FreeSpace)*0.9 {
			return &ErrInsufficientSpace{MountPath: d.MountPath, NeededBytes: net, FreeBytes: d.FreeSpace}
		}
	}
	return nil
}
