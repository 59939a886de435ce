package store

import (
	"io"
	"time"
)

// EntryType mirrors the handful of tar entry types the disk planner and
// executor care about; the archive codec itself is out of scope (§1).
type EntryType int

const (
	EntryRegular EntryType = iota
	EntryDirectory
	EntrySymlink
	EntryOther
)

// ArchiveEntry is the per-entry metadata the core requires from the
// (externally supplied) archive codec: path, type, size, mode, ownership
// and mtime, per §6 "Package archive format".
type ArchiveEntry struct {
	Path    string
	Type    EntryType
	Size    int64
	Mode    uint32
	UID     int
	GID     int
	ModTime time.Time
}

// DataArchive is the narrow interface this core consumes from the archive
// codec collaborator: sequential iteration of a data.tar stream, and
// whole-file byte extraction by path. Implementations live outside this
// module (the ar + tar + gzip/bzip2 decoder is explicitly out of scope).
type DataArchive interface {
	// Next advances to the next entry, returning io.EOF when exhausted.
	Next() (ArchiveEntry, error)
	// ReadFile extracts the full contents of the entry most recently
	// returned by Next.
	ReadFile() (io.ReadCloser, error)
}

// ArchiveOpener opens the control and data archives for a package file,
// another narrow interface boundary (§1 "Out of scope: the low-level
// archive codec").
type ArchiveOpener interface {
	OpenControl(filename string) (DataArchive, error)
	OpenData(filename string) (DataArchive, error)
}

// MemoryFile is an in-memory snapshot of a package's file index
// (index.wpkgar), returned by Store.GetWpkgarFile.
type MemoryFile struct {
	Name    string
	Entries []ArchiveEntry
}

// Find returns the entry shipped at path, if any.
func (m *MemoryFile) Find(path string) (ArchiveEntry, bool) {
	for _, e := range m.Entries {
		if e.Path == path {
			return e, true
		}
	}
	return ArchiveEntry{}, false
}
