package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver"
	"github.com/boltdb/bolt"
	"github.com/jmank88/nuts"
	"github.com/pkg/errors"

	"github.com/wpkg-go/wpkgar/control"
)

// Database layout constants, per §6 "On-disk database layout".
const (
	DefaultAdminDir = "var/lib/wpkg"
	controlFileName = "control"
	statusFileName  = "wpkg-status"
	indexFileName   = "index.wpkgar"
	conffilesName   = "conffiles"
	coreRecordName  = "core"
	hooksDirName    = "hooks"
)

// SupportedIndexFormat is the range of index.wpkgar schema versions this
// core understands; compared against the core record's Wpkgar-Format field
// using semver range syntax, since that field is a small monotonic schema
// version and not a Debian package version (see SPEC_FULL DOMAIN STACK).
const SupportedIndexFormat = ">= 1.0.0, < 2.0.0"

// Database is a handle onto <root>/<admindir>.
type Database struct {
	Root     string
	AdminDir string
}

// Open validates that root/admindir looks like a wpkg database (a core/
// record must exist) and returns a handle onto it.
func Open(root, adminDir string) (*Database, error) {
	if adminDir == "" {
		adminDir = DefaultAdminDir
	}
	db := &Database{Root: root, AdminDir: adminDir}
	if _, err := os.Stat(db.corePath()); err != nil {
		return nil, errors.Wrapf(err, "wpkg: admindir %s has no core record", db.path())
	}
	return db, nil
}

// Init creates an empty database with just the core/ record, used by
// first-run bootstrapping and by tests.
func Init(root, adminDir, targetArch string) (*Database, error) {
	if adminDir == "" {
		adminDir = DefaultAdminDir
	}
	db := &Database{Root: root, AdminDir: adminDir}
	if err := os.MkdirAll(filepath.Join(db.corePath(), hooksDirName), 0755); err != nil {
		return nil, err
	}
	fields := control.Fields{}
	fields.Set("Architecture", targetArch)
	fields.Set("Wpkgar-Format", "1.0.0")
	f, err := os.Create(filepath.Join(db.corePath(), controlFileName))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := control.WriteStanza(f, fields); err != nil {
		return nil, err
	}
	if err := db.SetStatus(coreRecordName, StatusReady); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *Database) path() string { return filepath.Join(db.Root, db.AdminDir) }

func (db *Database) corePath() string { return filepath.Join(db.path(), coreRecordName) }

// PackageDir returns <admindir>/<name>/.
func (db *Database) PackageDir(name string) string { return filepath.Join(db.path(), name) }

// HooksDir returns <admindir>/core/hooks/.
func (db *Database) HooksDir() string { return filepath.Join(db.corePath(), hooksDirName) }

// LockPath returns <admindir>/core/wpkg.lck.
func (db *Database) LockPath() string { return filepath.Join(db.corePath(), "wpkg.lck") }

// SourcesListPath returns <admindir>/core/sources.list.
func (db *Database) SourcesListPath() string { return filepath.Join(db.corePath(), "sources.list") }

// CoreFields loads the target-wide control record.
func (db *Database) CoreFields() (control.Fields, error) {
	return db.ReadControl(coreRecordName)
}

// CheckIndexFormat verifies the on-disk schema version is within the range
// this binary understands, using a semver constraint since the schema
// version field is itself semver-shaped (unlike package versions).
func (db *Database) CheckIndexFormat() error {
	fields, err := db.CoreFields()
	if err != nil {
		return err
	}
	raw, ok := fields.Get("Wpkgar-Format")
	if !ok {
		return nil // older/bootstrapping databases omit this field
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return errors.Wrapf(err, "wpkg: invalid Wpkgar-Format %q", raw)
	}
	c, err := semver.NewConstraint(SupportedIndexFormat)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("wpkg: database format %s is not supported by this core (%s)", raw, SupportedIndexFormat)
	}
	return nil
}

// ReadControl reads a package's (or core's) control stanza.
func (db *Database) ReadControl(name string) (control.Fields, error) {
	f, err := os.Open(filepath.Join(db.PackageDir(name), controlFileName))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return control.ParseStanza(f)
}

// WriteControl writes a package's control stanza, creating its directory.
func (db *Database) WriteControl(name string, fields control.Fields) error {
	dir := db.PackageDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, controlFileName))
	if err != nil {
		return err
	}
	defer f.Close()
	return control.WriteStanza(f, fields)
}

// Status reads a package's X-Status field, returning StatusNotInstalled if
// the package has no database record at all.
func (db *Database) Status(name string) (Status, error) {
	data, err := os.ReadFile(filepath.Join(db.PackageDir(name), statusFileName))
	if os.IsNotExist(err) {
		return StatusNotInstalled, nil
	}
	if err != nil {
		return StatusUnknown, err
	}
	fields, err := control.ParseStanza(bytes.NewReader(data))
	if err != nil {
		return StatusUnknown, err
	}
	v, _ := fields.Get("X-Status")
	return ParseStatus(v), nil
}

// SetStatus persists a new X-Status, along with whatever other status-ish
// fields the caller wants alongside it (Selection, install-type, ...). The
// lifecycle executor is responsible for journaling the old value first.
func (db *Database) SetStatus(name string, status Status) error {
	dir := db.PackageDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	fields, _ := db.readStatusFields(name)
	if fields == nil {
		fields = control.Fields{}
	}
	fields.Set("X-Status", status.String())
	f, err := os.Create(filepath.Join(dir, statusFileName))
	if err != nil {
		return err
	}
	defer f.Close()
	return control.WriteStanza(f, fields)
}

// SetStatusRaw writes a textual X-Status value verbatim, for journal.Replay
// restoring a status string it recorded before a transition (journal's
// StatusWriter boundary; it has no reason to know about store.Status).
func (db *Database) SetStatusRaw(name, status string) error {
	return db.SetStatus(name, ParseStatus(status))
}

// SetStatusField sets an arbitrary field of the status record (X-Selection,
// install-type, ...) alongside the current X-Status.
func (db *Database) SetStatusField(name, field, value string) error {
	dir := db.PackageDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	fields, _ := db.readStatusFields(name)
	if fields == nil {
		fields = control.Fields{}
	}
	fields.Set(field, value)
	f, err := os.Create(filepath.Join(dir, statusFileName))
	if err != nil {
		return err
	}
	defer f.Close()
	return control.WriteStanza(f, fields)
}

// StatusFields returns the full status record.
func (db *Database) StatusFields(name string) (control.Fields, error) {
	return db.readStatusFields(name)
}

func (db *Database) readStatusFields(name string) (control.Fields, error) {
	f, err := os.Open(filepath.Join(db.PackageDir(name), statusFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return control.Fields{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return control.ParseStanza(f)
}

// ListInstalled returns a sorted snapshot of every package name that has a
// database record (regardless of status), per §4.1 list_installed_packages.
func (db *Database) ListInstalled() ([]string, error) {
	entries, err := os.ReadDir(db.path())
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == coreRecordName {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// --- index.wpkgar: bolt-backed file index (path -> checksum/mode/size) ---

// IndexStore manages the embedded file index for every installed package,
// one bolt bucket per package name, keyed by the raw path bytes (see
// indexKey) so scans within a package stay ordered (grounded on golang-dep's
// internal/gps/source_cache_bolt.go, which uses the same db/bucket shape
// for a different cache).
type IndexStore struct {
	db *bolt.DB
}

// OpenIndexStore opens (creating if absent) the bolt file backing the
// index.wpkgar records for every package in the database.
func (db *Database) OpenIndexStore() (*IndexStore, error) {
	path := filepath.Join(db.corePath(), indexFileName+".db")
	bdb, err := bolt.Open(path, 0644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "wpkg: opening file index")
	}
	return &IndexStore{db: bdb}, nil
}

// Close releases the underlying bolt file.
func (ix *IndexStore) Close() error { return ix.db.Close() }

// PutEntries replaces the recorded file list for a package.
func (ix *IndexStore) PutEntries(pkg string, entries []ArchiveEntry) error {
	return ix.db.Update(func(tx *bolt.Tx) error {
		_ = tx.DeleteBucket([]byte(pkg))
		b, err := tx.CreateBucket([]byte(pkg))
		if err != nil {
			return err
		}
		for _, e := range entries {
			key := indexKey(e.Path)
			val := encodeEntry(e)
			if err := b.Put(key, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// Entries returns the recorded file list for a package.
func (ix *IndexStore) Entries(pkg string) ([]ArchiveEntry, error) {
	var out []ArchiveEntry
	err := ix.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(pkg))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			e, path, err := decodeEntry(v)
			if err != nil {
				return err
			}
			e.Path = path
			out = append(out, e)
			return nil
		})
	})
	return out, err
}

// indexKey builds a lexically sortable key from a path. nuts.Key is used
// for the (rare) case a caller needs a fixed-width numeric prefix; plain
// paths already sort the way directory listings expect, so the path bytes
// are used directly here.
func indexKey(path string) []byte {
	return []byte(path)
}

// encodeEntry packs size, mtime, mode and type into a fixed-width
// big-endian nuts.Key prefix, followed by uid, gid and the path.
func encodeEntry(e ArchiveEntry) []byte {
	key := make(nuts.Key, 8+8+4+4)
	key[0:8].Put(uint64(e.Size))
	key[8:16].Put(uint64(e.ModTime.Unix()))
	binary.BigEndian.PutUint32(key[16:20], e.Mode)
	binary.BigEndian.PutUint32(key[20:24], uint32(e.Type))
	rest := make([]byte, 4+4+len(e.Path))
	binary.BigEndian.PutUint32(rest[0:4], uint32(e.UID))
	binary.BigEndian.PutUint32(rest[4:8], uint32(e.GID))
	copy(rest[8:], e.Path)
	return append([]byte(key), rest...)
}

func decodeEntry(v []byte) (ArchiveEntry, string, error) {
	if len(v) < 32 {
		return ArchiveEntry{}, "", fmt.Errorf("wpkg: corrupt index record (%d bytes)", len(v))
	}
	var e ArchiveEntry
	e.Size = int64(binary.BigEndian.Uint64(v[0:8]))
	e.ModTime = time.Unix(int64(binary.BigEndian.Uint64(v[8:16])), 0)
	e.Mode = binary.BigEndian.Uint32(v[16:20])
	e.Type = EntryType(binary.BigEndian.Uint32(v[20:24]))
	e.UID = int(binary.BigEndian.Uint32(v[24:28]))
	e.GID = int(binary.BigEndian.Uint32(v[28:32]))
	path := string(v[32:])
	return e, path, nil
}
