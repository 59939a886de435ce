package store

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/wpkg-go/wpkgar/control"
)

// archiveNamePattern matches "name_version[_arch].deb" basenames (§4.1 load).
var archiveNamePattern = regexp.MustCompile(`^([A-Za-z0-9.+-]+)_([A-Za-z0-9.:~+-]+)(?:_([A-Za-z0-9._-]+))?\.deb$`)

// ErrConflictingSource is returned by Load when the same basename has
// already been loaded from a different full path (§4.1 Guarantees).
type ErrConflictingSource struct {
	Basename  string
	Existing  string
	Requested string
}

func (e *ErrConflictingSource) Error() string {
	return fmt.Sprintf("wpkg: package archive %q already loaded from %q, cannot also load from %q",
		e.Basename, e.Existing, e.Requested)
}

// Store is the package store of §4.1: it produces fully parsed Items from
// either an archive path or an installed package name, caching by basename
// and by installed-name until invalidated.
type Store struct {
	mu sync.Mutex

	DB     *Database
	Opener ArchiveOpener

	byBasename map[string]*Item // archive loads, keyed by basename
	sourcePath map[string]string
	byName     map[string]*Item // installed-name loads

	installedCache []string
	installedValid bool
}

// New builds a Store bound to an admindir and an archive opener collaborator.
func New(db *Database, opener ArchiveOpener) *Store {
	return &Store{
		DB:         db,
		Opener:     opener,
		byBasename: map[string]*Item{},
		sourcePath: map[string]string{},
		byName:     map[string]*Item{},
	}
}

// Load accepts either a direct archive path (matching name_version[_arch].deb)
// or an already-installed package name, returning a fully-parsed Item.
func (s *Store) Load(filenameOrName string, forceReload bool) (*Item, error) {
	base := filepath.Base(filenameOrName)
	if archiveNamePattern.MatchString(base) {
		return s.loadArchive(filenameOrName, base, forceReload)
	}
	return s.loadInstalled(filenameOrName, forceReload)
}

func (s *Store) loadArchive(fullPath, base string, forceReload bool) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.sourcePath[base]; ok && prior != fullPath {
		return nil, &ErrConflictingSource{Basename: base, Existing: prior, Requested: fullPath}
	}

	if it, ok := s.byBasename[base]; ok && !forceReload {
		return it, nil
	}

	m := archiveNamePattern.FindStringSubmatch(base)
	it := NewItem(fullPath, KindAvailable)
	it.Source = SourceLocalFile

	fields, err := s.readControlFields(fullPath)
	if err != nil {
		return nil, errors.Wrapf(err, "wpkg: loading control data for %s", fullPath)
	}
	if err := it.ApplyFields(fields); err != nil {
		return nil, err
	}
	// The filename's own name/version act as a fallback and as a sanity
	// cross-check against the parsed control fields.
	if it.Name == "" {
		it.Name = m[1]
	}
	if it.Vers.IsZero() {
		if v, err := control.ParseVersion(m[2]); err == nil {
			it.Vers = v
		}
	}

	s.byBasename[base] = it
	s.sourcePath[base] = fullPath
	return it, nil
}

func (s *Store) loadInstalled(name string, forceReload bool) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it, ok := s.byName[name]; ok && !forceReload {
		return it, nil
	}

	status, err := s.DB.Status(name)
	if err != nil {
		return nil, err
	}
	it := NewItem(name, kindForStatus(status))
	it.Name = name
	it.OriginalStatus = status
	it.Source = SourceDatabase

	if status != StatusNotInstalled && status != StatusNoPackage {
		fields, err := s.DB.ReadControl(name)
		if err != nil {
			return nil, errors.Wrapf(err, "wpkg: reading control for installed package %s", name)
		}
		if err := it.ApplyFields(fields); err != nil {
			return nil, err
		}
	}

	s.byName[name] = it
	return it, nil
}

func kindForStatus(st Status) Kind {
	switch st {
	case StatusInstalled:
		return KindInstalled
	case StatusUnpacked, StatusHalfConfigured:
		return KindUnpacked
	case StatusConfigFiles:
		return KindNotInstalled
	case StatusNotInstalled, StatusNoPackage:
		return KindNotInstalled
	default:
		return KindInstalled
	}
}

func (s *Store) readControlFields(archivePath string) (control.Fields, error) {
	if s.Opener == nil {
		return nil, fmt.Errorf("wpkg: no archive opener configured")
	}
	ctrl, err := s.Opener.OpenControl(archivePath)
	if err != nil {
		return nil, err
	}
	for {
		entry, err := ctrl.Next()
		if err != nil {
			return nil, fmt.Errorf("wpkg: control.tar in %s has no control file", archivePath)
		}
		if strings.TrimPrefix(entry.Path, "./") == "control" {
			rc, err := ctrl.ReadFile()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			fields, err := control.ParseStanza(rc)
			if err != nil {
				return nil, err
			}
			return fields, nil
		}
	}
}

// GetWpkgarFile returns the package's file index, loading it from the data
// archive if it has not yet been materialized in this process.
func (s *Store) GetWpkgarFile(it *Item) (*MemoryFile, error) {
	if it.Kind == KindInstalled || it.Kind == KindUnpacked {
		ix, err := s.DB.OpenIndexStore()
		if err != nil {
			return nil, err
		}
		defer ix.Close()
		entries, err := ix.Entries(it.Name)
		if err != nil {
			return nil, err
		}
		return &MemoryFile{Name: it.Name, Entries: entries}, nil
	}

	if s.Opener == nil {
		return nil, fmt.Errorf("wpkg: no archive opener configured")
	}
	data, err := s.Opener.OpenData(it.Filename)
	if err != nil {
		return nil, err
	}
	mf := &MemoryFile{Name: it.Name}
	for {
		entry, err := data.Next()
		if err != nil {
			break
		}
		mf.Entries = append(mf.Entries, entry)
	}
	it.Loaded = FullyLoaded
	return mf, nil
}

// PackageStatus returns the status enum for an installed-or-not package name.
func (s *Store) PackageStatus(name string) (Status, error) {
	return s.DB.Status(name)
}

// ListInstalledPackages returns a sorted, cached snapshot of installed
// package names, invalidated on the next InvalidateInstalledCache call.
func (s *Store) ListInstalledPackages() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.installedValid {
		return s.installedCache, nil
	}
	names, err := s.DB.ListInstalled()
	if err != nil {
		return nil, err
	}
	s.installedCache = names
	s.installedValid = true
	return names, nil
}

// InvalidateInstalledCache drops the cached installed-package list, e.g.
// after the executor completes a mutating operation.
func (s *Store) InvalidateInstalledCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installedValid = false
}

