// Package journal implements §4.6: an append-only rollback log persisted
// to disk at each state transition of a mutating operation, replayed in
// reverse on abort when force-rollback is set.
package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	shutil "github.com/termie/go-shutil"
)

// EntryKind is one of the five record kinds named in §3 "Rollback journal"
// and §4.6.
type EntryKind string

const (
	BackupFile      EntryKind = "backup-file"
	InstallFile     EntryKind = "install-file"
	CreateDirectory EntryKind = "create-directory"
	SaveStatus      EntryKind = "save-status"
	RunScript       EntryKind = "run-script"
)

// Entry is one journal record. Only the fields relevant to its Kind are
// populated; ShadowPath is the backup copy's location inside the journal
// directory for BackupFile entries.
type Entry struct {
	Kind       EntryKind
	Path       string
	ShadowPath string
	Package    string
	OldStatus  string
	NewStatus  string
	Stage      string
}

// Journal is a directory inside the admindir created at the start of a
// mutating command (§4.6). Entries are appended to an on-disk log file as
// they happen, so a crash mid-operation leaves a replayable record.
type Journal struct {
	Dir     string
	logPath string
	entries []Entry
}

// Begin creates the journal directory (and its shadow-file subdirectory)
// under adminDir, ready to receive entries.
func Begin(adminDir string) (*Journal, error) {
	dir := filepath.Join(adminDir, "core", "journal")
	if err := os.MkdirAll(filepath.Join(dir, "shadow"), 0755); err != nil {
		return nil, err
	}
	j := &Journal{Dir: dir, logPath: filepath.Join(dir, "journal.log")}
	return j, nil
}

// Reopen loads an existing, uncommitted journal directory left behind by a
// crashed process, for a manual recovery/rollback pass.
func Reopen(adminDir string) (*Journal, error) {
	dir := filepath.Join(adminDir, "core", "journal")
	j := &Journal{Dir: dir, logPath: filepath.Join(dir, "journal.log")}
	data, err := os.ReadFile(j.logPath)
	if os.IsNotExist(err) {
		return j, nil
	}
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			break
		}
		j.entries = append(j.entries, e)
	}
	return j, nil
}

func (j *Journal) append(e Entry) error {
	j.entries = append(j.entries, e)
	f, err := os.OpenFile(j.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(e)
}

// RecordBackupFile copies path's current contents into the journal's
// shadow area before the caller overwrites it, using go-shutil the same
// way the executor's self-upgrade relocation does.
func (j *Journal) RecordBackupFile(path string) error {
	shadow := filepath.Join(j.Dir, "shadow", shadowName(path))
	if _, err := os.Stat(path); err == nil {
		if err := os.MkdirAll(filepath.Dir(shadow), 0755); err != nil {
			return err
		}
		if err := shutil.CopyFile(path, shadow, false); err != nil {
			return err
		}
	}
	return j.append(Entry{Kind: BackupFile, Path: path, ShadowPath: shadow})
}

// RecordInstallFile logs that path was newly created with no prior backup.
func (j *Journal) RecordInstallFile(path string) error {
	return j.append(Entry{Kind: InstallFile, Path: path})
}

// RecordCreateDirectory logs that path was created as a directory.
func (j *Journal) RecordCreateDirectory(path string) error {
	return j.append(Entry{Kind: CreateDirectory, Path: path})
}

// RecordSaveStatus logs a database status write, before it happens.
func (j *Journal) RecordSaveStatus(pkg, oldStatus, newStatus string) error {
	return j.append(Entry{Kind: SaveStatus, Package: pkg, OldStatus: oldStatus, NewStatus: newStatus})
}

// RecordRunScript logs that a maintainer script is about to fire, best
// effort: the replay's inverse action is the opposite-stage script, looked
// up by the caller via lifecycle.InverseAction.
func (j *Journal) RecordRunScript(pkg, stage string) error {
	return j.append(Entry{Kind: RunScript, Package: pkg, Stage: stage})
}

// Commit atomically removes the journal directory, marking the operation
// as having completed successfully (§4.6: "committed (atomically renamed
// away) on success").
func (j *Journal) Commit() error {
	tmp := j.Dir + ".committed"
	if err := os.Rename(j.Dir, tmp); err != nil {
		return err
	}
	return os.RemoveAll(tmp)
}

// Entries returns the recorded entries in append order, for Replay or for
// a caller that wants to report what would be undone.
func (j *Journal) Entries() []Entry {
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

func shadowName(path string) string {
	return fmt.Sprintf("%x", pathHash(path))
}

func pathHash(path string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(path); i++ {
		h ^= uint64(path[i])
		h *= 1099511628211
	}
	return h
}

