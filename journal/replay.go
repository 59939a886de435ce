package journal

import (
	"os"

	shutil "github.com/termie/go-shutil"

	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// StatusWriter is the narrow database boundary Replay needs to restore a
// pre-transition status value.
type StatusWriter interface {
	SetStatusRaw(pkg, status string) error
}

// ScriptInverter runs a stage's best-effort inverse action for a package,
// e.g. lifecycle.ScriptRunner wired to InverseAction.
type ScriptInverter interface {
	RunInverse(pkg, stage string) error
}

// Replay walks entries in reverse, undoing each one (§4.6 "On abort with
// force-rollback enabled... the executor replays the journal in reverse").
// It is best-effort: a failure partway through is logged and replay
// continues, since stopping early would leave strictly more damage than
// finishing the walk (§7 "If the journal replay itself fails, the database
// is left with half-installed or half-configured records and the user is
// told which").
func Replay(sess *wpkgsession.Session, entries []Entry, statusWriter StatusWriter, scripts ScriptInverter) []error {
	var failures []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := replayOne(sess, e, statusWriter, scripts); err != nil {
			failures = append(failures, err)
			sess.Log.Logf("wpkg: rollback step failed (%s %s): %v\n", e.Kind, e.Path, err)
		}
	}
	return failures
}

func replayOne(sess *wpkgsession.Session, e Entry, statusWriter StatusWriter, scripts ScriptInverter) error {
	switch e.Kind {
	case InstallFile:
		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	case BackupFile:
		if _, err := os.Stat(e.ShadowPath); err != nil {
			return nil // nothing was ever backed up (file didn't previously exist)
		}
		return shutil.CopyFile(e.ShadowPath, e.Path, false)
	case CreateDirectory:
		return os.Remove(e.Path) // only succeeds if the directory is now empty, matching "recreate removed directories" in reverse
	case SaveStatus:
		if statusWriter == nil {
			return nil
		}
		return statusWriter.SetStatusRaw(e.Package, e.OldStatus)
	case RunScript:
		if scripts == nil {
			return nil
		}
		return scripts.RunInverse(e.Package, e.Stage)
	default:
		return nil
	}
}
