package lifecycle

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// ErrHookFailed wraps a non-abort-causing hook failure so the caller can
// decide whether to log it (post-stage) or abort (validate stage).
type ErrHookFailed struct {
	Hook string
	Err  error
}

func (e *ErrHookFailed) Error() string { return fmt.Sprintf("wpkg: hook %s failed: %v", e.Hook, e.Err) }

// RunHooks runs every hook in hooksDir matching "*_<stage>[.bat]" (§4.5
// "Hooks"), in lexical filename order for determinism. A failure on
// StageValidate is returned to the caller to abort the operation; failures
// on any other stage are logged and swallowed.
func RunHooks(sess *wpkgsession.Session, hooksDir string, stage Stage) error {
	entries, err := os.ReadDir(hooksDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var names []string
	suffix := "_" + string(stage)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".bat")
		if strings.HasSuffix(base, suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(hooksDir, name)
		cmd := exec.CommandContext(sess.Context(), path)
		cmd.Dir = sess.Root
		cmd.Stdout = sess.Log
		cmd.Stderr = sess.Log
		if err := cmd.Run(); err != nil {
			hookErr := &ErrHookFailed{Hook: name, Err: err}
			if stage == StageValidate {
				return hookErr
			}
			sess.Log.Logln(hookErr.Error())
		}
	}
	return nil
}
