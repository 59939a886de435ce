package lifecycle

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// ErrScriptFailed wraps a maintainer script's non-zero exit (§7 Script-failed).
type ErrScriptFailed struct {
	Package string
	Stage   Stage
	Err     error
}

func (e *ErrScriptFailed) Error() string {
	return fmt.Sprintf("wpkg: %s: %s script failed: %v", e.Package, e.Stage, e.Err)
}

func (e *ErrScriptFailed) Unwrap() error { return e.Err }

// ErrNoScriptFlavor is raised when a package ships a script for a stage
// only in the flavor (POSIX shell or batch) that does not match the target
// OS.
type ErrNoScriptFlavor struct {
	Package, Stage, TargetOS string
}

func (e *ErrNoScriptFlavor) Error() string {
	return fmt.Sprintf("wpkg: %s has no %s script flavor matching target OS %s", e.Package, e.Stage, e.TargetOS)
}

// ScriptRunner invokes one package's maintainer script for one stage, if
// present. pkgDir is the package's extracted script directory (inside the
// database record); targetArch picks the POSIX-vs-batch flavor.
type ScriptRunner struct {
	Sess       *wpkgsession.Session
	DB         *store.Database
	TargetArch control.Architecture
}

// RunInverse implements journal.ScriptInverter: a best-effort reversal of
// whatever ran at stage, per §4.6 ("preinst install is reversed by
// invoking postrm abort-install"). Without the original action recorded,
// the inverse is inferred conservatively from the stage alone.
func (r *ScriptRunner) RunInverse(pkg, stage string) error {
	var inverseStage Stage
	var action Action
	switch Stage(stage) {
	case StagePreinst:
		inverseStage, action = StagePostrm, ActionAbortInstall
	case StagePostinst:
		inverseStage, action = StagePostrm, ActionFailedUpgrade
	case StagePrerm:
		inverseStage, action = StagePostinst, ActionAbortInstall
	default:
		return nil
	}
	pkgDir := r.DB.PackageDir(pkg)
	return r.Run(pkg, pkgDir, inverseStage, action, nil, r.TargetArch)
}

// scriptPath resolves the on-disk path for stage given the target's OS:
// the batch (".bat") variant on a windows target and the extensionless
// POSIX variant otherwise; "all" packages ship both and the target's own OS
// still decides which one actually runs (§4.5 "Script selection by OS
// flavor"). When only the other flavor exists it returns ErrNoScriptFlavor;
// when neither exists, os.ErrNotExist.
func (r *ScriptRunner) scriptPath(pkgDir string, stage Stage, targetOS string) (string, error) {
	posix := filepath.Join(pkgDir, string(stage))
	bat := filepath.Join(pkgDir, string(stage)+".bat")

	wantBat := targetOS == "windows"
	primary, secondary := posix, bat
	if wantBat {
		primary, secondary = bat, posix
	}
	if _, err := os.Stat(primary); err == nil {
		return primary, nil
	}
	if _, err := os.Stat(secondary); err == nil {
		return "", &ErrNoScriptFlavor{Package: filepath.Base(pkgDir), Stage: string(stage), TargetOS: targetOS}
	}
	return "", os.ErrNotExist
}

// Run invokes pkgName's stage script with action/args as positional
// arguments, the environment variables §4.5 specifies, and the root path
// as working directory. A missing script is not an error - most packages
// don't ship every stage - but a script that exists and fails is.
func (r *ScriptRunner) Run(pkgName, pkgDir string, stage Stage, action Action, args []string, targetArch control.Architecture) error {
	path, err := r.scriptPath(pkgDir, stage, targetArch.OS)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	cmdArgs := append([]string{string(action)}, args...)
	cmd := exec.CommandContext(r.Sess.Context(), path, cmdArgs...)
	cmd.Dir = r.Sess.Root
	cmd.Env = append(os.Environ(),
		"WPKG_ROOT_PATH="+r.Sess.Root,
		"WPKG_DATABASE_PATH="+r.Sess.AdminDir,
		"WPKG_PACKAGE_NAME="+pkgName,
	)
	cmd.Stdout = r.Sess.Log
	cmd.Stderr = r.Sess.Log

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(&ErrScriptFailed{Package: pkgName, Stage: stage, Err: err}, "wpkg: running %s", path)
	}
	return nil
}
