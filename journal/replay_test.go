package journal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/wpkg-go/wpkgar/wpkgsession"
)

type fakeStatusWriter struct {
	restored map[string]string
}

func (w *fakeStatusWriter) SetStatusRaw(pkg, status string) error {
	if w.restored == nil {
		w.restored = map[string]string{}
	}
	w.restored[pkg] = status
	return nil
}

type fakeScripts struct {
	invoked []string
	fail    bool
}

func (s *fakeScripts) RunInverse(pkg, stage string) error {
	s.invoked = append(s.invoked, pkg+"/"+stage)
	if s.fail {
		return fmt.Errorf("inverse script failed for %s", pkg)
	}
	return nil
}

func testSession() *wpkgsession.Session {
	return wpkgsession.New("/", "var/lib/wpkg", &bytes.Buffer{})
}

func TestReplayRestoresBackedUpFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "conf")
	os.WriteFile(target, []byte("original"), 0644)

	j, err := Begin(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.RecordBackupFile(target); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(target, []byte("overwritten"), 0644)

	failures := Replay(testSession(), j.Entries(), nil, nil)
	if len(failures) != 0 {
		t.Fatalf("unexpected replay failures: %v", failures)
	}
	got, _ := os.ReadFile(target)
	if string(got) != "original" {
		t.Errorf("target content = %q, want restored %q", got, "original")
	}
}

func TestReplayRemovesInstalledFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "newfile")
	os.WriteFile(target, []byte("x"), 0644)

	j, err := Begin(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.RecordInstallFile(target); err != nil {
		t.Fatal(err)
	}

	if failures := Replay(testSession(), j.Entries(), nil, nil); len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatal("installed file should have been removed by replay")
	}
}

func TestReplayRestoresStatusAndRunsInverseScriptsInReverseOrder(t *testing.T) {
	dir := t.TempDir()
	j, err := Begin(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.RecordSaveStatus("foo", "not-installed", "half-installed"); err != nil {
		t.Fatal(err)
	}
	if err := j.RecordRunScript("foo", "preinst"); err != nil {
		t.Fatal(err)
	}
	if err := j.RecordSaveStatus("foo", "half-installed", "unpacked"); err != nil {
		t.Fatal(err)
	}

	sw := &fakeStatusWriter{}
	scripts := &fakeScripts{}
	if failures := Replay(testSession(), j.Entries(), sw, scripts); len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}

	// Reverse walk: the last SaveStatus entry is undone first, so the final
	// recorded restoration for "foo" is the earliest entry's OldStatus.
	if sw.restored["foo"] != "not-installed" {
		t.Errorf("final restored status = %q, want %q", sw.restored["foo"], "not-installed")
	}
	if len(scripts.invoked) != 1 || scripts.invoked[0] != "foo/preinst" {
		t.Errorf("want one inverse script invocation foo/preinst, got %v", scripts.invoked)
	}
}

func TestReplayContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	j, err := Begin(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.RecordRunScript("a", "preinst"); err != nil {
		t.Fatal(err)
	}
	if err := j.RecordRunScript("b", "preinst"); err != nil {
		t.Fatal(err)
	}

	scripts := &fakeScripts{fail: true}
	failures := Replay(testSession(), j.Entries(), nil, scripts)
	if len(failures) != 2 {
		t.Fatalf("want both failing inverse scripts reported, got %d: %v", len(failures), failures)
	}
	if len(scripts.invoked) != 2 {
		t.Fatalf("replay must not stop at the first failure, got %v", scripts.invoked)
	}
}

func TestReplayOfBackupWithNoShadowIsNoop(t *testing.T) {
	dir := t.TempDir()
	j, err := Begin(dir)
	if err != nil {
		t.Fatal(err)
	}
	// A path that never existed when backed up: no shadow file created.
	if err := j.RecordBackupFile(filepath.Join(dir, "never-existed")); err != nil {
		t.Fatal(err)
	}
	if failures := Replay(testSession(), j.Entries(), nil, nil); len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
}
