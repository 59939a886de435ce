package wpkgsession

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestFlagsDefaultForceRollback(t *testing.T) {
	f := NewFlags()
	if !f.Has(ForceRollback) {
		t.Error("NewFlags should default force-rollback on")
	}
	f.Set(ForceRollback, false)
	if f.Has(ForceRollback) {
		t.Error("Set(false) should clear the flag")
	}
}

func TestSessionCheckInterrupt(t *testing.T) {
	var buf bytes.Buffer
	s := New("/root", "", &buf)
	calls := 0
	s.Poll = func() bool {
		calls++
		return calls >= 2
	}
	if err := s.CheckInterrupt(); err != nil {
		t.Fatalf("first poll should not interrupt: %v", err)
	}
	if err := s.CheckInterrupt(); err != ErrUserInterrupt {
		t.Fatalf("second poll should interrupt, got %v", err)
	}
	// Once cancelled, further checks short-circuit via ctx.Done without
	// re-polling.
	if err := s.CheckInterrupt(); err != ErrUserInterrupt {
		t.Fatalf("post-cancel check should stay interrupted, got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing config should not error: %v", err)
	}
	if len(cfg.DefaultForce) != 0 {
		t.Errorf("expected zero-value config, got %+v", cfg)
	}
}

func TestConfigApplyToDoesNotOverrideExplicit(t *testing.T) {
	cfg := &Config{DefaultForce: []string{string(ForceConflicts)}}
	flags := NewFlags()
	cfg.ApplyTo(flags, map[Flag]bool{ForceConflicts: false})
	if flags.Has(ForceConflicts) {
		t.Error("explicit false for force-conflicts should not be overridden by config default")
	}

	flags2 := NewFlags()
	cfg.ApplyTo(flags2, map[Flag]bool{})
	if !flags2.Has(ForceConflicts) {
		t.Error("config default should apply when caller left the flag unset")
	}
}
