package wpkgsession

// Flag is one of the recognized force/quiet options of §6 "Flag bag".
// Each downgrades one specific safety check from error to warning (§7
// Propagation policy).
type Flag string

const (
	ForceArchitecture     Flag = "force-architecture"
	ForceBreaks           Flag = "force-breaks"
	ForceConfigureAny     Flag = "force-configure-any"
	ForceConflicts        Flag = "force-conflicts"
	ForceDepends          Flag = "force-depends"
	ForceDependsVersion   Flag = "force-depends-version"
	ForceDistribution     Flag = "force-distribution"
	ForceDowngrade        Flag = "force-downgrade"
	ForceFileInfo         Flag = "force-file-info"
	ForceHold             Flag = "force-hold"
	ForceOverwrite        Flag = "force-overwrite"
	ForceOverwriteDir     Flag = "force-overwrite-dir"
	ForceRollback         Flag = "force-rollback"
	ForceUpgradeAnyVer    Flag = "force-upgrade-any-version"
	ForceVendor           Flag = "force-vendor"
	QuietFileInfo         Flag = "quiet-file-info"
	Recursive             Flag = "recursive"
	SkipSameVersion       Flag = "skip-same-version"
)

// Task is the CLI task tag handed to the core (§2 Data flow, §6 Command surface).
type Task string

const (
	TaskInstall      Task = "install"
	TaskUnpack       Task = "unpack"
	TaskConfigure    Task = "configure"
	TaskReconfigure  Task = "reconfigure"
	TaskRemove       Task = "remove"
	TaskPurge        Task = "purge"
	TaskAutoremove   Task = "autoremove"
	TaskSetSelection Task = "set-selection"
)

// Flags is the flag bag of §6, with force-rollback defaulting on for
// install/upgrade per §4.6.
type Flags struct {
	set map[Flag]bool
}

// NewFlags builds a flag bag with force-rollback enabled by default, as
// install/upgrade operations require (§4.6, §7 Propagation policy).
func NewFlags() *Flags {
	return &Flags{set: map[Flag]bool{ForceRollback: true}}
}

// Set enables or disables a flag.
func (f *Flags) Set(flag Flag, on bool) {
	if f.set == nil {
		f.set = map[Flag]bool{}
	}
	f.set[flag] = on
}

// Has reports whether a flag is enabled.
func (f *Flags) Has(flag Flag) bool {
	if f == nil {
		return false
	}
	return f.set[flag]
}
