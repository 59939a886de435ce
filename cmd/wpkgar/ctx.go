package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// wpkgContext bundles the collaborators every command's Run needs, built
// once by commonFlags.open() after flag parsing (§2 "explicit context
// object replacing global state").
type wpkgContext struct {
	Sess  *wpkgsession.Session
	DB    *store.Database
	Store *store.Store

	TargetArch control.Architecture
}

// commonFlags is the admindir/root/force-* flag bag every command
// registers, split out of each command's own Register so the bag is
// defined once (§6 "Flag bag").
type commonFlags struct {
	root     string
	adminDir string
	verbose  bool

	forces   map[wpkgsession.Flag]*bool
	flagName map[string]wpkgsession.Flag
	explicit map[wpkgsession.Flag]bool
}

// markExplicit records which force-* flags the caller actually passed on
// the command line, so a persisted config default only fills in flags the
// invocation left untouched. Must be called after fs.Parse.
func (cf *commonFlags) markExplicit(fs *flag.FlagSet) {
	cf.explicit = map[wpkgsession.Flag]bool{}
	fs.Visit(func(f *flag.Flag) {
		if flagName, ok := cf.flagName[f.Name]; ok {
			cf.explicit[flagName] = true
		}
	})
}

var allForceFlags = []wpkgsession.Flag{
	wpkgsession.ForceArchitecture,
	wpkgsession.ForceBreaks,
	wpkgsession.ForceConfigureAny,
	wpkgsession.ForceConflicts,
	wpkgsession.ForceDepends,
	wpkgsession.ForceDependsVersion,
	wpkgsession.ForceDistribution,
	wpkgsession.ForceDowngrade,
	wpkgsession.ForceFileInfo,
	wpkgsession.ForceHold,
	wpkgsession.ForceOverwrite,
	wpkgsession.ForceOverwriteDir,
	wpkgsession.ForceRollback,
	wpkgsession.ForceUpgradeAnyVer,
	wpkgsession.ForceVendor,
	wpkgsession.QuietFileInfo,
	wpkgsession.Recursive,
	wpkgsession.SkipSameVersion,
}

func registerCommonFlags(fs *flag.FlagSet) *commonFlags {
	cf := &commonFlags{
		forces:   map[wpkgsession.Flag]*bool{},
		flagName: map[string]wpkgsession.Flag{},
	}
	fs.StringVar(&cf.root, "root", "/", "target filesystem root")
	fs.StringVar(&cf.adminDir, "admindir", "/var/lib/wpkg", "database directory, relative to root")
	fs.BoolVar(&cf.verbose, "verbose", false, "enable verbose logging")
	for _, f := range allForceFlags {
		usage := fmt.Sprintf("downgrade the %s check from error to warning", f)
		cf.forces[f] = fs.Bool(string(f), f == wpkgsession.ForceRollback, usage)
		cf.flagName[string(f)] = f
	}
	return cf
}

// open builds the session and database bound to the parsed flags, per §2's
// CLI-layer responsibility of turning a flag bag into the core's context
// object.
func (cf *commonFlags) open(stdout, stderr io.Writer) (*wpkgContext, error) {
	db, err := store.Open(cf.root, cf.adminDir)
	if err != nil {
		return nil, fmt.Errorf("wpkg: opening database at %s: %w", cf.adminDir, err)
	}
	if err := db.CheckIndexFormat(); err != nil {
		return nil, err
	}
	coreFields, err := db.CoreFields()
	if err != nil {
		return nil, fmt.Errorf("wpkg: reading core record: %w", err)
	}
	archStr, _ := coreFields.Get("Architecture")
	targetArch, err := control.ParseArchitecture(archStr)
	if err != nil {
		return nil, fmt.Errorf("wpkg: core record has invalid target architecture: %w", err)
	}

	sess := wpkgsession.New(cf.root, cf.adminDir, stdout)
	sess.Log.Verbose = cf.verbose

	cfgPath := filepath.Join(cf.root, cf.adminDir, "core", "wpkgar.conf")
	cfg, err := wpkgsession.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("wpkg: loading session config: %w", err)
	}
	// Baseline is each flag's parsed value (explicit CLI value, or its
	// built-in default); the persisted config then overrides only the
	// flags the invocation left unexplicit, so CLI flags always win.
	for f, v := range cf.forces {
		sess.Flags.Set(f, *v)
	}
	cfg.ApplyTo(sess.Flags, cf.explicit)

	return &wpkgContext{
		Sess:       sess,
		DB:         db,
		Store:      store.New(db, nil), // archive codec is an external collaborator (§1)
		TargetArch: targetArch,
	}, nil
}

func wpkgSubstFromEnv() string {
	return os.Getenv("WPKG_SUBST")
}
