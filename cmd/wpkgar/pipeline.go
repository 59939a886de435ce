package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wpkg-go/wpkgar/autoremove"
	"github.com/wpkg-go/wpkgar/diskplan"
	"github.com/wpkg-go/wpkgar/journal"
	"github.com/wpkg-go/wpkgar/lifecycle"
	"github.com/wpkg-go/wpkgar/resolve"
	"github.com/wpkg-go/wpkgar/selection"
	"github.com/wpkg-go/wpkgar/store"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// fetchersFor builds the sources.list type-to-Fetcher registry (§4.2.2):
// "wpkg" for plain repository directories, "vcs" for vcs+<type>+<remote>
// entries resolved through Masterminds/vcs.
func fetchersFor(ctx *wpkgContext, recursive bool) map[string]resolve.Fetcher {
	return map[string]resolve.Fetcher{
		"wpkg": resolve.DirectFetcher{Store: ctx.Store, Recursive: recursive},
		"vcs":  resolve.VCSFetcher{CacheDir: filepath.Join(ctx.DB.Root, ctx.DB.AdminDir, "core", "vcs-cache"), Store: ctx.Store},
	}
}

func loadSources(ctx *wpkgContext) ([]resolve.SourceEntry, error) {
	f, err := os.Open(ctx.DB.SourcesListPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return resolve.ParseSourcesList(f)
}

func installedItems(ctx *wpkgContext) (store.Items, error) {
	names, err := ctx.Store.ListInstalledPackages()
	if err != nil {
		return nil, err
	}
	var out store.Items
	for _, n := range names {
		it, err := ctx.Store.Load(n, false)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

// explicitItems loads each named package file or installed name and, when
// a package of the same name is already on the system, links the new item
// to its installed record via UpgradeLink so the lifecycle executor can
// tell an explicit upgrade from a fresh install (§4.5's upgrade contract).
func explicitItems(ctx *wpkgContext, names []string) (store.Items, error) {
	var out store.Items
	for _, n := range names {
		it, err := ctx.Store.Load(n, false)
		if err != nil {
			return nil, fmt.Errorf("wpkg: loading %s: %w", n, err)
		}
		it.Kind = store.KindExplicit

		if prior, err := ctx.Store.Load(it.Name, false); err == nil && prior != it {
			if prior.OriginalStatus != store.StatusNotInstalled && prior.OriginalStatus != store.StatusNoPackage {
				it.OriginalStatus = prior.OriginalStatus
				it.UpgradeLink = prior
			}
		}

		out = append(out, it)
	}
	return out, nil
}

func heldNames(ctx *wpkgContext, items store.Items) (map[string]bool, error) {
	held := map[string]bool{}
	st := selection.DatabaseStore{DB: ctx.DB}
	for _, it := range items {
		sel, err := selection.Get(st, it.Name)
		if err != nil {
			return nil, err
		}
		held[it.Name] = sel == selection.Hold
	}
	return held, nil
}

// resolvePlan runs the full §4.2 resolver pipeline for an install/unpack
// task, given the package references named on the command line.
func resolvePlan(ctx *wpkgContext, names []string, task wpkgsession.Task) (*resolve.Result, error) {
	explicit, err := explicitItems(ctx, names)
	if err != nil {
		return nil, err
	}
	for _, it := range explicit {
		st := selection.DatabaseStore{DB: ctx.DB}
		if err := selection.CheckInstall(st, it.Name); err != nil {
			return nil, err
		}
	}

	installed, err := installedItems(ctx)
	if err != nil {
		return nil, err
	}
	held, err := heldNames(ctx, installed)
	if err != nil {
		return nil, err
	}
	for _, it := range explicit {
		sel, err := selection.Get(selection.DatabaseStore{DB: ctx.DB}, it.Name)
		if err != nil {
			return nil, err
		}
		if err := selection.CheckExplicitUpgrade(ctx.Sess, it.Name, sel); err != nil {
			return nil, err
		}
	}

	sources, err := loadSources(ctx)
	if err != nil {
		return nil, err
	}
	fetchers := fetchersFor(ctx, ctx.Sess.Flags.Has(wpkgsession.Recursive))

	return resolve.Resolve(ctx.Sess, explicit, installed, sources, fetchers, wpkgSubstFromEnv(), ctx.TargetArch, held, task)
}

// verifyDiskSpace implements §4.3 over the tree's selected items:
// attributing each package's shipped files to a mount and checking the
// accumulated margin on the positive (fresh-file) side, accounting the
// negative side an upgrade frees up by walking the superseded installed
// item, and running the overwrite-policy decision table (essential-file
// protection, conffile deferral, duplicate-file and directory/file
// type-change detection) over every entry before the plan is allowed to
// proceed. Items with no materialized file index (nothing staged yet, e.g.
// a purely available candidate) are skipped rather than treated as fatal,
// since the archive codec that would stage them is an external
// collaborator (§1).
func verifyDiskSpace(ctx *wpkgContext, items store.Items, installed store.Items) error {
	enumerator := diskplan.NewMountsFileEnumerator()
	rows, err := enumerator.Enumerate()
	if err != nil {
		return err
	}
	disks := make([]*diskplan.Disk, len(rows))
	for i := range rows {
		disks[i] = &rows[i]
	}

	installedOwner := map[string]string{}
	for _, inst := range installed {
		mf, err := ctx.Store.GetWpkgarFile(inst)
		if err != nil {
			continue
		}
		for _, e := range mf.Entries {
			if e.Type != store.EntryDirectory {
				installedOwner[e.Path] = inst.Name
			}
		}
	}
	shippedBy := map[string]string{}
	for _, it := range items {
		mf, err := ctx.Store.GetWpkgarFile(it)
		if err != nil {
			continue
		}
		for _, e := range mf.Entries {
			if e.Type != store.EntryDirectory {
				shippedBy[e.Path] = it.Name
			}
		}
	}
	essentialCandidates := append(append(store.Items{}, installed...), items...)

	for _, it := range items {
		mf, err := ctx.Store.GetWpkgarFile(it)
		if err != nil {
			continue
		}
		diskplan.WalkPackage(disks, mf.Entries, 1)

		// UpgradeLink names the exact superseded installed item when the
		// resolver or explicitItems already worked that out; fall back to
		// a name lookup for items the tree marked installed/kept as-is.
		prior := it.UpgradeLink
		if prior == nil {
			prior = installed.Installed(it.Name)
		}
		var oldFile *store.MemoryFile
		if prior != nil {
			if f, err := ctx.Store.GetWpkgarFile(prior); err == nil {
				oldFile = f
				diskplan.WalkPackage(disks, f.Entries, -1)
			}
		}

		essential := &diskplan.EssentialFiles{}
		if err := checkPackageOverwrites(ctx, it, mf, oldFile, prior != nil, installedOwner, shippedBy, essential, essentialCandidates); err != nil {
			return err
		}
	}
	return diskplan.VerifySpace(disks)
}

// checkPackageOverwrites runs §4.3's overwrite-policy decision table over
// every entry one package ships, against the filesystem state under the
// session root and the rest of the batch being installed alongside it.
func checkPackageOverwrites(ctx *wpkgContext, it *store.Item, mf, oldFile *store.MemoryFile, legitimateUpgrade bool, installedOwner, shippedBy map[string]string, essential *diskplan.EssentialFiles, candidates store.Items) error {
	for _, e := range mf.Entries {
		incoming := diskplan.DestFile
		if e.Type == store.EntryDirectory {
			incoming = diskplan.DestDirectory
		}

		existing := diskplan.DestAbsent
		if fi, statErr := os.Lstat(filepath.Join(ctx.Sess.Root, e.Path)); statErr == nil {
			existing = diskplan.DestFile
			if fi.IsDir() {
				existing = diskplan.DestDirectory
			}
		}

		owner := diskplan.OwnerNone
		switch {
		case oldFile != nil && hasEntry(oldFile, e.Path):
			owner = diskplan.OwnerSamePkg
		case shippedBy[e.Path] != "" && shippedBy[e.Path] != it.Name:
			owner = diskplan.OwnerConcurrent
		case installedOwner[e.Path] != "" && installedOwner[e.Path] != it.Name:
			owner = diskplan.OwnerOtherPkg
		}

		isEssentialOwner, err := essential.Contains(e.Path, candidates, ctx.Store.GetWpkgarFile, it.Name)
		if err != nil {
			return err
		}

		check := diskplan.CheckOverwrite(ctx.Sess, e.Path, existing, incoming, owner, isEssentialOwner, isConffilePath(it, e.Path), legitimateUpgrade)
		if check.Fatal != nil {
			return check.Fatal
		}
		if check.Err != nil {
			return check.Err
		}
		if check.Warn != "" {
			ctx.Sess.Log.Logln(check.Warn)
		}
	}
	return nil
}

func hasEntry(mf *store.MemoryFile, path string) bool {
	_, ok := mf.Find(path)
	return ok
}

// isConffilePath reports whether the package's Conffiles control field
// lists path, deferring its overwrite to conffile handling rather than the
// ordinary overwrite-refusal path.
func isConffilePath(it *store.Item, path string) bool {
	raw, ok := it.Fields.Get("Conffiles")
	if !ok {
		return false
	}
	for _, entry := range strings.Fields(raw) {
		if entry == path {
			return true
		}
	}
	return false
}

// runInstall drives the executor over a resolved tree's selected items,
// journaling every step and replaying on failure when force-rollback is
// set (§4.6), matching install/unpack/configure/reconfigure's shared tail.
func runInstall(ctx *wpkgContext, items store.Items, stopBeforeConfigure bool) error {
	j, err := journal.Begin(filepath.Join(ctx.DB.Root, ctx.DB.AdminDir))
	if err != nil {
		return err
	}

	scripts := &lifecycle.ScriptRunner{Sess: ctx.Sess, DB: ctx.DB, TargetArch: ctx.TargetArch}
	ex := &lifecycle.Executor{
		Sess:       ctx.Sess,
		DB:         ctx.DB,
		Scripts:    scripts,
		SelfUp:     lifecycle.NewSelfUpgradeTracker(),
		TargetArch: ctx.TargetArch,
	}

	runErr := ex.Run(j, items, ctx.DB.HooksDir(), stopBeforeConfigure)
	if runErr != nil {
		if ctx.Sess.Flags.Has(wpkgsession.ForceRollback) {
			failures := journal.Replay(ctx.Sess, j.Entries(), ctx.DB, scripts)
			for _, f := range failures {
				ctx.Sess.Log.Logf("wpkg: rollback failure: %v\n", f)
			}
		}
		return runErr
	}
	if err := j.Commit(); err != nil {
		return err
	}
	ctx.Store.InvalidateInstalledCache()
	stampInstallTypes(ctx, items)
	return nil
}

// installTypeField persists the bit autoremove's fixpoint walk needs
// (§4.7): whether a package landed on the system because the user named
// it explicitly or because the resolver pulled it in as a dependency.
const installTypeField = "X-Install-Type"

func stampInstallTypes(ctx *wpkgContext, items store.Items) {
	for _, it := range items {
		switch it.Kind {
		case store.KindExplicit, store.KindImplicit, store.KindUpgrade, store.KindUpgradeImplicit, store.KindDowngrade:
		default:
			continue // not installed by this run: keep the recorded install type
		}
		value := "implicit"
		if it.Kind == store.KindExplicit {
			value = "explicit"
		}
		if err := ctx.DB.SetStatusField(it.Name, installTypeField, value); err != nil {
			ctx.Sess.Log.Logf("wpkg: recording install type for %s: %v\n", it.Name, err)
		}
	}
}

func installTypeOf(ctx *wpkgContext, name string) (autoremove.InstallType, error) {
	fields, err := ctx.DB.StatusFields(name)
	if err != nil {
		return autoremove.InstallExplicit, err
	}
	v, _ := fields.Get(installTypeField)
	if v == "implicit" {
		return autoremove.InstallImplicit, nil
	}
	return autoremove.InstallExplicit, nil
}
