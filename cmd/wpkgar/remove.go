package main

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/wpkg-go/wpkgar/journal"
	"github.com/wpkg-go/wpkgar/lifecycle"
	"github.com/wpkg-go/wpkgar/store"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

const removeShortHelp = `Remove installed packages, keeping conffiles`
const removeLongHelp = `
Runs each named package's prerm and postrm scripts and sets its database
status to config-files (§6 "remove <names>"). Shipped files and conffiles
are not deleted from the target, and the database record stays in place.
`

type removeCommand struct{}

func (cmd *removeCommand) Name() string      { return "remove" }
func (cmd *removeCommand) Args() string      { return "<names>" }
func (cmd *removeCommand) ShortHelp() string { return removeShortHelp }
func (cmd *removeCommand) LongHelp() string  { return removeLongHelp }
func (cmd *removeCommand) Hidden() bool      { return false }
func (cmd *removeCommand) Register(fs *flag.FlagSet) {}

func (cmd *removeCommand) Run(ctx *wpkgContext, args []string) error {
	return runRemoval(ctx, args, false)
}

const purgeShortHelp = `Remove installed packages with the purge action`
const purgeLongHelp = `
Runs the same removal lifecycle as remove with the purge action, which sets
the database status to not-installed (§6 "purge <names>"). Shipped files,
conffiles and the database record are not deleted.
`

type purgeCommand struct{}

func (cmd *purgeCommand) Name() string      { return "purge" }
func (cmd *purgeCommand) Args() string      { return "<names>" }
func (cmd *purgeCommand) ShortHelp() string { return purgeShortHelp }
func (cmd *purgeCommand) LongHelp() string  { return purgeLongHelp }
func (cmd *purgeCommand) Hidden() bool      { return false }
func (cmd *purgeCommand) Register(fs *flag.FlagSet) {}

func (cmd *purgeCommand) Run(ctx *wpkgContext, args []string) error {
	return runRemoval(ctx, args, true)
}

func loadInstalledByName(ctx *wpkgContext, names []string) (store.Items, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one package name is required")
	}
	var out store.Items
	for _, name := range names {
		it, err := ctx.Store.Load(name, true)
		if err != nil {
			return nil, err
		}
		if it.OriginalStatus == store.StatusNotInstalled || it.OriginalStatus == store.StatusNoPackage {
			return nil, fmt.Errorf("wpkg: %s is not installed", name)
		}
		if it.IsEssential() && !ctx.Sess.Flags.Has(forceEssentialRemoval) {
			return nil, fmt.Errorf("wpkg: %s is essential, refusing to remove", name)
		}
		out = append(out, it)
	}
	return out, nil
}

// forceEssentialRemoval reuses force-depends as the generic "override a
// constraint-violation class safety check" escape hatch (§7 "Every force-X
// flag downgrades the corresponding class from error to warning"); the
// flag bag has no essential-specific entry of its own.
const forceEssentialRemoval = wpkgsession.ForceDepends

func runRemoval(ctx *wpkgContext, names []string, purge bool) error {
	items, err := loadInstalledByName(ctx, names)
	if err != nil {
		return err
	}

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

	if err := ex.RunRemoval(j, items, ctx.DB.HooksDir(), purge); err != nil {
		failures := journal.Replay(ctx.Sess, j.Entries(), ctx.DB, scripts)
		for _, f := range failures {
			ctx.Sess.Log.Logf("wpkg: rollback failure: %v\n", f)
		}
		return err
	}
	if err := j.Commit(); err != nil {
		return err
	}
	ctx.Store.InvalidateInstalledCache()
	return nil
}
