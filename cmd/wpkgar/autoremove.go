package main

import (
	"flag"

	"github.com/wpkg-go/wpkgar/autoremove"
)

const autoremoveShortHelp = `Remove implicitly-installed packages nothing depends on`
const autoremoveLongHelp = `
Computes the fixpoint set of implicitly-installed packages no remaining
installed package depends on, and runs the normal removal lifecycle for
each (§4.7).
`

type autoremoveCommand struct{}

func (cmd *autoremoveCommand) Name() string      { return "autoremove" }
func (cmd *autoremoveCommand) Args() string      { return "" }
func (cmd *autoremoveCommand) ShortHelp() string { return autoremoveShortHelp }
func (cmd *autoremoveCommand) LongHelp() string  { return autoremoveLongHelp }
func (cmd *autoremoveCommand) Hidden() bool      { return false }
func (cmd *autoremoveCommand) Register(fs *flag.FlagSet) {}

func (cmd *autoremoveCommand) Run(ctx *wpkgContext, args []string) error {
	installed, err := installedItems(ctx)
	if err != nil {
		return err
	}

	var candidates []autoremove.Candidate
	for _, it := range installed {
		typ, err := installTypeOf(ctx, it.Name)
		if err != nil {
			return err
		}
		candidates = append(candidates, autoremove.Candidate{Item: it, Type: typ})
	}

	toRemove := autoremove.Candidates(candidates)
	if len(toRemove) == 0 {
		ctx.Sess.Log.Logln("wpkg: nothing to autoremove")
		return nil
	}

	names := make([]string, len(toRemove))
	for i, it := range toRemove {
		names[i] = it.Name
	}
	return runRemoval(ctx, names, false)
}
