package main

import (
	"flag"

	"github.com/wpkg-go/wpkgar/store"
)

const reconfigureShortHelp = `Re-run configure scripts on installed packages`
const reconfigureLongHelp = `
Re-invokes postinst configure for packages that are already fully
installed, e.g. after a configuration file was hand-edited (§6
"reconfigure <names>").
`

type reconfigureCommand struct{}

func (cmd *reconfigureCommand) Name() string      { return "reconfigure" }
func (cmd *reconfigureCommand) Args() string      { return "<names>" }
func (cmd *reconfigureCommand) ShortHelp() string { return reconfigureShortHelp }
func (cmd *reconfigureCommand) LongHelp() string  { return reconfigureLongHelp }
func (cmd *reconfigureCommand) Hidden() bool      { return false }
func (cmd *reconfigureCommand) Register(fs *flag.FlagSet) {}

func (cmd *reconfigureCommand) Run(ctx *wpkgContext, args []string) error {
	items, err := loadForConfigure(ctx, args, store.StatusInstalled, store.StatusHalfConfigured)
	if err != nil {
		return err
	}
	return runInstall(ctx, items, false)
}
