package main

import (
	"flag"
	"fmt"

	"github.com/wpkg-go/wpkgar/store"
)

const configureShortHelp = `Configure previously unpacked packages`
const configureLongHelp = `
Runs postinst configure for packages left in the unpacked state by a
prior unpack, without re-resolving or re-staging files (§6 "configure
<names>").
`

type configureCommand struct{}

func (cmd *configureCommand) Name() string      { return "configure" }
func (cmd *configureCommand) Args() string      { return "<names>" }
func (cmd *configureCommand) ShortHelp() string { return configureShortHelp }
func (cmd *configureCommand) LongHelp() string  { return configureLongHelp }
func (cmd *configureCommand) Hidden() bool      { return false }
func (cmd *configureCommand) Register(fs *flag.FlagSet) {}

func (cmd *configureCommand) Run(ctx *wpkgContext, args []string) error {
	items, err := loadForConfigure(ctx, args, store.StatusUnpacked, store.StatusHalfConfigured)
	if err != nil {
		return err
	}
	return runInstall(ctx, items, false)
}

func loadForConfigure(ctx *wpkgContext, names []string, acceptable ...store.Status) (store.Items, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("configure requires at least one package name")
	}
	var out store.Items
	for _, name := range names {
		it, err := ctx.Store.Load(name, true)
		if err != nil {
			return nil, err
		}
		ok := false
		for _, st := range acceptable {
			if it.OriginalStatus == st {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("wpkg: %s is not in a configurable state (status %s)", name, it.OriginalStatus)
		}
		it.Kind = store.KindConfigure
		out = append(out, it)
	}
	return out, nil
}
