package main

import (
	"flag"
	"fmt"

	"github.com/wpkg-go/wpkgar/wpkgsession"
)

const unpackShortHelp = `Resolve and unpack packages, without configuring`
const unpackLongHelp = `
Runs the same resolve and disk-validation pipeline as install, but stops
each selected package after the unpack stage, before postinst configure
(§6 "unpack <files-or-names>").
`

type unpackCommand struct{}

func (cmd *unpackCommand) Name() string              { return "unpack" }
func (cmd *unpackCommand) Args() string              { return "<files-or-names>" }
func (cmd *unpackCommand) ShortHelp() string         { return unpackShortHelp }
func (cmd *unpackCommand) LongHelp() string          { return unpackLongHelp }
func (cmd *unpackCommand) Hidden() bool              { return false }
func (cmd *unpackCommand) Register(fs *flag.FlagSet) {}

func (cmd *unpackCommand) Run(ctx *wpkgContext, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("unpack requires at least one package file or name")
	}
	result, err := resolvePlan(ctx, args, wpkgsession.TaskUnpack)
	if err != nil {
		return err
	}
	selected := result.Tree.Selected()

	installed, err := installedItems(ctx)
	if err != nil {
		return err
	}
	if err := verifyDiskSpace(ctx, selected, installed); err != nil {
		return err
	}
	return runInstall(ctx, selected, true)
}
