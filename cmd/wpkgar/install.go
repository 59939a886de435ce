package main

import (
	"flag"
	"fmt"

	"github.com/wpkg-go/wpkgar/wpkgsession"
)

const installShortHelp = `Resolve, unpack and configure packages`
const installLongHelp = `
Resolves the dependency tree for the named package files or installed
names, validates disk space and overwrite safety, then unpacks and
configures the chosen tree (§4.2-§4.5).
`

type installCommand struct{}

func (cmd *installCommand) Name() string              { return "install" }
func (cmd *installCommand) Args() string              { return "<files-or-names>" }
func (cmd *installCommand) ShortHelp() string         { return installShortHelp }
func (cmd *installCommand) LongHelp() string          { return installLongHelp }
func (cmd *installCommand) Hidden() bool              { return false }
func (cmd *installCommand) Register(fs *flag.FlagSet) {}

func (cmd *installCommand) Run(ctx *wpkgContext, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("install requires at least one package file or name")
	}
	result, err := resolvePlan(ctx, args, wpkgsession.TaskInstall)
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
	return runInstall(ctx, selected, false)
}
