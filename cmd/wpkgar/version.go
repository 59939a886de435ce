package main

import (
	"flag"
	"fmt"
	"runtime"
)

// VERSION and GITCOMMIT are stamped at build time via -ldflags, the same
// mechanism golang-dep's cmd/dep uses for its own version command.
var (
	VERSION   string
	GITCOMMIT string
)

const versionShortHelp = `Print the wpkgar version`
const versionLongHelp = `
Prints the build version, commit, and Go runtime wpkgar was built with.
Unlike every other command, version never opens the package database.
`

type versionCommand struct{}

func (cmd *versionCommand) Name() string              { return "version" }
func (cmd *versionCommand) Args() string              { return "" }
func (cmd *versionCommand) ShortHelp() string         { return versionShortHelp }
func (cmd *versionCommand) LongHelp() string          { return versionLongHelp }
func (cmd *versionCommand) Hidden() bool              { return false }
func (cmd *versionCommand) Register(fs *flag.FlagSet) {}

func (cmd *versionCommand) Run(ctx *wpkgContext, args []string) error {
	fmt.Println(versionString())
	return nil
}

func versionString() string {
	version := VERSION
	if version == "" {
		version = "dev"
	}
	commit := GITCOMMIT
	if commit == "" {
		commit = "unknown"
	}
	return fmt.Sprintf("wpkgar %s (%s) %s", version, commit, runtime.Version())
}
