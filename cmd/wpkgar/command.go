package main

import "flag"

// command mirrors golang-dep's cmd/dep subcommand shape (cmd/dep/main.go):
// a small self-describing interface the dispatch loop in main() drives,
// rather than one sprawling flag.FlagSet for every task.
type command interface {
	Name() string
	Args() string
	ShortHelp() string
	LongHelp() string
	Register(*flag.FlagSet)
	Hidden() bool
	Run(ctx *wpkgContext, args []string) error
}
