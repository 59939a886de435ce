// Command wpkgar is the package-manager CLI: it turns a task name, a set
// of package references and a flag bag into a call into the resolve,
// diskplan, lifecycle and journal packages (§2 "CLI collaborator").
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

func main() {
	c := &Config{
		Args:   os.Args,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	os.Exit(c.Run())
}

// Config specifies a full invocation of wpkgar.
type Config struct {
	Args           []string
	Stdout, Stderr *os.File
}

// Run executes a configuration and returns an exit code, per §6 "Exit
// codes: 0 success, 1 failure".
func (c *Config) Run() (exitCode int) {
	commands := []command{
		&installCommand{},
		&unpackCommand{},
		&configureCommand{},
		&reconfigureCommand{},
		&removeCommand{},
		&purgeCommand{},
		&autoremoveCommand{},
		&setSelectionCommand{},
		&versionCommand{},
	}

	usage := func() {
		fmt.Fprintln(c.Stderr, "wpkgar manages installed packages: resolve, unpack, configure, remove")
		fmt.Fprintln(c.Stderr)
		fmt.Fprintln(c.Stderr, "Usage: wpkgar <command> [flags] [args]")
		fmt.Fprintln(c.Stderr)
		fmt.Fprintln(c.Stderr, "Commands:")
		fmt.Fprintln(c.Stderr)
		w := tabwriter.NewWriter(c.Stderr, 0, 4, 2, ' ', 0)
		for _, cmd := range commands {
			if !cmd.Hidden() {
				fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.ShortHelp())
			}
		}
		w.Flush()
		fmt.Fprintln(c.Stderr)
		fmt.Fprintln(c.Stderr, `Use "wpkgar <command> -h" for more information about a command.`)
	}

	cmdName, printCommandHelp, exit := parseArgs(c.Args)
	if exit {
		usage()
		return 1
	}

	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}

		fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		fs.SetOutput(c.Stderr)
		cf := registerCommonFlags(fs)
		cmd.Register(fs)
		resetUsage(c.Stderr, fs, cmdName, cmd.Args(), cmd.LongHelp())

		if printCommandHelp {
			fs.Usage()
			return 1
		}
		if err := fs.Parse(c.Args[2:]); err != nil {
			return 1
		}
		cf.markExplicit(fs)

		// version is the one command that must work without an installed
		// system to inspect, so it alone skips opening the database.
		var ctx *wpkgContext
		if cmdName != "version" {
			var err error
			ctx, err = cf.open(c.Stdout, c.Stderr)
			if err != nil {
				fmt.Fprintf(c.Stderr, "wpkg: %v\n", err)
				return 1
			}
		}

		if err := cmd.Run(ctx, fs.Args()); err != nil {
			fmt.Fprintf(c.Stderr, "wpkg: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(c.Stderr, "wpkg: %s: no such command\n", cmdName)
	usage()
	return 1
}

func resetUsage(w *os.File, fs *flag.FlagSet, name, args, longHelp string) {
	var (
		hasFlags   bool
		flagBlock  bytes.Buffer
		flagWriter = tabwriter.NewWriter(&flagBlock, 0, 4, 2, ' ', 0)
	)
	fs.VisitAll(func(f *flag.Flag) {
		hasFlags = true
		defValue := f.DefValue
		if defValue == "" {
			defValue = "<none>"
		}
		fmt.Fprintf(flagWriter, "\t-%s\t%s (default: %s)\n", f.Name, f.Usage, defValue)
	})
	flagWriter.Flush()
	fs.Usage = func() {
		fmt.Fprintf(w, "Usage: wpkgar %s %s\n\n", name, args)
		fmt.Fprintln(w, strings.TrimSpace(longHelp))
		fmt.Fprintln(w)
		if hasFlags {
			fmt.Fprintln(w, "Flags:")
			fmt.Fprintln(w)
			fmt.Fprintln(w, flagBlock.String())
		}
	}
}

// parseArgs determines the command name and whether help was requested,
// mirroring golang-dep's cmd/dep parseArgs (cmd/dep/main.go).
func parseArgs(args []string) (cmdName string, printCmdUsage bool, exit bool) {
	isHelpArg := func() bool {
		return strings.Contains(strings.ToLower(args[1]), "help") || strings.ToLower(args[1]) == "-h"
	}
	switch len(args) {
	case 0, 1:
		exit = true
	case 2:
		if isHelpArg() {
			exit = true
		}
		cmdName = args[1]
	default:
		if isHelpArg() {
			cmdName = args[2]
			printCmdUsage = true
		} else {
			cmdName = args[1]
		}
	}
	return cmdName, printCmdUsage, exit
}
