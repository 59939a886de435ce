package main

import (
	"flag"
	"fmt"

	"github.com/wpkg-go/wpkgar/selection"
)

const setSelectionShortHelp = `Mutate a package's selection (normal/hold/reject)`
const setSelectionLongHelp = `
Sets a package's selection state, creating a placeholder database record
when the name has no existing one and the state is not normal (§4.4,
§6 "set-selection <state> <name>").
`

type setSelectionCommand struct{}

func (cmd *setSelectionCommand) Name() string      { return "set-selection" }
func (cmd *setSelectionCommand) Args() string      { return "<state> <name>" }
func (cmd *setSelectionCommand) ShortHelp() string { return setSelectionShortHelp }
func (cmd *setSelectionCommand) LongHelp() string  { return setSelectionLongHelp }
func (cmd *setSelectionCommand) Hidden() bool      { return false }
func (cmd *setSelectionCommand) Register(fs *flag.FlagSet) {}

func (cmd *setSelectionCommand) Run(ctx *wpkgContext, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("set-selection requires exactly a <state> and a <name>")
	}
	sel, err := selection.ParseSelection(args[0])
	if err != nil {
		return err
	}
	return selection.Set(selection.DatabaseStore{DB: ctx.DB}, args[1], sel)
}
