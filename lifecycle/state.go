// Package lifecycle implements §4.5: the per-package install/upgrade and
// removal state machines, maintainer-script and hook invocation, and
// self-upgrade ordering.
package lifecycle

import (
	"github.com/wpkg-go/wpkgar/store"
)

// Stage is one maintainer-script invocation point.
type Stage string

const (
	StageValidate Stage = "validate"
	StagePreinst  Stage = "preinst"
	// StageUnpack is the file-extraction point of §4.5's five-stage
	// lifecycle (validate -> preinst -> unpack -> postinst -> configure).
	// It has no maintainer-script flavor of its own (§6 only names
	// preinst/postinst/prerm/postrm/validate scripts) - ScriptRunner.Run
	// simply finds no "unpack" script file and returns nil - but it is
	// still a named hook point and status transition.
	StageUnpack   Stage = "unpack"
	StagePostinst Stage = "postinst"
	StagePrerm    Stage = "prerm"
	StagePostrm   Stage = "postrm"
)

// Action is the positional argument a maintainer script receives, per §4.5
// "Script invocation".
type Action string

const (
	ActionInstall       Action = "install"
	ActionUpgrade       Action = "upgrade"
	ActionConfigure     Action = "configure"
	ActionRemove        Action = "remove"
	ActionPurge         Action = "purge"
	ActionAbortInstall  Action = "abort-install"
	ActionAbortUpgrade  Action = "abort-upgrade"
	ActionFailedUpgrade Action = "failed-upgrade"
)

// Plan is one package's worked-out sequence of (stage, action, args)
// steps, computed from its Kind and OriginalStatus before execution starts
// (§5 Ordering guarantee (b): the full tree is frozen before anything runs).
type Plan struct {
	Item  *store.Item
	Steps []Step
}

// Step is one maintainer-script invocation the executor must perform, in
// order, for one package.
type Step struct {
	Stage  Stage
	Action Action
	Args   []string
}

// BuildPlan computes the state-machine transition sequence for one item,
// per the install/upgrade and removal diagrams of §4.5.
func BuildPlan(it *store.Item) Plan {
	switch it.Kind {
	case store.KindExplicit, store.KindImplicit, store.KindUpgrade, store.KindUpgradeImplicit, store.KindDowngrade:
		return buildInstallPlan(it)
	case store.KindConfigure:
		return Plan{Item: it, Steps: []Step{
			{Stage: StagePostinst, Action: ActionConfigure, Args: []string{it.Vers.String()}},
		}}
	default:
		return Plan{Item: it}
	}
}

func buildInstallPlan(it *store.Item) Plan {
	action := ActionInstall
	var args []string
	switch {
	// UpgradeLink points at the installed item this one supersedes
	// (§4.5's "upgrade <old-version>" contract): the old item's own
	// status is what tells us whether it's actually upgradable.
	case it.UpgradeLink != nil && isUpgradableStatus(it.UpgradeLink.OriginalStatus):
		action = ActionUpgrade
		args = []string{it.UpgradeLink.Vers.String()}
	case isUpgradableStatus(it.OriginalStatus):
		action = ActionUpgrade
		args = []string{it.Vers.String()}
	}
	return Plan{Item: it, Steps: []Step{
		{Stage: StagePreinst, Action: action, Args: args},
		{Stage: StageUnpack, Action: action, Args: args},
		{Stage: StagePostinst, Action: ActionConfigure, Args: []string{it.Vers.String()}},
	}}
}

func isUpgradableStatus(s store.Status) bool {
	return s.IsFullyConfigured() || s == store.StatusUnpacked || s == store.StatusHalfConfigured
}

// BuildRemovalPlan computes prerm/postrm steps for a remove or purge.
func BuildRemovalPlan(it *store.Item, purge bool) Plan {
	action := ActionRemove
	if purge {
		action = ActionPurge
	}
	return Plan{Item: it, Steps: []Step{
		{Stage: StagePrerm, Action: action},
		{Stage: StagePostrm, Action: action},
	}}
}

// InverseAction returns the postrm abort-* action that best-effort reverses
// a failed preinst action, per §4.6's rollback replay rule.
func InverseAction(a Action, args []string) (Action, []string) {
	switch a {
	case ActionInstall:
		return ActionAbortInstall, nil
	case ActionUpgrade:
		return ActionAbortUpgrade, args
	default:
		return ActionFailedUpgrade, args
	}
}
