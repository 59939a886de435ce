package lifecycle

import (
	"sort"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/journal"
	"github.com/wpkg-go/wpkgar/store"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// TopologicalOrder implements §4.5's execution ordering: Depends and
// Pre-Depends strictly precede, ties broken by package name (§5 Ordering
// guarantee (d): a package that depends on Q is unpacked and configured
// after Q).
func TopologicalOrder(items store.Items) (store.Items, error) {
	byName := map[string]*store.Item{}
	for _, it := range items {
		byName[it.Name] = it
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var order store.Items

	sorted := make(store.Items, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var visit func(it *store.Item) error
	visit = func(it *store.Item) error {
		if color[it.Name] == black {
			return nil
		}
		if color[it.Name] == gray {
			return &cycleDuringExecutionError{name: it.Name}
		}
		color[it.Name] = gray
		for _, fieldName := range []string{"Pre-Depends", "Depends"} {
			field, err := it.DependencyField(fieldName)
			if err != nil {
				return err
			}
			deps := field.Names()
			sort.Strings(deps)
			for _, dep := range deps {
				if target, ok := byName[dep]; ok {
					if err := visit(target); err != nil {
						return err
					}
				}
			}
		}
		color[it.Name] = black
		order = append(order, it)
		return nil
	}

	for _, it := range sorted {
		if color[it.Name] == white {
			if err := visit(it); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

type cycleDuringExecutionError struct{ name string }

func (e *cycleDuringExecutionError) Error() string {
	return "wpkg: dependency cycle encountered while ordering execution at " + e.name
}

// Executor drives the per-package state machine across a topologically
// ordered tree, journaling every transition before performing it (§4.6)
// and invoking hooks around each stage (§4.5 "Hooks").
type Executor struct {
	Sess      *wpkgsession.Session
	DB        *store.Database
	Scripts   *ScriptRunner
	SelfUp    *SelfUpgradeTracker
	TargetArch control.Architecture
}

// Run executes every item's plan in dependency order, journaling state
// transitions and running hooks, stopping at the first maintainer-script
// failure (§7 "Execution-phase errors stop immediately"). A failing hook
// stops the run only at the validate stage; at other stages it is logged
// and the run goes on.
func (ex *Executor) Run(j *journal.Journal, items store.Items, hooksDir string, stopBeforeConfigure bool) error {
	ordered, err := TopologicalOrder(items)
	if err != nil {
		return err
	}
	ordered = ex.SelfUp.OrderLast(ordered)

	if err := RunHooks(ex.Sess, hooksDir, StageValidate); err != nil {
		return err
	}

	for _, it := range ordered {
		if err := ex.Sess.CheckInterrupt(); err != nil {
			return err
		}
		plan := BuildPlan(it)
		for _, step := range plan.Steps {
			if stopBeforeConfigure && step.Stage == StagePostinst && step.Action == ActionConfigure {
				break
			}
			if err := ex.runStep(j, it, step); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunRemoval drives prerm/postrm for a set of installed items, in reverse
// dependency order (a package is removed before whatever it depends on),
// journaling and hook invocation identical to Run.
func (ex *Executor) RunRemoval(j *journal.Journal, items store.Items, hooksDir string, purge bool) error {
	ordered, err := TopologicalOrder(items)
	if err != nil {
		return err
	}
	if err := RunHooks(ex.Sess, hooksDir, StageValidate); err != nil {
		return err
	}
	for i := len(ordered) - 1; i >= 0; i-- {
		it := ordered[i]
		if err := ex.Sess.CheckInterrupt(); err != nil {
			return err
		}
		plan := BuildRemovalPlan(it, purge)
		for _, step := range plan.Steps {
			if err := ex.runStep(j, it, step); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ex *Executor) runStep(j *journal.Journal, it *store.Item, step Step) error {
	oldStatus, _ := ex.DB.Status(it.Name)
	newStatus := statusAfter(step)

	if j != nil {
		if err := j.RecordSaveStatus(it.Name, oldStatus.String(), newStatus.String()); err != nil {
			return err
		}
		if err := j.RecordRunScript(it.Name, string(step.Stage)); err != nil {
			return err
		}
	}
	if err := ex.DB.SetStatus(it.Name, newStatus); err != nil {
		return err
	}

	pkgDir := ex.DB.PackageDir(it.Name)
	if err := ex.Scripts.Run(it.Name, pkgDir, step.Stage, step.Action, step.Args, ex.TargetArch); err != nil {
		return err
	}
	return RunHooks(ex.Sess, ex.DB.HooksDir(), step.Stage)
}

func statusAfter(step Step) store.Status {
	switch step.Stage {
	case StagePreinst:
		return store.StatusHalfInstalled
	case StageUnpack:
		return store.StatusUnpacked
	case StagePostinst:
		if step.Action == ActionConfigure {
			return store.StatusInstalled
		}
		return store.StatusUnpacked
	case StagePrerm:
		return store.StatusHalfInstalled
	case StagePostrm:
		if step.Action == ActionPurge {
			return store.StatusNotInstalled
		}
		return store.StatusConfigFiles
	default:
		return store.StatusUnknown
	}
}
