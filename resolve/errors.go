package resolve

import (
	"fmt"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// Each failure below corresponds to one of §7's error kinds surfacing from
// the resolver specifically, spelled as a distinct type the way
// golang-dep/errors.go spells disjointConstraintFailure, badOptsFailure,
// etc, rather than as one generic error value.

// unsatisfiedDependencyFailure: Constraint-violation.
type unsatisfiedDependencyFailure struct {
	dependent string
	dep       control.Dependency
}

func (e *unsatisfiedDependencyFailure) Error() string {
	return fmt.Sprintf("wpkg: %s: unsatisfied dependency %s", e.dependent, e.dep)
}

// conflictFailure: Constraint-violation, from the conflict/break engine.
type conflictFailure struct {
	kind  string // "Conflicts" or "Breaks"
	a, b  string
	verAB control.Dependency
}

func (e *conflictFailure) Error() string {
	return fmt.Sprintf("wpkg: %s: %s %s against %s", e.a, e.kind, e.verAB, e.b)
}

// preDependencyFailure: Constraint-violation, §4.2.1.
type preDependencyFailure struct {
	dependent string
	dep       control.Dependency
	reason    string
}

func (e *preDependencyFailure) Error() string {
	return fmt.Sprintf("wpkg: %s: pre-dependency %s not satisfied: %s", e.dependent, e.dep, e.reason)
}

// holdViolationFailure: Constraint-violation, §4.2.7 / §4.4.
type holdViolationFailure struct {
	name string
}

func (e *holdViolationFailure) Error() string {
	return fmt.Sprintf("wpkg: %s is held, implicit upgrade/downgrade refused", e.name)
}

// implicitDowngradeFailure: Constraint-violation, §4.2.7.
type implicitDowngradeFailure struct {
	name               string
	installed, offered control.Version
}

func (e *implicitDowngradeFailure) Error() string {
	return fmt.Sprintf("wpkg: implicit downgrade of %s from %s to %s is forbidden", e.name, e.installed, e.offered)
}

// minimumUpgradableVersionFailure: Constraint-violation, scenario 6 / SPEC_FULL supplement.
type minimumUpgradableVersionFailure struct {
	name                       string
	installed, minimum, target control.Version
}

func (e *minimumUpgradableVersionFailure) Error() string {
	return fmt.Sprintf("wpkg: %s installed at %s is below the minimum upgradable version %s required by %s",
		e.name, e.installed, e.minimum, e.target)
}

// cycleFailure: Constraint-violation, §4.2.6.
type cycleFailure struct {
	chain []string
}

func (e *cycleFailure) Error() string {
	s := "wpkg: circular dependency: "
	for i, n := range e.chain {
		if i > 0 {
			s += " -> "
		}
		s += n
	}
	return s
}

// recursionDepthFailure: Constraint-violation; Design notes open question
// (cap recursion at an explicit depth rather than rely on stack exhaustion).
type recursionDepthFailure struct {
	depth int
}

func (e *recursionDepthFailure) Error() string {
	return fmt.Sprintf("wpkg: dependency recursion exceeded the %d-level depth cap", e.depth)
}

// unpackedPreventsImplicitFailure: Constraint-violation, §4.2.7. An
// implicit upgrade may not touch a package that is only unpacked (not yet
// configured) unless the running task is itself an unpack.
type unpackedPreventsImplicitFailure struct {
	name string
	task wpkgsession.Task
}

func (e *unpackedPreventsImplicitFailure) Error() string {
	return fmt.Sprintf("wpkg: %s is only unpacked, implicit upgrade refused under task %q", e.name, e.task)
}

// implicitSameVersionFailure: Internal. applyImplicitUpgrades returns it
// when an available candidate carries exactly the version already
// installed under its name, before any promotion to upgrade-implicit.
type implicitSameVersionFailure struct {
	name string
	vers control.Version
}

func (e *implicitSameVersionFailure) Error() string {
	return fmt.Sprintf("wpkg: internal error: %s already installed at %s, implicit upgrade promoted against itself", e.name, e.vers)
}

// indecisionFailure: two best-equal, non-identical trees; a fatal ask for
// the user to disambiguate (§4.2.5).
type indecisionFailure struct {
	names []string
}

func (e *indecisionFailure) Error() string {
	return fmt.Sprintf("wpkg: computer indecision between equally good installation plans for: %v; please disambiguate explicitly", e.names)
}

// architectureMismatchFailure: Input-invalid/Constraint-violation.
type architectureMismatchFailure struct {
	name        string
	pkg, target control.Architecture
}

func (e *architectureMismatchFailure) Error() string {
	return fmt.Sprintf("wpkg: %s has architecture %s, incompatible with target %s", e.name, e.pkg, e.target)
}
