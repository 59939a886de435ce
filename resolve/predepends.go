package resolve

import (
	"fmt"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
	"github.com/wpkg-go/wpkgar/wpkgsession"
)

// CheckPreDependencies implements §4.2.1: every explicit item's
// Pre-Depends field must already be fully configured on the target.
// Pre-dependencies are never satisfied by implicit installation from a
// repository - this check runs before any repository is loaded (§5
// Ordering guarantees (a)).
func CheckPreDependencies(sess *wpkgsession.Session, explicit store.Items, installed store.Items) error {
	for _, it := range explicit {
		field, err := it.DependencyField("Pre-Depends")
		if err != nil {
			return err
		}
		for _, line := range field {
			if err := checkPreDependencyLine(sess, it, line, installed); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkPreDependencyLine walks the pipe-separated alternatives of one
// Pre-Depends line; the line is satisfied as soon as one alternative is, and
// fails with the first alternative's diagnosis otherwise.
func checkPreDependencyLine(sess *wpkgsession.Session, dependent *store.Item, line control.Line, installed store.Items) error {
	var firstErr error
	for _, dep := range line {
		if err := checkPreDependencyAlternative(sess, dependent, dep, installed); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return nil
	}
	return firstErr
}

func checkPreDependencyAlternative(sess *wpkgsession.Session, dependent *store.Item, dep control.Dependency, installed store.Items) error {
	target := installed.ByName(dep.Name)
	if target == nil {
		if sess.Flags.Has(wpkgsession.ForceDepends) {
			return nil
		}
		return &preDependencyFailure{dependent: dependent.Name, dep: dep, reason: "package is not installed"}
	}
	if !dep.Satisfies(target.Name, target.Vers) {
		if sess.Flags.Has(wpkgsession.ForceDependsVersion) {
			return nil
		}
		return &preDependencyFailure{dependent: dependent.Name, dep: dep, reason: fmt.Sprintf("installed version %s does not satisfy constraint", target.Vers)}
	}
	if target.OriginalStatus.IsFullyConfigured() {
		return nil
	}
	if target.OriginalStatus == store.StatusUnpacked {
		if sess.Flags.Has(wpkgsession.ForceConfigureAny) {
			target.Kind = store.KindConfigure
			return nil
		}
		return &preDependencyFailure{dependent: dependent.Name, dep: dep, reason: "package is only unpacked, not configured"}
	}
	if sess.Flags.Has(wpkgsession.ForceDepends) {
		return nil
	}
	return &preDependencyFailure{dependent: dependent.Name, dep: dep, reason: fmt.Sprintf("package status is %s", target.OriginalStatus)}
}
