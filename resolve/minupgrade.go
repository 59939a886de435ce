package resolve

import (
	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
)

// MinimumUpgradableVersionField is the control field name original_source
// carries that spec.md's distillation dropped (SPEC_FULL supplement,
// "Minimum-Upgradable-Version gate"): a package may declare the oldest
// installed version of itself it knows how to upgrade in place, refusing
// anything older so its postinst doesn't have to handle arbitrarily ancient
// on-disk layouts.
const MinimumUpgradableVersionField = "Minimum-Upgradable-Version"

// CheckMinimumUpgradableVersion enforces that gate: if target declares a
// Minimum-Upgradable-Version and installed is older than it, the upgrade is
// rejected outright rather than attempted and left to fail mid-configure.
func CheckMinimumUpgradableVersion(target, installed *store.Item) error {
	raw, ok := target.Fields.Get(MinimumUpgradableVersionField)
	if !ok || raw == "" {
		return nil
	}
	minVer, err := control.ParseVersion(raw)
	if err != nil {
		return err
	}
	if control.Compare(installed.Vers, minVer) < 0 {
		return &minimumUpgradableVersionFailure{
			name:      target.Name,
			installed: installed.Vers,
			minimum:   minVer,
			target:    target.Vers,
		}
	}
	return nil
}
