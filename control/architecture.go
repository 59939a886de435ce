package control

import (
	"fmt"
	"strings"
)

// Architecture is the parsed (os, vendor?, processor) triple described in
// §3 "Architecture triple". Any component may be the wildcard "any"; an OS
// of "all" matches every OS unconditionally.
type Architecture struct {
	OS        string
	Vendor    string
	Processor string
}

const wildcardAny = "any"
const wildcardAll = "all"

// ParseArchitecture accepts "os-processor" or "os-vendor-processor" forms.
func ParseArchitecture(s string) (Architecture, error) {
	parts := strings.Split(s, "-")
	switch len(parts) {
	case 1:
		if parts[0] == wildcardAll {
			return Architecture{OS: wildcardAll, Vendor: wildcardAny, Processor: wildcardAny}, nil
		}
		return Architecture{}, fmt.Errorf("control: architecture %q must have at least os-processor", s)
	case 2:
		return Architecture{OS: parts[0], Vendor: "", Processor: parts[1]}, nil
	case 3:
		return Architecture{OS: parts[0], Vendor: parts[1], Processor: parts[2]}, nil
	default:
		return Architecture{}, fmt.Errorf("control: architecture %q has too many components", s)
	}
}

func (a Architecture) String() string {
	if a.OS == wildcardAll {
		return wildcardAll
	}
	if a.Vendor == "" {
		return a.OS + "-" + a.Processor
	}
	return a.OS + "-" + a.Vendor + "-" + a.Processor
}

// Matches compares a candidate's triple against the target's triple. A
// component equal to "any" matches any value; an empty vendor matches any
// vendor unless strictVendor is set; "all" in either OS position matches
// every OS.
func (a Architecture) Matches(target Architecture, strictVendor bool) bool {
	if a.OS == wildcardAll || target.OS == wildcardAll {
		// An "all" package ships no native code, so it is compatible with
		// any processor and vendor; neither is compared here.
		return true
	}
	if !componentMatches(a.OS, target.OS) {
		return false
	}
	if !componentMatches(a.Processor, target.Processor) {
		return false
	}
	if strictVendor {
		if a.Vendor != target.Vendor && a.Vendor != wildcardAny && target.Vendor != wildcardAny {
			return false
		}
	}
	return true
}

func componentMatches(a, b string) bool {
	if a == wildcardAny || b == wildcardAny {
		return true
	}
	if a == "" || b == "" {
		return true
	}
	return a == b
}
