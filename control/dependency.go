package control

import (
	"fmt"
	"strings"
)

// Dependency is one alternative in a dependency line: a package name, an
// optional version constraint, and optional architecture qualifiers
// (":arch" suffixes, e.g. "libc6:amd64").
type Dependency struct {
	Name              string
	Operator          Operator
	Version           Version
	HasVersion        bool
	ArchQualifiers    []string
}

// Line is a disjunction ("a | b | c") of alternatives.
type Line []Dependency

// Field is a conjunction of Lines, as found in a Depends/Pre-Depends/
// Conflicts/Breaks field.
type Field []Line

// ParseField parses a comma-separated dependency field value into its
// conjunction-of-disjunctions structure.
func ParseField(value string) (Field, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var field Field
	for _, clause := range splitTopLevel(value, ',') {
		line, err := parseLine(clause)
		if err != nil {
			return nil, err
		}
		field = append(field, line)
	}
	return field, nil
}

func parseLine(clause string) (Line, error) {
	var line Line
	for _, alt := range strings.Split(clause, "|") {
		dep, err := parseDependency(alt)
		if err != nil {
			return nil, err
		}
		line = append(line, dep)
	}
	return line, nil
}

func splitTopLevel(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// parseDependency parses "name [(op version)] [:arch1:arch2]".
func parseDependency(s string) (Dependency, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dependency{}, fmt.Errorf("control: empty dependency alternative")
	}

	dep := Dependency{}
	rest := s
	if idx := strings.IndexByte(rest, '('); idx >= 0 {
		end := strings.IndexByte(rest[idx:], ')')
		if end < 0 {
			return Dependency{}, fmt.Errorf("control: unterminated version constraint in %q", s)
		}
		end += idx
		constraint := strings.TrimSpace(rest[idx+1 : end])
		name := strings.TrimSpace(rest[:idx])
		rest = strings.TrimSpace(rest[end+1:])

		op, verStr, err := splitConstraint(constraint)
		if err != nil {
			return Dependency{}, fmt.Errorf("control: bad constraint %q: %w", constraint, err)
		}
		if op == OpNotEqual {
			return Dependency{}, fmt.Errorf("control: operator %s is not allowed in a control file field (%q)", op, s)
		}
		ver, err := ParseVersion(verStr)
		if err != nil {
			return Dependency{}, err
		}
		dep.Name = name
		dep.Operator = op
		dep.Version = ver
		dep.HasVersion = true
	} else {
		dep.Name = rest
		rest = ""
	}

	if rest != "" {
		for _, a := range strings.Split(strings.TrimPrefix(rest, ":"), ":") {
			if a = strings.TrimSpace(a); a != "" {
				dep.ArchQualifiers = append(dep.ArchQualifiers, a)
			}
		}
	} else if idx := strings.IndexByte(dep.Name, ':'); idx >= 0 {
		quals := dep.Name[idx+1:]
		dep.Name = dep.Name[:idx]
		for _, a := range strings.Split(quals, ":") {
			if a = strings.TrimSpace(a); a != "" {
				dep.ArchQualifiers = append(dep.ArchQualifiers, a)
			}
		}
	}

	if dep.Name == "" {
		return Dependency{}, fmt.Errorf("control: dependency alternative %q has no package name", s)
	}
	return dep, nil
}

var operators = []Operator{OpStrictLess, OpLessEqual, OpGreaterEqual, OpStrictGreater, OpNotEqual, OpEqual}

func splitConstraint(s string) (Operator, string, error) {
	for _, op := range operators {
		if strings.HasPrefix(s, string(op)) {
			return op, strings.TrimSpace(s[len(op):]), nil
		}
	}
	return "", "", fmt.Errorf("unrecognized operator in %q", s)
}

// Satisfies reports whether a candidate (name, version) satisfies this
// single alternative. Architecture qualifiers are not checked here; callers
// match those against the resolving item's own Architecture separately.
func (d Dependency) Satisfies(name string, version Version) bool {
	if d.Name != name {
		return false
	}
	if !d.HasVersion {
		return true
	}
	return d.Operator.Satisfies(version, d.Version)
}

// String renders the dependency in its control-file spelling.
func (d Dependency) String() string {
	s := d.Name
	if d.HasVersion {
		s += fmt.Sprintf(" (%s %s)", d.Operator, d.Version)
	}
	for _, a := range d.ArchQualifiers {
		s += ":" + a
	}
	return s
}

func (l Line) String() string {
	parts := make([]string, len(l))
	for i, d := range l {
		parts[i] = d.String()
	}
	return strings.Join(parts, " | ")
}

// Names returns the set of package names appearing anywhere in the field,
// used by callers (e.g. the resolver's trim phase) that need to index
// candidates by name before walking alternatives.
func (f Field) Names() []string {
	seen := map[string]bool{}
	var out []string
	for _, line := range f {
		for _, d := range line {
			if !seen[d.Name] {
				seen[d.Name] = true
				out = append(out, d.Name)
			}
		}
	}
	return out
}
