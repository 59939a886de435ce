// Package control parses and represents Debian-style control-file field
// maps, version strings, architecture triples and dependency expressions -
// the data model shared by every other package in this module.
package control

import (
	"bufio"
	"io"
	"net/textproto"
	"sort"
	"strings"
)

// Fields is a case-insensitive mapping from control field name to value,
// following the same net/textproto.MIMEHeader-based parse as a dpkg status
// stanza (see google-osv-scalibr's extractor/filesystem/os/dpkg parser,
// which consumes the identical grammar).
type Fields map[string]string

// Get performs a case-insensitive field lookup.
func (f Fields) Get(name string) (string, bool) {
	if v, ok := f[canonicalFieldName(name)]; ok {
		return v, true
	}
	for k, v := range f {
		if strings.EqualFold(strings.TrimSpace(k), strings.TrimSpace(name)) {
			return v, true
		}
	}
	return "", false
}

// Set stores a field under its canonical (lowercased) key.
func (f Fields) Set(name, value string) {
	f[canonicalFieldName(name)] = value
}

// Has reports whether the field is present and non-empty.
func (f Fields) Has(name string) bool {
	v, ok := f.Get(name)
	return ok && v != ""
}

func canonicalFieldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParseStanza reads one control-file stanza (a maintainer control file or
// one record of a dpkg-style multi-stanza status file) terminated by a
// blank line or EOF. Continuation lines (leading whitespace) are folded
// into the previous field, preserving embedded newlines the way a
// multi-line Description or Conffiles field expects.
func ParseStanza(r io.Reader) (Fields, error) {
	tp := textproto.NewReader(bufio.NewReader(r))
	hdr, err := tp.ReadMIMEHeader()
	if err != nil && err != io.EOF {
		return nil, err
	}
	fields := make(Fields, len(hdr))
	for k, vs := range hdr {
		fields.Set(k, strings.Join(vs, "\n"))
	}
	if len(fields) == 0 && err == io.EOF {
		return nil, io.EOF
	}
	return fields, nil
}

// ParseStanzas reads every stanza in r until EOF, as a dpkg status file does.
func ParseStanzas(r io.Reader) ([]Fields, error) {
	br := bufio.NewReader(r)
	var out []Fields
	for {
		tp := textproto.NewReader(br)
		hdr, err := tp.ReadMIMEHeader()
		if len(hdr) > 0 {
			fields := make(Fields, len(hdr))
			for k, vs := range hdr {
				fields.Set(k, strings.Join(vs, "\n"))
			}
			out = append(out, fields)
		}
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, err
		}
	}
}

// WriteStanza serializes fields back to RFC822-ish control-file form, with
// field names sorted for deterministic output (the on-disk control/status
// files are diffed and journaled, so stable serialization matters).
func WriteStanza(w io.Writer, fields Fields) error {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	bw := bufio.NewWriter(w)
	for _, k := range names {
		v := fields[k]
		lines := strings.Split(v, "\n")
		if _, err := bw.WriteString(displayName(k) + ": " + lines[0] + "\n"); err != nil {
			return err
		}
		for _, cont := range lines[1:] {
			if cont == "" {
				cont = "."
			}
			if _, err := bw.WriteString(" " + cont + "\n"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// displayName restores a conventional Capitalized-Hyphenated spelling for
// every stored (lowercase) field name, known or not: each hyphen-separated
// part gets an upper-case first letter.
func displayName(lower string) string {
	parts := strings.Split(lower, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "-")
}
