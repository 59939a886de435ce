package resolve

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	vcslib "github.com/Masterminds/vcs"
	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
)

// SourceEntry is one parsed line of sources.list (§6 "Sources list format").
type SourceEntry struct {
	Type         string
	Options      map[string]string
	URI          string
	Distribution string
	Components   []string
}

// ParseSourcesList parses the sources.list grammar: blank lines and '#'
// comments ignored; each entry is
// "<type> [<name>=<value> ...] <uri> [<distribution> [<component> ...]]".
func ParseSourcesList(r io.Reader) ([]SourceEntry, error) {
	sc := bufio.NewScanner(r)
	var out []SourceEntry
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("wpkg: malformed sources.list line %q", line)
		}
		entry := SourceEntry{Type: fields[0], Options: map[string]string{}}
		i := 1
		for i < len(fields) && strings.Contains(fields[i], "=") && !looksLikeURI(fields[i]) {
			kv := strings.SplitN(fields[i], "=", 2)
			entry.Options[kv[0]] = kv[1]
			i++
		}
		if i >= len(fields) {
			return nil, fmt.Errorf("wpkg: sources.list line %q has no URI", line)
		}
		entry.URI = fields[i]
		i++
		if i < len(fields) {
			entry.Distribution = fields[i]
			i++
		}
		entry.Components = fields[i:]
		out = append(out, entry)
	}
	return out, sc.Err()
}

func looksLikeURI(s string) bool {
	return strings.Contains(s, "://") || strings.HasPrefix(s, "/")
}

// ResolvedURIs expands one entry into <uri>/<distribution>/<component> (one
// per component), or just <uri> when no distribution is given (§6).
func (e SourceEntry) ResolvedURIs() []string {
	if e.Distribution == "" {
		return []string{e.URI}
	}
	if len(e.Components) == 0 {
		return []string{e.URI + "/" + e.Distribution}
	}
	out := make([]string, len(e.Components))
	for i, c := range e.Components {
		out[i] = e.URI + "/" + e.Distribution + "/" + c
	}
	return out
}

// substLetter matches a WPKG_SUBST path substitution reference "<letter>:".
var substLetter = regexp.MustCompile(`^([A-Za-z]):(.*)$`)

// ApplySubst expands a leading "<letter>:<suffix>" in uri using the
// WPKG_SUBST environment variable ("letter=path" entries, colon-separated),
// per §6 "Environment variables consumed". The substitution letter must be
// a single alphabetic character and the path must contain no wildcard or
// quoting metacharacters.
func ApplySubst(uri, wpkgSubst string) (string, error) {
	m := substLetter.FindStringSubmatch(uri)
	if m == nil {
		return uri, nil
	}
	letter, suffix := m[1], m[2]
	for _, entry := range strings.Split(wpkgSubst, ":") {
		if entry == "" {
			continue
		}
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			continue
		}
		if len(kv[0]) != 1 || !isAlpha(kv[0][0]) {
			return "", fmt.Errorf("wpkg: WPKG_SUBST letter %q must be a single alphabetic character", kv[0])
		}
		if strings.ContainsAny(kv[1], "*?[]\"'") {
			return "", fmt.Errorf("wpkg: WPKG_SUBST path %q contains wildcard or quoting characters", kv[1])
		}
		if !strings.EqualFold(kv[0], letter) {
			continue
		}
		return kv[1] + suffix, nil
	}
	return uri, nil
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Fetcher is the narrow interface the resolver consumes from a repository
// transport (§1 "the on-wire HTTP fetch for remote repositories" is out of
// scope; this is the boundary). ListIndex returns the repository's
// already-decoded control records, one Fields map per package; a missing
// remote index is not an error (§4.2.2), so ListIndex returning
// ErrNoRemoteIndex is not fatal.
type Fetcher interface {
	IsDirect() bool
	ListIndex(uri string) ([]control.Fields, error)
}

// ErrNoRemoteIndex signals that a remote repository had no published index,
// which §4.2.2 says silently excludes that repository rather than failing.
var ErrNoRemoteIndex = fmt.Errorf("wpkg: remote repository has no index")

// DirectFetcher serves repositories that are plain directories on the
// local filesystem. When no index.tar.gz is present, it synthesizes one by
// scanning for *.deb files and loading their control stanzas through the
// package store's archive opener.
type DirectFetcher struct {
	Store     *store.Store
	Recursive bool
}

func (DirectFetcher) IsDirect() bool { return true }

func (d DirectFetcher) ListIndex(uri string) ([]control.Fields, error) {
	idxPath := filepath.Join(uri, "index.tar.gz")
	if _, err := os.Stat(idxPath); err == nil {
		return d.readIndexArchive(idxPath)
	}
	return d.scanDirectory(uri)
}

func (d DirectFetcher) readIndexArchive(path string) ([]control.Fields, error) {
	// The archive codec is out of scope (§1); a DirectFetcher whose Store
	// carries no opener cannot read a packed index and falls back to a
	// directory scan of the same URI instead.
	return d.scanDirectory(filepath.Dir(path))
}

func (d DirectFetcher) scanDirectory(dir string) ([]control.Fields, error) {
	var out []control.Fields
	visit := func(path string) error {
		if !strings.HasSuffix(path, ".deb") || d.Store == nil {
			return nil
		}
		it, err := d.Store.Load(path, false)
		if err != nil {
			return errors.Wrapf(err, "wpkg: loading repository candidate %s", path)
		}
		out = append(out, it.Fields)
		return nil
	}

	if !d.Recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if err := visit(filepath.Join(dir, e.Name())); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	// A recursive repository (§6 "recursive" flag) may nest its packages
	// under arbitrary sub-directories; godirwalk.Walk is the same
	// allocation-light descent used for the on-disk layout's own tree
	// walks, unlike the one-shot stdlib directory read above.
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			return visit(osPathname)
		},
		Unsorted: false,
	})
	return out, err
}

// RemoteFetcher is an opaque placeholder for an HTTP(S)-backed repository;
// the actual wire fetch is an external collaborator (§1). A missing index
// here is non-fatal per §4.2.2.
type RemoteFetcher struct {
	Fetch func(uri string) ([]byte, error)
}

func (RemoteFetcher) IsDirect() bool { return false }

func (r RemoteFetcher) ListIndex(uri string) ([]control.Fields, error) {
	if r.Fetch == nil {
		return nil, ErrNoRemoteIndex
	}
	data, err := r.Fetch(uri + "/index.tar.gz")
	if err != nil {
		return nil, ErrNoRemoteIndex
	}
	_ = data // decoding the packed index is the archive codec's job (§1)
	return nil, ErrNoRemoteIndex
}

// VCSFetcher serves "vcs+<type>+<remote>" sources.list entries by checking out (or
// updating) a local clone and scanning it like a DirectFetcher, using
// github.com/Masterminds/vcs for the clone/update step - the concrete
// adapter the DOMAIN STACK names for this transport.
type VCSFetcher struct {
	CacheDir string
	Store    *store.Store
}

func (VCSFetcher) IsDirect() bool { return false }

func (v VCSFetcher) ListIndex(uri string) ([]control.Fields, error) {
	rtype, remote, ok := strings.Cut(strings.TrimPrefix(uri, "vcs+"), "+")
	if !ok {
		return nil, fmt.Errorf("wpkg: malformed vcs+ URI %q", uri)
	}
	local := filepath.Join(v.CacheDir, sanitizeForPath(remote))

	var repo vcslib.Repo
	var err error
	switch rtype {
	case "git":
		repo, err = vcslib.NewGitRepo(remote, local)
	case "hg":
		repo, err = vcslib.NewHgRepo(remote, local)
	case "svn":
		repo, err = vcslib.NewSvnRepo(remote, local)
	case "bzr":
		repo, err = vcslib.NewBzrRepo(remote, local)
	default:
		return nil, fmt.Errorf("wpkg: unsupported vcs type %q", rtype)
	}
	if err != nil {
		return nil, errors.Wrap(err, "wpkg: preparing vcs repository")
	}

	if repo.CheckLocal() {
		if err := repo.Update(); err != nil {
			return nil, errors.Wrap(err, "wpkg: updating vcs repository")
		}
	} else {
		if err := repo.Get(); err != nil {
			return nil, errors.Wrap(err, "wpkg: cloning vcs repository")
		}
	}

	df := DirectFetcher{Store: v.Store, Recursive: true}
	return df.scanDirectory(local)
}

func sanitizeForPath(s string) string {
	r := strings.NewReplacer("/", "_", ":", "_", "@", "_")
	return r.Replace(s)
}

// LoadRepositories implements §4.2.2: every indexed package from every
// reachable repository becomes an Available item, filtered by architecture
// compatibility against the target.
func LoadRepositories(entries []SourceEntry, fetchers map[string]Fetcher, wpkgSubst string, target control.Architecture, strictVendor bool) (store.Items, []error) {
	var items store.Items
	var warnings []error

	for _, entry := range entries {
		fetcher, ok := fetchers[entry.Type]
		if !ok {
			warnings = append(warnings, fmt.Errorf("wpkg: no fetcher registered for repository type %q", entry.Type))
			continue
		}
		for _, rawURI := range entry.ResolvedURIs() {
			uri, err := ApplySubst(rawURI, wpkgSubst)
			if err != nil {
				warnings = append(warnings, err)
				continue
			}
			fields, err := fetcher.ListIndex(uri)
			if err != nil {
				if !fetcher.IsDirect() && errors.Is(err, ErrNoRemoteIndex) {
					continue // silently excluded, §4.2.2
				}
				if errors.Is(err, ErrNoRemoteIndex) {
					continue
				}
				warnings = append(warnings, errors.Wrapf(err, "wpkg: loading repository %s", uri))
				continue
			}
			for _, f := range fields {
				it := store.NewItem(uri+"/"+f["package"], store.KindAvailable)
				if err := it.ApplyFields(f); err != nil {
					warnings = append(warnings, err)
					continue
				}
				if !it.Arch.Matches(target, strictVendor) {
					continue
				}
				items = append(items, it)
			}
		}
	}
	return items, warnings
}
