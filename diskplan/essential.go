package diskplan

import (
	"github.com/wpkg-go/wpkgar/store"
)

// EssentialFiles caches the union of every path shipped by any currently-
// installed or to-be-installed essential package, excluding the package
// under validation (§4.3 "Essential-file lookup"). The cache is built once,
// lazily, since essential packages are rare.
type EssentialFiles struct {
	paths map[string]bool
	built bool
}

// Contains reports whether path belongs to the essential-package union,
// building the cache on first use from candidates (every item in the tree
// under consideration, including already-installed ones), excluding any
// item whose name matches exclude.
func (ef *EssentialFiles) Contains(path string, candidates store.Items, fileIndex func(*store.Item) (*store.MemoryFile, error), exclude string) (bool, error) {
	if !ef.built {
		if err := ef.build(candidates, fileIndex, exclude); err != nil {
			return false, err
		}
	}
	return ef.paths[path], nil
}

func (ef *EssentialFiles) build(candidates store.Items, fileIndex func(*store.Item) (*store.MemoryFile, error), exclude string) error {
	ef.paths = map[string]bool{}
	for _, it := range candidates {
		if it.Name == exclude || !it.IsEssential() {
			continue
		}
		mf, err := fileIndex(it)
		if err != nil {
			return err
		}
		for _, e := range mf.Entries {
			ef.paths[e.Path] = true
		}
	}
	ef.built = true
	return nil
}

// Invalidate forces the next Contains call to rebuild the cache, e.g. after
// the executor changes which packages are installed.
func (ef *EssentialFiles) Invalidate() { ef.built = false }
