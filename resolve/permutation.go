package resolve

import (
	"sort"

	"github.com/wpkg-go/wpkgar/control"
	"github.com/wpkg-go/wpkgar/store"
)

// candidateQueue holds every candidate for one package name, ordered newest
// version first (mirrors golang-dep's version_queue.go, which advances a
// per-project queue of ranked versions rather than materializing every
// combination up front).
type candidateQueue struct {
	name       string
	candidates store.Items
	pos        int
}

func newCandidateQueue(name string, items store.Items) *candidateQueue {
	cp := make(store.Items, len(items))
	copy(cp, items)
	sort.SliceStable(cp, func(i, j int) bool {
		return control.Compare(cp[i].Vers, cp[j].Vers) > 0
	})
	return &candidateQueue{name: name, candidates: cp}
}

func (q *candidateQueue) current() *store.Item {
	if q.pos >= len(q.candidates) {
		return nil
	}
	return q.candidates[q.pos]
}

func (q *candidateQueue) advance() bool {
	q.pos++
	return q.pos < len(q.candidates)
}

func (q *candidateQueue) reset() { q.pos = 0 }

// Enumerator lazily walks the permutation space of a trimmed tree: one
// candidate queue per package name, advanced in a depth-first,
// rightmost-first fashion so that calling Next() repeatedly visits every
// combination without ever materializing the full cross-product (Design
// notes: "Lazy permutation enumeration, not eager cross-product").
type Enumerator struct {
	queues []*candidateQueue
	done   bool
	first  bool
}

// NewEnumerator builds an Enumerator over a trimmed tree's per-name
// candidate groups. Names with only a single candidate still get a
// single-element queue, which keeps the advance logic uniform.
func NewEnumerator(trimmed *Tree) *Enumerator {
	grouped := namesIn(trimmed.Items)
	names := make([]string, 0, len(grouped))
	for n := range grouped {
		names = append(names, n)
	}
	sort.Strings(names)

	e := &Enumerator{first: true}
	for _, n := range names {
		e.queues = append(e.queues, newCandidateQueue(n, grouped[n]))
	}
	// Precompute nothing beyond the per-name orderings above: the total
	// permutation count is the product of each queue's length, but we
	// never materialize it - only consult len() per queue when deciding
	// whether advancing one queue should roll over into the next.
	return e
}

// Next produces the next candidate tree permutation, or nil when the space
// is exhausted.
func (e *Enumerator) Next() *Tree {
	if e.done {
		return nil
	}
	if e.first {
		e.first = false
		return e.snapshot()
	}
	if !e.advance() {
		e.done = true
		return nil
	}
	return e.snapshot()
}

// advance moves to the next combination using odometer-style carry: the
// last queue advances fastest, consistent with golang-dep's solver
// preferring to hold earlier (often more constrained) selections stable
// while probing variations in the trailing ones.
func (e *Enumerator) advance() bool {
	for i := len(e.queues) - 1; i >= 0; i-- {
		if e.queues[i].advance() {
			return true
		}
		e.queues[i].reset()
	}
	return false
}

func (e *Enumerator) snapshot() *Tree {
	items := make(store.Items, 0, len(e.queues))
	for _, q := range e.queues {
		if c := q.current(); c != nil {
			items = append(items, c)
		}
	}
	return &Tree{Items: items}
}
