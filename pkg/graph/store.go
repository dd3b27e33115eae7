package graph

import (
	"iter"
	"sync"

	"github.com/opsgraph-ai/opsgraph-engine/pkg/models"
)

// Any is the unbound marker for subject and predicate pattern positions.
const Any = ""

// AnyTerm is the unbound marker for the object pattern position.
var AnyTerm = models.Term{}

// Store is an indexed, in-memory triple store. All operations are safe for
// concurrent use; writes take the write lock, pattern iteration snapshots
// its candidate set under the read lock.
//
// Every triple carries an origin (asserted vs inferred) so derived views can
// be separated from base facts without size heuristics.
type Store struct {
	mu sync.RWMutex

	triples     map[models.Triple]models.Origin
	bySubject   map[string]map[models.Triple]struct{}
	byPredicate map[string]map[models.Triple]struct{}
	byObject    map[models.Term]map[models.Triple]struct{}
}

// NewStore creates an empty triple store.
func NewStore() *Store {
	return &Store{
		triples:     make(map[models.Triple]models.Origin),
		bySubject:   make(map[string]map[models.Triple]struct{}),
		byPredicate: make(map[string]map[models.Triple]struct{}),
		byObject:    make(map[models.Term]map[models.Triple]struct{}),
	}
}

// Add inserts an asserted triple. Insertion is idempotent; re-adding an
// existing triple never changes the store's size or the triple's origin.
func (s *Store) Add(t models.Triple) {
	s.AddWithOrigin(t, models.OriginAsserted)
}

// AddInferred inserts a triple with inferred origin.
func (s *Store) AddInferred(t models.Triple) {
	s.AddWithOrigin(t, models.OriginInferred)
}

// AddWithOrigin inserts a triple with an explicit origin. An existing
// triple keeps its original origin: a fact asserted by the builder never
// gets demoted to inferred by a later reasoning pass.
func (s *Store) AddWithOrigin(t models.Triple, origin models.Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.triples[t]; ok {
		return
	}
	s.triples[t] = origin
	index(s.bySubject, t.Subject, t)
	index(s.byPredicate, t.Predicate, t)
	index(s.byObject, t.Object, t)
}

// Remove deletes a triple. Removing an absent triple is a no-op.
func (s *Store) Remove(t models.Triple) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.triples[t]; !ok {
		return
	}
	delete(s.triples, t)
	unindex(s.bySubject, t.Subject, t)
	unindex(s.byPredicate, t.Predicate, t)
	unindex(s.byObject, t.Object, t)
}

// Contains reports whether the triple is present.
func (s *Store) Contains(t models.Triple) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.triples[t]
	return ok
}

// Origin returns the triple's origin and whether it is present.
func (s *Store) Origin(t models.Triple) (models.Origin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.triples[t]
	return o, ok
}

// Size returns the number of stored triples.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.triples)
}

// Pattern returns a lazy sequence of triples matching the given pattern.
// Use Any (subject/predicate) and AnyTerm (object) for unbound positions.
// Iteration order is unspecified; callers needing determinism sort.
func (s *Store) Pattern(subject, predicate string, object models.Term) iter.Seq[models.Triple] {
	return func(yield func(models.Triple) bool) {
		for _, t := range s.MatchAll(subject, predicate, object) {
			if !yield(t) {
				return
			}
		}
	}
}

// MatchAll returns all triples matching the pattern as a slice. The
// smallest bound index drives the scan.
func (s *Store) MatchAll(subject, predicate string, object models.Term) []models.Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := s.candidateSet(subject, predicate, object)
	out := make([]models.Triple, 0, len(candidates))
	for t := range candidates {
		if subject != Any && t.Subject != subject {
			continue
		}
		if predicate != Any && t.Predicate != predicate {
			continue
		}
		if object != AnyTerm && t.Object != object {
			continue
		}
		out = append(out, t)
	}
	return out
}

// candidateSet picks the narrowest index for the bound positions. Callers
// must hold at least the read lock.
func (s *Store) candidateSet(subject, predicate string, object models.Term) map[models.Triple]struct{} {
	var best map[models.Triple]struct{}
	bestSize := -1

	consider := func(set map[models.Triple]struct{}) {
		if bestSize == -1 || len(set) < bestSize {
			best = set
			bestSize = len(set)
		}
	}

	if subject != Any {
		consider(s.bySubject[subject])
	}
	if predicate != Any {
		consider(s.byPredicate[predicate])
	}
	if object != AnyTerm {
		consider(s.byObject[object])
	}

	if bestSize >= 0 {
		return best
	}

	// Fully unbound: scan everything.
	all := make(map[models.Triple]struct{}, len(s.triples))
	for t := range s.triples {
		all[t] = struct{}{}
	}
	return all
}

// All returns every triple with its origin.
func (s *Store) All() map[models.Triple]models.Origin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.Triple]models.Origin, len(s.triples))
	for t, o := range s.triples {
		out[t] = o
	}
	return out
}

// Clone returns an independent copy of the store, origins included.
// Rebuilds and reasoning passes operate on clones so in-flight readers never
// observe partial state.
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := NewStore()
	for t, o := range s.triples {
		c.triples[t] = o
		index(c.bySubject, t.Subject, t)
		index(c.byPredicate, t.Predicate, t)
		index(c.byObject, t.Object, t)
	}
	return c
}

// AssertedOnly returns a copy holding only asserted triples.
func (s *Store) AssertedOnly() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := NewStore()
	for t, o := range s.triples {
		if o != models.OriginAsserted {
			continue
		}
		c.triples[t] = o
		index(c.bySubject, t.Subject, t)
		index(c.byPredicate, t.Predicate, t)
		index(c.byObject, t.Object, t)
	}
	return c
}

// InferredCount returns the number of inferred triples.
func (s *Store) InferredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, o := range s.triples {
		if o == models.OriginInferred {
			n++
		}
	}
	return n
}

// Subjects returns the distinct subject URIs in the store.
func (s *Store) Subjects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.bySubject))
	for subj := range s.bySubject {
		out = append(out, subj)
	}
	return out
}

func index[K comparable](idx map[K]map[models.Triple]struct{}, key K, t models.Triple) {
	set, ok := idx[key]
	if !ok {
		set = make(map[models.Triple]struct{})
		idx[key] = set
	}
	set[t] = struct{}{}
}

func unindex[K comparable](idx map[K]map[models.Triple]struct{}, key K, t models.Triple) {
	if set, ok := idx[key]; ok {
		delete(set, t)
		if len(set) == 0 {
			delete(idx, key)
		}
	}
}
