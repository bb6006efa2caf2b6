package request

import (
	"container/list"
	"slices"
)

type StoreOptions[S, ID any] struct {
	// Produces the state reported for identifiers with no entry. Called on
	// every such read; the result is never stored. Defaults to the zero S.
	DefaultState func() S

	// Maps an identifier to its canonical key. Identifiers with equal keys
	// share an entry. Defaults to JSONKey.
	Key func(ID) string
}

type record[S, E any] struct {
	key   string
	entry Entry[S, E]
}

type subscriber struct {
	fn func()
}

// Store tracks the lifecycle status of asynchronous operations, one entry
// per canonical key. A missing entry reads as StatusNone with a fresh default
// state. Transitions are not validated; any status may follow any other.
//
// Store is not safe for concurrent use.
type Store[S, ID, E any] struct {
	defaultState func() S
	key          func(ID) string

	// Entries in insertion order.
	order   *list.List
	entries map[string]*list.Element

	subscribers []*subscriber
}

func NewStore[S, ID, E any](opts StoreOptions[S, ID]) *Store[S, ID, E] {
	s := &Store[S, ID, E]{
		defaultState: opts.DefaultState,
		key:          opts.Key,
		order:        list.New(),
		entries:      make(map[string]*list.Element),
	}
	if s.defaultState == nil {
		s.defaultState = func() (zero S) { return }
	}
	if s.key == nil {
		s.key = JSONKey[ID]
	}
	return s
}

// Subscribe registers fn to be called after every mutating call, once per
// call, after the change is applied. The returned func removes fn.
func (s *Store[S, ID, E]) Subscribe(fn func()) (unsubscribe func()) {
	sub := &subscriber{fn: fn}
	s.subscribers = append(s.subscribers, sub)
	return func() {
		s.subscribers = slices.DeleteFunc(s.subscribers, func(e *subscriber) bool {
			return e == sub
		})
	}
}

func (s *Store[S, ID, E]) notify() {
	// Subscribers may unsubscribe from inside the callback.
	for _, sub := range slices.Clone(s.subscribers) {
		sub.fn()
	}
}

func (s *Store[S, ID, E]) set(key string, e Entry[S, E]) {
	if el, ok := s.entries[key]; ok {
		el.Value.(*record[S, E]).entry = e
		return
	}
	s.entries[key] = s.order.PushBack(&record[S, E]{key: key, entry: e})
}

// Get returns the entry for id, or a StatusNone entry with a fresh default
// state. Reads never create entries.
func (s *Store[S, ID, E]) Get(id ID) Entry[S, E] {
	el, ok := s.entries[s.key(id)]
	if !ok {
		return Entry[S, E]{status: StatusNone, state: s.defaultState()}
	}
	return el.Value.(*record[S, E]).entry
}

func (s *Store[S, ID, E]) GetState(id ID) S {
	return s.Get(id).state
}

// Update replaces the entry for id, creating it if needed.
func (s *Store[S, ID, E]) Update(id ID, e Entry[S, E]) {
	s.set(s.key(id), e)
	s.notify()
}

// SetStatus records status for id, keeping the current state. Any previous
// error is dropped.
func (s *Store[S, ID, E]) SetStatus(id ID, status Status) {
	s.Update(id, NewEntry[S, E](status, s.GetState(id)))
}

// SetError records StatusError with err for id, keeping the current state.
func (s *Store[S, ID, E]) SetError(id ID, err E) {
	s.Update(id, NewErrorEntry(s.GetState(id), err))
}

// SetState replaces the state for id, keeping its status and error.
func (s *Store[S, ID, E]) SetState(id ID, state S) {
	s.Update(id, s.Get(id).WithState(state))
}

// IsStatus reports whether the status of id is one of statuses. It is always
// false when no statuses are given.
func (s *Store[S, ID, E]) IsStatus(id ID, statuses ...Status) bool {
	return slices.Contains(statuses, s.Get(id).status)
}

// ForEach calls fn for every stored entry in insertion order. fn must not
// modify the store.
func (s *Store[S, ID, E]) ForEach(fn func(Entry[S, E])) {
	for el := s.order.Front(); el != nil; el = el.Next() {
		fn(el.Value.(*record[S, E]).entry)
	}
}

// RemoveWhere keeps the entries for which keep returns true and deletes the
// rest. Despite the name, a true result retains the entry. Every entry is
// visited exactly once.
func (s *Store[S, ID, E]) RemoveWhere(keep func(Entry[S, E]) bool) {
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		r := el.Value.(*record[S, E])
		if !keep(r.entry) {
			s.order.Remove(el)
			delete(s.entries, r.key)
		}
		el = next
	}
	s.notify()
}

// Delete removes the entry for id, if any.
func (s *Store[S, ID, E]) Delete(id ID) {
	key := s.key(id)
	if el, ok := s.entries[key]; ok {
		s.order.Remove(el)
		delete(s.entries, key)
	}
	s.notify()
}

func (s *Store[S, ID, E]) Reset() {
	s.order.Init()
	clear(s.entries)
	s.notify()
}

// Len returns the number of stored entries.
func (s *Store[S, ID, E]) Len() int {
	return len(s.entries)
}
