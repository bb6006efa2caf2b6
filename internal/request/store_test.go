package request

import (
	"errors"
	"slices"
	"testing"
)

var errTest = errors.New("test error")

type testStore = Store[[]int, string, error]

func newTestStore() *testStore {
	return NewStore[[]int, string, error](StoreOptions[[]int, string]{
		DefaultState: func() []int { return []int{} },
	})
}

func TestStore_Missing(t *testing.T) {
	calls := 0
	s := NewStore[int, string, error](StoreOptions[int, string]{
		DefaultState: func() int {
			calls++
			return calls
		},
	})

	e := s.Get("a")
	if e.Status() != StatusNone {
		t.Errorf("Status() %v != %v", e.Status(), StatusNone)
	}
	if e.State() != 1 {
		t.Errorf("State() %d != 1", e.State())
	}
	if _, ok := e.Err(); ok {
		t.Error("Err() ok for missing entry")
	}
	// Each read of a missing key calls the factory again.
	if st := s.GetState("a"); st != 2 {
		t.Errorf("GetState() %d != 2", st)
	}
	if s.Len() != 0 {
		t.Errorf("Len() %d != 0 after reads", s.Len())
	}
}

func TestStore_NilDefaultState(t *testing.T) {
	s := NewStore[*int, string, error](StoreOptions[*int, string]{})
	if st := s.GetState("a"); st != nil {
		t.Errorf("GetState() %v != nil", st)
	}
}

func TestStore_SetStatus(t *testing.T) {
	s := newTestStore()
	s.SetStatus("a", StatusInProgress)
	if st := s.GetState("a"); st == nil || len(st) != 0 {
		t.Errorf("GetState() %v != []", st)
	}
	if !s.IsStatus("a", StatusInProgress) {
		t.Errorf("IsStatus(in progress) false")
	}

	s.SetStatus("a", StatusDone)
	if !s.IsStatus("a", StatusDone) {
		t.Errorf("IsStatus(done) false")
	}
	if s.IsStatus("a", StatusError) {
		t.Errorf("IsStatus(error) true")
	}
	if !s.IsStatus("a", StatusError, StatusNotFound, StatusDone) {
		t.Errorf("IsStatus(error, not found, done) false")
	}
	if s.IsStatus("a") {
		t.Errorf("IsStatus() with no statuses true")
	}
	if s.IsStatus("missing") {
		t.Errorf("IsStatus() with no statuses true for missing key")
	}
	if !s.IsStatus("missing", StatusNone) {
		t.Errorf("IsStatus(none) false for missing key")
	}
}

func TestStore_SetStatusKeepsState(t *testing.T) {
	s := newTestStore()
	s.SetState("a", []int{1, 2})
	if !s.IsStatus("a", StatusNone) {
		t.Errorf("SetState on missing key: status %v != none", s.Get("a").Status())
	}
	s.SetStatus("a", StatusNotFound)
	if st := s.GetState("a"); !slices.Equal(st, []int{1, 2}) {
		t.Errorf("GetState() %v != [1 2]", st)
	}
}

func TestStore_Error(t *testing.T) {
	s := newTestStore()
	s.SetStatus("a", StatusInProgress)
	s.SetError("a", errTest)

	e := s.Get("a")
	if e.Status() != StatusError {
		t.Errorf("Status() %v != %v", e.Status(), StatusError)
	}
	if err, ok := e.Err(); !ok || err != errTest {
		t.Errorf("Err() (%v, %v) != (%v, true)", err, ok, errTest)
	}

	s.SetState("a", []int{3})
	e = s.Get("a")
	if e.Status() != StatusError {
		t.Errorf("SetState changed status to %v", e.Status())
	}
	if err, ok := e.Err(); !ok || err != errTest {
		t.Errorf("SetState changed error to (%v, %v)", err, ok)
	}
	if !slices.Equal(e.State(), []int{3}) {
		t.Errorf("State() %v != [3]", e.State())
	}

	// A plain status drops the error.
	s.SetStatus("a", StatusInProgress)
	if err, ok := s.Get("a").Err(); ok {
		t.Errorf("Err() (%v, true) after SetStatus(in progress)", err)
	}
}

func TestStore_Update(t *testing.T) {
	s := newTestStore()
	s.Update("a", NewEntry[[]int, error](StatusDone, []int{7}))
	e := s.Get("a")
	if e.Status() != StatusDone || !slices.Equal(e.State(), []int{7}) {
		t.Errorf("Get() (%v, %v) != (done, [7])", e.Status(), e.State())
	}

	s.Update("a", NewErrorEntry([]int{8}, errTest))
	e = s.Get("a")
	if err, ok := e.Err(); e.Status() != StatusError || !ok || err != errTest {
		t.Errorf("Get() (%v, %v, %v) != (error, %v, true)", e.Status(), err, ok, errTest)
	}
	if s.Len() != 1 {
		t.Errorf("Len() %d != 1", s.Len())
	}
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore()
	s.SetStatus("a", StatusDone)
	s.SetState("a", []int{1})
	s.Delete("a")
	s.Delete("never-written")

	e := s.Get("a")
	if e.Status() != StatusNone || e.State() == nil || len(e.State()) != 0 {
		t.Errorf("Get() after Delete (%v, %v) != (none, [])", e.Status(), e.State())
	}
	if s.Len() != 0 {
		t.Errorf("Len() %d != 0", s.Len())
	}
}

func TestStore_Reset(t *testing.T) {
	s := newTestStore()
	for _, id := range []string{"a", "b", "c"} {
		s.SetStatus(id, StatusDone)
	}
	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Len() %d != 0", s.Len())
	}
	for _, id := range []string{"a", "b", "c"} {
		if !s.IsStatus(id, StatusNone) {
			t.Errorf("IsStatus(%s, none) false after Reset", id)
		}
	}
}

func TestStore_ForEachOrder(t *testing.T) {
	s := newTestStore()
	ids := []string{"c", "a", "b", "d"}
	for i, id := range ids {
		s.SetState(id, []int{i})
	}
	// Overwriting keeps the first insertion position.
	s.SetStatus("c", StatusDone)

	var got []int
	s.ForEach(func(e Entry[[]int, error]) {
		got = append(got, e.State()[0])
	})
	if !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("ForEach order %v != [0 1 2 3]", got)
	}
}

func TestStore_RemoveWhere(t *testing.T) {
	s := newTestStore()
	statuses := []Status{StatusDone, StatusError, StatusDone, StatusInProgress, StatusNotFound, StatusDone}
	ids := []string{"a", "b", "c", "d", "e", "f"}
	for i, id := range ids {
		s.Update(id, NewEntry[[]int, error](statuses[i], []int{i}))
	}

	visited := 0
	s.RemoveWhere(func(e Entry[[]int, error]) bool {
		visited++
		return e.Status() == StatusDone
	})
	if visited != len(ids) {
		t.Errorf("RemoveWhere visited %d != %d", visited, len(ids))
	}
	if s.Len() != 3 {
		t.Errorf("Len() %d != 3", s.Len())
	}
	for i, id := range ids {
		kept := !s.IsStatus(id, StatusNone)
		if kept != (statuses[i] == StatusDone) {
			t.Errorf("entry %s kept %v, status %v", id, kept, statuses[i])
		}
	}

	var got []int
	s.ForEach(func(e Entry[[]int, error]) {
		got = append(got, e.State()[0])
	})
	if !slices.Equal(got, []int{0, 2, 5}) {
		t.Errorf("remaining %v != [0 2 5]", got)
	}

	s.RemoveWhere(func(Entry[[]int, error]) bool { return false })
	if s.Len() != 0 {
		t.Errorf("Len() %d != 0 after removing all", s.Len())
	}
}

func TestStore_Subscribe(t *testing.T) {
	s := newTestStore()
	notified := 0
	var seen Status
	unsubscribe := s.Subscribe(func() {
		notified++
		seen = s.Get("a").Status()
	})

	s.SetStatus("a", StatusInProgress)
	if notified != 1 {
		t.Errorf("notifications %d != 1", notified)
	}
	if seen != StatusInProgress {
		t.Errorf("subscriber saw %v before the update was applied", seen)
	}

	s.SetError("a", errTest)
	s.SetState("a", []int{1})
	s.Update("b", NewEntry[[]int, error](StatusDone, nil))
	s.RemoveWhere(func(Entry[[]int, error]) bool { return true })
	s.Delete("b")
	s.Reset()
	if notified != 7 {
		t.Errorf("notifications %d != 7", notified)
	}

	s.Get("a")
	s.IsStatus("a", StatusDone)
	s.ForEach(func(Entry[[]int, error]) {})
	if notified != 7 {
		t.Errorf("reads notified: %d != 7", notified)
	}

	unsubscribe()
	s.SetStatus("a", StatusDone)
	if notified != 7 {
		t.Errorf("notified after unsubscribe: %d != 7", notified)
	}
}

type compositeID struct {
	Table string
	Page  int
}

func TestStore_StructuralKeys(t *testing.T) {
	s := NewStore[string, compositeID, error](StoreOptions[string, compositeID]{})
	s.SetState(compositeID{"rows", 1}, "x")
	if st := s.GetState(compositeID{"rows", 1}); st != "x" {
		t.Errorf("GetState() %q != x", st)
	}
	if st := s.GetState(compositeID{"rows", 2}); st != "" {
		t.Errorf("GetState() %q != \"\"", st)
	}

	p := &compositeID{"rows", 1}
	ps := NewStore[string, *compositeID, error](StoreOptions[string, *compositeID]{})
	ps.SetStatus(p, StatusDone)
	if !ps.IsStatus(&compositeID{"rows", 1}, StatusDone) {
		t.Error("distinct pointers to equal values do not share an entry")
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		s   Status
		exp string
	}{
		{StatusNone, "none"},
		{StatusInProgress, "in progress"},
		{StatusDone, "done"},
		{StatusError, "error"},
		{StatusNotFound, "not found"},
		{Status(42), "Status(42)"},
	}
	for _, tc := range tests {
		if tc.s.String() != tc.exp {
			t.Errorf("String() %q != %q", tc.s.String(), tc.exp)
		}
	}
}
