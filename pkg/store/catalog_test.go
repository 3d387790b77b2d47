package store

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
)

var fixed = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func rec(name string) sinkconf.Record {
	return sinkconf.Record{Name: name, SinkType: "elastic"}
}

func names(c *Catalog) []string {
	var out []string
	for e := range c.All() {
		out = append(out, e.Record.Name)
	}
	return out
}

func TestPutRejectsDuplicates(t *testing.T) {
	c := NewCatalog(WithClock(func() time.Time { return fixed }))
	e, created, err := c.Put(rec("a"), false)
	if err != nil || !created {
		t.Fatalf("Put: %v created=%v", err, created)
	}
	if e.ID == "" || e.Revision != 1 || !e.UpdatedAt.Equal(fixed) {
		t.Fatalf("entry = %+v", e)
	}
	if _, _, err := c.Put(rec("a"), false); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("duplicate err = %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d", c.Len())
	}
}

func TestPutReplaceKeepsIdentity(t *testing.T) {
	c := NewCatalog()
	first, _, _ := c.Put(rec("a"), false)
	_, _, _ = c.Put(rec("b"), false)
	next := rec("a")
	next.SinkType = "kafka"
	second, created, err := c.Put(next, true)
	if err != nil || created {
		t.Fatalf("replace: %v created=%v", err, created)
	}
	if second.ID != first.ID || second.Revision != 2 {
		t.Fatalf("replaced entry = %+v, first = %+v", second, first)
	}
	if got := names(c); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("order = %v", got)
	}
	if _, created, _ := c.Put(rec("c"), true); !created {
		t.Fatal("replace of a new name should create it")
	}
}

func TestPutEmptyName(t *testing.T) {
	if _, _, err := NewCatalog().Put(rec(" "), false); !errors.Is(err, sinkconf.ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestGetDelete(t *testing.T) {
	c := NewCatalog()
	for _, n := range []string{"a", "b", "c"} {
		if _, _, err := c.Put(rec(n), false); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := c.Get("b"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, pos, err := c.Delete("b"); err != nil || pos != 1 {
		t.Fatalf("Delete = %d, %v", pos, err)
	}
	if _, err := c.Get("b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v", err)
	}
	if _, _, err := c.Delete("b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v", err)
	}
	if got := names(c); !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("order = %v", got)
	}
	if _, _, err := c.Put(rec("b"), false); err != nil {
		t.Fatalf("name reusable after delete: %v", err)
	}
}

func TestAllIsSnapshot(t *testing.T) {
	c := NewCatalog()
	_, _, _ = c.Put(rec("a"), false)
	seq := c.All()
	_, _, _ = c.Put(rec("b"), false)
	n := 0
	for range seq {
		n++
	}
	if n != 1 {
		t.Fatalf("snapshot saw %d entries", n)
	}
}

func TestRestoreAtUndoesDelete(t *testing.T) {
	c := NewCatalog()
	for _, n := range []string{"a", "b", "c"} {
		if _, _, err := c.Put(rec(n), false); err != nil {
			t.Fatal(err)
		}
	}
	e, pos, err := c.Delete("b")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.RestoreAt(pos, e); err != nil {
		t.Fatalf("RestoreAt: %v", err)
	}
	if got := names(c); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("order = %v", got)
	}
	if got, _ := c.Get("b"); got != e {
		t.Fatalf("restored entry = %+v, want %+v", got, e)
	}
	if err := c.RestoreAt(0, e); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("RestoreAt duplicate = %v", err)
	}
	_, _, _ = c.Delete("a")
	if err := c.RestoreAt(99, Entry{Record: rec("a")}); err != nil {
		t.Fatal(err)
	}
	if got := names(c); !slices.Equal(got, []string{"b", "c", "a"}) {
		t.Fatalf("out of range position did not append: %v", got)
	}
}

func TestRestore(t *testing.T) {
	c := NewCatalog()
	if err := c.Restore(Entry{ID: "x", Revision: 7, Record: rec("a")}); err != nil {
		t.Fatal(err)
	}
	e, _ := c.Get("a")
	if e.ID != "x" || e.Revision != 7 {
		t.Fatalf("restored = %+v", e)
	}
	if err := c.Restore(Entry{Record: rec("a")}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("duplicate restore = %v", err)
	}
}

func TestConcurrentPut(t *testing.T) {
	c := NewCatalog()
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.Put(rec("same"), false); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 || c.Len() != 1 {
		t.Fatalf("wins = %d, len = %d", wins, c.Len())
	}
}

func TestResetKeepsPosition(t *testing.T) {
	c := NewCatalog()
	first, _, _ := c.Put(rec("a"), false)
	_, _, _ = c.Put(rec("b"), false)
	if _, _, err := c.Put(rec("a"), true); err != nil {
		t.Fatal(err)
	}
	if err := c.Reset(first); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, _ := c.Get("a")
	if got.Revision != 1 || !slices.Equal(names(c), []string{"a", "b"}) {
		t.Fatalf("after reset: %+v %v", got, names(c))
	}
	if err := c.Reset(Entry{Record: rec("zz")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing reset err = %v", err)
	}
}
