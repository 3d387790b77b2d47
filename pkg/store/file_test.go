package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf/builtin"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf/elastic"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf/kafka"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf/s3"
	"go.uber.org/multierr"
)

func registry(t *testing.T) *sinkconf.Registry {
	t.Helper()
	r, err := builtin.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func exported(t *testing.T) []sinkconf.Record {
	t.Helper()
	es, _ := elastic.New("prod-es")
	es.Options.Nodes = []string{"https://es1:9200", "https://es2:9200"}
	es.Options.Index = "events"
	es.Credentials = elastic.Credentials{User: "alice", Password: "s3cret"}

	k, _ := kafka.New("events-kafka")
	k.Options.Brokers = []string{"kafka-0:9092"}
	k.Options.Topic = "telemetry"
	k.Credentials = kafka.Credentials{Mechanism: kafka.MechanismScramSHA512, Username: "svc", Password: "pw"}

	b, _ := s3.New("archive")
	b.Options.Bucket = "telemetry-events"
	b.Options.UsePathStyle = true

	var out []sinkconf.Record
	for _, c := range []sinkconf.Configuration{es, k, b} {
		r, err := c.Export()
		if err != nil {
			t.Fatalf("export %s: %v", c.Identity().Name, err)
		}
		out = append(out, r)
	}
	return out
}

func TestFileRoundTrip(t *testing.T) {
	for _, ext := range []string{".toml", ".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "sinks"+ext)
			f, err := NewFile(path)
			if err != nil {
				t.Fatal(err)
			}
			cat := NewCatalog(WithClock(func() time.Time { return fixed }))
			for _, r := range exported(t) {
				if _, _, err := cat.Put(r, false); err != nil {
					t.Fatal(err)
				}
			}
			if err := f.Persist(cat); err != nil {
				t.Fatalf("Persist: %v", err)
			}
			st, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if st.Mode().Perm() != 0o600 {
				t.Fatalf("mode = %v", st.Mode().Perm())
			}

			back, err := f.Load(registry(t))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			want := make([]Entry, 0, cat.Len())
			for e := range cat.All() {
				want = append(want, e)
			}
			var got []Entry
			for e := range back.All() {
				got = append(got, e)
			}
			if len(got) != len(want) {
				t.Fatalf("loaded %d entries, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i].ID != want[i].ID || got[i].Revision != want[i].Revision || !got[i].UpdatedAt.Equal(want[i].UpdatedAt) {
					t.Errorf("entry %d bookkeeping = %+v, want %+v", i, got[i], want[i])
				}
				if !reflect.DeepEqual(got[i].Record, want[i].Record) {
					t.Errorf("entry %d record = %+v\nwant %+v", i, got[i].Record, want[i].Record)
				}
			}
		})
	}
}

func TestLoadMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	f, _ := NewFile(filepath.Join(dir, "absent.yaml"))
	cat, err := f.Load(registry(t))
	if err != nil || cat.Len() != 0 {
		t.Fatalf("missing file: len=%d err=%v", cat.Len(), err)
	}

	empty := filepath.Join(dir, "empty.toml")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	f, _ = NewFile(empty)
	cat, err = f.Load(registry(t))
	if err != nil || cat.Len() != 0 {
		t.Fatalf("empty file: len=%d err=%v", cat.Len(), err)
	}
}

const mixed = `{"sinks":[
 {"id":"a","revision":2,"updatedAt":"2026-10-19T12:00:00Z","name":"es","sinkType":"elastic",
  "options":{"nodes":["https://es1:9200"],"index":"events"},"credentials":{"user":"","password":""}},
 {"id":"b","revision":1,"updatedAt":"2026-10-19T12:00:00Z","name":"broken","sinkType":"elastic",
  "options":{"nodes":[],"index":"events"},"credentials":null},
 {"id":"c","revision":1,"updatedAt":"2026-10-19T12:00:00Z","name":"legacy","sinkType":"syslog",
  "options":{},"credentials":{}}
]}`

func TestLoadAggregatesErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sinks.json")
	if err := os.WriteFile(path, []byte(mixed), 0o600); err != nil {
		t.Fatal(err)
	}
	f, _ := NewFile(path)
	cat, err := f.Load(registry(t))
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Fatalf("got %d errors: %v", n, err)
	}
	if !errors.Is(err, sinkconf.ErrValidation) || !errors.Is(err, sinkconf.ErrUnknownSinkType) {
		t.Fatalf("error chain lacks causes: %v", err)
	}
	if cat.Len() != 1 {
		t.Fatalf("valid entries = %d", cat.Len())
	}
	e, _ := cat.Get("es")
	if e.ID != "a" || e.Revision != 2 {
		t.Fatalf("entry = %+v", e)
	}
}

func TestLoadRejectsUnknownDocumentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sinks.yaml")
	if err := os.WriteFile(path, []byte("sinks: []\nextra: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	f, _ := NewFile(path)
	if cat, err := f.Load(registry(t)); err == nil || cat != nil {
		t.Fatal("unknown top-level key accepted")
	}
}

func TestNewFileExtension(t *testing.T) {
	if _, err := NewFile("sinks.ini"); err == nil {
		t.Fatal("unsupported extension accepted")
	}
}
