package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joeydtaylor/steeze-sinks/pkg/codec"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
	"go.uber.org/multierr"
)

// document is the on-disk catalog layout.
type document struct {
	Sinks []storedEntry `json:"sinks" toml:"sink" yaml:"sinks"`
}

type storedEntry struct {
	ID          string            `json:"id" toml:"id" yaml:"id"`
	Revision    int               `json:"revision" toml:"revision" yaml:"revision"`
	UpdatedAt   time.Time         `json:"updatedAt" toml:"updatedAt" yaml:"updatedAt"`
	Name        string            `json:"name" toml:"name" yaml:"name"`
	SinkType    sinkconf.SinkType `json:"sinkType" toml:"sinkType" yaml:"sinkType"`
	Options     any               `json:"options" toml:"options" yaml:"options"`
	Credentials any               `json:"credentials" toml:"credentials" yaml:"credentials"`
}

// File persists a catalog as a single TOML, YAML or JSON document.
// The file holds raw credentials and is written with mode 0600.
type File struct {
	mu    sync.Mutex
	path  string
	codec codec.Codec
}

func NewFile(path string) (*File, error) {
	c, err := codec.ForPath(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, codec: c}, nil
}

func (f *File) Path() string { return f.path }

// Load reads the file and re-validates every entry through reg. Entries that
// fail are skipped; their errors are combined into the returned error while
// the valid entries are still returned. A missing or empty file yields an
// empty catalog; an unreadable or undecodable file yields no catalog.
func (f *File) Load(reg *sinkconf.Registry, opts ...Option) (*Catalog, error) {
	cat := NewCatalog(opts...)

	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()
	if errors.Is(err, fs.ErrNotExist) {
		return cat, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cat, nil
	}

	var doc document
	if err := f.codec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", f.path, err)
	}

	var errs error
	for i, se := range doc.Sinks {
		rec := sinkconf.Record{
			Name:        se.Name,
			SinkType:    se.SinkType,
			Options:     se.Options,
			Credentials: se.Credentials,
		}
		cfg, err := reg.Hydrate(rec)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sink %d (%s): %w", i, se.Name, err))
			continue
		}
		out, err := cfg.Export()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sink %d (%s): %w", i, se.Name, err))
			continue
		}
		err = cat.Restore(Entry{ID: se.ID, Revision: se.Revision, UpdatedAt: se.UpdatedAt, Record: out})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sink %d (%s): %w", i, se.Name, err))
		}
	}
	return cat, errs
}

// Persist rewrites the whole file from the catalog snapshot.
func (f *File) Persist(c *Catalog) error {
	doc := document{Sinks: make([]storedEntry, 0, c.Len())}
	for e := range c.All() {
		doc.Sinks = append(doc.Sinks, storedEntry{
			ID:          e.ID,
			Revision:    e.Revision,
			UpdatedAt:   e.UpdatedAt,
			Name:        e.Record.Name,
			SinkType:    e.Record.SinkType,
			Options:     e.Record.Options,
			Credentials: e.Record.Credentials,
		})
	}
	data, err := f.codec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return writeFileAtomic(f.path, data, 0o600)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating catalog directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp catalog file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing catalog: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp catalog file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod catalog: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing catalog: %w", err)
	}
	success = true
	return nil
}
