// Package admin implements the sink configuration use cases behind the HTTP
// API: describe types, validate drafts, and save, list and delete records.
package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/joeydtaylor/steeze-sinks/pkg/backend"
	"github.com/joeydtaylor/steeze-sinks/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
	"github.com/joeydtaylor/steeze-sinks/pkg/store"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Persister writes the whole catalog after each change. *store.File is one.
type Persister interface {
	Persist(c *store.Catalog) error
}

// Deps are the collaborators of a Service. Registry and Catalog are required.
type Deps struct {
	Registry  *sinkconf.Registry
	Catalog   *store.Catalog
	Persister Persister         // nil keeps the catalog in memory only
	Publisher backend.Publisher // nil publishes nowhere
	Logger    *zap.Logger
	Metrics   *metrics.Domain
}

type Service struct {
	reg     *sinkconf.Registry
	cat     *store.Catalog
	persist Persister
	pub     backend.Publisher
	log     *zap.Logger
	metrics *metrics.Domain

	// serializes catalog mutations with their persistence and rollback
	mu sync.Mutex
}

func New(d Deps) (*Service, error) {
	if d.Registry == nil || d.Catalog == nil {
		return nil, errors.New("admin: registry and catalog are required")
	}
	if d.Publisher == nil {
		d.Publisher = backend.Noop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	s := &Service{
		reg:     d.Registry,
		cat:     d.Catalog,
		persist: d.Persister,
		pub:     d.Publisher,
		log:     d.Logger,
		metrics: d.Metrics,
	}
	s.metrics.SetConfigured(s.cat.Len())
	return s, nil
}

// Types lists the registered sink types in registration order.
func (s *Service) Types() []sinkconf.Descriptor {
	return slices.Collect(s.reg.Descriptors())
}

// Decode builds a draft configuration from a JSON record.
func (s *Service) Decode(body []byte) (sinkconf.Configuration, error) {
	return s.reg.Decode(body)
}

// Report is the outcome of validating a draft.
type Report struct {
	Valid      bool                `json:"valid"`
	SinkType   sinkconf.SinkType   `json:"sinkType"`
	Violations sinkconf.Violations `json:"violations"`
}

// Validate decodes body and reports every violation without storing anything.
func (s *Service) Validate(body []byte) (Report, error) {
	cfg, err := s.Decode(body)
	if err != nil {
		return Report{}, err
	}
	v := cfg.Validate()
	if v == nil {
		v = sinkconf.Violations{}
	}
	s.metrics.ObserveViolations(cfg.Type().String(), v.Paths())
	return Report{Valid: len(v) == 0, SinkType: cfg.Type(), Violations: v}, nil
}

// Save exports cfg into the catalog. With replace=false an existing name is
// rejected. On replace, secrets sent back still masked keep their stored
// value. The change is persisted before it is published; a persistence
// failure leaves the catalog as it was. Publish failures are logged only.
func (s *Service) Save(ctx context.Context, cfg sinkconf.Configuration, replace bool) (store.Entry, bool, error) {
	t := cfg.Type().String()
	rec, err := cfg.Export()
	if err != nil {
		var ve *sinkconf.ValidationError
		if errors.As(err, &ve) {
			s.metrics.ObserveViolations(t, ve.Violations.Paths())
		}
		s.metrics.ObserveExport(t, metrics.OutcomeInvalid)
		return store.Entry{}, false, err
	}

	s.mu.Lock()
	prev, perr := s.cat.Get(rec.Name)
	if replace && perr == nil {
		rec = rec.Unredacted(prev.Record)
	}
	e, created, err := s.cat.Put(rec, replace)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, store.ErrDuplicateName) {
			s.metrics.ObserveExport(t, metrics.OutcomeConflict)
		}
		return store.Entry{}, false, err
	}
	if err := s.persistLocked(); err != nil {
		if created {
			_, _, _ = s.cat.Delete(rec.Name)
		} else {
			_ = s.cat.Reset(prev)
		}
		s.mu.Unlock()
		s.log.Error("persist catalog failed", zap.String("name", rec.Name), zap.String("sinkType", t), zap.Error(err))
		return store.Entry{}, false, fmt.Errorf("persist catalog: %w", err)
	}
	n := s.cat.Len()
	s.mu.Unlock()

	s.metrics.ObserveExport(t, metrics.OutcomeOK)
	s.metrics.SetConfigured(n)
	s.log.Info("sink saved",
		zap.String("name", rec.Name),
		zap.String("sinkType", t),
		zap.Int("revision", e.Revision),
		zap.Bool("created", created),
	)
	s.publish(ctx, rec)
	return redacted(e), created, nil
}

// List returns every entry in insertion order with credentials masked.
func (s *Service) List() []store.Entry {
	out := make([]store.Entry, 0, s.cat.Len())
	for e := range s.cat.All() {
		out = append(out, redacted(e))
	}
	return out
}

// Get returns one entry with credentials masked.
func (s *Service) Get(name string) (store.Entry, error) {
	e, err := s.cat.Get(name)
	if err != nil {
		return store.Entry{}, err
	}
	return redacted(e), nil
}

// Delete removes name, persists the catalog and retracts the record from the
// backend.
func (s *Service) Delete(ctx context.Context, name string) (store.Entry, error) {
	s.mu.Lock()
	e, pos, err := s.cat.Delete(name)
	if err != nil {
		s.mu.Unlock()
		return store.Entry{}, err
	}
	if err := s.persistLocked(); err != nil {
		if rerr := s.cat.RestoreAt(pos, e); rerr != nil {
			s.log.Error("restore after failed delete", zap.String("name", name), zap.Error(rerr))
		}
		s.mu.Unlock()
		s.log.Error("persist catalog failed", zap.String("name", name), zap.Error(err))
		return store.Entry{}, fmt.Errorf("persist catalog: %w", err)
	}
	n := s.cat.Len()
	s.mu.Unlock()

	s.metrics.SetConfigured(n)
	s.log.Info("sink deleted", zap.String("name", name), zap.String("sinkType", e.Record.SinkType.String()))
	if err := s.pub.Retract(ctx, name, e.Record.SinkType); err != nil {
		s.log.Warn("retract failed", zap.String("name", name), zap.Error(err))
		s.metrics.ObserveExport(e.Record.SinkType.String(), metrics.OutcomePublishFailed)
	}
	return redacted(e), nil
}

// Seed adds records that are not catalogued yet, e.g. from the service
// manifest. Every record is re-validated; invalid ones are skipped and their
// errors returned together.
func (s *Service) Seed(recs []sinkconf.Record) error {
	var errs error
	added := 0

	s.mu.Lock()
	for i, r := range recs {
		if _, err := s.cat.Get(r.Name); err == nil {
			continue
		}
		rec, err := s.export(r)
		if err == nil {
			_, _, err = s.cat.Put(rec, false)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("seed %d (%s): %w", i, r.Name, err))
			continue
		}
		added++
	}
	if added > 0 {
		if err := s.persistLocked(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("persist catalog: %w", err))
		}
	}
	n := s.cat.Len()
	s.mu.Unlock()

	s.metrics.SetConfigured(n)
	if added > 0 {
		s.log.Info("seeded sinks", zap.Int("added", added), zap.Int("configured", n))
	}
	return errs
}

// Sync republishes every catalogued record, e.g. after a backend restart.
func (s *Service) Sync(ctx context.Context) error {
	var errs error
	for e := range s.cat.All() {
		if err := s.publish(ctx, e.Record); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", e.Record.Name, err))
		}
	}
	return errs
}

func (s *Service) export(r sinkconf.Record) (sinkconf.Record, error) {
	cfg, err := s.reg.Hydrate(r)
	if err != nil {
		return sinkconf.Record{}, err
	}
	return cfg.Export()
}

func (s *Service) persistLocked() error {
	if s.persist == nil {
		return nil
	}
	return s.persist.Persist(s.cat)
}

// publish masks credentials unless the backend channel is trusted.
func (s *Service) publish(ctx context.Context, rec sinkconf.Record) error {
	if !s.pub.Trusted() {
		rec = rec.Redacted()
	}
	err := s.pub.Publish(ctx, rec)
	if err != nil {
		s.log.Warn("publish failed", zap.String("name", rec.Name), zap.String("sinkType", rec.SinkType.String()), zap.Error(err))
		s.metrics.ObserveExport(rec.SinkType.String(), metrics.OutcomePublishFailed)
	}
	return err
}

func redacted(e store.Entry) store.Entry {
	e.Record = e.Record.Redacted()
	return e
}
