// Package backend pushes catalog changes to the agent-management backend.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joeydtaylor/steeze-sinks/pkg/electrician"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
)

// Publisher delivers records to the backend. Trusted reports whether the
// channel may carry raw credentials; callers redact records otherwise.
type Publisher interface {
	Publish(ctx context.Context, rec sinkconf.Record) error
	Retract(ctx context.Context, name string, t sinkconf.SinkType) error
	Trusted() bool
}

type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// Envelope is the JSON body of every relay message.
type Envelope struct {
	ID       string            `json:"id"`
	Op       Op                `json:"op"`
	SentAt   time.Time         `json:"sentAt"`
	Name     string            `json:"name"`
	SinkType sinkconf.SinkType `json:"sinkType"`
	Record   *sinkconf.Record  `json:"record,omitempty"`
}

// Relay publishes envelopes through an Electrician relay.
type Relay struct {
	out     electrician.Publisher
	topic   string
	trusted bool

	newID func() string
	now   func() time.Time
}

var _ Publisher = (*Relay)(nil)

func NewRelay(out electrician.Publisher, topic string, trusted bool) *Relay {
	return &Relay{out: out, topic: topic, trusted: trusted, newID: uuid.NewString, now: time.Now}
}

func (r *Relay) Trusted() bool { return r.trusted }

func (r *Relay) Publish(ctx context.Context, rec sinkconf.Record) error {
	return r.send(ctx, Envelope{Op: OpUpsert, Name: rec.Name, SinkType: rec.SinkType, Record: &rec})
}

func (r *Relay) Retract(ctx context.Context, name string, t sinkconf.SinkType) error {
	return r.send(ctx, Envelope{Op: OpDelete, Name: name, SinkType: t})
}

func (r *Relay) send(ctx context.Context, env Envelope) error {
	env.ID = r.newID()
	env.SentAt = r.now().UTC()
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("backend: encode %s %q: %w", env.Op, env.Name, err)
	}
	err = r.out.Publish(ctx, electrician.Message{
		Topic: r.topic,
		Body:  body,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-Message-Id": env.ID,
			"X-Sink-Op":    string(env.Op),
			"X-Sink-Type":  string(env.SinkType),
		},
	})
	if err != nil {
		return fmt.Errorf("backend: publish %s %q: %w", env.Op, env.Name, err)
	}
	return nil
}

// Close releases the underlying relay.
func (r *Relay) Close() { r.out.Close() }

// Noop drops everything. It reports untrusted so nothing secret is prepared
// for it.
type Noop struct{}

func (Noop) Publish(context.Context, sinkconf.Record) error           { return nil }
func (Noop) Retract(context.Context, string, sinkconf.SinkType) error { return nil }
func (Noop) Trusted() bool                                            { return false }
