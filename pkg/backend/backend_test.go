package backend

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/joeydtaylor/steeze-sinks/pkg/electrician"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf/splunk"
)

type capture struct {
	msgs []electrician.Message
	err  error
}

func (c *capture) Publish(_ context.Context, m electrician.Message) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, m)
	return nil
}
func (c *capture) Close() {}

func newRelay(out electrician.Publisher) *Relay {
	r := NewRelay(out, "sinks.config", true)
	r.newID = func() string { return "msg-1" }
	r.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestRelayPublishEnvelope(t *testing.T) {
	c, _ := splunk.New("hec")
	c.Options.Endpoint = "https://splunk:8088"
	c.Credentials.Token = "tok"
	rec, err := c.Export()
	if err != nil {
		t.Fatal(err)
	}

	out := &capture{}
	r := newRelay(out)
	if !r.Trusted() {
		t.Fatal("relay should be trusted")
	}
	if err := r.Publish(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if len(out.msgs) != 1 {
		t.Fatalf("messages = %d", len(out.msgs))
	}
	m := out.msgs[0]
	if m.Topic != "sinks.config" || m.Headers["X-Message-Id"] != "msg-1" || m.Headers["X-Sink-Type"] != "splunk" {
		t.Fatalf("message = %+v", m)
	}
	var env struct {
		ID     string `json:"id"`
		Op     Op     `json:"op"`
		Name   string `json:"name"`
		Record struct {
			SinkType    string            `json:"sinkType"`
			Credentials map[string]string `json:"credentials"`
		} `json:"record"`
	}
	if err := json.Unmarshal(m.Body, &env); err != nil {
		t.Fatal(err)
	}
	if env.ID != "msg-1" || env.Op != OpUpsert || env.Name != "hec" || env.Record.SinkType != "splunk" {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Record.Credentials["token"] != "tok" {
		t.Fatal("trusted channel should carry the record as given")
	}
}

func TestRelayRetract(t *testing.T) {
	out := &capture{}
	if err := newRelay(out).Retract(context.Background(), "hec", "splunk"); err != nil {
		t.Fatal(err)
	}
	var env map[string]any
	if err := json.Unmarshal(out.msgs[0].Body, &env); err != nil {
		t.Fatal(err)
	}
	if env["op"] != "delete" || env["record"] != nil {
		t.Fatalf("envelope = %v", env)
	}
}

func TestRelayPublishError(t *testing.T) {
	boom := errors.New("boom")
	err := newRelay(&capture{err: boom}).Publish(context.Background(), sinkconf.Record{Name: "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	if p.Trusted() || p.Publish(context.Background(), sinkconf.Record{}) != nil {
		t.Fatal("noop misbehaves")
	}
}
