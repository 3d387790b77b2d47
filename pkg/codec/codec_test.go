package codec

import (
	"strings"
	"testing"
)

type doc struct {
	Name  string   `json:"name" toml:"name" yaml:"name"`
	Nodes []string `json:"nodes" toml:"nodes" yaml:"nodes"`
}

func TestStrictDecoders(t *testing.T) {
	cases := []struct {
		codec   Codec
		good    string
		unknown string
		extra   string
	}{
		{JSONStrict, `{"name":"a","nodes":["x"]}`, `{"name":"a","hosts":[]}`, `{"name":"a"} {"name":"b"}`},
		{YAML, "name: a\nnodes: [x]\n", "name: a\nhosts: []\n", "name: a\n---\nname: b\n"},
		{TOML, "name = \"a\"\nnodes = [\"x\"]\n", "name = \"a\"\nhosts = []\n", ""},
	}
	for _, c := range cases {
		ct := c.codec.ContentType()
		var d doc
		if err := c.codec.Unmarshal([]byte(c.good), &d); err != nil {
			t.Fatalf("%s good: %v", ct, err)
		}
		if d.Name != "a" || len(d.Nodes) != 1 || d.Nodes[0] != "x" {
			t.Fatalf("%s decoded %+v", ct, d)
		}
		if err := c.codec.Unmarshal([]byte(c.unknown), &doc{}); err == nil {
			t.Errorf("%s: unknown field accepted", ct)
		}
		if c.extra != "" {
			if err := c.codec.Unmarshal([]byte(c.extra), &doc{}); err == nil {
				t.Errorf("%s: trailing document accepted", ct)
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	in := doc{Name: "a<b", Nodes: []string{"https://es1:9200"}}
	for _, c := range []Codec{JSONStrict, YAML, TOML} {
		b, err := c.Marshal(in)
		if err != nil {
			t.Fatalf("%s marshal: %v", c.ContentType(), err)
		}
		var out doc
		if err := c.Unmarshal(b, &out); err != nil {
			t.Fatalf("%s unmarshal: %v\n%s", c.ContentType(), err, b)
		}
		if out.Name != in.Name || len(out.Nodes) != 1 || out.Nodes[0] != in.Nodes[0] {
			t.Fatalf("%s round trip = %+v", c.ContentType(), out)
		}
	}
}

func TestJSONDoesNotEscapeHTML(t *testing.T) {
	b, err := JSONStrict.Marshal(doc{Name: "a<b"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"a<b"`) || strings.HasSuffix(string(b), "\n") {
		t.Fatalf("encoded %s", b)
	}
}

func TestForPath(t *testing.T) {
	for path, want := range map[string]Codec{
		"sinks.toml": TOML,
		"sinks.YAML": YAML,
		"a/b.yml":    YAML,
		"x.json":     JSONStrict,
	} {
		got, err := ForPath(path)
		if err != nil || got != want {
			t.Errorf("%s: %v %v", path, got, err)
		}
	}
	if _, err := ForPath("sinks.ini"); err == nil {
		t.Fatal("ini accepted")
	}
}
