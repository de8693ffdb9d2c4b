package document

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/patchwire/patchwire/pkg/geometry"
	"github.com/patchwire/patchwire/pkg/graph"
)

func sampleSnapshot() graph.Snapshot {
	return graph.Snapshot{
		Nodes: []graph.NodeSpec{
			{ID: "osc", Caption: "Oscillator", OutPorts: 2, Position: geometry.Point{X: 10, Y: 20}},
			{ID: "amp", Caption: "Amplifier", InPorts: 1, OutPorts: 1, Position: geometry.Point{X: 200, Y: 40}},
		},
		Connections: []graph.ConnectionID{
			{OutNodeID: "osc", OutPortIndex: 0, InNodeID: "amp", InPortIndex: 0},
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	codec := NewJSONCodec()
	var b strings.Builder
	want := sampleSnapshot()

	if err := codec.Export(want, &b); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	got, err := codec.Parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(got.Nodes) != 2 || len(got.Connections) != 1 {
		t.Fatalf("got %d nodes, %d connections", len(got.Nodes), len(got.Connections))
	}
	if got.Nodes[0] != want.Nodes[0] {
		t.Errorf("node mismatch: got %+v, want %+v", got.Nodes[0], want.Nodes[0])
	}
	if got.Connections[0] != want.Connections[0] {
		t.Errorf("connection mismatch: got %v, want %v", got.Connections[0], want.Connections[0])
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	codec := NewYAMLCodec()
	var b strings.Builder
	want := sampleSnapshot()

	if err := codec.Export(want, &b); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	got, err := codec.Parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(got.Nodes) != 2 || len(got.Connections) != 1 {
		t.Fatalf("got %d nodes, %d connections", len(got.Nodes), len(got.Connections))
	}
	if got.Nodes[1] != want.Nodes[1] {
		t.Errorf("node mismatch: got %+v, want %+v", got.Nodes[1], want.Nodes[1])
	}
	if got.Connections[0] != want.Connections[0] {
		t.Errorf("connection mismatch: got %v, want %v", got.Connections[0], want.Connections[0])
	}
}

func TestYAMLParseHandwritten(t *testing.T) {
	src := `
nodes:
  - id: filter
    caption: Low Pass
    in_ports: 2
    out_ports: 1
    x: 50
    y: 75
connections: []
`
	snap, err := NewYAMLCodec().Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(snap.Nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(snap.Nodes))
	}
	n := snap.Nodes[0]
	if n.ID != "filter" || n.Caption != "Low Pass" || n.InPorts != 2 || n.OutPorts != 1 {
		t.Errorf("unexpected node: %+v", n)
	}
	if n.Position.X != 50 || n.Position.Y != 75 {
		t.Errorf("unexpected position: %+v", n.Position)
	}
}

func TestLoadSaveByExtension(t *testing.T) {
	dir := t.TempDir()
	want := sampleSnapshot()

	for _, name := range []string{"patch.json", "patch.yaml", "patch.yml"} {
		path := filepath.Join(dir, name)
		if err := Save(path, want); err != nil {
			t.Fatalf("Save(%s) failed: %v", name, err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", name, err)
		}
		if len(got.Nodes) != len(want.Nodes) || len(got.Connections) != len(want.Connections) {
			t.Errorf("%s: got %d nodes, %d connections", name, len(got.Nodes), len(got.Connections))
		}
	}
}

func TestUnsupportedExtension(t *testing.T) {
	if _, err := Load("patch.toml"); err == nil {
		t.Error("expected an error for unsupported extension")
	}
	if err := Save("patch.xml", graph.Snapshot{}); err == nil {
		t.Error("expected an error for unsupported extension")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}
