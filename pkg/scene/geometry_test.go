package scene

import (
	"testing"

	"github.com/patchwire/patchwire/pkg/geometry"
	"github.com/patchwire/patchwire/pkg/graph"
)

func geometryStore() *fakeStore {
	f := newFakeStore()
	f.nodes["n"] = &fakeNode{caption: "Mixer", inPorts: 3, outPorts: 1}
	return f
}

func TestParseOrientation(t *testing.T) {
	cases := []struct {
		in   string
		want Orientation
		ok   bool
	}{
		{"horizontal", Horizontal, true},
		{"vertical", Vertical, true},
		{"", Horizontal, true},
		{"diagonal", Horizontal, false},
	}
	for _, tc := range cases {
		got, ok := ParseOrientation(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseOrientation(%q) = %v, %v", tc.in, got, ok)
		}
	}
}

func TestHorizontalSizePortDriven(t *testing.T) {
	f := geometryStore()
	g := newNodeGeometry(Horizontal, f)

	sz := g.RecomputeSize("n")
	// Three in ports dominate the body height.
	wantHeight := captionHeight + 3*portSpacing + nodePadding
	if sz.Height != wantHeight {
		t.Errorf("height = %v, want %v", sz.Height, wantHeight)
	}
	if sz.Width < minNodeWidth {
		t.Errorf("width = %v, below minimum", sz.Width)
	}
}

func TestHorizontalSizeCaptionDriven(t *testing.T) {
	f := newFakeStore()
	f.nodes["n"] = &fakeNode{caption: "A very long node caption", inPorts: 1, outPorts: 1}
	g := newNodeGeometry(Horizontal, f)

	sz := g.RecomputeSize("n")
	want := captionWidth("A very long node caption") + 2*nodePadding
	if sz.Width != want {
		t.Errorf("width = %v, want caption-driven %v", sz.Width, want)
	}
}

func TestHorizontalSizeContentDriven(t *testing.T) {
	f := newFakeStore()
	f.nodes["n"] = &fakeNode{caption: "W", inPorts: 1, outPorts: 1, content: geometry.Size{Width: 200, Height: 120}}
	g := newNodeGeometry(Horizontal, f)

	sz := g.RecomputeSize("n")
	if sz.Width != 200+2*nodePadding {
		t.Errorf("width = %v, want content-driven %v", sz.Width, 200+2*nodePadding)
	}
	if sz.Height != captionHeight+120+nodePadding {
		t.Errorf("height = %v, want content-driven %v", sz.Height, captionHeight+120+nodePadding)
	}
}

func TestHorizontalPortAnchors(t *testing.T) {
	f := geometryStore()
	g := newNodeGeometry(Horizontal, f)
	sz := g.RecomputeSize("n")

	in0 := g.PortAnchor("n", sz, graph.PortIn, 0)
	if in0.X != 0 {
		t.Errorf("in port on x = %v, want left edge", in0.X)
	}
	if in0.Y != captionHeight+0.5*portSpacing {
		t.Errorf("in port 0 y = %v", in0.Y)
	}

	in1 := g.PortAnchor("n", sz, graph.PortIn, 1)
	if in1.Y-in0.Y != portSpacing {
		t.Errorf("port pitch = %v, want %v", in1.Y-in0.Y, portSpacing)
	}

	out0 := g.PortAnchor("n", sz, graph.PortOut, 0)
	if out0.X != sz.Width {
		t.Errorf("out port x = %v, want right edge %v", out0.X, sz.Width)
	}
}

func TestVerticalPortAnchors(t *testing.T) {
	f := geometryStore()
	g := newNodeGeometry(Vertical, f)
	sz := g.RecomputeSize("n")

	in0 := g.PortAnchor("n", sz, graph.PortIn, 0)
	if in0.Y != 0 {
		t.Errorf("in port y = %v, want top edge", in0.Y)
	}
	out0 := g.PortAnchor("n", sz, graph.PortOut, 0)
	if out0.Y != sz.Height {
		t.Errorf("out port y = %v, want bottom edge %v", out0.Y, sz.Height)
	}

	// The single out port sits at the horizontal center.
	if out0.X != sz.Width/2 {
		t.Errorf("out port x = %v, want centered %v", out0.X, sz.Width/2)
	}

	// The three in ports are centered as a group.
	in2 := g.PortAnchor("n", sz, graph.PortIn, 2)
	if mid := (in0.X + in2.X) / 2; mid != sz.Width/2 {
		t.Errorf("in port group center = %v, want %v", mid, sz.Width/2)
	}
}

func TestVerticalWidthFitsPortRow(t *testing.T) {
	f := newFakeStore()
	f.nodes["n"] = &fakeNode{caption: "N", inPorts: 8}
	g := newNodeGeometry(Vertical, f)

	sz := g.RecomputeSize("n")
	if sz.Width < 8*portSpacing {
		t.Errorf("width = %v, cannot fit 8 ports at pitch %v", sz.Width, portSpacing)
	}
}

func TestGeometryIsDeterministic(t *testing.T) {
	f := geometryStore()
	for _, o := range []Orientation{Horizontal, Vertical} {
		g := newNodeGeometry(o, f)
		if g.RecomputeSize("n") != g.RecomputeSize("n") {
			t.Errorf("%v: repeated recompute disagrees", o)
		}
	}
}
