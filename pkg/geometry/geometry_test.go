package geometry

import "testing"

func TestPointArithmetic(t *testing.T) {
	p := Point{X: 3, Y: 4}
	q := Point{X: 1, Y: 2}

	if got := p.Add(q); got != (Point{X: 4, Y: 6}) {
		t.Errorf("Add = %+v", got)
	}
	if got := p.Sub(q); got != (Point{X: 2, Y: 2}) {
		t.Errorf("Sub = %+v", got)
	}
	if got := p.Mid(q); got != (Point{X: 2, Y: 3}) {
		t.Errorf("Mid = %+v", got)
	}
}

func TestSizeIsZero(t *testing.T) {
	if !(Size{}).IsZero() {
		t.Error("zero value should be zero")
	}
	if (Size{Width: 1}).IsZero() || (Size{Height: 1}).IsZero() {
		t.Error("nonzero dimension should not be zero")
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{Origin: Point{X: 10, Y: 10}, Size: Size{Width: 20, Height: 20}}

	for _, p := range []Point{{10, 10}, {30, 30}, {20, 15}} {
		if !r.Contains(p) {
			t.Errorf("Contains(%+v) = false", p)
		}
	}
	for _, p := range []Point{{9, 10}, {31, 30}, {20, 31}} {
		if r.Contains(p) {
			t.Errorf("Contains(%+v) = true", p)
		}
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{Origin: Point{X: 0, Y: 0}, Size: Size{Width: 10, Height: 10}}
	b := Rect{Origin: Point{X: 20, Y: 5}, Size: Size{Width: 10, Height: 20}}

	u := a.Union(b)
	want := Rect{Origin: Point{X: 0, Y: 0}, Size: Size{Width: 30, Height: 25}}
	if u != want {
		t.Errorf("Union = %+v, want %+v", u, want)
	}
	if a.Union(a) != a {
		t.Error("self union should be identity")
	}
}
