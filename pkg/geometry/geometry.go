// Package geometry provides the scene coordinate primitives shared by the
// graph store, the synchronization engine, and the renderers.
package geometry

// Point is a position in scene coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns the vector from d to p.
func (p Point) Sub(d Point) Point {
	return Point{X: p.X - d.X, Y: p.Y - d.Y}
}

// Mid returns the midpoint between p and q.
func (p Point) Mid(q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether both dimensions are zero.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	Origin Point `json:"origin"`
	Size   Size  `json:"size"`
}

// Contains reports whether p lies inside r (inclusive of the edges).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Origin.X && p.X <= r.Origin.X+r.Size.Width &&
		p.Y >= r.Origin.Y && p.Y <= r.Origin.Y+r.Size.Height
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	minX := min(r.Origin.X, o.Origin.X)
	minY := min(r.Origin.Y, o.Origin.Y)
	maxX := max(r.Origin.X+r.Size.Width, o.Origin.X+o.Size.Width)
	maxY := max(r.Origin.Y+r.Size.Height, o.Origin.Y+o.Size.Height)
	return Rect{
		Origin: Point{X: minX, Y: minY},
		Size:   Size{Width: maxX - minX, Height: maxY - minY},
	}
}
