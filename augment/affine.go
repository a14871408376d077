// Package augment - bounding-box aware image augmentation. Geometric
// operations report the affine map they applied to the pixels so the same map
// can be applied to every box; photometric operations only ever see pixels.
package augment

import (
	"math"

	"github.com/nvr-ai/oceanyolo/images"
)

// Affine maps a pixel coordinate (x, y) to (A*x + B*y + C, D*x + E*y + F).
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the affine map that leaves every point in place.
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// Apply maps a single point.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.C, m.D*x + m.E*y + m.F
}

// Det is the determinant of the linear part, i.e. the factor by which the map
// scales areas (negative for reflections).
func (m Affine) Det() float64 {
	return m.A*m.E - m.B*m.D
}

// Then returns the map that applies m first and n second.
func (m Affine) Then(n Affine) Affine {
	return Affine{
		A: n.A*m.A + n.B*m.D,
		B: n.A*m.B + n.B*m.E,
		C: n.A*m.C + n.B*m.F + n.C,
		D: n.D*m.A + n.E*m.D,
		E: n.D*m.B + n.E*m.E,
		F: n.D*m.C + n.E*m.F + n.F,
	}
}

// MapRect maps the four corners of r and returns their enclosing axis-aligned
// rectangle.
func (m Affine) MapRect(r images.Rect) images.Rect {
	xs := [4]float64{r.X1, r.X2, r.X2, r.X1}
	ys := [4]float64{r.Y1, r.Y1, r.Y2, r.Y2}

	out := images.Rect{X1: math.Inf(1), Y1: math.Inf(1), X2: math.Inf(-1), Y2: math.Inf(-1)}
	for i := range xs {
		x, y := m.Apply(xs[i], ys[i])
		out.X1 = min(out.X1, x)
		out.Y1 = min(out.Y1, y)
		out.X2 = max(out.X2, x)
		out.Y2 = max(out.Y2, y)
	}
	return out
}

// capArea shrinks r about its center so its area does not exceed limit. The
// enclosing box of a rotated box is larger than the object it encloses; the
// cap keeps the label from growing past the object's own area.
func capArea(r images.Rect, limit float64) images.Rect {
	area := r.Area()
	if limit <= 0 || area <= limit {
		return r
	}

	k := math.Sqrt(limit / area)
	cx, cy := (r.X1+r.X2)/2, (r.Y1+r.Y2)/2
	hw, hh := r.Dx()*k/2, r.Dy()*k/2
	return images.Rect{X1: cx - hw, Y1: cy - hh, X2: cx + hw, Y2: cy + hh}
}
