// Package images - Image processing utilities
package images

// Rect is a lightweight axis-aligned box in floating point pixel coordinates.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 float64
}

// Dx returns the width of the rectangle.
func (r Rect) Dx() float64 {
	return r.X2 - r.X1
}

// Dy returns the height of the rectangle.
func (r Rect) Dy() float64 {
	return r.Y2 - r.Y1
}

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool {
	return r.X1 >= r.X2 || r.Y1 >= r.Y2
}

// Area returns the area of the rectangle, or 0 when it is empty.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.Dx() * r.Dy()
}

// Intersect returns the largest rectangle contained by both r and o. The
// result may be empty.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
		X2: min(r.X2, o.X2),
		Y2: min(r.Y2, o.Y2),
	}
}

// Clip restricts the rectangle to the frame [0,width]x[0,height].
//
// Arguments:
//   - width: The frame width in pixels.
//   - height: The frame height in pixels.
//
// Returns:
//   - Rect: The clipped rectangle. It is empty when r lies entirely outside the frame.
func (r Rect) Clip(width, height float64) Rect {
	return r.Intersect(Rect{X1: 0, Y1: 0, X2: width, Y2: height})
}

// CalculateIoU measures the overlap of two rectangles as the area of their
// intersection divided by the area of their union.
//
//	IoU = Area of Intersection / Area of Union
//
//	- A value of 1.0 means the rectangles are identical.
//	- A value of 0.0 means the rectangles don't overlap at all.
//
// The union is computed with inclusion-exclusion:
//
//	Area(Union) = Area(A) + Area(B) - Area(Intersection)
//
// Arguments:
//   - r: The first rectangle.
//   - o: The other rectangle to compare against.
//
// Returns:
//   - float64: A value between 0.0 and 1.0 representing the IoU score.
//
// Example Usage:
// ```go
//
//	rect1 := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	rect2 := Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}
//	iouScore := CalculateIoU(rect1, rect2) // 25 / 175 = 0.142857
//
// ```
func CalculateIoU(r, o Rect) float64 {
	inter := r.Intersect(o)
	if inter.Empty() {
		return 0.0
	}
	interArea := inter.Area()

	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}
	return interArea / unionArea
}
