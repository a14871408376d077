// Package labels - the bounding box data model shared by the augmentation and
// decoding pipelines, and the YOLO plain-text label encoding.
package labels

import (
	"fmt"
	"image"

	"github.com/nvr-ai/oceanyolo/images"
	"github.com/pkg/errors"
)

// Space tags the coordinate representation of a Box.
type Space int

const (
	// Normalized boxes are expressed as fractions of the image width and height.
	Normalized Space = iota
	// Pixel boxes are expressed in absolute pixels of a specific image.
	Pixel
)

func (s Space) String() string {
	switch s {
	case Normalized:
		return "normalized"
	case Pixel:
		return "pixel"
	default:
		return fmt.Sprintf("Space(%d)", int(s))
	}
}

// tolerance absorbs float noise in label files written by other tools.
const tolerance = 1e-6

var (
	// ErrSpaceMismatch is returned when a conversion is applied to a box in the wrong space.
	ErrSpaceMismatch = errors.New("box coordinate space mismatch")
	// ErrInvalidBox is returned when a normalized box violates the unit interval invariant.
	ErrInvalidBox = errors.New("invalid box")
)

// Box is an axis-aligned object region with a class label.
type Box struct {
	// ClassID is the index of the object class in the class table.
	ClassID int `json:"class_id"`
	// CX, CY are the box center.
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
	// W, H are the box width and height.
	W float64 `json:"w"`
	H float64 `json:"h"`
	// Space is the coordinate representation of CX, CY, W and H.
	Space Space `json:"space"`
}

// Corners returns the top-left and bottom-right corners in the box's own space.
func (b Box) Corners() (x1, y1, x2, y2 float64) {
	return b.CX - b.W/2, b.CY - b.H/2, b.CX + b.W/2, b.CY + b.H/2
}

// Rect returns the box as an images.Rect in the box's own space.
func (b Box) Rect() images.Rect {
	x1, y1, x2, y2 := b.Corners()
	return images.Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Area returns W*H in the box's own space.
func (b Box) Area() float64 {
	return b.W * b.H
}

// FromRect builds a box from corner coordinates.
func FromRect(classID int, r images.Rect, space Space) Box {
	return Box{
		ClassID: classID,
		CX:      (r.X1 + r.X2) / 2,
		CY:      (r.Y1 + r.Y2) / 2,
		W:       r.Dx(),
		H:       r.Dy(),
		Space:   space,
	}
}

// ToPixel converts a normalized box into pixel coordinates of a width x height image.
//
// Arguments:
//   - width: The image width in pixels.
//   - height: The image height in pixels.
//
// Returns:
//   - Box: The box in Pixel space.
//   - error: ErrSpaceMismatch if b is not normalized.
func (b Box) ToPixel(width, height int) (Box, error) {
	if b.Space != Normalized {
		return Box{}, errors.Wrapf(ErrSpaceMismatch, "ToPixel on %s box", b.Space)
	}
	w, h := float64(width), float64(height)
	return Box{ClassID: b.ClassID, CX: b.CX * w, CY: b.CY * h, W: b.W * w, H: b.H * h, Space: Pixel}, nil
}

// ToNormalized converts a pixel box of a width x height image into normalized coordinates.
//
// Arguments:
//   - width: The image width in pixels.
//   - height: The image height in pixels.
//
// Returns:
//   - Box: The box in Normalized space.
//   - error: ErrSpaceMismatch if b is not in pixel space.
func (b Box) ToNormalized(width, height int) (Box, error) {
	if b.Space != Pixel {
		return Box{}, errors.Wrapf(ErrSpaceMismatch, "ToNormalized on %s box", b.Space)
	}
	if width <= 0 || height <= 0 {
		return Box{}, errors.Errorf("invalid image size %dx%d", width, height)
	}
	w, h := float64(width), float64(height)
	return Box{ClassID: b.ClassID, CX: b.CX / w, CY: b.CY / h, W: b.W / w, H: b.H / h, Space: Normalized}, nil
}

// Validate checks the normalized box invariant: 0 <= cx,cy <= 1 and 0 < w,h <= 1.
func (b Box) Validate() error {
	if b.Space != Normalized {
		return errors.Wrapf(ErrSpaceMismatch, "validate %s box", b.Space)
	}
	if b.ClassID < 0 {
		return errors.Wrapf(ErrInvalidBox, "negative class id %d", b.ClassID)
	}
	if !inUnit(b.CX) || !inUnit(b.CY) {
		return errors.Wrapf(ErrInvalidBox, "center (%g, %g) outside [0,1]", b.CX, b.CY)
	}
	if !(b.W > 0) || !(b.H > 0) || b.W > 1+tolerance || b.H > 1+tolerance {
		return errors.Wrapf(ErrInvalidBox, "size (%g, %g) outside (0,1]", b.W, b.H)
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= -tolerance && v <= 1+tolerance
}

// LabeledImage is an image paired with its normalized boxes. Transforms never
// modify a LabeledImage in place; they return a new one.
type LabeledImage struct {
	// Name is the source file name, used to derive output names.
	Name string
	// Image is the decoded raster.
	Image image.Image
	// Format is the encoding the image was read from.
	Format images.ImageFormat
	// Boxes are the annotations in Normalized space.
	Boxes []Box
}

// Size returns the image width and height.
func (li LabeledImage) Size() (int, int) {
	b := li.Image.Bounds()
	return b.Dx(), b.Dy()
}
