// Package postprocess - turns raw detector output into detection records
// expressed in the pixel space of the original image.
package postprocess

import (
	"math"

	"github.com/nvr-ai/oceanyolo/images"
)

// Detection is one decoded object in original-image pixel space.
type Detection struct {
	// ClassID is the detector class index.
	ClassID int `json:"class_id"`
	// ClassName is the class table name for ClassID.
	ClassName string `json:"class_name"`
	// Confidence is rounded to 3 decimal places.
	Confidence float64 `json:"confidence"`
	// Center is (x, y), rounded to 1 decimal place.
	Center [2]float64 `json:"center"`
	// Size is (w, h), rounded to 1 decimal place.
	Size [2]float64 `json:"size"`
}

// Result is a retained row before rounding.
type Result struct {
	// CX, CY, W, H are the rescaled box in original-image pixels.
	CX, CY, W, H float64
	// Score is the raw confidence.
	Score float32
	// Class is the class index.
	Class int
	// Row is the index of the source row.
	Row int
}

func (r Result) detection(name string) Detection {
	return Detection{
		ClassID:    r.Class,
		ClassName:  name,
		Confidence: round(float64(r.Score), 3),
		Center:     [2]float64{round(r.CX, 1), round(r.CY, 1)},
		Size:       [2]float64{round(r.W, 1), round(r.H, 1)},
	}
}

// Box returns the corner form of the result.
func (r Result) Box() images.Rect {
	return images.Rect{X1: r.CX - r.W/2, Y1: r.CY - r.H/2, X2: r.CX + r.W/2, Y2: r.CY + r.H/2}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
