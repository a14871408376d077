package postprocess

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// RowWidth is the number of values per detector row: x, y, w, h, confidence, class_id.
const RowWidth = 6

// ErrTensorShape is returned when detector output does not have the (N,6) or
// (1,N,6) layout.
var ErrTensorShape = errors.New("unexpected detector output shape")

// RawTensor is the detector output squeezed to N rows of RowWidth float32 values
// in detector input pixel space.
type RawTensor struct {
	dense *tensor.Dense
	rows  int
}

// NewRawTensor wraps detector output.
//
// Arguments:
//   - data: The row-major output values.
//   - shape: The output shape, either (N, 6) or (1, N, 6).
//
// Returns:
//   - *RawTensor: The tensor with the batch dimension squeezed.
//   - error: ErrTensorShape if the layout or the data length does not match.
func NewRawTensor(data []float32, shape ...int) (*RawTensor, error) {
	var rows int
	switch {
	case len(shape) == 2 && shape[1] == RowWidth:
		rows = shape[0]
	case len(shape) == 3 && shape[0] == 1 && shape[2] == RowWidth:
		rows = shape[1]
	default:
		return nil, errors.Wrapf(ErrTensorShape, "shape %v", shape)
	}
	if rows < 0 || len(data) != rows*RowWidth {
		return nil, errors.Wrapf(ErrTensorShape, "%d values for shape %v", len(data), shape)
	}
	if rows == 0 {
		return &RawTensor{}, nil
	}

	dense := tensor.New(tensor.WithShape(shape...), tensor.Of(tensor.Float32), tensor.WithBacking(data))
	if err := dense.Reshape(rows, RowWidth); err != nil {
		return nil, errors.Wrapf(ErrTensorShape, "squeeze %v: %v", shape, err)
	}
	return &RawTensor{dense: dense, rows: rows}, nil
}

// Rows returns N.
func (t *RawTensor) Rows() int {
	return t.rows
}

// Shape returns the squeezed (N, 6) shape.
func (t *RawTensor) Shape() []int {
	return []int{t.rows, RowWidth}
}

// Row returns a view of row i. The slice aliases the tensor's backing data.
func (t *RawTensor) Row(i int) []float32 {
	data := t.dense.Data().([]float32)
	return data[i*RowWidth : (i+1)*RowWidth : (i+1)*RowWidth]
}
