package inference

import (
	"context"
	"image"
	"testing"

	"github.com/nvr-ai/oceanyolo/models"
	"github.com/nvr-ai/oceanyolo/models/postprocess"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	size   int
	rows   []float32
	err    error
	blob   []float32
	closed bool
}

func (f *fakeEngine) InputSize() int { return f.size }

func (f *fakeEngine) Infer(ctx context.Context, blob []float32) (*postprocess.RawTensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	f.blob = blob
	return postprocess.NewRawTensor(f.rows, 1, len(f.rows)/postprocess.RowWidth, postprocess.RowWidth)
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func newDecoder(t *testing.T, size int) *postprocess.Decoder {
	t.Helper()
	cfg := postprocess.DefaultConfig()
	cfg.InputSize = size
	d, err := postprocess.NewDecoder(models.DefaultClasses, cfg)
	require.NoError(t, err)
	return d
}

func TestDetectorDetect(t *testing.T) {
	engine := &fakeEngine{
		size: 32,
		rows: []float32{
			16, 16, 8, 8, 0.95, 1,
			4, 4, 2, 2, 0.1, 0,
		},
	}
	det, err := NewDetector(engine, newDecoder(t, 32))
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 320, 160))
	dets, err := det.Detect(context.Background(), img)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "sawfish", dets[0].ClassName)
	assert.Equal(t, [2]float64{160, 80}, dets[0].Center)
	assert.Equal(t, [2]float64{80, 40}, dets[0].Size)
	assert.Len(t, engine.blob, 3*32*32)

	require.NoError(t, det.Close())
	assert.True(t, engine.closed)
}

func TestDetectorChannelOrderOption(t *testing.T) {
	engine := &fakeEngine{size: 4}
	det, err := NewDetector(engine, newDecoder(t, 4), WithChannelOrder(ChannelOrderRGB))
	require.NoError(t, err)

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 255, 255
	}
	_, err = det.Detect(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, float32(1), engine.blob[0], "red plane comes first")
}

func TestDetectorErrors(t *testing.T) {
	_, err := NewDetector(&fakeEngine{size: 320}, newDecoder(t, 640))
	assert.ErrorContains(t, err, "does not match")

	_, err = NewDetector(nil, newDecoder(t, 640))
	assert.Error(t, err)

	boom := errors.New("boom")
	det, err := NewDetector(&fakeEngine{size: 8, err: boom}, newDecoder(t, 8))
	require.NoError(t, err)
	_, err = det.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)))
	assert.ErrorIs(t, err, boom)

	det, err = NewDetector(&fakeEngine{size: 8, rows: []float32{1, 1, 1, 1, 0.9, 7}}, newDecoder(t, 8))
	require.NoError(t, err)
	_, err = det.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)))
	assert.ErrorIs(t, err, models.ErrUnknownClass)
}

func TestDetectorCancelled(t *testing.T) {
	det, err := NewDetector(&fakeEngine{size: 8}, newDecoder(t, 8))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = det.Detect(ctx, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewONNXEngineValidation(t *testing.T) {
	_, err := NewONNXEngine(SessionConfig{InputSize: 640})
	assert.ErrorContains(t, err, "model path")

	_, err = NewONNXEngine(SessionConfig{ModelPath: "model.onnx"})
	assert.ErrorContains(t, err, "invalid input size")
}
