//go:build gocv

package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCVCodecRoundTrip(t *testing.T) {
	codec := CVCodec{}

	for _, format := range []ImageFormat{FormatPNG, FormatJPEG} {
		t.Run(string(format), func(t *testing.T) {
			data, err := codec.Encode(getTestImage(), format)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			img, err := codec.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, 100, img.Bounds().Dx())
			assert.Equal(t, 80, img.Bounds().Dy())
		})
	}
}

func TestCVCodecDecodesImagingOutput(t *testing.T) {
	data, err := ImagingCodec{}.Encode(getTestImage(), FormatPNG)
	require.NoError(t, err)

	img, err := CVCodec{}.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestCVCodecErrors(t *testing.T) {
	codec := CVCodec{}

	_, err := codec.Decode(nil)
	assert.ErrorContains(t, err, "empty image data")

	_, err = codec.Encode(getTestImage(), FormatBMP)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNewCodecOpenCV(t *testing.T) {
	c, err := NewCodec("opencv")
	require.NoError(t, err)
	assert.IsType(t, CVCodec{}, c)
}
