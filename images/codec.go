package images

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Codec decodes and encodes raster images. It is the opaque image I/O
// collaborator of both pipelines.
type Codec interface {
	// Decode decodes an encoded image.
	Decode(data []byte) (image.Image, error)
	// Encode encodes img in the given format.
	Encode(img image.Image, format ImageFormat) ([]byte, error)
}

// ImagingCodec is a pure Go Codec backed by github.com/disintegration/imaging.
type ImagingCodec struct {
	// JPEGQuality is the JPEG encoding quality (1-100). Zero selects 95.
	JPEGQuality int
}

var imagingFormats = map[ImageFormat]imaging.Format{
	FormatJPEG: imaging.JPEG,
	FormatPNG:  imaging.PNG,
	FormatBMP:  imaging.BMP,
	FormatTIFF: imaging.TIFF,
	FormatGIF:  imaging.GIF,
}

// Decode decodes data, applying the EXIF orientation tag if present.
//
// Arguments:
//   - data: The encoded image bytes.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: An error if data is empty or not a decodable image.
func (c ImagingCodec) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	return img, nil
}

// Encode encodes img in the requested format.
//
// Arguments:
//   - img: The image to encode.
//   - format: The target format.
//
// Returns:
//   - []byte: The encoded image.
//   - error: An error if the format is unsupported or encoding fails.
func (c ImagingCodec) Encode(img image.Image, format ImageFormat) ([]byte, error) {
	f, ok := imagingFormats[format]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
	}

	quality := c.JPEGQuality
	if quality <= 0 {
		quality = 95
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(quality)); err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s image", format)
	}
	return buf.Bytes(), nil
}

// codecs holds the codecs available in this build, by name.
var codecs = map[string]func() Codec{
	"imaging": func() Codec { return ImagingCodec{} },
}

// NewCodec returns the named codec. "imaging" is always available; "opencv"
// requires building with -tags gocv.
func NewCodec(name string) (Codec, error) {
	if name == "" {
		name = "imaging"
	}
	newCodec, ok := codecs[name]
	if !ok {
		return nil, errors.Errorf("codec %q is not available in this build", name)
	}
	return newCodec(), nil
}
