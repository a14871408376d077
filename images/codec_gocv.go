//go:build gocv

package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// CVCodec is a Codec backed by OpenCV through gocv. It decodes the same way
// cv2.imread does, which is what the training images were produced with.
// Build with -tags gocv.
type CVCodec struct{}

func init() {
	codecs["opencv"] = func() Codec { return CVCodec{} }
}

var cvExtensions = map[ImageFormat]gocv.FileExt{
	FormatJPEG: gocv.JPEGFileExt,
	FormatPNG:  gocv.PNGFileExt,
}

// Decode decodes data into a BGR matrix and converts it to an image.Image.
func (CVCodec) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("failed to decode image")
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert mat to image")
	}
	return img, nil
}

// Encode encodes img as JPEG or PNG.
func (CVCodec) Encode(img image.Image, format ImageFormat) ([]byte, error) {
	ext, ok := cvExtensions[format]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert image to mat")
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(ext, mat)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s image", format)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
