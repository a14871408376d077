package inference

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// ChannelOrder is the plane order of the detector input blob.
type ChannelOrder string

const (
	// ChannelOrderBGR writes blue, green, red planes. OpenCV-trained exports expect this.
	ChannelOrderBGR ChannelOrder = "bgr"
	// ChannelOrderRGB writes red, green, blue planes.
	ChannelOrderRGB ChannelOrder = "rgb"
)

// Preprocess builds the detector input blob for img.
//
// Arguments:
//   - img: The image to prepare.
//   - size: The side of the square detector input.
//   - order: The channel plane order.
//
// Returns:
//   - []float32: A 3*size*size planar (CHW) blob with values in [0,1].
//   - error: An error if the size or the channel order is invalid.
func Preprocess(img image.Image, size int, order ChannelOrder) ([]float32, error) {
	if size <= 0 {
		return nil, errors.Errorf("invalid input size %d", size)
	}
	blob := make([]float32, 3*size*size)
	if err := PrepareInput(img, size, order, blob); err != nil {
		return nil, err
	}
	return blob, nil
}

// PrepareInput fills dst with the detector input for img. The image is
// stretched to size x size without preserving its aspect ratio, matching the
// uniform rescale applied when decoding.
//
// Arguments:
//   - img: The image to prepare.
//   - size: The side of the square detector input.
//   - order: The channel plane order.
//   - dst: The destination buffer, at least 3*size*size long.
//
// Returns:
//   - error: An error if the input preparation fails.
func PrepareInput(img image.Image, size int, order ChannelOrder, dst []float32) error {
	channelSize := size * size
	if len(dst) < channelSize*3 {
		return errors.Errorf("destination only holds %d floats, needs %d", len(dst), channelSize*3)
	}

	var red, green, blue []float32
	switch order {
	case ChannelOrderBGR, "":
		blue, green, red = dst[0:channelSize], dst[channelSize:channelSize*2], dst[channelSize*2:channelSize*3]
	case ChannelOrderRGB:
		red, green, blue = dst[0:channelSize], dst[channelSize:channelSize*2], dst[channelSize*2:channelSize*3]
	default:
		return errors.Errorf("unsupported channel order %q", order)
	}

	b := img.Bounds()
	if b.Dx() != size || b.Dy() != size {
		img = resize.Resize(uint(size), uint(size), img, resize.Bilinear)
		b = img.Bounds()
	}

	i := 0
	for y := b.Min.Y; y < b.Min.Y+size; y++ {
		for x := b.Min.X; x < b.Min.X+size; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(bl>>8) / 255.0
			i++
		}
	}
	return nil
}
