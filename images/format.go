// Package images - image formats, codecs and geometry helpers shared by the
// augmentation and inference pipelines.
package images

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ImageFormat represents supported image formats.
type ImageFormat string

// ImageFormat constants.
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
	// FormatTIFF is the TIFF image format.
	FormatTIFF ImageFormat = "tiff"
	// FormatGIF is the GIF image format.
	FormatGIF ImageFormat = "gif"
)

// ErrUnsupportedFormat is returned for file extensions no codec can handle.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var extensions = map[string]ImageFormat{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".gif":  FormatGIF,
}

// FormatFromFilename resolves the image format from the file extension.
//
// Arguments:
//   - name: The file name or path.
//
// Returns:
//   - ImageFormat: The format matching the extension.
//   - error: ErrUnsupportedFormat if the extension is unknown.
func FormatFromFilename(name string) (ImageFormat, error) {
	ext := strings.ToLower(filepath.Ext(name))
	format, ok := extensions[ext]
	if !ok {
		return "", errors.Wrapf(ErrUnsupportedFormat, "extension %q", ext)
	}
	return format, nil
}

// IsSupported reports whether name has an extension that maps to a known format.
func IsSupported(name string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
