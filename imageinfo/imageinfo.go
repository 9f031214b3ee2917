// Package imageinfo reports the format and pixel dimensions of encoded images
// without decoding the pixel data.
//
// Supported formats: PNG, JPEG, GIF, BMP, TIFF and WebP.
package imageinfo

import (
	"bytes"
	"image"
	// Register image formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnrecognizedFormat is returned when the image format of the provided data
// could not be identified.
var ErrUnrecognizedFormat = errors.New("imageinfo.Inspect: unrecognized image format")

// Info contains the MIME type and dimensions of an image.
type Info struct {
	// MIME type of the image (e.g. "image/png").
	MIME string
	// Width of the image in pixels.
	Width uint32
	// Height of the image in pixels.
	Height uint32
	// Format name as registered with the image package (e.g. "png").
	Format string
}

// mimeTypes maps from registered image format names to MIME types.
var mimeTypes = map[string]string{
	"bmp":  "image/bmp",
	"gif":  "image/gif",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"tiff": "image/tiff",
	"webp": "image/webp",
}

// Inspect returns the MIME type and dimensions of the image contained in data.
func Inspect(data []byte) (Info, error) {
	conf, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if err == image.ErrFormat {
			return Info{}, errors.WithStack(ErrUnrecognizedFormat)
		}
		return Info{}, errors.Wrapf(ErrUnrecognizedFormat, "invalid %s image data; %v", format, err)
	}
	mime, ok := mimeTypes[format]
	if !ok {
		return Info{}, errors.Wrapf(ErrUnrecognizedFormat, "no MIME type for image format %q", format)
	}
	if conf.Width < 0 || conf.Height < 0 || uint64(conf.Width) > 0xFFFFFFFF || uint64(conf.Height) > 0xFFFFFFFF {
		return Info{}, errors.Wrapf(ErrUnrecognizedFormat, "invalid image dimensions %dx%d", conf.Width, conf.Height)
	}
	info := Info{
		MIME:   mime,
		Width:  uint32(conf.Width),
		Height: uint32(conf.Height),
		Format: format,
	}
	return info, nil
}

// An Inspector reports the MIME type and dimensions of encoded images.
type Inspector interface {
	Inspect(data []byte) (Info, error)
}

// InspectorFunc is an adapter to allow the use of ordinary functions as
// Inspectors.
type InspectorFunc func(data []byte) (Info, error)

// Inspect calls f(data).
func (f InspectorFunc) Inspect(data []byte) (Info, error) {
	return f(data)
}

// Default is the Inspector backed by Inspect.
var Default Inspector = InspectorFunc(Inspect)

// ExtensionFor returns the file name extension, including the leading dot, used
// for images of the given MIME type, or ".bin" if unknown.
func ExtensionFor(mime string) string {
	switch mime {
	case "image/bmp":
		return ".bmp"
	case "image/gif":
		return ".gif"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/tiff":
		return ".tif"
	case "image/webp":
		return ".webp"
	}
	return ".bin"
}
