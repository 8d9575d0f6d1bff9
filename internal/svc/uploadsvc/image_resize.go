package uploadsvc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/draw"
)

var (
	// ErrUnknownInterpolator is returned when an unsupported interpolation method is specified.
	ErrUnknownInterpolator = errors.New("unknown interpolator")

	// ErrUnsupportedMIMEType is returned when trying to downscale an unsupported image format.
	ErrUnsupportedMIMEType = errors.New("unsupported MIME type")
)

const (
	mimeTypeJPEG = "image/jpeg"
	mimeTypePNG  = "image/png"
)

//nolint:gochecknoglobals
var (
	interpolators = map[string]draw.Interpolator{
		"nearestneighbor": draw.NearestNeighbor,
		"catmullrom":      draw.CatmullRom,
		"bilinear":        draw.BiLinear,
		"approxbilinear":  draw.ApproxBiLinear,
	}

	imageDecoders = map[string]func(io.Reader) (image.Image, error){
		mimeTypeJPEG: jpeg.Decode,
		mimeTypePNG:  png.Decode,
	}

	imageEncoders = map[string]func(io.Writer, image.Image) error{
		mimeTypeJPEG: func(w io.Writer, i image.Image) error { return jpeg.Encode(w, i, nil) },
		mimeTypePNG:  png.Encode,
	}
)

// shrinkImage downscales an image to at most maxWidth while keeping aspect
// ratio. Images already within the limit are returned unchanged. Only JPEG
// and PNG are supported; anything else fails with ErrUnsupportedMIMEType.
func shrinkImage(data []byte, mimeType string, maxWidth int, interpolator string) ([]byte, error) {
	decoder, ok := imageDecoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMIMEType, mimeType)
	}

	original, err := decoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if original.Bounds().Dx() <= maxWidth {
		return data, nil
	}

	interpol, ok := interpolators[strings.ToLower(interpolator)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolator, interpolator)
	}

	ratio := float64(maxWidth) / float64(original.Bounds().Dx())
	height := int(float64(original.Bounds().Dy()) * ratio)

	bitmap := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	interpol.Scale(bitmap, bitmap.Bounds(), original, original.Bounds(), draw.Over, nil)

	var buffer bytes.Buffer
	if err := imageEncoders[mimeType](&buffer, bitmap); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return buffer.Bytes(), nil
}
