package ownmaprenderer

import (
	"bytes"
	"errors"
	"image"
	"image/png"

	"github.com/gen2brain/webp"
	"github.com/jamesrr39/goutil/errorsx"
)

var (
	ErrInvalidCompressionLevel = errors.New("invalid compression level")
	ErrUnsupportedFormat       = errors.New("unsupported image format")
)

const (
	FormatPNG  = "png"
	FormatWebP = "webp"

	MinCompressionLevel = 0
	MaxCompressionLevel = 9
)

// Encoder serializes an image into a lossless, alpha-capable format.
type Encoder interface {
	Encode(img image.Image) ([]byte, errorsx.Error)
	Format() string
	ContentType() string
}

// NewEncoder returns an encoder for format. An empty format means PNG.
// compressionLevel runs from 0 (fastest, largest) to 9 (slowest, smallest).
func NewEncoder(format string, compressionLevel int) (Encoder, errorsx.Error) {
	if compressionLevel < MinCompressionLevel || compressionLevel > MaxCompressionLevel {
		return nil, errorsx.Wrap(ErrInvalidCompressionLevel, "compressionLevel", compressionLevel)
	}

	switch format {
	case "", FormatPNG:
		return &PNGEncoder{CompressionLevel: pngCompressionLevel(compressionLevel)}, nil
	case FormatWebP:
		return &WebPEncoder{Method: webpMethod(compressionLevel)}, nil
	default:
		return nil, errorsx.Wrap(ErrUnsupportedFormat, "format", format)
	}
}

func pngCompressionLevel(level int) png.CompressionLevel {
	switch {
	case level == 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// webpMethod maps 0-9 onto libwebp's 0 (fast) to 6 (slow, smallest) method scale.
func webpMethod(level int) int {
	return (level*6 + 4) / 9
}

type PNGEncoder struct {
	CompressionLevel png.CompressionLevel
}

func (e *PNGEncoder) Encode(img image.Image) ([]byte, errorsx.Error) {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: e.CompressionLevel}
	err := enc.Encode(&buf, img)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	return buf.Bytes(), nil
}

func (e *PNGEncoder) Format() string      { return FormatPNG }
func (e *PNGEncoder) ContentType() string { return "image/png" }

type WebPEncoder struct {
	Method int
}

func (e *WebPEncoder) Encode(img image.Image) ([]byte, errorsx.Error) {
	var buf bytes.Buffer
	err := webp.Encode(&buf, img, webp.Options{
		Lossless: true,
		Method:   e.Method,
		Exact:    true,
	})
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	return buf.Bytes(), nil
}

func (e *WebPEncoder) Format() string      { return FormatWebP }
func (e *WebPEncoder) ContentType() string { return "image/webp" }

// ContentTypeForFormat returns the MIME type of an encoded format, defaulting to PNG.
func ContentTypeForFormat(format string) string {
	if format == FormatWebP {
		return "image/webp"
	}
	return "image/png"
}

// ToNRGBA quantizes the raster to 8 bits per channel. Channels are clamped to [0,1] first.
func (r *Raster) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			img.SetNRGBA(x, y, r.At(x, y).ToNRGBA())
		}
	}
	return img
}

// EncodeRaster quantizes and encodes the raster. The returned reader is positioned at the start of the stream.
func EncodeRaster(raster *Raster, encoder Encoder) (*bytes.Reader, errorsx.Error) {
	data, err := encoder.Encode(raster.ToNRGBA())
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(data), nil
}
