package processor

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/xbanchon/image-optimizer/internal/format"
	"golang.org/x/image/tiff"
)

// Engine serializes a decoded image into a container format. quality is
// already mapped onto the codec's native scale.
type Engine interface {
	Name() string
	Encode(img image.Image, f format.Format, quality int) ([]byte, error)
}

// NativeEngine encodes with the Go codecs plus libwebp for WebP.
type NativeEngine struct{}

func (NativeEngine) Name() string {
	return "native"
}

func (NativeEngine) Encode(img image.Image, f format.Format, quality int) ([]byte, error) {
	bufWriter := new(bytes.Buffer)

	switch f {
	case format.JPEG:
		if err := jpeg.Encode(bufWriter, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case format.PNG:
		enc := &png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(bufWriter, img); err != nil {
			return nil, err
		}
	case format.WEBP:
		options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
		if err != nil {
			return nil, err
		}
		if err := webp.Encode(bufWriter, toNRGBA(img), options); err != nil {
			return nil, err
		}
	case format.TIFF:
		if err := tiff.Encode(bufWriter, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnsupportedFormat
	}

	return bufWriter.Bytes(), nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}

	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
