package processor

import (
	"bytes"
	"image"
	"image/png"

	"github.com/h2non/bimg"
	"github.com/xbanchon/image-optimizer/internal/format"
)

var ImageTypes = map[format.Format]bimg.ImageType{
	format.JPEG: bimg.JPEG,
	format.PNG:  bimg.PNG,
	format.WEBP: bimg.WEBP,
	format.TIFF: bimg.TIFF,
}

// VipsEngine encodes through libvips. The decoded image is handed over as
// a fast PNG since bimg works on buffers.
type VipsEngine struct{}

func (VipsEngine) Name() string {
	return "vips"
}

func (VipsEngine) Encode(img image.Image, f format.Format, quality int) ([]byte, error) {
	imgType, ok := ImageTypes[f]
	if !ok || !bimg.IsTypeSupportedSave(imgType) {
		return nil, ErrUnsupportedFormat
	}

	src := new(bytes.Buffer)
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(src, img); err != nil {
		return nil, err
	}

	opts := bimg.Options{
		Type:          imgType,
		StripMetadata: true,
	}
	if f.Lossy() {
		opts.Quality = quality
	}
	if f == format.PNG {
		opts.Compression = 9
	}

	newBuf, err := bimg.NewImage(src.Bytes()).Process(opts)
	if err != nil {
		return nil, err
	}

	if bimg.DetermineImageTypeName(newBuf) != string(f) {
		return nil, ErrUnexpectedOutput
	}

	return newBuf, nil
}
