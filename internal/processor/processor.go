package processor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/xbanchon/image-optimizer/internal/format"
	"go.uber.org/zap"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	MinQuality     = 1
	MaxQuality     = 100
	DefaultQuality = 85

	// DefaultMaxPixels bounds width*height of accepted images, about 200 MB as NRGBA.
	DefaultMaxPixels int64 = 50_000_000
)

// ImageHandle is a decoded image together with the format its decoder
// reported.
type ImageHandle struct {
	Image  image.Image
	Format string
}

type EncodedArtifact struct {
	buf    []byte
	format format.Format
}

func (a *EncodedArtifact) Bytes() []byte {
	return bytes.Clone(a.buf)
}

func (a *EncodedArtifact) Len() int {
	return len(a.buf)
}

func (a *EncodedArtifact) Format() format.Format {
	return a.format
}

func (a *EncodedArtifact) MIMEType() string {
	return a.format.MIMEType()
}

// Filename is the suggested download name, e.g. optimized_image.webp.
func (a *EncodedArtifact) Filename() string {
	return "optimized_image." + a.format.Extension()
}

// Checksum is the xxhash64 of the encoded bytes in hex.
func (a *EncodedArtifact) Checksum() string {
	return fmt.Sprintf("%016x", xxhash.Sum64(a.buf))
}

type ReEncoder struct {
	engine    Engine
	targets   []format.Format
	logger    *zap.SugaredLogger
	maxPixels int64
}

// NewReEncoder builds a ReEncoder on engine. Targets default to
// format.DefaultTargets and a nil logger discards output.
func NewReEncoder(engine Engine, logger *zap.SugaredLogger, targets ...format.Format) *ReEncoder {
	if engine == nil {
		engine = NativeEngine{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if len(targets) == 0 {
		targets = format.DefaultTargets
	}

	return &ReEncoder{
		engine:    engine,
		targets:   targets,
		logger:    logger,
		maxPixels: DefaultMaxPixels,
	}
}

// WithMaxPixels sets the largest width*height accepted by decoding.
// Non-positive values restore DefaultMaxPixels.
func (r *ReEncoder) WithMaxPixels(n int64) *ReEncoder {
	if n <= 0 {
		n = DefaultMaxPixels
	}
	r.maxPixels = n
	return r
}

func (r *ReEncoder) MaxPixels() int64 {
	return r.maxPixels
}

func (r *ReEncoder) Engine() Engine {
	return r.engine
}

func (r *ReEncoder) Targets() []format.Format {
	return append([]format.Format(nil), r.targets...)
}

// Decode sniffs data and decodes it with DefaultMaxPixels.
func Decode(data []byte) (*ImageHandle, error) {
	return DecodeLimited(data, DefaultMaxPixels)
}

// DecodeLimited sniffs data and decodes it. Content that is not an image, or
// whose header declares more than maxPixels pixels, is rejected before the
// pixel data is allocated.
func DecodeLimited(data []byte, maxPixels int64) (*ImageHandle, error) {
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, &DecodeError{Err: fmt.Errorf("%w: detected %s", ErrNotAnImage, mtype.String())}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &DecodeError{Err: fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, cfg.Width, cfg.Height)}
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, &DecodeError{Err: fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)}
	}

	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	return &ImageHandle{Image: img, Format: name}, nil
}

// NativeQuality maps a quality scalar in [1,100] onto the codec's own
// parameter. Higher always means better fidelity. Lossless formats ignore
// the value.
func NativeQuality(f format.Format, quality int) (int, error) {
	if quality < MinQuality || quality > MaxQuality {
		return 0, &EncodingError{
			Format: f,
			Reason: fmt.Sprintf("quality %d is outside [%d,%d]", quality, MinQuality, MaxQuality),
			Err:    ErrQualityOutOfRange,
		}
	}

	c, ok := format.Lookup(f)
	if !ok || !c.Encodable {
		return 0, &EncodingError{Format: f, Reason: "format is not supported", Err: ErrUnsupportedFormat}
	}

	if !c.Lossy {
		return quality, nil
	}

	native := quality
	if !c.QualityRange.Contains(native) {
		return 0, &EncodingError{
			Format: f,
			Reason: fmt.Sprintf("codec rejects quality %d", native),
			Err:    ErrQualityOutOfRange,
		}
	}

	return native, nil
}

// Reencode encodes img into target at the given quality.
func (r *ReEncoder) Reencode(img *ImageHandle, target string, quality int) (*EncodedArtifact, error) {
	f := format.Canonicalize(target)

	c, ok := format.Lookup(f)
	if !ok || !c.Encodable {
		return nil, &EncodingError{Format: f, Reason: "format is not supported", Err: ErrUnsupportedFormat}
	}

	if img == nil || img.Image == nil {
		return nil, &EncodingError{Format: f, Reason: "no image to encode", Err: ErrNotAnImage}
	}

	native, err := NativeQuality(f, quality)
	if err != nil {
		return nil, err
	}

	buf, err := r.engine.Encode(img.Image, f, native)
	if err != nil {
		return nil, &EncodingError{Format: f, Reason: "codec failure", Err: err}
	}

	if len(buf) == 0 {
		return nil, &EncodingError{Format: f, Reason: "codec failure", Err: ErrEmptyArtifact}
	}

	if detected := mimetype.Detect(buf); !detected.Is(c.MIMEType) {
		return nil, &EncodingError{
			Format: f,
			Reason: "codec failure",
			Err:    fmt.Errorf("%w: got %s", ErrUnexpectedOutput, detected.String()),
		}
	}

	r.logger.Debugw("image re-encoded",
		"engine", r.engine.Name(),
		"format", f,
		"quality", quality,
		"native_quality", native,
		"bytes", len(buf),
	)

	return &EncodedArtifact{buf: buf, format: f}, nil
}

// PreviewDecode decodes an artifact back into an image for display.
func (r *ReEncoder) PreviewDecode(a *EncodedArtifact) (*ImageHandle, error) {
	if a == nil {
		return nil, &EncodingError{Reason: "artifact is not decodable", Err: ErrEmptyArtifact}
	}

	img, err := DecodeLimited(a.buf, r.maxPixels)
	if err != nil {
		return nil, &EncodingError{Format: a.format, Reason: "artifact is not decodable", Err: err}
	}

	return img, nil
}
