package processor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xbanchon/image-optimizer/internal/format"
)

var (
	ErrNotAnImage        = errors.New("content is not an image")
	ErrImageTooLarge     = errors.New("image dimensions exceed limit")
	ErrInvalidDimensions = errors.New("invalid image dimensions")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrQualityOutOfRange = errors.New("quality out of range")
	ErrTargetNotOffered  = errors.New("target format not offered")
	ErrUnexpectedOutput  = errors.New("unknown conversion error")
	ErrEmptyArtifact     = errors.New("encoder produced no data")
	ErrInvalidTransition = errors.New("invalid request transition")
)

// DecodeError reports uploaded bytes that are not a decodable image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode image: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) UserMessage() string {
	if errors.Is(e.Err, ErrImageTooLarge) {
		return "The uploaded image has too many pixels to be processed."
	}
	return "The uploaded file could not be read as an image."
}

// EncodingError reports a failed re-encode: unsupported target, rejected
// quality or a codec failure.
type EncodingError struct {
	Format format.Format
	Reason string
	Err    error
}

func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("encode %s: %s", e.Format, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

func (e *EncodingError) UserMessage() string {
	return fmt.Sprintf("The image could not be converted to %s: %s.", strings.ToUpper(string(e.Format)), e.Reason)
}

// NoTargetAvailableError reports that no target format can be offered for
// the detected source format.
type NoTargetAvailableError struct {
	Current format.Format
}

func (e *NoTargetAvailableError) Error() string {
	return fmt.Sprintf("no target format available for %q", string(e.Current))
}

func (e *NoTargetAvailableError) UserMessage() string {
	return fmt.Sprintf("No conversion is available for %s images.", strings.ToUpper(string(e.Current)))
}

// UserMessage extracts the user facing message of err.
func UserMessage(err error) string {
	var userErr interface{ UserMessage() string }
	if errors.As(err, &userErr) {
		return userErr.UserMessage()
	}
	return "An unexpected error occurred while optimizing the image."
}
