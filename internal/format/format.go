package format

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownFormat   = errors.New("unknown image format")
	ErrNotEncodable    = errors.New("image format cannot be encoded")
	ErrDuplicateFormat = errors.New("duplicate image format")
)

type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	WEBP Format = "webp"
	TIFF Format = "tiff"
)

// DefaultTargets is the preference order in which target formats are offered.
var DefaultTargets = []Format{WEBP, JPEG, PNG}

type QualityRange struct {
	Min int
	Max int
}

func (r QualityRange) Contains(q int) bool {
	return q >= r.Min && q <= r.Max
}

type Capability struct {
	Lossy        bool
	QualityRange QualityRange // zero for lossless formats
	MIMEType     string
	Extensions   []string
	Encodable    bool
}

var capabilities = map[Format]Capability{
	JPEG: {
		Lossy:        true,
		QualityRange: QualityRange{Min: 1, Max: 100},
		MIMEType:     "image/jpeg",
		Extensions:   []string{"jpeg", "jpg"},
		Encodable:    true,
	},
	PNG: {
		MIMEType:   "image/png",
		Extensions: []string{"png"},
		Encodable:  true,
	},
	WEBP: {
		Lossy:        true,
		QualityRange: QualityRange{Min: 1, Max: 100},
		MIMEType:     "image/webp",
		Extensions:   []string{"webp"},
		Encodable:    true,
	},
	TIFF: {
		MIMEType:   "image/tiff",
		Extensions: []string{"tiff", "tif"},
		Encodable:  true,
	},
}

// Lookup returns the capability entry of f.
func Lookup(f Format) (Capability, bool) {
	c, ok := capabilities[f]
	return c, ok
}

func (f Format) Supported() bool {
	_, ok := capabilities[f]
	return ok
}

func (f Format) Lossy() bool {
	return capabilities[f].Lossy
}

// MIMEType returns image/<format> for every token, known or not.
func (f Format) MIMEType() string {
	if c, ok := capabilities[f]; ok {
		return c.MIMEType
	}
	return "image/" + string(f)
}

func (f Format) Extension() string {
	return string(f)
}

func (f Format) String() string {
	return string(f)
}

// ParseList parses a comma separated list of target formats, e.g. "webp,jpg,png".
func ParseList(csv string) ([]Format, error) {
	var formats []Format
	seen := map[Format]bool{}

	for _, token := range strings.Split(csv, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}

		f := Canonicalize(token)
		c, ok := capabilities[f]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, token)
		}
		if !c.Encodable {
			return nil, fmt.Errorf("%w: %q", ErrNotEncodable, token)
		}
		if seen[f] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFormat, token)
		}

		seen[f] = true
		formats = append(formats, f)
	}

	return formats, nil
}
