package format

import (
	"path/filepath"
	"strings"
)

// Canonicalize lower-cases token and folds extension aliases onto the
// container name the encoders accept. Unknown tokens pass through.
func Canonicalize(token string) Format {
	t := strings.ToLower(strings.TrimSpace(token))
	switch t {
	case "jpg":
		t = "jpeg"
	case "tif":
		t = "tiff"
	}

	return Format(t)
}

// DetectCurrentFormat prefers the format reported by the image decoder and
// falls back to the extension of filenameHint.
func DetectCurrentFormat(decoderFormat, filenameHint string) Format {
	if decoderFormat != "" {
		return Canonicalize(decoderFormat)
	}

	ext := strings.TrimPrefix(filepath.Ext(filenameHint), ".")
	return Canonicalize(ext)
}

// OfferableTargets returns supported minus current, in the order given.
// Without supported formats DefaultTargets is used. The result may be empty.
func OfferableTargets(current Format, supported ...Format) []Format {
	if len(supported) == 0 {
		supported = DefaultTargets
	}

	current = Canonicalize(string(current))
	targets := make([]Format, 0, len(supported))
	for _, f := range supported {
		if Canonicalize(string(f)) == current {
			continue
		}
		targets = append(targets, f)
	}

	return targets
}

// IsOfferable reports whether target is among the offerable targets for current.
func IsOfferable(current, target Format, supported ...Format) bool {
	target = Canonicalize(string(target))
	for _, f := range OfferableTargets(current, supported...) {
		if f == target {
			return true
		}
	}
	return false
}
