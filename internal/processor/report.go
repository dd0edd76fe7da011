package processor

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

type CompressionReport struct {
	OriginalSize  int64   `json:"original_size"`
	OptimizedSize int64   `json:"optimized_size"`
	Ratio         float64 `json:"compression_ratio"`
}

// Ratio is the size reduction in percent. It is negative when the output
// grew and 0 without a baseline.
func Ratio(originalLen, artifactLen int64) float64 {
	if originalLen <= 0 {
		return 0
	}
	return (1 - float64(artifactLen)/float64(originalLen)) * 100
}

func NewReport(originalLen, artifactLen int64) CompressionReport {
	return CompressionReport{
		OriginalSize:  originalLen,
		OptimizedSize: artifactLen,
		Ratio:         Ratio(originalLen, artifactLen),
	}
}

func (r CompressionReport) RatioString() string {
	return strconv.FormatFloat(r.Ratio, 'f', 2, 64)
}

func (r CompressionReport) String() string {
	return fmt.Sprintf("%s -> %s (%s%%)",
		humanize.Bytes(uint64(r.OriginalSize)),
		humanize.Bytes(uint64(r.OptimizedSize)),
		r.RatioString(),
	)
}
