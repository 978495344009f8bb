package media

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// SizePlaceholder is rendered when a format's size cannot be determined
// or even estimated. Never "0" - a zero would read as an empty file.
const SizePlaceholder = "Calculating..."

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders a byte count using the largest base-1024 unit for
// which the scaled value is at least one, rounded to two decimal places.
// Zero renders as "0 B".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	magnitude := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if magnitude >= len(sizeUnits) {
		magnitude = len(sizeUnits) - 1
	}

	scaled := float64(bytes) / math.Pow(1024, float64(magnitude))
	return formatScaled(scaled) + " " + sizeUnits[magnitude]
}

// FormatSizeOrPlaceholder is FormatSize with unknown (non-positive)
// sizes rendered as the placeholder string.
func FormatSizeOrPlaceholder(bytes int64) string {
	if bytes <= 0 {
		return SizePlaceholder
	}

	return FormatSize(bytes)
}

// ResolveSize determines the byte size for a format: an exact reported
// size is preferred, then the provider's approximation, then an estimate
// derived from the audio bitrate and source duration. Zero means the
// size is unknown.
func ResolveSize(format Format, duration time.Duration) int64 {
	if format.Filesize > 0 {
		return format.Filesize
	}

	if format.FilesizeApprox > 0 {
		return format.FilesizeApprox
	}

	seconds := duration.Seconds()
	if format.BitrateKbps > 0 && seconds > 0 {
		return int64(float64(format.BitrateKbps) * 1000 * seconds / 8)
	}

	return 0
}

// formatScaled prints the value rounded to 2dp, keeping at least one
// decimal digit so whole values read as "1.0" rather than "1".
func formatScaled(value float64) string {
	rounded := math.Round(value*100) / 100
	rendered := strconv.FormatFloat(rounded, 'f', -1, 64)
	if !strings.Contains(rendered, ".") {
		rendered += ".0"
	}

	return rendered
}
