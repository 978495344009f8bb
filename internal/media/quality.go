package media

import "fmt"

// qualityThreshold maps a minimum vertical resolution to its
// human-readable rung on the quality ladder. Ordered highest first;
// the first rung the height clears wins.
type qualityThreshold struct {
	minHeight int
	label     string
}

var qualityLadder = []qualityThreshold{
	{4320, "8K"},
	{2160, "4K"},
	{1440, "1440p"},
	{1080, "1080p"},
	{720, "720p"},
	{480, "480p"},
	{360, "360p"},
	{240, "240p"},
	{144, "144p"},
}

const UnknownQuality = "Unknown"

// QualityForHeight returns the ladder label for the given vertical
// resolution. Heights below the lowest rung still produce a "{height}p"
// label rather than being discarded.
func QualityForHeight(height int) string {
	for _, rung := range qualityLadder {
		if height >= rung.minHeight {
			return rung.label
		}
	}

	return fmt.Sprintf("%dp", height)
}

// QualityLabel derives the display label for a format: the ladder label
// when a height is known, otherwise the provider's free-text quality
// note, otherwise "Unknown".
func QualityLabel(format Format) string {
	if format.Height > 0 {
		return QualityForHeight(format.Height)
	}

	if format.QualityNote != "" {
		return format.QualityNote
	}

	return UnknownQuality
}

func formatHMS(h, m, s int) string { return fmt.Sprintf("%d:%02d:%02d", h, m, s) }
func formatMS(m, s int) string     { return fmt.Sprintf("%d:%02d", m, s) }
