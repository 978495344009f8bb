package media

import (
	"sort"
	"time"
)

const (
	DefaultVideoLimit = 8
	DefaultAudioLimit = 3
)

type (
	// VideoOption is one entry of the normalized, deduplicated video
	// quality list presented to callers.
	VideoOption struct {
		FormatID string `json:"format_id"`
		Ext      string `json:"ext"`
		Quality  string `json:"quality"`
		Height   int    `json:"height"`
		Filesize string `json:"filesize"`
	}

	// AudioOption is one entry of the normalized audio quality list.
	AudioOption struct {
		FormatID    string `json:"format_id"`
		Ext         string `json:"ext"`
		BitrateKbps int    `json:"bitrate"`
		Filesize    string `json:"filesize"`
	}
)

// NormalizeVideo reduces the provider's raw format list to at most
// `limit` video options: one representative per quality label, highest
// resolution first. Formats without a video codec, and formats whose
// label resolves to nothing useful, are discarded.
func NormalizeVideo(formats []Format, duration time.Duration, limit int) []VideoOption {
	if limit <= 0 {
		limit = DefaultVideoLimit
	}

	candidates := make([]Format, 0, len(formats))
	for _, format := range formats {
		if format.HasVideo {
			candidates = append(candidates, format)
		}
	}

	// Stable keeps the provider's ordering for same-height formats, so
	// dedupe below retains the provider's preferred variant per label.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Height > candidates[j].Height
	})

	seen := make(map[string]struct{}, limit)
	options := make([]VideoOption, 0, limit)
	for _, format := range candidates {
		label := QualityLabel(format)
		if label == "" || label == UnknownQuality || label == "none" {
			continue
		}

		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}

		options = append(options, VideoOption{
			FormatID: format.ID,
			Ext:      format.Ext,
			Quality:  label,
			Height:   format.Height,
			Filesize: FormatSizeOrPlaceholder(ResolveSize(format, duration)),
		})

		if len(options) == limit {
			break
		}
	}

	return options
}

// NormalizeAudio reduces the provider's raw format list to at most
// `limit` audio-only options, highest bitrate first, deduplicated by
// exact bitrate.
func NormalizeAudio(formats []Format, duration time.Duration, limit int) []AudioOption {
	if limit <= 0 {
		limit = DefaultAudioLimit
	}

	candidates := make([]Format, 0, len(formats))
	for _, format := range formats {
		if format.HasAudio && !format.HasVideo {
			candidates = append(candidates, format)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].BitrateKbps > candidates[j].BitrateKbps
	})

	seen := make(map[int]struct{}, limit)
	options := make([]AudioOption, 0, limit)
	for _, format := range candidates {
		if _, dup := seen[format.BitrateKbps]; dup {
			continue
		}
		seen[format.BitrateKbps] = struct{}{}

		options = append(options, AudioOption{
			FormatID:    format.ID,
			Ext:         format.Ext,
			BitrateKbps: format.BitrateKbps,
			Filesize:    FormatSizeOrPlaceholder(ResolveSize(format, duration)),
		})

		if len(options) == limit {
			break
		}
	}

	return options
}
