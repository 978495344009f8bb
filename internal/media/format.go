package media

import "time"

type (
	// Format is a single quality/codec variant of a source, as reported
	// by the media source provider. Instances are transient - they only
	// exist for the duration of a single metadata resolution.
	Format struct {
		ID             string
		Ext            string
		HasVideo       bool
		HasAudio       bool
		Height         int
		Width          int
		BitrateKbps    int
		Filesize       int64
		FilesizeApprox int64
		QualityNote    string
	}

	// SourceInfo is the resolved metadata for a source URL.
	SourceInfo struct {
		Title     string
		Duration  time.Duration
		Uploader  string
		Thumbnail string
		Formats   []Format
	}
)

// DurationString renders the source duration in the familiar
// "MM:SS" (or "H:MM:SS") display form.
func (info *SourceInfo) DurationString() string {
	total := int(info.Duration.Seconds())
	if total <= 0 {
		return "Unknown"
	}

	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return formatHMS(hours, minutes, seconds)
	}

	return formatMS(minutes, seconds)
}
