// The provider package defines the contract the download orchestrator
// holds against the external media source provider - the component that
// resolves a source URL into stream metadata and performs the actual
// byte transfer (and, for audio, the transcode post-process).
package provider

import (
	"context"

	"github.com/MdMeraj01/youtube-downloader/internal/media"
)

type UpdateStatus int

const (
	// Downloading updates carry percent/speed/byte-count information.
	Downloading UpdateStatus = iota
	// Finished indicates the transfer itself is complete; any
	// post-processing (e.g. audio transcode) may still follow.
	Finished
)

type (
	// ProgressUpdate is one progress event emitted by a transfer. The
	// textual percent/speed fields are best-effort display strings and
	// may be empty or malformed; consumers must tolerate that.
	ProgressUpdate struct {
		Status          UpdateStatus
		PercentText     string
		SpeedText       string
		DownloadedBytes int64
		TotalBytes      int64
	}

	// ProgressCallback receives transfer progress events, strictly in
	// the order the provider emits them.
	ProgressCallback func(ProgressUpdate)

	// TransferRequest describes one download: where the bytes come
	// from, which format variant to fetch and where the artifact must
	// be written. The artifact lands at {OutputDir}/{FilePrefix}.{ext}
	// with the extension chosen by the provider.
	TransferRequest struct {
		URL        string
		FormatSpec string
		OutputDir  string
		FilePrefix string
		AudioOnly  bool
	}

	// Provider is the external media source collaborator. Both calls
	// block for the full duration of the operation; cancellation is via
	// the supplied context.
	Provider interface {
		Resolve(ctx context.Context, url string) (*media.SourceInfo, error)
		Transfer(ctx context.Context, request TransferRequest, onProgress ProgressCallback) error
	}
)

// BestFormat is the sentinel format spec requesting the best available
// quality, subject to the configured resolution ceiling.
const BestFormat = "best"
