package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MdMeraj01/youtube-downloader/internal/event"
	"github.com/MdMeraj01/youtube-downloader/internal/media"
	"github.com/MdMeraj01/youtube-downloader/internal/progress"
	"github.com/MdMeraj01/youtube-downloader/internal/provider"
	"github.com/MdMeraj01/youtube-downloader/pkg/logger"
	internalSync "github.com/MdMeraj01/youtube-downloader/pkg/sync"
	"github.com/MdMeraj01/youtube-downloader/pkg/worker"
	"github.com/google/uuid"
)

var log = logger.Get("DownloadServ")

const maxTitleLength = 100

type (
	Config struct {
		OutputDir        string        `yaml:"output_dir" env:"OUTPUT_DIR" env-default:"downloads"`
		VideoFormatLimit int           `yaml:"video_format_limit" env:"VIDEO_FORMAT_LIMIT" env-default:"8"`
		AudioFormatLimit int           `yaml:"audio_format_limit" env:"AUDIO_FORMAT_LIMIT" env-default:"3"`
		MaxConcurrent    int           `yaml:"max_concurrent" env:"MAX_CONCURRENT_DOWNLOADS" env-default:"4"`
		ResolveTimeout   time.Duration `yaml:"resolve_timeout" env:"RESOLVE_TIMEOUT" env-default:"30s"`
		TransferTimeout  time.Duration `yaml:"transfer_timeout" env:"TRANSFER_TIMEOUT" env-default:"30m"`
	}

	// VideoInfo is the caller-facing metadata response for a source.
	VideoInfo struct {
		Title     string              `json:"title"`
		Duration  string              `json:"duration"`
		Uploader  string              `json:"uploader"`
		Thumbnail string              `json:"thumbnail"`
		Formats   []media.VideoOption `json:"formats"`
	}

	AudioInfo struct {
		Title     string              `json:"title"`
		Duration  string              `json:"duration"`
		Uploader  string              `json:"uploader"`
		Thumbnail string              `json:"thumbnail"`
		Formats   []media.AudioOption `json:"audio_formats"`
	}

	// Artifact is the downloaded file, owned by the caller from the
	// moment it is returned: stream it out, then delete it.
	Artifact struct {
		JobID    string
		Path     string
		Filename string
	}

	// Service drives the media source provider for both metadata-only
	// and full-download operations, wiring provider progress events
	// into the progress registry and the event bus.
	Service struct {
		config     Config
		provider   provider.Provider
		registry   *progress.Registry
		eventBus   event.EventCoordinator
		pool       *worker.Pool
		activeJobs internalSync.TypedSyncMap[string, time.Time]
	}
)

// NewService constructs the download orchestrator, ensuring the
// transient output directory exists.
func NewService(config Config, prov provider.Provider, registry *progress.Registry, eventBus event.EventCoordinator) (*Service, error) {
	if config.OutputDir == "" {
		return nil, fmt.Errorf("download service requires an output directory")
	}

	if err := os.MkdirAll(config.OutputDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", config.OutputDir, err)
	}

	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}

	return &Service{
		config:   config,
		provider: prov,
		registry: registry,
		eventBus: eventBus,
		pool:     worker.NewPool(config.MaxConcurrent),
	}, nil
}

// VideoInfo resolves and normalizes the video metadata for a URL. No
// job is registered - metadata resolution leaves no state behind.
func (service *Service) VideoInfo(ctx context.Context, url string) (*VideoInfo, error) {
	info, err := service.resolve(ctx, url)
	if err != nil {
		return nil, Classify(err)
	}

	return &VideoInfo{
		Title:     info.Title,
		Duration:  info.DurationString(),
		Uploader:  info.Uploader,
		Thumbnail: info.Thumbnail,
		Formats:   media.NormalizeVideo(info.Formats, info.Duration, service.config.VideoFormatLimit),
	}, nil
}

// AudioInfo resolves and normalizes the audio metadata for a URL.
func (service *Service) AudioInfo(ctx context.Context, url string) (*AudioInfo, error) {
	info, err := service.resolve(ctx, url)
	if err != nil {
		return nil, Classify(err)
	}

	return &AudioInfo{
		Title:     info.Title,
		Duration:  info.DurationString(),
		Uploader:  info.Uploader,
		Thumbnail: info.Thumbnail,
		Formats:   media.NormalizeAudio(info.Formats, info.Duration, service.config.AudioFormatLimit),
	}, nil
}

// DownloadVideo performs a full video download for the URL in the
// requested format, returning the artifact ready for streaming to the
// caller. On any failure the job's registry entry is purged before the
// classified error is returned.
func (service *Service) DownloadVideo(ctx context.Context, url string, formatSpec string, jobID string) (*Artifact, error) {
	return service.download(ctx, url, formatSpec, jobID, false)
}

// DownloadAudio performs an audio-only download, transcoded to mp3 by
// the provider; any pre-transcode intermediate is swept before the
// artifact is handed back.
func (service *Service) DownloadAudio(ctx context.Context, url string, jobID string) (*Artifact, error) {
	return service.download(ctx, url, provider.BestFormat, jobID, true)
}

// Progress returns the point-in-time snapshot for a job. Unknown jobs
// report the default "not started" snapshot.
func (service *Service) Progress(jobID string) progress.Snapshot {
	return service.registry.Get(jobID)
}

// ActiveJobs lists the IDs of downloads currently in flight.
func (service *Service) ActiveJobs() []string {
	jobs := make([]string, 0)
	service.activeJobs.Range(func(id string, _ time.Time) bool {
		jobs = append(jobs, id)
		return true
	})

	return jobs
}

// CleanupArtifact deletes the artifact's backing file. Best-effort: the
// caller logs the returned error but must never surface it.
func (service *Service) CleanupArtifact(artifact *Artifact) error {
	if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// SweepOutputDir removes every file in the output directory. Called at
// boot: anything present belongs to a previous process and is an
// orphan (transient storage does not survive restarts).
func (service *Service) SweepOutputDir() {
	entries, err := os.ReadDir(service.config.OutputDir)
	if err != nil {
		log.Warnf("failed to sweep output directory %s: %v\n", service.config.OutputDir, err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		stale := filepath.Join(service.config.OutputDir, entry.Name())
		if err := os.Remove(stale); err != nil {
			log.Warnf("failed to remove orphaned artifact %s: %v\n", stale, err)
		} else {
			log.Emit(logger.REMOVE, "Removed orphaned artifact %s\n", stale)
		}
	}
}

func (service *Service) download(ctx context.Context, url string, formatSpec string, jobID string, audio bool) (*Artifact, error) {
	if err := service.pool.TryAcquire(); err != nil {
		return nil, ErrTooBusy
	}
	defer service.pool.Release()

	if jobID == "" {
		jobID = uuid.NewString()
	}

	if _, inUse := service.activeJobs.LoadOrStore(jobID, time.Now()); inUse {
		return nil, &Error{Category: InvalidInput, Message: fmt.Sprintf("job id %s is already in use by an active download", jobID)}
	}
	defer service.activeJobs.Delete(jobID)

	// Metadata is resolved up front solely for the caller-facing title;
	// job identity is always the job ID.
	info, err := service.resolve(ctx, url)
	if err != nil {
		return nil, Classify(err)
	}

	fallback := "video"
	if audio {
		fallback = "audio"
	}
	title := sanitizeTitle(info.Title, fallback)

	service.registry.Create(jobID)
	log.Emit(logger.NEW, "Job %s started for %s (audio=%v, format=%s)\n", jobID, url, audio, formatSpec)

	transferCtx, cancelTransfer := context.WithTimeout(ctx, service.config.TransferTimeout)
	defer cancelTransfer()

	request := provider.TransferRequest{
		URL:        url,
		FormatSpec: formatSpec,
		OutputDir:  service.config.OutputDir,
		FilePrefix: jobID,
		AudioOnly:  audio,
	}

	if err := service.provider.Transfer(transferCtx, request, service.progressSink(jobID, audio)); err != nil {
		service.failJob(jobID)
		return nil, Classify(err)
	}

	requiredExt := ""
	if audio {
		requiredExt = ".mp3"
	}

	artifactPath, err := service.locateArtifact(jobID, requiredExt)
	if err != nil {
		service.failJob(jobID)
		return nil, newError(LocalIOFailure, err)
	}

	if audio {
		service.sweepIntermediates(jobID, artifactPath)
	}

	// The registry entry must not outlive the job: purge before the
	// artifact is handed over for transfer.
	service.registry.Remove(jobID)
	service.eventBus.Dispatch(event.DownloadCompleteEvent, jobID)
	log.Emit(logger.SUCCESS, "Job %s complete, artifact at %s\n", jobID, artifactPath)

	return &Artifact{
		JobID:    jobID,
		Path:     artifactPath,
		Filename: title + filepath.Ext(artifactPath),
	}, nil
}

func (service *Service) resolve(ctx context.Context, url string) (*media.SourceInfo, error) {
	resolveCtx, cancel := context.WithTimeout(ctx, service.config.ResolveTimeout)
	defer cancel()

	return service.provider.Resolve(resolveCtx, url)
}

// progressSink adapts provider progress events into registry updates
// and event bus dispatches for one job.
func (service *Service) progressSink(jobID string, audio bool) provider.ProgressCallback {
	return func(update provider.ProgressUpdate) {
		switch update.Status {
		case provider.Downloading:
			percent := ParsePercent(update.PercentText)
			state := progress.StateDownloading
			fields := progress.Fields{
				Percent:    &percent,
				State:      &state,
				Downloaded: &update.DownloadedBytes,
			}

			if update.SpeedText != "" {
				fields.Speed = &update.SpeedText
			}
			if update.TotalBytes > 0 {
				sizeInfo := fmt.Sprintf("%s / %s", media.FormatSize(update.DownloadedBytes), media.FormatSize(update.TotalBytes))
				fields.SizeInfo = &sizeInfo
				fields.Total = &update.TotalBytes
			}

			service.registry.Update(jobID, fields)
		case provider.Finished:
			percent := 100.0
			state := progress.StateProcessing
			speed := "Complete"
			if audio {
				state = progress.StateConverting
				speed = "Processing"
			}

			service.registry.Update(jobID, progress.Fields{Percent: &percent, State: &state, Speed: &speed})
		}

		service.eventBus.Dispatch(event.DownloadProgressEvent, jobID)
	}
}

// failJob purges all traces of a failed job: the registry entry and any
// partially written artifact files.
func (service *Service) failJob(jobID string) {
	service.registry.Remove(jobID)
	service.sweepIntermediates(jobID, "")
	service.eventBus.Dispatch(event.DownloadFailedEvent, jobID)
	log.Emit(logger.REMOVE, "Job %s failed, progress entry purged\n", jobID)
}

// locateArtifact scans the output directory for the file written by
// this job (job id prefix). For audio downloads requiredExt
// disambiguates the final mp3 from the pre-transcode intermediate.
func (service *Service) locateArtifact(jobID string, requiredExt string) (string, error) {
	entries, err := os.ReadDir(service.config.OutputDir)
	if err != nil {
		return "", fmt.Errorf("failed to scan output directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), jobID) {
			continue
		}

		if requiredExt != "" && !strings.HasSuffix(entry.Name(), requiredExt) {
			continue
		}

		return filepath.Join(service.config.OutputDir, entry.Name()), nil
	}

	return "", fmt.Errorf("no artifact with prefix %s found", jobID)
}

// sweepIntermediates removes every job-prefixed file except the final
// artifact. Failures are logged and swallowed - cleanup must never fail
// the job.
func (service *Service) sweepIntermediates(jobID string, keep string) {
	entries, err := os.ReadDir(service.config.OutputDir)
	if err != nil {
		log.Warnf("failed to scan output directory for job %s intermediates: %v\n", jobID, err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), jobID) {
			continue
		}

		path := filepath.Join(service.config.OutputDir, entry.Name())
		if path == keep {
			continue
		}

		if err := os.Remove(path); err != nil {
			log.Warnf("failed to remove intermediate %s: %v\n", path, err)
		} else {
			log.Emit(logger.REMOVE, "Removed intermediate %s\n", path)
		}
	}
}

// ParsePercent extracts a numeric percentage from the provider's
// display text ("42.5%"). Malformed or missing text yields 0 - a bad
// progress line must never fail the job.
func ParsePercent(text string) float64 {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	if trimmed == "" {
		return 0
	}

	percent, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0
	}

	if percent < 0 {
		return 0
	} else if percent > 100 {
		return 100
	}

	return percent
}

// sanitizeTitle makes a resolved title safe for use in a filename:
// path-unsafe characters are replaced and the result is bounded.
func sanitizeTitle(title string, fallback string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, title)

	sanitized = strings.TrimSpace(sanitized)
	if sanitized == "" {
		return fallback
	}

	runes := []rune(sanitized)
	if len(runes) > maxTitleLength {
		sanitized = string(runes[:maxTitleLength])
	}

	return sanitized
}
