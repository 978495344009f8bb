// A Provider implementation backed by the YouTube innertube client
// (kkdai/youtube), with the audio transcode post-process handled by an
// ffmpeg pass. The orchestrator treats this package as a black box
// behind the provider.Provider interface.
package youtube

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MdMeraj01/youtube-downloader/internal/media"
	"github.com/MdMeraj01/youtube-downloader/internal/provider"
	"github.com/MdMeraj01/youtube-downloader/pkg/logger"
	"github.com/floostack/transcoder/ffmpeg"
	"github.com/kkdai/youtube/v2"
)

var log = logger.Get("YouTube")

const progressInterval = time.Millisecond * 500

type (
	Config struct {
		// MaxBestHeight caps the resolution chosen for the "best"
		// format spec. Explicit format specs bypass the cap.
		MaxBestHeight  int    `yaml:"max_best_height" env:"PROVIDER_MAX_BEST_HEIGHT" env-default:"2160"`
		FfmpegBinPath  string `yaml:"ffmpeg_bin" env:"FFMPEG_BIN" env-default:"ffmpeg"`
		FfprobeBinPath string `yaml:"ffprobe_bin" env:"FFPROBE_BIN" env-default:"ffprobe"`
		AudioBitrate   string `yaml:"audio_bitrate" env:"AUDIO_BITRATE" env-default:"192k"`
	}

	youtubeProvider struct {
		client youtube.Client
		config Config
	}
)

func New(config Config) *youtubeProvider {
	return &youtubeProvider{client: youtube.Client{}, config: config}
}

// Resolve fetches the video metadata for the URL provided and maps the
// raw stream list into the transport-agnostic format descriptors the
// normalizer consumes.
func (prov *youtubeProvider) Resolve(ctx context.Context, url string) (*media.SourceInfo, error) {
	video, err := prov.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source: %w", err)
	}

	formats := make([]media.Format, 0, len(video.Formats))
	for _, format := range video.Formats {
		formats = append(formats, descriptorFor(format))
	}

	return &media.SourceInfo{
		Title:     video.Title,
		Duration:  video.Duration,
		Uploader:  video.Author,
		Thumbnail: bestThumbnail(video),
		Formats:   formats,
	}, nil
}

// Transfer downloads the requested format variant to
// {OutputDir}/{FilePrefix}.{ext}, emitting progress updates as bytes
// arrive. Audio transfers additionally transcode the result to
// {FilePrefix}.mp3; the pre-transcode intermediate is deliberately left
// in place for the orchestrator's sweep.
func (prov *youtubeProvider) Transfer(ctx context.Context, request provider.TransferRequest, onProgress provider.ProgressCallback) error {
	video, err := prov.client.GetVideoContext(ctx, request.URL)
	if err != nil {
		return fmt.Errorf("failed to resolve source: %w", err)
	}

	format, err := prov.selectFormat(video, request)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(request.OutputDir, request.FilePrefix+"."+extensionFor(format.MimeType))
	if err := prov.fetchStream(ctx, video, format, outputPath, onProgress); err != nil {
		return err
	}

	onProgress(provider.ProgressUpdate{Status: provider.Finished})

	if request.AudioOnly {
		target := filepath.Join(request.OutputDir, request.FilePrefix+".mp3")
		if err := prov.transcodeAudio(ctx, outputPath, target); err != nil {
			return err
		}
	}

	return nil
}

// fetchStream copies the selected stream to disk, reporting throttled
// progress updates along the way. The context is checked between
// chunks so caller cancellation interrupts the transfer.
func (prov *youtubeProvider) fetchStream(ctx context.Context, video *youtube.Video, format *youtube.Format, outputPath string, onProgress provider.ProgressCallback) error {
	stream, totalBytes, err := prov.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer stream.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer out.Close()

	var downloaded int64
	lastEmit := time.Now()
	lastBytes := int64(0)
	buffer := make([]byte, 64*1024)

	emit := func(now time.Time) {
		elapsed := now.Sub(lastEmit).Seconds()
		var rate int64
		if elapsed > 0 {
			rate = int64(float64(downloaded-lastBytes) / elapsed)
		}

		onProgress(provider.ProgressUpdate{
			Status:          provider.Downloading,
			PercentText:     percentText(downloaded, totalBytes),
			SpeedText:       media.FormatSize(rate) + "/s",
			DownloadedBytes: downloaded,
			TotalBytes:      totalBytes,
		})

		lastEmit = now
		lastBytes = downloaded
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := stream.Read(buffer)
		if n > 0 {
			if _, writeErr := out.Write(buffer[:n]); writeErr != nil {
				return fmt.Errorf("failed to write artifact: %w", writeErr)
			}
			downloaded += int64(n)
		}

		if readErr == io.EOF {
			emit(time.Now())
			return nil
		} else if readErr != nil {
			return fmt.Errorf("stream read failed: %w", readErr)
		}

		if now := time.Now(); now.Sub(lastEmit) >= progressInterval {
			emit(now)
		}
	}
}

// transcodeAudio runs the ffmpeg post-process converting the fetched
// audio stream to mp3 at the configured bitrate.
func (prov *youtubeProvider) transcodeAudio(ctx context.Context, inputPath string, outputPath string) error {
	outputFormat := "mp3"
	audioCodec := "libmp3lame"
	audioBitrate := prov.config.AudioBitrate
	skipVideo := true
	overwrite := true

	opts := ffmpeg.Options{
		OutputFormat: &outputFormat,
		AudioCodec:   &audioCodec,
		AudioBitrate: &audioBitrate,
		SkipVideo:    &skipVideo,
		Overwrite:    &overwrite,
	}

	ffmpegCfg := &ffmpeg.Config{
		ProgressEnabled: true,
		FfmpegBinPath:   prov.config.FfmpegBinPath,
		FfprobeBinPath:  prov.config.FfprobeBinPath,
	}

	progressChan, err := ffmpeg.
		New(ffmpegCfg).
		Input(inputPath).
		Output(outputPath).
		WithOptions(opts).
		Start(opts)
	if err != nil {
		return fmt.Errorf("audio transcode failed: %w", err)
	}

	for prog := range progressChan {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Emit(logger.VERBOSE, "transcode of %s at %.1f%%\n", inputPath, prog.GetProgress())
	}

	if _, statErr := os.Stat(outputPath); statErr != nil {
		return fmt.Errorf("audio transcode produced no output: %w", statErr)
	}

	return nil
}

// selectFormat picks the stream variant to fetch. An explicit format
// spec names an itag; the "best" sentinel picks the highest-resolution
// muxed stream under the configured ceiling. Audio transfers always
// take the highest-bitrate audio-only stream.
func (prov *youtubeProvider) selectFormat(video *youtube.Video, request provider.TransferRequest) (*youtube.Format, error) {
	if request.AudioOnly {
		return bestAudioFormat(video)
	}

	if request.FormatSpec != "" && request.FormatSpec != provider.BestFormat {
		itag, err := strconv.Atoi(request.FormatSpec)
		if err != nil {
			return nil, fmt.Errorf("format spec %q is not a known format id", request.FormatSpec)
		}

		for i := range video.Formats {
			if video.Formats[i].ItagNo == itag {
				return &video.Formats[i], nil
			}
		}

		return nil, fmt.Errorf("format %d is not available for this source", itag)
	}

	return prov.bestVideoFormat(video)
}

// bestVideoFormat prefers muxed (audio+video) streams, falling back to
// video-only when the source offers nothing muxed under the ceiling.
func (prov *youtubeProvider) bestVideoFormat(video *youtube.Video) (*youtube.Format, error) {
	pick := func(formats []youtube.Format, requireAudio bool) *youtube.Format {
		var best *youtube.Format
		for i := range formats {
			format := &formats[i]
			if !strings.HasPrefix(format.MimeType, "video/") {
				continue
			}
			if requireAudio && format.AudioChannels == 0 {
				continue
			}
			if prov.config.MaxBestHeight > 0 && format.Height > prov.config.MaxBestHeight {
				continue
			}
			if best == nil || format.Height > best.Height {
				best = format
			}
		}
		return best
	}

	if best := pick(video.Formats, true); best != nil {
		return best, nil
	}
	if best := pick(video.Formats, false); best != nil {
		log.Emit(logger.DEBUG, "no muxed format under ceiling for %s, using video-only stream\n", video.ID)
		return best, nil
	}

	return nil, fmt.Errorf("no downloadable video format found")
}

func bestAudioFormat(video *youtube.Video) (*youtube.Format, error) {
	var best *youtube.Format
	for i := range video.Formats {
		format := &video.Formats[i]
		if !strings.HasPrefix(format.MimeType, "audio/") {
			continue
		}
		if best == nil || format.Bitrate > best.Bitrate {
			best = format
		}
	}

	if best == nil {
		return nil, fmt.Errorf("no downloadable audio format found")
	}

	return best, nil
}

func descriptorFor(format youtube.Format) media.Format {
	mimeType := format.MimeType

	return media.Format{
		ID:          strconv.Itoa(format.ItagNo),
		Ext:         extensionFor(mimeType),
		HasVideo:    strings.HasPrefix(mimeType, "video/"),
		HasAudio:    format.AudioChannels > 0 || strings.HasPrefix(mimeType, "audio/"),
		Height:      format.Height,
		Width:       format.Width,
		BitrateKbps: format.Bitrate / 1000,
		Filesize:    format.ContentLength,
		QualityNote: format.QualityLabel,
	}
}

// extensionFor derives a file extension from a stream MIME type, e.g.
// `video/mp4; codecs="avc1.42001E"` -> "mp4". Audio mp4 streams use the
// conventional m4a extension.
func extensionFor(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	kind, subtype, found := strings.Cut(strings.TrimSpace(base), "/")
	if !found {
		return "mp4"
	}

	switch subtype {
	case "mp4":
		if kind == "audio" {
			return "m4a"
		}
		return "mp4"
	case "webm":
		return "webm"
	case "3gpp":
		return "3gp"
	default:
		return subtype
	}
}

func bestThumbnail(video *youtube.Video) string {
	var url string
	var largest uint
	for _, thumbnail := range video.Thumbnails {
		if thumbnail.Width >= largest {
			largest = thumbnail.Width
			url = thumbnail.URL
		}
	}

	return url
}

func percentText(downloaded int64, total int64) string {
	if total <= 0 {
		return ""
	}

	return fmt.Sprintf("%.1f%%", float64(downloaded)/float64(total)*100)
}
