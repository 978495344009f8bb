package youtube

import (
	"testing"

	"github.com/MdMeraj01/youtube-downloader/internal/provider"
	"github.com/MdMeraj01/youtube-downloader/pkg/logger"
	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func providerRequest(formatSpec string) provider.TransferRequest {
	return provider.TransferRequest{URL: "https://example.com/w", FormatSpec: formatSpec}
}

func init() {
	logger.SetMinLoggingLevel(logger.FATAL.Level())
}

func Test_ExtensionFor_MimeTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mimeType string
		expected string
	}{
		{`video/mp4; codecs="avc1.42001E, mp4a.40.2"`, "mp4"},
		{`audio/mp4; codecs="mp4a.40.2"`, "m4a"},
		{`video/webm; codecs="vp9"`, "webm"},
		{`audio/webm; codecs="opus"`, "webm"},
		{`video/3gpp; codecs="mp4v.20.3"`, "3gp"},
		{"garbage", "mp4"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, extensionFor(tt.mimeType), "mime type %q", tt.mimeType)
	}
}

func Test_PercentText_GuardsUnknownTotal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "50.0%", percentText(512, 1024))
	assert.Equal(t, "", percentText(512, 0))
	assert.Equal(t, "", percentText(512, -1))
}

func Test_DescriptorFor_MapsStreamFields(t *testing.T) {
	t.Parallel()

	descriptor := descriptorFor(youtube.Format{
		ItagNo:        22,
		MimeType:      `video/mp4; codecs="avc1.64001F, mp4a.40.2"`,
		Height:        720,
		Width:         1280,
		Bitrate:       2500000,
		ContentLength: 1048576,
		AudioChannels: 2,
		QualityLabel:  "720p",
	})

	assert.Equal(t, "22", descriptor.ID)
	assert.Equal(t, "mp4", descriptor.Ext)
	assert.True(t, descriptor.HasVideo)
	assert.True(t, descriptor.HasAudio)
	assert.Equal(t, 720, descriptor.Height)
	assert.Equal(t, 2500, descriptor.BitrateKbps)
	assert.Equal(t, int64(1048576), descriptor.Filesize)

	audioOnly := descriptorFor(youtube.Format{
		ItagNo:        140,
		MimeType:      `audio/mp4; codecs="mp4a.40.2"`,
		AudioChannels: 2,
		Bitrate:       128000,
	})

	assert.Equal(t, "m4a", audioOnly.Ext)
	assert.False(t, audioOnly.HasVideo)
	assert.True(t, audioOnly.HasAudio)
}

func Test_BestVideoFormat_PrefersMuxedUnderCeiling(t *testing.T) {
	t.Parallel()

	video := &youtube.Video{Formats: []youtube.Format{
		{ItagNo: 313, MimeType: "video/webm", Height: 2160},
		{ItagNo: 22, MimeType: "video/mp4", Height: 720, AudioChannels: 2},
		{ItagNo: 18, MimeType: "video/mp4", Height: 360, AudioChannels: 2},
		{ItagNo: 140, MimeType: "audio/mp4", AudioChannels: 2},
	}}

	prov := New(Config{MaxBestHeight: 2160})
	best, err := prov.bestVideoFormat(video)
	require.NoError(t, err)
	assert.Equal(t, 22, best.ItagNo)
}

func Test_BestVideoFormat_FallsBackToVideoOnly(t *testing.T) {
	t.Parallel()

	video := &youtube.Video{Formats: []youtube.Format{
		{ItagNo: 313, MimeType: "video/webm", Height: 2160},
		{ItagNo: 137, MimeType: "video/mp4", Height: 1080},
	}}

	prov := New(Config{MaxBestHeight: 1080})
	best, err := prov.bestVideoFormat(video)
	require.NoError(t, err)
	assert.Equal(t, 137, best.ItagNo)
}

func Test_BestVideoFormat_CeilingExcludesOversized(t *testing.T) {
	t.Parallel()

	video := &youtube.Video{Formats: []youtube.Format{
		{ItagNo: 701, MimeType: "video/mp4", Height: 4320, AudioChannels: 2},
		{ItagNo: 22, MimeType: "video/mp4", Height: 720, AudioChannels: 2},
	}}

	prov := New(Config{MaxBestHeight: 2160})
	best, err := prov.bestVideoFormat(video)
	require.NoError(t, err)
	assert.Equal(t, 22, best.ItagNo)
}

func Test_BestAudioFormat_PicksHighestBitrate(t *testing.T) {
	t.Parallel()

	video := &youtube.Video{Formats: []youtube.Format{
		{ItagNo: 139, MimeType: "audio/mp4", Bitrate: 48000, AudioChannels: 2},
		{ItagNo: 251, MimeType: "audio/webm", Bitrate: 160000, AudioChannels: 2},
		{ItagNo: 140, MimeType: "audio/mp4", Bitrate: 128000, AudioChannels: 2},
		{ItagNo: 22, MimeType: "video/mp4", Height: 720, AudioChannels: 2},
	}}

	best, err := bestAudioFormat(video)
	require.NoError(t, err)
	assert.Equal(t, 251, best.ItagNo)

	_, err = bestAudioFormat(&youtube.Video{})
	assert.Error(t, err)
}

func Test_SelectFormat_ExplicitItag(t *testing.T) {
	t.Parallel()

	video := &youtube.Video{Formats: []youtube.Format{
		{ItagNo: 22, MimeType: "video/mp4", Height: 720, AudioChannels: 2},
		{ItagNo: 137, MimeType: "video/mp4", Height: 1080},
	}}

	prov := New(Config{MaxBestHeight: 2160})

	best, err := prov.selectFormat(video, providerRequest("137"))
	require.NoError(t, err)
	assert.Equal(t, 137, best.ItagNo)

	_, err = prov.selectFormat(video, providerRequest("999"))
	assert.Error(t, err)

	_, err = prov.selectFormat(video, providerRequest("not-an-itag"))
	assert.Error(t, err)
}
