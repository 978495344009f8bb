package downloads

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MdMeraj01/youtube-downloader/internal/download"
	"github.com/MdMeraj01/youtube-downloader/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetMinLoggingLevel(logger.FATAL.Level())
}

type stubService struct {
	videoInfoFn func(ctx context.Context, url string) (*download.VideoInfo, error)
}

func (stub *stubService) VideoInfo(ctx context.Context, url string) (*download.VideoInfo, error) {
	return stub.videoInfoFn(ctx, url)
}

func (stub *stubService) AudioInfo(context.Context, string) (*download.AudioInfo, error) {
	return nil, errors.New("not implemented")
}

func (stub *stubService) DownloadVideo(context.Context, string, string, string) (*download.Artifact, error) {
	return nil, errors.New("not implemented")
}

func (stub *stubService) DownloadAudio(context.Context, string, string) (*download.Artifact, error) {
	return nil, errors.New("not implemented")
}

func (stub *stubService) CleanupArtifact(*download.Artifact) error { return nil }

func Test_VideoInfo_MissingURLRejectedBeforeService(t *testing.T) {
	t.Parallel()

	controller := New(validator.New(), &stubService{
		videoInfoFn: func(context.Context, string) (*download.VideoInfo, error) {
			t.Fatal("service must not be called for an invalid request")
			return nil, nil
		},
	})

	ec := echo.New().NewContext(
		httptest.NewRequest(http.MethodGet, "/video/info/", nil),
		httptest.NewRecorder(),
	)

	err := controller.videoInfo(ec)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func Test_AsHTTPError_MapsCategoriesAndSaturation(t *testing.T) {
	t.Parallel()

	classified := &download.Error{Category: download.Unavailable, Message: "gone"}
	httpErr := asHTTPError(classified)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.Equal(t, "gone", httpErr.Message)

	assert.Equal(t, http.StatusServiceUnavailable, asHTTPError(download.ErrTooBusy).Code)
	assert.Equal(t, http.StatusInternalServerError, asHTTPError(errors.New("boom")).Code)
}
