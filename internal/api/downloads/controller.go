package downloads

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MdMeraj01/youtube-downloader/internal/download"
	"github.com/MdMeraj01/youtube-downloader/internal/provider"
	"github.com/MdMeraj01/youtube-downloader/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var log = logger.Get("DownloadsAPI")

type (
	// InfoRequest covers the metadata-only endpoints.
	InfoRequest struct {
		URL string `query:"url" validate:"required,url"`
	}

	// FetchRequest covers the full download endpoints. FileID is the
	// caller-chosen job handle used to poll progress while the
	// download runs; when omitted the service generates one.
	FetchRequest struct {
		URL     string `query:"url" validate:"required,url"`
		Quality string `query:"quality" validate:"omitempty"`
		FileID  string `query:"file_id" validate:"omitempty,max=128"`
	}

	Service interface {
		VideoInfo(ctx context.Context, url string) (*download.VideoInfo, error)
		AudioInfo(ctx context.Context, url string) (*download.AudioInfo, error)
		DownloadVideo(ctx context.Context, url string, formatSpec string, jobID string) (*download.Artifact, error)
		DownloadAudio(ctx context.Context, url string, jobID string) (*download.Artifact, error)
		CleanupArtifact(artifact *download.Artifact) error
	}

	Controller struct {
		service  Service
		validate *validator.Validate
	}
)

func New(validate *validator.Validate, service Service) *Controller {
	return &Controller{service: service, validate: validate}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/video/info/", controller.videoInfo)
	eg.GET("/audio/info/", controller.audioInfo)
	eg.GET("/video/", controller.fetchVideo)
	eg.GET("/audio/", controller.fetchAudio)
}

func (controller *Controller) videoInfo(ec echo.Context) error {
	var request InfoRequest
	if err := controller.bind(ec, &request); err != nil {
		return err
	}

	info, err := controller.service.VideoInfo(ec.Request().Context(), request.URL)
	if err != nil {
		return asHTTPError(err)
	}

	return ec.JSON(http.StatusOK, info)
}

func (controller *Controller) audioInfo(ec echo.Context) error {
	var request InfoRequest
	if err := controller.bind(ec, &request); err != nil {
		return err
	}

	info, err := controller.service.AudioInfo(ec.Request().Context(), request.URL)
	if err != nil {
		return asHTTPError(err)
	}

	return ec.JSON(http.StatusOK, info)
}

func (controller *Controller) fetchVideo(ec echo.Context) error {
	var request FetchRequest
	if err := controller.bind(ec, &request); err != nil {
		return err
	}

	formatSpec := request.Quality
	if formatSpec == "" {
		formatSpec = provider.BestFormat
	}

	artifact, err := controller.service.DownloadVideo(ec.Request().Context(), request.URL, formatSpec, request.FileID)
	if err != nil {
		return asHTTPError(err)
	}

	return controller.streamArtifact(ec, artifact)
}

func (controller *Controller) fetchAudio(ec echo.Context) error {
	var request FetchRequest
	if err := controller.bind(ec, &request); err != nil {
		return err
	}

	artifact, err := controller.service.DownloadAudio(ec.Request().Context(), request.URL, request.FileID)
	if err != nil {
		return asHTTPError(err)
	}

	return controller.streamArtifact(ec, artifact)
}

// streamArtifact sends the downloaded file as an attachment and then
// deletes it. The artifact is transient: once the response has been
// written there is no reason to keep it on disk.
func (controller *Controller) streamArtifact(ec echo.Context, artifact *download.Artifact) error {
	defer func() {
		if err := controller.service.CleanupArtifact(artifact); err != nil {
			log.Warnf("failed to cleanup artifact for job %s: %v\n", artifact.JobID, err)
		}
	}()

	return ec.Attachment(artifact.Path, artifact.Filename)
}

func (controller *Controller) bind(ec echo.Context, request any) error {
	if err := ec.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid request: %s", err.Error()))
	}

	if err := controller.validate.Struct(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid request: %s", err.Error()))
	}

	return nil
}

// asHTTPError maps service failures to HTTP errors, preserving the
// status code carried by the failure category.
func asHTTPError(err error) *echo.HTTPError {
	if errors.Is(err, download.ErrTooBusy) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	var classified *download.Error
	if errors.As(err, &classified) {
		return echo.NewHTTPError(classified.Category.StatusCode(), classified.Message)
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
