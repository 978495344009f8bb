package progressapi

import (
	"net/http"

	"github.com/MdMeraj01/youtube-downloader/internal/progress"
	"github.com/labstack/echo/v4"
)

type (
	// Service exposes the point-in-time progress snapshot for a job.
	// Unknown job IDs report the default "not started" snapshot rather
	// than an error, so polling can begin before the download does.
	Service interface {
		Progress(jobID string) progress.Snapshot
	}

	Controller struct {
		service Service
	}
)

func New(service Service) *Controller {
	return &Controller{service: service}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/:id/", controller.get)
}

func (controller *Controller) get(ec echo.Context) error {
	return ec.JSON(http.StatusOK, controller.service.Progress(ec.Param("id")))
}
