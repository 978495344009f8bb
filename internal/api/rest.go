package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/MdMeraj01/youtube-downloader/internal/api/downloads"
	"github.com/MdMeraj01/youtube-downloader/internal/api/progressapi"
	"github.com/MdMeraj01/youtube-downloader/internal/event"
	"github.com/MdMeraj01/youtube-downloader/internal/http/websocket"
	"github.com/MdMeraj01/youtube-downloader/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var log = logger.Get("API")

type (
	RestConfig struct {
		HostAddr string `yaml:"host_address" env:"API_HOST_ADDR" env-default:"0.0.0.0:5000"`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// gatewayService is the union of the service requirements of the
	// controllers and the activity broadcaster.
	gatewayService interface {
		downloads.Service
		progressapi.Service
		ActiveJobs() []string
	}

	// The RestGateway is a thin wrapper around the Echo HTTP router. Its
	// sole responsibility is to create the routes the server exposes and
	// to manage ongoing web socket connections and events.
	RestGateway struct {
		*broadcaster
		config             *RestConfig
		ec                 *echo.Echo
		socket             *websocket.SocketHub
		downloadController controller
		progressController controller
	}
)

// NewRestGateway constructs the Echo router and populates it with all
// the routes defined by the various controllers.
func NewRestGateway(config *RestConfig, service gatewayService, eventBus event.EventCoordinator) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true

	validate := validator.New()
	socket := websocket.New()
	socket.WithConnectionCallback(func() map[string]interface{} {
		return map[string]interface{}{"active_jobs": service.ActiveJobs()}
	})

	gateway := &RestGateway{
		broadcaster:        newBroadcaster(socket, service, eventBus),
		config:             config,
		ec:                 ec,
		socket:             socket,
		downloadController: downloads.New(validate, service),
		progressController: progressapi.New(service),
	}

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Pre(middleware.AddTrailingSlash())

	ec.GET("/api/ytd/v1/activity/ws/", func(ec echo.Context) error {
		gateway.socket.UpgradeToSocket(ec.Response(), ec.Request())
		return nil
	})

	ec.GET("/api/ytd/v1/health/", func(ec echo.Context) error {
		return ec.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	ec.GET("/api/ytd/v1/test/", func(ec echo.Context) error {
		return ec.JSON(http.StatusOK, map[string]string{"message": "Server is running"})
	})

	downloadGroup := ec.Group("/api/ytd/v1/downloads")
	gateway.downloadController.SetRoutes(downloadGroup)

	progressGroup := ec.Group("/api/ytd/v1/progress")
	gateway.progressController.SetRoutes(progressGroup)

	return gateway
}

func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	// Start echo router
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil {
			ctxCancel(err)
		}
	}()

	// Start thread to listen for context cancellation
	go func(ec *echo.Echo) {
		<-ctx.Done()
		ec.Close()
	}(gateway.ec)

	// Start websocket
	wg.Add(1)
	go func() {
		defer wg.Done()
		gateway.socket.Start(ctx)
	}()

	wg.Wait()

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}
