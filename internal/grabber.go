package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/MdMeraj01/youtube-downloader/internal/api"
	"github.com/MdMeraj01/youtube-downloader/internal/download"
	"github.com/MdMeraj01/youtube-downloader/internal/event"
	"github.com/MdMeraj01/youtube-downloader/internal/progress"
	"github.com/MdMeraj01/youtube-downloader/internal/provider/youtube"
	"github.com/MdMeraj01/youtube-downloader/pkg/logger"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}
)

// grabberImpl is the top-level object for the server, responsible for
// constructing the download service, provider, progress registry and
// REST gateway, and running them until stopped.
type grabberImpl struct {
	eventBus event.EventCoordinator
	config   GrabberConfig

	downloadService *download.Service
	restGateway     RunnableService
}

func New(config GrabberConfig) *grabberImpl {
	log.Emit(logger.DEBUG, "Bootstrapping services using config: %#v\n", config)
	grabber := &grabberImpl{
		eventBus: event.New(),
		config:   config,
	}

	prov := youtube.New(config.YouTube)
	if serv, err := download.NewService(config.Download, prov, progress.NewRegistry(), grabber.eventBus); err == nil {
		grabber.downloadService = serv
	} else {
		panic(fmt.Sprintf("failed to construct download service due to error: %s", err.Error()))
	}

	grabber.restGateway = api.NewRestGateway(&config.Rest, grabber.downloadService, grabber.eventBus)

	return grabber
}

// Run starts the server and blocks until the provided context is
// cancelled, or until a service crashes.
func (grabber *grabberImpl) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel()
	}

	// Transient artifact storage does not survive restarts: anything
	// still in the output directory belongs to a dead process.
	grabber.downloadService.SweepOutputDir()

	wg := &sync.WaitGroup{}
	grabber.spawnAsyncService(ctx, wg, grabber.restGateway, "rest-gateway", crashHandler)
	log.Emit(logger.SUCCESS, "Services spawned!\n")

	wg.Wait()
	return nil
}

// spawnAsyncService will run the provided function/service as its own
// go-routine, ensuring that the service waitgroup is updated correctly.
func (grabber *grabberImpl) spawnAsyncService(context context.Context, wg *sync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *sync.WaitGroup, label string, crash func(string, error)) {
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		defer wg.Done()
		if err := service.Run(context); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}
