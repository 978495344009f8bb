package api

import (
	"github.com/MdMeraj01/youtube-downloader/internal/event"
	"github.com/MdMeraj01/youtube-downloader/internal/http/websocket"
	"github.com/MdMeraj01/youtube-downloader/internal/progress"
	"github.com/MdMeraj01/youtube-downloader/pkg/logger"
)

const (
	TitleDownloadProgress = "DOWNLOAD_PROGRESS"
	TitleDownloadComplete = "DOWNLOAD_COMPLETE"
	TitleDownloadFailed   = "DOWNLOAD_FAILED"
)

type (
	progressService interface {
		Progress(jobID string) progress.Snapshot
		ActiveJobs() []string
	}

	// broadcaster pushes download lifecycle updates out to all
	// connected websocket clients. Polling the progress endpoint
	// remains available for clients that don't hold a socket open.
	broadcaster struct {
		socketHub *websocket.SocketHub
		service   progressService
	}
)

func newBroadcaster(socketHub *websocket.SocketHub, service progressService, eventBus event.EventCoordinator) *broadcaster {
	hub := &broadcaster{socketHub: socketHub, service: service}

	eventBus.RegisterAsyncHandlerFunction(event.DownloadProgressEvent, hub.handleDownloadEvent)
	eventBus.RegisterAsyncHandlerFunction(event.DownloadCompleteEvent, hub.handleDownloadEvent)
	eventBus.RegisterAsyncHandlerFunction(event.DownloadFailedEvent, hub.handleDownloadEvent)

	return hub
}

func (hub *broadcaster) handleDownloadEvent(ev event.Event, payload event.Payload) {
	jobID, ok := payload.(string)
	if !ok {
		log.Emit(logger.ERROR, "Ignoring %v event with non-string payload %#v\n", ev, payload)
		return
	}

	switch ev {
	case event.DownloadProgressEvent:
		hub.broadcast(TitleDownloadProgress, hub.service.Progress(jobID))
	case event.DownloadCompleteEvent:
		hub.broadcast(TitleDownloadComplete, map[string]interface{}{"job_id": jobID})
	case event.DownloadFailedEvent:
		hub.broadcast(TitleDownloadFailed, map[string]interface{}{"job_id": jobID})
	}
}

func (hub *broadcaster) broadcast(title string, update any) {
	hub.socketHub.Send(&websocket.SocketMessage{
		Title: title,
		Body:  map[string]interface{}{"arguments": update},
		Type:  websocket.Update,
	})
}
