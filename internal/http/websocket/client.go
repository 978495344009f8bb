package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type socketClient struct {
	id        *uuid.UUID
	socket    *websocket.Conn
	writeLock sync.Mutex
}

func (client *socketClient) SendMessage(message *SocketMessage) error {
	client.writeLock.Lock()
	defer client.writeLock.Unlock()

	return client.socket.WriteJSON(message)
}

// Read runs a read-loop on the client's websocket connection. Inbound
// frames are discarded, the loop exists only to detect disconnects and
// to service the websocket control protocol. Returns once the
// connection errors; the caller must then deregister the client.
func (client *socketClient) Read() error {
	for {
		if _, _, err := client.socket.ReadMessage(); err != nil {
			return err
		}
	}
}

// Close will close this clients socket
func (client *socketClient) Close() {
	client.socket.Close()
}
