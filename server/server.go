package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // dev server, all origins
}

// ServeWs upgrades an HTTP request to a websocket connection and hands it to
// the hub.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip, _, _ = net.SplitHostPort(r.RemoteAddr)
	} else {
		ip = strings.Split(ip, ",")[0]
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("websocket upgrade error", "remoteAddr", r.RemoteAddr, "error", err)
		return
	}

	id := "conn_" + uuid.New().String()[:8]
	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		quit:   make(chan struct{}),
		id:     id,
		logger: hub.logger.With("connId", id, "remoteAddr", ip),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()

	client.logger.Info("websocket connection established")
}
