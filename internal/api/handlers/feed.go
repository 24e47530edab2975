package handlers

import (
	"net/http"

	"github.com/dom/blog-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// The feed is public and read-only, so any origin may subscribe.
var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type FeedHandler struct {
	hub *websocket.Hub
	log logrus.FieldLogger
}

func NewFeedHandler(hub *websocket.Hub, log logrus.FieldLogger) *FeedHandler {
	return &FeedHandler{hub: hub, log: log}
}

func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// Upgrade writes its own 400 on failure.
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("feed upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
