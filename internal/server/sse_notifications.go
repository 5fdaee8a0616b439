package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const streamKeepAlive = 30 * time.Second

// handleNotificationStream streams the notifications of the caller's
// workspace as server-sent events
func (s *Server) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		logrus.Error("Streaming unsupported")
		s.writeError(w, r, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	ws := workspaceFrom(r)

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := s.hub.Subscribe(ws.ID)
	defer s.hub.Unsubscribe(client)

	logrus.WithFields(logrus.Fields{
		"client_id": client.ID,
		"workspace": ws.ID,
	}).Info("Notification stream connected")

	// Send initial connection message
	fmt.Fprintf(w, "event: connected\ndata: {\"workspace\":%q}\n\n", ws.ID)
	flusher.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-client.Messages:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logrus.WithError(err).Error("Failed to marshal notification")
				continue
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
