package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/swingscan/internal/contracts"
	"github.com/wonny/swingscan/internal/scanner"
)

const (
	writeWait    = 10 * time.Second
	overridesTTL = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// StreamMessage is one frame of GET /api/scan/stream
type StreamMessage struct {
	Type     string                `json:"type"` // progress, result, error
	Progress *scanner.Progress     `json:"progress,omitempty"`
	Result   *contracts.ScanResult `json:"result,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// Stream runs a scan over a websocket. The client sends one JSON text
// message with overrides ("{}" for defaults), then receives progress
// frames followed by a single result or error frame.
// GET /api/scan/stream
func (h *ScanHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	send := func(msg StreamMessage) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}

	conn.SetReadDeadline(time.Now().Add(overridesTTL))
	_, body, err := conn.ReadMessage()
	if err != nil {
		h.logger.WithError(err).Warn("No scan request received on stream")
		return
	}

	cfg, err := h.scanConfig(body)
	if err != nil {
		send(StreamMessage{Type: "error", Error: "Invalid request body"})
		return
	}

	// progress는 스캔 goroutine에서 동기 호출되므로 쓰기 경합 없음
	result, err := h.service.Run(r.Context(), cfg, func(p scanner.Progress) {
		if err := send(StreamMessage{Type: "progress", Progress: &p}); err != nil {
			h.logger.WithError(err).Debug("Dropped progress frame")
		}
	})
	if err != nil {
		_, msg := scanErrorStatus(err)
		send(StreamMessage{Type: "error", Error: msg})
		return
	}

	send(StreamMessage{Type: "result", Result: result})
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "scan complete"),
		time.Now().Add(writeWait))
}
