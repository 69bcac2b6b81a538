package bridge

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/logger"
)

// Stream message types sent as text frames on /tts/stream. Audio itself is
// sent as binary frames.
const (
	streamMessageDone  = "done"
	streamMessageError = "error"
)

// streamStatus is the text frame that ends each synthesis on /tts/stream.
type streamStatus struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	Chunks    int    `json:"chunks,omitempty"`
	Bytes     int    `json:"bytes,omitempty"`
	Status    int    `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  copyBufferSize,
	WriteBufferSize: copyBufferSize,
	// The bridge is a local host integration; the host page origin varies.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleStream upgrades to a WebSocket and serves synthesis requests one at a
// time. Each JSON text message is a synthesisRequest; the reply is a series
// of binary audio frames followed by a "done" or "error" text frame.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.maxBodySize)

	ctx := r.Context()
	for {
		var req synthesisRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.DebugContext(ctx, "WebSocket read ended", "error", err)
			}
			return
		}
		if err := s.streamOne(ctx, conn, req); err != nil {
			logger.DebugContext(ctx, "WebSocket write failed", "error", err)
			return
		}
	}
}

// streamOne runs one synthesis and writes its frames. The returned error is
// a connection write failure; synthesis failures are reported to the client.
func (s *Server) streamOne(ctx context.Context, conn *websocket.Conn, req synthesisRequest) error {
	status := streamStatus{RequestID: uuid.NewString()}
	ctx = logger.WithRequestID(ctx, status.RequestID)

	fail := func(code int, msg string) error {
		status.Type = streamMessageError
		status.Status = code
		status.Message = msg
		return conn.WriteJSON(status)
	}

	if req.Text == "" {
		return fail(http.StatusBadRequest, "text is required")
	}

	// Cancelling stops the reader goroutine when the client goes away.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, err := s.adapter.SynthesizeStream(ctx, req.Text, req.config())
	if err != nil {
		return fail(statusFor(err), err.Error())
	}

	final := false
	for chunk := range chunks {
		if chunk.Error != nil {
			return fail(http.StatusBadGateway, chunk.Error.Error())
		}
		if len(chunk.Data) > 0 {
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk.Data); err != nil {
				return err
			}
			status.Chunks++
			status.Bytes += len(chunk.Data)
		}
		if chunk.Final {
			final = true
			break
		}
	}
	if !final {
		return fail(http.StatusGatewayTimeout, "audio stream ended before completion")
	}

	status.Type = streamMessageDone
	return conn.WriteJSON(status)
}
