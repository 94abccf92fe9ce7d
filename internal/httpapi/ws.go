package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/curhatin/curhatin/internal/bus"
	"github.com/curhatin/curhatin/pkg/protocol"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsReadLimit    = 4 << 10 // clients only send pongs and close frames
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the service binds to loopback; cross-origin pages cannot reach it
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS streams protocol events to a UI client. Events that arrive
// faster than the client drains are dropped rather than blocking the bus.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "invalid authentication")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := "ws-" + uuid.NewString()
	send := make(chan protocol.EventFrame, 32)
	s.events.Subscribe(id, func(ev bus.Event) {
		select {
		case send <- ev.Frame():
		default:
		}
	})
	slog.Info("event feed client connected", "id", id, "remote", r.RemoteAddr)

	go s.writePump(conn, send)

	// read loop: only pongs and the close frame are expected
	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	// The subscriber handler may race a concurrent Publish, so the channel
	// is never closed; the write pump exits on its next write once the
	// connection is gone.
	s.events.Unsubscribe(id)
	conn.Close()
	slog.Info("event feed client disconnected", "id", id)
}

func (s *Server) writePump(conn *websocket.Conn, send <-chan protocol.EventFrame) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame := <-send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
