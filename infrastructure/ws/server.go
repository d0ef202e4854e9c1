// Package ws carries the routing core over websocket connections. Each
// connection gets a read loop (decoding the closed command set and
// dispatching sequentially) and a write pump draining its sink.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"chat-hub/domain/event"
	"chat-hub/hub"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 32 * 1024
)

type Server struct {
	hub        *hub.Hub
	log        *slog.Logger
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewServer(h *hub.Hub, log *slog.Logger, bufferSize int) *Server {
	return &Server{
		hub:        h,
		log:        log,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Credential checks happen in the authenticate handshake,
			// not at upgrade time.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and services the connection until its
// read loop ends.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}

	sink := hub.NewSink(s.bufferSize)
	conn := hub.NewConnection(sink, func() { _ = socket.Close() })
	s.hub.Register(conn)
	s.log.Debug("connection accepted", "conn_id", conn.ID)

	ctx, cancel := context.WithCancel(r.Context())
	go s.writePump(ctx, socket, sink)

	s.readLoop(ctx, socket, conn)

	// The read loop ended: stop the write pump, then let the hub settle
	// presence and routing state.
	cancel()
	s.hub.Disconnect(context.Background(), conn)
	s.log.Debug("connection closed", "conn_id", conn.ID)
}

// readLoop processes inbound frames in arrival order. Decode errors are
// reported to this connection only; the connection stays open.
func (s *Server) readLoop(ctx context.Context, socket *websocket.Conn, conn *hub.Connection) {
	socket.SetReadLimit(maxFrameSize)
	_ = socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("connection read error", "conn_id", conn.ID, "error", err)
			}
			return
		}
		cmd, err := DecodeCommand(data)
		if err != nil {
			conn.Send(ctx, event.Error{Reason: err.Error()})
			continue
		}
		s.hub.Dispatch(ctx, conn, cmd)
	}
}

// writePump serializes all writes to the socket: sink events and pings.
func (s *Server) writePump(ctx context.Context, socket *websocket.Conn, sink *hub.Sink) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = socket.SetWriteDeadline(time.Now().Add(writeWait))
			_ = socket.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case evt := <-sink.Events:
			data, err := EncodeEvent(evt)
			if err != nil {
				s.log.Error("event encoding failed", "event", evt.Name(), "error", err)
				continue
			}
			_ = socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := socket.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
