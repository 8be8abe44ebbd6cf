package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Server upgrades HTTP requests to websocket clients of a Hub.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer returns a Server for hub.  Browser connections are accepted
// only from allowedOrigins; requests without an Origin header (native
// scanner apps, tests) are always accepted.
func NewServer(hub *Hub, allowedOrigins []string) *Server {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[strings.TrimRight(origin, "/")]
			},
		},
	}
}

// ServeHTTP upgrades the connection and runs it until the peer goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := s.hub.Register()
	go s.writePump(conn, c)
	s.readPump(conn, c)
}

// readPump handles join/leave requests until the connection fails, then
// unregisters the client, which also stops writePump.
func (s *Server) readPump(conn *websocket.Conn, c *Client) {
	defer func() {
		s.hub.Unregister(c)
		_ = conn.Close()
	}()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.logger.Debug("websocket read failed", "client", c.ID, "error", err)
			}
			return
		}
		switch in.Event {
		case EventJoinRoom, EventLeaveRoom:
			room := roomFromData(in.Data)
			if room == "" {
				s.hub.SendTo(c, EventError, map[string]string{"message": "room required"})
				continue
			}
			if in.Event == EventJoinRoom {
				s.hub.Join(c, room)
			} else {
				s.hub.Leave(c, room)
			}
		case EventPing:
			s.hub.SendTo(c, EventPong, nil)
		default:
			s.hub.SendTo(c, EventError, map[string]string{"message": "unknown event"})
		}
	}
}

// writePump drains the client's queue onto the socket and keeps the
// connection alive with pings.  It exits when the hub closes the queue.
func (s *Server) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// roomFromData accepts either "room" or {"room": "room"}.
func roomFromData(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Room)
	}
	return ""
}
