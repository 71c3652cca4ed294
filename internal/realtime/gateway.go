package realtime

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Gateway bridges broker subscriptions onto websocket connections.
type Gateway struct {
	broker Broker
	logger *log.Logger
}

// NewGateway creates a new Gateway over the given broker
func NewGateway(broker Broker, logger *log.Logger) *Gateway {
	return &Gateway{broker: broker, logger: logger}
}

// Serve upgrades the request and streams the channel's events until the client
// disconnects. The caller authorizes the viewer before calling Serve.
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "channel", channel, "error", err)
		return
	}
	defer conn.Close()

	sub, err := g.broker.Subscribe(r.Context(), channel)
	if err != nil {
		g.logger.Error("failed to subscribe", "channel", channel, "error", err)
		return
	}
	defer sub.Close()

	// Read loop only services control frames and detects disconnects; clients
	// never send data frames on this socket.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.C:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				g.logger.Debug("websocket write failed", "channel", channel, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
