package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tatianab/campus-life/internal/engine"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	defaultStreamInterval = 1500 * time.Millisecond
	minStreamInterval     = 10 * time.Millisecond
)

// Stream message types.
const (
	StreamState   = "state"
	StreamBlocked = "blocked"
	StreamEnding  = "ending"
)

// StreamMessage is one frame of GET /sessions/:id/stream.
type StreamMessage struct {
	Type string `json:"type"`
	StateResponse
	Unlocked []string `json:"unlocked,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Stream upgrades to a websocket and ticks the session on a timer, pushing
// every new week. While the game waits on the player a single "blocked"
// frame is sent and ticking resumes once the intent arrives over REST.
func (h *SessionHandler) Stream(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	interval := defaultStreamInterval
	if v := c.Query("interval"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < minStreamInterval {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid interval"})
			return
		}
		interval = d
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	id := c.Param("id")
	ctx := c.Request.Context()
	done := make(chan struct{})
	go readPump(conn, done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	h.logger.Debug("stream opened", zap.String("session_id", id), zap.Duration("interval", interval))

	first := respond(id, sess.State())
	if err := send(conn, StreamMessage{Type: StreamState, StateResponse: first}); err != nil {
		return
	}
	var blocked engine.Pending

	for {
		select {
		case <-done:
			return

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ticker.C:
			res, err := sess.Tick(ctx)
			switch {
			case errors.Is(err, engine.ErrTickBlocked):
				if res.Pending == engine.PendingEnding {
					send(conn, StreamMessage{Type: StreamEnding, StateResponse: respond(id, res.State)})
					conn.SetWriteDeadline(time.Now().Add(writeWait))
					conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"))
					return
				}
				if res.Pending != blocked {
					blocked = res.Pending
					if err := send(conn, StreamMessage{Type: StreamBlocked, StateResponse: respond(id, res.State)}); err != nil {
						return
					}
				}
				continue
			case err != nil:
				h.logger.Warn("stream tick failed", zap.String("session_id", id), zap.Error(err))
				return
			}

			blocked = engine.PendingNone
			msg := StreamMessage{Type: StreamState, StateResponse: respond(id, res.State), Unlocked: res.Unlocked}
			if err := send(conn, msg); err != nil {
				return
			}
		}
	}
}

func send(conn *websocket.Conn, msg StreamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// readPump drains client frames so control messages are processed, and
// closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
