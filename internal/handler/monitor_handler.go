package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/internal/core/event"
	"github.com/ClareAI/astra-fleet-dashboard/internal/core/session"
	"github.com/ClareAI/astra-fleet-dashboard/internal/services/report"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/redis"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	sendBuffer   = 64
)

// EventStream delivers call events to handler until ctx is done
type EventStream interface {
	Stream(ctx context.Context, handler func(*event.CallEvent)) error
}

// BusStream streams the events published on this instance
type BusStream struct {
	Bus *event.Bus
}

// Stream implements EventStream
func (s BusStream) Stream(ctx context.Context, handler func(*event.CallEvent)) error {
	unsubscribe, err := s.Bus.Subscribe("", handler)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
	return nil
}

// RedisStream streams the events every instance broadcasts on Redis
type RedisStream struct {
	Redis redis.RedisServiceInterface
}

// Stream implements EventStream
func (s RedisStream) Stream(ctx context.Context, handler func(*event.CallEvent)) error {
	return s.Redis.Subscribe(ctx, event.CallEventChannel, func(payload string) {
		var ev event.CallEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			logger.Warn(ctx, "dropping malformed call event", zap.Error(err))
			return
		}
		handler(&ev)
	})
}

// MonitorMessage is one frame of the websocket monitor stream
type MonitorMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// MonitorHandler serves the realtime monitor
type MonitorHandler struct {
	reports  *report.Service
	sessions *session.Manager
	events   EventStream
	interval time.Duration
	upgrader websocket.Upgrader
	clients  atomic.Int64
}

// NewMonitorHandler creates a new monitor handler. events may be nil.
func NewMonitorHandler(reports *report.Service, sessions *session.Manager, events EventStream, interval time.Duration, allowedOrigins []string) *MonitorHandler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &MonitorHandler{
		reports:  reports,
		sessions: sessions,
		events:   events,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin(allowedOrigins, origin) != ""
			},
		},
	}
}

// GetMonitor godoc
// @Summary Realtime monitor snapshot
// @Description System health, live activity per assistant and resource usage
// @Tags monitor
// @Produce json
// @Success 200 {object} report.MonitorSnapshot
// @Router /api/monitor [get]
func (h *MonitorHandler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	store := h.sessions.Get(SessionID(r.Context()))
	writeJSON(w, http.StatusOK, h.reports.Monitor(r.Context(), store))
}

// Clients returns the number of open websocket connections
func (h *MonitorHandler) Clients() int {
	return int(h.clients.Load())
}

// ServeWebSocket godoc
// @Summary Realtime monitor stream
// @Description Upgrades to a websocket that pushes a snapshot every interval and the session's call events as they happen
// @Tags monitor
// @Param session query string false "Session ID"
// @Router /ws/monitor [get]
func (h *MonitorHandler) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(r.Context(), "failed to upgrade monitor websocket", zap.Error(err))
		return
	}
	h.clients.Add(1)
	defer h.clients.Add(-1)

	sessionID := SessionID(r.Context())
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	client := &monitorClient{conn: conn, send: make(chan []byte, sendBuffer)}
	if h.events != nil {
		err := h.events.Stream(ctx, func(ev *event.CallEvent) {
			if ev.SessionID == sessionID {
				client.enqueue(ctx, MonitorMessage{Type: "event", Timestamp: ev.Timestamp, Data: ev})
			}
		})
		if err != nil {
			logger.Warn(ctx, "monitor started without live events", zap.Error(err))
		}
	}

	logger.Info(ctx, "monitor client connected", zap.Int("clients", h.Clients()))
	go client.readPump(cancel)
	client.writePump(ctx, h.interval, func() MonitorMessage {
		store := h.sessions.Get(sessionID)
		snap := h.reports.Monitor(ctx, store)
		return MonitorMessage{Type: "snapshot", Timestamp: snap.Timestamp, Data: snap}
	})
	logger.Info(ctx, "monitor client disconnected")
}

// SetupMonitorRoutes registers /monitor on the API router and /ws/monitor on the root router
func (h *MonitorHandler) SetupMonitorRoutes(apiRouter, router *mux.Router) {
	apiRouter.HandleFunc("/monitor", h.GetMonitor).Methods("GET")
	router.Handle("/ws/monitor", SessionMiddleware(http.HandlerFunc(h.ServeWebSocket))).Methods("GET")
}

type monitorClient struct {
	conn *websocket.Conn
	send chan []byte
}

// enqueue drops the message when the client is too slow to keep up
func (c *monitorClient) enqueue(ctx context.Context, msg MonitorMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Warn(ctx, "failed to marshal monitor message", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	case <-ctx.Done():
	default:
		logger.Debug(ctx, "monitor client slow, dropping message", zap.String("type", msg.Type))
	}
}

// readPump discards client frames and cancels the stream when the peer goes away
func (c *monitorClient) readPump(cancel context.CancelFunc) {
	defer cancel()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Base().Debug("monitor websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump owns every write to the connection
func (c *monitorClient) writePump(ctx context.Context, interval time.Duration, snapshot func() MonitorMessage) {
	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		ping.Stop()
		_ = c.conn.Close()
	}()

	write := func(msg MonitorMessage) bool {
		data, err := json.Marshal(msg)
		if err != nil {
			logger.Warn(ctx, "failed to marshal monitor snapshot", zap.Error(err))
			return true
		}
		return c.writeRaw(websocket.TextMessage, data)
	}

	if !write(snapshot()) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-c.send:
			if !c.writeRaw(websocket.TextMessage, data) {
				return
			}
		case <-ticker.C:
			if !write(snapshot()) {
				return
			}
		case <-ping.C:
			if !c.writeRaw(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *monitorClient) writeRaw(messageType int, data []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		logger.Base().Debug("monitor websocket write failed", zap.Error(err))
		return false
	}
	return true
}
