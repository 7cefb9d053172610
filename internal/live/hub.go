// Package live pushes video job events to websocket watchers.
package live

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/reelforge/reelforge/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	subscriberSize = 16
)


type subscriber struct {
	jobID string
	send  chan []byte
}

// Hub is an events.Writer that forwards video events to the sockets
// watching the event subject.
type Hub struct {
	upgrader websocket.Upgrader
	origins  []string

	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

var _ events.Writer = (*Hub)(nil)

// NewHub accepts sockets from the same host and from the allowed origins.
// A "*" entry allows every origin.
func NewHub(allowedOrigins ...string) *Hub {
	h := &Hub{
		origins: allowedOrigins,
		subs:    map[string]map[*subscriber]struct{}{},
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

func (h *Hub) Write(_ context.Context, _ string, e cloudevents.Event) error {
	if e.Type() != events.VideoMessageKind {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs[e.Subject()] {
		select {
		case s.send <- e.Data():
		default:
			zap.S().Named("live_hub").Warnw("dropping event for slow watcher", "job_id", s.jobID)
		}
	}
	return nil
}

func (h *Hub) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for jobID, subs := range h.subs {
		for s := range subs {
			close(s.send)
		}
		delete(h.subs, jobID)
	}
	return nil
}

// Watchers returns the number of open sockets for a job.
func (h *Hub) Watchers(jobID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[jobID])
}

func (h *Hub) subscribe(jobID string) *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &subscriber{jobID: jobID, send: make(chan []byte, subscriberSize)}
	if h.closed {
		close(s.send)
		return s
	}
	if h.subs[jobID] == nil {
		h.subs[jobID] = map[*subscriber]struct{}{}
	}
	h.subs[jobID][s] = struct{}{}
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subs[s.jobID]
	if !ok {
		return
	}
	if _, ok := subs[s]; !ok {
		return
	}
	delete(subs, s)
	close(s.send)
	if len(subs) == 0 {
		delete(h.subs, s.jobID)
	}
}

// ServeJob upgrades the request, writes the snapshot as the first frame and
// then streams every event of the job until the client goes away.
func (h *Hub) ServeJob(w http.ResponseWriter, r *http.Request, jobID string, snapshot any) {
	logger := zap.S().Named("live_hub").With("job_id", jobID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s := h.subscribe(jobID)
	defer h.unsubscribe(s)

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(snapshot); err != nil {
		logger.Debugw("failed to write snapshot", "error", err)
		return
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
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
		case msg, ok := <-s.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debugw("watcher write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
