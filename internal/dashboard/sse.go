package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"LedgerSync/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultPingInterval = 30 * time.Second

// SSEServer streams ledger sync events to browsers so an open report can
// refresh after a sync.
type SSEServer struct {
	feed         *notification.NotificationService
	log          *zap.Logger
	pingInterval time.Duration

	mu      sync.RWMutex
	clients map[string]string
	stopCh  chan struct{}
	once    sync.Once
}

func NewSSEServer(feed *notification.NotificationService, log *zap.Logger) *SSEServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &SSEServer{
		feed:         feed,
		log:          log,
		pingInterval: defaultPingInterval,
		clients:      make(map[string]string),
		stopCh:       make(chan struct{}),
	}
}

// SetPingInterval changes how often idle connections get a keep-alive.
func (s *SSEServer) SetPingInterval(d time.Duration) {
	if d > 0 {
		s.pingInterval = d
	}
}

func (s *SSEServer) Name() string { return "events" }

func (s *SSEServer) Start() error { return nil }

// Stop disconnects every client.
func (s *SSEServer) Stop(ctx context.Context) error {
	s.once.Do(func() { close(s.stopCh) })
	return nil
}

// ClientCount returns the number of connected streams.
func (s *SSEServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// HandleSSE serves one event stream until the client goes away.
func (s *SSEServer) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := s.feed.Subscribe(16)
	defer cancel()

	id := uuid.NewString()
	s.mu.Lock()
	s.clients[id] = r.RemoteAddr
	s.mu.Unlock()
	s.log.Debug("sse client connected", zap.String("client_id", id), zap.String("remote", r.RemoteAddr))
	defer func() {
		s.mu.Lock()
		delete(s.clients, id)
		s.mu.Unlock()
		s.log.Debug("sse client disconnected", zap.String("client_id", id))
	}()

	send := func(event string, data interface{}) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := send("connected", map[string]interface{}{
		"clientId": id,
		"time":     time.Now().Format(time.RFC3339),
	}); err != nil {
		return
	}

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case e, open := <-events:
			if !open {
				return
			}
			if err := send(string(e.Type), e); err != nil {
				return
			}
		case <-ticker.C:
			if err := send("ping", map[string]string{"time": time.Now().Format(time.RFC3339)}); err != nil {
				s.log.Debug("sse ping failed", zap.String("client_id", id), zap.Error(err))
				return
			}
		case <-r.Context().Done():
			return
		case <-s.stopCh:
			return
		}
	}
}
