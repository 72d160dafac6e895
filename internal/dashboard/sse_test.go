package dashboard

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"LedgerSync/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "":
			return event, data
		}
	}
}

func TestHandleSSEStreamsFeedEvents(t *testing.T) {
	feed := notification.NewNotificationService(10)
	s := NewSSEServer(feed, nil)
	srv := httptest.NewServer(http.HandlerFunc(s.HandleSSE))
	defer srv.Close()
	defer s.Stop(context.Background())

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	br := bufio.NewReader(resp.Body)
	event, data := readEvent(t, br)
	assert.Equal(t, "connected", event)
	assert.Contains(t, data, "clientId")

	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	feed.Publish(notification.Event{Type: notification.SyncCompleted, RunID: "run-1", RecordsProcessed: 4})

	event, data = readEvent(t, br)
	assert.Equal(t, "sync.completed", event)
	assert.Contains(t, data, `"runId":"run-1"`)
	assert.Contains(t, data, `"recordsProcessed":4`)
}

func TestHandleSSESendsPing(t *testing.T) {
	s := NewSSEServer(notification.NewNotificationService(1), nil)
	s.SetPingInterval(10 * time.Millisecond)
	srv := httptest.NewServer(http.HandlerFunc(s.HandleSSE))
	defer srv.Close()
	defer s.Stop(context.Background())

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	br := bufio.NewReader(resp.Body)
	readEvent(t, br)
	event, _ := readEvent(t, br)
	assert.Equal(t, "ping", event)
}
