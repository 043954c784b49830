package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/datallboy/gotube/internal/app"
	"github.com/datallboy/gotube/internal/domain"
	"github.com/datallboy/gotube/internal/infra/logger"
)

// wire is a loose decode of any server->client event.
type wire struct {
	Type       string  `json:"type"`
	DownloadID string  `json:"download_id"`
	Percentage float64 `json:"percentage"`
	FileSize   string  `json:"file_size"`
	Message    string  `json:"message"`
}

func newTestStack(t *testing.T, eng app.Engine) (*Hub, *Router) {
	t.Helper()

	log, err := logger.New("", logger.LevelFatal, false)
	if err != nil {
		t.Fatal(err)
	}
	router, _ := testRouter(t, eng)
	return NewHub(log), router
}

func dialSession(t *testing.T, hub *Hub, router *Router, clientID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, clientID, router)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntilTerminal collects events until the job stream ends in completed or
// error.
func readUntilTerminal(t *testing.T, conn *websocket.Conn) []wire {
	t.Helper()

	var events []wire
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v (after %d events)", err, len(events))
		}
		var ev wire
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		events = append(events, ev)
		if ev.Type == "completed" || ev.Type == "error" {
			return events
		}
	}
}

func TestDownloadLifecycleOverWebsocket(t *testing.T) {
	eng := &fakeEngine{
		download: func(ctx context.Context, req domain.DownloadRequest, onProgress domain.ProgressFunc) (*domain.DownloadResult, error) {
			path := filepath.Join(req.OutDir, "clip.mp4")
			if err := os.WriteFile(path, make([]byte, 4*1024*1024), 0644); err != nil {
				return nil, err
			}
			onProgress(domain.ProgressTick{Downloaded: 1 << 20, Total: 4 << 20, Filename: path})
			// Outside the emitter's throttle window so the second tick lands.
			time.Sleep(250 * time.Millisecond)
			onProgress(domain.ProgressTick{Downloaded: 3 << 20, Total: 4 << 20, Filename: path})
			return &domain.DownloadResult{Path: path}, nil
		},
	}

	hub, router := newTestStack(t, eng)
	conn := dialSession(t, hub, router, "client-1")

	msg := `{"type":"start_download","url":"https://example.com/watch?v=abc","quality":"720p"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatal(err)
	}

	events := readUntilTerminal(t, conn)

	if events[0].Type != "download_started" || events[0].DownloadID == "" {
		t.Fatalf("first event = %+v, want download_started with id", events[0])
	}

	var progress []wire
	var completed int
	for _, ev := range events[1:] {
		switch ev.Type {
		case "progress":
			progress = append(progress, ev)
		case "completed":
			completed++
			if !strings.HasSuffix(ev.FileSize, "MB") {
				t.Errorf("file_size = %q, want an MB string", ev.FileSize)
			}
			if ev.DownloadID != events[0].DownloadID {
				t.Errorf("completed for %q, want %q", ev.DownloadID, events[0].DownloadID)
			}
		case "error":
			t.Fatalf("unexpected error event: %+v", ev)
		}
	}

	if len(progress) < 1 {
		t.Fatal("no progress events observed")
	}
	for i := 1; i < len(progress); i++ {
		if progress[i].Percentage < progress[i-1].Percentage {
			t.Errorf("percentage regressed: %v after %v", progress[i].Percentage, progress[i-1].Percentage)
		}
	}
	if completed != 1 {
		t.Errorf("completed events = %d, want exactly 1", completed)
	}
}

func TestFailedDownloadOverWebsocket(t *testing.T) {
	eng := &fakeEngine{
		download: func(context.Context, domain.DownloadRequest, domain.ProgressFunc) (*domain.DownloadResult, error) {
			return nil, errors.New("could not resolve host")
		},
	}

	hub, router := newTestStack(t, eng)
	conn := dialSession(t, hub, router, "client-1")

	msg := `{"type":"start_download","url":"https://unreachable.invalid/v"}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatal(err)
	}

	events := readUntilTerminal(t, conn)

	if events[0].Type != "download_started" {
		t.Fatalf("first event = %+v, want download_started", events[0])
	}
	last := events[len(events)-1]
	if last.Type != "error" || last.Message == "" {
		t.Fatalf("terminal event = %+v, want error with message", last)
	}
	for _, ev := range events {
		if ev.Type == "completed" {
			t.Error("completed event for a failed download")
		}
	}
}

func TestHubTracksConnections(t *testing.T) {
	hub, router := newTestStack(t, quickEngine())
	conn := dialSession(t, hub, router, "client-1")

	waitFor := func(want int) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if hub.Count() == want {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatalf("hub count = %d, want %d", hub.Count(), want)
	}

	waitFor(1)
	if _, ok := hub.Get("client-1"); !ok {
		t.Error("session not registered under its client id")
	}

	conn.Close()
	waitFor(0)
}

func TestDisconnectedSessionDropsDeliveriesSilently(t *testing.T) {
	log, err := logger.New("", logger.LevelFatal, false)
	if err != nil {
		t.Fatal(err)
	}

	s := newSession("gone", nil, log)
	s.close()

	// Must not panic or block even though nothing drains the queue.
	for i := 0; i < sendBuffer*2; i++ {
		s.Deliver(map[string]string{"type": "progress"})
	}
}
