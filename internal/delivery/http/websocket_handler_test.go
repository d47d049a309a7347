package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
)

func dialStream(t *testing.T, env *testEnv, id string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/analyses/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStream_DeliversTerminalState(t *testing.T) {
	clustering := clusteringBackend(t, `{"clusters": [{"title": "Pages", "count": 1}]}`)
	site := sitemapBackend(t, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/a</loc></url>
</urlset>`)

	env := newTestEnv(t, clustering.URL)
	id := env.submit(t, site.URL+"/sitemap.xml")

	conn := dialStream(t, env, id.String())
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	// The stream emits status frames until the job finishes, then closes.
	for {
		var status domain.StatusResponse
		if err := conn.ReadJSON(&status); err != nil {
			t.Fatalf("read: %v", err)
		}
		if status.JobID != id {
			t.Fatalf("unexpected job id %s", status.JobID)
		}
		if status.State.IsTerminal() {
			if status.State != domain.StateDone {
				t.Fatalf("expected done, got %s (error: %+v)", status.State, status.Error)
			}
			if status.Result == nil || status.Result.Stats.TotalURLs != 1 {
				t.Errorf("terminal frame missing result: %+v", status.Result)
			}
			break
		}
	}

	// Server closes after the terminal frame.
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var extra domain.StatusResponse
	if err := conn.ReadJSON(&extra); err == nil {
		t.Error("expected stream to close after terminal state")
	}
}

func TestStream_UnknownJob(t *testing.T) {
	clustering := clusteringBackend(t, `{"clusters": []}`)
	env := newTestEnv(t, clustering.URL)

	conn := dialStream(t, env, uuid.Must(uuid.NewV7()).String())
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, ok := frame["error"]; !ok {
		t.Errorf("expected error frame, got %v", frame)
	}
}

func TestStream_MalformedID(t *testing.T) {
	clustering := clusteringBackend(t, `{"clusters": []}`)
	env := newTestEnv(t, clustering.URL)

	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/analyses/nope/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail for malformed id")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Errorf("expected 400 handshake response, got %+v", resp)
	}
}
