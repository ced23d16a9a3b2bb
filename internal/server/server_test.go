package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Faultbox/supermesh/internal/transport"
	"github.com/Faultbox/supermesh/pkg/idmap"
)

func newTestServer(t *testing.T, apiKey string) (*Server, *httptest.Server) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "acme", "house")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a1.json.mpc"), []byte(`{"mapping":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(Options{APIKey: apiKey}, transport.DirFetcher{Root: root}, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestServer_API(t *testing.T) {
	_, ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/acme/house/a1.json.mpc")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(body) != `{"mapping":[]}` {
		t.Errorf("unexpected body %q", body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}

	resp, err = http.Get(ts.URL + "/api/acme/house/missing.src.mpc")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestServer_APIKey(t *testing.T) {
	_, ts := newTestServer(t, "secret")

	tests := []struct {
		query string
		want  int
	}{
		{"", http.StatusUnauthorized},
		{"?key=wrong", http.StatusUnauthorized},
		{"?key=secret", http.StatusOK},
	}

	for _, tc := range tests {
		resp, err := http.Get(ts.URL + "/api/acme/house/a1.json.mpc" + tc.query)
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("query %q: expected %d, got %d", tc.query, tc.want, resp.StatusCode)
		}
	}
}

func TestServer_ThroughHTTPFetcher(t *testing.T) {
	_, ts := newTestServer(t, "secret")

	f := transport.NewHTTPFetcher("http", strings.TrimPrefix(ts.URL, "http://"), "secret", time.Second)
	data, err := f.Fetch(context.Background(), "acme/house/a1.json.mpc")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != `{"mapping":[]}` {
		t.Errorf("unexpected data %q", data)
	}
}

func readTexture(t *testing.T, conn *websocket.Conn) TextureMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading websocket: %v", err)
	}
	var msg TextureMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	return msg
}

func TestServer_IDMapWebsocket(t *testing.T) {
	s, ts := newTestServer(t, "")

	// A texture published before the client connects is replayed.
	s.Hub().UpdateTexture("diffuse", &idmap.Texture{Width: 1, Pixels: []uint32{0xFF0000FF}}, true)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/idmap"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	msg := readTexture(t, conn)
	if msg.Map != "diffuse" || msg.Width != 1 || len(msg.Pixels) != 1 || msg.Pixels[0] != 0xFF0000FF || !msg.Recreated {
		t.Errorf("unexpected initial message %+v", msg)
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.Hub().Clients() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	s.Hub().UpdateTexture("diffuse", &idmap.Texture{Width: 2, Pixels: []uint32{1, 2, 3, 4}}, true)
	msg = readTexture(t, conn)
	if msg.Width != 2 || len(msg.Pixels) != 4 || msg.Pixels[3] != 4 {
		t.Errorf("unexpected update %+v", msg)
	}
}
