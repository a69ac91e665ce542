package arena

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tokyobot/client"
)

func startServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	if opts.TickInterval == 0 {
		opts.TickInterval = 10 * time.Millisecond
	}
	srv := NewServer(opts)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hs.Close()
		srv.Close()
	})
	return srv, hs
}

func credentials(hs *httptest.Server, key, name string) client.Config {
	return client.Config{
		ServerHost: strings.TrimPrefix(hs.URL, "http://"),
		APIKey:     key,
		UserName:   name,
	}
}

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func findPlayer(t *testing.T, s *client.Session, id string) (PlayerState, bool) {
	t.Helper()
	snap := s.LatestSnapshot()
	if snap == nil {
		return PlayerState{}, false
	}
	var ws WorldState
	if err := snap.Decode(&ws); err != nil {
		t.Fatalf("decode world state: %v", err)
	}
	for _, p := range ws.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerState{}, false
}

func TestBotPlaysAgainstArena(t *testing.T) {
	_, hs := startServer(t, Options{})

	s, err := client.New(credentials(hs, "k", "bot"))
	if err != nil {
		t.Fatalf("client.New returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	waitUntil(t, func() bool { _, ok := findPlayer(t, s, "bot"); return ok }, "bot never appeared in world state")
	start, _ := findPlayer(t, s, "bot")

	ctl := s.Controller()
	if err := ctl.Rotate(0); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if err := ctl.Throttle(5); err != nil {
		t.Fatalf("Throttle: %v", err)
	}
	if err := ctl.Fire(); err != nil {
		t.Fatalf("Fire: %v", err)
	}

	waitUntil(t, func() bool {
		p, _ := findPlayer(t, s, "bot")
		return p.Shots == 1 && p.Speed == 1 && p.X > start.X
	}, "commands never reflected in world state")
}

func TestGamePlanAgainstArena(t *testing.T) {
	_, hs := startServer(t, Options{})

	s, err := client.New(credentials(hs, "k", "planner"))
	if err != nil {
		t.Fatalf("client.New returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctl := s.Controller()
	if _, err := s.SetGamePlan(func(*client.Snapshot) { _ = ctl.Fire() }, 10*time.Millisecond); err != nil {
		t.Fatalf("SetGamePlan: %v", err)
	}
	waitUntil(t, func() bool {
		p, _ := findPlayer(t, s, "planner")
		return p.Shots >= 3
	}, "game plan never fired")
}

func TestDisconnectRemovesPlayer(t *testing.T) {
	srv, hs := startServer(t, Options{})

	s, err := client.New(credentials(hs, "k", "bot"))
	if err != nil {
		t.Fatalf("client.New returned error: %v", err)
	}
	waitUntil(t, func() bool { _, ok := findPlayer(t, s, "bot"); return ok }, "bot never joined")
	_ = s.Close()

	room, ok := srv.Rooms().Room(DefaultRoom)
	if !ok {
		t.Fatalf("expected default room to exist")
	}
	waitUntil(t, func() bool { return room.Metrics().Snapshot()["leaves"] == int64(1) }, "player never left")
}

func TestHandleWSRejectsBadRequests(t *testing.T) {
	_, hs := startServer(t, Options{Keys: []string{"good"}})

	tests := []struct {
		query string
		want  int
	}{
		{"?key=good", http.StatusBadRequest},
		{"?key=bad&name=bot", http.StatusUnauthorized},
		{"?name=bot", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		resp, err := http.Get(hs.URL + "/socket" + tt.query)
		if err != nil {
			t.Fatalf("GET %s: %v", tt.query, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Fatalf("GET %s: expected %d, got %d", tt.query, tt.want, resp.StatusCode)
		}
	}

	s := client.Open("ws" + strings.TrimPrefix(hs.URL, "http") + "/socket?key=bad&name=bot")
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("rejected handshake should close the session")
	}
}

func TestAdminConfig(t *testing.T) {
	_, hs := startServer(t, Options{})

	resp, err := http.Post(hs.URL+"/admin/config", "application/json", strings.NewReader(`{"maxSpeed":2.5}`))
	if err != nil {
		t.Fatalf("POST config: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(hs.URL + "/admin/config")
	if err != nil {
		t.Fatalf("GET config: %v", err)
	}
	var cfg RoomConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	resp.Body.Close()
	if cfg.MaxSpeed != 2.5 || cfg.Width != 100 {
		t.Fatalf("unexpected config %+v", cfg)
	}

	for body, want := range map[string]int{
		`{`:               http.StatusBadRequest,
		`{"width":-1}`:    http.StatusBadRequest,
		`{"maxSpeed":0}`:  http.StatusBadRequest,
		`{"height":50.0}`: http.StatusOK,
	} {
		resp, err := http.Post(hs.URL+"/admin/config", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s: %v", body, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("POST %s: expected %d, got %d", body, want, resp.StatusCode)
		}
	}

	req, _ := http.NewRequest(http.MethodPut, hs.URL+"/admin/config", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT config: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, hs := startServer(t, Options{})

	resp, err := http.Get(hs.URL + "/metrics?room=nope")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown room, got %d", resp.StatusCode)
	}

	s, err := client.New(credentials(hs, "k", "bot"))
	if err != nil {
		t.Fatalf("client.New returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	waitUntil(t, func() bool { _, ok := findPlayer(t, s, "bot"); return ok }, "bot never joined")

	resp, err = http.Get(hs.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	var payload struct {
		Room    string             `json:"room"`
		Tick    int64              `json:"tick"`
		Metrics map[string]float64 `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if payload.Room != DefaultRoom || payload.Tick == 0 {
		t.Fatalf("unexpected payload room=%s tick=%d", payload.Room, payload.Tick)
	}
	if payload.Metrics["joins"] != 1 {
		t.Fatalf("expected 1 join, got %v", payload.Metrics["joins"])
	}
}

func TestHealthz(t *testing.T) {
	_, hs := startServer(t, Options{})
	resp, err := http.Get(hs.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
