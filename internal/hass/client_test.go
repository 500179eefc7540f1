package hass

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// fakeServer upgrades the connection, performs the server side of the
// auth handshake, and then answers commands via the handle callback.
func fakeServer(t *testing.T, handle func(conn *websocket.Conn, cmd map[string]any) bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/websocket" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		if err := conn.WriteJSON(map[string]any{"type": "auth_required"}); err != nil {
			return
		}

		var auth map[string]any
		if err := conn.ReadJSON(&auth); err != nil {
			return
		}
		if auth["type"] != "auth" {
			t.Errorf("expected auth message, got %v", auth["type"])
			return
		}
		if auth["access_token"] == "bad-token" {
			_ = conn.WriteJSON(map[string]any{"type": "auth_invalid", "message": "Invalid access token"})
			return
		}
		if err := conn.WriteJSON(map[string]any{"type": "auth_ok", "ha_version": "2025.8.1"}); err != nil {
			return
		}

		for {
			var cmd map[string]any
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			if !handle(conn, cmd) {
				return
			}
		}
	}))
}

// replySuccess writes a success result for the command id.
func replySuccess(conn *websocket.Conn, cmd map[string]any, result any) bool {
	return conn.WriteJSON(map[string]any{
		"id":      cmd["id"],
		"type":    "result",
		"success": true,
		"result":  result,
	}) == nil
}

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c := NewClient(srv.URL, token)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return c
}

func TestClientAuthAndCommandRoundTrip(t *testing.T) {
	srv := fakeServer(t, func(conn *websocket.Conn, cmd map[string]any) bool {
		switch cmd["type"] {
		case "subscribe_events":
			return replySuccess(conn, cmd, nil)
		case "config/device_registry/list":
			return replySuccess(conn, cmd, []map[string]any{
				{
					"id":                   "dev1",
					"name":                 "Grow Box",
					"name_by_user":         "Tent A",
					"identifiers":          [][]string{{"growdeck", "box-1"}},
					"primary_config_entry": "entry1",
				},
			})
		default:
			t.Errorf("unexpected command %v", cmd["type"])
			return false
		}
	})
	defer srv.Close()

	c := newTestClient(t, srv, "llat-ok")
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	devices, err := c.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("ListDevices() returned %d devices, want 1", len(devices))
	}
	if devices[0].DisplayName() != "Tent A" {
		t.Errorf("DisplayName() = %v, want Tent A", devices[0].DisplayName())
	}
	if !devices[0].HasDomain("growdeck") {
		t.Error("HasDomain(growdeck) = false, want true")
	}
	if devices[0].HasDomain("hue") {
		t.Error("HasDomain(hue) = true, want false")
	}
}

func TestClientAuthInvalid(t *testing.T) {
	srv := fakeServer(t, func(conn *websocket.Conn, cmd map[string]any) bool { return false })
	defer srv.Close()

	c := NewClient(srv.URL, "bad-token")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.Connect(ctx)
	if err == nil {
		c.Close()
		t.Fatal("Connect() with bad token should fail")
	}
	if !strings.Contains(err.Error(), "authentication rejected") {
		t.Errorf("Connect() error = %v, want authentication rejection", err)
	}
}

func TestClientCommandError(t *testing.T) {
	srv := fakeServer(t, func(conn *websocket.Conn, cmd map[string]any) bool {
		switch cmd["type"] {
		case "subscribe_events":
			return replySuccess(conn, cmd, nil)
		default:
			return conn.WriteJSON(map[string]any{
				"id":      cmd["id"],
				"type":    "result",
				"success": false,
				"error":   map[string]any{"code": "not_found", "message": "Config entry not found"},
			}) == nil
		}
	})
	defer srv.Close()

	c := newTestClient(t, srv, "llat-ok")
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.GetConfig(ctx, "missing")
	if err == nil {
		t.Fatal("GetConfig() should fail")
	}
	cmdErr, ok := err.(*CommandError)
	if !ok {
		t.Fatalf("GetConfig() error type = %T, want *CommandError", err)
	}
	if cmdErr.Code != "not_found" {
		t.Errorf("CommandError.Code = %v, want not_found", cmdErr.Code)
	}
}

func TestClientStateCacheAndSignal(t *testing.T) {
	srv := fakeServer(t, func(conn *websocket.Conn, cmd map[string]any) bool {
		switch cmd["type"] {
		case "subscribe_events":
			if !replySuccess(conn, cmd, nil) {
				return false
			}
			// Push a state change right after the subscription lands
			return conn.WriteJSON(map[string]any{
				"id":   cmd["id"],
				"type": "event",
				"event": map[string]any{
					"event_type": "state_changed",
					"data": map[string]any{
						"entity_id": "sensor.tent_a_vpd",
						"new_state": map[string]any{
							"entity_id": "sensor.tent_a_vpd",
							"state":     "1.24",
						},
					},
				},
			}) == nil
		default:
			return replySuccess(conn, cmd, nil)
		}
	})
	defer srv.Close()

	c := newTestClient(t, srv, "llat-ok")
	defer c.Close()

	select {
	case <-c.Signal():
	case <-time.After(5 * time.Second):
		t.Fatal("no signal received for state change")
	}

	state := c.StateOf("sensor.tent_a_vpd")
	if state == nil {
		t.Fatal("StateOf() = nil after state_changed")
	}
	v, ok := state.Float()
	if !ok || v != 1.24 {
		t.Errorf("Float() = (%v, %v), want (1.24, true)", v, ok)
	}

	if c.StateOf("sensor.unknown") != nil {
		t.Error("StateOf() for unknown entity should be nil")
	}
	if c.StateOf("") != nil {
		t.Error("StateOf(\"\") should be nil")
	}
}

func TestClientGetConfigAndUpdate(t *testing.T) {
	srv := fakeServer(t, func(conn *websocket.Conn, cmd map[string]any) bool {
		switch cmd["type"] {
		case "subscribe_events":
			return replySuccess(conn, cmd, nil)
		case "growdeck/get_config":
			return replySuccess(conn, cmd, map[string]any{
				"config": map[string]any{"target_temp": 24.0, "current_phase": "vegetative"},
			})
		case "growdeck/update_config":
			// Echo back only the applied keys
			opts, _ := cmd["options"].(map[string]any)
			return replySuccess(conn, cmd, map[string]any{"options": opts})
		default:
			return false
		}
	})
	defer srv.Close()

	c := newTestClient(t, srv, "llat-ok")
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := c.GetConfig(ctx, "entry1")
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if cfg["current_phase"] != "vegetative" {
		t.Errorf("config current_phase = %v, want vegetative", cfg["current_phase"])
	}

	applied, err := c.UpdateConfig(ctx, "entry1", map[string]any{"target_temp": "26"})
	if err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}
	if applied["target_temp"] != "26" {
		t.Errorf("applied target_temp = %v, want 26", applied["target_temp"])
	}
}

func TestStateFloat(t *testing.T) {
	tests := []struct {
		name   string
		state  *State
		want   float64
		wantOK bool
	}{
		{"numeric", &State{State: "21.5"}, 21.5, true},
		{"integer", &State{State: "18"}, 18, true},
		{"unavailable", &State{State: "unavailable"}, 0, false},
		{"unknown", &State{State: "unknown"}, 0, false},
		{"empty", &State{State: ""}, 0, false},
		{"non-numeric", &State{State: "on"}, 0, false},
		{"nil state", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.state.Float()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Float() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEventTime(t *testing.T) {
	e := &Event{When: 1700000000.5}
	got := e.Time()
	want := time.Unix(1700000000, 500000000)
	if !got.Equal(want) {
		t.Errorf("Time() = %v, want %v", got, want)
	}
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://ha.local:8123", "ws://ha.local:8123/api/websocket"},
		{"https://ha.example.org", "wss://ha.example.org/api/websocket"},
		{"http://ha.local:8123/", "ws://ha.local:8123/api/websocket"},
	}

	for _, tt := range tests {
		c := NewClient(tt.base, "token")
		if got := c.websocketURL(); got != tt.want {
			t.Errorf("websocketURL(%q) = %v, want %v", tt.base, got, tt.want)
		}
	}
}

func TestEncodedUploadPayload(t *testing.T) {
	var gotImage string
	srv := fakeServer(t, func(conn *websocket.Conn, cmd map[string]any) bool {
		switch cmd["type"] {
		case "subscribe_events":
			return replySuccess(conn, cmd, nil)
		case "growdeck/upload_image":
			gotImage, _ = cmd["image"].(string)
			return replySuccess(conn, cmd, map[string]any{"version": json.Number("1700000123")})
		default:
			return false
		}
	})
	defer srv.Close()

	c := newTestClient(t, srv, "llat-ok")
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	version, err := c.UploadImage(ctx, "dev1", "entry1", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}
	if version != "1700000123" {
		t.Errorf("UploadImage() version = %v, want 1700000123", version)
	}
	if gotImage != "cG5nLWJ5dGVz" {
		t.Errorf("image payload = %v, want base64 of png-bytes", gotImage)
	}
}
