package routers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"codecollab/internal/config"
	"codecollab/internal/models"
	"codecollab/internal/utils"
)

type stubRooms struct{}

func (stubRooms) CreateRoom(context.Context) (string, error) { return "ab12cd", nil }

func (stubRooms) RoomExists(context.Context, string) (bool, error) { return true, nil }

type stubSessions struct{}

func (stubSessions) Run(_ context.Context, conn *websocket.Conn, _ string) { conn.Close() }

func testConfig() *config.Config {
	return &config.Config{
		Port:        "8080",
		BaseURL:     "http://localhost:3000",
		CORSOrigins: []string{"http://localhost:3000"},
		RoomTTL:     2 * time.Hour,
		RoomIDLen:   6,
	}
}

func TestRouterHealthEndpoint(t *testing.T) {
	handler := New(utils.NewNopLogger(), testConfig(), stubRooms{}, stubSessions{})
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRouterRoomRoutes(t *testing.T) {
	handler := New(utils.NewNopLogger(), testConfig(), stubRooms{}, stubSessions{})
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Post(server.URL+"/rooms", "application/json", nil)
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created models.RoomCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.RoomID != "ab12cd" {
		t.Fatalf("unexpected room id: %q", created.RoomID)
	}

	existsResp, err := http.Get(server.URL + "/rooms/ab12cd/exists")
	if err != nil {
		t.Fatalf("exists request failed: %v", err)
	}
	defer existsResp.Body.Close()
	var exists models.RoomExistsResponse
	if err := json.NewDecoder(existsResp.Body).Decode(&exists); err != nil {
		t.Fatalf("decode exists response: %v", err)
	}
	if !exists.Exists || exists.RoomID != "ab12cd" {
		t.Fatalf("unexpected exists response: %#v", exists)
	}
}
