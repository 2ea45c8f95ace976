package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"codecollab/internal/config"
	"codecollab/internal/models"
	"codecollab/internal/utils"
)

type mockRooms struct {
	createFn func(context.Context) (string, error)
	existsFn func(context.Context, string) (bool, error)
}

func (m *mockRooms) CreateRoom(ctx context.Context) (string, error) {
	if m.createFn != nil {
		return m.createFn(ctx)
	}
	return "", errors.New("not implemented")
}

func (m *mockRooms) RoomExists(ctx context.Context, roomID string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, roomID)
	}
	return false, errors.New("not implemented")
}

type mockSessions struct {
	ran chan string
}

func (m *mockSessions) Run(_ context.Context, conn *websocket.Conn, roomID string) {
	if m.ran != nil {
		m.ran <- roomID
	}
	conn.Close()
}

type mockSuggester struct {
	resp models.AutocompleteResponse
	ok   bool
}

func (m *mockSuggester) Suggest(string, int, string) (models.AutocompleteResponse, bool) {
	return m.resp, m.ok
}

func testConfig() *config.Config {
	return &config.Config{
		Port:        "8080",
		BaseURL:     "http://localhost:3000",
		CORSOrigins: []string{"http://localhost:3000"},
		RoomTTL:     2 * time.Hour,
		RoomIDLen:   6,
	}
}

func newTestHandlers(rooms *mockRooms, sessions *mockSessions, sg *mockSuggester) *Handlers {
	if sg == nil {
		sg = &mockSuggester{}
	}
	return NewHandlersWithDeps(utils.NewNopLogger(), testConfig(), rooms, sessions, sg)
}

func addRoomID(ctx context.Context, roomID string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("roomID", roomID)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

func decodeBody(t *testing.T, body *bytes.Buffer, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandlers(&mockRooms{}, &mockSessions{}, nil)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Body.String() != "ok" {
		t.Fatalf("expected ok, got %q", rec.Body.String())
	}
}

func TestCreateRoomSuccess(t *testing.T) {
	rooms := &mockRooms{createFn: func(context.Context) (string, error) { return "ab12cd", nil }}
	h := newTestHandlers(rooms, &mockSessions{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rooms", nil)
	req.Host = "example.com"
	h.CreateRoom(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp models.RoomCreateResponse
	decodeBody(t, rec.Body, &resp)
	if resp.RoomID != "ab12cd" {
		t.Fatalf("unexpected room id: %q", resp.RoomID)
	}
	if resp.JoinURL != "http://localhost:3000/ab12cd" {
		t.Fatalf("unexpected join url: %q", resp.JoinURL)
	}
	if resp.WSURL != "ws://example.com/ws/ab12cd" {
		t.Fatalf("unexpected ws url: %q", resp.WSURL)
	}
}

func TestCreateRoomFailure(t *testing.T) {
	rooms := &mockRooms{createFn: func(context.Context) (string, error) {
		return "", errors.New("redis down")
	}}
	h := newTestHandlers(rooms, &mockSessions{}, nil)

	rec := httptest.NewRecorder()
	h.CreateRoom(rec, httptest.NewRequest(http.MethodPost, "/rooms", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRoomExists(t *testing.T) {
	rooms := &mockRooms{existsFn: func(_ context.Context, roomID string) (bool, error) {
		return roomID == "known1", nil
	}}
	h := newTestHandlers(rooms, &mockSessions{}, nil)

	for _, tc := range []struct {
		roomID string
		exists bool
	}{
		{"known1", true},
		{"ghost9", false},
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/rooms/"+tc.roomID+"/exists", nil)
		h.RoomExists(rec, req.WithContext(addRoomID(req.Context(), tc.roomID)))

		var resp models.RoomExistsResponse
		decodeBody(t, rec.Body, &resp)
		if resp.Exists != tc.exists || resp.RoomID != tc.roomID {
			t.Fatalf("unexpected response for %s: %#v", tc.roomID, resp)
		}
	}
}

func TestRoomExistsStoreUnavailable(t *testing.T) {
	rooms := &mockRooms{existsFn: func(context.Context, string) (bool, error) {
		return false, errors.New("redis down")
	}}
	h := newTestHandlers(rooms, &mockSessions{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rooms/x/exists", nil)
	h.RoomExists(rec, req.WithContext(addRoomID(req.Context(), "x")))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestAutocompleteSuccess(t *testing.T) {
	sg := &mockSuggester{
		resp: models.AutocompleteResponse{Suggestion: "()", InsertPosition: 5, TriggerWord: "print"},
		ok:   true,
	}
	h := newTestHandlers(&mockRooms{}, &mockSessions{}, sg)

	body, _ := json.Marshal(models.AutocompleteRequest{Code: "print", CursorPosition: 5, Language: "python"})
	rec := httptest.NewRecorder()
	h.Autocomplete(rec, httptest.NewRequest(http.MethodPost, "/rooms/autocomplete", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.AutocompleteResponse
	decodeBody(t, rec.Body, &resp)
	if resp.Suggestion != "()" || resp.TriggerWord != "print" {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestAutocompleteNoSuggestion(t *testing.T) {
	h := newTestHandlers(&mockRooms{}, &mockSessions{}, &mockSuggester{})

	body, _ := json.Marshal(models.AutocompleteRequest{Code: "x", CursorPosition: 1, Language: "python"})
	rec := httptest.NewRecorder()
	h.Autocomplete(rec, httptest.NewRequest(http.MethodPost, "/rooms/autocomplete", bytes.NewReader(body)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var resp models.ErrorResponse
	decodeBody(t, rec.Body, &resp)
	if resp.Error == "" {
		t.Fatalf("expected error body, got %q", rec.Body.String())
	}
}

func TestAutocompleteBadRequest(t *testing.T) {
	h := newTestHandlers(&mockRooms{}, &mockSessions{}, nil)
	rec := httptest.NewRecorder()
	h.Autocomplete(rec, httptest.NewRequest(http.MethodPost, "/rooms/autocomplete", strings.NewReader("{broken")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCollabWSHandsSocketToSessionManager(t *testing.T) {
	sessions := &mockSessions{ran: make(chan string, 1)}
	h := newTestHandlers(&mockRooms{}, sessions, nil)

	r := chi.NewRouter()
	r.Get("/ws/{roomID}", h.CollabWS)
	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/room42"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	select {
	case roomID := <-sessions.ran:
		if roomID != "room42" {
			t.Fatalf("expected room42, got %q", roomID)
		}
	case <-time.After(time.Second):
		t.Fatalf("session manager was never invoked")
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/ws/r", nil)
	if !check(req) {
		t.Fatalf("requests without an Origin header should be allowed")
	}

	req.Header.Set("Origin", "http://localhost:3000")
	if !check(req) {
		t.Fatalf("configured origin should be allowed")
	}

	req.Header.Set("Origin", "http://evil.example")
	if check(req) {
		t.Fatalf("unknown origin should be rejected")
	}

	if !originChecker([]string{"*"})(req) {
		t.Fatalf("wildcard should allow any origin")
	}
}
