package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"codecollab/internal/autocomplete"
	"codecollab/internal/config"
	"codecollab/internal/models"
	"codecollab/internal/utils"
)

type roomManager interface {
	CreateRoom(ctx context.Context) (string, error)
	RoomExists(ctx context.Context, roomID string) (bool, error)
}

type sessionRunner interface {
	Run(ctx context.Context, conn *websocket.Conn, roomID string)
}

type suggester interface {
	Suggest(code string, cursorPosition int, language string) (models.AutocompleteResponse, bool)
}

type Handlers struct {
	log      *utils.Logger
	cfg      *config.Config
	rooms    roomManager
	sessions sessionRunner
	complete suggester
	upgrader websocket.Upgrader
}

func NewHandlers(log *utils.Logger, cfg *config.Config, rooms roomManager, sessions sessionRunner) *Handlers {
	return NewHandlersWithDeps(log, cfg, rooms, sessions, autocomplete.NewService())
}

func NewHandlersWithDeps(log *utils.Logger, cfg *config.Config, rooms roomManager, sessions sessionRunner, complete suggester) *Handlers {
	return &Handlers{
		log:      log,
		cfg:      cfg,
		rooms:    rooms,
		sessions: sessions,
		complete: complete,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(cfg.CORSOrigins)},
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := h.rooms.CreateRoom(r.Context())
	if err != nil {
		h.log.Error("room creation failed", "error", err.Error())
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusCreated, models.RoomCreateResponse{
		RoomID:  roomID,
		JoinURL: h.cfg.BaseURL + "/" + roomID,
		WSURL:   wsScheme(r) + "://" + r.Host + "/ws/" + roomID,
	})
}

func (h *Handlers) RoomExists(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	exists, err := h.rooms.RoomExists(r.Context(), roomID)
	if err != nil {
		h.log.Error("room existence check failed", "room", roomID, "error", err.Error())
		http.Error(w, "room store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, models.RoomExistsResponse{Exists: exists, RoomID: roomID})
}

func (h *Handlers) Autocomplete(w http.ResponseWriter, r *http.Request) {
	var req models.AutocompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, ok := h.complete.Suggest(req.Code, req.CursorPosition, req.Language)
	if !ok {
		writeJSONStatus(w, http.StatusNotFound, models.ErrorResponse{
			Error: "no autocomplete suggestion available for current context",
		})
		return
	}
	writeJSON(w, resp)
}

// CollabWS upgrades the connection and hands it to the session manager,
// which owns it until close.
func (h *Handlers) CollabWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.sessions.Run(r.Context(), conn, roomID)
}

// originChecker admits requests with no Origin header (non-browser
// clients) and browser requests from the configured origins.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

func wsScheme(r *http.Request) string {
	if r.TLS != nil {
		return "wss"
	}
	return "ws"
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
