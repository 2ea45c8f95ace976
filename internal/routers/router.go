package routers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"codecollab/internal/api"
	"codecollab/internal/config"
	"codecollab/internal/utils"
)

type roomManager interface {
	CreateRoom(ctx context.Context) (string, error)
	RoomExists(ctx context.Context, roomID string) (bool, error)
}

type sessionRunner interface {
	Run(ctx context.Context, conn *websocket.Conn, roomID string)
}

func New(log *utils.Logger, cfg *config.Config, rooms roomManager, sessions sessionRunner) http.Handler {
	h := api.NewHandlers(log, cfg, rooms, sessions)
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", h.CreateRoom)
		r.Get("/{roomID}/exists", h.RoomExists)
		r.Post("/autocomplete", h.Autocomplete)
	})

	r.Get("/ws/{roomID}", h.CollabWS)

	return r
}
