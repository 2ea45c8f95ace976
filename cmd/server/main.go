package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"codecollab/internal/config"
	"codecollab/internal/fanout"
	"codecollab/internal/rooms"
	"codecollab/internal/routers"
	"codecollab/internal/session"
	"codecollab/internal/store"
	"codecollab/internal/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis unreachable at %s: %v", cfg.RedisAddr, err)
	}
	cancel()
	logger.Info("redis connection established", "addr", cfg.RedisAddr)

	roomStore := store.NewRedis(rdb, cfg.RoomTTL)
	bus := fanout.NewRedis(rdb, logger)
	sessions := session.NewManager(logger, roomStore, bus)
	roomMgr := rooms.NewManager(logger, roomStore, cfg.RoomIDLen)

	r := chi.NewRouter()
	// No Timeout middleware here: WebSocket sessions outlive any sane
	// request deadline.
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Mount("/", routers.New(logger, cfg, roomMgr, sessions))

	addr := ":" + cfg.Port
	log.Printf("codecollab listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
