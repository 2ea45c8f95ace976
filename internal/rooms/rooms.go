// Package rooms creates rooms and answers existence queries over the
// shared store.
package rooms

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"codecollab/internal/utils"
)

// maxCreateAttempts bounds collision retries during id generation.
const maxCreateAttempts = 10

var ErrIDSpaceExhausted = errors.New("could not generate an unused room id")

type roomStore interface {
	InitRoom(ctx context.Context, roomID string) error
	RoomExists(ctx context.Context, roomID string) (bool, error)
}

type Manager struct {
	log   *utils.Logger
	store roomStore
	idLen int
}

func NewManager(log *utils.Logger, store roomStore, idLen int) *Manager {
	return &Manager{log: log, store: store, idLen: idLen}
}

// CreateRoom generates a random id, retries on the rare collision, and
// initializes an empty room with the configured inactivity window.
func (m *Manager) CreateRoom(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		roomID, err := generateRoomID(m.idLen)
		if err != nil {
			return "", err
		}
		exists, err := m.store.RoomExists(ctx, roomID)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		if err := m.store.InitRoom(ctx, roomID); err != nil {
			return "", err
		}
		m.log.Info("room created", "room", roomID)
		return roomID, nil
	}
	return "", ErrIDSpaceExhausted
}

// RoomExists is a pure read and never extends the room's lifetime.
func (m *Manager) RoomExists(ctx context.Context, roomID string) (bool, error) {
	return m.store.RoomExists(ctx, roomID)
}

// generateRoomID returns n hex characters of cryptographic randomness.
// Six characters give 16M ids, plenty for collision-free short links.
func generateRoomID(n int) (string, error) {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate room id: %w", err)
	}
	return hex.EncodeToString(b)[:n], nil
}
