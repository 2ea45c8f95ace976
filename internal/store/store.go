// Package store is the Redis adapter for shared room state. Every field
// update is a plain overwrite or upsert, so no transactions or CAS are
// needed: the last write wins by construction.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"codecollab/internal/models"
)

// Redis holds room state under three keys per room, all sharing one
// inactivity TTL:
//
//	room:{id}:code    string  authoritative document text
//	room:{id}:users   set     connected user ids
//	room:{id}:cursors hash    user id -> JSON cursor position
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func codeKey(roomID string) string    { return "room:" + roomID + ":code" }
func usersKey(roomID string) string   { return "room:" + roomID + ":users" }
func cursorsKey(roomID string) string { return "room:" + roomID + ":cursors" }

// InitRoom creates an empty room with the configured inactivity window.
func (s *Redis) InitRoom(ctx context.Context, roomID string) error {
	if err := s.rdb.Set(ctx, codeKey(roomID), "", s.ttl).Err(); err != nil {
		return fmt.Errorf("init room %s: %w", roomID, err)
	}
	return nil
}

// RoomExists is a pure read; it never touches the TTL.
func (s *Redis) RoomExists(ctx context.Context, roomID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, codeKey(roomID)).Result()
	if err != nil {
		return false, fmt.Errorf("room exists %s: %w", roomID, err)
	}
	return n > 0, nil
}

func (s *Redis) GetCode(ctx context.Context, roomID string) (string, error) {
	code, err := s.rdb.Get(ctx, codeKey(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get code %s: %w", roomID, err)
	}
	return code, nil
}

func (s *Redis) SetCode(ctx context.Context, roomID, code string) error {
	if err := s.rdb.Set(ctx, codeKey(roomID), code, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("set code %s: %w", roomID, err)
	}
	return nil
}

func (s *Redis) AddUser(ctx context.Context, roomID, userID string) error {
	if err := s.rdb.SAdd(ctx, usersKey(roomID), userID).Err(); err != nil {
		return fmt.Errorf("add user %s to %s: %w", userID, roomID, err)
	}
	return nil
}

func (s *Redis) RemoveUser(ctx context.Context, roomID, userID string) error {
	if err := s.rdb.SRem(ctx, usersKey(roomID), userID).Err(); err != nil {
		return fmt.Errorf("remove user %s from %s: %w", userID, roomID, err)
	}
	return nil
}

func (s *Redis) GetUsers(ctx context.Context, roomID string) ([]string, error) {
	users, err := s.rdb.SMembers(ctx, usersKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get users %s: %w", roomID, err)
	}
	return users, nil
}

func (s *Redis) SetCursor(ctx context.Context, roomID, userID string, cur models.CursorPosition) error {
	payload, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("encode cursor for %s: %w", userID, err)
	}
	if err := s.rdb.HSet(ctx, cursorsKey(roomID), userID, payload).Err(); err != nil {
		return fmt.Errorf("set cursor %s in %s: %w", userID, roomID, err)
	}
	return nil
}

func (s *Redis) RemoveCursor(ctx context.Context, roomID, userID string) error {
	if err := s.rdb.HDel(ctx, cursorsKey(roomID), userID).Err(); err != nil {
		return fmt.Errorf("remove cursor %s from %s: %w", userID, roomID, err)
	}
	return nil
}

func (s *Redis) GetCursors(ctx context.Context, roomID string) (map[string]models.CursorPosition, error) {
	raw, err := s.rdb.HGetAll(ctx, cursorsKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get cursors %s: %w", roomID, err)
	}
	return parseCursors(raw), nil
}

// parseCursors decodes the cursor hash, dropping entries that fail to
// parse rather than failing the whole read.
func parseCursors(raw map[string]string) map[string]models.CursorPosition {
	cursors := make(map[string]models.CursorPosition, len(raw))
	for userID, payload := range raw {
		var cur models.CursorPosition
		if err := json.Unmarshal([]byte(payload), &cur); err != nil {
			continue
		}
		cursors[userID] = cur
	}
	return cursors
}

// RefreshTTL extends the inactivity window on every room key. Always
// extending to now+window makes concurrent refreshes idempotent.
func (s *Redis) RefreshTTL(ctx context.Context, roomID string) error {
	for _, key := range []string{codeKey(roomID), usersKey(roomID), cursorsKey(roomID)} {
		if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("refresh ttl %s: %w", roomID, err)
		}
	}
	return nil
}
