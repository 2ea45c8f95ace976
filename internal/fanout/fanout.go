// Package fanout replicates room events between service instances over
// Redis pub/sub, one channel per room. Delivery is in publish order and
// at-least-once; a subscriber gap loses events, which clients recover
// from via the full init on their next connect.
package fanout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"codecollab/internal/utils"
)

// Event is a partially decoded room event: type and origin user for
// routing decisions, plus the raw payload forwarded verbatim to sockets.
type Event struct {
	Type    string
	UserID  string
	Payload []byte
}

func decodeEvent(payload []byte) (Event, error) {
	var env struct {
		Type   string `json:"type"`
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, err
	}
	if env.Type == "" {
		return Event{}, fmt.Errorf("event missing type")
	}
	return Event{Type: env.Type, UserID: env.UserID, Payload: payload}, nil
}

func channelName(roomID string) string { return "room_channel:" + roomID }

// Stream is a lazy, cancellable, in-order sequence of one room's events.
type Stream interface {
	Events() <-chan Event
	Close() error
}

// Redis is the pub/sub backed event bus.
type Redis struct {
	rdb *redis.Client
	log *utils.Logger
}

func NewRedis(rdb *redis.Client, log *utils.Logger) *Redis {
	return &Redis{rdb: rdb, log: log}
}

// Publish broadcasts msg to every instance subscribed to the room.
func (f *Redis) Publish(ctx context.Context, roomID string, msg interface{}) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode event for %s: %w", roomID, err)
	}
	if err := f.rdb.Publish(ctx, channelName(roomID), payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", roomID, err)
	}
	return nil
}

// Subscribe opens the room's channel and starts decoding events into the
// returned subscription. The caller owns exactly one subscription per
// room and must Close it when the last local socket leaves.
func (f *Redis) Subscribe(ctx context.Context, roomID string) (Stream, error) {
	ps := f.rdb.Subscribe(ctx, channelName(roomID))
	// Receive confirms the subscription is live before any publish races it.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", roomID, err)
	}
	sub := newSubscription(ps, f.log)
	go sub.pump(ps.Channel())
	return sub, nil
}

// Subscription is an in-order stream of one room's events.
type Subscription struct {
	ps     *redis.PubSub
	events chan Event
	log    *utils.Logger
}

func newSubscription(ps *redis.PubSub, log *utils.Logger) *Subscription {
	return &Subscription{ps: ps, events: make(chan Event, 64), log: log}
}

// Events yields decoded events in publish order. The channel closes once
// the subscription is closed.
func (s *Subscription) Events() <-chan Event { return s.events }

// Close tears down the Redis subscription, which ends the pump and closes
// the events channel.
func (s *Subscription) Close() error {
	if s.ps == nil {
		return nil
	}
	return s.ps.Close()
}

func (s *Subscription) pump(in <-chan *redis.Message) {
	defer close(s.events)
	for msg := range in {
		evt, err := decodeEvent([]byte(msg.Payload))
		if err != nil {
			s.log.Warn("dropping undecodable fanout event", "channel", msg.Channel, "error", err.Error())
			continue
		}
		s.events <- evt
	}
}
