// Package session owns the per-connection lifecycle: handshake, message
// handling, fan-out delivery, and cleanup. All shared room state lives
// in the store; this package only keeps the instance-local socket map
// and one fan-out subscription per room.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"codecollab/internal/fanout"
	"codecollab/internal/models"
	"codecollab/internal/utils"
)

// Close code sent when a client connects to a room that does not exist.
const closeRoomNotFound = 4004

const cleanupTimeout = 5 * time.Second

var errRoomNotFound = errors.New("room not found")

type roomStore interface {
	RoomExists(ctx context.Context, roomID string) (bool, error)
	GetCode(ctx context.Context, roomID string) (string, error)
	SetCode(ctx context.Context, roomID, code string) error
	AddUser(ctx context.Context, roomID, userID string) error
	RemoveUser(ctx context.Context, roomID, userID string) error
	GetUsers(ctx context.Context, roomID string) ([]string, error)
	SetCursor(ctx context.Context, roomID, userID string, cur models.CursorPosition) error
	RemoveCursor(ctx context.Context, roomID, userID string) error
	GetCursors(ctx context.Context, roomID string) (map[string]models.CursorPosition, error)
	RefreshTTL(ctx context.Context, roomID string) error
}

type eventBus interface {
	Publish(ctx context.Context, roomID string, msg interface{}) error
	Subscribe(ctx context.Context, roomID string) (fanout.Stream, error)
}

// Session binds one socket to one ephemeral identity for its lifetime.
// A reconnect is a brand-new Session with a brand-new identity.
type Session struct {
	client *Client
	roomID string
	userID string
	color  string
	once   sync.Once
}

// Manager drives every connection attached to this instance.
type Manager struct {
	log        *utils.Logger
	store      roomStore
	bus        eventBus
	registry   *Registry
	instanceID string

	mu   sync.Mutex
	subs map[string]fanout.Stream
}

func NewManager(log *utils.Logger, store roomStore, bus eventBus) *Manager {
	return &Manager{
		log:        log,
		store:      store,
		bus:        bus,
		registry:   NewRegistry(),
		instanceID: uuid.NewString(),
		subs:       make(map[string]fanout.Stream),
	}
}

// Run owns the socket from upgrade to teardown: handshake, then the
// read loop until the peer goes away or a store write fails.
func (m *Manager) Run(ctx context.Context, wsConn *websocket.Conn, roomID string) {
	defer wsConn.Close()

	sess, err := m.connect(ctx, NewClient(wsConn), roomID)
	if err != nil {
		if errors.Is(err, errRoomNotFound) {
			msg := websocket.FormatCloseMessage(closeRoomNotFound, "Room not found")
			_ = wsConn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
		m.log.Error("handshake failed", "instance", m.instanceID, "room", roomID, "error", err.Error())
		return
	}
	defer m.Close(sess)

	for {
		_, raw, err := wsConn.ReadMessage()
		if err != nil {
			return
		}
		if err := m.handleMessage(ctx, sess, raw); err != nil {
			// Store unreachable: drop the connection rather than keep
			// serving possibly-stale state.
			m.log.Error("dropping connection", "room", roomID, "user", sess.userID, "error", err.Error())
			return
		}
	}
}

// connect performs the Connecting -> Active transition. On any failure
// after the socket is attached it runs the full idempotent cleanup, so
// no subscription or presence entry can leak.
func (m *Manager) connect(ctx context.Context, client *Client, roomID string) (*Session, error) {
	exists, err := m.store.RoomExists(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("verify room: %w", err)
	}
	if !exists {
		return nil, errRoomNotFound
	}

	client.UserID = newUserID()
	sess := &Session{
		client: client,
		roomID: roomID,
		userID: client.UserID,
		color:  pickColor(),
	}

	if err := m.attach(ctx, roomID, sess.client); err != nil {
		return nil, fmt.Errorf("join fanout: %w", err)
	}
	if err := m.seed(ctx, sess); err != nil {
		m.Close(sess)
		return nil, err
	}
	return sess, nil
}

// seed records presence, sends the single init frame, and announces the
// join to the rest of the room.
func (m *Manager) seed(ctx context.Context, sess *Session) error {
	if err := m.store.AddUser(ctx, sess.roomID, sess.userID); err != nil {
		return err
	}
	code, err := m.store.GetCode(ctx, sess.roomID)
	if err != nil {
		return err
	}
	users, err := m.store.GetUsers(ctx, sess.roomID)
	if err != nil {
		return err
	}
	cursors, err := m.store.GetCursors(ctx, sess.roomID)
	if err != nil {
		return err
	}

	sess.client.SendJSON(models.InitMessage{
		Type:       "init",
		Code:       code,
		Users:      users,
		Cursors:    cursors,
		YourUserID: sess.userID,
		YourColor:  sess.color,
	})

	m.publish(ctx, sess.roomID, models.UserJoinedMessage{
		Type:   "user_joined",
		UserID: sess.userID,
		Color:  sess.color,
	})

	if err := m.store.RefreshTTL(ctx, sess.roomID); err != nil {
		m.log.Warn("ttl refresh failed", "room", sess.roomID, "error", err.Error())
	}

	m.log.Info("user connected",
		"instance", m.instanceID, "room", sess.roomID, "user", sess.userID)
	return nil
}

// handleMessage applies one client message. Malformed or unknown
// payloads are dropped without affecting the connection; a store failure
// is returned and ends the session.
func (m *Manager) handleMessage(ctx context.Context, sess *Session, raw []byte) error {
	var msg models.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.log.Warn("dropping malformed message",
			"room", sess.roomID, "user", sess.userID, "error", err.Error())
		return nil
	}

	switch msg.Type {
	case "code_update":
		// Last write wins: the newest payload fully replaces the prior
		// value, regardless of sender.
		if err := m.store.SetCode(ctx, sess.roomID, msg.Code); err != nil {
			return err
		}
		if err := m.store.RefreshTTL(ctx, sess.roomID); err != nil {
			m.log.Warn("ttl refresh failed", "room", sess.roomID, "error", err.Error())
		}
		m.publish(ctx, sess.roomID, models.CodeUpdateMessage{
			Type:   "code_update",
			Code:   msg.Code,
			UserID: sess.userID,
		})

	case "cursor_move":
		cur := models.CursorPosition{Line: msg.Line, Column: msg.Column, Color: sess.color}
		if cur.Line < 1 {
			cur.Line = 1
		}
		if cur.Column < 0 {
			cur.Column = 0
		}
		if err := m.store.SetCursor(ctx, sess.roomID, sess.userID, cur); err != nil {
			return err
		}
		m.publish(ctx, sess.roomID, models.CursorMoveMessage{
			Type:   "cursor_move",
			UserID: sess.userID,
			Line:   cur.Line,
			Column: cur.Column,
			Color:  cur.Color,
		})

	default:
		m.log.Warn("dropping message with unknown type",
			"room", sess.roomID, "user", sess.userID, "type", msg.Type)
	}
	return nil
}

// Close performs the Active -> Closed transition. Calling it twice is a
// no-op: presence is removed once and user_left is published once.
func (m *Manager) Close(sess *Session) {
	sess.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		m.detach(sess.roomID, sess.client)

		if err := m.store.RemoveUser(ctx, sess.roomID, sess.userID); err != nil {
			m.log.Error("presence cleanup failed",
				"room", sess.roomID, "user", sess.userID, "error", err.Error())
		}
		if err := m.store.RemoveCursor(ctx, sess.roomID, sess.userID); err != nil {
			m.log.Error("cursor cleanup failed",
				"room", sess.roomID, "user", sess.userID, "error", err.Error())
		}

		m.publish(ctx, sess.roomID, models.UserLeftMessage{
			Type:   "user_left",
			UserID: sess.userID,
		})

		m.log.Info("user disconnected",
			"instance", m.instanceID, "room", sess.roomID, "user", sess.userID)
	})
}

// attach registers the socket locally and, for the first local socket of
// a room, opens the room's single per-instance fan-out subscription.
func (m *Manager) attach(ctx context.Context, roomID string, c *Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	first := m.registry.Add(roomID, c)
	if !first {
		return nil
	}
	sub, err := m.bus.Subscribe(ctx, roomID)
	if err != nil {
		m.registry.Remove(roomID, c)
		return err
	}
	m.subs[roomID] = sub
	go m.consume(roomID, sub)
	return nil
}

// detach deregisters the socket and closes the room subscription once no
// local sockets remain.
func (m *Manager) detach(roomID string, c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if remaining := m.registry.Remove(roomID, c); remaining > 0 {
		return
	}
	if sub, ok := m.subs[roomID]; ok {
		delete(m.subs, roomID)
		if err := sub.Close(); err != nil {
			m.log.Warn("fanout unsubscribe failed", "room", roomID, "error", err.Error())
		}
	}
}

func (m *Manager) consume(roomID string, sub fanout.Stream) {
	for evt := range sub.Events() {
		m.deliver(roomID, evt)
	}
}

// deliver fans one replicated event out to this instance's sockets. A
// joiner already holds full state from init, so its own user_joined echo
// is skipped; everything else goes to every socket, including a sender's
// own code_update (echo suppression is a client concern).
func (m *Manager) deliver(roomID string, evt fanout.Event) {
	for _, c := range m.registry.Clients(roomID) {
		if evt.Type == "user_joined" && c.UserID == evt.UserID {
			continue
		}
		c.Send(evt.Payload)
	}
}

// publish is best-effort: a lost event is recovered by the next init,
// so failures are logged and the session carries on.
func (m *Manager) publish(ctx context.Context, roomID string, msg interface{}) {
	if err := m.bus.Publish(ctx, roomID, msg); err != nil {
		m.log.Error("fanout publish failed", "room", roomID, "error", err.Error())
	}
}
