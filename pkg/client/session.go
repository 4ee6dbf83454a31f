package client

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"drawsync/pkg/logger"
	"drawsync/pkg/models"
)

// Handler observes inbound wire messages. Handlers run sequentially on the
// session's single dispatch goroutine.
type Handler func(env models.Envelope)

// Session is one authenticated socket connection to the relay. Multiple
// sessions may coexist in a process; nothing here is global.
type Session struct {
	ws *websocket.Conn

	mu       sync.Mutex
	handlers map[int]Handler
	nextID   int
	closed   bool
}

// Dial connects to the relay at rawURL (ws:// or wss://), attaching the
// bearer token as the handshake query parameter. The returned session is
// already reading; register handlers before joining a room to avoid
// missing early events.
func Dial(ctx context.Context, rawURL, token string) (*Session, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	s := &Session{ws: ws, handlers: make(map[int]Handler)}
	go s.readLoop()
	return s, nil
}

// AddHandler registers a message observer and returns a token for removal.
func (s *Session) AddHandler(h Handler) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.handlers[s.nextID] = h
	return s.nextID
}

// RemoveHandler unregisters a previously added observer.
func (s *Session) RemoveHandler(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, id)
}

func (s *Session) readLoop() {
	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			logger.Debug("session_read_closed", "error", err)
			return
		}
		env, err := models.DecodeEnvelope(data)
		if err != nil {
			// One bad message never takes the session down.
			logger.Warn("session_bad_message", "error", err)
			continue
		}
		s.mu.Lock()
		hs := make([]Handler, 0, len(s.handlers))
		for _, h := range s.handlers {
			hs = append(hs, h)
		}
		s.mu.Unlock()
		for _, h := range hs {
			h(env)
		}
	}
}

// Send encodes and writes one envelope. Writes are serialized by the
// session lock; gorilla allows only one concurrent writer.
func (s *Session) Send(env models.Envelope) error {
	msg, err := env.Encode()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return websocket.ErrCloseSent
	}
	return s.ws.WriteMessage(websocket.TextMessage, msg)
}

// JoinRoom subscribes this session to a room's broadcasts.
func (s *Session) JoinRoom(roomID string) error {
	return s.Send(models.Envelope{Type: models.TypeRoomJoin, RoomID: roomID})
}

// LeaveRoom unsubscribes from a room.
func (s *Session) LeaveRoom(roomID string) error {
	return s.Send(models.Envelope{Type: models.TypeLeaveRoom, RoomID: roomID})
}

// AnnounceShape broadcasts a newly created shape to the room. The shape
// must already be persisted; it travels JSON-encoded in the message field.
func (s *Session) AnnounceShape(roomID string, sh models.Shape) error {
	b, err := json.Marshal(sh)
	if err != nil {
		return err
	}
	return s.Send(models.Envelope{
		Type:    models.TypeChat,
		RoomID:  roomID,
		Message: string(b),
	})
}

// SendUpdate persists and broadcasts new field values for a shape.
func (s *Session) SendUpdate(roomID string, id int64, sh models.Shape) error {
	sh.ID = 0
	b, err := json.Marshal(sh)
	if err != nil {
		return err
	}
	return s.Send(models.Envelope{
		Type:      models.TypeUpdateShape,
		RoomID:    roomID,
		ShapeID:   id,
		ShapeData: b,
	})
}

// SendDelete announces a shape deletion to the room. The record itself is
// deleted over REST by the originating client.
func (s *Session) SendDelete(roomID string, id int64) error {
	return s.Send(models.Envelope{
		Type:    models.TypeDeleteShape,
		RoomID:  roomID,
		ShapeID: id,
	})
}

// Close shuts the transport down. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	_ = s.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.ws.Close()
}
