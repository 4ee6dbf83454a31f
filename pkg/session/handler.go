// Package session runs the per-connection protocol state machine:
// handshake authentication, message decoding and validation, registry
// mutation, persistence of shape updates and fan-out through the relay.
package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"drawsync/pkg/auth"
	"drawsync/pkg/logger"
	"drawsync/pkg/metrics"
	"drawsync/pkg/models"
	"drawsync/pkg/registry"
	"drawsync/pkg/relay"
	"drawsync/pkg/store"
)

// RecordStore is the slice of the record store the relay path needs: only
// shape updates persist through the socket. Creation and deletion are
// persisted out-of-band by the originating client over REST before the
// corresponding wire message is sent.
type RecordStore interface {
	UpdateShape(id int64, payload []byte) error
}

// Options tune the per-connection transport behavior. Zero values fall
// back to the defaults below.
type Options struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	SendBuffer       int
	MaxMessageSize   int64
	RateRPS          float64
	RateBurst        int
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = 10 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 10 * time.Second
	}
	if out.SendBuffer <= 0 {
		out.SendBuffer = 32
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = 64 << 10
	}
	return out
}

// Handler upgrades HTTP requests to WebSocket sessions and runs each
// session until the transport closes.
type Handler struct {
	reg      *registry.Registry
	relay    *relay.Relay
	records  RecordStore
	verifier auth.Verifier
	opts     Options
	limiters *limiterPool
	upgrader websocket.Upgrader
}

func NewHandler(reg *registry.Registry, rl *relay.Relay, records RecordStore, verifier auth.Verifier, opts Options) *Handler {
	o := opts.withDefaults()
	return &Handler{
		reg:      reg,
		relay:    rl,
		records:  records,
		verifier: verifier,
		opts:     o,
		limiters: newLimiterPool(o.RateRPS, o.RateBurst),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: o.HandshakeTimeout,
			// Browser clients connect cross-origin from the web app.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP authenticates the handshake token, upgrades the transport and
// runs the session. An invalid token closes the transport before any
// message is processed and never creates a registry entry.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	identity, err := h.verifier.Verify(token)
	if err != nil {
		logger.Warn("ws_auth_failed", "remote", r.RemoteAddr)
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
		return
	}
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws_upgrade_failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := newConn(uuid.NewString(), identity, ws, h.opts.SendBuffer, h.opts.WriteTimeout)
	h.reg.Register(identity, c)
	metrics.ConnectionsTotal.Inc()
	metrics.ActiveConnections.Inc()
	logger.Info("ws_connected", "conn", c.id, "identity", identity)

	go c.writePump()
	h.readLoop(c)

	// Unregister synchronously with transport close so the relay never
	// snapshots a dead channel.
	c.close()
	h.reg.Unregister(c)
	if !h.reg.HasIdentity(identity) {
		h.limiters.remove(identity)
	}
	metrics.ActiveConnections.Dec()
	logger.Info("ws_disconnected", "conn", c.id, "identity", identity)
}

func (h *Handler) readLoop(c *Conn) {
	c.ws.SetReadLimit(h.opts.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws_read_error", "conn", c.id, "error", err)
			}
			return
		}
		h.dispatch(c, data)
	}
}

// dispatch handles one inbound message. Malformed or over-limit messages
// are dropped without touching the connection or the registry.
func (h *Handler) dispatch(c *Conn, data []byte) {
	env, err := models.DecodeEnvelope(data)
	if err != nil {
		logger.Warn("malformed_message", "conn", c.id, "error", err)
		metrics.MalformedTotal.Inc()
		return
	}
	if !h.limiters.Allow(c.identity) {
		logger.Warn("message_rate_limited", "conn", c.id, "identity", c.identity)
		metrics.RateLimitedTotal.Inc()
		return
	}
	metrics.MessagesTotal.WithLabelValues(env.Type).Inc()

	switch env.Type {
	case models.TypeRoomJoin:
		h.reg.JoinRoom(c, env.RoomID)
		logger.Info("room_joined", "conn", c.id, "room", env.RoomID)

	case models.TypeLeaveRoom:
		h.reg.LeaveRoom(c, env.RoomID)
		logger.Info("room_left", "conn", c.id, "room", env.RoomID)

	case models.TypeChat:
		// Creation payloads are relayed verbatim; the originating client
		// persisted the shape over REST before sending. Losing that race
		// is harmless: creates are idempotent appends.
		h.broadcast(c, env.RoomID, models.Envelope{
			Type:    models.TypeChat,
			RoomID:  env.RoomID,
			Message: env.Message,
		})

	case models.TypeUpdateShape:
		// Updates overwrite existing state: never announce a value that
		// failed to persist, or copies diverge.
		if err := h.records.UpdateShape(env.ShapeID, env.ShapeData); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				logger.Debug("update_unknown_shape", "conn", c.id, "shape", env.ShapeID)
				return
			}
			logger.Error("shape_persist_failed", "conn", c.id, "shape", env.ShapeID, "error", err)
			metrics.PersistFailures.Inc()
			return
		}
		h.broadcast(c, env.RoomID, models.Envelope{
			Type:    models.TypeUpdatedShape,
			RoomID:  env.RoomID,
			ShapeID: env.ShapeID,
			Shape:   env.ShapeData,
		})

	case models.TypeDeleteShape:
		h.broadcast(c, env.RoomID, models.Envelope{
			Type:    models.TypeDeleteShape,
			RoomID:  env.RoomID,
			ShapeID: env.ShapeID,
		})

	default:
		// Server-emitted types arriving inbound are out of protocol.
		logger.Warn("unexpected_message_type", "conn", c.id, "type", env.Type)
		metrics.MalformedTotal.Inc()
	}
}

func (h *Handler) broadcast(c *Conn, roomID string, env models.Envelope) {
	msg, err := env.Encode()
	if err != nil {
		logger.Error("broadcast_encode_failed", "room", roomID, "error", err)
		return
	}
	h.relay.Broadcast(roomID, msg, c)
}
