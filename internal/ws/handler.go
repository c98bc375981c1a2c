package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	defaultKeepaliveInterval = 30 * time.Second
	maxMessageSize           = 4 << 10

	// The read deadline is extended on every pong and every inbound frame;
	// two missed keepalive intervals mean the peer is gone.
	readWaitMultiplier = 2
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler owns the connection lifecycle: upgrade, the per-connection read
// loop (messages for one connection are handled strictly in arrival order),
// the keepalive supervisor and final teardown.
type Handler struct {
	hub           *Hub
	authenticator *Authenticator
	logger        *slog.Logger
	keepalive     time.Duration
	writeTimeout  time.Duration
}

func NewHandler(hub *Hub, authenticator *Authenticator, logger *slog.Logger, keepalive, writeTimeout time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if keepalive <= 0 {
		keepalive = defaultKeepaliveInterval
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Handler{
		hub:           hub,
		authenticator: authenticator,
		logger:        logger,
		keepalive:     keepalive,
		writeTimeout:  writeTimeout,
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := NewClient(conn)
	h.hub.Register(client)
	h.logger.Info("connection opened", "conn", client.ID())

	go h.keepaliveLoop(client)
	h.readLoop(c.Request.Context(), client, conn)
}

func (h *Handler) readLoop(ctx context.Context, client *Client, conn *websocket.Conn) {
	defer func() {
		h.hub.Remove(client)
		h.logger.Info("connection closed", "conn", client.ID())
	}()

	readWait := readWaitMultiplier * h.keepalive
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))

		// Transport-level frames are the keepalive's business, not the
		// router's.
		if messageType != websocket.TextMessage {
			continue
		}

		if fatal := h.route(ctx, client, raw); fatal {
			return
		}
	}
}

// route dispatches one inbound control message. The returned flag is true
// when the connection must not process further messages (fatal handshake
// failure or a dead transport).
func (h *Handler) route(ctx context.Context, client *Client, raw []byte) bool {
	msg, perr := parseControlMessage(raw)
	if perr != nil {
		return !h.reply(client, errorPayload(perr.Error()))
	}

	switch msg.Action {
	case actionAuthenticate:
		return h.handleAuthenticate(ctx, client, msg.Token)

	case actionSubscribeCity:
		h.hub.Subscribe(client, CityTopic(msg.CityID))
		return !h.reply(client, statusPayload(fmt.Sprintf("subscribed to city %d", msg.CityID)))

	case actionSubscribeAll:
		h.hub.Subscribe(client, TopicAll)
		return !h.reply(client, statusPayload("subscribed to all cities"))

	case actionUnsubscribe:
		h.hub.Unsubscribe(client)
		return !h.reply(client, statusPayload("unsubscribed"))

	case actionPing:
		return !h.reply(client, pongPayload())

	case actionGetCurrentLocations:
		// Location pushes are driven by the poller on its own schedule; this
		// only acknowledges the request.
		return !h.reply(client, statusPayload("locations are pushed periodically"))
	}
	return false
}

func (h *Handler) handleAuthenticate(ctx context.Context, client *Client, token string) bool {
	tenantID, err := h.authenticator.Authenticate(ctx, client, token)
	if err == nil {
		h.logger.Info("connection authenticated", "conn", client.ID(), "tenant", tenantID)
		return !h.reply(client, authenticatedPayload(tenantID))
	}

	// Rebinding an already-bound connection is rejected but not fatal: the
	// first binding stands and the connection stays open.
	if errors.Is(err, ErrAlreadyAuthenticated) {
		return !h.reply(client, errorPayload(ErrAlreadyAuthenticated.Error()))
	}

	h.logger.Warn("authentication failed", "conn", client.ID(), "err", err)
	_ = h.reply(client, errorPayload(err.Error()))
	h.closeNotAcceptable(client, err.Error())
	return true
}

// reply sends one envelope to the client; a failed send evicts the connection
// exactly like a failed broadcast delivery. Reports whether the connection is
// still usable.
func (h *Handler) reply(client *Client, payload []byte) bool {
	if err := client.send(payload, h.writeTimeout); err != nil {
		h.logger.Warn("reply send failed, evicting connection", "conn", client.ID(), "err", err)
		h.hub.Remove(client)
		return false
	}
	return true
}

func (h *Handler) closeNotAcceptable(client *Client, reason string) {
	deadline := time.Now().Add(h.writeTimeout)
	_ = client.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseUnsupportedData, reason), deadline)
	h.hub.Remove(client)
}

// keepaliveLoop probes the transport every keepalive interval while the
// connection is open. A probe failure is handled exactly like any other send
// failure. Transport close/error callbacks take precedence when they fire
// first; the done channel stops the loop.
func (h *Handler) keepaliveLoop(client *Client) {
	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-client.done:
			return
		case <-ticker.C:
			if err := client.ping(h.writeTimeout); err != nil {
				h.logger.Debug("keepalive probe failed", "conn", client.ID(), "err", err)
				h.hub.Remove(client)
				return
			}
		}
	}
}
