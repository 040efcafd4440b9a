package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"carelink/internal/peerspaces/service"
	"carelink/pkg/auth"
	"carelink/pkg/config"
	apperrors "carelink/pkg/errors"
	httputil "carelink/pkg/http"
	"carelink/pkg/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Inbound event names.
const (
	EventJoinRoom       = "join-room"
	EventSendMessage    = "send-message"
	EventLeaveRoom      = "leave-room"
	EventTyping         = "typing"
	EventAddReaction    = "add-reaction"
	EventMarkAsRead     = "mark-as-read"
	EventToggleFavorite = "toggle-favorite"
	EventGetHistory     = "get-history"
)

type roomPayload struct {
	RoomID    string `json:"roomId"`
	Pseudonym string `json:"pseudonym"`
}

type messagePayload struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type typingPayload struct {
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

type reactionPayload struct {
	MessageID    string `json:"messageId"`
	ReactionType string `json:"reactionType"`
}

type favoritePayload struct {
	RoomID     string `json:"roomId"`
	Pseudonym  string `json:"pseudonym"`
	IsFavorite bool   `json:"isFavorite"`
}

// SocketHandler upgrades /ws requests and pumps events between the
// connection and the chat service.
type SocketHandler struct {
	hub      *Hub
	chat     service.ChatService
	verifier auth.Verifier
	upgrader websocket.Upgrader
	cfg      *config.Config
}

func NewSocketHandler(hub *Hub, chat service.ChatService, verifier auth.Verifier, cfg *config.Config) *SocketHandler {
	h := &SocketHandler{
		hub:      hub,
		chat:     chat,
		verifier: verifier,
		cfg:      cfg,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, err := h.authenticate(r)
	if err != nil {
		h.cfg.Log.Warn("Rejected socket connection", "remote_addr", r.RemoteAddr, "error", err)
		if err := httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token")); err != nil {
			h.cfg.Log.Error("failed to write error response", "handler", "Socket", "error", err)
		}
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.cfg.Log.Warn("Socket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	c := newConnection(uuid.NewString(), principal.ID, h.cfg.SocketSendBuffer)
	h.hub.register(c)
	h.cfg.Log.Info("Socket connected", "conn_id", c.id, "authenticated", c.userID != "")

	go h.writePump(ws, c)
	h.readPump(context.WithoutCancel(r.Context()), ws, c)
}

// authenticate accepts anonymous connections. A token that is present must be
// valid.
func (h *SocketHandler) authenticate(r *http.Request) (auth.Principal, error) {
	token := auth.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" || h.verifier == nil {
		return auth.Principal{}, nil
	}
	return h.verifier.Verify(r.Context(), token)
}

func (h *SocketHandler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.SocketAllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(h.cfg.SocketAllowedOrigins, origin)
}

func (h *SocketHandler) readPump(ctx context.Context, ws *websocket.Conn, c *connection) {
	defer func() {
		h.hub.unregister(c)

		disconnectCtx, cancel := context.WithTimeout(ctx, h.cfg.SocketEventTimeout)
		h.chat.Disconnect(disconnectCtx, c.id)
		cancel()

		ws.Close()
		h.cfg.Log.Info("Socket disconnected", "conn_id", c.id)
	}()

	ws.SetReadLimit(int64(h.cfg.SocketMaxMessageSize))
	_ = ws.SetReadDeadline(time.Now().Add(h.cfg.SocketPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.cfg.SocketPongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(h.cfg.SocketEventRate), h.cfg.SocketEventBurst)
	client := service.Client{ConnID: c.id, UserID: c.userID}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.cfg.Log.Warn("Socket read failed", "conn_id", c.id, "error", err)
			}
			return
		}

		var in envelope
		if err := json.Unmarshal(data, &in); err != nil || in.Event == "" {
			h.reject(c.id, "invalid", apperrors.InvalidInput("Malformed event frame"))
			continue
		}

		if !limiter.Allow() {
			h.reject(c.id, in.Event, apperrors.RateLimited("Too many events, slow down"))
			continue
		}

		eventCtx, cancel := context.WithTimeout(ctx, h.cfg.SocketEventTimeout)
		err = h.dispatch(eventCtx, client, in)
		cancel()

		if err != nil {
			h.reject(c.id, in.Event, err)
			continue
		}
		metrics.SocketEvents.WithLabelValues(in.Event, "ok").Inc()
	}
}

func (h *SocketHandler) writePump(ws *websocket.Conn, c *connection) {
	ticker := time.NewTicker(h.cfg.SocketPongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = ws.SetWriteDeadline(time.Now().Add(h.cfg.SocketWriteTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.cfg.Log.Warn("Socket write failed", "conn_id", c.id, "error", err)
				c.close()
				return
			}

		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(h.cfg.SocketWriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}

		case <-c.done:
			_ = ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(h.cfg.SocketWriteTimeout),
			)
			return
		}
	}
}

func (h *SocketHandler) dispatch(ctx context.Context, client service.Client, in envelope) error {
	switch in.Event {
	case EventJoinRoom:
		var p roomPayload
		if err := decode(in.Data, &p); err != nil {
			return err
		}
		return h.chat.Join(ctx, client, p.RoomID, p.Pseudonym)

	case EventSendMessage:
		var p messagePayload
		if err := decode(in.Data, &p); err != nil {
			return err
		}
		_, err := h.chat.PostMessage(ctx, client, p.RoomID, p.Text)
		return err

	case EventLeaveRoom:
		var p roomPayload
		if err := decode(in.Data, &p); err != nil {
			return err
		}
		return h.chat.Leave(ctx, client, p.RoomID)

	case EventTyping:
		var p typingPayload
		if err := decode(in.Data, &p); err != nil {
			return err
		}
		return h.chat.Typing(ctx, client, p.RoomID, p.IsTyping)

	case EventAddReaction:
		var p reactionPayload
		if err := decode(in.Data, &p); err != nil {
			return err
		}
		_, err := h.chat.AddReaction(ctx, client, p.MessageID, p.ReactionType)
		return err

	case EventMarkAsRead:
		var p roomPayload
		if err := decode(in.Data, &p); err != nil {
			return err
		}
		return h.chat.MarkRead(ctx, client, p.RoomID, p.Pseudonym)

	case EventToggleFavorite:
		var p favoritePayload
		if err := decode(in.Data, &p); err != nil {
			return err
		}
		_, err := h.chat.ToggleFavorite(ctx, client, p.RoomID, p.Pseudonym, p.IsFavorite)
		return err

	case EventGetHistory:
		var p roomPayload
		if err := decode(in.Data, &p); err != nil {
			return err
		}
		_, err := h.chat.GetHistory(ctx, client, p.Pseudonym)
		return err

	default:
		return apperrors.InvalidInput("Unknown event: " + in.Event)
	}
}

// reject sends the failure to the origin only.
func (h *SocketHandler) reject(connID, event string, err error) {
	if !apperrors.IsAppError(err) && errors.Is(err, context.DeadlineExceeded) {
		err = apperrors.Timeout("Event timed out")
	}
	appErr := apperrors.AsAppError(err)

	outcome := "error"
	if appErr.HTTPStatus < http.StatusInternalServerError {
		outcome = "rejected"
	}
	metrics.SocketEvents.WithLabelValues(event, outcome).Inc()
	if outcome == "error" {
		h.cfg.Log.Error("Socket event failed", "conn_id", connID, "event", event, "error", err)
	}

	message := appErr.Message
	if appErr.Code == apperrors.CodeInternal {
		message = "Internal server error"
	}
	h.hub.Emit(connID, service.EventError, service.ErrorPayload{
		Message: message,
		Code:    appErr.Code,
	})
}

func decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return apperrors.InvalidInput("Event data is required")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return apperrors.InvalidInput("Malformed event data")
	}
	return nil
}
