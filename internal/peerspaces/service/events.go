package service

import "carelink/pkg/model"

// Outbound event names.
const (
	EventUserJoined      = "user-joined"
	EventLoadMessages    = "load-messages"
	EventNewMessage      = "new-message"
	EventUserLeft        = "user-left"
	EventUserTyping      = "user-typing"
	EventReactionAdded   = "reaction-added"
	EventFavoriteUpdated = "favorite-updated"
	EventHistoryLoaded   = "history-loaded"
	EventError           = "error"
)

// Emitter delivers an event to one connection. Implementations must not
// block; a connection that cannot keep up is dropped.
type Emitter interface {
	Emit(connID, event string, data any)
}

// Client identifies the connection an event came from. UserID is the
// authenticated principal, empty for anonymous connections.
type Client struct {
	ConnID string
	UserID string
}

type MessageBatch struct {
	RoomID        string           `json:"roomId"`
	Messages      []*model.Message `json:"messages"`
	IsRejoining   bool             `json:"isRejoining"`
	LastMessageID string           `json:"lastMessageId,omitempty"`
	// Truncated reports that older unseen messages were dropped by the catch-up cap.
	Truncated bool `json:"truncated"`
}

type PresenceUpdate struct {
	RoomID      string `json:"roomId"`
	Pseudonym   string `json:"pseudonym"`
	ActiveCount int    `json:"activeCount"`
}

type TypingUpdate struct {
	RoomID    string `json:"roomId"`
	Pseudonym string `json:"pseudonym"`
	IsTyping  bool   `json:"isTyping"`
}

type ReactionUpdate struct {
	RoomID    string           `json:"roomId"`
	MessageID string           `json:"messageId"`
	Reactions map[string]int64 `json:"reactions"`
}

type FavoriteUpdate struct {
	RoomID     string `json:"roomId"`
	IsFavorite bool   `json:"isFavorite"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}
