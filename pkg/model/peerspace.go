package model

import "time"

const (
	ReactionHeart = "heart"
	ReactionHug   = "hug"
	ReactionWave  = "wave"
	ReactionStar  = "star"
)

var ReactionKinds = []string{ReactionHeart, ReactionHug, ReactionWave, ReactionStar}

// NewReactions returns a counter map with every kind at zero.
func NewReactions() map[string]int64 {
	reactions := make(map[string]int64, len(ReactionKinds))
	for _, kind := range ReactionKinds {
		reactions[kind] = 0
	}
	return reactions
}

// Room is a chat channel. Members is the durable set of linked identities;
// who is connected right now is tracked in memory only.
type Room struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Category    string    `json:"category,omitempty" bson:"category,omitempty"`
	Mood        string    `json:"mood,omitempty" bson:"mood,omitempty"`
	IsActive    bool      `json:"isActive" bson:"is_active"`
	Members     []string  `json:"-" bson:"members"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

type RoomSummary struct {
	Room
	MemberCount int `json:"memberCount"`
	ActiveCount int `json:"activeCount"`
}

// Message is immutable apart from its reaction counters, which only grow.
type Message struct {
	ID        string           `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID    string           `json:"roomId" bson:"room_id"`
	Pseudonym string           `json:"pseudonym" bson:"pseudonym"`
	UserID    string           `json:"userId,omitempty" bson:"user_id,omitempty"`
	Text      string           `json:"text" bson:"text"`
	Reactions map[string]int64 `json:"reactions" bson:"reactions"`
	IsEdited  bool             `json:"isEdited" bson:"is_edited"`
	IsDeleted bool             `json:"isDeleted" bson:"is_deleted"`
	CreatedAt time.Time        `json:"createdAt" bson:"created_at"`
}

// Visit is the read position and unread count of one pseudonym in one room.
type Visit struct {
	Pseudonym           string    `json:"pseudonym" bson:"pseudonym"`
	RoomID              string    `json:"roomId" bson:"room_id"`
	UserID              string    `json:"userId,omitempty" bson:"user_id,omitempty"`
	LastVisited         time.Time `json:"lastVisited" bson:"last_visited"`
	LastMessageID       string    `json:"lastMessageId,omitempty" bson:"last_message_id,omitempty"`
	UnreadCount         int64     `json:"unreadCount" bson:"unread_count"`
	IsFavorite          bool      `json:"isFavorite" bson:"is_favorite"`
	NotificationEnabled bool      `json:"notificationEnabled" bson:"notification_enabled"`
}

// Session registers a pseudonym. Pseudonyms are unique.
type Session struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	Pseudonym  string    `json:"pseudonym" bson:"pseudonym"`
	UserID     string    `json:"userId,omitempty" bson:"user_id,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
	LastActive time.Time `json:"lastActive" bson:"last_active"`
}

type SessionRequest struct {
	Pseudonym string `json:"pseudonym" validate:"required,pseudonym"`
}
