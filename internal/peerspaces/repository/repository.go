package repository

import (
	"context"
	"time"

	"carelink/pkg/model"
)

const (
	RoomsCollection    = "Rooms"
	MessagesCollection = "Messages"
	VisitsCollection   = "RoomHistories"
	SessionsCollection = "UserSessions"
)

type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	FindByID(ctx context.Context, id string) (*model.Room, error)
	FindActive(ctx context.Context) ([]*model.Room, error)
	AddMember(ctx context.Context, roomID, userID string) error
}

// MessageRepository lists messages in (createdAt, id) order, oldest first.
// Soft-deleted messages are never returned by listings.
type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	FindByID(ctx context.Context, id string) (*model.Message, error)
	Latest(ctx context.Context, roomID string) (*model.Message, error)
	// Recent returns the newest limit messages.
	Recent(ctx context.Context, roomID string, limit int) ([]*model.Message, error)
	// Since returns messages created at or after from, keeping the newest
	// limit when there are more.
	Since(ctx context.Context, roomID string, from time.Time, limit int) ([]*model.Message, error)
	IncrementReaction(ctx context.Context, id, kind string) (*model.Message, error)
}

type VisitRepository interface {
	Find(ctx context.Context, pseudonym, roomID string) (*model.Visit, error)
	// Enter records a join: unread resets and lastVisited moves to at.
	Enter(ctx context.Context, pseudonym, roomID, userID string, at time.Time) error
	// Stamp moves the read position. An empty lastMessageID keeps the old one.
	Stamp(ctx context.Context, pseudonym, roomID, lastMessageID string, at time.Time) error
	// IncrementUnread bumps every visit in the room except the sender's.
	IncrementUnread(ctx context.Context, roomID, exceptPseudonym string) (int64, error)
	MarkRead(ctx context.Context, pseudonym, roomID string, at time.Time) error
	SetFavorite(ctx context.Context, pseudonym, roomID string, favorite bool) (*model.Visit, error)
	History(ctx context.Context, pseudonym string, limit int) ([]*model.Visit, error)
	Delete(ctx context.Context, pseudonym, roomID string) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	Exists(ctx context.Context, pseudonym string) (bool, error)
	Touch(ctx context.Context, pseudonym string, at time.Time) error
}
