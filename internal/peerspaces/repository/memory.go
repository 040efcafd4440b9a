package repository

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	peerserrors "carelink/internal/peerspaces/errors"
	"carelink/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryRoomRepository struct {
	mu    sync.RWMutex
	rooms map[string]*model.Room
}

func NewMemoryRoomRepository() RoomRepository {
	return &memoryRoomRepository{rooms: make(map[string]*model.Room)}
}

func (r *memoryRoomRepository) Create(ctx context.Context, room *model.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room.ID = primitive.NewObjectID().Hex()
	room.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if room.Members == nil {
		room.Members = []string{}
	}
	r.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (r *memoryRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, peerserrors.ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, peerserrors.ErrRoomNotFound
	}
	return cloneRoom(room), nil
}

func (r *memoryRoomRepository) FindActive(ctx context.Context) ([]*model.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := []*model.Room{}
	for _, room := range r.rooms {
		if room.IsActive {
			rooms = append(rooms, cloneRoom(room))
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Name != rooms[j].Name {
			return rooms[i].Name < rooms[j].Name
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms, nil
}

func (r *memoryRoomRepository) AddMember(ctx context.Context, roomID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !primitive.IsValidObjectID(roomID) {
		return peerserrors.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return peerserrors.ErrRoomNotFound
	}
	if !slices.Contains(room.Members, userID) {
		room.Members = append(room.Members, userID)
	}
	return nil
}

func cloneRoom(room *model.Room) *model.Room {
	c := *room
	c.Members = slices.Clone(room.Members)
	return &c
}

// memoryMessageRepository keeps each room's messages in append order, which
// is also (createdAt, id) order.
type memoryMessageRepository struct {
	mu     sync.RWMutex
	byID   map[string]*model.Message
	byRoom map[string][]*model.Message
}

func NewMemoryMessageRepository() MessageRepository {
	return &memoryMessageRepository{
		byID:   make(map[string]*model.Message),
		byRoom: make(map[string][]*model.Message),
	}
}

func (r *memoryMessageRepository) Create(ctx context.Context, message *model.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	message.ID = primitive.NewObjectID().Hex()
	message.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if history := r.byRoom[message.RoomID]; len(history) > 0 {
		if last := history[len(history)-1].CreatedAt; message.CreatedAt.Before(last) {
			message.CreatedAt = last
		}
	}
	if message.Reactions == nil {
		message.Reactions = model.NewReactions()
	}

	stored := cloneMessage(message)
	r.byID[stored.ID] = stored
	r.byRoom[stored.RoomID] = append(r.byRoom[stored.RoomID], stored)
	return nil
}

func (r *memoryMessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, peerserrors.ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	message, ok := r.byID[id]
	if !ok {
		return nil, peerserrors.ErrMessageNotFound
	}
	return cloneMessage(message), nil
}

func (r *memoryMessageRepository) Latest(ctx context.Context, roomID string) (*model.Message, error) {
	messages, err := r.Recent(ctx, roomID, 1)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, peerserrors.ErrMessageNotFound
	}
	return messages[0], nil
}

func (r *memoryMessageRepository) Recent(ctx context.Context, roomID string, limit int) ([]*model.Message, error) {
	return r.newest(ctx, roomID, time.Time{}, limit)
}

func (r *memoryMessageRepository) Since(ctx context.Context, roomID string, from time.Time, limit int) ([]*model.Message, error) {
	return r.newest(ctx, roomID, from, limit)
}

func (r *memoryMessageRepository) IncrementReaction(ctx context.Context, id, kind string) (*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !primitive.IsValidObjectID(id) {
		return nil, peerserrors.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	message, ok := r.byID[id]
	if !ok || message.IsDeleted {
		return nil, peerserrors.ErrMessageNotFound
	}
	message.Reactions[kind]++
	return cloneMessage(message), nil
}

func (r *memoryMessageRepository) newest(ctx context.Context, roomID string, from time.Time, limit int) ([]*model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.byRoom[roomID]
	messages := []*model.Message{}
	for i := len(history) - 1; i >= 0 && len(messages) < limit; i-- {
		m := history[i]
		if m.CreatedAt.Before(from) {
			break
		}
		if !m.IsDeleted {
			messages = append(messages, cloneMessage(m))
		}
	}
	slices.Reverse(messages)
	return messages, nil
}

func cloneMessage(message *model.Message) *model.Message {
	c := *message
	c.Reactions = maps.Clone(message.Reactions)
	return &c
}

type memoryVisitRepository struct {
	mu     sync.RWMutex
	visits map[visitID]*model.Visit
}

type visitID struct {
	pseudonym string
	roomID    string
}

func NewMemoryVisitRepository() VisitRepository {
	return &memoryVisitRepository{visits: make(map[visitID]*model.Visit)}
}

func (r *memoryVisitRepository) Find(ctx context.Context, pseudonym, roomID string) (*model.Visit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	visit, ok := r.visits[visitID{pseudonym, roomID}]
	if !ok {
		return nil, peerserrors.ErrVisitNotFound
	}
	c := *visit
	return &c, nil
}

func (r *memoryVisitRepository) Enter(ctx context.Context, pseudonym, roomID, userID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	visit := r.upsert(pseudonym, roomID)
	visit.LastVisited = at.UTC().Truncate(time.Millisecond)
	visit.UnreadCount = 0
	if userID != "" {
		visit.UserID = userID
	}
	return nil
}

func (r *memoryVisitRepository) Stamp(ctx context.Context, pseudonym, roomID, lastMessageID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	visit, ok := r.visits[visitID{pseudonym, roomID}]
	if !ok {
		return nil
	}
	visit.LastVisited = at.UTC().Truncate(time.Millisecond)
	if lastMessageID != "" {
		visit.LastMessageID = lastMessageID
	}
	return nil
}

func (r *memoryVisitRepository) IncrementUnread(ctx context.Context, roomID, exceptPseudonym string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var modified int64
	for id, visit := range r.visits {
		if id.roomID == roomID && id.pseudonym != exceptPseudonym {
			visit.UnreadCount++
			modified++
		}
	}
	return modified, nil
}

func (r *memoryVisitRepository) MarkRead(ctx context.Context, pseudonym, roomID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	visit, ok := r.visits[visitID{pseudonym, roomID}]
	if !ok {
		return nil
	}
	visit.UnreadCount = 0
	visit.LastVisited = at.UTC().Truncate(time.Millisecond)
	return nil
}

func (r *memoryVisitRepository) SetFavorite(ctx context.Context, pseudonym, roomID string, favorite bool) (*model.Visit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	visit := r.upsert(pseudonym, roomID)
	visit.IsFavorite = favorite
	c := *visit
	return &c, nil
}

func (r *memoryVisitRepository) History(ctx context.Context, pseudonym string, limit int) ([]*model.Visit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	visits := []*model.Visit{}
	for id, visit := range r.visits {
		if id.pseudonym == pseudonym {
			c := *visit
			visits = append(visits, &c)
		}
	}
	sort.Slice(visits, func(i, j int) bool {
		return visits[i].LastVisited.After(visits[j].LastVisited)
	})
	if len(visits) > limit {
		visits = visits[:limit]
	}
	return visits, nil
}

func (r *memoryVisitRepository) Delete(ctx context.Context, pseudonym, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := visitID{pseudonym, roomID}
	if _, ok := r.visits[id]; !ok {
		return peerserrors.ErrVisitNotFound
	}
	delete(r.visits, id)
	return nil
}

// upsert must be called with mu held.
func (r *memoryVisitRepository) upsert(pseudonym, roomID string) *model.Visit {
	id := visitID{pseudonym, roomID}
	visit, ok := r.visits[id]
	if !ok {
		visit = &model.Visit{
			Pseudonym:           pseudonym,
			RoomID:              roomID,
			LastVisited:         time.Now().UTC().Truncate(time.Millisecond),
			NotificationEnabled: true,
		}
		r.visits[id] = visit
	}
	return visit
}

type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{sessions: make(map[string]*model.Session)}
}

func (r *memorySessionRepository) Create(ctx context.Context, session *model.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.Pseudonym]; exists {
		return peerserrors.ErrPseudonymTaken
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	session.ID = primitive.NewObjectID().Hex()
	session.CreatedAt = now
	session.LastActive = now

	c := *session
	r.sessions[session.Pseudonym] = &c
	return nil
}

func (r *memorySessionRepository) Exists(ctx context.Context, pseudonym string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[pseudonym]
	return ok, nil
}

func (r *memorySessionRepository) Touch(ctx context.Context, pseudonym string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[pseudonym]; ok {
		session.LastActive = at.UTC().Truncate(time.Millisecond)
	}
	return nil
}
