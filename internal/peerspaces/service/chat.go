package service

import (
	"context"
	"errors"
	"time"

	peerserrors "carelink/internal/peerspaces/errors"
	"carelink/internal/peerspaces/presence"
	"carelink/internal/peerspaces/repository"
	"carelink/internal/peerspaces/validator"
	"carelink/pkg/config"
	apperrors "carelink/pkg/errors"
	"carelink/pkg/metrics"
	"carelink/pkg/model"
	"carelink/pkg/sanitizer"
	"carelink/pkg/validation"
)

type ChatService interface {
	Join(ctx context.Context, client Client, roomID, pseudonym string) error
	Leave(ctx context.Context, client Client, roomID string) error
	Disconnect(ctx context.Context, connID string)
	PostMessage(ctx context.Context, client Client, roomID, text string) (*model.Message, error)
	Typing(ctx context.Context, client Client, roomID string, isTyping bool) error
	AddReaction(ctx context.Context, client Client, messageID, kind string) (*model.Message, error)
	MarkRead(ctx context.Context, client Client, roomID, pseudonym string) error
	ToggleFavorite(ctx context.Context, client Client, roomID, pseudonym string, favorite bool) (*model.Visit, error)
	GetHistory(ctx context.Context, client Client, pseudonym string) ([]*model.Visit, error)
	LoadMessages(ctx context.Context, roomID, pseudonym string) (*MessageBatch, error)
}

type chatService struct {
	rooms     repository.RoomRepository
	messages  repository.MessageRepository
	visits    repository.VisitRepository
	sessions  repository.SessionRepository
	tracker   *presence.Tracker
	locks     *presence.RoomLocks
	emitter   Emitter
	validator *validator.PeerSpaceValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewChatService(
	rooms repository.RoomRepository,
	messages repository.MessageRepository,
	visits repository.VisitRepository,
	sessions repository.SessionRepository,
	tracker *presence.Tracker,
	emitter Emitter,
	validator *validator.PeerSpaceValidator,
	cfg *config.Config,
) ChatService {
	return &chatService{
		rooms:     rooms,
		messages:  messages,
		visits:    visits,
		sessions:  sessions,
		tracker:   tracker,
		locks:     presence.NewRoomLocks(),
		emitter:   emitter,
		validator: validator,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Join makes the connection present in the room, resets the pseudonym's
// unread count and sends it the messages it missed.
func (s *chatService) Join(ctx context.Context, client Client, roomID, pseudonym string) error {
	pseudonym = sanitizer.NormalizePseudonym(pseudonym)
	if err := s.validateRoomAndPseudonym(roomID, pseudonym); err != nil {
		return err
	}

	unlock := s.locks.Lock(roomID)
	defer unlock()

	if _, err := s.activeRoom(ctx, roomID); err != nil {
		return err
	}

	if current, ok := s.tracker.Lookup(roomID, client.ConnID); ok && current.Pseudonym != pseudonym {
		return apperrors.InvalidState("Already in this room as " + current.Pseudonym)
	}

	previous, err := s.visits.Find(ctx, pseudonym, roomID)
	if err != nil {
		if !errors.Is(err, peerserrors.ErrVisitNotFound) {
			return s.dependency("Visit store", "find visit", err)
		}
		previous = nil
	}

	now := s.now()
	count, added := s.tracker.Join(roomID, presence.Participant{
		ConnectionID: client.ConnID,
		Pseudonym:    pseudonym,
		UserID:       client.UserID,
		JoinedAt:     now,
	})

	if err := s.visits.Enter(ctx, pseudonym, roomID, client.UserID, now); err != nil {
		if added {
			s.tracker.Leave(roomID, client.ConnID)
		}
		return s.dependency("Visit store", "enter room", err)
	}

	if client.UserID != "" {
		if err := s.rooms.AddMember(ctx, roomID, client.UserID); err != nil {
			s.cfg.Log.Warn("Failed to add room member", "room_id", roomID, "user_id", client.UserID, "error", err)
		}
	}
	if err := s.sessions.Touch(ctx, pseudonym, now); err != nil {
		s.cfg.Log.Warn("Failed to refresh session", "pseudonym", pseudonym, "error", err)
	}

	if added {
		s.broadcast(roomID, EventUserJoined, PresenceUpdate{RoomID: roomID, Pseudonym: pseudonym, ActiveCount: count}, "")
		s.cfg.Log.Info("Joined room", "room_id", roomID, "pseudonym", pseudonym, "conn_id", client.ConnID, "active", count)
	}

	batch, err := s.loadMessages(ctx, roomID, previous)
	if err != nil {
		return err
	}
	s.emitter.Emit(client.ConnID, EventLoadMessages, batch)
	return nil
}

func (s *chatService) Leave(ctx context.Context, client Client, roomID string) error {
	if err := s.validator.ValidateRoomID(roomID); err != nil {
		return validation.ToAppError(err)
	}

	unlock := s.locks.Lock(roomID)
	defer unlock()

	s.leave(ctx, roomID, client.ConnID)
	return nil
}

// Disconnect runs the leave path for every room the connection was in.
func (s *chatService) Disconnect(ctx context.Context, connID string) {
	for _, roomID := range s.tracker.RoomsOf(connID) {
		unlock := s.locks.Lock(roomID)
		s.leave(ctx, roomID, connID)
		unlock()
	}
}

// PostMessage persists the message before anyone sees it. Visit bookkeeping
// after the write is best effort and never retracts the message.
func (s *chatService) PostMessage(ctx context.Context, client Client, roomID, text string) (*model.Message, error) {
	if err := s.validator.ValidateRoomID(roomID); err != nil {
		return nil, validation.ToAppError(err)
	}
	text = sanitizer.SanitizeText(text)
	if err := s.validator.ValidateText(text); err != nil {
		return nil, validation.ToAppError(err)
	}

	unlock := s.locks.Lock(roomID)
	defer unlock()

	participant, ok := s.tracker.Lookup(roomID, client.ConnID)
	if !ok {
		return nil, apperrors.InvalidState("Join the room before sending messages")
	}
	if _, err := s.activeRoom(ctx, roomID); err != nil {
		return nil, err
	}

	message := &model.Message{
		RoomID:    roomID,
		Pseudonym: participant.Pseudonym,
		UserID:    client.UserID,
		Text:      text,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, s.dependency("Message store", "create message", err)
	}
	metrics.MessagesPosted.Inc()

	if err := s.visits.Stamp(ctx, participant.Pseudonym, roomID, message.ID, s.now()); err != nil {
		s.visitFailure("stamp_sender", roomID, participant.Pseudonym, err)
	}
	if _, err := s.visits.IncrementUnread(ctx, roomID, participant.Pseudonym); err != nil {
		s.visitFailure("increment_unread", roomID, participant.Pseudonym, err)
	}

	s.broadcast(roomID, EventNewMessage, message, "")
	return message, nil
}

func (s *chatService) Typing(_ context.Context, client Client, roomID string, isTyping bool) error {
	participant, ok := s.tracker.Lookup(roomID, client.ConnID)
	if !ok {
		return apperrors.InvalidState("Join the room before typing")
	}

	s.broadcast(roomID, EventUserTyping, TypingUpdate{
		RoomID:    roomID,
		Pseudonym: participant.Pseudonym,
		IsTyping:  isTyping,
	}, client.ConnID)
	return nil
}

func (s *chatService) AddReaction(ctx context.Context, _ Client, messageID, kind string) (*model.Message, error) {
	if err := s.validator.ValidateReaction(kind); err != nil {
		return nil, validation.ToAppError(err)
	}

	target, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, s.mapError("Message", messageID, err)
	}

	unlock := s.locks.Lock(target.RoomID)
	defer unlock()

	message, err := s.messages.IncrementReaction(ctx, messageID, kind)
	if err != nil {
		return nil, s.mapError("Message", messageID, err)
	}

	s.broadcast(message.RoomID, EventReactionAdded, ReactionUpdate{
		RoomID:    message.RoomID,
		MessageID: message.ID,
		Reactions: message.Reactions,
	}, "")
	return message, nil
}

// MarkRead clears the unread count. The read position is left alone.
func (s *chatService) MarkRead(ctx context.Context, _ Client, roomID, pseudonym string) error {
	pseudonym = sanitizer.NormalizePseudonym(pseudonym)
	if err := s.validateRoomAndPseudonym(roomID, pseudonym); err != nil {
		return err
	}

	unlock := s.locks.Lock(roomID)
	defer unlock()

	if err := s.visits.MarkRead(ctx, pseudonym, roomID, s.now()); err != nil {
		return s.dependency("Visit store", "mark read", err)
	}
	return nil
}

func (s *chatService) ToggleFavorite(ctx context.Context, client Client, roomID, pseudonym string, favorite bool) (*model.Visit, error) {
	pseudonym = sanitizer.NormalizePseudonym(pseudonym)
	if err := s.validateRoomAndPseudonym(roomID, pseudonym); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(roomID)
	defer unlock()

	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return nil, s.mapError("Room", roomID, err)
	}

	visit, err := s.visits.SetFavorite(ctx, pseudonym, roomID, favorite)
	if err != nil {
		return nil, s.dependency("Visit store", "set favorite", err)
	}

	s.emitter.Emit(client.ConnID, EventFavoriteUpdated, FavoriteUpdate{RoomID: roomID, IsFavorite: visit.IsFavorite})
	return visit, nil
}

func (s *chatService) GetHistory(ctx context.Context, client Client, pseudonym string) ([]*model.Visit, error) {
	pseudonym = sanitizer.NormalizePseudonym(pseudonym)
	if err := s.validator.ValidatePseudonym(pseudonym); err != nil {
		return nil, validation.ToAppError(err)
	}

	visits, err := s.visits.History(ctx, pseudonym, s.cfg.VisitHistoryLimit)
	if err != nil {
		return nil, s.dependency("Visit store", "load history", err)
	}

	s.emitter.Emit(client.ConnID, EventHistoryLoaded, visits)
	return visits, nil
}

// LoadMessages returns what the pseudonym should see on entering the room:
// everything since its last read position, or the recent tail.
func (s *chatService) LoadMessages(ctx context.Context, roomID, pseudonym string) (*MessageBatch, error) {
	pseudonym = sanitizer.NormalizePseudonym(pseudonym)
	if err := s.validateRoomAndPseudonym(roomID, pseudonym); err != nil {
		return nil, err
	}

	visit, err := s.visits.Find(ctx, pseudonym, roomID)
	if err != nil {
		if !errors.Is(err, peerserrors.ErrVisitNotFound) {
			return nil, s.dependency("Visit store", "find visit", err)
		}
		visit = nil
	}
	return s.loadMessages(ctx, roomID, visit)
}

// loadMessages replays from the boundary message inclusive, so the client may
// see it twice. When more than ChatCatchupLimit messages arrived since, the
// newest ones are kept and the batch is marked Truncated.
func (s *chatService) loadMessages(ctx context.Context, roomID string, visit *model.Visit) (*MessageBatch, error) {
	batch := &MessageBatch{RoomID: roomID}

	if visit != nil && visit.LastMessageID != "" {
		batch.IsRejoining = true
		batch.LastMessageID = visit.LastMessageID

		boundary, err := s.messages.FindByID(ctx, visit.LastMessageID)
		switch {
		case err == nil && boundary.RoomID == roomID:
			limit := s.cfg.ChatCatchupLimit
			messages, err := s.messages.Since(ctx, roomID, boundary.CreatedAt, limit+1)
			if err != nil {
				return nil, s.dependency("Message store", "load catch-up", err)
			}
			if len(messages) > limit {
				// Losing only the boundary itself leaves no gap.
				batch.Truncated = messages[0].ID != boundary.ID
				messages = messages[1:]
			}
			batch.Messages = messages
			return batch, nil
		case err != nil && !errors.Is(err, peerserrors.ErrMessageNotFound) && !errors.Is(err, peerserrors.ErrInvalidID):
			return nil, s.dependency("Message store", "find boundary message", err)
		}
	}

	messages, err := s.messages.Recent(ctx, roomID, s.cfg.ChatHistoryLimit)
	if err != nil {
		return nil, s.dependency("Message store", "load recent", err)
	}
	batch.Messages = messages
	return batch, nil
}

// leave must be called with the room lock held.
func (s *chatService) leave(ctx context.Context, roomID, connID string) {
	participant, count, ok := s.tracker.Leave(roomID, connID)
	if !ok {
		return
	}

	var lastMessageID string
	latest, err := s.messages.Latest(ctx, roomID)
	switch {
	case err == nil:
		lastMessageID = latest.ID
	case !errors.Is(err, peerserrors.ErrMessageNotFound):
		s.visitFailure("find_latest", roomID, participant.Pseudonym, err)
	}

	if err := s.visits.Stamp(ctx, participant.Pseudonym, roomID, lastMessageID, s.now()); err != nil {
		s.visitFailure("stamp_leave", roomID, participant.Pseudonym, err)
	}

	s.broadcast(roomID, EventUserLeft, PresenceUpdate{
		RoomID:      roomID,
		Pseudonym:   participant.Pseudonym,
		ActiveCount: count,
	}, "")
	s.cfg.Log.Info("Left room", "room_id", roomID, "pseudonym", participant.Pseudonym, "conn_id", connID, "active", count)
}

// broadcast sends to every connection in the room except skip.
func (s *chatService) broadcast(roomID, event string, data any, skip string) {
	for _, connID := range s.tracker.ConnectionIDs(roomID) {
		if connID != skip {
			s.emitter.Emit(connID, event, data)
		}
	}
}

func (s *chatService) activeRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, s.mapError("Room", roomID, err)
	}
	if !room.IsActive {
		return nil, apperrors.NotFoundWithID("Room", roomID)
	}
	return room, nil
}

func (s *chatService) validateRoomAndPseudonym(roomID, pseudonym string) error {
	if err := s.validator.ValidateRoomID(roomID); err != nil {
		return validation.ToAppError(err)
	}
	if err := s.validator.ValidatePseudonym(pseudonym); err != nil {
		return validation.ToAppError(err)
	}
	return nil
}

func (s *chatService) visitFailure(operation, roomID, pseudonym string, err error) {
	metrics.VisitUpdateFailures.WithLabelValues(operation).Inc()
	s.cfg.Log.Error("Visit bookkeeping failed",
		"operation", operation,
		"room_id", roomID,
		"pseudonym", pseudonym,
		"error", err,
	)
}

func (s *chatService) dependency(store, operation string, err error) error {
	s.cfg.Log.Error("Peer space store failed", "store", store, "operation", operation, "error", err)
	return apperrors.Dependency(store, err)
}

func (s *chatService) mapError(resource, id string, err error) error {
	return mapStoreError(s.cfg, resource, id, err)
}

func mapStoreError(cfg *config.Config, resource, id string, err error) error {
	switch {
	case errors.Is(err, peerserrors.ErrRoomNotFound),
		errors.Is(err, peerserrors.ErrMessageNotFound),
		errors.Is(err, peerserrors.ErrVisitNotFound),
		errors.Is(err, peerserrors.ErrInvalidID):
		return apperrors.NotFoundWithID(resource, id)
	case apperrors.IsAppError(err):
		return err
	default:
		cfg.Log.Error("Peer space store failed", "resource", resource, "id", id, "error", err)
		return apperrors.Dependency(resource+" store", err)
	}
}
