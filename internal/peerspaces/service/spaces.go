package service

import (
	"context"
	"errors"
	"sort"

	peerserrors "carelink/internal/peerspaces/errors"
	"carelink/internal/peerspaces/presence"
	"carelink/internal/peerspaces/repository"
	"carelink/internal/peerspaces/validator"
	"carelink/pkg/auth"
	"carelink/pkg/config"
	apperrors "carelink/pkg/errors"
	"carelink/pkg/model"
	"carelink/pkg/sanitizer"
	"carelink/pkg/validation"
)

const (
	DefaultRoomMessagesLimit = 50
	MaxRoomMessagesLimit     = 100
)

// SpaceService is the request/response side of peer spaces.
type SpaceService interface {
	ListRooms(ctx context.Context) ([]*model.RoomSummary, error)
	CreateRoom(ctx context.Context, room *model.Room) error
	RoomMessages(ctx context.Context, roomID string, limit int) ([]*model.Message, error)
	CreateSession(ctx context.Context, principal auth.Principal, req *model.SessionRequest) (*model.Session, error)
	PseudonymAvailable(ctx context.Context, pseudonym string) (bool, error)
	History(ctx context.Context, pseudonym string) ([]*model.Visit, error)
	DeleteVisit(ctx context.Context, pseudonym, roomID string) error
}

type spaceService struct {
	rooms     repository.RoomRepository
	messages  repository.MessageRepository
	visits    repository.VisitRepository
	sessions  repository.SessionRepository
	tracker   *presence.Tracker
	validator *validator.PeerSpaceValidator
	cfg       *config.Config
}

func NewSpaceService(
	rooms repository.RoomRepository,
	messages repository.MessageRepository,
	visits repository.VisitRepository,
	sessions repository.SessionRepository,
	tracker *presence.Tracker,
	validator *validator.PeerSpaceValidator,
	cfg *config.Config,
) SpaceService {
	return &spaceService{
		rooms:     rooms,
		messages:  messages,
		visits:    visits,
		sessions:  sessions,
		tracker:   tracker,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *spaceService) ListRooms(ctx context.Context) ([]*model.RoomSummary, error) {
	rooms, err := s.rooms.FindActive(ctx)
	if err != nil {
		return nil, mapStoreError(s.cfg, "Room", "", err)
	}

	active := s.tracker.Counts()
	summaries := make([]*model.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, &model.RoomSummary{
			Room:        *room,
			MemberCount: len(room.Members),
			ActiveCount: active[room.ID],
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries, nil
}

func (s *spaceService) CreateRoom(ctx context.Context, room *model.Room) error {
	room.Name = sanitizer.TrimAndNormalize(room.Name)
	room.Description = sanitizer.SanitizeText(room.Description)
	if room.Name == "" {
		return apperrors.Validation("Validation failed", map[string]any{"name": "name is required"})
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		return mapStoreError(s.cfg, "Room", room.Name, err)
	}
	s.cfg.Log.Info("Room created", "room_id", room.ID, "name", room.Name)
	return nil
}

func (s *spaceService) RoomMessages(ctx context.Context, roomID string, limit int) ([]*model.Message, error) {
	if err := s.validator.ValidateRoomID(roomID); err != nil {
		return nil, validation.ToAppError(err)
	}
	if limit <= 0 {
		limit = DefaultRoomMessagesLimit
	}
	if limit > MaxRoomMessagesLimit {
		limit = MaxRoomMessagesLimit
	}

	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return nil, mapStoreError(s.cfg, "Room", roomID, err)
	}

	messages, err := s.messages.Recent(ctx, roomID, limit)
	if err != nil {
		return nil, mapStoreError(s.cfg, "Message", roomID, err)
	}
	return messages, nil
}

// CreateSession registers a pseudonym. The linked identity comes from the
// authenticated principal only.
func (s *spaceService) CreateSession(ctx context.Context, principal auth.Principal, req *model.SessionRequest) (*model.Session, error) {
	req.Pseudonym = sanitizer.NormalizePseudonym(req.Pseudonym)
	if err := s.validator.ValidateSession(req); err != nil {
		return nil, validation.ToAppError(err)
	}

	session := &model.Session{Pseudonym: req.Pseudonym, UserID: principal.ID}

	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, peerserrors.ErrPseudonymTaken) {
			return nil, apperrors.Conflict("Pseudonym is already taken")
		}
		return nil, mapStoreError(s.cfg, "Session", req.Pseudonym, err)
	}

	s.cfg.Log.Info("Session created", "pseudonym", session.Pseudonym, "linked", session.UserID != "")
	return session, nil
}

func (s *spaceService) PseudonymAvailable(ctx context.Context, pseudonym string) (bool, error) {
	pseudonym = sanitizer.NormalizePseudonym(pseudonym)
	if err := s.validator.ValidatePseudonym(pseudonym); err != nil {
		return false, validation.ToAppError(err)
	}

	exists, err := s.sessions.Exists(ctx, pseudonym)
	if err != nil {
		return false, mapStoreError(s.cfg, "Session", pseudonym, err)
	}
	return !exists, nil
}

func (s *spaceService) History(ctx context.Context, pseudonym string) ([]*model.Visit, error) {
	pseudonym = sanitizer.NormalizePseudonym(pseudonym)
	if err := s.validator.ValidatePseudonym(pseudonym); err != nil {
		return nil, validation.ToAppError(err)
	}

	visits, err := s.visits.History(ctx, pseudonym, s.cfg.VisitHistoryLimit)
	if err != nil {
		return nil, mapStoreError(s.cfg, "Visit", pseudonym, err)
	}
	return visits, nil
}

func (s *spaceService) DeleteVisit(ctx context.Context, pseudonym, roomID string) error {
	pseudonym = sanitizer.NormalizePseudonym(pseudonym)
	if err := s.validator.ValidatePseudonym(pseudonym); err != nil {
		return validation.ToAppError(err)
	}
	if err := s.validator.ValidateRoomID(roomID); err != nil {
		return validation.ToAppError(err)
	}

	if err := s.visits.Delete(ctx, pseudonym, roomID); err != nil {
		return mapStoreError(s.cfg, "Visit", roomID, err)
	}
	return nil
}
