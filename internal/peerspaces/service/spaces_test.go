package service

import (
	"context"
	"fmt"
	"testing"

	"carelink/pkg/auth"
	apperrors "carelink/pkg/errors"
	"carelink/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRooms_CountsPresence(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	require.NoError(t, f.rooms.Create(ctx, &model.Room{Name: "Archived", IsActive: false}))
	second := &model.Room{Name: "A Morning Walk", IsActive: true}
	require.NoError(t, f.rooms.Create(ctx, second))

	require.NoError(t, f.chat.Join(ctx, Client{ConnID: "c1", UserID: "u1"}, f.room.ID, "QuietFox"))
	require.NoError(t, f.chat.Join(ctx, Client{ConnID: "c2"}, f.room.ID, "NightOwl"))

	rooms, err := f.spaces.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	assert.Equal(t, "A Morning Walk", rooms[0].Name)
	assert.Zero(t, rooms[0].ActiveCount)
	assert.Equal(t, f.room.ID, rooms[1].ID)
	assert.Equal(t, 2, rooms[1].ActiveCount)
	assert.Equal(t, 1, rooms[1].MemberCount)
}

func TestRoomMessages_Limits(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	fox := Client{ConnID: "c-fox"}
	require.NoError(t, f.chat.Join(ctx, fox, f.room.ID, "QuietFox"))
	for i := 0; i < 120; i++ {
		_, err := f.chat.PostMessage(ctx, fox, f.room.ID, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	tests := []struct {
		limit int
		want  int
		last  string
	}{
		{0, DefaultRoomMessagesLimit, "m119"},
		{10, 10, "m119"},
		{500, MaxRoomMessagesLimit, "m119"},
	}
	for _, tt := range tests {
		messages, err := f.spaces.RoomMessages(ctx, f.room.ID, tt.limit)
		require.NoError(t, err)
		require.Len(t, messages, tt.want)
		assert.Equal(t, tt.last, messages[len(messages)-1].Text)
	}

	_, err := f.spaces.RoomMessages(ctx, "507f1f77bcf86cd799439011", 10)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCreateSession(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	session, err := f.spaces.CreateSession(ctx, auth.Principal{ID: "user-7", Role: auth.RoleUser}, &model.SessionRequest{Pseudonym: " QuietFox "})
	require.NoError(t, err)
	assert.Equal(t, "QuietFox", session.Pseudonym)
	assert.Equal(t, "user-7", session.UserID)

	_, err = f.spaces.CreateSession(ctx, auth.Principal{}, &model.SessionRequest{Pseudonym: "QuietFox"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = f.spaces.CreateSession(ctx, auth.Principal{}, &model.SessionRequest{Pseudonym: "!"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	available, err := f.spaces.PseudonymAvailable(ctx, "QuietFox")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = f.spaces.PseudonymAvailable(ctx, "NightOwl")
	require.NoError(t, err)
	assert.True(t, available)
}

func TestHistoryAndDeleteVisit(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	require.NoError(t, f.chat.Join(ctx, Client{ConnID: "c1"}, f.room.ID, "QuietFox"))

	visits, err := f.spaces.History(ctx, "QuietFox")
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, f.room.ID, visits[0].RoomID)

	require.NoError(t, f.spaces.DeleteVisit(ctx, "QuietFox", f.room.ID))
	err = f.spaces.DeleteVisit(ctx, "QuietFox", f.room.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	visits, err = f.spaces.History(ctx, "QuietFox")
	require.NoError(t, err)
	assert.Empty(t, visits)
}

func TestCreateRoom(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	room := &model.Room{Name: "  Night   Shift ", IsActive: true}
	require.NoError(t, f.spaces.CreateRoom(ctx, room))
	assert.NotEmpty(t, room.ID)

	err := f.spaces.CreateRoom(ctx, &model.Room{Name: "   "})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
