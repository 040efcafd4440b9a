package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carelink/internal/peerspaces/presence"
	"carelink/internal/peerspaces/repository"
	"carelink/internal/peerspaces/service"
	"carelink/internal/peerspaces/validator"
	"carelink/pkg/auth"
	"carelink/pkg/config"
	"carelink/pkg/logger"
	"carelink/pkg/middleware"
	"carelink/pkg/model"

	"github.com/golang-jwt/jwt"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "peer-spaces-secret"

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	server *httptest.Server
	room   *model.Room
	hub    *Hub
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                  logger.Discard(),
		ChatHistoryLimit:     50,
		ChatCatchupLimit:     500,
		ChatMaxMessageLength: 2000,
		VisitHistoryLimit:    20,
		SocketSendBuffer:     32,
		SocketWriteTimeout:   2 * time.Second,
		SocketPongWait:       10 * time.Second,
		SocketEventTimeout:   5 * time.Second,
		SocketEventRate:      100,
		SocketEventBurst:     100,
		SocketMaxMessageSize: 8 * 1024,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := testConfig()
	rooms := repository.NewMemoryRoomRepository()
	messages := repository.NewMemoryMessageRepository()
	visits := repository.NewMemoryVisitRepository()
	sessions := repository.NewMemorySessionRepository()
	tracker := presence.NewTracker()
	v := validator.NewPeerSpaceValidator(cfg.ChatMaxMessageLength, cfg.Log)

	room := &model.Room{Name: "Evening Calm", IsActive: true}
	require.NoError(t, rooms.Create(context.Background(), room))

	hub := NewHub(cfg.Log)
	chat := service.NewChatService(rooms, messages, visits, sessions, tracker, hub, v, cfg)
	spaces := service.NewSpaceService(rooms, messages, visits, sessions, tracker, v, cfg)
	verifier := auth.NewJWTVerifier(testSecret, "")

	router := httprouter.New()
	NewPeerSpaceHandler(spaces, cfg.Log).RegisterRoutes(router)

	mux := http.NewServeMux()
	mux.Handle(WebSocketPath, NewSocketHandler(hub, chat, verifier, cfg))
	mux.Handle("/", middleware.Authenticate(verifier, false, cfg.Log)(router))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testServer{server: server, room: room, hub: hub}
}

func token(t *testing.T, subject string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": auth.RoleUser,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) (int, response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func (s *testServer) dial(t *testing.T, bearer string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + WebSocketPath
	header := http.Header{}
	if bearer != "" {
		header.Set("Authorization", "Bearer "+bearer)
	}

	conn, res, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	res.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(envelope{Event: event, Data: raw}))
}

// expect reads frames until event arrives, skipping others.
func expect(t *testing.T, conn *websocket.Conn, event string, dst any) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var frame envelope
		require.NoError(t, conn.ReadJSON(&frame), "waiting for %s", event)
		if frame.Event != event {
			continue
		}
		if dst != nil {
			require.NoError(t, json.Unmarshal(frame.Data, dst))
		}
		return
	}
}

func TestPeerSpaces_RoomsAndSessions(t *testing.T) {
	s := newTestServer(t)

	status, res := s.do(t, http.MethodGet, "/api/v1/peer-spaces/rooms", "", nil)
	require.Equal(t, http.StatusOK, status)
	var rooms []model.RoomSummary
	require.NoError(t, json.Unmarshal(res.Data, &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "Evening Calm", rooms[0].Name)
	assert.Zero(t, rooms[0].ActiveCount)

	status, res = s.do(t, http.MethodPost, "/api/v1/peer-spaces/sessions", token(t, "user-1"),
		map[string]string{"pseudonym": "QuietFox", "userId": "someone-else"})
	require.Equal(t, http.StatusCreated, status)
	var session model.Session
	require.NoError(t, json.Unmarshal(res.Data, &session))
	assert.Equal(t, "user-1", session.UserID)

	status, res = s.do(t, http.MethodPost, "/api/v1/peer-spaces/sessions", "", map[string]string{"pseudonym": "QuietFox"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", res.Code)

	status, res = s.do(t, http.MethodGet, "/api/v1/peer-spaces/check-pseudonym/QuietFox", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"available":false}`, string(res.Data))

	status, res = s.do(t, http.MethodGet, "/api/v1/peer-spaces/check-pseudonym/NightOwl", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"available":true}`, string(res.Data))

	status, _ = s.do(t, http.MethodGet, "/api/v1/peer-spaces/rooms/"+s.room.ID+"/messages?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/peer-spaces/rooms/507f1f77bcf86cd799439011/messages", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodDelete, "/api/v1/peer-spaces/history/QuietFox/"+s.room.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSocket_RejectsInvalidToken(t *testing.T) {
	s := newTestServer(t)

	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + WebSocketPath + "?token=garbage"
	_, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestSocket_FoxAndOwl(t *testing.T) {
	s := newTestServer(t)

	fox := s.dial(t, token(t, "user-fox"))
	owl := s.dial(t, "")

	send(t, fox, EventJoinRoom, map[string]string{"roomId": s.room.ID, "pseudonym": "QuietFox"})
	var batch service.MessageBatch
	expect(t, fox, service.EventLoadMessages, &batch)
	assert.Empty(t, batch.Messages)

	send(t, owl, EventJoinRoom, map[string]string{"roomId": s.room.ID, "pseudonym": "NightOwl"})
	expect(t, owl, service.EventLoadMessages, nil)

	var joined service.PresenceUpdate
	expect(t, fox, service.EventUserJoined, &joined)
	for joined.Pseudonym != "NightOwl" {
		expect(t, fox, service.EventUserJoined, &joined)
	}
	assert.Equal(t, 2, joined.ActiveCount)

	send(t, fox, EventSendMessage, map[string]string{"roomId": s.room.ID, "text": "hello owl"})
	var message model.Message
	expect(t, owl, service.EventNewMessage, &message)
	assert.Equal(t, "hello owl", message.Text)
	assert.Equal(t, "QuietFox", message.Pseudonym)
	assert.Equal(t, "user-fox", message.UserID)

	send(t, owl, EventAddReaction, map[string]string{"messageId": message.ID, "reactionType": model.ReactionHeart})
	var reaction service.ReactionUpdate
	expect(t, fox, service.EventReactionAdded, &reaction)
	assert.Equal(t, int64(1), reaction.Reactions[model.ReactionHeart])

	status, res := s.do(t, http.MethodGet, "/api/v1/peer-spaces/rooms", "", nil)
	require.Equal(t, http.StatusOK, status)
	var rooms []model.RoomSummary
	require.NoError(t, json.Unmarshal(res.Data, &rooms))
	assert.Equal(t, 2, rooms[0].ActiveCount)
	assert.Equal(t, 1, rooms[0].MemberCount)

	require.NoError(t, owl.Close())

	var left service.PresenceUpdate
	expect(t, fox, service.EventUserLeft, &left)
	assert.Equal(t, "NightOwl", left.Pseudonym)
	assert.Equal(t, 1, left.ActiveCount)

	status, res = s.do(t, http.MethodGet, "/api/v1/peer-spaces/history/NightOwl", "", nil)
	require.Equal(t, http.StatusOK, status)
	var visits []model.Visit
	require.NoError(t, json.Unmarshal(res.Data, &visits))
	require.Len(t, visits, 1)
	assert.Equal(t, message.ID, visits[0].LastMessageID)
}

func TestSocket_ErrorsGoToOrigin(t *testing.T) {
	s := newTestServer(t)
	conn := s.dial(t, "")

	tests := []struct {
		event string
		data  any
		code  string
	}{
		{"shout", map[string]string{}, "INVALID_INPUT"},
		{EventSendMessage, map[string]string{"roomId": s.room.ID, "text": "hi"}, "INVALID_STATE"},
		{EventJoinRoom, map[string]string{"roomId": "507f1f77bcf86cd799439011", "pseudonym": "QuietFox"}, "NOT_FOUND"},
		{EventAddReaction, map[string]string{"messageId": "x", "reactionType": "thumbs"}, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.event, tt.code), func(t *testing.T) {
			send(t, conn, tt.event, tt.data)
			var payload service.ErrorPayload
			expect(t, conn, service.EventError, &payload)
			assert.Equal(t, tt.code, payload.Code)
			assert.NotEmpty(t, payload.Message)
		})
	}
}
