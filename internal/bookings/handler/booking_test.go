package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carelink/internal/bookings/events"
	"carelink/internal/bookings/repository"
	"carelink/internal/bookings/service"
	"carelink/internal/bookings/validator"
	"carelink/internal/ledger"
	providersrepo "carelink/internal/providers/repository"
	usersrepo "carelink/internal/users/repository"
	"carelink/pkg/auth"
	"carelink/pkg/config"
	"carelink/pkg/db/memory"
	"carelink/pkg/logger"
	"carelink/pkg/middleware"
	"carelink/pkg/model"

	"github.com/golang-jwt/jwt"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "booking-handler-secret"

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Code       string          `json:"code"`
	Data       json.RawMessage `json:"data"`
	TotalCount int64           `json:"totalCount"`
}

type testServer struct {
	handler  http.Handler
	provider *model.Provider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logger.Discard()
	cfg := &config.Config{Log: log, TransactionTimeout: 5 * time.Second}
	providers := providersrepo.NewMemoryProviderRepository()

	provider := &model.Provider{
		Name:        "Dr. Wanjiru",
		SessionRate: 60,
		IsApproved:  true,
		IsActive:    true,
		Availability: []model.Availability{
			{Day: model.Monday, Slots: []model.Slot{{StartTime: "14:00", EndTime: "15:00"}}},
		},
	}
	require.NoError(t, providers.Create(context.Background(), provider))

	svc := service.NewBookingService(
		repository.NewMemoryBookingRepository(memory.NewTransactionManager()),
		providers,
		usersrepo.NewMemoryUserRepository(),
		ledger.New(providers, log),
		events.NewNoopPublisher(),
		validator.NewBookingValidator(log),
		cfg,
	)

	router := httprouter.New()
	NewBookingHandler(svc, log).RegisterRoutes(router)
	verifier := auth.NewJWTVerifier(testSecret, "")

	return &testServer{
		handler:  middleware.Authenticate(verifier, true, log)(router),
		provider: provider,
	}
}

func token(t *testing.T, id, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  id,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (s *testServer) bookingBody() map[string]any {
	return map[string]any{
		"providerId":  s.provider.ID,
		"date":        "2026-11-02",
		"day":         "Monday",
		"startTime":   "14:00",
		"endTime":     "15:00",
		"mode":        "Video",
		"therapyType": "Family Therapy",
	}
}

func TestBookingEndpoints(t *testing.T) {
	srv := newTestServer(t)
	alice := token(t, primitive.NewObjectID().Hex(), auth.RoleUser)
	bob := token(t, primitive.NewObjectID().Hex(), auth.RoleUser)
	therapist := token(t, srv.provider.ID, "therapist")

	rec, _ := srv.do(t, http.MethodPost, "/api/v1/bookings", "", srv.bookingBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := srv.do(t, http.MethodPost, "/api/v1/bookings", alice, srv.bookingBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var booking model.Booking
	require.NoError(t, json.Unmarshal(env.Data, &booking))
	assert.Equal(t, model.BookingStatusPending, booking.Status)
	assert.Equal(t, 60.0, booking.Amount)

	rec, env = srv.do(t, http.MethodPost, "/api/v1/bookings", bob, srv.bookingBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", env.Code)

	rec, _ = srv.do(t, http.MethodGet, "/api/v1/bookings/"+booking.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = srv.do(t, http.MethodGet, "/api/v1/bookings?status=pending", therapist, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), env.TotalCount)

	rec, _ = srv.do(t, http.MethodPatch, "/api/v1/bookings/"+booking.ID+"/status", alice, map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = srv.do(t, http.MethodPatch, "/api/v1/bookings/"+booking.ID+"/status", therapist, map[string]any{
		"status":      "confirmed",
		"meetingLink": "https://meet.example.com/room-7",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &booking))
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)

	rec, env = srv.do(t, http.MethodPatch, "/api/v1/bookings/"+booking.ID+"/cancel", alice, map[string]any{"cancellationReason": "Travelling"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &booking))
	assert.Equal(t, model.BookingStatusCancelled, booking.Status)
	assert.Equal(t, auth.RoleUser, booking.CancelledBy)

	rec, env = srv.do(t, http.MethodPatch, "/api/v1/bookings/"+booking.ID+"/cancel", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_STATE", env.Code)

	rec, _ = srv.do(t, http.MethodPost, "/api/v1/bookings", bob, srv.bookingBody())
	assert.Equal(t, http.StatusCreated, rec.Code, "cancelled slot is bookable again")
}

func TestCreate_BadRequests(t *testing.T) {
	srv := newTestServer(t)
	alice := token(t, primitive.NewObjectID().Hex(), auth.RoleUser)

	mismatch := srv.bookingBody()
	mismatch["day"] = "Tuesday"

	tests := []struct {
		name string
		body any
		code string
	}{
		{"weekday mismatch", mismatch, "VALIDATION_ERROR"},
		{"not an object", "booking", "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := srv.do(t, http.MethodPost, "/api/v1/bookings", alice, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}
