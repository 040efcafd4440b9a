package validator

import (
	"errors"
	"testing"

	"carelink/pkg/logger"
	"carelink/pkg/model"
	"carelink/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() model.BookingRequest {
	return model.BookingRequest{
		ProviderID:  "64b7f0c2a1b2c3d4e5f60718",
		Date:        "2026-11-02",
		Day:         model.Monday,
		StartTime:   "09:00",
		EndTime:     "10:00",
		Mode:        model.ModeVideo,
		TherapyType: "Cognitive Behavioral Therapy",
	}
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verrs validation.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
	var fields []string
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestValidate(t *testing.T) {
	v := NewBookingValidator(logger.Discard())

	tests := []struct {
		name   string
		mutate func(r *model.BookingRequest)
		field  string
	}{
		{"valid", func(r *model.BookingRequest) {}, ""},
		{"valid timestamp", func(r *model.BookingRequest) { r.Date = "2026-11-02T09:00:00Z" }, ""},
		{"missing provider", func(r *model.BookingRequest) { r.ProviderID = "" }, "providerId"},
		{"malformed provider", func(r *model.BookingRequest) { r.ProviderID = "abc" }, "providerId"},
		{"bad start", func(r *model.BookingRequest) { r.StartTime = "9am" }, "startTime"},
		{"end before start", func(r *model.BookingRequest) { r.EndTime = "08:00" }, "endTime"},
		{"end equals start", func(r *model.BookingRequest) { r.EndTime = "09:00" }, "endTime"},
		{"unknown day", func(r *model.BookingRequest) { r.Day = "Funday" }, "day"},
		{"unknown mode", func(r *model.BookingRequest) { r.Mode = "Carrier Pigeon" }, "mode"},
		{"notes too long", func(r *model.BookingRequest) { r.Notes = string(make([]byte, 501)) }, "notes"},
		{"weekday mismatch", func(r *model.BookingRequest) { r.Day = model.Tuesday }, "day"},
		{"east of utc midnight", func(r *model.BookingRequest) { r.Date = "2026-11-02T00:00:00+03:00" }, ""},
		{"west of utc evening", func(r *model.BookingRequest) { r.Date = "2026-11-02T20:00:00-05:00" }, ""},
		{"offset weekday mismatch", func(r *model.BookingRequest) {
			r.Date = "2026-11-02T00:00:00+03:00"
			r.Day = model.Sunday
		}, "day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.Validate(&req)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, fieldsOf(t, err), tt.field)
		})
	}
}

func TestValidateStatusUpdate(t *testing.T) {
	v := NewBookingValidator(logger.Discard())

	for _, status := range model.UpdatableStatuses {
		assert.NoError(t, v.ValidateStatusUpdate(&model.StatusUpdateRequest{Status: status}), status)
	}

	err := v.ValidateStatusUpdate(&model.StatusUpdateRequest{Status: model.BookingStatusCancelled})
	require.Error(t, err)
	assert.Equal(t, []string{"status"}, fieldsOf(t, err))

	err = v.ValidateStatusUpdate(&model.StatusUpdateRequest{Status: model.BookingStatusConfirmed, MeetingLink: "not a url"})
	require.Error(t, err)
	assert.Equal(t, []string{"meetingLink"}, fieldsOf(t, err))
}

func TestValidateStatusFilter(t *testing.T) {
	v := NewBookingValidator(logger.Discard())

	assert.NoError(t, v.ValidateStatusFilter(""))
	assert.NoError(t, v.ValidateStatusFilter(model.BookingStatusCancelled))
	assert.Error(t, v.ValidateStatusFilter("archived"))
}
