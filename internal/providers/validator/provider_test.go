package validator

import (
	"testing"

	"carelink/pkg/logger"
	"carelink/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProvider() *model.Provider {
	return &model.Provider{
		Name:        "Dr. Amani",
		Modes:       []string{model.ModeVideo, model.ModeChat},
		SessionRate: 70,
		Availability: []model.Availability{
			{Day: model.Monday, Slots: []model.Slot{
				{StartTime: "09:00", EndTime: "10:00"},
				{StartTime: "10:00", EndTime: "11:00"},
			}},
			{Day: model.Friday, Slots: []model.Slot{{StartTime: "09:00", EndTime: "10:00"}}},
		},
	}
}

func TestValidateProvider(t *testing.T) {
	v := NewProviderValidator(logger.Discard())

	tests := []struct {
		name    string
		mutate  func(*model.Provider)
		wantErr string
	}{
		{"valid", func(*model.Provider) {}, ""},
		{"missing name", func(p *model.Provider) { p.Name = "" }, "name"},
		{"unknown mode", func(p *model.Provider) { p.Modes = []string{"Telepathy"} }, "modes"},
		{"negative rate", func(p *model.Provider) { p.SessionRate = -1 }, "sessionRate"},
		{"bad weekday", func(p *model.Provider) { p.Availability[1].Day = "Funday" }, "day"},
		{"bad time", func(p *model.Provider) { p.Availability[0].Slots[0].StartTime = "9am" }, "startTime"},
		{"duplicate slot", func(p *model.Provider) {
			p.Availability[0].Slots = append(p.Availability[0].Slots, model.Slot{StartTime: "09:00", EndTime: "10:00"})
		}, "duplicate slot 09:00-10:00 on Monday"},
		{"reversed slot", func(p *model.Provider) {
			p.Availability[1].Slots[0] = model.Slot{StartTime: "12:00", EndTime: "11:00"}
		}, "must end after it starts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProvider()
			tt.mutate(p)
			err := v.ValidateProvider(p)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReviewAndFilter(t *testing.T) {
	v := NewProviderValidator(logger.Discard())

	assert.NoError(t, v.ValidateReview(&model.ReviewRequest{Rating: 4, Comment: "Helpful"}))
	assert.Error(t, v.ValidateReview(&model.ReviewRequest{Rating: 0}))
	assert.Error(t, v.ValidateReview(&model.ReviewRequest{Rating: 6}))

	assert.NoError(t, v.ValidateFilter(&model.ProviderFilter{}))
	assert.NoError(t, v.ValidateFilter(&model.ProviderFilter{Modes: []string{model.ModePhone}, MinRating: 4}))
	assert.Error(t, v.ValidateFilter(&model.ProviderFilter{MinRating: 7}))
	assert.Error(t, v.ValidateFilter(&model.ProviderFilter{Modes: []string{"Fax"}}))
}
