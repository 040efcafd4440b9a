package model

import "time"

const (
	Monday    = "Monday"
	Tuesday   = "Tuesday"
	Wednesday = "Wednesday"
	Thursday  = "Thursday"
	Friday    = "Friday"
	Saturday  = "Saturday"
	Sunday    = "Sunday"
)

var Weekdays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

const (
	ModeInPerson = "In-Person"
	ModeVideo    = "Video"
	ModePhone    = "Phone"
	ModeChat     = "Chat"
)

var SessionModes = []string{ModeInPerson, ModeVideo, ModePhone, ModeChat}

// Slot is a fixed, pre-partitioned unit of provider availability. Within one
// provider/day the (StartTime, EndTime) pair is unique.
type Slot struct {
	StartTime string `json:"startTime" bson:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"endTime" bson:"end_time" validate:"required,hhmm"`
	IsBooked  bool   `json:"isBooked" bson:"is_booked"`
}

type Availability struct {
	Day   string `json:"day" bson:"day" validate:"required,weekday"`
	Slots []Slot `json:"slots" bson:"slots" validate:"dive"`
}

type Review struct {
	UserID    string    `json:"userId" bson:"user_id"`
	Rating    int       `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty" validate:"omitempty,max=1000"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

type Provider struct {
	ID           string         `json:"id,omitempty" bson:"_id,omitempty"`
	Name         string         `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email        string         `json:"email,omitempty" bson:"email,omitempty"`
	Location     string         `json:"location,omitempty" bson:"location,omitempty"`
	Bio          string         `json:"bio,omitempty" bson:"bio,omitempty"`
	Specialties  []string       `json:"specialties,omitempty" bson:"specialties,omitempty"`
	Modes        []string       `json:"modes,omitempty" bson:"modes,omitempty" validate:"omitempty,dive,session_mode"`
	TherapyTypes []string       `json:"therapyTypes,omitempty" bson:"therapy_types,omitempty"`
	SessionRate  float64        `json:"sessionRate" bson:"session_rate" validate:"min=0"`
	IsApproved   bool           `json:"isApproved" bson:"is_approved"`
	IsActive     bool           `json:"isActive" bson:"is_active"`
	Rating       float64        `json:"rating" bson:"rating"`
	ReviewCount  int            `json:"reviewCount" bson:"review_count"`
	Reviews      []Review       `json:"reviews,omitempty" bson:"reviews"`
	Availability []Availability `json:"availability" bson:"availability" validate:"dive"`
	CreatedAt    time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" bson:"updated_at"`
}

// Bookable reports whether new bookings may be made against the provider.
func (p *Provider) Bookable() bool {
	return p.IsApproved && p.IsActive
}

func (p *Provider) HasReviewFrom(userID string) bool {
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// RatingWith returns the mean rating once an extra score is added.
func (p *Provider) RatingWith(score int) float64 {
	total := score
	for _, r := range p.Reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(p.Reviews)+1)
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

// ProviderFilter holds the predicates of a directory search. Zero values do not filter.
type ProviderFilter struct {
	Location     string   `json:"location,omitempty" validate:"omitempty,max=100"`
	Modes        []string `json:"modes,omitempty" validate:"omitempty,dive,session_mode"`
	TherapyTypes []string `json:"therapyTypes,omitempty" validate:"omitempty,dive,min=1,max=100"`
	MinRating    float64  `json:"minRating,omitempty" validate:"omitempty,min=0,max=5"`
	MaxRate      float64  `json:"maxRate,omitempty" validate:"omitempty,min=0"`
}

// SlotKey identifies one slot of one provider.
type SlotKey struct {
	ProviderID string `json:"providerId"`
	Day        string `json:"day"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// SlotRef is the result of a successful claim.
type SlotRef struct {
	SlotKey
	ClaimedAt time.Time `json:"claimedAt"`
}
