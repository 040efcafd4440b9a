package model

import "time"

type User struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Role      string    `json:"role" bson:"role"`
	Bookings  []string  `json:"bookings" bson:"bookings"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}
