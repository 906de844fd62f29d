package models

import "time"

// Vendor is an external contractor that issues can be assigned to.
type Vendor struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Trade      string    `json:"trade"` // plumbing, electrical, hvac, ...
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	HourlyRate *float64  `json:"hourly_rate,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
