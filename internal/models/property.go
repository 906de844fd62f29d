package models

import "time"

// Property represents a managed property that issues are reported against.
type Property struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Units       int       `json:"units"`
	ManagerName string    `json:"manager_name,omitempty"`
	OwnerName   string    `json:"owner_name,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
