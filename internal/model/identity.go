package model

import "malti-dashboard/internal/status"

// User is the principal behind an API key.
type User struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Permissions []string `json:"permissions"`
}

// Identity is the result of a successful login.
type Identity struct {
	User       User              `json:"user"`
	Thresholds status.Thresholds `json:"thresholds"`
}
