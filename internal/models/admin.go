package models

import "time"

// Admin is a privileged user below the owner. DisplayName is whatever the
// transport last saw for the user; admins added by raw id start out unknown.
type Admin struct {
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AddedAt     time.Time `json:"added_at"`
}
