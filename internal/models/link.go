package models

import "time"

// Link maps a share token to a Telegram file identifier. The FileID is
// opaque to everything except the transport that hands it back to Telegram.
type Link struct {
	Token     string    `json:"token"`
	FileID    string    `json:"-"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"` // zero value means the link never expires
	SingleUse bool      `json:"single_use"`
	Consumed  bool      `json:"consumed"`
}

// Expired reports whether the link's expiry horizon has passed.
func (l *Link) Expired(now time.Time) bool {
	return !l.ExpiresAt.IsZero() && now.After(l.ExpiresAt)
}

// Spent reports whether a single-use link has already been handed out.
func (l *Link) Spent() bool {
	return l.SingleUse && l.Consumed
}

// LinkSummary is the least-exposure view returned to admins listing links:
// token and creation time only, never owner or file reference.
type LinkSummary struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}
