package models

import "time"

// History is one shell-history entry. Data is encrypted client-side and
// opaque to the server. ClientID makes inserts idempotent: resubmitting the
// same entry is a no-op. DeletedAt is a tombstone, set at most once.
type History struct {
	ID        int64
	ClientID  string
	UserID    int64
	Hostname  string
	Timestamp time.Time
	Data      string
	CreatedAt time.Time
	DeletedAt *time.Time
}

// NewHistory is the client-submitted form of a history entry. CreatedAt is
// assigned by the database on insert.
type NewHistory struct {
	ClientID  string
	UserID    int64
	Hostname  string
	Timestamp time.Time
	Data      string
}
