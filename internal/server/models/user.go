// Package models defines the persisted entities of the sync server: users and
// their sessions, the legacy history log, and the generic record store.
package models

import "time"

// User is the identity every other entity hangs off. VerifiedAt is only
// populated on backends whose users table carries the column.
type User struct {
	ID         int64
	Username   string
	Email      string
	Password   string
	VerifiedAt *time.Time
}

// NewUser is the signup payload; Password is already hashed by the caller.
type NewUser struct {
	Username string
	Email    string
	Password string
}

// Session is an opaque bearer token bound to a user. Created on login,
// never updated, deleted on logout or user deletion.
type Session struct {
	ID     int64
	UserID int64
	Token  string
}

type NewSession struct {
	UserID int64
	Token  string
}
