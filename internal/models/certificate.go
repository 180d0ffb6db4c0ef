package models

import "time"

// Certificate is issued at most once per user. Code is the unguessable
// public verification token; the (user, code) mapping is immutable once
// created.
type Certificate struct {
	ID       string    `bson:"_id,omitempty" json:"id"`
	UserID   string    `bson:"user_id" json:"user_id"`
	Code     string    `bson:"code" json:"code"`
	IssuedAt time.Time `bson:"issued_at" json:"issued_at"`
}
