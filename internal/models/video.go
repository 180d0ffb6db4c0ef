package models

import "time"

// VideoCompletion is one row of the per-user video watch ledger. Videos
// themselves are owned by the content service; only the opaque video id
// crosses into this service. One row per (user, video), refreshed on
// re-watch.
type VideoCompletion struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	UserID        string    `bson:"user_id" json:"user_id"`
	VideoID       string    `bson:"video_id" json:"video_id"`
	Completed     bool      `bson:"completed" json:"completed"`
	LastWatchedAt time.Time `bson:"last_watched_at" json:"last_watched_at"`
}
