package progression

import (
	"context"
	"fmt"
	"time"

	"progression-service/internal/apperr"
	"progression-service/internal/models"
)

// VideoStore persists the per-user video watch ledger. MarkCompleted is
// an upsert keyed on (user, video); marking twice refreshes the watch
// time instead of adding a second row.
type VideoStore interface {
	MarkCompleted(ctx context.Context, completion *models.VideoCompletion) error
	ForUser(ctx context.Context, userID string) ([]models.VideoCompletion, error)
}

// VideoLedger tracks which videos a learner has finished. It is advisory
// progress state for the client; it never gates assessments or stage
// unlocks.
type VideoLedger struct {
	store VideoStore
	now   func() time.Time
}

func NewVideoLedger(store VideoStore) *VideoLedger {
	return &VideoLedger{store: store, now: time.Now}
}

func (l *VideoLedger) MarkCompleted(ctx context.Context, userID, videoID string) error {
	if videoID == "" {
		return apperr.Validation("video id is required")
	}
	completion := &models.VideoCompletion{
		UserID:        userID,
		VideoID:       videoID,
		Completed:     true,
		LastWatchedAt: l.now(),
	}
	if err := l.store.MarkCompleted(ctx, completion); err != nil {
		return fmt.Errorf("failed to mark video %s completed for user %s: %w", videoID, userID, err)
	}
	return nil
}

func (l *VideoLedger) Progress(ctx context.Context, userID string) ([]models.VideoCompletion, error) {
	completions, err := l.store.ForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load video progress for user %s: %w", userID, err)
	}
	return completions, nil
}
