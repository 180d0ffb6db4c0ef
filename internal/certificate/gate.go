// Package certificate gates one-time certificate issuance on completion
// of every regular stage, and verifies issued codes publicly.
package certificate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"progression-service/internal/apperr"
	"progression-service/internal/keylock"
	"progression-service/internal/models"
)

// fallbackRequiredStages matches the canonical catalog (stages 1-4 plus
// the final exam) and applies only when the catalog is not seeded yet.
const fallbackRequiredStages = 5

// AttemptStore exposes the distinct stage numbers for which the user has
// at least one passed attempt. The ledger is the sole eligibility source.
type AttemptStore interface {
	PassedStageNumbers(ctx context.Context, userID string) ([]int, error)
}

// Store persists certificates. Lookups return (nil, nil) when absent;
// Insert must fail with a ConflictError on a duplicate user so concurrent
// issuance can fall back to the winner's certificate.
type Store interface {
	ByUserID(ctx context.Context, userID string) (*models.Certificate, error)
	ByCode(ctx context.Context, code string) (*models.Certificate, error)
	Insert(ctx context.Context, cert *models.Certificate) error
}

type UserStore interface {
	ByID(ctx context.Context, id string) (*models.User, error)
}

// StageCounter reports how many regular stages (number >= 1) the catalog
// holds, which is the completion requirement.
type StageCounter interface {
	RegularStageCount(ctx context.Context) (int, error)
}

type Verification struct {
	Valid    bool       `json:"valid"`
	Code     string     `json:"code,omitempty"`
	UserName string     `json:"user_name,omitempty"`
	IssuedAt *time.Time `json:"issued_at,omitempty"`
}

type Gate struct {
	certs    Store
	attempts AttemptStore
	users    UserStore
	stages   StageCounter
	locks    *keylock.Locker
	now      func() time.Time
}

func NewGate(certs Store, attempts AttemptStore, users UserStore, stages StageCounter) *Gate {
	return &Gate{
		certs:    certs,
		attempts: attempts,
		users:    users,
		stages:   stages,
		locks:    keylock.New(),
		now:      time.Now,
	}
}

// Issue returns the user's certificate, creating it on the first eligible
// call. Issuance is idempotent: repeated and concurrent calls all yield
// the same certificate, and an ineligible user gets an IneligibleError
// with no side effect. The bool reports whether this call created the
// certificate, so callers can count actual issuances.
func (g *Gate) Issue(ctx context.Context, userID string) (*models.Certificate, bool, error) {
	unlock := g.locks.Lock(userID)
	defer unlock()

	existing, err := g.certs.ByUserID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up certificate for user %s: %w", userID, err)
	}
	if existing != nil {
		return existing, false, nil
	}

	required, err := g.stages.RegularStageCount(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to count stages: %w", err)
	}
	if required == 0 {
		required = fallbackRequiredStages
	}

	passed, err := g.attempts.PassedStageNumbers(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load passed stages for user %s: %w", userID, err)
	}
	completed := 0
	for _, n := range passed {
		if n > models.DiagnosticStageNumber {
			completed++
		}
	}
	if completed < required {
		return nil, false, &apperr.IneligibleError{Completed: completed, Required: required}
	}

	code, err := generateCode()
	if err != nil {
		return nil, false, err
	}
	cert := &models.Certificate{
		ID:       uuid.NewString(),
		UserID:   userID,
		Code:     code,
		IssuedAt: g.now(),
	}
	if err := g.certs.Insert(ctx, cert); err != nil {
		// A concurrent request won the insert; return its certificate.
		var conflict *apperr.ConflictError
		if errors.As(err, &conflict) {
			if winner, lookupErr := g.certs.ByUserID(ctx, userID); lookupErr == nil && winner != nil {
				return winner, false, nil
			}
		}
		return nil, false, fmt.Errorf("failed to insert certificate for user %s: %w", userID, err)
	}
	return cert, true, nil
}

// Get returns the user's certificate without issuing one.
func (g *Gate) Get(ctx context.Context, userID string) (*models.Certificate, error) {
	cert, err := g.certs.ByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up certificate for user %s: %w", userID, err)
	}
	if cert == nil {
		return nil, apperr.NotFound("certificate for user", userID)
	}
	return cert, nil
}

// Verify resolves a public certificate code. An unknown code yields
// Valid=false with no further detail.
func (g *Gate) Verify(ctx context.Context, code string) (*Verification, error) {
	cert, err := g.certs.ByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up certificate code: %w", err)
	}
	if cert == nil {
		return &Verification{Valid: false}, nil
	}

	verification := &Verification{
		Valid:    true,
		Code:     cert.Code,
		IssuedAt: &cert.IssuedAt,
	}
	if user, err := g.users.ByID(ctx, cert.UserID); err == nil && user != nil {
		verification.UserName = user.Name
	}
	return verification, nil
}
