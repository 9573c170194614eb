package sharelink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vaultlink-go/internal/models"

	"github.com/rs/zerolog/log"
)

// Reason is the outcome of an access-gate evaluation.
type Reason int

const (
	ReasonAllowed Reason = iota
	ReasonNotFound
	ReasonRevoked
	ReasonExpired
	ReasonExhausted
	ReasonPasswordRequired
	ReasonPasswordIncorrect
)

func (r Reason) String() string {
	switch r {
	case ReasonAllowed:
		return "allowed"
	case ReasonNotFound:
		return "not_found"
	case ReasonRevoked:
		return "revoked"
	case ReasonExpired:
		return "expired"
	case ReasonExhausted:
		return "exhausted"
	case ReasonPasswordRequired:
		return "password_required"
	case ReasonPasswordIncorrect:
		return "password_incorrect"
	default:
		return "unknown"
	}
}

// Err maps the reason onto the package's sentinel errors; nil for allowed.
func (r Reason) Err() error {
	switch r {
	case ReasonAllowed:
		return nil
	case ReasonNotFound:
		return ErrNotFound
	case ReasonRevoked:
		return ErrRevoked
	case ReasonExpired:
		return ErrExpired
	case ReasonExhausted:
		return ErrExhausted
	case ReasonPasswordRequired:
		return ErrPasswordRequired
	case ReasonPasswordIncorrect:
		return ErrPasswordIncorrect
	default:
		return fmt.Errorf("unknown gate reason %d", int(r))
	}
}

// Decision is the result of checking a token against its link record.
type Decision struct {
	Reason Reason
	Link   *models.SharedLink
}

func (d *Decision) Allowed() bool {
	return d.Reason == ReasonAllowed
}

// Evaluate runs the gate's state machine over a link record. Checks run in a
// fixed order and the first failure wins: revoked, expired, exhausted, then
// password. The function never mutates the record; the caller applies the
// revoke-on-exhaustion transition when it sees ReasonExhausted.
//
// A missing password and a wrong password are reported separately so clients
// can prompt instead of just failing, but both deny access.
func Evaluate(link *models.SharedLink, password string, now time.Time) Reason {
	switch {
	case link == nil:
		return ReasonNotFound
	case link.Revoked:
		return ReasonRevoked
	case link.IsExpired(now):
		return ReasonExpired
	case link.IsExhausted():
		return ReasonExhausted
	}

	if link.HasPassword() {
		if password == "" {
			return ReasonPasswordRequired
		}
		if !CheckPassword(password, *link.PasswordHash) {
			return ReasonPasswordIncorrect
		}
	}

	return ReasonAllowed
}

// Gate resolves tokens through the registry and evaluates access policy.
// Policy lives here, not in the registry, so it can be tested against plain
// records without storage behind them.
type Gate struct {
	repo Repository
}

func NewGate(repo Repository) *Gate {
	return &Gate{repo: repo}
}

// Check looks up the token and evaluates the state machine against the
// current time. Exhaustion marks the link revoked so later checks fail fast
// on the revoked flag; that write is idempotent and is the only mutation any
// denial path performs.
func (g *Gate) Check(ctx context.Context, token, password string) (*Decision, error) {
	link, err := g.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Decision{Reason: ReasonNotFound}, nil
		}
		return nil, fmt.Errorf("looking up link: %w", err)
	}

	reason := Evaluate(link, password, time.Now())

	if reason == ReasonExhausted && !link.Revoked {
		if err := g.repo.Revoke(ctx, token); err != nil {
			// The link stays dead either way; the next check recomputes
			// the comparison.
			log.Error().Err(err).Str("token", token).Msg("failed to revoke exhausted link")
		}
	}

	return &Decision{Reason: reason, Link: link}, nil
}
