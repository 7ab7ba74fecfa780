package streak

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// Domain separates the two streak kinds the app tracks. Food and exercise
// streaks live in the same table but never share a record.
type Domain string

const (
	DomainFood     Domain = "food"
	DomainExercise Domain = "exercise"
)

// ErrCorruptRecord marks a stored record with impossible values. Callers are
// expected to fall back to a full recompute from history instead of trusting it.
var ErrCorruptRecord = errors.New("corrupt streak record")

type Record struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	Domain        Domain     `json:"domain" db:"domain"`
	CurrentStreak int        `json:"current_streak" db:"current_streak"`
	MaxStreak     int        `json:"max_streak" db:"max_streak"`
	LastLogDate   *time.Time `json:"last_log_date" db:"last_log_date"`
	Allowance     int        `json:"allowance" db:"allowance"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// BreakPolicy is what happens to the current streak once a gap exceeds the
// domain's tolerance. Food hard-resets, exercise keeps half as a recovery
// bonus. The asymmetry is a product decision, not a bug; keep them separate.
type BreakPolicy int

const (
	BreakHardReset BreakPolicy = iota
	BreakHalve
)

type Rules struct {
	Domain            Domain
	StartingAllowance int
	Break             BreakPolicy

	// Exercise restores its buffer to the starting value on every
	// consecutive-day log. Food freezes only come back via the monthly
	// replenishment job.
	RestoreOnConsecutive bool
}

func RulesFor(d Domain) Rules {
	if d == DomainExercise {
		return Rules{
			Domain:               DomainExercise,
			StartingAllowance:    2,
			Break:                BreakHalve,
			RestoreOnConsecutive: true,
		}
	}
	return Rules{
		Domain:            DomainFood,
		StartingAllowance: 3,
		Break:             BreakHardReset,
	}
}

// GraceWindowDays is how many days a streak stays displayable after the last
// log. Food uses a flat two days; exercise follows its remaining buffer.
func (r Rules) GraceWindowDays(allowance int) int {
	if r.Domain == DomainExercise {
		return allowance + 1
	}
	return 2
}

// NewRecord returns the lazily-created zero state for a user.
func NewRecord(userID uuid.UUID, d Domain) *Record {
	now := time.Now()
	return &Record{
		ID:        uuid.New(),
		UserID:    userID,
		Domain:    d,
		Allowance: RulesFor(d).StartingAllowance,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DateOf truncates t to its calendar date in t's own location. Qualifying
// dates are compared date-only with no timezone normalization, matching the
// mobile client's device-local behavior. DST boundary mismatches are a known,
// inherited risk.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from a to b. Rounding absorbs the 23h/25h
// midnight-to-midnight intervals that DST transitions produce.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(DateOf(b).Sub(DateOf(a)).Hours() / 24))
}

func sameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
