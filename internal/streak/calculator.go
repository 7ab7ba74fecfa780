package streak

import (
	"fmt"
	"sort"
	"time"
)

// Advance applies one qualifying activity logged on today. It is pure: the
// caller owns persistence and concurrency. Calling it twice for the same
// calendar day is a no-op, which is what keeps rapid double-submissions from
// double counting.
func Advance(rec Record, today time.Time, rules Rules) Record {
	today = DateOf(today)

	if rec.LastLogDate != nil && sameDay(*rec.LastLogDate, today) {
		return rec
	}

	switch {
	case rec.LastLogDate == nil:
		// First ever log.
		rec.CurrentStreak = 1

	default:
		gap := DaysBetween(*rec.LastLogDate, today)
		switch {
		case gap == 1:
			rec.CurrentStreak++
			if rules.RestoreOnConsecutive {
				rec.Allowance = rules.StartingAllowance
			}

		case toleratedGap(gap, rec.Allowance, rules):
			if rules.Domain == DomainExercise {
				rec.Allowance = max(0, rec.Allowance-(gap-1))
			} else {
				rec.Allowance--
			}
			rec.CurrentStreak++

		default:
			// Streak broken.
			if rules.Break == BreakHalve {
				rec.CurrentStreak = max(1, rec.CurrentStreak/2)
			} else {
				rec.CurrentStreak = 1
			}
		}
	}

	if rec.CurrentStreak > rec.MaxStreak {
		rec.MaxStreak = rec.CurrentStreak
	}
	rec.LastLogDate = &today
	rec.UpdatedAt = time.Now()
	return rec
}

// toleratedGap reports whether a gap of this size can be absorbed by the
// remaining allowance. Food burns one freeze for a 2-3 day gap; exercise
// tolerates anything within buffer+1.
func toleratedGap(gap, allowance int, rules Rules) bool {
	if rules.Domain == DomainExercise {
		return gap <= allowance+1
	}
	return gap >= 2 && gap <= 3 && allowance > 0
}

// Evaluation is the display-facing view of a record. The stored row is left
// untouched even when the streak has expired; expiry is pull-based.
type Evaluation struct {
	Streak int

	// NeedsVerify is set for exercise records claiming a log today: the
	// incremental path can run speculatively, so the caller must confirm a
	// qualifying activity really exists for today and recompute if not.
	NeedsVerify bool
}

// Evaluate answers "what streak do we show right now" without mutating rec.
func Evaluate(rec Record, today time.Time, rules Rules) Evaluation {
	if rec.LastLogDate == nil {
		return Evaluation{}
	}

	days := DaysBetween(*rec.LastLogDate, today)
	if days > rules.GraceWindowDays(rec.Allowance) {
		return Evaluation{}
	}

	return Evaluation{
		Streak:      rec.CurrentStreak,
		NeedsVerify: rules.Domain == DomainExercise && days == 0,
	}
}

// Validate detects impossible stored values: a negative or inverted streak
// pair, a negative allowance, or a last-log date in the future. The service
// treats any of these as a cue to replay history.
func Validate(rec Record, today time.Time) error {
	if rec.CurrentStreak < 0 || rec.MaxStreak < 0 || rec.Allowance < 0 {
		return fmt.Errorf("%w: negative counter", ErrCorruptRecord)
	}
	if rec.CurrentStreak > rec.MaxStreak {
		return fmt.Errorf("%w: current_streak %d exceeds max_streak %d", ErrCorruptRecord, rec.CurrentStreak, rec.MaxStreak)
	}
	if rec.LastLogDate == nil {
		if rec.CurrentStreak != 0 {
			return fmt.Errorf("%w: streak %d with no last_log_date", ErrCorruptRecord, rec.CurrentStreak)
		}
		return nil
	}
	if DateOf(*rec.LastLogDate).After(DateOf(today)) {
		return fmt.Errorf("%w: last_log_date in the future", ErrCorruptRecord)
	}
	return nil
}

// replayGapBudget bounds how many tolerated gaps a full replay may absorb.
// Food gets a flat pool of three freezes across the whole walk; exercise
// tolerates any gap within its fixed starting buffer+1 without spending
// anything.
const replayFreezePool = 3

// Replay rebuilds a record's counters from the complete set of qualifying
// dates. This is the authoritative correction path after deletions: the
// incremental Advance only moves forward and cannot un-count a removed day.
// prevMax preserves the high-water mark, which is monotonic by contract.
func Replay(dates []time.Time, today time.Time, rules Rules, prevMax int) (current int, maxStreak int, lastLog *time.Time, allowance int) {
	today = DateOf(today)
	days := dedupeDates(dates)
	allowance = rules.StartingAllowance
	maxStreak = prevMax

	if len(days) == 0 {
		return 0, maxStreak, nil, allowance
	}

	mostRecent := days[len(days)-1]
	lastLog = &mostRecent

	if DaysBetween(mostRecent, today) > rules.GraceWindowDays(rules.StartingAllowance) {
		// Too stale to display; keep the history reference but zero the run.
		return 0, maxStreak, lastLog, allowance
	}

	current = 1
	pool := replayFreezePool
walk:
	for i := len(days) - 2; i >= 0; i-- {
		gap := DaysBetween(days[i], days[i+1])
		switch {
		case gap == 1:
			current++
		case rules.Domain == DomainExercise && gap <= rules.StartingAllowance+1:
			current++
		case rules.Domain == DomainFood && gap >= 2 && gap <= 3 && pool > 0:
			pool--
			current++
		default:
			break walk
		}
	}

	if rules.Domain == DomainFood {
		allowance = rules.StartingAllowance - (replayFreezePool - pool)
	}
	if current > maxStreak {
		maxStreak = current
	}
	return current, maxStreak, lastLog, allowance
}

func dedupeDates(dates []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := DateOf(d)
		if !seen[day] {
			seen[day] = true
			out = append(out, day)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
