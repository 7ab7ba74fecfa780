package streak

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateP(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestAdvanceFirstEverLog(t *testing.T) {
	rec := *NewRecord(uuid.New(), DomainFood)
	today := date(2025, time.January, 1)

	got := Advance(rec, today, RulesFor(DomainFood))

	if got.CurrentStreak != 1 {
		t.Errorf("expected streak 1 after first log, got %d", got.CurrentStreak)
	}
	if got.MaxStreak != 1 {
		t.Errorf("expected max 1, got %d", got.MaxStreak)
	}
	if got.LastLogDate == nil || !got.LastLogDate.Equal(today) {
		t.Errorf("expected last_log_date %v, got %v", today, got.LastLogDate)
	}
	if got.Allowance != 3 {
		t.Errorf("first log should not touch freezes, got %d", got.Allowance)
	}
}

func TestAdvanceIsIdempotentSameDay(t *testing.T) {
	today := date(2025, time.January, 5)
	rules := RulesFor(DomainFood)

	rec := *NewRecord(uuid.New(), DomainFood)
	once := Advance(rec, today, rules)
	twice := Advance(once, today, rules)

	if once.CurrentStreak != twice.CurrentStreak || once.Allowance != twice.Allowance || once.MaxStreak != twice.MaxStreak {
		t.Errorf("second same-day call changed the record: %+v vs %+v", once, twice)
	}
}

func TestAdvanceFoodTransitions(t *testing.T) {
	tests := []struct {
		name          string
		current       int
		maxStreak     int
		last          *time.Time
		allowance     int
		today         time.Time
		wantStreak    int
		wantAllowance int
	}{
		{
			name:    "consecutive day increments without touching freezes",
			current: 2, maxStreak: 2, last: dateP(2025, time.January, 2), allowance: 3,
			today:      date(2025, time.January, 3),
			wantStreak: 3, wantAllowance: 3,
		},
		{
			name:    "two day gap burns one freeze",
			current: 4, maxStreak: 6, last: dateP(2025, time.January, 2), allowance: 3,
			today:      date(2025, time.January, 4),
			wantStreak: 5, wantAllowance: 2,
		},
		{
			name:    "three day gap burns one freeze",
			current: 1, maxStreak: 1, last: dateP(2025, time.January, 1), allowance: 3,
			today:      date(2025, time.January, 4),
			wantStreak: 2, wantAllowance: 2,
		},
		{
			name:    "tolerable gap with no freezes left hard resets",
			current: 9, maxStreak: 9, last: dateP(2025, time.January, 2), allowance: 0,
			today:      date(2025, time.January, 4),
			wantStreak: 1, wantAllowance: 0,
		},
		{
			name:    "gap past tolerance hard resets to one",
			current: 7, maxStreak: 7, last: dateP(2025, time.January, 1), allowance: 3,
			today:      date(2025, time.January, 10),
			wantStreak: 1, wantAllowance: 3,
		},
	}

	rules := RulesFor(DomainFood)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{
				UserID:        uuid.New(),
				Domain:        DomainFood,
				CurrentStreak: tt.current,
				MaxStreak:     tt.maxStreak,
				LastLogDate:   tt.last,
				Allowance:     tt.allowance,
			}
			got := Advance(rec, tt.today, rules)
			if got.CurrentStreak != tt.wantStreak {
				t.Errorf("streak = %d, want %d", got.CurrentStreak, tt.wantStreak)
			}
			if got.Allowance != tt.wantAllowance {
				t.Errorf("allowance = %d, want %d", got.Allowance, tt.wantAllowance)
			}
			if got.MaxStreak < tt.maxStreak {
				t.Errorf("max_streak regressed: %d < %d", got.MaxStreak, tt.maxStreak)
			}
		})
	}
}

func TestAdvanceExerciseTransitions(t *testing.T) {
	tests := []struct {
		name          string
		current       int
		maxStreak     int
		last          *time.Time
		allowance     int
		today         time.Time
		wantStreak    int
		wantAllowance int
	}{
		{
			name:    "consecutive day restores buffer",
			current: 5, maxStreak: 5, last: dateP(2025, time.March, 9), allowance: 1,
			today:      date(2025, time.March, 10),
			wantStreak: 6, wantAllowance: 2,
		},
		{
			name:    "gap within buffer consumes gap minus one",
			current: 5, maxStreak: 5, last: dateP(2025, time.March, 7), allowance: 2,
			today:      date(2025, time.March, 10),
			wantStreak: 6, wantAllowance: 0,
		},
		{
			name:    "recovery bonus halves on break",
			current: 10, maxStreak: 10, last: dateP(2025, time.March, 1), allowance: 2,
			today:      date(2025, time.March, 6),
			wantStreak: 5, wantAllowance: 2,
		},
		{
			name:    "recovery bonus floors at one",
			current: 1, maxStreak: 4, last: dateP(2025, time.March, 1), allowance: 0,
			today:      date(2025, time.March, 20),
			wantStreak: 1, wantAllowance: 0,
		},
	}

	rules := RulesFor(DomainExercise)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{
				UserID:        uuid.New(),
				Domain:        DomainExercise,
				CurrentStreak: tt.current,
				MaxStreak:     tt.maxStreak,
				LastLogDate:   tt.last,
				Allowance:     tt.allowance,
			}
			got := Advance(rec, tt.today, rules)
			if got.CurrentStreak != tt.wantStreak {
				t.Errorf("streak = %d, want %d", got.CurrentStreak, tt.wantStreak)
			}
			if got.Allowance != tt.wantAllowance {
				t.Errorf("allowance = %d, want %d", got.Allowance, tt.wantAllowance)
			}
		})
	}
}

func TestMaxStreakIsMonotonic(t *testing.T) {
	rules := RulesFor(DomainFood)
	rec := *NewRecord(uuid.New(), DomainFood)

	// Build up a streak, break it, rebuild: max must never drop.
	days := []time.Time{
		date(2025, time.May, 1),
		date(2025, time.May, 2),
		date(2025, time.May, 3),
		date(2025, time.May, 20), // break
		date(2025, time.May, 21),
	}
	prevMax := 0
	for _, d := range days {
		rec = Advance(rec, d, rules)
		if rec.MaxStreak < prevMax {
			t.Fatalf("max_streak dropped from %d to %d on %v", prevMax, rec.MaxStreak, d)
		}
		prevMax = rec.MaxStreak
	}
	if rec.MaxStreak != 3 {
		t.Errorf("expected max 3, got %d", rec.MaxStreak)
	}
	if rec.CurrentStreak != 2 {
		t.Errorf("expected current 2, got %d", rec.CurrentStreak)
	}
}

func TestEvaluateExpiry(t *testing.T) {
	tests := []struct {
		name       string
		domain     Domain
		last       *time.Time
		current    int
		allowance  int
		today      time.Time
		wantStreak int
		wantVerify bool
	}{
		{
			name:   "never logged",
			domain: DomainFood, last: nil, current: 0, allowance: 3,
			today: date(2025, time.June, 1), wantStreak: 0,
		},
		{
			name:   "food within flat grace window",
			domain: DomainFood, last: dateP(2025, time.June, 1), current: 6, allowance: 0,
			today: date(2025, time.June, 3), wantStreak: 6,
		},
		{
			name:   "food past grace window reads zero despite stale row",
			domain: DomainFood, last: dateP(2025, time.June, 1), current: 6, allowance: 3,
			today: date(2025, time.June, 4), wantStreak: 0,
		},
		{
			name:   "exercise grace follows remaining buffer",
			domain: DomainExercise, last: dateP(2025, time.June, 1), current: 4, allowance: 2,
			today: date(2025, time.June, 4), wantStreak: 4,
		},
		{
			name:   "exercise with drained buffer expires sooner",
			domain: DomainExercise, last: dateP(2025, time.June, 1), current: 4, allowance: 0,
			today: date(2025, time.June, 3), wantStreak: 0,
		},
		{
			name:   "exercise same-day claim needs verification",
			domain: DomainExercise, last: dateP(2025, time.June, 3), current: 4, allowance: 2,
			today: date(2025, time.June, 3), wantStreak: 4, wantVerify: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{
				Domain:        tt.domain,
				CurrentStreak: tt.current,
				MaxStreak:     tt.current,
				LastLogDate:   tt.last,
				Allowance:     tt.allowance,
			}
			ev := Evaluate(rec, tt.today, RulesFor(tt.domain))
			if ev.Streak != tt.wantStreak {
				t.Errorf("streak = %d, want %d", ev.Streak, tt.wantStreak)
			}
			if ev.NeedsVerify != tt.wantVerify {
				t.Errorf("needsVerify = %v, want %v", ev.NeedsVerify, tt.wantVerify)
			}
		})
	}
}

func TestEvaluateDoesNotMutate(t *testing.T) {
	rec := Record{
		Domain:        DomainFood,
		CurrentStreak: 6,
		MaxStreak:     6,
		LastLogDate:   dateP(2025, time.June, 1),
		Allowance:     3,
	}
	_ = Evaluate(rec, date(2025, time.June, 30), RulesFor(DomainFood))
	if rec.CurrentStreak != 6 {
		t.Errorf("Evaluate mutated the record: %+v", rec)
	}
}

func TestReplayScenarios(t *testing.T) {
	tests := []struct {
		name          string
		domain        Domain
		dates         []time.Time
		today         time.Time
		prevMax       int
		wantStreak    int
		wantMax       int
		wantAllowance int
		wantLast      *time.Time
	}{
		{
			name:   "food no gaps",
			domain: DomainFood,
			dates: []time.Time{
				date(2025, time.January, 1),
				date(2025, time.January, 2),
				date(2025, time.January, 3),
			},
			today:      date(2025, time.January, 3),
			wantStreak: 3, wantMax: 3, wantAllowance: 3,
			wantLast: dateP(2025, time.January, 3),
		},
		{
			name:   "food tolerated gap consumes one freeze",
			domain: DomainFood,
			dates: []time.Time{
				date(2025, time.January, 1),
				date(2025, time.January, 4),
			},
			today:      date(2025, time.January, 4),
			wantStreak: 2, wantMax: 2, wantAllowance: 2,
			wantLast: dateP(2025, time.January, 4),
		},
		{
			name:   "food broken history counts only the tail",
			domain: DomainFood,
			dates: []time.Time{
				date(2025, time.January, 1),
				date(2025, time.January, 10),
			},
			today:      date(2025, time.January, 10),
			wantStreak: 1, wantMax: 1, wantAllowance: 3,
			wantLast: dateP(2025, time.January, 10),
		},
		{
			name:   "deletion correction recounts without the removed day",
			domain: DomainFood,
			dates: []time.Time{
				date(2025, time.January, 1),
				date(2025, time.January, 2),
				date(2025, time.January, 3),
				// Jan 4 deleted
				date(2025, time.January, 5),
			},
			today:   date(2025, time.January, 5),
			prevMax: 5,
			// Walking back from Jan 5: the 2-day gap to Jan 3 costs a freeze,
			// then the run continues. The incremental path would still say 5.
			wantStreak: 4, wantMax: 5, wantAllowance: 2,
			wantLast: dateP(2025, time.January, 5),
		},
		{
			name:       "empty history resets to zero state",
			domain:     DomainFood,
			dates:      nil,
			today:      date(2025, time.January, 5),
			prevMax:    8,
			wantStreak: 0, wantMax: 8, wantAllowance: 3,
			wantLast: nil,
		},
		{
			name:   "stale history keeps last date but zeroes the run",
			domain: DomainFood,
			dates: []time.Time{
				date(2025, time.January, 1),
				date(2025, time.January, 2),
			},
			today:      date(2025, time.January, 20),
			prevMax:    2,
			wantStreak: 0, wantMax: 2, wantAllowance: 3,
			wantLast: dateP(2025, time.January, 2),
		},
		{
			name:   "exercise replay uses fixed buffer without spending it",
			domain: DomainExercise,
			dates: []time.Time{
				date(2025, time.February, 1),
				date(2025, time.February, 4), // gap 3 = buffer+1
				date(2025, time.February, 7), // gap 3 again, still tolerated
				date(2025, time.February, 8),
			},
			today:      date(2025, time.February, 8),
			wantStreak: 4, wantMax: 4, wantAllowance: 2,
			wantLast: dateP(2025, time.February, 8),
		},
		{
			name:   "duplicate same-day logs count once",
			domain: DomainFood,
			dates: []time.Time{
				date(2025, time.January, 1),
				date(2025, time.January, 1),
				date(2025, time.January, 2),
			},
			today:      date(2025, time.January, 2),
			wantStreak: 2, wantMax: 2, wantAllowance: 3,
			wantLast: dateP(2025, time.January, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, maxStreak, last, allowance := Replay(tt.dates, tt.today, RulesFor(tt.domain), tt.prevMax)
			if current != tt.wantStreak {
				t.Errorf("current = %d, want %d", current, tt.wantStreak)
			}
			if maxStreak != tt.wantMax {
				t.Errorf("max = %d, want %d", maxStreak, tt.wantMax)
			}
			if allowance != tt.wantAllowance {
				t.Errorf("allowance = %d, want %d", allowance, tt.wantAllowance)
			}
			switch {
			case tt.wantLast == nil && last != nil:
				t.Errorf("last = %v, want nil", last)
			case tt.wantLast != nil && (last == nil || !last.Equal(*tt.wantLast)):
				t.Errorf("last = %v, want %v", last, tt.wantLast)
			}
		})
	}
}

func TestReplayMatchesRunLengthForGaplessSets(t *testing.T) {
	// For any gapless date set ending today, the replayed streak equals the
	// set size.
	for n := 1; n <= 31; n++ {
		var dates []time.Time
		for i := 0; i < n; i++ {
			dates = append(dates, date(2025, time.July, 1).AddDate(0, 0, i))
		}
		today := dates[len(dates)-1]
		current, _, _, _ := Replay(dates, today, RulesFor(DomainFood), 0)
		if current != n {
			t.Fatalf("n=%d: replayed streak %d", n, current)
		}
	}
}

func TestValidate(t *testing.T) {
	today := date(2025, time.August, 1)

	tests := []struct {
		name    string
		rec     Record
		corrupt bool
	}{
		{"zero state ok", Record{}, false},
		{"healthy record ok", Record{CurrentStreak: 3, MaxStreak: 5, LastLogDate: dateP(2025, time.July, 31), Allowance: 2}, false},
		{"current above max", Record{CurrentStreak: 6, MaxStreak: 5, LastLogDate: dateP(2025, time.July, 31)}, true},
		{"negative allowance", Record{Allowance: -1}, true},
		{"future last log", Record{CurrentStreak: 1, MaxStreak: 1, LastLogDate: dateP(2025, time.August, 9)}, true},
		{"streak without last log", Record{CurrentStreak: 2, MaxStreak: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.rec, today)
			if tt.corrupt && !errors.Is(err, ErrCorruptRecord) {
				t.Errorf("expected ErrCorruptRecord, got %v", err)
			}
			if !tt.corrupt && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDaysBetweenAcrossDSTBoundary(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 2025-03-09 is the US spring-forward date; the interval between the two
	// midnights is 23 hours.
	a := time.Date(2025, time.March, 8, 22, 0, 0, 0, loc)
	b := time.Date(2025, time.March, 9, 7, 0, 0, 0, loc)
	if got := DaysBetween(a, b); got != 1 {
		t.Errorf("DaysBetween across DST = %d, want 1", got)
	}
}
