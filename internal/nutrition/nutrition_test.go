package nutrition

import (
	"errors"
	"math"
	"testing"
)

func TestBMRMifflinStJeor(t *testing.T) {
	tests := []struct {
		name string
		p    Profile
		want float64
	}{
		{
			name: "male reference",
			p:    Profile{Sex: SexMale, Age: 30, HeightCm: 180, WeightKg: 80},
			// 10*80 + 6.25*180 - 5*30 + 5
			want: 1780,
		},
		{
			name: "female reference",
			p:    Profile{Sex: SexFemale, Age: 25, HeightCm: 165, WeightKg: 60},
			// 10*60 + 6.25*165 - 5*25 - 161
			want: 1345.25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BMR(tt.p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("BMR = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestIncompleteProfileIsAnErrorNotADefault(t *testing.T) {
	incomplete := []Profile{
		{},
		{Sex: SexMale, HeightCm: 180, WeightKg: 80},               // no age
		{Sex: SexMale, Age: 30, WeightKg: 80},                     // no height
		{Sex: SexMale, Age: 30, HeightCm: 180},                    // no weight
		{Sex: "other", Age: 30, HeightCm: 180, WeightKg: 80},      // unknown sex
		{Sex: SexMale, Age: -1, HeightCm: 180, WeightKg: 80},      // bad age
	}
	for i, p := range incomplete {
		if _, err := BMR(p); !errors.Is(err, ErrIncompleteProfile) {
			t.Errorf("case %d: expected ErrIncompleteProfile, got %v", i, err)
		}
	}
}

func TestTDEERequiresKnownActivityLevel(t *testing.T) {
	p := Profile{Sex: SexMale, Age: 30, HeightCm: 180, WeightKg: 80, ActivityLevel: "couch"}
	if _, err := TDEE(p); !errors.Is(err, ErrIncompleteProfile) {
		t.Errorf("expected ErrIncompleteProfile, got %v", err)
	}

	p.ActivityLevel = ActivityModerate
	got, err := TDEE(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 1780 * 1.55
	if math.Abs(got-want) > 0.01 {
		t.Errorf("TDEE = %.2f, want %.2f", got, want)
	}
}

func TestCalorieTarget(t *testing.T) {
	base := Profile{Sex: SexMale, Age: 30, HeightCm: 180, WeightKg: 80, ActivityLevel: ActivitySedentary}
	tdee := 1780 * 1.2

	tests := []struct {
		goal Goal
		want float64
	}{
		{GoalLose, tdee - 500},
		{GoalMaintain, tdee},
		{GoalGain, tdee + 500},
	}
	for _, tt := range tests {
		p := base
		p.Goal = tt.goal
		got, err := CalorieTarget(p)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.goal, err)
		}
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("%s: target = %.2f, want %.2f", tt.goal, got, tt.want)
		}
	}
}

func TestCalorieTargetFloorsAt1200(t *testing.T) {
	p := Profile{Sex: SexFemale, Age: 80, HeightCm: 150, WeightKg: 40, ActivityLevel: ActivitySedentary, Goal: GoalLose}
	got, err := CalorieTarget(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got < 1200 {
		t.Errorf("target %.2f below the 1200 floor", got)
	}
}

func TestMacrosSplit(t *testing.T) {
	m := Macros(2000)
	if m.ProteinG != 150 { // 2000*0.3/4
		t.Errorf("protein = %.0f, want 150", m.ProteinG)
	}
	if m.CarbsG != 200 { // 2000*0.4/4
		t.Errorf("carbs = %.0f, want 200", m.CarbsG)
	}
	if m.FatG != 67 { // round(2000*0.3/9)
		t.Errorf("fat = %.0f, want 67", m.FatG)
	}
}

func TestWeightProgressPercent(t *testing.T) {
	tests := []struct {
		name                   string
		start, current, goal   float64
		want                   float64
	}{
		{"halfway down", 100, 90, 80, 50},
		{"at goal", 100, 80, 80, 100},
		{"overshoot clamps to 100", 100, 75, 80, 100},
		{"regression clamps to 0", 100, 105, 80, 0},
		{"gaining direction", 60, 65, 70, 50},
		{"no distance to cover", 80, 80, 80, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightProgressPercent(tt.start, tt.current, tt.goal)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("progress = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestDefaultProfileIsComplete(t *testing.T) {
	if _, err := CalorieTarget(DefaultProfile()); err != nil {
		t.Errorf("DefaultProfile must pass validation: %v", err)
	}
}
