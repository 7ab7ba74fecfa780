package calendar

import "time"

type CalendarDay struct {
	Date          time.Time `json:"date" db:"date"`
	LoggedFood    bool      `json:"logged_food" db:"logged_food"`
	LoggedWorkout bool      `json:"logged_workout" db:"logged_workout"`
	IsToday       bool      `json:"is_today"`
}

type CalendarResponse struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []*CalendarDay `json:"days"`
}
