package stats

type DaysStat struct {
	Period     string `json:"period"` // "week", "month", "year", "all_time"
	DaysLogged int    `json:"days_logged" db:"days_logged"`
	TotalDays  int    `json:"total_days"`
}

type UserStats struct {
	TodayLogged       bool `json:"today_logged"`
	DaysThisWeek      int  `json:"days_this_week"`
	DaysThisMonth     int  `json:"days_this_month"`
	TotalDaysLogged   int  `json:"total_days_logged"`
	FoodStreak        int  `json:"food_streak"`
	FoodMaxStreak     int  `json:"food_max_streak"`
	ExerciseStreak    int  `json:"exercise_streak"`
	ExerciseMaxStreak int  `json:"exercise_max_streak"`
	FreezesLeft       int  `json:"freezes_left"`
	WorkoutsThisWeek  int  `json:"workouts_this_week"`
}
