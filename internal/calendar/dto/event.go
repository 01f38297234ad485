package dto

import "time"

type CreateEventRequest struct {
	Summary     string    `json:"summary" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	Attendees   []string  `json:"attendees"`
	IsAllDay    bool      `json:"is_all_day"`
}

type UpdateEventRequest struct {
	Summary     *string    `json:"summary"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
}

type FreeSlotsRequest struct {
	MinGapMinutes int `form:"min_gap" json:"min_gap_minutes"`
	HorizonDays   int `form:"horizon_days" json:"horizon_days"`
}
