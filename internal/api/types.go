package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/consultwise/expert-scheduling/internal/schedule"
)

type CreateAppointmentRequest struct {
	RequesterID     string `json:"requester_id"`
	ExpertUserID    string `json:"expert_user_id"`
	StartTime       string `json:"start_time"` // RFC 3339
	DurationMinutes int    `json:"duration_minutes"`
	Description     string `json:"description,omitempty"`
	ContactInfo     string `json:"contact_info,omitempty"`
}

type ReplyRequest struct {
	ExpertReply string `json:"expert_reply"`
}

type CancelRequest struct {
	RequesterID string `json:"requester_id"`
}

type RateRequest struct {
	RequesterID string `json:"requester_id"`
	RatingText  string `json:"rating_text,omitempty"`
	Rating      int    `json:"rating"`
}

type AvailabilityRequest struct {
	DayOffset   int  `json:"day_offset"`
	PeriodIndex int  `json:"period_index"`
	Available   bool `json:"available"`
}

type BatchAvailabilityRequest struct {
	Updates []schedule.AvailabilityUpdate `json:"updates"`
}

type BatchAvailabilityResponse struct {
	Applied int `json:"applied"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	RequesterID     uuid.UUID `json:"requester_id"`
	ExpertUserID    uuid.UUID `json:"expert_user_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Description     string    `json:"description,omitempty"`
	ContactInfo     string    `json:"contact_info,omitempty"`
	ExpertReply     *string   `json:"expert_reply,omitempty"`
	RatingText      *string   `json:"rating_text,omitempty"`
	Rating          *int      `json:"rating,omitempty"`
	RequesterName   string    `json:"requester_name,omitempty"`
	ExpertName      string    `json:"expert_name,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type SlotsResponse struct {
	Slots    [][]bool `json:"slots"` // [day][period], true = bookable
	Periods  []string `json:"periods"`
	BaseDate string   `json:"base_date"`
}

type DetailedSlotsResponse struct {
	Slots    [][]int  `json:"slots"` // 0=free 1=booked 2=unavailable
	Periods  []string `json:"periods"`
	BaseDate string   `json:"base_date"`
}

type PendingCountResponse struct {
	Pending int64 `json:"pending"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
