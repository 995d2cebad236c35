package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/consultwise/expert-scheduling/internal/booking"
	redisclient "github.com/consultwise/expert-scheduling/internal/redis"
	"github.com/consultwise/expert-scheduling/internal/schedule"
)

// BookingService is the surface the handlers need from the coordinator.
// Satisfied by *booking.Service.
type BookingService interface {
	Create(ctx context.Context, req booking.CreateRequest) (*booking.Appointment, error)
	Confirm(ctx context.Context, id uuid.UUID, expertReply string) (*booking.Appointment, error)
	Reject(ctx context.Context, id uuid.UUID, expertReply string) (*booking.Appointment, error)
	Cancel(ctx context.Context, id, requesterID uuid.UUID) (*booking.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID) (*booking.Appointment, error)
	Rate(ctx context.Context, id, requesterID uuid.UUID, ratingText string, rating int) (*booking.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*booking.Detail, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]booking.Appointment, error)
	ListByExpertUser(ctx context.Context, expertUserID uuid.UUID, limit, offset int) ([]booking.Appointment, error)
	PendingCount(ctx context.Context, expertUserID uuid.UUID) (int64, error)
	AvailableSlots(ctx context.Context, expertUserID uuid.UUID) ([schedule.WindowDays][schedule.PeriodsPerDay]bool, error)
	DetailedSlots(ctx context.Context, expertUserID uuid.UUID) ([schedule.WindowDays][schedule.PeriodsPerDay]schedule.SlotState, error)
	SetAvailability(ctx context.Context, expertUserID uuid.UUID, dayOffset, period int, available bool) error
	SetAvailabilityBatch(ctx context.Context, expertUserID uuid.UUID, updates []schedule.AvailabilityUpdate) (int, error)
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		RequesterID:     a.RequesterID,
		ExpertUserID:    a.ExpertUserID,
		StartTime:       a.StartTime,
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		Description:     a.Description,
		ContactInfo:     a.ContactInfo,
		ExpertReply:     a.ExpertReply,
		RatingText:      a.RatingText,
		Rating:          a.Rating,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func createAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		requesterID, err := uuid.Parse(req.RequesterID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_requester_id", "requester_id must be a valid UUID")
			return
		}

		expertUserID, err := uuid.Parse(req.ExpertUserID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_expert_user_id", "expert_user_id must be a valid UUID")
			return
		}

		startTime, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
			return
		}

		appt, err := svc.Create(r.Context(), booking.CreateRequest{
			RequesterID:     requesterID,
			ExpertUserID:    expertUserID,
			StartTime:       startTime,
			DurationMinutes: req.DurationMinutes,
			Description:     req.Description,
			ContactInfo:     req.ContactInfo,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := toAppointmentResponse(&detail.Appointment)
		resp.RequesterName = detail.RequesterName
		resp.ExpertName = detail.ExpertName
		writeJSON(w, http.StatusOK, resp)
	}
}

func listAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		var (
			appts []booking.Appointment
			err   error
		)

		switch {
		case r.URL.Query().Get("user_id") != "":
			id, parseErr := uuid.Parse(r.URL.Query().Get("user_id"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_user_id", "user_id must be a valid UUID")
				return
			}
			appts, err = svc.ListByRequester(r.Context(), id, limit, offset)
		case r.URL.Query().Get("expert_user_id") != "":
			id, parseErr := uuid.Parse(r.URL.Query().Get("expert_user_id"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_expert_user_id", "expert_user_id must be a valid UUID")
				return
			}
			appts, err = svc.ListByExpertUser(r.Context(), id, limit, offset)
		default:
			writeError(w, http.StatusBadRequest, "missing_filter", "user_id or expert_user_id is required")
			return
		}

		if err != nil {
			handleBookingError(w, err)
			return
		}

		out := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			out = append(out, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func confirmAppointmentHandler(svc BookingService) http.HandlerFunc {
	return replyTransitionHandler(svc.Confirm)
}

func rejectAppointmentHandler(svc BookingService) http.HandlerFunc {
	return replyTransitionHandler(svc.Reject)
}

// replyTransitionHandler covers confirm and reject, which share the
// id + expert reply shape.
func replyTransitionHandler(op func(ctx context.Context, id uuid.UUID, reply string) (*booking.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req ReplyRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}

		appt, err := op(r.Context(), id, req.ExpertReply)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req CancelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		requesterID, err := uuid.Parse(req.RequesterID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_requester_id", "requester_id must be a valid UUID")
			return
		}

		appt, err := svc.Cancel(r.Context(), id, requesterID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func completeAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.Complete(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rateAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req RateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		requesterID, err := uuid.Parse(req.RequesterID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_requester_id", "requester_id must be a valid UUID")
			return
		}

		appt, err := svc.Rate(r.Context(), id, requesterID, req.RatingText, req.Rating)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func pendingCountHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseExpertParam(w, r)
		if !ok {
			return
		}

		count, err := svc.PendingCount(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, PendingCountResponse{Pending: count})
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseExpertParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "expertUserID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_expert_user_id", "expert user id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidDuration),
		errors.Is(err, booking.ErrInvalidRating),
		errors.Is(err, booking.ErrOutsideWindow),
		errors.Is(err, schedule.ErrSlotOutOfRange):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, booking.ErrRequesterNotFound),
		errors.Is(err, booking.ErrExpertNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, booking.ErrNotRequester):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, booking.ErrTimeConflict):
		writeError(w, http.StatusConflict, "time_conflict", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, booking.ErrSlotContended),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
