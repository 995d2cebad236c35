package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/consultwise/expert-scheduling/internal/schedule"
)

func availableSlotsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseExpertParam(w, r)
		if !ok {
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		out := make([][]bool, schedule.WindowDays)
		for day := range slots {
			out[day] = slots[day][:]
		}

		writeJSON(w, http.StatusOK, SlotsResponse{
			Slots:    out,
			Periods:  schedule.PeriodStarts[:],
			BaseDate: schedule.DateKey(time.Now()),
		})
	}
}

func detailedSlotsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseExpertParam(w, r)
		if !ok {
			return
		}

		slots, err := svc.DetailedSlots(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		out := make([][]int, schedule.WindowDays)
		for day := range slots {
			row := make([]int, schedule.PeriodsPerDay)
			for period, state := range slots[day] {
				row[period] = int(state)
			}
			out[day] = row
		}

		writeJSON(w, http.StatusOK, DetailedSlotsResponse{
			Slots:    out,
			Periods:  schedule.PeriodStarts[:],
			BaseDate: schedule.DateKey(time.Now()),
		})
	}
}

func setAvailabilityHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseExpertParam(w, r)
		if !ok {
			return
		}

		var req AvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := svc.SetAvailability(r.Context(), id, req.DayOffset, req.PeriodIndex, req.Available); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func setAvailabilityBatchHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseExpertParam(w, r)
		if !ok {
			return
		}

		var req BatchAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		applied, err := svc.SetAvailabilityBatch(r.Context(), id, req.Updates)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, BatchAvailabilityResponse{Applied: applied})
	}
}
