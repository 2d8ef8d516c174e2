package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackgods/salon-scheduling/internal/appointment"
	"github.com/hackgods/salon-scheduling/internal/catalog"
	redisclient "github.com/hackgods/salon-scheduling/internal/redis"
	"github.com/hackgods/salon-scheduling/internal/schedule"
	"github.com/hackgods/salon-scheduling/internal/user"
)

const internalErrorDetails = "something went wrong, please try again later"

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, catalog.ErrMasterNotFound):
		writeError(w, http.StatusNotFound, "master_not_found", err.Error())
	case errors.Is(err, catalog.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, appointment.ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, catalog.ErrInvalidService):
		writeError(w, http.StatusBadRequest, "invalid_service", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, appointment.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, appointment.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, user.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "invalid_role", err.Error())
	case errors.Is(err, user.ErrLoginTaken):
		writeError(w, http.StatusBadRequest, "login_taken", "user with this login already exists")
	case errors.Is(err, user.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", internalErrorDetails)
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrOutOfBounds),
		errors.Is(err, schedule.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, "out_of_bounds", err.Error())
	case errors.Is(err, schedule.ErrOverlap):
		writeError(w, http.StatusConflict, "overlap", err.Error())
	case errors.Is(err, appointment.ErrDayBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "day_being_booked", "master's day is currently being booked, please retry shortly")
	default:
		handleError(w, err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_"+param, param+" must be a positive integer")
		return 0, false
	}
	return id, true
}
