package api

import (
	"net/http"
	"time"

	"github.com/hackgods/salon-scheduling/internal/appointment"
)

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		date, err := time.Parse(appointment.DateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		clientID := req.ClientID
		if clientID == 0 {
			p, _ := principalFrom(r.Context())
			clientID = p.UserID
		}

		detail, err := svc.BookAppointment(r.Context(), appointment.BookInput{
			ClientID:     clientID,
			ServiceID:    req.ServiceID,
			Date:         date,
			StartQuantum: req.Quarter,
			Status:       appointment.AppointmentStatus(req.Status),
			IsPaid:       req.IsPaid,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(detail))
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAppointments(r.Context())
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentList(list))
	}
}

func listClientAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := principalFrom(r.Context())

		list, err := svc.ListClientAppointments(r.Context(), p.UserID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentList(list))
	}
}

func listMasterAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := principalFrom(r.Context())

		list, err := svc.ListMasterAppointments(r.Context(), p.UserID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentList(list))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(detail))
	}
}

func updateAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var u appointment.Update
		if req.Status != nil {
			st := appointment.AppointmentStatus(*req.Status)
			u.Status = &st
		}
		u.IsPaid = req.IsPaid

		detail, err := svc.UpdateAppointment(r.Context(), id, u)
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(detail))
	}
}

func deleteAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteAppointment(r.Context(), id); err != nil {
			handleError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func createPaymentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePaymentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.RecordPayment(r.Context(), req.AppointmentID, req.Amount)
		if err != nil {
			handleError(w, err)
			return
		}

		detail, err := svc.GetAppointment(r.Context(), p.AppointmentID)
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, PaymentResponse{
			Date:           detail.Date.Format(appointment.DateLayout),
			Time:           detail.StartTime,
			ServiceTitle:   detail.ServiceTitle,
			ClientFullName: detail.ClientFullName,
			Amount:         p.Amount,
		})
	}
}

func listMyPaymentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := principalFrom(r.Context())

		payments, err := svc.ListMasterPayments(r.Context(), p.UserID)
		if err != nil {
			handleError(w, err)
			return
		}

		resp := make([]PaymentResponse, 0, len(payments))
		for _, pd := range payments {
			resp = append(resp, PaymentResponse{
				Date:           pd.Date.Format(appointment.DateLayout),
				Time:           pd.StartTime,
				ServiceTitle:   pd.ServiceTitle,
				ClientFullName: pd.ClientFullName,
				Amount:         pd.Amount,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
