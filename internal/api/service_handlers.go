package api

import (
	"net/http"
	"time"

	"github.com/hackgods/salon-scheduling/internal/appointment"
	"github.com/hackgods/salon-scheduling/internal/catalog"
)

func listServicesHandler(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := c.List(r.Context())
		if err != nil {
			handleError(w, err)
			return
		}

		resp := make([]ServiceListResponse, 0, len(services))
		for i := range services {
			resp = append(resp, toServiceListResponse(&services[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listMasterServicesHandler(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		masterID, ok := parseID(w, r, "master_id")
		if !ok {
			return
		}

		services, err := c.ListByMaster(r.Context(), masterID)
		if err != nil {
			handleError(w, err)
			return
		}

		resp := make([]ServiceListResponse, 0, len(services))
		for i := range services {
			resp = append(resp, toServiceListResponse(&services[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getServiceHandler(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		s, err := c.Get(r.Context(), id)
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toServiceListResponse(s))
	}
}

func createServiceHandler(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateServiceRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		created, err := c.Create(r.Context(), catalog.Service{
			Title:          req.Title,
			DurationQuanta: req.DurationQuanta,
			Price:          req.Price,
			MasterID:       req.MasterID,
		})
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toServiceResponse(created))
	}
}

func updateServiceHandler(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		var req UpdateServiceRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		updated, err := c.Update(r.Context(), id, catalog.Patch{
			Title:          req.Title,
			DurationQuanta: req.DurationQuanta,
			Price:          req.Price,
			MasterID:       req.MasterID,
		})
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toServiceResponse(updated))
	}
}

func deleteServiceHandler(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		if err := c.Delete(r.Context(), id); err != nil {
			handleError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func freeQuartersHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r, "id")
		if !ok {
			return
		}

		date, err := time.Parse(appointment.DateLayout, r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		free, err := svc.FreeQuarters(r.Context(), id, date)
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, FreeQuartersResponse{FreeQuarters: free})
	}
}

func scheduleHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc := svc.Schedule()
		writeJSON(w, http.StatusOK, ScheduleResponse{
			DayQuanta:      sc.DayQuanta,
			QuantumMinutes: sc.QuantumMinutes,
			DayStart:       sc.QuantumToTime(1),
			Labels:         sc.Labels(),
		})
	}
}
