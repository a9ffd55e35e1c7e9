package handlers

import (
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"fuel-route-service/internal/api/dto"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/ports"
)

const (
	defaultStationLimit = 50
	maxStationLimit     = 500
)

var stateCodePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)

// StationHandler exposes read-only catalog browsing.
type StationHandler struct {
	Lister ports.StationLister
}

func (h *StationHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowOnly(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	filter := ports.StationFilter{Limit: defaultStationLimit}

	if state := strings.TrimSpace(q.Get("state")); state != "" {
		if !stateCodePattern.MatchString(state) {
			writeError(w, r, http.StatusBadRequest, "state must be a two-letter code")
			return
		}
		filter.State = strings.ToUpper(state)
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxStationLimit {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		filter.Limit = n
	}

	stations, err := h.Lister.ListStations(r.Context(), filter)
	if err != nil {
		reqID := obs.RequestID(r.Context())
		log.Printf("req_id=%s list stations failed: %v", reqID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListStationsResponse{
		Stations: make([]dto.StationResponse, 0, len(stations)),
	}
	for _, s := range stations {
		res.Stations = append(res.Stations, dto.StationResponse{
			ID:              s.ID,
			OPISTruckstopID: s.OPISID,
			Name:            s.Name,
			Address:         s.Address,
			City:            s.City,
			State:           s.State,
			RackID:          s.RackID,
			RetailPrice:     s.RetailPrice,
			Latitude:        s.Latitude,
			Longitude:       s.Longitude,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
