package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
	"github.com/fleetrent/fleetrent-backend/internal/http/response"
	"github.com/fleetrent/fleetrent-backend/pkg/logger"
)

func (h *Handlers) RegisterVehicle(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	vehicle, err := h.vehicleService.Register(r.Context(), &req)
	if err != nil {
		response.MapError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "vehicle registered", "vehicle_id", vehicle.ID, "plate", vehicle.Plate)
	response.WriteJSON(w, http.StatusCreated, vehicle)
}

func (h *Handlers) ListVehicles(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	filter := domain.VehicleFilter{
		AvailableOnly: r.URL.Query().Get("available") == "true",
		Category:      r.URL.Query().Get("category"),
	}

	vehicles, err := h.vehicleService.List(r.Context(), filter, limit, offset)
	if err != nil {
		response.MapError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"vehicles": vehicles,
		"count":    len(vehicles),
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handlers) GetVehicle(w http.ResponseWriter, r *http.Request) {
	plate := chi.URLParam(r, "plate")
	if plate == "" {
		response.BadRequest(w, "Missing vehicle plate")
		return
	}

	vehicle, err := h.vehicleService.Get(r.Context(), plate)
	if err != nil {
		response.MapError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, vehicle)
}

func (h *Handlers) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid vehicle ID")
		return
	}

	var patch domain.UpdateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	vehicle, err := h.vehicleService.Update(r.Context(), id, &patch)
	if err != nil {
		response.MapError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, vehicle)
}

func (h *Handlers) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid vehicle ID")
		return
	}

	if err := h.vehicleService.Delete(r.Context(), id); err != nil {
		response.MapError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "vehicle deleted", "vehicle_id", id)
	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "vehicle deleted"})
}
