package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
	"github.com/fleetrent/fleetrent-backend/internal/http/response"
	"github.com/fleetrent/fleetrent-backend/pkg/logger"
)

// Reserve books a vehicle. Authenticated clients rent under their own
// account; anonymous callers rent as guests and get back a manage token.
func (h *Handlers) Reserve(w http.ResponseWriter, r *http.Request) {
	var req domain.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if claims := getClaims(r); claims != nil && claims.Role != "guest" {
		req.UserEmail = claims.Email
	}

	summary, err := h.rentalService.Reserve(r.Context(), &req)
	if err != nil {
		response.MapError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "rental created",
		"rental_id", summary.RentalID,
		"plate", summary.Plate,
		"user_ref", summary.UserRef,
		"total_cost", summary.TotalCost,
	)
	response.WriteJSON(w, http.StatusCreated, summary)
}

// Quote prices a reservation without booking anything.
func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	req := domain.ReserveRequest{
		Plate:     r.URL.Query().Get("plate"),
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
		UserEmail: r.URL.Query().Get("user_email"),
	}

	if claims := getClaims(r); claims != nil && claims.Role != "guest" {
		req.UserEmail = claims.Email
	}

	total, err := h.rentalService.Quote(r.Context(), &req)
	if err != nil {
		response.MapError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"plate":      req.Plate,
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"total_cost": total,
	})
}

func (h *Handlers) CompleteRental(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid rental ID")
		return
	}

	released, err := h.rentalService.Complete(r.Context(), id)
	if err != nil {
		response.MapError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "rental completed", "rental_id", id, "released", released)
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "rental completed",
		"released": released,
	})
}

// GetRental returns a single rental. Clients may only read their own.
func (h *Handlers) GetRental(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid rental ID")
		return
	}

	rental, err := h.rentalService.Get(r.Context(), id)
	if err != nil {
		response.MapError(w, err)
		return
	}

	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Missing or invalid authorization header")
		return
	}
	if claims.Role != "admin" && (rental.UserID == nil || *rental.UserID != claims.Sub) {
		response.Forbidden(w, "You can only view your own rentals")
		return
	}

	response.WriteJSON(w, http.StatusOK, rental.ToDTO())
}

// History lists a user's rentals in insertion order.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Missing or invalid authorization header")
		return
	}
	if claims.Role != "admin" && claims.Sub != userID {
		response.Forbidden(w, "You can only view your own rental history")
		return
	}

	limit, offset := parsePagination(r)
	rentals, err := h.rentalService.History(r.Context(), userID, limit, offset)
	if err != nil {
		response.MapError(w, err)
		return
	}

	dtos := make([]domain.RentalDTO, 0, len(rentals))
	for i := range rentals {
		dtos = append(dtos, rentals[i].ToDTO())
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"rentals": dtos,
		"count":   len(dtos),
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handlers) ListRentals(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	rentals, err := h.rentalService.List(r.Context(), limit, offset)
	if err != nil {
		response.MapError(w, err)
		return
	}

	dtos := make([]domain.RentalDTO, 0, len(rentals))
	for i := range rentals {
		dtos = append(dtos, rentals[i].ToDTO())
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"rentals": dtos,
		"count":   len(dtos),
		"limit":   limit,
		"offset":  offset,
	})
}

// GetGuestRental looks a rental up by its manage token.
func (h *Handlers) GetGuestRental(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		response.BadRequest(w, "Missing manage token")
		return
	}

	rental, err := h.rentalService.GetByToken(r.Context(), token)
	if err != nil {
		response.MapError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, rental.ToDTO())
}

// CompleteGuestRental finishes a guest rental via its manage token.
func (h *Handlers) CompleteGuestRental(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		response.BadRequest(w, "Missing manage token")
		return
	}

	released, err := h.rentalService.CompleteByToken(r.Context(), token)
	if err != nil {
		response.MapError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "guest rental completed", "released", released)
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "rental completed",
		"released": released,
	})
}
