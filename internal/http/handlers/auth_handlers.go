package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
	"github.com/fleetrent/fleetrent-backend/internal/http/response"
	"github.com/fleetrent/fleetrent-backend/pkg/auth"
	"github.com/fleetrent/fleetrent-backend/pkg/logger"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		response.MapError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "user registered", "user_id", user.ID, "email", user.Email)
	response.WriteJSON(w, http.StatusCreated, user.ToUserInfo())
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if domain.IsValidation(err) {
			response.Unauthorized(w, err.Error())
			return
		}
		response.MapError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Missing or invalid authorization header")
		return
	}

	var req domain.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), claims.Sub, &req); err != nil {
		response.MapError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	users, err := h.authService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		response.MapError(w, err)
		return
	}

	infos := make([]*domain.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].ToUserInfo())
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"users":  infos,
		"count":  len(infos),
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	if err := h.authService.DeleteUser(r.Context(), id); err != nil {
		response.MapError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "user deleted", "user_id", id)
	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// GuestSession issues a short-lived guest-scope token so an
// unauthenticated renter can manage their rentals by manage token.
func (h *Handlers) GuestSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if !domain.IsValidEmail(req.Email) {
		response.BadRequest(w, "A valid email is required")
		return
	}

	token, err := auth.NewGuestSession(req.Email, h.cfg.Auth.JWTSecret, h.cfg.Auth.GuestSessionTTL)
	if err != nil {
		response.MapError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_in": int(h.cfg.Auth.GuestSessionTTL.Seconds()),
	})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Missing or invalid authorization header")
		return
	}

	user, err := h.authService.GetUser(r.Context(), claims.Sub)
	if err != nil {
		response.MapError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, user.ToUserInfo())
}
