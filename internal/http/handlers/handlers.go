package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/fleetrent/fleetrent-backend/internal/http/response"
	"github.com/fleetrent/fleetrent-backend/internal/service"
	"github.com/fleetrent/fleetrent-backend/pkg/auth"
	"github.com/fleetrent/fleetrent-backend/pkg/config"
	"github.com/fleetrent/fleetrent-backend/pkg/logger"
)

type contextKey string

const claimsKey contextKey = "claims"

type Handlers struct {
	rentalService  service.RentalService
	vehicleService service.VehicleService
	authService    service.AuthService
	cfg            *config.Config
}

func New(
	rentalService service.RentalService,
	vehicleService service.VehicleService,
	authService service.AuthService,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		rentalService:  rentalService,
		vehicleService: vehicleService,
		authService:    authService,
		cfg:            cfg,
	}
}

// RequireJWT gates a route on a valid token with the given role. Admins
// pass every role gate.
func (h *Handlers) RequireJWT(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := h.parseBearer(r)
			if claims == nil {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}

			if requiredRole != "" && claims.Role != requiredRole && claims.Role != "admin" {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireGuestSession gates the manage-token routes on a guest-scope
// session issued by GuestSession. The token arrives as a session_token
// query parameter or a bearer header.
func (h *Handlers) RequireGuestSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := r.URL.Query().Get("session_token")
		if tok == "" {
			if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
				tok = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if tok == "" {
			response.Unauthorized(w, "A guest session token is required")
			return
		}

		claims, err := auth.Parse(tok, h.cfg.Auth.JWTSecret)
		if err != nil || claims.Role != "guest" {
			response.Unauthorized(w, "Invalid guest session token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalJWT attaches claims when a valid token is present but lets
// anonymous requests through.
func (h *Handlers) OptionalJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := h.parseBearer(r); claims != nil {
			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
			ctx = context.WithValue(ctx, claimsKey, claims)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) parseBearer(r *http.Request) *auth.Claims {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}
	claims, err := auth.Parse(strings.TrimPrefix(header, "Bearer "), h.cfg.Auth.JWTSecret)
	if err != nil {
		return nil
	}
	return claims
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}
