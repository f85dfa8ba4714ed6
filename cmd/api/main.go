package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/fleetrent/fleetrent-backend/internal/cache"
	"github.com/fleetrent/fleetrent-backend/internal/http/handlers"
	customMiddleware "github.com/fleetrent/fleetrent-backend/internal/http/middleware"
	"github.com/fleetrent/fleetrent-backend/internal/mailer"
	"github.com/fleetrent/fleetrent-backend/internal/repo/postgres"
	"github.com/fleetrent/fleetrent-backend/internal/service"
	"github.com/fleetrent/fleetrent-backend/pkg/config"
	"github.com/fleetrent/fleetrent-backend/pkg/database"
	"github.com/fleetrent/fleetrent-backend/pkg/events"
	"github.com/fleetrent/fleetrent-backend/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	var bus events.Publisher
	if natsBus, err := events.NewNATSEventBus(cfg.NATS.URL); err != nil {
		logger.Warn("NATS unavailable, events disabled", "error", err, "url", cfg.NATS.URL)
		bus = events.NoopPublisher{}
	} else {
		bus = natsBus
		defer natsBus.Close()
	}

	var idempotencyStore customMiddleware.IdempotencyStore
	if redisStore, err := cache.NewRedisStore(cfg.Redis.URL); err != nil {
		logger.Warn("Redis unavailable, idempotency replay disabled", "error", err, "url", cfg.Redis.URL)
	} else {
		idempotencyStore = redisStore
		defer redisStore.Close()
	}

	mail := buildMailer(cfg)

	vehicleRepo := postgres.NewVehiclesRepo(pool)
	userRepo := postgres.NewUsersRepo(pool)
	rentalRepo := postgres.NewRentalsRepo(pool)
	rateLimitRepo := postgres.NewRateLimitRepo(pool)

	rentalService := service.NewRentalService(rentalRepo, vehicleRepo, userRepo, bus, mail)
	vehicleService := service.NewVehicleService(vehicleRepo, bus)
	authService := service.NewAuthService(userRepo, bus, cfg)

	h := handlers.New(rentalService, vehicleService, authService, cfg)

	authLimiter := customMiddleware.NewRateLimiter(rateLimitRepo, customMiddleware.RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
	})
	reserveLimiter := customMiddleware.NewRateLimiter(rateLimitRepo, customMiddleware.RateLimitConfig{
		Requests: 30,
		Window:   time.Minute,
	})

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.Logging)
	r.Use(customMiddleware.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware())
			r.Post("/auth/register", h.Register)
			r.Post("/auth/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT(""))
			r.Get("/auth/me", h.Me)
			r.Post("/auth/password", h.ChangePassword)
		})

		r.Get("/vehicles", h.ListVehicles)
		r.Get("/vehicles/{plate}", h.GetVehicle)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT("admin"))
			r.Post("/vehicles", h.RegisterVehicle)
			r.Patch("/vehicles/{id}", h.UpdateVehicle)
			r.Delete("/vehicles/{id}", h.DeleteVehicle)
		})

		r.Get("/rentals/quote", h.OptionalJWT(http.HandlerFunc(h.Quote)).ServeHTTP)
		r.Group(func(r chi.Router) {
			r.Use(reserveLimiter.Middleware())
			if idempotencyStore != nil {
				r.Use(customMiddleware.Idempotency(idempotencyStore))
			}
			r.Post("/rentals", h.OptionalJWT(http.HandlerFunc(h.Reserve)).ServeHTTP)
		})

		r.Post("/guest/session", h.GuestSession)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireGuestSession)
			r.Get("/guest/rentals/{token}", h.GetGuestRental)
			r.Post("/guest/rentals/{token}/complete", h.CompleteGuestRental)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT("client"))
			r.Get("/rentals/{id}", h.GetRental)
			r.Get("/users/{id}/rentals", h.History)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT("admin"))
			r.Post("/rentals/{id}/complete", h.CompleteRental)
			r.Get("/rentals", h.ListRentals)
			r.Get("/users", h.ListUsers)
			r.Delete("/users/{id}", h.DeleteUser)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped")
}

func buildMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		logger.Info("Using dev mailer, invoices go to the log")
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		logger.Info("Using MailerSend mailer")
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		logger.Info("Using SMTP mailer", "host", cfg.Email.SMTPHost)
		return mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass)
	}
}
