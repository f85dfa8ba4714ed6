package service

import (
	"context"
	"time"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
	"github.com/fleetrent/fleetrent-backend/internal/invoice"
	"github.com/fleetrent/fleetrent-backend/internal/mailer"
	"github.com/fleetrent/fleetrent-backend/internal/pricing"
	"github.com/fleetrent/fleetrent-backend/internal/repo"
	"github.com/fleetrent/fleetrent-backend/pkg/events"
	"github.com/fleetrent/fleetrent-backend/pkg/logger"
)

// RentalService owns the rental lifecycle: a reservation holds a vehicle
// and creates an active rental as one unit, a completion reverses it
// exactly once.
type RentalService interface {
	Reserve(ctx context.Context, req *domain.ReserveRequest) (*domain.RentalSummary, error)
	Complete(ctx context.Context, rentalID int64) (bool, error)
	CompleteByToken(ctx context.Context, manageToken string) (bool, error)
	History(ctx context.Context, userID int64, limit, offset int) ([]domain.Rental, error)
	Quote(ctx context.Context, req *domain.ReserveRequest) (float64, error)
	Get(ctx context.Context, rentalID int64) (*domain.Rental, error)
	GetByToken(ctx context.Context, manageToken string) (*domain.Rental, error)
	List(ctx context.Context, limit, offset int) ([]domain.Rental, error)
}

type rentalService struct {
	rentalRepo  repo.RentalRepository
	vehicleRepo repo.VehicleRepository
	userRepo    repo.UserRepository
	bus         events.Publisher
	mail        mailer.Service
}

func NewRentalService(
	rentalRepo repo.RentalRepository,
	vehicleRepo repo.VehicleRepository,
	userRepo repo.UserRepository,
	bus events.Publisher,
	mail mailer.Service,
) RentalService {
	return &rentalService{
		rentalRepo:  rentalRepo,
		vehicleRepo: vehicleRepo,
		userRepo:    userRepo,
		bus:         bus,
		mail:        mail,
	}
}

// validated carries the results of the reservation precondition checks.
type validated struct {
	vehicle *domain.Vehicle
	user    *domain.User // nil for guests
	start   time.Time
	end     time.Time
	tier    pricing.Tier
}

// validateReservation runs the precondition checks in their fixed order,
// failing fast on the first violation: vehicle exists, email syntax, date
// format, date order, availability, user exists.
func (s *rentalService) validateReservation(ctx context.Context, req *domain.ReserveRequest) (*validated, error) {
	req.Normalize()

	vehicle, err := s.vehicleRepo.GetByPlate(ctx, req.Plate)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, domain.NotFound("vehicle", req.Plate)
	}

	if req.UserEmail != "" && !domain.IsValidEmail(req.UserEmail) {
		return nil, domain.Validationf("invalid email format")
	}

	start, err := domain.ParseRentalDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseRentalDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, domain.Validationf("start date must be before end date")
	}

	if !vehicle.Available {
		return nil, domain.Validationf("vehicle %s is not available", vehicle.Plate)
	}

	v := &validated{vehicle: vehicle, start: start, end: end, tier: pricing.TierGuest}
	if req.UserEmail != "" {
		user, err := s.userRepo.FindByEmail(ctx, req.UserEmail)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, domain.NotFound("user", req.UserEmail)
		}
		v.user = user
		v.tier = pricing.TierForRole(user.Role)
	}
	return v, nil
}

func (s *rentalService) Reserve(ctx context.Context, req *domain.ReserveRequest) (*domain.RentalSummary, error) {
	v, err := s.validateReservation(ctx, req)
	if err != nil {
		return nil, err
	}

	cost, err := pricing.Quote(v.start, v.end, v.vehicle.DailyRate, v.tier)
	if err != nil {
		return nil, err
	}

	rental := &domain.Rental{
		VehicleID: v.vehicle.ID,
		StartDate: v.start,
		EndDate:   v.end,
		TotalCost: cost,
		Active:    true,
	}
	if v.user != nil {
		rental.UserID = &v.user.ID
	}

	created, err := s.rentalRepo.Reserve(ctx, rental)
	if err == repo.ErrVehicleUnavailable {
		// Lost the conditional hold to a concurrent reservation. A
		// legitimate rejection, not a fault to retry.
		return nil, domain.Validationf("vehicle %s is not available", v.vehicle.Plate)
	}
	if err != nil {
		return nil, err
	}

	summary := &domain.RentalSummary{
		RentalID:  created.ID,
		Plate:     v.vehicle.Plate,
		Make:      v.vehicle.Make,
		Model:     v.vehicle.Model,
		Category:  v.vehicle.Category,
		StartDate: v.start.Format(time.DateOnly),
		EndDate:   v.end.Format(time.DateOnly),
		Days:      pricing.Days(v.start, v.end),
		DailyRate: v.vehicle.DailyRate,
		TotalCost: created.TotalCost,
		UserRef:   created.UserRef(),
	}
	if v.user != nil {
		summary.UserEmail = v.user.Email
	} else {
		summary.ManageToken = created.ManageToken
	}

	// Everything below runs after commit. Failures are reported in the
	// logs, never rolled back into the reservation.
	s.publishCreated(ctx, created, v.vehicle)
	s.sendInvoice(ctx, v.user, summary)

	return summary, nil
}

func (s *rentalService) publishCreated(ctx context.Context, r *domain.Rental, veh *domain.Vehicle) {
	event := events.RentalCreatedEvent{
		RentalID:  r.ID,
		VehicleID: r.VehicleID,
		Plate:     veh.Plate,
		UserRef:   r.UserRef(),
		StartDate: r.StartDate.Format(time.DateOnly),
		EndDate:   r.EndDate.Format(time.DateOnly),
		TotalCost: r.TotalCost,
		CreatedAt: r.CreatedAt,
	}
	if err := s.bus.Publish(ctx, events.RentalCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish rental created event", "error", err, "rental_id", r.ID)
	}
}

func (s *rentalService) sendInvoice(ctx context.Context, user *domain.User, summary *domain.RentalSummary) {
	if user == nil {
		// Guests leave no address to invoice; the manage token in the
		// response is their receipt.
		return
	}
	body := invoice.Render(summary)
	if err := s.mail.SendInvoice(user.Email, user.Name, summary, body); err != nil {
		logger.ErrorContext(ctx, "Failed to send invoice", "error", err, "rental_id", summary.RentalID)
	}
}

func (s *rentalService) Complete(ctx context.Context, rentalID int64) (bool, error) {
	rental, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return false, err
	}
	if rental == nil {
		return false, domain.NotFound("rental", "")
	}
	return s.complete(ctx, rental)
}

func (s *rentalService) CompleteByToken(ctx context.Context, manageToken string) (bool, error) {
	rental, err := s.rentalRepo.GetByToken(ctx, manageToken)
	if err != nil {
		return false, err
	}
	if rental == nil {
		return false, domain.NotFound("rental", "")
	}
	return s.complete(ctx, rental)
}

func (s *rentalService) complete(ctx context.Context, rental *domain.Rental) (bool, error) {
	if !rental.Active {
		return false, domain.Validationf("rental %d is already completed", rental.ID)
	}

	ok, err := s.rentalRepo.Complete(ctx, rental.ID)
	if err != nil {
		return false, err
	}
	if !ok {
		// Raced with another completion between the read and the flip.
		return false, domain.Validationf("rental %d is already completed", rental.ID)
	}

	event := events.RentalCompletedEvent{
		RentalID:    rental.ID,
		VehicleID:   rental.VehicleID,
		CompletedAt: time.Now(),
	}
	if err := s.bus.Publish(ctx, events.RentalCompleted, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish rental completed event", "error", err, "rental_id", rental.ID)
	}

	return true, nil
}

// History lists a user's rentals in insertion order. An existing user with
// no rentals gets an empty result, which is not an error.
func (s *rentalService) History(ctx context.Context, userID int64, limit, offset int) ([]domain.Rental, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("user", "")
	}

	rentals, err := s.rentalRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if rentals == nil {
		rentals = []domain.Rental{}
	}
	return rentals, nil
}

// Quote prices a prospective rental without booking it. Same checks as
// Reserve, no state change.
func (s *rentalService) Quote(ctx context.Context, req *domain.ReserveRequest) (float64, error) {
	v, err := s.validateReservation(ctx, req)
	if err != nil {
		return 0, err
	}
	return pricing.Quote(v.start, v.end, v.vehicle.DailyRate, v.tier)
}

func (s *rentalService) Get(ctx context.Context, rentalID int64) (*domain.Rental, error) {
	rental, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental == nil {
		return nil, domain.NotFound("rental", "")
	}
	return rental, nil
}

func (s *rentalService) GetByToken(ctx context.Context, manageToken string) (*domain.Rental, error) {
	rental, err := s.rentalRepo.GetByToken(ctx, manageToken)
	if err != nil {
		return nil, err
	}
	if rental == nil {
		return nil, domain.NotFound("rental", "")
	}
	return rental, nil
}

func (s *rentalService) List(ctx context.Context, limit, offset int) ([]domain.Rental, error) {
	return s.rentalRepo.List(ctx, limit, offset)
}
