// Package repo declares the persistence gateway the services are written
// against. The postgres subpackage is the shipped implementation; tests
// substitute in-memory fakes.
package repo

import (
	"context"
	"errors"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
)

// ErrVehicleUnavailable reports a reservation that lost the availability
// race or targeted a vehicle already on hire. It is a business rejection,
// never retried.
var ErrVehicleUnavailable = errors.New("vehicle is not available")

// Lookups return (nil, nil) when the entity does not exist; callers decide
// whether absence is an error.
type VehicleRepository interface {
	Create(ctx context.Context, v *domain.Vehicle) (*domain.Vehicle, error)
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error)
	List(ctx context.Context, filter domain.VehicleFilter, limit, offset int) ([]domain.Vehicle, error)
	Update(ctx context.Context, id int64, patch *domain.UpdateVehicleRequest) (*domain.Vehicle, error)
	// Delete refuses vehicles with an active rental; the bool reports
	// whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, req *domain.CreateUserRequest, passwordHash string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

type RentalRepository interface {
	// Reserve persists the rental and flips the vehicle unavailable as one
	// commit unit. The availability flip is conditional; losing it yields
	// ErrVehicleUnavailable and nothing is written.
	Reserve(ctx context.Context, r *domain.Rental) (*domain.Rental, error)
	// Complete deactivates the rental and releases its vehicle as one
	// commit unit. False means the rental was not active anymore.
	Complete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Rental, error)
	GetByToken(ctx context.Context, manageToken string) (*domain.Rental, error)
	// ListByUser preserves insertion order.
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Rental, error)
	List(ctx context.Context, limit, offset int) ([]domain.Rental, error)
}
