package service

import (
	"context"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
	"github.com/fleetrent/fleetrent-backend/internal/repo"
	"github.com/fleetrent/fleetrent-backend/pkg/events"
	"github.com/fleetrent/fleetrent-backend/pkg/logger"
)

type VehicleService interface {
	Register(ctx context.Context, req *domain.CreateVehicleRequest) (*domain.Vehicle, error)
	Get(ctx context.Context, plate string) (*domain.Vehicle, error)
	List(ctx context.Context, filter domain.VehicleFilter, limit, offset int) ([]domain.Vehicle, error)
	Update(ctx context.Context, id int64, patch *domain.UpdateVehicleRequest) (*domain.Vehicle, error)
	Delete(ctx context.Context, id int64) error
}

type vehicleService struct {
	vehicleRepo repo.VehicleRepository
	bus         events.Publisher
}

func NewVehicleService(vehicleRepo repo.VehicleRepository, bus events.Publisher) VehicleService {
	return &vehicleService{vehicleRepo: vehicleRepo, bus: bus}
}

func (s *vehicleService) Register(ctx context.Context, req *domain.CreateVehicleRequest) (*domain.Vehicle, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.vehicleRepo.GetByPlate(ctx, req.Plate)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Validationf("a vehicle with plate %s already exists", req.Plate)
	}

	created, err := s.vehicleRepo.Create(ctx, &domain.Vehicle{
		Plate:         req.Plate,
		Make:          req.Make,
		Model:         req.Model,
		Category:      req.Category,
		PriceCategory: req.PriceCategory,
		Year:          req.Year,
		DailyRate:     req.DailyRate,
		Mileage:       req.Mileage,
		Color:         req.Color,
		FuelType:      req.FuelType,
		Horsepower:    req.Horsepower,
		Seats:         req.Seats,
	})
	if err != nil {
		return nil, err
	}

	event := events.VehicleRegisteredEvent{
		VehicleID: created.ID,
		Plate:     created.Plate,
		Make:      created.Make,
		Model:     created.Model,
		DailyRate: created.DailyRate,
	}
	if err := s.bus.Publish(ctx, events.VehicleRegistered, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish vehicle registered event", "error", err, "vehicle_id", created.ID)
	}

	return created, nil
}

func (s *vehicleService) Get(ctx context.Context, plate string) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, domain.NotFound("vehicle", plate)
	}
	return vehicle, nil
}

func (s *vehicleService) List(ctx context.Context, filter domain.VehicleFilter, limit, offset int) ([]domain.Vehicle, error) {
	return s.vehicleRepo.List(ctx, filter, limit, offset)
}

func (s *vehicleService) Update(ctx context.Context, id int64, patch *domain.UpdateVehicleRequest) (*domain.Vehicle, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.vehicleRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.NotFound("vehicle", "")
	}
	return updated, nil
}

func (s *vehicleService) Delete(ctx context.Context, id int64) error {
	vehicle, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if vehicle == nil {
		return domain.NotFound("vehicle", "")
	}

	deleted, err := s.vehicleRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.Validationf("vehicle %s has an active rental and cannot be deleted", vehicle.Plate)
	}

	if err := s.bus.Publish(ctx, events.VehicleDeleted, map[string]int64{"vehicle_id": id}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish vehicle deleted event", "error", err, "vehicle_id", id)
	}
	return nil
}
