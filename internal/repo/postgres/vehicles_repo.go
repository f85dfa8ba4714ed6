package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
	"github.com/fleetrent/fleetrent-backend/internal/repo"
)

type vehiclesRepo struct {
	pool *pgxpool.Pool
}

func NewVehiclesRepo(pool *pgxpool.Pool) repo.VehicleRepository {
	return &vehiclesRepo{pool: pool}
}

const vehicleCols = `id, plate, make, model, category, price_category,
year, daily_rate, mileage, color, fuel_type, horsepower, seats, available,
created_at, updated_at`

func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := row.Scan(
		&v.ID, &v.Plate, &v.Make, &v.Model, &v.Category, &v.PriceCategory,
		&v.Year, &v.DailyRate, &v.Mileage, &v.Color, &v.FuelType,
		&v.Horsepower, &v.Seats, &v.Available,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vehiclesRepo) Create(ctx context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	const q = `INSERT INTO vehicles (
		plate, make, model, category, price_category,
		year, daily_rate, mileage, color, fuel_type, horsepower, seats, available
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,TRUE)
	RETURNING ` + vehicleCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	created, err := scanVehicle(r.pool.QueryRow(ctx, q,
		v.Plate, v.Make, v.Model, v.Category, v.PriceCategory,
		v.Year, v.DailyRate, v.Mileage, v.Color, v.FuelType,
		v.Horsepower, v.Seats,
	))
	if err != nil {
		return nil, domain.Storage("create vehicle", err)
	}
	return created, nil
}

func (r *vehiclesRepo) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	const q = `SELECT ` + vehicleCols + ` FROM vehicles WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVehicle(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, domain.Storage("get vehicle", err)
	}
	return v, nil
}

func (r *vehiclesRepo) GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	const q = `SELECT ` + vehicleCols + ` FROM vehicles WHERE plate=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVehicle(r.pool.QueryRow(ctx, q, plate))
	if err != nil {
		return nil, domain.Storage("get vehicle by plate", err)
	}
	return v, nil
}

func (r *vehiclesRepo) List(ctx context.Context, filter domain.VehicleFilter, limit, offset int) ([]domain.Vehicle, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + vehicleCols + ` FROM vehicles WHERE TRUE`
	args := []any{}
	if filter.AvailableOnly {
		q += ` AND available`
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		q += ` AND category=$1`
	}
	args = append(args, limit, offset)
	if filter.Category != "" {
		q += ` ORDER BY id LIMIT $2 OFFSET $3`
	} else {
		q += ` ORDER BY id LIMIT $1 OFFSET $2`
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, domain.Storage("list vehicles", err)
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(
			&v.ID, &v.Plate, &v.Make, &v.Model, &v.Category, &v.PriceCategory,
			&v.Year, &v.DailyRate, &v.Mileage, &v.Color, &v.FuelType,
			&v.Horsepower, &v.Seats, &v.Available,
			&v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, domain.Storage("scan vehicle", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storage("list vehicles", err)
	}
	return vehicles, nil
}

func (r *vehiclesRepo) Update(ctx context.Context, id int64, patch *domain.UpdateVehicleRequest) (*domain.Vehicle, error) {
	const q = `
		UPDATE vehicles
		SET
			plate      = COALESCE($2, plate),
			daily_rate = COALESCE($3, daily_rate),
			mileage    = COALESCE($4, mileage),
			color      = COALESCE($5, color),
			updated_at = now()
		WHERE id=$1
		RETURNING ` + vehicleCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVehicle(r.pool.QueryRow(ctx, q, id,
		patch.Plate, patch.DailyRate, patch.Mileage, patch.Color))
	if isUniqueViolation(err) && patch.Plate != nil {
		return nil, domain.Validationf("a vehicle with plate %s already exists", *patch.Plate)
	}
	if err != nil {
		return nil, domain.Storage("update vehicle", err)
	}
	return v, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *vehiclesRepo) Delete(ctx context.Context, id int64) (bool, error) {
	// Vehicles with an active rental stay; their history must keep a valid
	// reference.
	const q = `DELETE FROM vehicles
		WHERE id=$1
		AND NOT EXISTS (SELECT 1 FROM rentals WHERE vehicle_id=$1 AND active)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, domain.Storage("delete vehicle", err)
	}
	return result.RowsAffected() > 0, nil
}
