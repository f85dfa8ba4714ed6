package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
	"github.com/fleetrent/fleetrent-backend/internal/repo"
)

type rentalsRepo struct {
	pool *pgxpool.Pool
}

func NewRentalsRepo(pool *pgxpool.Pool) repo.RentalRepository {
	return &rentalsRepo{pool: pool}
}

const rentalCols = `id, vehicle_id, user_id, manage_token,
start_date, end_date, total_cost, active, created_at, updated_at`

func scanRental(row pgx.Row) (*domain.Rental, error) {
	var r domain.Rental
	err := row.Scan(
		&r.ID, &r.VehicleID, &r.UserID, &r.ManageToken,
		&r.StartDate, &r.EndDate, &r.TotalCost, &r.Active,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Reserve holds the vehicle and records the rental in one transaction.
// The hold is a conditional update: zero rows means another reservation
// won the vehicle first, and the whole unit rolls back untouched.
func (r *rentalsRepo) Reserve(ctx context.Context, rental *domain.Rental) (*domain.Rental, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, domain.Storage("begin reserve", err)
	}
	defer tx.Rollback(ctx)

	const hold = `UPDATE vehicles SET available=FALSE, updated_at=now()
		WHERE id=$1 AND available`
	result, err := tx.Exec(ctx, hold, rental.VehicleID)
	if err != nil {
		return nil, domain.Storage("hold vehicle", err)
	}
	if result.RowsAffected() == 0 {
		return nil, repo.ErrVehicleUnavailable
	}

	const insert = `INSERT INTO rentals (
		vehicle_id, user_id, manage_token, start_date, end_date, total_cost, active
	) VALUES ($1,$2,$3,$4,$5,$6,TRUE)
	RETURNING ` + rentalCols

	created, err := scanRental(tx.QueryRow(ctx, insert,
		rental.VehicleID, rental.UserID, uuid.NewString(),
		rental.StartDate, rental.EndDate, rental.TotalCost,
	))
	if err != nil {
		return nil, domain.Storage("insert rental", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Storage("commit reserve", err)
	}
	return created, nil
}

// Complete flips the rental inactive and releases its vehicle in one
// transaction. The rental flip is conditional on it still being active.
func (r *rentalsRepo) Complete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, domain.Storage("begin complete", err)
	}
	defer tx.Rollback(ctx)

	const deactivate = `UPDATE rentals SET active=FALSE, updated_at=now()
		WHERE id=$1 AND active
		RETURNING vehicle_id`
	var vehicleID int64
	err = tx.QueryRow(ctx, deactivate, id).Scan(&vehicleID)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, domain.Storage("close rental", err)
	}

	const release = `UPDATE vehicles SET available=TRUE, updated_at=now() WHERE id=$1`
	if _, err := tx.Exec(ctx, release, vehicleID); err != nil {
		return false, domain.Storage("release vehicle", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, domain.Storage("commit complete", err)
	}
	return true, nil
}

func (r *rentalsRepo) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	const q = `SELECT ` + rentalCols + ` FROM rentals WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rental, err := scanRental(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, domain.Storage("get rental", err)
	}
	return rental, nil
}

func (r *rentalsRepo) GetByToken(ctx context.Context, manageToken string) (*domain.Rental, error) {
	const q = `SELECT ` + rentalCols + ` FROM rentals WHERE manage_token=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rental, err := scanRental(r.pool.QueryRow(ctx, q, manageToken))
	if err != nil {
		return nil, domain.Storage("get rental by token", err)
	}
	return rental, nil
}

func (r *rentalsRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Rental, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + rentalCols + ` FROM rentals WHERE user_id=$1 ORDER BY id LIMIT $2 OFFSET $3`
	return r.queryRentals(ctx, q, userID, limit, offset)
}

func (r *rentalsRepo) List(ctx context.Context, limit, offset int) ([]domain.Rental, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + rentalCols + ` FROM rentals ORDER BY id LIMIT $1 OFFSET $2`
	return r.queryRentals(ctx, q, limit, offset)
}

func (r *rentalsRepo) queryRentals(ctx context.Context, q string, args ...any) ([]domain.Rental, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, domain.Storage("list rentals", err)
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		var rental domain.Rental
		if err := rows.Scan(
			&rental.ID, &rental.VehicleID, &rental.UserID, &rental.ManageToken,
			&rental.StartDate, &rental.EndDate, &rental.TotalCost, &rental.Active,
			&rental.CreatedAt, &rental.UpdatedAt,
		); err != nil {
			return nil, domain.Storage("scan rental", err)
		}
		rentals = append(rentals, rental)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storage("list rentals", err)
	}
	return rentals, nil
}
