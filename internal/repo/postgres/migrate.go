package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		id             BIGSERIAL PRIMARY KEY,
		plate          TEXT NOT NULL UNIQUE,
		make           TEXT NOT NULL,
		model          TEXT NOT NULL,
		category       TEXT NOT NULL DEFAULT '',
		price_category TEXT NOT NULL DEFAULT '',
		year           INT NOT NULL,
		daily_rate     DOUBLE PRECISION NOT NULL CHECK (daily_rate > 0),
		mileage        INT NOT NULL DEFAULT 0 CHECK (mileage >= 0),
		color          TEXT NOT NULL DEFAULT '',
		fuel_type      TEXT NOT NULL DEFAULT '',
		horsepower     INT NOT NULL CHECK (horsepower > 0),
		seats          INT NOT NULL CHECK (seats >= 2),
		available      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		role          TEXT NOT NULL DEFAULT 'client',
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// vehicle_id is deliberately not a foreign key: rentals are never
	// deleted and must outlive the vehicle they reference.
	`CREATE TABLE IF NOT EXISTS rentals (
		id           BIGSERIAL PRIMARY KEY,
		vehicle_id   BIGINT NOT NULL,
		user_id      BIGINT,
		manage_token TEXT NOT NULL UNIQUE,
		start_date   DATE NOT NULL,
		end_date     DATE NOT NULL,
		total_cost   DOUBLE PRECISION NOT NULL CHECK (total_cost >= 0),
		active       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (end_date > start_date)
	)`,

	// Database-level backstop for the one-active-rental-per-vehicle rule.
	`CREATE UNIQUE INDEX IF NOT EXISTS rentals_one_active_per_vehicle
		ON rentals (vehicle_id) WHERE active`,

	`CREATE INDEX IF NOT EXISTS rentals_user_id_idx ON rentals (user_id)`,

	`CREATE TABLE IF NOT EXISTS rate_limits (
		rl_key       TEXT PRIMARY KEY,
		count        INT NOT NULL,
		window_start TIMESTAMPTZ NOT NULL,
		expires_at   TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate applies the schema. Statements are idempotent so it is safe on
// every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
