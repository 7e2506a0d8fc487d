package database

import (
	"fmt"
	"log/slog"

	"pujabook/internal/models"
)

// Миграции применяются строго вперед, номер версии = индекс + 1.
// Новые миграции добавляются только в конец списка.
var migrations = []string{
	createUsersTable,
	createOTPLoginsTable,
	createPujasTable,
	createPujaImagesTable,
	createPlansTable,
	createPujaPlansTable,
	createChadawasTable,
	createPujaChadawasTable,
	createBookingsTable,
	createBookingChadawasTable,
	createPaymentsTable,
}

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	if _, err := db.Exec(createSchemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i, migration := range migrations {
		version := i + 1
		if version <= current {
			continue
		}

		slog.Info("Running migration", "step", version)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: failed to begin: %w", version, err)
		}
		if _, err := tx.Exec(migration); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: failed to record version: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: failed to commit: %w", version, err)
		}
	}

	slog.Info("All migrations completed successfully", "version", len(migrations))
	return nil
}

// AutoMigrate builds the schema from the entity definitions.
// Used for sqlite in tests, production goes through RunMigrations.
func (db *DB) AutoMigrate() error {
	if err := db.orm.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

const createSchemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) UNIQUE,
    mobile VARCHAR(20) UNIQUE NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'user',
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    email_verified BOOLEAN NOT NULL DEFAULT FALSE,
    password VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (role IN ('user', 'admin', 'super_admin'))
);`

const createOTPLoginsTable = `
CREATE TABLE IF NOT EXISTS otp_logins (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    otp_code VARCHAR(6) NOT NULL,
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_otp_logins_user_id ON otp_logins (user_id);`

const createPujasTable = `
CREATE TABLE IF NOT EXISTS pujas (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    description TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createPujaImagesTable = `
CREATE TABLE IF NOT EXISTS puja_images (
    id BIGSERIAL PRIMARY KEY,
    puja_id BIGINT NOT NULL REFERENCES pujas(id) ON DELETE CASCADE,
    image_url VARCHAR(1024) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_puja_images_puja_id ON puja_images (puja_id);`

const createPlansTable = `
CREATE TABLE IF NOT EXISTS plans (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    description TEXT,
    image_url VARCHAR(1024),
    actual_price NUMERIC(10,2) NOT NULL,
    discounted_price NUMERIC(10,2),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createPujaPlansTable = `
CREATE TABLE IF NOT EXISTS puja_plans (
    puja_id BIGINT NOT NULL REFERENCES pujas(id) ON DELETE CASCADE,
    plan_id BIGINT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
    PRIMARY KEY (puja_id, plan_id)
);`

const createChadawasTable = `
CREATE TABLE IF NOT EXISTS chadawas (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    description TEXT,
    image_url VARCHAR(1024),
    price NUMERIC(10,2) NOT NULL,
    requires_note BOOLEAN NOT NULL DEFAULT FALSE
);`

const createPujaChadawasTable = `
CREATE TABLE IF NOT EXISTS puja_chadawas (
    puja_id BIGINT NOT NULL REFERENCES pujas(id) ON DELETE CASCADE,
    chadawa_id BIGINT NOT NULL REFERENCES chadawas(id) ON DELETE CASCADE,
    PRIMARY KEY (puja_id, chadawa_id)
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    puja_id BIGINT REFERENCES pujas(id) ON DELETE SET NULL,
    plan_id BIGINT REFERENCES plans(id) ON DELETE SET NULL,
    booking_date TIMESTAMPTZ NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    puja_link VARCHAR(1024),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (status IN ('pending', 'confirmed', 'completed', 'cancelled'))
);
CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings (user_id);
CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings (status);`

const createBookingChadawasTable = `
CREATE TABLE IF NOT EXISTS booking_chadawas (
    id BIGSERIAL PRIMARY KEY,
    booking_id BIGINT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
    chadawa_id BIGINT NOT NULL REFERENCES chadawas(id) ON DELETE CASCADE,
    note TEXT,

    UNIQUE (booking_id, chadawa_id)
);`

const createPaymentsTable = `
CREATE TABLE IF NOT EXISTS payments (
    id BIGSERIAL PRIMARY KEY,
    booking_id BIGINT NOT NULL UNIQUE REFERENCES bookings(id) ON DELETE CASCADE,
    razorpay_order_id VARCHAR(255) NOT NULL UNIQUE,
    razorpay_payment_id VARCHAR(255),
    razorpay_signature VARCHAR(512),
    amount NUMERIC(10,2) NOT NULL,
    currency VARCHAR(3) NOT NULL DEFAULT 'INR',
    status VARCHAR(20) NOT NULL DEFAULT 'created',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (status IN ('created', 'pending', 'success', 'failed', 'refunded'))
);
CREATE INDEX IF NOT EXISTS idx_payments_status ON payments (status);`
