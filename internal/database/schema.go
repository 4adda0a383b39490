package database

import (
	"context"
	"database/sql"
)

// Table definitions executed on startup. Statements are idempotent so the
// server can start against a fresh or an existing database. Note the
// referential rules: vehicles go with their customer, job notes go with
// their job, while repair_jobs RESTRICT deletes of rows they still
// reference so those surface as conflicts to the caller.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		description VARCHAR(255) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		username VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role_id BIGINT UNSIGNED NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_username (username),
		CONSTRAINT fk_users_role FOREIGN KEY (role_id) REFERENCES roles (id)
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(100) NOT NULL DEFAULT '',
		address VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		customer_id BIGINT UNSIGNED NOT NULL,
		make VARCHAR(255) NOT NULL,
		model VARCHAR(255) NOT NULL,
		registration VARCHAR(100) NOT NULL,
		year INT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_vehicles_registration (registration),
		CONSTRAINT fk_vehicles_customer FOREIGN KEY (customer_id) REFERENCES customers (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS job_statuses (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		description VARCHAR(255) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS repair_jobs (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		vehicle_id BIGINT UNSIGNED NOT NULL,
		customer_id BIGINT UNSIGNED NOT NULL,
		assigned_mechanic_id BIGINT UNSIGNED NULL,
		status_id BIGINT UNSIGNED NOT NULL,
		description TEXT NOT NULL,
		estimated_duration_hours INT NULL,
		priority ENUM('low','medium','high') NULL,
		received_at DATETIME NULL,
		started_at DATETIME NULL,
		completed_at DATETIME NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_jobs_vehicle FOREIGN KEY (vehicle_id) REFERENCES vehicles (id),
		CONSTRAINT fk_jobs_customer FOREIGN KEY (customer_id) REFERENCES customers (id),
		CONSTRAINT fk_jobs_mechanic FOREIGN KEY (assigned_mechanic_id) REFERENCES users (id),
		CONSTRAINT fk_jobs_status FOREIGN KEY (status_id) REFERENCES job_statuses (id)
	)`,
	`CREATE TABLE IF NOT EXISTS job_notes (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		repair_job_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		note TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_notes_job FOREIGN KEY (repair_job_id) REFERENCES repair_jobs (id) ON DELETE CASCADE,
		CONSTRAINT fk_notes_user FOREIGN KEY (user_id) REFERENCES users (id)
	)`,
}

// EnsureSchema creates any missing tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
