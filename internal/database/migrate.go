package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate.  Every statement is idempotent.
//
// bookings.active_slot is 1 while a booking is reserved and NULL otherwise.
// MySQL unique indexes ignore rows containing NULL, so the index below
// allows any number of cancelled or concluded bookings per slot but at most
// one reserved booking.  bookings.venue_id has no foreign key: deleting a
// venue leaves its bookings in place.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              CHAR(36)     NOT NULL PRIMARY KEY,
		username        VARCHAR(64)  NOT NULL,
		email           VARCHAR(255) NOT NULL,
		password_hash   VARCHAR(255) NOT NULL,
		role            VARCHAR(16)  NOT NULL DEFAULT 'USER',
		status          VARCHAR(16)  NOT NULL DEFAULT 'ENABLED',
		suspended_until DATETIME     NULL,
		created_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    CHAR(36)        NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS venues (
		id          CHAR(36)      NOT NULL PRIMARY KEY,
		name        VARCHAR(255)  NOT NULL,
		description TEXT          NOT NULL,
		location    VARCHAR(255)  NOT NULL,
		price       DECIMAL(10,2) NOT NULL,
		created_at  DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS venue_slots (
		venue_id   CHAR(36) NOT NULL,
		position   INT      NOT NULL,
		start_time CHAR(5)  NOT NULL,
		end_time   CHAR(5)  NOT NULL,
		PRIMARY KEY (venue_id, position),
		UNIQUE KEY uq_venue_slots_start (venue_id, start_time),
		CONSTRAINT fk_venue_slots_venue FOREIGN KEY (venue_id) REFERENCES venues (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id           CHAR(36)     NOT NULL PRIMARY KEY,
		venue_id     CHAR(36)     NOT NULL,
		user_id      CHAR(36)     NOT NULL,
		booking_date DATE         NOT NULL,
		start_time   CHAR(5)      NOT NULL,
		end_time     CHAR(5)      NOT NULL,
		start_at     DATETIME     NOT NULL,
		end_at       DATETIME     NOT NULL,
		status       VARCHAR(16)  NOT NULL DEFAULT 'reserved',
		title        VARCHAR(255) NOT NULL,
		description  TEXT         NOT NULL,
		created_at   DATETIME     NOT NULL,
		updated_at   DATETIME     NOT NULL,
		active_slot  TINYINT AS (CASE WHEN status = 'reserved' THEN 1 ELSE NULL END) STORED,
		UNIQUE KEY uq_bookings_active_slot (venue_id, booking_date, start_at, active_slot),
		KEY idx_bookings_status_end (status, end_at),
		KEY idx_bookings_user (user_id),
		KEY idx_bookings_date (booking_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the service needs when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
