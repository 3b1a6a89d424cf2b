package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// RunMigrations runs database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS receipts (
			id BIGSERIAL PRIMARY KEY,
			guild_id BIGINT NOT NULL,
			channel_id TEXT NOT NULL,
			opened_by TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			opened_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			closed_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_receipts_guild_id ON receipts(guild_id);
		CREATE INDEX IF NOT EXISTS idx_receipts_open_channel ON receipts(channel_id) WHERE status = 'open';

		CREATE TABLE IF NOT EXISTS receipt_participants (
			receipt_id BIGINT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			PRIMARY KEY (receipt_id, name)
		);

		CREATE TABLE IF NOT EXISTS expenses (
			id BIGSERIAL PRIMARY KEY,
			receipt_id BIGINT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
			payer TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			split_all BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_expenses_receipt_id ON expenses(receipt_id);

		CREATE TABLE IF NOT EXISTS expense_beneficiaries (
			expense_id BIGINT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			PRIMARY KEY (expense_id, name)
		);

		CREATE TABLE IF NOT EXISTS settlement_tasks (
			id BIGSERIAL PRIMARY KEY,
			receipt_id BIGINT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
			debtor TEXT NOT NULL,
			creditor TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_settlement_tasks_receipt_id ON settlement_tasks(receipt_id);

		CREATE TABLE IF NOT EXISTS settlement_reminders (
			receipt_id BIGINT PRIMARY KEY REFERENCES receipts(id) ON DELETE CASCADE,
			enabled BOOLEAN NOT NULL DEFAULT FALSE,
			interval_minutes INT NOT NULL DEFAULT 60,
			next_due_at TIMESTAMP,
			last_sent_at TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS receipt_logs (
			id BIGSERIAL PRIMARY KEY,
			receipt_id BIGINT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
			line TEXT NOT NULL,
			logged_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}
