package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type ReminderDue struct {
	ReceiptID       int64
	ChannelID       string
	IntervalMinutes int
}

// UpsertReminder configures settlement reminders for a receipt and optionally
// schedules the next due time.
func (db *DB) UpsertReminder(ctx context.Context, receiptID int64, enabled bool, intervalMinutes int, nextDueAt *time.Time) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO settlement_reminders (receipt_id, enabled, interval_minutes, next_due_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (receipt_id) DO UPDATE
		 SET enabled = EXCLUDED.enabled,
			 interval_minutes = EXCLUDED.interval_minutes,
			 next_due_at = COALESCE(EXCLUDED.next_due_at, settlement_reminders.next_due_at)`,
		receiptID, enabled, intervalMinutes, nextDueAt,
	)
	return err
}

// ReminderConfig reports whether reminders are enabled for the receipt and at
// what interval. A receipt that was never configured is simply off.
func (db *DB) ReminderConfig(ctx context.Context, receiptID int64) (bool, int, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT enabled, interval_minutes
		 FROM settlement_reminders
		 WHERE receipt_id = $1`,
		receiptID,
	)
	var (
		enabled bool
		minutes int
	)
	if err := row.Scan(&enabled, &minutes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return enabled, minutes, nil
}

// DueReminders returns reminder targets that are due and still have unpaid
// settlement tasks.
func (db *DB) DueReminders(ctx context.Context, now time.Time) ([]ReminderDue, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT r.receipt_id, t.channel_id, r.interval_minutes
		 FROM settlement_reminders r
		 JOIN receipts t ON t.id = r.receipt_id
		 WHERE r.enabled = TRUE
		   AND t.status = 'open'
		   AND (r.next_due_at IS NULL OR r.next_due_at <= $1)
		   AND EXISTS (
			 SELECT 1 FROM settlement_tasks s
			 WHERE s.receipt_id = r.receipt_id AND s.completed = FALSE
		   )`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []ReminderDue
	for rows.Next() {
		var r ReminderDue
		if err := rows.Scan(&r.ReceiptID, &r.ChannelID, &r.IntervalMinutes); err != nil {
			return nil, err
		}
		targets = append(targets, r)
	}
	return targets, rows.Err()
}

// MarkReminderSent updates reminder schedule timestamps.
func (db *DB) MarkReminderSent(ctx context.Context, receiptID int64, sentAt time.Time, nextDue time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE settlement_reminders
		 SET last_sent_at = $2, next_due_at = $3
		 WHERE receipt_id = $1`,
		receiptID, sentAt, nextDue,
	)
	return err
}

// DelayReminder updates next_due_at without touching last_sent_at.
func (db *DB) DelayReminder(ctx context.Context, receiptID int64, nextDue time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE settlement_reminders
		 SET next_due_at = $2
		 WHERE receipt_id = $1`,
		receiptID, nextDue,
	)
	return err
}
