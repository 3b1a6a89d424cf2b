package db

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nelthm/splitlater/internal/receipt"
)

// OpenReceipt closes any receipt still open for the channel and opens a new
// one, returning its ID.
func (db *DB) OpenReceipt(ctx context.Context, guildID int64, channelID, openedBy string) (int64, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE receipts SET status = 'closed', closed_at = CURRENT_TIMESTAMP
		 WHERE channel_id = $1 AND status = 'open'`,
		channelID,
	); err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO receipts (guild_id, channel_id, opened_by, status)
		 VALUES ($1, $2, $3, 'open')
		 RETURNING id`,
		guildID, channelID, openedBy,
	).Scan(&id); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// CloseReceipt sets the receipt status to closed.
func (db *DB) CloseReceipt(ctx context.Context, receiptID int64) error {
	ct, err := db.pool.Exec(ctx,
		`UPDATE receipts SET status = 'closed', closed_at = CURRENT_TIMESTAMP WHERE id = $1`,
		receiptID,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("receipt not found")
	}
	return nil
}

func (db *DB) UpsertParticipant(ctx context.Context, receiptID int64, name string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO receipt_participants (receipt_id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		receiptID, name,
	)
	return err
}

// DeleteParticipant removes the participant, the expenses they paid, their
// beneficiary rows, and any subgroup expense left without beneficiaries.
func (db *DB) DeleteParticipant(ctx context.Context, receiptID int64, name string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM expenses WHERE receipt_id = $1 AND payer = $2`,
		receiptID, name,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM expense_beneficiaries
		 WHERE name = $2 AND expense_id IN (SELECT id FROM expenses WHERE receipt_id = $1)`,
		receiptID, name,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM expenses e
		 WHERE e.receipt_id = $1 AND e.split_all = FALSE
		   AND NOT EXISTS (SELECT 1 FROM expense_beneficiaries b WHERE b.expense_id = e.id)`,
		receiptID,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM receipt_participants WHERE receipt_id = $1 AND name = $2`,
		receiptID, name,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// InsertExpense inserts an expense and its beneficiaries in one transaction.
func (db *DB) InsertExpense(ctx context.Context, receiptID int64, payer string, amountCents int64, description string, beneficiaries []string, at time.Time) (int64, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO expenses (receipt_id, payer, amount_cents, description, split_all, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		receiptID, payer, amountCents, description, len(beneficiaries) == 0, at,
	).Scan(&id); err != nil {
		return 0, err
	}

	for _, b := range beneficiaries {
		if b == "" {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO expense_beneficiaries (expense_id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			id, b,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// ReplaceSettlementTasks replaces the receipt's settlement plan.
func (db *DB) ReplaceSettlementTasks(ctx context.Context, receiptID int64, transfers []receipt.Transfer) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM settlement_tasks WHERE receipt_id = $1`, receiptID); err != nil {
		return err
	}
	for _, t := range transfers {
		if t.AmountCents <= 0 || t.Debtor == "" || t.Creditor == "" {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO settlement_tasks (receipt_id, debtor, creditor, amount_cents, completed)
			 VALUES ($1, $2, $3, $4, FALSE)`,
			receiptID, t.Debtor, t.Creditor, t.AmountCents,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// CompleteSettlementTask marks the pending task between debtor and creditor
// as done.
func (db *DB) CompleteSettlementTask(ctx context.Context, receiptID int64, debtor, creditor string) error {
	ct, err := db.pool.Exec(ctx,
		`UPDATE settlement_tasks
		 SET completed = TRUE, completed_at = COALESCE(completed_at, CURRENT_TIMESTAMP)
		 WHERE receipt_id = $1 AND debtor = $2 AND creditor = $3 AND completed = FALSE`,
		receiptID, debtor, creditor,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("settlement task not found")
	}
	return nil
}

func (db *DB) AppendLog(ctx context.Context, receiptID int64, at time.Time, line string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO receipt_logs (receipt_id, line, logged_at) VALUES ($1, $2, $3)`,
		receiptID, line, at,
	)
	return err
}

// GuildIDsWithReceipts returns every guild that has ever opened a receipt.
func (db *DB) GuildIDsWithReceipts(ctx context.Context) ([]int64, error) {
	rows, err := db.pool.Query(ctx, `SELECT DISTINCT guild_id FROM receipts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guildIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		guildIDs = append(guildIDs, id)
	}
	return guildIDs, rows.Err()
}

// LoadActiveReceipts restores every open receipt with its participants,
// expenses, settlement tasks, and log lines. Used once at startup.
func (db *DB) LoadActiveReceipts(ctx context.Context) ([]receipt.PersistedReceipt, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, guild_id, channel_id, opened_by FROM receipts WHERE status = 'open' ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []receipt.PersistedReceipt
	for rows.Next() {
		var pr receipt.PersistedReceipt
		if err := rows.Scan(&pr.ID, &pr.GuildID, &pr.ChannelID, &pr.OpenedBy); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		pr := &out[i]
		if pr.Participants, err = db.participants(ctx, pr.ID); err != nil {
			return nil, err
		}
		if pr.Expenses, err = db.expenses(ctx, pr.ID); err != nil {
			return nil, err
		}
		if pr.Transfers, err = db.settlementTasks(ctx, pr.ID); err != nil {
			return nil, err
		}
		if pr.Logs, err = db.logs(ctx, pr.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (db *DB) participants(ctx context.Context, receiptID int64) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT name FROM receipt_participants WHERE receipt_id = $1 ORDER BY name`, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (db *DB) expenses(ctx context.Context, receiptID int64) ([]receipt.Expense, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, payer, amount_cents, description, split_all, created_at
		 FROM expenses WHERE receipt_id = $1 ORDER BY id`, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []receipt.Expense
	for rows.Next() {
		var (
			e        receipt.Expense
			cents    int64
			splitAll bool
		)
		if err := rows.Scan(&e.ID, &e.Payer, &cents, &e.Description, &splitAll, &e.At); err != nil {
			return nil, err
		}
		e.Amount = decimal.New(cents, -2)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		e := &out[i]
		benRows, err := db.pool.Query(ctx,
			`SELECT name FROM expense_beneficiaries WHERE expense_id = $1 ORDER BY name`, e.ID)
		if err != nil {
			return nil, err
		}
		for benRows.Next() {
			var n string
			if err := benRows.Scan(&n); err != nil {
				benRows.Close()
				return nil, err
			}
			e.Beneficiaries = append(e.Beneficiaries, n)
		}
		benRows.Close()
		if err := benRows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (db *DB) settlementTasks(ctx context.Context, receiptID int64) ([]receipt.Transfer, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT debtor, creditor, amount_cents, completed
		 FROM settlement_tasks WHERE receipt_id = $1 ORDER BY id`, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []receipt.Transfer
	for rows.Next() {
		var t receipt.Transfer
		if err := rows.Scan(&t.Debtor, &t.Creditor, &t.AmountCents, &t.Completed); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (db *DB) logs(ctx context.Context, receiptID int64) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT line FROM receipt_logs WHERE receipt_id = $1 ORDER BY id`, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}
