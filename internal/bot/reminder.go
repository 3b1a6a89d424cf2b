package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/nelthm/splitlater/internal/db"
	"github.com/nelthm/splitlater/internal/receipt"
)

// reminderWorker periodically posts unpaid settlement reminders to channels.
type reminderWorker struct {
	db       *db.DB
	receipts *receipt.Service
	session  reminderSession
	stopChan chan struct{}
	ticker   *time.Ticker
	interval time.Duration
}

// Minimal session interface for sending channel messages.
type reminderSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func newReminderWorker(session reminderSession, database *db.DB, receipts *receipt.Service) *reminderWorker {
	return &reminderWorker{
		db:       database,
		receipts: receipts,
		session:  session,
		stopChan: make(chan struct{}),
		interval: time.Minute,
	}
}

func (w *reminderWorker) start() {
	if w == nil {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop()
}

func (w *reminderWorker) stop() {
	if w == nil {
		return
	}
	close(w.stopChan)
	if w.ticker != nil {
		w.ticker.Stop()
	}
}

func (w *reminderWorker) loop() {
	ctx := context.Background()
	for {
		select {
		case <-w.ticker.C:
			w.tick(ctx)
		case <-w.stopChan:
			return
		}
	}
}

func (w *reminderWorker) tick(ctx context.Context) {
	now := time.Now()
	targets, err := w.db.DueReminders(ctx, now)
	if err != nil {
		log.Printf("reminder: failed to load due reminders: %v", err)
		return
	}

	for _, t := range targets {
		msg := w.reminderMessage(t.ChannelID)
		if msg == "" {
			continue
		}
		if err := w.sendWithRetry(ctx, t.ChannelID, msg); err != nil {
			log.Printf("reminder: failed to send message to channel %s: %v", t.ChannelID, err)
			// Back off so we don't hammer Discord (or a bad edge) every minute.
			backoff := 2 * time.Minute
			if t.IntervalMinutes > 0 {
				max := time.Duration(t.IntervalMinutes) * time.Minute
				if backoff > max {
					backoff = max
				}
			}
			next := now.Add(backoff)
			if derr := w.db.DelayReminder(ctx, t.ReceiptID, next); derr != nil {
				log.Printf("reminder: failed to delay reminder for receipt %d: %v", t.ReceiptID, derr)
			}
			continue
		}
		next := now.Add(time.Duration(t.IntervalMinutes) * time.Minute)
		if err := w.db.MarkReminderSent(ctx, t.ReceiptID, now, next); err != nil {
			log.Printf("reminder: failed to mark reminder sent for receipt %d: %v", t.ReceiptID, err)
		}
	}
}

func (w *reminderWorker) reminderMessage(channelID string) string {
	pending, err := w.receipts.PendingTransfers(channelID)
	if err != nil || len(pending) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Friendly nudge — these transfers are still unpaid:\n")
	for _, t := range pending {
		fmt.Fprintf(&b, "%s pays %s $%s\n", t.Debtor, t.Creditor, receipt.FormatCents(t.AmountCents))
	}
	b.WriteString("\nUse /done once a transfer has been made.")
	return b.String()
}

func (w *reminderWorker) sendWithRetry(ctx context.Context, channelID, content string) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		_, err := w.session.ChannelMessageSend(channelID, content, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) {
			return err
		}
		time.Sleep(time.Duration(300+rand.Intn(500)) * time.Millisecond)
	}
	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	if err == nil {
		return false
	}
	if ne, ok := err.(net.Error); ok {
		return ne.Timeout() || ne.Temporary()
	}
	return false
}
