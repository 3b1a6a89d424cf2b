package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nelthm/splitlater/internal/receipt"
)

// Kind enumerates every chat command the bot understands. Parsing (slash
// options or !tab text) produces a Command; Run executes it against the
// receipt service, so the arithmetic core never sees the transport.
type Kind int

const (
	KindStart Kind = iota
	KindHelp
	KindAdd
	KindDel
	KindView
	KindResolve
	KindLogs
	KindDone
	KindRemind
)

type Command struct {
	Kind          Kind
	Name          string // payer for add, target for del
	Amount        decimal.Decimal
	Beneficiaries []string
	Memo          string
	Debtor        string
	Creditor      string
	RemindOn      bool
	RemindMinutes int
	RemindQuery   bool // report the current setting instead of changing it
}

// ReminderStore is the slice of the database the remind command needs.
type ReminderStore interface {
	UpsertReminder(ctx context.Context, receiptID int64, enabled bool, intervalMinutes int, nextDueAt *time.Time) error
	ReminderConfig(ctx context.Context, receiptID int64) (enabled bool, intervalMinutes int, err error)
}

const helpText = `Here are all the commands available to you!

/start: Opens a fresh receipt and clears all previous records
/help: Displays all commands
/add: Adds an expense. Usage: /add John 10 [for Alice,Bob] [memo]
/del: Removes a person and their expenses. Usage: /del John
/view: Shows what everyone has paid and their net balance
/resolve: Calculates who needs to pay whom
/logs: Shows all recorded activity since the receipt was opened
/done: Marks a settlement transfer as paid. Usage: /done John Alice
/remind: Nags the channel about unpaid transfers. Usage: /remind on 60 (plain /remind shows the current setting)

The same commands work as text: !tab add John 12.50 for Alice,Bob pizza`

const greeting = `I'm SplitLaterBot, here to help calculate who you should pay after a group evening out!

A fresh receipt is open for this channel. Type /help to view all commands.`

// Run executes a parsed command and returns the chat reply. Every failure
// becomes a user-visible "Error: ..." line, never a crash.
func Run(ctx context.Context, cmd *Command, guildID int64, channelID, invoker string, svc *receipt.Service, reminders ReminderStore) string {
	switch cmd.Kind {
	case KindStart:
		if err := svc.Start(ctx, guildID, channelID, invoker); err != nil {
			return errReply(err)
		}
		return greeting

	case KindHelp:
		return helpText

	case KindAdd:
		if err := svc.AddExpense(ctx, channelID, cmd.Name, cmd.Amount, cmd.Memo, cmd.Beneficiaries); err != nil {
			return errReply(err)
		}
		return "Added!"

	case KindDel:
		if err := svc.RemoveParticipant(ctx, channelID, cmd.Name); err != nil {
			return errReply(err)
		}
		return "Removed!"

	case KindView:
		balances, err := svc.Balances(channelID)
		if err != nil {
			return errReply(err)
		}
		if len(balances) == 0 {
			return "Error: No records have been added."
		}
		var b strings.Builder
		for _, bal := range balances {
			fmt.Fprintf(&b, "%s has paid %s (net %s)\n",
				bal.Name, receipt.FormatCents(bal.PaidCents), signedCents(bal.NetCents))
		}
		return strings.TrimRight(b.String(), "\n")

	case KindResolve:
		transfers, err := svc.Resolve(ctx, channelID)
		if err != nil {
			return errReply(err)
		}
		var b strings.Builder
		for _, t := range transfers {
			fmt.Fprintf(&b, "%s pays %s $%s\n", t.Debtor, t.Creditor, receipt.FormatCents(t.AmountCents))
		}
		return strings.TrimRight(b.String(), "\n")

	case KindLogs:
		logs, err := svc.History(channelID)
		if err != nil {
			return errReply(err)
		}
		if len(logs) == 0 {
			return "No records have been added."
		}
		return strings.Join(logs, "\n")

	case KindDone:
		t, err := svc.CompleteTransfer(ctx, channelID, cmd.Debtor, cmd.Creditor)
		if err != nil {
			return errReply(err)
		}
		return fmt.Sprintf("Settled: %s paid %s $%s", t.Debtor, t.Creditor, receipt.FormatCents(t.AmountCents))

	case KindRemind:
		id, err := svc.ReceiptID(channelID)
		if err != nil {
			return errReply(err)
		}
		if reminders == nil {
			return "Error: reminders are not available."
		}
		if cmd.RemindQuery {
			enabled, minutes, err := reminders.ReminderConfig(ctx, id)
			if err != nil {
				return errReply(err)
			}
			if !enabled {
				return "Reminders are off."
			}
			return fmt.Sprintf("Reminders are on, every %d minutes.", minutes)
		}
		minutes := cmd.RemindMinutes
		if minutes <= 0 {
			minutes = 60
		}
		var next *time.Time
		if cmd.RemindOn {
			due := time.Now().Add(time.Duration(minutes) * time.Minute)
			next = &due
		}
		if err := reminders.UpsertReminder(ctx, id, cmd.RemindOn, minutes, next); err != nil {
			return errReply(err)
		}
		if !cmd.RemindOn {
			return "Reminders are off."
		}
		return fmt.Sprintf("I'll nag this channel about unpaid transfers every %d minutes.", minutes)
	}

	return unknownReply
}

const unknownReply = "Error: Either a wrong command has been entered, or a previous message has been edited. Please retype as opposed to editing the previous message :)"

func errReply(err error) string {
	var verr *receipt.ValidationError
	var serr *receipt.StateError
	if errors.As(err, &verr) || errors.As(err, &serr) {
		return "Error: " + err.Error()
	}
	log.Printf("command failed: %v", err)
	return "Error: something went wrong, please try again."
}

func signedCents(c int64) string {
	if c > 0 {
		return "+" + receipt.FormatCents(c)
	}
	return receipt.FormatCents(c)
}
