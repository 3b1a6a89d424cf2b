package receipt

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the persistence boundary the service writes through to. It is
// implemented by internal/db; a nil Store keeps everything in memory.
type Store interface {
	OpenReceipt(ctx context.Context, guildID int64, channelID, openedBy string) (int64, error)
	CloseReceipt(ctx context.Context, receiptID int64) error
	UpsertParticipant(ctx context.Context, receiptID int64, name string) error
	DeleteParticipant(ctx context.Context, receiptID int64, name string) error
	InsertExpense(ctx context.Context, receiptID int64, payer string, amountCents int64, description string, beneficiaries []string, at time.Time) (int64, error)
	ReplaceSettlementTasks(ctx context.Context, receiptID int64, transfers []Transfer) error
	CompleteSettlementTask(ctx context.Context, receiptID int64, debtor, creditor string) error
	AppendLog(ctx context.Context, receiptID int64, at time.Time, line string) error
}

// Service is the channel-keyed receipt store. All chat and API traffic goes
// through here; mutations write through to the Store.
type Service struct {
	mu       sync.Mutex
	store    Store
	receipts map[string]*Receipt
	loc      *time.Location
	now      func() time.Time
}

func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:    store,
		receipts: make(map[string]*Receipt),
		loc:      loc,
		now:      time.Now,
	}
}

// Restore loads previously persisted receipts, typically at startup.
func (s *Service) Restore(receipts []PersistedReceipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pr := range receipts {
		r := &Receipt{
			ID:           pr.ID,
			GuildID:      pr.GuildID,
			ChannelID:    pr.ChannelID,
			OpenedBy:     pr.OpenedBy,
			Participants: make(map[string]*Participant, len(pr.Participants)),
			Expenses:     pr.Expenses,
			Transfers:    pr.Transfers,
			Logs:         pr.Logs,
		}
		for _, name := range pr.Participants {
			r.Participants[name] = &Participant{Name: name}
		}
		for _, e := range pr.Expenses {
			if p, ok := r.Participants[e.Payer]; ok {
				p.PaidSum += Cents(e.Amount)
			}
		}
		s.receipts[pr.ChannelID] = r
	}
}

// Start opens a fresh receipt for the channel, discarding any previous one.
// Expenses, participants, logs, and settlement tasks all go.
func (s *Service) Start(ctx context.Context, guildID int64, channelID, openedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.receipts[channelID]; ok && s.store != nil {
		if err := s.store.CloseReceipt(ctx, prev.ID); err != nil {
			return err
		}
	}

	var id int64
	if s.store != nil {
		var err error
		id, err = s.store.OpenReceipt(ctx, guildID, channelID, openedBy)
		if err != nil {
			return err
		}
	}

	s.receipts[channelID] = &Receipt{
		ID:           id,
		GuildID:      guildID,
		ChannelID:    channelID,
		OpenedBy:     openedBy,
		Participants: make(map[string]*Participant),
	}
	return nil
}

// AddParticipant registers a name on the receipt. Idempotent.
func (s *Service) AddParticipant(ctx context.Context, channelID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationf("name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.open(channelID)
	if err != nil {
		return err
	}
	return s.join(ctx, r, name)
}

// RemoveParticipant drops a participant together with the expenses they paid
// and their share in subgroup expenses.
func (s *Service) RemoveParticipant(ctx context.Context, channelID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.open(channelID)
	if err != nil {
		return err
	}
	if _, ok := r.Participants[name]; !ok {
		return validationf("no record for '%s'", name)
	}

	if s.store != nil {
		if err := s.store.DeleteParticipant(ctx, r.ID, name); err != nil {
			return err
		}
	}

	delete(r.Participants, name)
	kept := r.Expenses[:0]
	for _, e := range r.Expenses {
		if e.Payer == name {
			continue
		}
		if len(e.Beneficiaries) > 0 {
			e.Beneficiaries = remove(e.Beneficiaries, name)
			// A subgroup expense with nobody left to share it is dropped.
			if len(e.Beneficiaries) == 0 {
				continue
			}
		}
		kept = append(kept, e)
	}
	r.Expenses = kept

	// Dropping a subgroup expense also voids what its payer put in, so paid
	// sums are rebuilt from the surviving expenses.
	for _, p := range r.Participants {
		p.PaidSum = 0
	}
	for _, e := range r.Expenses {
		if p, ok := r.Participants[e.Payer]; ok {
			p.PaidSum += Cents(e.Amount)
		}
	}

	s.logf(ctx, r, "removed %s and their expenses", name)
	return nil
}

// AddExpense validates and records an expense. The payer and any unknown
// beneficiaries join the receipt automatically.
func (s *Service) AddExpense(ctx context.Context, channelID, payer string, amount decimal.Decimal, description string, beneficiaries []string) error {
	payer = strings.TrimSpace(payer)
	if payer == "" {
		return validationf("payer name must not be empty")
	}
	if !amount.IsPositive() {
		return validationf("amount must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return validationf("amount must have at most two decimal places")
	}

	uniq := make(map[string]struct{}, len(beneficiaries))
	var ben []string
	for _, b := range beneficiaries {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if _, seen := uniq[b]; seen {
			continue
		}
		uniq[b] = struct{}{}
		ben = append(ben, b)
	}
	if len(beneficiaries) > 0 && len(ben) == 0 {
		return validationf("beneficiary list must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.open(channelID)
	if err != nil {
		return err
	}

	if err := s.join(ctx, r, payer); err != nil {
		return err
	}
	for _, b := range ben {
		if err := s.join(ctx, r, b); err != nil {
			return err
		}
	}

	e := Expense{
		Payer:         payer,
		Amount:        amount,
		Description:   strings.TrimSpace(description),
		Beneficiaries: ben,
		At:            s.now(),
	}
	if s.store != nil {
		id, err := s.store.InsertExpense(ctx, r.ID, e.Payer, Cents(e.Amount), e.Description, e.Beneficiaries, e.At)
		if err != nil {
			return err
		}
		e.ID = id
	}

	r.Participants[payer].PaidSum += Cents(amount)
	r.Expenses = append(r.Expenses, e)

	line := payer + " paid " + amount.StringFixed(2)
	if e.Description != "" {
		line += " for " + e.Description
	}
	if len(ben) > 0 {
		line += " (split by " + strings.Join(ben, ", ") + ")"
	}
	s.logf(ctx, r, "%s", line)
	return nil
}

// Balances returns net standing per participant, sorted by name.
func (s *Service) Balances(channelID string) ([]Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.open(channelID)
	if err != nil {
		return nil, err
	}
	return balances(r), nil
}

// Resolve computes the settlement plan and records it as pending transfers.
func (s *Service) Resolve(ctx context.Context, channelID string) ([]Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.open(channelID)
	if err != nil {
		return nil, err
	}
	if len(r.Participants) < 2 {
		return nil, statef("at least two participants are needed to resolve")
	}

	transfers := Plan(NetBalances(participantNames(r), r.Expenses))
	if len(transfers) == 0 {
		return nil, statef("Either no individuals added, no expenses added, or everyone has spent equal amounts.")
	}
	if s.store != nil {
		if err := s.store.ReplaceSettlementTasks(ctx, r.ID, transfers); err != nil {
			return nil, err
		}
	}
	r.Transfers = transfers
	return append([]Transfer(nil), transfers...), nil
}

// CompleteTransfer marks the first unpaid transfer between the two names as
// settled, regardless of which direction the caller listed them in.
func (s *Service) CompleteTransfer(ctx context.Context, channelID, debtor, creditor string) (Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.open(channelID)
	if err != nil {
		return Transfer{}, err
	}
	for idx := range r.Transfers {
		t := &r.Transfers[idx]
		if t.Completed {
			continue
		}
		if (t.Debtor == debtor && t.Creditor == creditor) || (t.Debtor == creditor && t.Creditor == debtor) {
			if s.store != nil {
				if err := s.store.CompleteSettlementTask(ctx, r.ID, t.Debtor, t.Creditor); err != nil {
					return Transfer{}, err
				}
			}
			t.Completed = true
			return *t, nil
		}
	}
	return Transfer{}, statef("no unpaid transfer between '%s' and '%s'", debtor, creditor)
}

// PendingTransfers returns the unpaid legs of the last resolve.
func (s *Service) PendingTransfers(channelID string) ([]Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.open(channelID)
	if err != nil {
		return nil, err
	}
	var out []Transfer
	for _, t := range r.Transfers {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out, nil
}

// History returns the receipt's activity log.
func (s *Service) History(channelID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.open(channelID)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), r.Logs...), nil
}

// Participants returns the sorted participant names.
func (s *Service) Participants(channelID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.open(channelID)
	if err != nil {
		return nil, err
	}
	return participantNames(r), nil
}

// Expenses returns a copy of the expense list in insertion order.
func (s *Service) Expenses(channelID string) ([]Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.open(channelID)
	if err != nil {
		return nil, err
	}
	return append([]Expense(nil), r.Expenses...), nil
}

// ReceiptID returns the persisted ID of the channel's open receipt.
func (s *Service) ReceiptID(channelID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.open(channelID)
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

// Summaries lists the open receipts for a guild, sorted by channel.
func (s *Service) Summaries(guildID int64) []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Summary
	for _, r := range s.receipts {
		if r.GuildID != guildID {
			continue
		}
		var total int64
		for _, p := range r.Participants {
			total += p.PaidSum
		}
		out = append(out, Summary{
			ChannelID:    r.ChannelID,
			Participants: len(r.Participants),
			Expenses:     len(r.Expenses),
			TotalCents:   total,
			Total:        FormatCents(total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out
}

func (s *Service) open(channelID string) (*Receipt, error) {
	r, ok := s.receipts[channelID]
	if !ok {
		return nil, statef("no open receipt here, /start one first")
	}
	return r, nil
}

func (s *Service) join(ctx context.Context, r *Receipt, name string) error {
	if _, ok := r.Participants[name]; ok {
		return nil
	}
	if s.store != nil {
		if err := s.store.UpsertParticipant(ctx, r.ID, name); err != nil {
			return err
		}
	}
	r.Participants[name] = &Participant{Name: name}
	return nil
}

// logf appends a timestamped line to the receipt history. Persistence of log
// lines is best effort.
func (s *Service) logf(ctx context.Context, r *Receipt, format string, args ...any) {
	at := s.now()
	line := at.In(s.loc).Format("Mon 02 Jan, 03:04PM") + " --- " + strings.TrimSpace(fmt.Sprintf(format, args...))
	r.Logs = append(r.Logs, line)
	if s.store != nil {
		if err := s.store.AppendLog(ctx, r.ID, at, line); err != nil {
			log.Printf("receipt: failed to persist log line: %v", err)
		}
	}
}

func balances(r *Receipt) []Balance {
	names := participantNames(r)
	net := NetBalances(names, r.Expenses)
	out := make([]Balance, 0, len(names))
	for _, name := range names {
		paid := r.Participants[name].PaidSum
		out = append(out, Balance{
			Name:      name,
			PaidCents: paid,
			OwedCents: paid - net[name],
			NetCents:  net[name],
		})
	}
	return out
}

func participantNames(r *Receipt) []string {
	names := make([]string, 0, len(r.Participants))
	for name := range r.Participants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func remove(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
