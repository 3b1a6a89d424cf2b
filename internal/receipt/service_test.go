package receipt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s := NewService(nil, time.UTC)
	s.now = func() time.Time { return time.Date(2024, 3, 9, 19, 30, 0, 0, time.UTC) }
	if err := s.Start(context.Background(), 1, "chan", "tester"); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return s
}

func TestAddExpenseValidation(t *testing.T) {
	tests := []struct {
		name   string
		payer  string
		amount string
	}{
		{name: "zero amount", payer: "John", amount: "0"},
		{name: "negative amount", payer: "John", amount: "-5"},
		{name: "sub-cent amount", payer: "John", amount: "1.005"},
		{name: "empty payer", payer: "  ", amount: "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t)
			err := s.AddExpense(context.Background(), "chan", tt.payer, dec(tt.amount), "", nil)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("AddExpense() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestCommandsWithoutReceipt(t *testing.T) {
	s := NewService(nil, time.UTC)
	ctx := context.Background()

	var serr *StateError
	if err := s.AddExpense(ctx, "chan", "John", dec("10"), "", nil); !errors.As(err, &serr) {
		t.Errorf("AddExpense() error = %v, want StateError", err)
	}
	if _, err := s.Balances("chan"); !errors.As(err, &serr) {
		t.Errorf("Balances() error = %v, want StateError", err)
	}
	if _, err := s.Resolve(ctx, "chan"); !errors.As(err, &serr) {
		t.Errorf("Resolve() error = %v, want StateError", err)
	}
}

func TestResolveThirtyDollarExample(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if err := s.AddExpense(ctx, "chan", "A", dec("30"), "dinner", nil); err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}
	if err := s.AddParticipant(ctx, "chan", "B"); err != nil {
		t.Fatalf("AddParticipant() error: %v", err)
	}
	if err := s.AddParticipant(ctx, "chan", "C"); err != nil {
		t.Fatalf("AddParticipant() error: %v", err)
	}

	balances, err := s.Balances("chan")
	if err != nil {
		t.Fatalf("Balances() error: %v", err)
	}
	wantNet := map[string]int64{"A": 2000, "B": -1000, "C": -1000}
	for _, b := range balances {
		if b.NetCents != wantNet[b.Name] {
			t.Errorf("net[%s] = %d, want %d", b.Name, b.NetCents, wantNet[b.Name])
		}
	}

	transfers, err := s.Resolve(ctx, "chan")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	want := []Transfer{
		{Debtor: "B", Creditor: "A", AmountCents: 1000},
		{Debtor: "C", Creditor: "A", AmountCents: 1000},
	}
	if len(transfers) != len(want) {
		t.Fatalf("Resolve() = %v, want %v", transfers, want)
	}
	for i := range want {
		if transfers[i] != want[i] {
			t.Errorf("transfer[%d] = %v, want %v", i, transfers[i], want[i])
		}
	}
}

func TestResolveNeedsTwoParticipants(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if err := s.AddExpense(ctx, "chan", "A", dec("10"), "", nil); err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}

	var serr *StateError
	if _, err := s.Resolve(ctx, "chan"); !errors.As(err, &serr) {
		t.Errorf("Resolve() error = %v, want StateError", err)
	}
}

func TestResolveWithEqualSpending(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if err := s.AddExpense(ctx, "chan", "A", dec("10"), "", nil); err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}
	if err := s.AddExpense(ctx, "chan", "B", dec("10"), "", nil); err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}

	var serr *StateError
	if _, err := s.Resolve(ctx, "chan"); !errors.As(err, &serr) {
		t.Errorf("Resolve() error = %v, want StateError", err)
	}
}

func TestStartClearsEverything(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if err := s.AddExpense(ctx, "chan", "A", dec("30"), "", nil); err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}
	if err := s.Start(ctx, 1, "chan", "tester"); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	names, err := s.Participants("chan")
	if err != nil {
		t.Fatalf("Participants() error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("participants after restart = %v, want none", names)
	}
	expenses, err := s.Expenses("chan")
	if err != nil {
		t.Fatalf("Expenses() error: %v", err)
	}
	if len(expenses) != 0 {
		t.Errorf("expenses after restart = %v, want none", expenses)
	}
}

func TestRemoveParticipant(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if err := s.AddExpense(ctx, "chan", "A", dec("30"), "", nil); err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}
	if err := s.AddExpense(ctx, "chan", "B", dec("12"), "taxi", []string{"A", "B"}); err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}
	if err := s.AddExpense(ctx, "chan", "C", dec("5"), "just for A", []string{"A"}); err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}

	if err := s.RemoveParticipant(ctx, "chan", "A"); err != nil {
		t.Fatalf("RemoveParticipant() error: %v", err)
	}

	names, _ := s.Participants("chan")
	for _, n := range names {
		if n == "A" {
			t.Errorf("participant A still present after removal")
		}
	}

	expenses, _ := s.Expenses("chan")
	// A's own expense goes; the subgroup expense for A alone has nobody left
	// to share it, so it goes too; B's taxi stays with B as sole beneficiary.
	if len(expenses) != 1 {
		t.Fatalf("expenses after removal = %v, want exactly the taxi", expenses)
	}
	if expenses[0].Payer != "B" || len(expenses[0].Beneficiaries) != 1 || expenses[0].Beneficiaries[0] != "B" {
		t.Errorf("remaining expense = %+v, want B's taxi shared by B only", expenses[0])
	}

	// C's payment vanished with the dropped expense, so C must be back to
	// zero paid; B still carries the taxi.
	balances, err := s.Balances("chan")
	if err != nil {
		t.Fatalf("Balances() error: %v", err)
	}
	wantPaid := map[string]int64{"B": 1200, "C": 0}
	for _, b := range balances {
		if b.PaidCents != wantPaid[b.Name] {
			t.Errorf("paid[%s] = %d, want %d", b.Name, b.PaidCents, wantPaid[b.Name])
		}
	}

	var verr *ValidationError
	if err := s.RemoveParticipant(ctx, "chan", "Nobody"); !errors.As(err, &verr) {
		t.Errorf("RemoveParticipant(unknown) error = %v, want ValidationError", err)
	}
}

func TestRemoveParticipantClearsOtherPayersSum(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if err := s.AddExpense(ctx, "chan", "C", dec("5"), "", []string{"A"}); err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}
	if err := s.RemoveParticipant(ctx, "chan", "A"); err != nil {
		t.Fatalf("RemoveParticipant() error: %v", err)
	}

	balances, err := s.Balances("chan")
	if err != nil {
		t.Fatalf("Balances() error: %v", err)
	}
	if len(balances) != 1 || balances[0].Name != "C" {
		t.Fatalf("Balances() = %+v, want only C", balances)
	}
	if balances[0].PaidCents != 0 || balances[0].NetCents != 0 {
		t.Errorf("C after removal = %+v, want paid 0 and net 0", balances[0])
	}
}

func TestCompleteTransfer(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if err := s.AddExpense(ctx, "chan", "A", dec("30"), "", nil); err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}
	if err := s.AddParticipant(ctx, "chan", "B"); err != nil {
		t.Fatalf("AddParticipant() error: %v", err)
	}
	if _, err := s.Resolve(ctx, "chan"); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	// Direction should not matter
	done, err := s.CompleteTransfer(ctx, "chan", "A", "B")
	if err != nil {
		t.Fatalf("CompleteTransfer() error: %v", err)
	}
	if done.Debtor != "B" || done.Creditor != "A" || done.AmountCents != 1500 {
		t.Errorf("completed transfer = %+v, want B→A 1500", done)
	}

	pending, err := s.PendingTransfers("chan")
	if err != nil {
		t.Fatalf("PendingTransfers() error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending transfers = %v, want none", pending)
	}

	var serr *StateError
	if _, err := s.CompleteTransfer(ctx, "chan", "A", "B"); !errors.As(err, &serr) {
		t.Errorf("CompleteTransfer() on settled pair error = %v, want StateError", err)
	}
}

func TestHistoryFormat(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if err := s.AddExpense(ctx, "chan", "John", dec("12.50"), "pizza", []string{"John", "Ann"}); err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}

	logs, err := s.History("chan")
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("History() = %v, want one line", logs)
	}
	want := "Sat 09 Mar, 07:30PM --- John paid 12.50 for pizza (split by John, Ann)"
	if logs[0] != want {
		t.Errorf("log line = %q, want %q", logs[0], want)
	}
}

func TestRestore(t *testing.T) {
	s := NewService(nil, time.UTC)
	s.Restore([]PersistedReceipt{
		{
			ID:           7,
			GuildID:      1,
			ChannelID:    "chan",
			OpenedBy:     "tester",
			Participants: []string{"A", "B"},
			Expenses:     []Expense{{Payer: "A", Amount: dec("10")}},
			Transfers:    []Transfer{{Debtor: "B", Creditor: "A", AmountCents: 500}},
		},
	})

	balances, err := s.Balances("chan")
	if err != nil {
		t.Fatalf("Balances() error: %v", err)
	}
	var paid int64
	for _, b := range balances {
		if b.Name == "A" {
			paid = b.PaidCents
		}
	}
	if paid != 1000 {
		t.Errorf("restored paid sum for A = %d, want 1000", paid)
	}

	id, err := s.ReceiptID("chan")
	if err != nil || id != 7 {
		t.Errorf("ReceiptID() = %d, %v, want 7, nil", id, err)
	}
}

func TestSummaries(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	if err := s.AddExpense(ctx, "chan", "A", dec("12.34"), "", nil); err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}
	if err := s.Start(ctx, 2, "other", "tester"); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	sums := s.Summaries(1)
	if len(sums) != 1 {
		t.Fatalf("Summaries(1) = %v, want one entry", sums)
	}
	got := sums[0]
	if got.ChannelID != "chan" || got.Participants != 1 || got.Expenses != 1 {
		t.Errorf("summary = %+v", got)
	}
	if got.Total != "12.34" {
		t.Errorf("summary total = %q, want 12.34", got.Total)
	}
	if !strings.Contains(got.Total, ".") {
		t.Errorf("summary total not fixed-point: %q", got.Total)
	}
}
