package receipt

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is the running tab for one channel.
type Receipt struct {
	ID           int64
	GuildID      int64
	ChannelID    string
	OpenedBy     string
	Participants map[string]*Participant
	Expenses     []Expense
	Transfers    []Transfer
	Logs         []string
}

type Participant struct {
	Name    string
	PaidSum int64 // cents
}

type Expense struct {
	ID          int64
	Payer       string
	Amount      decimal.Decimal
	Description string
	// Beneficiaries is the subgroup sharing the cost. Empty means every
	// participant on the receipt at resolution time.
	Beneficiaries []string
	At            time.Time
}

// Transfer is one leg of a settlement: Debtor pays Creditor.
type Transfer struct {
	Debtor      string
	Creditor    string
	AmountCents int64
	Completed   bool
}

// Balance is derived, never stored: net > 0 means the participant is owed
// money, net < 0 means they owe.
type Balance struct {
	Name      string
	PaidCents int64
	OwedCents int64
	NetCents  int64
}

// PersistedReceipt is the flat form loaded from the database at startup.
type PersistedReceipt struct {
	ID           int64
	GuildID      int64
	ChannelID    string
	OpenedBy     string
	Participants []string
	Expenses     []Expense
	Transfers    []Transfer
	Logs         []string
}

// Summary is the per-receipt view exposed over the HTTP API.
type Summary struct {
	ChannelID    string `json:"channel_id"`
	Participants int    `json:"participants"`
	Expenses     int    `json:"expenses"`
	TotalCents   int64  `json:"total_cents"`
	Total        string `json:"total"`
}

// Cents converts a decimal amount to integer cents.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(2).IntPart()
}

// FormatCents renders integer cents as a fixed two-decimal string.
func FormatCents(c int64) string {
	return decimal.New(c, -2).StringFixed(2)
}
