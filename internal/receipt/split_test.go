package receipt

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestShares(t *testing.T) {
	tests := []struct {
		name        string
		amountCents int64
		names       []string
		want        map[string]int64
	}{
		{
			name:        "even split",
			amountCents: 3000,
			names:       []string{"A", "B", "C"},
			want:        map[string]int64{"A": 1000, "B": 1000, "C": 1000},
		},
		{
			name:        "remainder goes to lexicographically first names",
			amountCents: 1000,
			names:       []string{"C", "A", "B"},
			want:        map[string]int64{"A": 334, "B": 333, "C": 333},
		},
		{
			name:        "two cent remainder",
			amountCents: 1001,
			names:       []string{"B", "C", "A"},
			want:        map[string]int64{"A": 334, "B": 334, "C": 333},
		},
		{
			name:        "single beneficiary",
			amountCents: 555,
			names:       []string{"A"},
			want:        map[string]int64{"A": 555},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Shares(tt.amountCents, tt.names)
			if len(got) != len(tt.want) {
				t.Fatalf("Shares() = %v, want %v", got, tt.want)
			}
			var sum int64
			for name, share := range got {
				sum += share
				if share != tt.want[name] {
					t.Errorf("share[%s] = %d, want %d", name, share, tt.want[name])
				}
			}
			if sum != tt.amountCents {
				t.Errorf("shares sum to %d, want %d", sum, tt.amountCents)
			}
		})
	}
}

func TestNetBalancesSumToZero(t *testing.T) {
	participants := []string{"A", "B", "C", "D"}
	expenses := []Expense{
		{Payer: "A", Amount: dec("30")},
		{Payer: "B", Amount: dec("10.01")},
		{Payer: "C", Amount: dec("7.77"), Beneficiaries: []string{"C", "D"}},
		{Payer: "D", Amount: dec("0.05"), Beneficiaries: []string{"A", "B", "C"}},
	}

	net := NetBalances(participants, expenses)

	var sum int64
	for _, c := range net {
		sum += c
	}
	if sum != 0 {
		t.Errorf("net balances sum to %d, want 0", sum)
	}
}

func TestNetBalancesSubgroupOnlyAffectsBeneficiaries(t *testing.T) {
	participants := []string{"A", "B", "C"}
	expenses := []Expense{
		{Payer: "A", Amount: dec("20"), Beneficiaries: []string{"A", "B"}},
	}

	net := NetBalances(participants, expenses)

	if net["C"] != 0 {
		t.Errorf("net[C] = %d, want 0 (not a beneficiary)", net["C"])
	}
	if net["A"] != 1000 {
		t.Errorf("net[A] = %d, want 1000", net["A"])
	}
	if net["B"] != -1000 {
		t.Errorf("net[B] = %d, want -1000", net["B"])
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name string
		net  map[string]int64
		want []Transfer
	}{
		{
			name: "thirty dollars paid by A",
			net:  map[string]int64{"A": 2000, "B": -1000, "C": -1000},
			want: []Transfer{
				{Debtor: "B", Creditor: "A", AmountCents: 1000},
				{Debtor: "C", Creditor: "A", AmountCents: 1000},
			},
		},
		{
			name: "chained debts collapse",
			net:  map[string]int64{"A": 1500, "B": 500, "C": -2000},
			want: []Transfer{
				{Debtor: "C", Creditor: "A", AmountCents: 1500},
				{Debtor: "C", Creditor: "B", AmountCents: 500},
			},
		},
		{
			name: "all settled",
			net:  map[string]int64{"A": 0, "B": 0},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.net)
			if len(got) != len(tt.want) {
				t.Fatalf("Plan() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("transfer[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Transfers must offset each participant's balance exactly.
func TestPlanOffsetsBalances(t *testing.T) {
	net := map[string]int64{"A": 2117, "B": -301, "C": -1816, "D": 703, "E": -703}

	remaining := make(map[string]int64, len(net))
	for name, c := range net {
		remaining[name] = c
	}
	for _, tr := range Plan(net) {
		remaining[tr.Debtor] += tr.AmountCents
		remaining[tr.Creditor] -= tr.AmountCents
	}
	for name, c := range remaining {
		if c != 0 {
			t.Errorf("participant %s left with %d after settlement, want 0", name, c)
		}
	}
}

func TestCentsRoundTrip(t *testing.T) {
	if got := Cents(dec("12.34")); got != 1234 {
		t.Errorf("Cents(12.34) = %d, want 1234", got)
	}
	if got := FormatCents(-1234); got != "-12.34" {
		t.Errorf("FormatCents(-1234) = %s, want -12.34", got)
	}
}
