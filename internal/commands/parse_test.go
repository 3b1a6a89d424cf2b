package commands

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Command
		wantErr bool
	}{
		{
			name:  "not addressed to the bot",
			input: "hello everyone",
			want:  nil,
		},
		{
			name:  "prefix-only shows help",
			input: "!tab",
			want:  &Command{Kind: KindHelp},
		},
		{
			name:  "start",
			input: "!tab start",
			want:  &Command{Kind: KindStart},
		},
		{
			name:  "simple add",
			input: "!tab add John 10",
			want:  &Command{Kind: KindAdd, Name: "John", Amount: decimal.NewFromInt(10)},
		},
		{
			name:  "add with memo",
			input: "!tab add John 12.50 late night pizza",
			want:  &Command{Kind: KindAdd, Name: "John", Amount: decimal.RequireFromString("12.50"), Memo: "late night pizza"},
		},
		{
			name:  "add with subgroup and memo",
			input: "!tab add John 12.50 for Alice,Bob pizza",
			want: &Command{
				Kind:          KindAdd,
				Name:          "John",
				Amount:        decimal.RequireFromString("12.50"),
				Beneficiaries: []string{"Alice", "Bob"},
				Memo:          "pizza",
			},
		},
		{
			name:    "add with non-numeric amount",
			input:   "!tab add John ten",
			wantErr: true,
		},
		{
			name:    "add missing amount",
			input:   "!tab add John",
			wantErr: true,
		},
		{
			name:    "add with dangling for",
			input:   "!tab add John 10 for",
			wantErr: true,
		},
		{
			name:  "del",
			input: "!tab del John",
			want:  &Command{Kind: KindDel, Name: "John"},
		},
		{
			name:    "del without name",
			input:   "!tab del",
			wantErr: true,
		},
		{
			name:  "done",
			input: "!tab done John Alice",
			want:  &Command{Kind: KindDone, Debtor: "John", Creditor: "Alice"},
		},
		{
			name:  "remind on with interval",
			input: "!tab remind on 30",
			want:  &Command{Kind: KindRemind, RemindOn: true, RemindMinutes: 30},
		},
		{
			name:  "remind off",
			input: "!tab remind off",
			want:  &Command{Kind: KindRemind},
		},
		{
			name:  "bare remind queries the setting",
			input: "!tab remind",
			want:  &Command{Kind: KindRemind, RemindQuery: true},
		},
		{
			name:    "remind with bad interval",
			input:   "!tab remind on zero",
			wantErr: true,
		},
		{
			name:    "unknown subcommand",
			input:   "!tab dance",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if tt.want == nil {
				if got != nil {
					t.Fatalf("Parse(%q) = %+v, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Parse(%q) = nil, want %+v", tt.input, tt.want)
			}
			if got.Kind != tt.want.Kind || got.Name != tt.want.Name || got.Memo != tt.want.Memo ||
				got.Debtor != tt.want.Debtor || got.Creditor != tt.want.Creditor ||
				got.RemindOn != tt.want.RemindOn || got.RemindMinutes != tt.want.RemindMinutes ||
				got.RemindQuery != tt.want.RemindQuery {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if !got.Amount.Equal(tt.want.Amount) {
				t.Errorf("Parse(%q) amount = %s, want %s", tt.input, got.Amount, tt.want.Amount)
			}
			if len(got.Beneficiaries) != len(tt.want.Beneficiaries) {
				t.Fatalf("Parse(%q) beneficiaries = %v, want %v", tt.input, got.Beneficiaries, tt.want.Beneficiaries)
			}
			for i := range got.Beneficiaries {
				if got.Beneficiaries[i] != tt.want.Beneficiaries[i] {
					t.Errorf("beneficiary[%d] = %s, want %s", i, got.Beneficiaries[i], tt.want.Beneficiaries[i])
				}
			}
		})
	}
}

func TestSplitNames(t *testing.T) {
	got := SplitNames(" Alice, ,Bob ,")
	want := []string{"Alice", "Bob"}
	if len(got) != len(want) {
		t.Fatalf("SplitNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SplitNames()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
