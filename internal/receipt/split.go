package receipt

import "sort"

// Shares splits amountCents evenly among names. Shares sum exactly to
// amountCents: everyone pays floor(amount/n) and the remainder goes one cent
// each to the lexicographically first names.
func Shares(amountCents int64, names []string) map[string]int64 {
	if len(names) == 0 {
		return nil
	}
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	n := int64(len(sorted))
	base := amountCents / n
	rem := amountCents % n

	shares := make(map[string]int64, len(sorted))
	for i, name := range sorted {
		s := base
		if int64(i) < rem {
			s++
		}
		shares[name] = s
	}
	return shares
}

// NetBalances computes net cents per participant: paid minus owed across all
// expenses. Expenses without an explicit beneficiary list are shared by
// everyone on the receipt. The returned values always sum to zero.
func NetBalances(participants []string, expenses []Expense) map[string]int64 {
	net := make(map[string]int64, len(participants))
	for _, name := range participants {
		net[name] = 0
	}

	for _, e := range expenses {
		targets := e.Beneficiaries
		if len(targets) == 0 {
			targets = participants
		}
		amount := Cents(e.Amount)
		net[e.Payer] += amount
		for name, share := range Shares(amount, targets) {
			net[name] -= share
		}
	}
	return net
}

// Plan reduces net balances to a minimal transfer list: the largest creditor
// is matched against the largest debtor until everything is zero. Ties break
// on name so the plan is deterministic.
func Plan(net map[string]int64) []Transfer {
	type bal struct {
		name  string
		cents int64
	}
	var creditors, debtors []bal
	for name, c := range net {
		switch {
		case c > 0:
			creditors = append(creditors, bal{name, c})
		case c < 0:
			debtors = append(debtors, bal{name, -c})
		}
	}
	byMagnitude := func(s []bal) {
		sort.Slice(s, func(i, j int) bool {
			if s[i].cents != s[j].cents {
				return s[i].cents > s[j].cents
			}
			return s[i].name < s[j].name
		})
	}
	byMagnitude(creditors)
	byMagnitude(debtors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		c, d := &creditors[i], &debtors[j]
		amt := c.cents
		if d.cents < amt {
			amt = d.cents
		}
		transfers = append(transfers, Transfer{Debtor: d.name, Creditor: c.name, AmountCents: amt})
		c.cents -= amt
		d.cents -= amt
		if c.cents == 0 {
			i++
		}
		if d.cents == 0 {
			j++
		}
	}
	return transfers
}
