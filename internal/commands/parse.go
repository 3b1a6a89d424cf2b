package commands

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nelthm/splitlater/internal/receipt"
)

// Prefix starts every text command, e.g. "!tab add John 10".
const Prefix = "!tab"

// Parse turns a text message into a Command. It returns (nil, nil) for
// messages that are not addressed to the bot; a non-nil error means the
// message was addressed to the bot but malformed.
func Parse(content string) (*Command, error) {
	content = strings.TrimSpace(content)
	if content != Prefix && !strings.HasPrefix(content, Prefix+" ") {
		return nil, nil
	}
	fields := strings.Fields(strings.TrimPrefix(content, Prefix))
	if len(fields) == 0 {
		return &Command{Kind: KindHelp}, nil
	}

	sub, args := fields[0], fields[1:]
	switch sub {
	case "start":
		return &Command{Kind: KindStart}, nil
	case "help":
		return &Command{Kind: KindHelp}, nil
	case "add":
		return parseAdd(args)
	case "del":
		if len(args) != 1 {
			return nil, &receipt.ValidationError{Reason: "the format should be '!tab del name'."}
		}
		return &Command{Kind: KindDel, Name: args[0]}, nil
	case "view":
		return &Command{Kind: KindView}, nil
	case "resolve":
		return &Command{Kind: KindResolve}, nil
	case "logs":
		return &Command{Kind: KindLogs}, nil
	case "done":
		if len(args) != 2 {
			return nil, &receipt.ValidationError{Reason: "the format should be '!tab done debtor creditor'."}
		}
		return &Command{Kind: KindDone, Debtor: args[0], Creditor: args[1]}, nil
	case "remind":
		return parseRemind(args)
	}
	return nil, &receipt.ValidationError{Reason: "unknown command '" + sub + "', type '!tab help' for usage."}
}

// parseAdd handles "add <name> <amount> [for a,b,c] [memo...]".
func parseAdd(args []string) (*Command, error) {
	if len(args) < 2 {
		return nil, &receipt.ValidationError{Reason: "the format should be '!tab add name value'."}
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return nil, &receipt.ValidationError{Reason: "non-numeric value found."}
	}
	cmd := &Command{Kind: KindAdd, Name: args[0], Amount: amount}

	rest := args[2:]
	if len(rest) > 0 && rest[0] == "for" {
		if len(rest) == 1 {
			return nil, &receipt.ValidationError{Reason: "'for' must be followed by a name list."}
		}
		cmd.Beneficiaries = SplitNames(rest[1])
		rest = rest[2:]
	}
	cmd.Memo = strings.Join(rest, " ")
	return cmd, nil
}

// parseRemind handles "remind on [minutes]", "remind off", and a bare
// "remind" that reports the current setting.
func parseRemind(args []string) (*Command, error) {
	if len(args) == 0 {
		return &Command{Kind: KindRemind, RemindQuery: true}, nil
	}
	switch args[0] {
	case "off":
		return &Command{Kind: KindRemind, RemindOn: false}, nil
	case "on":
		cmd := &Command{Kind: KindRemind, RemindOn: true}
		if len(args) > 1 {
			minutes, err := strconv.Atoi(args[1])
			if err != nil || minutes <= 0 {
				return nil, &receipt.ValidationError{Reason: "minutes must be a positive number."}
			}
			cmd.RemindMinutes = minutes
		}
		return cmd, nil
	}
	return nil, &receipt.ValidationError{Reason: "the format should be '!tab remind on [minutes]' or '!tab remind off'."}
}

// SplitNames splits a comma separated name list, dropping empties.
func SplitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
