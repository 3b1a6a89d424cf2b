package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"github.com/nelthm/splitlater/internal/receipt"
)

// HandleInteraction translates a slash command into a Command, runs it, and
// replies with the result.
func HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, svc *receipt.Service, reminders ReminderStore) {
	data := i.ApplicationCommandData()

	cmd, ok := fromInteraction(data)
	if !ok {
		respondText(s, i, unknownReply)
		return
	}

	invoker := ""
	if i.Member != nil && i.Member.User != nil {
		invoker = i.Member.User.Username
	}

	reply := Run(context.Background(), cmd, ParseGuildID(i.GuildID), i.ChannelID, invoker, svc, reminders)
	respondText(s, i, reply)
}

func fromInteraction(data discordgo.ApplicationCommandInteractionData) (*Command, bool) {
	switch data.Name {
	case "start":
		return &Command{Kind: KindStart}, true
	case "help":
		return &Command{Kind: KindHelp}, true
	case "add":
		cmd := &Command{Kind: KindAdd}
		for _, opt := range data.Options {
			switch opt.Name {
			case "name":
				cmd.Name = opt.StringValue()
			case "amount":
				cmd.Amount = decimal.NewFromFloat(opt.FloatValue())
			case "for":
				cmd.Beneficiaries = SplitNames(opt.StringValue())
			case "memo":
				cmd.Memo = opt.StringValue()
			}
		}
		return cmd, true
	case "del":
		cmd := &Command{Kind: KindDel}
		for _, opt := range data.Options {
			if opt.Name == "name" {
				cmd.Name = opt.StringValue()
			}
		}
		return cmd, true
	case "view":
		return &Command{Kind: KindView}, true
	case "resolve":
		return &Command{Kind: KindResolve}, true
	case "logs":
		return &Command{Kind: KindLogs}, true
	case "done":
		cmd := &Command{Kind: KindDone}
		for _, opt := range data.Options {
			switch opt.Name {
			case "debtor":
				cmd.Debtor = opt.StringValue()
			case "creditor":
				cmd.Creditor = opt.StringValue()
			}
		}
		return cmd, true
	case "remind":
		cmd := &Command{Kind: KindRemind, RemindQuery: true}
		for _, opt := range data.Options {
			switch opt.Name {
			case "enabled":
				cmd.RemindOn = opt.BoolValue()
				cmd.RemindQuery = false
			case "minutes":
				cmd.RemindMinutes = int(opt.IntValue())
			}
		}
		return cmd, true
	}
	return nil, false
}
