package commands

import "github.com/bwmarrin/discordgo"

func GetCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:         "start",
			Description:  "Opens a fresh receipt for this channel, clearing all previous records",
			DMPermission: boolPtr(false),
		},
		{
			Name:         "help",
			Description:  "Displays all commands",
			DMPermission: boolPtr(false),
		},
		{
			Name:         "add",
			Description:  "Adds an expense to the receipt",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Who paid",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "amount",
					Description: "Amount paid",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "for",
					Description: "Comma-separated names sharing the cost (default: everyone)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "memo",
					Description: "What the expense was for",
				},
			},
		},
		{
			Name:         "del",
			Description:  "Removes a person and their expenses from the receipt",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Who to remove",
					Required:    true,
				},
			},
		},
		{
			Name:         "view",
			Description:  "Displays accumulated expenses and net balances",
			DMPermission: boolPtr(false),
		},
		{
			Name:         "resolve",
			Description:  "Calculates which individual needs to pay whom",
			DMPermission: boolPtr(false),
		},
		{
			Name:         "logs",
			Description:  "Displays all activity since the receipt was opened",
			DMPermission: boolPtr(false),
		},
		{
			Name:         "done",
			Description:  "Marks a settlement transfer as paid",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "debtor",
					Description: "Who paid the transfer",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "creditor",
					Description: "Who received it",
					Required:    true,
				},
			},
		},
		{
			Name:         "remind",
			Description:  "Configures unpaid-settlement reminders for this channel",
			DMPermission: boolPtr(false),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "enabled",
					Description: "Turn reminders on or off (omit to show the current setting)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "minutes",
					Description: "Reminder interval in minutes (default 60)",
				},
			},
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
