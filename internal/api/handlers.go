package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/nelthm/splitlater/internal/receipt"
)

type expenseJSON struct {
	Payer         string    `json:"payer"`
	Amount        string    `json:"amount"`
	Description   string    `json:"description,omitempty"`
	Beneficiaries []string  `json:"beneficiaries,omitempty"`
	At            time.Time `json:"at"`
}

type balanceJSON struct {
	Name string `json:"name"`
	Paid string `json:"paid"`
	Owed string `json:"owed"`
	Net  string `json:"net"`
}

type transferJSON struct {
	Debtor    string `json:"debtor"`
	Creditor  string `json:"creditor"`
	Amount    string `json:"amount"`
	Completed bool   `json:"completed"`
}

// Protected handlers
func (a *API) handleUserGuilds(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value("claims").(*Claims)

	guilds, err := a.getDiscordGuilds(claims.AccessToken)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to get guilds: %v", err), http.StatusBadGateway)
		return
	}

	// Only show guilds that have ever opened a receipt
	knownIDs, err := a.db.GuildIDsWithReceipts(context.Background())
	if err != nil {
		http.Error(w, "failed to get known guilds", http.StatusInternalServerError)
		return
	}

	knownMap := make(map[int64]bool)
	for _, id := range knownIDs {
		knownMap[id] = true
	}

	var filtered []DiscordGuild
	for _, guild := range guilds {
		guildID, _ := strconv.ParseInt(guild.ID, 10, 64)
		if knownMap[guildID] {
			filtered = append(filtered, guild)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(filtered)
}

func (a *API) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	guildID, ok := a.authorizeGuild(w, r)
	if !ok {
		return
	}

	summaries := a.receipts.Summaries(guildID)
	if summaries == nil {
		summaries = []receipt.Summary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

func (a *API) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	guildID, ok := a.authorizeGuild(w, r)
	if !ok {
		return
	}
	channelID := mux.Vars(r)["channel_id"]
	if !a.channelInGuild(guildID, channelID) {
		http.Error(w, "receipt not found", http.StatusNotFound)
		return
	}

	expenses, err := a.receipts.Expenses(channelID)
	if err != nil {
		writeReceiptError(w, err)
		return
	}
	balances, err := a.receipts.Balances(channelID)
	if err != nil {
		writeReceiptError(w, err)
		return
	}

	ej := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		ej = append(ej, expenseJSON{
			Payer:         e.Payer,
			Amount:        e.Amount.StringFixed(2),
			Description:   e.Description,
			Beneficiaries: e.Beneficiaries,
			At:            e.At,
		})
	}
	bj := make([]balanceJSON, 0, len(balances))
	for _, b := range balances {
		bj = append(bj, balanceJSON{
			Name: b.Name,
			Paid: receipt.FormatCents(b.PaidCents),
			Owed: receipt.FormatCents(b.OwedCents),
			Net:  receipt.FormatCents(b.NetCents),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"channel_id": channelID,
		"expenses":   ej,
		"balances":   bj,
	})
}

func (a *API) handleGetSettlement(w http.ResponseWriter, r *http.Request) {
	guildID, ok := a.authorizeGuild(w, r)
	if !ok {
		return
	}
	channelID := mux.Vars(r)["channel_id"]
	if !a.channelInGuild(guildID, channelID) {
		http.Error(w, "receipt not found", http.StatusNotFound)
		return
	}

	pending, err := a.receipts.PendingTransfers(channelID)
	if err != nil {
		writeReceiptError(w, err)
		return
	}

	tj := make([]transferJSON, 0, len(pending))
	for _, t := range pending {
		tj = append(tj, transferJSON{
			Debtor:    t.Debtor,
			Creditor:  t.Creditor,
			Amount:    receipt.FormatCents(t.AmountCents),
			Completed: t.Completed,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tj)
}

// authorizeGuild parses {guild_id} and checks the caller belongs to it.
func (a *API) authorizeGuild(w http.ResponseWriter, r *http.Request) (int64, bool) {
	claims := r.Context().Value("claims").(*Claims)
	vars := mux.Vars(r)
	guildID, err := strconv.ParseInt(vars["guild_id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid guild_id", http.StatusBadRequest)
		return 0, false
	}

	if !a.userHasGuildAccess(claims.AccessToken, guildID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return 0, false
	}
	return guildID, true
}

func writeReceiptError(w http.ResponseWriter, err error) {
	var serr *receipt.StateError
	if errors.As(err, &serr) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// channelInGuild reports whether the channel's open receipt belongs to the
// guild.
func (a *API) channelInGuild(guildID int64, channelID string) bool {
	for _, s := range a.receipts.Summaries(guildID) {
		if s.ChannelID == channelID {
			return true
		}
	}
	return false
}

// Helper functions
func (a *API) userHasGuildAccess(accessToken string, guildID int64) bool {
	guilds, err := a.getDiscordGuilds(accessToken)
	if err != nil {
		return false
	}

	for _, guild := range guilds {
		id, _ := strconv.ParseInt(guild.ID, 10, 64)
		if id == guildID {
			return true
		}
	}
	return false
}
