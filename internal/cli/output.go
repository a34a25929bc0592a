package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mcoot/whotscan/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		o.printHealth(v)
	case response.NextGameID:
		fmt.Fprintf(o.w, "Next game ID: %s\n", v.NextGameID)
	case response.Game:
		o.printGame(v)
	case response.GameList:
		o.printGameList(v)
	case response.PlayerList:
		o.printPlayerList(v)
	case response.Player:
		o.printPlayer(v)
	case response.Commitment:
		o.printCommitment(v)
	case response.Hand:
		o.printHand(v)
	case response.HandList:
		if len(v.Hands) == 0 {
			fmt.Fprintf(o.w, "No decoded hands for game %s\n", v.GameID)
		}
		for _, h := range v.Hands {
			o.printHand(h)
		}
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if h.Contract != "" {
		fmt.Fprintf(o.w, "Contract: %s\n", h.Contract)
	}
}

func (o *Output) printGame(g response.Game) {
	fmt.Fprintf(o.w, "Game %s\n", g.ID)
	fmt.Fprintf(o.w, "  Status:      %s\n", g.Status)
	fmt.Fprintf(o.w, "  Creator:     %s\n", g.Creator)
	fmt.Fprintf(o.w, "  Players:     %d/%d (%d left to join)\n", g.PlayersJoined, g.MaxPlayers, g.PlayersLeft)
	fmt.Fprintf(o.w, "  Turn:        seat %d\n", g.CurrentTurnIndex)
	if g.CallCard != nil {
		fmt.Fprintf(o.w, "  Call card:   %s\n", formatCard(*g.CallCard))
	} else {
		fmt.Fprintf(o.w, "  Call card:   -\n")
	}
	if !g.LastMoveAt.IsZero() && g.LastMoveAt.Unix() != 0 {
		fmt.Fprintf(o.w, "  Last move:   %s\n", g.LastMoveAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(o.w, "  Hand size:   %d\n", g.InitialHandSize)
	fmt.Fprintf(o.w, "  Market:      %d cards\n", g.MarketSize)
	if len(g.MarketCards) > 0 {
		fmt.Fprintf(o.w, "               %s\n", formatCards(g.MarketCards))
	}
	fmt.Fprintf(o.w, "  Ruleset:     %s\n", g.Ruleset)
}

func (o *Output) printGameList(l response.GameList) {
	if len(l.Games) == 0 {
		fmt.Fprintln(o.w, "No games found")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPLAYERS\tMARKET\tCREATOR")
	for _, g := range l.Games {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d\t%s\n", g.ID, g.Status, g.PlayersJoined, g.MaxPlayers, g.MarketSize, g.Creator)
	}
	_ = tw.Flush()
}

func (o *Output) printPlayerList(l response.PlayerList) {
	fmt.Fprintf(o.w, "Players of game %s\n", l.GameID)
	if len(l.Players) == 0 {
		fmt.Fprintln(o.w, "  (none)")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEAT\tADDRESS\tHAND\tSCORE\tPENDING\tFORFEITED")
	for _, p := range l.Players {
		address := p.Address
		if p.Empty {
			address = "(empty)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%t\n", p.Index, address, p.HandSize, p.Score, p.PendingActions, p.Forfeited)
	}
	_ = tw.Flush()
}

func (o *Output) printPlayer(p response.Player) {
	fmt.Fprintf(o.w, "Seat %d\n", p.Index)
	if p.Empty {
		fmt.Fprintln(o.w, "  (empty)")
		return
	}
	fmt.Fprintf(o.w, "  Address:     %s\n", p.Address)
	fmt.Fprintf(o.w, "  Hand size:   %d\n", p.HandSize)
	fmt.Fprintf(o.w, "  Hand slots:  %s\n", formatIndices(p.DeckMap.Indices))
	fmt.Fprintf(o.w, "  Score:       %d\n", p.Score)
	fmt.Fprintf(o.w, "  Pending:     %d\n", p.PendingActions)
	fmt.Fprintf(o.w, "  Forfeited:   %t\n", p.Forfeited)
}

func (o *Output) printCommitment(c response.Commitment) {
	fmt.Fprintf(o.w, "Game %s commitment\n", c.GameID)
	fmt.Fprintf(o.w, "  Hash:    %s\n", c.Hash)
	fmt.Fprintf(o.w, "  Pending: %t\n", c.Pending)
}

func (o *Output) printHand(h response.Hand) {
	fmt.Fprintf(o.w, "Game %s, seat %d: %d cards\n", h.GameID, h.PlayerIndex, len(h.Cards))
	if len(h.Cards) > 0 {
		fmt.Fprintf(o.w, "  %s\n", formatCards(h.Cards))
	}
}

func formatCard(c response.Card) string {
	return fmt.Sprintf("%s %d", c.Shape, c.Number)
}

func formatCards(cards []response.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = formatCard(c)
	}
	return strings.Join(parts, ", ")
}

func formatIndices(indices []int) string {
	if len(indices) == 0 {
		return "-"
	}
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return strings.Join(parts, " ")
}
