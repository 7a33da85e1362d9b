// Package reporting renders rankings and competition state as chat text.
package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solana-buy-ranking/internal/domain"
	"solana-buy-ranking/internal/ranking"
)

// timeLayout is used for every timestamp shown to users.
const timeLayout = "2006-01-02 15:04 UTC"

// ShortAddress abbreviates addr to its first six and last four characters.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// FormatSOL formats a native amount with four decimals.
func FormatSOL(amount decimal.Decimal) string {
	return amount.StringFixed(4) + " SOL"
}

// RenderRanking renders r as a numbered list, one line per wallet.
func RenderRanking(token string, window domain.Window, r *domain.Ranking) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🏆 Top %d Buyers (%s) 🏆\n", len(r.Entries), ShortAddress(token)))
	sb.WriteString(fmt.Sprintf("%s - %s\n\n", formatUnix(window.Start), formatUnix(window.End)))

	for _, e := range r.Entries {
		sb.WriteString(fmt.Sprintf("%d. %s - %s\n", e.Rank, ShortAddress(e.Wallet), FormatSOL(e.TotalNativeSpent)))
	}
	if r.Truncated() {
		sb.WriteString(fmt.Sprintf("\n+%d more wallets not shown\n", r.Omitted))
	}
	return sb.String()
}

// RenderResult renders a ranking query result. Every non-OK status gets its
// own message, so an empty ranking is never shown as a ranking.
func RenderResult(res *ranking.Result, token string) string {
	if res.Competition != nil {
		token = res.Competition.TargetToken
	}

	switch res.Status {
	case ranking.StatusOK:
		out := RenderRanking(token, res.Window, res.Ranking)
		if res.Truncated {
			out += "\n" + coverageNote(res) + " Older buys are not counted.\n"
		}
		return out
	case ranking.StatusNoCompetition:
		return "No competition in this group. Start one with /startcompetition <token> <days>."
	case ranking.StatusEnded:
		return fmt.Sprintf("The competition for %s ended on %s. Start a new one with /startcompetition <token> <days>.",
			ShortAddress(token), formatUnix(res.Window.End))
	case ranking.StatusNoBuys:
		return fmt.Sprintf("No qualifying buys of %s found in %s - %s.",
			ShortAddress(token), formatUnix(res.Window.Start), formatUnix(res.Window.End))
	case ranking.StatusNoBuysPartial:
		return fmt.Sprintf("No qualifying buys of %s found. %s The rest of %s - %s was not checked.",
			ShortAddress(token), coverageNote(res), formatUnix(res.Window.Start), formatUnix(res.Window.End))
	default:
		return fmt.Sprintf("Unknown ranking status %q.", res.Status)
	}
}

// coverageNote states how much of the window a truncated scan covered.
func coverageNote(res *ranking.Result) string {
	listed := 0
	if res.Fetch != nil {
		listed = res.Fetch.Listed
	}
	if res.Scanned.Start == 0 {
		return fmt.Sprintf("Only the latest %d transactions were scanned.", listed)
	}
	return fmt.Sprintf("Only the latest %d transactions were scanned, back to %s.", listed, formatUnix(res.Scanned.Start))
}

// RenderCompetition describes the group's competition as of now.
func RenderCompetition(c *domain.Competition, status domain.CompetitionStatus, now time.Time) string {
	switch status {
	case domain.StatusActive:
		return fmt.Sprintf("Competition token: %s\nStarted: %s\nEnds: %s (%s left)",
			c.TargetToken,
			c.StartTime.UTC().Format(timeLayout),
			c.EndTime().UTC().Format(timeLayout),
			formatRemaining(c.EndTime().Sub(now)),
		)
	case domain.StatusExpired:
		return fmt.Sprintf("Competition token: %s\nEnded: %s",
			c.TargetToken,
			c.EndTime().UTC().Format(timeLayout),
		)
	default:
		return "No competition in this group. Start one with /startcompetition <token> <days>."
	}
}

// RenderStarted confirms a new competition and warns when an active one was
// overwritten.
func RenderStarted(c *domain.Competition, replaced *domain.Competition) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Competition started for %s.\nEnds: %s",
		c.TargetToken, c.EndTime().UTC().Format(timeLayout)))
	if replaced != nil {
		sb.WriteString(fmt.Sprintf("\n\nWarning: the running competition for %s was replaced.",
			ShortAddress(replaced.TargetToken)))
	}
	return sb.String()
}

func formatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(timeLayout)
}

// formatRemaining renders d as days and hours, rounding down.
func formatRemaining(d time.Duration) string {
	if d < time.Hour {
		return "less than 1h"
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	if days == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dd %dh", days, hours)
}
