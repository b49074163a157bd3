package cli

import (
	"fmt"
	"math"
	"strings"

	"anoa.com/storefront/pkg/dto"
	"anoa.com/storefront/pkg/follow"
	"anoa.com/storefront/pkg/redemption"
	"anoa.com/storefront/pkg/session"
	"anoa.com/storefront/pkg/tier"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 30

// progressBar draws pct (0-100) as a fixed-width bar.
func progressBar(pct float64, width int) string {
	pct = math.Max(0, math.Min(100, pct))
	filled := int(math.Round(pct / 100 * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func renderTier(st tier.Status) string {
	style, ok := tierStyles[string(st.Tier)]
	if !ok {
		style = lipgloss.NewStyle().Bold(true)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %d points\n", style.Render(string(st.Tier)), st.CurrentPoints)
	fmt.Fprintf(&b, "%s %5.1f%%\n", progressBar(st.Progress, barWidth), st.Progress)
	if st.NextTier == "" {
		b.WriteString(mutedStyle.Render("Top tier reached"))
	} else {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d points to %s", st.PointsToNextTier, st.NextTier)))
	}
	return b.String()
}

func renderAccount(acc dto.RewardAccount) string {
	var b strings.Builder
	b.WriteString(renderTier(tier.StatusFor(acc.TotalPoints)))
	if len(acc.Transactions) == 0 {
		return b.String()
	}

	b.WriteString("\n\n" + titleStyle.Render("Recent activity") + "\n")
	for _, t := range acc.Transactions {
		points := fmt.Sprintf("%+6d", t.Points)
		if t.Points < 0 {
			points = errorStyle.Render(points)
		} else {
			points = successStyle.Render(points)
		}
		fmt.Fprintf(&b, "  %s  %s  %s\n", mutedStyle.Render(t.CreatedAt.Format("2006-01-02")), points, t.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderCatalog marks which rewards totalPoints can pay for.
func renderCatalog(rewards []dto.Reward, totalPoints int) string {
	if len(rewards) == 0 {
		return mutedStyle.Render("No rewards available")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Rewards") + "\n")
	for _, r := range rewards {
		mark := successStyle.Render("✔")
		note := ""
		if !redemption.CanRedeem(r.PointsRequired, totalPoints) {
			mark = mutedStyle.Render("·")
			note = mutedStyle.Render(fmt.Sprintf("  (%d more)", redemption.Shortfall(r.PointsRequired, totalPoints)))
		}
		fmt.Fprintf(&b, "  %s %-28s %6d pts  %s%s\n", mark, r.Name, r.PointsRequired, mutedStyle.Render(r.ID.String()), note)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCart(lines []session.Line, totals dto.Cart) string {
	if len(lines) == 0 {
		return mutedStyle.Render("Your cart is empty")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Cart") + "\n")
	for _, l := range lines {
		name := l.Product.Name
		if name == "" {
			name = l.ProductID.String()
		}
		pending := ""
		if l.Pending {
			pending = warningStyle.Render(" saving…")
		}
		fmt.Fprintf(&b, "  %-28s x%-3d %10s%s\n", name, l.Quantity, l.LineTotal.StringFixed(2), pending)
	}
	fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(strings.Repeat("─", 44)))
	fmt.Fprintf(&b, "  %-28s %-4d %10s", "Subtotal", totals.ItemCount, totals.Subtotal.StringFixed(2))
	return b.String()
}

var followLabels = map[follow.Status]string{
	follow.StatusFollow:     "Follow",
	follow.StatusFollowing:  "Following",
	follow.StatusRequested:  "Requested",
	follow.StatusFollowBack: "Follow back",
}

func renderFollowStatus(st follow.Status) string {
	label, ok := followLabels[st]
	if !ok {
		label = string(st)
	}
	if st == follow.StatusFollowing {
		return successStyle.Render(label)
	}
	return titleStyle.Render(label)
}

func renderNotice(n session.Notice) string {
	return warningStyle.Render("! " + n.String())
}
