package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/warp/ferie/season"
)

// Theme colors
var (
	colorBorder = lipgloss.Color("#575653")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorRed    = lipgloss.Color("#D14D41")
	colorMuted  = lipgloss.Color("#6F6E69")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	positiveStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	negativeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorRed)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// days renders an amount, red when negative.
func days(a season.Amount) string {
	if a.IsNegative() {
		return negativeStyle.Render(a.String())
	}
	return a.String()
}

func headers(cols ...string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = headerStyle.Render(c)
	}
	return out
}

func newTable(cols ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers(cols...)...)
}

// renderProjection renders the month table and the season summary. The
// row at index current is marked; pass -1 for none.
func renderProjection(title string, p season.Projection, current int) string {
	t := newTable("Måned", "Optjent", "Brugt", "Optjent i alt", "Saldo", "Saldo m. ekstra", "Ekstra brugt", "Ekstra tilbage")

	for i, m := range p.Months {
		name := "  " + m.Name
		if i == current {
			name = headerStyle.Render("▸ " + m.Name)
		}
		t.Row(
			name,
			m.Earned.String(),
			m.Used.String(),
			m.EarnedCumulative.String(),
			days(m.Balance),
			days(m.BalanceWithExtra),
			m.ExtraUsed.String(),
			m.ExtraRemaining.String(),
		)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  Buffer %s · %s/måned · %s ekstra",
		p.Config.BufferDays, p.Config.EarnedPerMonth, p.Config.ExtraDaysPool)))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(renderSummary(p.Summary))
	return b.String()
}

func renderSummary(s season.Summary) string {
	remaining := positiveStyle.Render(s.Remaining.String())
	if s.Remaining.IsZero() {
		remaining = mutedStyle.Render(s.Remaining.String())
	}

	lines := []string{
		fmt.Sprintf("  Optjent i alt:        %s (%s med ekstra)", s.TotalEarned, s.TotalEarnedWithExtra),
		fmt.Sprintf("  Planlagt brugt:       %s", s.TotalUsed),
		fmt.Sprintf("  Tilbage:              %s", remaining),
		fmt.Sprintf("  Tilbage med ekstra:   %s", days(s.RemainingWithExtra)),
		fmt.Sprintf("  Ekstra dage tilbage:  %s", s.ExtraRemaining),
	}
	return strings.Join(lines, "\n") + "\n"
}

// renderSeasons renders one row per season with its projected summary.
func renderSeasons(seasons []season.Season, summaries []season.Summary) string {
	t := newTable("ID", "Navn", "Periode", "Buffer", "Optjent/md", "Ekstra", "Brugt", "Tilbage", "Tilbage m. ekstra")

	for i, s := range seasons {
		sum := summaries[i]
		t.Row(
			fmt.Sprintf("%d", s.ID),
			s.Name,
			s.Period().String(),
			s.Config.BufferDays.String(),
			s.Config.EarnedPerMonth.String(),
			s.Config.ExtraDaysPool.String(),
			sum.TotalUsed.String(),
			sum.Remaining.String(),
			days(sum.RemainingWithExtra),
		)
	}
	return "\n" + t.String() + "\n"
}

// renderRules renders the preset list.
func renderRules(rules []season.Rules) string {
	t := newTable("ID", "Navn", "Optjent/md", "Ekstra")
	for _, r := range rules {
		t.Row(r.ID, r.Name, r.EarnedPerMonth.String(), r.ExtraDays.String())
	}
	return "\n" + t.String() + "\n"
}
