package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Styles (defined at package init for reuse)
var (
	// Color styles
	styleGreen  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleYellow = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	styleRed    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleCyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styleGray   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// Panel styles
	stylePanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("238")).
		Padding(0, 1)

	styleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")).
		Padding(0, 1)

	styleEventInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	styleEventWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	styleEventError = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	// Build panels
	header := m.renderHeader()
	progress := m.renderProgress()
	equity := m.renderEquity()
	trades := m.renderTrades()
	lastTrade := m.renderLastTrade()
	events := m.renderEvents()
	footer := m.renderFooter()

	// Stack panels vertically
	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		progress,
		lipgloss.JoinHorizontal(lipgloss.Top, equity, trades),
		lastTrade,
		events,
		footer,
	)

	return body
}

func (m Model) renderHeader() string {
	runtime := time.Since(m.snapshot.StartTime)
	return styleHeader.Render(fmt.Sprintf(
		"%s │ mode=%s │ data=%s │ runtime=%s",
		m.snapshot.ProjectName,
		m.snapshot.Mode,
		m.snapshot.Dataset,
		FormatDuration(runtime),
	))
}

func (m Model) renderProgress() string {
	s := m.snapshot
	if s.TotalBars <= 0 {
		return stylePanel.Render(fmt.Sprintf(
			"Bars: %d │ rate=%s/s", s.BarsProcessed, styleCyan.Render(fmt.Sprintf("%.0f", s.RatePerSec)),
		))
	}

	frac := float64(s.BarsProcessed) / float64(s.TotalBars)
	if frac > 1 {
		frac = 1
	}
	return stylePanel.Render(fmt.Sprintf(
		"%s %d/%d │ rate=%.0f/s │ eta=%s",
		m.progress.ViewAs(frac),
		s.BarsProcessed,
		s.TotalBars,
		s.RatePerSec,
		FormatDuration(s.ETA),
	))
}

func (m Model) renderEquity() string {
	return stylePanel.Width(50).Render(fmt.Sprintf(
		"Equity: %s │ pos=%.4f │ maxDD=%s",
		m.equityColor(m.snapshot.Equity),
		m.snapshot.Position,
		m.ddColor(m.snapshot.MaxDrawdown),
	))
}

func (m Model) renderTrades() string {
	return stylePanel.Width(50).Render(fmt.Sprintf(
		"Trades: %d │ winRate=%s │ sharpe=%.2f",
		m.snapshot.TradeCount,
		m.winRateColor(m.snapshot.WinRate),
		m.snapshot.SharpeSoFar,
	))
}

func (m Model) renderLastTrade() string {
	t := m.snapshot.LastTrade

	// Check if trade is stale (> 5 seconds) or never set
	if t.Timestamp.IsZero() || time.Since(t.Timestamp) > 5*time.Second {
		return stylePanel.Render(fmt.Sprintf(
			"Last trade: %s", styleDim.Render("(idle)"),
		))
	}

	pnlColor := styleDim
	if t.PnL > 0 {
		pnlColor = styleGreen
	} else if t.PnL < 0 {
		pnlColor = styleRed
	}

	return stylePanel.Render(fmt.Sprintf(
		"Last trade: %s │ price=%.4f │ pnl=%s",
		styleCyan.Render(t.Kind),
		t.Price,
		pnlColor.Render(fmt.Sprintf("%+.2f", t.PnL)),
	))
}

func (m Model) renderEvents() string {
	// viewport.Model is a struct, not a pointer - never nil
	// Content is updated in Update() on MsgEvent, not here
	if !m.ready || m.width == 0 {
		return stylePanel.Render("Events: initializing...")
	}
	return stylePanel.Render("Events (scroll):") + "\n" + m.viewport.View()
}

func (m Model) renderFooter() string {
	hints := []string{"q: quit", "p: pause", "d: debug"}
	if m.paused {
		hints = append(hints, "(PAUSED)")
	}

	hintStrings := make([]string, len(hints))
	for i, h := range hints {
		hintStrings[i] = styleDim.Render(h)
	}

	return styleGray.Render("│ " + strings.Join(hintStrings, " │ ") + " │")
}

// Color helper functions
func (m Model) equityColor(equity float64) string {
	if equity > m.prevEquity {
		return styleGreen.Render(fmt.Sprintf("%.2f ↑", equity))
	}
	if equity < m.prevEquity {
		return styleRed.Render(fmt.Sprintf("%.2f ↓", equity))
	}
	return styleDim.Render(fmt.Sprintf("%.2f =", equity))
}

func (m Model) winRateColor(winRate float64) string {
	if winRate >= 0.55 {
		return styleGreen.Render(fmt.Sprintf("%.1f%%", winRate*100))
	}
	if winRate >= 0.45 {
		return styleYellow.Render(fmt.Sprintf("%.1f%%", winRate*100))
	}
	return styleRed.Render(fmt.Sprintf("%.1f%%", winRate*100))
}

func (m Model) ddColor(dd float64) string {
	if dd <= 0.10 {
		return styleGreen.Render(fmt.Sprintf("%.2f%%", dd*100))
	}
	if dd <= 0.25 {
		return styleYellow.Render(fmt.Sprintf("%.2f%%", dd*100))
	}
	return styleRed.Render(fmt.Sprintf("%.2f%%", dd*100))
}

func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if minutes > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dh", hours)
}
