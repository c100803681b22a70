package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/kihon/kuiz/internal/progress"
	sess "github.com/kihon/kuiz/internal/session"
	"github.com/kihon/kuiz/internal/ui/components"
	"github.com/kihon/kuiz/internal/ui/theme"
)

const titleFull = `██╗  ██╗██╗   ██╗██╗███████╗
██║ ██╔╝██║   ██║██║╚══███╔╝
█████╔╝ ██║   ██║██║  ███╔╝
██╔═██╗ ██║   ██║██║ ███╔╝
██║  ██╗╚██████╔╝██║███████╗
╚═╝  ╚═╝ ╚═════╝ ╚═╝╚══════╝`

const titleCompact = "K · U · I · Z"

// renderTitle returns the styled title block or compact fallback.
func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Accent).
		Bold(true)

	art := titleFull
	if compact {
		art = titleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(art) + "\n" + theme.Dimmed.Render("基本情報 / ITパスポート"))
}

// renderStatsBar renders the dashboard stats in a bordered box matching content width.
func renderStatsBar(st *progress.Stats, cw int, compact bool) string {
	answeredStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	accuracyStyle := lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
	dueStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)

	var stats string
	switch {
	case st == nil:
		stats = theme.Dimmed.Render("...")
	case compact:
		stats = fmt.Sprintf("%s %s %s",
			answeredStyle.Render(fmt.Sprintf("✎%d/%d", st.Attempted, st.TotalQuestions)),
			accuracyStyle.Render(fmt.Sprintf("◎%.0f%%", st.Accuracy*100)),
			dueText(st.Due, true, dueStyle),
		)
	default:
		stats = fmt.Sprintf("%s  %s  %s",
			answeredStyle.Render(fmt.Sprintf("✎ %d/%d 回答済み", st.Attempted, st.TotalQuestions)),
			accuracyStyle.Render(fmt.Sprintf("◎ 正答率 %.0f%%", st.Accuracy*100)),
			dueText(st.Due, false, dueStyle),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

func dueText(due int, compact bool, active lipgloss.Style) string {
	if due == 0 {
		if compact {
			return theme.Dimmed.Render("⚡0")
		}
		return theme.Dimmed.Render("⚡ 復習なし")
	}
	if compact {
		return active.Render(fmt.Sprintf("⚡%d", due))
	}
	return active.Render(fmt.Sprintf("⚡ 復習 %d", due))
}

// renderOptions shows the session options toggled from the menu.
func renderOptions(opts sess.Options, p sess.Policy, cw int) string {
	flag := func(on bool, label string) string {
		if on {
			return theme.Selected.Render("[x] " + label)
		}
		return theme.Dimmed.Render("[ ] " + label)
	}
	line := strings.Join([]string{
		flag(opts.AvoidCorrect, "正解済みを除外"),
		flag(opts.RandomOrder, "ランダム"),
		flag(p.Explain, "解説"),
		theme.Hint.Render("mode: " + p.Mode.String()),
	}, "  ")
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(line)
}

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 22

// renderMenu renders each menu item as a fixed-width button.
func renderMenu(m components.Menu, cw int) string {
	base := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	selectedBtn := base.
		Bold(true).
		Foreground(theme.BgDark).
		Background(theme.Accent).
		BorderForeground(theme.Accent)
	normalBtn := base.
		Foreground(theme.Text).
		BorderForeground(theme.Border)
	disabledBtn := base.
		Foreground(theme.TextDim).
		BorderForeground(theme.Border)

	var buttons []string
	for i, item := range m.Items {
		switch {
		case item.Disabled:
			buttons = append(buttons, disabledBtn.Render(item.Label))
		case i == m.Selected:
			buttons = append(buttons, selectedBtn.Render("▸ "+item.Label))
		default:
			buttons = append(buttons, normalBtn.Render(item.Label))
		}
	}

	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(buttons, "\n"))
}

// renderMenuCompact renders menu items as simple text lines (no borders)
// for small terminals where bordered buttons would overflow.
func renderMenuCompact(m components.Menu, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(m.View())
}
