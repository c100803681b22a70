package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/kihon/kuiz/internal/ui/theme"
)

// RateBar shows a count ratio such as accuracy or mastery as a bar followed
// by the percentage and the counts it was computed from.
type RateBar struct {
	Label string
	Num   int
	Den   int
}

// Rate returns Num/Den, or 0 when Den is 0. It is not capped: the pass rate
// counts every correct answer against the catalog size and can exceed 1.
func (r RateBar) Rate() float64 {
	if r.Den <= 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// View renders the bar in width cells. labelWidth pads the label so bars
// stacked by RateBars line up.
func (r RateBar) View(width, labelWidth int) string {
	var b strings.Builder
	if r.Label != "" {
		label := r.Label + strings.Repeat(" ", max(labelWidth-lipgloss.Width(r.Label), 0))
		b.WriteString(theme.Body.Render(label))
		b.WriteString("  ")
	}

	rate := r.Rate()
	suffix := fmt.Sprintf("  %3.0f%% (%d/%d)", rate*100, r.Num, r.Den)
	over := rate > 1
	if over {
		suffix = " +" + suffix
	}

	cells := max(width-lipgloss.Width(b.String())-lipgloss.Width(suffix), 4)
	filled := min(int(float64(cells)*rate), cells)
	b.WriteString(theme.ProgressFilled.Render(strings.Repeat(" ", filled)))
	b.WriteString(theme.ProgressEmpty.Render(strings.Repeat(" ", cells-filled)))

	style := theme.Dimmed
	if over {
		style = theme.Warning
	}
	b.WriteString(style.Render(suffix))
	return b.String()
}

// RateBars stacks bars with aligned labels, one per line.
func RateBars(width int, bars ...RateBar) string {
	labelWidth := 0
	for _, r := range bars {
		labelWidth = max(labelWidth, lipgloss.Width(r.Label))
	}
	lines := make([]string, len(bars))
	for i, r := range bars {
		lines[i] = r.View(width, labelWidth)
	}
	return strings.Join(lines, "\n")
}
