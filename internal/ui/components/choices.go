package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/kihon/kuiz/internal/ui/theme"
)

// Choices renders the options of a question in display order. Before an
// answer the cursor is highlighted; after it the correct option and a
// wrong pick are colored.
type Choices struct {
	Options []string
	Cursor  int

	// Answered switches to result coloring. Correct and Chosen are display
	// indices; Chosen is -1 for a pass.
	Answered bool
	Correct  int
	Chosen   int

	// Missed marks display indices the learner picked wrongly before.
	Missed map[int]bool
}

// View renders one numbered line per option.
func (c Choices) View(width int) string {
	var b strings.Builder
	for i, opt := range c.Options {
		prefix := "  "
		if !c.Answered && i == c.Cursor {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d) %s", prefix, i+1, opt)
		if c.Missed[i] && !c.Answered {
			line += theme.Hint.Render("  (前回の誤答)")
		}

		style := theme.Unselected
		switch {
		case c.Answered && i == c.Correct:
			style = theme.Correct
		case c.Answered && i == c.Chosen:
			style = theme.Incorrect
		case c.Answered:
			style = theme.Dimmed
		case i == c.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Width(max(width, 0)).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// Move shifts the cursor by delta within bounds.
func (c *Choices) Move(delta int) {
	if len(c.Options) == 0 {
		return
	}
	c.Cursor = min(max(c.Cursor+delta, 0), len(c.Options)-1)
}

// CenterBlock centers a multi-line block horizontally as one unit.
func CenterBlock(width int, block string) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block)
}
