package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// glyphs is a three-row half-block font for the clock readout.
var glyphs = map[rune][3]string{
	'0': {"█▀█", "█ █", "▀▀▀"},
	'1': {" ▀█", "  █", "  ▀"},
	'2': {"▀▀█", "█▀▀", "▀▀▀"},
	'3': {"▀▀█", " ▀█", "▀▀▀"},
	'4': {"█ █", "▀▀█", "  ▀"},
	'5': {"█▀▀", "▀▀█", "▀▀▀"},
	'6': {"█▀▀", "█▀█", "▀▀▀"},
	'7': {"▀▀█", "  █", "  ▀"},
	'8': {"█▀█", "█▀█", "▀▀▀"},
	'9': {"█▀█", "▀▀█", "▀▀▀"},
	':': {" ", "▀", "▀"},
}

// minBigWidth is the narrowest terminal that gets the large readout.
const minBigWidth = 32

// renderBigClock draws an "HH:MM:SS" string in the glyph font. Narrow
// terminals get the plain string.
func renderBigClock(clock string, color lipgloss.Color, width int) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(color)
	if width < minBigWidth {
		return style.Render(clock)
	}

	var rows [3]strings.Builder
	for i, ch := range clock {
		g, ok := glyphs[ch]
		if !ok {
			continue
		}
		for r := range rows {
			if i > 0 {
				rows[r].WriteByte(' ')
			}
			rows[r].WriteString(g[r])
		}
	}

	out := make([]string, len(rows))
	for r := range rows {
		out[r] = style.Render(rows[r].String())
	}
	return strings.Join(out, "\n")
}
