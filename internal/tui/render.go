package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/sprite-ai/greenlens/internal/model"
	"github.com/sprite-ai/greenlens/internal/render"
	"github.com/sprite-ai/greenlens/internal/source"
)

const gutterMark = "▌"

// renderSourceLine renders one numbered source line with its band gutter.
// ln is zero-based.
func renderSourceLine(ln int, hl source.HighlightedLine, la *model.LineAnnotation, width int, selected bool) string {
	gutter := " "
	if la != nil {
		gutter = bandStyle(la.Band).Render(gutterMark)
	}
	num := lineNumberStyle.Render(fmt.Sprintf("%d", ln+1))

	// gutter + number + space
	content := renderTokens(hl.Tokens, width-6)
	line := gutter + num + " " + content
	if selected {
		return cursorLineStyle.Width(width).Render(line)
	}
	return line
}

// renderTokens renders syntax tokens, cutting the line at max cells.
func renderTokens(tokens []source.Token, max int) string {
	if max <= 0 {
		return ""
	}
	var b strings.Builder
	used := 0
	for _, tok := range tokens {
		text := strings.ReplaceAll(tok.Text, "\t", "    ")
		w := runewidth.StringWidth(text)
		if used+w > max {
			text = truncate(text, max-used)
			w = max - used
		}
		if tok.Color != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(text))
		} else {
			b.WriteString(text)
		}
		used += w
		if used >= max {
			break
		}
	}
	return b.String()
}

// renderDetail renders the records attached to one line.
func renderDetail(la *model.LineAnnotation, width, height int) string {
	if la == nil {
		return detailEmptyStyle.Render("No diagnostics on this line")
	}

	var lines []string
	header := fmt.Sprintf("Line %d", la.Line+1)
	if la.Band.Known() {
		header += "  NutriScore " + la.Band.String()
	}
	lines = append(lines, detailHeaderStyle.Render(header))

	for i, r := range la.Records {
		if i > 0 {
			lines = append(lines, "")
		}
		for _, l := range strings.Split(render.Plain(r), "\n") {
			lines = append(lines, truncate(l, width))
		}
	}

	if height > 0 && len(lines) > height {
		more := len(lines) - height + 1
		lines = append(lines[:height-1], detailEmptyStyle.Render(fmt.Sprintf("… %d more lines", more)))
	}
	return strings.Join(lines, "\n")
}

// truncate cuts s to at most max terminal cells.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	return runewidth.Truncate(s, max, "…")
}
