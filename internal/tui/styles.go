package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/greenlens/internal/model"
)

// Color palette.
var (
	colorRed       = lipgloss.Color("#ff5555")
	colorYellow    = lipgloss.Color("#f1fa8c")
	colorBlue      = lipgloss.Color("#8be9fd")
	colorPurple    = lipgloss.Color("#bd93f9")
	colorDim       = lipgloss.Color("#6272a4")
	colorBgLight   = lipgloss.Color("#343746")
	colorFg        = lipgloss.Color("#f8f8f2")
	colorBorder    = lipgloss.Color("#44475a")
	colorHighlight = lipgloss.Color("#44475a")
)

// Band palette, green through red, with orange for unscored lines.
var bandColors = map[model.Band]lipgloss.Color{
	model.BandA:       lipgloss.Color("#00c800"),
	model.BandB:       lipgloss.Color("#b4e600"),
	model.BandC:       lipgloss.Color("#ffc800"),
	model.BandD:       lipgloss.Color("#ff6400"),
	model.BandE:       lipgloss.Color("#ff0000"),
	model.BandUnknown: lipgloss.Color("#ff7b00"),
}

// Style definitions.
var (
	// Source view
	sourceViewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(4).
			Align(lipgloss.Right)

	cursorLineStyle = lipgloss.NewStyle().
			Background(colorHighlight)

	fileHeaderStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	// Detail panel
	detailViewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	detailHeaderStyle = lipgloss.NewStyle().
				Foreground(colorPurple).
				Bold(true)

	detailEmptyStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Background(colorBgLight).
				Bold(true)

	// Help
	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

func bandStyle(b model.Band) lipgloss.Style {
	c, ok := bandColors[b]
	if !ok {
		c = bandColors[model.BandUnknown]
	}
	return lipgloss.NewStyle().Foreground(c)
}
