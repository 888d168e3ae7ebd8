package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - using ANSI 256 colors for broad terminal support
var (
	ColorCyan    = lipgloss.Color("6")
	ColorYellow  = lipgloss.Color("3")
	ColorRed     = lipgloss.Color("1")
	ColorGreen   = lipgloss.Color("2")
	ColorBlue    = lipgloss.Color("4")
	ColorMagenta = lipgloss.Color("5")
	ColorGray    = lipgloss.Color("8")
	ColorWhite   = lipgloss.Color("15")
	ColorBlack   = lipgloss.Color("0")
)

// Text styles
var (
	// Timestamps in tailed entries
	TimestampStyle = lipgloss.NewStyle().Foreground(ColorCyan)

	// Entry origin (file:line or log stream)
	OriginStyle = lipgloss.NewStyle().Foreground(ColorYellow)

	// Status messages ("Reading sample...", "Compiling...")
	StatusStyle = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)

	// Error messages
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)

	// Warning messages
	WarningStyle = lipgloss.NewStyle().Foreground(ColorYellow)

	// Success messages
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)

	// Muted/secondary text
	MutedStyle = lipgloss.NewStyle().Foreground(ColorGray)

	// Regex source
	RegexStyle = lipgloss.NewStyle().Foreground(ColorMagenta)

	// Labels (field names, headers)
	LabelStyle = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)

	// Values (field values)
	ValueStyle = lipgloss.NewStyle().Foreground(ColorWhite)

	// Error keys in validation output
	KeyStyle = lipgloss.NewStyle().Foreground(ColorRed)
)

// GroupStyles color captured groups in a highlighted sample, cycling when a
// pattern has more groups than styles.
var GroupStyles = []lipgloss.Style{
	lipgloss.NewStyle().Background(ColorCyan).Foreground(ColorBlack),
	lipgloss.NewStyle().Background(ColorYellow).Foreground(ColorBlack),
	lipgloss.NewStyle().Background(ColorGreen).Foreground(ColorBlack),
	lipgloss.NewStyle().Background(ColorMagenta).Foreground(ColorBlack),
	lipgloss.NewStyle().Background(ColorBlue).Foreground(ColorWhite),
}

// Box styles for sections
var (
	SectionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorCyan).
				MarginBottom(1)

	RegexBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)
)
