package panel

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/openkairo/growdeck/internal/version"
)

// Application branding constants
const (
	AppName       = "GROWDECK"
	GitHubURL     = "github.com/openkairo/growdeck"
	GitHubFullURL = "https://github.com/openkairo/growdeck"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 72 // Minimum supported terminal width
	GaugeWidth       = 24 // Bar width for sensor gauges
)

// Color palette
var (
	// Primary colors
	PrimaryColor   = lipgloss.Color("#43BF6D") // Green
	SecondaryColor = lipgloss.Color("#7D56F4") // Purple
	AccentColor    = lipgloss.Color("#5FD7FF") // Cyan
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF5555") // Red

	// Neutral colors
	TextColor       = lipgloss.Color("#FFFFFF") // White
	SubtleColor     = lipgloss.Color("#626262") // Gray
	BorderColor     = lipgloss.Color("#43BF6D") // Green (same as primary)
	HighlightColor  = lipgloss.Color("#7D56F4") // Purple (same as secondary)
	BackgroundColor = lipgloss.Color("#1A1A1A") // Dark gray
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	// Tab bar styles
	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(SecondaryColor).
			Bold(true).
			Padding(0, 2)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Padding(0, 2)

	// Field label / value styles
	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	FocusedFieldStyle = lipgloss.NewStyle().
				Foreground(HighlightColor).
				Bold(true)

	DraftMarkerStyle = lipgloss.NewStyle().
				Foreground(WarningColor).
				Bold(true)

	// Status styles
	OnStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	OffStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	MismatchStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	AccentStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	ToastStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// Card style for chamber summaries
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1).
			MarginRight(1)

	SelectedCardStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(HighlightColor).
				Padding(0, 1).
				MarginRight(1)

	// Modal style for the phase confirmation dialog
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(WarningColor).
			Padding(1, 3)

	ModalButtonStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Padding(0, 2)

	ModalButtonActiveStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(SecondaryColor).
				Bold(true).
				Padding(0, 2)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// BuildHeaderContent creates header content with app name and GitHub URL
func BuildHeaderContent() string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

// RenderApplicationContainer wraps a tab's content in the full-screen
// panel frame: bordered container, header with app name/version, footer
// with context help. Every tab view goes through this.
func RenderApplicationContainer(content string, footerText string, terminalWidth int, terminalHeight int) string {
	header := BuildHeaderContent()
	footer := lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText)

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth - 4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth - 4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth - 4)

	innerContent := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(header),
		contentStyle.Render(content),
		footerStyle.Render(footer),
	)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top)

	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Left,
		lipgloss.Top,
		borderStyle.Render(innerContent),
	)
}

// RenderModal centers modal content over a dimmed backdrop. Used for
// the phase-change confirmation only; everything else renders inline.
func RenderModal(modalContent string, terminalWidth int, terminalHeight int) string {
	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Center,
		lipgloss.Center,
		modalContent,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("240")),
	)
}

// RenderGauge renders a sensor reading as a fixed-width bar. Missing
// readings render as a dashed placeholder, never as an empty bar.
func RenderGauge(pct float64, ok bool, width int) string {
	if width < 4 {
		width = 4
	}
	if !ok {
		return OffStyle.Render(strings.Repeat("╌", width)) + " --"
	}

	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	bar := lipgloss.NewStyle().Foreground(PrimaryColor).Render(strings.Repeat("█", filled)) +
		OffStyle.Render(strings.Repeat("░", width-filled))
	return bar
}

// RenderBandGauge renders a gauge with a target band marked on it.
// Values inside the band draw green, outside draw orange.
func RenderBandGauge(pct float64, ok bool, bandLoPct, bandHiPct float64, width int) string {
	if width < 4 {
		width = 4
	}
	if !ok {
		return OffStyle.Render(strings.Repeat("╌", width)) + " --"
	}

	pos := int(pct / 100 * float64(width-1))
	lo := int(bandLoPct / 100 * float64(width-1))
	hi := int(bandHiPct / 100 * float64(width-1))

	inBand := pct >= bandLoPct && pct <= bandHiPct
	markerStyle := MismatchStyle
	if inBand {
		markerStyle = OnStyle
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == pos:
			b.WriteString(markerStyle.Render("▼"))
		case i >= lo && i <= hi:
			b.WriteString(lipgloss.NewStyle().Foreground(PrimaryColor).Render("─"))
		default:
			b.WriteString(OffStyle.Render("╌"))
		}
	}
	return b.String()
}
