package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	Primary    = lipgloss.Color("#2563EB")
	Success    = lipgloss.Color("#10B981")
	Warning    = lipgloss.Color("#F59E0B")
	Error      = lipgloss.Color("#EF4444")
	Muted      = lipgloss.Color("#6B7280")
	Idle       = lipgloss.Color("#D1D5DB") // "not streaming" dot
	Foreground = lipgloss.Color("#F9FAFB")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func box(b lipgloss.Border, c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Border(b).BorderForeground(c).Padding(0, 1)
}

var (
	SuccessStyle = fg(Success).Bold(true)
	ErrorStyle   = fg(Error).Bold(true)
	WarningStyle = fg(Warning)
	InfoStyle    = fg(Primary)
	MutedStyle   = fg(Muted)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	SpinnerStyle = fg(Primary)

	// Key badges in the control bar.
	KeyStyle         = fg(Foreground).Background(Primary).Bold(true).Padding(0, 1)
	DisabledKeyStyle = fg(Muted).Padding(0, 1)
)

var (
	InfoBoxStyle     = box(lipgloss.RoundedBorder(), Primary)
	SuccessBoxStyle  = box(lipgloss.DoubleBorder(), Success).Padding(1, 2)
	ErrorBoxStyle    = box(lipgloss.ThickBorder(), Error)
	DescriptionStyle = box(lipgloss.NormalBorder(), Muted)
)

var (
	TableHeaderStyle = fg(Primary).Bold(true).Align(lipgloss.Center)
	TableRowStyle    = fg(lipgloss.Color("255")).Padding(0, 1)
	TableRowAltStyle = fg(lipgloss.Color("245")).Padding(0, 1)
)

var (
	ContainerStyle = lipgloss.NewStyle().Margin(1, 2)
	HeaderStyle    = KeyStyle.Padding(0, 2).MarginBottom(1)
	FooterStyle    = MutedStyle.MarginTop(1)
)

const (
	IconCamera  = "📷"
	IconMic     = "🎙️"
	IconDot     = "●"
	IconSuccess = "✅"
	IconError   = "❌"
	IconWarning = "⚠️"
	IconInfo    = "ℹ️"
	IconRoom    = "🚪"
	IconPeer    = "👤"
	IconCopy    = "📋"
	IconQR      = "📱"
	IconRecord  = "⏺"
)

// The Print helpers write to stderr; stdout is reserved for descriptions so
// they can be piped to another program.

func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render(IconError+" "+msg))
}

func PrintWarning(msg string) {
	fmt.Fprintln(os.Stderr, WarningStyle.Render(IconWarning+" "+msg))
}

func PrintSuccess(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", SuccessStyle.Render(IconSuccess), msg)
}

func PrintInfof(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", IconInfo, fmt.Sprintf(format, args...))
}
