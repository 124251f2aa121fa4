package tui

import "github.com/charmbracelet/lipgloss"

// Icons used across the dashboard. Plain emoji so no Nerd Font is required.
const (
	IconSuite   = "🧪"
	IconPassed  = "✅"
	IconFailed  = "❌"
	IconSkipped = "⏭"
	IconError   = "💥"
	IconScroll  = "📜"
	IconParty   = "🎉"
	IconBroken  = "💔"
)

// Shared layout constants.
const (
	// maxActivityLogLines bounds the in-memory activity log so a chatty
	// fixture cannot grow the model without limit.
	maxActivityLogLines = 200

	// minRowsForLogPanel is the minimum terminal height at which the
	// activity log panel is shown below the scenario list.
	minRowsForLogPanel = 16
)

// Styles for the dashboard, defined with lipgloss. AdaptiveColor keeps the
// output readable on both light and dark terminals.
var (
	appStyle = lipgloss.NewStyle().Margin(0, 0)

	// headerStyle is for the suite title line at the top.
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}).
			Background(lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#303030"}).
			Padding(0, 1)

	// Scenario list row styles by result.
	rowRunningStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000080", Dark: "#82B0FF"})
	rowPassedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#005500", Dark: "#8AE234"})
	rowFailedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#990000", Dark: "#FF8787"}).Bold(true)
	rowSkippedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#606060", Dark: "#909090"})
	rowPendingStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#606060", Dark: "#909090"}).Italic(true)

	// Log panel styles. Per-line colors are applied by styleLogLine.
	logPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#606060", Dark: "#A0A0A0"}).
			Padding(0, 1)

	logTitleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"})

	logInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#E0E0E0"})
	logWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#A07000", Dark: "#FFD066"}).Bold(true)
	logErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B30000", Dark: "#FF6B6B"}).Bold(true)
	logDebugStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#606060", Dark: "#909090"}).Italic(true)

	// summaryStyle frames the final tally once the suite is done.
	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#606060", Dark: "#A0A0A0"}).
			Padding(0, 2)

	// statusBarStyle is the one-line footer with key help and messages.
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#F0F0F0"}).
			Background(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#374151"}).
			Padding(0, 1)

	statusBarSuccessStyle = statusBarStyle.Background(lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#059669"})
	statusBarErrorStyle   = statusBarStyle.Background(lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#DC2626"})
)
