package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/doom/nest/internal/runner"
)

// SafeIcon wraps an icon with spacing so a double-width glyph does not
// swallow the character after it.
func SafeIcon(icon string) string {
	spaces := 1
	if runewidth.StringWidth(icon) >= 2 {
		spaces = 2
	}
	return icon + strings.Repeat(" ", spaces)
}

// IconText formats an icon followed by text with proper spacing.
func IconText(icon, text string) string {
	return SafeIcon(icon) + text
}

// View renders the UI according to the current model state.
func (m model) View() string {
	if m.width == 0 {
		return "Initializing... (waiting for window size)"
	}

	var parts []string
	parts = append(parts, m.renderHeader())
	parts = append(parts, m.renderScenarioList()...)

	if m.mode == ModeSummary && m.suite != nil {
		parts = append(parts, m.renderSummary())
	} else if h := m.logPanelHeight(); h > 0 {
		parts = append(parts, m.renderLogPanel())
	}

	parts = append(parts, m.renderStatusBar())
	return appStyle.Width(m.width).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m model) renderHeader() string {
	var title string
	switch m.mode {
	case ModeRunning:
		title = fmt.Sprintf("%s nest end-to-end suite  %s %d/%d scenarios",
			IconSuite, m.spinner.View(), m.finished, m.total)
	case ModeCancelling:
		title = fmt.Sprintf("%s nest end-to-end suite  %s cancelling...",
			IconSuite, m.spinner.View())
	default:
		title = fmt.Sprintf("%s nest end-to-end suite  %d/%d scenarios",
			IconSuite, m.finished, m.total)
	}
	return headerStyle.Width(m.width).Render(title)
}

// renderScenarioList renders one line per known scenario plus a queued
// counter for scenarios that have not started yet.
func (m model) renderScenarioList() []string {
	nameWidth := 0
	for _, row := range m.rows {
		if w := runewidth.StringWidth(row.name); w > nameWidth {
			nameWidth = w
		}
	}
	if limit := m.width / 2; nameWidth > limit && limit > 0 {
		nameWidth = limit
	}

	lines := make([]string, 0, len(m.rows)+1)
	for _, row := range m.rows {
		lines = append(lines, m.renderScenarioRow(row, nameWidth))
	}
	if queued := m.total - len(m.rows); queued > 0 {
		lines = append(lines, rowPendingStyle.Render(fmt.Sprintf("   ... %d queued", queued)))
	}
	return lines
}

func (m model) renderScenarioRow(row scenarioRow, nameWidth int) string {
	name := runewidth.Truncate(row.name, nameWidth, "…")
	name = runewidth.FillRight(name, nameWidth)

	if row.running {
		line := fmt.Sprintf(" %s %s  running (%d steps)", m.spinner.View(), name, row.steps)
		return rowRunningStyle.Render(truncateLine(line, m.width))
	}

	symbol := resultIcon(row.result)
	line := fmt.Sprintf(" %s%s  %v", SafeIcon(symbol), name, row.duration)
	if row.errText != "" {
		line += "  " + row.errText
	}
	line = truncateLine(line, m.width)

	switch row.result {
	case runner.ResultPassed:
		return rowPassedStyle.Render(line)
	case runner.ResultFailed, runner.ResultError:
		return rowFailedStyle.Render(line)
	case runner.ResultSkipped:
		return rowSkippedStyle.Render(line)
	default:
		return rowPendingStyle.Render(line)
	}
}

func (m model) renderLogPanel() string {
	title := logTitleStyle.Render(IconText(IconScroll, "Activity"))
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.logViewport.View())
	width := m.width - logPanelStyle.GetHorizontalFrameSize()
	if width < 0 {
		width = 0
	}
	return logPanelStyle.Width(width).Render(content)
}

func (m model) renderSummary() string {
	suite := m.suite

	var b strings.Builder
	fmt.Fprintf(&b, "Duration: %v   Steps run: %d\n", suite.Duration, m.stepsRun)
	fmt.Fprintf(&b, "%s Passed: %d", IconPassed, suite.PassedScenarios)
	if suite.FailedScenarios > 0 {
		fmt.Fprintf(&b, "   %s Failed: %d", IconFailed, suite.FailedScenarios)
	}
	if suite.ErrorScenarios > 0 {
		fmt.Fprintf(&b, "   %s Errors: %d", IconError, suite.ErrorScenarios)
	}
	if suite.SkippedScenarios > 0 {
		fmt.Fprintf(&b, "   %s Skipped: %d", IconSkipped, suite.SkippedScenarios)
	}
	b.WriteString("\n")
	if suite.Success() {
		b.WriteString(IconText(IconParty, "All scenarios passed, press q to exit"))
	} else {
		b.WriteString(IconText(IconBroken, "Some scenarios failed, press q to exit"))
	}

	width := m.width - summaryStyle.GetHorizontalFrameSize()
	if width < 0 {
		width = 0
	}
	return summaryStyle.Width(width).Render(b.String())
}

func (m model) renderStatusBar() string {
	style := statusBarStyle
	text := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.statusMessage != "" {
		text = m.statusMessage
		if m.statusIsError {
			style = statusBarErrorStyle
		} else {
			style = statusBarSuccessStyle
		}
	}
	return style.Width(m.width).Render(truncateLine(text, m.width-2))
}

func resultIcon(result runner.Result) string {
	switch result {
	case runner.ResultPassed:
		return IconPassed
	case runner.ResultFailed:
		return IconFailed
	case runner.ResultSkipped:
		return IconSkipped
	case runner.ResultError:
		return IconError
	default:
		return "·"
	}
}

// prepareLogContent truncates long lines to avoid viewport wrapping and
// applies per-level colors.
func prepareLogContent(lines []string, maxWidth int) string {
	out := make([]string, len(lines))
	for i, raw := range lines {
		line := raw
		if maxWidth > 0 && runewidth.StringWidth(line) > maxWidth {
			line = runewidth.Truncate(line, maxWidth-1, "") + "…"
		}
		out[i] = styleLogLine(line)
	}
	return strings.Join(out, "\n")
}

// styleLogLine wraps the line in a style matching the level marker it
// carries. Checks run from most to least specific.
func styleLogLine(l string) string {
	switch {
	case strings.Contains(l, "[ERROR]") || strings.Contains(l, "[STEP]"):
		return logErrorStyle.Render(l)
	case strings.Contains(l, "[WARN]"):
		return logWarnStyle.Render(l)
	case strings.Contains(l, "[DEBUG]"):
		return logDebugStyle.Render(l)
	default:
		return logInfoStyle.Render(l)
	}
}

func truncateLine(line string, maxWidth int) string {
	if maxWidth <= 0 || runewidth.StringWidth(line) <= maxWidth {
		return line
	}
	return runewidth.Truncate(line, maxWidth-1, "") + "…"
}
