// Package tui is the live dashboard for suite runs. It renders scenario
// progress, the activity log and the final tally in the terminal while the
// runner executes in the background, feeding the dashboard through its
// reporter.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doom/nest/internal/runner"
	"github.com/doom/nest/pkg/logging"
)

// AppMode is the high-level state of the dashboard.
type AppMode int

const (
	// ModeRunning is the live view while scenarios execute.
	ModeRunning AppMode = iota
	// ModeSummary shows the final tally after the suite finished.
	ModeSummary
	// ModeCancelling is entered after the user asked to stop a run that
	// is still in flight.
	ModeCancelling
)

// String makes AppMode satisfy the fmt.Stringer interface.
func (a AppMode) String() string {
	switch a {
	case ModeRunning:
		return "Running"
	case ModeSummary:
		return "Summary"
	case ModeCancelling:
		return "Cancelling"
	default:
		return "Unknown"
	}
}

// KeyMap defines the keybindings for the dashboard.
type KeyMap struct {
	Quit     key.Binding
	CopyLogs key.Binding
	Up       key.Binding
	Down     key.Binding
}

// DefaultKeyMap returns a KeyMap with default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		CopyLogs: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy logs"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "scroll log up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "scroll log down"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.CopyLogs, k.Up, k.Down}
}

// FullHelp satisfies help.KeyMap. The dashboard only uses the short form.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// scenarioRow is the display state of one scenario in the list.
type scenarioRow struct {
	name      string
	running   bool
	result    runner.Result
	duration  time.Duration
	errText   string
	steps     int
	stepsDone int
}

// model is the state of the dashboard.
type model struct {
	mode AppMode

	// Scenario progress, in order of arrival.
	total    int
	finished int
	stepsRun int
	rows     []scenarioRow
	rowIndex map[string]int

	suite *runner.SuiteResult

	// Activity log fed by the logging channel.
	activityLog      []string
	activityLogDirty bool
	logViewport      viewport.Model
	logCh            <-chan logging.LogEntry

	// Status bar.
	statusMessage string
	statusIsError bool
	statusSeq     int

	width, height int
	spinner       spinner.Model
	keys          KeyMap
	help          help.Model

	// cancel stops the runner when the user quits mid-run.
	cancel context.CancelFunc
}

func newModel(total int, logCh <-chan logging.LogEntry, cancel context.CancelFunc) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = rowRunningStyle

	return model{
		mode:        ModeRunning,
		total:       total,
		rowIndex:    make(map[string]int),
		logViewport: viewport.New(0, 0),
		logCh:       logCh,
		spinner:     sp,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		cancel:      cancel,
	}
}

// Init implements the tea.Model interface.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		listenForLogs(m.logCh),
	)
}

// listenForLogs forwards the next entry from the logging channel into the
// update loop. It re-arms itself from Update after each delivery.
func listenForLogs(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return logChannelClosedMsg{}
		}
		return logEntryMsg{entry: entry}
	}
}

// appendLogLine appends to the activity log while enforcing the
// maxActivityLogLines invariant.
func (m *model) appendLogLine(line string) {
	m.activityLog = append(m.activityLog, line)
	if len(m.activityLog) > maxActivityLogLines {
		m.activityLog = m.activityLog[len(m.activityLog)-maxActivityLogLines:]
	}
	m.activityLogDirty = true
}

func formatLogEntry(entry logging.LogEntry) string {
	line := fmt.Sprintf("%s [%s] %s: %s",
		entry.Timestamp.Format("15:04:05"), entry.Level, entry.Subsystem, entry.Message)
	if entry.Err != nil {
		line += fmt.Sprintf(" (%v)", entry.Err)
	}
	return line
}

// row returns the display row for a scenario, creating it on first use.
func (m *model) row(name string) *scenarioRow {
	if i, ok := m.rowIndex[name]; ok {
		return &m.rows[i]
	}
	m.rows = append(m.rows, scenarioRow{name: name})
	m.rowIndex[name] = len(m.rows) - 1
	return &m.rows[len(m.rows)-1]
}
