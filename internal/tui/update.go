package tui

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doom/nest/internal/runner"
)

// statusMessageTimeout is how long transient status bar messages stay up.
const statusMessageTimeout = 3 * time.Second

// setStatusMessage updates the status bar and schedules clearing it. The
// sequence number keeps a stale timer from wiping a newer message.
func (m *model) setStatusMessage(message string, isError bool) tea.Cmd {
	m.statusMessage = message
	m.statusIsError = isError
	m.statusSeq++
	seq := m.statusSeq

	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// Update is the heart of the Bubbletea program, handling all incoming
// messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if msg.String() == "ctrl+c" {
				if m.cancel != nil {
					m.cancel()
				}
				return m, tea.Quit
			}
			switch m.mode {
			case ModeRunning:
				// Stop the runner first; the dashboard exits once the
				// suite result arrives so teardown output is not lost.
				if m.cancel != nil {
					m.cancel()
				}
				m.mode = ModeCancelling
				cmds = append(cmds, m.setStatusMessage("Cancelling run, waiting for teardown...", false))
			default:
				return m, tea.Quit
			}
		case key.Matches(msg, m.keys.CopyLogs):
			if err := clipboard.WriteAll(strings.Join(m.activityLog, "\n")); err != nil {
				cmds = append(cmds, m.setStatusMessage("Failed to copy logs: "+err.Error(), true))
			} else {
				cmds = append(cmds, m.setStatusMessage("Logs copied to clipboard", false))
			}
		default:
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.refreshLogViewport()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case scenarioStartedMsg:
		row := m.row(msg.scenario.Name)
		row.running = true
		row.steps = len(msg.scenario.Steps)

	case stepFinishedMsg:
		m.stepsRun++
		if msg.result.Result == runner.ResultFailed || msg.result.Result == runner.ResultError {
			m.appendLogLine("[STEP] " + msg.result.Step.Name + ": " + msg.result.Error)
			m.refreshLogViewport()
		}

	case scenarioFinishedMsg:
		row := m.row(msg.result.Scenario.Name)
		row.running = false
		row.result = msg.result.Result
		row.duration = msg.result.Duration
		row.errText = msg.result.Error
		row.stepsDone = len(msg.result.StepResults)
		m.finished++

	case suiteFinishedMsg:
		suite := msg.result
		m.suite = &suite
		if m.mode == ModeCancelling {
			return m, tea.Quit
		}
		m.mode = ModeSummary

	case logEntryMsg:
		m.appendLogLine(formatLogEntry(msg.entry))
		m.refreshLogViewport()
		cmds = append(cmds, listenForLogs(m.logCh))

	case logChannelClosedMsg:
		// Nothing further to read.

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMessage = ""
			m.statusIsError = false
		}
	}

	return m, tea.Batch(cmds...)
}

// refreshLogViewport resizes the log viewport to the current terminal and
// reloads its content. It keeps following the tail unless the user has
// scrolled up.
func (m *model) refreshLogViewport() {
	width := m.width - logPanelStyle.GetHorizontalFrameSize()
	if width < 0 {
		width = 0
	}
	height := m.logPanelHeight()
	if height < 0 {
		height = 0
	}

	follow := m.logViewport.AtBottom()
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.logViewport.SetContent(prepareLogContent(m.activityLog, width))
	if follow {
		m.logViewport.GotoBottom()
	}
	m.activityLogDirty = false
}

// logPanelHeight returns how many content lines the log viewport gets, or 0
// when the terminal is too short for a log panel.
func (m *model) logPanelHeight() int {
	if m.height < minRowsForLogPanel {
		return 0
	}
	// Header, scenario rows, log panel frame and title, status bar.
	used := 1 + len(m.rows) + logPanelStyle.GetVerticalFrameSize() + 1 + 1
	height := m.height - used
	if height > 12 {
		height = 12
	}
	return height
}
