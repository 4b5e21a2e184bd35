package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wb-content-manager/internal/model"
	"wb-content-manager/internal/pipeline"
)

var (
	dashTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dashMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dashFailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	dashOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dashPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	dashLogTailSize = 8
)

type dashTickMsg struct{}

type dashboardModel struct {
	state    *pipeline.RunState
	ctx      context.Context
	progress progress.Model
	spinner  spinner.Model
	snap     pipeline.Snapshot
	width    int
	canceled bool
}

// runDashboard renders the live run state until the run reaches a terminal
// phase. Ctrl+C cancels the run; q only closes the dashboard.
func runDashboard(ctx context.Context, state *pipeline.RunState) error {
	m := dashboardModel{
		state:    state,
		ctx:      ctx,
		progress: progress.New(progress.WithDefaultGradient()),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		snap:     state.Snapshot(),
	}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(dashboardModel); ok && fm.canceled {
		return fmt.Errorf("run canceled")
	}
	return nil
}

func dashTick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return dashTickMsg{}
	})
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, dashTick())
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - 8
		return m, nil
	case dashTickMsg:
		m.snap = m.state.Snapshot()
		if m.snap.Phase == model.PhaseCompleted || m.snap.Phase == model.PhaseAborted {
			return m, tea.Quit
		}
		if m.ctx.Err() != nil {
			return m, tea.Quit
		}
		return m, dashTick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.canceled = true
			return m, tea.Quit
		case "q", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	snap := m.snap
	var b strings.Builder

	b.WriteString(dashTitleStyle.Render("wb-content-manager run"))
	b.WriteString("\n\n")

	ratio := 0.0
	if snap.TotalCodes > 0 {
		ratio = float64(snap.ProcessedCodes) / float64(snap.TotalCodes)
	}
	b.WriteString(m.progress.ViewAs(ratio))
	b.WriteString(fmt.Sprintf(" %d/%d\n", snap.ProcessedCodes, snap.TotalCodes))

	line := m.spinner.View() + " "
	switch {
	case snap.Phase == model.PhaseCompleted:
		line = dashOKStyle.Render("done") + " "
	case snap.Phase == model.PhaseAborted:
		line = dashFailStyle.Render("aborted") + " "
	case snap.CurrentCode != "":
		line += "processing " + snap.CurrentCode
	default:
		line += "enumerating files"
	}
	b.WriteString(line + "\n")

	b.WriteString(fmt.Sprintf("uploaded %s  failed %s",
		dashOKStyle.Render(fmt.Sprintf("%d", snap.UploadedProducts)),
		dashFailStyle.Render(fmt.Sprintf("%d", len(snap.FailedCodes)))))
	if snap.ETA > 0 {
		b.WriteString(dashMutedStyle.Render(fmt.Sprintf("  eta ~%s", snap.ETA.Round(time.Second))))
	}
	b.WriteString("\n")

	if tail := logTail(snap.Log, dashLogTailSize); len(tail) > 0 {
		b.WriteString("\n")
		b.WriteString(dashPanelStyle.Render(dashMutedStyle.Render(strings.Join(tail, "\n"))))
		b.WriteString("\n")
	}

	b.WriteString(dashMutedStyle.Render("\nq close dashboard | ctrl+c cancel run\n"))
	return b.String()
}
