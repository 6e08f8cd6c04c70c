package runscmder

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/config"
	"github.com/corelens-ai/corelens/pkg/storage"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

const watchPollInterval = 2 * time.Second

var (
	watchTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	watchMutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	watchIDStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	statusPendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusRunningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusDoneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	statusFailedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func statusBadge(status string) string {
	switch status {
	case storage.RunStatusPending:
		return statusPendingStyle.Render(status)
	case storage.RunStatusRunning:
		return statusRunningStyle.Render(status)
	case storage.RunStatusSucceeded:
		return statusDoneStyle.Render(status)
	case storage.RunStatusFailed:
		return statusFailedStyle.Render(status)
	default:
		return status
	}
}

func newWatchCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "watch <recipe-id>",
		Short: "Live TUI view of a recipe's runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runWatchTUI(cmd.Context(), cl, args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

type runsLoadedMsg struct {
	runs []*storage.Run
	err  error
}

type pollTickMsg time.Time

type watchModel struct {
	client   *client.Client
	recipeID string
	runs     []*storage.Run
	spinner  spinner.Model
	err      error
}

func runWatchTUI(ctx context.Context, cl *client.Client, recipeID string) error {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	model := watchModel{
		client:   cl,
		recipeID: recipeID,
		spinner:  sp,
	}

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
	)
	_, err := program.Run()
	return err
}

func (m watchModel) Init() bubbletea.Cmd {
	return bubbletea.Batch(m.spinner.Tick, m.loadRuns, pollTick())
}

func (m watchModel) loadRuns() bubbletea.Msg {
	runs, err := m.client.ListRuns(context.Background(), m.recipeID)
	return runsLoadedMsg{runs: runs, err: err}
}

func pollTick() bubbletea.Cmd {
	return bubbletea.Tick(watchPollInterval, func(t time.Time) bubbletea.Msg {
		return pollTickMsg(t)
	})
}

func (m watchModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, bubbletea.Quit
		}
		return m, nil

	case runsLoadedMsg:
		m.runs = msg.runs
		m.err = msg.err
		return m, nil

	case pollTickMsg:
		return m, bubbletea.Batch(m.loadRuns, pollTick())

	case spinner.TickMsg:
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m watchModel) View() string {
	var b []byte

	b = append(b, fmt.Sprintf("\n  %s %s %s\n\n",
		m.spinner.View(),
		watchTitleStyle.Render("Runs for"),
		watchIDStyle.Render(m.recipeID),
	)...)

	if m.err != nil {
		b = append(b, fmt.Sprintf("  %s\n", statusFailedStyle.Render(m.err.Error()))...)
	}

	if len(m.runs) == 0 && m.err == nil {
		b = append(b, fmt.Sprintf("  %s\n", watchMutedStyle.Render("No runs yet."))...)
	}

	for _, run := range m.runs {
		b = append(b, fmt.Sprintf("  %s  %-10s %s\n",
			watchIDStyle.Render(run.ID),
			statusBadge(run.Status),
			watchMutedStyle.Render(runSummary(run)),
		)...)
	}

	b = append(b, fmt.Sprintf("\n  %s\n", watchMutedStyle.Render("q to quit"))...)
	return string(b)
}
