package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cscx-ai/draftd/internal/domain/session"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard of open sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("DRAFTD_SKIP_DASHBOARD_RUN") == "true" {
			return nil
		}
		p := tea.NewProgram(initialModel())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard run failed: %w", err)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(dashboardCmd)
}

// Styles
var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	PaddingLeft(1).
	PaddingRight(1)

var statusClean = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
var statusErr = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

type model struct {
	table    table.Model
	root     string
	failures []string
	err      error
}

func initialModel() model {
	repo, err := openRepository()
	if err != nil {
		return model{err: err}
	}

	records, err := repo.List()
	if err != nil {
		return model{err: err}
	}

	columns := []table.Column{
		{Title: "ID", Width: 36},
		{Title: "Kind", Width: 18},
		{Title: "Customer", Width: 20},
		{Title: "Status", Width: 8},
		{Title: "Ver", Width: 5},
		{Title: "Modified", Width: 8},
	}

	rows := []table.Row{}
	failures := []string{}
	for _, rec := range records {
		modified := "no"
		if rec.Modified {
			modified = "yes"
		}
		rows = append(rows, table.Row{
			rec.ID,
			string(rec.Kind),
			rec.CustomerID,
			string(rec.Status),
			fmt.Sprintf("%d", rec.Version),
			modified,
		})
		if rec.Status == session.StatusError && rec.SaveError != "" {
			failures = append(failures, fmt.Sprintf("%s: %s", rec.ID, rec.SaveError))
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))

	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))

	t.SetStyles(s)

	return model{
		table:    t,
		root:     repo.Root(),
		failures: failures,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error loading dashboard: %v\nPress q to quit.", m.err)
	}

	header := headerStyle.Render(fmt.Sprintf("draftd sessions (%s)", m.root))

	failureView := ""
	if len(m.failures) > 0 {
		failureView = statusErr.Render("\nSAVE FAILURES:\n")
		for _, f := range m.failures {
			failureView += fmt.Sprintf("- %s\n", f)
		}
	} else {
		failureView = statusClean.Render("\nNo pending save failures")
	}

	return baseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"\nOpen Sessions:",
			m.table.View(),
			failureView,
			"\n[q] Quit  [Up/Down] Navigate",
		),
	) + "\n"
}
