package cli

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

// Style functions for dynamic theming
func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// importStepMsg reports one finished board during an import.
type importStepMsg struct {
	done  int
	total int
	title string
}

// importDoneMsg carries the final outcome of the import.
type importDoneMsg struct {
	summary importSummary
	err     error
}

// importSummary counts what an import created.
type importSummary struct {
	Projects int
	Boards   int
	Messages int
	Skipped  []string
}

// importProgressModel is the bubbletea model for import progress.
type importProgressModel struct {
	progress progress.Model
	theme    Theme

	done    int
	total   int
	current string

	finished bool
	canceled bool
	summary  importSummary
	err      error
}

// newImportProgressModel creates a progress model sized for total boards.
func newImportProgressModel(total int) importProgressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return importProgressModel{
		progress: prog,
		theme:    defaultTheme,
		total:    total,
	}
}

// Init returns the initial command.
func (m importProgressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m importProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.canceled = true
			return m, tea.Quit
		}

	case importStepMsg:
		m.done = msg.done
		m.total = msg.total
		m.current = msg.title
		return m, nil

	case importDoneMsg:
		m.finished = true
		m.summary = msg.summary
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m importProgressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m importProgressModel) renderContent() string {
	if m.finished {
		return m.finalView()
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}

	status := m.theme.statusStyle().Render("[importing]")
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d boards", m.done, m.total)

	line := fmt.Sprintf("%s %s %s\n", status, progressBar, counts)
	if m.current != "" {
		line += m.theme.hintStyle().Render(m.current) + "\n"
	}
	return line
}

// finalView renders the completion message.
func (m importProgressModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Import failed: %s\n", m.err))
	}
	return renderImportSummary(m.theme, m.summary)
}

// renderImportSummary formats the counts after a successful import.
func renderImportSummary(theme Theme, s importSummary) string {
	var output string
	output += theme.completedStyle().Render("✓ Imported") + "\n\n"
	output += fmt.Sprintf("  Projects created: %d\n", s.Projects)
	output += fmt.Sprintf("  Boards created:   %d\n", s.Boards)
	output += fmt.Sprintf("  Messages written: %d\n", s.Messages)
	if len(s.Skipped) > 0 {
		output += theme.errorStyle().Render(fmt.Sprintf("\nSkipped (%d):\n", len(s.Skipped)))
		for _, e := range s.Skipped {
			output += fmt.Sprintf("  • %s\n", e)
		}
	}
	return output
}
