package cli

import (
	"errors"
	"fmt"
	"os"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/relationships/internal/highlight"
	"github.com/raphaelgruber/relationships/internal/models"
	"github.com/raphaelgruber/relationships/internal/render"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Explore the widget interactively",
	Long: `Move a cursor over the items to see their links highlighted.

Keys: ←/→ move, tab or ↑/↓ switch set, enter selects, esc clears the
highlight, q quits. Selected items are listed on exit.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

// browseKeys are the key bindings of the browser.
type browseKeys struct {
	Prev   key.Binding
	Next   key.Binding
	Switch key.Binding
	Select key.Binding
	Clear  key.Binding
	Quit   key.Binding
}

func (k browseKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Switch, k.Select, k.Clear, k.Quit}
}

func (k browseKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultBrowseKeys = browseKeys{
	Prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev")),
	Next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
	Switch: key.NewBinding(key.WithKeys("tab", "up", "down", "k", "j"), key.WithHelp("tab", "switch set")),
	Select: key.NewBinding(key.WithKeys("enter", "space"), key.WithHelp("enter", "select")),
	Clear:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF005F")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787"))
)

// browseModel is the bubbletea model for the interactive browser.
type browseModel struct {
	widget   *highlight.Widget
	renderer *render.Renderer
	keys     browseKeys
	help     help.Model

	cursor   models.Selection // Focused item; None when both sets are empty
	decision models.HighlightDecision
	selected *[]string // Filled by the widget's select callback
	err      error
}

// newBrowseModel creates the browser for w. The cursor starts on the first
// item but nothing is highlighted until it moves.
func newBrowseModel(w *highlight.Widget) (browseModel, error) {
	selected := &[]string{}
	err := w.Reconfigure(highlight.Update{
		OnSelect: func(set models.SetID, index int, text string) {
			*selected = append(*selected, fmt.Sprintf("%s[%d] %s", set, index, text))
		},
	})
	if err != nil {
		return browseModel{}, err
	}

	m := browseModel{
		widget:   w,
		renderer: render.New(render.DefaultTheme),
		keys:     defaultBrowseKeys,
		help:     help.New(),
		selected: selected,
		decision: w.Leave(),
	}
	switch {
	case w.Config().SetA.Len() > 0:
		m.cursor = models.Select(models.SetA, 0)
	case w.Config().SetB.Len() > 0:
		m.cursor = models.Select(models.SetB, 0)
	}
	return m, nil
}

// Init returns the initial command.
func (m browseModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses and returns the updated model.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return m, tea.Quit
	case m.cursor.IsNone():
		return m, nil
	case key.Matches(keyMsg, m.keys.Prev):
		m.cursor.Index = m.wrap(m.cursor.Set, m.cursor.Index-1)
		return m.hover(), nil
	case key.Matches(keyMsg, m.keys.Next):
		m.cursor.Index = m.wrap(m.cursor.Set, m.cursor.Index+1)
		return m.hover(), nil
	case key.Matches(keyMsg, m.keys.Switch):
		other := m.cursor.Set.Opposite()
		if set, _ := m.widget.Config().Set(other); set.Len() > 0 {
			m.cursor = models.Select(other, min(m.cursor.Index, set.Len()-1))
		}
		return m.hover(), nil
	case key.Matches(keyMsg, m.keys.Select):
		m.decision, m.err = m.widget.Select(m.cursor.Set, m.cursor.Index)
		return m, nil
	case key.Matches(keyMsg, m.keys.Clear):
		m.decision, m.err = m.widget.Leave(), nil
		return m, nil
	}
	return m, nil
}

// hover re-resolves the decision for the cursor.
func (m browseModel) hover() browseModel {
	m.decision, m.err = m.widget.Hover(m.cursor)
	return m
}

// wrap keeps index inside set, wrapping around at either end.
func (m browseModel) wrap(id models.SetID, index int) int {
	set, _ := m.widget.Config().Set(id)
	n := set.Len()
	if n == 0 {
		return 0
	}
	return ((index % n) + n) % n
}

// View renders the browser.
func (m browseModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m browseModel) renderContent() string {
	if m.cursor.IsNone() {
		return hintStyle.Render("Both sets are empty. Press q to quit.") + "\n"
	}

	cursor := m.cursor
	out := m.renderer.Render(m.widget.Config(), m.decision, &cursor)
	if m.err != nil {
		out += errorStyle.Render(m.err.Error()) + "\n"
	}
	if n := len(*m.selected); n > 0 {
		out += statusStyle.Render(fmt.Sprintf("Selected: %s", (*m.selected)[n-1])) + "\n"
	}
	return out + "\n" + m.help.View(m.keys) + "\n"
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("browse needs a terminal; use 'relationships show' in scripts")
	}

	w, err := newWidget()
	if err != nil {
		return err
	}
	model, err := newBrowseModel(w)
	if err != nil {
		return err
	}

	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("browse UI error: %w", err)
	}

	if m, ok := finalModel.(browseModel); ok && len(*m.selected) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Selected:")
		for _, s := range *m.selected {
			fmt.Fprintf(cmd.OutOrStdout(), "  • %s\n", s)
		}
	}
	return nil
}
