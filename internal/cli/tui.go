package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/modulab/dungen/pkg/layout"
	"github.com/modulab/dungen/pkg/pipeline"
	"github.com/modulab/dungen/pkg/store"
)

// tuiCommand creates the tui command for interactive generation.
func (c *CLI) tuiCommand() *cobra.Command {
	var (
		themePath string
		sf        storeFlags
	)

	cmd := &cobra.Command{
		Use:   "tui [theme.toml]",
		Short: "Interactive generation loop in the terminal",
		Long: `Interactive generation loop in the terminal.

Repeatedly generates dungeons from the theme and shows the result. Press
r to reroll with a fresh seed, s to save the current layout to the store,
and q to quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				themePath = args[0]
			}
			st, err := sf.open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			model := newGenerateModel(cmd.Context(), c.newRunner(st), st, themePath)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	sf.register(cmd)
	return cmd
}

// =============================================================================
// generateModel - Interactive generation loop
// =============================================================================

type generatedMsg struct {
	layout *layout.Layout
	err    error
}

type savedMsg struct {
	id  string
	err error
}

// generateModel is the bubbletea model for the generation loop.
type generateModel struct {
	ctx       context.Context
	runner    *pipeline.Runner
	store     store.Store
	themePath string

	layout    *layout.Layout
	err       error
	busy      bool
	savedID   string
	saveError error
}

func newGenerateModel(ctx context.Context, runner *pipeline.Runner, st store.Store, themePath string) generateModel {
	return generateModel{
		ctx:       ctx,
		runner:    runner,
		store:     st,
		themePath: themePath,
		busy:      true,
	}
}

func (m generateModel) Init() tea.Cmd {
	return m.generate()
}

func (m generateModel) generate() tea.Cmd {
	return func() tea.Msg {
		result, err := m.runner.Execute(m.ctx, pipeline.Options{
			ThemePath: m.themePath,
			Seed:      rand.Uint64(),
			Formats:   []string{pipeline.FormatJSON},
		})
		if err != nil {
			return generatedMsg{err: err}
		}
		return generatedMsg{layout: result.Layout}
	}
}

func (m generateModel) save() tea.Cmd {
	l := m.layout
	return func() tea.Msg {
		if err := m.store.Save(m.ctx, l); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{id: l.ID}
	}
}

func (m generateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.savedID = ""
			m.saveError = nil
			return m, m.generate()
		case "s":
			if m.busy || m.layout == nil || m.savedID != "" {
				return m, nil
			}
			return m, m.save()
		}
	case generatedMsg:
		m.busy = false
		m.layout = msg.layout
		m.err = msg.err
	case savedMsg:
		m.savedID = msg.id
		m.saveError = msg.err
	}
	return m, nil
}

func (m generateModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("dungen"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("r reroll  s save  q quit"))
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(StyleDim.Render("generating..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error())
		b.WriteString("\n")
	case m.layout != nil:
		b.WriteString(m.viewLayout())
	}

	return b.String()
}

func (m generateModel) viewLayout() string {
	l := m.layout
	var b strings.Builder

	fmt.Fprintf(&b, "%s  seed %s\n",
		StyleHighlight.Render(l.Theme),
		StyleValue.Render(fmt.Sprintf("%d", l.Seed)))
	fmt.Fprintf(&b, "%s\n\n", StyleDim.Render(fmt.Sprintf(
		"%d modules · %d links · %d backtracks",
		len(l.Modules), len(l.Links), l.Stats.Backtracks)))

	counts := map[string]int{}
	var order []string
	for _, mod := range l.Modules {
		if counts[mod.Category] == 0 {
			order = append(order, mod.Category)
		}
		counts[mod.Category]++
	}

	rows := make([][]string, 0, len(order))
	for _, cat := range order {
		rows = append(rows, []string{cat, fmt.Sprintf("%d", counts[cat])})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("CATEGORY", "COUNT").
		Rows(rows...)
	b.WriteString(t.Render())
	b.WriteString("\n")

	if m.saveError != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + m.saveError.Error() + "\n")
	} else if m.savedID != "" {
		b.WriteString(styleIconSuccess.Render(iconSuccess) + " saved as " + StyleValue.Render(m.savedID) + "\n")
	}

	return b.String()
}
