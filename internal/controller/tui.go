package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("81")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("81")).
			Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// TUI pages long listings interactively and prints everything else like
// SimpleUI.
type TUI struct {
	*SimpleUI

	options []tea.ProgramOption
}

// NewTUI creates a new TUI writing to the command's output.
func NewTUI(cmd *cobra.Command, options ...tea.ProgramOption) *TUI {
	return &TUI{
		SimpleUI: NewSimpleUI(cmd),
		options:  append([]tea.ProgramOption{tea.WithOutput(cmd.OutOrStdout()), tea.WithAltScreen()}, options...),
	}
}

// DisplayListing shows the listing in a scrollable pager.
func (t *TUI) DisplayListing(ctx context.Context, title, listing string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	options := append([]tea.ProgramOption{tea.WithContext(ctx)}, t.options...)

	program := tea.NewProgram(newPager(title, listing), options...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run pager: %w", err)
	}

	return nil
}

type pager struct {
	title   string
	content string
	ready   bool
	view    viewport.Model
}

func newPager(title, content string) *pager {
	return &pager{title: title, content: content}
}

func (p *pager) Init() tea.Cmd { return nil }

func (p *pager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return p, tea.Quit
		}
	case tea.WindowSizeMsg:
		height := msg.Height - lipgloss.Height(p.header()) - lipgloss.Height(p.footer())
		if height < 1 {
			height = 1
		}

		if !p.ready {
			p.view = viewport.New(msg.Width, height)
			p.view.SetContent(p.content)
			p.ready = true
		} else {
			p.view.Width = msg.Width
			p.view.Height = height
		}
	}

	if !p.ready {
		return p, nil
	}

	var cmd tea.Cmd

	p.view, cmd = p.view.Update(msg)

	return p, cmd
}

func (p *pager) View() string {
	if !p.ready {
		return "loading..."
	}

	return p.header() + "\n" + p.view.View() + "\n" + p.footer()
}

func (p *pager) header() string {
	return titleStyle.Render(p.title)
}

func (p *pager) footer() string {
	percent := 100.0
	if p.ready {
		percent = p.view.ScrollPercent() * 100
	}

	lines := strings.Count(p.content, "\n")

	return footerStyle.Render(fmt.Sprintf("%d lines  %3.0f%%  q to quit", lines, percent))
}
