package controller

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingOf(lines int) string {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		b.WriteString("    nop\n")
	}

	return b.String()
}

func TestPager_WaitsForWindowSize(t *testing.T) {
	p := newPager("obf/Client", listingOf(3))

	assert.Nil(t, p.Init())
	assert.Equal(t, "loading...", p.View())

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Nil(t, cmd)
	assert.False(t, p.ready)
}

func TestPager_Sizes(t *testing.T) {
	p := newPager("obf/Client", listingOf(100))

	p.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	require.True(t, p.ready)
	assert.Equal(t, 80, p.view.Width)

	firstHeight := p.view.Height
	assert.Positive(t, firstHeight)

	p.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 100, p.view.Width)
	assert.Equal(t, firstHeight+10, p.view.Height)

	p.Update(tea.WindowSizeMsg{Width: 10, Height: 1})
	assert.Equal(t, 1, p.view.Height)

	view := p.View()
	assert.Contains(t, view, "obf/Client")
	assert.Contains(t, view, "100 lines")
}

func TestPager_Quits(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		t.Run(key.String(), func(t *testing.T) {
			p := newPager("obf/Client", listingOf(1))

			_, cmd := p.Update(key)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestPager_Scrolls(t *testing.T) {
	p := newPager("obf/Client", listingOf(100))
	p.Update(tea.WindowSizeMsg{Width: 80, Height: 10})

	p.Update(tea.KeyMsg{Type: tea.KeyPgDown})

	assert.Positive(t, p.view.YOffset)
}

func TestTUI_DisplayListing(t *testing.T) {
	var out bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	ui := NewTUI(cmd, tea.WithInput(strings.NewReader("q")))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, ui.DisplayListing(ctx, "obf/Client", listingOf(3)))
}
