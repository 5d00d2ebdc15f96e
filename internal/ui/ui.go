// Package ui implements the interactive mood picker TUI.
//
// The TUI is a stateless rendering wrapper around the core entry points:
// it collects a mood and a visibility flag, invokes the generator, and
// displays the propagated result or error message verbatim.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/moodplaylist/moodlist/internal/mood"
	"github.com/moodplaylist/moodlist/internal/playlist"
)

// Generator is the core entry point the TUI drives.
// Satisfied by [playlist.Generator].
type Generator interface {
	Generate(ctx context.Context, moodName string, makePublic bool) (*playlist.Result, error)
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MoodPickView ViewState = iota
	ConfirmView
	GeneratingView
	ResultView
)

// moodItem wraps [mood.Mood] to implement list.Item.
type moodItem struct {
	mood mood.Mood
}

func (i moodItem) FilterValue() string { return string(i.mood) }
func (i moodItem) Title() string       { return i.mood.Title() }
func (i moodItem) Description() string {
	t := i.mood.Targets()
	return fmt.Sprintf("valence %.1f • energy %.1f • danceability %.1f", t.Valence, t.Energy, t.Danceability)
}

type generationDoneMsg struct {
	result *playlist.Result
	err    error
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	generator  Generator
	width      int
	height     int
	moodList   list.Model
	selected   mood.Mood
	makePublic bool
	spin       spinner.Model
	result     *playlist.Result
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model with the provided generator.
func NewModel(ctx context.Context, generator Generator) *Model {
	items := []list.Item{}
	for _, m := range mood.All() {
		items = append(items, moodItem{mood: m})
	}

	moodList := list.New(items, list.NewDefaultDelegate(), 40, 14)
	moodList.Title = "Pick a mood"
	moodList.SetShowStatusBar(false)
	moodList.SetFilteringEnabled(false)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Model{
		ctx:       ctx,
		view:      MoodPickView,
		generator: generator,
		moodList:  moodList,
		spin:      spin,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init implements [tea.Model].
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.moodList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) && m.view != GeneratingView {
			return m, tea.Quit
		}
		switch m.view {
		case MoodPickView:
			return m.handleMoodPickKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case generationDoneMsg:
		m.view = ResultView
		m.result = msg.result
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m *Model) handleMoodPickKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.enter) {
		if item, ok := m.moodList.SelectedItem().(moodItem); ok {
			m.selected = item.mood
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.moodList, cmd = m.moodList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.makePublic = true
		return m.startGeneration()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.enter):
		m.makePublic = false
		return m.startGeneration()
	case key.Matches(msg, m.keys.back):
		m.view = MoodPickView
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.restart) {
		m.view = MoodPickView
		m.result = nil
		m.err = nil
	}
	return m, nil
}

func (m *Model) startGeneration() (tea.Model, tea.Cmd) {
	m.view = GeneratingView
	return m, tea.Batch(m.spin.Tick, m.generate())
}

func (m *Model) generate() tea.Cmd {
	moodName := string(m.selected)
	public := m.makePublic
	return func() tea.Msg {
		result, err := m.generator.Generate(m.ctx, moodName, public)
		return generationDoneMsg{result: result, err: err}
	}
}

// View renders the current view.
func (m *Model) View() string {
	switch m.view {
	case MoodPickView:
		return m.moodList.View() + "\n" + styles.help.Render(m.help.View(m.keys))

	case ConfirmView:
		return fmt.Sprintf(
			"%s\n\nMake the %s playlist public?\n\n%s\n",
			styles.title.Render("Confirm"),
			styles.ok.Render(m.selected.Title()),
			styles.help.Render("y: public • n/enter: private • esc: back"),
		)

	case GeneratingView:
		return fmt.Sprintf("\n %s Generating your %s playlist...\n", m.spin.View(), m.selected.Title())

	case ResultView:
		if m.err != nil {
			return fmt.Sprintf(
				"%s\n\n%v\n\n%s\n",
				styles.err.Render("✗ Generation failed"),
				m.err,
				styles.help.Render("r: try again • q: quit"),
			)
		}
		out := fmt.Sprintf(
			"%s\n\n%s (%d tracks)\n",
			styles.ok.Render("✓ Playlist created"),
			m.result.Name,
			m.result.Tracks,
		)
		if m.result.URL != "" {
			out += fmt.Sprintf("%s\n", m.result.URL)
		}
		return out + "\n" + styles.help.Render("r: another • q: quit") + "\n"
	}

	return ""
}
