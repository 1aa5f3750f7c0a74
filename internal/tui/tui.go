package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/storygraph/internal/engine"
	"github.com/tatianab/storygraph/internal/models"
	"github.com/tatianab/storygraph/internal/play"
)

type screen int

const (
	screenLoading screen = iota
	screenMenu
	screenCode
	screenSlots
	screenPlaying
	screenError
)

type menuAction int

const (
	actionContinue menuAction = iota
	actionStory
	actionCode
	actionSlots
)

type menuItem struct {
	label   string
	action  menuAction
	storyID string
}

type model struct {
	screen    screen
	player    *play.Player
	keys      keyMap
	textInput textinput.Model
	viewport  viewport.Model

	menu    []menuItem
	slots   []models.SaveSlot
	choices []engine.Availability
	cursor  int
	busy    bool

	gameLog string
	status  string
	err     error
	width   int
	height  int
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	endStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			MarginTop(1)
)

func NewModel(player *play.Player) model {
	ti := textinput.New()
	ti.Placeholder = "Access code"
	ti.CharLimit = 32
	ti.Width = 20

	vp := viewport.New(0, 0)
	vp.KeyMap = scrollKeys()

	return model{
		screen:    screenLoading,
		player:    player,
		keys:      defaultKeyMap(),
		textInput: ti,
		viewport:  vp,
	}
}

func (m model) Init() tea.Cmd {
	return m.loadMenu()
}

type menuLoadedMsg struct {
	items []menuItem
	slots []models.SaveSlot
}

// gameMsg reports that the session moved to a new scene. fresh is set when a
// new game or a restored one begins.
type gameMsg struct {
	fresh bool
}

type savedMsg struct {
	slot models.SaveSlot
}

type codeFailedMsg struct {
	err error
}

type errMsg struct {
	err error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Force) {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.screen {
		case screenMenu:
			return m.updateMenu(msg)
		case screenCode:
			return m.updateCode(msg)
		case screenSlots:
			return m.updateSlots(msg)
		case screenPlaying:
			return m.updatePlaying(msg)
		case screenError:
			if key.Matches(msg, m.keys.Quit) {
				return m, tea.Quit
			}
			if key.Matches(msg, m.keys.Back, m.keys.Select) {
				m.err = nil
				return m, m.loadMenu()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case menuLoadedMsg:
		m.menu = msg.items
		m.slots = msg.slots
		m.busy = false
		if m.screen == screenSlots && len(m.slots) > 0 {
			m.cursor = min(m.cursor, len(m.slots)-1)
			return m, nil
		}
		m.screen = screenMenu
		m.cursor = 0
		return m, nil

	case gameMsg:
		m.busy = false
		m.status = ""
		if msg.fresh {
			m.gameLog = ""
		}
		m.screen = screenPlaying
		m.appendScene()
		m.choices = m.player.Choices()
		m.cursor = firstAvailable(m.choices)
		m.layout()
		m.viewport.GotoBottom()
		return m, nil

	case savedMsg:
		m.busy = false
		m.status = "Saved as " + msg.slot.Name
		return m, nil

	case codeFailedMsg:
		m.busy = false
		m.status = "Cannot access a story with that code."
		if !errors.Is(msg.err, play.ErrStoryNotFound) {
			m.status = msg.err.Error()
		}
		return m, nil

	case errMsg:
		m.busy = false
		m.err = msg.err
		m.screen = screenError
		return m, nil
	}

	switch m.screen {
	case screenCode:
		m.textInput, cmd = m.textInput.Update(msg)
	case screenPlaying:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit, m.keys.Back):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.menu)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.cursor >= len(m.menu) {
			return m, nil
		}
		item := m.menu[m.cursor]
		switch item.action {
		case actionContinue:
			m.busy = true
			return m, m.continueGame()
		case actionStory:
			m.busy = true
			return m, m.startStory(item.storyID)
		case actionCode:
			m.screen = screenCode
			m.status = ""
			m.textInput.Reset()
			return m, m.textInput.Focus()
		case actionSlots:
			m.screen = screenSlots
			m.cursor = 0
		}
	}
	return m, nil
}

func (m model) updateCode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.textInput.Blur()
		m.screen = screenMenu
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.Select):
		code := strings.ToLower(strings.TrimSpace(m.textInput.Value()))
		if code == "" {
			return m, nil
		}
		m.busy = true
		return m, m.openCode(code)
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) updateSlots(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.screen = screenMenu
		m.cursor = 0
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.slots)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.cursor < len(m.slots) {
			m.busy = true
			return m, m.loadSlot(m.slots[m.cursor].ID)
		}
	case key.Matches(msg, m.keys.Delete):
		if m.cursor < len(m.slots) {
			m.busy = true
			return m, m.deleteSlot(m.slots[m.cursor].ID)
		}
	}
	return m, nil
}

func (m model) updatePlaying(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Menu):
		m.status = ""
		return m, m.loadMenu()
	case key.Matches(msg, m.keys.Restart):
		m.busy = true
		return m, m.restart()
	case key.Matches(msg, m.keys.Save):
		m.busy = true
		return m, m.save()
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.cursor >= len(m.choices) {
			return m, nil
		}
		choice := m.choices[m.cursor]
		if !choice.Available {
			m.status = choice.Explanation
			return m, nil
		}
		styledChoice := userStyle.Width(m.logWidth()).Render("> " + choice.Choice.Text)
		m.gameLog += styledChoice + "\n\n"
		m.busy = true
		return m, m.choose(choice.Choice.ID)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var s string

	switch m.screen {
	case screenLoading:
		s = "\n  Loading stories... please wait.\n"

	case screenMenu:
		lines := []string{titleStyle.Render("STORIES"), ""}
		for i, item := range m.menu {
			lines = append(lines, m.cursorLine(i, item.label))
		}
		if len(m.menu) == 0 {
			lines = append(lines, "(no stories)")
		}
		lines = append(lines, "", helpLine(m.keys.Up, m.keys.Down, m.keys.Select, m.keys.Quit))
		s = strings.Join(lines, "\n")

	case screenCode:
		s = fmt.Sprintf("Enter the story's access code:\n\n%s\n\n%s\n\n%s",
			m.textInput.View(),
			m.status,
			helpLine(m.keys.Select, m.keys.Back),
		)

	case screenSlots:
		lines := []string{titleStyle.Render("SAVED GAMES"), ""}
		for i, slot := range m.slots {
			label := fmt.Sprintf("%s | %s | %s", slot.Name, slot.StoryTitle, slot.SavedAt.Local().Format("2006-01-02 15:04"))
			lines = append(lines, m.cursorLine(i, label))
		}
		lines = append(lines, "", helpLine(m.keys.Select, m.keys.Delete, m.keys.Back))
		s = strings.Join(lines, "\n")

	case screenPlaying:
		mainView := lipgloss.JoinHorizontal(lipgloss.Top,
			m.viewport.View(),
			m.renderState(),
		)
		s = lipgloss.JoinVertical(lipgloss.Left,
			mainView,
			"\n"+m.renderChoices(),
			"\n"+helpLine(m.keys.Select, m.keys.Save, m.keys.Restart, m.keys.Menu, m.keys.Quit),
		)

	case screenError:
		s = fmt.Sprintf("\n  Error: %v\n\nPress Esc to return to the menu.", m.err)
	}

	return "\n" + s + "\n"
}

func (m model) cursorLine(i int, label string) string {
	if i == m.cursor {
		return cursorStyle.Render("> " + label)
	}
	return "  " + label
}

func (m model) renderChoices() string {
	if m.player.Status() == engine.StatusEnded {
		return endStyle.Render("The story has ended.") + "\n" + m.status
	}
	lines := make([]string, 0, len(m.choices)+1)
	for i, c := range m.choices {
		label := c.Choice.Text
		if !c.Available {
			label = lockedStyle.Render(fmt.Sprintf("%s (%s)", label, c.Explanation))
		}
		lines = append(lines, m.cursorLine(i, label))
	}
	if m.status != "" {
		lines = append(lines, "", m.status)
	}
	return strings.Join(lines, "\n")
}

func (m model) renderState() string {
	state, ok := m.player.State()
	if !ok {
		return ""
	}

	stats := titleStyle.Render("STATS") + "\n"
	for _, k := range models.StatKeys {
		v, _ := state.Stats.Get(k)
		stats += fmt.Sprintf("%s: %d\n", models.StatLabels[k], v)
	}
	stats += "\n"

	inventory := titleStyle.Render("INVENTORY") + "\n"
	if len(state.Inventory) == 0 {
		inventory += "(empty)\n"
	}
	for _, item := range state.Inventory {
		inventory += fmt.Sprintf("- %s x%d\n", item.Name, item.Quantity)
	}
	inventory += "\n"

	var flags []string
	for name, set := range state.Flags {
		if set {
			flags = append(flags, "- "+name)
		}
	}
	sort.Strings(flags)
	flagText := ""
	if len(flags) > 0 {
		flagText = titleStyle.Render("FLAGS") + "\n" + strings.Join(flags, "\n") + "\n\n"
	}

	var relations []string
	for name, v := range state.CharacterRelations {
		relations = append(relations, fmt.Sprintf("%s: %d", name, v))
	}
	sort.Strings(relations)
	relationText := ""
	if len(relations) > 0 {
		relationText = titleStyle.Render("RELATIONS") + "\n" + strings.Join(relations, "\n") + "\n\n"
	}

	played := time.Duration(state.PlayTime) * time.Second
	content := stats + inventory + flagText + relationText + helpStyle.Render("Played "+played.String())

	stateWidth := int(float64(m.width) * 0.23)
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(content)
}

func (m *model) appendScene() {
	scene, ok := m.player.CurrentScene()
	if !ok {
		return
	}
	header := gameStyle.Bold(true).Render(scene.Title)
	body := gameStyle.Width(m.logWidth()).Render(scene.Text)
	m.gameLog += header + "\n\n" + body + "\n\n"
	if scene.Image != "" {
		m.gameLog += helpStyle.Render("[image: "+scene.Image+"]") + "\n\n"
	}
	if scene.Video != "" {
		m.gameLog += helpStyle.Render("[video: "+scene.Video+"]") + "\n\n"
	}
	if scene.IsEnding {
		m.gameLog += endStyle.Render("THE END") + "\n\n"
	}
	m.viewport.SetContent(m.gameLog)
}

func (m *model) layout() {
	m.viewport.Width = m.logWidth()
	m.viewport.Height = max(m.height-8-len(m.choices), 3)
	m.viewport.SetContent(m.gameLog)
}

func (m model) logWidth() int {
	return int(float64(m.width) * 0.75)
}

func firstAvailable(choices []engine.Availability) int {
	for i, c := range choices {
		if c.Available {
			return i
		}
	}
	return 0
}

func (m model) loadMenu() tea.Cmd {
	p := m.player
	return func() tea.Msg {
		ctx := context.Background()
		var items []menuItem
		if auto, ok := p.AutoSave(ctx); ok {
			items = append(items, menuItem{label: "Continue: " + auto.StoryTitle, action: actionContinue})
		}
		for _, s := range p.Stories(ctx) {
			id := s.FileName
			if id == "" {
				id = s.ID
			}
			items = append(items, menuItem{label: s.Title, action: actionStory, storyID: id})
		}
		items = append(items, menuItem{label: "Enter an access code", action: actionCode})
		slots := p.ListSlots(ctx)
		if len(slots) > 0 {
			items = append(items, menuItem{label: fmt.Sprintf("Load a saved game (%d)", len(slots)), action: actionSlots})
		}
		return menuLoadedMsg{items: items, slots: slots}
	}
}

func (m model) startStory(id string) tea.Cmd {
	p := m.player
	return func() tea.Msg {
		ctx := context.Background()
		if err := p.LoadByID(ctx, id); err != nil {
			return errMsg{err}
		}
		if err := p.Start(ctx); err != nil {
			return errMsg{err}
		}
		return gameMsg{fresh: true}
	}
}

func (m model) openCode(code string) tea.Cmd {
	p := m.player
	return func() tea.Msg {
		ctx := context.Background()
		if err := p.LoadByCode(ctx, code); err != nil {
			return codeFailedMsg{err}
		}
		if err := p.Start(ctx); err != nil {
			return errMsg{err}
		}
		return gameMsg{fresh: true}
	}
}

func (m model) continueGame() tea.Cmd {
	p := m.player
	return func() tea.Msg {
		if err := p.Continue(context.Background()); err != nil {
			return errMsg{err}
		}
		return gameMsg{fresh: true}
	}
}

func (m model) loadSlot(slotID string) tea.Cmd {
	p := m.player
	return func() tea.Msg {
		if err := p.LoadSlot(context.Background(), slotID); err != nil {
			return errMsg{err}
		}
		return gameMsg{fresh: true}
	}
}

func (m model) deleteSlot(slotID string) tea.Cmd {
	p := m.player
	reload := m.loadMenu()
	return func() tea.Msg {
		if err := p.DeleteSlot(context.Background(), slotID); err != nil {
			return errMsg{err}
		}
		return reload()
	}
}

func (m model) choose(choiceID string) tea.Cmd {
	p := m.player
	return func() tea.Msg {
		if err := p.Choose(context.Background(), choiceID); err != nil {
			return errMsg{err}
		}
		return gameMsg{}
	}
}

func (m model) restart() tea.Cmd {
	p := m.player
	return func() tea.Msg {
		if err := p.Restart(context.Background()); err != nil {
			return errMsg{err}
		}
		return gameMsg{fresh: true}
	}
}

func (m model) save() tea.Cmd {
	p := m.player
	return func() tea.Msg {
		slot, err := p.SaveToSlot(context.Background(), "", "")
		if err != nil {
			return errMsg{err}
		}
		return savedMsg{slot}
	}
}

// Run starts the player. While the program owns the terminal, log output goes
// to debugLog, or nowhere when it is empty.
func Run(player *play.Player, debugLog string) error {
	if debugLog != "" {
		f, err := tea.LogToFile(debugLog, "storygraph")
		if err != nil {
			return err
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	p := tea.NewProgram(NewModel(player), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
