package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"moiratui/internal/config"
	"moiratui/internal/history"
	"moiratui/internal/listsync"
	"moiratui/internal/paging"
	"moiratui/internal/tags"
	"moiratui/internal/triggerview"
)

type mode int

const (
	modeList mode = iota
	modeTags
	modeSearch
	modeDetail
	modeMaintenance
)

// resultMsg carries a finished controller job back into the update loop.
type resultMsg struct {
	result listsync.Result
}

// detailMsg carries a finished trigger detail job.
type detailMsg struct {
	result triggerview.Result
}

type Model struct {
	ctrl         *listsync.Controller
	detail       *triggerview.Loader
	hist         *history.History
	cfg          config.Config
	cursor       int
	tagCursor    int
	metricCursor int
	presetCursor int
	showEvents   bool
	mode         mode
	input        textinput.Model
	spinner      spinner.Model
	status       string
	width        int
}

func New(ctrl *listsync.Controller, detail *triggerview.Loader, hist *history.History, cfg config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Search triggers"
	ti.CharLimit = 256
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	return Model{
		ctrl:    ctrl,
		detail:  detail,
		hist:    hist,
		cfg:     cfg,
		input:   ti,
		spinner: sp,
		mode:    modeList,
		status:  "Press 't' for tags, 'p' for problems only, '/' to search.",
	}
}

func Run(ctrl *listsync.Controller, detail *triggerview.Loader, hist *history.History, cfg config.Config) error {
	program := tea.NewProgram(New(ctrl, detail, hist, cfg), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.run(m.ctrl.Navigated(m.hist.Location())), m.spinner.Tick)
}

// run turns a controller job into a command. The job gets its own timeout.
func (m Model) run(job listsync.Job) tea.Cmd {
	if job == nil {
		return nil
	}
	timeout := m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return resultMsg{result: job(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		next := m.ctrl.Apply(msg.result)
		view := m.ctrl.View()
		m.cursor = clampCursor(m.cursor, len(view.Triggers))
		m.tagCursor = clampCursor(m.tagCursor, len(view.AllTags))
		if next == nil && view.Err != nil {
			m.status = fmt.Sprintf("load failed: %v", view.Err)
		}
		return m, m.run(next)
	case detailMsg:
		m.detail.Apply(msg.result)
		view := m.detail.View()
		m.metricCursor = clampCursor(m.metricCursor, len(view.Metrics))
		if view.Err != nil {
			m.status = fmt.Sprintf("trigger: %v", view.Err)
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearchMode(msg.String(), msg)
		case modeTags:
			return m.updateTagMode(msg.String())
		case modeDetail:
			return m.updateDetailMode(msg.String())
		case modeMaintenance:
			return m.updateMaintenanceMode(msg.String())
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	view := m.ctrl.View()
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(view.Triggers))
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(view.Triggers))
	case m.cfg.Keys.NextPage, "right":
		return m.gotoPage(view.Filters.Page + 1)
	case m.cfg.Keys.PrevPage, "left":
		return m.gotoPage(view.Filters.Page - 1)
	case m.cfg.Keys.OnlyProblems:
		m.status = "Toggled problems only"
		return m, m.run(m.ctrl.ToggleOnlyProblems())
	case m.cfg.Keys.Tags:
		if len(view.AllTags) == 0 {
			m.status = "No tags available"
			return m, nil
		}
		m.mode = modeTags
		m.status = "Tags: space to toggle, esc to close"
	case m.cfg.Keys.ClearTags:
		m.status = "Cleared tags"
		return m, m.run(m.ctrl.SetTags(nil))
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.input.SetValue(view.Filters.SearchText)
		m.input.CursorEnd()
		m.input.Focus()
		m.status = "Search: type and press Enter"
	case m.cfg.Keys.Back:
		if !m.hist.Back() {
			m.status = "No earlier location"
			return m, nil
		}
		return m, m.run(m.ctrl.Navigated(m.hist.Location()))
	case m.cfg.Keys.Forward:
		if !m.hist.Forward() {
			m.status = "No later location"
			return m, nil
		}
		return m, m.run(m.ctrl.Navigated(m.hist.Location()))
	case m.cfg.Keys.Refresh:
		m.status = "Refreshing"
		return m, m.run(m.ctrl.Refresh())
	case m.cfg.Keys.Confirm:
		if len(view.Triggers) == 0 {
			m.status = "No triggers"
			return m, nil
		}
		t := view.Triggers[clampCursor(m.cursor, len(view.Triggers))]
		m.mode = modeDetail
		m.metricCursor = 0
		m.showEvents = false
		m.status = ""
		return m, m.runDetail(m.detail.Open(t.ID))
	}
	return m, nil
}

func (m Model) gotoPage(page int) (tea.Model, tea.Cmd) {
	view := m.ctrl.View()
	target := paging.Clamp(page, view.PageCount)
	if target == view.Filters.Page {
		m.status = fmt.Sprintf("Page %d of %d", target, view.PageCount)
		return m, nil
	}
	m.cursor = 0
	return m, m.run(m.ctrl.SetPage(target))
}

func (m Model) updateTagMode(key string) (tea.Model, tea.Cmd) {
	all := m.ctrl.View().AllTags
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case m.cfg.Keys.Cancel, m.cfg.Keys.Confirm, m.cfg.Keys.Tags, "esc":
		m.mode = modeList
		m.status = ""
	case m.cfg.Keys.Down, "down":
		m.tagCursor = clampCursor(m.tagCursor+1, len(all))
	case m.cfg.Keys.Up, "up":
		m.tagCursor = clampCursor(m.tagCursor-1, len(all))
	case m.cfg.Keys.ToggleTag, " ":
		if len(all) == 0 {
			return m, nil
		}
		tag := all[clampCursor(m.tagCursor, len(all))]
		m.status = "Toggled " + tag
		return m, m.run(m.ctrl.ToggleTag(tag))
	}
	return m, nil
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		text := m.input.Value()
		m.mode = modeList
		m.input.Blur()
		m.cursor = 0
		m.status = ""
		return m, m.run(m.ctrl.SetSearchText(text))
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) View() string {
	if m.mode == modeDetail || m.mode == modeMaintenance {
		return m.detailView()
	}
	view := m.ctrl.View()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Moira triggers"))
	if m.ctrl.Busy() {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n")
	b.WriteString(locationStyle.Render(m.hist.Location().String()))
	b.WriteString("\n\n")

	if view.Loading {
		b.WriteString("Loading...")
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(filterStyle.Render(renderFilters(view)))
	b.WriteString("\n\n")

	switch m.mode {
	case modeTags:
		b.WriteString(m.renderTagPicker(view))
	default:
		if len(view.Triggers) == 0 {
			b.WriteString("No triggers match.")
			b.WriteString("\n")
		} else {
			b.WriteString(m.renderTriggerList(view))
		}
	}

	b.WriteString("\n---\n")
	if m.mode == modeSearch {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if view.Err != nil && m.status == "" {
		b.WriteString(errorStyle.Render(fmt.Sprintf("load failed: %v", view.Err)))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(renderHelp(m.cfg.Keys)))
	return b.String()
}

func renderFilters(view listsync.ViewState) string {
	f := view.Filters
	tagText := "all"
	if len(f.Tags) > 0 {
		tagText = strings.Join(f.Tags, ", ")
	}
	problems := "off"
	if f.OnlyProblems {
		problems = "on"
	}
	parts := []string{
		"tags: " + tagText,
		"only problems: " + problems,
	}
	if f.SearchText != "" {
		parts = append(parts, fmt.Sprintf("search: %q", f.SearchText))
	}
	parts = append(parts,
		fmt.Sprintf("page %d/%d", f.Page, view.PageCount),
		fmt.Sprintf("%d triggers", view.Total),
	)
	return strings.Join(parts, " • ")
}

func (m Model) renderTriggerList(view listsync.ViewState) string {
	var b strings.Builder
	for i, t := range view.Triggers {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		name := t.Name
		if m.cursor == i {
			name = selectedStyle.Render(name)
		}
		line := fmt.Sprintf("%s %s %s", cursor, stateBadge(t.State()), name)
		if len(t.Tags) > 0 {
			line += " " + locationStyle.Render("["+strings.Join(t.Tags, ", ")+"]")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderTagPicker(view listsync.ViewState) string {
	var b strings.Builder
	for i, tag := range view.AllTags {
		cursor := " "
		if m.tagCursor == i {
			cursor = ">"
		}
		checkbox := "[ ]"
		if tags.Contains(view.Filters.Tags, tag) {
			checkbox = "[x]"
		}
		label := tag
		if tags.Contains(view.SubscribedTags, tag) {
			label = subStyle.Render(tag + " *")
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", cursor, checkbox, label))
	}
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s/%s page • %s problems • %s tags • %s clear tags • %s search • %s/%s back/forward • %s refresh • %s details • %s quit",
		k.Up, k.Down, k.PrevPage, k.NextPage, k.OnlyProblems, k.Tags, k.ClearTags, k.Search, k.Back, k.Forward, k.Refresh, k.Confirm, k.Quit)
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
