package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vaultbloom/vaultbloom/internal/model"
	"github.com/vaultbloom/vaultbloom/internal/presenter"
)

const (
	pageList   = "list"
	pageDetail = "detail"
	pageLock   = "lock"
)

// commandSurface is what the list page drives on the presenter.
type commandSurface interface {
	presenter.Dispatcher
	RequestSync()
}

// ListPage is the main item-list screen: filter bar, sort control, and
// the projected login rows.
type ListPage struct {
	st     *sharedState
	events *Events
	cmds   commandSurface
	keys   KeyMap

	filterInput textinput.Model
	filterFocus bool
	cursor      int
	sortOrder   model.SortOrder
}

// NewListPage builds the item-list page over the shared projection state.
func NewListPage(st *sharedState, events *Events, cmds commandSurface) *ListPage {
	ti := textinput.New()
	ti.Placeholder = "filter by hostname or username"
	ti.Prompt = "/ "
	ti.CharLimit = 128

	return &ListPage{
		st:          st,
		events:      events,
		cmds:        cmds,
		keys:        DefaultKeyMap(),
		filterInput: ti,
	}
}

func (p *ListPage) ID() string { return pageList }

func (p *ListPage) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, p.events.StartCmd())
}

func (p *ListPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	if handled, nav := p.st.apply(msg); handled {
		p.clampCursor()
		return tea.Batch(p.events.waitCmd(), p.spinnerTick()), nav
	}

	switch m := msg.(type) {
	case SpinnerTickMsg:
		return p.spinnerTick(), nil
	case tea.KeyMsg:
		return p.handleKey(m)
	}

	if p.filterFocus {
		var cmd tea.Cmd
		p.filterInput, cmd = p.filterInput.Update(msg)
		return cmd, nil
	}
	return nil, nil
}

func (p *ListPage) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	if key.Matches(msg, p.keys.ForceQuit) {
		return tea.Quit, nil
	}

	if p.filterFocus {
		return p.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, p.keys.Quit):
		return tea.Quit, nil
	case key.Matches(msg, p.keys.Filter):
		p.filterFocus = true
		p.filterInput.Focus()
		return textinput.Blink, nil
	case key.Matches(msg, p.keys.Escape):
		if p.filterInput.Value() != "" {
			p.filterInput.SetValue("")
			p.cmds.DispatchFilter("")
		}
		return nil, nil
	case key.Matches(msg, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
		return nil, nil
	case key.Matches(msg, p.keys.Down):
		if p.cursor < p.st.entryCount()-1 {
			p.cursor++
		}
		return nil, nil
	case key.Matches(msg, p.keys.Enter):
		if !p.st.listEnabled {
			return nil, nil
		}
		if row, ok := p.st.entryAt(p.cursor); ok {
			p.cmds.RequestDetail(row.ID)
		}
		return nil, nil
	case key.Matches(msg, p.keys.SortToggle):
		if !p.st.sortEnabled {
			return nil, nil
		}
		if p.sortOrder == model.SortAlphabetical {
			p.sortOrder = model.SortRecentlyUsed
		} else {
			p.sortOrder = model.SortAlphabetical
		}
		p.cmds.DispatchSort(p.sortOrder)
		return nil, nil
	case key.Matches(msg, p.keys.Sync):
		p.cmds.RequestSync()
		return nil, nil
	case key.Matches(msg, p.keys.Lock):
		p.cmds.RequestLock()
		return nil, nil
	}
	return nil, nil
}

func (p *ListPage) handleFilterKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	switch msg.String() {
	case "escape", "esc":
		p.filterFocus = false
		p.filterInput.Blur()
		p.filterInput.SetValue("")
		p.cmds.DispatchFilter("")
		return nil, nil
	case "enter":
		p.filterFocus = false
		p.filterInput.Blur()
		return nil, nil
	default:
		before := p.filterInput.Value()
		var cmd tea.Cmd
		p.filterInput, cmd = p.filterInput.Update(msg)
		if after := p.filterInput.Value(); after != before {
			p.cmds.DispatchFilter(after)
			p.cursor = 0
		}
		return cmd, nil
	}
}

func (p *ListPage) clampCursor() {
	if n := p.st.entryCount(); p.cursor >= n {
		p.cursor = max(0, n-1)
	}
}

func (p *ListPage) spinnerTick() tea.Cmd {
	if !p.st.hasPlaceholder() {
		return nil
	}
	return tea.Tick(120*time.Millisecond, func(_ time.Time) tea.Msg {
		return SpinnerTickMsg{}
	})
}

func (p *ListPage) View(width, height int) string {
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Vaultbloom"))
	b.WriteString("\n\n")

	entryIdx := 0
	for _, row := range p.st.rows {
		switch row.Kind {
		case model.RowSearchHeader:
			b.WriteString(p.renderHeader())
		case model.RowPlaceholder:
			b.WriteString(renderLoadingRow())
		case model.RowEntry:
			b.WriteString(p.renderEntry(row, entryIdx == p.cursor))
			entryIdx++
		}
		b.WriteString("\n")
	}

	if p.st.emptyState {
		b.WriteString("\n")
		b.WriteString(emptyStyle.Render("No logins yet. Press S to sync with your devices."))
		b.WriteString("\n")
	}

	body := b.String()
	status := p.renderStatusLine(width)

	gap := height - lipgloss.Height(body) - 1
	if gap > 0 {
		body += strings.Repeat("\n", gap)
	}
	return body + status
}

func (p *ListPage) renderHeader() string {
	line := p.filterInput.View()
	if p.st.showFilterCancel {
		line += "  " + headerStyle.Render("esc clears")
	}
	return line
}

func (p *ListPage) renderEntry(row model.DisplayRow, selected bool) string {
	line := fmt.Sprintf("  %s  %s", row.Title, usernameStyle.Render(row.Username))
	if !p.st.listEnabled {
		return disabledStyle.Render(line)
	}
	if selected {
		return selectedStyle.Render("▸" + line[1:])
	}
	return entryStyle.Render(line)
}

func (p *ListPage) renderStatusLine(width int) string {
	state := p.st.status.State.String()
	left := fmt.Sprintf(" %s %s", syncDot(state), state)
	if p.st.progress {
		left += "  " + noticeStyle.Render("syncing…")
	}

	sort := "sort: " + p.st.sortLabel
	if !p.st.sortEnabled {
		sort = disabledStyle.Render(sort)
	}

	var notice string
	if p.st.notice != "" {
		notice = "  " + errorStyle.Render(p.st.notice)
	}

	help := "/ filter · s sort · enter details · S sync · L lock · q quit"

	line := left + "  " + sort + notice + "  " + help
	if lipgloss.Width(line) < width {
		line += strings.Repeat(" ", width-lipgloss.Width(line))
	}
	return statusLineStyle.Render(line)
}
