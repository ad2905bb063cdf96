package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vaultbloom/vaultbloom/internal/model"
	"github.com/vaultbloom/vaultbloom/internal/projection"
)

// DetailPage shows a single login record.
type DetailPage struct {
	st     *sharedState
	events *Events
	keys   KeyMap

	record model.LoginRecord
	notice string
}

// NewDetailPage builds the detail page. The record arrives via PageNav
// params when the list page requests it.
func NewDetailPage(st *sharedState, events *Events) *DetailPage {
	return &DetailPage{
		st:     st,
		events: events,
		keys:   DefaultKeyMap(),
	}
}

func (p *DetailPage) ID() string { return pageDetail }

// SetParams receives the record to display.
func (p *DetailPage) SetParams(params interface{}) {
	if rec, ok := params.(model.LoginRecord); ok {
		p.record = rec
		p.notice = ""
	}
}

func (p *DetailPage) Init() tea.Cmd { return nil }

func (p *DetailPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	if handled, nav := p.st.apply(msg); handled {
		if nav != nil && nav.PageID == pageDetail {
			// Already here; apply the params directly.
			p.SetParams(nav.Params)
			nav = nil
		}
		return p.events.waitCmd(), nav
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, nil
	}

	switch {
	case key.Matches(keyMsg, p.keys.ForceQuit):
		return tea.Quit, nil
	case key.Matches(keyMsg, p.keys.Quit):
		return tea.Quit, nil
	case key.Matches(keyMsg, p.keys.Escape):
		return nil, &PageNav{PageID: pageList}
	case key.Matches(keyMsg, p.keys.CopyUsername):
		if p.record.Username == "" {
			p.notice = "no username to copy"
			return nil, nil
		}
		if err := clipboard.WriteAll(p.record.Username); err != nil {
			p.notice = fmt.Sprintf("copy failed: %v", err)
		} else {
			p.notice = "username copied"
		}
		return nil, nil
	}
	return nil, nil
}

func (p *DetailPage) View(width, height int) string {
	title := projection.NormalizeHostname(p.record.Hostname)
	if title == "" {
		title = "(no hostname)"
	}

	username := p.record.Username
	if username == "" {
		username = model.UsernamePlaceholder
	}

	lastUsed := "never"
	if !p.record.LastUsedAt.IsZero() {
		lastUsed = p.record.LastUsedAt.Local().Format("2006-01-02 15:04")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render("hostname  ") + entryStyle.Render(p.record.Hostname) + "\n")
	b.WriteString(headerStyle.Render("username  ") + entryStyle.Render(username) + "\n")
	b.WriteString(headerStyle.Render("last used ") + entryStyle.Render(lastUsed) + "\n")

	if p.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(p.notice) + "\n")
	}

	body := b.String()
	status := statusLineStyle.Render(" u copy username · esc back · q quit")
	gap := height - lipgloss.Height(body) - 1
	if gap > 0 {
		body += strings.Repeat("\n", gap)
	}
	if width > lipgloss.Width(status) {
		status += statusLineStyle.Render(strings.Repeat(" ", width-lipgloss.Width(status)))
	}
	return body + status
}
