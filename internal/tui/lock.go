package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// vaultControls is what the lock page needs from the data store.
type vaultControls interface {
	Unlock(secret string) error
	Refresh()
}

// LockPage is the unlock prompt shown while the vault is locked.
type LockPage struct {
	st     *sharedState
	events *Events
	vault  vaultControls

	input  textinput.Model
	notice string
}

// NewLockPage builds the lock screen.
func NewLockPage(st *sharedState, events *Events, vault vaultControls) *LockPage {
	ti := textinput.New()
	ti.Placeholder = "master password"
	ti.Prompt = "> "
	ti.EchoMode = textinput.EchoPassword
	ti.CharLimit = 256

	return &LockPage{
		st:     st,
		events: events,
		vault:  vault,
		input:  ti,
	}
}

func (p *LockPage) ID() string { return pageLock }

func (p *LockPage) Init() tea.Cmd {
	p.input.SetValue("")
	p.notice = ""
	p.input.Focus()
	return textinput.Blink
}

func (p *LockPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	if handled, nav := p.st.apply(msg); handled {
		if nav != nil && nav.PageID == pageLock {
			nav = nil
		}
		return p.events.waitCmd(), nav
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return cmd, nil
	}

	switch keyMsg.String() {
	case "ctrl+c":
		return tea.Quit, nil
	case "enter":
		secret := p.input.Value()
		if secret == "" {
			p.notice = "enter your master password"
			return nil, nil
		}
		if err := p.vault.Unlock(secret); err != nil {
			p.notice = err.Error()
			p.input.SetValue("")
			return nil, nil
		}
		p.vault.Refresh()
		return nil, &PageNav{PageID: pageList}
	default:
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(keyMsg)
		return cmd, nil
	}
}

func (p *LockPage) View(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Vault locked"))
	b.WriteString("\n\n")
	b.WriteString(p.input.View())
	b.WriteString("\n")
	if p.notice != "" {
		b.WriteString("\n" + errorStyle.Render(p.notice) + "\n")
	}
	text := b.String()
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, text)
}
