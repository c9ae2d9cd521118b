// Package tui is the terminal triage screen on top of store.Store.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"nexusdesk/client"
	"nexusdesk/store"
)

var DefaultTones = []string{"Professional", "Friendly", "Empathetic", "Concise"}

type changedMsg struct{}

type fetchedMsg struct{ err error }

type actionDoneMsg struct {
	verb     string
	id       uint
	customer string
	err      error
}

type Model struct {
	store   *store.Store
	ctx     context.Context
	timeout time.Duration
	changes chan struct{}

	tones   []string
	toneIdx int
	spinner spinner.Model

	status    string
	statusErr bool
	width     int
	height    int
}

// New builds the screen. The store must not have other change listeners
// that block.
func New(ctx context.Context, s *store.Store, tones []string, initialTone string, timeout time.Duration) Model {
	if len(tones) == 0 {
		tones = DefaultTones
	}
	toneIdx := 0
	for i, t := range tones {
		if t == initialTone {
			toneIdx = i
		}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	changes := make(chan struct{}, 1)
	s.OnChange(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	return Model{
		store:   s,
		ctx:     ctx,
		timeout: timeout,
		changes: changes,
		tones:   tones,
		toneIdx: toneIdx,
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.waitForChange(), m.spinner.Tick)
}

func (m Model) Tone() string {
	return m.tones[m.toneIdx]
}

func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return changedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		return fetchedMsg{err: m.store.Fetch(ctx)}
	}
}

func (m Model) analyze(id uint, customer, tone string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		return actionDoneMsg{verb: "analyze", id: id, customer: customer, err: m.store.Analyze(ctx, id, tone)}
	}
}

func (m Model) send(id uint, customer string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()
		return actionDoneMsg{verb: "send", id: id, customer: customer, err: m.store.Send(ctx, id)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case changedMsg:
		return m, m.waitForChange()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fetchedMsg:
		if msg.err != nil {
			m.setError("Could not load inbox", msg.err)
		} else {
			m.setStatus(fmt.Sprintf("Loaded %d messages", len(m.store.Messages())))
		}
		return m, nil

	case actionDoneMsg:
		m.handleActionDone(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	case "t":
		m.toneIdx = (m.toneIdx + 1) % len(m.tones)
		m.setStatus("Tone: " + m.Tone())
	case "r":
		m.setStatus("Refreshing...")
		return m, m.fetch()
	case "a":
		active, ok := m.store.ActiveMessage()
		if !ok {
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Drafting a %s reply for %s...", m.Tone(), active.Customer))
		return m, m.analyze(active.ID, active.Customer, m.Tone())
	case "s":
		active, ok := m.store.ActiveMessage()
		if !ok {
			return m, nil
		}
		if active.Reply == "" {
			m.setError("Nothing to send", errors.New("draft a reply first (a)"))
			return m, nil
		}
		m.setStatus("Sending reply to " + active.Customer + "...")
		return m, m.send(active.ID, active.Customer)
	}
	return m, nil
}

func (m *Model) moveSelection(delta int) {
	msgs := m.store.Messages()
	if len(msgs) == 0 {
		return
	}
	current, _ := m.store.ActiveID()
	idx := 0
	for i, msg := range msgs {
		if msg.ID == current {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(msgs) {
		idx = len(msgs) - 1
	}
	m.store.SelectActive(msgs[idx].ID)
}

func (m *Model) handleActionDone(msg actionDoneMsg) {
	if msg.err == nil {
		if msg.verb == "send" {
			m.setStatus("Reply sent to " + msg.customer)
		} else {
			m.setStatus("Draft ready for " + msg.customer)
		}
		return
	}

	var apiErr *client.APIError
	switch {
	case errors.Is(msg.err, store.ErrBusy):
		m.setError(msg.customer+" is still busy", nil)
	case msg.verb == "send":
		m.setError("Send failed, reply restored", msg.err)
	case errors.As(msg.err, &apiErr) && apiErr.Message != "":
		m.setError("Analysis failed: "+apiErr.Message, nil)
	default:
		m.setError("Analysis failed", msg.err)
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string, err error) {
	if err != nil {
		s = fmt.Sprintf("%s: %v", s, err)
	}
	m.status = s
	m.statusErr = true
}
