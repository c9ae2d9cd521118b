package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nexusdesk/models"
)

func (m Model) View() string {
	msgs := m.store.Messages()
	activeID, _ := m.store.ActiveID()

	width := m.width
	if width <= 0 {
		width = 100
	}
	listWidth := width * 2 / 5
	detailWidth := width - listWidth - 4

	header := titleStyle.Render("Nexus Desk") + "  " + m.summary(msgs)

	list := paneStyle.Width(listWidth).Render(m.renderList(msgs, activeID, listWidth))
	detail := paneStyle.Width(detailWidth).Render(m.renderDetail(detailWidth))
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, detail)

	status := okStyle.Render(m.status)
	if m.statusErr {
		status = errorStyle.Render(m.status)
	}
	help := helpStyle.Render(fmt.Sprintf("tone: %s • j/k move • a draft • t tone • s send • r refresh • q quit", m.Tone()))

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status, help)
}

func (m Model) summary(msgs []models.Message) string {
	open := 0
	for _, msg := range msgs {
		if msg.IsOpen() {
			open++
		}
	}
	s := labelStyle.Render(fmt.Sprintf("%d open / %d total", open, len(msgs)))
	if m.store.LoadingAI() {
		s += "  " + m.spinner.View() + " AI working"
	}
	return s
}

func (m Model) renderList(msgs []models.Message, activeID uint, width int) string {
	if len(msgs) == 0 {
		return labelStyle.Render("Inbox is empty")
	}

	var b strings.Builder
	for _, msg := range msgs {
		marker := "  "
		if msg.ID == activeID {
			marker = "▸ "
		}

		busy := " "
		if msg.IsGenerating || msg.IsSending {
			busy = m.spinner.View()
		}

		line := fmt.Sprintf("%s%s %s %-18s %s", marker, busy, sentimentIcon(msg.Sentiment), truncate(msg.Customer, 18), platformTag(msg.Platform))
		if msg.Priority != "" {
			line += " " + priorityStyle(msg.Priority).Render(string(msg.Priority))
		}
		line = truncate(line, width+20)

		switch {
		case !msg.IsOpen():
			line = closedRowStyle.Render(line)
		case msg.ID == activeID:
			line = activeRowStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderDetail(width int) string {
	msg, ok := m.store.ActiveMessage()
	if !ok {
		return labelStyle.Render("No message selected")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", lipgloss.NewStyle().Bold(true).Render(msg.Customer), labelStyle.Render(string(msg.Platform)+" • "+msg.Timestamp))
	if msg.Contact != "" {
		b.WriteString(labelStyle.Render(msg.Contact) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Render(msg.Text))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n",
		labelStyle.Render("sentiment"), orDash(string(msg.Sentiment)),
		labelStyle.Render("priority"), priorityStyle(msg.Priority).Render(orDash(string(msg.Priority))),
		labelStyle.Render("status"), msg.Status)
	b.WriteString("\n")

	switch {
	case msg.IsGenerating:
		b.WriteString(m.spinner.View() + " Drafting reply...")
	case msg.IsSending:
		b.WriteString(m.spinner.View() + " Sending...")
	case msg.Reply != "":
		b.WriteString(labelStyle.Render("Draft reply") + "\n")
		b.WriteString(draftStyle.Width(width).Render(msg.Reply))
	case msg.IsOpen():
		b.WriteString(labelStyle.Render("No draft yet. Press a to draft one."))
	default:
		b.WriteString(okStyle.Render("✓ Replied"))
	}
	return b.String()
}

func platformTag(p models.Platform) string {
	switch p {
	case models.PlatformEmail:
		return "[mail]"
	case models.PlatformWhatsApp:
		return "[wa]  "
	case models.PlatformMessenger:
		return "[msgr]"
	default:
		return "[" + strings.ToLower(truncate(string(p), 4)) + "]"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
