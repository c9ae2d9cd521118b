package tui

import (
	"github.com/charmbracelet/lipgloss"

	"nexusdesk/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	closedRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	draftStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")).Italic(true)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Bold(true)
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
)

func priorityStyle(p models.Priority) lipgloss.Style {
	switch p {
	case models.PriorityHigh:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Bold(true)
	case models.PriorityMedium:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA"))
	}
}

func sentimentIcon(s models.Sentiment) string {
	switch s {
	case models.SentimentPositive:
		return "😊"
	case models.SentimentNegative:
		return "😠"
	case models.SentimentNeutral:
		return "😐"
	default:
		return "  "
	}
}
