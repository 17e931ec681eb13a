package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/sahid-app/sah/internal/events"
	"github.com/sahid-app/sah/internal/models"
)

var (
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	approvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	paidStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// statusBadge renders an agreement status, colored on a TTY.
func statusBadge(status models.Status) string {
	text := string(status)
	if !hasTTY() {
		return text
	}
	switch status {
	case models.StatusPending:
		return pendingStyle.Render(text)
	case models.StatusApproved:
		return approvedStyle.Render(text)
	case models.StatusPaid:
		return paidStyle.Render(text)
	}
	return text
}

// renderToast formats a published event as a one-line notification.
func renderToast(event *events.Event) string {
	prefix := "•"
	line := fmt.Sprintf("%s %s", prefix, event.Message)
	if !hasTTY() {
		return line
	}
	switch event.Level {
	case events.LevelSuccess:
		return successStyle.Render(line)
	case events.LevelError:
		return errorStyle.Render(line)
	default:
		return infoStyle.Render(line)
	}
}

// label renders a dimmed field label for detail views.
func label(text string) string {
	if !hasTTY() {
		return text
	}
	return labelStyle.Render(text)
}
