package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(10)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("69")).
			Padding(0, 1)
)

type field struct {
	label string
	value string
}

// card renders a titled box of label/value rows, skipping empty values.
func card(title string, fields ...field) string {
	rows := []string{titleStyle.Render(title)}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(f.label),
			valueStyle.Render(f.value),
		))
	}
	return cardStyle.Render(strings.Join(rows, "\n"))
}

func okf(format string, args ...any) string {
	return okStyle.Render(fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) string {
	return warnStyle.Render(fmt.Sprintf(format, args...))
}
