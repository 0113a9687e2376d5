package main

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#7a8699")
	colorWarning = lipgloss.Color("#FFC107")
	colorBorder  = lipgloss.Color("#2a3850")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(20)

	valueStyle = lipgloss.NewStyle().Bold(true)

	warnStyle = lipgloss.NewStyle().Foreground(colorWarning)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}
