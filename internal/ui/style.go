package ui

import "github.com/charmbracelet/lipgloss"

var (
	Gray   = lipgloss.Color("241")
	Accent = lipgloss.Color("#6ea4ff")
)

var Title = lipgloss.NewStyle().Inline(true).Bold(true).Foreground(lipgloss.Color("252")).Render
var Help = lipgloss.NewStyle().Inline(true).Foreground(Gray).Render
var Section = lipgloss.NewStyle().Bold(true).Foreground(Accent).Render
var Label = lipgloss.NewStyle().Foreground(Gray).Width(24).Render
var Ok = lipgloss.NewStyle().Inline(true).Bold(true).Foreground(lipgloss.Color("70")).Render
var Failed = lipgloss.NewStyle().Inline(true).Bold(true).Foreground(lipgloss.Color("203")).Render
