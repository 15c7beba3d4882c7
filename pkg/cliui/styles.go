package cliui

import "github.com/charmbracelet/lipgloss"

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	NameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	IDStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	WarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	ErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	UserPromptStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	AssistantPromptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	ThinkingStyle        = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("243"))
)
