package trace

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	session    lipgloss.Style
	detail     lipgloss.Style
	warning    lipgloss.Style
	ok         lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	kind       lipgloss.Style
	state      lipgloss.Style
	tool       lipgloss.Style
	customer   lipgloss.Style
	agent      lipgloss.Style
	barBracket lipgloss.Style
	barFill    lipgloss.Style
	barEmpty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		session:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		warning:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		ok:         lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		kind:       lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(19),
		state:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(18),
		tool:       lipgloss.NewStyle().Foreground(lipgloss.Color("180")),
		customer:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")),
		agent:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barFill:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
