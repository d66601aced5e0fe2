package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
	dim   lipgloss.Style
}

// newStyles binds styles to w so color is only emitted on terminals.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().Bold(true),
		ok:    r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("3")),
		err:   r.NewStyle().Foreground(lipgloss.Color("1")),
		dim:   r.NewStyle().Faint(true),
	}
}
