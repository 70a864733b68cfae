package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF4672", "#FFA500", "#626262", "#3B82F6")

// Palette is a small stylesheet of named [lipgloss.Style] fields.
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	info   lipgloss.Style
	output lipgloss.Style
	toast  lipgloss.Style
}

// NewPalette builds a palette from title, success, error, warning, help and info colors.
func NewPalette(t, s, e, w, h, i string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		info:   NewStyle(i),
		output: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(h)).Padding(0, 1),
		toast:  lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder(), false, false, false, true),
	}
}

// Toast returns the style for a toast of the given level.
func (p *Palette) Toast(level ToastLevel) lipgloss.Style {
	switch level {
	case ToastSuccess:
		return p.toast.BorderForeground(p.ok.GetForeground()).Foreground(p.ok.GetForeground())
	case ToastError:
		return p.toast.BorderForeground(p.err.GetForeground()).Foreground(p.err.GetForeground())
	case ToastWarning:
		return p.toast.BorderForeground(p.warn.GetForeground()).Foreground(p.warn.GetForeground())
	default:
		return p.toast.BorderForeground(p.info.GetForeground()).Foreground(p.info.GetForeground())
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
