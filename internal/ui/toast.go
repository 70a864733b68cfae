package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ToastLevel selects a toast's icon and color.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastWarning
	ToastError
)

func (l ToastLevel) icon() string {
	switch l {
	case ToastSuccess:
		return "✓"
	case ToastWarning:
		return "!"
	case ToastError:
		return "✗"
	default:
		return "i"
	}
}

const (
	toastDuration = 3 * time.Second
	maxToasts     = 3
)

type toast struct {
	id    int
	level ToastLevel
	text  string
}

// pushToast shows a toast and schedules its removal after d.
//
// Only the newest toasts are kept on screen.
func (m *Model) pushToast(level ToastLevel, text string, d time.Duration) tea.Cmd {
	m.toastSeq++
	id := m.toastSeq

	m.toasts = append(m.toasts, toast{id: id, level: level, text: text})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}

	return tea.Tick(d, func(time.Time) tea.Msg {
		return toastExpiredMsg(id)
	})
}

func (m *Model) dropToast(id int) {
	for i, t := range m.toasts {
		if t.id == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}
