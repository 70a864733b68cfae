package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/autodev/internal/tasks"
)

// MsgKind enumerates all message types in the watcher.
type MsgKind int

// Msg represents all possible watcher messages (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgress MsgKind = iota
	MsgFinished
	MsgToastExpired
)

type finished struct {
	summary string
	err     error
}

// progressMsg is the constructor for [MsgProgress]
func progressMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgress, data: update}
}

// finishedMsg is the constructor for [MsgFinished]
func finishedMsg(summary string, err error) Msg {
	return Msg{kind: MsgFinished, data: finished{summary, err}}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]
func toastExpiredMsg(id int) Msg {
	return Msg{kind: MsgToastExpired, data: id}
}
