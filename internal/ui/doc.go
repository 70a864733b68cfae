// Package ui implements the terminal watcher using bubbletea's Elm architecture.
//
// The watcher runs a [Runner] in the background and renders what it reports:
//   - a spinner with the current step while work is in flight (the loader)
//   - a scrolling viewport with streamed analysis output
//   - short-lived toasts for milestones and failures
//
// [StreamRunner] follows a single job's analysis stream; [PipelineRunner] drives a full [tasks.Pipeline] run.
// Both report through [tasks.ProgressUpdate] values carried by the Msg union type.
//
// Scrolling uses vim-style bindings (j/k, b/space) with contextual help from charmbracelet/bubbles/help.
package ui
