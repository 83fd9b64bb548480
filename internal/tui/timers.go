package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	tickInterval = time.Second
	sampleDelay  = 50 * time.Millisecond
)

// Timer messages carry the generation of the session that scheduled them so
// that timers outliving a restart are dropped.
type tickMsg struct {
	generation int
}

type sampleMsg struct {
	generation int
	seq        int
}

func tickCmd(generation int) tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{generation: generation}
	})
}

// sampleCmd debounces sampling; only the message matching the latest input seq samples.
func sampleCmd(generation, seq int) tea.Cmd {
	return tea.Tick(sampleDelay, func(time.Time) tea.Msg {
		return sampleMsg{generation: generation, seq: seq}
	})
}
