package statsui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typemeter/internal/model"
)

const (
	fieldLang = iota
	fieldMode
	fieldSince
	fieldLast
	fieldWindow
)

type filterForm struct {
	active bool
	inputs []textinput.Model
	index  int
	err    string
}

func newFilterForm() filterForm {
	prompts := []string{"Lang: ", "Mode (time/words/text): ", "Since (YYYY-MM-DD): ", "Last: ", "Curve window: "}
	inputs := make([]textinput.Model, len(prompts))
	for i, p := range prompts {
		input := textinput.New()
		input.Prompt = p
		input.Cursor.SetMode(cursor.CursorBlink)
		inputs[i] = input
	}
	return filterForm{inputs: inputs}
}

func (f *filterForm) open(cfg model.StatsConfig) tea.Cmd {
	f.active = true
	f.err = ""
	f.inputs[fieldLang].SetValue(cfg.Lang)
	f.inputs[fieldMode].SetValue(cfg.Mode)
	f.inputs[fieldSince].SetValue(sinceValue(cfg))
	last := ""
	if cfg.Last > 0 {
		last = strconv.Itoa(cfg.Last)
	}
	f.inputs[fieldLast].SetValue(last)
	f.inputs[fieldWindow].SetValue(strconv.Itoa(cfg.CurveWindow))
	return f.focus(0)
}

func (f *filterForm) close() {
	f.active = false
	f.err = ""
}

func (f *filterForm) setWidth(width int) {
	for i := range f.inputs {
		f.inputs[i].Width = max(10, width-lipgloss.Width(f.inputs[i].Prompt)-2)
	}
}

func (f *filterForm) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		return f.focus(f.index + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return f.focus(f.index - 1)
	}
	var cmd tea.Cmd
	f.inputs[f.index], cmd = f.inputs[f.index].Update(msg)
	return cmd
}

func (f *filterForm) focus(idx int) tea.Cmd {
	n := len(f.inputs)
	f.index = (idx + n) % n
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.index {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

func (f *filterForm) view() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range f.inputs {
		lines = append(lines, input.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}

// parse validates the form into a stats config.
func (f *filterForm) parse() (model.StatsConfig, error) {
	value := func(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }
	cfg := model.StatsConfig{Lang: value(fieldLang), Mode: value(fieldMode)}

	switch cfg.Mode {
	case "", model.ModeTime, model.ModeWords, model.ModeText:
	default:
		return cfg, errors.New("invalid mode (use time, words or text)")
	}
	if raw := value(fieldSince); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return cfg, errors.New("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &parsed
	}
	if raw := value(fieldLast); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return cfg, errors.New("invalid last value (use 0 or positive integer)")
		}
		cfg.Last = parsed
	}
	cfg.CurveWindow = 1
	if raw := value(fieldWindow); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return cfg, errors.New("invalid curve window (use integer >= 1)")
		}
		cfg.CurveWindow = parsed
	}
	return cfg, nil
}

func sinceValue(cfg model.StatsConfig) string {
	if cfg.Since == nil {
		return ""
	}
	return cfg.Since.Format("2006-01-02")
}
