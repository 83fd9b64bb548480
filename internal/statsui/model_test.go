package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typemeter/internal/metrics"
	"github.com/verte-zerg/typemeter/internal/model"
	"github.com/verte-zerg/typemeter/internal/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "typemeter.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	cons := 88
	for i := 0; i < 3; i++ {
		ended := time.Date(2026, 4, 1, 9, i, 0, 0, time.UTC)
		_, err := st.InsertSession(context.Background(), model.SessionRecord{
			StartedAt: ended.Add(-30 * time.Second),
			EndedAt:   ended,
			Mode:      model.ModeTime,
			Lang:      "en",
			Content:   model.ContentWords,
			XP:        40,
			Result: metrics.Result{
				WPM:         50 + i,
				Accuracy:    96,
				Seconds:     30,
				Consistency: &cons,
				Keystrokes: metrics.KeystrokeStats{
					KeyCounts: map[string]int{"Q": 2, "E": 9},
					Misses:    map[string]int{"Q": 1},
				},
			},
		})
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}
	return st
}

func TestStatsModelTabs(t *testing.T) {
	m := NewModel(seededStore(t), model.StatsConfig{CurveWindow: 2})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	view := m.View()
	for _, want := range []string{"Overview", "Sessions", "Best WPM", "Learning Curves", "window=2"} {
		if !strings.Contains(view, want) {
			t.Fatalf("overview missing %q:\n%s", want, view)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabKeys {
		t.Fatalf("expected keys tab, got %d", m.activeTab)
	}
	view = m.View()
	if !strings.Contains(view, "Miss Rate") || !strings.Contains(view, "33.33%") {
		t.Fatalf("keys tab missing rows:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !strings.Contains(m.View(), "Most pressed: E, Q") {
		t.Fatalf("key curves tab missing header:\n%s", m.View())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if view := m.View(); !strings.Contains(view, "time") || !strings.Contains(view, "88") {
		t.Fatalf("history tab missing sessions:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabOverview {
		t.Fatalf("expected tabs to wrap around")
	}
}

func TestStatsModelFilterForm(t *testing.T) {
	m := NewModel(seededStore(t), model.StatsConfig{CurveWindow: 1})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filter.active {
		t.Fatalf("expected filter form to open")
	}
	m.filter.inputs[fieldLast].SetValue("2")
	m.filter.inputs[fieldMode].SetValue("time")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filter.active {
		t.Fatalf("expected filter form to close: %s", m.filter.err)
	}
	if m.cfg.Last != 2 || m.cfg.Mode != model.ModeTime || len(m.report.Sessions) != 2 {
		t.Fatalf("unexpected filter result: cfg=%+v sessions=%d", m.cfg, len(m.report.Sessions))
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m.filter.inputs[fieldSince].SetValue("yesterday")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filter.active || !strings.Contains(m.filter.err, "since") {
		t.Fatalf("expected validation error, got %q", m.filter.err)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filter.active {
		t.Fatalf("expected esc to close the form")
	}
}

func TestFilterFormParse(t *testing.T) {
	f := newFilterForm()
	f.open(model.StatsConfig{Lang: "de", Last: 4, CurveWindow: 3})
	cfg, err := f.parse()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.Lang != "de" || cfg.Last != 4 || cfg.CurveWindow != 3 || cfg.Since != nil {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	f.inputs[fieldMode].SetValue("marathon")
	if _, err := f.parse(); err == nil {
		t.Fatalf("expected mode validation error")
	}
	f.inputs[fieldMode].SetValue("")
	f.inputs[fieldWindow].SetValue("0")
	if _, err := f.parse(); err == nil {
		t.Fatalf("expected window validation error")
	}
}

func TestCurveWindowSteps(t *testing.T) {
	cases := []struct{ in, next, prev int }{
		{1, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{10, 15, 5},
	}
	for _, tc := range cases {
		if got := nextCurveWindow(tc.in); got != tc.next {
			t.Fatalf("next(%d) = %d, want %d", tc.in, got, tc.next)
		}
		if got := prevCurveWindow(tc.in); got != tc.prev {
			t.Fatalf("prev(%d) = %d, want %d", tc.in, got, tc.prev)
		}
	}
}

func TestFitLines(t *testing.T) {
	got := fitLines("ab\ncd\nef", 3, 2)
	if got != "ab \ncd " {
		t.Fatalf("unexpected fit: %q", got)
	}
	if truncateLine("abcdefgh", 6) != "abc..." {
		t.Fatalf("unexpected truncation")
	}
}
