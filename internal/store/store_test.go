package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/typemeter/internal/metrics"
	"github.com/verte-zerg/typemeter/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "db", "typemeter.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	})
	return st
}

func testRecord(ended time.Time, lang string, wpm int, consistency *int) model.SessionRecord {
	return model.SessionRecord{
		StartedAt: ended.Add(-30 * time.Second),
		EndedAt:   ended,
		Mode:      model.ModeTime,
		Lang:      lang,
		Content:   model.ContentWords,
		TargetLen: 120,
		XP:        wpm,
		Result: metrics.Result{
			WPM:         wpm,
			Accuracy:    95,
			Errors:      3,
			Seconds:     30.25,
			CPM:         wpm * 5,
			Consistency: consistency,
			Keystrokes: metrics.KeystrokeStats{
				Total:     60,
				Correct:   57,
				Incorrect: 3,
				Extra:     2,
				KeyCounts: map[string]int{"A": 10, "B": 4},
				Misses:    map[string]int{"B": 2, ";": 1},
			},
			ErrorTypes: metrics.ErrorTypeCounts{Case: 1, Other: 2},
			Series: []metrics.Point{
				{X: 0, WPM: 0, Accuracy: 100},
				{X: 20, WPM: 48, Accuracy: 95},
				{X: 60, WPM: 50, Accuracy: 95},
			},
		},
	}
}

func TestInsertAndGetSession(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	cons := 81
	ended := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	id, err := st.InsertSession(ctx, testRecord(ended, "en", 50, &cons))
	if err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}

	rec, err := st.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if rec.UUID == "" {
		t.Fatalf("expected generated uuid")
	}
	if !rec.EndedAt.Equal(ended) || rec.Lang != "en" || rec.TargetLen != 120 {
		t.Fatalf("unexpected record header: %+v", rec)
	}
	r := rec.Result
	if r.WPM != 50 || r.Accuracy != 95 || r.Errors != 3 || r.Seconds != 30.25 || r.CPM != 250 {
		t.Fatalf("unexpected metrics: %+v", r)
	}
	if r.Consistency == nil || *r.Consistency != 81 {
		t.Fatalf("unexpected consistency: %v", r.Consistency)
	}
	if r.Keystrokes.Total != 60 || r.Keystrokes.Extra != 2 {
		t.Fatalf("unexpected keystrokes: %+v", r.Keystrokes)
	}
	if r.Keystrokes.KeyCounts["A"] != 10 || r.Keystrokes.Misses[";"] != 1 || len(r.Keystrokes.KeyCounts) != 2 {
		t.Fatalf("unexpected key maps: %+v", r.Keystrokes)
	}
	if r.ErrorTypes != (metrics.ErrorTypeCounts{Case: 1, Other: 2}) {
		t.Fatalf("unexpected error types: %+v", r.ErrorTypes)
	}
	if len(r.Series) != 3 || r.Series[2].X != 60 || r.Series[1].WPM != 48 {
		t.Fatalf("unexpected series: %+v", r.Series)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.GetSession(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.LastSession(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSessionsFilters(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, lang := range []string{"en", "de", "en", "en"} {
		if _, err := st.InsertSession(ctx, testRecord(base.Add(time.Duration(i)*time.Hour), lang, 40+i, nil)); err != nil {
			t.Fatalf("InsertSession failed: %v", err)
		}
	}

	all, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(all) != 4 || all[0].WPM != 40 || all[3].WPM != 43 {
		t.Fatalf("unexpected sessions: %+v", all)
	}
	if all[0].Consistency != nil || all[0].DurationMs != 30250 {
		t.Fatalf("unexpected aggregate: %+v", all[0])
	}

	en, err := st.ListSessions(ctx, model.StatsConfig{Lang: "en", Last: 2})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(en) != 2 || en[0].WPM != 42 || en[1].WPM != 43 {
		t.Fatalf("unexpected filtered sessions: %+v", en)
	}

	since := base.Add(90 * time.Minute)
	recent, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 sessions since cutoff, got %d", len(recent))
	}

	last, err := st.LastSession(ctx)
	if err != nil {
		t.Fatalf("LastSession failed: %v", err)
	}
	if last.Result.WPM != 43 {
		t.Fatalf("unexpected last session: %+v", last)
	}

	total, err := st.TotalXP(ctx)
	if err != nil {
		t.Fatalf("TotalXP failed: %v", err)
	}
	if total != 40+41+42+43 {
		t.Fatalf("unexpected total xp: %d", total)
	}
}

func TestKeyAggregates(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var ids []int64
	for i, lang := range []string{"en", "de", "en"} {
		id, err := st.InsertSession(ctx, testRecord(base.Add(time.Duration(i)*time.Hour), lang, 40, nil))
		if err != nil {
			t.Fatalf("InsertSession failed: %v", err)
		}
		ids = append(ids, id)
	}

	aggs, err := st.ListKeyAggregatesForSessions(ctx, ids)
	if err != nil {
		t.Fatalf("ListKeyAggregatesForSessions failed: %v", err)
	}
	want := []model.KeyAggregate{{Key: ";", Presses: 0, Misses: 3}, {Key: "A", Presses: 30}, {Key: "B", Presses: 12, Misses: 6}}
	if len(aggs) != len(want) {
		t.Fatalf("unexpected aggregates: %+v", aggs)
	}
	for i := range want {
		if aggs[i] != want[i] {
			t.Fatalf("aggregate %d: got %+v want %+v", i, aggs[i], want[i])
		}
	}

	weak, err := st.GetWeakKeys(ctx, 1, "en")
	if err != nil {
		t.Fatalf("GetWeakKeys failed: %v", err)
	}
	if len(weak) != 3 || weak[2].Misses != 2 {
		t.Fatalf("unexpected weak keys: %+v", weak)
	}

	perSession, err := st.ListKeyStatsForSessions(ctx, ids[:1], []string{"B"})
	if err != nil {
		t.Fatalf("ListKeyStatsForSessions failed: %v", err)
	}
	if perSession[ids[0]]["B"].Misses != 2 {
		t.Fatalf("unexpected per-session stats: %+v", perSession)
	}
}

func TestSessionsOrderedByInstantAcrossZones(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	east := time.FixedZone("east", 5*60*60)
	west := time.FixedZone("west", -5*60*60)
	ends := []time.Time{
		time.Date(2026, 3, 1, 15, 0, 0, 0, east), // 10:00:00 UTC
		time.Date(2026, 3, 1, 6, 0, 0, 0, west),  // 11:00:00 UTC
		time.Date(2026, 3, 1, 12, 0, 0, 500_000_000, time.UTC),
		time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC),
	}
	for i, ended := range ends {
		if _, err := st.InsertSession(ctx, testRecord(ended, "en", 40+i, nil)); err != nil {
			t.Fatalf("InsertSession failed: %v", err)
		}
	}

	sessions, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	for i, s := range sessions {
		if s.WPM != 40+i {
			t.Fatalf("session %d out of order: %+v", i, sessions)
		}
		if !s.EndedAt.Equal(ends[i]) {
			t.Fatalf("session %d ended at %v, want %v", i, s.EndedAt, ends[i])
		}
	}

	since := time.Date(2026, 3, 1, 7, 30, 0, 0, west) // 12:30 UTC
	recent, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected no sessions after %v, got %+v", since, recent)
	}

	last, err := st.LastSession(ctx)
	if err != nil {
		t.Fatalf("LastSession failed: %v", err)
	}
	if last.Result.WPM != 43 {
		t.Fatalf("expected latest session, got %+v", last.Result)
	}
}
