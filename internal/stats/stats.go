// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/typemeter/internal/model"
	"github.com/verte-zerg/typemeter/internal/progress"
)

const sparkChars = " .:-=+*#%@"

// trendSessions is how many recent sessions the summary sparkline covers.
const trendSessions = 30

// Summary aggregates finished sessions.
type Summary struct {
	Sessions       int
	AvgWPM         float64
	BestWPM        int
	AvgAccuracy    float64
	AvgConsistency *float64
	TotalTime      time.Duration
	TotalXP        int
}

// Summarize folds session aggregates into a Summary. Sessions without a
// consistency value do not contribute to AvgConsistency.
func Summarize(sessions []model.SessionAggregate) Summary {
	sum := Summary{Sessions: len(sessions)}
	if len(sessions) == 0 {
		return sum
	}
	var totalWPM, totalAcc, totalCons float64
	consCount := 0
	for _, s := range sessions {
		totalWPM += float64(s.WPM)
		totalAcc += float64(s.Accuracy)
		if s.WPM > sum.BestWPM {
			sum.BestWPM = s.WPM
		}
		if s.Consistency != nil {
			totalCons += float64(*s.Consistency)
			consCount++
		}
		sum.TotalTime += time.Duration(s.DurationMs) * time.Millisecond
		sum.TotalXP += s.XP
	}
	count := float64(len(sessions))
	sum.AvgWPM = totalWPM / count
	sum.AvgAccuracy = totalAcc / count
	if consCount > 0 {
		avg := totalCons / float64(consCount)
		sum.AvgConsistency = &avg
	}
	return sum
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := bounds(values)
	if math.Abs(hi-lo) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		b.WriteByte(sparkChars[max(0, min(last, idx))])
	}
	return b.String()
}

// RenderSummary prints a summary block for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	sum := Summarize(sessions)
	cons := "n/a"
	if sum.AvgConsistency != nil {
		cons = fmt.Sprintf("%.1f%%", *sum.AvgConsistency)
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", sum.Sessions),
		fmt.Sprintf("Avg WPM: %.1f", sum.AvgWPM),
		fmt.Sprintf("Best WPM: %d", sum.BestWPM),
		fmt.Sprintf("WPM Trend: [%s]", Sparkline(recentWPM(sessions, trendSessions))),
		fmt.Sprintf("Avg Accuracy: %.1f%%", sum.AvgAccuracy),
		fmt.Sprintf("Avg Consistency: %s", cons),
		fmt.Sprintf("Time Typed: %s", sum.TotalTime.Round(time.Second)),
		fmt.Sprintf("XP: %d (level %d)", sum.TotalXP, progress.Level(sum.TotalXP)),
		"",
	}
	return writeLines(w, lines)
}

// RenderCurves prints learning curves for WPM and accuracy sized to a given total width.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	wpms := make([]float64, len(sessions))
	accs := make([]float64, len(sessions))
	for i, s := range sessions {
		wpms[i] = float64(s.WPM)
		accs[i] = float64(s.Accuracy)
	}
	chart := Chart{Title: "Learning Curves", Height: height, Color: useColor}
	if totalWidth > 0 {
		chart.Width = PlotWidthFor(totalWidth)
	}
	return chart.Render(w, []Series{
		{Name: "WPM", Values: MovingAverage(wpms, window)},
		{Name: "Accuracy", Values: MovingAverage(accs, window)},
	})
}

// KeyRow is a rendered row of per-key statistics.
type KeyRow struct {
	Key      string
	Presses  int
	Misses   int
	MissRate float64
}

// KeyRows converts aggregates into rows sorted by descending miss rate.
func KeyRows(aggs []model.KeyAggregate) []KeyRow {
	rows := make([]KeyRow, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, KeyRow{
			Key:      agg.Key,
			Presses:  agg.Presses,
			Misses:   agg.Misses,
			MissRate: missRate(agg),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].MissRate == rows[j].MissRate {
			return rows[i].Key < rows[j].Key
		}
		return rows[i].MissRate > rows[j].MissRate
	})
	return rows
}

// KeyLabel makes whitespace keys visible.
func KeyLabel(key string) string {
	switch key {
	case " ":
		return "<space>"
	case "\t":
		return "<tab>"
	}
	return key
}

// RenderKeyTable prints per-key aggregates.
func RenderKeyTable(w io.Writer, aggs []model.KeyAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No key stats found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Per-Key (Windowed)"); err != nil {
		return err
	}
	headers := []string{"Key", "Miss Rate", "Presses", "Misses"}
	rows := KeyRows(aggs)
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			KeyLabel(r.Key),
			fmt.Sprintf("%.2f%%", r.MissRate*100),
			fmt.Sprintf("%d", r.Presses),
			fmt.Sprintf("%d", r.Misses),
		})
	}
	lines := formatTable(headers, tableRows, map[int]bool{1: true, 2: true, 3: true})
	return writeLines(w, append(lines, ""))
}

// RenderKeyCurves prints per-key miss rate curves.
func RenderKeyCurves(w io.Writer, sessions []model.SessionAggregate, perSession map[int64]map[string]model.KeyAggregate, keys []string, window, totalWidth, height int, useColor bool) error {
	if len(keys) == 0 || len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Key Curves"); err != nil {
		return err
	}
	chart := Chart{Height: height, Color: useColor}
	if totalWidth > 0 {
		chart.Width = PlotWidthFor(totalWidth)
	}
	for _, key := range keys {
		rates := make([]float64, len(sessions))
		presses := make([]float64, len(sessions))
		for i, s := range sessions {
			if agg, ok := perSession[s.SessionID][key]; ok {
				rates[i] = missRate(agg) * 100
				presses[i] = float64(agg.Presses)
			}
		}
		chart.Title = "Key " + KeyLabel(key)
		if err := chart.Render(w, []Series{
			{Name: "Miss %", Values: MovingAverage(rates, window)},
			{Name: "Presses", Values: MovingAverage(presses, window)},
		}); err != nil {
			return err
		}
	}
	return nil
}

func recentWPM(sessions []model.SessionAggregate, n int) []float64 {
	if len(sessions) > n {
		sessions = sessions[len(sessions)-n:]
	}
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = float64(s.WPM)
	}
	return out
}

func missRate(agg model.KeyAggregate) float64 {
	attempts := agg.Presses + agg.Misses
	if attempts == 0 {
		return 0
	}
	return float64(agg.Misses) / float64(attempts)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
