package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/typemeter/internal/metrics"
	"github.com/verte-zerg/typemeter/internal/model"
)

// ResultLines formats the headline metrics of a finished session.
func ResultLines(res metrics.Result) []string {
	cons := "n/a"
	if res.Consistency != nil {
		cons = fmt.Sprintf("%d%%", *res.Consistency)
	}
	ks := res.Keystrokes
	et := res.ErrorTypes
	return []string{
		fmt.Sprintf("WPM: %d   Accuracy: %d%%   Consistency: %s", res.WPM, res.Accuracy, cons),
		fmt.Sprintf("Time: %.1fs   CPM: %d   Errors: %d", res.Seconds, res.CPM, res.Errors),
		fmt.Sprintf("Keystrokes: %d total, %d correct, %d incorrect, %d deleted", ks.Total, ks.Correct, ks.Incorrect, ks.Extra),
		fmt.Sprintf("Error types (%d): punctuation %d, case %d, number %d, other %d", et.Total(), et.Punctuation, et.Case, et.Number, et.Other),
	}
}

// MostMissed lists up to n expected keys with the most misses, formatted as "key×count".
func MostMissed(res metrics.Result, n int) string {
	aggs := make([]model.KeyAggregate, 0, len(res.Keystrokes.Misses))
	for k, v := range res.Keystrokes.Misses {
		aggs = append(aggs, model.KeyAggregate{Key: k, Presses: v})
	}
	top := TopKeysByFrequency(aggs, n)
	parts := make([]string, len(top))
	for i, k := range top {
		parts[i] = fmt.Sprintf("%s×%d", KeyLabel(k), res.Keystrokes.Misses[k])
	}
	return strings.Join(parts, " ")
}

// RenderResult prints a stored session with its WPM and accuracy graph.
func RenderResult(w io.Writer, rec model.SessionRecord, totalWidth int, useColor bool) error {
	header := fmt.Sprintf("Session %d  %s  %s/%s  %s", rec.ID, rec.EndedAt.Local().Format("2006-01-02 15:04"), rec.Mode, rec.Content, rec.Lang)
	lines := append([]string{header}, ResultLines(rec.Result)...)
	if missed := MostMissed(rec.Result, 5); missed != "" {
		lines = append(lines, "Most missed: "+missed)
	}
	lines = append(lines, fmt.Sprintf("XP: +%d", rec.XP), "")
	if err := writeLines(w, lines); err != nil {
		return err
	}
	if len(rec.Result.Series) < 2 {
		return nil
	}
	chart := Chart{Title: "WPM / Accuracy", Height: 8, Color: useColor, Shared: true}
	if totalWidth > 0 {
		chart.Width = PlotWidthFor(totalWidth)
	}
	return chart.Render(w, SessionSeries(rec.Result.Series))
}
