package statsui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typemeter/internal/model"
	"github.com/verte-zerg/typemeter/internal/stats"
)

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func keyColumns() []table.Column {
	return []table.Column{
		{Title: "Key", Width: 8},
		{Title: "Miss Rate", Width: 10},
		{Title: "Presses", Width: 8},
		{Title: "Misses", Width: 7},
	}
}

func historyColumns() []table.Column {
	return []table.Column{
		{Title: "When", Width: 16},
		{Title: "Mode", Width: 6},
		{Title: "WPM", Width: 5},
		{Title: "Acc", Width: 5},
		{Title: "Cons", Width: 5},
		{Title: "Err", Width: 4},
		{Title: "Time", Width: 7},
		{Title: "XP", Width: 5},
	}
}

// keyRows lists keys worst first.
func keyRows(aggs []model.KeyAggregate) []table.Row {
	rows := make([]table.Row, 0, len(aggs))
	for _, r := range stats.KeyRows(aggs) {
		rows = append(rows, table.Row{
			stats.KeyLabel(r.Key),
			fmt.Sprintf("%.2f%%", r.MissRate*100),
			strconv.Itoa(r.Presses),
			strconv.Itoa(r.Misses),
		})
	}
	return rows
}

func historyRows(sessions []model.SessionAggregate) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		cons := "n/a"
		if s.Consistency != nil {
			cons = strconv.Itoa(*s.Consistency)
		}
		rows = append(rows, table.Row{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.Mode,
			strconv.Itoa(s.WPM),
			strconv.Itoa(s.Accuracy) + "%",
			cons,
			strconv.Itoa(s.Errors),
			fmt.Sprintf("%.1fs", float64(s.DurationMs)/1000),
			strconv.Itoa(s.XP),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}
