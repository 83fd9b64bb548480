// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typemeter/internal/model"
	"github.com/verte-zerg/typemeter/internal/progress"
	"github.com/verte-zerg/typemeter/internal/stats"
	"github.com/verte-zerg/typemeter/internal/store"
)

const (
	tabOverview = iota
	tabKeys
	tabKeyCurves
	tabHistory
)

const (
	plotHeight    = 10
	curveKeyCount = 5
	fallbackWidth = 80
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	report     stats.Report
	keyCurves  map[int64]map[string]model.KeyAggregate
	curveKeys  []string
	errMsg     string
	curveError string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	keyTable  table.Model
	history   table.Model

	width  int
	height int

	filter filterForm
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store:    st,
		cfg:      cfg,
		tabs:     []string{"Overview", "Keys", "Key Curves", "History"},
		keyTable: newTable(keyColumns()),
		history:  newTable(historyColumns()),
		filter:   newFilterForm(),
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filter.active {
			return m, m.updateFilter(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "=":
		m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
		m.refreshReport()
		return m, nil
	case "-":
		m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
		m.refreshReport()
		return m, nil
	case "/":
		return m, m.filter.open(m.cfg)
	}
	var cmd tea.Cmd
	switch m.activeTab {
	case tabKeys:
		m.keyTable, cmd = m.keyTable.Update(msg)
	case tabHistory:
		m.history, cmd = m.history.Update(msg)
	default:
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
	}
	return m, cmd
}

func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.filter.close()
		return nil
	case tea.KeyEnter:
		cfg, err := m.filter.parse()
		if err != nil {
			m.filter.err = err.Error()
			return nil
		}
		m.filter.close()
		m.cfg = cfg
		m.refreshReport()
		return nil
	}
	return m.filter.update(msg)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderTabs()+"\n"+m.renderFilterSummary(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(lipgloss.Height(activeNavStyle.Render("X")), 1) + 1
	footerHeight = 1
	if !m.filter.active && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	for _, t := range []*table.Model{&m.keyTable, &m.history} {
		t.SetWidth(m.width)
		t.SetHeight(max(bodyHeight-1, 1))
	}
	m.filter.setWidth(m.width)
}

func (m *Model) moveTab(delta int) {
	m.activeTab = (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	m.keyTable.Blur()
	m.history.Blur()
	switch m.activeTab {
	case tabKeys:
		m.keyTable.Focus()
	case tabHistory:
		m.history.Focus()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, len(m.tabs))
	for i, tab := range m.tabs {
		style := inactiveNavStyle
		if i == m.activeTab {
			style = activeNavStyle
		}
		parts[i] = style.Render(tab)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderFilterSummary() string {
	summary := fmt.Sprintf("Settings: lang=%s  mode=%s  since=%s  last=%s  window=%d",
		orDefault(m.cfg.Lang, "any"), orDefault(m.cfg.Mode, "any"), sinceLabel(m.cfg), lastLabel(m.cfg), m.cfg.CurveWindow)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filter.active {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody() string {
	if m.filter.active {
		return m.filter.view()
	}
	switch m.activeTab {
	case tabKeys:
		if len(m.report.KeyAggsAll) == 0 {
			return "No key stats found."
		}
		return tableMutedStyle.Render(m.keyTable.View())
	case tabHistory:
		if len(m.report.Sessions) == 0 {
			return "No sessions found."
		}
		return tableMutedStyle.Render(m.history.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.loadKeyCurves()
	m.keyTable.SetRows(keyRows(report.KeyAggsAll))
	m.history.SetRows(historyRows(report.Sessions))
	m.history.GotoBottom()
	m.updateLayout()
	m.renderTabContents()
}

func (m *Model) loadKeyCurves() {
	m.curveError = ""
	m.keyCurves = nil
	m.curveKeys = stats.TopKeysByFrequency(m.report.KeyAggsAll, curveKeyCount)
	if len(m.report.Sessions) == 0 || len(m.curveKeys) == 0 {
		return
	}
	ids := make([]int64, len(m.report.Sessions))
	for i, s := range m.report.Sessions {
		ids[i] = s.SessionID
	}
	perSession, err := m.store.ListKeyStatsForSessions(context.Background(), ids, m.curveKeys)
	if err != nil {
		m.curveError = err.Error()
		return
	}
	m.keyCurves = perSession
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = fallbackWidth
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.cfg.CurveWindow, width))
	m.viewports[tabKeyCurves].SetContent(m.renderKeyCurves(width))
}

func renderOverview(report stats.Report, window, width int) string {
	if len(report.Sessions) == 0 {
		return "No sessions found."
	}
	var buf bytes.Buffer
	if err := stats.RenderCurves(&buf, report.Sessions, window, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(renderSummaryCards(report, width)+"\n\n"+buf.String(), "\n")
}

func renderSummaryCards(report stats.Report, width int) string {
	sum := stats.Summarize(report.Sessions)
	cons := "n/a"
	if sum.AvgConsistency != nil {
		cons = fmt.Sprintf("%.0f%%", *sum.AvgConsistency)
	}
	level := progress.Level(report.TotalXP)
	cards := []string{
		metricCard("Sessions", strconv.Itoa(sum.Sessions)),
		metricCard("Avg WPM", fmt.Sprintf("%.1f", sum.AvgWPM)),
		metricCard("Best WPM", strconv.Itoa(sum.BestWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", sum.AvgAccuracy)),
		metricCard("Consistency", cons),
		metricCard("Level", fmt.Sprintf("%d (%d/%d xp)", level, report.TotalXP, progress.NextLevelXP(level))),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...)
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func (m *Model) renderKeyCurves(width int) string {
	switch {
	case len(m.report.Sessions) == 0:
		return "No sessions found."
	case m.curveError != "":
		return "Failed to load key curves: " + m.curveError
	case len(m.curveKeys) == 0:
		return "No key stats found."
	}
	labels := make([]string, len(m.curveKeys))
	for i, k := range m.curveKeys {
		labels[i] = stats.KeyLabel(k)
	}
	var buf bytes.Buffer
	if err := stats.RenderKeyCurves(&buf, m.report.Sessions, m.keyCurves, m.curveKeys, m.cfg.CurveWindow, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render key curves: %v", err)
	}
	header := headerStyle.Render("Most pressed: " + strings.Join(labels, ", "))
	return strings.TrimRight(header+"\n"+buf.String(), "\n")
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}
