// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/typemeter/internal/generator"
	"github.com/verte-zerg/typemeter/internal/metrics"
	"github.com/verte-zerg/typemeter/internal/model"
	"github.com/verte-zerg/typemeter/internal/progress"
	statsPkg "github.com/verte-zerg/typemeter/internal/stats"
)

// SessionStore persists finished sessions and serves history for the footer
// and weak-key focus.
type SessionStore interface {
	InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error)
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
	GetWeakKeys(ctx context.Context, window int, lang string) ([]model.KeyAggregate, error)
	TotalXP(ctx context.Context) (int, error)
}

// Options configures a typing Model.
type Options struct {
	Config   model.Config
	Store    SessionStore
	Gen      *generator.Generator
	Words    []string
	Quotes   []string
	PunctSet []rune
	// Text replaces generated content in text mode.
	Text   string
	Logger *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type screen int

const (
	screenTyping screen = iota
	screenResults
)

// timeModeWordsPerSecond sizes generated text so a time run cannot run out of words.
const timeModeWordsPerSecond = 5

const levelBarWidth = 20

// Model implements the Bubble Tea typing UI.
type Model struct {
	config   model.Config
	store    SessionStore
	textGen  *generator.Generator
	words    []string
	quotes   []string
	punctSet []rune
	text     string
	log      *zap.Logger
	now      func() time.Time

	weakSet    map[string]struct{}
	noticeWeak bool

	width  int
	height int

	screen     screen
	session    *metrics.Session
	typed      string
	started    bool
	startedAt  time.Time
	elapsed    float64
	generation int
	seq        int

	result  metrics.Result
	xp      int
	totalXP int
	saveErr error

	lastWPM int
	lastAcc int
	hasLast bool
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headlineStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
)

// NewModel constructs a typing TUI model.
func NewModel(opts Options) *Model {
	m := &Model{
		config:   opts.Config,
		store:    opts.Store,
		textGen:  opts.Gen,
		words:    opts.Words,
		quotes:   opts.Quotes,
		punctSet: opts.PunctSet,
		text:     opts.Text,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.textGen == nil {
		m.textGen = generator.New()
	}
	var segOpts []metrics.Option
	if !m.config.Graphemes {
		segOpts = append(segOpts, metrics.WithRuneSegmentation())
	}
	m.session = metrics.NewSession("", segOpts...)
	m.loadHistory()
	if m.config.FocusWeak {
		m.refreshWeakSet()
	}
	m.resetSession()
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
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case sampleMsg:
		if msg.generation == m.generation && msg.seq == m.seq && m.screen == screenTyping {
			m.elapsed = m.elapsedSeconds()
			m.session.Sample(m.elapsed)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.screen == screenResults {
			return m.updateResults(msg)
		}
		return m, m.updateTyping(msg)
	default:
		return m, nil
	}
}

func (m *Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter, tea.KeySpace, tea.KeyTab:
		m.resetSession()
	case tea.KeyRunes:
		if string(msg.Runes) == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) updateTyping(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyTab:
		m.resetSession()
		return nil
	case tea.KeyBackspace, tea.KeyDelete:
		if len(m.session.Typed()) == 0 {
			return nil
		}
		return m.edit(func(elapsed float64) error {
			m.session.Backspace(elapsed)
			return nil
		})
	case tea.KeySpace:
		return m.edit(func(elapsed float64) error {
			_, err := m.session.Type(" ", elapsed)
			return err
		})
	case tea.KeyRunes:
		var cmds []tea.Cmd
		for _, r := range msg.Runes {
			cmds = append(cmds, m.applyInput(m.typed+string(r)))
			if m.screen != screenTyping {
				break
			}
		}
		return tea.Batch(cmds...)
	default:
		return nil
	}
}

// applyInput feeds the full buffer to the session engine so combining marks can
// join the previous glyph.
func (m *Model) applyInput(newTyped string) tea.Cmd {
	return m.edit(func(elapsed float64) error {
		_, err := m.session.Apply(newTyped, elapsed)
		return err
	})
}

// edit runs one input change against the session; rejected changes leave state unchanged.
func (m *Model) edit(change func(elapsed float64) error) tea.Cmd {
	var cmds []tea.Cmd
	if !m.started {
		m.started = true
		m.startedAt = m.now()
		cmds = append(cmds, tickCmd(m.generation))
		m.log.Debug("session started", zap.Int("generation", m.generation), zap.String("mode", m.config.Mode))
	}
	m.elapsed = m.elapsedSeconds()
	if err := change(m.elapsed); err != nil {
		m.log.Debug("input rejected", zap.Error(err))
		return tea.Batch(cmds...)
	}
	m.typed = strings.Join(m.session.Typed(), "")
	if m.session.Done(m.config.Goal(), m.elapsed) {
		m.finishSession()
		return nil
	}
	m.seq++
	cmds = append(cmds, sampleCmd(m.generation, m.seq))
	return tea.Batch(cmds...)
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.generation != m.generation || m.screen != screenTyping || !m.started {
		return nil
	}
	m.elapsed = m.elapsedSeconds()
	m.session.Tick(m.elapsed)
	if m.session.Done(m.config.Goal(), m.elapsed) {
		m.finishSession()
		return nil
	}
	return tickCmd(m.generation)
}

func (m *Model) elapsedSeconds() float64 {
	if !m.started {
		return 0
	}
	return m.now().Sub(m.startedAt).Seconds()
}

func (m *Model) resetSession() {
	m.generation++
	m.seq = 0
	m.screen = screenTyping
	m.typed = ""
	m.started = false
	m.startedAt = time.Time{}
	m.elapsed = 0
	m.saveErr = nil
	m.session.Reset(m.generateText())
}

func (m *Model) generateText() string {
	if m.config.Mode == model.ModeText && m.text != "" {
		return m.text
	}
	count := m.config.Words
	if m.config.Mode == model.ModeTime {
		count = max(m.config.Seconds*timeModeWordsPerSecond, 10)
	}
	req := generator.Request{
		Words:    m.words,
		Quotes:   m.quotes,
		Count:    count,
		Content:  m.config.Content,
		CapsPct:  m.config.CapsPct,
		PunctPct: m.config.PunctPct,
		PunctSet: m.punctSet,
	}
	if m.config.Mode == model.ModeText && m.config.Content == model.ContentQuotes {
		req.Count = 0
	}
	if m.config.FocusWeak && len(m.weakSet) > 0 {
		req.Weak = m.weakSet
		req.WeakFactor = m.config.WeakFactor
	}
	return m.textGen.Text(req)
}

func (m *Model) finishSession() {
	endedAt := m.now()
	m.elapsed = endedAt.Sub(m.startedAt).Seconds()
	m.result = m.session.Finish(m.elapsed)
	m.xp = progress.XP(m.result)
	m.screen = screenResults
	m.generation++

	rec := model.SessionRecord{
		UUID:      uuid.NewString(),
		StartedAt: m.startedAt,
		EndedAt:   endedAt,
		Mode:      m.config.Mode,
		Lang:      m.config.Lang,
		Content:   m.config.Content,
		TargetLen: len(m.session.Target()),
		XP:        m.xp,
		Result:    m.result,
	}
	m.log.Info("session finished",
		zap.String("uuid", rec.UUID),
		zap.Int("wpm", m.result.WPM),
		zap.Int("accuracy", m.result.Accuracy),
		zap.Duration("duration", m.result.Duration()),
		zap.Int("xp", m.xp),
	)
	if m.store != nil {
		if _, err := m.store.InsertSession(context.Background(), rec); err != nil {
			m.saveErr = fmt.Errorf("failed to save session: %w", err)
			m.log.Error("failed to save session", zap.Error(err))
		}
	}
	m.totalXP += m.xp
	m.lastWPM = m.result.WPM
	m.lastAcc = m.result.Accuracy
	m.hasLast = true

	if m.config.FocusWeak {
		m.refreshWeakSet()
	}
}

func (m *Model) loadHistory() {
	if m.store == nil {
		return
	}
	ctx := context.Background()
	sessions, err := m.store.ListSessions(ctx, model.StatsConfig{Lang: m.config.Lang, Last: 1})
	if err != nil {
		m.log.Warn("failed to load session stats", zap.Error(err))
		return
	}
	if len(sessions) > 0 {
		last := sessions[len(sessions)-1]
		m.lastWPM, m.lastAcc, m.hasLast = last.WPM, last.Accuracy, true
	}
	total, err := m.store.TotalXP(ctx)
	if err != nil {
		m.log.Warn("failed to load xp", zap.Error(err))
		return
	}
	m.totalXP = total
}

func (m *Model) refreshWeakSet() {
	if m.store == nil {
		return
	}
	aggs, err := m.store.GetWeakKeys(context.Background(), m.config.WeakWindow, m.config.Lang)
	if err != nil {
		m.log.Warn("failed to load weak keys", zap.Error(err))
		return
	}
	m.weakSet = statsPkg.SelectWeakKeys(aggs, m.config.WeakTop)
	m.noticeWeak = len(m.weakSet) == 0
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	if m.screen == screenResults {
		content = m.renderResults()
	} else {
		content = m.renderTyping()
	}
	if content == "" {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	return max(int(float64(m.width)*0.70), 1)
}

func (m *Model) renderTyping() string {
	target := m.session.Target()
	if len(target) == 0 {
		return ""
	}
	typed := m.session.Typed()
	cursorIndex := -1
	if len(typed) < len(target) {
		cursorIndex = len(typed)
	}
	glyphs := buildStyledGlyphs(target, typed, cursorIndex)
	if m.width == 0 {
		return renderStyledGlyphs(glyphs)
	}
	width := m.contentWidth()
	return lipgloss.NewStyle().Width(width).Render(wrapStyledGlyphs(glyphs, width))
}

func (m *Model) renderResults() string {
	lines := []string{headlineStyle.Render(fmt.Sprintf("%d wpm", m.result.WPM))}
	lines = append(lines, statsPkg.ResultLines(m.result)...)
	if missed := statsPkg.MostMissed(m.result, 5); missed != "" {
		lines = append(lines, "Most missed: "+missed)
	}
	level := progress.Level(m.totalXP)
	lines = append(lines,
		fmt.Sprintf("XP +%d · Level %d (%d/%d)", m.xp, level, m.totalXP, progress.NextLevelXP(level)),
		levelBar(progress.Progress(m.totalXP), levelBarWidth),
	)
	if m.saveErr != nil {
		lines = append(lines, incorrectStyle.Render(m.saveErr.Error()))
	}
	if len(m.result.Series) >= 2 {
		chart := statsPkg.Chart{Height: 6, Shared: true}
		if m.width > 0 {
			chart.Width = statsPkg.PlotWidthFor(m.contentWidth())
		}
		lines = append(lines, "", strings.TrimRight(chart.String(statsPkg.SessionSeries(m.result.Series)), "\n"))
	}
	lines = append(lines, footerStyle.Render("enter: next test · esc: quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	if m.screen != screenTyping {
		return ""
	}
	target := m.session.Target()
	if len(target) == 0 {
		return ""
	}
	live := m.session.Live(m.elapsed)
	segments := []string{fmt.Sprintf("%d WPM · %d%% · %d err", live.WPM, live.Accuracy, live.Errors)}
	switch m.config.Mode {
	case model.ModeTime:
		left := max(m.config.Seconds-int(m.elapsed), 0)
		segments = append(segments, fmt.Sprintf("%ds left", left))
	case model.ModeWords:
		segments = append(segments, fmt.Sprintf("Words %d/%d", m.session.WordsTyped(), m.config.Words))
	default:
		segments = append(segments, fmt.Sprintf("Progress %d%%", len(m.session.Typed())*100/len(target)))
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %d WPM · %d%%", m.lastWPM, m.lastAcc))
	}
	segments = append(segments, fmt.Sprintf("Level %d", progress.Level(m.totalXP)))
	if m.noticeWeak {
		segments = append(segments, "no weak-key stats yet")
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

// levelBar draws progress through the current level, frac in [0, 1].
func levelBar(frac float64, width int) string {
	filled := int(math.Round(frac * float64(width)))
	filled = max(0, min(width, filled))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// Result returns the most recent finished result and whether one exists.
func (m *Model) Result() (metrics.Result, bool) {
	return m.result, m.screen == screenResults
}
