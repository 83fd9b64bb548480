// Package main provides the CLI entrypoint for typemeter.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/typemeter/internal/config"
	"github.com/verte-zerg/typemeter/internal/export"
	"github.com/verte-zerg/typemeter/internal/generator"
	"github.com/verte-zerg/typemeter/internal/logging"
	"github.com/verte-zerg/typemeter/internal/model"
	"github.com/verte-zerg/typemeter/internal/stats"
	"github.com/verte-zerg/typemeter/internal/statsui"
	"github.com/verte-zerg/typemeter/internal/store"
	"github.com/verte-zerg/typemeter/internal/tui"
	"github.com/verte-zerg/typemeter/internal/wordlist"
)

const (
	defaultMode        = model.ModeTime
	defaultSeconds     = 30
	defaultWords       = 25
	defaultContent     = model.ContentWords
	defaultLang        = "en"
	defaultCaps        = 0.0
	defaultPunct       = 0.0
	defaultWeakTop     = 8
	defaultWeakFactor  = 2.0
	defaultWeakWindow  = 20
	defaultCurveWindow = 20
	defaultKeyCurves   = 5
	statsPlotHeight    = 8
)

const defaultPunctSet = ".,!?;:\"'()-"

var (
	practiceMode       string
	practiceSeconds    int
	practiceWords      int
	practiceContent    string
	practiceLang       string
	practiceWordList   string
	practiceTextFile   string
	practiceCaps       float64
	practicePunct      float64
	practicePunctSet   string
	practiceFocusWeak  bool
	practiceWeakTop    int
	practiceWeakFactor float64
	practiceWeakWindow int
	practiceGraphemes  bool
	debugLog           bool

	statsLang        string
	statsMode        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool
	statsKeys        string

	lastID int64

	exportFormat string
	exportLang   string
	exportMode   string
	exportLast   int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typemeter",
		Short:         "Typing test with live WPM, accuracy and consistency",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "write debug entries to the log file")

	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "test mode: time, words or text")
	rootCmd.Flags().IntVar(&practiceSeconds, "seconds", defaultSeconds, "duration in time mode")
	rootCmd.Flags().IntVar(&practiceWords, "words", defaultWords, "word goal in words mode")
	rootCmd.Flags().StringVar(&practiceContent, "content", defaultContent, "content: words, punctuation, numbers or quotes")
	rootCmd.Flags().StringVar(&practiceLang, "lang", defaultLang, "language code")
	rootCmd.Flags().StringVar(&practiceWordList, "wordlist", "", "custom word list file (one word per line)")
	rootCmd.Flags().StringVar(&practiceTextFile, "text-file", "", "text to type in text mode")
	rootCmd.Flags().Float64Var(&practiceCaps, "caps", defaultCaps, "probability of capitalized first letter (0-1)")
	rootCmd.Flags().Float64Var(&practicePunct, "punct", defaultPunct, "punctuation probability per word (0-1)")
	rootCmd.Flags().StringVar(&practicePunctSet, "punct-set", defaultPunctSet, "punctuation set")
	rootCmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "bias practice toward weak keys")
	rootCmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak keys to focus on")
	rootCmd.Flags().Float64Var(&practiceWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak keys")
	rootCmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak keys")
	rootCmd.Flags().BoolVar(&practiceGraphemes, "graphemes", true, "compare grapheme clusters instead of code points")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLastCmd())
	rootCmd.AddCommand(newExportCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	p := fileCfg.Practice
	applyConfig(cmd, "mode", &practiceMode, p.Mode)
	applyConfig(cmd, "seconds", &practiceSeconds, p.Seconds)
	applyConfig(cmd, "words", &practiceWords, p.Words)
	applyConfig(cmd, "content", &practiceContent, p.Content)
	applyConfig(cmd, "lang", &practiceLang, p.Lang)
	applyConfig(cmd, "caps", &practiceCaps, p.CapsPct)
	applyConfig(cmd, "punct", &practicePunct, p.PunctPct)
	applyConfig(cmd, "punct-set", &practicePunctSet, p.PunctSet)
	applyConfig(cmd, "focus-weak", &practiceFocusWeak, p.FocusWeak)
	applyConfig(cmd, "weak-top", &practiceWeakTop, p.WeakTop)
	applyConfig(cmd, "weak-factor", &practiceWeakFactor, p.WeakFactor)
	applyConfig(cmd, "weak-window", &practiceWeakWindow, p.WeakWindow)
	applyConfig(cmd, "graphemes", &practiceGraphemes, p.Graphemes)

	cfg := model.Config{
		Mode:       practiceMode,
		Seconds:    practiceSeconds,
		Words:      practiceWords,
		Content:    practiceContent,
		Lang:       practiceLang,
		CapsPct:    practiceCaps,
		PunctPct:   practicePunct,
		PunctSet:   practicePunctSet,
		FocusWeak:  practiceFocusWeak,
		WeakTop:    practiceWeakTop,
		WeakFactor: practiceWeakFactor,
		WeakWindow: practiceWeakWindow,
		Graphemes:  practiceGraphemes,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	words, err := wordlist.Load(practiceWordList, cfg.Lang)
	if err != nil {
		return wordListLoadError(cfg.Lang, err)
	}
	var quotes []string
	if cfg.Content == model.ContentQuotes {
		if quotes, err = wordlist.Quotes(); err != nil {
			return fmt.Errorf("failed to load quotes: %w", err)
		}
	}
	var text string
	if practiceTextFile != "" {
		if cfg.Mode != model.ModeText {
			return fmt.Errorf("--text-file requires --mode text")
		}
		data, err := os.ReadFile(practiceTextFile)
		if err != nil {
			return fmt.Errorf("failed to read text file: %w", err)
		}
		text = strings.Join(strings.Fields(string(data)), " ")
		if text == "" {
			return fmt.Errorf("text file %s is empty", practiceTextFile)
		}
	}

	logger := logging.NewOrNop(config.DefaultLogPath(), debugLog)
	defer func() { _ = logger.Sync() }()

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	logger.Info("practice started",
		zap.String("mode", cfg.Mode),
		zap.String("content", cfg.Content),
		zap.String("lang", cfg.Lang),
		zap.Bool("focusWeak", cfg.FocusWeak),
	)

	m := tui.NewModel(tui.Options{
		Config:   cfg,
		Store:    st,
		Gen:      generator.New(),
		Words:    words,
		Quotes:   quotes,
		PunctSet: []rune(cfg.PunctSet),
		Text:     text,
		Logger:   logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if res, ok := m.Result(); ok {
		logErrf("%d wpm · %d%% acc · %d errors\n", res.WPM, res.Accuracy, res.Errors)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List bundled and custom word list languages",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	bundled, err := wordlist.Langs()
	if err != nil {
		return fmt.Errorf("failed to list bundled word lists: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, lang := range bundled {
		if _, err := fmt.Fprintf(out, "%s\tbundled\n", lang); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	entries, err := os.ReadDir(config.DefaultWordListDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read wordlist directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s\t%s\n", strings.TrimSuffix(name, ".txt"), filepath.Join(config.DefaultWordListDir(), name)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsLang, "lang", "", "language filter")
	cmd.Flags().StringVar(&statsMode, "mode", "", "mode filter (time, words, text)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the TUI")
	cmd.Flags().StringVar(&statsKeys, "keys", "", "keys for per-key curves in the text report (default: most frequent)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, "curve-window", &statsCurveWindow, fileCfg.Stats.CurveWindow)

	cfg, err := statsConfig(statsLang, statsMode, statsSince, statsLast)
	if err != nil {
		return err
	}
	if statsCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}
	cfg.CurveWindow = statsCurveWindow

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if statsPlain {
		return renderPlainStats(cmd, st, cfg)
	}
	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderPlainStats(cmd *cobra.Command, st *store.Store, cfg model.StatsConfig) error {
	ctx := context.Background()
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Sessions); err != nil {
		return err
	}
	if err := stats.RenderCurves(out, report.Sessions, cfg.CurveWindow, 0, statsPlotHeight, false); err != nil {
		return err
	}
	if len(report.KeyAggsAll) == 0 {
		return nil
	}
	if err := stats.RenderKeyTable(out, report.KeyAggsAll); err != nil {
		return err
	}

	keys := parseKeys(statsKeys)
	if len(keys) == 0 {
		keys = stats.TopKeysByFrequency(report.KeyAggsAll, defaultKeyCurves)
	}
	perSession, err := st.ListKeyStatsForSessions(ctx, report.WindowSessionIDs, keys)
	if err != nil {
		return fmt.Errorf("failed to load key stats: %w", err)
	}
	return stats.RenderKeyCurves(out, report.Sessions, perSession, keys, cfg.CurveWindow, 0, statsPlotHeight, false)
}

func newLastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "last",
		Short: "Show the most recent (or a given) session result",
		Args:  cobra.NoArgs,
		RunE:  runLastCmd,
	}
	cmd.Flags().Int64Var(&lastID, "id", 0, "session id to show")
	return cmd
}

func runLastCmd(cmd *cobra.Command, _ []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	var rec model.SessionRecord
	if lastID > 0 {
		rec, err = st.GetSession(ctx, lastID)
	} else {
		rec, err = st.LastSession(ctx)
	}
	if errors.Is(err, store.ErrNotFound) {
		logErrln("No sessions recorded yet. Run: typemeter")
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	return stats.RenderResult(cmd.OutOrStdout(), rec, 0, false)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored session results as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFormat, "format", export.FormatJSON, "output format: json or yaml")
	cmd.Flags().StringVar(&exportLang, "lang", "", "language filter")
	cmd.Flags().StringVar(&exportMode, "mode", "", "mode filter (time, words, text)")
	cmd.Flags().IntVar(&exportLast, "last", 0, "limit to last N sessions")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	cfg, err := statsConfig(exportLang, exportMode, "", exportLast)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	records := make([]model.SessionRecord, 0, len(sessions))
	for _, s := range sessions {
		rec, err := st.GetSession(ctx, s.SessionID)
		if err != nil {
			return fmt.Errorf("failed to load session %d: %w", s.SessionID, err)
		}
		records = append(records, rec)
	}
	if err := export.Write(cmd.OutOrStdout(), format, records); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func openStore() (*store.Store, func(), error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}, nil
}

func statsConfig(lang, mode, since string, last int) (model.StatsConfig, error) {
	cfg := model.StatsConfig{Lang: strings.TrimSpace(lang), Mode: strings.TrimSpace(mode), Last: last}
	if cfg.Mode != "" && !validMode(cfg.Mode) {
		return cfg, fmt.Errorf("invalid --mode %q (use time, words or text)", cfg.Mode)
	}
	if last < 0 {
		return cfg, fmt.Errorf("--last must be >= 0")
	}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	return cfg, nil
}

// parseKeys splits a comma list; "space" selects the space bar.
func parseKeys(raw string) []string {
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
			continue
		case strings.EqualFold(part, "space"):
			keys = append(keys, " ")
		default:
			keys = append(keys, strings.ToUpper(part))
		}
	}
	return keys
}

type configValue interface {
	~string | ~int | ~float64 | ~bool
}

// applyConfig copies a file value into target unless the flag was set on the command line.
func applyConfig[T configValue](cmd *cobra.Command, name string, target, value *T) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typemeter configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q             # time, words or text
# seconds = %d              # Duration in time mode
# words = %d                # Word goal in words mode
# content = %q          # words, punctuation, numbers or quotes
# lang = %q                 # Language code
# caps = %.2f               # Probability of capitalized first letter (0-1)
# punct = %.2f              # Punctuation probability per word (0-1)
# punct-set = %q  # Punctuation set
# focus-weak = false        # Bias practice toward weak keys
# weak-top = %d              # Number of weak keys to focus on
# weak-factor = %.1f        # Weight factor for weak keys
# weak-window = %d          # Number of recent sessions to compute weak keys
# graphemes = true          # Compare grapheme clusters instead of code points

[stats]
# curve-window = %d         # Moving average window for learning curves
`,
		defaultMode,
		defaultSeconds,
		defaultWords,
		defaultContent,
		defaultLang,
		defaultCaps,
		defaultPunct,
		defaultPunctSet,
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
		defaultCurveWindow,
	)
}

func validMode(mode string) bool {
	switch mode {
	case model.ModeTime, model.ModeWords, model.ModeText:
		return true
	}
	return false
}

func validateConfig(cfg model.Config) error {
	if !validMode(cfg.Mode) {
		return fmt.Errorf("--mode must be one of time, words, text")
	}
	switch cfg.Content {
	case model.ContentWords, model.ContentPunctuation, model.ContentNumbers, model.ContentQuotes:
	default:
		return fmt.Errorf("--content must be one of words, punctuation, numbers, quotes")
	}
	if cfg.Mode == model.ModeTime && cfg.Seconds <= 0 {
		return fmt.Errorf("--seconds must be > 0")
	}
	if cfg.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.CapsPct < 0 || cfg.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.PunctPct < 0 || cfg.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if cfg.PunctSet == "" {
		return fmt.Errorf("--punct-set must not be empty")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func wordListLoadError(lang string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load word list: %v", err),
		fmt.Sprintf("language %q has no bundled word list", lang),
		"Run: typemeter langs",
		"Or pass a custom list: typemeter --lang " + lang + " --wordlist " + strconv.Quote(config.DefaultWordListPath(lang)),
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
