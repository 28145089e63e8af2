// Package main provides the CLI entrypoint for petrogames.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/petrogames/internal/catalog"
	"github.com/verte-zerg/petrogames/internal/config"
	"github.com/verte-zerg/petrogames/internal/model"
	"github.com/verte-zerg/petrogames/internal/sim"
	"github.com/verte-zerg/petrogames/internal/stats"
	"github.com/verte-zerg/petrogames/internal/statsui"
	"github.com/verte-zerg/petrogames/internal/store"
	"github.com/verte-zerg/petrogames/internal/tui"
)

const (
	defaultGame        = "memory"
	defaultWeakTop     = 3
	defaultWeakFactor  = 2.0
	defaultWeakWindow  = 20
	defaultFeedbackMs  = 1200
	defaultCurveWindow = 5
	defaultSimRounds   = 50
	defaultSimSkill    = 0.8
)

var (
	playGame       string
	playSeed       int64
	playFocusWeak  bool
	playWeakTop    int
	playWeakFactor float64
	playWeakWindow int
	playResume     bool
	playWatch      bool
	playCatalogDir string
	playFeedbackMs int
	dbPath         string

	statsGame        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsItems       string

	simGame     string
	simRounds   int
	simSkill    float64
	simHintRate float64
	simSeed     int64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "petrogames",
		Short:         "Petroglyph mini-games in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&playCatalogDir, "catalog-dir", config.DefaultCatalogDir(), "directory with extra or overriding game definitions")
	rootCmd.Flags().StringVar(&playGame, "game", defaultGame, "game id (see: petrogames games)")
	rootCmd.Flags().Int64Var(&playSeed, "seed", 0, "random seed (0 picks one)")
	rootCmd.Flags().BoolVar(&playFocusWeak, "focus-weak", false, "bias challenges toward weak items")
	rootCmd.Flags().IntVar(&playWeakTop, "weak-top", defaultWeakTop, "number of weak items to focus on")
	rootCmd.Flags().Float64Var(&playWeakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak items")
	rootCmd.Flags().IntVar(&playWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak items")
	rootCmd.Flags().BoolVar(&playResume, "resume", false, "continue the saved session of the game")
	rootCmd.Flags().BoolVar(&playWatch, "watch", false, "reload game definitions when the catalog directory changes")
	rootCmd.Flags().IntVar(&playFeedbackMs, "feedback-ms", defaultFeedbackMs, "how long round feedback stays on screen")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newGamesCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newSimulateCmd())

	return rootCmd
}

// loadSettings overlays the config file and the environment onto flags the user
// did not set.
func loadSettings(cmd *cobra.Command) (config.EnvConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.EnvConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return config.EnvConfig{}, err
	}
	play := fileCfg.Play
	applyConfig(cmd, "game", &playGame, play.Game, env.Game)
	applyConfig(cmd, "seed", &playSeed, play.Seed, env.Seed)
	applyConfig(cmd, "focus-weak", &playFocusWeak, play.FocusWeak)
	applyConfig(cmd, "weak-top", &playWeakTop, play.WeakTop)
	applyConfig(cmd, "weak-factor", &playWeakFactor, play.WeakFactor)
	applyConfig(cmd, "weak-window", &playWeakWindow, play.WeakWindow)
	applyConfig(cmd, "watch", &playWatch, play.Watch)
	applyConfig(cmd, "catalog-dir", &playCatalogDir, play.CatalogDir, env.CatalogDir)
	applyConfig(cmd, "feedback-ms", &playFeedbackMs, play.FeedbackMs)
	applyConfig(cmd, "db", &dbPath, env.DBPath)
	applyConfig(cmd, "curve-window", &statsCurveWindow, fileCfg.Stats.CurveWindow)
	applyConfig(cmd, "items", &statsItems, fileCfg.Stats.Items)
	return env, nil
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	env, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cfg := model.Config{
		Game:       playGame,
		Seed:       playSeed,
		FocusWeak:  playFocusWeak,
		WeakTop:    playWeakTop,
		WeakFactor: playWeakFactor,
		WeakWindow: playWeakWindow,
		Resume:     playResume,
		Watch:      playWatch,
		CatalogDir: playCatalogDir,
		DisplayFor: time.Duration(playFeedbackMs) * time.Millisecond,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	if env.Debug {
		f, err := openDebugLog()
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logErrf("failed to close debug log: %v\n", cerr)
			}
		}()
	}

	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		return err
	}
	game, ok := cat.Get(cfg.Game)
	if !ok {
		return fmt.Errorf("unknown game %q (available: %s)", cfg.Game, strings.Join(cat.IDs(), ", "))
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	var weak []string
	if cfg.FocusWeak {
		aggs, err := st.GetWeakItems(ctx, cfg.WeakWindow, game.ID)
		if err != nil {
			logErrf("failed to load weak items: %v\n", err)
		} else {
			weak = stats.SelectWeakItems(aggs, cfg.WeakTop)
			if len(weak) == 0 {
				logErrln("no stats available for weak-item focus yet; using normal generator")
			}
		}
	}

	var snap *model.Snapshot
	if cfg.Resume {
		saved, ok, err := st.LoadSnapshot(ctx, game.ID)
		switch {
		case err != nil:
			return fmt.Errorf("failed to load saved session: %w", err)
		case !ok:
			logErrf("no saved session for %s; starting fresh\n", game.ID)
		default:
			snap = &saved
		}
	}

	m, err := tui.NewModel(cfg, st, game, weak, snap)
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", game.ID, err)
	}
	if cfg.Watch {
		if err := os.MkdirAll(cfg.CatalogDir, 0o755); err != nil {
			return fmt.Errorf("failed to create catalog directory: %w", err)
		}
		w, err := catalog.NewWatcher(cfg.CatalogDir)
		if err != nil {
			return fmt.Errorf("failed to watch catalog: %w", err)
		}
		defer func() {
			if cerr := w.Close(); cerr != nil {
				logErrf("failed to stop catalog watcher: %v\n", cerr)
			}
		}()
		m.WithWatcher(w)
	}
	if env.Debug {
		log.Printf("play game=%s session=%s resume=%t", game.ID, m.SessionID(), snap != nil)
	}

	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// openDebugLog routes the standard logger to a file while the TUI owns the terminal.
func openDebugLog() (*os.File, error) {
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "petrogames")
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	return f, nil
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
		if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
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

func newGamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List available games",
		Args:  cobra.NoArgs,
		RunE:  runGamesCmd,
	}
}

func runGamesCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadSettings(cmd); err != nil {
		return err
	}
	cat, err := catalog.Load(playCatalogDir)
	if err != nil {
		return err
	}
	for _, g := range cat.Games() {
		line := fmt.Sprintf("%-18s %-9s %d levels  %s", g.ID, g.Mode, len(g.Levels), g.Title)
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
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
	cmd.Flags().StringVar(&statsGame, "game", "", "game filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsItems, "items", "", "comma-separated item keys for per-item curves")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadSettings(cmd); err != nil {
		return err
	}
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}

	cfg := model.StatsConfig{
		Game:        statsGame,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Items:       statsItems,
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a game headlessly with a simulated player",
		Args:  cobra.NoArgs,
		RunE:  runSimulateCmd,
	}
	cmd.Flags().StringVar(&simGame, "game", defaultGame, "game id")
	cmd.Flags().IntVar(&simRounds, "rounds", defaultSimRounds, "maximum number of rounds")
	cmd.Flags().Float64Var(&simSkill, "skill", defaultSimSkill, "probability of a correct answer (0-1)")
	cmd.Flags().Float64Var(&simHintRate, "hint-rate", 0, "probability of asking for a hint (0-1)")
	cmd.Flags().Int64Var(&simSeed, "seed", 1, "random seed")
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadSettings(cmd); err != nil {
		return err
	}
	cat, err := catalog.Load(playCatalogDir)
	if err != nil {
		return err
	}
	game, ok := cat.Get(simGame)
	if !ok {
		return fmt.Errorf("unknown game %q (available: %s)", simGame, strings.Join(cat.IDs(), ", "))
	}
	res, err := sim.Run(game, sim.Options{
		Rounds:   simRounds,
		Skill:    simSkill,
		HintRate: simHintRate,
		Seed:     simSeed,
	})
	if err != nil {
		return err
	}
	return sim.Render(cmd.OutOrStdout(), res)
}

// applyConfig copies the last non-nil value into target unless the flag was set.
// Callers pass the file value before the environment value.
func applyConfig[T any](cmd *cobra.Command, name string, target *T, values ...*T) {
	if flag := cmd.Flags().Lookup(name); flag == nil || flag.Changed {
		return
	}
	for _, v := range values {
		if v != nil {
			*target = *v
		}
	}
}

func validateConfig(cfg model.Config) error {
	if cfg.Game == "" {
		return fmt.Errorf("--game must not be empty")
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
	if cfg.DisplayFor < 0 {
		return fmt.Errorf("--feedback-ms must be >= 0")
	}
	return nil
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
