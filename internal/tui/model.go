// Package tui provides the Bubble Tea play screen.
package tui

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/petrogames/internal/catalog"
	"github.com/verte-zerg/petrogames/internal/clock"
	"github.com/verte-zerg/petrogames/internal/generator"
	"github.com/verte-zerg/petrogames/internal/model"
	"github.com/verte-zerg/petrogames/internal/round"
	statsPkg "github.com/verte-zerg/petrogames/internal/stats"
)

// Store is the persistence the play screen needs.
type Store interface {
	InsertSession(ctx context.Context, stats model.SessionStats, items []model.ItemStats, unlocked []model.AchievementRecord) error
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
	GetWeakItems(ctx context.Context, window int, gameID string) ([]model.ItemAggregate, error)
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
	DeleteSnapshot(ctx context.Context, gameID string) error
}

const (
	// Board shuffles happen every shuffleEvery effect ticks.
	shuffleEvery = 4
	// Prompts on fading levels disappear after fadeAfter effect ticks.
	fadeAfter = 3
)

type clockMsg struct {
	session string
	gen     uint64
}

type fxMsg struct{ gen uint64 }

type continueMsg struct {
	session string
	round   int
}

type catalogMsg struct{ path string }

type catalogErrMsg struct{ err error }

type catalogClosedMsg struct{}

// Model implements the Bubble Tea play UI.
type Model struct {
	config  model.Config
	store   Store
	game    catalog.Game
	gen     *generator.Generator
	ctrl    *round.Controller
	now     func() time.Time
	watcher *catalog.Watcher
	pending *catalog.Game
	initCmd tea.Cmd

	weakNoticePrinted bool

	km   keyMap
	help help.Model
	bar  progress.Model

	width  int
	height int

	fx        *clock.Clock
	fxRnd     *rand.Rand
	order     []int
	boardKey  string
	boardTick int64
	cursor    int

	startedAt time.Time
	shown     int
	items     map[string]*model.ItemStats
	unlocks   []model.AchievementRecord
	notice    string
	saved     bool

	// resumed is the score a resumed session carried in from its snapshot.
	resumed model.ScoreState

	lastPPM float64
	lastAcc float64
	hasLast bool

	allPPM       float64
	allAcc       float64
	allCorrect   int
	allIncorrect int
	allPoints    int
	allDuration  int64
}

// NewModel builds a play screen for game. A non-nil snapshot resumes a saved session.
// st may be nil, in which case nothing is persisted.
func NewModel(cfg model.Config, st Store, game catalog.Game, weak []string, snap *model.Snapshot) (*Model, error) {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	m := &Model{
		config:            cfg,
		store:             st,
		game:              game,
		now:               time.Now,
		weakNoticePrinted: len(weak) == 0 && cfg.FocusWeak,
		km:                defaultKeyMap(),
		help:              help.New(),
		bar:               progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		fx:                clock.NewPeriodic(),
		fxRnd:             rand.New(rand.NewSource(cfg.Seed + 1)),
	}
	if cfg.FocusWeak {
		m.gen = generator.Weighted(game, weak, cfg.WeakFactor)
	} else {
		m.gen = generator.New(game)
	}
	ctrl, err := m.gen.Session(rand.New(rand.NewSource(cfg.Seed)), cfg.DisplayFor, m.now)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		if err := ctrl.Restore(*snap); err != nil {
			// The catalog changed since the snapshot was taken.
			logErrf("saved session for %s no longer fits the game (%v); starting fresh\n", game.ID, err)
			m.dropSnapshot()
			if ctrl, err = m.gen.Session(rand.New(rand.NewSource(cfg.Seed)), cfg.DisplayFor, m.now); err != nil {
				return nil, err
			}
		} else {
			m.resumed = snap.Score
			m.notice = fmt.Sprintf("Resumed at level %d.", snap.LevelIndex+1)
		}
	}
	m.ctrl = ctrl
	m.resetRun()
	m.initCmd = m.schedule(ctrl.Begin())
	m.loadFooterStats()
	return m, nil
}

// WithWatcher reloads the catalog when the watcher reports a change. Reloaded rules
// apply from the next restart.
func (m *Model) WithWatcher(w *catalog.Watcher) *Model {
	m.watcher = w
	return m
}

// SessionID returns the id of the running session.
func (m *Model) SessionID() string {
	return m.ctrl.SessionID()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.initCmd, m.afterStep()}
	if sched, ok := m.fx.Start(time.Second); ok {
		cmds = append(cmds, m.fxTick(sched))
	}
	if m.watcher != nil {
		cmds = append(cmds, waitForCatalog(m.watcher))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case clockMsg:
		if msg.session != m.ctrl.SessionID() {
			return m, nil
		}
		return m, tea.Batch(m.schedule(m.ctrl.Tick(msg.gen)), m.afterStep())
	case continueMsg:
		if msg.session != m.ctrl.SessionID() || msg.round != len(m.ctrl.History()) {
			return m, nil
		}
		return m, tea.Batch(m.schedule(m.ctrl.Continue()), m.afterStep())
	case fxMsg:
		return m, m.handleFx(msg)
	case catalogMsg:
		m.reloadCatalog(msg.path)
		return m, waitForCatalog(m.watcher)
	case catalogErrMsg:
		logErrf("catalog watch: %v\n", msg.err)
		return m, waitForCatalog(m.watcher)
	case catalogClosedMsg:
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.km.Quit):
		m.finishSession(true)
		m.ctrl.Stop()
		m.fx.Stop()
		return m, tea.Quit
	case key.Matches(msg, m.km.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.km.Restart):
		return m, m.restart()
	case key.Matches(msg, m.km.Hint):
		if _, ok := m.ctrl.Hint(); !ok {
			m.notice = "No hint available."
		}
		return m, nil
	case key.Matches(msg, m.km.Undo):
		m.ctrl.Deselect()
		return m, nil
	case key.Matches(msg, m.km.Prev):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.km.Next):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, m.km.Choose):
		if m.ctrl.Phase() == round.Completed {
			return m, m.restart()
		}
		return m, m.choose(m.cursor)
	}
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		r := msg.Runes[0]
		if r >= '1' && r <= '9' {
			return m, m.choose(int(r - '1'))
		}
	}
	return m, nil
}

// choose selects the candidate at a display position.
func (m *Model) choose(pos int) tea.Cmd {
	v := m.ctrl.Snapshot()
	m.syncBoard(v)
	if pos < 0 || pos >= len(m.order) {
		return nil
	}
	m.cursor = pos
	m.notice = ""
	m.ctrl.Select(v.Candidates[m.order[pos]].ID)
	return m.afterStep()
}

func (m *Model) moveCursor(delta int) {
	m.syncBoard(m.ctrl.Snapshot())
	n := len(m.order)
	if n == 0 {
		return
	}
	m.cursor = ((m.cursor+delta)%n + n) % n
}

// afterStep drains controller events and schedules the feedback pause.
func (m *Model) afterStep() tea.Cmd {
	for _, ev := range m.ctrl.Events() {
		switch ev := ev.(type) {
		case round.OutcomeEvent:
			m.recordOutcome(ev.Outcome)
		case round.AchievementEvent:
			m.unlocks = append(m.unlocks, model.AchievementRecord{
				GameID:     m.game.ID,
				ID:         ev.Rule.ID,
				Title:      ev.Rule.Title,
				SessionID:  m.ctrl.SessionID(),
				UnlockedAt: m.now(),
			})
			m.notice = fmt.Sprintf("Achievement unlocked: %s", ev.Rule.Title)
		}
	}
	switch m.ctrl.Phase() {
	case round.Resolved:
		n := len(m.ctrl.History())
		if n == m.shown {
			return nil
		}
		m.shown = n
		session := m.ctrl.SessionID()
		return tea.Tick(m.ctrl.DisplayFor(), func(time.Time) tea.Msg {
			return continueMsg{session: session, round: n}
		})
	case round.Completed:
		m.finishSession(false)
	case round.Idle:
		if err := m.ctrl.Err(); err != nil {
			logErrf("failed to load challenge: %v\n", err)
		}
	}
	return nil
}

func (m *Model) recordOutcome(out model.RoundOutcome) {
	for _, k := range out.Subjects {
		entry, ok := m.items[k]
		if !ok {
			entry = &model.ItemStats{Key: k}
			m.items[k] = entry
		}
		if out.Correct {
			entry.Correct++
			entry.LatencySumMs += out.Duration.Milliseconds()
			entry.LatencyCount++
		} else {
			entry.Incorrect++
		}
	}
}

func (m *Model) restart() tea.Cmd {
	m.finishSession(false)
	m.resumed = model.ScoreState{}
	var sched clock.Schedule
	var ok bool
	if m.pending != nil {
		unlocked := m.ctrl.Unlocked()
		m.ctrl.Stop()
		m.game = *m.pending
		m.pending = nil
		m.gen = generator.New(m.game)
		m.refreshWeak()
		ctrl, err := m.gen.Session(rand.New(rand.NewSource(m.config.Seed)), m.config.DisplayFor, m.now)
		if err != nil {
			m.notice = fmt.Sprintf("Could not start %s: %v", m.game.ID, err)
			return nil
		}
		if err := ctrl.Restore(model.Snapshot{GameID: m.game.ID, Unlocked: unlocked}); err != nil {
			logErrf("failed to carry achievements: %v\n", err)
		}
		m.ctrl = ctrl
		sched, ok = ctrl.Begin()
		m.notice = "Started with the reloaded rules."
	} else {
		m.refreshWeak()
		sched, ok = m.ctrl.Restart()
		m.notice = ""
	}
	m.resetRun()
	return tea.Batch(m.schedule(sched, ok), m.afterStep())
}

func (m *Model) resetRun() {
	m.startedAt = m.now()
	m.shown = 0
	m.items = map[string]*model.ItemStats{}
	m.unlocks = nil
	m.saved = false
	m.boardKey = ""
	m.cursor = 0
}

func (m *Model) schedule(sched clock.Schedule, ok bool) tea.Cmd {
	if !ok {
		return nil
	}
	session, gen := m.ctrl.SessionID(), sched.Gen
	return tea.Tick(sched.Interval, func(time.Time) tea.Msg {
		return clockMsg{session: session, gen: gen}
	})
}

func (m *Model) fxTick(sched clock.Schedule) tea.Cmd {
	gen := sched.Gen
	return tea.Tick(sched.Interval, func(time.Time) tea.Msg {
		return fxMsg{gen: gen}
	})
}

// handleFx drives the visual level modifiers.
func (m *Model) handleFx(msg fxMsg) tea.Cmd {
	ev, next, more := m.fx.Tick(msg.gen)
	if ev == clock.EventNone {
		return nil
	}
	v := m.ctrl.Snapshot()
	m.syncBoard(v)
	if v.Phase == round.AwaitingInput && v.Level.HasModifier("shuffle") &&
		(m.fx.Ticks()-m.boardTick)%shuffleEvery == 0 && len(m.order) > 1 {
		m.fxRnd.Shuffle(len(m.order), func(i, j int) { m.order[i], m.order[j] = m.order[j], m.order[i] })
	}
	if !more {
		return nil
	}
	return m.fxTick(next)
}

// syncBoard resets the display order when a new board is presented.
func (m *Model) syncBoard(v round.View) {
	k := fmt.Sprintf("%s|%d|%d", v.Prompt, len(m.ctrl.History()), len(v.Candidates))
	for _, c := range v.Candidates {
		k += "|" + c.ID
	}
	if k == m.boardKey && len(m.order) == len(v.Candidates) {
		return
	}
	m.boardKey = k
	m.boardTick = m.fx.Ticks()
	m.order = make([]int, len(v.Candidates))
	for i := range m.order {
		m.order[i] = i
	}
	if m.cursor >= len(m.order) {
		m.cursor = 0
	}
}

// finishSession persists the current run once. When suspend is set and the run
// is unfinished, a snapshot is saved for --resume.
func (m *Model) finishSession(suspend bool) {
	if m.saved {
		return
	}
	m.saved = true
	history := m.ctrl.History()
	if len(history) == 0 {
		return
	}
	v := m.ctrl.Snapshot()
	endedAt := m.now()
	st := v.Score
	stats := model.SessionStats{
		ID:            m.ctrl.SessionID(),
		GameID:        m.game.ID,
		StartedAt:     m.startedAt,
		EndedAt:       endedAt,
		Seed:          m.config.Seed,
		LevelReached:  v.LevelIndex,
		Completed:     v.Phase == round.Completed,
		TotalPoints:   st.TotalPoints,
		RoundsCorrect: st.RoundsCorrect,
		RoundsMissed:  st.RoundsAttempted - st.RoundsCorrect,
		BestStreak:    st.BestStreak,
		HintsUsed:     st.HintsUsed,
		DurationMs:    endedAt.Sub(m.startedAt).Milliseconds(),
	}
	for _, u := range m.unlocks {
		stats.UnlockedDuring = append(stats.UnlockedDuring, u.ID)
	}

	m.lastPPM, _, m.lastAcc = statsPkg.SessionMetrics(stats.RoundsCorrect, stats.RoundsMissed, stats.TotalPoints, stats.DurationMs)
	m.hasLast = true
	// A resumed session's earlier rounds are already in the all-time totals.
	m.allCorrect += stats.RoundsCorrect - m.resumed.RoundsCorrect
	m.allIncorrect += stats.RoundsMissed - (m.resumed.RoundsAttempted - m.resumed.RoundsCorrect)
	m.allPoints += stats.TotalPoints - m.resumed.TotalPoints
	m.resumed = model.ScoreState{}
	m.allDuration += stats.DurationMs
	m.recomputeAllTime()

	if m.store == nil {
		return
	}
	items := make([]model.ItemStats, 0, len(m.items))
	for _, entry := range m.items {
		items = append(items, *entry)
	}
	ctx := context.Background()
	if err := m.store.InsertSession(ctx, stats, items, m.unlocks); err != nil {
		logErrf("failed to save session: %v\n", err)
	}
	if suspend && !stats.Completed {
		if err := m.store.SaveSnapshot(ctx, m.ctrl.Save()); err != nil {
			logErrf("failed to save snapshot: %v\n", err)
		}
		return
	}
	m.dropSnapshot()
}

func (m *Model) dropSnapshot() {
	if m.store == nil {
		return
	}
	if err := m.store.DeleteSnapshot(context.Background(), m.game.ID); err != nil {
		logErrf("failed to clear snapshot: %v\n", err)
	}
}

func (m *Model) refreshWeak() {
	if !m.config.FocusWeak || m.store == nil {
		return
	}
	aggs, err := m.store.GetWeakItems(context.Background(), m.config.WeakWindow, m.game.ID)
	if err != nil {
		logErrf("failed to load weak items: %v\n", err)
		return
	}
	if len(aggs) == 0 {
		if !m.weakNoticePrinted {
			logErrln("no stats available for weak-item focus yet; using normal generator")
			m.weakNoticePrinted = true
		}
		m.gen.Reweight(nil, m.config.WeakFactor)
		return
	}
	m.gen.Reweight(statsPkg.SelectWeakItems(aggs, m.config.WeakTop), m.config.WeakFactor)
}

func (m *Model) reloadCatalog(path string) {
	cat, err := catalog.Load(m.config.CatalogDir)
	if err != nil {
		m.notice = fmt.Sprintf("Catalog change in %s ignored: %v", path, err)
		return
	}
	game, ok := cat.Get(m.game.ID)
	if !ok {
		m.notice = fmt.Sprintf("Game %s no longer in catalog; keeping current rules.", m.game.ID)
		return
	}
	m.pending = &game
	m.notice = "Catalog reloaded. Press r to restart with the new rules."
}

func waitForCatalog(w *catalog.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case path, ok := <-w.Events:
			if !ok {
				return catalogClosedMsg{}
			}
			return catalogMsg{path: path}
		case err, ok := <-w.Errors:
			if !ok {
				return catalogClosedMsg{}
			}
			return catalogErrMsg{err: err}
		}
	}
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{Game: m.game.ID})
	if err != nil {
		logErrf("failed to load session stats: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	m.lastPPM, _, m.lastAcc = statsPkg.SessionMetrics(last.Correct, last.Incorrect, last.Points, last.DurationMs)
	m.hasLast = true

	for _, s := range sessions {
		m.allCorrect += s.Correct
		m.allIncorrect += s.Incorrect
		m.allPoints += s.Points
		m.allDuration += s.DurationMs
	}
	m.recomputeAllTime()
}

func (m *Model) recomputeAllTime() {
	m.allPPM, _, m.allAcc = statsPkg.SessionMetrics(m.allCorrect, m.allIncorrect, m.allPoints, m.allDuration)
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
