// Package round orchestrates the round lifecycle of a game session.
//
// The controller is single-threaded: every method is expected to be called from the
// host's event loop. Waiting for input or for the clock is expressed as a phase, never
// as a blocking call.
package round

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/petrogames/internal/achievement"
	"github.com/verte-zerg/petrogames/internal/clock"
	"github.com/verte-zerg/petrogames/internal/ladder"
	"github.com/verte-zerg/petrogames/internal/match"
	"github.com/verte-zerg/petrogames/internal/model"
	"github.com/verte-zerg/petrogames/internal/score"
)

// DefaultDisplayFor is how long feedback stays on screen when Config.DisplayFor is unset.
const DefaultDisplayFor = 1200 * time.Millisecond

// Phase is a lifecycle state.
type Phase int

// Lifecycle phases.
const (
	Idle Phase = iota
	Presenting
	AwaitingInput
	Validating
	Resolved
	Advancing
	Retrying
	Completed
)

func (p Phase) String() string {
	switch p {
	case Presenting:
		return "presenting"
	case AwaitingInput:
		return "awaiting-input"
	case Validating:
		return "validating"
	case Resolved:
		return "resolved"
	case Advancing:
		return "advancing"
	case Retrying:
		return "retrying"
	case Completed:
		return "completed"
	default:
		return "idle"
	}
}

// Challenge is one board presented to the player.
type Challenge struct {
	Prompt     string
	Candidates []model.Candidate
	Target     match.Target
	Hint       string
	// Subjects are the item keys the round tests. Group boards leave it
	// empty and the key of the first selected candidate is used.
	Subjects   []string
}

// Source supplies challenges for a level. Implementations must draw all
// randomness from rnd.
type Source interface {
	Challenge(level model.Level, rnd *rand.Rand) (Challenge, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(level model.Level, rnd *rand.Rand) (Challenge, error)

// Challenge implements Source.
func (f SourceFunc) Challenge(level model.Level, rnd *rand.Rand) (Challenge, error) {
	return f(level, rnd)
}

// Config describes one game for the controller.
type Config struct {
	GameID       string
	Levels       []model.Level
	Rules        []achievement.Rule
	Scoring      score.Scoring
	DisplayFor   time.Duration
	TickInterval time.Duration
	EventBuffer  int
	Now          func() time.Time
}

// Controller runs rounds for one session.
type Controller struct {
	cfg       Config
	source    Source
	rnd       *rand.Rand
	sessionID string

	keeper  *score.Keeper
	ladder  *ladder.Ladder
	tracker *achievement.Tracker
	clock   *clock.Clock
	events  eventQueue

	phase     Phase
	next      ladder.Transition
	challenge Challenge
	validator match.Validator
	selection []string
	cleared   map[string]struct{}
	hintShown bool
	feedback  string
	last      *model.RoundOutcome

	history      []model.RoundOutcome
	roundStarted time.Time
	timeouts     int
	fastest      time.Duration
	stopped      bool
	loadErr      error
}

// New builds a controller. rnd must not be nil; seed it for reproducible sessions.
func New(cfg Config, source Source, rnd *rand.Rand) (*Controller, error) {
	if source == nil {
		return nil, fmt.Errorf("round: nil challenge source")
	}
	if rnd == nil {
		return nil, fmt.Errorf("round: nil random source")
	}
	lad, err := ladder.New(cfg.Levels)
	if err != nil {
		return nil, fmt.Errorf("round: %w", err)
	}
	if cfg.DisplayFor <= 0 {
		cfg.DisplayFor = DefaultDisplayFor
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = clock.DefaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Controller{
		cfg:       cfg,
		source:    source,
		rnd:       rnd,
		sessionID: uuid.NewString(),
		keeper:    score.NewKeeper(),
		ladder:    lad,
		tracker:   achievement.NewTracker(cfg.Rules),
		clock:     clock.New(0),
		events:    eventQueue{max: cfg.EventBuffer},
		cleared:   map[string]struct{}{},
	}, nil
}

// SessionID identifies this session.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// DisplayFor is how long the host should show feedback before calling Continue.
func (c *Controller) DisplayFor() time.Duration {
	return c.cfg.DisplayFor
}

// Err returns the last challenge loading error, if any.
func (c *Controller) Err() error {
	return c.loadErr
}

// Begin starts the first round. The returned schedule, when ok, must be delivered
// back through Tick.
func (c *Controller) Begin() (clock.Schedule, bool) {
	if c.stopped || c.phase != Idle {
		return clock.Schedule{}, false
	}
	c.resetLevelClock()
	return c.present(true)
}

// Select adds a candidate to the selection. Input outside AwaitingInput, unknown
// ids and repeated ids are ignored.
func (c *Controller) Select(id string) {
	if c.stopped || c.phase != AwaitingInput {
		return
	}
	if !c.selectable(id) {
		return
	}
	c.selection = append(c.selection, id)
	c.feedback = ""
	if len(c.selection) < c.validator.Required() {
		return
	}
	c.phase = Validating
	result := c.validator.Validate(c.selection)
	if result == match.Pending {
		c.phase = AwaitingInput
		return
	}
	c.resolve(result == match.Matched, false)
}

// Deselect removes the last selected candidate while input is awaited.
func (c *Controller) Deselect() {
	if c.stopped || c.phase != AwaitingInput || len(c.selection) == 0 {
		return
	}
	c.selection = c.selection[:len(c.selection)-1]
}

// Hint reveals the challenge hint once per round and charges the hint cost.
func (c *Controller) Hint() (string, bool) {
	if c.stopped || c.phase != AwaitingInput || c.hintShown || c.challenge.Hint == "" {
		return "", false
	}
	c.hintShown = true
	c.keeper.UseHint(c.cfg.Scoring.HintCost)
	c.feedback = c.challenge.Hint
	return c.challenge.Hint, true
}

// Tick delivers a clock message. Stale generations are ignored.
func (c *Controller) Tick(gen uint64) (clock.Schedule, bool) {
	if c.stopped {
		return clock.Schedule{}, false
	}
	ev, next, more := c.clock.Tick(gen)
	switch ev {
	case clock.EventTick:
		return next, more
	case clock.EventExpired:
		if c.phase == AwaitingInput {
			c.phase = Validating
			c.resolve(false, true)
		}
	}
	return clock.Schedule{}, false
}

// Continue leaves Resolved and moves on to the next round, level or completion.
func (c *Controller) Continue() (clock.Schedule, bool) {
	if c.stopped || c.phase != Resolved {
		return clock.Schedule{}, false
	}
	switch c.next {
	case ladder.Completed:
		c.phase = Completed
		c.clock.Stop()
		return clock.Schedule{}, false
	case ladder.Advanced:
		c.phase = Advancing
		c.resetLevelClock()
		return c.present(true)
	case ladder.Failed:
		c.phase = Retrying
		c.ladder.Retry()
		c.resetLevelClock()
		return c.present(true)
	default:
		return c.present(!c.boardHasGroup())
	}
}

// Restart resets score and ladder and begins again under a new session id.
// Unlocked achievements survive.
func (c *Controller) Restart() (clock.Schedule, bool) {
	if c.stopped {
		return clock.Schedule{}, false
	}
	c.sessionID = uuid.NewString()
	c.clock.Reset(0)
	c.keeper.Reset()
	c.ladder.Reset()
	c.history = nil
	c.timeouts = 0
	c.fastest = 0
	c.last = nil
	c.feedback = ""
	c.next = ladder.Continue
	c.phase = Idle
	return c.Begin()
}

// Stop tears the session down. Outstanding tick messages are ignored afterwards.
func (c *Controller) Stop() {
	c.clock.Stop()
	c.stopped = true
}

// Stopped reports whether Stop was called.
func (c *Controller) Stopped() bool {
	return c.stopped
}

// Events drains queued notifications.
func (c *Controller) Events() []Event {
	return c.events.drain()
}

// DroppedEvents returns how many events were discarded because the queue was full.
func (c *Controller) DroppedEvents() int {
	return c.events.dropped
}

// History returns a copy of the round outcomes of this session.
func (c *Controller) History() []model.RoundOutcome {
	out := make([]model.RoundOutcome, len(c.history))
	copy(out, c.history)
	return out
}

// Score returns a copy of the score state.
func (c *Controller) Score() model.ScoreState {
	return c.keeper.State()
}

// Unlocked returns the achievement ids unlocked this session.
func (c *Controller) Unlocked() []string {
	return c.tracker.Unlocked()
}

// Levels returns the ordered levels.
func (c *Controller) Levels() []model.Level {
	return c.ladder.Levels()
}

// Save returns a persistable snapshot.
func (c *Controller) Save() model.Snapshot {
	return model.Snapshot{
		GameID:     c.cfg.GameID,
		SessionID:  c.sessionID,
		Score:      c.keeper.State(),
		Unlocked:   c.tracker.Unlocked(),
		LevelIndex: c.ladder.Index(),
		SavedAt:    c.cfg.Now(),
	}
}

// Restore loads a snapshot. It is only accepted before Begin.
func (c *Controller) Restore(snap model.Snapshot) error {
	if c.phase != Idle {
		return fmt.Errorf("round: restore after session start")
	}
	if snap.GameID != "" && c.cfg.GameID != "" && snap.GameID != c.cfg.GameID {
		return fmt.Errorf("round: snapshot for game %q, want %q", snap.GameID, c.cfg.GameID)
	}
	if err := c.ladder.Restore(snap.LevelIndex); err != nil {
		return fmt.Errorf("round: %w", err)
	}
	c.keeper.Restore(snap.Score)
	c.tracker.Restore(snap.Unlocked)
	if snap.SessionID != "" {
		c.sessionID = snap.SessionID
	}
	return nil
}

// Stats builds the snapshot achievement rules are evaluated against.
func (c *Controller) Stats() model.Stats {
	st := c.keeper.State()
	stats := model.Stats{
		TotalPoints:     st.TotalPoints,
		Streak:          st.CurrentStreak,
		BestStreak:      st.BestStreak,
		RoundsAttempted: st.RoundsAttempted,
		RoundsCorrect:   st.RoundsCorrect,
		Accuracy:        c.keeper.Accuracy(),
		LevelIndex:      c.ladder.Index(),
		LevelsCleared:   c.ladder.Cleared(),
		HintsUsed:       st.HintsUsed,
		Timeouts:        c.timeouts,
		TimeRemaining:   c.clock.Remaining().Seconds(),
		Completed:       c.ladder.Done(),
	}
	if c.last != nil {
		stats.LastRoundSeconds = c.last.Duration.Seconds()
	}
	if c.fastest > 0 {
		stats.FastestRoundSeconds = c.fastest.Seconds()
	}
	return stats
}

func (c *Controller) present(fresh bool) (clock.Schedule, bool) {
	lvl := c.ladder.Current()
	c.phase = Presenting
	c.selection = nil
	c.hintShown = false
	if fresh {
		ch, err := c.source.Challenge(lvl, c.rnd)
		if err == nil {
			c.validator, err = match.For(ch.Target, ch.Candidates)
		}
		if err != nil {
			c.loadErr = err
			c.phase = Idle
			c.feedback = fmt.Sprintf("could not load challenge: %v", err)
			return clock.Schedule{}, false
		}
		c.challenge = ch
		c.cleared = map[string]struct{}{}
	}
	c.loadErr = nil
	c.roundStarted = c.cfg.Now()
	c.phase = AwaitingInput
	if lvl.TimeLimitSeconds <= 0 {
		return clock.Schedule{}, false
	}
	if lvl.TimerScope != model.TimerScopeLevel {
		c.clock.Reset(lvl.TimeLimit())
	}
	return c.clock.Start(c.cfg.TickInterval)
}

func (c *Controller) resetLevelClock() {
	lvl := c.ladder.Current()
	c.clock.Reset(lvl.TimeLimit())
}

func (c *Controller) resolve(correct, timedOut bool) {
	c.clock.Pause()
	lvl := c.ladder.Current()
	now := c.cfg.Now()
	streakAfter := 0
	if correct {
		streakAfter = c.keeper.State().CurrentStreak + 1
	}
	outcome := model.RoundOutcome{
		LevelID:       lvl.ID,
		Correct:       correct,
		TimedOut:      timedOut,
		PointsAwarded: c.cfg.Scoring.Award(correct, streakAfter, c.clock.Remaining()),
		Selection:     append([]string(nil), c.selection...),
		Subjects:      c.subjects(),
		Duration:      now.Sub(c.roundStarted),
		Timestamp:     now,
	}
	if timedOut {
		c.timeouts++
	}
	if correct && (c.fastest == 0 || outcome.Duration < c.fastest) {
		c.fastest = outcome.Duration
	}
	if correct && c.challenge.Target.Mode == match.ModeGroup {
		for _, id := range c.selection {
			c.cleared[id] = struct{}{}
		}
	}
	c.history = append(c.history, outcome)
	c.last = &c.history[len(c.history)-1]

	c.keeper.RecordOutcome(outcome)
	c.events.push(OutcomeEvent{Level: lvl, Outcome: outcome})
	c.unlock()

	c.ladder.Record(outcome)
	if timedOut && lvl.TimerScope == model.TimerScopeLevel {
		c.next = c.ladder.Expire()
	} else {
		c.next = c.ladder.Evaluate()
	}
	if c.next != ladder.Continue {
		c.events.push(TransitionEvent{From: lvl, To: c.ladder.Current(), Transition: c.next})
		c.unlock()
	}
	c.feedback = feedbackFor(outcome, c.next)
	c.phase = Resolved
}

func (c *Controller) subjects() []string {
	if len(c.challenge.Subjects) > 0 {
		return append([]string(nil), c.challenge.Subjects...)
	}
	if len(c.selection) == 0 {
		return nil
	}
	for _, cand := range c.challenge.Candidates {
		if cand.ID == c.selection[0] && cand.Key != "" {
			return []string{cand.Key}
		}
	}
	return nil
}

func (c *Controller) unlock() {
	for _, rule := range c.tracker.Evaluate(c.Stats()) {
		c.events.push(AchievementEvent{Rule: rule})
	}
}

func (c *Controller) selectable(id string) bool {
	if _, ok := c.cleared[id]; ok {
		return false
	}
	// Sequence pads may be pressed more than once.
	if c.challenge.Target.Mode != match.ModeSequence {
		for _, sel := range c.selection {
			if sel == id {
				return false
			}
		}
	}
	for _, cand := range c.challenge.Candidates {
		if cand.ID == id {
			return true
		}
	}
	return false
}

// boardHasGroup reports whether a group board still holds a complete group.
func (c *Controller) boardHasGroup() bool {
	if c.challenge.Target.Mode != match.ModeGroup {
		return false
	}
	counts := map[string]int{}
	for _, cand := range c.challenge.Candidates {
		if _, ok := c.cleared[cand.ID]; ok {
			continue
		}
		counts[cand.Key]++
		if counts[cand.Key] >= c.challenge.Target.GroupSize {
			return true
		}
	}
	return false
}

func feedbackFor(outcome model.RoundOutcome, next ladder.Transition) string {
	var msg string
	switch {
	case outcome.TimedOut:
		msg = "Time is up."
	case outcome.Correct:
		msg = fmt.Sprintf("Match! +%d", outcome.PointsAwarded)
	case outcome.PointsAwarded < 0:
		msg = fmt.Sprintf("Not a match. %d", outcome.PointsAwarded)
	default:
		msg = "Not a match."
	}
	switch next {
	case ladder.Advanced:
		msg += " Level cleared!"
	case ladder.Completed:
		msg += " All levels complete!"
	case ladder.Failed:
		msg += " Level failed, try again."
	}
	return msg
}
