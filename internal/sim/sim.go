// Package sim plays a game headlessly with a simulated player.
//
// It drives a round controller the way the TUI does, delivering clock ticks and
// Continue calls itself, so a whole session runs without a terminal. The result is a
// pure function of the game definition and the options.
package sim

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/verte-zerg/petrogames/internal/catalog"
	"github.com/verte-zerg/petrogames/internal/clock"
	"github.com/verte-zerg/petrogames/internal/generator"
	"github.com/verte-zerg/petrogames/internal/match"
	"github.com/verte-zerg/petrogames/internal/model"
	"github.com/verte-zerg/petrogames/internal/round"
	"github.com/verte-zerg/petrogames/internal/stats"
)

// Options tunes the simulated player.
type Options struct {
	Rounds   int
	Skill    float64
	HintRate float64
	// MaxThink is the longest simulated answer time in clock ticks.
	MaxThink int
	Seed     int64
}

// Result summarizes a simulated session.
type Result struct {
	GameID       string
	SessionID    string
	Rounds       int
	Correct      int
	Timeouts     int
	TotalPoints  int
	BestStreak   int
	HintsUsed    int
	LevelReached int
	LevelName    string
	Completed    bool
	Transitions  []string
	Unlocked     []string
	Points       []float64
	Dropped      int
}

// recorder keeps the last challenge so the player can see the answer.
type recorder struct {
	src  round.Source
	last round.Challenge
}

func (r *recorder) Challenge(level model.Level, rnd *rand.Rand) (round.Challenge, error) {
	ch, err := r.src.Challenge(level, rnd)
	if err == nil {
		r.last = ch
	}
	return ch, err
}

// Run plays game until it is completed or opts.Rounds rounds were resolved.
func Run(game catalog.Game, opts Options) (Result, error) {
	if opts.Rounds <= 0 {
		return Result{}, fmt.Errorf("sim: rounds must be positive")
	}
	if opts.Skill < 0 || opts.Skill > 1 {
		return Result{}, fmt.Errorf("sim: skill %.2f outside [0,1]", opts.Skill)
	}
	if opts.MaxThink <= 0 {
		opts.MaxThink = 3
	}
	rules, err := game.Rules()
	if err != nil {
		return Result{}, err
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := &recorder{src: generator.New(game)}
	ctrl, err := round.New(round.Config{
		GameID:  game.ID,
		Levels:  game.LevelList(),
		Rules:   rules,
		Scoring: game.Policy(),
		Now:     func() time.Time { return now },
	}, rec, rand.New(rand.NewSource(opts.Seed)))
	if err != nil {
		return Result{}, err
	}
	player := rand.New(rand.NewSource(opts.Seed + 1))
	res := Result{GameID: game.ID, SessionID: ctrl.SessionID()}

	sched, ticking := ctrl.Begin()
	for len(ctrl.History()) < opts.Rounds {
		switch ctrl.Phase() {
		case round.AwaitingInput:
			think := 1 + player.Intn(opts.MaxThink)
			for i := 0; i < think && ticking && ctrl.Phase() == round.AwaitingInput; i++ {
				now = now.Add(sched.Interval)
				sched, ticking = ctrl.Tick(sched.Gen)
			}
			if ctrl.Phase() != round.AwaitingInput {
				continue
			}
			if player.Float64() < opts.HintRate {
				ctrl.Hint()
			}
			answer(ctrl, rec.last, player.Float64() < opts.Skill, player)
			if ctrl.Phase() == round.AwaitingInput {
				// No wrong answer exists on this board; let the clock run out.
				expire(ctrl, &sched, &ticking, &now)
			}
			if ctrl.Phase() == round.AwaitingInput {
				return finish(ctrl, res), fmt.Errorf("sim: round %d cannot be resolved", len(ctrl.History())+1)
			}
		case round.Resolved:
			collect(ctrl, &res)
			sched, ticking = ctrl.Continue()
		default:
			collect(ctrl, &res)
			return finish(ctrl, res), ctrl.Err()
		}
	}
	collect(ctrl, &res)
	return finish(ctrl, res), nil
}

func expire(ctrl *round.Controller, sched *clock.Schedule, ticking *bool, now *time.Time) {
	for *ticking && ctrl.Phase() == round.AwaitingInput {
		*now = now.Add(sched.Interval)
		*sched, *ticking = ctrl.Tick(sched.Gen)
	}
	if ctrl.Phase() == round.AwaitingInput {
		// Untimed level: give up with any selection.
		for _, c := range ctrl.Snapshot().Candidates {
			ctrl.Select(c.ID)
		}
	}
}

// answer selects a right or wrong answer for the current board.
func answer(ctrl *round.Controller, ch round.Challenge, right bool, rnd *rand.Rand) {
	v := ctrl.Snapshot()
	var open []model.Candidate
	for _, c := range v.Candidates {
		if !v.Cleared[c.ID] {
			open = append(open, c)
		}
	}
	rnd.Shuffle(len(open), func(i, j int) { open[i], open[j] = open[j], open[i] })
	for _, id := range pick(ch.Target, open, right) {
		ctrl.Select(id)
	}
}

func pick(target match.Target, open []model.Candidate, right bool) []string {
	switch target.Mode {
	case match.ModeCategory:
		for _, c := range open {
			if (c.Category == target.Category) == right {
				return []string{c.ID}
			}
		}
	case match.ModeGroup:
		byKey := map[string][]string{}
		for _, c := range open {
			byKey[c.Key] = append(byKey[c.Key], c.ID)
		}
		if right {
			for _, c := range open {
				if ids := byKey[c.Key]; len(ids) >= target.GroupSize {
					return ids[:target.GroupSize]
				}
			}
			return nil
		}
		for _, c := range open {
			for _, d := range open {
				if c.Key != d.Key {
					return groupMiss(c, d, byKey, target.GroupSize)
				}
			}
		}
	case match.ModeSequence:
		bySymbol := map[string]string{}
		for _, c := range open {
			bySymbol[c.Symbol] = c.ID
		}
		ids := make([]string, 0, len(target.Sequence))
		for _, s := range target.Sequence {
			ids = append(ids, bySymbol[s])
		}
		if right || len(ids) == 0 {
			return ids
		}
		for _, c := range open {
			if c.Symbol != target.Sequence[0] {
				ids[0] = c.ID
				return ids
			}
		}
	}
	return nil
}

// groupMiss fills a group selection that mixes two keys.
func groupMiss(c, d model.Candidate, byKey map[string][]string, size int) []string {
	ids := []string{c.ID, d.ID}
	for _, id := range byKey[c.Key] {
		if len(ids) >= size {
			break
		}
		if id != c.ID {
			ids = append(ids, id)
		}
	}
	return ids
}

func collect(ctrl *round.Controller, res *Result) {
	for _, ev := range ctrl.Events() {
		switch ev := ev.(type) {
		case round.OutcomeEvent:
			res.Points = append(res.Points, float64(ev.Outcome.PointsAwarded))
			if ev.Outcome.TimedOut {
				res.Timeouts++
			}
		case round.TransitionEvent:
			res.Transitions = append(res.Transitions, fmt.Sprintf("%s: %s -> %s", ev.Transition, ev.From.ID, ev.To.ID))
		case round.AchievementEvent:
			res.Unlocked = append(res.Unlocked, ev.Rule.ID)
		}
	}
}

func finish(ctrl *round.Controller, res Result) Result {
	v := ctrl.Snapshot()
	res.Rounds = v.Score.RoundsAttempted
	res.Correct = v.Score.RoundsCorrect
	res.TotalPoints = v.Score.TotalPoints
	res.BestStreak = v.Score.BestStreak
	res.HintsUsed = v.Score.HintsUsed
	res.LevelReached = v.LevelIndex
	res.LevelName = v.Level.Name
	res.Completed = v.Phase == round.Completed
	res.Dropped = ctrl.DroppedEvents()
	return res
}

// Render prints a human readable summary.
func Render(w io.Writer, res Result) error {
	acc := 0.0
	if res.Rounds > 0 {
		acc = float64(res.Correct) / float64(res.Rounds) * 100
	}
	lines := []string{
		fmt.Sprintf("Game: %s", res.GameID),
		fmt.Sprintf("Rounds: %d (%d correct, %.1f%%, %d timeouts)", res.Rounds, res.Correct, acc, res.Timeouts),
		fmt.Sprintf("Score: %d  Best streak: %d  Hints: %d", res.TotalPoints, res.BestStreak, res.HintsUsed),
		fmt.Sprintf("Level reached: %d %s  Completed: %t", res.LevelReached+1, res.LevelName, res.Completed),
		fmt.Sprintf("Points per round: %s", stats.Sparkline(res.Points)),
	}
	if len(res.Transitions) > 0 {
		lines = append(lines, "Transitions: "+strings.Join(res.Transitions, ", "))
	}
	if len(res.Unlocked) > 0 {
		lines = append(lines, "Achievements: "+strings.Join(res.Unlocked, ", "))
	}
	if res.Dropped > 0 {
		lines = append(lines, fmt.Sprintf("Dropped events: %d", res.Dropped))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
