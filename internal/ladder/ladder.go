// Package ladder implements the difficulty ladder state machine.
package ladder

import (
	"fmt"
	"sort"

	"github.com/verte-zerg/petrogames/internal/model"
)

// Transition is the result of evaluating the current level.
type Transition int

const (
	// Continue means the round batch is still in progress.
	Continue Transition = iota
	// Advanced means the level was cleared and the next one is current.
	Advanced
	// Completed means the last level was cleared.
	Completed
	// Failed means the batch ended without meeting the requirement.
	Failed
)

func (t Transition) String() string {
	switch t {
	case Advanced:
		return "advanced"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "continue"
	}
}

// Progress holds the per-level counters.
type Progress struct {
	Attempted int
	Correct   int
	Points    int
}

// Ladder walks an ordered list of levels strictly forward.
type Ladder struct {
	levels   []model.Level
	index    int
	progress Progress
	cleared  int
	done     bool
	failed   bool
}

// New validates and orders the levels.
func New(levels []model.Level) (*Ladder, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("ladder has no levels")
	}
	ordered := make([]model.Level, len(levels))
	copy(ordered, levels)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})
	seenIDs := make(map[string]struct{}, len(ordered))
	for i, lvl := range ordered {
		if err := validateLevel(lvl); err != nil {
			return nil, err
		}
		if _, ok := seenIDs[lvl.ID]; ok {
			return nil, fmt.Errorf("duplicate level id %q", lvl.ID)
		}
		seenIDs[lvl.ID] = struct{}{}
		if i > 0 && ordered[i-1].Order == lvl.Order {
			return nil, fmt.Errorf("levels %q and %q share order %d", ordered[i-1].ID, lvl.ID, lvl.Order)
		}
	}
	return &Ladder{levels: ordered}, nil
}

func validateLevel(lvl model.Level) error {
	if lvl.ID == "" {
		return fmt.Errorf("level at order %d has no id", lvl.Order)
	}
	if lvl.RequiredScore < 0 || lvl.RequiredRounds < 0 || lvl.TimeLimitSeconds < 0 {
		return fmt.Errorf("level %q has negative thresholds", lvl.ID)
	}
	switch lvl.ScoreBasis {
	case "", model.ScoreBasisCorrect:
		if lvl.RequiredRounds > 0 && lvl.RequiredScore > lvl.RequiredRounds {
			return fmt.Errorf("level %q requires %d correct rounds out of %d", lvl.ID, lvl.RequiredScore, lvl.RequiredRounds)
		}
	case model.ScoreBasisPoints:
	default:
		return fmt.Errorf("level %q has unknown score basis %q", lvl.ID, lvl.ScoreBasis)
	}
	switch lvl.TimerScope {
	case "", model.TimerScopeRound, model.TimerScopeLevel:
	default:
		return fmt.Errorf("level %q has unknown timer scope %q", lvl.ID, lvl.TimerScope)
	}
	if lvl.RequiredRounds == 0 && lvl.RequiredScore == 0 {
		return fmt.Errorf("level %q has neither a score nor a round requirement", lvl.ID)
	}
	return nil
}

// Current returns the current level.
func (l *Ladder) Current() model.Level {
	return l.levels[l.index]
}

// Index returns the current level index.
func (l *Ladder) Index() int {
	return l.index
}

// Len returns the number of levels.
func (l *Ladder) Len() int {
	return len(l.levels)
}

// Levels returns a copy of the ordered levels.
func (l *Ladder) Levels() []model.Level {
	out := make([]model.Level, len(l.levels))
	copy(out, l.levels)
	return out
}

// Progress returns the counters of the current level.
func (l *Ladder) Progress() Progress {
	return l.progress
}

// Cleared returns the number of levels cleared.
func (l *Ladder) Cleared() int {
	return l.cleared
}

// Done reports whether the last level was cleared.
func (l *Ladder) Done() bool {
	return l.done
}

// Record adds a round outcome to the current level counters.
func (l *Ladder) Record(outcome model.RoundOutcome) {
	if l.done || l.failed {
		return
	}
	l.progress.Attempted++
	if outcome.Correct {
		l.progress.Correct++
	}
	l.progress.Points += outcome.PointsAwarded
	if l.progress.Points < 0 {
		l.progress.Points = 0
	}
}

// Evaluate checks the current level after a round and applies the transition.
func (l *Ladder) Evaluate() Transition {
	if l.done {
		return Completed
	}
	if l.failed {
		return Failed
	}
	lvl := l.Current()
	met := l.met(lvl)
	if lvl.RequiredRounds > 0 {
		if l.progress.Attempted < lvl.RequiredRounds {
			return Continue
		}
		if !met {
			l.failed = true
			return Failed
		}
		return l.advance()
	}
	if met {
		return l.advance()
	}
	return Continue
}

// Expire ends the current batch early, as when a level-wide countdown runs out.
func (l *Ladder) Expire() Transition {
	if l.done {
		return Completed
	}
	if l.failed {
		return Failed
	}
	lvl := l.Current()
	if l.met(lvl) && l.progress.Attempted >= lvl.RequiredRounds {
		return l.advance()
	}
	l.failed = true
	return Failed
}

// Retry restarts the current level with zeroed counters.
func (l *Ladder) Retry() {
	if l.done {
		return
	}
	l.failed = false
	l.progress = Progress{}
}

// Reset returns to the first level.
func (l *Ladder) Reset() {
	l.index = 0
	l.cleared = 0
	l.done = false
	l.failed = false
	l.progress = Progress{}
}

// Restore jumps to a saved level index.
func (l *Ladder) Restore(index int) error {
	if index < 0 || index >= len(l.levels) {
		return fmt.Errorf("level index %d out of range [0,%d)", index, len(l.levels))
	}
	l.Reset()
	l.index = index
	l.cleared = index
	return nil
}

func (l *Ladder) met(lvl model.Level) bool {
	value := l.progress.Correct
	if lvl.ScoreBasis == model.ScoreBasisPoints {
		value = l.progress.Points
	}
	return value >= lvl.RequiredScore
}

func (l *Ladder) advance() Transition {
	l.cleared++
	l.progress = Progress{}
	if l.index == len(l.levels)-1 {
		l.done = true
		return Completed
	}
	l.index++
	return Advanced
}
