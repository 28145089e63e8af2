package round

import (
	"time"

	"github.com/verte-zerg/petrogames/internal/ladder"
	"github.com/verte-zerg/petrogames/internal/model"
)

// View is the render state handed to the host.
type View struct {
	GameID        string
	Phase         Phase
	Level         model.Level
	LevelIndex    int
	LevelCount    int
	Progress      ladder.Progress
	TimeRemaining time.Duration
	TimeLimit     time.Duration
	TimerRunning  bool
	Score         model.ScoreState
	Accuracy      float64
	Prompt        string
	Candidates    []model.Candidate
	Cleared       map[string]bool
	Selection     []string
	Required      int
	Feedback      string
	LastOutcome   *model.RoundOutcome
	Next          ladder.Transition
	HintAvailable bool
	Unlocked      []string
}

// Snapshot returns the current render state.
func (c *Controller) Snapshot() View {
	lvl := c.ladder.Current()
	v := View{
		GameID:        c.cfg.GameID,
		Phase:         c.phase,
		Level:         lvl,
		LevelIndex:    c.ladder.Index(),
		LevelCount:    c.ladder.Len(),
		Progress:      c.ladder.Progress(),
		TimeRemaining: c.clock.Remaining(),
		TimeLimit:     lvl.TimeLimit(),
		TimerRunning:  c.clock.Running(),
		Score:         c.keeper.State(),
		Accuracy:      c.keeper.Accuracy(),
		Prompt:        c.challenge.Prompt,
		Candidates:    append([]model.Candidate(nil), c.challenge.Candidates...),
		Cleared:       make(map[string]bool, len(c.cleared)),
		Selection:     append([]string(nil), c.selection...),
		Feedback:      c.feedback,
		Next:          c.next,
		HintAvailable: c.phase == AwaitingInput && !c.hintShown && c.challenge.Hint != "",
		Unlocked:      c.tracker.Unlocked(),
	}
	for id := range c.cleared {
		v.Cleared[id] = true
	}
	if c.validator != nil {
		v.Required = c.validator.Required()
	}
	if c.last != nil {
		last := *c.last
		v.LastOutcome = &last
	}
	return v
}
