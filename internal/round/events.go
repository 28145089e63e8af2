package round

import (
	"github.com/verte-zerg/petrogames/internal/achievement"
	"github.com/verte-zerg/petrogames/internal/ladder"
	"github.com/verte-zerg/petrogames/internal/model"
)

// DefaultEventBuffer bounds the event queue when Config.EventBuffer is unset.
const DefaultEventBuffer = 64

// Event is a notification for the host. Events are derived from engine state, so a
// dropped event never corrupts the session.
type Event interface {
	event()
}

// OutcomeEvent reports a resolved round.
type OutcomeEvent struct {
	Level   model.Level
	Outcome model.RoundOutcome
}

// TransitionEvent reports a ladder decision other than Continue.
type TransitionEvent struct {
	From       model.Level
	To         model.Level
	Transition ladder.Transition
}

// AchievementEvent reports a newly unlocked achievement.
type AchievementEvent struct {
	Rule achievement.Rule
}

func (OutcomeEvent) event()     {}
func (TransitionEvent) event()  {}
func (AchievementEvent) event() {}

type eventQueue struct {
	max     int
	items   []Event
	dropped int
}

func (q *eventQueue) push(ev Event) {
	if q.max <= 0 {
		q.max = DefaultEventBuffer
	}
	if len(q.items) >= q.max {
		q.items = q.items[1:]
		q.dropped++
	}
	q.items = append(q.items, ev)
}

func (q *eventQueue) drain() []Event {
	out := q.items
	q.items = nil
	return out
}
