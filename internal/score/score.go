// Package score tracks points, streaks and accuracy for a play session.
package score

import (
	"time"

	"github.com/verte-zerg/petrogames/internal/model"
)

// StreakStep is the number of consecutive correct rounds per bonus step.
const StreakStep = 3

// Keeper accumulates round outcomes into a ScoreState.
type Keeper struct {
	state model.ScoreState
}

// NewKeeper returns an empty keeper.
func NewKeeper() *Keeper {
	return &Keeper{}
}

// RecordOutcome applies a round outcome. Total points never drop below zero.
func (k *Keeper) RecordOutcome(outcome model.RoundOutcome) {
	k.state.TotalPoints = floorZero(k.state.TotalPoints + outcome.PointsAwarded)
	k.state.RoundsAttempted++
	if outcome.Correct {
		k.state.RoundsCorrect++
		k.state.CurrentStreak++
		if k.state.CurrentStreak > k.state.BestStreak {
			k.state.BestStreak = k.state.CurrentStreak
		}
		return
	}
	k.state.CurrentStreak = 0
}

// Penalize subtracts a penalty outside of a round, such as a hint cost.
// It returns the points actually removed.
func (k *Keeper) Penalize(points int) int {
	if points <= 0 {
		return 0
	}
	before := k.state.TotalPoints
	k.state.TotalPoints = floorZero(before - points)
	removed := before - k.state.TotalPoints
	k.state.PenaltyPoints += removed
	return removed
}

// UseHint records a hint and charges its cost.
func (k *Keeper) UseHint(cost int) int {
	k.state.HintsUsed++
	return k.Penalize(cost)
}

// Accuracy returns correct/attempted, or 0 before any attempt.
func (k *Keeper) Accuracy() float64 {
	return Accuracy(k.state.RoundsCorrect, k.state.RoundsAttempted)
}

// State returns a copy of the current score.
func (k *Keeper) State() model.ScoreState {
	return k.state
}

// Restore replaces the score with a saved one.
func (k *Keeper) Restore(state model.ScoreState) {
	state.TotalPoints = floorZero(state.TotalPoints)
	k.state = state
}

// Reset clears the score.
func (k *Keeper) Reset() {
	k.state = model.ScoreState{}
}

// BonusForStreak returns floor(streak/3) * baseBonus. It is never negative.
func BonusForStreak(streak, baseBonus int) int {
	if streak <= 0 || baseBonus <= 0 {
		return 0
	}
	return (streak / StreakStep) * baseBonus
}

// Accuracy returns correct/attempted clamped to [0,1], or 0 when attempted is 0.
func Accuracy(correct, attempted int) float64 {
	if attempted <= 0 || correct <= 0 {
		return 0
	}
	if correct >= attempted {
		return 1
	}
	return float64(correct) / float64(attempted)
}

// Scoring is a per-game points policy.
type Scoring struct {
	PointsCorrect      int
	PointsIncorrect    int
	BaseBonus          int
	HintCost           int
	TimeBonusPerSecond int
}

// Award returns the points of one round. streak is the streak including this round
// when it was correct. remaining is the countdown left when the round resolved.
func (s Scoring) Award(correct bool, streak int, remaining time.Duration) int {
	if !correct {
		if s.PointsIncorrect > 0 {
			return 0
		}
		return s.PointsIncorrect
	}
	points := s.PointsCorrect + BonusForStreak(streak, s.BaseBonus)
	if s.TimeBonusPerSecond > 0 && remaining > 0 {
		points += int(remaining/time.Second) * s.TimeBonusPerSecond
	}
	return points
}

func floorZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
