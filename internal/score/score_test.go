package score

import (
	"math/rand"
	"testing"
	"time"

	"github.com/verte-zerg/petrogames/internal/model"
)

func TestRecordOutcomeTracksStreak(t *testing.T) {
	k := NewKeeper()
	for _, correct := range []bool{true, true, false, true} {
		k.RecordOutcome(model.RoundOutcome{Correct: correct, PointsAwarded: 10})
	}
	st := k.State()
	if st.RoundsAttempted != 4 || st.RoundsCorrect != 3 {
		t.Fatalf("unexpected counters: %+v", st)
	}
	if st.CurrentStreak != 1 || st.BestStreak != 2 {
		t.Fatalf("unexpected streaks: %+v", st)
	}
	if st.TotalPoints != 40 {
		t.Fatalf("expected 40 points, got %d", st.TotalPoints)
	}
}

func TestPenaltyFloorAtZero(t *testing.T) {
	k := NewKeeper()
	k.RecordOutcome(model.RoundOutcome{Correct: true, PointsAwarded: 5})
	k.RecordOutcome(model.RoundOutcome{Correct: false, PointsAwarded: -20})
	if got := k.State().TotalPoints; got != 0 {
		t.Fatalf("expected points floored at 0, got %d", got)
	}
	k.RecordOutcome(model.RoundOutcome{Correct: true, PointsAwarded: 8})
	if removed := k.UseHint(20); removed != 8 {
		t.Fatalf("expected hint to remove 8 points, removed %d", removed)
	}
	st := k.State()
	if st.TotalPoints != 0 || st.HintsUsed != 1 || st.PenaltyPoints != 8 {
		t.Fatalf("unexpected state after hint: %+v", st)
	}
}

func TestRandomOutcomesNeverNegative(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	k := NewKeeper()
	for i := 0; i < 1000; i++ {
		pts := rnd.Intn(41) - 20
		k.RecordOutcome(model.RoundOutcome{Correct: pts > 0, PointsAwarded: pts})
		if rnd.Intn(5) == 0 {
			k.Penalize(rnd.Intn(30))
		}
		if k.State().TotalPoints < 0 {
			t.Fatalf("total points went negative at step %d", i)
		}
		acc := k.Accuracy()
		if acc < 0 || acc > 1 {
			t.Fatalf("accuracy out of range: %f", acc)
		}
	}
}

func TestAccuracy(t *testing.T) {
	k := NewKeeper()
	if k.Accuracy() != 0 {
		t.Fatalf("expected zero accuracy without attempts")
	}
	k.RecordOutcome(model.RoundOutcome{Correct: true})
	k.RecordOutcome(model.RoundOutcome{Correct: false})
	k.RecordOutcome(model.RoundOutcome{Correct: true})
	k.RecordOutcome(model.RoundOutcome{Correct: true})
	if got := k.Accuracy(); got != 0.75 {
		t.Fatalf("expected 0.75, got %f", got)
	}
}

func TestBonusForStreak(t *testing.T) {
	if got := BonusForStreak(6, 50); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := BonusForStreak(2, 50); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := BonusForStreak(-3, 50); got != 0 {
		t.Fatalf("expected 0 for negative streak, got %d", got)
	}
}

func TestScoringAward(t *testing.T) {
	s := Scoring{PointsCorrect: 10, PointsIncorrect: -5, BaseBonus: 50, TimeBonusPerSecond: 1}
	if got := s.Award(true, 3, 12500*time.Millisecond); got != 10+50+12 {
		t.Fatalf("unexpected award: %d", got)
	}
	if got := s.Award(false, 0, time.Minute); got != -5 {
		t.Fatalf("expected mismatch penalty, got %d", got)
	}
	positive := Scoring{PointsIncorrect: 3}
	if got := positive.Award(false, 0, 0); got != 0 {
		t.Fatalf("expected incorrect rounds never to earn points, got %d", got)
	}
}
