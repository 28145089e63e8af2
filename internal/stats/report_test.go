package stats

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/petrogames/internal/model"
	"github.com/verte-zerg/petrogames/internal/store"
)

func TestBuildReport(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "petrogames.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		end := start.Add(30 * time.Second)
		session := model.SessionStats{
			ID:            fmt.Sprintf("s%d", i),
			GameID:        "memory",
			StartedAt:     start,
			EndedAt:       end,
			TotalPoints:   40,
			RoundsCorrect: 4,
			RoundsMissed:  1,
			DurationMs:    end.Sub(start).Milliseconds(),
		}
		items := []model.ItemStats{
			{Key: "sun", Correct: 3},
			{Key: "bighorn", Correct: 1, Incorrect: 1},
		}
		var unlocked []model.AchievementRecord
		if i == 0 {
			unlocked = []model.AchievementRecord{{GameID: "memory", ID: "first_pair", SessionID: session.ID, UnlockedAt: end}}
		}
		if err := st.InsertSession(ctx, session, items, unlocked); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Game: "memory", Last: 2, CurveWindow: 1})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 || report.Sessions[0].SessionID != "s1" || report.Sessions[1].SessionID != "s2" {
		t.Fatalf("unexpected sessions: %+v", report.Sessions)
	}
	if len(report.WindowSessionIDs) != 1 || report.WindowSessionIDs[0] != "s2" {
		t.Fatalf("unexpected window: %v", report.WindowSessionIDs)
	}
	if len(report.ItemAggsAll) != 2 || len(report.ItemAggsWindow) != 2 {
		t.Fatalf("expected item aggregates, got %d/%d", len(report.ItemAggsAll), len(report.ItemAggsWindow))
	}
	if len(report.Achievements) != 1 {
		t.Fatalf("expected one achievement, got %d", len(report.Achievements))
	}
}
