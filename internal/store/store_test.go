package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/petrogames/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "petrogames.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return s
}

func session(id, game string, ended time.Time, correct, missed int) model.SessionStats {
	return model.SessionStats{
		ID:            id,
		GameID:        game,
		StartedAt:     ended.Add(-time.Minute),
		EndedAt:       ended,
		Seed:          1,
		LevelReached:  1,
		TotalPoints:   correct * 10,
		RoundsCorrect: correct,
		RoundsMissed:  missed,
		DurationMs:    60000,
	}
}

func TestInsertAndListSessions(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	items := []model.ItemStats{
		{Key: "spiral", Correct: 3, Incorrect: 1, LatencySumMs: 4000, LatencyCount: 4},
		{Key: "sun", Correct: 1, Incorrect: 2, LatencySumMs: 3000, LatencyCount: 3},
	}
	if err := s.InsertSession(ctx, session("a", "memory", base, 4, 3), items, nil); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := s.InsertSession(ctx, session("b", "memory", base.Add(time.Hour), 5, 0), items[:1], nil); err != nil {
		t.Fatalf("insert b: %v", err)
	}
	if err := s.InsertSession(ctx, session("c", "sound", base.Add(2*time.Hour), 2, 2), nil, nil); err != nil {
		t.Fatalf("insert c: %v", err)
	}

	all, err := s.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].SessionID != "a" || all[2].SessionID != "c" {
		t.Fatalf("unexpected sessions: %+v", all)
	}
	mem, err := s.ListSessions(ctx, model.StatsConfig{Game: "memory", Last: 1})
	if err != nil {
		t.Fatalf("list memory: %v", err)
	}
	if len(mem) != 1 || mem[0].SessionID != "b" || mem[0].Points != 50 {
		t.Fatalf("unexpected filtered sessions: %+v", mem)
	}
	since := base.Add(90 * time.Minute)
	recent, err := s.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 1 || recent[0].GameID != "sound" {
		t.Fatalf("unexpected since filter: %+v", recent)
	}

	aggs, err := s.ListItemAggregatesForSessions(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	byKey := map[string]model.ItemAggregate{}
	for _, a := range aggs {
		byKey[a.Key] = a
	}
	if byKey["spiral"].Correct != 6 || byKey["sun"].Incorrect != 2 {
		t.Fatalf("unexpected aggregates: %+v", byKey)
	}

	per, err := s.ListItemStatsForSessions(ctx, []string{"a", "b"}, []string{"sun"})
	if err != nil {
		t.Fatalf("per session: %v", err)
	}
	if len(per["a"]) != 1 || len(per["b"]) != 0 {
		t.Fatalf("unexpected per-session stats: %+v", per)
	}

	weak, err := s.GetWeakItems(ctx, 1, "memory")
	if err != nil {
		t.Fatalf("weak: %v", err)
	}
	if len(weak) != 1 || weak[0].Key != "spiral" {
		t.Fatalf("expected only the latest memory session, got %+v", weak)
	}
}

func TestInsertSessionContinuesExisting(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	now := time.Now().UTC()
	items := []model.ItemStats{{Key: "sun", Correct: 1, LatencySumMs: 500, LatencyCount: 1}}
	if err := s.InsertSession(ctx, session("resumed", "memory", now, 1, 0), items, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	later := session("resumed", "memory", now.Add(time.Hour), 3, 1)
	later.Completed = true
	items = []model.ItemStats{{Key: "sun", Correct: 2, Incorrect: 1, LatencySumMs: 1500, LatencyCount: 3}}
	if err := s.InsertSession(ctx, later, items, nil); err != nil {
		t.Fatalf("insert again: %v", err)
	}
	sessions, err := s.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Correct != 3 || sessions[0].DurationMs != 120000 {
		t.Fatalf("expected one merged session, got %+v", sessions)
	}
	aggs, err := s.ListItemAggregatesForSessions(ctx, []string{"resumed"})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Correct != 3 || aggs[0].Incorrect != 1 || aggs[0].LatencyCount != 4 {
		t.Fatalf("expected accumulated item stats, got %+v", aggs)
	}
}

func TestAchievementsKeepFirstUnlock(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	first := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := model.AchievementRecord{GameID: "memory", ID: "first_pair", Title: "First pair", SessionID: "a", UnlockedAt: first}
	if err := s.InsertSession(ctx, session("a", "memory", first, 1, 0), nil, []model.AchievementRecord{rec}); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	rec.SessionID = "b"
	rec.UnlockedAt = first.Add(time.Hour)
	if err := s.InsertSession(ctx, session("b", "memory", first.Add(time.Hour), 1, 0), nil, []model.AchievementRecord{rec}); err != nil {
		t.Fatalf("insert b: %v", err)
	}
	got, err := s.ListAchievements(ctx, "memory")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].SessionID != "a" || !got[0].UnlockedAt.Equal(first) {
		t.Fatalf("expected the first unlock to be kept, got %+v", got)
	}
	other, err := s.ListAchievements(ctx, "sound")
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no achievements for sound")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if _, ok, err := s.LoadSnapshot(ctx, "memory"); err != nil || ok {
		t.Fatalf("expected no snapshot, got ok=%v err=%v", ok, err)
	}
	snap := model.Snapshot{
		GameID:     "memory",
		SessionID:  "abc",
		Score:      model.ScoreState{TotalPoints: 40, RoundsAttempted: 5, RoundsCorrect: 4, BestStreak: 3},
		Unlocked:   []string{"first_pair"},
		LevelIndex: 1,
		SavedAt:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap.LevelIndex = 2
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, ok, err := s.LoadSnapshot(ctx, "memory")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.LevelIndex != 2 || got.Score != snap.Score || len(got.Unlocked) != 1 || !got.SavedAt.Equal(snap.SavedAt) {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if err := s.DeleteSnapshot(ctx, "memory"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.LoadSnapshot(ctx, "memory"); ok {
		t.Fatalf("expected snapshot to be deleted")
	}
}
