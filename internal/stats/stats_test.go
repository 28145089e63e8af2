package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/petrogames/internal/model"
)

func TestSessionMetrics(t *testing.T) {
	ppm, rpm, acc := SessionMetrics(3, 1, 60, 120000)
	if ppm != 30 || rpm != 2 || acc != 0.75 {
		t.Fatalf("unexpected metrics %v %v %v", ppm, rpm, acc)
	}
	if ppm, _, acc := SessionMetrics(0, 0, 0, 0); ppm != 0 || acc != 0 {
		t.Fatalf("expected zero metrics for empty session")
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: want %v got %v", i, want[i], got[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 7}); got != "▁█" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "▅▅▅" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}

func TestRenderSummaryAndTable(t *testing.T) {
	var buf bytes.Buffer
	sessions := []model.SessionAggregate{
		{SessionID: "a", GameID: "memory", EndedAt: time.Unix(0, 0), Correct: 4, Incorrect: 1, Points: 50, LevelReached: 1, DurationMs: 60000},
		{SessionID: "b", GameID: "sound", EndedAt: time.Unix(60, 0), Correct: 2, Incorrect: 2, Points: 20, DurationMs: 60000},
	}
	if err := RenderSummary(&buf, sessions); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if err := RenderItemTable(&buf, []model.ItemAggregate{{Key: "sun", Correct: 1, Incorrect: 1}}); err != nil {
		t.Fatalf("table: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2 (2 games)", "Best score: 50", "Highest level: 2", "Avg accuracy: 65.00%", "sun"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
