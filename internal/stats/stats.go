// Package stats computes session metrics and renders text reports.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/petrogames/internal/model"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// SessionMetrics returns points per minute, rounds per minute and accuracy.
func SessionMetrics(correct, incorrect, points int, durationMs int64) (pointsPerMin, roundsPerMin, accuracy float64) {
	if total := correct + incorrect; total > 0 {
		accuracy = float64(correct) / float64(total)
	}
	if durationMs <= 0 {
		return 0, 0, accuracy
	}
	minutes := float64(durationMs) / 60000.0
	return float64(points) / minutes, float64(correct+incorrect) / minutes, accuracy
}

// MovingAverage computes a trailing mean over window values. Early points
// average over what is available.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders values as a row of block characters.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := seriesRange(values)
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkBlocks[len(sparkBlocks)/2]), len(values))
	}
	var b strings.Builder
	top := float64(len(sparkBlocks) - 1)
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * top))
		b.WriteRune(sparkBlocks[clamp(idx, 0, len(sparkBlocks)-1)])
	}
	return b.String()
}

// RenderSummary prints totals across sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalPPM, totalAcc float64
	bestPoints, bestLevel := 0, 0
	games := map[string]struct{}{}
	for _, s := range sessions {
		ppm, _, acc := SessionMetrics(s.Correct, s.Incorrect, s.Points, s.DurationMs)
		totalPPM += ppm
		totalAcc += acc
		if s.Points > bestPoints {
			bestPoints = s.Points
		}
		if s.LevelReached > bestLevel {
			bestLevel = s.LevelReached
		}
		games[s.GameID] = struct{}{}
	}
	count := float64(len(sessions))
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d (%d games)", len(sessions), len(games)),
		fmt.Sprintf("Avg points/min: %.2f", totalPPM/count),
		fmt.Sprintf("Best score: %d", bestPoints),
		fmt.Sprintf("Highest level: %d", bestLevel+1),
		fmt.Sprintf("Avg accuracy: %.2f%%", totalAcc/count*100),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints learning curves for points per minute and accuracy.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, totalWidth, height int) error {
	if len(sessions) == 0 {
		return nil
	}
	ppm := make([]float64, len(sessions))
	accs := make([]float64, len(sessions))
	for i, s := range sessions {
		p, _, acc := SessionMetrics(s.Correct, s.Incorrect, s.Points, s.DurationMs)
		ppm[i] = p
		accs[i] = acc * 100
	}
	return PlotSeries(w, "Learning Curves", []Series{
		{Name: "Points/min", Values: MovingAverage(ppm, window)},
		{Name: "Accuracy", Values: MovingAverage(accs, window)},
	}, widthFor(totalWidth), height)
}

// RenderItemTable prints per-item aggregates, weakest first.
func RenderItemTable(w io.Writer, aggs []model.ItemAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No item stats found.")
		return err
	}
	sorted := append([]model.ItemAggregate(nil), aggs...)
	sort.Slice(sorted, func(i, j int) bool {
		ai, aj := itemAccuracy(sorted[i]), itemAccuracy(sorted[j])
		if ai == aj {
			return sorted[i].Key < sorted[j].Key
		}
		return ai < aj
	})

	headers := []string{"Item", "Accuracy", "Avg Time (s)", "Correct", "Missed"}
	rows := make([][]string, 0, len(sorted))
	for _, agg := range sorted {
		latency := 0.0
		if agg.LatencyCount > 0 {
			latency = float64(agg.LatencySumMs) / float64(agg.LatencyCount) / 1000
		}
		rows = append(rows, []string{
			agg.Key,
			fmt.Sprintf("%.1f%%", itemAccuracy(agg)*100),
			fmt.Sprintf("%.1f", latency),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
		})
	}
	if _, err := fmt.Fprintln(w, "Per-Item (Windowed)"); err != nil {
		return err
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderItemCurves prints accuracy and answer time curves for selected items.
func RenderItemCurves(w io.Writer, sessions []model.SessionAggregate, perSession map[string]map[string]model.ItemAggregate, items []string, window, totalWidth, height int) error {
	if len(items) == 0 || len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Item Curves"); err != nil {
		return err
	}
	for _, key := range items {
		acc := make([]float64, len(sessions))
		lat := make([]float64, len(sessions))
		for i, s := range sessions {
			agg, ok := perSession[s.SessionID][key]
			if !ok {
				continue
			}
			acc[i] = itemAccuracy(agg) * 100
			if agg.LatencyCount > 0 {
				lat[i] = float64(agg.LatencySumMs) / float64(agg.LatencyCount) / 1000
			}
		}
		if err := PlotSeries(w, "Item "+key, []Series{
			{Name: "Accuracy", Values: MovingAverage(acc, window)},
			{Name: "Seconds", Values: MovingAverage(lat, window)},
		}, widthFor(totalWidth), height); err != nil {
			return err
		}
	}
	return nil
}

// RenderAchievements lists recorded unlocks.
func RenderAchievements(w io.Writer, records []model.AchievementRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No achievements yet.")
		return err
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		title := r.Title
		if title == "" {
			title = r.ID
		}
		rows = append(rows, []string{r.GameID, title, r.UnlockedAt.Local().Format("2006-01-02 15:04")})
	}
	for _, line := range formatTable([]string{"Game", "Achievement", "Unlocked"}, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func itemAccuracy(agg model.ItemAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}

func widthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return 0
	}
	return PlotWidthFor(totalWidth)
}

func seriesRange(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
