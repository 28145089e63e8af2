package achievement

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"

	"github.com/verte-zerg/petrogames/internal/model"
)

const resultVar = "__unlocked"

// ExprVars lists the variables visible to rule expressions.
var ExprVars = []string{
	"points",
	"streak",
	"best_streak",
	"rounds",
	"correct",
	"accuracy",
	"level",
	"levels_cleared",
	"hints",
	"timeouts",
	"last_round_seconds",
	"fastest_round_seconds",
	"time_remaining",
	"completed",
}

// CompileExpr builds a rule from a tengo boolean expression such as
// "streak >= 5 && accuracy >= 0.8". Runtime errors make the predicate false.
func CompileExpr(id, title, expr string) (Rule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Rule{}, fmt.Errorf("achievement %q: empty expression", id)
	}
	script := tengo.NewScript([]byte(fmt.Sprintf("%s := (%s)", resultVar, expr)))
	for name, value := range exprValues(model.Stats{}) {
		if err := script.Add(name, value); err != nil {
			return Rule{}, fmt.Errorf("achievement %q: add %s: %w", id, name, err)
		}
	}
	compiled, err := script.Compile()
	if err != nil {
		return Rule{}, fmt.Errorf("achievement %q: compile %q: %w", id, expr, err)
	}
	return Rule{
		ID:          id,
		Title:       title,
		Description: expr,
		Predicate: func(stats model.Stats) bool {
			ok, err := runExpr(compiled, stats)
			return err == nil && ok
		},
	}, nil
}

func runExpr(compiled *tengo.Compiled, stats model.Stats) (bool, error) {
	run := compiled.Clone()
	for name, value := range exprValues(stats) {
		if err := run.Set(name, value); err != nil {
			return false, err
		}
	}
	if err := run.Run(); err != nil {
		return false, err
	}
	return run.Get(resultVar).Bool(), nil
}

func exprValues(stats model.Stats) map[string]any {
	return map[string]any{
		"points":                stats.TotalPoints,
		"streak":                stats.Streak,
		"best_streak":           stats.BestStreak,
		"rounds":                stats.RoundsAttempted,
		"correct":               stats.RoundsCorrect,
		"accuracy":              stats.Accuracy,
		"level":                 stats.LevelIndex,
		"levels_cleared":        stats.LevelsCleared,
		"hints":                 stats.HintsUsed,
		"timeouts":              stats.Timeouts,
		"last_round_seconds":    stats.LastRoundSeconds,
		"fastest_round_seconds": stats.FastestRoundSeconds,
		"time_remaining":        stats.TimeRemaining,
		"completed":             stats.Completed,
	}
}
