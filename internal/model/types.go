// Package model defines shared data structures.
package model

import "time"

// Level score bases.
const (
	ScoreBasisCorrect = "correct"
	ScoreBasisPoints  = "points"
)

// Level timer scopes.
const (
	TimerScopeRound = "round"
	TimerScopeLevel = "level"
)

// Level is one tier of a difficulty ladder.
type Level struct {
	ID               string
	Order            int
	Name             string
	RequiredScore    int
	RequiredRounds   int
	TimeLimitSeconds int
	ScoreBasis       string
	TimerScope       string
	GroupSize        int
	SequenceLength   int
	BoardSize        int
	Choices          int
	Modifiers        map[string]struct{}
}

// HasModifier reports whether the level carries the named flag.
func (l Level) HasModifier(name string) bool {
	_, ok := l.Modifiers[name]
	return ok
}

// TimeLimit returns the level countdown as a duration.
func (l Level) TimeLimit() time.Duration {
	return time.Duration(l.TimeLimitSeconds) * time.Second
}

// RoundOutcome is the immutable result of one completed round.
type RoundOutcome struct {
	LevelID       string
	Correct       bool
	TimedOut      bool
	PointsAwarded int
	Selection     []string
	Subjects      []string
	Duration      time.Duration
	Timestamp     time.Time
}

// ScoreState holds the session score counters.
type ScoreState struct {
	TotalPoints     int `json:"totalPoints"`
	CurrentStreak   int `json:"currentStreak"`
	BestStreak      int `json:"bestStreak"`
	RoundsAttempted int `json:"roundsAttempted"`
	RoundsCorrect   int `json:"roundsCorrect"`
	HintsUsed       int `json:"hintsUsed"`
	PenaltyPoints   int `json:"penaltyPoints"`
}

// Candidate is an item eligible for selection during a round.
type Candidate struct {
	ID       string
	Key      string
	Category string
	Symbol   string
	Label    string
}

// Stats is the read-only snapshot achievement rules are evaluated against.
type Stats struct {
	TotalPoints         int
	Streak              int
	BestStreak          int
	RoundsAttempted     int
	RoundsCorrect       int
	Accuracy            float64
	LevelIndex          int
	LevelsCleared       int
	HintsUsed           int
	Timeouts            int
	LastRoundSeconds    float64
	FastestRoundSeconds float64
	TimeRemaining       float64
	Completed           bool
}

// Snapshot is the persistable engine state.
type Snapshot struct {
	GameID     string     `json:"gameId"`
	SessionID  string     `json:"sessionId"`
	Score      ScoreState `json:"score"`
	Unlocked   []string   `json:"unlocked"`
	LevelIndex int        `json:"levelIndex"`
	SavedAt    time.Time  `json:"savedAt"`
}

// Config defines play settings.
type Config struct {
	Game       string
	Seed       int64
	FocusWeak  bool
	WeakTop    int
	WeakFactor float64
	WeakWindow int
	Resume     bool
	Watch      bool
	CatalogDir string
	DisplayFor time.Duration
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Game        string
	Since       *time.Time
	Last        int
	CurveWindow int
	Items       string
}

// SessionStats captures a finished play session.
type SessionStats struct {
	ID             string
	GameID         string
	StartedAt      time.Time
	EndedAt        time.Time
	Seed           int64
	LevelReached   int
	Completed      bool
	TotalPoints    int
	RoundsCorrect  int
	RoundsMissed   int
	BestStreak     int
	HintsUsed      int
	DurationMs     int64
	UnlockedDuring []string
}

// ItemStats stores per-candidate-key stats for a session.
type ItemStats struct {
	Key          string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// ItemAggregate aggregates item stats across sessions.
type ItemAggregate struct {
	Key          string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID    string
	GameID       string
	EndedAt      time.Time
	Correct      int
	Incorrect    int
	Points       int
	LevelReached int
	DurationMs   int64
}

// AchievementRecord is a persisted unlock.
type AchievementRecord struct {
	GameID     string
	ID         string
	Title      string
	SessionID  string
	UnlockedAt time.Time
}
