// Package catalog loads the game definitions that drive the progression engine.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/petrogames/internal/achievement"
	"github.com/verte-zerg/petrogames/internal/ladder"
	"github.com/verte-zerg/petrogames/internal/match"
	"github.com/verte-zerg/petrogames/internal/model"
	"github.com/verte-zerg/petrogames/internal/score"
)

// Category challenge styles.
const (
	// StylePickItem shows several items and asks for the one in the expected category.
	StylePickItem = "pick_item"
	// StylePickLabel shows one item and asks for its category among label choices.
	StylePickLabel = "pick_label"
)

// Sequence orders.
const (
	OrderRandom  = "random"
	OrderOrdered = "ordered"
)

// Game is one mini-game definition.
type Game struct {
	ID           string            `yaml:"id"`
	Title        string            `yaml:"title"`
	Description  string            `yaml:"description"`
	Mode         match.Mode        `yaml:"mode"`
	Style        string            `yaml:"style"`
	Order        string            `yaml:"order"`
	Prompt       string            `yaml:"prompt"`
	Expected     string            `yaml:"expected"`
	Scoring      ScoringSpec       `yaml:"scoring"`
	Items        []ItemSpec        `yaml:"items"`
	Levels       []LevelSpec       `yaml:"levels"`
	Achievements []AchievementSpec `yaml:"achievements"`
}

// ScoringSpec mirrors score.Scoring.
type ScoringSpec struct {
	Correct   int `yaml:"correct"`
	Incorrect int `yaml:"incorrect"`
	BaseBonus int `yaml:"base_bonus"`
	HintCost  int `yaml:"hint_cost"`
	TimeBonus int `yaml:"time_bonus"`
}

// ItemSpec is one entry of a game's candidate pool.
type ItemSpec struct {
	Key      string `yaml:"key"`
	Category string `yaml:"category"`
	Symbol   string `yaml:"symbol"`
	Label    string `yaml:"label"`
	Hint     string `yaml:"hint"`
}

// LevelSpec is the YAML shape of a model.Level.
type LevelSpec struct {
	ID             string   `yaml:"id"`
	Order          int      `yaml:"order"`
	Name           string   `yaml:"name"`
	RequiredScore  int      `yaml:"required_score"`
	RequiredRounds int      `yaml:"required_rounds"`
	TimeLimit      int      `yaml:"time_limit"`
	ScoreBasis     string   `yaml:"score_basis"`
	Timer          string   `yaml:"timer"`
	GroupSize      int      `yaml:"group_size"`
	SequenceLength int      `yaml:"sequence_length"`
	BoardSize      int      `yaml:"board_size"`
	Choices        int      `yaml:"choices"`
	Modifiers      []string `yaml:"modifiers"`
}

// AchievementSpec is an achievement rule written as a boolean expression.
type AchievementSpec struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	When        string `yaml:"when"`
}

// Policy returns the engine scoring policy.
func (g Game) Policy() score.Scoring {
	return score.Scoring{
		PointsCorrect:      g.Scoring.Correct,
		PointsIncorrect:    g.Scoring.Incorrect,
		BaseBonus:          g.Scoring.BaseBonus,
		HintCost:           g.Scoring.HintCost,
		TimeBonusPerSecond: g.Scoring.TimeBonus,
	}
}

// LevelList converts the level specs into engine levels.
func (g Game) LevelList() []model.Level {
	levels := make([]model.Level, 0, len(g.Levels))
	for _, spec := range g.Levels {
		lvl := model.Level{
			ID:               spec.ID,
			Order:            spec.Order,
			Name:             spec.Name,
			RequiredScore:    spec.RequiredScore,
			RequiredRounds:   spec.RequiredRounds,
			TimeLimitSeconds: spec.TimeLimit,
			ScoreBasis:       spec.ScoreBasis,
			TimerScope:       spec.Timer,
			GroupSize:        spec.GroupSize,
			SequenceLength:   spec.SequenceLength,
			BoardSize:        spec.BoardSize,
			Choices:          spec.Choices,
		}
		if len(spec.Modifiers) > 0 {
			lvl.Modifiers = make(map[string]struct{}, len(spec.Modifiers))
			for _, m := range spec.Modifiers {
				lvl.Modifiers[m] = struct{}{}
			}
		}
		levels = append(levels, lvl)
	}
	return levels
}

// Rules compiles the achievement expressions.
func (g Game) Rules() ([]achievement.Rule, error) {
	rules := make([]achievement.Rule, 0, len(g.Achievements))
	for _, spec := range g.Achievements {
		rule, err := achievement.CompileExpr(spec.ID, spec.Title, spec.When)
		if err != nil {
			return nil, err
		}
		if spec.Description != "" {
			rule.Description = spec.Description
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Categories returns the distinct item categories in pool order.
func (g Game) Categories() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, it := range g.Items {
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	return out
}

// Validate checks that the definition can drive a session.
func (g Game) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return errors.New("missing id")
	}
	if len(g.Items) == 0 {
		return errors.New("empty item pool")
	}
	keys := make(map[string]struct{}, len(g.Items))
	for _, it := range g.Items {
		if it.Key == "" {
			return errors.New("item without key")
		}
		if _, ok := keys[it.Key]; ok {
			return fmt.Errorf("duplicate item %q", it.Key)
		}
		keys[it.Key] = struct{}{}
	}
	if _, err := ladder.New(g.LevelList()); err != nil {
		return err
	}
	if _, err := g.Rules(); err != nil {
		return err
	}
	switch g.Mode {
	case match.ModeGroup:
		for _, lvl := range g.Levels {
			if lvl.GroupSize < 2 {
				return fmt.Errorf("level %s: group size must be at least 2", lvl.ID)
			}
			if lvl.BoardSize < 1 || lvl.BoardSize > len(g.Items) {
				return fmt.Errorf("level %s: board size %d out of range", lvl.ID, lvl.BoardSize)
			}
		}
	case match.ModeCategory:
		return g.validateCategory()
	case match.ModeSequence:
		if g.Order != "" && g.Order != OrderRandom && g.Order != OrderOrdered {
			return fmt.Errorf("unknown sequence order %q", g.Order)
		}
		symbols := make(map[string]struct{}, len(g.Items))
		for _, it := range g.Items {
			if it.Symbol == "" {
				return fmt.Errorf("item %s: sequence items need a symbol", it.Key)
			}
			if _, ok := symbols[it.Symbol]; ok {
				return fmt.Errorf("duplicate symbol %q", it.Symbol)
			}
			symbols[it.Symbol] = struct{}{}
		}
		for _, lvl := range g.Levels {
			if lvl.SequenceLength < 1 {
				return fmt.Errorf("level %s: sequence length must be positive", lvl.ID)
			}
			if g.Order == OrderOrdered && lvl.SequenceLength > len(g.Items) {
				return fmt.Errorf("level %s: sequence longer than pool", lvl.ID)
			}
		}
	default:
		return fmt.Errorf("unknown mode %q", g.Mode)
	}
	return nil
}

func (g Game) validateCategory() error {
	cats := len(g.Categories())
	if cats < 2 {
		return errors.New("category games need at least two categories")
	}
	switch g.Style {
	case StylePickItem:
		if g.Expected != "" {
			found := false
			for _, c := range g.Categories() {
				if c == g.Expected {
					found = true
				}
			}
			if !found {
				return fmt.Errorf("expected category %q not in pool", g.Expected)
			}
		}
	case StylePickLabel:
	default:
		return fmt.Errorf("unknown category style %q", g.Style)
	}
	for _, lvl := range g.Levels {
		if lvl.Choices < 2 {
			return fmt.Errorf("level %s: at least two choices required", lvl.ID)
		}
		if g.Style == StylePickLabel && lvl.Choices > cats {
			return fmt.Errorf("level %s: %d choices but only %d categories", lvl.ID, lvl.Choices, cats)
		}
	}
	return nil
}

// Catalog is the set of loaded games keyed by id.
type Catalog struct {
	games map[string]Game
}

// Get returns the game with the given id.
func (c *Catalog) Get(id string) (Game, bool) {
	g, ok := c.games[id]
	return g, ok
}

// Games returns all games sorted by id.
func (c *Catalog) Games() []Game {
	out := make([]Game, 0, len(c.games))
	for _, g := range c.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the sorted game ids.
func (c *Catalog) IDs() []string {
	games := c.Games()
	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	return ids
}

// Load reads the embedded games, then overlays any YAML files found in dir.
// An empty dir loads only the embedded definitions.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{games: map[string]Game{}}
	if err := c.loadFS(GamesFS, "games"); err != nil {
		return nil, err
	}
	if dir == "" {
		return c, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("catalog: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog: %s is not a directory", dir)
	}
	if err := c.loadFS(os.DirFS(dir), "."); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) loadFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", root, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isGameFile(entry.Name()) {
			continue
		}
		name := filepath.ToSlash(filepath.Join(root, entry.Name()))
		game, err := LoadGame(fsys, name)
		if err != nil {
			return err
		}
		c.games[game.ID] = game
	}
	return nil
}

// LoadGame decodes and validates one definition.
func LoadGame(fsys fs.FS, name string) (Game, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Game{}, fmt.Errorf("catalog: load %s: %w", name, err)
	}
	return Parse(name, data)
}

// Parse decodes and validates a definition from raw YAML.
func Parse(name string, data []byte) (Game, error) {
	var game Game
	if err := yaml.Unmarshal(data, &game); err != nil {
		return Game{}, fmt.Errorf("catalog: unmarshal %s: %w", name, err)
	}
	if err := game.Validate(); err != nil {
		return Game{}, fmt.Errorf("catalog: validate %s: %w", name, err)
	}
	return game, nil
}

func isGameFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
