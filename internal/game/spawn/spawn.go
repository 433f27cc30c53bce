// Package spawn rolls area-local enemy spawns from per-area YAML tables.
// The combat engine consumes the results; this package never constructs
// enemies itself.
package spawn

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/secondavita/engine/internal/game/rng"
)

// Rule is one spawn entry in an area table.
type Rule struct {
	// MobID names the mob profile to spawn.
	MobID string `yaml:"mob_id"`
	// Chance is the per-roll probability of this rule firing.
	Chance float64 `yaml:"chance"`
	// MinCount and MaxCount bound the spawned group size, inclusive.
	MinCount int `yaml:"min_count"`
	MaxCount int `yaml:"max_count"`
	// CooldownMinutes is the minimum simulated gap between fires of this
	// rule in the same area.
	CooldownMinutes float64 `yaml:"cooldown_minutes"`
}

// Validate checks the Rule invariants.
func (r *Rule) Validate() error {
	if r.MobID == "" {
		return errors.New("mob_id must not be empty")
	}
	if r.Chance <= 0 || r.Chance > 1 {
		return fmt.Errorf("rule %q: chance must be in (0,1], got %g", r.MobID, r.Chance)
	}
	if r.MinCount < 1 {
		return fmt.Errorf("rule %q: min_count must be >= 1", r.MobID)
	}
	if r.MaxCount < r.MinCount {
		return fmt.Errorf("rule %q: max_count must be >= min_count", r.MobID)
	}
	if r.CooldownMinutes < 0 {
		return fmt.Errorf("rule %q: cooldown_minutes must be >= 0", r.MobID)
	}
	return nil
}

// AreaTable is the ordered spawn table for one area.
type AreaTable struct {
	AreaID string `yaml:"area_id"`
	Rules  []Rule `yaml:"rules"`
}

// Validate checks the AreaTable invariants.
func (t *AreaTable) Validate() error {
	if t.AreaID == "" {
		return errors.New("area_id must not be empty")
	}
	if len(t.Rules) == 0 {
		return fmt.Errorf("area %q: rules must not be empty", t.AreaID)
	}
	for i := range t.Rules {
		if err := t.Rules[i].Validate(); err != nil {
			return fmt.Errorf("area %q: %w", t.AreaID, err)
		}
	}
	return nil
}

// LoadTables reads all *.yaml files in dir and returns the parsed tables
// keyed by area ID.
//
// Postcondition: Returns all tables, or an error on the first parse or
// validate failure.
func LoadTables(dir string) (map[string]*AreaTable, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading spawn dir %q: %w", dir, err)
	}
	tables := make(map[string]*AreaTable)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var t AreaTable
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := tables[t.AreaID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate area id %q", path, t.AreaID)
		}
		tables[t.AreaID] = &t
	}
	return tables, nil
}

// Result is one group of enemies a roll produced.
type Result struct {
	MobID string
	Count int
}

// System rolls spawns against the loaded tables, enforcing per-rule
// cooldowns. Safe for concurrent use.
type System struct {
	mu     sync.Mutex
	tables map[string]*AreaTable
	src    rng.Source
	logger *zap.Logger

	// lastFired is area → mob → last fire time in simulated minutes.
	lastFired map[string]map[string]float64
}

// NewSystem creates a System over tables drawing from src.
//
// Precondition: src and logger must be non-nil.
func NewSystem(tables map[string]*AreaTable, src rng.Source, logger *zap.Logger) *System {
	return &System{
		tables:    tables,
		src:       src,
		logger:    logger,
		lastFired: make(map[string]map[string]float64),
	}
}

// Roll evaluates every rule of the area's table in order at the given
// simulated time. Rules still on cooldown are skipped before any draw is
// consumed, keeping draw sequences stable. An unknown area yields no spawns.
func (s *System) Roll(areaID string, nowTotal float64) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[areaID]
	if !ok {
		return nil
	}
	fired := s.lastFired[areaID]
	if fired == nil {
		fired = make(map[string]float64)
		s.lastFired[areaID] = fired
	}

	var results []Result
	for i := range t.Rules {
		r := &t.Rules[i]
		if last, ok := fired[r.MobID]; ok && nowTotal-last < r.CooldownMinutes {
			continue
		}
		if s.src.Float64() >= r.Chance {
			continue
		}
		count := r.MinCount
		if r.MaxCount > r.MinCount {
			count += s.src.Intn(r.MaxCount - r.MinCount + 1)
		}
		fired[r.MobID] = nowTotal
		results = append(results, Result{MobID: r.MobID, Count: count})
		s.logger.Debug("spawn rule fired",
			zap.String("area", areaID),
			zap.String("mob", r.MobID),
			zap.Int("count", count),
		)
	}
	return results
}
