// Package assets provides the immutable weapon and mob reference data the
// combat engine is parametrized by. Profiles are loaded once from YAML and
// validated at load time; the engine never mutates them.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WeaponCategory classifies how a weapon resolves in combat.
type WeaponCategory string

const (
	// CategoryMelee weapons hit a single target at no ammo cost.
	CategoryMelee WeaponCategory = "melee"
	// CategoryRanged weapons consume clip ammunition and require reloads.
	CategoryRanged WeaponCategory = "ranged"
	// CategoryHeavy weapons cleave into secondary targets.
	CategoryHeavy WeaponCategory = "heavy"
	// CategoryThrowable weapons consume uses and splash all live enemies.
	CategoryThrowable WeaponCategory = "throwable"
)

// StatusSpec describes a damage-over-time effect a weapon may inflict.
type StatusSpec struct {
	ID              string  `yaml:"id"`
	TickDamage      int     `yaml:"tick_damage"`
	DurationMinutes float64 `yaml:"duration_minutes"`
}

// Validate checks the StatusSpec invariants.
func (s *StatusSpec) Validate() error {
	if s.ID == "" {
		return errors.New("status id must not be empty")
	}
	if s.TickDamage < 1 {
		return fmt.Errorf("status %q: tick_damage must be >= 1", s.ID)
	}
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("status %q: duration_minutes must be > 0", s.ID)
	}
	return nil
}

// WeaponProfile defines the static properties of a weapon loaded from YAML.
type WeaponProfile struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	Category WeaponCategory `yaml:"category"`
	// Damage is the base damage before crit/cleave/splash scaling.
	Damage int `yaml:"damage"`
	// HitChance is the base probability of landing a hit.
	HitChance float64 `yaml:"hit_chance"`
	// CritChance and CritMultiplier govern critical hits.
	CritChance     float64 `yaml:"crit_chance"`
	CritMultiplier float64 `yaml:"crit_multiplier"`
	// ClipSize and AmmoReserve apply to ranged weapons only.
	ClipSize    int `yaml:"clip_size"`
	AmmoReserve int `yaml:"ammo_reserve"`
	// StaminaCost is deducted from the player per swing/shot.
	StaminaCost int `yaml:"stamina_cost"`
	// CleaveTargets and CleaveFactor apply to heavy weapons: the first
	// CleaveTargets additional live enemies take CleaveFactor × damage.
	CleaveTargets int     `yaml:"cleave_targets"`
	CleaveFactor  float64 `yaml:"cleave_factor"`
	// AoEFactor scales splash damage to non-target enemies for throwables.
	AoEFactor float64 `yaml:"aoe_factor"`
	// Uses is the number of throws a throwable carries.
	Uses int `yaml:"uses"`
	// Status, when present, is applied to targets on a successful hit.
	Status *StatusSpec `yaml:"status"`
}

// IsRanged reports whether the weapon consumes clip ammunition.
func (w *WeaponProfile) IsRanged() bool { return w.Category == CategoryRanged }

// IsThrowable reports whether the weapon consumes uses.
func (w *WeaponProfile) IsThrowable() bool { return w.Category == CategoryThrowable }

// Validate checks that the WeaponProfile satisfies its invariants.
//
// Precondition: w is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (w *WeaponProfile) Validate() error {
	var errs []error
	if w.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if w.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	switch w.Category {
	case CategoryMelee, CategoryRanged, CategoryHeavy, CategoryThrowable:
	default:
		errs = append(errs, fmt.Errorf("unknown category %q", w.Category))
	}
	if w.Damage < 1 {
		errs = append(errs, errors.New("damage must be >= 1"))
	}
	if w.HitChance <= 0 || w.HitChance > 1 {
		errs = append(errs, fmt.Errorf("hit_chance must be in (0,1], got %g", w.HitChance))
	}
	if w.CritChance < 0 || w.CritChance > 1 {
		errs = append(errs, fmt.Errorf("crit_chance must be in [0,1], got %g", w.CritChance))
	}
	if w.CritChance > 0 && w.CritMultiplier < 1 {
		errs = append(errs, errors.New("crit_multiplier must be >= 1 when crit_chance > 0"))
	}
	if w.Category == CategoryRanged && w.ClipSize < 1 {
		errs = append(errs, errors.New("ranged clip_size must be >= 1"))
	}
	if w.Category == CategoryThrowable && w.Uses < 1 {
		errs = append(errs, errors.New("throwable uses must be >= 1"))
	}
	if w.Category == CategoryHeavy {
		if w.CleaveTargets < 1 {
			errs = append(errs, errors.New("heavy cleave_targets must be >= 1"))
		}
		if w.CleaveFactor <= 0 || w.CleaveFactor > 1 {
			errs = append(errs, fmt.Errorf("heavy cleave_factor must be in (0,1], got %g", w.CleaveFactor))
		}
	}
	if w.Category == CategoryThrowable && (w.AoEFactor <= 0 || w.AoEFactor > 1) {
		errs = append(errs, fmt.Errorf("throwable aoe_factor must be in (0,1], got %g", w.AoEFactor))
	}
	if w.StaminaCost < 0 {
		errs = append(errs, errors.New("stamina_cost must be >= 0"))
	}
	if w.Status != nil {
		if err := w.Status.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon %q validation failed: %v", w.ID, errs)
	}
	return nil
}

// LoadWeaponFromBytes parses a single WeaponProfile from raw YAML bytes.
//
// Postcondition: Returns a validated *WeaponProfile, or an error.
func LoadWeaponFromBytes(data []byte) (*WeaponProfile, error) {
	var w WeaponProfile
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing weapon YAML: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// LoadWeapons reads all *.yaml files in dir and returns the parsed profiles
// keyed by ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all profiles or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadWeapons(dir string) (map[string]*WeaponProfile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading weapons dir %q: %w", dir, err)
	}

	weapons := make(map[string]*WeaponProfile)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		w, err := LoadWeaponFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := weapons[w.ID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate weapon id %q", path, w.ID)
		}
		weapons[w.ID] = w
	}
	return weapons, nil
}
