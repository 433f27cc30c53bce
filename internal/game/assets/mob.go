package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// QTEEffect identifies the bonus a successful offense quick-time-event grants.
// The set is closed: unknown identifiers are rejected at asset load time
// rather than silently ignored at resolution time.
type QTEEffect string

const (
	// EffectReduceNextDamage permanently lowers the enemy's attack by 1 (floor 0).
	EffectReduceNextDamage QTEEffect = "reduce_next_damage"
	// EffectStagger discards the enemy's wound-up attack; its interval restarts.
	EffectStagger QTEEffect = "stagger"
	// EffectBonusDamage deals at least the weapon's base damage immediately.
	EffectBonusDamage QTEEffect = "bonus_damage"
	// EffectPush gains one point of distance.
	EffectPush QTEEffect = "push"
)

// ValidQTEEffect reports whether e is a member of the closed effect set.
func ValidQTEEffect(e QTEEffect) bool {
	switch e {
	case EffectReduceNextDamage, EffectStagger, EffectBonusDamage, EffectPush:
		return true
	}
	return false
}

// QTEPrompt is one offense challenge a mob can present: strike the named part
// by entering the expected key within the window.
type QTEPrompt struct {
	Part     string    `yaml:"part"`
	Prompt   string    `yaml:"prompt"`
	Expected string    `yaml:"expected"`
	Effect   QTEEffect `yaml:"effect"`
}

// Validate checks the QTEPrompt invariants.
func (p *QTEPrompt) Validate() error {
	if p.Prompt == "" {
		return errors.New("qte prompt text must not be empty")
	}
	if p.Expected == "" {
		return fmt.Errorf("qte prompt %q: expected key must not be empty", p.Prompt)
	}
	if !ValidQTEEffect(p.Effect) {
		return fmt.Errorf("qte prompt %q: unknown effect %q", p.Prompt, p.Effect)
	}
	return nil
}

// MobProfile defines a hostile entity archetype loaded from YAML.
type MobProfile struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	HP   int    `yaml:"hp"`
	// Attack is the damage applied when a defense window times out.
	Attack int `yaml:"attack"`
	// AttackIntervalMinutes is the simulated-minute gap between attacks.
	AttackIntervalMinutes float64 `yaml:"attack_interval_minutes"`
	// AttackIntervalMultiplier scales the interval; defaults to 1.0.
	AttackIntervalMultiplier float64 `yaml:"attack_interval_multiplier"`
	// DefensiveQTEWindow is the defense window in simulated minutes.
	// Zero means "use the configured default".
	DefensiveQTEWindow float64 `yaml:"defensive_qte_window"`
	// AttackDamageMultiplier scales timeout damage; defaults to 1.0.
	AttackDamageMultiplier float64 `yaml:"attack_damage_multiplier"`
	// QTEChance is the probability of an offense challenge after a player hit.
	QTEChance float64 `yaml:"qte_chance"`
	// QTEPrompts is the pool of offense challenges; may be empty.
	QTEPrompts []QTEPrompt `yaml:"qte_prompts"`
}

// Normalize fills the documented defaults for optional multiplier fields.
// Called by the loaders; tests constructing profiles by hand call it directly.
func (m *MobProfile) Normalize() {
	if m.AttackIntervalMultiplier == 0 {
		m.AttackIntervalMultiplier = 1.0
	}
	if m.AttackDamageMultiplier == 0 {
		m.AttackDamageMultiplier = 1.0
	}
}

// Validate checks that the MobProfile satisfies basic invariants.
//
// Precondition: m must not be nil and must be Normalized.
// Postcondition: Returns nil iff all fields are valid; returns an error on the
// first violation otherwise.
func (m *MobProfile) Validate() error {
	if m.ID == "" {
		return errors.New("mob profile: id must not be empty")
	}
	if m.Name == "" {
		return fmt.Errorf("mob profile %q: name must not be empty", m.ID)
	}
	if m.HP < 1 {
		return fmt.Errorf("mob profile %q: hp must be >= 1", m.ID)
	}
	if m.Attack < 0 {
		return fmt.Errorf("mob profile %q: attack must be >= 0", m.ID)
	}
	if m.AttackIntervalMinutes <= 0 {
		return fmt.Errorf("mob profile %q: attack_interval_minutes must be > 0", m.ID)
	}
	if m.AttackIntervalMultiplier <= 0 {
		return fmt.Errorf("mob profile %q: attack_interval_multiplier must be > 0", m.ID)
	}
	if m.DefensiveQTEWindow < 0 {
		return fmt.Errorf("mob profile %q: defensive_qte_window must be >= 0", m.ID)
	}
	if m.AttackDamageMultiplier <= 0 {
		return fmt.Errorf("mob profile %q: attack_damage_multiplier must be > 0", m.ID)
	}
	if m.QTEChance < 0 || m.QTEChance > 1 {
		return fmt.Errorf("mob profile %q: qte_chance must be in [0,1], got %g", m.ID, m.QTEChance)
	}
	for i := range m.QTEPrompts {
		if err := m.QTEPrompts[i].Validate(); err != nil {
			return fmt.Errorf("mob profile %q: %w", m.ID, err)
		}
	}
	return nil
}

// LoadMobFromBytes parses a single MobProfile from raw YAML bytes.
//
// Postcondition: Returns a normalized, validated *MobProfile, or an error.
func LoadMobFromBytes(data []byte) (*MobProfile, error) {
	var m MobProfile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing mob YAML: %w", err)
	}
	m.Normalize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadMobs reads all *.yaml files in dir and returns the parsed profiles
// keyed by ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all profiles or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadMobs(dir string) (map[string]*MobProfile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading mobs dir %q: %w", dir, err)
	}

	mobs := make(map[string]*MobProfile)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		m, err := LoadMobFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := mobs[m.ID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate mob id %q", path, m.ID)
		}
		mobs[m.ID] = m
	}
	return mobs, nil
}
