// Package config provides Viper-based configuration loading for the combat engine.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// TimeConfig holds simulated-clock settings.
type TimeConfig struct {
	// Scale is the number of simulated minutes that pass per real second.
	Scale float64 `mapstructure:"scale"`
}

// QTEConfig holds quick-time-event code generation settings.
type QTEConfig struct {
	// ComplexCodes enables generated alphanumeric codes instead of the
	// single-key prompts carried by mob profiles.
	ComplexCodes bool `mapstructure:"complex_codes"`
	// CodeLengthMin is the minimum generated code length.
	CodeLengthMin int `mapstructure:"code_length_min"`
	// CodeLengthMax is the maximum generated code length.
	CodeLengthMax int `mapstructure:"code_length_max"`
	// Alphabet is the character set generated codes are drawn from.
	Alphabet string `mapstructure:"alphabet"`
	// DefensiveWindowMinutes is the default defense window when a mob
	// profile does not specify one.
	DefensiveWindowMinutes float64 `mapstructure:"defensive_window_minutes"`
	// OffensiveWindowMinutes is the window granted to offense challenges.
	OffensiveWindowMinutes float64 `mapstructure:"offensive_window_minutes"`
}

// ReinforcementConfig holds the probabilistic reinforcement policy knobs.
type ReinforcementConfig struct {
	// BaseChance is the per-tick spawn probability.
	BaseChance float64 `mapstructure:"base_chance"`
	// LongFightBonus is added when the session is older than LongFightMinutes.
	LongFightBonus   float64 `mapstructure:"long_fight_bonus"`
	LongFightMinutes float64 `mapstructure:"long_fight_minutes"`
	// VeryLongFightBonus is added when the session is older than VeryLongFightMinutes.
	VeryLongFightBonus   float64 `mapstructure:"very_long_fight_bonus"`
	VeryLongFightMinutes float64 `mapstructure:"very_long_fight_minutes"`
	// LastEnemyBonus is added when exactly one live enemy remains.
	LastEnemyBonus float64 `mapstructure:"last_enemy_bonus"`
	// MinIntervalMinutes is the minimum simulated-minute gap between two
	// reinforcement successes.
	MinIntervalMinutes float64 `mapstructure:"min_interval_minutes"`
}

// CombatConfig holds combat scheduling settings.
type CombatConfig struct {
	// InactivityAttackSeconds is the real-time idle threshold after which
	// every live enemy's next attack is pulled to now.
	InactivityAttackSeconds float64 `mapstructure:"inactivity_attack_seconds"`
	// AttackAllCooldownFloorMinutes is the minimum area-attack cooldown.
	AttackAllCooldownFloorMinutes float64 `mapstructure:"attack_all_cooldown_floor_minutes"`
	// QTE holds quick-time-event settings.
	QTE QTEConfig `mapstructure:"qte"`
	// Reinforcement holds the reinforcement policy.
	Reinforcement ReinforcementConfig `mapstructure:"reinforcement"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimConfig holds settings for the background tick driver.
type SimConfig struct {
	// TickIntervalMs is the real-time cadence of the background Tick task.
	TickIntervalMs int `mapstructure:"tick_interval_ms"`
	// WeaponsDir and MobsDir point at the YAML asset directories.
	WeaponsDir string `mapstructure:"weapons_dir"`
	MobsDir    string `mapstructure:"mobs_dir"`
	// SpawnsDir points at the per-area spawn rule documents.
	SpawnsDir string `mapstructure:"spawns_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Time    TimeConfig    `mapstructure:"time"`
	Combat  CombatConfig  `mapstructure:"combat"`
	Logging LoggingConfig `mapstructure:"logging"`
	Sim     SimConfig     `mapstructure:"sim"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateTime(c.Time); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSim(c.Sim); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTime(t TimeConfig) error {
	if t.Scale <= 0 {
		return fmt.Errorf("time.scale must be > 0, got %g", t.Scale)
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.InactivityAttackSeconds <= 0 {
		errs = append(errs, fmt.Sprintf("combat.inactivity_attack_seconds must be > 0, got %g", c.InactivityAttackSeconds))
	}
	if c.AttackAllCooldownFloorMinutes < 1 {
		errs = append(errs, fmt.Sprintf("combat.attack_all_cooldown_floor_minutes must be >= 1, got %g", c.AttackAllCooldownFloorMinutes))
	}
	if c.QTE.CodeLengthMin < 1 {
		errs = append(errs, fmt.Sprintf("combat.qte.code_length_min must be >= 1, got %d", c.QTE.CodeLengthMin))
	}
	if c.QTE.CodeLengthMax < c.QTE.CodeLengthMin {
		errs = append(errs, fmt.Sprintf("combat.qte.code_length_max must be >= code_length_min, got %d < %d", c.QTE.CodeLengthMax, c.QTE.CodeLengthMin))
	}
	if c.QTE.Alphabet == "" {
		errs = append(errs, "combat.qte.alphabet must not be empty")
	}
	if c.QTE.DefensiveWindowMinutes <= 0 {
		errs = append(errs, fmt.Sprintf("combat.qte.defensive_window_minutes must be > 0, got %g", c.QTE.DefensiveWindowMinutes))
	}
	if c.QTE.OffensiveWindowMinutes <= 0 {
		errs = append(errs, fmt.Sprintf("combat.qte.offensive_window_minutes must be > 0, got %g", c.QTE.OffensiveWindowMinutes))
	}
	if err := validateReinforcement(c.Reinforcement); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateReinforcement(r ReinforcementConfig) error {
	var errs []string
	chances := []struct {
		name string
		v    float64
	}{
		{"base_chance", r.BaseChance},
		{"long_fight_bonus", r.LongFightBonus},
		{"very_long_fight_bonus", r.VeryLongFightBonus},
		{"last_enemy_bonus", r.LastEnemyBonus},
	}
	for _, c := range chances {
		if c.v < 0 || c.v > 1 {
			errs = append(errs, fmt.Sprintf("combat.reinforcement.%s must be in [0,1], got %g", c.name, c.v))
		}
	}
	if r.MinIntervalMinutes < 3 {
		errs = append(errs, fmt.Sprintf("combat.reinforcement.min_interval_minutes must be >= 3, got %g", r.MinIntervalMinutes))
	}
	if r.VeryLongFightMinutes < r.LongFightMinutes {
		errs = append(errs, "combat.reinforcement.very_long_fight_minutes must be >= long_fight_minutes")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSim(s SimConfig) error {
	if s.TickIntervalMs < 50 {
		return fmt.Errorf("sim.tick_interval_ms must be >= 50, got %d", s.TickIntervalMs)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with VITA_ prefix
	v.SetEnvPrefix("VITA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the built-in defaults without reading any file.
//
// Postcondition: Returns a Config that passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// The default keys mirror the struct tags; unmarshalling cannot fail.
	_ = v.Unmarshal(&cfg)
	return cfg
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("time.scale", 0.25)

	v.SetDefault("combat.inactivity_attack_seconds", 3.0)
	v.SetDefault("combat.attack_all_cooldown_floor_minutes", 2.0)

	v.SetDefault("combat.qte.complex_codes", false)
	v.SetDefault("combat.qte.code_length_min", 3)
	v.SetDefault("combat.qte.code_length_max", 5)
	v.SetDefault("combat.qte.alphabet", "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	v.SetDefault("combat.qte.defensive_window_minutes", 4.0)
	v.SetDefault("combat.qte.offensive_window_minutes", 4.0)

	v.SetDefault("combat.reinforcement.base_chance", 0.05)
	v.SetDefault("combat.reinforcement.long_fight_bonus", 0.02)
	v.SetDefault("combat.reinforcement.long_fight_minutes", 5.0)
	v.SetDefault("combat.reinforcement.very_long_fight_bonus", 0.03)
	v.SetDefault("combat.reinforcement.very_long_fight_minutes", 10.0)
	v.SetDefault("combat.reinforcement.last_enemy_bonus", 0.03)
	v.SetDefault("combat.reinforcement.min_interval_minutes", 3.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("sim.tick_interval_ms", 200)
	v.SetDefault("sim.weapons_dir", "assets/weapons")
	v.SetDefault("sim.mobs_dir", "assets/mobs")
	v.SetDefault("sim.spawns_dir", "assets/spawns")
}
