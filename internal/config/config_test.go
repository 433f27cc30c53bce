package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondavita/engine/internal/config"
)

func TestDefault_PassesValidation(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.25, cfg.Time.Scale)
	assert.Equal(t, 3.0, cfg.Combat.InactivityAttackSeconds)
	assert.Equal(t, 2.0, cfg.Combat.AttackAllCooldownFloorMinutes)
	assert.Equal(t, 3, cfg.Combat.QTE.CodeLengthMin)
	assert.Equal(t, 5, cfg.Combat.QTE.CodeLengthMax)
	assert.Equal(t, 0.05, cfg.Combat.Reinforcement.BaseChance)
	assert.Equal(t, 3.0, cfg.Combat.Reinforcement.MinIntervalMinutes)
	assert.Equal(t, 200, cfg.Sim.TickIntervalMs)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ReadsFileWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	data := `
time:
  scale: 0.5
logging:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Time.Scale)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset keys fall back to defaults.
	assert.Equal(t, 3.0, cfg.Combat.InactivityAttackSeconds)
	assert.Equal(t, 200, cfg.Sim.TickIntervalMs)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("time:\n  scale: 0.25\n"), 0o644))

	t.Setenv("VITA_TIME_SCALE", "1.5")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.Time.Scale)
}

func TestValidate_AggregatesViolations(t *testing.T) {
	cfg := config.Default()
	cfg.Time.Scale = 0
	cfg.Combat.QTE.Alphabet = ""
	cfg.Logging.Level = "loud"
	cfg.Sim.TickIntervalMs = 10

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time.scale")
	assert.Contains(t, err.Error(), "combat.qte.alphabet")
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "sim.tick_interval_ms")
}

func TestValidate_ReinforcementBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"base chance above one", func(c *config.Config) { c.Combat.Reinforcement.BaseChance = 1.5 }},
		{"negative bonus", func(c *config.Config) { c.Combat.Reinforcement.LastEnemyBonus = -0.1 }},
		{"interval below floor", func(c *config.Config) { c.Combat.Reinforcement.MinIntervalMinutes = 1 }},
		{"very long before long", func(c *config.Config) {
			c.Combat.Reinforcement.LongFightMinutes = 20
			c.Combat.Reinforcement.VeryLongFightMinutes = 10
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_QTECodeLengths(t *testing.T) {
	cfg := config.Default()
	cfg.Combat.QTE.CodeLengthMin = 5
	cfg.Combat.QTE.CodeLengthMax = 3
	assert.Error(t, cfg.Validate())
}
