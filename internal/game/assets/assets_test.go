package assets_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondavita/engine/internal/game/assets"
)

const validMobYAML = `
id: dock_raider
name: Dock Raider
hp: 8
attack: 2
attack_interval_minutes: 2
qte_chance: 0.25
qte_prompts:
  - part: arm
    prompt: "Strike the arm"
    expected: a
    effect: reduce_next_damage
`

func TestLoadMobFromBytes_Valid(t *testing.T) {
	m, err := assets.LoadMobFromBytes([]byte(validMobYAML))
	require.NoError(t, err)

	assert.Equal(t, "dock_raider", m.ID)
	assert.Equal(t, 8, m.HP)
	assert.Equal(t, 2.0, m.AttackIntervalMinutes)
	// Optional multipliers default to 1.0.
	assert.Equal(t, 1.0, m.AttackIntervalMultiplier)
	assert.Equal(t, 1.0, m.AttackDamageMultiplier)
	require.Len(t, m.QTEPrompts, 1)
	assert.Equal(t, assets.EffectReduceNextDamage, m.QTEPrompts[0].Effect)
}

func TestLoadMobFromBytes_UnknownEffectRejected(t *testing.T) {
	data := `
id: exploder
name: Exploder
hp: 4
attack: 1
attack_interval_minutes: 2
qte_chance: 0.5
qte_prompts:
  - part: core
    prompt: "Hit the core"
    expected: c
    effect: detonate
`
	_, err := assets.LoadMobFromBytes([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown effect")
}

func TestMobProfile_ValidateRejections(t *testing.T) {
	base := func() *assets.MobProfile {
		m := &assets.MobProfile{ID: "m", Name: "M", HP: 5, Attack: 1, AttackIntervalMinutes: 2}
		m.Normalize()
		return m
	}
	tests := []struct {
		name   string
		mutate func(*assets.MobProfile)
	}{
		{"empty id", func(m *assets.MobProfile) { m.ID = "" }},
		{"zero hp", func(m *assets.MobProfile) { m.HP = 0 }},
		{"negative attack", func(m *assets.MobProfile) { m.Attack = -1 }},
		{"zero interval", func(m *assets.MobProfile) { m.AttackIntervalMinutes = 0 }},
		{"chance above one", func(m *assets.MobProfile) { m.QTEChance = 1.2 }},
		{"negative window", func(m *assets.MobProfile) { m.DefensiveQTEWindow = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(m)
			assert.Error(t, m.Validate())
		})
	}
}

func TestValidQTEEffect(t *testing.T) {
	for _, e := range []assets.QTEEffect{
		assets.EffectReduceNextDamage,
		assets.EffectStagger,
		assets.EffectBonusDamage,
		assets.EffectPush,
	} {
		assert.True(t, assets.ValidQTEEffect(e), string(e))
	}
	assert.False(t, assets.ValidQTEEffect("explode"))
	assert.False(t, assets.ValidQTEEffect(""))
}

func TestLoadWeaponFromBytes_CategoryRules(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "valid melee",
			yaml: "id: knife\nname: Knife\ncategory: melee\ndamage: 2\nhit_chance: 0.9\n",
		},
		{
			name:    "ranged without clip",
			yaml:    "id: gun\nname: Gun\ncategory: ranged\ndamage: 4\nhit_chance: 0.7\n",
			wantErr: "clip_size",
		},
		{
			name:    "throwable without uses",
			yaml:    "id: rock\nname: Rock\ncategory: throwable\ndamage: 1\nhit_chance: 1.0\naoe_factor: 0.5\n",
			wantErr: "uses",
		},
		{
			name:    "heavy without cleave",
			yaml:    "id: maul\nname: Maul\ncategory: heavy\ndamage: 6\nhit_chance: 0.6\n",
			wantErr: "cleave_targets",
		},
		{
			name:    "unknown category",
			yaml:    "id: wand\nname: Wand\ncategory: arcane\ndamage: 2\nhit_chance: 0.9\n",
			wantErr: "category",
		},
		{
			name:    "bad status",
			yaml:    "id: shiv\nname: Shiv\ncategory: melee\ndamage: 2\nhit_chance: 0.9\nstatus:\n  id: bleed\n  tick_damage: 0\n  duration_minutes: 2\n",
			wantErr: "tick_damage",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := assets.LoadWeaponFromBytes([]byte(tt.yaml))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadWeapons_Directory(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
	}
	write("knife.yaml", "id: knife\nname: Knife\ncategory: melee\ndamage: 2\nhit_chance: 0.9\n")
	write("gun.yaml", "id: gun\nname: Gun\ncategory: ranged\ndamage: 4\nhit_chance: 0.7\nclip_size: 6\nammo_reserve: 12\n")
	write("notes.txt", "not yaml")

	weapons, err := assets.LoadWeapons(dir)
	require.NoError(t, err)
	assert.Len(t, weapons, 2)
	assert.True(t, weapons["gun"].IsRanged())
	assert.False(t, weapons["knife"].IsRanged())
}

func TestLoadWeapons_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	data := "id: knife\nname: Knife\ncategory: melee\ndamage: 2\nhit_chance: 0.9\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(data), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(data), 0o644))

	_, err := assets.LoadWeapons(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate weapon id")
}

func TestLoadMobs_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raider.yaml"), []byte(validMobYAML), 0o644))

	mobs, err := assets.LoadMobs(dir)
	require.NoError(t, err)
	require.Len(t, mobs, 1)
	assert.Equal(t, "Dock Raider", mobs["dock_raider"].Name)
}
