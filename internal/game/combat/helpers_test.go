package combat_test

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/secondavita/engine/internal/clock"
	"github.com/secondavita/engine/internal/game/assets"
	"github.com/secondavita/engine/internal/game/combat"
)

// fakeNow is a controllable real-time source shared by the clock tests.
type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeNow() *fakeNow { return &fakeNow{t: time.Unix(1000, 0)} }

func (f *fakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

// testSettings disables the real-time and probabilistic rules so unit tests
// stay deterministic; tests exercising those rules override the fields.
func testSettings() combat.Settings {
	s := combat.DefaultSettings()
	s.InactivityAttackSeconds = 1e9
	s.Reinforcement.BaseChance = 0
	s.Reinforcement.LongFightBonus = 0
	s.Reinforcement.VeryLongFightBonus = 0
	s.Reinforcement.LastEnemyBonus = 0
	return s
}

func newTestSession(t *testing.T, w *assets.WeaponProfile, opts ...func(*combat.Settings)) (*combat.Session, *clock.Clock, *fakeNow) {
	t.Helper()
	f := newFakeNow()
	clk := clock.New(0.25, clock.WithNowFunc(f.Now))
	st := testSettings()
	for _, o := range opts {
		o(&st)
	}
	player := combat.NewPlayerState(30, 100, w)
	return combat.NewSession(clk, player, 42, st, zap.NewNop()), clk, f
}

// meleeWeapon always hits and never crits, so attacks consume exactly one draw.
func meleeWeapon(damage int) *assets.WeaponProfile {
	return &assets.WeaponProfile{
		ID:        "blade",
		Name:      "Blade",
		Category:  assets.CategoryMelee,
		Damage:    damage,
		HitChance: 1.0,
	}
}

func basicMob(hp, attack int, interval float64) *assets.MobProfile {
	m := &assets.MobProfile{
		ID:                    "raider",
		Name:                  "Raider",
		HP:                    hp,
		Attack:                attack,
		AttackIntervalMinutes: interval,
	}
	m.Normalize()
	return m
}

// qteMob always offers an offense challenge after a hit, with a single
// prompt expecting "a".
func qteMob(hp int, effect assets.QTEEffect) *assets.MobProfile {
	m := basicMob(hp, 2, 2)
	m.QTEChance = 1.0
	m.QTEPrompts = []assets.QTEPrompt{
		{Part: "arm", Prompt: "Strike the arm", Expected: "a", Effect: effect},
	}
	return m
}

func mustSpawn(t *testing.T, s *combat.Session, m *assets.MobProfile, count int) []combat.Enemy {
	t.Helper()
	enemies, err := s.SpawnEnemy(m, count)
	if err != nil {
		t.Fatalf("SpawnEnemy: %v", err)
	}
	return enemies
}

func statusSpec(id string, tickDamage int, duration float64) *assets.StatusSpec {
	return &assets.StatusSpec{ID: id, TickDamage: tickDamage, DurationMinutes: duration}
}

func countEvents(names []string, name string) int {
	n := 0
	for _, v := range names {
		if v == name {
			n++
		}
	}
	return n
}
