package combat

import "go.uber.org/zap"

// ReinforcementPolicy tunes the probabilistic reinforcement engine. Chances
// are additive per evaluation; the minimum interval gates evaluations before
// any RNG draw is consumed, which keeps draw sequences stable across ticks.
type ReinforcementPolicy struct {
	// BaseChance is the per-evaluation probability of a wave.
	BaseChance float64
	// LongFightBonus applies once the fight is older than LongFightMinutes.
	LongFightBonus   float64
	LongFightMinutes float64
	// VeryLongFightBonus stacks on top once the fight is older than
	// VeryLongFightMinutes.
	VeryLongFightBonus   float64
	VeryLongFightMinutes float64
	// LastEnemyBonus applies while exactly one enemy is alive.
	LastEnemyBonus float64
	// MinIntervalMinutes is the minimum simulated gap between waves.
	MinIntervalMinutes float64
}

// DefaultReinforcementPolicy returns the shipped tuning.
func DefaultReinforcementPolicy() ReinforcementPolicy {
	return ReinforcementPolicy{
		BaseChance:           0.05,
		LongFightBonus:       0.02,
		LongFightMinutes:     5,
		VeryLongFightBonus:   0.03,
		VeryLongFightMinutes: 10,
		LastEnemyBonus:       0.03,
		MinIntervalMinutes:   3,
	}
}

// chanceAt computes the additive wave chance for a fight of the given age
// with the given live enemy count.
func (p ReinforcementPolicy) chanceAt(ageMinutes float64, liveEnemies int) float64 {
	c := p.BaseChance
	if ageMinutes > p.LongFightMinutes {
		c += p.LongFightBonus
	}
	if ageMinutes > p.VeryLongFightMinutes {
		c += p.VeryLongFightBonus
	}
	if liveEnemies == 1 {
		c += p.LastEnemyBonus
	}
	if c > 1 {
		c = 1
	}
	return c
}

// evaluateReinforcementLocked runs one wave evaluation. The minimum-interval
// gate is checked first so a gated tick consumes no draws; a passing roll
// spawns one or two enemies of the session's original profile, each with a
// random first-attack offset to desynchronize defense windows.
//
// Draw order: one chance draw, one count draw, then one jitter draw per enemy.
func (s *Session) evaluateReinforcementLocked(now float64) {
	p := s.settings.Reinforcement
	if s.reinforceProfile == nil || s.liveCountLocked() == 0 {
		return
	}
	if now-s.lastReinforcementTotal < p.MinIntervalMinutes {
		return
	}
	chance := p.chanceAt(now-s.startedTotal, s.liveCountLocked())
	if !s.stream.Chance(chance) {
		return
	}

	count := s.stream.IntRange(1, 2)
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		jitter := s.stream.Float64() * maxReinforcementJitterMinutes
		e := s.buildEnemyLocked(s.reinforceProfile, now, jitter)
		s.enemies = append(s.enemies, e)
		names = append(names, e.Name)
	}
	s.lastReinforcementTotal = now
	s.reinforced = true

	s.appendLocked(Event{
		Event:        EventReinforcementSpawned,
		TotalMinutes: now,
		Payload:      map[string]any{"profile": s.reinforceProfile.ID, "count": count, "names": names},
	})
	s.logger.Info("reinforcements arrived",
		zap.String("profile", s.reinforceProfile.ID),
		zap.Int("count", count),
	)
}

// maxReinforcementJitterMinutes bounds the random offset on a reinforcement's
// first attack time.
const maxReinforcementJitterMinutes = 0.5
