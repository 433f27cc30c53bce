package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondavita/engine/internal/game/combat"
)

func TestSpawnEnemy_FirstSpawnStartsCombat(t *testing.T) {
	s, _, _ := newTestSession(t, meleeWeapon(3))

	mustSpawn(t, s, basicMob(8, 2, 2), 1)
	names := s.Events().Names()
	require.Equal(t, []string{combat.EventCombatStarted}, names)

	// A second spawn does not emit combat_started again.
	mustSpawn(t, s, basicMob(8, 2, 2), 1)
	assert.Equal(t, 1, countEvents(s.Events().Names(), combat.EventCombatStarted))
}

func TestSpawnEnemy_DuplicateNamesGetSuffixes(t *testing.T) {
	s, _, _ := newTestSession(t, meleeWeapon(3))

	enemies := mustSpawn(t, s, basicMob(8, 2, 2), 3)
	require.Len(t, enemies, 3)
	assert.Equal(t, "Raider", enemies[0].Name)
	assert.Equal(t, "Raider_2", enemies[1].Name)
	assert.Equal(t, "Raider_3", enemies[2].Name)
}

func TestSpawnEnemy_Validation(t *testing.T) {
	s, _, _ := newTestSession(t, meleeWeapon(3))

	_, err := s.SpawnEnemy(nil, 1)
	assert.True(t, combat.IsValidation(err))

	_, err = s.SpawnEnemy(basicMob(8, 2, 2), 0)
	assert.True(t, combat.IsValidation(err))

	assert.Equal(t, 0, s.Events().Len(), "rejected spawns must not emit events")
}

func TestSpawnEnemy_SchedulesFirstAttack(t *testing.T) {
	s, _, _ := newTestSession(t, meleeWeapon(3))

	enemies := mustSpawn(t, s, basicMob(8, 2, 2.5), 1)
	assert.InDelta(t, 2.5, enemies[0].NextAttackTotal, 1e-9)
	assert.Equal(t, combat.StateIdle, enemies[0].State)
}

func TestFocus_SetAndValidate(t *testing.T) {
	s, _, _ := newTestSession(t, meleeWeapon(3))
	mustSpawn(t, s, basicMob(8, 2, 2), 2)

	require.NoError(t, s.Focus(2))
	assert.Equal(t, 1, s.FocusIndex())
	assert.Equal(t, 1, countEvents(s.Events().Names(), combat.EventFocusSet))

	assert.True(t, combat.IsValidation(s.Focus(0)))
	assert.True(t, combat.IsValidation(s.Focus(3)))
}

func TestFocus_RejectsDefeatedEnemy(t *testing.T) {
	s, _, _ := newTestSession(t, meleeWeapon(10))
	mustSpawn(t, s, basicMob(8, 2, 2), 2)

	// One swing kills enemy 1 (10 > 8); the fight continues on enemy 2.
	require.NoError(t, s.Attack(1))
	err := s.Focus(1)
	assert.True(t, combat.IsValidation(err))
}

func TestFocus_AutoSwitchOnDefeat(t *testing.T) {
	s, _, _ := newTestSession(t, meleeWeapon(10))
	mustSpawn(t, s, basicMob(8, 2, 2), 2)

	require.NoError(t, s.Focus(2))
	require.NoError(t, s.Attack(2))

	names := s.Events().Names()
	assert.Equal(t, 1, countEvents(names, combat.EventFocusAutoSwitch))
	assert.Equal(t, 0, s.FocusIndex(), "focus must fall back to the lowest-index live enemy")

	ended, _ := s.Ended()
	assert.False(t, ended)
}

func TestFirstLiveEnemy_TracksDefeats(t *testing.T) {
	s, _, _ := newTestSession(t, meleeWeapon(10))
	enemies := mustSpawn(t, s, basicMob(8, 2, 2), 2)

	first, ok := s.FirstLiveEnemy()
	require.True(t, ok)
	assert.Equal(t, enemies[0].ID, first.ID)

	require.NoError(t, s.Attack(1))
	first, ok = s.FirstLiveEnemy()
	require.True(t, ok)
	assert.Equal(t, enemies[1].ID, first.ID)
}

// TestAccessors_ReturnSnapshots pins the read-path contract: Player and
// Enemies hand out value copies taken under the session lock, so readers
// never share memory with state the background ticker mutates.
func TestAccessors_ReturnSnapshots(t *testing.T) {
	s, _, _ := newTestSession(t, meleeWeapon(3))
	mustSpawn(t, s, basicMob(8, 2, 2), 1)

	enemiesBefore := s.Enemies()
	require.NoError(t, s.Attack(0))
	assert.Equal(t, 8, enemiesBefore[0].HP, "earlier snapshots must not track later damage")
	assert.Equal(t, 5, s.Enemies()[0].HP)

	// Writing through a snapshot must not reach the session.
	fresh := s.Enemies()
	fresh[0].HP = 1
	assert.Equal(t, 5, s.Enemies()[0].HP)

	p := s.Player()
	p.HP = 1
	assert.Equal(t, 30, s.Player().HP)
}

func TestSession_EndRejectsFurtherCommands(t *testing.T) {
	s, _, _ := newTestSession(t, meleeWeapon(3))
	mustSpawn(t, s, basicMob(8, 2, 2), 1)

	s.End("aborted")
	ended, result := s.Ended()
	require.True(t, ended)
	assert.Equal(t, "aborted", result)

	assert.ErrorIs(t, s.Attack(0), combat.ErrSessionEnded)
	assert.ErrorIs(t, s.Focus(1), combat.ErrSessionEnded)
	_, err := s.SpawnEnemy(basicMob(8, 2, 2), 1)
	assert.ErrorIs(t, err, combat.ErrSessionEnded)
	_, err = s.Flee()
	assert.ErrorIs(t, err, combat.ErrSessionEnded)

	assert.Nil(t, s.Tick(), "ticks on an ended session are silent no-ops")
}

func TestSession_EndIsIdempotent(t *testing.T) {
	s, _, _ := newTestSession(t, meleeWeapon(3))
	mustSpawn(t, s, basicMob(8, 2, 2), 1)

	s.End("aborted")
	s.End("victory")
	_, result := s.Ended()
	assert.Equal(t, "aborted", result)
	assert.Equal(t, 1, countEvents(s.Events().Names(), combat.EventCombatEnded))
}
