package room

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/reaction-royale/internal/apperrors"
	"github.com/palemoky/reaction-royale/internal/testutil"
)

const (
	testArmDelayMs   = 3000
	testPenaltyMs    = 1000
	testRoundTimeout = 10 * time.Second
)

type fixture struct {
	c     *Coordinator
	store *testutil.MemStore
	clock *clockwork.FakeClock
	gone  atomic.Bool
}

// newFixture builds a coordinator with a host plus n guests.
// The arm delay is pinned to a single value so tests can advance the
// fake clock deterministically.
func newFixture(t *testing.T, guests int, totalRounds int) *fixture {
	t.Helper()

	f := &fixture{
		store: testutil.NewMemStore(),
		clock: clockwork.NewFakeClock(),
	}
	engine := NewEngine(testArmDelayMs, testArmDelayMs, testPenaltyMs)
	r := New("TEST", "test room", PlayerRec{UID: "host", Name: "Host"}, totalRounds, f.clock.Now())
	f.c = NewCoordinator(r, f.store, f.clock, engine, testRoundTimeout,
		func(string) { f.gone.Store(true) })

	ctx := context.Background()
	for i := 0; i < guests; i++ {
		uid := fmt.Sprintf("guest%d", i)
		require.NoError(t, f.c.Join(ctx, PlayerRec{UID: uid, Name: uid}))
	}
	return f
}

// readyAll toggles every guest to ready.
func (f *fixture) readyAll(t *testing.T, guests int) {
	t.Helper()
	for i := 0; i < guests; i++ {
		require.NoError(t, f.c.SetReady(context.Background(), fmt.Sprintf("guest%d", i), true))
	}
}

// waitPhase blocks until the room reaches the given phase. Timer
// callbacks on the fake clock run asynchronously after Advance.
func (f *fixture) waitPhase(t *testing.T, phase Phase) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.c.Snapshot().Phase == string(phase)
	}, time.Second, time.Millisecond, "room never reached phase %s", phase)
}

func playerByUID(f *fixture, uid string) (score int64, outcome *int64) {
	snap := f.c.Snapshot()
	for _, p := range snap.Players {
		if p.UID == uid {
			return p.Score, p.LastOutcome
		}
	}
	return 0, nil
}

func TestJoinIdempotent(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()

	require.NoError(t, f.c.SetReady(ctx, "guest0", true))
	require.NoError(t, f.c.Join(ctx, PlayerRec{UID: "guest0", Name: "changed"}))

	snap := f.c.Snapshot()
	assert.Len(t, snap.Players, 2)
	assert.Equal(t, "guest0", snap.Players[1].Name, "rejoin must not overwrite the existing record")
	assert.True(t, snap.Players[1].Ready, "rejoin must not reset the ready flag")
}

func TestJoinRejectedAfterStart(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()

	f.readyAll(t, 1)
	require.NoError(t, f.c.StartRound(ctx, "host"))

	err := f.c.Join(ctx, PlayerRec{UID: "late", Name: "late"})
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)
}

func TestStartRoundRequiresHost(t *testing.T) {
	f := newFixture(t, 1, 5)
	f.readyAll(t, 1)

	err := f.c.StartRound(context.Background(), "guest0")
	assert.ErrorIs(t, err, apperrors.ErrNotHost)
}

// TestStartRoundReadyGate walks every ready combination for up to three
// guests: the round starts only when all of them are ready.
func TestStartRoundReadyGate(t *testing.T) {
	ctx := context.Background()
	for guests := 0; guests <= 3; guests++ {
		for mask := 0; mask < 1<<guests; mask++ {
			name := fmt.Sprintf("guests=%d/mask=%b", guests, mask)
			t.Run(name, func(t *testing.T) {
				f := newFixture(t, guests, 5)
				for i := 0; i < guests; i++ {
					if mask&(1<<i) != 0 {
						require.NoError(t, f.c.SetReady(ctx, fmt.Sprintf("guest%d", i), true))
					}
				}

				err := f.c.StartRound(ctx, "host")
				switch {
				case guests == 0:
					assert.ErrorIs(t, err, apperrors.ErrNotEnoughPlayers)
				case mask != 1<<guests-1:
					assert.ErrorIs(t, err, apperrors.ErrNotAllReady)
				default:
					assert.NoError(t, err)
					assert.Equal(t, string(StatusPlaying), f.c.Snapshot().Status)
					assert.Equal(t, 1, f.c.Snapshot().RoundIndex)
				}
			})
		}
	}
}

func TestEarlyActionPenalty(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()
	f.readyAll(t, 1)
	require.NoError(t, f.c.StartRound(ctx, "host"))

	// The round is still idle: acting now is a false start.
	outcome, err := f.c.SubmitAction(ctx, "guest0", f.clock.Now().UnixMilli())
	require.NoError(t, err)
	assert.Equal(t, int64(testPenaltyMs), outcome)

	score, last := playerByUID(f, "guest0")
	assert.Equal(t, int64(testPenaltyMs), score)
	require.NotNil(t, last)
	assert.Equal(t, int64(testPenaltyMs), *last)
}

func TestDuplicateActionRejected(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()
	f.readyAll(t, 1)
	require.NoError(t, f.c.StartRound(ctx, "host"))

	_, err := f.c.SubmitAction(ctx, "guest0", 0)
	require.NoError(t, err)
	before, _ := playerByUID(f, "guest0")

	_, err = f.c.SubmitAction(ctx, "guest0", 0)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyResolved)

	after, _ := playerByUID(f, "guest0")
	assert.Equal(t, before, after, "a rejected duplicate must not change the score")
}

func TestActionOutsidePlaying(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()

	_, err := f.c.SubmitAction(ctx, "guest0", 0)
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)

	_, err = f.c.SubmitAction(ctx, "stranger", 0)
	assert.ErrorIs(t, err, apperrors.ErrNotAMember)
}

func TestReactionAfterArm(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()
	f.readyAll(t, 1)
	require.NoError(t, f.c.StartRound(ctx, "host"))

	f.clock.Advance(testArmDelayMs * time.Millisecond)
	f.waitPhase(t, PhaseArmed)

	f.clock.Advance(250 * time.Millisecond)
	outcome, err := f.c.SubmitAction(ctx, "guest0", f.clock.Now().UnixMilli())
	require.NoError(t, err)
	assert.Equal(t, int64(250), outcome)
}

func TestRoundResolvesWhenAllActed(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()
	f.readyAll(t, 1)
	require.NoError(t, f.c.StartRound(ctx, "host"))

	f.clock.Advance(testArmDelayMs * time.Millisecond)
	f.waitPhase(t, PhaseArmed)

	_, err := f.c.SubmitAction(ctx, "guest0", 0)
	require.NoError(t, err)
	assert.Equal(t, string(PhaseArmed), f.c.Snapshot().Phase, "round stays open while the host has not acted")

	_, err = f.c.SubmitAction(ctx, "host", 0)
	require.NoError(t, err)
	assert.Equal(t, string(PhaseResolved), f.c.Snapshot().Phase)
}

func TestRoundTimeoutPenalty(t *testing.T) {
	f := newFixture(t, 2, 5)
	ctx := context.Background()
	f.readyAll(t, 2)
	require.NoError(t, f.c.StartRound(ctx, "host"))

	f.clock.Advance(testArmDelayMs * time.Millisecond)
	f.waitPhase(t, PhaseArmed)

	_, err := f.c.SubmitAction(ctx, "guest0", 0)
	require.NoError(t, err)

	f.clock.Advance(testRoundTimeout)
	f.waitPhase(t, PhaseResolved)

	score, last := playerByUID(f, "guest1")
	assert.Equal(t, int64(testPenaltyMs), score)
	require.NotNil(t, last)
	assert.Equal(t, int64(testPenaltyMs), *last)

	hostScore, _ := playerByUID(f, "host")
	assert.Equal(t, int64(testPenaltyMs), hostScore)
}

func TestAdvanceRound(t *testing.T) {
	f := newFixture(t, 1, 2)
	ctx := context.Background()
	f.readyAll(t, 1)
	require.NoError(t, f.c.StartRound(ctx, "host"))

	// Resolve round 1 with two false starts.
	_, _ = f.c.SubmitAction(ctx, "guest0", 0)
	_, _ = f.c.SubmitAction(ctx, "host", 0)
	require.Equal(t, string(PhaseResolved), f.c.Snapshot().Phase)

	err := f.c.AdvanceRound(ctx, "guest0")
	assert.ErrorIs(t, err, apperrors.ErrNotHost)

	require.NoError(t, f.c.AdvanceRound(ctx, "host"))
	snap := f.c.Snapshot()
	assert.Equal(t, 2, snap.RoundIndex)
	assert.Equal(t, string(PhaseIdle), snap.Phase)
	for _, p := range snap.Players {
		assert.Nil(t, p.LastOutcome, "a new round clears the previous outcomes")
	}

	// Resolve the last round, then advancing lands on the results screen.
	_, _ = f.c.SubmitAction(ctx, "guest0", 0)
	_, _ = f.c.SubmitAction(ctx, "host", 0)
	require.NoError(t, f.c.AdvanceRound(ctx, "host"))
	assert.Equal(t, string(StatusResults), f.c.Snapshot().Status)

	err = f.c.AdvanceRound(ctx, "host")
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)
}

func TestAdvanceBeforeResolveRejected(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()
	f.readyAll(t, 1)
	require.NoError(t, f.c.StartRound(ctx, "host"))

	err := f.c.AdvanceRound(ctx, "host")
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)
}

func TestResetRoom(t *testing.T) {
	f := newFixture(t, 1, 1)
	ctx := context.Background()
	f.readyAll(t, 1)
	require.NoError(t, f.c.StartRound(ctx, "host"))
	_, _ = f.c.SubmitAction(ctx, "guest0", 0)
	_, _ = f.c.SubmitAction(ctx, "host", 0)
	require.NoError(t, f.c.AdvanceRound(ctx, "host"))
	require.Equal(t, string(StatusResults), f.c.Snapshot().Status)

	err := f.c.ResetRoom(ctx, "guest0")
	assert.ErrorIs(t, err, apperrors.ErrNotHost)

	require.NoError(t, f.c.ResetRoom(ctx, "host"))
	snap := f.c.Snapshot()
	assert.Equal(t, string(StatusWaiting), snap.Status)
	assert.Equal(t, 0, snap.RoundIndex)
	for _, p := range snap.Players {
		assert.Zero(t, p.Score)
		assert.False(t, p.Ready)
		assert.Nil(t, p.LastOutcome)
	}

	err = f.c.ResetRoom(ctx, "host")
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase, "reset only makes sense on the results screen")
}

func TestHostLeaveDissolvesRoom(t *testing.T) {
	f := newFixture(t, 2, 5)
	ctx := context.Background()

	require.NoError(t, f.c.Leave(ctx, "host"))
	assert.True(t, f.gone.Load())

	doc, err := f.store.LoadRoom(ctx, "TEST")
	require.NoError(t, err)
	assert.Nil(t, doc, "a dissolved room leaves nothing behind in the store")

	err = f.c.Join(ctx, PlayerRec{UID: "late", Name: "late"})
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestGuestLeave(t *testing.T) {
	f := newFixture(t, 2, 5)
	ctx := context.Background()

	require.NoError(t, f.c.Leave(ctx, "guest0"))
	assert.False(t, f.gone.Load())
	assert.Len(t, f.c.Snapshot().Players, 2)

	// Leaving twice, or leaving without being a member, is a no-op.
	require.NoError(t, f.c.Leave(ctx, "guest0"))
	require.NoError(t, f.c.Leave(ctx, "stranger"))
}

func TestLastPlayerLeaveDissolvesRoom(t *testing.T) {
	f := newFixture(t, 0, 5)
	ctx := context.Background()

	require.NoError(t, f.c.Leave(ctx, "host"))
	assert.True(t, f.gone.Load())
}

func TestLeaveResolvesPendingRound(t *testing.T) {
	f := newFixture(t, 2, 5)
	ctx := context.Background()
	f.readyAll(t, 2)
	require.NoError(t, f.c.StartRound(ctx, "host"))

	_, _ = f.c.SubmitAction(ctx, "host", 0)
	_, _ = f.c.SubmitAction(ctx, "guest0", 0)
	require.Equal(t, string(PhaseArmed), f.c.Snapshot().Phase, "guest1 has not acted yet")

	// The only player without an outcome leaves: the round can close.
	require.NoError(t, f.c.Leave(ctx, "guest1"))
	assert.Equal(t, string(PhaseResolved), f.c.Snapshot().Phase)
}

func TestExpireIfStale(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()

	assert.False(t, f.c.ExpireIfStale(ctx, 10*time.Minute), "a fresh room must survive the sweep")

	f.clock.Advance(10*time.Minute + time.Second)
	assert.True(t, f.c.ExpireIfStale(ctx, 10*time.Minute))
	assert.True(t, f.gone.Load())
}

func TestExpireSkipsActiveGame(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()
	f.readyAll(t, 1)
	require.NoError(t, f.c.StartRound(ctx, "host"))

	f.clock.Advance(time.Hour)
	assert.False(t, f.c.ExpireIfStale(ctx, 10*time.Minute))
}

func TestExpiryCountsFromLastActivity(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()

	// Ready traffic nine minutes in keeps the room alive past the
	// ten-minute mark counted from creation.
	f.clock.Advance(9 * time.Minute)
	require.NoError(t, f.c.SetReady(ctx, "guest0", true))

	f.clock.Advance(2 * time.Minute)
	assert.False(t, f.c.ExpireIfStale(ctx, 10*time.Minute))

	f.clock.Advance(10*time.Minute + time.Second)
	assert.True(t, f.c.ExpireIfStale(ctx, 10*time.Minute))
}

func TestResetRoomRestartsExpiryClock(t *testing.T) {
	f := newFixture(t, 1, 1)
	ctx := context.Background()
	f.readyAll(t, 1)
	require.NoError(t, f.c.StartRound(ctx, "host"))
	_, _ = f.c.SubmitAction(ctx, "guest0", 0)
	_, _ = f.c.SubmitAction(ctx, "host", 0)
	require.NoError(t, f.c.AdvanceRound(ctx, "host"))
	require.Equal(t, string(StatusResults), f.c.Snapshot().Status)

	// An hour-long game, then back to the lobby: the sweep must not
	// reap the freshly reset room on its next tick.
	f.clock.Advance(time.Hour)
	require.NoError(t, f.c.ResetRoom(ctx, "host"))
	assert.False(t, f.c.ExpireIfStale(ctx, 10*time.Minute))

	f.clock.Advance(10*time.Minute + time.Second)
	assert.True(t, f.c.ExpireIfStale(ctx, 10*time.Minute))
}

func TestStoreFailureSurfaces(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()

	f.store.SetDown(true)
	err := f.c.SetReady(ctx, "guest0", true)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}

// TestStoreFailureKeepsAppliedState pins down the write-through
// contract: the in-memory document is authoritative, so a command that
// failed to persist has still been applied and a retry sees it.
func TestStoreFailureKeepsAppliedState(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()
	f.readyAll(t, 1)
	require.NoError(t, f.c.StartRound(ctx, "host"))

	f.store.SetDown(true)
	outcome, err := f.c.SubmitAction(ctx, "guest0", 0)
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.Equal(t, int64(testPenaltyMs), outcome, "the outcome is reported even when the broadcast fails")

	f.store.SetDown(false)
	_, err = f.c.SubmitAction(ctx, "guest0", 0)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyResolved)

	score, last := playerByUID(f, "guest0")
	assert.Equal(t, int64(testPenaltyMs), score)
	require.NotNil(t, last)
}

func TestStaleArmTimerDiscarded(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()
	f.readyAll(t, 1)
	require.NoError(t, f.c.StartRound(ctx, "host"))

	// Both players false-start, resolving the round while the arm timer
	// is still pending. The timer must not flip the resolved round back.
	_, _ = f.c.SubmitAction(ctx, "guest0", 0)
	_, _ = f.c.SubmitAction(ctx, "host", 0)
	require.Equal(t, string(PhaseResolved), f.c.Snapshot().Phase)

	f.clock.Advance(testArmDelayMs * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, string(PhaseResolved), f.c.Snapshot().Phase)
	assert.Zero(t, f.c.Snapshot().ArmedAt)
}
