package room

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/reaction-royale/internal/apperrors"
	"github.com/palemoky/reaction-royale/internal/config"
	"github.com/palemoky/reaction-royale/internal/content"
	"github.com/palemoky/reaction-royale/internal/protocol"
	"github.com/palemoky/reaction-royale/internal/server/storage"
	"github.com/palemoky/reaction-royale/internal/testutil"
)

// recordingNotifier captures every message delivered per player.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs map[string][]*protocol.Message
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{msgs: make(map[string][]*protocol.Message)}
}

func (n *recordingNotifier) Notify(uid string, msg *protocol.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs[uid] = append(n.msgs[uid], msg)
}

func (n *recordingNotifier) countByType(uid string, mt protocol.MessageType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, m := range n.msgs[uid] {
		if m.Type == mt {
			count++
		}
	}
	return count
}

func (n *recordingNotifier) lastByType(uid string, mt protocol.MessageType) *protocol.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.msgs[uid]) - 1; i >= 0; i-- {
		if n.msgs[uid][i].Type == mt {
			return n.msgs[uid][i]
		}
	}
	return nil
}

func testGameConfig() *config.GameConfig {
	return &config.GameConfig{
		TotalRounds:    5,
		ArmDelayMinMs:  testArmDelayMs,
		ArmDelayMaxMs:  testArmDelayMs,
		RoundTimeout:   10,
		EarlyPenaltyMs: testPenaltyMs,
		RoomTimeout:    10,
	}
}

func newTestManager(t *testing.T) (*Manager, *testutil.MemStore, *recordingNotifier, *clockwork.FakeClock) {
	t.Helper()
	store := testutil.NewMemStore()
	notifier := newRecordingNotifier()
	clock := clockwork.NewFakeClock()
	m := NewManager(store, clock, testGameConfig(), notifier, content.NewLocalBank())
	t.Cleanup(m.Close)
	return m, store, notifier, clock
}

func TestCreateRoom(t *testing.T) {
	m, store, _, _ := newTestManager(t)
	ctx := context.Background()

	snap, err := m.Create(ctx, "my room", PlayerRec{UID: "u1", Name: "Alice"})
	require.NoError(t, err)

	assert.Len(t, snap.Code, 4)
	assert.Equal(t, strings.ToUpper(snap.Code), snap.Code)
	assert.Equal(t, "my room", snap.Name)
	assert.Equal(t, "u1", snap.HostID)
	assert.Equal(t, string(StatusWaiting), snap.Status)
	require.Len(t, snap.Players, 1)
	assert.True(t, snap.Players[0].IsHost)

	doc, err := store.LoadRoom(ctx, snap.Code)
	require.NoError(t, err)
	require.NotNil(t, doc)
}

func TestGetNormalizesCode(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	ctx := context.Background()

	snap, err := m.Create(ctx, "room", PlayerRec{UID: "u1", Name: "Alice"})
	require.NoError(t, err)

	coord, err := m.Get(ctx, " "+strings.ToLower(snap.Code)+" ")
	require.NoError(t, err)
	assert.Equal(t, snap.Code, coord.Code())
}

func TestGetUnknownRoom(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	_, err := m.Get(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

// alwaysTakenStore makes every room code look occupied.
type alwaysTakenStore struct {
	*testutil.MemStore
}

func (s *alwaysTakenStore) CreateRoom(context.Context, *storage.RoomDoc) error {
	return apperrors.ErrAlreadyExists
}

func TestCreateExhausted(t *testing.T) {
	store := &alwaysTakenStore{MemStore: testutil.NewMemStore()}
	m := NewManager(store, clockwork.NewFakeClock(), testGameConfig(),
		newRecordingNotifier(), content.NewLocalBank())
	t.Cleanup(m.Close)

	_, err := m.Create(context.Background(), "room", PlayerRec{UID: "u1", Name: "Alice"})
	assert.ErrorIs(t, err, apperrors.ErrCreationExhausted)
}

func TestGetAdoptsFromStore(t *testing.T) {
	m, store, _, clock := newTestManager(t)
	ctx := context.Background()

	// A room written by a previous process instance.
	r := New("WXYZ", "orphan", PlayerRec{UID: "u1", Name: "Alice"}, 5, clock.Now())
	require.NoError(t, store.SaveRoom(ctx, r.ToDoc()))

	coord, err := m.Get(ctx, "WXYZ")
	require.NoError(t, err)
	assert.Equal(t, "WXYZ", coord.Code())
	assert.Equal(t, "orphan", coord.Snapshot().Name)
}

func TestListRooms(t *testing.T) {
	m, _, _, clock := newTestManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, "first", PlayerRec{UID: "u1", Name: "Alice"})
	require.NoError(t, err)
	clock.Advance(time.Second)
	second, err := m.Create(ctx, "second", PlayerRec{UID: "u2", Name: "Bob"})
	require.NoError(t, err)

	items, err := m.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.Code, items[0].RoomCode, "newest room first")
	assert.Equal(t, first.Code, items[1].RoomCode)
	assert.Equal(t, 1, items[0].PlayerCount)
}

func TestFanoutBroadcastsState(t *testing.T) {
	m, _, notifier, _ := newTestManager(t)
	ctx := context.Background()

	snap, err := m.Create(ctx, "room", PlayerRec{UID: "host", Name: "Alice"})
	require.NoError(t, err)
	_, err = m.Join(ctx, snap.Code, PlayerRec{UID: "guest", Name: "Bob"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return notifier.countByType("host", protocol.MsgRoomState) > 0 &&
			notifier.countByType("guest", protocol.MsgRoomState) > 0
	}, time.Second, time.Millisecond)

	msg := notifier.lastByType("guest", protocol.MsgRoomState)
	payload, err := protocol.ParsePayload[protocol.RoomStatePayload](msg)
	require.NoError(t, err)
	assert.Len(t, payload.Room.Players, 2)
}

func TestFanoutRoomGone(t *testing.T) {
	m, _, notifier, _ := newTestManager(t)
	ctx := context.Background()

	snap, err := m.Create(ctx, "room", PlayerRec{UID: "host", Name: "Alice"})
	require.NoError(t, err)
	_, err = m.Join(ctx, snap.Code, PlayerRec{UID: "guest", Name: "Bob"})
	require.NoError(t, err)

	// Wait for the broadcast goroutine to observe both members, then
	// dissolve the room by the host leaving.
	require.Eventually(t, func() bool {
		return notifier.countByType("guest", protocol.MsgRoomState) > 0
	}, time.Second, time.Millisecond)
	require.NoError(t, m.Leave(ctx, snap.Code, "host"))

	require.Eventually(t, func() bool {
		return notifier.countByType("guest", protocol.MsgRoomGone) > 0
	}, time.Second, time.Millisecond)

	_, err = m.Get(ctx, snap.Code)
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestTriviaPushedOnResolve(t *testing.T) {
	m, _, notifier, _ := newTestManager(t)
	ctx := context.Background()

	snap, err := m.Create(ctx, "room", PlayerRec{UID: "host", Name: "Alice"})
	require.NoError(t, err)
	_, err = m.Join(ctx, snap.Code, PlayerRec{UID: "guest", Name: "Bob"})
	require.NoError(t, err)

	coord, err := m.Get(ctx, snap.Code)
	require.NoError(t, err)
	require.NoError(t, coord.SetReady(ctx, "guest", true))
	require.NoError(t, coord.StartRound(ctx, "host"))

	// Two false starts resolve the round immediately.
	_, err = coord.SubmitAction(ctx, "host", 0)
	require.NoError(t, err)
	_, err = coord.SubmitAction(ctx, "guest", 0)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return notifier.countByType("host", protocol.MsgRoundTrivia) > 0 &&
			notifier.countByType("guest", protocol.MsgRoundTrivia) > 0
	}, time.Second, time.Millisecond)

	msg := notifier.lastByType("host", protocol.MsgRoundTrivia)
	payload, err := protocol.ParsePayload[protocol.RoundTriviaPayload](msg)
	require.NoError(t, err)
	assert.NotEmpty(t, payload.Question)
	assert.GreaterOrEqual(t, len(payload.Options), 2)
	assert.Less(t, payload.Answer, len(payload.Options))
}

func TestLeaveUnknownRoomIsNoop(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	assert.NoError(t, m.Leave(context.Background(), "ZZZZ", "u1"))
}

func TestSweepExpiresIdleRooms(t *testing.T) {
	m, store, _, clock := newTestManager(t)
	ctx := context.Background()

	snap, err := m.Create(ctx, "room", PlayerRec{UID: "host", Name: "Alice"})
	require.NoError(t, err)

	clock.Advance(10*time.Minute + time.Second)
	m.sweep(ctx)

	doc, err := store.LoadRoom(ctx, snap.Code)
	require.NoError(t, err)
	assert.Nil(t, doc)
	_, err = m.Get(ctx, snap.Code)
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}
