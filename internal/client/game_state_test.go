package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/reaction-royale/internal/protocol"
)

func snapshotMsg(t *testing.T, room protocol.RoomSnapshot) *protocol.Message {
	t.Helper()
	return protocol.MustNewMessage(protocol.MsgRoomState, protocol.RoomStatePayload{Room: room})
}

func TestApplyRoomState(t *testing.T) {
	gs := NewGameState("u1")

	changed := gs.Apply(snapshotMsg(t, protocol.RoomSnapshot{
		Code:   "AB12",
		HostID: "u1",
		Status: "waiting",
		Players: []protocol.PlayerInfo{
			{UID: "u1", Name: "Alice", IsHost: true},
		},
	}))

	assert.True(t, changed)
	assert.True(t, gs.InRoom)
	assert.True(t, gs.IsHost())

	me, ok := gs.Me()
	require.True(t, ok)
	assert.Equal(t, "Alice", me.Name)
}

func TestApplyRoomGone(t *testing.T) {
	gs := NewGameState("u1")
	gs.Apply(snapshotMsg(t, protocol.RoomSnapshot{Code: "AB12", Players: []protocol.PlayerInfo{{UID: "u1"}}}))

	changed := gs.Apply(protocol.MustNewMessage(protocol.MsgRoomGone, protocol.RoomGonePayload{RoomCode: "AB12"}))

	assert.True(t, changed)
	assert.False(t, gs.InRoom)
	assert.True(t, gs.RoomGone)
	assert.Empty(t, gs.Snapshot().Code)
}

func TestTriviaClearedOnNewRound(t *testing.T) {
	gs := NewGameState("u1")
	gs.Apply(snapshotMsg(t, protocol.RoomSnapshot{Code: "AB12", RoundIndex: 1}))

	gs.Apply(protocol.MustNewMessage(protocol.MsgRoundTrivia, protocol.RoundTriviaPayload{
		RoundIndex: 1,
		Question:   "q",
		Options:    []string{"a", "b"},
	}))
	require.NotNil(t, gs.Trivia)

	gs.Apply(snapshotMsg(t, protocol.RoomSnapshot{Code: "AB12", RoundIndex: 2}))
	assert.Nil(t, gs.Trivia, "a new round clears the trivia card")
}

func TestStandingsSortAscending(t *testing.T) {
	gs := NewGameState("u1")
	gs.Apply(snapshotMsg(t, protocol.RoomSnapshot{
		Code: "AB12",
		Players: []protocol.PlayerInfo{
			{UID: "u1", Score: 900},
			{UID: "u2", Score: 300},
			{UID: "u3", Score: 1500},
		},
	}))

	standings := gs.Standings()
	require.Len(t, standings, 3)
	assert.Equal(t, "u2", standings[0].UID, "lowest total time ranks first")
	assert.Equal(t, "u1", standings[1].UID)
	assert.Equal(t, "u3", standings[2].UID)
}

func TestApplyError(t *testing.T) {
	gs := NewGameState("u1")

	gs.Apply(protocol.NewErrorMessage(protocol.ErrCodeNotHost))
	assert.NotEmpty(t, gs.LastError)

	// 下一次快照推送会清掉错误提示
	gs.Apply(snapshotMsg(t, protocol.RoomSnapshot{Code: "AB12"}))
	assert.Empty(t, gs.LastError)
}
