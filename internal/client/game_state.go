package client

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/palemoky/reaction-royale/internal/protocol"
)

// GameState 客户端本地游戏状态
// 由服务端推送的房间快照驱动，UI 只读取不修改
type GameState struct {
	mu sync.RWMutex

	MyID string

	InRoom bool
	Room   protocol.RoomSnapshot

	Trivia    *protocol.RoundTriviaPayload
	RoomGone  bool   // 房间被解散（房主离开/超时清理）
	LastError string // 最近一次服务端错误
}

// NewGameState 创建本地状态
func NewGameState(myID string) *GameState {
	return &GameState{MyID: myID}
}

// Apply 把服务端消息应用到本地状态
// 返回是否有状态变化（UI 据此重绘）
func (gs *GameState) Apply(msg *protocol.Message) bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	switch msg.Type {
	case protocol.MsgRoomCreated, protocol.MsgRoomJoined, protocol.MsgRoomState:
		var payload protocol.RoomStatePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return false
		}
		// 新回合开始时清掉上一回合的冷知识
		if payload.Room.RoundIndex != gs.Room.RoundIndex {
			gs.Trivia = nil
		}
		gs.Room = payload.Room
		gs.InRoom = true
		gs.RoomGone = false
		gs.LastError = ""
		return true

	case protocol.MsgRoomGone:
		gs.InRoom = false
		gs.RoomGone = true
		gs.Room = protocol.RoomSnapshot{}
		gs.Trivia = nil
		return true

	case protocol.MsgRoundTrivia:
		var payload protocol.RoundTriviaPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return false
		}
		gs.Trivia = &payload
		return true

	case protocol.MsgError:
		var payload protocol.ErrorPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return false
		}
		gs.LastError = payload.Message
		return true
	}
	return false
}

// LeaveRoom 主动离开后重置本地状态
func (gs *GameState) LeaveRoom() {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.InRoom = false
	gs.RoomGone = false
	gs.Room = protocol.RoomSnapshot{}
	gs.Trivia = nil
}

// IsHost 自己是否房主
func (gs *GameState) IsHost() bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.InRoom && gs.Room.HostID == gs.MyID
}

// Me 自己的玩家信息
func (gs *GameState) Me() (protocol.PlayerInfo, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	for _, p := range gs.Room.Players {
		if p.UID == gs.MyID {
			return p, true
		}
	}
	return protocol.PlayerInfo{}, false
}

// Snapshot 当前房间快照副本
func (gs *GameState) Snapshot() protocol.RoomSnapshot {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.Room
}

// Standings 按累计耗时升序排名（耗时越低名次越高）
func (gs *GameState) Standings() []protocol.PlayerInfo {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	standings := append([]protocol.PlayerInfo(nil), gs.Room.Players...)
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score < standings[j].Score
	})
	return standings
}
