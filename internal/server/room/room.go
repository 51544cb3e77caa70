package room

import (
	"time"
)

// Status 房间状态（叠加在回合阶段之上）
type Status string

const (
	StatusWaiting Status = "waiting" // 大厅等待中
	StatusPlaying Status = "playing" // 对局进行中
	StatusResults Status = "results" // 终局结算展示
)

// Phase 回合阶段
type Phase string

const (
	PhaseIdle     Phase = "idle"     // 未触发（含开局前的随机延迟窗口）
	PhaseArmed    Phase = "armed"    // 已触发，开始计时
	PhaseResolved Phase = "resolved" // 本回合已结算
)

// Player 房间中的玩家
type Player struct {
	UID         string
	Name        string
	AvatarSeed  string
	Score       int64  // 累计反应耗时（毫秒），越低越好
	Ready       bool   // 仅在等待阶段有意义
	LastOutcome *int64 // 本回合结果（毫秒），未出手为空
}

// Round 回合状态，房间内所有玩家共享
type Round struct {
	Phase       Phase
	Index       int   // 从 0 开始，每开一回合加一
	TotalRounds int   // 建房时固定
	ArmedAt     int64 // 触发时刻（服务端毫秒时间戳），仲裁时钟唯一来源
}

// Room 游戏房间
type Room struct {
	Code      string             // 房间号
	Name      string             // 房间名
	HostID    string             // 房主，始终是 Players 的键之一
	Status    Status             // 房间状态
	Players   map[string]*Player // 玩家列表
	Order     []string           // 玩家加入顺序，仅用于展示排序
	Round     Round              // 回合状态
	CreatedAt time.Time          // 创建时间
}

// PlayerRec 加入房间时的玩家记录
type PlayerRec struct {
	UID        string
	Name       string
	AvatarSeed string
}

// New 创建一个房间，创建者即房主
func New(code, name string, creator PlayerRec, totalRounds int, createdAt time.Time) *Room {
	r := &Room{
		Code:      code,
		Name:      name,
		HostID:    creator.UID,
		Status:    StatusWaiting,
		Players:   make(map[string]*Player),
		Order:     make([]string, 0, 4),
		Round:     Round{Phase: PhaseIdle, TotalRounds: totalRounds},
		CreatedAt: createdAt,
	}
	r.addPlayer(creator)
	return r
}

// addPlayer 插入玩家，已存在则保持原记录（幂等）
func (r *Room) addPlayer(rec PlayerRec) *Player {
	if p, ok := r.Players[rec.UID]; ok {
		return p
	}
	p := &Player{
		UID:        rec.UID,
		Name:       rec.Name,
		AvatarSeed: rec.AvatarSeed,
	}
	r.Players[rec.UID] = p
	r.Order = append(r.Order, rec.UID)
	return p
}

// removePlayer 移除玩家，不存在则为空操作
func (r *Room) removePlayer(uid string) {
	if _, ok := r.Players[uid]; !ok {
		return
	}
	delete(r.Players, uid)
	for i, id := range r.Order {
		if id == uid {
			r.Order = append(r.Order[:i], r.Order[i+1:]...)
			break
		}
	}
}

// allNonHostReady 开局门槛：除房主外所有玩家都已准备（房主默认视为已准备）
func (r *Room) allNonHostReady() bool {
	for uid, p := range r.Players {
		if uid == r.HostID {
			continue
		}
		if !p.Ready {
			return false
		}
	}
	return true
}

// allResolved 本回合所有在场玩家都已有结果
func (r *Room) allResolved() bool {
	for _, p := range r.Players {
		if p.LastOutcome == nil {
			return false
		}
	}
	return true
}

// clearOutcomes 清空上一回合的结果
func (r *Room) clearOutcomes() {
	for _, p := range r.Players {
		p.LastOutcome = nil
	}
}
