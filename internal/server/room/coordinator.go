package room

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/palemoky/reaction-royale/internal/apperrors"
	"github.com/palemoky/reaction-royale/internal/protocol"
	"github.com/palemoky/reaction-royale/internal/server/storage"
)

// Coordinator 房间协调器，一个活跃房间对应一个实例
// 所有写操作经由内部互斥锁串行化（单写者），再通过 Store 持久化并广播
type Coordinator struct {
	store  storage.Store
	clock  clockwork.Clock
	engine *Engine

	roundTimeout time.Duration // 触发后等待所有人出手的上限

	mu         sync.Mutex
	room       *Room
	gone       bool
	lastActive time.Time // 最近一次写操作时刻，等待阶段的过期判定依据

	// 回合代数：每次回合重开/结算/重置时递增，旧计时器触发时据此丢弃
	gen          int
	armTimer     clockwork.Timer
	timeoutTimer clockwork.Timer

	onGone func(code string) // 房间销毁后的回调（管理器解除登记）
}

// NewCoordinator 创建房间协调器
func NewCoordinator(r *Room, store storage.Store, clock clockwork.Clock, engine *Engine,
	roundTimeout time.Duration, onGone func(code string)) *Coordinator {
	return &Coordinator{
		store:        store,
		clock:        clock,
		engine:       engine,
		roundTimeout: roundTimeout,
		room:         r,
		lastActive:   clock.Now(),
		onGone:       onGone,
	}
}

// Code 房间号
func (c *Coordinator) Code() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room.Code
}

// Snapshot 当前房间快照
func (c *Coordinator) Snapshot() protocol.RoomSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room.Snapshot()
}

// Join 加入房间（幂等：重复加入同一玩家是空操作）
// 房间为空时加入者成为房主；对局开始后不再接受新玩家
func (c *Coordinator) Join(ctx context.Context, rec PlayerRec) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gone {
		return apperrors.ErrRoomNotFound
	}
	if _, ok := c.room.Players[rec.UID]; ok {
		return nil // 已在房间中
	}
	if c.room.Status != StatusWaiting {
		return apperrors.ErrWrongPhase
	}

	c.room.addPlayer(rec)
	if len(c.room.Players) == 1 || rec.UID == c.room.HostID {
		c.room.HostID = rec.UID
	}

	log.Printf("👤 玩家 %s 加入房间 %s", rec.Name, c.room.Code)
	return c.persist(ctx)
}

// Leave 离开房间（幂等：不在房间中是空操作）
// 房主离开级联解散整个房间；最后一名玩家离开同样解散
func (c *Coordinator) Leave(ctx context.Context, uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gone {
		return nil
	}
	player, ok := c.room.Players[uid]
	if !ok {
		return nil
	}

	if uid == c.room.HostID {
		log.Printf("👋 房主 %s 离开，房间 %s 解散", player.Name, c.room.Code)
		return c.destroyLocked(ctx)
	}

	c.room.removePlayer(uid)
	log.Printf("👋 玩家 %s 离开房间 %s", player.Name, c.room.Code)

	if len(c.room.Players) == 0 {
		return c.destroyLocked(ctx)
	}

	// 对局进行中离开：剩下的人可能因此凑齐结果
	if c.room.Status == StatusPlaying && c.room.Round.Phase != PhaseResolved && c.room.allResolved() {
		c.resolveRoundLocked()
	}
	return c.persist(ctx)
}

// SetReady 设置准备状态（幂等）
// 回合开始后准备标记无意义，静默忽略
func (c *Coordinator) SetReady(ctx context.Context, uid string, ready bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gone {
		return apperrors.ErrRoomNotFound
	}
	player, ok := c.room.Players[uid]
	if !ok {
		return apperrors.ErrNotAMember
	}
	if c.room.Status != StatusWaiting || c.room.Round.Phase != PhaseIdle {
		return nil
	}
	if player.Ready == ready {
		return nil
	}

	player.Ready = ready
	return c.persist(ctx)
}

// StartRound 房主开始第一回合
// 条件：房主发起、等待阶段、至少两人、除房主外全部已准备
func (c *Coordinator) StartRound(ctx context.Context, requestorID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gone {
		return apperrors.ErrRoomNotFound
	}
	if requestorID != c.room.HostID {
		return apperrors.ErrNotHost
	}
	if c.room.Status != StatusWaiting || c.room.Round.Phase != PhaseIdle {
		return apperrors.ErrWrongPhase
	}
	if len(c.room.Players) < 2 {
		return apperrors.ErrNotEnoughPlayers
	}
	if !c.room.allNonHostReady() {
		return apperrors.ErrNotAllReady
	}

	c.room.Status = StatusPlaying
	return c.launchRoundLocked(ctx)
}

// SubmitAction 玩家出手
// 触发前出手按抢跑计惩罚值；每人每回合只计一次，重复出手拒绝且不改动任何状态
func (c *Coordinator) SubmitAction(ctx context.Context, uid string, clientTime int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gone {
		return 0, apperrors.ErrRoomNotFound
	}
	player, ok := c.room.Players[uid]
	if !ok {
		return 0, apperrors.ErrNotAMember
	}
	if c.room.Status != StatusPlaying || c.room.Round.Phase == PhaseResolved {
		return 0, apperrors.ErrWrongPhase
	}
	if player.LastOutcome != nil {
		return 0, apperrors.ErrAlreadyResolved
	}

	now := c.clock.Now().UnixMilli()
	outcome, early := c.engine.Judge(&c.room.Round, now)
	player.Score += outcome
	player.LastOutcome = &outcome

	if early {
		log.Printf("🤦 玩家 %s 在房间 %s 抢跑，计 %dms 惩罚 (客户端时间 %d)",
			player.Name, c.room.Code, outcome, clientTime)
	} else {
		log.Printf("⚡ 玩家 %s 在房间 %s 反应 %dms", player.Name, c.room.Code, outcome)
	}

	if c.room.allResolved() {
		c.resolveRoundLocked()
	}
	if err := c.persist(ctx); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// AdvanceRound 房主推进：回合已结算后进入下一回合，打满则进入终局结算
func (c *Coordinator) AdvanceRound(ctx context.Context, requestorID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gone {
		return apperrors.ErrRoomNotFound
	}
	if requestorID != c.room.HostID {
		return apperrors.ErrNotHost
	}
	if c.room.Status != StatusPlaying || c.room.Round.Phase != PhaseResolved {
		return apperrors.ErrWrongPhase
	}

	if c.room.Round.Index >= c.room.Round.TotalRounds {
		c.room.Status = StatusResults
		log.Printf("🏆 房间 %s 打满 %d 回合，进入结算", c.room.Code, c.room.Round.TotalRounds)
		return c.persist(ctx)
	}
	return c.launchRoundLocked(ctx)
}

// ResetRoom 房主在终局结算后重置房间，回到等待阶段再来一局
func (c *Coordinator) ResetRoom(ctx context.Context, requestorID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gone {
		return apperrors.ErrRoomNotFound
	}
	if requestorID != c.room.HostID {
		return apperrors.ErrNotHost
	}
	if c.room.Status != StatusResults {
		return apperrors.ErrWrongPhase
	}

	c.cancelTimersLocked()
	for _, p := range c.room.Players {
		p.Score = 0
		p.Ready = false
		p.LastOutcome = nil
	}
	c.room.Round = Round{Phase: PhaseIdle, TotalRounds: c.room.Round.TotalRounds}
	c.room.Status = StatusWaiting

	log.Printf("🔄 房间 %s 已重置", c.room.Code)
	return c.persist(ctx)
}

// ExpireIfStale 等待阶段长时间无任何写操作则解散（管理器清理协程调用）
// 以最近活动时刻而非创建时刻计时：打完一局重置回等待的房间不会被立即清走
func (c *Coordinator) ExpireIfStale(ctx context.Context, timeout time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gone || c.room.Status != StatusWaiting {
		return false
	}
	if c.clock.Now().Sub(c.lastActive) <= timeout {
		return false
	}

	log.Printf("🏠 房间 %s 等待超时，清理", c.room.Code)
	_ = c.destroyLocked(ctx)
	return true
}

// destroyLocked 解散房间：撤销计时器、删除存储文档（广播墓碑）、通知管理器
func (c *Coordinator) destroyLocked(ctx context.Context) error {
	c.gone = true
	c.cancelTimersLocked()

	err := c.store.DeleteRoom(ctx, c.room.Code)
	if c.onGone != nil {
		c.onGone(c.room.Code)
	}
	return err
}

// persist 持久化当前状态，Store 负责向订阅者广播
// 内存态是权威状态：写失败不回滚已做的改动，ErrStoreUnavailable 只表示
// 本次落盘/广播失败。重试同一条命令可能发现命令其实已生效
// （例如出手已记录，重试被按重复出手拒绝）
func (c *Coordinator) persist(ctx context.Context) error {
	c.lastActive = c.clock.Now()
	if err := c.store.SaveRoom(ctx, c.room.ToDoc()); err != nil {
		log.Printf("⚠️ 房间 %s 状态持久化失败: %v", c.room.Code, err)
		return apperrors.ErrStoreUnavailable
	}
	return nil
}
