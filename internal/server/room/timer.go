package room

import (
	"context"
	"log"
)

// --- 回合计时 ---
//
// 每个回合有两个一次性计时器：
//   1. 触发计时器：随机延迟后把回合从 idle 切到 armed；
//   2. 超时计时器：armed 后若有人迟迟不出手，按惩罚值补记并强制结算。
// 计时器回调带上回合代数，房间在回调触发前被重置/解散/结算时直接丢弃。

// launchRoundLocked 开启新回合：清空上回合结果、抽取触发延迟、挂触发计时器
func (c *Coordinator) launchRoundLocked(ctx context.Context) error {
	c.cancelTimersLocked()

	c.room.Round.Index++
	c.room.Round.Phase = PhaseIdle
	c.room.Round.ArmedAt = 0
	c.room.clearOutcomes()

	delay := c.engine.ArmDelay()
	gen := c.gen
	c.armTimer = c.clock.AfterFunc(delay, func() {
		c.arm(gen)
	})

	log.Printf("🎬 房间 %s 第 %d/%d 回合开始，%v 后触发",
		c.room.Code, c.room.Round.Index, c.room.Round.TotalRounds, delay)
	return c.persist(ctx)
}

// arm 触发计时器回调：记录触发时刻并挂超时计时器
func (c *Coordinator) arm(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gone || gen != c.gen || c.room.Status != StatusPlaying || c.room.Round.Phase != PhaseIdle {
		return // 过期触发
	}

	c.room.Round.Phase = PhaseArmed
	c.room.Round.ArmedAt = c.clock.Now().UnixMilli()

	c.timeoutTimer = c.clock.AfterFunc(c.roundTimeout, func() {
		c.roundTimedOut(gen)
	})

	log.Printf("🟢 房间 %s 第 %d 回合触发", c.room.Code, c.room.Round.Index)
	_ = c.persist(context.Background())
}

// roundTimedOut 超时计时器回调：未出手的玩家按惩罚值补记，保证回合必然收束
func (c *Coordinator) roundTimedOut(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gone || gen != c.gen || c.room.Round.Phase != PhaseArmed {
		return
	}

	for _, p := range c.room.Players {
		if p.LastOutcome == nil {
			outcome := c.engine.Penalty
			p.Score += outcome
			p.LastOutcome = &outcome
			log.Printf("⏰ 玩家 %s 在房间 %s 超时未出手，计 %dms 惩罚", p.Name, c.room.Code, outcome)
		}
	}

	c.resolveRoundLocked()
	_ = c.persist(context.Background())
}

// resolveRoundLocked 结算本回合，之后只等房主推进
func (c *Coordinator) resolveRoundLocked() {
	c.room.Round.Phase = PhaseResolved
	c.cancelTimersLocked()
	log.Printf("🏁 房间 %s 第 %d 回合结算", c.room.Code, c.room.Round.Index)
}

// cancelTimersLocked 撤销未触发的计时器并递增代数，杜绝过期回调复活状态
func (c *Coordinator) cancelTimersLocked() {
	c.gen++
	if c.armTimer != nil {
		c.armTimer.Stop()
		c.armTimer = nil
	}
	if c.timeoutTimer != nil {
		c.timeoutTimer.Stop()
		c.timeoutTimer = nil
	}
}
