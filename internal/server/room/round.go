package room

import (
	"math/rand"
	"time"
)

// Engine 回合判定引擎
// 只做纯计算：抽取触发延迟、把一次出手换算成结果值，不碰存储
type Engine struct {
	ArmDelayMin time.Duration // 触发延迟下限
	ArmDelayMax time.Duration // 触发延迟上限
	Penalty     int64         // 抢跑/超时惩罚值（毫秒）
}

// NewEngine 创建判定引擎
func NewEngine(delayMinMs, delayMaxMs, penaltyMs int64) *Engine {
	return &Engine{
		ArmDelayMin: time.Duration(delayMinMs) * time.Millisecond,
		ArmDelayMax: time.Duration(delayMaxMs) * time.Millisecond,
		Penalty:     penaltyMs,
	}
}

// ArmDelay 抽取本回合的触发延迟，均匀分布于 [min, max)
// 延迟只在服务端生成，所有客户端看到同一个触发时刻
func (e *Engine) ArmDelay() time.Duration {
	span := e.ArmDelayMax - e.ArmDelayMin
	if span <= 0 {
		return e.ArmDelayMin
	}
	return e.ArmDelayMin + time.Duration(rand.Int63n(int64(span)))
}

// Judge 把一次出手换算成结果值
// 触发前出手（phase 仍为 idle，或服务端时间早于触发时刻）按抢跑计惩罚值；
// 触发后出手计实际延迟，越小越好
func (e *Engine) Judge(rnd *Round, actionServerTime int64) (outcome int64, early bool) {
	if rnd.Phase != PhaseArmed || actionServerTime < rnd.ArmedAt {
		return e.Penalty, true
	}
	return actionServerTime - rnd.ArmedAt, false
}
