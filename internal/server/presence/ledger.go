package presence

import (
	"log"
	"sync"
)

// Ledger 连接在场账本
// 每条 WebSocket 连接在握手后登记，断开时注销；
// 任何依赖"玩家还在线"的状态（房间成员资格）都在这里挂清理回调。
//
// 关键约束：回调必须在向客户端确认入房之前挂上。连接若在登记回调
// 与确认之间断开，回调仍会被执行，不会留下幽灵成员。
type Ledger struct {
	mu    sync.Mutex
	conns map[string]*entry
}

type entry struct {
	cleanups []func()
}

// NewLedger 创建账本
func NewLedger() *Ledger {
	return &Ledger{conns: make(map[string]*entry)}
}

// Track 登记一条连接，重复登记是空操作
func (l *Ledger) Track(connID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.conns[connID]; !ok {
		l.conns[connID] = &entry{}
	}
}

// Tracked 该连接是否在场
func (l *Ledger) Tracked(connID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.conns[connID]
	return ok
}

// RegisterCleanup 为连接挂一个断开清理回调
// 连接已不在场（未登记或已断开）时立即执行回调，调用方无需区分两种时序
func (l *Ledger) RegisterCleanup(connID string, fn func()) {
	l.mu.Lock()
	e, ok := l.conns[connID]
	if ok {
		e.cleanups = append(e.cleanups, fn)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	log.Printf("🧹 连接 %s 已不在场，立即执行清理", connID)
	fn()
}

// Drop 注销连接并执行全部清理回调（按登记顺序）
// 重复注销是空操作；回调在锁外执行，允许回调里再次操作账本
func (l *Ledger) Drop(connID string) {
	l.mu.Lock()
	e, ok := l.conns[connID]
	if ok {
		delete(l.conns, connID)
	}
	l.mu.Unlock()
	if !ok {
		return
	}

	for _, fn := range e.cleanups {
		fn()
	}
}
