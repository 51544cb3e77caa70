package room

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/palemoky/reaction-royale/internal/apperrors"
	"github.com/palemoky/reaction-royale/internal/config"
	"github.com/palemoky/reaction-royale/internal/content"
	"github.com/palemoky/reaction-royale/internal/protocol"
	"github.com/palemoky/reaction-royale/internal/server/storage"
)

const (
	roomCodeLength  = 4
	roomCodeCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// 房间号碰撞重试上限，用尽后放弃本次建房
	maxCreateAttempts = 5

	// 清理协程扫描间隔
	cleanupInterval = time.Minute
)

// Notifier 把消息投递给指定玩家的出口（由网关实现）
// 玩家不在线时投递静默丢弃
type Notifier interface {
	Notify(uid string, msg *protocol.Message)
}

// Manager 房间注册表
// 负责建房（房间号生成与碰撞重试）、按号取房、房间列表、
// 每个房间的快照广播协程和空闲房间清理
type Manager struct {
	store  storage.Store
	clock  clockwork.Clock
	cfg    *config.GameConfig
	engine *Engine

	notifier Notifier
	trivia   content.Generator

	mu    sync.RWMutex
	rooms map[string]*managedRoom

	ctx    context.Context
	cancel context.CancelFunc
}

// managedRoom 协调器与其广播协程的取消句柄
type managedRoom struct {
	coord  *Coordinator
	cancel context.CancelFunc
}

// NewManager 创建房间管理器
func NewManager(store storage.Store, clock clockwork.Clock, cfg *config.GameConfig,
	notifier Notifier, trivia content.Generator) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:    store,
		clock:    clock,
		cfg:      cfg,
		engine:   NewEngine(cfg.ArmDelayMinMs, cfg.ArmDelayMaxMs, cfg.EarlyPenaltyMs),
		notifier: notifier,
		trivia:   trivia,
		rooms:    make(map[string]*managedRoom),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// NormalizeCode 房间号统一为大写（客户端输入不区分大小写）
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateRoomCode 生成 4 位大写字母数字房间号
func generateRoomCode() string {
	b := make([]byte, roomCodeLength)
	for i := range b {
		b[i] = roomCodeCharset[rand.Intn(len(roomCodeCharset))]
	}
	return string(b)
}

// Create 建房，创建者即房主
// 以 SETNX 抢占房间号，被占用则换号重试；重试耗尽返回 ErrCreationExhausted
func (m *Manager) Create(ctx context.Context, name string, creator PlayerRec) (protocol.RoomSnapshot, error) {
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		code := generateRoomCode()
		r := New(code, name, creator, m.cfg.TotalRounds, m.clock.Now())

		err := m.store.CreateRoom(ctx, r.ToDoc())
		if err == apperrors.ErrAlreadyExists {
			log.Printf("🎲 房间号 %s 已被占用，重试 (%d/%d)", code, attempt+1, maxCreateAttempts)
			continue
		}
		if err != nil {
			return protocol.RoomSnapshot{}, err
		}

		coord := NewCoordinator(r, m.store, m.clock, m.engine, m.cfg.RoundTimeoutDuration(), m.unregister)
		m.register(code, coord)
		log.Printf("🏠 玩家 %s 创建房间 %s (%s)", creator.Name, code, name)
		return r.Snapshot(), nil
	}
	return protocol.RoomSnapshot{}, apperrors.ErrCreationExhausted
}

// Get 按房间号取协调器
// 本地没有时从存储认领（服务重启后恢复房间），确实不存在返回 ErrRoomNotFound
func (m *Manager) Get(ctx context.Context, code string) (*Coordinator, error) {
	code = NormalizeCode(code)

	m.mu.RLock()
	entry, ok := m.rooms[code]
	m.mu.RUnlock()
	if ok {
		return entry.coord, nil
	}

	doc, err := m.store.LoadRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if doc == nil || !doc.Valid() {
		return nil, apperrors.ErrRoomNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// 双检：认领期间可能已有并发请求注册过了
	if entry, ok := m.rooms[code]; ok {
		return entry.coord, nil
	}
	coord := NewCoordinator(FromDoc(doc), m.store, m.clock, m.engine, m.cfg.RoundTimeoutDuration(), m.unregister)
	m.registerLocked(code, coord)
	log.Printf("♻️ 从存储认领房间 %s", code)
	return coord, nil
}

// ListRooms 返回可加入的房间列表（按创建时间倒序）
func (m *Manager) ListRooms(ctx context.Context) ([]protocol.RoomListItem, error) {
	docs, err := m.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]protocol.RoomListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, protocol.RoomListItem{
			RoomCode:    doc.Code,
			RoomName:    doc.Name,
			PlayerCount: len(doc.Players),
			Status:      doc.Status,
			CreatedAt:   doc.CreatedAt,
		})
	}
	return items, nil
}

// Join 加入指定房间
func (m *Manager) Join(ctx context.Context, code string, rec PlayerRec) (protocol.RoomSnapshot, error) {
	coord, err := m.Get(ctx, code)
	if err != nil {
		return protocol.RoomSnapshot{}, err
	}
	if err := coord.Join(ctx, rec); err != nil {
		return protocol.RoomSnapshot{}, err
	}
	return coord.Snapshot(), nil
}

// Leave 离开指定房间（幂等，房间不存在也算成功）
func (m *Manager) Leave(ctx context.Context, code string, uid string) error {
	code = NormalizeCode(code)

	m.mu.RLock()
	entry, ok := m.rooms[code]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return entry.coord.Leave(ctx, uid)
}

// Run 周期清理等待超时的空闲房间，阻塞直到 ctx 结束
func (m *Manager) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			m.sweep(ctx)
		case <-ctx.Done():
			return
		case <-m.ctx.Done():
			return
		}
	}
}

// Close 停止所有广播协程
func (m *Manager) Close() {
	m.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	for code, entry := range m.rooms {
		entry.cancel()
		delete(m.rooms, code)
	}
}

// sweep 扫描所有房间，解散等待超时的
func (m *Manager) sweep(ctx context.Context) {
	m.mu.RLock()
	coords := make([]*Coordinator, 0, len(m.rooms))
	for _, entry := range m.rooms {
		coords = append(coords, entry.coord)
	}
	m.mu.RUnlock()

	for _, c := range coords {
		c.ExpireIfStale(ctx, m.cfg.RoomTimeoutDuration())
	}
}

// ActiveGames 对局进行中的房间数，优雅停机时等待它归零
func (m *Manager) ActiveGames() int {
	m.mu.RLock()
	coords := make([]*Coordinator, 0, len(m.rooms))
	for _, entry := range m.rooms {
		coords = append(coords, entry.coord)
	}
	m.mu.RUnlock()

	n := 0
	for _, c := range coords {
		if c.Snapshot().Status == string(StatusPlaying) {
			n++
		}
	}
	return n
}

// register 登记协调器并启动它的广播协程
// 房间号由调用方传入，持有注册表锁时不触碰协调器锁
func (m *Manager) register(code string, c *Coordinator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerLocked(code, c)
}

func (m *Manager) registerLocked(code string, c *Coordinator) {
	ctx, cancel := context.WithCancel(m.ctx)
	m.rooms[code] = &managedRoom{coord: c, cancel: cancel}
	go m.fanout(ctx, code)
}

// unregister 房间销毁后的回调，解除登记
// 广播协程收到墓碑后自行退出，这里不强行取消，避免漏发"房间已消失"
func (m *Manager) unregister(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, code)
}

// fanout 房间广播协程
// 订阅存储的快照流，把每次状态变化推给房间内全部玩家；
// 收到墓碑（房间删除）时向最后一批已知成员推送"房间已消失"后退出
func (m *Manager) fanout(ctx context.Context, code string) {
	ch, unsub, err := m.store.Subscribe(ctx, code)
	if err != nil {
		log.Printf("⚠️ 订阅房间 %s 失败: %v", code, err)
		return
	}
	defer unsub()

	var last *protocol.RoomSnapshot
	for {
		select {
		case doc, ok := <-ch:
			if !ok {
				return
			}
			if doc == nil {
				if last == nil {
					continue // 初始快照为空（订阅先于首次写入），等后续推送
				}
				gone := protocol.MustNewMessage(protocol.MsgRoomGone,
					protocol.RoomGonePayload{RoomCode: code})
				for _, p := range last.Players {
					m.notifier.Notify(p.UID, gone)
				}
				return
			}

			snap := SnapshotFromDoc(doc)
			state := protocol.MustNewMessage(protocol.MsgRoomState,
				protocol.RoomStatePayload{Room: snap})
			for _, p := range snap.Players {
				m.notifier.Notify(p.UID, state)
			}

			// 回合刚结算：顺带推一道冷知识题，填充等待房主推进的间歇
			if snap.Phase == string(PhaseResolved) && (last == nil || last.Phase != string(PhaseResolved)) {
				go m.pushTrivia(snap)
			}
			last = &snap

		case <-ctx.Done():
			return
		}
	}
}

// pushTrivia 出题并推送给房间内全部玩家
// Generator 保证兜底，这一步不会失败
func (m *Manager) pushTrivia(snap protocol.RoomSnapshot) {
	ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
	defer cancel()

	q := m.trivia.Question(ctx, snap.RoundIndex)
	msg := protocol.MustNewMessage(protocol.MsgRoundTrivia, protocol.RoundTriviaPayload{
		RoundIndex: snap.RoundIndex,
		Question:   q.Text,
		Options:    q.Options,
		Answer:     q.Answer,
	})
	for _, p := range snap.Players {
		m.notifier.Notify(p.UID, msg)
	}
}
