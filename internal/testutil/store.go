package testutil

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/palemoky/reaction-royale/internal/apperrors"
	"github.com/palemoky/reaction-royale/internal/server/storage"
)

// MemStore 测试用内存存储，行为与 Redis 实现一致：
// 订阅先立即收到当前值（不存在为 nil），之后每次写入推送快照，删除推送 nil
type MemStore struct {
	mu   sync.Mutex
	docs map[string]*storage.RoomDoc
	subs map[string][]chan *storage.RoomDoc
	down bool
}

// NewMemStore 创建内存存储
func NewMemStore() *MemStore {
	return &MemStore{
		docs: make(map[string]*storage.RoomDoc),
		subs: make(map[string][]chan *storage.RoomDoc),
	}
}

// SetDown 模拟存储故障，之后所有操作返回 ErrStoreUnavailable
func (s *MemStore) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// CreateRoom 房间号已占用时返回 ErrAlreadyExists
func (s *MemStore) CreateRoom(_ context.Context, doc *storage.RoomDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return apperrors.ErrStoreUnavailable
	}
	if _, ok := s.docs[doc.Code]; ok {
		return apperrors.ErrAlreadyExists
	}
	s.docs[doc.Code] = cloneDoc(doc)
	s.broadcastLocked(doc.Code, cloneDoc(doc))
	return nil
}

// SaveRoom 保存并向订阅者广播
func (s *MemStore) SaveRoom(_ context.Context, doc *storage.RoomDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return apperrors.ErrStoreUnavailable
	}
	s.docs[doc.Code] = cloneDoc(doc)
	s.broadcastLocked(doc.Code, cloneDoc(doc))
	return nil
}

// LoadRoom 不存在时返回 (nil, nil)
func (s *MemStore) LoadRoom(_ context.Context, code string) (*storage.RoomDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, apperrors.ErrStoreUnavailable
	}
	doc, ok := s.docs[code]
	if !ok {
		return nil, nil
	}
	return cloneDoc(doc), nil
}

// DeleteRoom 删除并广播墓碑
func (s *MemStore) DeleteRoom(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return apperrors.ErrStoreUnavailable
	}
	delete(s.docs, code)
	s.broadcastLocked(code, nil)
	return nil
}

// ListRooms 返回有效房间，按创建时间倒序
func (s *MemStore) ListRooms(_ context.Context) ([]*storage.RoomDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, apperrors.ErrStoreUnavailable
	}
	rooms := make([]*storage.RoomDoc, 0, len(s.docs))
	for _, doc := range s.docs {
		if !doc.Valid() {
			continue
		}
		rooms = append(rooms, cloneDoc(doc))
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt > rooms[j].CreatedAt
	})
	return rooms, nil
}

// Subscribe 订阅房间快照流
func (s *MemStore) Subscribe(_ context.Context, code string) (<-chan *storage.RoomDoc, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, nil, apperrors.ErrStoreUnavailable
	}

	ch := make(chan *storage.RoomDoc, 64)
	s.subs[code] = append(s.subs[code], ch)

	if doc, ok := s.docs[code]; ok {
		ch <- cloneDoc(doc)
	} else {
		ch <- nil
	}

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		chans := s.subs[code]
		for i, c := range chans {
			if c == ch {
				s.subs[code] = append(chans[:i], chans[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel, nil
}

func (s *MemStore) broadcastLocked(code string, doc *storage.RoomDoc) {
	for _, ch := range s.subs[code] {
		select {
		case ch <- doc:
		default: // 订阅方积压时丢弃，测试存储不阻塞写入
		}
	}
}

func cloneDoc(doc *storage.RoomDoc) *storage.RoomDoc {
	if doc == nil {
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	var out storage.RoomDoc
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}
