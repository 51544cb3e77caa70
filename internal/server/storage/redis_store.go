package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/reaction-royale/internal/apperrors"
)

const (
	// Redis key 前缀
	roomKeyPrefix    = "room:"
	roomEventsPrefix = "room:events:"
	roomIndexKey     = "rooms:index"

	// 房间数据过期时间（兜底，正常流程由协调器主动删除）
	roomExpiration = 2 * time.Hour

	// 订阅通道缓冲
	subscribeBuffer = 16
)

// tombstone 房间删除时发布的墓碑消息，订阅方收到后视为"房间已消失"
const tombstone = "null"

// Store 房间存储契约
// Subscribe 先立即推送一次当前值（不存在则为 nil），之后每次写入再推送一次
type Store interface {
	CreateRoom(ctx context.Context, doc *RoomDoc) error
	SaveRoom(ctx context.Context, doc *RoomDoc) error
	LoadRoom(ctx context.Context, code string) (*RoomDoc, error)
	DeleteRoom(ctx context.Context, code string) error
	ListRooms(ctx context.Context) ([]*RoomDoc, error)
	Subscribe(ctx context.Context, code string) (<-chan *RoomDoc, func(), error)
}

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// CreateRoom 以 SETNX 创建房间，房间号已被占用时返回 ErrAlreadyExists
// 调用方据此重新生成房间号并重试
func (rs *RedisStore) CreateRoom(ctx context.Context, doc *RoomDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	key := roomKeyPrefix + doc.Code
	ok, err := rs.client.SetNX(ctx, key, data, roomExpiration).Result()
	if err != nil {
		return rs.unavailable("SETNX", err)
	}
	if !ok {
		return apperrors.ErrAlreadyExists
	}

	if err := rs.client.SAdd(ctx, roomIndexKey, doc.Code).Err(); err != nil {
		return rs.unavailable("SADD", err)
	}
	return rs.publish(ctx, doc.Code, data)
}

// SaveRoom 保存房间并向订阅者推送完整快照
func (rs *RedisStore) SaveRoom(ctx context.Context, doc *RoomDoc) error {
	if doc == nil {
		return nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	key := roomKeyPrefix + doc.Code
	if err := rs.client.Set(ctx, key, data, roomExpiration).Err(); err != nil {
		return rs.unavailable("SET", err)
	}
	return rs.publish(ctx, doc.Code, data)
}

// LoadRoom 从 Redis 加载房间，不存在时返回 (nil, nil)
func (rs *RedisStore) LoadRoom(ctx context.Context, code string) (*RoomDoc, error) {
	key := roomKeyPrefix + code
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, rs.unavailable("GET", err)
	}

	var doc RoomDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}
	return &doc, nil
}

// DeleteRoom 删除房间并发布墓碑消息
func (rs *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	key := roomKeyPrefix + code
	if err := rs.client.Del(ctx, key).Err(); err != nil {
		return rs.unavailable("DEL", err)
	}
	if err := rs.client.SRem(ctx, roomIndexKey, code).Err(); err != nil {
		return rs.unavailable("SREM", err)
	}
	return rs.publish(ctx, code, []byte(tombstone))
}

// ListRooms 返回所有有效房间，按创建时间倒序
func (rs *RedisStore) ListRooms(ctx context.Context) ([]*RoomDoc, error) {
	codes, err := rs.client.SMembers(ctx, roomIndexKey).Result()
	if err != nil {
		return nil, rs.unavailable("SMEMBERS", err)
	}

	rooms := make([]*RoomDoc, 0, len(codes))
	for _, code := range codes {
		doc, err := rs.LoadRoom(ctx, code)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			// 索引残留（过期或删除竞争），顺手清理
			_ = rs.client.SRem(ctx, roomIndexKey, code).Err()
			continue
		}
		if !doc.Valid() {
			continue
		}
		rooms = append(rooms, doc)
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt > rooms[j].CreatedAt
	})
	return rooms, nil
}

// Subscribe 订阅房间快照流
// 返回的通道先收到当前值（不存在则为 nil），之后每次写入收到新快照，
// 房间删除时收到 nil。调用返回的取消函数结束订阅并关闭通道。
func (rs *RedisStore) Subscribe(ctx context.Context, code string) (<-chan *RoomDoc, func(), error) {
	sub := rs.client.Subscribe(ctx, roomEventsPrefix+code)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, rs.unavailable("SUBSCRIBE", err)
	}

	// 订阅建立后再读当前值，保证不会漏掉二者之间的写入
	initial, err := rs.LoadRoom(ctx, code)
	if err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	ch := make(chan *RoomDoc, subscribeBuffer)
	go func() {
		defer close(ch)

		select {
		case ch <- initial:
		case <-ctx.Done():
			return
		}

		for msg := range sub.Channel() {
			var doc *RoomDoc
			if msg.Payload != tombstone {
				doc = &RoomDoc{}
				if err := json.Unmarshal([]byte(msg.Payload), doc); err != nil {
					log.Printf("房间 %s 快照解析失败: %v", code, err)
					continue
				}
			}
			select {
			case ch <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return ch, cancel, nil
}

// publish 推送快照给订阅者
func (rs *RedisStore) publish(ctx context.Context, code string, data []byte) error {
	if err := rs.client.Publish(ctx, roomEventsPrefix+code, data).Err(); err != nil {
		return rs.unavailable("PUBLISH", err)
	}
	return nil
}

// unavailable 将底层 Redis 故障归一为 StoreUnavailable，细节只进日志
func (rs *RedisStore) unavailable(op string, err error) error {
	log.Printf("⚠️ Redis %s 失败: %v", op, err)
	return apperrors.ErrStoreUnavailable
}
