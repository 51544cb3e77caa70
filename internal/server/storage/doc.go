package storage

// RoomDoc 房间文档（权威状态，用于 Redis 序列化与订阅推送）
type RoomDoc struct {
	Code      string               `json:"code"`
	Name      string               `json:"name"`
	HostID    string               `json:"host_id"`
	Status    string               `json:"status"` // waiting/playing/results
	Round     RoundDoc             `json:"round"`
	Players   map[string]PlayerDoc `json:"players"`
	Order     []string             `json:"player_order"` // 按加入顺序，仅用于展示排序
	CreatedAt int64                `json:"created_at"`
}

// PlayerDoc 玩家数据
type PlayerDoc struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	AvatarSeed  string `json:"avatar_seed"`
	Score       int64  `json:"score"`
	Ready       bool   `json:"ready"`
	LastOutcome *int64 `json:"last_outcome,omitempty"`
}

// RoundDoc 回合状态
type RoundDoc struct {
	Phase       string `json:"phase"` // idle/armed/resolved
	Index       int    `json:"index"`
	TotalRounds int    `json:"total_rounds"`
	ArmedAt     int64  `json:"armed_at,omitempty"` // 触发时刻（服务端毫秒时间戳）
}

// Valid 防御性过滤：剔除写了一半或已被掏空的文档
func (d *RoomDoc) Valid() bool {
	return d != nil && d.Code != "" && d.HostID != "" && len(d.Players) > 0
}
