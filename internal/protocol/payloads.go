package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	RoomName string `json:"room_name"`
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomCode string `json:"room_code"`
}

// ReactPayload 出手请求
// 客户端时间戳仅用于诊断，判定一律以服务端时钟为准
type ReactPayload struct {
	ClientTime int64 `json:"client_time,omitempty"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	AvatarSeed string `json:"avatar_seed"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// PlayerInfo 玩家信息
type PlayerInfo struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	AvatarSeed  string `json:"avatar_seed"`
	Score       int64  `json:"score"`                  // 累计反应耗时（毫秒），越低越好
	Ready       bool   `json:"ready"`                  // 仅在等待阶段有意义
	IsHost      bool   `json:"is_host"`                // 是否房主
	LastOutcome *int64 `json:"last_outcome,omitempty"` // 本回合结果（毫秒），未出手为空
}

// RoomSnapshot 房间完整快照，随每次状态变更推送
type RoomSnapshot struct {
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	HostID      string       `json:"host_id"`
	Status      string       `json:"status"` // waiting/playing/results
	Phase       string       `json:"phase"`  // idle/armed/resolved
	RoundIndex  int          `json:"round_index"`
	TotalRounds int          `json:"total_rounds"`
	ArmedAt     int64        `json:"armed_at,omitempty"` // 触发时刻（服务端毫秒时间戳）
	Players     []PlayerInfo `json:"players"`            // 按加入顺序
	CreatedAt   int64        `json:"created_at"`
}

// RoomCreatedPayload 房间创建成功响应
type RoomCreatedPayload struct {
	Room RoomSnapshot `json:"room"`
}

// RoomJoinedPayload 加入房间成功响应
type RoomJoinedPayload struct {
	Room RoomSnapshot `json:"room"`
}

// RoomStatePayload 房间快照推送
type RoomStatePayload struct {
	Room RoomSnapshot `json:"room"`
}

// RoomGonePayload 房间解散通知
type RoomGonePayload struct {
	RoomCode string `json:"room_code"`
}

// RoomListItem 房间列表项
type RoomListItem struct {
	RoomCode    string `json:"room_code"`
	RoomName    string `json:"room_name"`
	PlayerCount int    `json:"player_count"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
}

// RoomListResultPayload 房间列表结果
type RoomListResultPayload struct {
	Rooms []RoomListItem `json:"rooms"`
}

// RoundTriviaPayload 回合间冷知识卡片
type RoundTriviaPayload struct {
	RoundIndex int      `json:"round_index"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     int      `json:"answer"` // 正确选项下标
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
