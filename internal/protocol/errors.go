package protocol

// 错误码
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002 // 速率限制
	ErrCodeRoomNotFound      = 2001
	ErrCodeNotAMember        = 2002
	ErrCodeAlreadyExists     = 2003 // 房间号冲突
	ErrCodeCreationExhausted = 2004 // 房间号重试次数用尽
	ErrCodeNotHost           = 3001
	ErrCodeNotEnoughPlayers  = 3002
	ErrCodeNotAllReady       = 3003
	ErrCodeWrongPhase        = 3004
	ErrCodeAlreadyResolved   = 3005
	ErrCodeStoreUnavailable  = 4001 // 存储不可用（可重试）
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeRoomNotFound:      "房间不存在",
	ErrCodeNotAMember:        "您不在房间中",
	ErrCodeAlreadyExists:     "房间号已被占用",
	ErrCodeCreationExhausted: "创建房间失败，请稍后重试",
	ErrCodeNotHost:           "只有房主可以执行此操作",
	ErrCodeNotEnoughPlayers:  "玩家人数不足",
	ErrCodeNotAllReady:       "还有玩家未准备",
	ErrCodeWrongPhase:        "当前阶段不允许此操作",
	ErrCodeAlreadyResolved:   "本回合您已出手",
	ErrCodeStoreUnavailable:  "存储服务不可用，请重试",
	ErrCodeServerMaintenance: "服务器维护中",
}
