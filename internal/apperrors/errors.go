package apperrors

import (
	"github.com/palemoky/reaction-royale/internal/protocol"
)

// GameError 游戏错误（房间和回合共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound      = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrNotAMember        = &GameError{Code: protocol.ErrCodeNotAMember, Message: "您不在房间中"}
	ErrAlreadyExists     = &GameError{Code: protocol.ErrCodeAlreadyExists, Message: "房间号已被占用"}
	ErrCreationExhausted = &GameError{Code: protocol.ErrCodeCreationExhausted, Message: "创建房间失败，请稍后重试"}
	ErrNotHost           = &GameError{Code: protocol.ErrCodeNotHost, Message: "只有房主可以执行此操作"}
	ErrNotEnoughPlayers  = &GameError{Code: protocol.ErrCodeNotEnoughPlayers, Message: "玩家人数不足"}
	ErrNotAllReady       = &GameError{Code: protocol.ErrCodeNotAllReady, Message: "还有玩家未准备"}
	ErrWrongPhase        = &GameError{Code: protocol.ErrCodeWrongPhase, Message: "当前阶段不允许此操作"}
	ErrAlreadyResolved   = &GameError{Code: protocol.ErrCodeAlreadyResolved, Message: "本回合您已出手"}
	ErrStoreUnavailable  = &GameError{Code: protocol.ErrCodeStoreUnavailable, Message: "存储服务不可用，请重试"}
)
