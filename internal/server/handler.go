package server

import (
	"errors"
	"log"
	"time"

	"github.com/palemoky/reaction-royale/internal/apperrors"
	"github.com/palemoky/reaction-royale/internal/protocol"
)

// Handler 消息处理器
type Handler struct {
	server *Server
}

// NewHandler 创建处理器
func NewHandler(s *Server) *Handler {
	return &Handler{server: s}
}

// Handle 处理消息
func (h *Handler) Handle(client *Client, msg *protocol.Message) {
	switch msg.Type {
	// 连接操作
	case protocol.MsgPing:
		h.handlePing(client, msg)

	// 房间操作
	case protocol.MsgCreateRoom:
		h.handleCreateRoom(client, msg)
	case protocol.MsgJoinRoom:
		h.handleJoinRoom(client, msg)
	case protocol.MsgLeaveRoom:
		h.handleLeaveRoom(client)
	case protocol.MsgReady:
		h.handleReady(client, true)
	case protocol.MsgCancelReady:
		h.handleReady(client, false)
	case protocol.MsgGetRoomList:
		h.handleGetRoomList(client)

	// 回合操作
	case protocol.MsgStartRound:
		h.handleStartRound(client)
	case protocol.MsgReact:
		h.handleReact(client, msg)
	case protocol.MsgAdvanceRound:
		h.handleAdvanceRound(client)
	case protocol.MsgResetRoom:
		h.handleResetRoom(client)

	default:
		log.Printf("未知消息类型: %s", msg.Type)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
	}
}

// handlePing 处理心跳消息
func (h *Handler) handlePing(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// sendError 把业务错误转换为错误消息发回客户端
func sendError(client *Client, err error) {
	var ge *apperrors.GameError
	if errors.As(err, &ge) {
		client.SendMessage(protocol.NewErrorMessageWithText(ge.Code, ge.Message))
		return
	}
	client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}
