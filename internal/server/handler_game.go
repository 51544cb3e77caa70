package server

import (
	"context"

	"github.com/palemoky/reaction-royale/internal/apperrors"
	"github.com/palemoky/reaction-royale/internal/protocol"
	"github.com/palemoky/reaction-royale/internal/server/room"
)

// currentRoom 取当前连接所在房间的协调器
func (h *Handler) currentRoom(client *Client) (*room.Coordinator, error) {
	code := client.GetRoom()
	if code == "" {
		return nil, apperrors.ErrNotAMember
	}
	return h.server.rooms.Get(context.Background(), code)
}

// handleStartRound 房主开始对局
func (h *Handler) handleStartRound(client *Client) {
	coord, err := h.currentRoom(client)
	if err != nil {
		sendError(client, err)
		return
	}
	if err := coord.StartRound(context.Background(), client.ID); err != nil {
		sendError(client, err)
	}
}

// handleReact 玩家出手
// 结果通过房间快照广播回来，这里不单独回执
func (h *Handler) handleReact(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ReactPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	coord, err := h.currentRoom(client)
	if err != nil {
		sendError(client, err)
		return
	}
	if _, err := coord.SubmitAction(context.Background(), client.ID, payload.ClientTime); err != nil {
		sendError(client, err)
	}
}

// handleAdvanceRound 房主推进下一回合
func (h *Handler) handleAdvanceRound(client *Client) {
	coord, err := h.currentRoom(client)
	if err != nil {
		sendError(client, err)
		return
	}
	if err := coord.AdvanceRound(context.Background(), client.ID); err != nil {
		sendError(client, err)
	}
}

// handleResetRoom 房主重置房间再来一局
func (h *Handler) handleResetRoom(client *Client) {
	coord, err := h.currentRoom(client)
	if err != nil {
		sendError(client, err)
		return
	}
	if err := coord.ResetRoom(context.Background(), client.ID); err != nil {
		sendError(client, err)
	}
}
