package server

import (
	"context"
	"strings"

	"github.com/palemoky/reaction-royale/internal/protocol"
	"github.com/palemoky/reaction-royale/internal/server/room"
)

// playerRec 当前连接对应的玩家记录
func playerRec(client *Client) room.PlayerRec {
	return room.PlayerRec{
		UID:        client.ID,
		Name:       client.Name,
		AvatarSeed: client.AvatarSeed,
	}
}

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(client *Client, msg *protocol.Message) {
	if h.server.IsMaintenanceMode() {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeServerMaintenance))
		return
	}

	payload, err := protocol.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	// 如果已在房间中，先离开
	h.leaveCurrentRoom(client)

	name := strings.TrimSpace(payload.RoomName)
	if name == "" {
		name = client.Name + "的房间"
	}

	ctx := context.Background()
	snap, err := h.server.rooms.Create(ctx, name, playerRec(client))
	if err != nil {
		sendError(client, err)
		return
	}

	// 先挂断开清理再确认：连接在这中间断掉也不会留下幽灵房间
	h.registerRoomCleanup(client, snap.Code)
	client.SetRoom(snap.Code)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		Room: snap,
	}))
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	// 如果已在房间中，先离开
	h.leaveCurrentRoom(client)

	ctx := context.Background()
	snap, err := h.server.rooms.Join(ctx, payload.RoomCode, playerRec(client))
	if err != nil {
		sendError(client, err)
		return
	}

	// 先挂断开清理再确认入房
	h.registerRoomCleanup(client, snap.Code)
	client.SetRoom(snap.Code)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		Room: snap,
	}))
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client *Client) {
	h.leaveCurrentRoom(client)
}

// handleReady 处理准备/取消准备
func (h *Handler) handleReady(client *Client, ready bool) {
	coord, err := h.currentRoom(client)
	if err != nil {
		sendError(client, err)
		return
	}
	if err := coord.SetReady(context.Background(), client.ID, ready); err != nil {
		sendError(client, err)
	}
}

// handleGetRoomList 处理房间列表查询
func (h *Handler) handleGetRoomList(client *Client) {
	items, err := h.server.rooms.ListRooms(context.Background())
	if err != nil {
		sendError(client, err)
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomListResult, protocol.RoomListResultPayload{
		Rooms: items,
	}))
}

// registerRoomCleanup 在账本上挂断开清理：连接断开时自动离开房间
// 房间离开是幂等的，主动离开后回调变成空操作
func (h *Handler) registerRoomCleanup(client *Client, code string) {
	h.server.ledger.RegisterCleanup(client.ID, func() {
		_ = h.server.rooms.Leave(context.Background(), code, client.ID)
	})
}

// leaveCurrentRoom 离开当前房间（未在房间中是空操作）
func (h *Handler) leaveCurrentRoom(client *Client) {
	code := client.GetRoom()
	if code == "" {
		return
	}
	_ = h.server.rooms.Leave(context.Background(), code, client.ID)
	client.SetRoom("")
}
