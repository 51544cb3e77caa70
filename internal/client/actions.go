package client

import (
	"time"

	"github.com/palemoky/reaction-royale/internal/protocol"
)

// --- 便捷方法 ---

// CreateRoom 创建房间
func (c *Client) CreateRoom(name string) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgCreateRoom, protocol.CreateRoomPayload{
		RoomName: name,
	}))
}

// JoinRoom 加入房间
func (c *Client) JoinRoom(roomCode string) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{
		RoomCode: roomCode,
	}))
}

// LeaveRoom 离开房间
func (c *Client) LeaveRoom() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgLeaveRoom, nil))
}

// Ready 准备
func (c *Client) Ready() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgReady, nil))
}

// CancelReady 取消准备
func (c *Client) CancelReady() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgCancelReady, nil))
}

// GetRoomList 获取房间列表
func (c *Client) GetRoomList() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgGetRoomList, nil))
}

// StartRound 房主开始对局
func (c *Client) StartRound() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgStartRound, nil))
}

// React 出手
// 客户端时间戳只用于服务端诊断日志，判定以服务端时钟为准
func (c *Client) React() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgReact, protocol.ReactPayload{
		ClientTime: time.Now().UnixMilli(),
	}))
}

// AdvanceRound 房主进入下一回合
func (c *Client) AdvanceRound() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgAdvanceRound, nil))
}

// ResetRoom 房主重置房间再来一局
func (c *Client) ResetRoom() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgResetRoom, nil))
}

// Ping 发送心跳
func (c *Client) Ping() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	}))
}
