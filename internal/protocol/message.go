package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom  MessageType = "create_room"   // 创建房间
	MsgJoinRoom    MessageType = "join_room"     // 加入房间
	MsgLeaveRoom   MessageType = "leave_room"    // 离开房间
	MsgReady       MessageType = "ready"         // 准备就绪
	MsgCancelReady MessageType = "cancel_ready"  // 取消准备
	MsgGetRoomList MessageType = "get_room_list" // 获取房间列表

	// 回合操作
	MsgStartRound   MessageType = "start_round"   // 房主开始回合
	MsgReact        MessageType = "react"         // 玩家出手
	MsgAdvanceRound MessageType = "advance_round" // 房主进入下一回合
	MsgResetRoom    MessageType = "reset_room"    // 房主重置房间
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 房间相关
	MsgRoomCreated    MessageType = "room_created"     // 房间创建成功
	MsgRoomJoined     MessageType = "room_joined"      // 加入房间成功
	MsgRoomState      MessageType = "room_state"       // 房间快照推送
	MsgRoomGone       MessageType = "room_gone"        // 房间已解散（无条件回到大厅）
	MsgRoomListResult MessageType = "room_list_result" // 房间列表结果

	// 回合流程
	MsgRoundTrivia MessageType = "round_trivia" // 回合间冷知识卡片

	// 错误
	MsgError MessageType = "error" // 错误消息
)
