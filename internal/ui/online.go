package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/reaction-royale/internal/client"
	"github.com/palemoky/reaction-royale/internal/protocol"
	"github.com/palemoky/reaction-royale/internal/sound"
)

// 游戏阶段
type GamePhase int

const (
	PhaseConnecting GamePhase = iota
	PhaseLobby
	PhaseRoomList
	PhaseWaiting
	PhasePlaying
	PhaseResults
)

// ServerMessage 服务器消息（用于 tea.Msg）
type ServerMessage struct {
	Msg *protocol.Message
}

// ConnectedMsg 连接成功消息
type ConnectedMsg struct{}

// ConnectionErrorMsg 连接错误消息
type ConnectionErrorMsg struct {
	Err error
}

// ClearErrorMsg 清除错误消息
type ClearErrorMsg struct{}

// OnlineModel 联网模式的 model
type OnlineModel struct {
	client *client.Client
	state  *client.GameState
	phase  GamePhase
	error  string

	// 玩家信息
	playerID   string
	playerName string

	// 网络延迟（毫秒）
	latency int64

	// 音效触发去重
	lastRoundPhase string
	myOutcomeSeen  bool

	// Sub-models
	lobby *LobbyModel
	game  *GameModel

	// Audio
	soundManager *sound.SoundManager

	// UI 组件
	input  *textinput.Model
	width  int
	height int
}

// NewOnlineModel 创建联网模式 model
func NewOnlineModel(serverURL string) *OnlineModel {
	ti := textinput.New()
	ti.Placeholder = "输入房间号..."
	ti.CharLimit = 10
	ti.Width = 20
	ti.Focus()

	c := client.NewClient(serverURL)

	return &OnlineModel{
		client:       c,
		phase:        PhaseConnecting,
		input:        &ti,
		lobby:        NewLobbyModel(c, &ti),
		game:         NewGameModel(c, &ti),
		soundManager: sound.NewSoundManager(),
	}
}

func (m *OnlineModel) Init() tea.Cmd {
	go func() {
		_ = m.soundManager.Init()
	}()

	return tea.Batch(
		m.connectToServer(),
		textinput.Blink,
	)
}

// connectToServer 连接服务器
func (m *OnlineModel) connectToServer() tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Connect(); err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ConnectedMsg{}
	}
}

// listenForMessages 监听服务器消息
func (m *OnlineModel) listenForMessages() tea.Cmd {
	return func() tea.Msg {
		msg, err := m.client.Receive()
		if err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ServerMessage{Msg: msg}
	}
}

func (m *OnlineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.lobby.width = msg.Width
		m.lobby.height = msg.Height
		m.game.width = msg.Width
		m.game.height = msg.Height

	case tea.KeyMsg:
		handled, returnCmd := m.handleKeyPress(msg)
		if handled {
			return m, returnCmd
		}

	case ConnectedMsg:
		m.phase = PhaseLobby
		m.playerID = m.client.PlayerID
		m.playerName = m.client.PlayerName
		m.state = client.NewGameState(m.playerID)
		// 启动心跳
		m.client.StartHeartbeat()
		m.client.OnLatencyUpdate = func(latency int64) {
			m.latency = latency
		}
		// 开始监听消息
		cmds = append(cmds, m.listenForMessages())

	case ConnectionErrorMsg:
		m.error = fmt.Sprintf("无法连接到服务器: %v\n\n按 ESC 退出", msg.Err)
		m.phase = PhaseConnecting

	case ClearErrorMsg:
		m.error = ""

	case ServerMessage:
		m.handleServerMessage(msg.Msg)
		// 继续监听
		if m.client.IsConnected() {
			cmds = append(cmds, m.listenForMessages())
		}
	}

	// Update the input model (dereference the pointer)
	newInput, cmd := m.input.Update(msg)
	*m.input = newInput
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleServerMessage 把服务端消息应用到本地状态并驱动界面切换
func (m *OnlineModel) handleServerMessage(msg *protocol.Message) {
	if m.state == nil {
		return
	}

	switch msg.Type {
	case protocol.MsgRoomListResult:
		payload, err := protocol.ParsePayload[protocol.RoomListResultPayload](msg)
		if err == nil {
			m.lobby.availableRooms = payload.Rooms
			if m.lobby.selectedRoomIdx >= len(payload.Rooms) {
				m.lobby.selectedRoomIdx = 0
			}
		}
		return

	case protocol.MsgError:
		m.state.Apply(msg)
		m.error = m.state.LastError
		return
	}

	if !m.state.Apply(msg) {
		return
	}

	if m.state.RoomGone {
		// 房间被解散，无条件回到大厅
		m.phase = PhaseLobby
		m.error = "房间已解散"
		m.resetForLobby()
		return
	}

	if !m.state.InRoom {
		return
	}

	snap := m.state.Snapshot()
	m.playSoundCues(snap)

	switch snap.Status {
	case "waiting":
		m.phase = PhaseWaiting
	case "playing":
		m.phase = PhasePlaying
	case "results":
		m.phase = PhaseResults
	}
	m.error = ""
}

// playSoundCues 根据状态变化播放音效
func (m *OnlineModel) playSoundCues(snap protocol.RoomSnapshot) {
	if snap.Phase != m.lastRoundPhase {
		switch snap.Phase {
		case "armed":
			m.soundManager.Play("go")
		case "resolved":
			m.soundManager.Play("resolve")
		case "idle":
			m.myOutcomeSeen = false
		}
		m.lastRoundPhase = snap.Phase
	}

	// 自己的结果在回合未触发时就出现了，说明抢跑被罚
	if me, ok := m.state.Me(); ok {
		if me.LastOutcome != nil && !m.myOutcomeSeen {
			m.myOutcomeSeen = true
			if snap.Phase == "idle" {
				m.soundManager.Play("early")
			}
		}
		if me.LastOutcome == nil {
			m.myOutcomeSeen = false
		}
	}
}

// resetForLobby 回到大厅前复位本地状态
func (m *OnlineModel) resetForLobby() {
	m.lastRoundPhase = ""
	m.myOutcomeSeen = false
	m.input.Reset()
	m.input.Placeholder = "输入选项 (1-3) 或房间号"
	m.input.Focus()
}

// handleKeyPress 处理按键消息，返回是否已处理和命令
func (m *OnlineModel) handleKeyPress(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m.handleEscKey()
	case tea.KeyUp:
		m.lobby.handleUpKey(m.phase)
		return false, nil
	case tea.KeyDown:
		m.lobby.handleDownKey(m.phase)
		return false, nil
	case tea.KeySpace:
		// 对局中空格出手，其余界面交给输入框
		if m.phase == PhasePlaying {
			_ = m.client.React()
			return true, nil
		}
	case tea.KeyRunes:
		return m.handleRuneKey(msg)
	case tea.KeyEnter:
		cmd := m.handleEnter()
		return false, cmd
	}
	return false, nil
}

// handleEscKey 处理 ESC 键
func (m *OnlineModel) handleEscKey() (bool, tea.Cmd) {
	switch m.phase {
	case PhaseRoomList:
		m.phase = PhaseLobby
		m.error = ""
		m.resetForLobby()
		return true, nil

	case PhaseWaiting, PhaseResults:
		// 离开房间回大厅
		_ = m.client.LeaveRoom()
		if m.state != nil {
			m.state.LeaveRoom()
		}
		m.phase = PhaseLobby
		m.error = ""
		m.resetForLobby()
		return true, nil

	case PhasePlaying:
		// 对局进行中 ESC 不退出，避免误操作
		m.error = "对局进行中，无法退出！"
		return true, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return ClearErrorMsg{}
		})
	}

	// 大厅或连接失败时退出
	m.client.Close()
	m.soundManager.Close()
	return true, tea.Quit
}

// handleRuneKey 处理字符键
func (m *OnlineModel) handleRuneKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	if len(msg.Runes) == 0 || m.state == nil {
		return false, nil
	}
	key := strings.ToLower(msg.String())

	switch m.phase {
	case PhaseWaiting:
		me, ok := m.state.Me()
		if !ok {
			return false, nil
		}
		switch key {
		case "r":
			// R 键切换准备状态
			if me.Ready {
				_ = m.client.CancelReady()
			} else {
				_ = m.client.Ready()
			}
			return true, nil
		case "s":
			// 房主 S 键开始
			if m.state.IsHost() {
				_ = m.client.StartRound()
				return true, nil
			}
		}

	case PhasePlaying:
		// 已结算时房主 N 键进入下一回合
		if key == "n" && m.state.IsHost() && m.state.Snapshot().Phase == "resolved" {
			_ = m.client.AdvanceRound()
			return true, nil
		}

	case PhaseResults:
		// 房主 R 键再来一局
		if key == "r" && m.state.IsHost() {
			_ = m.client.ResetRoom()
			return true, nil
		}
	}

	return false, nil
}

// handleEnter 处理回车键
func (m *OnlineModel) handleEnter() tea.Cmd {
	input := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	m.error = ""

	switch m.phase {
	case PhaseLobby:
		// 大厅界面：1=创建房间, 2=加入房间, 3=房间列表
		// 如果输入为空，使用选中的菜单项
		if input == "" {
			input = fmt.Sprintf("%d", m.lobby.selectedIndex+1)
		}

		switch input {
		case "1":
			_ = m.client.CreateRoom("")
		case "2", "3":
			m.phase = PhaseRoomList
			m.lobby.selectedRoomIdx = 0
			m.input.Placeholder = "或直接输入房间号..."
			m.input.Focus()
			_ = m.client.GetRoomList()
		default:
			// 可能是房间号
			if len(input) > 0 {
				_ = m.client.JoinRoom(input)
			}
		}

	case PhaseRoomList:
		if input == "" {
			// 没有输入，加入选中的房间
			if len(m.lobby.availableRooms) > 0 && m.lobby.selectedRoomIdx < len(m.lobby.availableRooms) {
				roomCode := m.lobby.availableRooms[m.lobby.selectedRoomIdx].RoomCode
				_ = m.client.JoinRoom(roomCode)
			}
		} else {
			// 有输入，直接加入输入的房间号
			_ = m.client.JoinRoom(input)
		}

	case PhaseWaiting:
		// 回车等同 R：切换准备 / 房主开始
		if m.state != nil {
			if m.state.IsHost() {
				_ = m.client.StartRound()
			} else if me, ok := m.state.Me(); ok && !me.Ready {
				_ = m.client.Ready()
			}
		}

	case PhasePlaying:
		// 已结算时房主回车进入下一回合
		if m.state != nil && m.state.IsHost() && m.state.Snapshot().Phase == "resolved" {
			_ = m.client.AdvanceRound()
		}
	}

	return nil
}

func (m *OnlineModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string

	switch m.phase {
	case PhaseConnecting:
		content = m.connectingView()
	case PhaseLobby:
		content = m.lobby.lobbyView(m)
	case PhaseRoomList:
		content = m.lobby.roomListView(m)
	case PhaseWaiting:
		content = m.game.waitingView(m)
	case PhasePlaying:
		content = m.game.playView(m)
	case PhaseResults:
		content = m.game.resultsView(m)
	}

	return docStyle.Render(content)
}

// connectingView 连接中界面
func (m *OnlineModel) connectingView() string {
	if m.error != "" {
		return errorStyle.Render(m.error)
	}
	return "🔌 正在连接服务器..."
}
