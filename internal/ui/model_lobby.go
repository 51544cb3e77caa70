package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/reaction-royale/internal/client"
	"github.com/palemoky/reaction-royale/internal/protocol"
)

// LobbyModel handles the lobby interface (Menu, Room List)
type LobbyModel struct {
	client *client.Client
	width  int
	height int

	// Navigation
	selectedIndex int // Menu index

	// Data
	availableRooms  []protocol.RoomListItem
	selectedRoomIdx int

	// Input
	input *textinput.Model
}

func NewLobbyModel(c *client.Client, input *textinput.Model) *LobbyModel {
	return &LobbyModel{
		client: c,
		input:  input,
	}
}

func (m *LobbyModel) lobbyView(onlineModel *OnlineModel) string {
	var sb strings.Builder

	title := titleStyle("⚡ 反应竞速")
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, title))
	sb.WriteString("\n\n")

	if onlineModel.playerName != "" {
		welcome := fmt.Sprintf("欢迎, %s!", onlineModel.playerName)
		sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, welcome))
		sb.WriteString("\n")

		if onlineModel.latency > 0 {
			latencyInfo := fmt.Sprintf("📶 延迟: %dms", onlineModel.latency)
			sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, greenStyle.Render(latencyInfo)))
		}
		sb.WriteString("\n")
	}

	menuItems := []string{
		"1. 创建房间",
		"2. 加入房间",
		"3. 房间列表",
	}

	var menuLines []string
	menuLines = append(menuLines, "请选择:", "")
	for i, item := range menuItems {
		prefix := "  "
		if i == m.selectedIndex {
			prefix = "▶ "
		}
		menuLines = append(menuLines, prefix+item)
	}

	menu := boxStyle.Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, menuLines...))
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, menu))
	sb.WriteString("\n\n")

	m.input.Placeholder = "↑↓ 选择 | 回车确认 | 或输入房间号"
	inputView := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.input.View())
	sb.WriteString(inputView)

	if onlineModel.error != "" {
		errorView := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, "\n"+errorStyle.Render(onlineModel.error))
		sb.WriteString(errorView)
	}

	return sb.String()
}

func (m *LobbyModel) roomListView(onlineModel *OnlineModel) string {
	var sb strings.Builder

	title := titleStyle("📋 可加入的房间")
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, title))
	sb.WriteString("\n\n")

	if len(m.availableRooms) == 0 {
		noRooms := "暂无可加入的房间\n\n按 ESC 返回大厅"
		sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, noRooms))
	} else {
		var roomList strings.Builder
		roomList.WriteString("房间列表:\n\n")

		for i, room := range m.availableRooms {
			prefix := "  "
			if i == m.selectedRoomIdx {
				prefix = "▶ "
			}
			statusStr := "等待中"
			if room.Status == "playing" {
				statusStr = "对局中"
			}
			roomList.WriteString(fmt.Sprintf("%s%s %s  (%d人) %s\n",
				prefix, room.RoomCode, truncateName(room.RoomName, 12), room.PlayerCount, statusStr))
		}

		roomList.WriteString("\n↑↓ 选择  回车加入  ESC 返回")

		roomBox := boxStyle.Render(roomList.String())
		sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, roomBox))
		sb.WriteString("\n\n")
	}

	inputView := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.input.View())
	sb.WriteString(inputView)

	if onlineModel.error != "" {
		errorView := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, "\n"+errorStyle.Render(onlineModel.error))
		sb.WriteString(errorView)
	}

	return sb.String()
}

func (m *LobbyModel) handleUpKey(phase GamePhase) {
	if phase == PhaseRoomList && len(m.availableRooms) > 0 {
		m.selectedRoomIdx--
		if m.selectedRoomIdx < 0 {
			m.selectedRoomIdx = len(m.availableRooms) - 1
		}
	} else if phase == PhaseLobby {
		m.selectedIndex--
		if m.selectedIndex < 0 {
			m.selectedIndex = 2
		}
	}
}

func (m *LobbyModel) handleDownKey(phase GamePhase) {
	if phase == PhaseRoomList && len(m.availableRooms) > 0 {
		m.selectedRoomIdx++
		if m.selectedRoomIdx >= len(m.availableRooms) {
			m.selectedRoomIdx = 0
		}
	} else if phase == PhaseLobby {
		m.selectedIndex++
		if m.selectedIndex > 2 {
			m.selectedIndex = 0
		}
	}
}

// truncateName 按显示宽度截断名字
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-1]) + "…"
}
