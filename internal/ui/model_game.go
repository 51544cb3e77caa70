package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/reaction-royale/internal/client"
	"github.com/palemoky/reaction-royale/internal/protocol"
)

// GameModel handles in-room views (Waiting, Playing, Results)
type GameModel struct {
	client *client.Client
	width  int
	height int

	input *textinput.Model
}

func NewGameModel(c *client.Client, input *textinput.Model) *GameModel {
	return &GameModel{
		client: c,
		input:  input,
	}
}

// Views

func (m *GameModel) waitingView(onlineModel *OnlineModel) string {
	snap := onlineModel.state.Snapshot()
	var sb strings.Builder

	title := titleStyle(fmt.Sprintf("🏠 %s (房间号: %s)", snap.Name, snap.Code))
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, title))
	sb.WriteString("\n\n")

	var playerList strings.Builder
	playerList.WriteString("玩家列表:\n")
	for _, p := range snap.Players {
		readyStr := "❌"
		if p.Ready || p.IsHost {
			readyStr = "✅"
		}
		icon := GuestIcon
		if p.IsHost {
			icon = HostIcon
		}
		meStr := ""
		if p.UID == onlineModel.playerID {
			meStr = " (你)"
		}
		playerList.WriteString(fmt.Sprintf("  %s %s %s%s\n", readyStr, icon, p.Name, meStr))
	}
	playerList.WriteString(fmt.Sprintf("\n共 %d 回合 | 当前 %d 人", snap.TotalRounds, len(snap.Players)))

	playerBox := boxStyle.Render(playerList.String())
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, playerBox))
	sb.WriteString("\n\n")

	var hint string
	if onlineModel.state.IsHost() {
		hint = "S 开始对局 | ESC 解散房间"
	} else {
		me, _ := onlineModel.state.Me()
		if me.Ready {
			hint = "R 取消准备 | ESC 离开房间"
		} else {
			hint = "R 准备 | ESC 离开房间"
		}
	}
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, dimStyle.Render(hint)))

	if onlineModel.error != "" {
		errorView := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, "\n"+errorStyle.Render(onlineModel.error))
		sb.WriteString(errorView)
	}

	return sb.String()
}

func (m *GameModel) playView(onlineModel *OnlineModel) string {
	snap := onlineModel.state.Snapshot()
	var sb strings.Builder

	title := titleStyle(fmt.Sprintf("⚡ 第 %d/%d 回合", snap.RoundIndex, snap.TotalRounds))
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, title))
	sb.WriteString("\n\n")

	stage := m.renderStage(onlineModel, snap)
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, stage))
	sb.WriteString("\n\n")

	scoreboard := m.renderScoreboard(onlineModel.playerID, snap)
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, scoreboard))

	// 回合结算后的冷知识卡片
	if snap.Phase == "resolved" && onlineModel.state.Trivia != nil {
		sb.WriteString("\n")
		trivia := m.renderTriviaCard(onlineModel.state.Trivia)
		sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, trivia))
	}

	if onlineModel.error != "" {
		errorView := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, "\n"+errorStyle.Render(onlineModel.error))
		sb.WriteString(errorView)
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}

// renderStage 渲染回合主舞台
func (m *GameModel) renderStage(onlineModel *OnlineModel, snap protocol.RoomSnapshot) string {
	me, _ := onlineModel.state.Me()
	acted := me.LastOutcome != nil

	switch snap.Phase {
	case "idle":
		if acted {
			return holdStyle.Render(fmt.Sprintf("💥 抢跑！罚时 %dms", *me.LastOutcome))
		}
		return holdStyle.Render("🔴 憋住别动……")

	case "armed":
		if acted {
			return promptStyle.Render(fmt.Sprintf("✋ 已出手: %dms，等待其他玩家……", *me.LastOutcome))
		}
		return fireStyle.Render("🟢 出手!!! (空格)")

	case "resolved":
		var result string
		if acted {
			result = fmt.Sprintf("本回合: %dms", *me.LastOutcome)
		} else {
			result = "本回合: 超时"
		}
		hint := ""
		if onlineModel.state.IsHost() {
			hint = "\n\nN 进入下一回合"
		} else {
			hint = "\n\n等待房主进入下一回合……"
		}
		return boxStyle.Padding(0, 2).Render(result + hint)
	}
	return ""
}

// renderScoreboard 渲染计分板
func (m *GameModel) renderScoreboard(myPlayerID string, snap protocol.RoomSnapshot) string {
	var sb strings.Builder
	sb.WriteString("计分板（累计耗时，越低越好）\n")
	sb.WriteString(strings.Repeat("─", 36) + "\n")

	for _, p := range snap.Players {
		meStr := "  "
		if p.UID == myPlayerID {
			meStr = "▶ "
		}
		outcomeStr := "   —"
		if p.LastOutcome != nil {
			outcomeStr = fmt.Sprintf("%4dms", *p.LastOutcome)
		}
		sb.WriteString(fmt.Sprintf("%s%-10s 本回合:%s  累计:%5dms\n",
			meStr, truncateName(p.Name, 8), outcomeStr, p.Score))
	}

	return boxStyle.Render(sb.String())
}

// renderTriviaCard 渲染冷知识卡片
func (m *GameModel) renderTriviaCard(trivia *protocol.RoundTriviaPayload) string {
	var sb strings.Builder
	sb.WriteString("💡 " + trivia.Question + "\n\n")
	for i, opt := range trivia.Options {
		mark := "  "
		if i == trivia.Answer {
			mark = "✓ "
		}
		sb.WriteString(fmt.Sprintf("%s%c. %s\n", mark, 'A'+i, opt))
	}
	return boxStyle.Padding(0, 1).Render(sb.String())
}

func (m *GameModel) resultsView(onlineModel *OnlineModel) string {
	var sb strings.Builder

	title := titleStyle("🏆 最终排名")
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, title))
	sb.WriteString("\n\n")

	standings := onlineModel.state.Standings()
	var table strings.Builder
	for i, p := range standings {
		rankIcon := ""
		switch i {
		case 0:
			rankIcon = "🥇"
		case 1:
			rankIcon = "🥈"
		case 2:
			rankIcon = "🥉"
		default:
			rankIcon = fmt.Sprintf("%2d.", i+1)
		}
		meStr := ""
		if p.UID == onlineModel.playerID {
			meStr = " (你)"
		}
		table.WriteString(fmt.Sprintf("%s %-10s %6dms%s\n", rankIcon, truncateName(p.Name, 8), p.Score, meStr))
	}

	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, boxStyle.Padding(0, 2).Render(table.String())))
	sb.WriteString("\n\n")

	var hint string
	if onlineModel.state.IsHost() {
		hint = "R 再来一局 | ESC 解散房间"
	} else {
		hint = "等待房主再来一局 | ESC 离开房间"
	}
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, dimStyle.Render(hint)))

	if onlineModel.error != "" {
		errorView := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, "\n"+errorStyle.Render(onlineModel.error))
		sb.WriteString(errorView)
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}
