package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Icon constants
const (
	HostIcon  = "👑"
	GuestIcon = "🙋"
)

// Lipgloss Styles
var (
	docStyle    = lipgloss.NewStyle().Margin(1, 2)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Render
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	promptStyle = lipgloss.NewStyle().MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)

	// 蓄势阶段全屏提示：红色=憋住别动，绿色=出手
	holdStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#CD0000")).
			Bold(true).
			Padding(1, 4)
	fireStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#00CD00")).
			Bold(true).
			Padding(1, 4)
)
