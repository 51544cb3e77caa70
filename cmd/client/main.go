package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/reaction-royale/internal/logger"
	"github.com/palemoky/reaction-royale/internal/ui"
)

func main() {
	serverAddr := flag.String("server", "localhost:1790", "服务器地址")
	flag.Parse()

	// TUI 独占终端，客户端日志全部写入文件
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "日志初始化失败: %v\n", err)
	}
	defer logger.Close()

	serverURL := fmt.Sprintf("ws://%s/ws", *serverAddr)

	model := ui.NewOnlineModel(serverURL)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Close()
		log.SetOutput(os.Stderr)
		log.Fatalf("启动客户端时出错: %v", err)
	}
}
