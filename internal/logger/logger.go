package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// 客户端文件日志
// Bubble Tea 程序接管终端后，log.Printf 直接输出会打乱画面，
// 这里把标准 log 重定向到用户目录下的轮转文件。

const maxLogSize = 10 * 1024 * 1024

var (
	logFile *os.File
	logPath string
)

// Init 把标准 log 输出重定向到 ~/.reaction-royale/debug.log
func Init() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("获取用户目录失败: %w", err)
	}

	logDir := filepath.Join(homeDir, ".reaction-royale")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("创建日志目录失败: %w", err)
	}

	logPath = filepath.Join(logDir, "debug.log")
	logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("打开日志文件失败: %w", err)
	}

	// 超过上限就把旧文件归档，重新开一个
	if info, err := logFile.Stat(); err == nil && info.Size() > maxLogSize {
		_ = logFile.Close()
		backupPath := filepath.Join(logDir, fmt.Sprintf("debug.log.%d", time.Now().Unix()))
		_ = os.Rename(logPath, backupPath)
		logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("轮转日志文件失败: %w", err)
		}
	}

	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	log.Printf("📝 日志已重定向到 %s", logPath)
	return nil
}

// Close 关闭日志文件
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// Path 当前日志文件路径
func Path() string {
	return logPath
}
