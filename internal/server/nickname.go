package server

import (
	"math/rand"
)

// 昵称词库
var (
	adjectives = []string{
		"闪电般的", "稳如山的", "手滑的", "神速的", "淡定的",
		"紧张的", "从容的", "敏捷的", "迟钝的", "专注的",
		"兴奋的", "冷静的", "犀利的", "慵懒的", "机警的",
		"暴躁的", "丝滑的", "迷糊的", "果断的", "犹豫的",
	}

	nouns = []string{
		"猎豹", "树懒", "蜂鸟", "乌龟", "猫鼬",
		"游隼", "考拉", "螳螂", "壁虎", "夜枭",
		"狐狸", "仓鼠", "眼镜蛇", "松鼠", "水獭",
		"变色龙", "蜻蜓", "刺猬", "羚羊", "章鱼",
	}
)

// GenerateNickname 生成随机昵称
func GenerateNickname() string {
	adj := adjectives[rand.Intn(len(adjectives))]
	noun := nouns[rand.Intn(len(nouns))]
	return adj + noun
}
