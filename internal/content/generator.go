package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

// Question 一道回合间歇展示的冷知识选择题
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"` // 正确选项下标
}

// Generator 题目来源
// 生成失败时必须自行兜底，调用方拿到的题目永远可用
type Generator interface {
	Question(ctx context.Context, seed int) Question
}

// HTTPGenerator 远程生成服务客户端，失败时回退到本地题库
type HTTPGenerator struct {
	url    string
	client *http.Client
	local  *LocalBank
}

// NewHTTPGenerator 创建远程题目生成器
// url 为空时等价于纯本地题库
func NewHTTPGenerator(url string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
		local: NewLocalBank(),
	}
}

// Question 向远程服务请求一道题，任何失败都静默回退到本地题库
func (g *HTTPGenerator) Question(ctx context.Context, seed int) Question {
	if g.url == "" {
		return g.local.Question(ctx, seed)
	}

	q, err := g.fetch(ctx, seed)
	if err != nil {
		log.Printf("📚 远程出题失败，回退本地题库: %v", err)
		return g.local.Question(ctx, seed)
	}
	return q
}

func (g *HTTPGenerator) fetch(ctx context.Context, seed int) (Question, error) {
	body, err := json.Marshal(map[string]any{"seed": seed})
	if err != nil {
		return Question{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Question{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Question{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Question{}, fmt.Errorf("远程服务返回 %d", resp.StatusCode)
	}

	var q Question
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return Question{}, err
	}
	if q.Text == "" || len(q.Options) < 2 || q.Answer < 0 || q.Answer >= len(q.Options) {
		return Question{}, fmt.Errorf("远程题目不完整")
	}
	return q, nil
}

// LocalBank 本地内置题库，永不失败
type LocalBank struct {
	questions []Question
}

// NewLocalBank 创建本地题库
func NewLocalBank() *LocalBank {
	return &LocalBank{questions: builtinQuestions}
}

// Question 按 seed 取题，seed 相同则题目相同；负数 seed 随机取
func (b *LocalBank) Question(_ context.Context, seed int) Question {
	if seed < 0 {
		seed = rand.Intn(len(b.questions))
	}
	return b.questions[seed%len(b.questions)]
}

var builtinQuestions = []Question{
	{
		Text:    "人类的平均视觉反应时间大约是多少？",
		Options: []string{"50 毫秒", "250 毫秒", "800 毫秒", "2 秒"},
		Answer:  1,
	},
	{
		Text:    "下列哪种动物的反应速度最快？",
		Options: []string{"家猫", "苍蝇", "人类", "树懒"},
		Answer:  1,
	},
	{
		Text:    "对声音刺激的反应通常比对光刺激的反应——",
		Options: []string{"更快", "更慢", "一样快", "无法比较"},
		Answer:  0,
	},
	{
		Text:    "职业短跑选手起跑反应低于多少毫秒会被判抢跑？",
		Options: []string{"50 毫秒", "100 毫秒", "200 毫秒", "300 毫秒"},
		Answer:  1,
	},
	{
		Text:    "咖啡因摄入后大约多久开始影响反应速度？",
		Options: []string{"1 分钟", "15 分钟", "3 小时", "第二天"},
		Answer:  1,
	},
	{
		Text:    "神经信号在人体内的传导速度最高可达——",
		Options: []string{"每秒 1 米", "每秒 12 米", "每秒 120 米", "光速"},
		Answer:  2,
	},
	{
		Text:    "以下哪项会显著拖慢人的反应速度？",
		Options: []string{"充足睡眠", "适度运动", "睡眠不足", "深呼吸"},
		Answer:  2,
	},
	{
		Text:    "电竞选手的平均反应时间大约比普通人快多少？",
		Options: []string{"没有差别", "约 30~80 毫秒", "约 1 秒", "约 5 秒"},
		Answer:  1,
	},
}
