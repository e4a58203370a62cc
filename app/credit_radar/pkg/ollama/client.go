package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-resty/resty/v2"

	"github.com/iWorld-y/credit_radar/app/credit_radar/pkg/provider"
)

// Client 本地 Ollama 服务客户端
type Client struct {
	client      *resty.Client
	model       string
	temperature float32
}

// Ensure Client implements provider.Provider
var _ provider.Provider = (*Client)(nil)

// NewClient 创建一个新的 Ollama 客户端
func NewClient(baseURL, model string, temperature float32, timeout time.Duration) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		client:      client,
		model:       model,
		temperature: temperature,
	}
}

// ChatRequest /api/chat 请求体
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  ChatOptions   `json:"options"`
}

// ChatMessage 单条消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions 采样参数
type ChatOptions struct {
	Temperature float32 `json:"temperature"`
}

// ChatResponse /api/chat 非流式响应
type ChatResponse struct {
	Model   string      `json:"model"`
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// Name implements provider.Provider
func (c *Client) Name() string { return "ollama" }

// Generate implements provider.Provider
func (c *Client) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	req := ChatRequest{
		Model:   c.model,
		Stream:  false,
		Format:  "json",
		Options: ChatOptions{Temperature: c.temperature},
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	var result ChatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	if resp.IsError() {
		if result.Error != "" {
			return "", fmt.Errorf("ollama chat: status %d: %s", resp.StatusCode(), result.Error)
		}
		return "", fmt.Errorf("ollama chat: status %d", resp.StatusCode())
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama chat: %s", result.Error)
	}
	return result.Message.Content, nil
}
