package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/penwyp/trimit/internal/errors"
)

// 环境变量可覆盖默认的 API 地址与模型。
const (
	EnvBaseURL = "TRIMIT_BASE_URL"
	EnvModel   = "TRIMIT_MODEL"

	defaultBaseURL = "https://api.deepseek.com"
	defaultModel   = "deepseek-chat"
)

// Client 负责与 chat-completions 风格的 API 交互。
// 超时完全由 context 控制；httpClient 可注入以便测试。
//
// 所有公共方法都接受 context.Context，取消与超时由调用方决定。
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger

	// sleep 可在测试中替换以避免真实等待
	sleep func(ctx context.Context, d time.Duration) error
}

// New 创建 Client。baseURL 为空时使用环境变量或默认地址。
func New(baseURL, apiKey string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = os.Getenv(EnvBaseURL)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := os.Getenv(EnvModel)
	if model == "" {
		model = defaultModel
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			// 不设置 Timeout，完全依赖 context 控制超时和取消
		},
		logger: logger,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// chatRequest 定义请求体结构，私有结构体仅用于序列化。
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse 对应 chat-completions API 的响应格式。
// reasoning_content 仅部分模型返回，作为解析的兜底来源。
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}

// doRequest 执行一次 API 调用并把失败归类为带重试标记的错误。
// 成功时返回主内容与可选的 reasoning 文本。
func (c *Client) doRequest(ctx context.Context, systemPrompt, userPrompt string) (content, reasoning string, err error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   256,
		Temperature: 0.7,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.KindInvalidRequest, "failed to marshal request", err)
	}

	if c.logger != nil {
		c.logger.Debug("LLM API request",
			zap.String("url", c.baseURL+"/v1/chat/completions"),
			zap.String("model", reqBody.Model),
			zap.Int("max_tokens", reqBody.MaxTokens),
			zap.Int("prompt_bytes", len(data)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.KindInvalidRequest, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// context 取消或超时直接透传，调用方据此停止重试
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		return "", "", apperrors.WrapRetryable(apperrors.KindNetwork, "request failed", err).
			WithSuggestion("check your network connectivity")
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", apperrors.WrapRetryable(apperrors.KindNetwork, "failed to read response", err)
	}

	if c.logger != nil {
		c.logger.Debug("LLM API response",
			zap.Int("status_code", resp.StatusCode),
			zap.Int("response_size", len(bodyBytes)))
	}

	// 非 200 只暴露状态码，不透出响应体以防泄露敏感信息
	if resp.StatusCode != http.StatusOK {
		return "", "", classifyStatus(resp)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", "", apperrors.Wrap(apperrors.KindParse, "failed to parse response", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", "", apperrors.New(apperrors.KindParse, "invalid response: empty choices")
	}

	msg := chatResp.Choices[0].Message
	return msg.Content, msg.ReasoningContent, nil
}

// classifyStatus 把 HTTP 状态码映射为规范化错误。
// 鉴权与请求本身的错误不可重试；限流与服务端错误可重试。
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.Wrap(apperrors.KindUnauthorized, "API key was rejected",
			fmt.Errorf("status %d", resp.StatusCode)).
			WithSuggestion("check your key with 'trimit config show' and update it")
	case resp.StatusCode == http.StatusTooManyRequests:
		e := apperrors.WrapRetryable(apperrors.KindRateLimited, "API rate limit exceeded",
			fmt.Errorf("status %d", resp.StatusCode)).
			WithSuggestion("retry later or upgrade your API plan")
		if hint := parseRetryAfter(resp.Header.Get("Retry-After")); hint > 0 {
			e = e.WithRetryAfter(hint)
		}
		return e
	case resp.StatusCode >= 500:
		return apperrors.WrapRetryable(apperrors.KindNetwork, "API server error",
			fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return apperrors.Wrap(apperrors.KindInvalidRequest, "API rejected the request",
			fmt.Errorf("status %d", resp.StatusCode))
	default:
		return apperrors.Wrap(apperrors.KindUnknown, "unexpected API response",
			fmt.Errorf("status %d", resp.StatusCode))
	}
}

// parseRetryAfter 解析秒数形式的 Retry-After 头，无法解析时返回 0。
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
