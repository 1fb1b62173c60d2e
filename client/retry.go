package client

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/penwyp/trimit/internal/errors"
)

const (
	// maxAttempts 含首次调用在内的尝试总数。
	maxAttempts = 3
	// maxRetryAfter 限制服务端 Retry-After 提示的上限，避免病态等待。
	maxRetryAfter = 10 * time.Second
)

// backoffDelays 第 i 次重试前的等待时间。
var backoffDelays = []time.Duration{1 * time.Second, 3 * time.Second}

// GenerateCandidates 请求并解析 commit message 候选。
// 瞬时失败（限流、服务端错误、网络故障）按固定退避重试，
// 鉴权与请求错误立即失败；重试耗尽后返回最后一次的错误。
// 返回 1..3 条候选；一条都解析不出时返回 Parse 类错误。
func (c *Client) GenerateCandidates(ctx context.Context, systemPrompt, userPrompt string) ([]string, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelays[attempt-1]
			if hint := apperrors.RetryAfterHint(lastErr); hint > 0 {
				delay = hint
				if delay > maxRetryAfter {
					delay = maxRetryAfter
				}
			}
			if c.logger != nil {
				c.logger.Debug("retrying LLM request",
					zap.Int("attempt", attempt+1),
					zap.Duration("delay", delay),
					zap.Error(lastErr))
			}
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		content, reasoning, err := c.doRequest(ctx, systemPrompt, userPrompt)
		if err == nil {
			return ParseCandidates(content, reasoning)
		}

		if !apperrors.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}
