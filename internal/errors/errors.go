package errors

import (
	"errors"
	"fmt"
	"time"
)

// Kind 定义错误类别
type Kind int

const (
	// KindUnknown 未知错误
	KindUnknown Kind = iota
	// KindNotARepository 当前目录不是 Git 仓库
	KindNotARepository
	// KindConflictInProgress 仓库处于 merge/rebase/cherry-pick 冲突状态
	KindConflictInProgress
	// KindNoChanges 没有可提交的改动
	KindNoChanges
	// KindStaging 暂存操作失败
	KindStaging
	// KindCredentialMissing 未配置 API Key
	KindCredentialMissing
	// KindUnauthorized API Key 无效或被拒绝
	KindUnauthorized
	// KindInvalidRequest 请求本身不合法，重试无意义
	KindInvalidRequest
	// KindRateLimited 触发服务端速率限制
	KindRateLimited
	// KindNetwork 网络或服务端瞬时故障
	KindNetwork
	// KindParse 无法从响应中解析出候选消息
	KindParse
	// KindCommitRejected git commit 被拒绝（hook、锁或其它原因）
	KindCommitRejected
)

// Error 统一错误结构，携带类别、重试信息与用户建议。
type Error struct {
	Kind       Kind
	Message    string
	Cause      error
	Retryable  bool
	RetryAfter time.Duration // 服务端建议的重试间隔，0 表示无提示
	Suggestion string
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 支持 errors.Is 和 errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithSuggestion 添加解决建议
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// WithRetryAfter 记录服务端提示的重试间隔
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	e.RetryAfter = d
	return e
}

// New 创建新的 Error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 包装已有错误
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// NewRetryable 创建可重试错误
func NewRetryable(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Retryable: true}
}

// WrapRetryable 包装可重试错误
func WrapRetryable(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause, Retryable: true}
}

// 预定义的常见错误
var (
	ErrNotARepository = New(KindNotARepository, "not a git repository").
				WithSuggestion("run trimit inside a git repository, or create one with 'git init'")
	ErrNoChanges = New(KindNoChanges, "nothing to commit")

	ErrCredentialMissing = New(KindCredentialMissing, "no API key configured").
				WithSuggestion("set TRIMIT_API_KEY, or store a key with 'trimit config set-key'")
	ErrUnauthorized = New(KindUnauthorized, "API key was rejected").
			WithSuggestion("check your key with 'trimit config show' and update it")

	ErrResponseUnparseable = New(KindParse, "could not extract commit messages from response")
)

// KindOf 获取错误类别
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable 检查错误是否可重试
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// RetryAfterHint 返回服务端建议的重试间隔，无提示时返回 0。
func RetryAfterHint(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

// FormatError 格式化错误输出，附带解决建议。
func FormatError(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	msg := e.Error()
	if e.Suggestion != "" {
		msg += fmt.Sprintf("\n💡 %s", e.Suggestion)
	}

	return msg
}
