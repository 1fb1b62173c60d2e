package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	apperrors "github.com/penwyp/trimit/internal/errors"
)

// Runner 抽象出命令执行器，方便在单元测试中注入 Mock。
// 实际运行时使用 exec.CommandContext 实现。
//
// 返回值约定：成功时输出字节数组，错误时返回非 nil error，
// 错误分支下 output 仍携带命令的混合输出以供分类。
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Collector 封装对 git 子进程的全部调用。
// 所有 git 调用都以参数列表形式执行，不经过 shell 解释。
type Collector struct {
	runner Runner
}

// New 创建 Collector 实例。
func New(r Runner) *Collector {
	return &Collector{runner: r}
}

// ConflictState 表示仓库当前是否处于未完成的多步操作中。
type ConflictState int

const (
	ConflictNone ConflictState = iota
	ConflictMerge
	ConflictRebase
	ConflictCherryPick
)

// String implements fmt.Stringer for user-facing messages.
func (s ConflictState) String() string {
	switch s {
	case ConflictMerge:
		return "merge"
	case ConflictRebase:
		return "rebase"
	case ConflictCherryPick:
		return "cherry-pick"
	default:
		return "none"
	}
}

// 清理输出中的控制字符，防止拼入终端或错误消息时产生副作用。
var dangerousChars = regexp.MustCompile(`[;&|$\x00-\x1f\x7f-\x9f]`)

func sanitizeOutput(s string) string {
	return dangerousChars.ReplaceAllString(s, "")
}

// IsRepo 判断当前目录是否位于 git 仓库内。
func (c *Collector) IsRepo(ctx context.Context) bool {
	_, err := c.runner.Run(ctx, "git", "rev-parse", "--git-dir")
	return err == nil
}

// GitDir 返回仓库的 .git 目录路径。
func (c *Collector) GitDir(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, "git", "rev-parse", "--git-dir")
	if err != nil {
		return "", apperrors.ErrNotARepository
	}
	return strings.TrimSpace(string(out)), nil
}

// GetConflictState 检测仓库是否处于 merge/rebase/cherry-pick 中途。
// 通过 git 目录下的标记文件判断，与 git status 的提示一致。
func (c *Collector) GetConflictState(ctx context.Context) (ConflictState, error) {
	gitDir, err := c.GitDir(ctx)
	if err != nil {
		return ConflictNone, err
	}

	exists := func(name string) bool {
		_, statErr := os.Stat(filepath.Join(gitDir, name))
		return statErr == nil
	}

	switch {
	case exists("rebase-merge") || exists("rebase-apply"):
		return ConflictRebase, nil
	case exists("MERGE_HEAD"):
		return ConflictMerge, nil
	case exists("CHERRY_PICK_HEAD"):
		return ConflictCherryPick, nil
	}
	return ConflictNone, nil
}

// HasCommits 返回仓库是否已有至少一个提交。
// 空仓库没有 HEAD，diff 需改用空树作为基准。
func (c *Collector) HasCommits(ctx context.Context) bool {
	_, err := c.runner.Run(ctx, "git", "rev-parse", "--verify", "HEAD")
	return err == nil
}

// RecentHistory 返回最近 n 条 commit subject，用于提示词的风格参照。
func (c *Collector) RecentHistory(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive")
	}
	// 防止过大的 n 值导致性能问题
	if n > 1000 {
		return nil, fmt.Errorf("n too large, maximum is 1000")
	}

	out, err := c.runner.Run(ctx, "git", "log", "--pretty=format:%s", fmt.Sprintf("-n%d", n))
	if err != nil {
		// 空仓库上 git log 会失败，这不算错误
		if !c.HasCommits(ctx) {
			return nil, nil
		}
		return nil, fmt.Errorf("git log failed: %w", err)
	}

	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

// StageAll 暂存所有改动（含未跟踪文件）。
func (c *Collector) StageAll(ctx context.Context) error {
	if out, err := c.runner.Run(ctx, "git", "add", "-A"); err != nil {
		return apperrors.Wrap(apperrors.KindStaging, "failed to stage changes",
			fmt.Errorf("%w: %s", err, sanitizeOutput(string(out))))
	}
	return nil
}

// StageFiles 暂存指定路径。"--" 分隔符防止路径被解释为选项。
func (c *Collector) StageFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	if out, err := c.runner.Run(ctx, "git", args...); err != nil {
		return apperrors.Wrap(apperrors.KindStaging, "failed to stage files",
			fmt.Errorf("%w: %s", err, sanitizeOutput(string(out))))
	}
	return nil
}

// HasStagedChanges 返回是否存在已暂存的改动。
// git diff --cached --quiet 在有暂存改动时以退出码 1 结束。
func (c *Collector) HasStagedChanges(ctx context.Context) bool {
	_, err := c.runner.Run(ctx, "git", "diff", "--cached", "--quiet")
	return err != nil
}

// Commit 以给定 message 执行提交，失败输出按模式归类为带建议的错误。
func (c *Collector) Commit(ctx context.Context, message string) error {
	out, err := c.runner.Run(ctx, "git", "commit", "-m", message)
	if err == nil {
		return nil
	}
	return classifyCommitFailure(string(out), err)
}

// classifyCommitFailure 将 git commit 的失败输出归类。
// git 没有机器可读的错误码，只能对输出做模式匹配。
func classifyCommitFailure(output string, cause error) error {
	lower := strings.ToLower(output)

	switch {
	case strings.Contains(lower, "index.lock"):
		return apperrors.Wrap(apperrors.KindCommitRejected, "git index is locked", cause).
			WithSuggestion("another git process may be running; if not, remove .git/index.lock")
	case strings.Contains(lower, "hook"):
		return apperrors.Wrap(apperrors.KindCommitRejected, "commit rejected by hook", cause).
			WithSuggestion(sanitizeOutput(firstLine(output)))
	case strings.Contains(lower, "nothing to commit"),
		strings.Contains(lower, "nothing added to commit"):
		return apperrors.ErrNoChanges
	default:
		return apperrors.Wrap(apperrors.KindCommitRejected, "git commit failed",
			fmt.Errorf("%w: %s", cause, sanitizeOutput(firstLine(output))))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
