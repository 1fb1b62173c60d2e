package collector

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/penwyp/trimit/internal/errors"
)

// DiffBundle 携带一次提交的 diff 摘要与正文。
// Diff 受总量与单文件预算约束，超出部分以标记截断，绝不静默丢弃。
type DiffBundle struct {
	Stat string // git diff --cached --stat 的人类可读摘要
	Diff string // 按文件拼接的 unified diff，可能被截断
}

// IsEmpty 返回 bundle 是否不含任何 diff 内容。
func (b DiffBundle) IsEmpty() bool {
	return strings.TrimSpace(b.Diff) == "" && strings.TrimSpace(b.Stat) == ""
}

const (
	// emptyTreeHash 是 git 的空树对象，空仓库的 diff 基准。
	emptyTreeHash = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

	// totalDiffBudget 限制发送给模型的 diff 总量。
	totalDiffBudget = 12000
	// perFileDiffBudget 限制单个文件占用的额度，避免一个大文件挤掉其余文件。
	perFileDiffBudget = 3000

	fileTruncMarker = "\n... (file diff truncated)"
)

// StagedDiff 构建已暂存改动的 DiffBundle。
// 空仓库（无 HEAD）时以空树为基准，等价于“全部新增”。
// 没有任何暂存改动时返回 ErrNoChanges。
func (c *Collector) StagedDiff(ctx context.Context) (DiffBundle, error) {
	base := []string{"diff", "--cached", "--no-ext-diff"}
	if !c.HasCommits(ctx) {
		base = append(base, emptyTreeHash)
	}

	files, err := c.stagedFiles(ctx, base)
	if err != nil {
		return DiffBundle{}, err
	}
	if len(files) == 0 {
		return DiffBundle{}, apperrors.ErrNoChanges
	}

	statOut, err := c.runner.Run(ctx, "git", append(base, "--stat")...)
	if err != nil {
		return DiffBundle{}, fmt.Errorf("git diff --stat failed: %w", err)
	}

	diff, err := c.bundleFileDiffs(ctx, base, files)
	if err != nil {
		return DiffBundle{}, err
	}

	return DiffBundle{
		Stat: strings.TrimSpace(string(statOut)),
		Diff: diff,
	}, nil
}

func (c *Collector) stagedFiles(ctx context.Context, base []string) ([]string, error) {
	out, err := c.runner.Run(ctx, "git", append(base, "--name-only")...)
	if err != nil {
		return nil, fmt.Errorf("git diff --name-only failed: %w", err)
	}

	var files []string
	for _, f := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// bundleFileDiffs 逐文件收集 diff 并应用预算。
// 单文件超过 perFileDiffBudget 时截断；总量到达 totalDiffBudget 后
// 停止收集，并注明省略的文件数。
func (c *Collector) bundleFileDiffs(ctx context.Context, base []string, files []string) (string, error) {
	var sb strings.Builder

	for i, file := range files {
		if sb.Len() >= totalDiffBudget {
			sb.WriteString(fmt.Sprintf("\n... (%d more files omitted)", len(files)-i))
			break
		}

		args := append(append([]string{}, base...), "--", file)
		out, err := c.runner.Run(ctx, "git", args...)
		if err != nil {
			return "", fmt.Errorf("git diff for %s failed: %w", file, err)
		}

		fileDiff := strings.TrimRight(string(out), "\n")
		if len(fileDiff) > perFileDiffBudget {
			fileDiff = truncateAtRune(fileDiff, perFileDiffBudget) + fileTruncMarker
		}

		if remaining := totalDiffBudget - sb.Len(); len(fileDiff) > remaining {
			fileDiff = truncateAtRune(fileDiff, remaining) + fileTruncMarker
		}

		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(fileDiff)
	}

	return sb.String(), nil
}

// truncateAtRune 在不超过 limit 字节处截断，回退到 rune 边界，
// 避免把多字节字符切成非法 UTF-8。
func truncateAtRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
