package collector

import (
	"context"
	"fmt"
	"strings"
)

// FileStatus 对应 git status --porcelain 的一行。
type FileStatus struct {
	Path        string
	OldPath     string // 重命名时的原路径
	IndexStatus byte   // X 列：暂存区状态
	WorkStatus  byte   // Y 列：工作区状态
	IsRenamed   bool
}

// StatusSummary 将 porcelain 输出按处理方式分组。
// 同一文件可能同时出现在 Staged 与 Unstaged 中（部分暂存）。
type StatusSummary struct {
	BranchName string
	Staged     []FileStatus
	Unstaged   []FileStatus
	Untracked  []FileStatus
	Conflicted []FileStatus
}

// HasAnyChanges 返回工作区是否存在任何可提交的改动。
func (s *StatusSummary) HasAnyChanges() bool {
	return len(s.Staged)+len(s.Unstaged)+len(s.Untracked)+len(s.Conflicted) > 0
}

// Status 解析 git status --porcelain -b 的输出。
// porcelain 格式稳定，适合机器解析；-b 额外带出分支行。
func (c *Collector) Status(ctx context.Context) (*StatusSummary, error) {
	out, err := c.runner.Run(ctx, "git", "status", "--porcelain", "-b")
	if err != nil {
		return nil, fmt.Errorf("git status --porcelain -b failed: %w", err)
	}
	return parsePorcelain(string(out)), nil
}

// 冲突状态组合见 git-status(1) 的 "Short Format" 一节。
var conflictCodes = map[string]bool{
	"DD": true, "AU": true, "UD": true,
	"UA": true, "DU": true, "AA": true, "UU": true,
}

func parsePorcelain(out string) *StatusSummary {
	summary := &StatusSummary{}

	for _, line := range strings.Split(out, "\n") {
		if len(line) < 3 {
			continue
		}

		if strings.HasPrefix(line, "## ") {
			branch := strings.TrimPrefix(line, "## ")
			// "main...origin/main" 或 "No commits yet on main"
			if i := strings.Index(branch, "..."); i >= 0 {
				branch = branch[:i]
			}
			summary.BranchName = strings.TrimPrefix(branch, "No commits yet on ")
			continue
		}

		x, y := line[0], line[1]
		path := strings.TrimSpace(line[3:])
		// porcelain 会对含空格的路径加引号
		path = strings.Trim(path, `"`)

		fs := FileStatus{Path: path, IndexStatus: x, WorkStatus: y}
		if i := strings.Index(path, " -> "); i >= 0 {
			fs.OldPath = strings.Trim(path[:i], `"`)
			fs.Path = strings.Trim(path[i+4:], `"`)
			fs.IsRenamed = true
		}

		switch {
		case x == '?' && y == '?':
			summary.Untracked = append(summary.Untracked, fs)
		case conflictCodes[string([]byte{x, y})]:
			summary.Conflicted = append(summary.Conflicted, fs)
		default:
			if x != ' ' {
				summary.Staged = append(summary.Staged, fs)
			}
			if y != ' ' {
				summary.Unstaged = append(summary.Unstaged, fs)
			}
		}
	}

	return summary
}
