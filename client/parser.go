package client

import (
	"regexp"
	"strings"

	apperrors "github.com/penwyp/trimit/internal/errors"
)

// maxCandidates 每次生成返回的候选上限。
const maxCandidates = 3

var (
	// 行首的枚举标记："1. " / "1) " / "1- " / "- " / "* "
	enumMarker = regexp.MustCompile(`^(?:\d+[.)\-]\s+|[-*]\s+)`)

	// reasoning 文本中形如 "1. feat(scope): ..." 的行
	typedLine = regexp.MustCompile(`(?m)^\s*(?:\d+[.)\-]\s*)?((?:feat|fix|refactor|docs|style|test|chore|perf|ci|build)(?:\([^)]*\))?!?:\s*\S.*)$`)
)

// ParseCandidates 从模型输出提取至多 3 条 commit message 候选。
// 先对主内容逐行清洗筛选；不足 3 条时再在 reasoning 文本中
// 匹配以已知 commit type 开头的行补足。一条都没有时返回 Parse 错误。
func ParseCandidates(content, reasoning string) ([]string, error) {
	var candidates []string

	for _, line := range strings.Split(content, "\n") {
		if len(candidates) >= maxCandidates {
			break
		}
		cleaned := CleanLine(line)
		if isUsableCandidate(cleaned) {
			candidates = append(candidates, cleaned)
		}
	}

	if len(candidates) < maxCandidates && reasoning != "" {
		candidates = appendFromReasoning(candidates, reasoning)
	}

	if len(candidates) == 0 {
		return nil, apperrors.ErrResponseUnparseable
	}
	return candidates, nil
}

// CleanLine 去掉行首枚举标记与包裹的引号，并压缩内部空白。
func CleanLine(line string) string {
	s := strings.TrimSpace(line)
	s = enumMarker.ReplaceAllString(s, "")
	s = strings.Trim(s, "\"'`“”‘’")
	// 压缩连续空白为单个空格
	return strings.Join(strings.Fields(s), " ")
}

// isUsableCandidate 要求长度合理，且冒号两侧都有内容，
// 以贴近 type: description 的形状并排除以冒号结尾的叙述句。
func isUsableCandidate(s string) bool {
	if len(s) <= 4 || len(s) >= 200 {
		return false
	}
	i := strings.IndexByte(s, ':')
	return i > 0 && i < len(s)-1
}

// appendFromReasoning 在 reasoning 文本中补足候选，跳过重复项。
func appendFromReasoning(candidates []string, reasoning string) []string {
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		seen[c] = true
	}

	for _, match := range typedLine.FindAllStringSubmatch(reasoning, -1) {
		if len(candidates) >= maxCandidates {
			break
		}
		cleaned := CleanLine(match[1])
		if isUsableCandidate(cleaned) && !seen[cleaned] {
			seen[cleaned] = true
			candidates = append(candidates, cleaned)
		}
	}
	return candidates
}
