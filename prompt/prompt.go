package prompt

import (
	"strings"

	"github.com/penwyp/trimit/collector"
)

// Builder 负责构建发送给 LLM 的 Prompt 文本。
// diff 的体量控制在 collector 侧完成，这里只做拼装。
type Builder struct {
	lang string // ISO 639-1 语言代码，例如 "en", "zh"
}

// NewBuilder 创建 Prompt Builder。
func NewBuilder(lang string) *Builder {
	return &Builder{lang: lang}
}

// BuildSystemPrompt 构建系统提示词：角色、任务、格式规则与输出要求。
// 输出被约束为恰好三行候选，便于解析端按行切分。
func (b *Builder) BuildSystemPrompt() string {
	rolePrompt := "You are an expert software engineer who writes concise, high-quality Git commit messages following the Conventional Commits specification."

	taskPrompt := "Propose exactly THREE alternative commit messages for the provided staged changes."

	var langInst string
	switch strings.ToLower(b.lang) {
	case "zh":
		langInst = "The commit messages MUST be in Chinese."
	default:
		langInst = "The commit messages MUST be in English."
	}

	formatRules := `# INSTRUCTIONS & RULES
1. **Format**: each line MUST follow Conventional Commits: <type>(<optional-scope>): <description>
2. **Type**: choose from feat, fix, refactor, docs, style, test, chore, perf, ci, build
3. **Description**: lowercase imperative mood, under 72 characters, no period at the end
4. **Variety**: the three lines should offer genuinely different framings of the change`

	outputReq := `# YOUR RESPONSE
Output exactly three lines, one commit message per line.
No numbering, no bullets, no quotes, no commentary before or after.`

	return strings.Join([]string{rolePrompt, taskPrompt, langInst, formatRules, outputReq}, "\n\n")
}

// BuildUserPrompt 构建用户提示词：diff 摘要、近期提交风格参照与 diff 正文。
func (b *Builder) BuildUserPrompt(bundle collector.DiffBundle, history []string) string {
	var parts []string

	if bundle.Stat != "" {
		parts = append(parts, "Change summary:\n"+bundle.Stat)
	}

	if len(history) > 0 {
		parts = append(parts, "Recent commits (for style reference):\n"+strings.Join(history, "\n"))
	}

	if bundle.Diff != "" {
		parts = append(parts, "Staged diff (may be truncated for large files):\n```diff\n"+bundle.Diff+"\n```")
	}

	if len(parts) == 0 {
		return "No changes detected."
	}

	return strings.Join(parts, "\n\n")
}
