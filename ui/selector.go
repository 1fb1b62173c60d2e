package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// ErrCanceled 表示用户中断了选择（Ctrl+C / Esc / q）。
var ErrCanceled = errors.New("selection canceled")

// IsInteractive 判断当前进程是否挂接在交互终端上。
// 管道或 CI 环境下走非交互降级路径。
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Select 展示一个单选菜单并返回选中的下标。
// 交互终端下为方向键驱动的原地重绘菜单（bubbletea 负责 raw mode
// 的进入与恢复，包括异常退出路径）；非交互环境下打印编号列表并
// 从标准输入读取序号。取消时返回 ErrCanceled。
func Select(title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("no options to select from")
	}

	if !IsInteractive() {
		return selectFallback(os.Stdin, os.Stdout, title, options), nil
	}

	finalModel, err := tea.NewProgram(newSelectModel(title, options)).Run()
	if err != nil {
		return 0, err
	}

	m, ok := finalModel.(selectModel)
	if !ok {
		return 0, fmt.Errorf("internal error: unexpected model type, got %T", finalModel)
	}
	if m.canceled {
		return 0, ErrCanceled
	}
	return m.cursor, nil
}

// Confirm 复用选择菜单实现一个是/否确认。
func Confirm(question string) (bool, error) {
	idx, err := Select(question, []string{"Yes", "No"})
	if err != nil {
		return false, err
	}
	return idx == 0, nil
}

// selectModel 是单轮选择的 bubbletea 模型。
// 全部状态都在模型内，没有共享的可变数据。
type selectModel struct {
	title    string
	options  []string
	cursor   int
	done     bool
	canceled bool
	styles   UIStyles
}

func newSelectModel(title string, options []string) selectModel {
	return selectModel{
		title:   title,
		options: options,
		styles:  DefaultStyles(),
	}
}

// Init 实现 tea.Model 接口。
func (m selectModel) Init() tea.Cmd { return nil }

// Update 处理按键：上下移动（回绕）、数字直达、回车确认、取消。
// 未识别的输入保持原状态。
func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	n := len(m.options)
	switch key := keyMsg.String(); key {
	case "up", "k":
		m.cursor = (m.cursor - 1 + n) % n
	case "down", "j":
		m.cursor = (m.cursor + 1) % n
	case "enter":
		m.done = true
		return m, tea.Quit
	case "ctrl+c", "esc", "q":
		m.canceled = true
		m.done = true
		return m, tea.Quit
	default:
		// 数字键 1..n 直接跳到对应项
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if idx := int(key[0] - '1'); idx < n {
				m.cursor = idx
			}
		}
	}

	return m, nil
}

// View 渲染标题与候选列表。bubbletea 在每帧之间回到块首逐行清除
// 重绘，因此渲染只需是当前状态的纯函数。
func (m selectModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render(m.title) + "\n\n")

	for i, opt := range m.options {
		switch {
		case m.done && !m.canceled && i == m.cursor:
			sb.WriteString("  " + m.styles.Marker.Render("✓") + " " + m.styles.Success.Render(opt) + "\n")
		case !m.done && i == m.cursor:
			sb.WriteString("  " + m.styles.Marker.Render("❯") + " " + m.styles.Selected.Render(opt) + "\n")
		default:
			sb.WriteString("    " + m.styles.Dimmed.Render(opt) + "\n")
		}
	}

	if !m.done {
		sb.WriteString("\n" + m.styles.Hint.Render("↑/k up · ↓/j down · 1-9 jump · enter confirm · q quit"))
		sb.WriteString("\n")
	}

	return sb.String()
}
