package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// UIColors 定义统一的颜色主题
type UIColors struct {
	Gray   lipgloss.Color
	Blue   lipgloss.Color
	Green  lipgloss.Color
	Yellow lipgloss.Color
	Red    lipgloss.Color
	White  lipgloss.Color
}

// DefaultColors 返回默认的颜色主题
func DefaultColors() UIColors {
	return UIColors{
		Gray:   lipgloss.Color("245"),
		Blue:   lipgloss.Color("39"),
		Green:  lipgloss.Color("42"),
		Yellow: lipgloss.Color("220"),
		Red:    lipgloss.Color("196"),
		White:  lipgloss.Color("255"),
	}
}

// UIStyles 定义统一的样式
type UIStyles struct {
	Colors   UIColors
	Title    lipgloss.Style
	Marker   lipgloss.Style // 选中行前的指示符
	Selected lipgloss.Style // 当前高亮的候选
	Dimmed   lipgloss.Style // 其余候选
	Success  lipgloss.Style
	Error    lipgloss.Style
	Hint     lipgloss.Style // 底部按键提示
}

// DefaultStyles 返回默认的样式集
func DefaultStyles() UIStyles {
	colors := DefaultColors()
	return UIStyles{
		Colors:   colors,
		Title:    lipgloss.NewStyle().Foreground(colors.White).Bold(true),
		Marker:   lipgloss.NewStyle().Foreground(colors.Green).Bold(true),
		Selected: lipgloss.NewStyle().Foreground(colors.White).Bold(true),
		Dimmed:   lipgloss.NewStyle().Foreground(colors.Gray),
		Success:  lipgloss.NewStyle().Foreground(colors.Green),
		Error:    lipgloss.NewStyle().Foreground(colors.Red),
		Hint:     lipgloss.NewStyle().Foreground(colors.Gray).Italic(true),
	}
}

// ConfigureColorProfile 根据约定俗成的环境变量调整着色行为：
// NO_COLOR 完全禁用，CLICOLOR_FORCE 强制启用（即使输出非终端）。
func ConfigureColorProfile() {
	if os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	if v := os.Getenv("CLICOLOR_FORCE"); v != "" && v != "0" {
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}
