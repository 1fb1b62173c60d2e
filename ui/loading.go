package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// taskDoneMsg 携带后台任务的结果。
type taskDoneMsg struct {
	candidates []string
	err        error
}

// loadingModel 在任务执行期间渲染一个 spinner。
// 纯装饰性：取消它不影响正确性，任务结果经 taskDoneMsg 传回。
type loadingModel struct {
	spinner    spinner.Model
	status     string
	task       func() ([]string, error)
	candidates []string
	err        error
	canceled   bool
	styles     UIStyles
}

func newLoadingModel(status string, task func() ([]string, error)) loadingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Line
	return loadingModel{
		spinner: sp,
		status:  status,
		task:    task,
		styles:  DefaultStyles(),
	}
}

func (m loadingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		candidates, err := m.task()
		return taskDoneMsg{candidates: candidates, err: err}
	})
}

func (m loadingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.canceled = true
			return m, tea.Quit
		}
	case taskDoneMsg:
		m.candidates = msg.candidates
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m loadingModel) View() string {
	if m.canceled || m.err != nil || m.candidates != nil {
		return ""
	}
	return " " + m.spinner.View() + " " + m.styles.Dimmed.Render(m.status) + "\n"
}

// RunLoading 在 spinner 下执行 task 并返回其结果。
// 非交互环境下直接同步执行，不渲染任何动画。
// Ctrl+C 返回 ErrCanceled；任务本身的错误原样透出。
func RunLoading(status string, task func() ([]string, error)) ([]string, error) {
	if !IsInteractive() {
		_, _ = fmt.Fprintln(os.Stderr, status)
		return task()
	}

	finalModel, err := tea.NewProgram(newLoadingModel(status, task)).Run()
	if err != nil {
		return nil, err
	}

	m, ok := finalModel.(loadingModel)
	if !ok {
		return nil, fmt.Errorf("internal error: unexpected model type, got %T", finalModel)
	}
	if m.canceled {
		return nil, ErrCanceled
	}
	return m.candidates, m.err
}
