package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestLoadingModel_TaskDone(t *testing.T) {
	t.Parallel()

	m := newLoadingModel("Generating commit messages…", nil)

	model, cmd := m.Update(taskDoneMsg{candidates: []string{"feat: a"}})
	lm := model.(loadingModel)
	require.Equal(t, []string{"feat: a"}, lm.candidates)
	require.NoError(t, lm.err)
	require.NotNil(t, cmd) // tea.Quit

	// 完成后不再渲染 spinner
	require.Empty(t, lm.View())
}

func TestLoadingModel_TaskError(t *testing.T) {
	t.Parallel()

	m := newLoadingModel("Generating…", nil)

	model, _ := m.Update(taskDoneMsg{err: errors.New("boom")})
	lm := model.(loadingModel)
	require.Error(t, lm.err)
	require.Empty(t, lm.View())
}

func TestLoadingModel_CtrlCCancels(t *testing.T) {
	t.Parallel()

	m := newLoadingModel("Generating…", nil)

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	lm := model.(loadingModel)
	require.True(t, lm.canceled)
	require.NotNil(t, cmd)
}

func TestLoadingModel_ViewShowsStatus(t *testing.T) {
	t.Parallel()

	m := newLoadingModel("Generating commit messages…", nil)
	require.Contains(t, m.View(), "Generating commit messages…")
}
