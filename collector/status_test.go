package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollector_Status(t *testing.T) {
	t.Parallel()

	t.Run("mixed_changes", func(t *testing.T) {
		output := `## main...origin/main
M  staged.go
 M unstaged.go
MM both.go
?? new.txt
UU conflicted.go
R  old.go -> renamed.go`

		mr := &mockRunner{outputs: [][]byte{[]byte(output)}, errs: []error{nil}}

		summary, err := New(mr).Status(context.Background())
		require.NoError(t, err)
		require.Equal(t, "main", summary.BranchName)

		require.Len(t, summary.Staged, 3) // staged.go, both.go, renamed.go
		require.Len(t, summary.Unstaged, 2)
		require.Len(t, summary.Untracked, 1)
		require.Len(t, summary.Conflicted, 1)
		require.True(t, summary.HasAnyChanges())

		require.Equal(t, "new.txt", summary.Untracked[0].Path)
		require.Equal(t, "conflicted.go", summary.Conflicted[0].Path)

		renamed := summary.Staged[2]
		require.True(t, renamed.IsRenamed)
		require.Equal(t, "old.go", renamed.OldPath)
		require.Equal(t, "renamed.go", renamed.Path)
	})

	t.Run("partially_staged_file_appears_twice", func(t *testing.T) {
		mr := &mockRunner{outputs: [][]byte{[]byte("## main\nMM both.go")}, errs: []error{nil}}

		summary, err := New(mr).Status(context.Background())
		require.NoError(t, err)
		require.Len(t, summary.Staged, 1)
		require.Len(t, summary.Unstaged, 1)
		require.Equal(t, summary.Staged[0].Path, summary.Unstaged[0].Path)
	})

	t.Run("empty_repo_branch_line", func(t *testing.T) {
		mr := &mockRunner{outputs: [][]byte{[]byte("## No commits yet on main\n?? a.txt")}, errs: []error{nil}}

		summary, err := New(mr).Status(context.Background())
		require.NoError(t, err)
		require.Equal(t, "main", summary.BranchName)
		require.Len(t, summary.Untracked, 1)
	})

	t.Run("clean_tree", func(t *testing.T) {
		mr := &mockRunner{outputs: [][]byte{[]byte("## main...origin/main\n")}, errs: []error{nil}}

		summary, err := New(mr).Status(context.Background())
		require.NoError(t, err)
		require.False(t, summary.HasAnyChanges())
	})

	t.Run("git_command_fails", func(t *testing.T) {
		mr := &mockRunner{outputs: [][]byte{nil}, errs: []error{errors.New("boom")}}

		_, err := New(mr).Status(context.Background())
		require.Error(t, err)
		require.Contains(t, err.Error(), "git status --porcelain -b failed")
	})

	t.Run("quoted_path", func(t *testing.T) {
		mr := &mockRunner{outputs: [][]byte{[]byte("## main\nA  \"with space.txt\"")}, errs: []error{nil}}

		summary, err := New(mr).Status(context.Background())
		require.NoError(t, err)
		require.Len(t, summary.Staged, 1)
		require.Equal(t, "with space.txt", summary.Staged[0].Path)
	})
}
