package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/penwyp/trimit/internal/errors"
)

func TestParseCandidates_NumberedList(t *testing.T) {
	t.Parallel()

	candidates, err := ParseCandidates("1. feat: a\n2. fix: b\n3. chore: c", "")
	require.NoError(t, err)
	require.Equal(t, []string{"feat: a", "fix: b", "chore: c"}, candidates)
}

func TestParseCandidates_Markers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "bullets_and_quotes",
			content:  "- \"feat(ui): add selector\"\n* 'fix: handle empty diff'\n1- `chore: bump deps`",
			expected: []string{"feat(ui): add selector", "fix: handle empty diff", "chore: bump deps"},
		},
		{
			name:     "paren_numbering",
			content:  "1) feat: one\n2) fix: two\n3) docs: three",
			expected: []string{"feat: one", "fix: two", "docs: three"},
		},
		{
			name:     "internal_whitespace_collapsed",
			content:  "feat:   add    thing\nfix:\twiden\ttimeout\nchore: tidy",
			expected: []string{"feat: add thing", "fix: widen timeout", "chore: tidy"},
		},
		{
			name:     "never_more_than_three",
			content:  "feat: a1\nfix: b2\nchore: c3\nrefactor: d4\nperf: e5",
			expected: []string{"feat: a1", "fix: b2", "chore: c3"},
		},
		{
			name:     "skips_commentary_lines",
			content:  "Here are three options:\n\nfeat: add retry logic\nfix: close response body\nchore: update makefile\nHope this helps!",
			expected: []string{"feat: add retry logic", "fix: close response body", "chore: update makefile"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			candidates, err := ParseCandidates(tc.content, "")
			require.NoError(t, err)
			require.Equal(t, tc.expected, candidates)
		})
	}
}

func TestParseCandidates_LengthBounds(t *testing.T) {
	t.Parallel()

	long := "feat: " + strings.Repeat("x", 200)
	candidates, err := ParseCandidates("a:b\n"+long+"\nfix: reasonable subject", "")
	require.NoError(t, err)
	// 过短与过长的行都被丢弃
	require.Equal(t, []string{"fix: reasonable subject"}, candidates)
	for _, c := range candidates {
		require.Greater(t, len(c), 4)
		require.Less(t, len(c), 200)
	}
}

func TestParseCandidates_ReasoningFallback(t *testing.T) {
	t.Parallel()

	t.Run("fills_missing_candidates", func(t *testing.T) {
		reasoning := `The change touches the retry loop.
1. fix(client): cap retry-after hint
Some analysis here.
2. refactor: extract backoff schedule
`
		candidates, err := ParseCandidates("feat: add retry budget", reasoning)
		require.NoError(t, err)
		require.Equal(t, []string{
			"feat: add retry budget",
			"fix(client): cap retry-after hint",
			"refactor: extract backoff schedule",
		}, candidates)
	})

	t.Run("deduplicates", func(t *testing.T) {
		candidates, err := ParseCandidates("feat: same thing", "1. feat: same thing\n2. fix: other thing")
		require.NoError(t, err)
		require.Equal(t, []string{"feat: same thing", "fix: other thing"}, candidates)
	})

	t.Run("ignores_unknown_prefixes", func(t *testing.T) {
		candidates, err := ParseCandidates("feat: primary", "1. wip: not a real type\nrandom: prose line")
		require.NoError(t, err)
		require.Equal(t, []string{"feat: primary"}, candidates)
	})
}

func TestParseCandidates_Empty(t *testing.T) {
	t.Parallel()

	_, err := ParseCandidates("", "")
	require.ErrorIs(t, err, apperrors.ErrResponseUnparseable)
	require.Equal(t, apperrors.KindParse, apperrors.KindOf(err))

	_, err = ParseCandidates("no usable lines here\njust prose", "still nothing typed")
	require.ErrorIs(t, err, apperrors.ErrResponseUnparseable)
}

func TestCleanLine(t *testing.T) {
	t.Parallel()

	require.Equal(t, "feat: x y", CleanLine(`  2)  "feat:  x   y"  `))
	require.Equal(t, "fix: z", CleanLine("* 'fix: z'"))
	require.Equal(t, "", CleanLine("   "))
}
