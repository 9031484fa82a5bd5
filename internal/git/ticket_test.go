package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
)

func TestExtractTicketID(t *testing.T) {
	re, err := CompilePrefixRegex(DefaultPrefixRegex)
	require.NoError(t, err)

	tests := []struct {
		name    string
		branch  string
		want    string
		wantErr bool
	}{
		{name: "ticket and description", branch: "INSTA-123-add-login", want: "INSTA-123"},
		{name: "ticket only", branch: "INSTA-7", want: "INSTA-7"},
		{name: "slash suffix", branch: "INSTA-42/wip", want: "INSTA-42"},
		{name: "ticket not at start", branch: "feature/INSTA-123", wantErr: true},
		{name: "no ticket", branch: "main", wantErr: true},
		{name: "missing digits", branch: "INSTA-abc", wantErr: true},
		{name: "detached head", branch: DetachedHead, wantErr: true},
		{name: "empty branch", branch: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTicketID(tt.branch, re)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, pcErrors.ErrTicketNotFound)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTicketIDCustomPattern(t *testing.T) {
	re, err := CompilePrefixRegex(`feature/([A-Z]+-\d+)`)
	require.NoError(t, err)

	got, err := ExtractTicketID("feature/ABC-9-thing", re)
	require.NoError(t, err)
	assert.Equal(t, "ABC-9", got)
}

func TestExtractTicketIDOptionalGroup(t *testing.T) {
	re, err := CompilePrefixRegex(`x(INSTA-\d+)?`)
	require.NoError(t, err)

	_, err = ExtractTicketID("xyz", re)
	assert.ErrorIs(t, err, pcErrors.ErrTicketNotFound)
}

func TestCompilePrefixRegex(t *testing.T) {
	_, err := CompilePrefixRegex(`INSTA-\d+`)
	assert.Error(t, err, "a pattern without a capture group is rejected")

	_, err = CompilePrefixRegex(`(INSTA-\d+`)
	assert.Error(t, err)

	re, err := CompilePrefixRegex(`(INSTA-\d+)`)
	require.NoError(t, err)
	assert.Equal(t, 1, re.NumSubexp())
}

func TestFormatCommitMessage(t *testing.T) {
	assert.Equal(t, "[INSTA-123] Add login form", FormatCommitMessage("INSTA-123", "Add login form"))
	assert.Equal(t, "[T-1] ", FormatCommitMessage("T-1", ""))
}
