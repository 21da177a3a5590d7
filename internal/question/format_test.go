package question

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

func TestThreadName(t *testing.T) {
	tests := []struct {
		name     string
		category string
		title    string
		check    func(t *testing.T, got string)
	}{
		{
			name:     "short title kept whole",
			category: "Go",
			title:    "Why is nil not nil?",
			check: func(t *testing.T, got string) {
				assert.Equal(t, "[Go] Why is nil not nil?", got)
			},
		},
		{
			name:     "exact fit is not truncated",
			category: "Go",
			title:    strings.Repeat("a", 95),
			check: func(t *testing.T, got string) {
				assert.Equal(t, "[Go] "+strings.Repeat("a", 95), got)
			},
		},
		{
			name:     "long title truncated with ellipsis to the limit",
			category: "Go",
			title:    strings.Repeat("b", 150),
			check: func(t *testing.T, got string) {
				assert.Equal(t, ThreadNameLimit, utf8.RuneCountInString(got))
				assert.True(t, strings.HasSuffix(got, "..."))
				assert.True(t, strings.HasPrefix(got, "[Go] bbb"))
			},
		},
		{
			name:     "multi-byte runes are not split",
			category: "Español",
			title:    strings.Repeat("ñ", 120),
			check: func(t *testing.T, got string) {
				assert.True(t, utf8.ValidString(got))
				assert.Equal(t, ThreadNameLimit, utf8.RuneCountInString(got))
			},
		},
		{
			name:     "no category omits prefix",
			category: "",
			title:    "Plain",
			check: func(t *testing.T, got string) {
				assert.Equal(t, "Plain", got)
			},
		},
		{
			name:     "huge category still fits",
			category: strings.Repeat("c", 120),
			title:    "title",
			check: func(t *testing.T, got string) {
				assert.Equal(t, ThreadNameLimit, utf8.RuneCountInString(got))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ThreadName(tt.category, tt.title))
		})
	}
}

func TestClosedEmbed(t *testing.T) {
	q := &types.Question{AuthorID: 5, CloseReason: types.CloseReasonResolved}

	byAsker := closedEmbed(q, platform.Member{UserID: 5})
	assert.Equal(t, "This question was closed by the asker.", byAsker.Description)
	assert.Equal(t, platform.ColorGreen, byAsker.Color)

	q.CloseReason = types.CloseReasonInvalid
	byStaff := closedEmbed(q, platform.Member{UserID: 9})
	assert.Equal(t, "This question was closed by <@9>.", byStaff.Description)
	assert.Equal(t, platform.ColorRed, byStaff.Color)
	assert.Equal(t, types.CloseReasonInvalid.Description(), byStaff.Fields[0].Value)
}
