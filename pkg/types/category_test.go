package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategoryName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lower case is title cased", input: "go", want: "Go"},
		{name: "underscores split words", input: "data_structures", want: "Data Structures"},
		{name: "hyphens split words", input: "web-dev", want: "Web Dev"},
		{name: "whitespace collapses", input: "  game   dev  ", want: "Game Dev"},
		{name: "acronyms survive", input: "HTML and CSS", want: "HTML And CSS"},
		{name: "blank stays blank", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCategoryName(tt.input))
		})
	}
}

func TestCategoryNormalize(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		wantErr  error
		check    func(t *testing.T, c *Category)
	}{
		{
			name:     "normalizes name and description",
			category: Category{Name: "c_sharp", Description: "  .NET questions \n"},
			check: func(t *testing.T, c *Category) {
				assert.Equal(t, "C Sharp", c.Name)
				assert.Equal(t, ".NET questions", c.Description)
			},
		},
		{
			name:     "blank description becomes empty",
			category: Category{Name: "Rust", Description: "   "},
			check: func(t *testing.T, c *Category) {
				assert.Empty(t, c.Description)
			},
		},
		{
			name:     "blank name fails",
			category: Category{Name: " _ - "},
			wantErr:  ErrInvalidName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.category
			err := c.Normalize()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			if tt.check != nil {
				tt.check(t, &c)
			}
		})
	}
}

func TestCategoryHasName(t *testing.T) {
	c := &Category{Name: "Web Dev"}

	assert.True(t, c.HasName("web dev"))
	assert.True(t, c.HasName("WEB-DEV"))
	assert.True(t, c.HasName("  web_dev "))
	assert.False(t, c.HasName("webdev"))
	assert.Equal(t, "Web Dev", c.String())
}
