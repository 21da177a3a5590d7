package command

import (
	"context"
	"sort"
	"strings"

	"github.com/mesh-intelligence/heapoverflow/internal/platform"
)

// maxChoices is the most suggestions the platform shows.
const maxChoices = 25

// Autocomplete suggests categories whose name contains the typed text.
// Suggestions carry the category id as value.
func (r *Router) Autocomplete(_ context.Context, e platform.AutocompleteRequest) []platform.OptionChoice {
	if e.Option != optionCategory {
		return nil
	}
	typed := strings.ToLower(strings.TrimSpace(e.Value))

	categories := r.categories.Categories(e.GuildID)
	sort.Slice(categories, func(i, j int) bool {
		return strings.ToLower(categories[i].Name) < strings.ToLower(categories[j].Name)
	})
	choices := []platform.OptionChoice{}
	for _, c := range categories {
		if typed != "" && !strings.Contains(strings.ToLower(c.Name), typed) {
			continue
		}
		choices = append(choices, platform.OptionChoice{Name: c.Name, Value: c.ID.String()})
		if len(choices) == maxChoices {
			break
		}
	}
	return choices
}
