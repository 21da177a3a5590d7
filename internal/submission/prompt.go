package submission

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// Component and slot identifiers shared with the platform.
const (
	SelectID    = "askhere-category"
	TitleInput  = "title"
	PromptSlot  = "askHereMessage"
	modalPrefix = "ask-"
)

// Platform limits on the category selector.
const (
	MaxSelectOptions = 25
	MaxOptionText    = 100
)

// Title bounds enforced by the modal form.
const (
	MinFormTitle = 15
	MaxFormTitle = 100
)

const promptDescription = "Pick the category that best matches your problem, then give your question a short title. " +
	"A thread will be opened for you in the help forum."

// Prompt builds the entry prompt for categories. With no categories it
// builds the "no categories" notice instead, without a selector. Only the
// first MaxSelectOptions categories by name are offered.
func Prompt(categories []*types.Category, color int) platform.MessageContent {
	if len(categories) == 0 {
		return platform.MessageContent{
			Embeds: []platform.Embed{{
				Title:       "❌ No categories found",
				Description: "There are no categories available for questions.",
				Color:       platform.ColorRed,
			}},
		}
	}

	sorted := append([]*types.Category(nil), categories...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	description := promptDescription
	if hidden := len(sorted) - MaxSelectOptions; hidden > 0 {
		sorted = sorted[:MaxSelectOptions]
		description += fmt.Sprintf("\n\n%d more categories are not listed. Please ask a staff member about them.", hidden)
	}
	options := make([]platform.SelectOption, 0, len(sorted))
	for _, c := range sorted {
		options = append(options, platform.SelectOption{
			Label:       clip(c.Name, MaxOptionText),
			Value:       c.ID.String(),
			Description: clip(c.Description, MaxOptionText),
		})
	}

	return platform.MessageContent{
		Embeds: []platform.Embed{{
			Title:       "❓ Open a new question",
			Description: description,
			Color:       color,
		}},
		Select: &platform.Select{
			CustomID:    SelectID,
			Placeholder: "Select a category",
			Options:     options,
		},
	}
}

// ModalID is the custom id of the title form opened for userID.
func ModalID(member platform.Member) string {
	return modalPrefix + member.UserID.String()
}

// IsModalID reports whether id belongs to a title form.
func IsModalID(id string) bool {
	return strings.HasPrefix(id, modalPrefix)
}

func titleModal(member platform.Member) platform.Modal {
	return platform.Modal{
		CustomID: ModalID(member),
		Title:    "Open a new question",
		Inputs: []platform.TextInput{{
			CustomID:  TitleInput,
			Label:     "Briefly describe the problem",
			MinLength: MinFormTitle,
			MaxLength: MaxFormTitle,
		}},
	}
}

// clip shortens s to at most n runes, ending it with "..." when cut.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
