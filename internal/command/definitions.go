package command

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// Command and subcommand names.
const (
	AskHere = "askhere"

	HelpSection       = "helpsection"
	AddCategory       = "addcategory"
	RemoveCategory    = "removecategory"
	RenameCategory    = "renamecategory"
	SetDescription    = "setdescription"
	ClearDescription  = "cleardescription"
	QuestionGroup     = "question"
	CloseQuestion     = "close"
	RenameQuestion    = "rename"
	optionName        = "name"
	optionDescription = "description"
	optionCategory    = "category"
	optionReason      = "reason"
	optionTitle       = "title"
)

// Definitions lists the slash commands the bot answers.
func Definitions() []platform.Command {
	category := platform.CommandOption{
		Name:         optionCategory,
		Description:  "The category, by name or id",
		Required:     true,
		Autocomplete: true,
	}

	caser := cases.Title(language.English)
	reasons := make([]platform.OptionChoice, 0, len(types.CloseReasons))
	for _, r := range types.CloseReasons {
		reasons = append(reasons, platform.OptionChoice{Name: caser.String(string(r)), Value: string(r)})
	}

	return []platform.Command{
		{
			Name:        AskHere,
			Description: `Posts the "Ask Here" prompt to this channel.`,
			StaffOnly:   true,
		},
		{
			Name:        HelpSection,
			Description: "Manages the help section.",
			StaffOnly:   true,
			Subcommands: []platform.Subcommand{
				{
					Name:        AddCategory,
					Description: "Adds a new category to the help section.",
					Options: []platform.CommandOption{
						{Name: optionName, Description: "The name of the category", Required: true},
						{Name: optionDescription, Description: "A short description of the category"},
					},
				},
				{
					Name:        RemoveCategory,
					Description: "Removes a category from the help section.",
					Options:     []platform.CommandOption{category},
				},
				{
					Name:        RenameCategory,
					Description: "Renames a category in the help section.",
					Options: []platform.CommandOption{
						category,
						{Name: optionName, Description: "The new name of the category", Required: true},
					},
				},
				{
					Name:        SetDescription,
					Description: "Sets the description of a category.",
					Options: []platform.CommandOption{
						category,
						{Name: optionDescription, Description: "The new description", Required: true},
					},
				},
				{
					Name:        ClearDescription,
					Description: "Clears the description of a category.",
					Options:     []platform.CommandOption{category},
				},
			},
		},
		{
			Name:        QuestionGroup,
			Description: "Manages question threads.",
			Subcommands: []platform.Subcommand{
				{
					Name:        CloseQuestion,
					Description: "Closes a question.",
					Options: []platform.CommandOption{
						{Name: optionReason, Description: "The reason for the closure", Required: true, Choices: reasons},
					},
				},
				{
					Name:        RenameQuestion,
					Description: "Renames a question.",
					Options: []platform.CommandOption{
						{Name: optionTitle, Description: "The new title of the question", Required: true},
					},
				},
			},
		},
	}
}
