package platform

// OptionChoice is a fixed value offered for a command option.
type OptionChoice struct {
	Name  string
	Value string
}

// CommandOption is a string option of a slash command.
type CommandOption struct {
	Name         string
	Description  string
	Required     bool
	Autocomplete bool
	Choices      []OptionChoice
}

// Subcommand is a subcommand of a command group.
type Subcommand struct {
	Name        string
	Description string
	Options     []CommandOption
}

// Command describes a slash command for registration. A command either has
// Subcommands or Options, not both.
type Command struct {
	Name        string
	Description string
	Options     []CommandOption
	Subcommands []Subcommand
	StaffOnly   bool
}
