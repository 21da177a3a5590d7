package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/snowflake"

	"github.com/mesh-intelligence/heapoverflow/internal/platform"
)

// Members holding any of these permissions count as staff.
const staffPermissions = discordgo.PermissionAdministrator |
	discordgo.PermissionManageServer |
	discordgo.PermissionManageMessages

// translate maps Discord API failures on missing targets onto the platform
// sentinels and leaves everything else untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return err
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeUnknownMessage:
			return fmt.Errorf("%w: %v", platform.ErrUnknownMessage, err)
		case discordgo.ErrCodeUnknownChannel:
			return fmt.Errorf("%w: %v", platform.ErrUnknownChannel, err)
		}
	}
	if rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", platform.ErrUnknownChannel, err)
	}
	return err
}

// parseID parses a Discord id. Empty strings and garbage become 0.
func parseID(s string) snowflake.ID {
	if s == "" {
		return 0
	}
	id, err := snowflake.ParseString(s)
	if err != nil {
		return 0
	}
	return id
}

func idString(id snowflake.ID) string {
	if id == 0 {
		return ""
	}
	return id.String()
}

func isThread(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildNewsThread:
		return true
	}
	return false
}

func toChannel(c *discordgo.Channel) *platform.Channel {
	return &platform.Channel{
		ID:       parseID(c.ID),
		GuildID:  parseID(c.GuildID),
		ParentID: parseID(c.ParentID),
		Name:     c.Name,
		IsThread: isThread(c.Type),
	}
}

func toMessage(m *discordgo.Message) *platform.Message {
	return &platform.Message{
		ID:        parseID(m.ID),
		ChannelID: parseID(m.ChannelID),
		GuildID:   parseID(m.GuildID),
	}
}

func toMember(guildID string, m *discordgo.Member) platform.Member {
	if m == nil || m.User == nil {
		return platform.Member{GuildID: parseID(guildID)}
	}
	return platform.Member{
		UserID:    parseID(m.User.ID),
		GuildID:   parseID(guildID),
		Username:  m.User.Username,
		AvatarURL: m.User.AvatarURL(""),
		IsStaff:   m.Permissions&staffPermissions != 0,
	}
}

func toInteraction(i *discordgo.Interaction) platform.Interaction {
	return platform.Interaction{
		ID:        parseID(i.ID),
		AppID:     parseID(i.AppID),
		Token:     i.Token,
		GuildID:   parseID(i.GuildID),
		ChannelID: parseID(i.ChannelID),
		Member:    toMember(i.GuildID, i.Member),
	}
}

// fromInteraction rebuilds what discordgo needs to answer an interaction.
func fromInteraction(i platform.Interaction) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        idString(i.ID),
		AppID:     idString(i.AppID),
		Token:     i.Token,
		GuildID:   idString(i.GuildID),
		ChannelID: idString(i.ChannelID),
	}
}

func fromEmbeds(embeds []platform.Embed) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, 0, len(embeds))
	for _, e := range embeds {
		me := &discordgo.MessageEmbed{
			Title:       e.Title,
			Description: e.Description,
			Color:       e.Color,
		}
		if e.Thumbnail != "" {
			me.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail}
		}
		if e.Footer != "" {
			me.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
		}
		for _, f := range e.Fields {
			me.Fields = append(me.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		out = append(out, me)
	}
	return out
}

func fromSelect(s *platform.Select) []discordgo.MessageComponent {
	if s == nil {
		return []discordgo.MessageComponent{}
	}
	options := make([]discordgo.SelectMenuOption, 0, len(s.Options))
	for _, o := range s.Options {
		options = append(options, discordgo.SelectMenuOption{Label: o.Label, Value: o.Value, Description: o.Description})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    s.CustomID,
				Placeholder: s.Placeholder,
				Options:     options,
			},
		}},
	}
}

func fromContent(c platform.MessageContent) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:    c.Content,
		Embeds:     fromEmbeds(c.Embeds),
		Components: fromSelect(c.Select),
	}
}

func fromModal(m platform.Modal) *discordgo.InteractionResponseData {
	rows := make([]discordgo.MessageComponent, 0, len(m.Inputs))
	for _, in := range m.Inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    in.CustomID,
				Label:       in.Label,
				Style:       discordgo.TextInputShort,
				Placeholder: in.Placeholder,
				Required:    true,
				MinLength:   in.MinLength,
				MaxLength:   in.MaxLength,
			},
		}})
	}
	return &discordgo.InteractionResponseData{
		CustomID:   m.CustomID,
		Title:      m.Title,
		Components: rows,
	}
}

// modalFields collects the submitted text inputs by custom id.
func modalFields(components []discordgo.MessageComponent) map[string]string {
	fields := make(map[string]string)
	var walk func([]discordgo.MessageComponent)
	walk = func(cs []discordgo.MessageComponent) {
		for _, c := range cs {
			switch v := c.(type) {
			case *discordgo.ActionsRow:
				walk(v.Components)
			case discordgo.ActionsRow:
				walk(v.Components)
			case *discordgo.TextInput:
				fields[v.CustomID] = v.Value
			case discordgo.TextInput:
				fields[v.CustomID] = v.Value
			}
		}
	}
	walk(components)
	return fields
}

// commandPath splits slash command data into subcommand, options and the
// focused option, if any.
func commandPath(data discordgo.ApplicationCommandInteractionData) (sub string, options map[string]string, focused *discordgo.ApplicationCommandInteractionDataOption) {
	options = make(map[string]string)
	opts := data.Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		sub = opts[0].Name
		opts = opts[0].Options
	}
	for _, o := range opts {
		if o.Focused {
			focused = o
		}
		if o.Value != nil {
			options[o.Name] = fmt.Sprint(o.Value)
		}
	}
	return sub, options, focused
}

func fromCommands(defs []platform.Command) []*discordgo.ApplicationCommand {
	staffOnly := int64(staffPermissions)
	dm := false
	out := make([]*discordgo.ApplicationCommand, 0, len(defs))
	for _, d := range defs {
		cmd := &discordgo.ApplicationCommand{
			Name:         d.Name,
			Description:  d.Description,
			DMPermission: &dm,
			Options:      fromOptions(d.Options),
		}
		if d.StaffOnly {
			cmd.DefaultMemberPermissions = &staffOnly
		}
		for _, s := range d.Subcommands {
			cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        s.Name,
				Description: s.Description,
				Options:     fromOptions(s.Options),
			})
		}
		out = append(out, cmd)
	}
	return out
}

func fromOptions(opts []platform.CommandOption) []*discordgo.ApplicationCommandOption {
	out := make([]*discordgo.ApplicationCommandOption, 0, len(opts))
	for _, o := range opts {
		opt := &discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         o.Name,
			Description:  o.Description,
			Required:     o.Required,
			Autocomplete: o.Autocomplete,
		}
		for _, c := range o.Choices {
			opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value})
		}
		out = append(out, opt)
	}
	return out
}

func fromChoices(choices []platform.OptionChoice) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(choices))
	for _, c := range choices {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value})
	}
	return out
}
