package types

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is a staff-defined classification for questions within a guild.
// Names are unique per guild, compared case-insensitively.
type Category struct {
	ID          uuid.UUID    `json:"id"`          // UUID v7, generated on creation.
	GuildID     snowflake.ID `json:"guild_id"`    // Owning guild.
	Name        string       `json:"name"`        // Title-cased display name.
	Description string       `json:"description"` // Optional; empty means none.
	CreatedAt   time.Time    `json:"created_at"`  // Orders categories by insertion.
}

// titleCaser upper-cases the first letter of each word and leaves the rest
// alone, so acronyms such as "HTML" survive normalization.
var titleCaser = cases.Title(language.English, cases.NoLower)

// NormalizeCategoryName trims and collapses whitespace in name and converts
// it to title case. Underscores and hyphens separate words.
func NormalizeCategoryName(name string) string {
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	return titleCaser.String(name)
}

// NormalizeDescription trims description and returns "" when it is blank.
func NormalizeDescription(description string) string {
	return strings.TrimSpace(description)
}

// Normalize applies NormalizeCategoryName and NormalizeDescription in place.
// Returns ErrInvalidName if the normalized name is empty.
func (c *Category) Normalize() error {
	c.Name = NormalizeCategoryName(c.Name)
	c.Description = NormalizeDescription(c.Description)
	if c.Name == "" {
		return ErrInvalidName
	}
	return nil
}

// HasName reports whether the category's name matches name after
// normalization, ignoring case.
func (c *Category) HasName(name string) bool {
	return strings.EqualFold(c.Name, NormalizeCategoryName(name))
}

// String returns the category name.
func (c *Category) String() string {
	return c.Name
}
