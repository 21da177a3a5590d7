package question

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// ThreadNameLimit is the longest thread name the platform accepts.
const ThreadNameLimit = 100

const ellipsis = "..."

// ThreadName builds "[Category] title", shortening the title with a
// trailing ellipsis so the result fits ThreadNameLimit characters. An empty
// category name omits the prefix.
func ThreadName(categoryName, title string) string {
	prefix := ""
	if categoryName != "" {
		prefix = "[" + categoryName + "] "
	}
	budget := ThreadNameLimit - utf8.RuneCountInString(prefix)
	if utf8.RuneCountInString(title) > budget {
		keep := budget - len(ellipsis)
		if keep < 0 {
			keep = 0
		}
		title = truncateRunes(title, keep) + ellipsis
	}
	return truncateRunes(prefix+title, ThreadNameLimit)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// introEmbed opens a question thread.
func introEmbed(member platform.Member, category *types.Category, title string, color int) platform.Embed {
	return platform.Embed{
		Title:       "Question from " + member.Username,
		Description: title,
		Color:       color,
		Thumbnail:   member.AvatarURL,
		Footer:      category.Name,
	}
}

const codeSample = "```go\nfmt.Println(\"Hello World\")\n```"

// guidance is the "how to ask well" message posted after the intro.
func guidance(member platform.Member, color int) platform.MessageContent {
	escaped := strings.ReplaceAll(codeSample, "`", "\\`")
	return platform.MessageContent{
		Content: member.Mention() + ", to improve your chances of getting help, please keep these tips in mind.",
		Embeds: []platform.Embed{
			{
				Title: "Format code!",
				Description: "Send short snippets of code in codeblocks, and use syntax highlighting to make it easier to read.\n\n" +
					"For example:\n" + escaped + "\nwill produce:\n" + codeSample,
				Color: color,
			},
			{
				Title: "Use a paste service!",
				Description: "To send lengthy code, consider uploading it to [PasteMyst](https://paste.myst.rs/) " +
					"and then sending the link to this thread.",
				Color: color,
			},
			{
				Title: "Be patient!",
				Description: "If you don't receive immediate help, it may mean that your question is poorly written, and so " +
					"answerers may not feel confident in being able to help you. Use this time to provide as much " +
					"detail as possible, so that you have the best chances of solving the problem.\n\n" +
					"Keep in mind that the ratio of those that need help, to those that do help, is very small - " +
					"and those that do help are volunteers, so please be respectful!",
				Color: color,
			},
		},
	}
}

// closedEmbed announces a closure inside the thread.
func closedEmbed(q *types.Question, closer platform.Member) platform.Embed {
	description := fmt.Sprintf("This question was closed by %s.", closer.Mention())
	if closer.UserID == q.AuthorID {
		description = "This question was closed by the asker."
	}
	color := platform.ColorRed
	if q.CloseReason == types.CloseReasonResolved {
		color = platform.ColorGreen
	}
	return platform.Embed{
		Title:       "Question closed",
		Description: description,
		Color:       color,
		Fields: []platform.EmbedField{
			{Name: "Reason", Value: q.CloseReason.Description()},
		},
	}
}
