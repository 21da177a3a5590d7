package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/heapoverflow/pkg/store"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// withStore loads the configuration, opens the store, runs fn and closes
// the store again.
func withStore(cmd *cobra.Command, flags *rootFlags, fn func(types.Store) error) error {
	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}
	s, err := store.Open(cmd.Context(), cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()
	return fn(s)
}

func guildFilter(guild string) (types.Filter, error) {
	id, err := snowflake.ParseString(guild)
	if err != nil || id == 0 {
		return nil, userError{fmt.Errorf("invalid --guild %q: expected a numeric guild id", guild)}
	}
	return types.Filter{types.FilterGuildID: id}, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newCategoriesCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect help categories",
	}

	var guild string
	list := &cobra.Command{
		Use:   "list",
		Short: "List a guild's categories in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := guildFilter(guild)
			if err != nil {
				return err
			}
			return withStore(cmd, flags, func(s types.Store) error {
				categories, err := s.Categories().Fetch(cmd.Context(), filter)
				if err != nil {
					return fmt.Errorf("fetch categories: %w", err)
				}
				if flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), categories)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION\tCREATED")
				for _, c := range categories {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Description, c.CreatedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().StringVar(&guild, "guild", "", "guild id (required)")
	_ = list.MarkFlagRequired("guild")

	cmd.AddCommand(list)
	return cmd
}

func newQuestionsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Inspect questions",
	}

	var (
		guild    string
		openOnly bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List a guild's questions in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := guildFilter(guild)
			if err != nil {
				return err
			}
			if openOnly {
				filter[types.FilterIsClosed] = false
			}
			return withStore(cmd, flags, func(s types.Store) error {
				questions, err := s.Questions().Fetch(cmd.Context(), filter)
				if err != nil {
					return fmt.Errorf("fetch questions: %w", err)
				}
				if flags.jsonMode {
					return writeJSON(cmd.OutOrStdout(), questions)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTHREAD\tAUTHOR\tSTATE\tTITLE")
				for _, q := range questions {
					state := "open"
					if q.IsClosed {
						state = "closed (" + string(q.CloseReason) + ")"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", q.ID, q.ThreadID, q.AuthorID, state, q.Title)
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().StringVar(&guild, "guild", "", "guild id (required)")
	list.Flags().BoolVar(&openOnly, "open", false, "only list open questions")
	_ = list.MarkFlagRequired("guild")

	cmd.AddCommand(list)
	return cmd
}
