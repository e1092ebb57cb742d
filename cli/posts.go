package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rpupo63/collage-backend/config"
	"github.com/rpupo63/collage-backend/services"
	"github.com/rpupo63/collage-backend/storage"
)

var (
	listHidden bool
	listJSON   bool
	visibleSet bool
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Inspect and manage stored posts",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts as the API reconciles them",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openPostService(cmd)
		if err != nil {
			return err
		}

		posts, err := svc.List(cmd.Context(), listHidden)
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{"items": posts})
		}

		if len(posts) == 0 {
			fmt.Fprintln(out, "No posts.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SLUG\tDATE\tVISIBLE\tITEMS\tTITLE")
		for _, p := range posts {
			fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%s\n", p.Slug, p.Date, p.Visible, len(p.Items), p.Title)
		}
		return tw.Flush()
	},
}

var postsVisibleCmd = &cobra.Command{
	Use:   "set-visible <slug>",
	Short: "Show or hide a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openPostService(cmd)
		if err != nil {
			return err
		}

		slug := strings.TrimSpace(args[0])
		if err := svc.SetVisible(cmd.Context(), slug, visibleSet); err != nil {
			return fmt.Errorf("failed to update %s: %w", slug, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s visible=%t\n", slug, visibleSet)
		return nil
	},
}

func openPostService(cmd *cobra.Command) (*services.PostService, error) {
	store, err := storage.Open(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return services.NewPostService(
		store.PostRepo(),
		services.WithFetchConcurrency(config.GetInt(cfg, "LIST_FETCH_CONCURRENCY", 8)),
	), nil
}

func init() {
	postsListCmd.Flags().BoolVar(&listHidden, "hidden", false, "include hidden posts")
	postsListCmd.Flags().BoolVar(&listJSON, "json", false, "print the listing as JSON")
	postsVisibleCmd.Flags().BoolVar(&visibleSet, "visible", true, "new visibility")

	postsCmd.AddCommand(postsListCmd)
	postsCmd.AddCommand(postsVisibleCmd)
}
