package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/homeradar/internal/core/domain"
)

// snippetLength is the number of runes of content shown per post.
const snippetLength = 60

var (
	postsAll   bool
	postsLimit int
	postsJSON  bool
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List stored posts",
	Long: `Lists stored posts, newest first.

Only relevant listings are shown unless --all is given.`,
	Args: cobra.NoArgs,
	RunE: runPosts,
}

func init() {
	postsCmd.Flags().BoolVarP(&postsAll, "all", "a", false, "include filtered and broker posts")
	postsCmd.Flags().IntVarP(&postsLimit, "limit", "n", 20, "maximum number of posts")
	postsCmd.Flags().BoolVar(&postsJSON, "json", false, "output posts as JSON")
	rootCmd.AddCommand(postsCmd)
}

func runPosts(cmd *cobra.Command, _ []string) error {
	if postService == nil {
		return errors.New("post service not configured")
	}

	records, err := postService.List(cmd.Context(), !postsAll, postsLimit)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	if postsJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal posts: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		cmd.Println("No posts found.")
		return nil
	}

	for i := range records {
		printRecord(cmd, &records[i])
	}
	return nil
}

func printRecord(cmd *cobra.Command, r *domain.PostRecord) {
	label := string(r.Category)
	if r.FilterMatch != "" {
		label += " (" + r.FilterMatch + ")"
	}
	cmd.Printf("[%s] %s\n", label, r.URL)

	var fields []string
	if p := r.Details.PriceString(); p != "" {
		fields = append(fields, p+" ₪")
	}
	for _, f := range []string{r.Details.City, r.Details.Location} {
		if f != "" {
			fields = append(fields, f)
		}
	}
	if r.Details.Rooms != "" {
		fields = append(fields, r.Details.Rooms+" rooms")
	}
	if r.Details.Phone != "" {
		fields = append(fields, r.Details.Phone)
	}
	if len(fields) > 0 {
		cmd.Printf("    %s\n", strings.Join(fields, " | "))
	}
	cmd.Printf("    %s\n", snippet(r.Content, snippetLength))
}

func snippet(content string, limit int) string {
	flat := strings.Join(strings.Fields(content), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + "..."
}
