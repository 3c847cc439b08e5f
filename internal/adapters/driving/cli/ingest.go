package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/logger"
)

// ingestBatch is how many posts are processed between progress updates.
const ingestBatch = 20

// maxPostLine bounds one JSON line; captured posts with replies can be long.
const maxPostLine = 4 << 20

var (
	ingestFile string
	ingestJSON bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Process captured posts",
	Long: `Reads posts as JSON lines and runs each one through the pipeline.

Each line is an object with content, author, images, url, groupName and
scannedAt. Posts already stored are skipped. Reads standard input unless
--file is given.

Edits to config.toml and the prompt templates take effect while a pass runs.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "JSON lines file to read (default stdin)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestor == nil {
		return errors.New("ingest service not configured")
	}

	in := cmd.InOrStdin()
	if ingestFile != "" && ingestFile != "-" {
		f, err := os.Open(ingestFile)
		if err != nil {
			return fmt.Errorf("open posts: %w", err)
		}
		defer f.Close()
		in = f
	}

	posts, skipped, err := readPosts(in)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		cmd.Println("No posts to ingest.")
		return nil
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if watchConfig != nil {
		go func() {
			if err := watchConfig(ctx); err != nil {
				logger.Warn("config watch stopped: %v", err)
			}
		}()
	}

	summary, err := ingestWithProgress(ctx, cmd, posts)
	summary.Errors += skipped
	summary.Total += skipped
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Processed %d posts\n", summary.Total)
	cmd.Printf("  New listings:   %d\n", summary.Persisted)
	cmd.Printf("  Filtered:       %d\n", summary.Filtered)
	cmd.Printf("  Broker:         %d\n", summary.Broker)
	cmd.Printf("  Already stored: %d\n", summary.Deduped)
	if summary.Errors > 0 {
		cmd.Printf("  Errors:         %d\n", summary.Errors)
	}
	return nil
}

// ingestWithProgress runs the posts in batches and prints a running count
// when standard output is a terminal.
func ingestWithProgress(ctx context.Context, cmd *cobra.Command, posts []domain.RawPost) (domain.PassSummary, error) {
	progress := isTerminal(cmd.OutOrStdout())

	var summary domain.PassSummary
	for start := 0; start < len(posts); start += ingestBatch {
		end := min(start+ingestBatch, len(posts))
		batch, err := ingestor.IngestAll(ctx, posts[start:end])
		if summary.RunID == "" {
			summary.RunID = batch.RunID
		}
		summary.Merge(batch)
		if err != nil {
			return summary, err
		}
		if progress {
			cmd.Printf("\rProcessing... %d/%d posts", summary.Total, len(posts))
		}
	}
	if progress {
		cmd.Println()
	}
	return summary, nil
}

// readPosts decodes one RawPost per line. Blank lines are ignored;
// undecodable lines are logged and counted in skipped.
func readPosts(r io.Reader) (posts []domain.RawPost, skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxPostLine)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var post domain.RawPost
		if err := json.Unmarshal([]byte(text), &post); err != nil {
			logger.Warn("line %d: %v", line, err)
			skipped++
			continue
		}
		posts = append(posts, post)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read posts: %w", err)
	}
	return posts, skipped, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
