package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/homeradar/internal/logger"
)

func postLines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `{"content":"דירה %d","url":"https://example.com/p/%d","groupName":"דירות","scannedAt":"2024-05-01T10:00:00Z"}`+"\n", i, i)
	}
	return b.String()
}

func quietLogger(t *testing.T) {
	t.Helper()
	logger.SetOutput(io.Discard)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
}

func TestReadPosts(t *testing.T) {
	quietLogger(t)
	input := `{"content":"דירה","author":"Dana","images":["https://img/1.jpg"],"url":"u1","groupName":"g","scannedAt":"2024-05-01T10:00:00Z"}

not json
{"content":"second","url":"u2"}
`
	posts, skipped, err := readPosts(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, posts, 2)
	assert.Equal(t, "Dana", posts[0].Author)
	assert.Equal(t, []string{"https://img/1.jpg"}, posts[0].Images)
	assert.Equal(t, "g", posts[0].GroupName)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), posts[0].ScannedAt)
	assert.Equal(t, "u2", posts[1].URL)
	assert.True(t, posts[1].ScannedAt.IsZero())
}

func TestIngestCmd_NotConfigured(t *testing.T) {
	withServices(t, Services{})

	_, err := runCLI(t, "", "ingest")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest service not configured")
}

func TestIngestCmd_Stdin(t *testing.T) {
	quietLogger(t)
	mock := &mockIngestor{}
	withServices(t, Services{Ingestor: mock})

	out, err := runCLI(t, postLines(45)+"{broken\n", "ingest")

	require.NoError(t, err)
	require.Len(t, mock.batches, 3)
	assert.Len(t, mock.batches[0], ingestBatch)
	assert.Len(t, mock.batches[2], 5)
	assert.Equal(t, "https://example.com/p/44", mock.posts()[44].URL)
	assert.Contains(t, out, "Processed 46 posts")
	assert.Contains(t, out, "New listings:   45")
	assert.Contains(t, out, "Errors:         1")
}

func TestIngestCmd_FileAndJSON(t *testing.T) {
	mock := &mockIngestor{}
	withServices(t, Services{Ingestor: mock})
	path := filepath.Join(t.TempDir(), "posts.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(postLines(2)+`{"content":"spam","url":"s"}`+"\n"), 0o600))

	out, err := runCLI(t, "", "ingest", "--file", path, "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"RunID": "run-1"`)
	assert.Contains(t, out, `"Total": 3`)
	assert.Contains(t, out, `"Persisted": 2`)
	assert.Contains(t, out, `"Filtered": 1`)
}

func TestIngestCmd_MissingFile(t *testing.T) {
	withServices(t, Services{Ingestor: &mockIngestor{}})

	_, err := runCLI(t, "", "ingest", "-f", filepath.Join(t.TempDir(), "nope.jsonl"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open posts")
}

func TestIngestCmd_Empty(t *testing.T) {
	mock := &mockIngestor{}
	withServices(t, Services{Ingestor: mock})

	out, err := runCLI(t, "\n\n", "ingest")

	require.NoError(t, err)
	assert.Contains(t, out, "No posts to ingest.")
	assert.Empty(t, mock.batches)
}

func TestIngestCmd_PassError(t *testing.T) {
	mock := &mockIngestor{err: context.Canceled}
	withServices(t, Services{Ingestor: mock})

	_, err := runCLI(t, postLines(30), "ingest")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, mock.batches, 1)
}

func TestIngestCmd_StartsConfigWatch(t *testing.T) {
	quietLogger(t)
	started := make(chan struct{}, 1)
	watch := func(ctx context.Context) error {
		started <- struct{}{}
		<-ctx.Done()
		return errors.New("watch stopped")
	}
	withServices(t, Services{Ingestor: &mockIngestor{}, WatchConfig: watch})

	_, err := runCLI(t, postLines(1), "ingest")

	require.NoError(t, err)
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("config watch was not started")
	}
}
