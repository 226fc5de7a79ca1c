package seeder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/altura-labs/recommendation/internal/opensearch"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upsertCall struct {
	index string
	id    string
	doc   opensearch.Document
}

type recordingUpserter struct {
	calls  []upsertCall
	failID string
}

func (r *recordingUpserter) UpsertDocument(ctx context.Context, index, id string, doc opensearch.Document) (*opensearch.IndexResult, error) {
	r.calls = append(r.calls, upsertCall{index: index, id: id, doc: doc})
	if id == r.failID {
		return nil, errors.New("version conflict")
	}
	return &opensearch.IndexResult{ID: id, Result: "created", Version: 1}, nil
}

func TestCleanContent(t *testing.T) {
	cp := NewContentProcessor()

	input := "<p>Hello   <b>world</b></p>\r\n\r\n\r\n\tSecond\t paragraph  \n"
	assert.Equal(t, "Hello world\n\nSecond paragraph", cp.CleanContent(input))
	assert.Equal(t, "", cp.CleanContent("  <br/>  \n\n"))
}

func TestSplitIntoChunks(t *testing.T) {
	cp := NewContentProcessor()

	t.Run("short content is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"short"}, cp.SplitIntoChunks("short", 100))
	})

	t.Run("disabled", func(t *testing.T) {
		long := strings.Repeat("a", 500)
		assert.Equal(t, []string{long}, cp.SplitIntoChunks(long, 0))
	})

	t.Run("packs paragraphs", func(t *testing.T) {
		content := "first paragraph\n\nsecond paragraph\n\nthird paragraph"
		chunks := cp.SplitIntoChunks(content, 35)
		assert.Equal(t, []string{"first paragraph\n\nsecond paragraph", "third paragraph"}, chunks)
	})

	t.Run("splits long paragraph by sentence", func(t *testing.T) {
		content := "One sentence here. Another sentence here. Final words"
		chunks := cp.SplitIntoChunks(content, 25)
		assert.Equal(t, []string{"One sentence here.", "Another sentence here.", "Final words"}, chunks)
	})

	t.Run("keeps sentence punctuation", func(t *testing.T) {
		content := "Is it ready? Yes! It ships today. Really."
		chunks := cp.SplitIntoChunks(content, 20)
		assert.Equal(t, []string{"Is it ready? Yes!", "It ships today.", "Really."}, chunks)
		assert.Equal(t, content, strings.Join(chunks, " "))
	})
}

func TestReadRecords(t *testing.T) {
	input := `{"id":"a","text":"alpha","metadata":{"stage":"seed"}}

{"id":"b","text":"beta"}
{"id":"c","text":"gamma"}
`
	records, err := ReadRecords(strings.NewReader(input), 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Record{ID: "a", Text: "alpha", Metadata: map[string]interface{}{"stage": "seed"}}, records[0])

	limited, err := ReadRecords(strings.NewReader(input), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = ReadRecords(strings.NewReader("{\"id\":\"a\"}\nnot json\n"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestSeed_IndexesRecords(t *testing.T) {
	upserter := &recordingUpserter{failID: "bad"}
	seeder := NewSeeder(upserter, Options{Index: "startups", RunID: "run-1"}, logrus.New())

	report, err := seeder.Seed(context.Background(), []Record{
		{ID: "a", Text: "  AI <i>tooling</i> ", Metadata: map[string]interface{}{"stage": "seed"}},
		{ID: "empty", Text: "   "},
		{ID: "bad", Text: "fails"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error(), "version conflict")

	require.Len(t, upserter.calls, 2)
	first := upserter.calls[0]
	assert.Equal(t, "startups", first.index)
	assert.Equal(t, "a", first.id)
	assert.Equal(t, "AI tooling", first.doc.Text)
	assert.Equal(t, map[string]interface{}{"stage": "seed"}, first.doc.Metadata)
	require.NotNil(t, first.doc.Timestamp)
	assert.Equal(t, "run-1", *first.doc.Timestamp)
}

func TestSeed_ChunkedRecordsGetDerivedIDs(t *testing.T) {
	upserter := &recordingUpserter{}
	seeder := NewSeeder(upserter, Options{Index: "idx", ChunkSize: 20}, logrus.New())

	_, err := seeder.Seed(context.Background(), []Record{
		{ID: "doc", Text: "first paragraph\n\nsecond paragraph"},
	})
	require.NoError(t, err)

	require.Len(t, upserter.calls, 2)
	assert.Equal(t, "doc-0", upserter.calls[0].id)
	assert.Equal(t, "doc-1", upserter.calls[1].id)
	assert.Equal(t, 1, upserter.calls[1].doc.Metadata["chunk"])
	assert.Equal(t, "doc", upserter.calls[1].doc.Metadata["source_id"])
	assert.Nil(t, upserter.calls[0].doc.Timestamp)
}

func TestSeed_DryRunSkipsUpserts(t *testing.T) {
	seeder := NewSeeder(nil, Options{Index: "idx", DryRun: true}, logrus.New())

	report, err := seeder.Seed(context.Background(), []Record{{ID: "a", Text: "alpha"}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
	assert.Empty(t, report.Errors)
}

func TestSeed_StopsOnCancelledContext(t *testing.T) {
	upserter := &recordingUpserter{}
	seeder := NewSeeder(upserter, Options{Index: "idx"}, logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seeder.Seed(ctx, []Record{{ID: "a", Text: "alpha"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, upserter.calls)
}
