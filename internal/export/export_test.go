package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"RedditScanner/internal/domain"
)

func sampleDocument() *domain.Document {
	doc := domain.NewDocument()
	doc.Put(domain.NewSubreddit(domain.SubredditHandle{Name: "zeta", Title: "Zeta & co", URL: "/r/zeta/"}))
	doc.Put(domain.NewSubreddit(domain.SubredditHandle{Name: "alpha", Title: "Alpha", URL: "/r/alpha/"}))
	doc.AppendThread("zeta", domain.Thread{
		ID:       "t1",
		Title:    "Hi",
		SelfText: "World",
		Comments: []domain.Comment{{ID: "c1", Text: "Nice", Author: "bob", URL: "/r/zeta/comments/t1/x/c1/", Upvotes: 11}},
	})
	return doc
}

func TestEncodeJSONIndentAndOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleDocument(), "json"))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "{\n    \"zeta\": {\n        \"title\": \"Zeta & co\""), out)
	require.Less(t, strings.Index(out, `"zeta"`), strings.Index(out, `"alpha"`))
	require.Contains(t, out, `"contents": []`)
}

func TestEncodeYAMLKeepsOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleDocument(), "yml"))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "zeta:\n"), out)
	require.Less(t, strings.Index(out, "zeta:"), strings.Index(out, "alpha:"))

	var decoded map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "Zeta & co", decoded["zeta"]["title"])
	contents := decoded["zeta"]["contents"].([]any)
	require.Len(t, contents, 1)
	require.Equal(t, "t1", contents[0].(map[string]any)["thread_id"])
}

func TestEncodeRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	err := Encode(&bytes.Buffer{}, sampleDocument(), "xml")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestFileWriterAndFileToText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "reddit_contents.json")
	w := NewFileWriter(path, "")
	require.NoError(t, w.WriteDocument(sampleDocument()))
	require.Equal(t, path, w.Path())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"display_name": "zeta"`)

	text, err := FileToText(path)
	require.NoError(t, err)
	require.Equal(t, "Hi World Nice ", text)
}

func TestFileToTextMissingFile(t *testing.T) {
	t.Parallel()

	_, err := FileToText(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDataToTextOrder(t *testing.T) {
	t.Parallel()

	doc := sampleDocument()
	doc.AppendThread("alpha", domain.Thread{
		ID:       "t2",
		Title:    "Second",
		Comments: []domain.Comment{{Text: "a"}, {Text: "b"}},
	})
	require.Equal(t, "Hi World Nice Second  a b ", DataToText(doc))
}
