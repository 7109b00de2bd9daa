package export

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"RedditScanner/internal/domain"
)

// DataToText flattens doc into one string: every thread contributes its
// title and self text, then each comment body, all space separated.
func DataToText(doc *domain.Document) string {
	var b strings.Builder
	for _, sub := range doc.Subreddits() {
		for _, th := range sub.Threads {
			b.WriteString(th.Title)
			b.WriteByte(' ')
			b.WriteString(th.SelfText)
			b.WriteByte(' ')
			for _, c := range th.Comments {
				b.WriteString(c.Text)
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}

// FileToText reads a JSON document written by FileWriter and flattens it.
func FileToText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	doc := domain.NewDocument()
	if err := json.Unmarshal(raw, doc); err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return DataToText(doc), nil
}
