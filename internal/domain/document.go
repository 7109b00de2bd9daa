package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document maps url keys to subreddit records and keeps discovery order.
type Document struct {
	keys    []string
	records map[string]*Subreddit
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{records: map[string]*Subreddit{}}
}

// Put inserts a record or replaces the one already stored under the same key.
// A replaced record keeps its original position.
func (d *Document) Put(sub Subreddit) {
	if d.records == nil {
		d.records = map[string]*Subreddit{}
	}
	if sub.Threads == nil {
		sub.Threads = []Thread{}
	}
	if _, ok := d.records[sub.Key]; !ok {
		d.keys = append(d.keys, sub.Key)
	}
	d.records[sub.Key] = &sub
}

// Get returns a copy of the record stored under key.
func (d *Document) Get(key string) (Subreddit, bool) {
	rec, ok := d.records[key]
	if !ok {
		return Subreddit{}, false
	}
	return *rec, true
}

// Has reports whether key is registered.
func (d *Document) Has(key string) bool {
	_, ok := d.records[key]
	return ok
}

// AppendThread adds a thread to the record under key. It returns false when the key is unknown.
func (d *Document) AppendThread(key string, thread Thread) bool {
	rec, ok := d.records[key]
	if !ok {
		return false
	}
	rec.Threads = append(rec.Threads, thread)
	return true
}

// Keys returns registered keys in insertion order.
func (d *Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// EmptyKeys returns the keys whose records hold no threads yet.
func (d *Document) EmptyKeys() []string {
	var out []string
	for _, key := range d.keys {
		if len(d.records[key].Threads) == 0 {
			out = append(out, key)
		}
	}
	return out
}

// Subreddits returns all records in insertion order.
func (d *Document) Subreddits() []Subreddit {
	out := make([]Subreddit, 0, len(d.keys))
	for _, key := range d.keys {
		out = append(out, *d.records[key])
	}
	return out
}

// Len is the number of registered subreddits.
func (d *Document) Len() int {
	return len(d.keys)
}

// ThreadCount is the number of threads across all records.
func (d *Document) ThreadCount() int {
	total := 0
	for _, rec := range d.records {
		total += len(rec.Threads)
	}
	return total
}

// CommentCount is the number of comments across all threads.
func (d *Document) CommentCount() int {
	total := 0
	for _, rec := range d.records {
		for _, th := range rec.Threads {
			total += len(th.Comments)
		}
	}
	return total
}

// MarshalJSON writes records as a JSON object in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(&buf, key); err != nil {
			return nil, fmt.Errorf("encode key %s: %w", key, err)
		}
		buf.WriteByte(':')
		if err := encodeValue(&buf, d.records[key]); err != nil {
			return nil, fmt.Errorf("encode subreddit %s: %w", key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of records and keeps the order of its keys.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("read document: expected object, got %v", tok)
	}

	fresh := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("read key: unexpected token %v", tok)
		}

		var sub Subreddit
		if err := dec.Decode(&sub); err != nil {
			return fmt.Errorf("decode subreddit %s: %w", key, err)
		}
		sub.Key = key
		fresh.Put(sub)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read document end: %w", err)
	}

	*d = *fresh
	return nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
