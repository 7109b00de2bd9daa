// Package sanitizer cleans Reddit comment text before it is stored.
package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	urlExpr = regexp.MustCompile(`(?:https?://)?[a-zA-Z0-9./?:@\-_=#]+\.[a-zA-Z]{2,6}[a-zA-Z0-9.&/?:@\-_=#]*`)

	specialExpr = regexp.MustCompile(`[\^_~@!&;#:\-%—“”‘"*/{}\[\]()\\|<>=+]`)

	strayQuoteExpr = regexp.MustCompile(`[\s\v\p{Z}\x{85}]['’]|['’][\s\v\p{Z}\x{85}]`)

	symbolWords = strings.NewReplacer("+", " plus ", "&", " and ")
)

// SpecialChars lists every character removed when RemoveSpecialChars is set.
const SpecialChars = `^_~@!&;#:-%—“”‘"*/{}[]()\|<>=+`

// emojiTable enumerates pictograph blocks. It stays explicit so CJK and other letters survive.
var emojiTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200d, Hi: 0x200d, Stride: 1},
		{Lo: 0x2300, Hi: 0x23ff, Stride: 1},
		{Lo: 0x2600, Hi: 0x27bf, Stride: 1},
		{Lo: 0x2b00, Hi: 0x2bff, Stride: 1},
		{Lo: 0x3030, Hi: 0x3030, Stride: 1},
		{Lo: 0x303d, Hi: 0x303d, Stride: 1},
		{Lo: 0x3297, Hi: 0x3299, Stride: 2},
		{Lo: 0xfe0f, Hi: 0xfe0f, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1f000, Hi: 0x1f1ff, Stride: 1},
		{Lo: 0x1f300, Hi: 0x1f5ff, Stride: 1},
		{Lo: 0x1f600, Hi: 0x1f64f, Stride: 1},
		{Lo: 0x1f680, Hi: 0x1f6ff, Stride: 1},
		{Lo: 0x1f700, Hi: 0x1f8ff, Stride: 1},
		{Lo: 0x1f900, Hi: 0x1faff, Stride: 1},
	},
}

// Options toggles individual cleaning steps.
type Options struct {
	RemoveURLs         bool
	RemoveSpecialChars bool
	RemoveEmojis       bool
}

// DefaultOptions enables every step.
func DefaultOptions() Options {
	return Options{RemoveURLs: true, RemoveSpecialChars: true, RemoveEmojis: true}
}

// Sanitizer applies the configured steps in a fixed order.
type Sanitizer struct {
	opts Options
}

// New builds a Sanitizer.
func New(opts Options) *Sanitizer {
	return &Sanitizer{opts: opts}
}

// Sanitize returns text without URLs, special characters and emoji,
// with whitespace collapsed to single spaces. The result may be empty.
func (s *Sanitizer) Sanitize(text string) string {
	if s.opts.RemoveURLs {
		text = urlExpr.ReplaceAllString(text, " ")
	}
	if s.opts.RemoveSpecialChars {
		text = symbolWords.Replace(text)
		text = specialExpr.ReplaceAllString(text, " ")
	}
	if s.opts.RemoveEmojis {
		text = strings.Map(func(r rune) rune {
			if unicode.Is(emojiTable, r) {
				return ' '
			}
			return r
		}, text)
	}
	if s.opts.RemoveSpecialChars {
		// quotes touching whitespace or either end are stray; in-word apostrophes stay
		text = " " + text + " "
		for strayQuoteExpr.MatchString(text) {
			text = strayQuoteExpr.ReplaceAllString(text, " ")
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

// Sanitize cleans text with every step enabled.
func Sanitize(text string) string {
	return New(DefaultOptions()).Sanitize(text)
}
