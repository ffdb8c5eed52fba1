package catalog

import "strings"

// DefaultBannedWords is the denylist applied to product names and descriptions.
var DefaultBannedWords = []string{
	"казино", "криптовалюта", "крипта", "биржа", "дешево", "бесплатно", "обман", "полиция", "радар",
}

// EnglishBannedWords are not applied unless configured. As substrings they
// also hit ordinary listings ("hands-free", "exchangeable").
var EnglishBannedWords = []string{
	"casino", "cryptocurrency", "crypto", "exchange", "cheap", "free", "scam", "police", "radar",
}

// ContentFilter rejects text containing banned vocabulary.
type ContentFilter struct {
	words []string
}

// NewContentFilter builds a filter over words; with no words it uses DefaultBannedWords.
func NewContentFilter(words ...string) *ContentFilter {
	if len(words) == 0 {
		words = DefaultBannedWords
	}
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			lowered = append(lowered, w)
		}
	}
	return &ContentFilter{words: lowered}
}

// Validate returns text unchanged, or a *ValidationError naming the first
// banned word found as a case-insensitive substring.
func (f *ContentFilter) Validate(field, text string) (string, error) {
	lower := strings.ToLower(text)
	for _, w := range f.words {
		if strings.Contains(lower, w) {
			return "", &ValidationError{
				Field:  field,
				Reason: "must not contain the word \"" + w + "\"",
				Word:   w,
			}
		}
	}
	return text, nil
}
