package ingest

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/words"
)

// functionWords is the set spec.md §4.6 calls the "function-word set", used
// both here (to decide which tokens seed a walk) and by internal/walk (to
// mark candidates is_stop_word). Kept small and closed deliberately — this
// is not meant to be a linguistically complete stop-word list, just the
// high-frequency function words spec.md's scoring formula needs to
// distinguish from content words.
var functionWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"of": true, "to": true, "in": true, "on": true, "at": true, "for": true,
	"is": true, "was": true, "are": true, "were": true, "be": true, "been": true,
	"it": true, "its": true, "this": true, "that": true, "these": true, "those": true,
	"as": true, "by": true, "with": true, "from": true, "he": true, "she": true,
	"they": true, "we": true, "you": true, "i": true, "his": true, "her": true,
}

// IsFunctionWord reports whether word, lower-cased, is in the
// function-word set.
func IsFunctionWord(word string) bool {
	return functionWords[strings.ToLower(word)]
}

// artifactTokens is the set of non-content tokenizer artifacts spec.md
// §4.6's candidate filter drops outright (distinct from function words,
// which still score — just lower).
var artifactTokens = map[string]bool{
	"[PAD]": true, "[CLS]": true, "[SEP]": true, "[MASK]": true, "[UNK]": true,
}

// IsArtifactToken reports whether tok is a tokenizer artifact spec.md §4.6
// names explicitly: the bracketed specials, "[unused*]", "##"-prefixed
// subwords, or a lone "#" followed by a non-letter.
func IsArtifactToken(tok string) bool {
	if artifactTokens[tok] {
		return true
	}
	if strings.HasPrefix(tok, "[unused") && strings.HasSuffix(tok, "]") {
		return true
	}
	if strings.HasPrefix(tok, "##") {
		return true
	}
	if strings.HasPrefix(tok, "#") && len(tok) > 1 && !isLetter(rune(tok[1])) {
		return true
	}
	return false
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Sentences splits text on a terminal '.', '!', or '?' so Ingest can keep
// bigram bridging inside one sentence at a time: it must not link the last
// content word of one sentence to the first word of the next. Quotes and
// closing brackets immediately following the terminator stay attached to
// the sentence that ends there.
func Sentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		switch r {
		case '.', '!', '?':
			end := i + 1
			for end < len(text) && (text[end] == '"' || text[end] == '\'' || text[end] == ')' || text[end] == ']') {
				end++
			}
			out = append(out, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// Words segments text into word-like tokens using uax29's Unicode word
// boundary algorithm (grounded on
// _examples/haricheung-agentic-shell's use of clipperhouse/uax29/v2 for
// tokenization), then drops pure-whitespace/punctuation segments.
func Words(text string) []string {
	var out []string
	seg := words.FromString(text)
	for seg.Next() {
		tok := seg.Value()
		if !hasLetterOrDigit(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return true
		}
		if r > 127 {
			return true // permissive for non-ASCII letters; uax29 already split on boundaries
		}
	}
	return false
}
