package docindex

import (
	"regexp"
	"strings"
)

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlockRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe  = regexp.MustCompile(`[\s\p{Zs}\x{FEFF}]+`)
	styleSyntaxRe = regexp.MustCompile(`[{}:;]`)
	keywordRe     = regexp.MustCompile(`\b(?:var|function|const|let|return|if|else|for|while)\b`)
	classNameRe   = regexp.MustCompile(`[a-zA-Z-]+-[a-zA-Z0-9-]*`)
)

// CleanText strips markup remnants and code noise from extracted page text
// and normalizes whitespace. It removes script and style blocks, remaining
// tags, CSS punctuation, a fixed set of programming keywords and
// hyphenated class-name-like tokens.
//
// CleanText is idempotent: the rules are reapplied until the text stops
// changing, so CleanText(CleanText(s)) == CleanText(s).
func CleanText(raw string) string {
	s := cleanPass(raw)
	for {
		next := cleanPass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func cleanPass(s string) string {
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = styleBlockRe.ReplaceAllString(s, "")
	s = tagRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = styleSyntaxRe.ReplaceAllString(s, " ")
	s = keywordRe.ReplaceAllString(s, "")
	s = classNameRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
