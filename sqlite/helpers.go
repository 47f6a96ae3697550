package sqlite

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// hashContent computes the xxHash of content as a 16-digit hex string.
func hashContent(content string) string {
	h := xxhash.Sum64String(content)
	s := strconv.FormatUint(h, 16)
	return strings.Repeat("0", 16-len(s)) + s
}

// placeholders returns "?, ?, ..." with n markers for an IN clause.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// likePrefix escapes prefix for use in a LIKE pattern with ESCAPE '\'.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
