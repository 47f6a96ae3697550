package docindex

import (
	"crypto/md5"
	"encoding/hex"
)

// Fingerprint returns the index record ID for a section: the hex MD5 digest
// of URL, Title and Content concatenated in that order. Equal fingerprints
// are the only criterion for a section being unchanged.
//
// The fields are concatenated without delimiters, so sections whose fields
// split the same bytes differently (URL "ab" + Title "c" vs URL "a" + Title
// "bc") share a fingerprint. MD5 keeps IDs compatible with records already
// written by earlier versions of the indexer.
func Fingerprint(s *Section) string {
	h := md5.New()
	h.Write([]byte(s.URL))
	h.Write([]byte(s.Title))
	h.Write([]byte(s.Content))
	return hex.EncodeToString(h.Sum(nil))
}
