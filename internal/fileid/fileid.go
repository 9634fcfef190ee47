// Package fileid derives stable identifiers for corpus files and for the
// records read from them.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

const prefix = "file:"

// recordNamespace scopes record ids derived from file positions.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/hyperjump/kenpo/records"))

// SourceID returns a stable source tag for a corpus file. The path is
// cleaned first, so "/a/./b.jsonl" and "/a/b.jsonl" share an id.
func SourceID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}

// RecordID returns a UUIDv5 for the record on the given 1-based line of a
// source. Re-indexing an unchanged file yields the same ids.
func RecordID(source string, line int) string {
	return uuid.NewSHA1(recordNamespace, []byte(source+"#"+strconv.Itoa(line))).String()
}
