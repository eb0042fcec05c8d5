// Package fileid names the result files written for watched documents.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// Suffix is appended to every result file name.
const Suffix = ".json"

// Hash returns a short hex digest of the cleaned path. Equivalent spellings of
// the same path share a hash.
func Hash(path string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	return hex.EncodeToString(sum[:6])
}

// OutputName returns the result file name for a source document: its base
// name, a path hash so equal names in different directories do not collide,
// and Suffix.
func OutputName(path string) string {
	return filepath.Base(filepath.Clean(path)) + "." + Hash(path) + Suffix
}

// IsOutput reports whether name looks like a file produced by OutputName.
func IsOutput(name string) bool {
	base := strings.TrimSuffix(filepath.Base(name), Suffix)
	if base == filepath.Base(name) {
		return false
	}
	i := strings.LastIndex(base, ".")
	if i < 0 || len(base)-i-1 != 12 {
		return false
	}
	_, err := hex.DecodeString(base[i+1:])
	return err == nil
}
