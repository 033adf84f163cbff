// Package hashing computes the content fingerprints delta is addressed by:
// a 160-bit SHA-1 digest, lowercase hex encoded.
package hashing

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"delta/internal/errors"
)

// FingerprintLen is the length of a hex-encoded fingerprint.
const FingerprintLen = 40

// rootParent stands in for the absent parent of a root commit inside the
// fingerprint payload, so that "no parent" and "empty parent" cannot
// collide with a real fingerprint.
const rootParent = "-"

var sep = []byte{0}

// HashBytes fingerprints raw content.
func HashBytes(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}

// HashFile fingerprints the full content of the file at path. Identical
// bytes always yield the identical fingerprint.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NotFound(fmt.Sprintf("file not found: %s", path))
		}
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashCommit fingerprints the logical content of a commit. The payload
// layout is fixed: message, parent fingerprint (or a placeholder for a root
// commit), creation time in Unix nanoseconds, then every file entry in
// sorted path order, all NUL separated. Sorting makes the fingerprint
// independent of the insertion order of files.
func HashCommit(message, parent string, createdAt int64, files map[string]string) string {
	if parent == "" {
		parent = rootParent
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := sha1.New()
	io.WriteString(h, message)
	h.Write(sep)
	io.WriteString(h, parent)
	h.Write(sep)
	io.WriteString(h, strconv.FormatInt(createdAt, 10))
	for _, p := range paths {
		h.Write(sep)
		io.WriteString(h, p)
		io.WriteString(h, "=")
		io.WriteString(h, files[p])
	}
	return hex.EncodeToString(h.Sum(nil))
}
