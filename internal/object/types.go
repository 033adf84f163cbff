package object

import (
	"time"

	"delta/internal/hashing"
)

// Commit is the immutable record the Object Store persists. Files maps each
// repository-relative path to the fingerprint of that file's content at the
// time it was staged. Parent is empty for the root commit.
type Commit struct {
	Fingerprint string            `json:"fingerprint"`
	Message     string            `json:"message"`
	Parent      string            `json:"parent,omitempty"`
	CreatedAt   int64             `json:"created_at"`
	Files       map[string]string `json:"files"`
}

// NewCommit freezes a copy of files and computes the content fingerprint
// over message, parent, creation time and the sorted file entries.
func NewCommit(message, parent string, createdAt int64, files map[string]string) *Commit {
	frozen := make(map[string]string, len(files))
	for p, fp := range files {
		frozen[p] = fp
	}
	return &Commit{
		Fingerprint: hashing.HashCommit(message, parent, createdAt, frozen),
		Message:     message,
		Parent:      parent,
		CreatedAt:   createdAt,
		Files:       frozen,
	}
}

// IsRoot reports whether the commit has no parent.
func (c *Commit) IsRoot() bool {
	return c.Parent == ""
}

// Time returns the creation time as wall-clock time.
func (c *Commit) Time() time.Time {
	return time.Unix(0, c.CreatedAt)
}
