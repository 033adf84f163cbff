// Package ignore loads .deltaignore patterns and answers the single
// question the core needs: should this path be skipped.
package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"

	"delta/internal/config"
)

// Matcher is the predicate injected into repository operations.
type Matcher interface {
	Match(path string) bool
}

// Rules holds the glob patterns of one ignore file.
type Rules struct {
	patterns []string
}

// Load reads the ignore file at the working-tree root. A missing file
// yields empty rules.
func Load(root string) *Rules {
	r := &Rules{}

	f, err := os.Open(filepath.Join(root, config.IgnoreFile))
	if err != nil {
		return r
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r.patterns = append(r.patterns, line)
	}
	return r
}

// FromPatterns builds rules directly, mainly for tests and callers that
// assemble patterns elsewhere.
func FromPatterns(patterns ...string) *Rules {
	return &Rules{patterns: patterns}
}

// Match reports whether the (repository-relative) path hits any pattern.
// Patterns without a slash match any single path segment; patterns with
// slashes anchor at the root, support ** and match everything beneath a
// named directory.
func (r *Rules) Match(p string) bool {
	clean := filepath.ToSlash(filepath.Clean(p))
	if clean == "." || clean == "" {
		return false
	}
	parts := strings.Split(clean, "/")
	for _, pat := range r.patterns {
		if matchPattern(pat, parts) {
			return true
		}
	}
	return false
}

func matchPattern(pattern string, parts []string) bool {
	pattern = strings.TrimSuffix(filepath.ToSlash(filepath.Clean(pattern)), "/")
	pats := strings.Split(pattern, "/")

	if len(pats) == 1 {
		for _, part := range parts {
			if ok, _ := path.Match(pats[0], part); ok {
				return true
			}
		}
		return false
	}
	return matchSegments(pats, parts)
}

// matchSegments walks pattern and path segments together. A consumed
// pattern with path left over is a hit: the pattern named a directory the
// path lives under.
func matchSegments(pats, parts []string) bool {
	for len(pats) > 0 {
		p := pats[0]
		pats = pats[1:]

		if p == "**" {
			if len(pats) == 0 {
				return true
			}
			for i := 0; i <= len(parts); i++ {
				if matchSegments(pats, parts[i:]) {
					return true
				}
			}
			return false
		}

		if len(parts) == 0 {
			return false
		}
		ok, _ := path.Match(p, parts[0])
		if !ok {
			return false
		}
		parts = parts[1:]
	}
	return true
}
