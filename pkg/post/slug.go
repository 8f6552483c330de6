package post

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
)

var (
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	nonSlugRe   = regexp.MustCompile(`[^\w\s-]`)
	separatorRe = regexp.MustCompile(`[-\s_]+`)
)

// Slugify derives a lowercase, hyphen-separated, URL-safe slug from a title.
// HTML tags are removed first so titles copied out of markup still produce
// clean slugs.
func Slugify(title string) string {
	s := tagRe.ReplaceAllString(title, "")
	s = nonSlugRe.ReplaceAllString(s, "")
	s = separatorRe.ReplaceAllString(s, "-")
	return strings.ToLower(strings.Trim(s, "-"))
}

// StableID maps a slug to a stable post ID in [1, 100000). The same slug
// always yields the same ID, so re-running a conversion produces an
// identical document.
func StableID(slug string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(slug))
	return int(h.Sum32()%99999) + 1
}

// SlugRegistry guarantees slug uniqueness within a single run. Collisions
// are resolved by appending a numeric suffix: slug, slug-2, slug-3, ...
// It is safe for concurrent use.
type SlugRegistry struct {
	mu   sync.Mutex
	used map[string]bool
}

// NewSlugRegistry returns an empty registry.
func NewSlugRegistry() *SlugRegistry {
	return &SlugRegistry{used: make(map[string]bool)}
}

// Claim reserves a unique variant of slug and returns it. An empty slug
// claims the "untitled" bucket so the invariant of a non-empty slug holds
// even for degenerate titles.
func (r *SlugRegistry) Claim(slug string) string {
	if slug == "" {
		slug = "untitled"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	candidate := slug
	for i := 2; r.used[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
	r.used[candidate] = true
	return candidate
}
