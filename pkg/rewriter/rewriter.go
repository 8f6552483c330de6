// Package rewriter rewrites hyperlink targets inside a post's block tree.
// Links to posts on the source platform (profile, publication, or bare
// style) become canonical target-domain URLs; other references to the
// source domain keep their path and query but move to the target domain;
// everything else passes through untouched.
package rewriter

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mschroeder/mediumpress/internal/logger"
	"github.com/mschroeder/mediumpress/pkg/post"
)

// hashSuffixRe matches the tracking hash Medium appends to post slugs:
// a hyphen followed by 6-12 lowercase hex characters at the end of the
// slug. The hex-only alphabet and the minimum length keep legitimately
// hyphenated words (e.g. "-guide", "-abc") attached. The pattern consumes
// a whole run of such tokens so that stripping is idempotent even when
// the word before the hash is itself hex-looking ("decade", "facade").
var hashSuffixRe = regexp.MustCompile(`(-[0-9a-f]{6,12})+$`)

// nonSlugCharRe matches characters that never appear in a clean slug.
var nonSlugCharRe = regexp.MustCompile(`[^a-zA-Z0-9-]`)

var dashRunRe = regexp.MustCompile(`-+`)

// systemPaths are first path segments on the source platform that are
// platform pages, not posts.
var systemPaths = map[string]bool{
	"about": true, "help": true, "settings": true, "membership": true,
	"partner": true, "creators": true, "tag": true, "search": true,
	"topics": true, "m": true, "me": true, "plans": true,
}

// Config controls rewriting.
type Config struct {
	// SourceName is the source platform's domain name without TLD.
	// Hosts of the form {SourceName}.{any TLD}, with or without a www
	// prefix, are recognized as the old domain. Default "medium".
	SourceName string

	// SuffixPattern strips the platform's tracking suffix from a slug.
	// Must be anchored at the end. Defaults to hashSuffixRe; the exact
	// length bounds are a heuristic, so callers may override it.
	SuffixPattern *regexp.Regexp
}

// DefaultConfig returns the Medium defaults.
func DefaultConfig() *Config {
	return &Config{
		SourceName:    "medium",
		SuffixPattern: hashSuffixRe,
	}
}

// Rewriter rewrites link targets toward one target domain.
type Rewriter struct {
	target string
	config *Config
}

// New creates a Rewriter for the given target domain (bare host, e.g.
// "example.com"). If config is nil, DefaultConfig() is used.
func New(targetDomain string, config *Config) *Rewriter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.SourceName == "" {
		config.SourceName = "medium"
	}
	if config.SuffixPattern == nil {
		config.SuffixPattern = hashSuffixRe
	}
	return &Rewriter{
		target: strings.ToLower(strings.TrimSuffix(targetDomain, "/")),
		config: config,
	}
}

// Rewrite updates every hyperlink target in the post's block tree.
func (rw *Rewriter) Rewrite(p *post.Post) {
	for i := range p.Blocks {
		b := &p.Blocks[i]
		switch b.Kind {
		case post.KindParagraph, post.KindQuote:
			for j := range b.Runs {
				if b.Runs[j].Href == "" {
					continue
				}
				if rewritten, changed := rw.RewriteURL(b.Runs[j].Href); changed {
					logger.Debug("rewrote link", "from", b.Runs[j].Href, "to", rewritten)
					b.Runs[j].Href = rewritten
				}
			}
		case post.KindRawHTML:
			b.HTML = rw.rewriteRawHTML(b.HTML)
		}
	}
}

// RewriteURL classifies one URL and returns its rewritten form plus
// whether it changed. Unrecognized URLs are returned unchanged.
func (rw *Rewriter) RewriteURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// Relative or unparseable links stay as they are.
		return raw, false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	switch {
	case rw.isSourceHost(host):
		if slug, ok := rw.postSlug(u.Path); ok {
			return "https://" + rw.target + "/" + slug + "/", true
		}
		// Tag pages, search URLs and other non-post references move to
		// the target domain with path and query intact.
		return rw.domainRewrite(u), true

	case host == rw.target:
		// Normalize scheme and www on references that already point at
		// the target domain.
		rewritten := rw.domainRewrite(u)
		return rewritten, rewritten != raw
	}

	return raw, false
}

// isSourceHost reports whether host (lowercase, www-stripped) is the
// source platform under any TLD. Matching is on the host boundary:
// "notmedium.com" and "medium.example.com" do not match.
func (rw *Rewriter) isSourceHost(host string) bool {
	name, rest, ok := strings.Cut(host, ".")
	if !ok || name != rw.config.SourceName {
		return false
	}
	// rest must look like a TLD (com, de, io, info) or a two-label ccTLD
	// (co.uk, com.au), not a domain the source name happens to be a
	// subdomain of.
	labels := strings.Split(rest, ".")
	for _, label := range labels {
		if label == "" {
			return false
		}
	}
	switch len(labels) {
	case 1:
		return true
	case 2:
		return len(labels[0]) <= 3
	default:
		return false
	}
}

// postSlug extracts and cleans the slug from a source-platform post path.
// It recognizes profile (/@user/slug), publication (/pub/slug) and bare
// (/slug) layouts and rejects platform system pages.
func (rw *Rewriter) postSlug(path string) (string, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", false
	}

	var raw string
	switch {
	case strings.HasPrefix(segments[0], "@"):
		// Profile post: /@user/slug-hash
		if len(segments) < 2 {
			return "", false
		}
		raw = segments[1]
	case len(segments) >= 2:
		// Publication post: /publication/slug-hash
		if systemPaths[strings.ToLower(segments[0])] {
			return "", false
		}
		raw = segments[1]
	default:
		// Bare post: /slug-hash
		if systemPaths[strings.ToLower(segments[0])] {
			return "", false
		}
		raw = segments[0]
	}

	slug := rw.cleanSlug(raw)
	if slug == "" {
		return "", false
	}
	return slug, true
}

// cleanSlug strips the tracking suffix and normalizes the remainder to a
// lowercase hyphenated slug. Applying it twice yields the same result.
func (rw *Rewriter) cleanSlug(raw string) string {
	s := rw.config.SuffixPattern.ReplaceAllString(raw, "")
	s = nonSlugCharRe.ReplaceAllString(s, "")
	s = dashRunRe.ReplaceAllString(s, "-")
	return strings.ToLower(strings.Trim(s, "-"))
}

// domainRewrite repoints a URL at the target domain, preserving path,
// query and fragment. The path loses only a trailing slash.
func (rw *Rewriter) domainRewrite(u *url.URL) string {
	rewritten := *u
	rewritten.Scheme = "https"
	rewritten.Host = rw.target
	rewritten.Path = strings.TrimSuffix(rewritten.Path, "/")
	if rewritten.RawPath != "" {
		rewritten.RawPath = strings.TrimSuffix(rewritten.RawPath, "/")
	}
	return rewritten.String()
}

// rewriteRawHTML rewrites href attributes inside raw fallback markup.
// On parse failure the markup is left untouched.
func (rw *Rewriter) rewriteRawHTML(raw string) string {
	if !strings.Contains(raw, "href") {
		return raw
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	changed := false
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if rewritten, ok := rw.RewriteURL(href); ok {
			s.SetAttr("href", rewritten)
			changed = true
		}
	})
	if !changed {
		return raw
	}

	html, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(html) == "" {
		return raw
	}
	return html
}
