// Package post defines the structured representation of a converted blog
// post: the post itself, its typed content blocks, inline formatting runs,
// and image references. Every pipeline stage operates on these types.
package post

import (
	"time"
)

// BlockKind identifies the variant of a content block.
type BlockKind string

const (
	KindHeading   BlockKind = "heading"
	KindParagraph BlockKind = "paragraph"
	KindList      BlockKind = "list"
	KindCode      BlockKind = "code"
	KindQuote     BlockKind = "quote"
	KindImage     BlockKind = "image"
	KindRawHTML   BlockKind = "raw-html"
)

// Block is one semantic unit of post content. Kind selects the variant;
// the other fields are only meaningful for the kinds noted in their
// comments. Unrecognized source structure is preserved as KindRawHTML
// rather than dropped.
type Block struct {
	Kind BlockKind

	// Attrs holds the source element's attributes as parsed. The cleaner
	// strips platform-specific entries; the exporter ignores what remains.
	Attrs map[string]string

	Level   int         // heading: 1-6
	Text    string      // heading, code
	Lang    string      // code: language hint, may be empty
	Runs    []InlineRun // paragraph, quote
	Ordered bool        // list
	Items   []string    // list: plain-text items
	Image   *ImageRef   // image
	HTML    string      // raw-html
}

// InlineRun is a span of text with uniform formatting inside a paragraph
// or quote. Href is non-empty for link spans and holds the resolved target
// after link rewriting.
type InlineRun struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
	Href   string
}

// ImageRef describes one embedded image. OriginalURL is where the source
// platform hosts it; LocalFilename and TargetPath are filled in by the
// image resolver and consumed by the exporter and the external fetcher.
type ImageRef struct {
	OriginalURL   string
	LocalFilename string
	TargetPath    string
	AltText       string
	Width         int
	Height        int
}

// Post is one converted article.
type Post struct {
	// ID is a stable numeric identifier derived from the slug.
	ID int

	// SourceFile is the export filename the post was parsed from.
	SourceFile string

	Title string
	Slug  string

	// PublishedAt is the publication date extracted from the filename.
	// The zero value means the post is undated.
	PublishedAt time.Time

	Blocks     []Block
	Categories []string
	Tags       []string
	Images     []*ImageRef
}

// Undated reports whether the post has no extractable publication date.
func (p *Post) Undated() bool {
	return p.PublishedAt.IsZero()
}
