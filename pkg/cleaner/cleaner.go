// Package cleaner normalizes a parsed post's block tree. It strips the
// source platform's presentation attributes (style classes, tracking
// attributes, element names) and collapses whitespace without altering
// visible text content or block structure. No block is ever dropped.
package cleaner

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mschroeder/mediumpress/internal/logger"
	"github.com/mschroeder/mediumpress/pkg/post"
)

// Config controls which normalizations run.
type Config struct {
	// StripClasses removes class attributes.
	StripClasses bool

	// StripIDs removes id attributes.
	StripIDs bool

	// StripNames removes name attributes (Medium uses them as anchors).
	StripNames bool

	// StripDataAttributes removes data-* attributes except the data-width
	// and data-height dimensions the exporter keeps on images.
	StripDataAttributes bool

	// StripStyles removes inline style attributes.
	StripStyles bool

	// CollapseWhitespace normalizes runs of whitespace to single spaces.
	CollapseWhitespace bool

	// TrimBlocks trims leading/trailing whitespace at block boundaries.
	TrimBlocks bool
}

// DefaultConfig enables every normalization. Medium exports carry no
// presentation attribute worth keeping.
func DefaultConfig() *Config {
	return &Config{
		StripClasses:        true,
		StripIDs:            true,
		StripNames:          true,
		StripDataAttributes: true,
		StripStyles:         true,
		CollapseWhitespace:  true,
		TrimBlocks:          true,
	}
}

// Cleaner applies the configured normalizations to posts in place.
type Cleaner struct {
	config *Config
}

// New creates a Cleaner. If config is nil, DefaultConfig() is used.
func New(config *Config) *Cleaner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Cleaner{config: config}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// keptDataAttrs are data-* attributes that carry content, not tracking.
var keptDataAttrs = map[string]bool{
	"data-width":  true,
	"data-height": true,
}

// Clean normalizes the post's block tree in place.
func (c *Cleaner) Clean(p *post.Post) {
	for i := range p.Blocks {
		b := &p.Blocks[i]
		c.cleanAttrs(b)

		switch b.Kind {
		case post.KindHeading:
			b.Text = c.normalizeText(b.Text, true)
		case post.KindParagraph, post.KindQuote:
			c.cleanRuns(b)
		case post.KindList:
			for j, item := range b.Items {
				b.Items[j] = c.normalizeText(item, true)
			}
		case post.KindCode:
			// Code is whitespace-sensitive; only trim the block boundary.
			if c.config.TrimBlocks {
				b.Text = strings.Trim(b.Text, "\n")
			}
		case post.KindImage:
			if b.Image != nil {
				b.Image.AltText = c.normalizeText(b.Image.AltText, true)
			}
		case post.KindRawHTML:
			b.HTML = c.cleanRawHTML(b.HTML)
		}
	}

	for _, img := range p.Images {
		img.AltText = c.normalizeText(img.AltText, true)
	}
}

func (c *Cleaner) cleanAttrs(b *post.Block) {
	for key := range b.Attrs {
		if c.stripAttr(key) {
			delete(b.Attrs, key)
		}
	}
	if len(b.Attrs) == 0 {
		b.Attrs = nil
	}
}

func (c *Cleaner) stripAttr(key string) bool {
	switch {
	case key == "class":
		return c.config.StripClasses
	case key == "id":
		return c.config.StripIDs
	case key == "name":
		return c.config.StripNames
	case key == "style":
		return c.config.StripStyles
	case strings.HasPrefix(key, "data-"):
		return c.config.StripDataAttributes && !keptDataAttrs[key]
	}
	return false
}

func (c *Cleaner) cleanRuns(b *post.Block) {
	for i := range b.Runs {
		trimLead := c.config.TrimBlocks && i == 0
		trimTail := c.config.TrimBlocks && i == len(b.Runs)-1
		r := &b.Runs[i]
		if c.config.CollapseWhitespace {
			r.Text = collapseInline(r.Text)
		}
		if trimLead {
			r.Text = strings.TrimLeft(r.Text, " ")
		}
		if trimTail {
			r.Text = strings.TrimRight(r.Text, " ")
		}
	}

	// Collapsing can leave empty runs at the boundaries; remove them but
	// never the whole block's content.
	kept := b.Runs[:0]
	for _, r := range b.Runs {
		if r.Text == "" && r.Href == "" {
			continue
		}
		kept = append(kept, r)
	}
	b.Runs = kept
}

// collapseInline collapses whitespace runs to single spaces while keeping
// explicit line breaks produced from <br> elements.
func collapseInline(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = whitespaceRe.ReplaceAllString(strings.ReplaceAll(line, " ", " "), " ")
	}
	return strings.Join(lines, "\n")
}

func (c *Cleaner) normalizeText(s string, trim bool) string {
	if c.config.CollapseWhitespace {
		s = whitespaceRe.ReplaceAllString(strings.ReplaceAll(s, " ", " "), " ")
	}
	if trim && c.config.TrimBlocks {
		s = strings.TrimSpace(s)
	}
	return s
}

// cleanRawHTML strips presentation attributes inside raw fallback markup.
// On parse failure the original markup is returned untouched.
func (c *Cleaner) cleanRawHTML(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		logger.Debug("raw block parse failed, keeping original", "error", err)
		return raw
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		for _, a := range s.Nodes[0].Attr {
			if c.stripAttr(a.Key) {
				s.RemoveAttr(a.Key)
			}
		}
	})

	cleaned, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(cleaned) == "" {
		return raw
	}
	if c.config.CollapseWhitespace {
		cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	}
	if c.config.TrimBlocks {
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}
