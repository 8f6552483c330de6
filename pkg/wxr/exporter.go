// Package wxr serializes posts into a WordPress eXtended RSS (WXR 1.2)
// import document. One bad post never aborts the document: items that
// fail serialization are skipped and reported, the rest are exported.
package wxr

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mschroeder/mediumpress/internal/logger"
	"github.com/mschroeder/mediumpress/pkg/post"
)

// SerializationError reports a post whose content could not be made safe
// for the container format. The post's item is omitted from the document.
type SerializationError struct {
	Slug   string
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize post %q: %s", e.Slug, e.Reason)
}

// wpDateFormat is WordPress's post date layout.
const wpDateFormat = "2006-01-02 15:04:05"

// pubDateFormat is the RFC-822-style layout RSS requires.
const pubDateFormat = "Mon, 02 Jan 2006 15:04:05 +0000"

// Exporter writes WXR documents for one target site.
type Exporter struct {
	// BaseURL is the target site host, e.g. "example.com".
	BaseURL string

	// Author and Language fill the channel metadata.
	Author   string
	Language string

	// Now supplies the channel timestamp and the date for undated posts.
	// Overridable for deterministic tests.
	Now func() time.Time
}

// New creates an Exporter with the conventional defaults.
func New(baseURL string) *Exporter {
	return &Exporter{
		BaseURL:  baseURL,
		Author:   "Admin",
		Language: "en-US",
		Now:      time.Now,
	}
}

// Result summarizes one export.
type Result struct {
	Exported int
	Skipped  []*SerializationError
}

// Export writes a complete WXR document containing every exportable post.
func (e *Exporter) Export(w io.Writer, posts []*post.Post) (*Result, error) {
	res := &Result{}

	var items strings.Builder
	for _, p := range posts {
		item, err := e.buildItem(p)
		if err != nil {
			serr, ok := err.(*SerializationError)
			if !ok {
				serr = &SerializationError{Slug: p.Slug, Reason: err.Error()}
			}
			logger.Warn("skipping post item",
				"file", p.SourceFile,
				"slug", p.Slug,
				"stage", "export",
				"reason", serr.Reason)
			res.Skipped = append(res.Skipped, serr)
			continue
		}
		items.WriteString(item)
		res.Exported++
	}

	if _, err := io.WriteString(w, e.buildDocument(posts, items.String())); err != nil {
		return res, fmt.Errorf("failed to write export document: %w", err)
	}
	return res, nil
}

// buildDocument assembles the rss envelope, channel preamble, category
// definitions and the serialized items.
func (e *Exporter) buildDocument(posts []*post.Post, items string) string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" ?>` + "\n")
	sb.WriteString("<!-- This is a WordPress eXtended RSS file generated by mediumpress -->\n")
	sb.WriteString("<!-- To import it, use Tools -> Import -> WordPress in the admin panel -->\n\n")
	sb.WriteString("<rss version=\"2.0\"\n")
	sb.WriteString("\txmlns:excerpt=\"http://wordpress.org/export/1.2/excerpt/\"\n")
	sb.WriteString("\txmlns:content=\"http://purl.org/rss/1.0/modules/content/\"\n")
	sb.WriteString("\txmlns:wfw=\"http://wellformedweb.org/CommentAPI/\"\n")
	sb.WriteString("\txmlns:dc=\"http://purl.org/dc/elements/1.1/\"\n")
	sb.WriteString("\txmlns:wp=\"http://wordpress.org/export/1.2/\"\n")
	sb.WriteString(">\n\n<channel>\n")

	site := "https://" + e.BaseURL
	fmt.Fprintf(&sb, "\t<title>Medium Import</title>\n")
	fmt.Fprintf(&sb, "\t<link>%s</link>\n", escapeXML(site))
	fmt.Fprintf(&sb, "\t<description>Imported from Medium</description>\n")
	fmt.Fprintf(&sb, "\t<pubDate>%s</pubDate>\n", e.Now().UTC().Format(pubDateFormat))
	fmt.Fprintf(&sb, "\t<language>%s</language>\n", escapeXML(e.Language))
	sb.WriteString("\t<wp:wxr_version>1.2</wp:wxr_version>\n")
	fmt.Fprintf(&sb, "\t<wp:base_site_url>%s</wp:base_site_url>\n", escapeXML(site))
	fmt.Fprintf(&sb, "\t<wp:base_blog_url>%s</wp:base_blog_url>\n\n", escapeXML(site))

	sb.WriteString("\t<wp:author>\n")
	sb.WriteString("\t\t<wp:author_id>1</wp:author_id>\n")
	fmt.Fprintf(&sb, "\t\t<wp:author_login>%s</wp:author_login>\n", cdata(strings.ToLower(e.Author)))
	fmt.Fprintf(&sb, "\t\t<wp:author_email>%s</wp:author_email>\n", cdata("admin@"+e.BaseURL))
	fmt.Fprintf(&sb, "\t\t<wp:author_display_name>%s</wp:author_display_name>\n", cdata(e.Author))
	sb.WriteString("\t</wp:author>\n\n")

	for i, name := range usedCategories(posts) {
		sb.WriteString("\t<wp:category>\n")
		fmt.Fprintf(&sb, "\t\t<wp:term_id>%d</wp:term_id>\n", i+1)
		fmt.Fprintf(&sb, "\t\t<wp:category_nicename>%s</wp:category_nicename>\n", cdata(post.Slugify(name)))
		sb.WriteString("\t\t<wp:category_parent><![CDATA[]]></wp:category_parent>\n")
		fmt.Fprintf(&sb, "\t\t<wp:cat_name>%s</wp:cat_name>\n", cdata(name))
		sb.WriteString("\t</wp:category>\n\n")
	}

	sb.WriteString("\t<generator>mediumpress</generator>\n")
	sb.WriteString(items)
	sb.WriteString("\n</channel>\n</rss>\n")
	return sb.String()
}

// usedCategories collects the distinct categories across all posts in
// first-seen order, so term IDs are deterministic.
func usedCategories(posts []*post.Post) []string {
	var names []string
	seen := make(map[string]bool)
	for _, p := range posts {
		for _, c := range p.Categories {
			if !seen[c] {
				seen[c] = true
				names = append(names, c)
			}
		}
	}
	return names
}

// buildItem serializes one post as a WXR <item>.
func (e *Exporter) buildItem(p *post.Post) (string, error) {
	content, err := renderContent(p)
	if err != nil {
		return "", err
	}
	if err := checkText(p.Slug, p.Title); err != nil {
		return "", err
	}

	date := p.PublishedAt
	if p.Undated() {
		date = e.Now().UTC()
	}
	wpDate := date.Format(wpDateFormat)

	var sb strings.Builder
	sb.WriteString("\n\t<item>\n")
	fmt.Fprintf(&sb, "\t\t<title>%s</title>\n", cdata(p.Title))
	fmt.Fprintf(&sb, "\t\t<link>https://%s/%s/</link>\n", escapeXML(e.BaseURL), escapeXML(p.Slug))
	fmt.Fprintf(&sb, "\t\t<pubDate>%s</pubDate>\n", date.Format(pubDateFormat))
	fmt.Fprintf(&sb, "\t\t<dc:creator>%s</dc:creator>\n", cdata(e.Author))
	fmt.Fprintf(&sb, "\t\t<guid isPermaLink=\"false\">https://%s/?p=%d</guid>\n", escapeXML(e.BaseURL), p.ID)
	sb.WriteString("\t\t<description></description>\n")
	fmt.Fprintf(&sb, "\t\t<content:encoded>%s</content:encoded>\n", cdata(content))
	sb.WriteString("\t\t<excerpt:encoded><![CDATA[]]></excerpt:encoded>\n")
	fmt.Fprintf(&sb, "\t\t<wp:post_id>%d</wp:post_id>\n", p.ID)
	fmt.Fprintf(&sb, "\t\t<wp:post_date>%s</wp:post_date>\n", cdata(wpDate))
	fmt.Fprintf(&sb, "\t\t<wp:post_date_gmt>%s</wp:post_date_gmt>\n", cdata(wpDate))
	sb.WriteString("\t\t<wp:comment_status><![CDATA[open]]></wp:comment_status>\n")
	sb.WriteString("\t\t<wp:ping_status><![CDATA[open]]></wp:ping_status>\n")
	fmt.Fprintf(&sb, "\t\t<wp:post_name>%s</wp:post_name>\n", cdata(p.Slug))
	sb.WriteString("\t\t<wp:status><![CDATA[publish]]></wp:status>\n")
	sb.WriteString("\t\t<wp:post_parent>0</wp:post_parent>\n")
	sb.WriteString("\t\t<wp:menu_order>0</wp:menu_order>\n")
	sb.WriteString("\t\t<wp:post_type><![CDATA[post]]></wp:post_type>\n")
	sb.WriteString("\t\t<wp:post_password><![CDATA[]]></wp:post_password>\n")
	sb.WriteString("\t\t<wp:is_sticky>0</wp:is_sticky>\n")

	for _, c := range p.Categories {
		fmt.Fprintf(&sb, "\t\t<category domain=\"category\" nicename=\"%s\">%s</category>\n",
			escapeXML(post.Slugify(c)), cdata(c))
	}
	for _, tag := range p.Tags {
		fmt.Fprintf(&sb, "\t\t<category domain=\"post_tag\" nicename=\"%s\">%s</category>\n",
			escapeXML(tagNicename(tag)), cdata(tag))
	}

	sb.WriteString("\t</item>\n")
	return sb.String(), nil
}

// tagNicename turns a tag like "asp.net" or "c#" into a WordPress term
// nicename.
func tagNicename(tag string) string {
	r := strings.NewReplacer(" ", "-", ".", "", "#", "", "/", "-")
	return strings.ToLower(r.Replace(tag))
}

// renderContent flattens the block tree back into the embedded HTML
// WordPress expects, with blank lines between blocks.
func renderContent(p *post.Post) (string, error) {
	parts := make([]string, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		rendered, err := renderBlock(p.Slug, b)
		if err != nil {
			return "", err
		}
		if rendered != "" {
			parts = append(parts, rendered)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func renderBlock(slug string, b post.Block) (string, error) {
	switch b.Kind {
	case post.KindHeading:
		if err := checkText(slug, b.Text); err != nil {
			return "", err
		}
		return fmt.Sprintf("<h%d>%s</h%d>", b.Level, escapeXML(b.Text), b.Level), nil

	case post.KindParagraph:
		inner, err := renderRuns(slug, b.Runs)
		if err != nil || inner == "" {
			return "", err
		}
		return "<p>" + inner + "</p>", nil

	case post.KindQuote:
		inner, err := renderRuns(slug, b.Runs)
		if err != nil || inner == "" {
			return "", err
		}
		return "<blockquote>" + inner + "</blockquote>", nil

	case post.KindList:
		tag := "ul"
		if b.Ordered {
			tag = "ol"
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "<%s>", tag)
		for _, item := range b.Items {
			if err := checkText(slug, item); err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "<li>%s</li>", escapeXML(item))
		}
		fmt.Fprintf(&sb, "</%s>", tag)
		return sb.String(), nil

	case post.KindCode:
		if err := checkText(slug, b.Text); err != nil {
			return "", err
		}
		open := "<code>"
		if b.Lang != "" {
			open = fmt.Sprintf("<code class=\"language-%s\">", escapeXML(b.Lang))
		}
		return "<pre>" + open + escapeXML(b.Text) + "</code></pre>", nil

	case post.KindImage:
		if b.Image == nil {
			return "", nil
		}
		return renderImage(b.Image), nil

	case post.KindRawHTML:
		if err := checkText(slug, b.HTML); err != nil {
			return "", err
		}
		return b.HTML, nil
	}
	return "", nil
}

func renderRuns(slug string, runs []post.InlineRun) (string, error) {
	var sb strings.Builder
	for _, r := range runs {
		if err := checkText(slug, r.Text); err != nil {
			return "", err
		}
		text := strings.ReplaceAll(escapeXML(r.Text), "\n", "<br>")
		if r.Code {
			text = "<code>" + text + "</code>"
		}
		if r.Bold {
			text = "<strong>" + text + "</strong>"
		}
		if r.Italic {
			text = "<em>" + text + "</em>"
		}
		if r.Href != "" {
			text = fmt.Sprintf("<a href=\"%s\">%s</a>", escapeXML(r.Href), text)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// renderImage emits the figure markup referencing the resolved upload
// path. If the resolver has not run (or was skipped), the original URL
// keeps the content valid.
func renderImage(img *post.ImageRef) string {
	src := img.TargetPath
	if src == "" {
		src = img.OriginalURL
	}
	var sb strings.Builder
	sb.WriteString("<figure><img")
	if img.Width > 0 {
		fmt.Fprintf(&sb, " data-width=\"%d\"", img.Width)
	}
	if img.Height > 0 {
		fmt.Fprintf(&sb, " data-height=\"%d\"", img.Height)
	}
	if img.AltText != "" {
		fmt.Fprintf(&sb, " alt=\"%s\"", escapeXML(img.AltText))
	}
	fmt.Fprintf(&sb, " src=\"%s\"></figure>", escapeXML(src))
	return sb.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// escapeXML escapes the container format's reserved characters.
func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// cdata wraps text in a CDATA section, splitting any embedded terminator.
func cdata(s string) string {
	return "<![CDATA[" + strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>") + "]]>"
}

// checkText rejects control characters that are illegal in XML 1.0 and
// cannot be escaped inside CDATA. Tab, LF and CR are allowed.
func checkText(slug, s string) error {
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return &SerializationError{
				Slug:   slug,
				Reason: fmt.Sprintf("content contains control character U+%04X", r),
			}
		}
		if r == 0xFFFE || r == 0xFFFF {
			return &SerializationError{
				Slug:   slug,
				Reason: fmt.Sprintf("content contains non-character U+%04X", r),
			}
		}
	}
	return nil
}
