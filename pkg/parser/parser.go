// Package parser turns one Medium HTML export file into a structured
// post.Post. It extracts the title from the document's heading, the
// publication date from the export filename, and maps the body markup
// onto typed content blocks. Unrecognized structure is preserved as
// raw-html blocks instead of failing the whole post.
package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/mschroeder/mediumpress/internal/logger"
	"github.com/mschroeder/mediumpress/pkg/post"
)

// ParseError reports a document that could not be parsed into a post.
// Callers skip the document and continue the run.
type ParseError struct {
	File   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.File, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.File, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// filenameDateRe matches the date prefix of Medium export filenames,
// e.g. 2019-07-04_My-Post-Title-5691beba463e.html.
var filenameDateRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_`)

// ParseFile reads and parses one export file.
func ParseFile(path string) (*post.Post, error) {
	f, err := os.Open(path) //#nosec G304 -- converter reads user-specified export files
	if err != nil {
		return nil, &ParseError{File: filepath.Base(path), Reason: "unreadable", Err: err}
	}
	defer func() { _ = f.Close() }()

	return Parse(filepath.Base(path), f)
}

// Parse parses one export document. name is the export filename; it
// supplies the publication date and the fallback title.
func Parse(name string, r io.Reader) (*post.Post, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{File: name, Reason: "malformed HTML", Err: err}
	}

	p := &post.Post{SourceFile: name}

	if date, ok := DateFromFilename(name); ok {
		p.PublishedAt = date
	} else {
		logger.Warn("no date in filename, post goes to undated bucket", "file", name)
	}

	p.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	if p.Title == "" {
		p.Title = titleFromFilename(name)
		logger.Debug("no h1 title, derived from filename", "file", name, "title", p.Title)
	}
	if p.Title == "" {
		return nil, &ParseError{File: name, Reason: "no extractable title"}
	}

	body := doc.Find("section[data-field='body']").First()
	if body.Length() == 0 {
		return nil, &ParseError{File: name, Reason: "no body section"}
	}

	// The title h1 usually sits in the header section, but some exports
	// repeat it as the first body heading. Walk the body children and map
	// what we recognize.
	body.Children().Each(func(_ int, s *goquery.Selection) {
		parseElement(s, p)
	})

	logger.Debug("parsed document",
		"file", name,
		"title", p.Title,
		"blocks", len(p.Blocks),
		"images", len(p.Images))

	return p, nil
}

// DateFromFilename extracts the YYYY-MM-DD prefix of an export filename.
func DateFromFilename(name string) (time.Time, bool) {
	m := filenameDateRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// titleFromFilename derives a human-readable title from the export
// filename, e.g. "2019-07-04_Angular-Tutorial-5691beba463e.html" becomes
// "Angular Tutorial 5691beba463e". Good enough as a last resort.
func titleFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = filenameDateRe.ReplaceAllString(base, "")
	base = strings.ReplaceAll(base, "-", " ")
	base = strings.ReplaceAll(base, "_", " ")
	return strings.TrimSpace(strings.Join(strings.Fields(base), " "))
}

// parseElement maps one element onto blocks, recursing through wrapper
// containers Medium nests around the actual content.
func parseElement(s *goquery.Selection, p *post.Post) {
	switch goquery.NodeName(s) {
	case "div", "section", "article", "main":
		// Medium wraps content in div.section-content > div.section-inner.
		s.Children().Each(func(_ int, child *goquery.Selection) {
			parseElement(child, p)
		})
	case "h1", "h2", "h3", "h4", "h5", "h6":
		parseHeading(s, p)
	case "p":
		if runs := inlineRuns(s); len(runs) > 0 {
			p.Blocks = append(p.Blocks, post.Block{
				Kind:  post.KindParagraph,
				Attrs: attrMap(s),
				Runs:  runs,
			})
		}
	case "figure":
		parseFigure(s, p)
	case "blockquote":
		if runs := inlineRuns(s); len(runs) > 0 {
			p.Blocks = append(p.Blocks, post.Block{
				Kind:  post.KindQuote,
				Attrs: attrMap(s),
				Runs:  runs,
			})
		}
	case "pre":
		parseCode(s, p)
	case "ul", "ol":
		parseList(s, p)
	case "hr":
		p.Blocks = append(p.Blocks, post.Block{Kind: post.KindRawHTML, HTML: "<hr>"})
	default:
		raw, err := goquery.OuterHtml(s)
		if err != nil || strings.TrimSpace(raw) == "" {
			return
		}
		p.Blocks = append(p.Blocks, post.Block{Kind: post.KindRawHTML, HTML: raw})
	}
}

func parseHeading(s *goquery.Selection, p *post.Post) {
	text := strings.TrimSpace(s.Text())
	if text == "" {
		return
	}
	// Skip a body heading that repeats the already-extracted title.
	if goquery.NodeName(s) == "h1" && text == p.Title && len(p.Blocks) == 0 {
		return
	}
	level := int(goquery.NodeName(s)[1] - '0')
	p.Blocks = append(p.Blocks, post.Block{
		Kind:  post.KindHeading,
		Attrs: attrMap(s),
		Level: level,
		Text:  text,
	})
}

func parseFigure(s *goquery.Selection, p *post.Post) {
	img := s.Find("img").First()
	if img.Length() == 0 {
		// Figures without images (embeds the export flattened) fall back
		// to raw HTML so nothing is lost.
		raw, err := goquery.OuterHtml(s)
		if err == nil && strings.TrimSpace(raw) != "" {
			p.Blocks = append(p.Blocks, post.Block{Kind: post.KindRawHTML, HTML: raw})
		}
		return
	}

	ref := &post.ImageRef{
		OriginalURL: img.AttrOr("src", ""),
		AltText:     img.AttrOr("alt", ""),
	}
	if ref.AltText == "" {
		ref.AltText = strings.TrimSpace(s.Find("figcaption").Text())
	}
	if w, err := strconv.Atoi(img.AttrOr("data-width", "")); err == nil {
		ref.Width = w
	}
	if h, err := strconv.Atoi(img.AttrOr("data-height", "")); err == nil {
		ref.Height = h
	}

	p.Images = append(p.Images, ref)
	p.Blocks = append(p.Blocks, post.Block{
		Kind:  post.KindImage,
		Attrs: attrMap(s),
		Image: ref,
	})
}

func parseCode(s *goquery.Selection, p *post.Post) {
	text := s.Text()
	if strings.TrimSpace(text) == "" {
		return
	}
	lang := ""
	for _, class := range strings.Fields(s.AttrOr("class", "") + " " + s.Find("code").AttrOr("class", "")) {
		if strings.HasPrefix(class, "language-") {
			lang = strings.TrimPrefix(class, "language-")
			break
		}
	}
	p.Blocks = append(p.Blocks, post.Block{
		Kind:  post.KindCode,
		Attrs: attrMap(s),
		Lang:  lang,
		Text:  text,
	})
}

func parseList(s *goquery.Selection, p *post.Post) {
	var items []string
	s.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		if text := strings.TrimSpace(li.Text()); text != "" {
			items = append(items, text)
		}
	})
	if len(items) == 0 {
		return
	}
	p.Blocks = append(p.Blocks, post.Block{
		Kind:    post.KindList,
		Attrs:   attrMap(s),
		Ordered: goquery.NodeName(s) == "ol",
		Items:   items,
	})
}

// attrMap copies an element's attributes. The cleaner decides later which
// of them are platform noise.
func attrMap(s *goquery.Selection) map[string]string {
	if len(s.Nodes) == 0 || len(s.Nodes[0].Attr) == 0 {
		return nil
	}
	m := make(map[string]string, len(s.Nodes[0].Attr))
	for _, a := range s.Nodes[0].Attr {
		m[a.Key] = a.Val
	}
	return m
}

// inlineRuns flattens an element's inline content into formatting runs.
// Unknown inline markup degrades to plain text so no visible content is
// dropped.
func inlineRuns(s *goquery.Selection) []post.InlineRun {
	var runs []post.InlineRun
	for _, node := range s.Nodes {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walkInline(c, post.InlineRun{}, &runs)
		}
	}
	return mergeRuns(runs)
}

func walkInline(n *html.Node, state post.InlineRun, runs *[]post.InlineRun) {
	switch n.Type {
	case html.TextNode:
		if n.Data == "" {
			return
		}
		run := state
		run.Text = n.Data
		*runs = append(*runs, run)
	case html.ElementNode:
		child := state
		switch n.Data {
		case "strong", "b":
			child.Bold = true
		case "em", "i":
			child.Italic = true
		case "code":
			child.Code = true
		case "a":
			for _, a := range n.Attr {
				if a.Key == "href" {
					child.Href = a.Val
					break
				}
			}
		case "br":
			run := state
			run.Text = "\n"
			*runs = append(*runs, run)
			return
		case "script", "style":
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkInline(c, child, runs)
		}
	}
}

// mergeRuns joins adjacent runs with identical formatting so the output
// is not fragmented at every text node boundary.
func mergeRuns(runs []post.InlineRun) []post.InlineRun {
	if len(runs) < 2 {
		return runs
	}
	merged := make([]post.InlineRun, 1, len(runs))
	merged[0] = runs[0]
	for _, r := range runs[1:] {
		last := &merged[len(merged)-1]
		if r.Bold == last.Bold && r.Italic == last.Italic && r.Code == last.Code && r.Href == last.Href {
			last.Text += r.Text
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
