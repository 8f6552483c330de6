package categorize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mschroeder/mediumpress/internal/logger"
	"github.com/mschroeder/mediumpress/pkg/post"
)

// Categorizer scores text against a keyword table.
type Categorizer struct {
	table    *Table
	matchers []matcher
}

type matcher struct {
	term     string
	weight   int
	category int // index into table.Categories
	re       *regexp.Regexp
}

// New compiles the table's keywords into whole-word, case-insensitive
// matchers. If table is nil, DefaultTable() is used.
func New(table *Table) (*Categorizer, error) {
	if table == nil {
		table = DefaultTable()
	}

	c := &Categorizer{table: table}
	for ci, cat := range table.Categories {
		for _, kw := range cat.Keywords {
			re, err := compileTerm(kw.Term)
			if err != nil {
				return nil, fmt.Errorf("keyword %q in %s: %w", kw.Term, cat.Name, err)
			}
			c.matchers = append(c.matchers, matcher{
				term:     strings.ToLower(kw.Term),
				weight:   kw.Weight,
				category: ci,
				re:       re,
			})
		}
	}
	return c, nil
}

// compileTerm builds a whole-word matcher. Terms like ".net", "c#" and
// "ci/cd" contain characters outside \w, so word boundaries are expressed
// as "not adjacent to an alphanumeric" rather than \b.
func compileTerm(term string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)(^|[^a-z0-9])` + regexp.QuoteMeta(term) + `($|[^a-z0-9])`)
}

// Categorize scores the post's title and visible text and fills in its
// categories and tags. A post matching nothing gets the catch-all
// category and no tags.
func (c *Categorizer) Categorize(p *post.Post) {
	text := strings.ToLower(p.Title + " " + visibleText(p))

	scores := make([]int, len(c.table.Categories))
	var tags []string
	seen := make(map[string]bool)

	for _, m := range c.matchers {
		if !m.re.MatchString(text) {
			continue
		}
		scores[m.category] += m.weight
		if !seen[m.term] {
			seen[m.term] = true
			tags = append(tags, m.term)
		}
	}

	p.Categories = c.selectCategories(scores)
	if len(tags) > c.table.MaxTags {
		tags = tags[:c.table.MaxTags]
	}
	p.Tags = tags

	logger.Debug("categorized post",
		"slug", p.Slug,
		"categories", p.Categories,
		"tags", p.Tags)
}

// selectCategories picks the primary (highest score, ties broken by table
// declaration order) and any secondaries at or above the threshold.
func (c *Categorizer) selectCategories(scores []int) []string {
	primary := -1
	for i, s := range scores {
		if s > 0 && (primary == -1 || s > scores[primary]) {
			primary = i
		}
	}
	if primary == -1 {
		return []string{c.table.CatchAll}
	}

	selected := []string{c.table.Categories[primary].Name}
	for i, s := range scores {
		if i == primary || s < c.table.Threshold {
			continue
		}
		if len(selected) >= c.table.MaxCategories {
			break
		}
		selected = append(selected, c.table.Categories[i].Name)
	}
	return selected
}

// visibleText flattens the post's readable content for scoring. Raw HTML
// fallback blocks contribute nothing; their text was unrecognized markup
// to begin with.
func visibleText(p *post.Post) string {
	var sb strings.Builder
	for _, b := range p.Blocks {
		switch b.Kind {
		case post.KindHeading:
			sb.WriteString(b.Text)
		case post.KindParagraph, post.KindQuote:
			for _, r := range b.Runs {
				sb.WriteString(r.Text)
			}
		case post.KindList:
			sb.WriteString(strings.Join(b.Items, " "))
		case post.KindCode:
			sb.WriteString(b.Text)
		case post.KindImage:
			if b.Image != nil {
				sb.WriteString(b.Image.AltText)
			}
		}
		sb.WriteString(" ")
	}
	return sb.String()
}
