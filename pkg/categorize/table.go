// Package categorize assigns categories and tags to a post by scoring its
// text against a keyword table. The table is explicit configuration: it
// can be loaded from a YAML file or built in code, and the default table
// covers the common software topics.
package categorize

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Keyword maps one term to a score contribution for its category.
type Keyword struct {
	Term   string `yaml:"term" validate:"required"`
	Weight int    `yaml:"weight" validate:"gt=0"`
}

// Category is one assignable category with the keywords that vote for it.
// Declaration order in the table breaks scoring ties: first declared wins.
type Category struct {
	Name     string    `yaml:"name" validate:"required"`
	Keywords []Keyword `yaml:"keywords" validate:"min=1,dive"`
}

// Table is the full keyword-category configuration.
type Table struct {
	Categories []Category `yaml:"categories" validate:"min=1,dive"`

	// CatchAll is assigned when no keyword matches. Never an error.
	CatchAll string `yaml:"catch_all" validate:"required"`

	// Threshold is the minimum aggregate score for a secondary category.
	Threshold int `yaml:"threshold" validate:"gte=1"`

	// MaxCategories and MaxTags cap the result sizes.
	MaxCategories int `yaml:"max_categories" validate:"gte=1"`
	MaxTags       int `yaml:"max_tags" validate:"gte=1"`
}

// DefaultTable returns the built-in table. Specific technology terms carry
// more weight than generic vocabulary so a post mentioning "code" once is
// not pulled away from its real topic.
func DefaultTable() *Table {
	return &Table{
		CatchAll:      "PROGRAMMING",
		Threshold:     2,
		MaxCategories: 2,
		MaxTags:       5,
		Categories: []Category{
			{
				Name: "WEB DEVELOPMENT",
				Keywords: []Keyword{
					{Term: "angular", Weight: 3},
					{Term: "react", Weight: 3},
					{Term: "vue", Weight: 3},
					{Term: "javascript", Weight: 2},
					{Term: "typescript", Weight: 2},
					{Term: "html", Weight: 1},
					{Term: "css", Weight: 1},
					{Term: "frontend", Weight: 2},
					{Term: "backend", Weight: 1},
					{Term: "web", Weight: 1},
				},
			},
			{
				Name: ".NET",
				Keywords: []Keyword{
					{Term: ".net", Weight: 3},
					{Term: "c#", Weight: 3},
					{Term: "csharp", Weight: 3},
					{Term: "asp.net", Weight: 3},
					{Term: "entity framework", Weight: 3},
					{Term: "blazor", Weight: 3},
					{Term: "mvc", Weight: 1},
					{Term: "web api", Weight: 2},
					{Term: "dotnet", Weight: 3},
				},
			},
			{
				Name: "DEVOPS",
				Keywords: []Keyword{
					{Term: "docker", Weight: 3},
					{Term: "kubernetes", Weight: 3},
					{Term: "deployment", Weight: 2},
					{Term: "ci/cd", Weight: 3},
					{Term: "pipeline", Weight: 1},
					{Term: "devops", Weight: 3},
					{Term: "terraform", Weight: 3},
				},
			},
			{
				Name: "PROGRAMMING",
				Keywords: []Keyword{
					{Term: "code", Weight: 1},
					{Term: "programming", Weight: 2},
					{Term: "development", Weight: 1},
					{Term: "software", Weight: 1},
					{Term: "algorithm", Weight: 2},
					{Term: "design pattern", Weight: 2},
				},
			},
			{
				Name: "CLOUD",
				Keywords: []Keyword{
					{Term: "azure", Weight: 3},
					{Term: "aws", Weight: 3},
					{Term: "cloud", Weight: 2},
					{Term: "serverless", Weight: 3},
					{Term: "microservices", Weight: 2},
					{Term: "container", Weight: 1},
				},
			},
			{
				Name: "MOBILE",
				Keywords: []Keyword{
					{Term: "ionic", Weight: 3},
					{Term: "xamarin", Weight: 3},
					{Term: "mobile", Weight: 2},
					{Term: "android", Weight: 3},
					{Term: "ios", Weight: 3},
					{Term: "app development", Weight: 2},
				},
			},
			{
				Name: "TUTORIAL",
				Keywords: []Keyword{
					{Term: "tutorial", Weight: 3},
					{Term: "guide", Weight: 2},
					{Term: "how to", Weight: 2},
					{Term: "step by step", Weight: 3},
					{Term: "getting started", Weight: 3},
					{Term: "introduction", Weight: 2},
				},
			},
		},
	}
}

// LoadTable reads and validates a keyword table from a YAML file. Zero
// cap/threshold fields fall back to the defaults before validation.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-specified keyword table
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword table: %w", err)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse keyword table: %w", err)
	}

	defaults := DefaultTable()
	if t.CatchAll == "" {
		t.CatchAll = defaults.CatchAll
	}
	if t.Threshold == 0 {
		t.Threshold = defaults.Threshold
	}
	if t.MaxCategories == 0 {
		t.MaxCategories = defaults.MaxCategories
	}
	if t.MaxTags == 0 {
		t.MaxTags = defaults.MaxTags
	}

	if err := validator.New().Struct(&t); err != nil {
		return nil, fmt.Errorf("invalid keyword table: %w", err)
	}
	return &t, nil
}
