package categorize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mschroeder/mediumpress/pkg/post"
)

func textPost(title, text string) *post.Post {
	return &post.Post{
		Title: title,
		Blocks: []post.Block{
			{Kind: post.KindParagraph, Runs: []post.InlineRun{{Text: text}}},
		},
	}
}

func TestCategorize(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name       string
		title      string
		text       string
		wantFirst  string
		wantInTags []string
	}{
		{
			name:       "angular post is web development",
			title:      "Angular Tutorial",
			text:       "Learn Angular with TypeScript from scratch.",
			wantFirst:  "WEB DEVELOPMENT",
			wantInTags: []string{"angular", "typescript"},
		},
		{
			name:       "punctuated terms match whole words",
			title:      "Intro to C#",
			text:       "Building with ASP.NET and Entity Framework.",
			wantFirst:  ".NET",
			wantInTags: []string{"c#", "asp.net"},
		},
		{
			name:      "devops keywords",
			title:     "Docker and Kubernetes",
			text:      "A deployment pipeline with CI/CD.",
			wantFirst: "DEVOPS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := textPost(tt.title, tt.text)
			c.Categorize(p)

			if len(p.Categories) == 0 || p.Categories[0] != tt.wantFirst {
				t.Errorf("categories = %v, want primary %s", p.Categories, tt.wantFirst)
			}
			for _, want := range tt.wantInTags {
				found := false
				for _, tag := range p.Tags {
					if tag == want {
						found = true
					}
				}
				if !found {
					t.Errorf("tags = %v, want to include %q", p.Tags, want)
				}
			}
		})
	}
}

func TestCategorize_NoMatchGetsCatchAll(t *testing.T) {
	c, _ := New(nil)
	p := textPost("Gardening in spring", "Tomatoes and basil thrive together.")
	c.Categorize(p)

	if len(p.Categories) != 1 || p.Categories[0] != "PROGRAMMING" {
		t.Errorf("categories = %v, want [PROGRAMMING]", p.Categories)
	}
	if len(p.Tags) != 0 {
		t.Errorf("tags = %v, want none", p.Tags)
	}
}

func TestCategorize_Deterministic(t *testing.T) {
	c, _ := New(nil)
	var first []string
	for i := 0; i < 5; i++ {
		p := textPost("Angular on Azure", "Deploy an Angular app to Azure cloud.")
		c.Categorize(p)
		if i == 0 {
			first = append([]string{}, p.Categories...)
			continue
		}
		if len(p.Categories) != len(first) {
			t.Fatalf("run %d categories = %v, first run %v", i, p.Categories, first)
		}
		for j := range first {
			if p.Categories[j] != first[j] {
				t.Fatalf("run %d categories = %v, first run %v", i, p.Categories, first)
			}
		}
	}
}

func TestCategorize_TieBreakByDeclarationOrder(t *testing.T) {
	table := &Table{
		CatchAll:      "OTHER",
		Threshold:     1,
		MaxCategories: 1,
		MaxTags:       5,
		Categories: []Category{
			{Name: "FIRST", Keywords: []Keyword{{Term: "alpha", Weight: 2}}},
			{Name: "SECOND", Keywords: []Keyword{{Term: "beta", Weight: 2}}},
		},
	}
	c, err := New(table)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p := textPost("alpha beta", "")
	c.Categorize(p)
	if p.Categories[0] != "FIRST" {
		t.Errorf("tie broke to %v, want FIRST", p.Categories)
	}
}

func TestCategorize_WholeWordOnly(t *testing.T) {
	c, _ := New(nil)
	// "reactive" must not match "react", "awsome" must not match "aws".
	p := textPost("Reactive patterns", "An awsome overview of reactive streams.")
	c.Categorize(p)
	for _, tag := range p.Tags {
		if tag == "react" || tag == "aws" {
			t.Errorf("substring matched as whole word: tags = %v", p.Tags)
		}
	}
}

func TestCategorize_Caps(t *testing.T) {
	c, _ := New(nil)
	p := textPost(
		"Angular React Vue on Azure AWS with Docker Kubernetes",
		"A tutorial guide with JavaScript TypeScript HTML CSS and serverless containers.",
	)
	c.Categorize(p)
	if len(p.Categories) > 2 {
		t.Errorf("categories = %v, want at most 2", p.Categories)
	}
	if len(p.Tags) > 5 {
		t.Errorf("tags = %v, want at most 5", p.Tags)
	}
}

func TestLoadTable(t *testing.T) {
	t.Run("valid table loads with defaults applied", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keywords.yaml")
		doc := `categories:
  - name: RUST
    keywords:
      - term: rust
        weight: 3
      - term: cargo
        weight: 2
catch_all: MISC
`
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		table, err := LoadTable(path)
		if err != nil {
			t.Fatalf("LoadTable failed: %v", err)
		}
		if table.Categories[0].Name != "RUST" {
			t.Errorf("category = %q", table.Categories[0].Name)
		}
		if table.MaxTags != 5 || table.MaxCategories != 2 {
			t.Errorf("caps not defaulted: %d/%d", table.MaxCategories, table.MaxTags)
		}
	})

	t.Run("non-positive weight fails validation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keywords.yaml")
		doc := `categories:
  - name: RUST
    keywords:
      - term: rust
        weight: 0
catch_all: MISC
`
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadTable(path); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadTable(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatal("expected error")
		}
	})
}
