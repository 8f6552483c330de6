package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const exportDoc = `<!DOCTYPE html>
<html>
<body>
  <h1 class="p-name">Go Concurrency Patterns</h1>
  <section data-field="body" class="e-content">
    <h3>Go Concurrency Patterns</h3>
    <p>Goroutines make concurrency in <strong>Golang</strong> simple.</p>
    <p>Read the follow-up at <a href="https://medium.com/@gopher/channels-in-depth-3f2a9c4b1d0e">channels in depth</a>.</p>
  </section>
</body>
</html>`

const secondDoc = `<!DOCTYPE html>
<html>
<body>
  <h1 class="p-name">Kubernetes on a Budget</h1>
  <section data-field="body" class="e-content">
    <p>Running kubernetes clusters with docker for cheap devops.</p>
  </section>
</body>
</html>`

// noBodyDoc parses as a Medium export but has no body section.
const noBodyDoc = `<!DOCTYPE html><html><body><h1>Oops</h1></body></html>`

func writeInput(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestConverter(t *testing.T, inputDir string) *Converter {
	t.Helper()
	c, err := New(Options{
		InputDir:     inputDir,
		TargetDomain: "https://example.com/",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"https://example.com", "example.com"},
		{"http://example.com/", "example.com"},
		{"  HTTPS://Example.COM/  ", "example.com"},
	}
	for _, tt := range tests {
		if got := NormalizeDomain(tt.in); got != tt.want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Options{TargetDomain: "example.com"}); err == nil {
		t.Error("expected error for missing input dir")
	}
	if _, err := New(Options{InputDir: "export_htmls"}); err == nil {
		t.Error("expected error for missing target domain")
	}
}

func TestListSortedWithTitles(t *testing.T) {
	dir := writeInput(t, map[string]string{
		"2020-01-15_kubernetes.html": secondDoc,
		"2019-07-04_go.html":         exportDoc,
		"notes.txt":                  "not html",
	})
	c := newTestConverter(t, dir)

	entries, err := c.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(entries))
	}
	if entries[0].File != "2019-07-04_go.html" || entries[1].File != "2020-01-15_kubernetes.html" {
		t.Errorf("entries not sorted: %v, %v", entries[0].File, entries[1].File)
	}
	if entries[0].Title != "Go Concurrency Patterns" {
		t.Errorf("Title = %q", entries[0].Title)
	}
}

func TestListNoInput(t *testing.T) {
	c := newTestConverter(t, t.TempDir())
	if _, err := c.List(); !errors.Is(err, ErrNoInput) {
		t.Errorf("List() error = %v, want ErrNoInput", err)
	}
}

func TestResolveTarget(t *testing.T) {
	dir := writeInput(t, map[string]string{
		"a.html": exportDoc,
		"b.html": secondDoc,
	})
	c := newTestConverter(t, dir)

	if got, err := c.ResolveTarget("2"); err != nil || got != "b.html" {
		t.Errorf("ResolveTarget(2) = %q, %v", got, err)
	}
	if got, err := c.ResolveTarget("b.html"); err != nil || got != "b.html" {
		t.Errorf("ResolveTarget(b.html) = %q, %v", got, err)
	}
	if _, err := c.ResolveTarget("3"); err == nil {
		t.Error("expected out-of-range error")
	}

	// numbers beyond the int range are not indexes, just odd filenames
	huge := "99999999999999999999999"
	if got, err := c.ResolveTarget(huge); err != nil || got != huge {
		t.Errorf("ResolveTarget(%s) = %q, %v, want it treated as a filename", huge, got, err)
	}
}

func TestConvertAll(t *testing.T) {
	dir := writeInput(t, map[string]string{
		"2019-07-04_go.html":         exportDoc,
		"2020-01-15_kubernetes.html": secondDoc,
		"broken.html":                noBodyDoc,
	})
	c := newTestConverter(t, dir)

	outPath := filepath.Join(t.TempDir(), "wordpress_export.xml")
	summary, err := c.ConvertAll(context.Background(), outPath)
	if err != nil {
		t.Fatalf("ConvertAll() error = %v", err)
	}
	if summary.Processed != 2 {
		t.Errorf("Processed = %d, want 2", summary.Processed)
	}
	if len(summary.Skipped) != 1 || !strings.Contains(summary.Skipped[0], "broken.html") {
		t.Errorf("Skipped = %v, want one entry for broken.html", summary.Skipped)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)

	for _, want := range []string{
		"<title><![CDATA[Go Concurrency Patterns]]></title>",
		"<title><![CDATA[Kubernetes on a Budget]]></title>",
		"<wp:post_name><![CDATA[go-concurrency-patterns]]></wp:post_name>",
		// the Medium post link is rewritten onto the target domain
		`href="https://example.com/channels-in-depth/"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "medium.com") {
		t.Error("output still references the source host")
	}
}

func TestConvertAllNoUsableInput(t *testing.T) {
	dir := writeInput(t, map[string]string{"broken.html": noBodyDoc})
	c := newTestConverter(t, dir)

	_, err := c.ConvertAll(context.Background(), filepath.Join(t.TempDir(), "out.xml"))
	if !errors.Is(err, ErrNoInput) {
		t.Errorf("ConvertAll() error = %v, want ErrNoInput", err)
	}
}

func TestConvertSingle(t *testing.T) {
	dir := writeInput(t, map[string]string{"2019-07-04_go.html": exportDoc})
	c := newTestConverter(t, dir)

	outPath := filepath.Join(t.TempDir(), "go.xml")
	summary, err := c.ConvertSingle(context.Background(), "2019-07-04_go.html", outPath)
	if err != nil {
		t.Fatalf("ConvertSingle() error = %v", err)
	}
	if summary.Processed != 1 {
		t.Errorf("Processed = %d, want 1", summary.Processed)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output file not written: %v", err)
	}
}

func TestConvertSingleParseErrorIsFatal(t *testing.T) {
	dir := writeInput(t, map[string]string{"broken.html": noBodyDoc})
	c := newTestConverter(t, dir)

	_, err := c.ConvertSingle(context.Background(), "broken.html", filepath.Join(t.TempDir(), "out.xml"))
	if err == nil {
		t.Error("expected parse error for single conversion")
	}
}

func TestConvertAllUniqueSlugs(t *testing.T) {
	dir := writeInput(t, map[string]string{
		"a.html": exportDoc,
		"b.html": exportDoc,
	})
	c := newTestConverter(t, dir)

	outPath := filepath.Join(t.TempDir(), "out.xml")
	if _, err := c.ConvertAll(context.Background(), outPath); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "<wp:post_name><![CDATA[go-concurrency-patterns]]></wp:post_name>") ||
		!strings.Contains(out, "<wp:post_name><![CDATA[go-concurrency-patterns-2]]></wp:post_name>") {
		t.Error("duplicate titles did not get unique slugs")
	}
}
