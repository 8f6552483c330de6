// Package converter orchestrates the conversion pipeline: it discovers
// export files, runs each one through parse, clean, link rewriting,
// categorization and image resolution, and writes the WXR output.
// Failures are isolated per post; only the complete absence of usable
// input fails a run.
package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mschroeder/mediumpress/internal/logger"
	"github.com/mschroeder/mediumpress/pkg/categorize"
	"github.com/mschroeder/mediumpress/pkg/cleaner"
	"github.com/mschroeder/mediumpress/pkg/fetcher"
	"github.com/mschroeder/mediumpress/pkg/images"
	"github.com/mschroeder/mediumpress/pkg/parser"
	"github.com/mschroeder/mediumpress/pkg/post"
	"github.com/mschroeder/mediumpress/pkg/rewriter"
	"github.com/mschroeder/mediumpress/pkg/wxr"
)

// ErrNoInput means no export documents were found. It is the only
// whole-run failure.
var ErrNoInput = errors.New("no input documents found")

// Options configures a conversion run.
type Options struct {
	// InputDir holds the Medium HTML export files.
	InputDir string `validate:"required"`

	// TargetDomain is the destination site host, e.g. "example.com".
	// Scheme prefixes and trailing slashes are tolerated and stripped.
	TargetDomain string `validate:"required"`

	// ImagesDir is where downloaded images are stored locally.
	ImagesDir string

	// DownloadImages enables the image fetcher. Paths are resolved
	// either way so exported content always references upload paths.
	DownloadImages bool

	// KeywordsFile optionally overrides the built-in keyword table.
	KeywordsFile string

	// Author and Language fill the WXR channel metadata.
	Author   string
	Language string
}

// NormalizeDomain reduces a user-supplied target URL to a bare host.
func NormalizeDomain(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.ToLower(strings.Trim(s, "/"))
}

// Converter runs the pipeline.
type Converter struct {
	opts        Options
	cleaner     *cleaner.Cleaner
	rewriter    *rewriter.Rewriter
	categorizer *categorize.Categorizer
	resolver    *images.Resolver
	exporter    *wxr.Exporter
	fetcher     *fetcher.Fetcher
	slugs       *post.SlugRegistry
}

// New validates the options and assembles the pipeline stages.
func New(opts Options) (*Converter, error) {
	opts.TargetDomain = NormalizeDomain(opts.TargetDomain)
	if opts.ImagesDir == "" {
		opts.ImagesDir = "wordpress_images"
	}
	if opts.Author == "" {
		opts.Author = "Admin"
	}
	if opts.Language == "" {
		opts.Language = "en-US"
	}

	if err := validator.New().Struct(&opts); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	table := categorize.DefaultTable()
	if opts.KeywordsFile != "" {
		loaded, err := categorize.LoadTable(opts.KeywordsFile)
		if err != nil {
			return nil, err
		}
		table = loaded
	}
	cat, err := categorize.New(table)
	if err != nil {
		return nil, err
	}

	exp := wxr.New(opts.TargetDomain)
	exp.Author = opts.Author
	exp.Language = opts.Language

	return &Converter{
		opts:        opts,
		cleaner:     cleaner.New(nil),
		rewriter:    rewriter.New(opts.TargetDomain, nil),
		categorizer: cat,
		resolver:    images.NewResolver(""),
		exporter:    exp,
		fetcher:     fetcher.New(fetcher.DefaultConfig()),
		slugs:       post.NewSlugRegistry(),
	}, nil
}

// Entry is one discoverable input document.
type Entry struct {
	File  string // filename within the input directory
	Title string // best-effort; empty if the file does not parse
}

// List enumerates the input documents in sorted order with their titles.
func (c *Converter) List() ([]Entry, error) {
	files, err := c.discover()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(files))
	for _, file := range files {
		e := Entry{File: file}
		if p, err := parser.ParseFile(filepath.Join(c.opts.InputDir, file)); err == nil {
			e.Title = p.Title
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// discover returns the sorted .html filenames in the input directory.
func (c *Converter) discover() ([]string, error) {
	dirEntries, err := os.ReadDir(c.opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("input directory %s: %w", c.opts.InputDir, err)
	}

	var files []string
	for _, de := range dirEntries {
		if !de.IsDir() && strings.HasSuffix(de.Name(), ".html") {
			files = append(files, de.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInput, c.opts.InputDir)
	}
	sort.Strings(files)
	return files, nil
}

// ResolveTarget maps a `single` command target onto an input filename.
// A numeric target is a 1-based index into the sorted listing; anything
// else, including numbers too large to represent, is treated as a
// filename.
func (c *Converter) ResolveTarget(target string) (string, error) {
	if n, err := strconv.Atoi(target); err == nil {
		files, err := c.discover()
		if err != nil {
			return "", err
		}
		if n < 1 || n > len(files) {
			return "", fmt.Errorf("invalid post number %d: available posts are 1-%d", n, len(files))
		}
		return files[n-1], nil
	}
	return filepath.Base(target), nil
}

// Summary reports a run's outcome.
type Summary struct {
	Processed int      // posts in the output document
	Skipped   []string // source files that were skipped, with reasons
	Images    int      // images successfully downloaded
}

// ConvertAll converts every discovered document into one multi-post WXR
// document at outPath.
func (c *Converter) ConvertAll(ctx context.Context, outPath string) (*Summary, error) {
	files, err := c.discover()
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	var posts []*post.Post
	var jobs []images.Job

	for _, file := range files {
		logger.Info("processing", "file", file)
		p, postJobs, err := c.processFile(file)
		if err != nil {
			logger.Warn("skipping document",
				"file", file,
				"stage", "parse",
				"reason", err)
			summary.Skipped = append(summary.Skipped, fmt.Sprintf("%s: %v", file, err))
			continue
		}
		posts = append(posts, p)
		jobs = append(jobs, postJobs...)
	}

	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: no document could be processed", ErrNoInput)
	}

	if err := c.writeExport(outPath, posts, summary); err != nil {
		return nil, err
	}
	c.fetchImages(ctx, jobs, summary)

	logger.Info("export complete",
		"output", outPath,
		"posts", summary.Processed,
		"skipped", len(summary.Skipped),
		"images", summary.Images)
	return summary, nil
}

// ConvertSingle converts one document into its own WXR document. Unlike
// an `all` run, a parse failure here is fatal.
func (c *Converter) ConvertSingle(ctx context.Context, file, outPath string) (*Summary, error) {
	logger.Info("processing", "file", file)
	p, jobs, err := c.processFile(file)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	if err := c.writeExport(outPath, []*post.Post{p}, summary); err != nil {
		return nil, err
	}
	if summary.Processed == 0 {
		return nil, fmt.Errorf("post %s could not be serialized", p.Slug)
	}
	c.fetchImages(ctx, jobs, summary)

	logger.Info("export complete", "output", outPath, "post", p.Title, "images", summary.Images)
	return summary, nil
}

// processFile runs one document through every pipeline stage except
// export.
func (c *Converter) processFile(file string) (*post.Post, []images.Job, error) {
	p, err := parser.ParseFile(filepath.Join(c.opts.InputDir, file))
	if err != nil {
		return nil, nil, err
	}

	p.Slug = c.slugs.Claim(post.Slugify(p.Title))
	p.ID = post.StableID(p.Slug)

	c.cleaner.Clean(p)
	c.rewriter.Rewrite(p)
	c.categorizer.Categorize(p)
	jobs := c.resolver.Resolve(p)

	return p, jobs, nil
}

func (c *Converter) writeExport(outPath string, posts []*post.Post, summary *Summary) error {
	out, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	res, err := c.exporter.Export(out, posts)
	if err != nil {
		return err
	}
	summary.Processed = res.Exported
	for _, s := range res.Skipped {
		summary.Skipped = append(summary.Skipped, fmt.Sprintf("%s: %s", s.Slug, s.Reason))
	}
	return nil
}

func (c *Converter) fetchImages(ctx context.Context, jobs []images.Job, summary *Summary) {
	if !c.opts.DownloadImages || len(jobs) == 0 {
		return
	}
	for _, res := range c.fetcher.FetchAll(ctx, jobs, c.opts.ImagesDir) {
		if res.Err == nil {
			summary.Images++
		}
	}
}
