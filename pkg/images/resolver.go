// Package images derives deterministic local filenames and upload paths
// for a post's embedded images. It performs no I/O: the output is a list
// of fetch jobs for an external downloader.
package images

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/mschroeder/mediumpress/pkg/post"
)

// Job pairs an image's source URL with where its bytes belong.
type Job struct {
	// OriginalURL is the source CDN URL to fetch from.
	OriginalURL string

	// Filename is the collision-free local filename.
	Filename string

	// TargetPath is the site-relative upload path the exported content
	// references, e.g. /uploads/2019/07/angular-tutorial-1.png.
	TargetPath string
}

// knownExtensions are image extensions carried over from the source URL.
// Anything else falls back to .jpg, since Medium CDN paths often have no
// usable extension at all.
var knownExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true,
}

// Resolver computes image paths under a base upload directory.
type Resolver struct {
	basePath string
}

// NewResolver creates a Resolver. basePath defaults to "/uploads".
func NewResolver(basePath string) *Resolver {
	if basePath == "" {
		basePath = "/uploads"
	}
	return &Resolver{basePath: "/" + strings.Trim(basePath, "/")}
}

// Resolve fills in LocalFilename and TargetPath for every image of the
// post and returns the fetch jobs. Filenames derive from the post slug
// and the image ordinal, not from the unstable CDN filename. Undated
// posts land in the "undated" bucket instead of a year/month directory.
func (r *Resolver) Resolve(p *post.Post) []Job {
	var jobs []Job
	for i, img := range p.Images {
		if img.OriginalURL == "" {
			continue
		}
		img.LocalFilename = fmt.Sprintf("%s-%d%s", p.Slug, i+1, extensionOf(img.OriginalURL))
		img.TargetPath = path.Join(r.bucket(p.PublishedAt), img.LocalFilename)
		jobs = append(jobs, Job{
			OriginalURL: img.OriginalURL,
			Filename:    img.LocalFilename,
			TargetPath:  img.TargetPath,
		})
	}
	return jobs
}

func (r *Resolver) bucket(published time.Time) string {
	if published.IsZero() {
		return path.Join(r.basePath, "undated")
	}
	return path.Join(r.basePath,
		fmt.Sprintf("%04d", published.Year()),
		fmt.Sprintf("%02d", int(published.Month())))
}

func extensionOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".jpg"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if !knownExtensions[ext] {
		return ".jpg"
	}
	return ext
}
