package post

import (
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "simple title",
			title: "Angular Tutorial",
			want:  "angular-tutorial",
		},
		{
			name:  "punctuation removed",
			title: "What's new in .NET 8?",
			want:  "whats-new-in-net-8",
		},
		{
			name:  "html tags stripped",
			title: "Using <code>goroutines</code> in Go",
			want:  "using-goroutines-in-go",
		},
		{
			name:  "whitespace runs collapse",
			title: "  Deploying   with\tDocker  ",
			want:  "deploying-with-docker",
		},
		{
			name:  "existing hyphens preserved",
			title: "CI/CD step-by-step",
			want:  "cicd-step-by-step",
		},
		{
			name:  "underscores become hyphens",
			title: "snake_case_title",
			want:  "snake-case-title",
		},
		{
			name:  "only punctuation yields empty",
			title: "???",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestStableID(t *testing.T) {
	a := StableID("angular-tutorial")
	b := StableID("angular-tutorial")
	if a != b {
		t.Errorf("StableID not stable: %d != %d", a, b)
	}
	if a < 1 || a > 100000 {
		t.Errorf("StableID out of range: %d", a)
	}
}

func TestSlugRegistry(t *testing.T) {
	t.Run("collisions get numeric suffixes", func(t *testing.T) {
		r := NewSlugRegistry()
		got := []string{
			r.Claim("my-post"),
			r.Claim("my-post"),
			r.Claim("my-post"),
		}
		want := []string{"my-post", "my-post-2", "my-post-3"}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("claim %d = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("distinct slugs pass through", func(t *testing.T) {
		r := NewSlugRegistry()
		if got := r.Claim("alpha"); got != "alpha" {
			t.Errorf("got %q, want alpha", got)
		}
		if got := r.Claim("beta"); got != "beta" {
			t.Errorf("got %q, want beta", got)
		}
	})

	t.Run("empty slug claims untitled bucket", func(t *testing.T) {
		r := NewSlugRegistry()
		if got := r.Claim(""); got != "untitled" {
			t.Errorf("got %q, want untitled", got)
		}
		if got := r.Claim(""); got != "untitled-2" {
			t.Errorf("got %q, want untitled-2", got)
		}
	})

	t.Run("suffixed variant already claimed", func(t *testing.T) {
		r := NewSlugRegistry()
		r.Claim("post-2")
		r.Claim("post")
		if got := r.Claim("post"); got != "post-3" {
			t.Errorf("got %q, want post-3", got)
		}
	})
}
