// Package content scans and lints the markdown posts of the blog.
//
// It deliberately stops short of site generation: parsing front matter and
// rendering markdown to HTML here is a validation step (catching broken
// posts before the generator does, with clearer messages), not a rendering
// pipeline — layouts, assets, and the published output remain entirely the
// external generator's business.
package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/hnakamura/blogdev/internal/model"
)

// PostsDir is the posts directory name, fixed by the generator's layout
// convention.
const PostsDir = "_posts"

// engine is the shared markdown engine used for render checks. GFM matches
// what the generator's kramdown-with-GFM setup accepts, so posts that pass
// here render there too. goldmark.Markdown is safe for concurrent use by
// multiple goroutines, so a single package-level instance suffices.
var engine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// ScanPosts reads every markdown file under <siteDir>/_posts and returns
// the parseable ones as posts, sorted newest first, together with the
// per-file problems encountered along the way. Problems do not abort the
// scan — `posts check` wants all of them in one run. The error return is
// reserved for directory-level failures (missing _posts, unreadable dir).
func ScanPosts(siteDir string) ([]model.Post, []model.CheckProblem, error) {
	postsPath := filepath.Join(siteDir, PostsDir)

	entries, err := os.ReadDir(postsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("no %s directory in %s — is this a blog checkout?", PostsDir, siteDir)
		}
		return nil, nil, fmt.Errorf("cannot read %s: %w", postsPath, err)
	}

	var posts []model.Post
	var problems []model.CheckProblem

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isMarkdownFile(name) {
			continue
		}
		relPath := filepath.Join(PostsDir, name)

		date, slug, err := model.ParsePostFilename(name)
		if err != nil {
			problems = append(problems, model.CheckProblem{Path: relPath, Message: err.Error()})
			continue
		}

		raw, err := os.ReadFile(filepath.Join(postsPath, name))
		if err != nil {
			problems = append(problems, model.CheckProblem{Path: relPath, Message: fmt.Sprintf("cannot read file: %v", err)})
			continue
		}

		var meta model.PostMeta
		body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
		if err != nil {
			problems = append(problems, model.CheckProblem{Path: relPath, Message: fmt.Sprintf("malformed front matter: %v", err)})
			continue
		}

		posts = append(posts, model.Post{
			Path: relPath,
			Slug: slug,
			Date: date,
			Meta: meta,
			Body: body,
		})
	}

	// Newest first, slug as tiebreaker, matching how the published blog
	// orders its index.
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].Slug < posts[j].Slug
	})

	return posts, problems, nil
}

// Render converts a post's markdown body to HTML using the shared engine.
// Used by the check pipeline; callers wanting the real site output should
// run the generator instead.
func Render(post model.Post) ([]byte, error) {
	var buf bytes.Buffer
	if err := engine.Convert(post.Body, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", post.Path, err)
	}
	return buf.Bytes(), nil
}

// CheckPosts validates the scanned posts and returns every problem found:
// missing titles, front-matter dates disagreeing with the filename date,
// duplicate slugs (two posts would claim the same URL), empty bodies, and
// bodies the markdown engine rejects.
func CheckPosts(posts []model.Post) []model.CheckProblem {
	var problems []model.CheckProblem

	slugOwners := make(map[string]string, len(posts))

	for _, post := range posts {
		if strings.TrimSpace(post.Meta.Title) == "" {
			problems = append(problems, model.CheckProblem{
				Path:    post.Path,
				Message: "front matter has no title",
			})
		}

		// A date in front matter may refine the filename date with a time
		// of day, but the calendar day must agree or the generator and the
		// filename will disagree about the post's URL.
		if !post.Meta.Date.IsZero() {
			fmDay := post.Meta.Date.Format("2006-01-02")
			fileDay := post.Date.Format("2006-01-02")
			if fmDay != fileDay {
				problems = append(problems, model.CheckProblem{
					Path:    post.Path,
					Message: fmt.Sprintf("front matter date %s disagrees with filename date %s", fmDay, fileDay),
				})
			}
		}

		if owner, taken := slugOwners[post.Slug]; taken {
			problems = append(problems, model.CheckProblem{
				Path:    post.Path,
				Message: fmt.Sprintf("slug %q already used by %s", post.Slug, owner),
			})
		} else {
			slugOwners[post.Slug] = post.Path
		}

		if len(bytes.TrimSpace(post.Body)) == 0 {
			problems = append(problems, model.CheckProblem{
				Path:    post.Path,
				Message: "post body is empty",
			})
			continue
		}

		if _, err := Render(post); err != nil {
			problems = append(problems, model.CheckProblem{
				Path:    post.Path,
				Message: fmt.Sprintf("markdown does not render: %v", err),
			})
		}
	}

	return problems
}

// isMarkdownFile reports whether the filename has a markdown extension.
func isMarkdownFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}
