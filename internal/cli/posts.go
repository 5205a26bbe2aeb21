// Package cli — posts.go implements the "blogdev posts" command group.
//
// posts list enumerates the markdown posts with their metadata; posts check
// lints them (filename convention, front matter, markdown rendering) and
// exits non-zero when anything is wrong, making it usable as a pre-push
// hook.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hnakamura/blogdev/internal/config"
	"github.com/hnakamura/blogdev/internal/content"
	"github.com/hnakamura/blogdev/internal/model"
)

// NewPostsCommand creates the "posts" command group with its list and
// check subcommands.
func NewPostsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Inspect and lint the blog's markdown posts",
	}

	cmd.AddCommand(newPostsListCommand())
	cmd.AddCommand(newPostsCheckCommand())

	return cmd
}

func newPostsListCommand() *cobra.Command {
	var includeDrafts bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Long: `List the posts under _posts with their date, slug, and title.

Examples:
  blogdev posts list
  blogdev posts list --drafts --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPostsList(includeDrafts)
		},
	}

	cmd.Flags().BoolVar(&includeDrafts, "drafts", false, "Include posts marked draft: true")

	return cmd
}

func newPostsCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Lint posts and fail on any problem",
		Long: `Validate every post: filename convention, front matter, date
consistency, slug uniqueness, and markdown rendering. All problems are
reported in one run; the command exits non-zero if any were found.

Examples:
  blogdev posts check
  blogdev posts check --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPostsCheck()
		},
	}
}

// runPostsList scans and prints the posts.
func runPostsList(includeDrafts bool) error {
	opts, err := config.Load(siteDir)
	if err != nil {
		return err
	}

	posts, problems, err := content.ScanPosts(opts.SiteDir)
	if err != nil {
		return model.WrapCLIError(model.ExitContentCheckFailed, "cannot scan posts", err)
	}
	for _, p := range problems {
		VerboseLog("skipped %s: %s", p.Path, p.Message)
	}

	if !includeDrafts {
		kept := posts[:0]
		for _, post := range posts {
			if !post.Meta.Draft {
				kept = append(kept, post)
			}
		}
		posts = kept
	}

	printPostsList(posts)
	return nil
}

// runPostsCheck scans, lints, and reports; any problem is a failure.
func runPostsCheck() error {
	opts, err := config.Load(siteDir)
	if err != nil {
		return err
	}

	posts, scanProblems, err := content.ScanPosts(opts.SiteDir)
	if err != nil {
		return model.WrapCLIError(model.ExitContentCheckFailed, "cannot scan posts", err)
	}

	problems := append(scanProblems, content.CheckPosts(posts)...)
	printCheckReport(len(posts), problems)

	if len(problems) > 0 {
		return model.NewCLIError(model.ExitContentCheckFailed,
			fmt.Sprintf("%d problem(s) in %d post(s)", len(problems), len(posts)))
	}
	return nil
}

// printPostsList outputs the post table in text or JSON format.
func printPostsList(posts []model.Post) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(posts, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(posts) == 0 {
		fmt.Println("No posts found.")
		return
	}

	for _, post := range posts {
		title := post.Meta.Title
		if title == "" {
			title = "(untitled)"
		}
		draft := ""
		if post.Meta.Draft {
			draft = "  [draft]"
		}
		fmt.Printf("%s  %-40s %s%s\n", post.Date.Format("2006-01-02"), post.Slug, title, draft)
	}
}

// printCheckReport outputs the lint result in text or JSON format.
func printCheckReport(postCount int, problems []model.CheckProblem) {
	if IsJSONOutput() {
		report := struct {
			Posts    int                  `json:"posts"`
			Problems []model.CheckProblem `json:"problems"`
		}{postCount, problems}
		if report.Problems == nil {
			report.Problems = []model.CheckProblem{}
		}
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(problems) == 0 {
		fmt.Printf("Checked %d post(s), no problems found.\n", postCount)
		return
	}
	for _, p := range problems {
		fmt.Println(p.String())
	}
}
