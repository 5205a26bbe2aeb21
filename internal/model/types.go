// Package model defines the domain types for the blogdev CLI.
//
// The tool itself holds no persistent state. The only interesting runtime
// entity is a port binding — the OS-level association between the configured
// TCP port and whichever process currently listens on it — which is observed
// and manipulated but never stored. Everything in this package is therefore
// a transient value type passed between components.
package model

import (
	"fmt"
	"regexp"
	"time"
)

// DefaultPort is the TCP port the dev server binds when no configuration
// overrides it. 4000 is Jekyll's default serve port.
const DefaultPort = 4000

// DefaultHost is the bind address handed to the site generator. Binding all
// interfaces allows previewing the site from other devices on the LAN.
const DefaultHost = "0.0.0.0"

// DefaultSettleDelay is how long the launcher waits after force-killing a
// stale listener before handing the port to the new server process. The OS
// usually releases a killed process's sockets well within this window, but
// the wait is a heuristic, not a synchronization guarantee.
const DefaultSettleDelay = 2 * time.Second

// ServeOptions carries the fully resolved configuration for one invocation
// of the dev-server launcher. It is produced by the config package (defaults,
// then _config.yml, then .blogdev.jsonc) and consumed by the launcher and
// the Docker runner.
type ServeOptions struct {
	// SiteDir is the absolute path to the blog repository root — the
	// directory containing _config.yml and _posts.
	SiteDir string `json:"siteDir"`

	// Port is the TCP port the dev server binds (1-65535).
	// The same port is probed for stale listeners before launch.
	Port int `json:"port"`

	// Host is the bind address passed to the generator via --host.
	Host string `json:"host"`

	// LiveReload controls whether the generator is started with
	// --livereload, pushing rebuild notifications to connected browsers.
	LiveReload bool `json:"livereload"`

	// SettleDelay is the pause inserted between killing stale listeners
	// and starting the new server. Zero disables the wait.
	SettleDelay time.Duration `json:"settleDelay"`

	// Command is the executable the launcher hands off to, resolved
	// against the augmented PATH. Defaults to "bundle".
	Command string `json:"command"`

	// Args are the leading arguments for Command, before the --host/--port/
	// --livereload flags the launcher appends. Defaults to
	// ["exec", "jekyll", "serve"].
	Args []string `json:"args,omitempty"`

	// ExtraPath lists directories appended to the PATH environment variable
	// before the handoff, so Ruby gem binstubs and similar tool locations
	// are found without shell profile changes.
	ExtraPath []string `json:"extraPath,omitempty"`

	// DockerImage is the image used by `serve --docker`.
	DockerImage string `json:"dockerImage"`
}

// DefaultServeOptions returns the baseline configuration used when no config
// file overrides anything: Jekyll via bundler on 0.0.0.0:4000 with
// live-reload enabled.
func DefaultServeOptions() ServeOptions {
	return ServeOptions{
		Port:        DefaultPort,
		Host:        DefaultHost,
		LiveReload:  true,
		SettleDelay: DefaultSettleDelay,
		Command:     "bundle",
		Args:        []string{"exec", "jekyll", "serve"},
		DockerImage: "jekyll/jekyll:latest",
	}
}

// Validate checks that the resolved options are usable before the launcher
// performs any destructive action (a bad port must fail before anything
// gets killed).
func (o *ServeOptions) Validate() error {
	if o.Port < 1 || o.Port > 65535 {
		return fmt.Errorf("port %d out of range (1-65535)", o.Port)
	}
	if o.Host == "" {
		return fmt.Errorf("bind host must not be empty")
	}
	if o.SettleDelay < 0 {
		return fmt.Errorf("settle delay must not be negative")
	}
	if o.Command == "" {
		return fmt.Errorf("server command must not be empty")
	}
	return nil
}

// postFileRegex matches Jekyll's post filename convention:
// YYYY-MM-DD-slug.md (or .markdown). Capture groups: date, slug, extension.
var postFileRegex = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)\.(md|markdown)$`)

// ParsePostFilename splits a post filename into its date and slug parts.
// Returns an error if the name does not follow the YYYY-MM-DD-slug.md
// convention, including when the date digits do not form a real date.
func ParsePostFilename(name string) (date time.Time, slug string, err error) {
	m := postFileRegex.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, "", fmt.Errorf("post filename %q does not match YYYY-MM-DD-slug.md", name)
	}
	date, err = time.Parse("2006-01-02", m[1])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("post filename %q has invalid date: %w", name, err)
	}
	return date, m[2], nil
}

// PostMeta holds the YAML front matter of a blog post. Unknown keys are
// preserved in Custom so `posts list --json` can surface theme-specific
// metadata without this tool having to know about it.
type PostMeta struct {
	Title      string         `yaml:"title" json:"title"`
	Author     string         `yaml:"author" json:"author,omitempty"`
	Date       time.Time      `yaml:"date" json:"date,omitempty"`
	Draft      bool           `yaml:"draft" json:"draft"`
	Tags       []string       `yaml:"tags" json:"tags,omitempty"`
	Categories []string       `yaml:"categories" json:"categories,omitempty"`
	Custom     map[string]any `yaml:",inline" json:"-"`
}

// Post is one markdown file under _posts, identified by its filename-derived
// date and slug. Body is the markdown source with the front matter stripped.
type Post struct {
	// Path is the file path relative to the site directory.
	Path string `json:"path"`

	// Slug is the URL fragment derived from the filename.
	Slug string `json:"slug"`

	// Date is the publication date from the filename.
	Date time.Time `json:"date"`

	// Meta is the parsed front matter.
	Meta PostMeta `json:"meta"`

	// Body is the markdown content without front matter delimiters.
	Body []byte `json:"-"`
}

// CheckProblem describes one issue found by `posts check`. Problems are
// collected, not fail-fast, so a single run reports everything wrong.
type CheckProblem struct {
	// Path is the offending file, relative to the site directory.
	Path string `json:"path"`

	// Message describes what is wrong, phrased for the post author.
	Message string `json:"message"`
}

// String formats the problem as "path: message" for text output.
func (p CheckProblem) String() string {
	return fmt.Sprintf("%s: %s", p.Path, p.Message)
}

// ExitCode defines the CLI exit codes. Scripts wrapping blogdev can branch
// on these rather than parsing error text. Note that when the external site
// generator itself exits non-zero, its exit code is propagated unchanged
// and may collide with these values — that is deliberate: the generator's
// codes are its own contract.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates a config file (_config.yml, .blogdev.jsonc,
	// .env) exists but could not be parsed.
	ExitConfigError ExitCode = 2

	// ExitPortProbeFailed indicates the stale-listener probe itself failed
	// (probe tool missing or permission denied). The launcher aborts before
	// killing anything in this case.
	ExitPortProbeFailed ExitCode = 3

	// ExitToolNotFound indicates the site generator executable could not be
	// located on the search path, even after augmentation.
	ExitToolNotFound ExitCode = 4

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	// Only relevant to `serve --docker` and the doctor command.
	ExitDockerNotRunning ExitCode = 5

	// ExitContentCheckFailed indicates `posts check` found problems.
	ExitContentCheckFailed ExitCode = 6
)

// CLIError is an error that carries a process exit code. The cli package
// translates these into os.Exit values; everything below the cli layer just
// returns them like ordinary errors.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
