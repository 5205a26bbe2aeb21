package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultServeOptions verifies the baseline configuration matches the
// documented contract: Jekyll via bundler on 0.0.0.0:4000 with live-reload.
func TestDefaultServeOptions(t *testing.T) {
	opts := DefaultServeOptions()

	assert.Equal(t, 4000, opts.Port)
	assert.Equal(t, "0.0.0.0", opts.Host)
	assert.True(t, opts.LiveReload)
	assert.Equal(t, 2*time.Second, opts.SettleDelay)
	assert.Equal(t, "bundle", opts.Command)
	assert.Equal(t, []string{"exec", "jekyll", "serve"}, opts.Args)

	// The defaults must always pass their own validation.
	assert.NoError(t, opts.Validate())
}

// TestServeOptionsValidate exercises the validation rules with a table of
// broken configurations.
func TestServeOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServeOptions)
		wantErr string
	}{
		{
			name:    "port zero",
			mutate:  func(o *ServeOptions) { o.Port = 0 },
			wantErr: "out of range",
		},
		{
			name:    "port too large",
			mutate:  func(o *ServeOptions) { o.Port = 70000 },
			wantErr: "out of range",
		},
		{
			name:    "empty host",
			mutate:  func(o *ServeOptions) { o.Host = "" },
			wantErr: "host",
		},
		{
			name:    "negative settle delay",
			mutate:  func(o *ServeOptions) { o.SettleDelay = -time.Second },
			wantErr: "settle delay",
		},
		{
			name:    "empty command",
			mutate:  func(o *ServeOptions) { o.Command = "" },
			wantErr: "command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultServeOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestParsePostFilename covers the Jekyll filename convention, including
// slugs that themselves contain hyphens and digits.
func TestParsePostFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantDate string
		wantSlug string
		wantErr  bool
	}{
		{
			name:     "simple post",
			filename: "2026-02-28-hello-world.md",
			wantDate: "2026-02-28",
			wantSlug: "hello-world",
		},
		{
			name:     "markdown extension",
			filename: "2025-12-01-year-in-review.markdown",
			wantDate: "2025-12-01",
			wantSlug: "year-in-review",
		},
		{
			name:     "slug with digits",
			filename: "2026-01-15-go-1-25-notes.md",
			wantDate: "2026-01-15",
			wantSlug: "go-1-25-notes",
		},
		{
			name:     "missing date",
			filename: "hello-world.md",
			wantErr:  true,
		},
		{
			name:     "impossible date",
			filename: "2026-13-40-hello.md",
			wantErr:  true,
		},
		{
			name:     "wrong extension",
			filename: "2026-02-28-hello.txt",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, slug, err := ParsePostFilename(tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, date.Format("2006-01-02"))
			assert.Equal(t, tt.wantSlug, slug)
		})
	}
}

// TestCLIError verifies message formatting and error-chain unwrapping.
func TestCLIError(t *testing.T) {
	underlying := errors.New("lsof: command not found")
	err := WrapCLIError(ExitPortProbeFailed, "failed to probe port 4000", underlying)

	assert.Equal(t, ExitPortProbeFailed, err.Code)
	assert.Equal(t, "failed to probe port 4000: lsof: command not found", err.Error())

	// errors.Is must see through the CLIError wrapper via Unwrap.
	assert.True(t, errors.Is(err, underlying))

	// Without an underlying error only the message is printed.
	bare := NewCLIError(ExitToolNotFound, "bundle not found on PATH")
	assert.Equal(t, "bundle not found on PATH", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
