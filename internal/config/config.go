// Package config resolves the serve configuration for a blog directory.
//
// Three optional sources are layered over the built-in defaults, in
// increasing priority:
//
//  1. _config.yml — the generator's own site config; its port/host/
//     livereload keys are honored so the launcher probes the same port the
//     generator would bind.
//  2. .blogdev.jsonc — launcher-specific overrides in JSONC (JSON with
//     comments), the same format convention used by editor and devcontainer
//     configs. Comments are stripped with github.com/tidwall/jsonc before
//     parsing with encoding/json.
//  3. .env — loaded into the process environment (never written back), so
//     GEM_HOME-style settings reach the generator without shell profile
//     changes.
//
// A missing file is never an error; a file that exists but cannot be parsed
// always is.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/hnakamura/blogdev/internal/model"
)

// SiteConfigFile is the generator's site configuration filename.
const SiteConfigFile = "_config.yml"

// LauncherConfigFile is the launcher's own override filename.
const LauncherConfigFile = ".blogdev.jsonc"

// EnvFile is the dotenv filename loaded into the process environment.
const EnvFile = ".env"

// siteConfig captures the subset of _config.yml the launcher cares about.
// Pointer fields distinguish "key absent" from a zero value, so an explicit
// `livereload: false` is not confused with the key missing.
type siteConfig struct {
	Host       string `yaml:"host"`
	Port       *int   `yaml:"port"`
	LiveReload *bool  `yaml:"livereload"`
}

// launcherConfig is the .blogdev.jsonc schema. All fields are optional
// overrides; absent fields leave the lower layers untouched.
type launcherConfig struct {
	// Port overrides the dev-server port.
	Port *int `json:"port"`

	// Host overrides the bind address.
	Host string `json:"host"`

	// LiveReload toggles the --livereload flag.
	LiveReload *bool `json:"livereload"`

	// SettleSeconds overrides the post-kill settle delay, in seconds.
	// Zero disables the wait entirely.
	SettleSeconds *int `json:"settleSeconds"`

	// Command replaces the server executable (default "bundle").
	Command string `json:"command"`

	// Args replaces the leading arguments (default ["exec","jekyll","serve"]).
	Args []string `json:"args"`

	// ExtraPath lists directories appended to PATH before the handoff.
	ExtraPath []string `json:"extraPath"`

	// DockerImage overrides the image used by `serve --docker`.
	DockerImage string `json:"dockerImage"`
}

// Load resolves the effective ServeOptions for the given site directory.
// The directory itself must exist; every config file inside it is optional.
func Load(siteDir string) (model.ServeOptions, error) {
	opts := model.DefaultServeOptions()

	abs, err := filepath.Abs(siteDir)
	if err != nil {
		return opts, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("cannot resolve site directory %q", siteDir), err)
	}
	opts.SiteDir = abs

	if info, statErr := os.Stat(abs); statErr != nil || !info.IsDir() {
		return opts, model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("site directory %q does not exist", siteDir))
	}

	// Layer 3 first: .env mutates the process environment, which the other
	// layers never read, so ordering relative to them is irrelevant — but
	// it must happen before the launcher snapshots os.Environ().
	if err := loadDotenv(filepath.Join(abs, EnvFile)); err != nil {
		return opts, err
	}

	if err := applySiteConfig(filepath.Join(abs, SiteConfigFile), &opts); err != nil {
		return opts, err
	}

	if err := applyLauncherConfig(filepath.Join(abs, LauncherConfigFile), &opts); err != nil {
		return opts, err
	}

	if err := opts.Validate(); err != nil {
		return opts, model.WrapCLIError(model.ExitConfigError, "resolved configuration is invalid", err)
	}
	return opts, nil
}

// loadDotenv loads the dotenv file into the process environment. godotenv
// does not overwrite variables that are already set, so the operator's
// shell always wins over the checked-in file.
func loadDotenv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("cannot read %s", filepath.Base(path)), err)
	}
	if err := godotenv.Load(path); err != nil {
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("malformed %s", filepath.Base(path)), err)
	}
	return nil
}

// applySiteConfig overlays _config.yml values onto opts.
func applySiteConfig(path string, opts *model.ServeOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("cannot read %s", filepath.Base(path)), err)
	}

	var sc siteConfig
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("malformed %s", filepath.Base(path)), err)
	}

	if sc.Host != "" {
		opts.Host = sc.Host
	}
	if sc.Port != nil {
		opts.Port = *sc.Port
	}
	if sc.LiveReload != nil {
		opts.LiveReload = *sc.LiveReload
	}
	return nil
}

// applyLauncherConfig overlays .blogdev.jsonc values onto opts. This layer
// wins over _config.yml because it exists specifically to configure this
// tool.
func applyLauncherConfig(path string, opts *model.ServeOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("cannot read %s", filepath.Base(path)), err)
	}

	var lc launcherConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &lc); err != nil {
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("malformed %s", filepath.Base(path)), err)
	}

	if lc.Port != nil {
		opts.Port = *lc.Port
	}
	if lc.Host != "" {
		opts.Host = lc.Host
	}
	if lc.LiveReload != nil {
		opts.LiveReload = *lc.LiveReload
	}
	if lc.SettleSeconds != nil {
		opts.SettleDelay = time.Duration(*lc.SettleSeconds) * time.Second
	}
	if lc.Command != "" {
		opts.Command = lc.Command
	}
	if lc.Args != nil {
		opts.Args = append([]string(nil), lc.Args...)
	}
	if len(lc.ExtraPath) > 0 {
		opts.ExtraPath = append([]string(nil), lc.ExtraPath...)
	}
	if lc.DockerImage != "" {
		opts.DockerImage = lc.DockerImage
	}
	return nil
}
