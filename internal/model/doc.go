// Package model contains the shared domain types for blogdev:
// serve options, blog post metadata, content-check problems, and the
// CLIError type that carries process exit codes from any layer up to
// the cobra command dispatcher.
package model
