// Package docker runs the site generator inside a container for machines
// without a local Ruby toolchain (`blogdev serve --docker`).
//
// It wraps the Docker Engine SDK with automatic socket detection and
// label-based tracking of the one container this tool manages per site
// directory. The eviction semantics mirror the native launcher path:
// a stale managed container is force-removed before a new one is started,
// just as a stale local process is force-killed before the port is rebound.
package docker
