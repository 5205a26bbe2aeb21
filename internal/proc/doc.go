// Package proc provides the production process-control capabilities for
// the launcher: Killer delivers the unconditional kill used to evict stale
// dev servers, and Runner performs the blocking handoff to the external
// site generator. Platform differences (SIGKILL vs taskkill) are isolated
// behind build tags.
package proc
