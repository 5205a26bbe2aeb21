package docker

import (
	"fmt"
	"strconv"
)

// Label key constants for the container blogdev manages. Labels are the
// only state this tool keeps about its container — discovery works purely
// by label filtering, so a crashed CLI leaves nothing to clean up except
// the container itself.
//
// All keys share the "blogdev." prefix to avoid collisions with labels set
// by other tooling on the same host.
const (
	// LabelPrefix is the common prefix for all blogdev labels.
	LabelPrefix = "blogdev."

	// LabelManagedBy identifies containers managed by blogdev.
	// Key: "blogdev.managed-by", value: always "blogdev".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelSite stores the absolute path of the site directory the
	// container serves, distinguishing containers when several blog
	// checkouts use --docker on the same machine.
	LabelSite = LabelPrefix + "site"

	// LabelPort stores the published host port as a decimal string.
	LabelPort = LabelPrefix + "port"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "blogdev"

// BuildLabels constructs the label set applied to a serve container.
func BuildLabels(siteDir string, port int) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelSite:      siteDir,
		LabelPort:      strconv.Itoa(port),
	}
}

// IsManaged reports whether a label set marks a container as one of ours.
func IsManaged(labels map[string]string) bool {
	return labels[LabelManagedBy] == ManagedByValue
}

// SitePort extracts the published port from a managed container's labels.
func SitePort(labels map[string]string) (int, error) {
	raw, ok := labels[LabelPort]
	if !ok {
		return 0, fmt.Errorf("label %s missing", LabelPort)
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("label %s has invalid value %q", LabelPort, raw)
	}
	return port, nil
}
