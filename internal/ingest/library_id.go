// Package ingest drives documentation into the index: segmenting,
// chunking, storing, and vectorizing library snippet sets.
package ingest

import (
	"fmt"
	"strings"
)

// DefaultVersion labels snippet sets ingested without an explicit version.
const DefaultVersion = "latest"

// ParseLibraryID splits a "/org/project" or "/org/project/version"
// identifier. A version suffix overrides the separate version argument at
// call sites.
func ParseLibraryID(input string) (id, version string, err error) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return "", "", fmt.Errorf("library id %q must start with '/'", input)
	}

	parts := strings.Split(strings.Trim(trimmed, "/"), "/")
	for _, p := range parts {
		if p == "" {
			return "", "", fmt.Errorf("library id %q has empty path segments", input)
		}
	}
	switch len(parts) {
	case 2:
		return "/" + parts[0] + "/" + parts[1], "", nil
	case 3:
		return "/" + parts[0] + "/" + parts[1], parts[2], nil
	default:
		return "", "", fmt.Errorf("library id %q must have the form /org/project or /org/project/version", input)
	}
}
