package inventory

import (
	"encoding/json"
	"fmt"
	"os"
)

// ExportJSON writes the host list to path as indented JSON.
func ExportJSON(hosts []Host, path string) error {
	if path == "" {
		path = "hosts.json"
	}

	data, err := json.MarshalIndent(hosts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal hosts to JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
