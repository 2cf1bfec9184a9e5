// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RequiredType must always be present; the dispatcher falls back to it.
const RequiredType = "eta_update"

func LoadRegistry(path string) (*NotificationTypeRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg NotificationTypeRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// SaveRegistry writes reg as indented JSON, creating parent directories.
func SaveRegistry(reg *NotificationTypeRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func (r *NotificationTypeRegistry) Validate() error {
	if len(r.Types) == 0 {
		return fmt.Errorf("registry contains no notification types")
	}

	names := make(map[string]bool, len(r.Types))
	for i, t := range r.Types {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("type at position %d missing required field: name", i)
		}
		if name != t.Name {
			return fmt.Errorf("type %q has surrounding whitespace", t.Name)
		}
		if names[name] {
			return fmt.Errorf("duplicate notification type: %s", name)
		}
		names[name] = true
	}

	if !names[RequiredType] {
		return fmt.Errorf("registry must define %s", RequiredType)
	}
	return nil
}

// Find returns the entry named name.
func (r *NotificationTypeRegistry) Find(name string) (NotificationType, bool) {
	for _, t := range r.Types {
		if t.Name == name {
			return t, true
		}
	}
	return NotificationType{}, false
}
