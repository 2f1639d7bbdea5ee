// Package loader provides functions for loading DomainTemplate resources
// from YAML files.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// LoadFromFile loads a DomainTemplate from a YAML file.
// The file must be in the virtbind.cofront.xyz/v1alpha1 format.
func LoadFromFile(path string) (*v1alpha1.DomainTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads a DomainTemplate from YAML bytes, applies defaults and
// validates it.
func LoadFromYAML(data []byte) (*v1alpha1.DomainTemplate, error) {
	var tmpl v1alpha1.DomainTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if tmpl.APIVersion == "" {
		return nil, fmt.Errorf("missing required field: apiVersion")
	}
	if tmpl.Kind == "" {
		return nil, fmt.Errorf("missing required field: kind")
	}

	expectedAPIVersion := v1alpha1.GroupName + "/" + v1alpha1.Version
	if tmpl.APIVersion != expectedAPIVersion {
		return nil, fmt.Errorf("unsupported apiVersion: %s (expected: %s)", tmpl.APIVersion, expectedAPIVersion)
	}
	if tmpl.Kind != v1alpha1.DomainTemplateKind {
		return nil, fmt.Errorf("unsupported kind: %s (expected: %s)", tmpl.Kind, v1alpha1.DomainTemplateKind)
	}

	tmpl.SetDefaults()

	if err := tmpl.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &tmpl, nil
}

// SaveToFile writes a DomainTemplate to a YAML file.
func SaveToFile(tmpl *v1alpha1.DomainTemplate, path string) error {
	tmpl.SetDefaults()

	data, err := yaml.Marshal(tmpl)
	if err != nil {
		return fmt.Errorf("failed to marshal template to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
