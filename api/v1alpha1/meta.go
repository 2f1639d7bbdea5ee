// Package v1alpha1 contains the Go-native records returned by the virtbind
// libvirt binding.
//
// Every type here is a plain value: the binding fills them from libvirt RPC
// replies and the CLI renders them as tables, YAML or JSON. Field names use
// libvirt's units (KiB for memory, nanoseconds for CPU time) and say so in
// the field name.
package v1alpha1

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// GroupName is the API group for virtbind records.
	GroupName = "virtbind.cofront.xyz"

	// Version is the API version.
	Version = "v1alpha1"
)

// TypeMeta describes the kind and API version of a rendered list.
type TypeMeta struct {
	Kind       string `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
}

// List wraps a slice of records for YAML/JSON output, mimicking the
// Kubernetes List shape.
type List[T any] struct {
	TypeMeta `json:",inline" yaml:",inline"`
	Items    []T `json:"items" yaml:"items"`
}

// NewList returns a List with TypeMeta populated for the given kind.
func NewList[T any](kind string, items []T) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{
		TypeMeta: TypeMeta{
			Kind:       kind + "List",
			APIVersion: GroupName + "/" + Version,
		},
		Items: items,
	}
}

// Time is a wrapper around time.Time for RFC3339 JSON/YAML serialization.
type Time struct {
	time.Time `json:"-" yaml:"-"`
}

// Now returns the current time as a Time.
func Now() Time {
	return Time{Time: time.Now()}
}

// MarshalJSON implements the json.Marshaler interface.
// Returns RFC3339 formatted timestamp or null for zero values.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *Time) UnmarshalJSON(b []byte) error {
	if string(b) == "null" || string(b) == `""` {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (t Time) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Time.Format(time.RFC3339Nano), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (t *Time) UnmarshalYAML(value *yaml.Node) error {
	if value.Value == "" || value.Tag == "!!null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value.Value)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
