// Package output provides formatters for displaying libvirt records
// in various formats (table, YAML, JSON).
package output

import (
	"fmt"

	"github.com/jbweber/virtbind/api/v1alpha1"
	"github.com/jbweber/virtbind/internal/storage"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// Formatter formats binding records for output.
type Formatter interface {
	FormatDomains(domains []v1alpha1.DomainSummary) (string, error)
	FormatSnapshots(snapshots []v1alpha1.SnapshotInfo) (string, error)
	FormatNetworks(networks []v1alpha1.NetworkInfo) (string, error)
	FormatInterfaces(ifaces []v1alpha1.InterfaceInfo) (string, error)
	FormatNodeDevices(devices []v1alpha1.NodeDeviceInfo) (string, error)
	FormatNWFilters(filters []v1alpha1.NWFilterInfo) (string, error)
	FormatSecrets(secrets []v1alpha1.SecretInfo) (string, error)
	FormatPools(pools []storage.PoolInfo) (string, error)
	FormatVolumes(volumes []storage.VolumeInfo) (string, error)

	// FormatParams formats a typed parameter set by field name.
	FormatParams(params map[string]any) (string, error)

	// FormatMap formats string key/value pairs, such as annotations.
	FormatMap(values map[string]string) (string, error)

	// FormatObject formats a single record. kind names it in error messages.
	FormatObject(kind string, v any) (string, error)

	// FormatRecords formats ad-hoc records. Tables print header and rows;
	// YAML and JSON marshal v.
	FormatRecords(kind string, header []string, rows [][]string, v any) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	f := Format(format)
	switch f {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: table, yaml, json)", format)
	}
}
