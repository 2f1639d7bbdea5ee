package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jbweber/virtbind/api/v1alpha1"
	"github.com/jbweber/virtbind/internal/storage"
)

// JSONFormatter formats records as indented JSON. Lists are wrapped in a
// Kubernetes-style List object:
//
//	{
//	  "kind": "DomainList",
//	  "apiVersion": "virtbind.cofront.xyz/v1alpha1",
//	  "items": [...]
//	}
type JSONFormatter struct{}

func (f *JSONFormatter) marshal(kind string, v any) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return "", fmt.Errorf("failed to marshal %s to JSON: %w", kind, err)
	}
	return buf.String(), nil
}

// FormatDomains formats domain summaries as a DomainList.
func (f *JSONFormatter) FormatDomains(domains []v1alpha1.DomainSummary) (string, error) {
	return f.marshal("domains", v1alpha1.NewList("Domain", domains))
}

// FormatSnapshots formats snapshots as a SnapshotList.
func (f *JSONFormatter) FormatSnapshots(snapshots []v1alpha1.SnapshotInfo) (string, error) {
	return f.marshal("snapshots", v1alpha1.NewList("Snapshot", snapshots))
}

// FormatNetworks formats networks as a NetworkList.
func (f *JSONFormatter) FormatNetworks(networks []v1alpha1.NetworkInfo) (string, error) {
	return f.marshal("networks", v1alpha1.NewList("Network", networks))
}

// FormatInterfaces formats host interfaces as an InterfaceList.
func (f *JSONFormatter) FormatInterfaces(ifaces []v1alpha1.InterfaceInfo) (string, error) {
	return f.marshal("interfaces", v1alpha1.NewList("Interface", ifaces))
}

// FormatNodeDevices formats node devices as a NodeDeviceList.
func (f *JSONFormatter) FormatNodeDevices(devices []v1alpha1.NodeDeviceInfo) (string, error) {
	return f.marshal("node devices", v1alpha1.NewList("NodeDevice", devices))
}

// FormatNWFilters formats network filters as a NWFilterList.
func (f *JSONFormatter) FormatNWFilters(filters []v1alpha1.NWFilterInfo) (string, error) {
	return f.marshal("network filters", v1alpha1.NewList("NWFilter", filters))
}

// FormatSecrets formats secrets as a SecretList.
func (f *JSONFormatter) FormatSecrets(secrets []v1alpha1.SecretInfo) (string, error) {
	return f.marshal("secrets", v1alpha1.NewList("Secret", secrets))
}

// FormatPools formats storage pools as a StoragePoolList.
func (f *JSONFormatter) FormatPools(pools []storage.PoolInfo) (string, error) {
	return f.marshal("pools", v1alpha1.NewList("StoragePool", pools))
}

// FormatVolumes formats storage volumes as a StorageVolumeList.
func (f *JSONFormatter) FormatVolumes(volumes []storage.VolumeInfo) (string, error) {
	return f.marshal("volumes", v1alpha1.NewList("StorageVolume", volumes))
}

// FormatParams formats typed parameters as a JSON object.
func (f *JSONFormatter) FormatParams(params map[string]any) (string, error) {
	if params == nil {
		params = map[string]any{}
	}
	return f.marshal("parameters", params)
}

// FormatMap formats key/value pairs as a JSON object.
func (f *JSONFormatter) FormatMap(values map[string]string) (string, error) {
	if values == nil {
		values = map[string]string{}
	}
	return f.marshal("values", values)
}

// FormatObject formats a single record as JSON.
func (f *JSONFormatter) FormatObject(kind string, v any) (string, error) {
	return f.marshal(kind, v)
}

// FormatRecords marshals v as JSON.
func (f *JSONFormatter) FormatRecords(kind string, _ []string, _ [][]string, v any) (string, error) {
	return f.marshal(kind, v)
}
