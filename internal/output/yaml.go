package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/virtbind/api/v1alpha1"
	"github.com/jbweber/virtbind/internal/storage"
)

// YAMLFormatter formats records as YAML. Lists are wrapped in a
// Kubernetes-style List document.
type YAMLFormatter struct{}

func (f *YAMLFormatter) marshal(kind string, v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to YAML: %w", kind, err)
	}
	return string(data), nil
}

// FormatDomains formats domain summaries as a DomainList.
func (f *YAMLFormatter) FormatDomains(domains []v1alpha1.DomainSummary) (string, error) {
	return f.marshal("domains", v1alpha1.NewList("Domain", domains))
}

// FormatSnapshots formats snapshots as a SnapshotList.
func (f *YAMLFormatter) FormatSnapshots(snapshots []v1alpha1.SnapshotInfo) (string, error) {
	return f.marshal("snapshots", v1alpha1.NewList("Snapshot", snapshots))
}

// FormatNetworks formats networks as a NetworkList.
func (f *YAMLFormatter) FormatNetworks(networks []v1alpha1.NetworkInfo) (string, error) {
	return f.marshal("networks", v1alpha1.NewList("Network", networks))
}

// FormatInterfaces formats host interfaces as an InterfaceList.
func (f *YAMLFormatter) FormatInterfaces(ifaces []v1alpha1.InterfaceInfo) (string, error) {
	return f.marshal("interfaces", v1alpha1.NewList("Interface", ifaces))
}

// FormatNodeDevices formats node devices as a NodeDeviceList.
func (f *YAMLFormatter) FormatNodeDevices(devices []v1alpha1.NodeDeviceInfo) (string, error) {
	return f.marshal("node devices", v1alpha1.NewList("NodeDevice", devices))
}

// FormatNWFilters formats network filters as a NWFilterList.
func (f *YAMLFormatter) FormatNWFilters(filters []v1alpha1.NWFilterInfo) (string, error) {
	return f.marshal("network filters", v1alpha1.NewList("NWFilter", filters))
}

// FormatSecrets formats secrets as a SecretList.
func (f *YAMLFormatter) FormatSecrets(secrets []v1alpha1.SecretInfo) (string, error) {
	return f.marshal("secrets", v1alpha1.NewList("Secret", secrets))
}

// FormatPools formats storage pools as a StoragePoolList.
func (f *YAMLFormatter) FormatPools(pools []storage.PoolInfo) (string, error) {
	return f.marshal("pools", v1alpha1.NewList("StoragePool", pools))
}

// FormatVolumes formats storage volumes as a StorageVolumeList.
func (f *YAMLFormatter) FormatVolumes(volumes []storage.VolumeInfo) (string, error) {
	return f.marshal("volumes", v1alpha1.NewList("StorageVolume", volumes))
}

// FormatParams formats typed parameters as a YAML mapping.
func (f *YAMLFormatter) FormatParams(params map[string]any) (string, error) {
	return f.marshal("parameters", params)
}

// FormatMap formats key/value pairs as a YAML mapping.
func (f *YAMLFormatter) FormatMap(values map[string]string) (string, error) {
	return f.marshal("values", values)
}

// FormatObject formats a single record as YAML.
func (f *YAMLFormatter) FormatObject(kind string, v any) (string, error) {
	return f.marshal(kind, v)
}

// FormatRecords marshals v as YAML.
func (f *YAMLFormatter) FormatRecords(kind string, _ []string, _ [][]string, v any) (string, error) {
	return f.marshal(kind, v)
}
