package v1alpha1

// SnapshotInfo is one row of a snapshot listing.
type SnapshotInfo struct {
	Name        string `json:"name" yaml:"name"`
	Parent      string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Current     bool   `json:"current" yaml:"current"`
	HasMetadata bool   `json:"hasMetadata" yaml:"hasMetadata"`
	Children    int32  `json:"children" yaml:"children"`
}

// NetworkInfo is one row of a virtual network listing.
type NetworkInfo struct {
	Name       string `json:"name" yaml:"name"`
	UUID       string `json:"uuid" yaml:"uuid"`
	Bridge     string `json:"bridge,omitempty" yaml:"bridge,omitempty"`
	Active     bool   `json:"active" yaml:"active"`
	Persistent bool   `json:"persistent" yaml:"persistent"`
	Autostart  bool   `json:"autostart" yaml:"autostart"`
}

// InterfaceInfo is one row of a host interface listing.
type InterfaceInfo struct {
	Name   string `json:"name" yaml:"name"`
	MAC    string `json:"mac" yaml:"mac"`
	Active bool   `json:"active" yaml:"active"`
}

// NodeDeviceInfo is one row of a node device listing.
type NodeDeviceInfo struct {
	Name   string `json:"name" yaml:"name"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// NWFilterInfo is one row of a network filter listing.
type NWFilterInfo struct {
	Name string `json:"name" yaml:"name"`
	UUID string `json:"uuid" yaml:"uuid"`
}

// SecretInfo is one row of a secret listing. Secret values are never
// included.
type SecretInfo struct {
	UUID      string `json:"uuid" yaml:"uuid"`
	UsageType string `json:"usageType" yaml:"usageType"`
	UsageID   string `json:"usageID" yaml:"usageID"`
}
