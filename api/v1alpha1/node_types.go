package v1alpha1

// NodeInfo describes the physical host a connection is attached to.
type NodeInfo struct {
	// Model is the CPU model string (e.g., "x86_64").
	Model string `json:"model" yaml:"model"`

	// MemoryKiB is the total host memory in kibibytes.
	MemoryKiB uint64 `json:"memoryKiB" yaml:"memoryKiB"`

	// CPUs is the number of active CPUs.
	CPUs int32 `json:"cpus" yaml:"cpus"`

	// MHz is the expected CPU frequency.
	MHz int32 `json:"mhz" yaml:"mhz"`

	// Nodes is the number of NUMA cells.
	Nodes int32 `json:"nodes" yaml:"nodes"`

	// Sockets is the number of CPU sockets per NUMA cell.
	Sockets int32 `json:"sockets" yaml:"sockets"`

	// Cores is the number of cores per socket.
	Cores int32 `json:"cores" yaml:"cores"`

	// Threads is the number of threads per core.
	Threads int32 `json:"threads" yaml:"threads"`
}

// SecurityModel describes the host security driver.
type SecurityModel struct {
	Model string `json:"model" yaml:"model"`
	DOI   string `json:"doi" yaml:"doi"`
}

// ConnectionInfo is a summary of a connection, as shown by "virtbind conn info".
type ConnectionInfo struct {
	URI        string         `json:"uri" yaml:"uri"`
	Hostname   string         `json:"hostname" yaml:"hostname"`
	Type       string         `json:"type" yaml:"type"`
	Version    LibvirtVersion `json:"version" yaml:"version"`
	LibVersion LibvirtVersion `json:"libVersion" yaml:"libVersion"`
	Encrypted  bool           `json:"encrypted" yaml:"encrypted"`
	Secure     bool           `json:"secure" yaml:"secure"`
}
