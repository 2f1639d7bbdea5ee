package v1alpha1

// DomainState is libvirt's virDomainState.
type DomainState int32

const (
	DomainNoState     DomainState = 0
	DomainRunning     DomainState = 1
	DomainBlocked     DomainState = 2
	DomainPaused      DomainState = 3
	DomainShutdown    DomainState = 4
	DomainShutoff     DomainState = 5
	DomainCrashed     DomainState = 6
	DomainPMSuspended DomainState = 7
)

// String returns the name virsh uses for the state.
func (s DomainState) String() string {
	switch s {
	case DomainNoState:
		return "no state"
	case DomainRunning:
		return "running"
	case DomainBlocked:
		return "blocked"
	case DomainPaused:
		return "paused"
	case DomainShutdown:
		return "shutdown"
	case DomainShutoff:
		return "shut off"
	case DomainCrashed:
		return "crashed"
	case DomainPMSuspended:
		return "pmsuspended"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in YAML and JSON output.
func (s DomainState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DomainInfo is the result of virDomainGetInfo.
type DomainInfo struct {
	State     DomainState `json:"state" yaml:"state"`
	MaxMemKiB uint64      `json:"maxMemKiB" yaml:"maxMemKiB"`
	MemoryKiB uint64      `json:"memoryKiB" yaml:"memoryKiB"`
	NrVirtCPU uint16      `json:"nrVirtCPU" yaml:"nrVirtCPU"`
	CPUTimeNs uint64      `json:"cpuTimeNs" yaml:"cpuTimeNs"`
}

// DomainSummary is one row of a domain listing.
type DomainSummary struct {
	// ID is the runtime ID, or -1 for inactive domains.
	ID        int32       `json:"id" yaml:"id"`
	Name      string      `json:"name" yaml:"name"`
	UUID      string      `json:"uuid" yaml:"uuid"`
	State     DomainState `json:"state" yaml:"state"`
	VCPUs     uint16      `json:"vcpus" yaml:"vcpus"`
	MemoryKiB uint64      `json:"memoryKiB" yaml:"memoryKiB"`
	Autostart bool        `json:"autostart" yaml:"autostart"`
	Persisted bool        `json:"persistent" yaml:"persistent"`
}

// ControlInfo is the result of virDomainGetControlInfo.
type ControlInfo struct {
	State     uint32 `json:"state" yaml:"state"`
	Details   uint32 `json:"details" yaml:"details"`
	StateTime uint64 `json:"stateTimeMs" yaml:"stateTimeMs"`
}

// InterfaceStats are the traffic counters of one guest network interface.
// A value of -1 means the hypervisor does not report that counter.
type InterfaceStats struct {
	Device    string `json:"device" yaml:"device"`
	RxBytes   int64  `json:"rxBytes" yaml:"rxBytes"`
	RxPackets int64  `json:"rxPackets" yaml:"rxPackets"`
	RxErrs    int64  `json:"rxErrs" yaml:"rxErrs"`
	RxDrop    int64  `json:"rxDrop" yaml:"rxDrop"`
	TxBytes   int64  `json:"txBytes" yaml:"txBytes"`
	TxPackets int64  `json:"txPackets" yaml:"txPackets"`
	TxErrs    int64  `json:"txErrs" yaml:"txErrs"`
	TxDrop    int64  `json:"txDrop" yaml:"txDrop"`
}

// BlockStats are the I/O counters of one guest block device.
type BlockStats struct {
	Device  string `json:"device" yaml:"device"`
	RdReq   int64  `json:"rdReq" yaml:"rdReq"`
	RdBytes int64  `json:"rdBytes" yaml:"rdBytes"`
	WrReq   int64  `json:"wrReq" yaml:"wrReq"`
	WrBytes int64  `json:"wrBytes" yaml:"wrBytes"`
	Errs    int64  `json:"errs" yaml:"errs"`
}

// MemoryStat is one balloon statistic.
type MemoryStat struct {
	Tag   string `json:"tag" yaml:"tag"`
	Value uint64 `json:"value" yaml:"value"`
}

// BlockInfo describes the sizes of a guest block device in bytes.
type BlockInfo struct {
	Capacity   uint64 `json:"capacity" yaml:"capacity"`
	Allocation uint64 `json:"allocation" yaml:"allocation"`
	Physical   uint64 `json:"physical" yaml:"physical"`
}

// VCPUInfo describes one virtual CPU.
type VCPUInfo struct {
	Number uint32 `json:"number" yaml:"number"`

	// Online is false when the domain is not running; State, CPUTimeNs and
	// CPU are then unset and only CPUMap is meaningful.
	Online    bool   `json:"online" yaml:"online"`
	State     int32  `json:"state,omitempty" yaml:"state,omitempty"`
	CPUTimeNs uint64 `json:"cpuTimeNs,omitempty" yaml:"cpuTimeNs,omitempty"`
	CPU       int32  `json:"cpu,omitempty" yaml:"cpu,omitempty"`

	// CPUMap has one entry per host CPU; true means the vCPU may run there.
	CPUMap []bool `json:"cpuMap" yaml:"cpuMap"`
}

// JobInfo is the result of virDomainGetJobInfo.
type JobInfo struct {
	Type          int32  `json:"type" yaml:"type"`
	TimeElapsed   uint64 `json:"timeElapsedMs" yaml:"timeElapsedMs"`
	TimeRemaining uint64 `json:"timeRemainingMs" yaml:"timeRemainingMs"`
	DataTotal     uint64 `json:"dataTotal" yaml:"dataTotal"`
	DataProcessed uint64 `json:"dataProcessed" yaml:"dataProcessed"`
	DataRemaining uint64 `json:"dataRemaining" yaml:"dataRemaining"`
	MemTotal      uint64 `json:"memTotal" yaml:"memTotal"`
	MemProcessed  uint64 `json:"memProcessed" yaml:"memProcessed"`
	MemRemaining  uint64 `json:"memRemaining" yaml:"memRemaining"`
	FileTotal     uint64 `json:"fileTotal" yaml:"fileTotal"`
	FileProcessed uint64 `json:"fileProcessed" yaml:"fileProcessed"`
	FileRemaining uint64 `json:"fileRemaining" yaml:"fileRemaining"`
}

// SecurityLabel is the security context of a running domain.
type SecurityLabel struct {
	Label     string `json:"label" yaml:"label"`
	Enforcing bool   `json:"enforcing" yaml:"enforcing"`
}

// Devices lists the device targets found in a domain definition.
type Devices struct {
	Disks      []string `json:"disks" yaml:"disks"`
	Interfaces []string `json:"interfaces" yaml:"interfaces"`
}

// DomainStats aggregates the per-device statistics of a domain.
type DomainStats struct {
	Name       string           `json:"name" yaml:"name"`
	Info       DomainInfo       `json:"info" yaml:"info"`
	Blocks     []BlockStats     `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	Interfaces []InterfaceStats `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Memory     []MemoryStat     `json:"memory,omitempty" yaml:"memory,omitempty"`
}
