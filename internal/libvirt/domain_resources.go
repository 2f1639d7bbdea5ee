package libvirt

import (
	"github.com/jbweber/virtbind/api/v1alpha1"
)

// Modification impact flags (virDomainModificationImpact), shared by the
// memory, vCPU, device, metadata and typed-parameter setters.
const (
	AffectCurrent uint32 = 0
	AffectLive    uint32 = 1 << 0
	AffectConfig  uint32 = 1 << 1
)

// VCPU count flags (virDomainVcpuFlags) beyond the impact flags.
const (
	VCPUMaximum uint32 = 1 << 2
	VCPUGuest   uint32 = 1 << 3
)

// MemoryMaximum makes SetMemoryFlags change the maximum memory
// (VIR_DOMAIN_MEM_MAXIMUM).
const MemoryMaximum uint32 = 1 << 2

// MaxMemory returns the maximum memory of the domain in KiB.
func (d *Domain) MaxMemory() (uint64, error) {
	rpc, err := d.conn.client("virDomainGetMaxMemory")
	if err != nil {
		return 0, err
	}
	mem, err := rpc.DomainGetMaxMemory(d.dom)
	if err != nil {
		return 0, retrieveError("virDomainGetMaxMemory", err)
	}
	return mem, nil
}

// SetMaxMemory sets the maximum memory of the domain in KiB.
func (d *Domain) SetMaxMemory(kib uint64) error {
	rpc, err := d.conn.client("virDomainSetMaxMemory")
	if err != nil {
		return err
	}
	if err := rpc.DomainSetMaxMemory(d.dom, kib); err != nil {
		return operationError("virDomainSetMaxMemory", err)
	}
	return nil
}

// SetMemory changes the current memory allocation of the domain in KiB.
func (d *Domain) SetMemory(kib uint64) error {
	rpc, err := d.conn.client("virDomainSetMemory")
	if err != nil {
		return err
	}
	if err := rpc.DomainSetMemory(d.dom, kib); err != nil {
		return operationError("virDomainSetMemory", err)
	}
	return nil
}

// SetMemoryFlags changes the memory allocation with explicit impact flags.
func (d *Domain) SetMemoryFlags(kib uint64, flags uint32) error {
	rpc, err := d.conn.client("virDomainSetMemoryFlags")
	if err != nil {
		return err
	}
	if err := rpc.DomainSetMemoryFlags(d.dom, kib, flags); err != nil {
		return operationError("virDomainSetMemoryFlags", err)
	}
	return nil
}

// MaxVCPUs returns the maximum number of vCPUs the domain supports.
func (d *Domain) MaxVCPUs() (int32, error) {
	rpc, err := d.conn.client("virDomainGetMaxVcpus")
	if err != nil {
		return 0, err
	}
	n, err := rpc.DomainGetMaxVcpus(d.dom)
	if err != nil {
		return 0, retrieveError("virDomainGetMaxVcpus", err)
	}
	return n, nil
}

// SetVCPUs changes the number of vCPUs of a running domain.
func (d *Domain) SetVCPUs(n uint32) error {
	rpc, err := d.conn.client("virDomainSetVcpus")
	if err != nil {
		return err
	}
	if err := rpc.DomainSetVcpus(d.dom, n); err != nil {
		return operationError("virDomainSetVcpus", err)
	}
	return nil
}

// SetVCPUsFlags changes the number of vCPUs with explicit impact flags.
func (d *Domain) SetVCPUsFlags(n uint32, flags uint32) error {
	rpc, err := d.conn.client("virDomainSetVcpusFlags")
	if err != nil {
		return err
	}
	if err := rpc.DomainSetVcpusFlags(d.dom, n, flags); err != nil {
		return operationError("virDomainSetVcpusFlags", err)
	}
	return nil
}

// NumVCPUs returns the vCPU count selected by flags.
func (d *Domain) NumVCPUs(flags uint32) (int32, error) {
	rpc, err := d.conn.client("virDomainGetVcpusFlags")
	if err != nil {
		return 0, err
	}
	n, err := rpc.DomainGetVcpusFlags(d.dom, flags)
	if err != nil {
		return 0, retrieveError("virDomainGetVcpusFlags", err)
	}
	return n, nil
}

// VCPUs describes every vCPU of the domain with its host CPU affinity.
// For a shut off domain only the configured pinning is available.
func (d *Domain) VCPUs() ([]v1alpha1.VCPUInfo, error) {
	info, err := d.Info()
	if err != nil {
		return nil, err
	}
	node, err := d.conn.NodeInfo()
	if err != nil {
		return nil, err
	}

	ncpus := maxCPUs(node)
	maplen := cpuMapLen(ncpus)
	nvcpus := int(info.NrVirtCPU)

	if info.State == v1alpha1.DomainShutoff {
		return d.pinnedVCPUs(nvcpus, ncpus, maplen)
	}

	rpc, err := d.conn.client("virDomainGetVcpus")
	if err != nil {
		return nil, err
	}
	vcpus, cpumaps, err := rpc.DomainGetVcpus(d.dom, int32(nvcpus), int32(maplen))
	if err != nil {
		return nil, retrieveError("virDomainGetVcpus", err)
	}

	out := make([]v1alpha1.VCPUInfo, 0, len(vcpus))
	for i, v := range vcpus {
		out = append(out, v1alpha1.VCPUInfo{
			Number:    v.Number,
			Online:    true,
			State:     v.State,
			CPUTimeNs: v.CPUTime,
			CPU:       v.CPU,
			CPUMap:    decodeCPUMap(cpuMapAt(cpumaps, i, maplen), ncpus),
		})
	}
	return out, nil
}

func (d *Domain) pinnedVCPUs(nvcpus, ncpus, maplen int) ([]v1alpha1.VCPUInfo, error) {
	rpc, err := d.conn.client("virDomainGetVcpuPinInfo")
	if err != nil {
		return nil, err
	}
	cpumaps, n, err := rpc.DomainGetVcpuPinInfo(d.dom, int32(nvcpus), int32(maplen), AffectConfig)
	if err != nil {
		return nil, retrieveError("virDomainGetVcpuPinInfo", err)
	}

	out := make([]v1alpha1.VCPUInfo, 0, n)
	for i := 0; i < int(n); i++ {
		out = append(out, v1alpha1.VCPUInfo{
			Number: uint32(i),
			CPUMap: decodeCPUMap(cpuMapAt(cpumaps, i, maplen), ncpus),
		})
	}
	return out, nil
}

// cpuMapAt returns the i-th map of a packed array of maplen-byte maps.
func cpuMapAt(cpumaps []byte, i, maplen int) []byte {
	start := i * maplen
	if start >= len(cpumaps) {
		return nil
	}
	end := start + maplen
	if end > len(cpumaps) {
		end = len(cpumaps)
	}
	return cpumaps[start:end]
}

// PinVCPU restricts vcpu to run on the given host CPUs.
func (d *Domain) PinVCPU(vcpu uint32, cpus []uint, flags uint32) error {
	if len(cpus) == 0 {
		return argumentError("virDomainPinVcpuFlags", "at least one host cpu is required")
	}
	node, err := d.conn.NodeInfo()
	if err != nil {
		return err
	}
	cpumap, err := encodeCPUMap(cpus, maxCPUs(node))
	if err != nil {
		return argumentError("virDomainPinVcpuFlags", "%v", err)
	}

	rpc, err := d.conn.client("virDomainPinVcpuFlags")
	if err != nil {
		return err
	}
	if err := rpc.DomainPinVcpuFlags(d.dom, vcpu, cpumap, flags); err != nil {
		return operationError("virDomainPinVcpuFlags", err)
	}
	return nil
}
