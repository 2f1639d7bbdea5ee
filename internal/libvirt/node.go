package libvirt

import (
	"github.com/jbweber/virtbind/api/v1alpha1"
)

// NodeSuspendTarget selects the host power state for NodeSuspendForDuration.
type NodeSuspendTarget uint32

const (
	NodeSuspendMem    NodeSuspendTarget = 0
	NodeSuspendDisk   NodeSuspendTarget = 1
	NodeSuspendHybrid NodeSuspendTarget = 2
)

// cpuStatsAllCPUs asks NodeCPUStats for the total over all CPUs.
const cpuStatsAllCPUs = -1

// memoryStatsAllCells asks NodeMemoryStats for the total over all cells.
const memoryStatsAllCells = -1

// NodeInfo returns the host CPU and memory description.
func (c *Conn) NodeInfo() (v1alpha1.NodeInfo, error) {
	rpc, err := c.client("virNodeGetInfo")
	if err != nil {
		return v1alpha1.NodeInfo{}, err
	}

	model, memory, cpus, mhz, nodes, sockets, cores, threads, err := rpc.NodeGetInfo()
	if err != nil {
		return v1alpha1.NodeInfo{}, retrieveError("virNodeGetInfo", err)
	}

	return v1alpha1.NodeInfo{
		Model:     int8sToString(model[:]),
		MemoryKiB: memory,
		CPUs:      cpus,
		MHz:       mhz,
		Nodes:     nodes,
		Sockets:   sockets,
		Cores:     cores,
		Threads:   threads,
	}, nil
}

// maxCPUs is libvirt's VIR_NODEINFO_MAXCPUS: the number of host CPU
// positions a CPU map must cover.
func maxCPUs(info v1alpha1.NodeInfo) int {
	n := int(info.Nodes) * int(info.Sockets) * int(info.Cores) * int(info.Threads)
	if n <= 0 {
		n = int(info.CPUs)
	}
	return n
}

// NodeFreeMemory returns the free host memory in bytes.
func (c *Conn) NodeFreeMemory() (uint64, error) {
	rpc, err := c.client("virNodeGetFreeMemory")
	if err != nil {
		return 0, err
	}
	free, err := rpc.NodeGetFreeMemory()
	if err != nil {
		return 0, retrieveError("virNodeGetFreeMemory", err)
	}
	return free, nil
}

// NodeCellsFreeMemory returns the free memory in bytes of NUMA cells
// starting at startCell. A maxCells of zero or less means every remaining cell.
func (c *Conn) NodeCellsFreeMemory(startCell, maxCells int32) ([]uint64, error) {
	if startCell < 0 {
		return nil, argumentError("virNodeGetCellsFreeMemory", "start cell must be >= 0, got %d", startCell)
	}

	if maxCells <= 0 {
		info, err := c.NodeInfo()
		if err != nil {
			return nil, err
		}
		maxCells = info.Nodes - startCell
		if maxCells <= 0 {
			return nil, argumentError("virNodeGetCellsFreeMemory",
				"start cell %d is beyond the %d NUMA cells of the host", startCell, info.Nodes)
		}
	}

	rpc, err := c.client("virNodeGetCellsFreeMemory")
	if err != nil {
		return nil, err
	}
	cells, err := rpc.NodeGetCellsFreeMemory(startCell, maxCells)
	if err != nil {
		return nil, retrieveError("virNodeGetCellsFreeMemory", err)
	}
	return cells, nil
}

// NodeSecurityModel returns the host security driver.
func (c *Conn) NodeSecurityModel() (v1alpha1.SecurityModel, error) {
	rpc, err := c.client("virNodeGetSecurityModel")
	if err != nil {
		return v1alpha1.SecurityModel{}, err
	}
	model, doi, err := rpc.NodeGetSecurityModel()
	if err != nil {
		return v1alpha1.SecurityModel{}, retrieveError("virNodeGetSecurityModel", err)
	}
	return v1alpha1.SecurityModel{Model: int8sToString(model), DOI: int8sToString(doi)}, nil
}

// NodeCPUStats returns CPU time counters in nanoseconds for one CPU, or
// for all CPUs when cpu is negative.
func (c *Conn) NodeCPUStats(cpu int32, flags uint32) (map[string]uint64, error) {
	if cpu < 0 {
		cpu = cpuStatsAllCPUs
	}
	rpc, err := c.client("virNodeGetCPUStats")
	if err != nil {
		return nil, err
	}

	_, n, err := rpc.NodeGetCPUStats(cpu, 0, flags)
	if err != nil {
		return nil, retrieveError("virNodeGetCPUStats", err)
	}
	if n == 0 {
		return map[string]uint64{}, nil
	}

	stats, _, err := rpc.NodeGetCPUStats(cpu, n, flags)
	if err != nil {
		return nil, retrieveError("virNodeGetCPUStats", err)
	}

	out := make(map[string]uint64, len(stats))
	for _, s := range stats {
		out[s.Field] = s.Value
	}
	return out, nil
}

// NodeMemoryStats returns memory counters in KiB for one NUMA cell, or for
// the whole host when cell is negative.
func (c *Conn) NodeMemoryStats(cell int32, flags uint32) (map[string]uint64, error) {
	if cell < 0 {
		cell = memoryStatsAllCells
	}
	rpc, err := c.client("virNodeGetMemoryStats")
	if err != nil {
		return nil, err
	}

	_, n, err := rpc.NodeGetMemoryStats(0, cell, flags)
	if err != nil {
		return nil, retrieveError("virNodeGetMemoryStats", err)
	}
	if n == 0 {
		return map[string]uint64{}, nil
	}

	stats, _, err := rpc.NodeGetMemoryStats(n, cell, flags)
	if err != nil {
		return nil, retrieveError("virNodeGetMemoryStats", err)
	}

	out := make(map[string]uint64, len(stats))
	for _, s := range stats {
		out[s.Field] = s.Value
	}
	return out, nil
}

// NodeSuspendForDuration suspends the host for duration seconds.
func (c *Conn) NodeSuspendForDuration(target NodeSuspendTarget, duration uint64, flags uint32) error {
	if target > NodeSuspendHybrid {
		return argumentError("virNodeSuspendForDuration", "unknown suspend target %d", target)
	}
	rpc, err := c.client("virNodeSuspendForDuration")
	if err != nil {
		return err
	}
	if err := rpc.NodeSuspendForDuration(uint32(target), duration, flags); err != nil {
		return operationError("virNodeSuspendForDuration", err)
	}
	return nil
}

// NodeMemoryParameters returns the host memory tunables.
func (c *Conn) NodeMemoryParameters(flags uint32) (Params, error) {
	const fn = "virNodeGetMemoryParameters"
	rpc, err := c.client(fn)
	if err != nil {
		return nil, err
	}
	tps, err := c.nodeMemoryParams(rpc, flags)
	if err != nil {
		return nil, err
	}
	return paramsFromTyped(fn, tps)
}

// SetNodeMemoryParameters updates the given host memory tunables.
func (c *Conn) SetNodeMemoryParameters(params Params, flags uint32) error {
	const fn = "virNodeSetMemoryParameters"
	if len(params) == 0 {
		return nil
	}
	rpc, err := c.client(fn)
	if err != nil {
		return err
	}
	current, err := c.nodeMemoryParams(rpc, flags)
	if err != nil {
		return err
	}
	tps, err := coerceParams(fn, current, params)
	if err != nil {
		return err
	}
	if err := rpc.NodeSetMemoryParameters(tps, flags); err != nil {
		return operationError(fn, err)
	}
	return nil
}

func (c *Conn) nodeMemoryParams(rpc rpcClient, flags uint32) ([]TypedParam, error) {
	const fn = "virNodeGetMemoryParameters"
	_, n, err := rpc.NodeGetMemoryParameters(0, flags)
	if err != nil {
		return nil, retrieveError(fn, err)
	}
	if n == 0 {
		return nil, nil
	}
	tps, _, err := rpc.NodeGetMemoryParameters(n, flags)
	if err != nil {
		return nil, retrieveError(fn, err)
	}
	return tps, nil
}

// NodeCPUMap returns the host CPUs keyed by number, true when online.
func (c *Conn) NodeCPUMap(flags uint32) (map[int]bool, error) {
	rpc, err := c.client("virNodeGetCPUMap")
	if err != nil {
		return nil, err
	}
	cpumap, _, ncpus, err := rpc.NodeGetCPUMap(1, 1, flags)
	if err != nil {
		return nil, retrieveError("virNodeGetCPUMap", err)
	}

	online := decodeCPUMap(cpumap, int(ncpus))
	out := make(map[int]bool, len(online))
	for i, on := range online {
		out[i] = on
	}
	return out, nil
}
