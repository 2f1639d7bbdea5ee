package libvirt

import (
	"strconv"

	"github.com/digitalocean/go-libvirt"
	"go.uber.org/zap"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// memoryStatNR is libvirt's VIR_DOMAIN_MEMORY_STAT_NR.
const memoryStatNR = 13

// memoryStatTags names virDomainMemoryStatTags in tag order.
var memoryStatTags = [...]string{
	"swap_in",
	"swap_out",
	"major_fault",
	"minor_fault",
	"unused",
	"available",
	"actual_balloon",
	"rss",
	"usable",
	"last_update",
	"disk_caches",
	"hugetlb_pgalloc",
	"hugetlb_pgfail",
}

// MemoryStatTagName returns the name of a memory statistic tag.
func MemoryStatTagName(tag int32) string {
	if tag >= 0 && int(tag) < len(memoryStatTags) {
		return memoryStatTags[tag]
	}
	return "tag_" + strconv.Itoa(int(tag))
}

// InterfaceStats returns traffic counters for a guest interface, named by
// its host-side target device (e.g. "vnet0").
func (d *Domain) InterfaceStats(device string) (v1alpha1.InterfaceStats, error) {
	rpc, err := d.conn.client("virDomainInterfaceStats")
	if err != nil {
		return v1alpha1.InterfaceStats{}, err
	}
	rxBytes, rxPackets, rxErrs, rxDrop, txBytes, txPackets, txErrs, txDrop, err := rpc.DomainInterfaceStats(d.dom, device)
	if err != nil {
		return v1alpha1.InterfaceStats{}, retrieveError("virDomainInterfaceStats", err)
	}
	return v1alpha1.InterfaceStats{
		Device:    device,
		RxBytes:   rxBytes,
		RxPackets: rxPackets,
		RxErrs:    rxErrs,
		RxDrop:    rxDrop,
		TxBytes:   txBytes,
		TxPackets: txPackets,
		TxErrs:    txErrs,
		TxDrop:    txDrop,
	}, nil
}

// BlockStats returns I/O counters for a guest disk, named by target
// (e.g. "vda") or source path.
func (d *Domain) BlockStats(path string) (v1alpha1.BlockStats, error) {
	rpc, err := d.conn.client("virDomainBlockStats")
	if err != nil {
		return v1alpha1.BlockStats{}, err
	}
	rdReq, rdBytes, wrReq, wrBytes, errs, err := rpc.DomainBlockStats(d.dom, path)
	if err != nil {
		return v1alpha1.BlockStats{}, retrieveError("virDomainBlockStats", err)
	}
	return v1alpha1.BlockStats{
		Device:  path,
		RdReq:   rdReq,
		RdBytes: rdBytes,
		WrReq:   wrReq,
		WrBytes: wrBytes,
		Errs:    errs,
	}, nil
}

// MemoryStats returns the balloon driver's memory statistics.
func (d *Domain) MemoryStats() ([]v1alpha1.MemoryStat, error) {
	rpc, err := d.conn.client("virDomainMemoryStats")
	if err != nil {
		return nil, err
	}
	stats, err := rpc.DomainMemoryStats(d.dom, memoryStatNR, 0)
	if err != nil {
		return nil, retrieveError("virDomainMemoryStats", err)
	}

	out := make([]v1alpha1.MemoryStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, v1alpha1.MemoryStat{Tag: MemoryStatTagName(s.Tag), Value: s.Val})
	}
	return out, nil
}

// BlockInfo returns size information for a guest disk.
func (d *Domain) BlockInfo(path string) (v1alpha1.BlockInfo, error) {
	rpc, err := d.conn.client("virDomainGetBlockInfo")
	if err != nil {
		return v1alpha1.BlockInfo{}, err
	}
	capacity, allocation, physical, err := rpc.DomainGetBlockInfo(d.dom, path, 0)
	if err != nil {
		return v1alpha1.BlockInfo{}, retrieveError("virDomainGetBlockInfo", err)
	}
	return v1alpha1.BlockInfo{Capacity: capacity, Allocation: allocation, Physical: physical}, nil
}

// BlockPeek reads size bytes at offset from a guest disk.
func (d *Domain) BlockPeek(path string, offset uint64, size uint32) ([]byte, error) {
	rpc, err := d.conn.client("virDomainBlockPeek")
	if err != nil {
		return nil, err
	}
	buf, err := rpc.DomainBlockPeek(d.dom, path, offset, size, 0)
	if err != nil {
		return nil, retrieveError("virDomainBlockPeek", err)
	}
	return buf, nil
}

// Memory peek address spaces (virDomainMemoryFlags).
const (
	MemoryVirtual  uint32 = 1 << 0
	MemoryPhysical uint32 = 1 << 1
)

// MemoryPeek reads size bytes at offset from guest memory. flags selects
// virtual or physical addressing and defaults to virtual.
func (d *Domain) MemoryPeek(offset uint64, size uint32, flags uint32) ([]byte, error) {
	if flags == 0 {
		flags = MemoryVirtual
	}
	rpc, err := d.conn.client("virDomainMemoryPeek")
	if err != nil {
		return nil, err
	}
	buf, err := rpc.DomainMemoryPeek(d.dom, offset, size, libvirt.DomainMemoryFlags(flags))
	if err != nil {
		return nil, retrieveError("virDomainMemoryPeek", err)
	}
	return buf, nil
}

// Stats gathers info, memory statistics and the counters of every disk and
// interface in the domain definition. Devices that fail to report are
// skipped; an inactive domain yields only Info.
func (d *Domain) Stats() (v1alpha1.DomainStats, error) {
	info, err := d.Info()
	if err != nil {
		return v1alpha1.DomainStats{}, err
	}
	stats := v1alpha1.DomainStats{Name: d.Name(), Info: info}
	if info.State != v1alpha1.DomainRunning && info.State != v1alpha1.DomainPaused {
		return stats, nil
	}

	devices, err := d.Devices()
	if err != nil {
		return v1alpha1.DomainStats{}, err
	}

	for _, disk := range devices.Disks {
		bs, err := d.BlockStats(disk)
		if err != nil {
			d.conn.log.Debug("skipping block stats",
				zap.String("domain", d.Name()), zap.String("device", disk), zap.Error(err))
			continue
		}
		stats.Blocks = append(stats.Blocks, bs)
	}
	for _, iface := range devices.Interfaces {
		is, err := d.InterfaceStats(iface)
		if err != nil {
			d.conn.log.Debug("skipping interface stats",
				zap.String("domain", d.Name()), zap.String("device", iface), zap.Error(err))
			continue
		}
		stats.Interfaces = append(stats.Interfaces, is)
	}

	mem, err := d.MemoryStats()
	if err == nil {
		stats.Memory = mem
	}
	return stats, nil
}
