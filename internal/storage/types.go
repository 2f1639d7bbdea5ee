package storage

import "fmt"

// PoolType is the storage pool backend, as written in pool XML.
type PoolType string

const (
	PoolTypeDir     PoolType = "dir"     // Directory-based storage
	PoolTypeFS      PoolType = "fs"      // Pre-formatted block device
	PoolTypeLVM     PoolType = "logical" // LVM volume group
	PoolTypeZFS     PoolType = "zfs"     // ZFS pool
	PoolTypeNFS     PoolType = "netfs"   // NFS mount
	PoolTypeCeph    PoolType = "rbd"     // Ceph RBD
	PoolTypeISCSI   PoolType = "iscsi"   // iSCSI target
	PoolTypeGluster PoolType = "gluster" // GlusterFS
)

// VolumeFormat represents the disk format.
type VolumeFormat string

const (
	VolumeFormatQCOW2 VolumeFormat = "qcow2" // QCOW2 format
	VolumeFormatRaw   VolumeFormat = "raw"   // Raw format
)

// VolumeSpec specifies how to create a storage volume.
type VolumeSpec struct {
	Name          string       // Volume name (e.g., "web01-root.qcow2")
	Format        VolumeFormat // Disk format (qcow2, raw)
	CapacityGB    uint64       // Capacity in GiB
	BackingVolume string       // Optional: volume in the same pool to use as qcow2 backing store
}

// Validate checks if the volume spec is valid.
func (v *VolumeSpec) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("volume name is required")
	}
	if v.Format == "" {
		return fmt.Errorf("volume format is required")
	}
	if v.Format != VolumeFormatQCOW2 && v.Format != VolumeFormatRaw {
		return fmt.Errorf("invalid volume format: %s (must be qcow2 or raw)", v.Format)
	}
	if v.CapacityGB == 0 {
		return fmt.Errorf("volume capacity must be greater than 0")
	}
	if v.BackingVolume != "" && v.Format != VolumeFormatQCOW2 {
		return fmt.Errorf("backing volumes are only supported for qcow2 format")
	}
	if v.BackingVolume == v.Name {
		return fmt.Errorf("volume cannot back itself")
	}
	return nil
}

// PoolInfo contains information about a storage pool.
type PoolInfo struct {
	Name       string   `json:"name" yaml:"name"`
	UUID       string   `json:"uuid" yaml:"uuid"`
	Type       PoolType `json:"type" yaml:"type"`
	Path       string   `json:"path,omitempty" yaml:"path,omitempty"`
	State      string   `json:"state" yaml:"state"`
	Autostart  bool     `json:"autostart" yaml:"autostart"`
	Persistent bool     `json:"persistent" yaml:"persistent"`
	Capacity   uint64   `json:"capacity" yaml:"capacity"`
	Allocation uint64   `json:"allocation" yaml:"allocation"`
	Available  uint64   `json:"available" yaml:"available"`
}

// CapacityGB returns the pool capacity in GiB.
func (p *PoolInfo) CapacityGB() float64 {
	return float64(p.Capacity) / (1024 * 1024 * 1024)
}

// AllocationGB returns the pool allocation in GiB.
func (p *PoolInfo) AllocationGB() float64 {
	return float64(p.Allocation) / (1024 * 1024 * 1024)
}

// AvailableGB returns the pool available space in GiB.
func (p *PoolInfo) AvailableGB() float64 {
	return float64(p.Available) / (1024 * 1024 * 1024)
}

// VolumeInfo contains information about a storage volume.
type VolumeInfo struct {
	Name       string `json:"name" yaml:"name"`
	Pool       string `json:"pool" yaml:"pool"`
	Path       string `json:"path" yaml:"path"`
	Type       string `json:"type" yaml:"type"`
	Capacity   uint64 `json:"capacity" yaml:"capacity"`
	Allocation uint64 `json:"allocation" yaml:"allocation"`
}

// CapacityGB returns the volume capacity in GiB.
func (v *VolumeInfo) CapacityGB() float64 {
	return float64(v.Capacity) / (1024 * 1024 * 1024)
}

// AllocationGB returns the volume allocation in GiB.
func (v *VolumeInfo) AllocationGB() float64 {
	return float64(v.Allocation) / (1024 * 1024 * 1024)
}

var poolStateNames = [...]string{"inactive", "building", "running", "degraded", "inaccessible"}

// PoolStateName names a virStoragePoolState value.
func PoolStateName(state uint8) string {
	if int(state) < len(poolStateNames) {
		return poolStateNames[state]
	}
	return "unknown"
}

var volumeTypeNames = [...]string{"file", "block", "dir", "network", "netdir", "ploop"}

// VolumeTypeName names a virStorageVolType value.
func VolumeTypeName(t int8) string {
	if t >= 0 && int(t) < len(volumeTypeNames) {
		return volumeTypeNames[t]
	}
	return "unknown"
}
