package v1alpha1

import (
	"fmt"
	"net"
	"regexp"

	"github.com/google/uuid"

	"github.com/jbweber/virtbind/internal/naming"
)

// DomainTemplateKind is the kind string for DomainTemplate documents.
const DomainTemplateKind = "DomainTemplate"

var domainNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// DomainTemplate is a compact description of a KVM guest that virtbind turns
// into full libvirt domain XML before defining it.
type DomainTemplate struct {
	TypeMeta `json:",inline" yaml:",inline"`

	// Name is the libvirt domain name.
	Name string `json:"name" yaml:"name"`

	// UUID is optional; libvirt generates one when empty.
	// +optional
	UUID string `json:"uuid,omitempty" yaml:"uuid,omitempty"`

	// Type is the hypervisor type. Defaults to "kvm".
	// +optional
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Arch is the guest architecture. Defaults to "x86_64".
	// +optional
	Arch string `json:"arch,omitempty" yaml:"arch,omitempty"`

	// VCPUs is the number of virtual CPUs.
	VCPUs uint `json:"vcpus" yaml:"vcpus"`

	// MemoryMiB is the guest memory in mebibytes.
	MemoryMiB uint `json:"memoryMiB" yaml:"memoryMiB"`

	// CPUMode is "host-model" (default) or "host-passthrough".
	// +optional
	CPUMode string `json:"cpuMode,omitempty" yaml:"cpuMode,omitempty"`

	// Firmware is "efi" or "bios" (default).
	// +optional
	Firmware string `json:"firmware,omitempty" yaml:"firmware,omitempty"`

	Disks      []DiskTemplate      `json:"disks,omitempty" yaml:"disks,omitempty"`
	Interfaces []InterfaceTemplate `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
}

// DiskTemplate attaches a storage volume or a host file to the guest.
// Exactly one of Volume or Path must be set.
type DiskTemplate struct {
	// Target is the guest device name (e.g., "vda").
	Target string `json:"target" yaml:"target"`

	// Pool and Volume reference a libvirt storage volume.
	Pool   string `json:"pool,omitempty" yaml:"pool,omitempty"`
	Volume string `json:"volume,omitempty" yaml:"volume,omitempty"`

	// SizeGiB creates the volume with this capacity when it does not exist
	// yet. Zero means the volume must already exist.
	// +optional
	SizeGiB uint64 `json:"sizeGiB,omitempty" yaml:"sizeGiB,omitempty"`

	// BackingVolume is a volume in the same pool used as the qcow2 backing
	// store of a newly created volume.
	// +optional
	BackingVolume string `json:"backingVolume,omitempty" yaml:"backingVolume,omitempty"`

	// Path is a host file or block device.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Format is the image format. Defaults to "qcow2".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// CDROM attaches the disk read-only on a SATA bus.
	CDROM bool `json:"cdrom,omitempty" yaml:"cdrom,omitempty"`

	// BootOrder is the boot priority; 0 leaves it unset.
	BootOrder uint `json:"bootOrder,omitempty" yaml:"bootOrder,omitempty"`
}

// InterfaceTemplate attaches the guest to a bridge or a libvirt network.
// Exactly one of Bridge or Network must be set.
type InterfaceTemplate struct {
	Bridge  string `json:"bridge,omitempty" yaml:"bridge,omitempty"`
	Network string `json:"network,omitempty" yaml:"network,omitempty"`

	// MAC is optional; libvirt generates one when empty.
	MAC string `json:"mac,omitempty" yaml:"mac,omitempty"`

	// IP is the guest's IPv4 address. When set, the MAC (unless given) and
	// the host tap device name are derived from it.
	// +optional
	IP string `json:"ip,omitempty" yaml:"ip,omitempty"`

	// Model defaults to "virtio".
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// NewDomainTemplate returns a template with defaults applied.
func NewDomainTemplate(name string) *DomainTemplate {
	t := &DomainTemplate{Name: name, VCPUs: 1, MemoryMiB: 1024}
	t.SetDefaults()
	return t
}

// SetDefaults fills unset optional fields.
func (t *DomainTemplate) SetDefaults() {
	if t.APIVersion == "" {
		t.APIVersion = GroupName + "/" + Version
	}
	if t.Kind == "" {
		t.Kind = DomainTemplateKind
	}
	if t.Type == "" {
		t.Type = "kvm"
	}
	if t.Arch == "" {
		t.Arch = "x86_64"
	}
	if t.CPUMode == "" {
		t.CPUMode = "host-model"
	}
	if t.Firmware == "" {
		t.Firmware = "bios"
	}
	for i := range t.Disks {
		if t.Disks[i].Format == "" {
			t.Disks[i].Format = "qcow2"
		}
	}
	for i := range t.Interfaces {
		if t.Interfaces[i].Model == "" {
			t.Interfaces[i].Model = "virtio"
		}
	}
}

// Validate checks the template structure. It does not check that pools,
// volumes, bridges or networks exist.
func (t *DomainTemplate) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !domainNamePattern.MatchString(t.Name) {
		return fmt.Errorf("name must start with an alphanumeric character and contain only alphanumerics, '.', '_' or '-', got %q", t.Name)
	}
	if t.UUID != "" {
		if _, err := uuid.Parse(t.UUID); err != nil {
			return fmt.Errorf("invalid uuid %q: %w", t.UUID, err)
		}
	}
	if t.VCPUs == 0 {
		return fmt.Errorf("vcpus must be > 0")
	}
	if t.MemoryMiB == 0 {
		return fmt.Errorf("memoryMiB must be > 0")
	}
	switch t.CPUMode {
	case "", "host-model", "host-passthrough":
	default:
		return fmt.Errorf("cpuMode must be host-model or host-passthrough, got %q", t.CPUMode)
	}
	switch t.Firmware {
	case "", "bios", "efi":
	default:
		return fmt.Errorf("firmware must be bios or efi, got %q", t.Firmware)
	}

	targets := make(map[string]bool)
	for i, d := range t.Disks {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("disks[%d]: %w", i, err)
		}
		if targets[d.Target] {
			return fmt.Errorf("disks[%d]: duplicate target %q", i, d.Target)
		}
		targets[d.Target] = true
	}

	for i, n := range t.Interfaces {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("interfaces[%d]: %w", i, err)
		}
	}

	return nil
}

// Validate checks a single disk entry.
func (d *DiskTemplate) Validate() error {
	if d.Target == "" {
		return fmt.Errorf("target is required")
	}
	if d.Volume == "" && d.Path == "" {
		return fmt.Errorf("must specify either volume or path")
	}
	if d.Volume != "" && d.Path != "" {
		return fmt.Errorf("cannot specify both volume and path")
	}
	if d.Volume != "" && d.Pool == "" {
		return fmt.Errorf("pool is required with volume")
	}
	switch d.Format {
	case "", "qcow2", "raw":
	default:
		return fmt.Errorf("format must be qcow2 or raw, got %q", d.Format)
	}
	if (d.SizeGiB > 0 || d.BackingVolume != "") && d.Volume == "" {
		return fmt.Errorf("sizeGiB and backingVolume require volume")
	}
	if d.BackingVolume != "" {
		if d.Format == "raw" {
			return fmt.Errorf("backingVolume requires qcow2 format")
		}
		if d.BackingVolume == d.Volume {
			return fmt.Errorf("volume cannot back itself")
		}
		if d.SizeGiB == 0 {
			return fmt.Errorf("backingVolume requires sizeGiB")
		}
	}
	return nil
}

// Validate checks a single interface entry.
func (n *InterfaceTemplate) Validate() error {
	if n.Bridge == "" && n.Network == "" {
		return fmt.Errorf("must specify either bridge or network")
	}
	if n.Bridge != "" && n.Network != "" {
		return fmt.Errorf("cannot specify both bridge and network")
	}
	if n.MAC != "" {
		if _, err := net.ParseMAC(n.MAC); err != nil {
			return fmt.Errorf("invalid mac %q: %w", n.MAC, err)
		}
	}
	if n.IP != "" {
		if err := naming.ValidateIP(n.IP); err != nil {
			return fmt.Errorf("invalid ip %q: %w", n.IP, err)
		}
	}
	return nil
}
