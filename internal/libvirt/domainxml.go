package libvirt

import (
	"fmt"

	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/virtbind/api/v1alpha1"
	"github.com/jbweber/virtbind/internal/naming"
)

// GenerateDomainXML generates libvirt domain XML from a domain template.
// The template is validated first; unset optional fields take their defaults.
func GenerateDomainXML(tmpl *v1alpha1.DomainTemplate) (string, error) {
	if tmpl == nil {
		return "", fmt.Errorf("domain template is nil")
	}
	t := *tmpl
	t.SetDefaults()
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("invalid domain template: %w", err)
	}

	domain := &libvirtxml.Domain{
		Type: t.Type,
		Name: t.Name,
		UUID: t.UUID,
		Memory: &libvirtxml.DomainMemory{
			Value: t.MemoryMiB,
			Unit:  "MiB",
		},
		VCPU: &libvirtxml.DomainVCPU{
			Placement: "static",
			Value:     t.VCPUs,
		},
		OS: &libvirtxml.DomainOS{
			Type: &libvirtxml.DomainOSType{
				Arch: t.Arch,
				Type: "hvm",
			},
			BIOS: &libvirtxml.DomainBIOS{
				UseSerial: "yes",
			},
		},
		Features: &libvirtxml.DomainFeatureList{
			ACPI: &libvirtxml.DomainFeature{},
			APIC: &libvirtxml.DomainFeatureAPIC{},
			PAE:  &libvirtxml.DomainFeature{},
		},
		CPU: &libvirtxml.DomainCPU{
			Mode: t.CPUMode,
		},
		Clock: &libvirtxml.DomainClock{
			Offset: "utc",
			Timer: []libvirtxml.DomainTimer{
				{Name: "rtc", TickPolicy: "catchup"},
				{Name: "pit", TickPolicy: "delay"},
				{Name: "hpet", Present: "no"},
			},
		},
		OnPoweroff: "destroy",
		OnReboot:   "restart",
		OnCrash:    "restart",
		Devices: &libvirtxml.DomainDeviceList{
			MemBalloon: &libvirtxml.DomainMemBalloon{
				Model: "virtio",
			},
			RNGs: []libvirtxml.DomainRNG{
				{
					Model: "virtio",
					Backend: &libvirtxml.DomainRNGBackend{
						Random: &libvirtxml.DomainRNGBackendRandom{
							Device: "/dev/urandom",
						},
					},
				},
			},
		},
	}

	if t.Firmware == "efi" {
		domain.OS.Firmware = "efi"
	}
	if t.CPUMode == "host-model" {
		domain.CPU.Model = &libvirtxml.DomainCPUModel{Fallback: "allow"}
	}

	for _, d := range t.Disks {
		domain.Devices.Disks = append(domain.Devices.Disks, diskXML(d))
	}

	for i, iface := range t.Interfaces {
		ifaceXML, err := interfaceXML(iface)
		if err != nil {
			return "", fmt.Errorf("interfaces[%d]: %w", i, err)
		}
		domain.Devices.Interfaces = append(domain.Devices.Interfaces, ifaceXML)
	}

	// Serial console
	domain.Devices.Serials = []libvirtxml.DomainSerial{
		{
			Source: &libvirtxml.DomainChardevSource{
				Pty: &libvirtxml.DomainChardevSourcePty{},
			},
			Target: &libvirtxml.DomainSerialTarget{
				Port: func() *uint { p := uint(0); return &p }(),
			},
		},
	}
	domain.Devices.Consoles = []libvirtxml.DomainConsole{
		{
			Source: &libvirtxml.DomainChardevSource{
				Pty: &libvirtxml.DomainChardevSourcePty{},
			},
			Target: &libvirtxml.DomainConsoleTarget{
				Type: "serial",
				Port: func() *uint { p := uint(0); return &p }(),
			},
		},
	}

	xml, err := domain.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal domain XML: %w", err)
	}
	return xml, nil
}

func diskXML(d v1alpha1.DiskTemplate) libvirtxml.DomainDisk {
	disk := libvirtxml.DomainDisk{
		Device: "disk",
		Driver: &libvirtxml.DomainDiskDriver{
			Name: "qemu",
			Type: d.Format,
		},
		Target: &libvirtxml.DomainDiskTarget{
			Dev: d.Target,
			Bus: "virtio",
		},
	}

	if d.Volume != "" {
		disk.Source = &libvirtxml.DomainDiskSource{
			Volume: &libvirtxml.DomainDiskSourceVolume{
				Pool:   d.Pool,
				Volume: d.Volume,
			},
		}
	} else {
		disk.Source = &libvirtxml.DomainDiskSource{
			File: &libvirtxml.DomainDiskSourceFile{
				File: d.Path,
			},
		}
	}

	if d.CDROM {
		disk.Device = "cdrom"
		disk.Target.Bus = "sata"
		disk.ReadOnly = &libvirtxml.DomainDiskReadOnly{}
	} else {
		disk.Driver.Cache = "none"
	}

	if d.BootOrder > 0 {
		disk.Boot = &libvirtxml.DomainDeviceBoot{Order: d.BootOrder}
	}
	return disk
}

func interfaceXML(i v1alpha1.InterfaceTemplate) (libvirtxml.DomainInterface, error) {
	iface := libvirtxml.DomainInterface{
		Model: &libvirtxml.DomainInterfaceModel{
			Type: i.Model,
		},
	}
	if i.Bridge != "" {
		iface.Source = &libvirtxml.DomainInterfaceSource{
			Bridge: &libvirtxml.DomainInterfaceSourceBridge{Bridge: i.Bridge},
		}
	} else {
		iface.Source = &libvirtxml.DomainInterfaceSource{
			Network: &libvirtxml.DomainInterfaceSourceNetwork{Network: i.Network},
		}
	}
	mac := i.MAC
	if i.IP != "" {
		dev, err := naming.InterfaceNameFromIP(i.IP)
		if err != nil {
			return iface, err
		}
		iface.Target = &libvirtxml.DomainInterfaceTarget{Dev: dev}
		if mac == "" {
			if mac, err = naming.MACFromIP(i.IP); err != nil {
				return iface, err
			}
		}
	}
	if mac != "" {
		iface.MAC = &libvirtxml.DomainInterfaceMAC{Address: mac}
	}
	return iface, nil
}

// ParseDevices extracts disk and interface target names from domain XML.
// Disks without a target and interfaces without a host-side device (the
// domain is not running) are skipped.
func ParseDevices(domainXML string) (v1alpha1.Devices, error) {
	var domain libvirtxml.Domain
	if err := domain.Unmarshal(domainXML); err != nil {
		return v1alpha1.Devices{}, fmt.Errorf("failed to parse domain XML: %w", err)
	}

	devices := v1alpha1.Devices{Disks: []string{}, Interfaces: []string{}}
	if domain.Devices == nil {
		return devices, nil
	}
	for _, disk := range domain.Devices.Disks {
		if disk.Target != nil && disk.Target.Dev != "" {
			devices.Disks = append(devices.Disks, disk.Target.Dev)
		}
	}
	for _, iface := range domain.Devices.Interfaces {
		if iface.Target != nil && iface.Target.Dev != "" {
			devices.Interfaces = append(devices.Interfaces, iface.Target.Dev)
		}
	}
	return devices, nil
}

// Devices returns the disk and interface targets of the live definition.
func (d *Domain) Devices() (v1alpha1.Devices, error) {
	xml, err := d.XMLDesc(0)
	if err != nil {
		return v1alpha1.Devices{}, err
	}
	return ParseDevices(xml)
}

// SnapshotXML builds the XML for CreateSnapshotXML. An empty name lets
// libvirt pick one from the current time.
func SnapshotXML(name, description string) (string, error) {
	snap := &libvirtxml.DomainSnapshot{
		Name:        name,
		Description: description,
	}
	xml, err := snap.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot XML: %w", err)
	}
	return xml, nil
}

// SnapshotParentName reads the parent snapshot name from snapshot XML.
func SnapshotParentName(snapshotXML string) (string, error) {
	var snap libvirtxml.DomainSnapshot
	if err := snap.Unmarshal(snapshotXML); err != nil {
		return "", fmt.Errorf("failed to parse snapshot XML: %w", err)
	}
	if snap.Parent == nil {
		return "", nil
	}
	return snap.Parent.Name, nil
}
