package libvirt

import (
	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// XMLDesc flags (virDomainXMLFlags).
const (
	XMLSecure     uint32 = 1 << 0
	XMLInactive   uint32 = 1 << 1
	XMLUpdateCPU  uint32 = 1 << 2
	XMLMigratable uint32 = 1 << 3
)

// MetadataType selects which metadata field Metadata and SetMetadata address.
type MetadataType int32

const (
	MetadataDescription MetadataType = 0
	MetadataTitle       MetadataType = 1
	MetadataElement     MetadataType = 2
)

// XMLDesc returns the domain XML.
func (d *Domain) XMLDesc(flags uint32) (string, error) {
	rpc, err := d.conn.client("virDomainGetXMLDesc")
	if err != nil {
		return "", err
	}
	xml, err := rpc.DomainGetXMLDesc(d.dom, libvirt.DomainXMLFlags(flags))
	if err != nil {
		return "", retrieveError("virDomainGetXMLDesc", err)
	}
	return xml, nil
}

// Autostart reports whether the domain starts with the host.
func (d *Domain) Autostart() (bool, error) {
	rpc, err := d.conn.client("virDomainGetAutostart")
	if err != nil {
		return false, err
	}
	v, err := rpc.DomainGetAutostart(d.dom)
	if err != nil {
		return false, retrieveError("virDomainGetAutostart", err)
	}
	return v == 1, nil
}

// SetAutostart enables or disables starting the domain with the host.
func (d *Domain) SetAutostart(enabled bool) error {
	rpc, err := d.conn.client("virDomainSetAutostart")
	if err != nil {
		return err
	}
	if err := rpc.DomainSetAutostart(d.dom, boolToInt32(enabled)); err != nil {
		return operationError("virDomainSetAutostart", err)
	}
	return nil
}

// AttachDevice hot-plugs or adds the device described by xml.
func (d *Domain) AttachDevice(xml string, flags uint32) error {
	rpc, err := d.conn.client("virDomainAttachDeviceFlags")
	if err != nil {
		return err
	}
	if err := rpc.DomainAttachDeviceFlags(d.dom, xml, flags); err != nil {
		return operationError("virDomainAttachDeviceFlags", err)
	}
	return nil
}

// DetachDevice removes the device described by xml.
func (d *Domain) DetachDevice(xml string, flags uint32) error {
	rpc, err := d.conn.client("virDomainDetachDeviceFlags")
	if err != nil {
		return err
	}
	if err := rpc.DomainDetachDeviceFlags(d.dom, xml, flags); err != nil {
		return operationError("virDomainDetachDeviceFlags", err)
	}
	return nil
}

// UpdateDevice changes a device in place, e.g. swaps CD-ROM media.
func (d *Domain) UpdateDevice(xml string, flags uint32) error {
	rpc, err := d.conn.client("virDomainUpdateDeviceFlags")
	if err != nil {
		return err
	}
	if err := rpc.DomainUpdateDeviceFlags(d.dom, xml, libvirt.DomainDeviceModifyFlags(flags)); err != nil {
		return operationError("virDomainUpdateDeviceFlags", err)
	}
	return nil
}

// SchedulerType returns the scheduler name and its parameter count.
func (d *Domain) SchedulerType() (string, int32, error) {
	rpc, err := d.conn.client("virDomainGetSchedulerType")
	if err != nil {
		return "", 0, err
	}
	t, n, err := rpc.DomainGetSchedulerType(d.dom)
	if err != nil {
		return "", 0, retrieveError("virDomainGetSchedulerType", err)
	}
	return t, n, nil
}

// SecurityLabel returns the security context the domain runs under.
func (d *Domain) SecurityLabel() (v1alpha1.SecurityLabel, error) {
	rpc, err := d.conn.client("virDomainGetSecurityLabel")
	if err != nil {
		return v1alpha1.SecurityLabel{}, err
	}
	label, enforcing, err := rpc.DomainGetSecurityLabel(d.dom)
	if err != nil {
		return v1alpha1.SecurityLabel{}, retrieveError("virDomainGetSecurityLabel", err)
	}
	return v1alpha1.SecurityLabel{Label: int8sToString(label), Enforcing: enforcing == 1}, nil
}

// Hostname returns the guest hostname as reported by the guest agent or
// lease file.
func (d *Domain) Hostname(flags uint32) (string, error) {
	rpc, err := d.conn.client("virDomainGetHostname")
	if err != nil {
		return "", err
	}
	h, err := rpc.DomainGetHostname(d.dom, libvirt.DomainGetHostnameFlags(flags))
	if err != nil {
		return "", retrieveError("virDomainGetHostname", err)
	}
	return h, nil
}

// QEMUMonitorCommand runs cmd on the QEMU monitor and returns its reply.
func (d *Domain) QEMUMonitorCommand(cmd string, flags uint32) (string, error) {
	if cmd == "" {
		return "", argumentError("virDomainQemuMonitorCommand", "command must not be empty")
	}
	rpc, err := d.conn.client("virDomainQemuMonitorCommand")
	if err != nil {
		return "", err
	}
	reply, err := rpc.QEMUDomainMonitorCommand(d.dom, cmd, flags)
	if err != nil {
		return "", operationError("virDomainQemuMonitorCommand", err)
	}
	return reply, nil
}

// Metadata returns the description, the title, or the custom element
// stored under namespace uri.
func (d *Domain) Metadata(t MetadataType, uri string, flags uint32) (string, error) {
	if t == MetadataElement && uri == "" {
		return "", argumentError("virDomainGetMetadata", "element metadata requires a namespace uri")
	}
	rpc, err := d.conn.client("virDomainGetMetadata")
	if err != nil {
		return "", err
	}
	v, err := rpc.DomainGetMetadata(d.dom, int32(t), optString(uri), libvirt.DomainModificationImpact(flags))
	if err != nil {
		return "", retrieveError("virDomainGetMetadata", err)
	}
	return v, nil
}

// MetadataSpec describes one SetMetadata change.
type MetadataSpec struct {
	Type MetadataType

	// Value is the new text or XML element. Empty removes the metadata.
	Value string

	// Key is the XML namespace prefix for element metadata.
	Key string

	// URI is the XML namespace for element metadata.
	URI string

	Flags uint32
}

// SetMetadata sets or removes one metadata field.
func (d *Domain) SetMetadata(spec MetadataSpec) error {
	if spec.Type == MetadataElement && spec.URI == "" {
		return argumentError("virDomainSetMetadata", "element metadata requires a namespace uri")
	}
	if spec.Type == MetadataElement && spec.Value != "" && spec.Key == "" {
		return argumentError("virDomainSetMetadata", "element metadata requires a namespace key")
	}
	rpc, err := d.conn.client("virDomainSetMetadata")
	if err != nil {
		return err
	}
	err = rpc.DomainSetMetadata(d.dom, int32(spec.Type),
		optString(spec.Value), optString(spec.Key), optString(spec.URI),
		libvirt.DomainModificationImpact(spec.Flags))
	if err != nil {
		return operationError("virDomainSetMetadata", err)
	}
	return nil
}
