package libvirt

import (
	"github.com/digitalocean/go-libvirt"
	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// CPUCompareResult is the outcome of CompareCPU.
type CPUCompareResult int32

const (
	CPUCompareError        CPUCompareResult = -1
	CPUCompareIncompatible CPUCompareResult = 0
	CPUCompareIdentical    CPUCompareResult = 1
	CPUCompareSuperset     CPUCompareResult = 2
)

func (r CPUCompareResult) String() string {
	switch r {
	case CPUCompareError:
		return "error"
	case CPUCompareIncompatible:
		return "incompatible"
	case CPUCompareIdentical:
		return "identical"
	case CPUCompareSuperset:
		return "superset"
	default:
		return "unknown"
	}
}

// Type returns the hypervisor driver name, e.g. "QEMU".
func (c *Conn) Type() (string, error) {
	rpc, err := c.client("virConnectGetType")
	if err != nil {
		return "", err
	}
	t, err := rpc.ConnectGetType()
	if err != nil {
		return "", retrieveError("virConnectGetType", err)
	}
	return t, nil
}

// Version returns the encoded hypervisor version.
// Decode it with v1alpha1.ParseVersion.
func (c *Conn) Version() (uint64, error) {
	rpc, err := c.client("virConnectGetVersion")
	if err != nil {
		return 0, err
	}
	v, err := rpc.ConnectGetVersion()
	if err != nil {
		return 0, retrieveError("virConnectGetVersion", err)
	}
	return v, nil
}

// LibVersion returns the encoded libvirt version of the daemon.
func (c *Conn) LibVersion() (uint64, error) {
	rpc, err := c.client("virConnectGetLibVersion")
	if err != nil {
		return 0, err
	}
	v, err := rpc.ConnectGetLibVersion()
	if err != nil {
		return 0, retrieveError("virConnectGetLibVersion", err)
	}
	return v, nil
}

// Hostname returns the hostname of the hypervisor host.
func (c *Conn) Hostname() (string, error) {
	rpc, err := c.client("virConnectGetHostname")
	if err != nil {
		return "", err
	}
	h, err := rpc.ConnectGetHostname()
	if err != nil {
		return "", retrieveError("virConnectGetHostname", err)
	}
	return h, nil
}

// URI returns the canonical URI of the open driver.
func (c *Conn) URI() (string, error) {
	rpc, err := c.client("virConnectGetURI")
	if err != nil {
		return "", err
	}
	u, err := rpc.ConnectGetUri()
	if err != nil {
		return "", retrieveError("virConnectGetURI", err)
	}
	return u, nil
}

// MaxVCPUs returns the maximum vCPUs a guest of hvType may have.
// An empty hvType asks about the connection's default guest type.
func (c *Conn) MaxVCPUs(hvType string) (int32, error) {
	rpc, err := c.client("virConnectGetMaxVcpus")
	if err != nil {
		return 0, err
	}
	n, err := rpc.ConnectGetMaxVcpus(optString(hvType))
	if err != nil {
		return 0, retrieveError("virConnectGetMaxVcpus", err)
	}
	return n, nil
}

// Encrypted reports whether the connection is encrypted. libvirt answers
// this on the client side from the transport, so no RPC is made.
func (c *Conn) Encrypted() (bool, error) {
	if _, err := c.client("virConnectIsEncrypted"); err != nil {
		return false, err
	}
	return c.encrypted, nil
}

// Secure reports whether the connection is secure against eavesdropping.
func (c *Conn) Secure() (bool, error) {
	rpc, err := c.client("virConnectIsSecure")
	if err != nil {
		return false, err
	}
	v, err := rpc.ConnectIsSecure()
	if err != nil {
		return false, retrieveError("virConnectIsSecure", err)
	}
	return v == 1, nil
}

// Info gathers the connection summary shown by the CLI.
func (c *Conn) Info() (v1alpha1.ConnectionInfo, error) {
	var info v1alpha1.ConnectionInfo
	var err error

	if info.URI, err = c.URI(); err != nil {
		return info, err
	}
	if info.Hostname, err = c.Hostname(); err != nil {
		return info, err
	}
	if info.Type, err = c.Type(); err != nil {
		return info, err
	}
	v, err := c.Version()
	if err != nil {
		return info, err
	}
	info.Version = v1alpha1.ParseVersion(v)
	lv, err := c.LibVersion()
	if err != nil {
		return info, err
	}
	info.LibVersion = v1alpha1.ParseVersion(lv)
	if info.Encrypted, err = c.Encrypted(); err != nil {
		return info, err
	}
	if info.Secure, err = c.Secure(); err != nil {
		return info, err
	}
	return info, nil
}

// Capabilities returns the host capabilities XML.
func (c *Conn) Capabilities() (string, error) {
	rpc, err := c.client("virConnectGetCapabilities")
	if err != nil {
		return "", err
	}
	xml, err := rpc.ConnectGetCapabilities()
	if err != nil {
		return "", retrieveError("virConnectGetCapabilities", err)
	}
	return xml, nil
}

// CapabilitiesInfo returns the host capabilities parsed with libvirtxml.
func (c *Conn) CapabilitiesInfo() (*libvirtxml.Caps, error) {
	xml, err := c.Capabilities()
	if err != nil {
		return nil, err
	}
	caps := &libvirtxml.Caps{}
	if err := caps.Unmarshal(xml); err != nil {
		return nil, retrieveError("virConnectGetCapabilities", err)
	}
	return caps, nil
}

// CompareCPU compares a CPU description against the host CPU.
func (c *Conn) CompareCPU(xml string, flags uint32) (CPUCompareResult, error) {
	rpc, err := c.client("virConnectCompareCPU")
	if err != nil {
		return CPUCompareError, err
	}
	r, err := rpc.ConnectCompareCPU(xml, libvirt.ConnectCompareCPUFlags(flags))
	if err != nil {
		return CPUCompareError, retrieveError("virConnectCompareCPU", err)
	}
	return CPUCompareResult(r), nil
}

// BaselineCPU computes the most feature-rich CPU compatible with all of
// the given CPU descriptions.
func (c *Conn) BaselineCPU(xmlCPUs []string, flags uint32) (string, error) {
	if len(xmlCPUs) == 0 {
		return "", argumentError("virConnectBaselineCPU", "at least one CPU description is required")
	}
	rpc, err := c.client("virConnectBaselineCPU")
	if err != nil {
		return "", err
	}
	cpu, err := rpc.ConnectBaselineCPU(xmlCPUs, libvirt.ConnectBaselineCPUFlags(flags))
	if err != nil {
		return "", retrieveError("virConnectBaselineCPU", err)
	}
	return cpu, nil
}

// SysInfo returns the host SMBIOS information as XML.
func (c *Conn) SysInfo(flags uint32) (string, error) {
	rpc, err := c.client("virConnectGetSysinfo")
	if err != nil {
		return "", err
	}
	info, err := rpc.ConnectGetSysinfo(flags)
	if err != nil {
		return "", retrieveError("virConnectGetSysinfo", err)
	}
	return info, nil
}

// SaveImageXMLDesc returns the domain XML stored in a save image.
func (c *Conn) SaveImageXMLDesc(file string, flags uint32) (string, error) {
	rpc, err := c.client("virDomainSaveImageGetXMLDesc")
	if err != nil {
		return "", err
	}
	xml, err := rpc.DomainSaveImageGetXMLDesc(file, flags)
	if err != nil {
		return "", retrieveError("virDomainSaveImageGetXMLDesc", err)
	}
	return xml, nil
}

// DefineSaveImageXML replaces the domain XML stored in a save image.
func (c *Conn) DefineSaveImageXML(file, xml string, flags uint32) error {
	rpc, err := c.client("virDomainSaveImageDefineXML")
	if err != nil {
		return err
	}
	if err := rpc.DomainSaveImageDefineXML(file, xml, flags); err != nil {
		return definitionError("virDomainSaveImageDefineXML", err)
	}
	return nil
}

// InterfaceChangeBegin snapshots the host network configuration.
func (c *Conn) InterfaceChangeBegin(flags uint32) error {
	rpc, err := c.client("virInterfaceChangeBegin")
	if err != nil {
		return err
	}
	if err := rpc.InterfaceChangeBegin(flags); err != nil {
		return operationError("virInterfaceChangeBegin", err)
	}
	return nil
}

// InterfaceChangeCommit discards the snapshot taken by InterfaceChangeBegin.
func (c *Conn) InterfaceChangeCommit(flags uint32) error {
	rpc, err := c.client("virInterfaceChangeCommit")
	if err != nil {
		return err
	}
	if err := rpc.InterfaceChangeCommit(flags); err != nil {
		return operationError("virInterfaceChangeCommit", err)
	}
	return nil
}

// InterfaceChangeRollback restores the snapshot taken by InterfaceChangeBegin.
func (c *Conn) InterfaceChangeRollback(flags uint32) error {
	rpc, err := c.client("virInterfaceChangeRollback")
	if err != nil {
		return err
	}
	if err := rpc.InterfaceChangeRollback(flags); err != nil {
		return operationError("virInterfaceChangeRollback", err)
	}
	return nil
}

// optString converts an optional string argument; empty means NULL.
func optString(s string) libvirt.OptString {
	if s == "" {
		return libvirt.OptString{}
	}
	return libvirt.OptString{s}
}

// boolToInt32 converts a Go bool to libvirt's int flag convention.
func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// int8sToString converts a NUL-terminated C char array.
func int8sToString(b []int8) string {
	buf := make([]byte, 0, len(b))
	for _, c := range b {
		if c == 0 {
			break
		}
		buf = append(buf, byte(c))
	}
	return string(buf)
}
