package libvirt

import (
	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// NodeDevice is a handle to a host device known to libvirt.
type NodeDevice struct {
	conn *Conn
	dev  libvirt.NodeDevice
}

func (c *Conn) nodeDevice(d libvirt.NodeDevice) *NodeDevice {
	return &NodeDevice{conn: c, dev: d}
}

// NumOfNodeDevices returns the number of host devices with the given
// capability, or of all devices when capability is empty.
func (c *Conn) NumOfNodeDevices(capability string, flags uint32) (int32, error) {
	rpc, err := c.client("virNodeNumOfDevices")
	if err != nil {
		return 0, err
	}
	n, err := rpc.NodeNumOfDevices(optString(capability), flags)
	if err != nil {
		return 0, retrieveError("virNodeNumOfDevices", err)
	}
	return n, nil
}

// ListNodeDevices returns the names of host devices with the given
// capability, e.g. "pci" or "net", or of all devices when it is empty.
func (c *Conn) ListNodeDevices(capability string, flags uint32) ([]string, error) {
	n, err := c.NumOfNodeDevices(capability, flags)
	if err != nil || n == 0 {
		return []string{}, err
	}
	rpc, err := c.client("virNodeListDevices")
	if err != nil {
		return nil, err
	}
	names, err := rpc.NodeListDevices(optString(capability), n, flags)
	if err != nil {
		return nil, retrieveError("virNodeListDevices", err)
	}
	return names, nil
}

// LookupNodeDeviceByName returns the host device with the given name.
func (c *Conn) LookupNodeDeviceByName(name string) (*NodeDevice, error) {
	rpc, err := c.client("virNodeDeviceLookupByName")
	if err != nil {
		return nil, err
	}
	d, err := rpc.NodeDeviceLookupByName(name)
	if err != nil {
		return nil, retrieveError("virNodeDeviceLookupByName", err)
	}
	return c.nodeDevice(d), nil
}

// CreateNodeDeviceXML creates a virtual host device such as an NPIV vHBA
// or a mediated device.
func (c *Conn) CreateNodeDeviceXML(xml string, flags uint32) (*NodeDevice, error) {
	rpc, err := c.client("virNodeDeviceCreateXML")
	if err != nil {
		return nil, err
	}
	d, err := rpc.NodeDeviceCreateXML(xml, flags)
	if err != nil {
		return nil, definitionError("virNodeDeviceCreateXML", err)
	}
	return c.nodeDevice(d), nil
}

// NodeDeviceInfos describes the host devices with the given capability.
func (c *Conn) NodeDeviceInfos(capability string) ([]v1alpha1.NodeDeviceInfo, error) {
	names, err := c.ListNodeDevices(capability, 0)
	if err != nil {
		return nil, err
	}
	infos := make([]v1alpha1.NodeDeviceInfo, 0, len(names))
	for _, name := range names {
		d := c.nodeDevice(libvirt.NodeDevice{Name: name})
		parent, err := d.Parent()
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		infos = append(infos, v1alpha1.NodeDeviceInfo{Name: name, Parent: parent})
	}
	return infos, nil
}

// Name returns the device name.
func (d *NodeDevice) Name() string {
	return d.dev.Name
}

// XMLDesc returns the device XML.
func (d *NodeDevice) XMLDesc(flags uint32) (string, error) {
	rpc, err := d.conn.client("virNodeDeviceGetXMLDesc")
	if err != nil {
		return "", err
	}
	xml, err := rpc.NodeDeviceGetXMLDesc(d.dev.Name, flags)
	if err != nil {
		return "", retrieveError("virNodeDeviceGetXMLDesc", err)
	}
	return xml, nil
}

// Parent returns the parent device name, or "" for the root device.
func (d *NodeDevice) Parent() (string, error) {
	rpc, err := d.conn.client("virNodeDeviceGetParent")
	if err != nil {
		return "", err
	}
	p, err := rpc.NodeDeviceGetParent(d.dev.Name)
	if err != nil {
		return "", retrieveError("virNodeDeviceGetParent", err)
	}
	if len(p) == 0 {
		return "", nil
	}
	return p[0], nil
}

// Destroy removes a virtual device created with CreateNodeDeviceXML.
func (d *NodeDevice) Destroy() error {
	rpc, err := d.conn.client("virNodeDeviceDestroy")
	if err != nil {
		return err
	}
	if err := rpc.NodeDeviceDestroy(d.dev.Name); err != nil {
		return operationError("virNodeDeviceDestroy", err)
	}
	return nil
}
