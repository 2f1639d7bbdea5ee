package libvirt

import (
	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// Interface is a handle to a host network interface managed by libvirt.
type Interface struct {
	conn  *Conn
	iface libvirt.Interface
}

func (c *Conn) hostInterface(i libvirt.Interface) *Interface {
	return &Interface{conn: c, iface: i}
}

// NumOfInterfaces returns the number of active host interfaces.
func (c *Conn) NumOfInterfaces() (int32, error) {
	rpc, err := c.client("virConnectNumOfInterfaces")
	if err != nil {
		return 0, err
	}
	n, err := rpc.ConnectNumOfInterfaces()
	if err != nil {
		return 0, retrieveError("virConnectNumOfInterfaces", err)
	}
	return n, nil
}

// ListInterfaces returns the names of active host interfaces.
func (c *Conn) ListInterfaces() ([]string, error) {
	n, err := c.NumOfInterfaces()
	if err != nil || n == 0 {
		return []string{}, err
	}
	rpc, err := c.client("virConnectListInterfaces")
	if err != nil {
		return nil, err
	}
	names, err := rpc.ConnectListInterfaces(n)
	if err != nil {
		return nil, retrieveError("virConnectListInterfaces", err)
	}
	return names, nil
}

// NumOfDefinedInterfaces returns the number of inactive host interfaces.
func (c *Conn) NumOfDefinedInterfaces() (int32, error) {
	rpc, err := c.client("virConnectNumOfDefinedInterfaces")
	if err != nil {
		return 0, err
	}
	n, err := rpc.ConnectNumOfDefinedInterfaces()
	if err != nil {
		return 0, retrieveError("virConnectNumOfDefinedInterfaces", err)
	}
	return n, nil
}

// ListDefinedInterfaces returns the names of inactive host interfaces.
func (c *Conn) ListDefinedInterfaces() ([]string, error) {
	n, err := c.NumOfDefinedInterfaces()
	if err != nil || n == 0 {
		return []string{}, err
	}
	rpc, err := c.client("virConnectListDefinedInterfaces")
	if err != nil {
		return nil, err
	}
	names, err := rpc.ConnectListDefinedInterfaces(n)
	if err != nil {
		return nil, retrieveError("virConnectListDefinedInterfaces", err)
	}
	return names, nil
}

// LookupInterfaceByName returns the host interface with the given name.
func (c *Conn) LookupInterfaceByName(name string) (*Interface, error) {
	rpc, err := c.client("virInterfaceLookupByName")
	if err != nil {
		return nil, err
	}
	i, err := rpc.InterfaceLookupByName(name)
	if err != nil {
		return nil, retrieveError("virInterfaceLookupByName", err)
	}
	return c.hostInterface(i), nil
}

// LookupInterfaceByMAC returns the host interface with the given MAC.
func (c *Conn) LookupInterfaceByMAC(mac string) (*Interface, error) {
	rpc, err := c.client("virInterfaceLookupByMACString")
	if err != nil {
		return nil, err
	}
	i, err := rpc.InterfaceLookupByMacString(mac)
	if err != nil {
		return nil, retrieveError("virInterfaceLookupByMACString", err)
	}
	return c.hostInterface(i), nil
}

// DefineInterfaceXML defines a host interface configuration.
func (c *Conn) DefineInterfaceXML(xml string, flags uint32) (*Interface, error) {
	rpc, err := c.client("virInterfaceDefineXML")
	if err != nil {
		return nil, err
	}
	i, err := rpc.InterfaceDefineXML(xml, flags)
	if err != nil {
		return nil, definitionError("virInterfaceDefineXML", err)
	}
	return c.hostInterface(i), nil
}

// InterfaceInfos describes every active and defined host interface.
func (c *Conn) InterfaceInfos() ([]v1alpha1.InterfaceInfo, error) {
	active, err := c.ListInterfaces()
	if err != nil {
		return nil, err
	}
	defined, err := c.ListDefinedInterfaces()
	if err != nil {
		return nil, err
	}

	infos := make([]v1alpha1.InterfaceInfo, 0, len(active)+len(defined))
	for _, name := range active {
		i, err := c.LookupInterfaceByName(name)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		infos = append(infos, v1alpha1.InterfaceInfo{Name: i.Name(), MAC: i.MAC(), Active: true})
	}
	for _, name := range defined {
		i, err := c.LookupInterfaceByName(name)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		infos = append(infos, v1alpha1.InterfaceInfo{Name: i.Name(), MAC: i.MAC()})
	}
	return infos, nil
}

// Name returns the interface name.
func (i *Interface) Name() string {
	return i.iface.Name
}

// MAC returns the interface MAC address.
func (i *Interface) MAC() string {
	return i.iface.Mac
}

// Create brings the interface up.
func (i *Interface) Create(flags uint32) error {
	rpc, err := i.conn.client("virInterfaceCreate")
	if err != nil {
		return err
	}
	if err := rpc.InterfaceCreate(i.iface, flags); err != nil {
		return operationError("virInterfaceCreate", err)
	}
	return nil
}

// Destroy brings the interface down.
func (i *Interface) Destroy(flags uint32) error {
	rpc, err := i.conn.client("virInterfaceDestroy")
	if err != nil {
		return err
	}
	if err := rpc.InterfaceDestroy(i.iface, flags); err != nil {
		return operationError("virInterfaceDestroy", err)
	}
	return nil
}

// Undefine removes the interface configuration.
func (i *Interface) Undefine() error {
	rpc, err := i.conn.client("virInterfaceUndefine")
	if err != nil {
		return err
	}
	if err := rpc.InterfaceUndefine(i.iface); err != nil {
		return operationError("virInterfaceUndefine", err)
	}
	return nil
}

// XMLDesc returns the interface XML.
func (i *Interface) XMLDesc(flags uint32) (string, error) {
	rpc, err := i.conn.client("virInterfaceGetXMLDesc")
	if err != nil {
		return "", err
	}
	xml, err := rpc.InterfaceGetXMLDesc(i.iface, flags)
	if err != nil {
		return "", retrieveError("virInterfaceGetXMLDesc", err)
	}
	return xml, nil
}

// Active reports whether the interface is up.
func (i *Interface) Active() (bool, error) {
	rpc, err := i.conn.client("virInterfaceIsActive")
	if err != nil {
		return false, err
	}
	v, err := rpc.InterfaceIsActive(i.iface)
	if err != nil {
		return false, retrieveError("virInterfaceIsActive", err)
	}
	return v == 1, nil
}
