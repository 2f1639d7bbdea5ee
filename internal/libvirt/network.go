package libvirt

import (
	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// Network is a handle to a libvirt virtual network.
type Network struct {
	conn *Conn
	net  libvirt.Network
}

func (c *Conn) network(n libvirt.Network) *Network {
	return &Network{conn: c, net: n}
}

// NumOfNetworks returns the number of active networks.
func (c *Conn) NumOfNetworks() (int32, error) {
	rpc, err := c.client("virConnectNumOfNetworks")
	if err != nil {
		return 0, err
	}
	n, err := rpc.ConnectNumOfNetworks()
	if err != nil {
		return 0, retrieveError("virConnectNumOfNetworks", err)
	}
	return n, nil
}

// ListNetworks returns the names of active networks.
func (c *Conn) ListNetworks() ([]string, error) {
	n, err := c.NumOfNetworks()
	if err != nil || n == 0 {
		return []string{}, err
	}
	rpc, err := c.client("virConnectListNetworks")
	if err != nil {
		return nil, err
	}
	names, err := rpc.ConnectListNetworks(n)
	if err != nil {
		return nil, retrieveError("virConnectListNetworks", err)
	}
	return names, nil
}

// NumOfDefinedNetworks returns the number of inactive persistent networks.
func (c *Conn) NumOfDefinedNetworks() (int32, error) {
	rpc, err := c.client("virConnectNumOfDefinedNetworks")
	if err != nil {
		return 0, err
	}
	n, err := rpc.ConnectNumOfDefinedNetworks()
	if err != nil {
		return 0, retrieveError("virConnectNumOfDefinedNetworks", err)
	}
	return n, nil
}

// ListDefinedNetworks returns the names of inactive persistent networks.
func (c *Conn) ListDefinedNetworks() ([]string, error) {
	n, err := c.NumOfDefinedNetworks()
	if err != nil || n == 0 {
		return []string{}, err
	}
	rpc, err := c.client("virConnectListDefinedNetworks")
	if err != nil {
		return nil, err
	}
	names, err := rpc.ConnectListDefinedNetworks(n)
	if err != nil {
		return nil, retrieveError("virConnectListDefinedNetworks", err)
	}
	return names, nil
}

// LookupNetworkByName returns the network with the given name.
func (c *Conn) LookupNetworkByName(name string) (*Network, error) {
	rpc, err := c.client("virNetworkLookupByName")
	if err != nil {
		return nil, err
	}
	n, err := rpc.NetworkLookupByName(name)
	if err != nil {
		return nil, retrieveError("virNetworkLookupByName", err)
	}
	return c.network(n), nil
}

// LookupNetworkByUUID returns the network with the given UUID string.
func (c *Conn) LookupNetworkByUUID(id string) (*Network, error) {
	u, err := parseUUID("virNetworkLookupByUUIDString", id)
	if err != nil {
		return nil, err
	}
	rpc, err := c.client("virNetworkLookupByUUIDString")
	if err != nil {
		return nil, err
	}
	n, err := rpc.NetworkLookupByUUID(u)
	if err != nil {
		return nil, retrieveError("virNetworkLookupByUUIDString", err)
	}
	return c.network(n), nil
}

// CreateNetworkXML creates and starts a transient network.
func (c *Conn) CreateNetworkXML(xml string) (*Network, error) {
	rpc, err := c.client("virNetworkCreateXML")
	if err != nil {
		return nil, err
	}
	n, err := rpc.NetworkCreateXML(xml)
	if err != nil {
		return nil, definitionError("virNetworkCreateXML", err)
	}
	return c.network(n), nil
}

// DefineNetworkXML defines a persistent network without starting it.
func (c *Conn) DefineNetworkXML(xml string) (*Network, error) {
	rpc, err := c.client("virNetworkDefineXML")
	if err != nil {
		return nil, err
	}
	n, err := rpc.NetworkDefineXML(xml)
	if err != nil {
		return nil, definitionError("virNetworkDefineXML", err)
	}
	return c.network(n), nil
}

// NetworkInfos describes every active and defined network.
func (c *Conn) NetworkInfos() ([]v1alpha1.NetworkInfo, error) {
	active, err := c.ListNetworks()
	if err != nil {
		return nil, err
	}
	defined, err := c.ListDefinedNetworks()
	if err != nil {
		return nil, err
	}

	infos := make([]v1alpha1.NetworkInfo, 0, len(active)+len(defined))
	for _, name := range append(active, defined...) {
		n, err := c.LookupNetworkByName(name)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		info, err := n.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Name returns the network name.
func (n *Network) Name() string {
	return n.net.Name
}

// UUID returns the network UUID as a string.
func (n *Network) UUID() string {
	return formatUUID(n.net.UUID)
}

// Create starts a defined network.
func (n *Network) Create() error {
	rpc, err := n.conn.client("virNetworkCreate")
	if err != nil {
		return err
	}
	if err := rpc.NetworkCreate(n.net); err != nil {
		return operationError("virNetworkCreate", err)
	}
	return nil
}

// Destroy stops the network.
func (n *Network) Destroy() error {
	rpc, err := n.conn.client("virNetworkDestroy")
	if err != nil {
		return err
	}
	if err := rpc.NetworkDestroy(n.net); err != nil {
		return operationError("virNetworkDestroy", err)
	}
	return nil
}

// Undefine removes the persistent definition of the network.
func (n *Network) Undefine() error {
	rpc, err := n.conn.client("virNetworkUndefine")
	if err != nil {
		return err
	}
	if err := rpc.NetworkUndefine(n.net); err != nil {
		return operationError("virNetworkUndefine", err)
	}
	return nil
}

// XMLDesc returns the network XML.
func (n *Network) XMLDesc(flags uint32) (string, error) {
	rpc, err := n.conn.client("virNetworkGetXMLDesc")
	if err != nil {
		return "", err
	}
	xml, err := rpc.NetworkGetXMLDesc(n.net, flags)
	if err != nil {
		return "", retrieveError("virNetworkGetXMLDesc", err)
	}
	return xml, nil
}

// BridgeName returns the host bridge the network is attached to.
func (n *Network) BridgeName() (string, error) {
	rpc, err := n.conn.client("virNetworkGetBridgeName")
	if err != nil {
		return "", err
	}
	b, err := rpc.NetworkGetBridgeName(n.net)
	if err != nil {
		return "", retrieveError("virNetworkGetBridgeName", err)
	}
	return b, nil
}

// Autostart reports whether the network starts with the host.
func (n *Network) Autostart() (bool, error) {
	rpc, err := n.conn.client("virNetworkGetAutostart")
	if err != nil {
		return false, err
	}
	v, err := rpc.NetworkGetAutostart(n.net)
	if err != nil {
		return false, retrieveError("virNetworkGetAutostart", err)
	}
	return v == 1, nil
}

// SetAutostart enables or disables starting the network with the host.
func (n *Network) SetAutostart(enabled bool) error {
	rpc, err := n.conn.client("virNetworkSetAutostart")
	if err != nil {
		return err
	}
	if err := rpc.NetworkSetAutostart(n.net, boolToInt32(enabled)); err != nil {
		return operationError("virNetworkSetAutostart", err)
	}
	return nil
}

// Active reports whether the network is running.
func (n *Network) Active() (bool, error) {
	rpc, err := n.conn.client("virNetworkIsActive")
	if err != nil {
		return false, err
	}
	v, err := rpc.NetworkIsActive(n.net)
	if err != nil {
		return false, retrieveError("virNetworkIsActive", err)
	}
	return v == 1, nil
}

// Persistent reports whether the network has a persistent definition.
func (n *Network) Persistent() (bool, error) {
	rpc, err := n.conn.client("virNetworkIsPersistent")
	if err != nil {
		return false, err
	}
	v, err := rpc.NetworkIsPersistent(n.net)
	if err != nil {
		return false, retrieveError("virNetworkIsPersistent", err)
	}
	return v == 1, nil
}

// Info collects the listing row for the network. Inactive networks may
// have no bridge yet; the bridge is then left empty.
func (n *Network) Info() (v1alpha1.NetworkInfo, error) {
	active, err := n.Active()
	if err != nil {
		return v1alpha1.NetworkInfo{}, err
	}
	persistent, err := n.Persistent()
	if err != nil {
		return v1alpha1.NetworkInfo{}, err
	}
	autostart, err := n.Autostart()
	if err != nil {
		return v1alpha1.NetworkInfo{}, err
	}
	bridge, err := n.BridgeName()
	if err != nil && active {
		return v1alpha1.NetworkInfo{}, err
	}
	return v1alpha1.NetworkInfo{
		Name:       n.Name(),
		UUID:       n.UUID(),
		Bridge:     bridge,
		Active:     active,
		Persistent: persistent,
		Autostart:  autostart,
	}, nil
}
