package libvirt

import (
	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// NWFilter is a handle to a libvirt network filter.
type NWFilter struct {
	conn   *Conn
	filter libvirt.Nwfilter
}

func (c *Conn) nwfilter(f libvirt.Nwfilter) *NWFilter {
	return &NWFilter{conn: c, filter: f}
}

// NumOfNWFilters returns the number of network filters.
func (c *Conn) NumOfNWFilters() (int32, error) {
	rpc, err := c.client("virConnectNumOfNWFilters")
	if err != nil {
		return 0, err
	}
	n, err := rpc.ConnectNumOfNwfilters()
	if err != nil {
		return 0, retrieveError("virConnectNumOfNWFilters", err)
	}
	return n, nil
}

// ListNWFilters returns the names of network filters.
func (c *Conn) ListNWFilters() ([]string, error) {
	n, err := c.NumOfNWFilters()
	if err != nil || n == 0 {
		return []string{}, err
	}
	rpc, err := c.client("virConnectListNWFilters")
	if err != nil {
		return nil, err
	}
	names, err := rpc.ConnectListNwfilters(n)
	if err != nil {
		return nil, retrieveError("virConnectListNWFilters", err)
	}
	return names, nil
}

// LookupNWFilterByName returns the filter with the given name.
func (c *Conn) LookupNWFilterByName(name string) (*NWFilter, error) {
	rpc, err := c.client("virNWFilterLookupByName")
	if err != nil {
		return nil, err
	}
	f, err := rpc.NwfilterLookupByName(name)
	if err != nil {
		return nil, retrieveError("virNWFilterLookupByName", err)
	}
	return c.nwfilter(f), nil
}

// LookupNWFilterByUUID returns the filter with the given UUID string.
func (c *Conn) LookupNWFilterByUUID(id string) (*NWFilter, error) {
	u, err := parseUUID("virNWFilterLookupByUUIDString", id)
	if err != nil {
		return nil, err
	}
	rpc, err := c.client("virNWFilterLookupByUUIDString")
	if err != nil {
		return nil, err
	}
	f, err := rpc.NwfilterLookupByUUID(u)
	if err != nil {
		return nil, retrieveError("virNWFilterLookupByUUIDString", err)
	}
	return c.nwfilter(f), nil
}

// DefineNWFilterXML defines or replaces a network filter.
func (c *Conn) DefineNWFilterXML(xml string) (*NWFilter, error) {
	rpc, err := c.client("virNWFilterDefineXML")
	if err != nil {
		return nil, err
	}
	f, err := rpc.NwfilterDefineXML(xml)
	if err != nil {
		return nil, definitionError("virNWFilterDefineXML", err)
	}
	return c.nwfilter(f), nil
}

// NWFilterInfos describes every network filter.
func (c *Conn) NWFilterInfos() ([]v1alpha1.NWFilterInfo, error) {
	names, err := c.ListNWFilters()
	if err != nil {
		return nil, err
	}
	infos := make([]v1alpha1.NWFilterInfo, 0, len(names))
	for _, name := range names {
		f, err := c.LookupNWFilterByName(name)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		infos = append(infos, v1alpha1.NWFilterInfo{Name: f.Name(), UUID: f.UUID()})
	}
	return infos, nil
}

// Name returns the filter name.
func (f *NWFilter) Name() string {
	return f.filter.Name
}

// UUID returns the filter UUID as a string.
func (f *NWFilter) UUID() string {
	return formatUUID(f.filter.UUID)
}

// XMLDesc returns the filter XML.
func (f *NWFilter) XMLDesc(flags uint32) (string, error) {
	rpc, err := f.conn.client("virNWFilterGetXMLDesc")
	if err != nil {
		return "", err
	}
	xml, err := rpc.NwfilterGetXMLDesc(f.filter, flags)
	if err != nil {
		return "", retrieveError("virNWFilterGetXMLDesc", err)
	}
	return xml, nil
}

// Undefine removes the filter.
func (f *NWFilter) Undefine() error {
	rpc, err := f.conn.client("virNWFilterUndefine")
	if err != nil {
		return err
	}
	if err := rpc.NwfilterUndefine(f.filter); err != nil {
		return operationError("virNWFilterUndefine", err)
	}
	return nil
}
