package libvirt

import (
	"fmt"
	"strconv"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/uuid"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// ListAllDomains flags (virConnectListAllDomainsFlags).
const (
	ListDomainsActive     uint32 = 1 << 0
	ListDomainsInactive   uint32 = 1 << 1
	ListDomainsPersistent uint32 = 1 << 2
	ListDomainsTransient  uint32 = 1 << 3
	ListDomainsRunning    uint32 = 1 << 4
	ListDomainsPaused     uint32 = 1 << 5
	ListDomainsShutoff    uint32 = 1 << 6
	ListDomainsOther      uint32 = 1 << 7
	ListDomainsAutostart  uint32 = 1 << 10
)

// NumOfDomains returns the number of active domains.
func (c *Conn) NumOfDomains() (int32, error) {
	rpc, err := c.client("virConnectNumOfDomains")
	if err != nil {
		return 0, err
	}
	n, err := rpc.ConnectNumOfDomains()
	if err != nil {
		return 0, retrieveError("virConnectNumOfDomains", err)
	}
	return n, nil
}

// ListDomains returns the IDs of active domains.
func (c *Conn) ListDomains() ([]int32, error) {
	n, err := c.NumOfDomains()
	if err != nil || n == 0 {
		return []int32{}, err
	}
	rpc, err := c.client("virConnectListDomains")
	if err != nil {
		return nil, err
	}
	ids, err := rpc.ConnectListDomains(n)
	if err != nil {
		return nil, retrieveError("virConnectListDomains", err)
	}
	return ids, nil
}

// NumOfDefinedDomains returns the number of inactive persistent domains.
func (c *Conn) NumOfDefinedDomains() (int32, error) {
	rpc, err := c.client("virConnectNumOfDefinedDomains")
	if err != nil {
		return 0, err
	}
	n, err := rpc.ConnectNumOfDefinedDomains()
	if err != nil {
		return 0, retrieveError("virConnectNumOfDefinedDomains", err)
	}
	return n, nil
}

// ListDefinedDomains returns the names of inactive persistent domains.
func (c *Conn) ListDefinedDomains() ([]string, error) {
	n, err := c.NumOfDefinedDomains()
	if err != nil || n == 0 {
		return []string{}, err
	}
	rpc, err := c.client("virConnectListDefinedDomains")
	if err != nil {
		return nil, err
	}
	names, err := rpc.ConnectListDefinedDomains(n)
	if err != nil {
		return nil, retrieveError("virConnectListDefinedDomains", err)
	}
	return names, nil
}

// ListAllDomains returns handles for the domains matching flags.
// Zero flags returns every domain.
func (c *Conn) ListAllDomains(flags uint32) ([]*Domain, error) {
	rpc, err := c.client("virConnectListAllDomains")
	if err != nil {
		return nil, err
	}
	doms, _, err := rpc.ConnectListAllDomains(1, libvirt.ConnectListAllDomainsFlags(flags))
	if err != nil {
		return nil, retrieveError("virConnectListAllDomains", err)
	}

	out := make([]*Domain, 0, len(doms))
	for _, d := range doms {
		out = append(out, c.domain(d))
	}
	return out, nil
}

// DomainSummaries lists every domain with its state and sizing, the way
// "virsh list --all" does.
func (c *Conn) DomainSummaries() ([]v1alpha1.DomainSummary, error) {
	doms, err := c.ListAllDomains(0)
	if err != nil {
		return nil, err
	}

	summaries := make([]v1alpha1.DomainSummary, 0, len(doms))
	for _, d := range doms {
		s, err := d.Summary()
		if err != nil {
			if IsNotFound(err) {
				// Undefined between listing and inspection.
				continue
			}
			return nil, fmt.Errorf("failed to inspect domain %s: %w", d.Name(), err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// CreateDomainXML creates and starts a transient domain.
func (c *Conn) CreateDomainXML(xml string, flags uint32) (*Domain, error) {
	rpc, err := c.client("virDomainCreateXML")
	if err != nil {
		return nil, err
	}
	d, err := rpc.DomainCreateXML(xml, libvirt.DomainCreateFlags(flags))
	if err != nil {
		return nil, definitionError("virDomainCreateXML", err)
	}
	return c.domain(d), nil
}

// DefineDomainXML defines a persistent domain without starting it.
func (c *Conn) DefineDomainXML(xml string) (*Domain, error) {
	rpc, err := c.client("virDomainDefineXML")
	if err != nil {
		return nil, err
	}
	d, err := rpc.DomainDefineXML(xml)
	if err != nil {
		return nil, definitionError("virDomainDefineXML", err)
	}
	return c.domain(d), nil
}

// DefineDomainFromTemplate renders tmpl to domain XML and defines it.
func (c *Conn) DefineDomainFromTemplate(tmpl *v1alpha1.DomainTemplate) (*Domain, error) {
	xml, err := GenerateDomainXML(tmpl)
	if err != nil {
		return nil, argumentError("virDomainDefineXML", "%v", err)
	}
	return c.DefineDomainXML(xml)
}

// LookupDomainByName returns the domain with the given name.
func (c *Conn) LookupDomainByName(name string) (*Domain, error) {
	rpc, err := c.client("virDomainLookupByName")
	if err != nil {
		return nil, err
	}
	d, err := rpc.DomainLookupByName(name)
	if err != nil {
		return nil, retrieveError("virDomainLookupByName", err)
	}
	return c.domain(d), nil
}

// LookupDomainByID returns the active domain with the given runtime ID.
func (c *Conn) LookupDomainByID(id int32) (*Domain, error) {
	rpc, err := c.client("virDomainLookupByID")
	if err != nil {
		return nil, err
	}
	d, err := rpc.DomainLookupByID(id)
	if err != nil {
		return nil, retrieveError("virDomainLookupByID", err)
	}
	return c.domain(d), nil
}

// LookupDomainByUUID returns the domain with the given UUID string.
func (c *Conn) LookupDomainByUUID(id string) (*Domain, error) {
	u, err := parseUUID("virDomainLookupByUUIDString", id)
	if err != nil {
		return nil, err
	}
	rpc, err := c.client("virDomainLookupByUUIDString")
	if err != nil {
		return nil, err
	}
	d, err := rpc.DomainLookupByUUID(u)
	if err != nil {
		return nil, retrieveError("virDomainLookupByUUIDString", err)
	}
	return c.domain(d), nil
}

// LookupDomain resolves a domain by name, UUID or numeric ID, in the order
// virsh does.
func (c *Conn) LookupDomain(ref string) (*Domain, error) {
	if id, err := parseDomainID(ref); err == nil {
		if d, err := c.LookupDomainByID(id); err == nil {
			return d, nil
		}
	}
	if _, err := uuid.Parse(ref); err == nil {
		if d, err := c.LookupDomainByUUID(ref); err == nil {
			return d, nil
		}
	}
	return c.LookupDomainByName(ref)
}

// RestoreDomain restores a domain saved with Domain.Save.
func (c *Conn) RestoreDomain(file string) error {
	rpc, err := c.client("virDomainRestore")
	if err != nil {
		return err
	}
	if err := rpc.DomainRestore(file); err != nil {
		return operationError("virDomainRestore", err)
	}
	return nil
}

// DomainXMLFromNative converts a native hypervisor config (e.g.
// "qemu-argv") to domain XML.
func (c *Conn) DomainXMLFromNative(format, config string, flags uint32) (string, error) {
	rpc, err := c.client("virConnectDomainXMLFromNative")
	if err != nil {
		return "", err
	}
	xml, err := rpc.ConnectDomainXMLFromNative(format, config, flags)
	if err != nil {
		return "", retrieveError("virConnectDomainXMLFromNative", err)
	}
	return xml, nil
}

// DomainXMLToNative converts domain XML to a native hypervisor config.
func (c *Conn) DomainXMLToNative(format, xml string, flags uint32) (string, error) {
	rpc, err := c.client("virConnectDomainXMLToNative")
	if err != nil {
		return "", err
	}
	native, err := rpc.ConnectDomainXMLToNative(format, xml, flags)
	if err != nil {
		return "", retrieveError("virConnectDomainXMLToNative", err)
	}
	return native, nil
}

func parseUUID(fn, s string) (libvirt.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return libvirt.UUID{}, argumentError(fn, "invalid uuid %q: %v", s, err)
	}
	return libvirt.UUID(u), nil
}

func formatUUID(u libvirt.UUID) string {
	return uuid.UUID(u).String()
}

func parseDomainID(s string) (int32, error) {
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}
