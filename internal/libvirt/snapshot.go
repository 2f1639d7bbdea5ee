package libvirt

import (
	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// Snapshot delete flags (virDomainSnapshotDeleteFlags).
const (
	SnapshotDeleteChildren     uint32 = 1 << 0
	SnapshotDeleteMetadataOnly uint32 = 1 << 1
	SnapshotDeleteChildrenOnly uint32 = 1 << 2
)

// Snapshot revert flags (virDomainSnapshotRevertFlags).
const (
	SnapshotRevertRunning uint32 = 1 << 0
	SnapshotRevertPaused  uint32 = 1 << 1
	SnapshotRevertForce   uint32 = 1 << 2
)

// Snapshot is a handle to one domain snapshot.
type Snapshot struct {
	domain *Domain
	snap   libvirt.DomainSnapshot
}

func (d *Domain) snapshot(s libvirt.DomainSnapshot) *Snapshot {
	return &Snapshot{domain: d, snap: s}
}

// CreateSnapshotXML takes a snapshot described by xml.
func (d *Domain) CreateSnapshotXML(xml string, flags uint32) (*Snapshot, error) {
	rpc, err := d.conn.client("virDomainSnapshotCreateXML")
	if err != nil {
		return nil, err
	}
	s, err := rpc.DomainSnapshotCreateXML(d.dom, xml, flags)
	if err != nil {
		return nil, definitionError("virDomainSnapshotCreateXML", err)
	}
	return d.snapshot(s), nil
}

// NumOfSnapshots returns the number of snapshots of the domain.
func (d *Domain) NumOfSnapshots(flags uint32) (int32, error) {
	rpc, err := d.conn.client("virDomainSnapshotNum")
	if err != nil {
		return 0, err
	}
	n, err := rpc.DomainSnapshotNum(d.dom, flags)
	if err != nil {
		return 0, retrieveError("virDomainSnapshotNum", err)
	}
	return n, nil
}

// ListSnapshots returns the snapshot names of the domain.
func (d *Domain) ListSnapshots(flags uint32) ([]string, error) {
	n, err := d.NumOfSnapshots(flags)
	if err != nil || n == 0 {
		return []string{}, err
	}
	rpc, err := d.conn.client("virDomainSnapshotListNames")
	if err != nil {
		return nil, err
	}
	names, err := rpc.DomainSnapshotListNames(d.dom, n, flags)
	if err != nil {
		return nil, retrieveError("virDomainSnapshotListNames", err)
	}
	return names, nil
}

// ListAllSnapshots returns handles for the snapshots of the domain.
func (d *Domain) ListAllSnapshots(flags uint32) ([]*Snapshot, error) {
	rpc, err := d.conn.client("virDomainListAllSnapshots")
	if err != nil {
		return nil, err
	}
	snaps, _, err := rpc.DomainListAllSnapshots(d.dom, 1, flags)
	if err != nil {
		return nil, retrieveError("virDomainListAllSnapshots", err)
	}
	out := make([]*Snapshot, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, d.snapshot(s))
	}
	return out, nil
}

// LookupSnapshotByName returns the snapshot with the given name.
func (d *Domain) LookupSnapshotByName(name string) (*Snapshot, error) {
	rpc, err := d.conn.client("virDomainSnapshotLookupByName")
	if err != nil {
		return nil, err
	}
	s, err := rpc.DomainSnapshotLookupByName(d.dom, name, 0)
	if err != nil {
		return nil, retrieveError("virDomainSnapshotLookupByName", err)
	}
	return d.snapshot(s), nil
}

// HasCurrentSnapshot reports whether the domain has a current snapshot.
func (d *Domain) HasCurrentSnapshot() (bool, error) {
	rpc, err := d.conn.client("virDomainHasCurrentSnapshot")
	if err != nil {
		return false, err
	}
	v, err := rpc.DomainHasCurrentSnapshot(d.dom, 0)
	if err != nil {
		return false, retrieveError("virDomainHasCurrentSnapshot", err)
	}
	return v == 1, nil
}

// CurrentSnapshot returns the current snapshot of the domain.
func (d *Domain) CurrentSnapshot() (*Snapshot, error) {
	rpc, err := d.conn.client("virDomainSnapshotCurrent")
	if err != nil {
		return nil, err
	}
	s, err := rpc.DomainSnapshotCurrent(d.dom, 0)
	if err != nil {
		return nil, retrieveError("virDomainSnapshotCurrent", err)
	}
	return d.snapshot(s), nil
}

// RevertToSnapshot restores the domain to snap.
func (d *Domain) RevertToSnapshot(snap *Snapshot, flags uint32) error {
	if snap == nil {
		return argumentError("virDomainRevertToSnapshot", "snapshot must not be nil")
	}
	rpc, err := d.conn.client("virDomainRevertToSnapshot")
	if err != nil {
		return err
	}
	if err := rpc.DomainRevertToSnapshot(snap.snap, flags); err != nil {
		return operationError("virDomainRevertToSnapshot", err)
	}
	return nil
}

// SnapshotInfos describes every snapshot of the domain for listings.
func (d *Domain) SnapshotInfos() ([]v1alpha1.SnapshotInfo, error) {
	snaps, err := d.ListAllSnapshots(0)
	if err != nil {
		return nil, err
	}
	infos := make([]v1alpha1.SnapshotInfo, 0, len(snaps))
	for _, s := range snaps {
		info, err := s.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Name returns the snapshot name.
func (s *Snapshot) Name() string {
	return s.snap.Name
}

// Domain returns the domain the snapshot belongs to.
func (s *Snapshot) Domain() *Domain {
	return s.domain
}

// XMLDesc returns the snapshot XML.
func (s *Snapshot) XMLDesc(flags uint32) (string, error) {
	rpc, err := s.domain.conn.client("virDomainSnapshotGetXMLDesc")
	if err != nil {
		return "", err
	}
	xml, err := rpc.DomainSnapshotGetXMLDesc(s.snap, flags)
	if err != nil {
		return "", retrieveError("virDomainSnapshotGetXMLDesc", err)
	}
	return xml, nil
}

// Delete removes the snapshot.
func (s *Snapshot) Delete(flags uint32) error {
	rpc, err := s.domain.conn.client("virDomainSnapshotDelete")
	if err != nil {
		return err
	}
	if err := rpc.DomainSnapshotDelete(s.snap, libvirt.DomainSnapshotDeleteFlags(flags)); err != nil {
		return operationError("virDomainSnapshotDelete", err)
	}
	return nil
}

// NumChildren returns the number of child snapshots.
func (s *Snapshot) NumChildren(flags uint32) (int32, error) {
	rpc, err := s.domain.conn.client("virDomainSnapshotNumChildren")
	if err != nil {
		return 0, err
	}
	n, err := rpc.DomainSnapshotNumChildren(s.snap, flags)
	if err != nil {
		return 0, retrieveError("virDomainSnapshotNumChildren", err)
	}
	return n, nil
}

// ListChildrenNames returns the names of child snapshots.
func (s *Snapshot) ListChildrenNames(flags uint32) ([]string, error) {
	n, err := s.NumChildren(flags)
	if err != nil || n == 0 {
		return []string{}, err
	}
	rpc, err := s.domain.conn.client("virDomainSnapshotListChildrenNames")
	if err != nil {
		return nil, err
	}
	names, err := rpc.DomainSnapshotListChildrenNames(s.snap, n, flags)
	if err != nil {
		return nil, retrieveError("virDomainSnapshotListChildrenNames", err)
	}
	return names, nil
}

// ListAllChildren returns handles for the child snapshots.
func (s *Snapshot) ListAllChildren(flags uint32) ([]*Snapshot, error) {
	rpc, err := s.domain.conn.client("virDomainSnapshotListAllChildren")
	if err != nil {
		return nil, err
	}
	snaps, _, err := rpc.DomainSnapshotListAllChildren(s.snap, 1, flags)
	if err != nil {
		return nil, retrieveError("virDomainSnapshotListAllChildren", err)
	}
	out := make([]*Snapshot, 0, len(snaps))
	for _, c := range snaps {
		out = append(out, s.domain.snapshot(c))
	}
	return out, nil
}

// Parent returns the parent snapshot.
func (s *Snapshot) Parent() (*Snapshot, error) {
	rpc, err := s.domain.conn.client("virDomainSnapshotGetParent")
	if err != nil {
		return nil, err
	}
	p, err := rpc.DomainSnapshotGetParent(s.snap, 0)
	if err != nil {
		return nil, retrieveError("virDomainSnapshotGetParent", err)
	}
	return s.domain.snapshot(p), nil
}

// IsCurrent reports whether this is the current snapshot of its domain.
func (s *Snapshot) IsCurrent() (bool, error) {
	rpc, err := s.domain.conn.client("virDomainSnapshotIsCurrent")
	if err != nil {
		return false, err
	}
	v, err := rpc.DomainSnapshotIsCurrent(s.snap, 0)
	if err != nil {
		return false, retrieveError("virDomainSnapshotIsCurrent", err)
	}
	return v == 1, nil
}

// HasMetadata reports whether libvirt keeps metadata for the snapshot.
func (s *Snapshot) HasMetadata() (bool, error) {
	rpc, err := s.domain.conn.client("virDomainSnapshotHasMetadata")
	if err != nil {
		return false, err
	}
	v, err := rpc.DomainSnapshotHasMetadata(s.snap, 0)
	if err != nil {
		return false, retrieveError("virDomainSnapshotHasMetadata", err)
	}
	return v == 1, nil
}

// Info collects the listing row for the snapshot. The parent name is read
// from the snapshot XML so root snapshots need no extra error handling.
func (s *Snapshot) Info() (v1alpha1.SnapshotInfo, error) {
	xml, err := s.XMLDesc(0)
	if err != nil {
		return v1alpha1.SnapshotInfo{}, err
	}
	parent, err := SnapshotParentName(xml)
	if err != nil {
		return v1alpha1.SnapshotInfo{}, err
	}
	current, err := s.IsCurrent()
	if err != nil {
		return v1alpha1.SnapshotInfo{}, err
	}
	meta, err := s.HasMetadata()
	if err != nil {
		return v1alpha1.SnapshotInfo{}, err
	}
	children, err := s.NumChildren(0)
	if err != nil {
		return v1alpha1.SnapshotInfo{}, err
	}
	return v1alpha1.SnapshotInfo{
		Name:        s.Name(),
		Parent:      parent,
		Current:     current,
		HasMetadata: meta,
		Children:    children,
	}, nil
}
