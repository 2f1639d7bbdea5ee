package vm

import (
	"context"
	"time"

	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/storage"
)

// domain is the part of *libvirt.Domain that provisioning needs.
type domain interface {
	Name() string
	Create(flags uint32) error
	SetAutostart(enabled bool) error
	Active() (bool, error)
	Stop(ctx context.Context, timeout time.Duration) (bool, error)
	Undefine(flags uint32) error
	XMLDesc(flags uint32) (string, error)
}

// hypervisor looks up and defines domains.
//
// In production, this is satisfied by connAdapter over *libvirt.Conn.
// In tests, this is satisfied by mock implementations.
type hypervisor interface {
	LookupDomainByName(name string) (domain, error)
	DefineDomainXML(xml string) (domain, error)
}

// storageManager defines the volume operations needed for provisioning.
//
// In production, this is satisfied by *storage.Manager.
type storageManager interface {
	VolumeExists(ctx context.Context, poolName, volumeName string) (bool, error)
	CreateVolume(ctx context.Context, poolName string, spec storage.VolumeSpec) error
	DeleteVolume(ctx context.Context, poolName, volumeName string) error
}

// connAdapter narrows *libvirt.Conn to hypervisor. The conversion keeps a
// failed lookup from producing a non-nil interface around a nil pointer.
type connAdapter struct {
	conn *libvirt.Conn
}

func (a connAdapter) LookupDomainByName(name string) (domain, error) {
	d, err := a.conn.LookupDomainByName(name)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (a connAdapter) DefineDomainXML(xml string) (domain, error) {
	d, err := a.conn.DefineDomainXML(xml)
	if err != nil {
		return nil, err
	}
	return d, nil
}

var (
	_ domain         = (*libvirt.Domain)(nil)
	_ storageManager = (*storage.Manager)(nil)
)
