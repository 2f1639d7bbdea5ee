package storage

import (
	"github.com/digitalocean/go-libvirt"
	"go.uber.org/zap"

	virt "github.com/jbweber/virtbind/internal/libvirt"
)

// LibvirtClient is the subset of go-libvirt the storage manager calls.
// *virt.StorageClient satisfies it; tests use an in-memory fake.
type LibvirtClient interface {
	ConnectNumOfStoragePools() (int32, error)
	ConnectListStoragePools(Maxnames int32) ([]string, error)
	ConnectNumOfDefinedStoragePools() (int32, error)
	ConnectListDefinedStoragePools(Maxnames int32) ([]string, error)
	ConnectFindStoragePoolSources(Type string, SrcSpec libvirt.OptString, Flags uint32) (string, error)

	StoragePoolLookupByName(Name string) (libvirt.StoragePool, error)
	StoragePoolLookupByUUID(UUID libvirt.UUID) (libvirt.StoragePool, error)
	StoragePoolCreateXML(XML string, Flags libvirt.StoragePoolCreateFlags) (libvirt.StoragePool, error)
	StoragePoolDefineXML(XML string, Flags uint32) (libvirt.StoragePool, error)
	StoragePoolCreate(Pool libvirt.StoragePool, Flags libvirt.StoragePoolCreateFlags) error
	StoragePoolBuild(Pool libvirt.StoragePool, Flags libvirt.StoragePoolBuildFlags) error
	StoragePoolDestroy(Pool libvirt.StoragePool) error
	StoragePoolDelete(Pool libvirt.StoragePool, Flags libvirt.StoragePoolDeleteFlags) error
	StoragePoolUndefine(Pool libvirt.StoragePool) error
	StoragePoolRefresh(Pool libvirt.StoragePool, Flags uint32) error
	StoragePoolGetInfo(Pool libvirt.StoragePool) (rState uint8, rCapacity uint64, rAllocation uint64, rAvailable uint64, err error)
	StoragePoolGetXMLDesc(Pool libvirt.StoragePool, Flags libvirt.StorageXMLFlags) (string, error)
	StoragePoolGetAutostart(Pool libvirt.StoragePool) (int32, error)
	StoragePoolSetAutostart(Pool libvirt.StoragePool, Autostart int32) error
	StoragePoolIsPersistent(Pool libvirt.StoragePool) (int32, error)
	StoragePoolListAllVolumes(Pool libvirt.StoragePool, NeedResults int32, Flags uint32) ([]libvirt.StorageVol, uint32, error)

	StorageVolLookupByName(Pool libvirt.StoragePool, Name string) (libvirt.StorageVol, error)
	StorageVolCreateXML(Pool libvirt.StoragePool, XML string, Flags libvirt.StorageVolCreateFlags) (libvirt.StorageVol, error)
	StorageVolDelete(Vol libvirt.StorageVol, Flags libvirt.StorageVolDeleteFlags) error
	StorageVolGetPath(Vol libvirt.StorageVol) (string, error)
	StorageVolGetInfo(Vol libvirt.StorageVol) (rType int8, rCapacity uint64, rAllocation uint64, err error)
	StorageVolGetXMLDesc(Vol libvirt.StorageVol, Flags uint32) (string, error)
}

var _ LibvirtClient = (*virt.StorageClient)(nil)

// Manager binds storage pools and volumes.
type Manager struct {
	client LibvirtClient
	log    *zap.Logger
}

// NewManager creates a new storage manager.
func NewManager(client LibvirtClient) *Manager {
	return &Manager{
		client: client,
		log:    zap.L().Named("storage"),
	}
}
