package libvirt

import (
	"github.com/digitalocean/go-libvirt"
)

// storageRPC lists the storage procedures StorageClient forwards.
type storageRPC interface {
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

var _ storageRPC = (*libvirt.Libvirt)(nil)

// StorageClient forwards storage pool and volume procedures over a Conn.
// Every call fails with ErrClosed once the connection has been closed.
type StorageClient struct {
	c *Conn
}

// Storage returns a client for the storage procedures of c.
func (c *Conn) Storage() *StorageClient {
	return &StorageClient{c: c}
}

func (s *StorageClient) rpc(fn string) (storageRPC, error) {
	rpc, err := s.c.client(fn)
	if err != nil {
		return nil, err
	}
	sr, ok := rpc.(storageRPC)
	if !ok {
		return nil, &Error{Kind: KindNoSupport, Func: fn, Message: "connection does not support storage procedures"}
	}
	return sr, nil
}

func (s *StorageClient) ConnectNumOfStoragePools() (int32, error) {
	rpc, err := s.rpc("virConnectNumOfStoragePools")
	if err != nil {
		return 0, err
	}
	return rpc.ConnectNumOfStoragePools()
}

func (s *StorageClient) ConnectListStoragePools(Maxnames int32) ([]string, error) {
	rpc, err := s.rpc("virConnectListStoragePools")
	if err != nil {
		return nil, err
	}
	return rpc.ConnectListStoragePools(Maxnames)
}

func (s *StorageClient) ConnectNumOfDefinedStoragePools() (int32, error) {
	rpc, err := s.rpc("virConnectNumOfDefinedStoragePools")
	if err != nil {
		return 0, err
	}
	return rpc.ConnectNumOfDefinedStoragePools()
}

func (s *StorageClient) ConnectListDefinedStoragePools(Maxnames int32) ([]string, error) {
	rpc, err := s.rpc("virConnectListDefinedStoragePools")
	if err != nil {
		return nil, err
	}
	return rpc.ConnectListDefinedStoragePools(Maxnames)
}

func (s *StorageClient) ConnectFindStoragePoolSources(Type string, SrcSpec libvirt.OptString, Flags uint32) (string, error) {
	rpc, err := s.rpc("virConnectFindStoragePoolSources")
	if err != nil {
		return "", err
	}
	return rpc.ConnectFindStoragePoolSources(Type, SrcSpec, Flags)
}

func (s *StorageClient) StoragePoolLookupByName(Name string) (libvirt.StoragePool, error) {
	rpc, err := s.rpc("virStoragePoolLookupByName")
	if err != nil {
		return libvirt.StoragePool{}, err
	}
	return rpc.StoragePoolLookupByName(Name)
}

func (s *StorageClient) StoragePoolLookupByUUID(UUID libvirt.UUID) (libvirt.StoragePool, error) {
	rpc, err := s.rpc("virStoragePoolLookupByUUID")
	if err != nil {
		return libvirt.StoragePool{}, err
	}
	return rpc.StoragePoolLookupByUUID(UUID)
}

func (s *StorageClient) StoragePoolCreateXML(XML string, Flags libvirt.StoragePoolCreateFlags) (libvirt.StoragePool, error) {
	rpc, err := s.rpc("virStoragePoolCreateXML")
	if err != nil {
		return libvirt.StoragePool{}, err
	}
	return rpc.StoragePoolCreateXML(XML, Flags)
}

func (s *StorageClient) StoragePoolDefineXML(XML string, Flags uint32) (libvirt.StoragePool, error) {
	rpc, err := s.rpc("virStoragePoolDefineXML")
	if err != nil {
		return libvirt.StoragePool{}, err
	}
	return rpc.StoragePoolDefineXML(XML, Flags)
}

func (s *StorageClient) StoragePoolCreate(Pool libvirt.StoragePool, Flags libvirt.StoragePoolCreateFlags) error {
	rpc, err := s.rpc("virStoragePoolCreate")
	if err != nil {
		return err
	}
	return rpc.StoragePoolCreate(Pool, Flags)
}

func (s *StorageClient) StoragePoolBuild(Pool libvirt.StoragePool, Flags libvirt.StoragePoolBuildFlags) error {
	rpc, err := s.rpc("virStoragePoolBuild")
	if err != nil {
		return err
	}
	return rpc.StoragePoolBuild(Pool, Flags)
}

func (s *StorageClient) StoragePoolDestroy(Pool libvirt.StoragePool) error {
	rpc, err := s.rpc("virStoragePoolDestroy")
	if err != nil {
		return err
	}
	return rpc.StoragePoolDestroy(Pool)
}

func (s *StorageClient) StoragePoolDelete(Pool libvirt.StoragePool, Flags libvirt.StoragePoolDeleteFlags) error {
	rpc, err := s.rpc("virStoragePoolDelete")
	if err != nil {
		return err
	}
	return rpc.StoragePoolDelete(Pool, Flags)
}

func (s *StorageClient) StoragePoolUndefine(Pool libvirt.StoragePool) error {
	rpc, err := s.rpc("virStoragePoolUndefine")
	if err != nil {
		return err
	}
	return rpc.StoragePoolUndefine(Pool)
}

func (s *StorageClient) StoragePoolRefresh(Pool libvirt.StoragePool, Flags uint32) error {
	rpc, err := s.rpc("virStoragePoolRefresh")
	if err != nil {
		return err
	}
	return rpc.StoragePoolRefresh(Pool, Flags)
}

func (s *StorageClient) StoragePoolGetInfo(Pool libvirt.StoragePool) (uint8, uint64, uint64, uint64, error) {
	rpc, err := s.rpc("virStoragePoolGetInfo")
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return rpc.StoragePoolGetInfo(Pool)
}

func (s *StorageClient) StoragePoolGetXMLDesc(Pool libvirt.StoragePool, Flags libvirt.StorageXMLFlags) (string, error) {
	rpc, err := s.rpc("virStoragePoolGetXMLDesc")
	if err != nil {
		return "", err
	}
	return rpc.StoragePoolGetXMLDesc(Pool, Flags)
}

func (s *StorageClient) StoragePoolGetAutostart(Pool libvirt.StoragePool) (int32, error) {
	rpc, err := s.rpc("virStoragePoolGetAutostart")
	if err != nil {
		return 0, err
	}
	return rpc.StoragePoolGetAutostart(Pool)
}

func (s *StorageClient) StoragePoolSetAutostart(Pool libvirt.StoragePool, Autostart int32) error {
	rpc, err := s.rpc("virStoragePoolSetAutostart")
	if err != nil {
		return err
	}
	return rpc.StoragePoolSetAutostart(Pool, Autostart)
}

func (s *StorageClient) StoragePoolIsPersistent(Pool libvirt.StoragePool) (int32, error) {
	rpc, err := s.rpc("virStoragePoolIsPersistent")
	if err != nil {
		return 0, err
	}
	return rpc.StoragePoolIsPersistent(Pool)
}

func (s *StorageClient) StoragePoolListAllVolumes(Pool libvirt.StoragePool, NeedResults int32, Flags uint32) ([]libvirt.StorageVol, uint32, error) {
	rpc, err := s.rpc("virStoragePoolListAllVolumes")
	if err != nil {
		return nil, 0, err
	}
	return rpc.StoragePoolListAllVolumes(Pool, NeedResults, Flags)
}

func (s *StorageClient) StorageVolLookupByName(Pool libvirt.StoragePool, Name string) (libvirt.StorageVol, error) {
	rpc, err := s.rpc("virStorageVolLookupByName")
	if err != nil {
		return libvirt.StorageVol{}, err
	}
	return rpc.StorageVolLookupByName(Pool, Name)
}

func (s *StorageClient) StorageVolCreateXML(Pool libvirt.StoragePool, XML string, Flags libvirt.StorageVolCreateFlags) (libvirt.StorageVol, error) {
	rpc, err := s.rpc("virStorageVolCreateXML")
	if err != nil {
		return libvirt.StorageVol{}, err
	}
	return rpc.StorageVolCreateXML(Pool, XML, Flags)
}

func (s *StorageClient) StorageVolDelete(Vol libvirt.StorageVol, Flags libvirt.StorageVolDeleteFlags) error {
	rpc, err := s.rpc("virStorageVolDelete")
	if err != nil {
		return err
	}
	return rpc.StorageVolDelete(Vol, Flags)
}

func (s *StorageClient) StorageVolGetPath(Vol libvirt.StorageVol) (string, error) {
	rpc, err := s.rpc("virStorageVolGetPath")
	if err != nil {
		return "", err
	}
	return rpc.StorageVolGetPath(Vol)
}

func (s *StorageClient) StorageVolGetInfo(Vol libvirt.StorageVol) (int8, uint64, uint64, error) {
	rpc, err := s.rpc("virStorageVolGetInfo")
	if err != nil {
		return 0, 0, 0, err
	}
	return rpc.StorageVolGetInfo(Vol)
}

func (s *StorageClient) StorageVolGetXMLDesc(Vol libvirt.StorageVol, Flags uint32) (string, error) {
	rpc, err := s.rpc("virStorageVolGetXMLDesc")
	if err != nil {
		return "", err
	}
	return rpc.StorageVolGetXMLDesc(Vol, Flags)
}
