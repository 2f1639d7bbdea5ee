package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/uuid"
	"go.uber.org/zap"
	libvirtxml "libvirt.org/go/libvirtxml"

	virt "github.com/jbweber/virtbind/internal/libvirt"
)

// Pool delete flags (virStoragePoolDeleteFlags).
const (
	PoolDeleteNormal libvirt.StoragePoolDeleteFlags = 0
	PoolDeleteZeroed libvirt.StoragePoolDeleteFlags = 1
)

// NumOfPools returns the number of active storage pools.
func (m *Manager) NumOfPools(ctx context.Context) (int32, error) {
	n, err := m.client.ConnectNumOfStoragePools()
	if err != nil {
		return 0, virt.NewError(virt.KindRetrieve, "virConnectNumOfStoragePools", err)
	}
	return n, nil
}

// ListPools returns the names of active storage pools.
func (m *Manager) ListPools(ctx context.Context) ([]string, error) {
	n, err := m.NumOfPools(ctx)
	if err != nil || n == 0 {
		return []string{}, err
	}
	names, err := m.client.ConnectListStoragePools(n)
	if err != nil {
		return nil, virt.NewError(virt.KindRetrieve, "virConnectListStoragePools", err)
	}
	return names, nil
}

// NumOfDefinedPools returns the number of inactive persistent pools.
func (m *Manager) NumOfDefinedPools(ctx context.Context) (int32, error) {
	n, err := m.client.ConnectNumOfDefinedStoragePools()
	if err != nil {
		return 0, virt.NewError(virt.KindRetrieve, "virConnectNumOfDefinedStoragePools", err)
	}
	return n, nil
}

// ListDefinedPools returns the names of inactive persistent pools.
func (m *Manager) ListDefinedPools(ctx context.Context) ([]string, error) {
	n, err := m.NumOfDefinedPools(ctx)
	if err != nil || n == 0 {
		return []string{}, err
	}
	names, err := m.client.ConnectListDefinedStoragePools(n)
	if err != nil {
		return nil, virt.NewError(virt.KindRetrieve, "virConnectListDefinedStoragePools", err)
	}
	return names, nil
}

// LookupPool returns the pool with the given name.
func (m *Manager) LookupPool(ctx context.Context, name string) (libvirt.StoragePool, error) {
	pool, err := m.client.StoragePoolLookupByName(name)
	if err != nil {
		return libvirt.StoragePool{}, virt.NewError(virt.KindRetrieve, "virStoragePoolLookupByName", err)
	}
	return pool, nil
}

// LookupPoolByUUID returns the pool with the given UUID string.
func (m *Manager) LookupPoolByUUID(ctx context.Context, id string) (libvirt.StoragePool, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return libvirt.StoragePool{}, &virt.Error{
			Kind:    virt.KindArgument,
			Func:    "virStoragePoolLookupByUUIDString",
			Message: fmt.Sprintf("invalid uuid %q", id),
			Err:     err,
		}
	}
	pool, err := m.client.StoragePoolLookupByUUID(libvirt.UUID(u))
	if err != nil {
		return libvirt.StoragePool{}, virt.NewError(virt.KindRetrieve, "virStoragePoolLookupByUUIDString", err)
	}
	return pool, nil
}

// CreatePoolXML creates and starts a transient pool.
func (m *Manager) CreatePoolXML(ctx context.Context, xml string) (libvirt.StoragePool, error) {
	pool, err := m.client.StoragePoolCreateXML(xml, 0)
	if err != nil {
		return libvirt.StoragePool{}, virt.NewError(virt.KindDefinition, "virStoragePoolCreateXML", err)
	}
	return pool, nil
}

// DefinePoolXML defines a persistent pool without starting it.
func (m *Manager) DefinePoolXML(ctx context.Context, xml string) (libvirt.StoragePool, error) {
	pool, err := m.client.StoragePoolDefineXML(xml, 0)
	if err != nil {
		return libvirt.StoragePool{}, virt.NewError(virt.KindDefinition, "virStoragePoolDefineXML", err)
	}
	return pool, nil
}

// FindPoolSources asks libvirt to discover pool sources of poolType, e.g.
// the LVM volume groups or NFS exports of a host. srcSpec is optional
// source XML narrowing the search.
func (m *Manager) FindPoolSources(ctx context.Context, poolType PoolType, srcSpec string) (string, error) {
	var spec libvirt.OptString
	if srcSpec != "" {
		spec = libvirt.OptString{srcSpec}
	}
	xml, err := m.client.ConnectFindStoragePoolSources(string(poolType), spec, 0)
	if err != nil {
		return "", virt.NewError(virt.KindRetrieve, "virConnectFindStoragePoolSources", err)
	}
	return xml, nil
}

// EnsurePool ensures a directory pool exists, creating it if necessary.
// An existing pool of that name is left untouched.
func (m *Manager) EnsurePool(ctx context.Context, name, path string) error {
	_, err := m.client.StoragePoolLookupByName(name)
	if err == nil {
		return nil
	}
	if !virt.IsNotFound(err) {
		return virt.NewError(virt.KindRetrieve, "virStoragePoolLookupByName", err)
	}
	return m.CreateDirPool(ctx, name, path)
}

// CreateDirPool defines, builds, starts and autostarts a directory pool
// owned by the QEMU user. A pool that fails to build or start is undefined.
func (m *Manager) CreateDirPool(ctx context.Context, name, path string) error {
	owner, err := QEMUOwner()
	if err != nil {
		m.log.Warn("using fallback pool owner", zap.Error(err))
	}
	poolXML, err := generateDirPoolXML(name, path, owner)
	if err != nil {
		return fmt.Errorf("failed to generate pool XML: %w", err)
	}

	pool, err := m.DefinePoolXML(ctx, poolXML)
	if err != nil {
		return err
	}

	if err := m.client.StoragePoolBuild(pool, 0); err != nil {
		_ = m.client.StoragePoolUndefine(pool)
		return virt.NewError(virt.KindOperation, "virStoragePoolBuild", err)
	}

	if err := m.client.StoragePoolCreate(pool, 0); err != nil {
		_ = m.client.StoragePoolUndefine(pool)
		return virt.NewError(virt.KindOperation, "virStoragePoolCreate", err)
	}

	if err := m.client.StoragePoolSetAutostart(pool, 1); err != nil {
		return fmt.Errorf("pool created but failed to set autostart: %w",
			virt.NewError(virt.KindOperation, "virStoragePoolSetAutostart", err))
	}

	m.log.Debug("created storage pool", zap.String("pool", name), zap.String("path", path))
	return nil
}

// Start activates a defined pool.
func (m *Manager) Start(ctx context.Context, name string) error {
	pool, err := m.LookupPool(ctx, name)
	if err != nil {
		return err
	}
	if err := m.client.StoragePoolCreate(pool, 0); err != nil {
		return virt.NewError(virt.KindOperation, "virStoragePoolCreate", err)
	}
	return nil
}

// Stop deactivates a running pool. Its volumes are kept.
func (m *Manager) Stop(ctx context.Context, name string) error {
	pool, err := m.LookupPool(ctx, name)
	if err != nil {
		return err
	}
	if err := m.client.StoragePoolDestroy(pool); err != nil {
		return virt.NewError(virt.KindOperation, "virStoragePoolDestroy", err)
	}
	return nil
}

// Delete removes a pool. If force is true, every volume in the pool is
// deleted first and the pool's underlying storage is removed before the
// definition; otherwise only the definition goes.
func (m *Manager) Delete(ctx context.Context, name string, force bool) error {
	pool, err := m.LookupPool(ctx, name)
	if err != nil {
		return err
	}

	state, _, _, _, err := m.client.StoragePoolGetInfo(pool)
	if err != nil {
		return virt.NewError(virt.KindRetrieve, "virStoragePoolGetInfo", err)
	}
	running := libvirt.StoragePoolState(state) == libvirt.StoragePoolRunning

	if force && running {
		volumes, _, err := m.client.StoragePoolListAllVolumes(pool, 1, 0)
		if err != nil {
			return virt.NewError(virt.KindRetrieve, "virStoragePoolListAllVolumes", err)
		}
		for _, vol := range volumes {
			if err := m.client.StorageVolDelete(vol, 0); err != nil {
				m.log.Warn("failed to delete volume",
					zap.String("pool", name), zap.String("volume", vol.Name), zap.Error(err))
			}
		}
	}

	if running {
		if err := m.client.StoragePoolDestroy(pool); err != nil {
			return virt.NewError(virt.KindOperation, "virStoragePoolDestroy", err)
		}
	}

	if force {
		if err := m.client.StoragePoolDelete(pool, PoolDeleteNormal); err != nil {
			return virt.NewError(virt.KindOperation, "virStoragePoolDelete", err)
		}
	}

	if err := m.client.StoragePoolUndefine(pool); err != nil {
		return virt.NewError(virt.KindOperation, "virStoragePoolUndefine", err)
	}
	return nil
}

// Refresh rescans the pool's volumes.
func (m *Manager) Refresh(ctx context.Context, name string) error {
	pool, err := m.LookupPool(ctx, name)
	if err != nil {
		return err
	}
	if err := m.client.StoragePoolRefresh(pool, 0); err != nil {
		return virt.NewError(virt.KindOperation, "virStoragePoolRefresh", err)
	}
	return nil
}

// SetAutostart enables or disables starting the pool with the host.
func (m *Manager) SetAutostart(ctx context.Context, name string, enabled bool) error {
	pool, err := m.LookupPool(ctx, name)
	if err != nil {
		return err
	}
	var v int32
	if enabled {
		v = 1
	}
	if err := m.client.StoragePoolSetAutostart(pool, v); err != nil {
		return virt.NewError(virt.KindOperation, "virStoragePoolSetAutostart", err)
	}
	return nil
}

// PoolXML returns the XML description of the pool.
func (m *Manager) PoolXML(ctx context.Context, name string) (string, error) {
	pool, err := m.LookupPool(ctx, name)
	if err != nil {
		return "", err
	}
	xml, err := m.client.StoragePoolGetXMLDesc(pool, 0)
	if err != nil {
		return "", virt.NewError(virt.KindRetrieve, "virStoragePoolGetXMLDesc", err)
	}
	return xml, nil
}

// PoolInfo gets detailed information about a storage pool. Type and path
// come from the pool XML.
func (m *Manager) PoolInfo(ctx context.Context, name string) (*PoolInfo, error) {
	pool, err := m.LookupPool(ctx, name)
	if err != nil {
		return nil, err
	}

	state, capacity, allocation, available, err := m.client.StoragePoolGetInfo(pool)
	if err != nil {
		return nil, virt.NewError(virt.KindRetrieve, "virStoragePoolGetInfo", err)
	}

	xmlDesc, err := m.client.StoragePoolGetXMLDesc(pool, 0)
	if err != nil {
		return nil, virt.NewError(virt.KindRetrieve, "virStoragePoolGetXMLDesc", err)
	}
	var poolDef libvirtxml.StoragePool
	if err := poolDef.Unmarshal(xmlDesc); err != nil {
		return nil, fmt.Errorf("failed to parse pool XML: %w", err)
	}

	autostart, err := m.client.StoragePoolGetAutostart(pool)
	if err != nil {
		return nil, virt.NewError(virt.KindRetrieve, "virStoragePoolGetAutostart", err)
	}
	persistent, err := m.client.StoragePoolIsPersistent(pool)
	if err != nil {
		return nil, virt.NewError(virt.KindRetrieve, "virStoragePoolIsPersistent", err)
	}

	info := &PoolInfo{
		Name:       pool.Name,
		UUID:       uuid.UUID(pool.UUID).String(),
		Type:       PoolType(poolDef.Type),
		State:      PoolStateName(state),
		Autostart:  autostart == 1,
		Persistent: persistent == 1,
		Capacity:   capacity,
		Allocation: allocation,
		Available:  available,
	}
	if poolDef.Target != nil {
		info.Path = poolDef.Target.Path
	}
	return info, nil
}

// PoolInfos describes every active and defined pool. Pools that vanish
// while listing are skipped.
func (m *Manager) PoolInfos(ctx context.Context) ([]PoolInfo, error) {
	active, err := m.ListPools(ctx)
	if err != nil {
		return nil, err
	}
	defined, err := m.ListDefinedPools(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]PoolInfo, 0, len(active)+len(defined))
	for _, name := range append(active, defined...) {
		info, err := m.PoolInfo(ctx, name)
		if err != nil {
			if virt.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

// generateDirPoolXML generates XML for a directory-based storage pool.
func generateDirPoolXML(name, path string, owner Owner) (string, error) {
	pool := &libvirtxml.StoragePool{
		Type: string(PoolTypeDir),
		Name: name,
		Target: &libvirtxml.StoragePoolTarget{
			Path: path,
			Permissions: &libvirtxml.StoragePoolTargetPermissions{
				Owner: owner.UID,
				Group: owner.GID,
				Mode:  "0755",
			},
		},
	}

	xml, err := pool.Marshal()
	if err != nil {
		return "", err
	}
	xml = strings.TrimPrefix(xml, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>")
	return strings.TrimSpace(xml), nil
}
