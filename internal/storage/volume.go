package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/digitalocean/go-libvirt"
	"go.uber.org/zap"
	libvirtxml "libvirt.org/go/libvirtxml"

	virt "github.com/jbweber/virtbind/internal/libvirt"
)

// lookupVolume returns a volume by pool and volume name.
func (m *Manager) lookupVolume(ctx context.Context, poolName, volumeName string) (libvirt.StorageVol, error) {
	pool, err := m.LookupPool(ctx, poolName)
	if err != nil {
		return libvirt.StorageVol{}, err
	}
	vol, err := m.client.StorageVolLookupByName(pool, volumeName)
	if err != nil {
		return libvirt.StorageVol{}, virt.NewError(virt.KindRetrieve, "virStorageVolLookupByName", err)
	}
	return vol, nil
}

// CreateVolume creates a new volume in the specified pool. A qcow2 backing
// volume is resolved to its path in the same pool.
func (m *Manager) CreateVolume(ctx context.Context, poolName string, spec VolumeSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid volume spec: %w", err)
	}

	pool, err := m.LookupPool(ctx, poolName)
	if err != nil {
		return err
	}

	var backingPath string
	if spec.BackingVolume != "" {
		backingPath, err = m.VolumePath(ctx, poolName, spec.BackingVolume)
		if err != nil {
			return fmt.Errorf("failed to get backing volume path: %w", err)
		}
	}

	owner, err := QEMUOwner()
	if err != nil {
		m.log.Warn("using fallback volume owner", zap.Error(err))
	}
	volumeXML, err := generateVolumeXML(spec, backingPath, owner)
	if err != nil {
		return fmt.Errorf("failed to generate volume XML: %w", err)
	}

	if _, err := m.client.StorageVolCreateXML(pool, volumeXML, 0); err != nil {
		return virt.NewError(virt.KindDefinition, "virStorageVolCreateXML", err)
	}

	m.log.Debug("created volume", zap.String("pool", poolName), zap.String("volume", spec.Name))
	return nil
}

// DeleteVolume deletes a volume from the specified pool.
func (m *Manager) DeleteVolume(ctx context.Context, poolName, volumeName string) error {
	vol, err := m.lookupVolume(ctx, poolName, volumeName)
	if err != nil {
		return err
	}
	if err := m.client.StorageVolDelete(vol, 0); err != nil {
		return virt.NewError(virt.KindOperation, "virStorageVolDelete", err)
	}
	return nil
}

// ListVolumes describes every volume in the pool, sorted by name.
func (m *Manager) ListVolumes(ctx context.Context, poolName string) ([]VolumeInfo, error) {
	pool, err := m.LookupPool(ctx, poolName)
	if err != nil {
		return nil, err
	}

	volumes, _, err := m.client.StoragePoolListAllVolumes(pool, 1, 0)
	if err != nil {
		return nil, virt.NewError(virt.KindRetrieve, "virStoragePoolListAllVolumes", err)
	}

	infos := make([]VolumeInfo, 0, len(volumes))
	for _, vol := range volumes {
		path, err := m.client.StorageVolGetPath(vol)
		if err != nil {
			if virt.IsNotFound(err) {
				continue
			}
			return nil, virt.NewError(virt.KindRetrieve, "virStorageVolGetPath", err)
		}
		typ, capacity, allocation, err := m.client.StorageVolGetInfo(vol)
		if err != nil {
			if virt.IsNotFound(err) {
				continue
			}
			return nil, virt.NewError(virt.KindRetrieve, "virStorageVolGetInfo", err)
		}
		infos = append(infos, VolumeInfo{
			Name:       vol.Name,
			Pool:       poolName,
			Path:       path,
			Type:       VolumeTypeName(typ),
			Capacity:   capacity,
			Allocation: allocation,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// VolumePath gets the full path for a volume.
func (m *Manager) VolumePath(ctx context.Context, poolName, volumeName string) (string, error) {
	vol, err := m.lookupVolume(ctx, poolName, volumeName)
	if err != nil {
		return "", err
	}
	path, err := m.client.StorageVolGetPath(vol)
	if err != nil {
		return "", virt.NewError(virt.KindRetrieve, "virStorageVolGetPath", err)
	}
	return path, nil
}

// VolumeXML returns the XML description of a volume.
func (m *Manager) VolumeXML(ctx context.Context, poolName, volumeName string) (string, error) {
	vol, err := m.lookupVolume(ctx, poolName, volumeName)
	if err != nil {
		return "", err
	}
	xml, err := m.client.StorageVolGetXMLDesc(vol, 0)
	if err != nil {
		return "", virt.NewError(virt.KindRetrieve, "virStorageVolGetXMLDesc", err)
	}
	return xml, nil
}

// VolumeExists checks if a volume exists in the specified pool.
func (m *Manager) VolumeExists(ctx context.Context, poolName, volumeName string) (bool, error) {
	_, err := m.lookupVolume(ctx, poolName, volumeName)
	if err == nil {
		return true, nil
	}
	var verr *virt.Error
	if virt.IsNotFound(err) && errors.As(err, &verr) && verr.Func == "virStorageVolLookupByName" {
		return false, nil
	}
	return false, err
}

// generateVolumeXML generates XML for a storage volume.
func generateVolumeXML(spec VolumeSpec, backingPath string, owner Owner) (string, error) {
	vol := &libvirtxml.StorageVolume{
		Type: "file",
		Name: spec.Name,
		Capacity: &libvirtxml.StorageVolumeSize{
			Value: spec.CapacityGB * 1024 * 1024 * 1024,
			Unit:  "B",
		},
		Target: &libvirtxml.StorageVolumeTarget{
			Format: &libvirtxml.StorageVolumeTargetFormat{
				Type: string(spec.Format),
			},
			Permissions: &libvirtxml.StorageVolumeTargetPermissions{
				Owner: owner.UID,
				Group: owner.GID,
				Mode:  "0644",
			},
		},
	}

	if backingPath != "" {
		vol.BackingStore = &libvirtxml.StorageVolumeBackingStore{
			Path: backingPath,
			Format: &libvirtxml.StorageVolumeTargetFormat{
				Type: string(spec.Format),
			},
		}
	}

	xml, err := vol.Marshal()
	if err != nil {
		return "", err
	}
	xml = strings.TrimPrefix(xml, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>")
	return strings.TrimSpace(xml), nil
}
