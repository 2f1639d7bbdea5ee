package vm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/virtbind/internal/libvirt"
)

// DestroyOptions controls how Destroy stops the guest and what it removes.
type DestroyOptions struct {
	// Timeout bounds the graceful shutdown before the guest is forced off.
	// Zero uses libvirt.DefaultStopTimeout.
	Timeout time.Duration

	// DeleteVolumes also deletes the pool volumes attached as disks.
	// Disks given by host path are never touched.
	DeleteVolumes bool
}

// DestroyResult reports what Destroy did.
type DestroyResult struct {
	Forced         bool
	DeletedVolumes []string
}

// Destroy stops the named guest if it is running and undefines it along
// with its NVRAM, managed save image and snapshot metadata.
//
// Volume deletion is best-effort: failures are logged and the volume is
// left out of DestroyResult.DeletedVolumes.
func (p *Provisioner) Destroy(ctx context.Context, name string, opts DestroyOptions) (DestroyResult, error) {
	var result DestroyResult
	log := p.log.With(zap.String("domain", name))

	dom, err := p.hv.LookupDomainByName(name)
	if err != nil {
		return result, fmt.Errorf("failed to find domain %s: %w", name, err)
	}

	// Read the volumes before undefining, the definition is gone afterwards.
	var volumes []volumeRef
	if opts.DeleteVolumes {
		xml, err := dom.XMLDesc(libvirt.XMLInactive)
		if err != nil {
			return result, fmt.Errorf("failed to get domain XML: %w", err)
		}
		if volumes, err = diskVolumes(xml); err != nil {
			return result, err
		}
	}

	active, err := dom.Active()
	if err != nil {
		return result, fmt.Errorf("failed to get domain state: %w", err)
	}
	if active {
		forced, err := dom.Stop(ctx, opts.Timeout)
		if err != nil {
			return result, fmt.Errorf("failed to stop domain: %w", err)
		}
		result.Forced = forced
		if forced {
			log.Warn("domain did not shut down in time, forced off")
		}
	}

	flags := libvirt.UndefineNvram | libvirt.UndefineManagedSave | libvirt.UndefineSnapshotsMetadata
	if err := dom.Undefine(flags); err != nil {
		return result, fmt.Errorf("failed to undefine domain: %w", err)
	}
	log.Info("undefined domain")

	for _, ref := range volumes {
		if err := p.storage.DeleteVolume(ctx, ref.Pool, ref.Volume); err != nil {
			log.Warn("failed to delete volume", zap.Stringer("volume", ref), zap.Error(err))
			continue
		}
		result.DeletedVolumes = append(result.DeletedVolumes, ref.String())
	}

	return result, nil
}

// diskVolumes returns the pool volumes referenced by disk devices in xml.
// Read-only disks such as installer media are skipped.
func diskVolumes(xml string) ([]volumeRef, error) {
	var dom libvirtxml.Domain
	if err := dom.Unmarshal(xml); err != nil {
		return nil, fmt.Errorf("failed to parse domain XML: %w", err)
	}
	if dom.Devices == nil {
		return nil, nil
	}

	var refs []volumeRef
	for _, d := range dom.Devices.Disks {
		if d.ReadOnly != nil || d.Source == nil || d.Source.Volume == nil {
			continue
		}
		refs = append(refs, volumeRef{Pool: d.Source.Volume.Pool, Volume: d.Source.Volume.Volume})
	}
	return refs, nil
}
