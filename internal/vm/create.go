package vm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jbweber/virtbind/api/v1alpha1"
	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/storage"
)

// CreateOptions controls what Create does after the domain is defined.
type CreateOptions struct {
	// Start boots the guest once it is defined.
	Start bool

	// Autostart marks the guest to start with the host.
	Autostart bool
}

// volumeRef names a volume inside a pool.
type volumeRef struct {
	Pool   string
	Volume string
}

func (v volumeRef) String() string {
	return v.Pool + "/" + v.Volume
}

// Create provisions the guest described by tmpl.
//
// The workflow is:
//  1. Validate the template and refuse a name that is already defined
//  2. Create every sized volume that does not exist yet
//  3. Render and define the domain XML
//  4. Set autostart and start the guest when asked
//
// On failure, the domain is undefined and only the volumes created by
// this call are deleted.
func (p *Provisioner) Create(ctx context.Context, tmpl *v1alpha1.DomainTemplate, opts CreateOptions) (err error) {
	tmpl.SetDefaults()
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	log := p.log.With(zap.String("domain", tmpl.Name))

	if _, err := p.hv.LookupDomainByName(tmpl.Name); err == nil {
		return fmt.Errorf("domain %s already exists", tmpl.Name)
	} else if !libvirt.IsNotFound(err) {
		return fmt.Errorf("failed to check for domain %s: %w", tmpl.Name, err)
	}

	var (
		created []volumeRef
		defined domain
	)
	defer func() {
		if err != nil {
			p.cleanup(context.WithoutCancel(ctx), log, defined, created)
		}
	}()

	for _, d := range tmpl.Disks {
		if d.SizeGiB == 0 {
			continue
		}
		ref := volumeRef{Pool: d.Pool, Volume: d.Volume}
		exists, err := p.storage.VolumeExists(ctx, ref.Pool, ref.Volume)
		if err != nil {
			return fmt.Errorf("failed to check volume %s: %w", ref, err)
		}
		if exists {
			log.Debug("reusing existing volume", zap.Stringer("volume", ref))
			continue
		}
		spec := storage.VolumeSpec{
			Name:          ref.Volume,
			Format:        storage.VolumeFormat(d.Format),
			CapacityGB:    d.SizeGiB,
			BackingVolume: d.BackingVolume,
		}
		if err := p.storage.CreateVolume(ctx, ref.Pool, spec); err != nil {
			return fmt.Errorf("failed to create volume %s: %w", ref, err)
		}
		created = append(created, ref)
		log.Info("created volume", zap.Stringer("volume", ref), zap.Uint64("sizeGiB", d.SizeGiB))
	}

	xml, err := libvirt.GenerateDomainXML(tmpl)
	if err != nil {
		return fmt.Errorf("failed to generate domain XML: %w", err)
	}

	defined, err = p.hv.DefineDomainXML(xml)
	if err != nil {
		return fmt.Errorf("failed to define domain: %w", err)
	}
	log.Info("defined domain")

	if opts.Autostart {
		if err := defined.SetAutostart(true); err != nil {
			return fmt.Errorf("failed to set autostart: %w", err)
		}
	}

	if opts.Start {
		if err := defined.Create(0); err != nil {
			return fmt.Errorf("failed to start domain: %w", err)
		}
		log.Info("started domain")
	}

	return nil
}

// cleanup removes what a failed Create left behind. It logs failures and
// keeps going.
func (p *Provisioner) cleanup(ctx context.Context, log *zap.Logger, defined domain, created []volumeRef) {
	log.Warn("cleaning up after failed create", zap.Int("volumes", len(created)))

	if defined != nil {
		if active, err := defined.Active(); err == nil && active {
			if _, err := defined.Stop(ctx, 0); err != nil {
				log.Warn("failed to stop domain", zap.Error(err))
			}
		}
		if err := defined.Undefine(libvirt.UndefineNvram | libvirt.UndefineManagedSave); err != nil {
			log.Warn("failed to undefine domain", zap.Error(err))
		}
	}

	// Reverse order so overlays go before their backing volumes.
	for i := len(created) - 1; i >= 0; i-- {
		ref := created[i]
		if err := p.storage.DeleteVolume(ctx, ref.Pool, ref.Volume); err != nil {
			log.Warn("failed to delete volume", zap.Stringer("volume", ref), zap.Error(err))
		}
	}
}
