package libvirt

import (
	"github.com/digitalocean/go-libvirt"
	"go.uber.org/zap"
)

// Migration flags (virDomainMigrateFlags).
const (
	MigrateLive             uint32 = 1 << 0
	MigratePeer2Peer        uint32 = 1 << 1
	MigrateTunnelled        uint32 = 1 << 2
	MigratePersistDest      uint32 = 1 << 3
	MigrateUndefineSource   uint32 = 1 << 4
	MigratePaused           uint32 = 1 << 5
	MigrateNonSharedDisk    uint32 = 1 << 6
	MigrateNonSharedInc     uint32 = 1 << 7
	MigrateChangeProtection uint32 = 1 << 8
	MigrateUnsafe           uint32 = 1 << 9
	MigrateOffline          uint32 = 1 << 10
	MigrateCompressed       uint32 = 1 << 11
	MigrateAbortOnError     uint32 = 1 << 12
	MigrateAutoConverge     uint32 = 1 << 13
)

// Migration typed-parameter names (VIR_MIGRATE_PARAM_*).
const (
	migrateParamURI       = "migrate_uri"
	migrateParamDestName  = "destination_name"
	migrateParamDestXML   = "destination_xml"
	migrateParamBandwidth = "bandwidth"
)

// MigrateOptions tune a migration.
type MigrateOptions struct {
	// DName renames the domain on the destination.
	DName string

	// URI is the hypervisor-level migration URI, e.g. "tcp://host:49152".
	URI string

	// XML replaces the domain definition on the destination.
	XML string

	// Bandwidth limits the transfer in MiB/s; 0 means unlimited.
	Bandwidth uint64

	Flags uint32
}

func (o MigrateOptions) params() []TypedParam {
	var tps []TypedParam
	if o.URI != "" {
		tps = append(tps, newTypedParam(migrateParamURI, ParamString, o.URI))
	}
	if o.DName != "" {
		tps = append(tps, newTypedParam(migrateParamDestName, ParamString, o.DName))
	}
	if o.XML != "" {
		tps = append(tps, newTypedParam(migrateParamDestXML, ParamString, o.XML))
	}
	if o.Bandwidth > 0 {
		tps = append(tps, newTypedParam(migrateParamBandwidth, ParamULLong, o.Bandwidth))
	}
	return tps
}

// Migrate moves the domain to the libvirtd at destURI. The source daemon
// drives the migration and connects to the destination itself, so the
// peer-to-peer flag is always set.
func (d *Domain) Migrate(destURI string, opts MigrateOptions) error {
	const fn = "virDomainMigrateToURI3"
	if destURI == "" {
		return argumentError(fn, "destination uri must not be empty")
	}
	rpc, err := d.conn.client(fn)
	if err != nil {
		return err
	}

	flags := opts.Flags | MigratePeer2Peer
	d.conn.log.Debug("migrating domain",
		zap.String("domain", d.Name()),
		zap.String("destination", destURI),
		zap.Uint32("flags", flags))

	_, err = rpc.DomainMigratePerform3Params(d.dom, optString(destURI), opts.params(), nil, libvirt.DomainMigrateFlags(flags))
	if err != nil {
		return operationError(fn, err)
	}
	return nil
}

// MigrateSetMaxDowntime sets the tolerable guest pause in milliseconds at
// the end of a live migration.
func (d *Domain) MigrateSetMaxDowntime(ms uint64) error {
	rpc, err := d.conn.client("virDomainMigrateSetMaxDowntime")
	if err != nil {
		return err
	}
	if err := rpc.DomainMigrateSetMaxDowntime(d.dom, ms, 0); err != nil {
		return operationError("virDomainMigrateSetMaxDowntime", err)
	}
	return nil
}

// MigrateSetMaxSpeed limits migration bandwidth in MiB/s.
func (d *Domain) MigrateSetMaxSpeed(bandwidth uint64) error {
	rpc, err := d.conn.client("virDomainMigrateSetMaxSpeed")
	if err != nil {
		return err
	}
	if err := rpc.DomainMigrateSetMaxSpeed(d.dom, bandwidth, 0); err != nil {
		return operationError("virDomainMigrateSetMaxSpeed", err)
	}
	return nil
}

// MigrateMaxSpeed returns the migration bandwidth limit in MiB/s.
func (d *Domain) MigrateMaxSpeed() (uint64, error) {
	rpc, err := d.conn.client("virDomainMigrateGetMaxSpeed")
	if err != nil {
		return 0, err
	}
	bw, err := rpc.DomainMigrateGetMaxSpeed(d.dom, 0)
	if err != nil {
		return 0, retrieveError("virDomainMigrateGetMaxSpeed", err)
	}
	return bw, nil
}
