package libvirt

import (
	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// Flags accepted by the domain lifecycle calls. Values match libvirt's
// virDomainShutdownFlagValues, virDomainDestroyFlagsValues and
// virDomainUndefineFlagsValues.
const (
	ShutdownDefault      uint32 = 0
	ShutdownACPIPowerBtn uint32 = 1 << 0
	ShutdownGuestAgent   uint32 = 1 << 1

	DestroyDefault  uint32 = 0
	DestroyGraceful uint32 = 1 << 0

	UndefineManagedSave       uint32 = 1 << 0
	UndefineSnapshotsMetadata uint32 = 1 << 1
	UndefineNvram             uint32 = 1 << 2
)

// Domain is a handle to one guest on a connection.
type Domain struct {
	conn *Conn
	dom  libvirt.Domain
}

func (c *Conn) domain(d libvirt.Domain) *Domain {
	return &Domain{conn: c, dom: d}
}

// Conn returns the connection the domain was obtained from.
func (d *Domain) Conn() *Conn {
	return d.conn
}

// Name returns the domain name.
func (d *Domain) Name() string {
	return d.dom.Name
}

// ID returns the runtime ID, or -1 when the domain is not running.
func (d *Domain) ID() int32 {
	return d.dom.ID
}

// UUID returns the domain UUID as a string.
func (d *Domain) UUID() string {
	return formatUUID(d.dom.UUID)
}

// OSType returns the guest OS type, e.g. "hvm".
func (d *Domain) OSType() (string, error) {
	rpc, err := d.conn.client("virDomainGetOSType")
	if err != nil {
		return "", err
	}
	t, err := rpc.DomainGetOsType(d.dom)
	if err != nil {
		return "", retrieveError("virDomainGetOSType", err)
	}
	return t, nil
}

// Create starts a defined domain.
func (d *Domain) Create(flags uint32) error {
	rpc, err := d.conn.client("virDomainCreateWithFlags")
	if err != nil {
		return err
	}
	started, err := rpc.DomainCreateWithFlags(d.dom, flags)
	if err != nil {
		return operationError("virDomainCreateWithFlags", err)
	}
	// The reply carries the runtime ID assigned on start.
	d.dom = started
	return nil
}

// Shutdown asks the guest to shut down.
func (d *Domain) Shutdown(flags uint32) error {
	rpc, err := d.conn.client("virDomainShutdownFlags")
	if err != nil {
		return err
	}
	if flags == 0 {
		err = rpc.DomainShutdown(d.dom)
	} else {
		err = rpc.DomainShutdownFlags(d.dom, libvirt.DomainShutdownFlagValues(flags))
	}
	if err != nil {
		return operationError("virDomainShutdownFlags", err)
	}
	return nil
}

// Reboot asks the guest to reboot.
func (d *Domain) Reboot(flags uint32) error {
	rpc, err := d.conn.client("virDomainReboot")
	if err != nil {
		return err
	}
	if err := rpc.DomainReboot(d.dom, libvirt.DomainRebootFlagValues(flags)); err != nil {
		return operationError("virDomainReboot", err)
	}
	return nil
}

// Reset power-cycles the guest without a graceful shutdown.
func (d *Domain) Reset() error {
	rpc, err := d.conn.client("virDomainReset")
	if err != nil {
		return err
	}
	if err := rpc.DomainReset(d.dom, 0); err != nil {
		return operationError("virDomainReset", err)
	}
	return nil
}

// Destroy force-stops the domain.
func (d *Domain) Destroy(flags uint32) error {
	rpc, err := d.conn.client("virDomainDestroyFlags")
	if err != nil {
		return err
	}
	if flags == 0 {
		err = rpc.DomainDestroy(d.dom)
	} else {
		err = rpc.DomainDestroyFlags(d.dom, libvirt.DomainDestroyFlagsValues(flags))
	}
	if err != nil {
		return operationError("virDomainDestroyFlags", err)
	}
	d.dom.ID = -1
	return nil
}

// Suspend pauses all guest vCPUs.
func (d *Domain) Suspend() error {
	rpc, err := d.conn.client("virDomainSuspend")
	if err != nil {
		return err
	}
	if err := rpc.DomainSuspend(d.dom); err != nil {
		return operationError("virDomainSuspend", err)
	}
	return nil
}

// Resume unpauses a suspended domain.
func (d *Domain) Resume() error {
	rpc, err := d.conn.client("virDomainResume")
	if err != nil {
		return err
	}
	if err := rpc.DomainResume(d.dom); err != nil {
		return operationError("virDomainResume", err)
	}
	return nil
}

// Save stops the domain and writes its memory to file.
// Restore it with Conn.RestoreDomain.
func (d *Domain) Save(file string) error {
	rpc, err := d.conn.client("virDomainSave")
	if err != nil {
		return err
	}
	if err := rpc.DomainSave(d.dom, file); err != nil {
		return operationError("virDomainSave", err)
	}
	return nil
}

// CoreDump writes the guest memory to file for analysis.
func (d *Domain) CoreDump(file string, flags uint32) error {
	rpc, err := d.conn.client("virDomainCoreDump")
	if err != nil {
		return err
	}
	if err := rpc.DomainCoreDump(d.dom, file, libvirt.DomainCoreDumpFlags(flags)); err != nil {
		return operationError("virDomainCoreDump", err)
	}
	return nil
}

// Undefine removes the persistent definition of the domain.
func (d *Domain) Undefine(flags uint32) error {
	rpc, err := d.conn.client("virDomainUndefineFlags")
	if err != nil {
		return err
	}
	if flags == 0 {
		err = rpc.DomainUndefine(d.dom)
	} else {
		err = rpc.DomainUndefineFlags(d.dom, libvirt.DomainUndefineFlagsValues(flags))
	}
	if err != nil {
		return operationError("virDomainUndefineFlags", err)
	}
	return nil
}

// ManagedSave saves the domain to a libvirt-managed image; the next
// Create restores from it.
func (d *Domain) ManagedSave() error {
	rpc, err := d.conn.client("virDomainManagedSave")
	if err != nil {
		return err
	}
	if err := rpc.DomainManagedSave(d.dom, 0); err != nil {
		return operationError("virDomainManagedSave", err)
	}
	return nil
}

// HasManagedSave reports whether a managed save image exists.
func (d *Domain) HasManagedSave() (bool, error) {
	rpc, err := d.conn.client("virDomainHasManagedSaveImage")
	if err != nil {
		return false, err
	}
	v, err := rpc.DomainHasManagedSaveImage(d.dom, 0)
	if err != nil {
		return false, retrieveError("virDomainHasManagedSaveImage", err)
	}
	return v == 1, nil
}

// ManagedSaveRemove deletes the managed save image.
func (d *Domain) ManagedSaveRemove() error {
	rpc, err := d.conn.client("virDomainManagedSaveRemove")
	if err != nil {
		return err
	}
	if err := rpc.DomainManagedSaveRemove(d.dom, 0); err != nil {
		return operationError("virDomainManagedSaveRemove", err)
	}
	return nil
}

// InjectNMI sends a non-maskable interrupt to the guest.
func (d *Domain) InjectNMI() error {
	rpc, err := d.conn.client("virDomainInjectNMI")
	if err != nil {
		return err
	}
	if err := rpc.DomainInjectNmi(d.dom, 0); err != nil {
		return operationError("virDomainInjectNMI", err)
	}
	return nil
}

// maxSendKeys is libvirt's VIR_DOMAIN_SEND_KEY_MAX_KEYS.
const maxSendKeys = 16

// SendKey presses keycodes of codeset for holdtime milliseconds.
func (d *Domain) SendKey(codeset, holdtime uint32, keycodes []uint32) error {
	if len(keycodes) == 0 || len(keycodes) > maxSendKeys {
		return argumentError("virDomainSendKey", "between 1 and %d keycodes are required, got %d", maxSendKeys, len(keycodes))
	}
	rpc, err := d.conn.client("virDomainSendKey")
	if err != nil {
		return err
	}
	if err := rpc.DomainSendKey(d.dom, codeset, holdtime, keycodes, 0); err != nil {
		return operationError("virDomainSendKey", err)
	}
	return nil
}

// SendProcessSignal delivers signum to process pid inside the guest.
func (d *Domain) SendProcessSignal(pid int64, signum uint32) error {
	rpc, err := d.conn.client("virDomainSendProcessSignal")
	if err != nil {
		return err
	}
	if err := rpc.DomainSendProcessSignal(d.dom, pid, signum, 0); err != nil {
		return operationError("virDomainSendProcessSignal", err)
	}
	return nil
}

// Info returns the state, memory and CPU time of the domain.
func (d *Domain) Info() (v1alpha1.DomainInfo, error) {
	rpc, err := d.conn.client("virDomainGetInfo")
	if err != nil {
		return v1alpha1.DomainInfo{}, err
	}
	state, maxMem, mem, nrVirtCPU, cpuTime, err := rpc.DomainGetInfo(d.dom)
	if err != nil {
		return v1alpha1.DomainInfo{}, retrieveError("virDomainGetInfo", err)
	}
	return v1alpha1.DomainInfo{
		State:     v1alpha1.DomainState(state),
		MaxMemKiB: maxMem,
		MemoryKiB: mem,
		NrVirtCPU: nrVirtCPU,
		CPUTimeNs: cpuTime,
	}, nil
}

// State returns the domain state and the reason it entered it.
func (d *Domain) State(flags uint32) (v1alpha1.DomainState, int32, error) {
	rpc, err := d.conn.client("virDomainGetState")
	if err != nil {
		return 0, 0, err
	}
	state, reason, err := rpc.DomainGetState(d.dom, flags)
	if err != nil {
		return 0, 0, retrieveError("virDomainGetState", err)
	}
	return v1alpha1.DomainState(state), reason, nil
}

// ControlInfo reports whether the hypervisor control interface is busy.
func (d *Domain) ControlInfo() (v1alpha1.ControlInfo, error) {
	rpc, err := d.conn.client("virDomainGetControlInfo")
	if err != nil {
		return v1alpha1.ControlInfo{}, err
	}
	state, details, stateTime, err := rpc.DomainGetControlInfo(d.dom, 0)
	if err != nil {
		return v1alpha1.ControlInfo{}, retrieveError("virDomainGetControlInfo", err)
	}
	return v1alpha1.ControlInfo{
		State:     state,
		Details:   details,
		StateTime: stateTime,
	}, nil
}

// Active reports whether the domain is running.
func (d *Domain) Active() (bool, error) {
	rpc, err := d.conn.client("virDomainIsActive")
	if err != nil {
		return false, err
	}
	v, err := rpc.DomainIsActive(d.dom)
	if err != nil {
		return false, retrieveError("virDomainIsActive", err)
	}
	return v == 1, nil
}

// Persistent reports whether the domain has a persistent definition.
func (d *Domain) Persistent() (bool, error) {
	rpc, err := d.conn.client("virDomainIsPersistent")
	if err != nil {
		return false, err
	}
	v, err := rpc.DomainIsPersistent(d.dom)
	if err != nil {
		return false, retrieveError("virDomainIsPersistent", err)
	}
	return v == 1, nil
}

// Updated reports whether the running config differs from the persistent one.
func (d *Domain) Updated() (bool, error) {
	rpc, err := d.conn.client("virDomainIsUpdated")
	if err != nil {
		return false, err
	}
	v, err := rpc.DomainIsUpdated(d.dom)
	if err != nil {
		return false, retrieveError("virDomainIsUpdated", err)
	}
	return v == 1, nil
}

// JobInfo returns progress counters of the running background job.
func (d *Domain) JobInfo() (v1alpha1.JobInfo, error) {
	rpc, err := d.conn.client("virDomainGetJobInfo")
	if err != nil {
		return v1alpha1.JobInfo{}, err
	}
	typ, elapsed, remaining, dataTotal, dataProcessed, dataRemaining,
		memTotal, memProcessed, memRemaining,
		fileTotal, fileProcessed, fileRemaining, err := rpc.DomainGetJobInfo(d.dom)
	if err != nil {
		return v1alpha1.JobInfo{}, retrieveError("virDomainGetJobInfo", err)
	}
	return v1alpha1.JobInfo{
		Type:          typ,
		TimeElapsed:   elapsed,
		TimeRemaining: remaining,
		DataTotal:     dataTotal,
		DataProcessed: dataProcessed,
		DataRemaining: dataRemaining,
		MemTotal:      memTotal,
		MemProcessed:  memProcessed,
		MemRemaining:  memRemaining,
		FileTotal:     fileTotal,
		FileProcessed: fileProcessed,
		FileRemaining: fileRemaining,
	}, nil
}

// AbortJob cancels the running background job.
func (d *Domain) AbortJob() error {
	rpc, err := d.conn.client("virDomainAbortJob")
	if err != nil {
		return err
	}
	if err := rpc.DomainAbortJob(d.dom); err != nil {
		return operationError("virDomainAbortJob", err)
	}
	return nil
}

// Summary collects the listing row for the domain.
func (d *Domain) Summary() (v1alpha1.DomainSummary, error) {
	info, err := d.Info()
	if err != nil {
		return v1alpha1.DomainSummary{}, err
	}
	autostart, err := d.Autostart()
	if err != nil {
		return v1alpha1.DomainSummary{}, err
	}
	persistent, err := d.Persistent()
	if err != nil {
		return v1alpha1.DomainSummary{}, err
	}

	id := d.ID()
	if info.State == v1alpha1.DomainShutoff {
		id = -1
	}

	return v1alpha1.DomainSummary{
		ID:        id,
		Name:      d.Name(),
		UUID:      d.UUID(),
		State:     info.State,
		VCPUs:     info.NrVirtCPU,
		MemoryKiB: info.MemoryKiB,
		Autostart: autostart,
		Persisted: persistent,
	}, nil
}
