package libvirt

// SchedulerParameters returns the CPU scheduler tunables of the domain.
func (d *Domain) SchedulerParameters(flags uint32) (Params, error) {
	const fn = "virDomainGetSchedulerParametersFlags"
	tps, err := d.schedulerParams(flags)
	if err != nil {
		return nil, err
	}
	return paramsFromTyped(fn, tps)
}

// SetSchedulerParameters updates the given scheduler tunables.
func (d *Domain) SetSchedulerParameters(params Params, flags uint32) error {
	const fn = "virDomainSetSchedulerParametersFlags"
	if len(params) == 0 {
		return nil
	}
	current, err := d.schedulerParams(flags)
	if err != nil {
		return err
	}
	tps, err := coerceParams(fn, current, params)
	if err != nil {
		return err
	}
	rpc, err := d.conn.client(fn)
	if err != nil {
		return err
	}
	if err := rpc.DomainSetSchedulerParametersFlags(d.dom, tps, flags); err != nil {
		return operationError(fn, err)
	}
	return nil
}

func (d *Domain) schedulerParams(flags uint32) ([]TypedParam, error) {
	const fn = "virDomainGetSchedulerParametersFlags"
	_, n, err := d.SchedulerType()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	rpc, err := d.conn.client(fn)
	if err != nil {
		return nil, err
	}
	tps, err := rpc.DomainGetSchedulerParametersFlags(d.dom, n, flags)
	if err != nil {
		return nil, retrieveError(fn, err)
	}
	return tps, nil
}

// MemoryParameters returns the memory tunables (hard_limit, soft_limit,
// swap_hard_limit, ...) of the domain.
func (d *Domain) MemoryParameters(flags uint32) (Params, error) {
	const fn = "virDomainGetMemoryParameters"
	tps, err := d.memoryParams(flags)
	if err != nil {
		return nil, err
	}
	return paramsFromTyped(fn, tps)
}

// SetMemoryParameters updates the given memory tunables.
func (d *Domain) SetMemoryParameters(params Params, flags uint32) error {
	const fn = "virDomainSetMemoryParameters"
	if len(params) == 0 {
		return nil
	}
	current, err := d.memoryParams(flags)
	if err != nil {
		return err
	}
	tps, err := coerceParams(fn, current, params)
	if err != nil {
		return err
	}
	rpc, err := d.conn.client(fn)
	if err != nil {
		return err
	}
	if err := rpc.DomainSetMemoryParameters(d.dom, tps, flags); err != nil {
		return operationError(fn, err)
	}
	return nil
}

func (d *Domain) memoryParams(flags uint32) ([]TypedParam, error) {
	const fn = "virDomainGetMemoryParameters"
	rpc, err := d.conn.client(fn)
	if err != nil {
		return nil, err
	}
	_, n, err := rpc.DomainGetMemoryParameters(d.dom, 0, flags)
	if err != nil {
		return nil, retrieveError(fn, err)
	}
	if n == 0 {
		return nil, nil
	}
	tps, _, err := rpc.DomainGetMemoryParameters(d.dom, n, flags)
	if err != nil {
		return nil, retrieveError(fn, err)
	}
	return tps, nil
}

// BlkioParameters returns the block I/O tunables of the domain.
func (d *Domain) BlkioParameters(flags uint32) (Params, error) {
	const fn = "virDomainGetBlkioParameters"
	tps, err := d.blkioParams(flags)
	if err != nil {
		return nil, err
	}
	return paramsFromTyped(fn, tps)
}

// SetBlkioParameters updates the given block I/O tunables.
func (d *Domain) SetBlkioParameters(params Params, flags uint32) error {
	const fn = "virDomainSetBlkioParameters"
	if len(params) == 0 {
		return nil
	}
	current, err := d.blkioParams(flags)
	if err != nil {
		return err
	}
	tps, err := coerceParams(fn, current, params)
	if err != nil {
		return err
	}
	rpc, err := d.conn.client(fn)
	if err != nil {
		return err
	}
	if err := rpc.DomainSetBlkioParameters(d.dom, tps, flags); err != nil {
		return operationError(fn, err)
	}
	return nil
}

func (d *Domain) blkioParams(flags uint32) ([]TypedParam, error) {
	const fn = "virDomainGetBlkioParameters"
	rpc, err := d.conn.client(fn)
	if err != nil {
		return nil, err
	}
	_, n, err := rpc.DomainGetBlkioParameters(d.dom, 0, flags)
	if err != nil {
		return nil, retrieveError(fn, err)
	}
	if n == 0 {
		return nil, nil
	}
	tps, _, err := rpc.DomainGetBlkioParameters(d.dom, n, flags)
	if err != nil {
		return nil, retrieveError(fn, err)
	}
	return tps, nil
}

// ParamGroup names a set of domain tunables for the generic accessors.
type ParamGroup string

const (
	ParamGroupScheduler ParamGroup = "scheduler"
	ParamGroupMemory    ParamGroup = "memory"
	ParamGroupBlkio     ParamGroup = "blkio"
)

// Parameters returns the tunables of the named group.
func (d *Domain) Parameters(group ParamGroup, flags uint32) (Params, error) {
	switch group {
	case ParamGroupScheduler:
		return d.SchedulerParameters(flags)
	case ParamGroupMemory:
		return d.MemoryParameters(flags)
	case ParamGroupBlkio:
		return d.BlkioParameters(flags)
	default:
		return nil, argumentError("", "unknown parameter group %q", group)
	}
}

// SetParameters updates tunables of the named group.
func (d *Domain) SetParameters(group ParamGroup, params Params, flags uint32) error {
	switch group {
	case ParamGroupScheduler:
		return d.SetSchedulerParameters(params, flags)
	case ParamGroupMemory:
		return d.SetMemoryParameters(params, flags)
	case ParamGroupBlkio:
		return d.SetBlkioParameters(params, flags)
	default:
		return argumentError("", "unknown parameter group %q", group)
	}
}
