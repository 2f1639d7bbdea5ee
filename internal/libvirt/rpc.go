package libvirt

import (
	"context"

	"github.com/digitalocean/go-libvirt"
)

// rpcClient lists the libvirt RPC procedures the binding forwards to.
//
// In production, this is satisfied by *libvirt.Libvirt directly.
// In tests, this is satisfied by mock implementations.
type rpcClient interface {
	Disconnect() error

	// Connection
	ConnectGetType() (string, error)
	ConnectGetVersion() (uint64, error)
	ConnectGetLibVersion() (uint64, error)
	ConnectGetHostname() (string, error)
	ConnectGetUri() (string, error)
	ConnectGetMaxVcpus(Type libvirt.OptString) (int32, error)
	ConnectIsSecure() (int32, error)
	ConnectGetCapabilities() (string, error)
	ConnectCompareCPU(XML string, Flags libvirt.ConnectCompareCPUFlags) (int32, error)
	ConnectBaselineCPU(XMLCPUs []string, Flags libvirt.ConnectBaselineCPUFlags) (string, error)
	ConnectGetSysinfo(Flags uint32) (string, error)
	DomainSaveImageGetXMLDesc(File string, Flags uint32) (string, error)
	DomainSaveImageDefineXML(File string, Dxml string, Flags uint32) error
	InterfaceChangeBegin(Flags uint32) error
	InterfaceChangeCommit(Flags uint32) error
	InterfaceChangeRollback(Flags uint32) error

	// Node
	NodeGetInfo() ([32]int8, uint64, int32, int32, int32, int32, int32, int32, error)
	NodeGetFreeMemory() (uint64, error)
	NodeGetCellsFreeMemory(StartCell int32, Maxcells int32) ([]uint64, error)
	NodeGetSecurityModel() ([]int8, []int8, error)
	NodeGetCPUStats(CPUNum int32, Nparams int32, Flags uint32) ([]libvirt.NodeGetCPUStats, int32, error)
	NodeGetMemoryStats(Nparams int32, CellNum int32, Flags uint32) ([]libvirt.NodeGetMemoryStats, int32, error)
	NodeSuspendForDuration(Target uint32, Duration uint64, Flags uint32) error
	NodeGetMemoryParameters(Nparams int32, Flags uint32) ([]libvirt.TypedParam, int32, error)
	NodeSetMemoryParameters(Params []libvirt.TypedParam, Flags uint32) error
	NodeGetCPUMap(NeedMap int32, NeedOnline int32, Flags uint32) ([]byte, uint32, int32, error)

	// Domains on a connection
	ConnectNumOfDomains() (int32, error)
	ConnectListDomains(Maxids int32) ([]int32, error)
	ConnectNumOfDefinedDomains() (int32, error)
	ConnectListDefinedDomains(Maxnames int32) ([]string, error)
	ConnectListAllDomains(NeedResults int32, Flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error)
	DomainCreateXML(XMLDesc string, Flags libvirt.DomainCreateFlags) (libvirt.Domain, error)
	DomainDefineXML(XML string) (libvirt.Domain, error)
	DomainLookupByName(Name string) (libvirt.Domain, error)
	DomainLookupByID(ID int32) (libvirt.Domain, error)
	DomainLookupByUUID(UUID libvirt.UUID) (libvirt.Domain, error)
	DomainRestore(From string) error
	ConnectDomainXMLFromNative(NativeFormat string, NativeConfig string, Flags uint32) (string, error)
	ConnectDomainXMLToNative(NativeFormat string, DomainXML string, Flags uint32) (string, error)

	// Domain lifecycle
	DomainCreateWithFlags(Dom libvirt.Domain, Flags uint32) (libvirt.Domain, error)
	DomainShutdown(Dom libvirt.Domain) error
	DomainShutdownFlags(Dom libvirt.Domain, Flags libvirt.DomainShutdownFlagValues) error
	DomainReboot(Dom libvirt.Domain, Flags libvirt.DomainRebootFlagValues) error
	DomainReset(Dom libvirt.Domain, Flags uint32) error
	DomainDestroy(Dom libvirt.Domain) error
	DomainDestroyFlags(Dom libvirt.Domain, Flags libvirt.DomainDestroyFlagsValues) error
	DomainSuspend(Dom libvirt.Domain) error
	DomainResume(Dom libvirt.Domain) error
	DomainSave(Dom libvirt.Domain, To string) error
	DomainCoreDump(Dom libvirt.Domain, To string, Flags libvirt.DomainCoreDumpFlags) error
	DomainUndefine(Dom libvirt.Domain) error
	DomainUndefineFlags(Dom libvirt.Domain, Flags libvirt.DomainUndefineFlagsValues) error
	DomainManagedSave(Dom libvirt.Domain, Flags uint32) error
	DomainHasManagedSaveImage(Dom libvirt.Domain, Flags uint32) (int32, error)
	DomainManagedSaveRemove(Dom libvirt.Domain, Flags uint32) error
	DomainInjectNmi(Dom libvirt.Domain, Flags uint32) error
	DomainSendKey(Dom libvirt.Domain, Codeset uint32, Holdtime uint32, Keycodes []uint32, Flags uint32) error
	DomainSendProcessSignal(Dom libvirt.Domain, PidValue int64, Signum uint32, Flags uint32) error

	// Domain state
	DomainGetInfo(Dom libvirt.Domain) (uint8, uint64, uint64, uint16, uint64, error)
	DomainGetState(Dom libvirt.Domain, Flags uint32) (int32, int32, error)
	DomainGetControlInfo(Dom libvirt.Domain, Flags uint32) (rState uint32, rDetails uint32, rStateTime uint64, err error)
	DomainIsActive(Dom libvirt.Domain) (int32, error)
	DomainIsPersistent(Dom libvirt.Domain) (int32, error)
	DomainIsUpdated(Dom libvirt.Domain) (int32, error)
	DomainGetJobInfo(Dom libvirt.Domain) (int32, uint64, uint64, uint64, uint64, uint64, uint64, uint64, uint64, uint64, uint64, uint64, error)
	DomainAbortJob(Dom libvirt.Domain) error

	// Domain statistics
	DomainInterfaceStats(Dom libvirt.Domain, Device string) (int64, int64, int64, int64, int64, int64, int64, int64, error)
	DomainBlockStats(Dom libvirt.Domain, Path string) (int64, int64, int64, int64, int64, error)
	DomainMemoryStats(Dom libvirt.Domain, MaxStats uint32, Flags uint32) ([]libvirt.DomainMemoryStat, error)
	DomainGetBlockInfo(Dom libvirt.Domain, Path string, Flags uint32) (uint64, uint64, uint64, error)
	DomainBlockPeek(Dom libvirt.Domain, Path string, Offset uint64, Size uint32, Flags uint32) ([]byte, error)
	DomainMemoryPeek(Dom libvirt.Domain, Offset uint64, Size uint32, Flags libvirt.DomainMemoryFlags) ([]byte, error)

	// Domain resources
	DomainGetOsType(Dom libvirt.Domain) (string, error)
	DomainGetMaxMemory(Dom libvirt.Domain) (uint64, error)
	DomainSetMaxMemory(Dom libvirt.Domain, Memory uint64) error
	DomainSetMemory(Dom libvirt.Domain, Memory uint64) error
	DomainSetMemoryFlags(Dom libvirt.Domain, Memory uint64, Flags uint32) error
	DomainGetMaxVcpus(Dom libvirt.Domain) (int32, error)
	DomainSetVcpus(Dom libvirt.Domain, Nvcpus uint32) error
	DomainSetVcpusFlags(Dom libvirt.Domain, Nvcpus uint32, Flags uint32) error
	DomainGetVcpusFlags(Dom libvirt.Domain, Flags uint32) (int32, error)
	DomainGetVcpus(Dom libvirt.Domain, Maxinfo int32, Maplen int32) ([]libvirt.VcpuInfo, []byte, error)
	DomainGetVcpuPinInfo(Dom libvirt.Domain, Ncpumaps int32, Maplen int32, Flags uint32) ([]byte, int32, error)
	DomainPinVcpuFlags(Dom libvirt.Domain, Vcpu uint32, Cpumap []byte, Flags uint32) error

	// Domain configuration
	DomainGetXMLDesc(Dom libvirt.Domain, Flags libvirt.DomainXMLFlags) (string, error)
	DomainGetAutostart(Dom libvirt.Domain) (int32, error)
	DomainSetAutostart(Dom libvirt.Domain, Autostart int32) error
	DomainAttachDeviceFlags(Dom libvirt.Domain, XML string, Flags uint32) error
	DomainDetachDeviceFlags(Dom libvirt.Domain, XML string, Flags uint32) error
	DomainUpdateDeviceFlags(Dom libvirt.Domain, XML string, Flags libvirt.DomainDeviceModifyFlags) error
	DomainGetSchedulerType(Dom libvirt.Domain) (string, int32, error)
	DomainGetSecurityLabel(Dom libvirt.Domain) ([]int8, int32, error)
	DomainGetHostname(Dom libvirt.Domain, Flags libvirt.DomainGetHostnameFlags) (string, error)
	QEMUDomainMonitorCommand(Dom libvirt.Domain, Cmd string, Flags uint32) (string, error)
	DomainGetMetadata(Dom libvirt.Domain, Type int32, Uri libvirt.OptString, Flags libvirt.DomainModificationImpact) (string, error)
	DomainSetMetadata(Dom libvirt.Domain, Type int32, Metadata libvirt.OptString, Key libvirt.OptString, Uri libvirt.OptString, Flags libvirt.DomainModificationImpact) error

	// Typed parameters
	DomainGetSchedulerParametersFlags(Dom libvirt.Domain, Nparams int32, Flags uint32) ([]libvirt.TypedParam, error)
	DomainSetSchedulerParametersFlags(Dom libvirt.Domain, Params []libvirt.TypedParam, Flags uint32) error
	DomainGetMemoryParameters(Dom libvirt.Domain, Nparams int32, Flags uint32) ([]libvirt.TypedParam, int32, error)
	DomainSetMemoryParameters(Dom libvirt.Domain, Params []libvirt.TypedParam, Flags uint32) error
	DomainGetBlkioParameters(Dom libvirt.Domain, Nparams int32, Flags uint32) ([]libvirt.TypedParam, int32, error)
	DomainSetBlkioParameters(Dom libvirt.Domain, Params []libvirt.TypedParam, Flags uint32) error

	// Migration
	DomainMigratePerform3Params(Dom libvirt.Domain, Dconnuri libvirt.OptString, Params []libvirt.TypedParam, CookieIn []byte, Flags libvirt.DomainMigrateFlags) ([]byte, error)
	DomainMigrateSetMaxDowntime(Dom libvirt.Domain, Downtime uint64, Flags uint32) error
	DomainMigrateSetMaxSpeed(Dom libvirt.Domain, Bandwidth uint64, Flags uint32) error
	DomainMigrateGetMaxSpeed(Dom libvirt.Domain, Flags uint32) (uint64, error)

	// Snapshots
	DomainSnapshotCreateXML(Dom libvirt.Domain, XMLDesc string, Flags uint32) (libvirt.DomainSnapshot, error)
	DomainSnapshotNum(Dom libvirt.Domain, Flags uint32) (int32, error)
	DomainSnapshotListNames(Dom libvirt.Domain, Maxnames int32, Flags uint32) ([]string, error)
	DomainListAllSnapshots(Dom libvirt.Domain, NeedResults int32, Flags uint32) ([]libvirt.DomainSnapshot, int32, error)
	DomainSnapshotLookupByName(Dom libvirt.Domain, Name string, Flags uint32) (libvirt.DomainSnapshot, error)
	DomainHasCurrentSnapshot(Dom libvirt.Domain, Flags uint32) (int32, error)
	DomainSnapshotCurrent(Dom libvirt.Domain, Flags uint32) (libvirt.DomainSnapshot, error)
	DomainRevertToSnapshot(Snap libvirt.DomainSnapshot, Flags uint32) error
	DomainSnapshotGetXMLDesc(Snap libvirt.DomainSnapshot, Flags uint32) (string, error)
	DomainSnapshotDelete(Snap libvirt.DomainSnapshot, Flags libvirt.DomainSnapshotDeleteFlags) error
	DomainSnapshotNumChildren(Snap libvirt.DomainSnapshot, Flags uint32) (int32, error)
	DomainSnapshotListChildrenNames(Snap libvirt.DomainSnapshot, Maxnames int32, Flags uint32) ([]string, error)
	DomainSnapshotListAllChildren(Snapshot libvirt.DomainSnapshot, NeedResults int32, Flags uint32) ([]libvirt.DomainSnapshot, int32, error)
	DomainSnapshotGetParent(Snap libvirt.DomainSnapshot, Flags uint32) (libvirt.DomainSnapshot, error)
	DomainSnapshotIsCurrent(Snap libvirt.DomainSnapshot, Flags uint32) (int32, error)
	DomainSnapshotHasMetadata(Snap libvirt.DomainSnapshot, Flags uint32) (int32, error)

	// Events
	SubscribeEvents(ctx context.Context, eventID libvirt.DomainEventID, dom libvirt.OptDomain) (<-chan interface{}, error)
	LifecycleEvents(ctx context.Context) (<-chan libvirt.DomainEventLifecycleMsg, error)

	// Networks
	ConnectNumOfNetworks() (int32, error)
	ConnectListNetworks(Maxnames int32) ([]string, error)
	ConnectNumOfDefinedNetworks() (int32, error)
	ConnectListDefinedNetworks(Maxnames int32) ([]string, error)
	NetworkLookupByName(Name string) (libvirt.Network, error)
	NetworkLookupByUUID(UUID libvirt.UUID) (libvirt.Network, error)
	NetworkCreateXML(XML string) (libvirt.Network, error)
	NetworkDefineXML(XML string) (libvirt.Network, error)
	NetworkCreate(Net libvirt.Network) error
	NetworkDestroy(Net libvirt.Network) error
	NetworkUndefine(Net libvirt.Network) error
	NetworkGetXMLDesc(Net libvirt.Network, Flags uint32) (string, error)
	NetworkGetBridgeName(Net libvirt.Network) (string, error)
	NetworkGetAutostart(Net libvirt.Network) (int32, error)
	NetworkSetAutostart(Net libvirt.Network, Autostart int32) error
	NetworkIsActive(Net libvirt.Network) (int32, error)
	NetworkIsPersistent(Net libvirt.Network) (int32, error)

	// Host interfaces
	ConnectNumOfInterfaces() (int32, error)
	ConnectListInterfaces(Maxnames int32) ([]string, error)
	ConnectNumOfDefinedInterfaces() (int32, error)
	ConnectListDefinedInterfaces(Maxnames int32) ([]string, error)
	InterfaceLookupByName(Name string) (libvirt.Interface, error)
	InterfaceLookupByMacString(Mac string) (libvirt.Interface, error)
	InterfaceDefineXML(XML string, Flags uint32) (libvirt.Interface, error)
	InterfaceCreate(Iface libvirt.Interface, Flags uint32) error
	InterfaceDestroy(Iface libvirt.Interface, Flags uint32) error
	InterfaceUndefine(Iface libvirt.Interface) error
	InterfaceGetXMLDesc(Iface libvirt.Interface, Flags uint32) (string, error)
	InterfaceIsActive(Iface libvirt.Interface) (int32, error)

	// Node devices
	NodeNumOfDevices(Cap libvirt.OptString, Flags uint32) (int32, error)
	NodeListDevices(Cap libvirt.OptString, Maxnames int32, Flags uint32) ([]string, error)
	NodeDeviceLookupByName(Name string) (libvirt.NodeDevice, error)
	NodeDeviceCreateXML(XMLDesc string, Flags uint32) (libvirt.NodeDevice, error)
	NodeDeviceGetXMLDesc(Name string, Flags uint32) (string, error)
	NodeDeviceGetParent(Name string) (libvirt.OptString, error)
	NodeDeviceDestroy(Name string) error

	// Network filters
	ConnectNumOfNwfilters() (int32, error)
	ConnectListNwfilters(Maxnames int32) ([]string, error)
	NwfilterLookupByName(Name string) (libvirt.Nwfilter, error)
	NwfilterLookupByUUID(UUID libvirt.UUID) (libvirt.Nwfilter, error)
	NwfilterDefineXML(XML string) (libvirt.Nwfilter, error)
	NwfilterUndefine(OptNwfilter libvirt.Nwfilter) error
	NwfilterGetXMLDesc(OptNwfilter libvirt.Nwfilter, Flags uint32) (string, error)

	// Secrets
	ConnectNumOfSecrets() (int32, error)
	ConnectListSecrets(Maxuuids int32) ([]string, error)
	SecretLookupByUUID(UUID libvirt.UUID) (libvirt.Secret, error)
	SecretLookupByUsage(UsageType int32, UsageID string) (libvirt.Secret, error)
	SecretDefineXML(XML string, Flags uint32) (libvirt.Secret, error)
	SecretGetXMLDesc(OptSecret libvirt.Secret, Flags uint32) (string, error)
	SecretGetValue(OptSecret libvirt.Secret, Flags uint32) ([]byte, error)
	SecretSetValue(OptSecret libvirt.Secret, Value []byte, Flags uint32) error
	SecretUndefine(OptSecret libvirt.Secret) error
}

// Compile-time check that the go-libvirt client provides every procedure.
var _ rpcClient = (*libvirt.Libvirt)(nil)
