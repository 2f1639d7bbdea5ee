package libvirt

import (
	"context"
	"sync"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/uuid"
)

// mockRPC is a mock implementation of rpcClient for testing.
//
// Procedures without a configured func fall through to the embedded nil
// interface and panic, so a test fails loudly when it reaches an
// unexpected RPC.
type mockRPC struct {
	rpcClient

	mu sync.Mutex

	// Configurable behavior
	disconnectFunc           func() error
	connectGetLibVersionFunc func() (uint64, error)
	connectGetTypeFunc       func() (string, error)
	connectGetVersionFunc    func() (uint64, error)
	connectGetHostnameFunc   func() (string, error)
	connectGetUriFunc        func() (string, error)
	connectIsSecureFunc      func() (int32, error)
	connectCompareCPUFunc    func(xml string, flags libvirt.ConnectCompareCPUFlags) (int32, error)

	nodeGetInfoFunc             func() ([32]int8, uint64, int32, int32, int32, int32, int32, int32, error)
	nodeGetCellsFreeMemoryFunc  func(start, maxCells int32) ([]uint64, error)
	nodeGetCPUStatsFunc         func(cpu, nparams int32, flags uint32) ([]libvirt.NodeGetCPUStats, int32, error)
	nodeGetMemoryParametersFunc func(nparams int32, flags uint32) ([]libvirt.TypedParam, int32, error)
	nodeSetMemoryParametersFunc func(params []libvirt.TypedParam, flags uint32) error
	nodeGetCPUMapFunc           func(needMap, needOnline int32, flags uint32) ([]byte, uint32, int32, error)

	connectNumOfDomainsFunc   func() (int32, error)
	connectListDomainsFunc    func(maxids int32) ([]int32, error)
	connectListAllDomainsFunc func(need int32, flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error)
	domainLookupByNameFunc    func(name string) (libvirt.Domain, error)
	domainLookupByIDFunc      func(id int32) (libvirt.Domain, error)
	domainLookupByUUIDFunc    func(u libvirt.UUID) (libvirt.Domain, error)
	domainDefineXMLFunc       func(xml string) (libvirt.Domain, error)

	domainCreateWithFlagsFunc func(dom libvirt.Domain, flags uint32) (libvirt.Domain, error)
	domainShutdownFunc        func(dom libvirt.Domain) error
	domainDestroyFunc         func(dom libvirt.Domain) error
	domainSendKeyFunc         func(dom libvirt.Domain, codeset, holdtime uint32, keycodes []uint32, flags uint32) error

	domainGetInfoFunc      func(dom libvirt.Domain) (uint8, uint64, uint64, uint16, uint64, error)
	domainGetStateFunc     func(dom libvirt.Domain, flags uint32) (int32, int32, error)
	domainGetAutostartFunc func(dom libvirt.Domain) (int32, error)
	domainIsPersistentFunc func(dom libvirt.Domain) (int32, error)

	domainGetControlInfoFunc func(dom libvirt.Domain, flags uint32) (uint32, uint32, uint64, error)

	domainMemoryStatsFunc    func(dom libvirt.Domain, maxStats, flags uint32) ([]libvirt.DomainMemoryStat, error)
	domainBlockStatsFunc     func(dom libvirt.Domain, path string) (int64, int64, int64, int64, int64, error)
	domainInterfaceStatsFunc func(dom libvirt.Domain, device string) (int64, int64, int64, int64, int64, int64, int64, int64, error)
	domainGetXMLDescFunc     func(dom libvirt.Domain, flags libvirt.DomainXMLFlags) (string, error)

	domainGetVcpusFunc       func(dom libvirt.Domain, maxinfo, maplen int32) ([]libvirt.VcpuInfo, []byte, error)
	domainGetVcpuPinInfoFunc func(dom libvirt.Domain, ncpumaps, maplen int32, flags uint32) ([]byte, int32, error)
	domainPinVcpuFlagsFunc   func(dom libvirt.Domain, vcpu uint32, cpumap []byte, flags uint32) error

	domainGetSchedulerTypeFunc            func(dom libvirt.Domain) (string, int32, error)
	domainGetSchedulerParametersFlagsFunc func(dom libvirt.Domain, nparams int32, flags uint32) ([]libvirt.TypedParam, error)
	domainSetSchedulerParametersFlagsFunc func(dom libvirt.Domain, params []libvirt.TypedParam, flags uint32) error
	domainGetMemoryParametersFunc         func(dom libvirt.Domain, nparams int32, flags uint32) ([]libvirt.TypedParam, int32, error)
	domainSetMemoryParametersFunc         func(dom libvirt.Domain, params []libvirt.TypedParam, flags uint32) error

	domainMigratePerform3ParamsFunc func(dom libvirt.Domain, dconnuri libvirt.OptString, params []libvirt.TypedParam, cookie []byte, flags libvirt.DomainMigrateFlags) ([]byte, error)

	domainGetMetadataFunc func(dom libvirt.Domain, typ int32, uri libvirt.OptString, flags libvirt.DomainModificationImpact) (string, error)
	domainSetMetadataFunc func(dom libvirt.Domain, typ int32, metadata, key, uri libvirt.OptString, flags libvirt.DomainModificationImpact) error

	domainListAllSnapshotsFunc    func(dom libvirt.Domain, need int32, flags uint32) ([]libvirt.DomainSnapshot, int32, error)
	domainSnapshotNumFunc         func(dom libvirt.Domain, flags uint32) (int32, error)
	domainSnapshotGetXMLDescFunc  func(snap libvirt.DomainSnapshot, flags uint32) (string, error)
	domainSnapshotIsCurrentFunc   func(snap libvirt.DomainSnapshot, flags uint32) (int32, error)
	domainSnapshotHasMetadataFunc func(snap libvirt.DomainSnapshot, flags uint32) (int32, error)
	domainSnapshotNumChildrenFunc func(snap libvirt.DomainSnapshot, flags uint32) (int32, error)

	subscribeEventsFunc func(ctx context.Context, id libvirt.DomainEventID, dom libvirt.OptDomain) (<-chan interface{}, error)
	lifecycleEventsFunc func(ctx context.Context) (<-chan libvirt.DomainEventLifecycleMsg, error)

	connectNumOfNetworksFunc        func() (int32, error)
	connectListNetworksFunc         func(maxnames int32) ([]string, error)
	connectNumOfDefinedNetworksFunc func() (int32, error)
	connectListDefinedNetworksFunc  func(maxnames int32) ([]string, error)
	networkLookupByNameFunc         func(name string) (libvirt.Network, error)
	networkIsActiveFunc             func(n libvirt.Network) (int32, error)
	networkIsPersistentFunc         func(n libvirt.Network) (int32, error)
	networkGetAutostartFunc         func(n libvirt.Network) (int32, error)
	networkGetBridgeNameFunc        func(n libvirt.Network) (string, error)

	nodeNumOfDevicesFunc    func(capability libvirt.OptString, flags uint32) (int32, error)
	nodeListDevicesFunc     func(capability libvirt.OptString, maxnames int32, flags uint32) ([]string, error)
	nodeDeviceGetParentFunc func(name string) (libvirt.OptString, error)
	nodeDeviceCreateXMLFunc func(xml string, flags uint32) (libvirt.NodeDevice, error)
	secretLookupByUsageFunc func(usageType int32, usageID string) (libvirt.Secret, error)

	// Call tracking
	calls []string
}

func newMockRPC() *mockRPC {
	return &mockRPC{
		disconnectFunc: func() error { return nil },
	}
}

// newTestConn returns a Conn backed by m.
func newTestConn(m *mockRPC) *Conn {
	return newConn(m, "test:///default")
}

func (m *mockRPC) track(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// called reports how many times the named procedure was invoked.
func (m *mockRPC) called(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *mockRPC) Disconnect() error {
	m.track("Disconnect")
	return m.disconnectFunc()
}

func (m *mockRPC) ConnectGetLibVersion() (uint64, error) {
	m.track("ConnectGetLibVersion")
	return m.connectGetLibVersionFunc()
}

func (m *mockRPC) ConnectGetType() (string, error) {
	m.track("ConnectGetType")
	return m.connectGetTypeFunc()
}

func (m *mockRPC) ConnectGetVersion() (uint64, error) {
	m.track("ConnectGetVersion")
	return m.connectGetVersionFunc()
}

func (m *mockRPC) ConnectGetHostname() (string, error) {
	m.track("ConnectGetHostname")
	return m.connectGetHostnameFunc()
}

func (m *mockRPC) ConnectGetUri() (string, error) {
	m.track("ConnectGetUri")
	return m.connectGetUriFunc()
}

func (m *mockRPC) ConnectIsSecure() (int32, error) {
	m.track("ConnectIsSecure")
	return m.connectIsSecureFunc()
}

func (m *mockRPC) ConnectCompareCPU(xml string, flags libvirt.ConnectCompareCPUFlags) (int32, error) {
	m.track("ConnectCompareCPU")
	return m.connectCompareCPUFunc(xml, flags)
}

func (m *mockRPC) NodeGetInfo() ([32]int8, uint64, int32, int32, int32, int32, int32, int32, error) {
	m.track("NodeGetInfo")
	return m.nodeGetInfoFunc()
}

func (m *mockRPC) NodeGetCellsFreeMemory(start, maxCells int32) ([]uint64, error) {
	m.track("NodeGetCellsFreeMemory")
	return m.nodeGetCellsFreeMemoryFunc(start, maxCells)
}

func (m *mockRPC) NodeGetCPUStats(cpu, nparams int32, flags uint32) ([]libvirt.NodeGetCPUStats, int32, error) {
	m.track("NodeGetCPUStats")
	return m.nodeGetCPUStatsFunc(cpu, nparams, flags)
}

func (m *mockRPC) NodeGetMemoryParameters(nparams int32, flags uint32) ([]libvirt.TypedParam, int32, error) {
	m.track("NodeGetMemoryParameters")
	return m.nodeGetMemoryParametersFunc(nparams, flags)
}

func (m *mockRPC) NodeSetMemoryParameters(params []libvirt.TypedParam, flags uint32) error {
	m.track("NodeSetMemoryParameters")
	return m.nodeSetMemoryParametersFunc(params, flags)
}

func (m *mockRPC) NodeGetCPUMap(needMap, needOnline int32, flags uint32) ([]byte, uint32, int32, error) {
	m.track("NodeGetCPUMap")
	return m.nodeGetCPUMapFunc(needMap, needOnline, flags)
}

func (m *mockRPC) ConnectNumOfDomains() (int32, error) {
	m.track("ConnectNumOfDomains")
	return m.connectNumOfDomainsFunc()
}

func (m *mockRPC) ConnectListDomains(maxids int32) ([]int32, error) {
	m.track("ConnectListDomains")
	return m.connectListDomainsFunc(maxids)
}

func (m *mockRPC) ConnectListAllDomains(need int32, flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error) {
	m.track("ConnectListAllDomains")
	return m.connectListAllDomainsFunc(need, flags)
}

func (m *mockRPC) DomainLookupByName(name string) (libvirt.Domain, error) {
	m.track("DomainLookupByName")
	return m.domainLookupByNameFunc(name)
}

func (m *mockRPC) DomainLookupByID(id int32) (libvirt.Domain, error) {
	m.track("DomainLookupByID")
	return m.domainLookupByIDFunc(id)
}

func (m *mockRPC) DomainLookupByUUID(u libvirt.UUID) (libvirt.Domain, error) {
	m.track("DomainLookupByUUID")
	return m.domainLookupByUUIDFunc(u)
}

func (m *mockRPC) DomainDefineXML(xml string) (libvirt.Domain, error) {
	m.track("DomainDefineXML")
	return m.domainDefineXMLFunc(xml)
}

func (m *mockRPC) DomainCreateWithFlags(dom libvirt.Domain, flags uint32) (libvirt.Domain, error) {
	m.track("DomainCreateWithFlags")
	return m.domainCreateWithFlagsFunc(dom, flags)
}

func (m *mockRPC) DomainShutdown(dom libvirt.Domain) error {
	m.track("DomainShutdown")
	return m.domainShutdownFunc(dom)
}

func (m *mockRPC) DomainDestroy(dom libvirt.Domain) error {
	m.track("DomainDestroy")
	return m.domainDestroyFunc(dom)
}

func (m *mockRPC) DomainSendKey(dom libvirt.Domain, codeset, holdtime uint32, keycodes []uint32, flags uint32) error {
	m.track("DomainSendKey")
	return m.domainSendKeyFunc(dom, codeset, holdtime, keycodes, flags)
}

func (m *mockRPC) DomainGetInfo(dom libvirt.Domain) (uint8, uint64, uint64, uint16, uint64, error) {
	m.track("DomainGetInfo")
	return m.domainGetInfoFunc(dom)
}

func (m *mockRPC) DomainGetState(dom libvirt.Domain, flags uint32) (int32, int32, error) {
	m.track("DomainGetState")
	return m.domainGetStateFunc(dom, flags)
}

func (m *mockRPC) DomainGetControlInfo(dom libvirt.Domain, flags uint32) (uint32, uint32, uint64, error) {
	m.track("DomainGetControlInfo")
	return m.domainGetControlInfoFunc(dom, flags)
}

func (m *mockRPC) DomainGetAutostart(dom libvirt.Domain) (int32, error) {
	m.track("DomainGetAutostart")
	return m.domainGetAutostartFunc(dom)
}

func (m *mockRPC) DomainIsPersistent(dom libvirt.Domain) (int32, error) {
	m.track("DomainIsPersistent")
	return m.domainIsPersistentFunc(dom)
}

func (m *mockRPC) DomainMemoryStats(dom libvirt.Domain, maxStats, flags uint32) ([]libvirt.DomainMemoryStat, error) {
	m.track("DomainMemoryStats")
	return m.domainMemoryStatsFunc(dom, maxStats, flags)
}

func (m *mockRPC) DomainBlockStats(dom libvirt.Domain, path string) (int64, int64, int64, int64, int64, error) {
	m.track("DomainBlockStats")
	return m.domainBlockStatsFunc(dom, path)
}

func (m *mockRPC) DomainInterfaceStats(dom libvirt.Domain, device string) (int64, int64, int64, int64, int64, int64, int64, int64, error) {
	m.track("DomainInterfaceStats")
	return m.domainInterfaceStatsFunc(dom, device)
}

func (m *mockRPC) DomainGetXMLDesc(dom libvirt.Domain, flags libvirt.DomainXMLFlags) (string, error) {
	m.track("DomainGetXMLDesc")
	return m.domainGetXMLDescFunc(dom, flags)
}

func (m *mockRPC) DomainGetVcpus(dom libvirt.Domain, maxinfo, maplen int32) ([]libvirt.VcpuInfo, []byte, error) {
	m.track("DomainGetVcpus")
	return m.domainGetVcpusFunc(dom, maxinfo, maplen)
}

func (m *mockRPC) DomainGetVcpuPinInfo(dom libvirt.Domain, ncpumaps, maplen int32, flags uint32) ([]byte, int32, error) {
	m.track("DomainGetVcpuPinInfo")
	return m.domainGetVcpuPinInfoFunc(dom, ncpumaps, maplen, flags)
}

func (m *mockRPC) DomainPinVcpuFlags(dom libvirt.Domain, vcpu uint32, cpumap []byte, flags uint32) error {
	m.track("DomainPinVcpuFlags")
	return m.domainPinVcpuFlagsFunc(dom, vcpu, cpumap, flags)
}

func (m *mockRPC) DomainGetSchedulerType(dom libvirt.Domain) (string, int32, error) {
	m.track("DomainGetSchedulerType")
	return m.domainGetSchedulerTypeFunc(dom)
}

func (m *mockRPC) DomainGetSchedulerParametersFlags(dom libvirt.Domain, nparams int32, flags uint32) ([]libvirt.TypedParam, error) {
	m.track("DomainGetSchedulerParametersFlags")
	return m.domainGetSchedulerParametersFlagsFunc(dom, nparams, flags)
}

func (m *mockRPC) DomainSetSchedulerParametersFlags(dom libvirt.Domain, params []libvirt.TypedParam, flags uint32) error {
	m.track("DomainSetSchedulerParametersFlags")
	return m.domainSetSchedulerParametersFlagsFunc(dom, params, flags)
}

func (m *mockRPC) DomainGetMemoryParameters(dom libvirt.Domain, nparams int32, flags uint32) ([]libvirt.TypedParam, int32, error) {
	m.track("DomainGetMemoryParameters")
	return m.domainGetMemoryParametersFunc(dom, nparams, flags)
}

func (m *mockRPC) DomainSetMemoryParameters(dom libvirt.Domain, params []libvirt.TypedParam, flags uint32) error {
	m.track("DomainSetMemoryParameters")
	return m.domainSetMemoryParametersFunc(dom, params, flags)
}

func (m *mockRPC) DomainMigratePerform3Params(dom libvirt.Domain, dconnuri libvirt.OptString, params []libvirt.TypedParam, cookie []byte, flags libvirt.DomainMigrateFlags) ([]byte, error) {
	m.track("DomainMigratePerform3Params")
	return m.domainMigratePerform3ParamsFunc(dom, dconnuri, params, cookie, flags)
}

func (m *mockRPC) DomainGetMetadata(dom libvirt.Domain, typ int32, uri libvirt.OptString, flags libvirt.DomainModificationImpact) (string, error) {
	m.track("DomainGetMetadata")
	return m.domainGetMetadataFunc(dom, typ, uri, flags)
}

func (m *mockRPC) DomainSetMetadata(dom libvirt.Domain, typ int32, metadata, key, uri libvirt.OptString, flags libvirt.DomainModificationImpact) error {
	m.track("DomainSetMetadata")
	return m.domainSetMetadataFunc(dom, typ, metadata, key, uri, flags)
}

func (m *mockRPC) DomainListAllSnapshots(dom libvirt.Domain, need int32, flags uint32) ([]libvirt.DomainSnapshot, int32, error) {
	m.track("DomainListAllSnapshots")
	return m.domainListAllSnapshotsFunc(dom, need, flags)
}

func (m *mockRPC) DomainSnapshotNum(dom libvirt.Domain, flags uint32) (int32, error) {
	m.track("DomainSnapshotNum")
	return m.domainSnapshotNumFunc(dom, flags)
}

func (m *mockRPC) DomainSnapshotGetXMLDesc(snap libvirt.DomainSnapshot, flags uint32) (string, error) {
	m.track("DomainSnapshotGetXMLDesc")
	return m.domainSnapshotGetXMLDescFunc(snap, flags)
}

func (m *mockRPC) DomainSnapshotIsCurrent(snap libvirt.DomainSnapshot, flags uint32) (int32, error) {
	m.track("DomainSnapshotIsCurrent")
	return m.domainSnapshotIsCurrentFunc(snap, flags)
}

func (m *mockRPC) DomainSnapshotHasMetadata(snap libvirt.DomainSnapshot, flags uint32) (int32, error) {
	m.track("DomainSnapshotHasMetadata")
	return m.domainSnapshotHasMetadataFunc(snap, flags)
}

func (m *mockRPC) DomainSnapshotNumChildren(snap libvirt.DomainSnapshot, flags uint32) (int32, error) {
	m.track("DomainSnapshotNumChildren")
	return m.domainSnapshotNumChildrenFunc(snap, flags)
}

func (m *mockRPC) SubscribeEvents(ctx context.Context, id libvirt.DomainEventID, dom libvirt.OptDomain) (<-chan interface{}, error) {
	m.track("SubscribeEvents")
	return m.subscribeEventsFunc(ctx, id, dom)
}

func (m *mockRPC) LifecycleEvents(ctx context.Context) (<-chan libvirt.DomainEventLifecycleMsg, error) {
	m.track("LifecycleEvents")
	return m.lifecycleEventsFunc(ctx)
}

func (m *mockRPC) ConnectNumOfNetworks() (int32, error) {
	m.track("ConnectNumOfNetworks")
	return m.connectNumOfNetworksFunc()
}

func (m *mockRPC) ConnectListNetworks(maxnames int32) ([]string, error) {
	m.track("ConnectListNetworks")
	return m.connectListNetworksFunc(maxnames)
}

func (m *mockRPC) ConnectNumOfDefinedNetworks() (int32, error) {
	m.track("ConnectNumOfDefinedNetworks")
	return m.connectNumOfDefinedNetworksFunc()
}

func (m *mockRPC) ConnectListDefinedNetworks(maxnames int32) ([]string, error) {
	m.track("ConnectListDefinedNetworks")
	return m.connectListDefinedNetworksFunc(maxnames)
}

func (m *mockRPC) NetworkLookupByName(name string) (libvirt.Network, error) {
	m.track("NetworkLookupByName")
	return m.networkLookupByNameFunc(name)
}

func (m *mockRPC) NetworkIsActive(n libvirt.Network) (int32, error) {
	m.track("NetworkIsActive")
	return m.networkIsActiveFunc(n)
}

func (m *mockRPC) NetworkIsPersistent(n libvirt.Network) (int32, error) {
	m.track("NetworkIsPersistent")
	return m.networkIsPersistentFunc(n)
}

func (m *mockRPC) NetworkGetAutostart(n libvirt.Network) (int32, error) {
	m.track("NetworkGetAutostart")
	return m.networkGetAutostartFunc(n)
}

func (m *mockRPC) NetworkGetBridgeName(n libvirt.Network) (string, error) {
	m.track("NetworkGetBridgeName")
	return m.networkGetBridgeNameFunc(n)
}

func (m *mockRPC) NodeNumOfDevices(capability libvirt.OptString, flags uint32) (int32, error) {
	m.track("NodeNumOfDevices")
	return m.nodeNumOfDevicesFunc(capability, flags)
}

func (m *mockRPC) NodeListDevices(capability libvirt.OptString, maxnames int32, flags uint32) ([]string, error) {
	m.track("NodeListDevices")
	return m.nodeListDevicesFunc(capability, maxnames, flags)
}

func (m *mockRPC) NodeDeviceGetParent(name string) (libvirt.OptString, error) {
	m.track("NodeDeviceGetParent")
	return m.nodeDeviceGetParentFunc(name)
}

func (m *mockRPC) NodeDeviceCreateXML(xml string, flags uint32) (libvirt.NodeDevice, error) {
	m.track("NodeDeviceCreateXML")
	return m.nodeDeviceCreateXMLFunc(xml, flags)
}

func (m *mockRPC) SecretLookupByUsage(usageType int32, usageID string) (libvirt.Secret, error) {
	m.track("SecretLookupByUsage")
	return m.secretLookupByUsageFunc(usageType, usageID)
}

// nodeInfoFunc returns a NodeGetInfo stub for a host with the given topology.
func nodeInfoFunc(cpus, nodes, sockets, cores, threads int32) func() ([32]int8, uint64, int32, int32, int32, int32, int32, int32, error) {
	return func() ([32]int8, uint64, int32, int32, int32, int32, int32, int32, error) {
		var model [32]int8
		for i, b := range []byte("x86_64") {
			model[i] = int8(b)
		}
		return model, 16 * 1024 * 1024, cpus, 2400, nodes, sockets, cores, threads, nil
	}
}

// notFoundError mimics the error libvirtd returns for a missing domain.
func notFoundError() error {
	return libvirt.Error{Code: 42, Message: "Domain not found"} // VIR_ERR_NO_DOMAIN
}

const testDomainUUID = "6f9a2b4c-1d3e-4f50-8a61-7b8c9d0e1f23"

// testDomain returns a wire domain record with a fixed UUID.
func testDomain(name string, id int32) libvirt.Domain {
	return libvirt.Domain{Name: name, ID: id, UUID: libvirt.UUID(uuid.MustParse(testDomainUUID))}
}
