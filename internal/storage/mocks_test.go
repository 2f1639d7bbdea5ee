package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/uuid"
)

// libvirt error codes returned by the fake.
const (
	codeNoStoragePool = 49
	codeNoStorageVol  = 50
	codeInternal      = 1
)

func poolNotFound(name string) error {
	return libvirt.Error{Code: codeNoStoragePool, Message: "Storage pool not found: " + name}
}

func volNotFound(name string) error {
	return libvirt.Error{Code: codeNoStorageVol, Message: "Storage vol not found: " + name}
}

// mockLibvirtClient is an in-memory LibvirtClient for testing.
type mockLibvirtClient struct {
	mu      sync.Mutex
	pools   map[string]*mockPool
	volumes map[string]map[string]*mockVolume // pool name -> volume name -> volume

	// Injected failures, keyed by procedure name.
	failures map[string]error

	// Call tracking
	calls []string
}

type mockPool struct {
	name       string
	uuid       uuid.UUID
	state      libvirt.StoragePoolState
	persistent bool
	autostart  bool
	built      bool
	deleted    bool
	capacity   uint64
	allocated  uint64
	available  uint64
	xmlDesc    string
}

type mockVolume struct {
	name      string
	path      string
	capacity  uint64
	allocated uint64
	xmlDesc   string
}

func newMockLibvirtClient() *mockLibvirtClient {
	return &mockLibvirtClient{
		pools:    make(map[string]*mockPool),
		volumes:  make(map[string]map[string]*mockVolume),
		failures: make(map[string]error),
	}
}

// track records a call and returns its injected failure, if any.
func (m *mockLibvirtClient) track(name string) error {
	m.calls = append(m.calls, name)
	return m.failures[name]
}

// called reports how many times the named procedure was invoked.
func (m *mockLibvirtClient) called(name string) int {
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

// addPool registers a pool directly, bypassing XML.
func (m *mockLibvirtClient) addPool(name, path string, state libvirt.StoragePoolState) *mockPool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &mockPool{
		name:       name,
		uuid:       uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		state:      state,
		persistent: true,
		capacity:   1024 * 1024 * 1024 * 1024,
		available:  1024 * 1024 * 1024 * 1024,
		xmlDesc:    fmt.Sprintf(`<pool type="dir"><name>%s</name><target><path>%s</path></target></pool>`, name, path),
	}
	m.pools[name] = p
	m.volumes[name] = make(map[string]*mockVolume)
	return p
}

// addVolume registers a volume directly, bypassing XML.
func (m *mockLibvirtClient) addVolume(pool, name string, capacity uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumes[pool][name] = &mockVolume{
		name:     name,
		path:     "/var/lib/libvirt/images/" + pool + "/" + name,
		capacity: capacity,
	}
}

func (m *mockLibvirtClient) handle(p *mockPool) libvirt.StoragePool {
	return libvirt.StoragePool{Name: p.name, UUID: libvirt.UUID(p.uuid)}
}

func (m *mockLibvirtClient) poolNames(active bool) []string {
	var names []string
	for name, p := range m.pools {
		if (p.state == libvirt.StoragePoolRunning) == active {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (m *mockLibvirtClient) ConnectNumOfStoragePools() (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("ConnectNumOfStoragePools"); err != nil {
		return 0, err
	}
	return int32(len(m.poolNames(true))), nil
}

func (m *mockLibvirtClient) ConnectListStoragePools(maxnames int32) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("ConnectListStoragePools"); err != nil {
		return nil, err
	}
	return m.poolNames(true), nil
}

func (m *mockLibvirtClient) ConnectNumOfDefinedStoragePools() (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("ConnectNumOfDefinedStoragePools"); err != nil {
		return 0, err
	}
	return int32(len(m.poolNames(false))), nil
}

func (m *mockLibvirtClient) ConnectListDefinedStoragePools(maxnames int32) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("ConnectListDefinedStoragePools"); err != nil {
		return nil, err
	}
	return m.poolNames(false), nil
}

func (m *mockLibvirtClient) ConnectFindStoragePoolSources(typ string, srcSpec libvirt.OptString, flags uint32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("ConnectFindStoragePoolSources"); err != nil {
		return "", err
	}
	host := "localhost"
	if len(srcSpec) > 0 {
		host = extractTagValue(srcSpec[0], "host")
	}
	return fmt.Sprintf(`<sources><source><host name="%s"/><format type="%s"/></source></sources>`, host, typ), nil
}

func (m *mockLibvirtClient) StoragePoolLookupByName(name string) (libvirt.StoragePool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("StoragePoolLookupByName"); err != nil {
		return libvirt.StoragePool{}, err
	}
	p, ok := m.pools[name]
	if !ok {
		return libvirt.StoragePool{}, poolNotFound(name)
	}
	return m.handle(p), nil
}

func (m *mockLibvirtClient) StoragePoolLookupByUUID(id libvirt.UUID) (libvirt.StoragePool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("StoragePoolLookupByUUID"); err != nil {
		return libvirt.StoragePool{}, err
	}
	for _, p := range m.pools {
		if libvirt.UUID(p.uuid) == id {
			return m.handle(p), nil
		}
	}
	return libvirt.StoragePool{}, poolNotFound(uuid.UUID(id).String())
}

func (m *mockLibvirtClient) definePool(xml string, persistent bool) (*mockPool, error) {
	name := extractTagValue(xml, "name")
	if name == "" {
		return nil, fmt.Errorf("invalid pool XML: missing name")
	}
	if _, ok := m.pools[name]; ok {
		return nil, libvirt.Error{Code: codeInternal, Message: "pool already exists: " + name}
	}
	p := &mockPool{
		name:       name,
		uuid:       uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		state:      libvirt.StoragePoolInactive,
		persistent: persistent,
		capacity:   1024 * 1024 * 1024 * 1024,
		available:  1024 * 1024 * 1024 * 1024,
		xmlDesc:    xml,
	}
	m.pools[name] = p
	m.volumes[name] = make(map[string]*mockVolume)
	return p, nil
}

func (m *mockLibvirtClient) StoragePoolCreateXML(xml string, flags libvirt.StoragePoolCreateFlags) (libvirt.StoragePool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("StoragePoolCreateXML"); err != nil {
		return libvirt.StoragePool{}, err
	}
	p, err := m.definePool(xml, false)
	if err != nil {
		return libvirt.StoragePool{}, err
	}
	p.state = libvirt.StoragePoolRunning
	return m.handle(p), nil
}

func (m *mockLibvirtClient) StoragePoolDefineXML(xml string, flags uint32) (libvirt.StoragePool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("StoragePoolDefineXML"); err != nil {
		return libvirt.StoragePool{}, err
	}
	p, err := m.definePool(xml, true)
	if err != nil {
		return libvirt.StoragePool{}, err
	}
	return m.handle(p), nil
}

// pool returns the named pool after tracking the call.
func (m *mockLibvirtClient) pool(call string, pool libvirt.StoragePool) (*mockPool, error) {
	if err := m.track(call); err != nil {
		return nil, err
	}
	p, ok := m.pools[pool.Name]
	if !ok {
		return nil, poolNotFound(pool.Name)
	}
	return p, nil
}

func (m *mockLibvirtClient) StoragePoolCreate(pool libvirt.StoragePool, flags libvirt.StoragePoolCreateFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.pool("StoragePoolCreate", pool)
	if err != nil {
		return err
	}
	if p.state == libvirt.StoragePoolRunning {
		return libvirt.Error{Code: 55, Message: "storage pool is already active"} // VIR_ERR_OPERATION_INVALID
	}
	p.state = libvirt.StoragePoolRunning
	return nil
}

func (m *mockLibvirtClient) StoragePoolBuild(pool libvirt.StoragePool, flags libvirt.StoragePoolBuildFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.pool("StoragePoolBuild", pool)
	if err != nil {
		return err
	}
	p.built = true
	return nil
}

func (m *mockLibvirtClient) StoragePoolDestroy(pool libvirt.StoragePool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.pool("StoragePoolDestroy", pool)
	if err != nil {
		return err
	}
	if !p.persistent {
		delete(m.pools, p.name)
		delete(m.volumes, p.name)
		return nil
	}
	p.state = libvirt.StoragePoolInactive
	return nil
}

func (m *mockLibvirtClient) StoragePoolDelete(pool libvirt.StoragePool, flags libvirt.StoragePoolDeleteFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.pool("StoragePoolDelete", pool)
	if err != nil {
		return err
	}
	if p.state == libvirt.StoragePoolRunning {
		return libvirt.Error{Code: 55, Message: "storage pool is still active"}
	}
	p.deleted = true
	return nil
}

func (m *mockLibvirtClient) StoragePoolUndefine(pool libvirt.StoragePool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.pool("StoragePoolUndefine", pool)
	if err != nil {
		return err
	}
	delete(m.pools, p.name)
	delete(m.volumes, p.name)
	return nil
}

func (m *mockLibvirtClient) StoragePoolRefresh(pool libvirt.StoragePool, flags uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.pool("StoragePoolRefresh", pool)
	return err
}

func (m *mockLibvirtClient) StoragePoolGetInfo(pool libvirt.StoragePool) (uint8, uint64, uint64, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.pool("StoragePoolGetInfo", pool)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return uint8(p.state), p.capacity, p.allocated, p.available, nil
}

func (m *mockLibvirtClient) StoragePoolGetXMLDesc(pool libvirt.StoragePool, flags libvirt.StorageXMLFlags) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.pool("StoragePoolGetXMLDesc", pool)
	if err != nil {
		return "", err
	}
	return p.xmlDesc, nil
}

func (m *mockLibvirtClient) StoragePoolGetAutostart(pool libvirt.StoragePool) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.pool("StoragePoolGetAutostart", pool)
	if err != nil {
		return 0, err
	}
	if p.autostart {
		return 1, nil
	}
	return 0, nil
}

func (m *mockLibvirtClient) StoragePoolSetAutostart(pool libvirt.StoragePool, autostart int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.pool("StoragePoolSetAutostart", pool)
	if err != nil {
		return err
	}
	p.autostart = autostart == 1
	return nil
}

func (m *mockLibvirtClient) StoragePoolIsPersistent(pool libvirt.StoragePool) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.pool("StoragePoolIsPersistent", pool)
	if err != nil {
		return 0, err
	}
	if p.persistent {
		return 1, nil
	}
	return 0, nil
}

func (m *mockLibvirtClient) StoragePoolListAllVolumes(pool libvirt.StoragePool, needResults int32, flags uint32) ([]libvirt.StorageVol, uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.pool("StoragePoolListAllVolumes", pool); err != nil {
		return nil, 0, err
	}
	var result []libvirt.StorageVol
	for name := range m.volumes[pool.Name] {
		result = append(result, libvirt.StorageVol{Pool: pool.Name, Name: name})
	}
	return result, uint32(len(result)), nil
}

// volume returns the named volume after tracking the call.
func (m *mockLibvirtClient) volume(call string, vol libvirt.StorageVol) (*mockVolume, error) {
	if err := m.track(call); err != nil {
		return nil, err
	}
	vols, ok := m.volumes[vol.Pool]
	if !ok {
		return nil, poolNotFound(vol.Pool)
	}
	v, ok := vols[vol.Name]
	if !ok {
		return nil, volNotFound(vol.Name)
	}
	return v, nil
}

func (m *mockLibvirtClient) StorageVolLookupByName(pool libvirt.StoragePool, name string) (libvirt.StorageVol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.volume("StorageVolLookupByName", libvirt.StorageVol{Pool: pool.Name, Name: name})
	if err != nil {
		return libvirt.StorageVol{}, err
	}
	return libvirt.StorageVol{Pool: pool.Name, Name: v.name, Key: v.path}, nil
}

func (m *mockLibvirtClient) StorageVolCreateXML(pool libvirt.StoragePool, xml string, flags libvirt.StorageVolCreateFlags) (libvirt.StorageVol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.track("StorageVolCreateXML"); err != nil {
		return libvirt.StorageVol{}, err
	}
	vols, ok := m.volumes[pool.Name]
	if !ok {
		return libvirt.StorageVol{}, poolNotFound(pool.Name)
	}
	name := extractTagValue(xml, "name")
	if name == "" {
		return libvirt.StorageVol{}, fmt.Errorf("invalid volume XML: missing name")
	}
	if _, ok := vols[name]; ok {
		return libvirt.StorageVol{}, libvirt.Error{Code: codeInternal, Message: "storage volume already exists: " + name}
	}
	v := &mockVolume{
		name:    name,
		path:    "/var/lib/libvirt/images/" + pool.Name + "/" + name,
		xmlDesc: xml,
	}
	vols[name] = v
	return libvirt.StorageVol{Pool: pool.Name, Name: name, Key: v.path}, nil
}

func (m *mockLibvirtClient) StorageVolDelete(vol libvirt.StorageVol, flags libvirt.StorageVolDeleteFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.volume("StorageVolDelete", vol); err != nil {
		return err
	}
	delete(m.volumes[vol.Pool], vol.Name)
	return nil
}

func (m *mockLibvirtClient) StorageVolGetPath(vol libvirt.StorageVol) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.volume("StorageVolGetPath", vol)
	if err != nil {
		return "", err
	}
	return v.path, nil
}

func (m *mockLibvirtClient) StorageVolGetInfo(vol libvirt.StorageVol) (int8, uint64, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.volume("StorageVolGetInfo", vol)
	if err != nil {
		return 0, 0, 0, err
	}
	return 0, v.capacity, v.allocated, nil
}

func (m *mockLibvirtClient) StorageVolGetXMLDesc(vol libvirt.StorageVol, flags uint32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.volume("StorageVolGetXMLDesc", vol)
	if err != nil {
		return "", err
	}
	return v.xmlDesc, nil
}

// extractTagValue returns the text of the first <tag> element in xml.
func extractTagValue(xml, tag string) string {
	start := strings.Index(xml, "<"+tag+">")
	if start == -1 {
		return ""
	}
	start += len(tag) + 2
	end := strings.Index(xml[start:], "</"+tag+">")
	if end == -1 {
		return ""
	}
	return xml[start : start+end]
}
