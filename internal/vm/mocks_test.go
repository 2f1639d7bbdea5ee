package vm

import (
	"context"
	"fmt"
	"sync"
	"time"

	golibvirt "github.com/digitalocean/go-libvirt"
	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/virtbind/internal/storage"
)

func errNoDomain(name string) error {
	return golibvirt.Error{Code: 42, Message: "Domain not found: no domain with matching name '" + name + "'"}
}

// mockDomain is a mock implementation of the domain interface for testing.
type mockDomain struct {
	mu   sync.Mutex
	name string

	// Configurable behavior
	createFunc       func(flags uint32) error
	setAutostartFunc func(enabled bool) error
	activeFunc       func() (bool, error)
	stopFunc         func(ctx context.Context, timeout time.Duration) (bool, error)
	undefineFunc     func(flags uint32) error
	xmlDescFunc      func(flags uint32) (string, error)

	// Call tracking
	createCalls       int
	setAutostartCalls []bool
	stopCalls         []time.Duration
	undefineCalls     []uint32
	xmlDescCalls      []uint32
}

func newMockDomain(name string) *mockDomain {
	return &mockDomain{name: name}
}

func (m *mockDomain) Name() string {
	return m.name
}

func (m *mockDomain) Create(flags uint32) error {
	m.mu.Lock()
	m.createCalls++
	m.mu.Unlock()
	if m.createFunc != nil {
		return m.createFunc(flags)
	}
	return nil
}

func (m *mockDomain) SetAutostart(enabled bool) error {
	m.mu.Lock()
	m.setAutostartCalls = append(m.setAutostartCalls, enabled)
	m.mu.Unlock()
	if m.setAutostartFunc != nil {
		return m.setAutostartFunc(enabled)
	}
	return nil
}

func (m *mockDomain) Active() (bool, error) {
	if m.activeFunc != nil {
		return m.activeFunc()
	}
	return false, nil
}

func (m *mockDomain) Stop(ctx context.Context, timeout time.Duration) (bool, error) {
	m.mu.Lock()
	m.stopCalls = append(m.stopCalls, timeout)
	m.mu.Unlock()
	if m.stopFunc != nil {
		return m.stopFunc(ctx, timeout)
	}
	return false, nil
}

func (m *mockDomain) Undefine(flags uint32) error {
	m.mu.Lock()
	m.undefineCalls = append(m.undefineCalls, flags)
	m.mu.Unlock()
	if m.undefineFunc != nil {
		return m.undefineFunc(flags)
	}
	return nil
}

func (m *mockDomain) XMLDesc(flags uint32) (string, error) {
	m.mu.Lock()
	m.xmlDescCalls = append(m.xmlDescCalls, flags)
	m.mu.Unlock()
	if m.xmlDescFunc != nil {
		return m.xmlDescFunc(flags)
	}
	return fmt.Sprintf("<domain type='kvm'><name>%s</name></domain>", m.name), nil
}

// mockHypervisor holds defined domains by name.
type mockHypervisor struct {
	mu      sync.Mutex
	domains map[string]*mockDomain

	// Configurable behavior
	lookupFunc func(name string) (domain, error)
	defineFunc func(xml string) (domain, error)

	// Call tracking
	lookupCalls []string
	defineCalls []string
}

func newMockHypervisor() *mockHypervisor {
	return &mockHypervisor{domains: make(map[string]*mockDomain)}
}

func (m *mockHypervisor) LookupDomainByName(name string) (domain, error) {
	m.mu.Lock()
	m.lookupCalls = append(m.lookupCalls, name)
	d, ok := m.domains[name]
	m.mu.Unlock()
	if m.lookupFunc != nil {
		return m.lookupFunc(name)
	}
	if !ok {
		return nil, errNoDomain(name)
	}
	return d, nil
}

func (m *mockHypervisor) DefineDomainXML(xml string) (domain, error) {
	m.mu.Lock()
	m.defineCalls = append(m.defineCalls, xml)
	m.mu.Unlock()
	if m.defineFunc != nil {
		return m.defineFunc(xml)
	}
	var parsed libvirtxml.Domain
	if err := parsed.Unmarshal(xml); err != nil {
		return nil, err
	}
	d := newMockDomain(parsed.Name)
	m.mu.Lock()
	m.domains[d.name] = d
	m.mu.Unlock()
	return d, nil
}

// mockStorageManager tracks volumes as "pool/volume" keys.
type mockStorageManager struct {
	mu      sync.Mutex
	volumes map[string]bool

	// Configurable behavior
	volumeExistsFunc func(ctx context.Context, poolName, volumeName string) (bool, error)
	createVolumeFunc func(ctx context.Context, poolName string, spec storage.VolumeSpec) error
	deleteVolumeFunc func(ctx context.Context, poolName, volumeName string) error

	// Call tracking
	createVolumeCalls []storage.VolumeSpec
	deleteVolumeCalls []string
}

func newMockStorageManager(existing ...string) *mockStorageManager {
	m := &mockStorageManager{volumes: make(map[string]bool)}
	for _, v := range existing {
		m.volumes[v] = true
	}
	return m
}

func (m *mockStorageManager) VolumeExists(ctx context.Context, poolName, volumeName string) (bool, error) {
	if m.volumeExistsFunc != nil {
		return m.volumeExistsFunc(ctx, poolName, volumeName)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volumes[poolName+"/"+volumeName], nil
}

func (m *mockStorageManager) CreateVolume(ctx context.Context, poolName string, spec storage.VolumeSpec) error {
	m.mu.Lock()
	m.createVolumeCalls = append(m.createVolumeCalls, spec)
	m.mu.Unlock()
	if m.createVolumeFunc != nil {
		if err := m.createVolumeFunc(ctx, poolName, spec); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.volumes[poolName+"/"+spec.Name] = true
	m.mu.Unlock()
	return nil
}

func (m *mockStorageManager) DeleteVolume(ctx context.Context, poolName, volumeName string) error {
	m.mu.Lock()
	m.deleteVolumeCalls = append(m.deleteVolumeCalls, poolName+"/"+volumeName)
	m.mu.Unlock()
	if m.deleteVolumeFunc != nil {
		if err := m.deleteVolumeFunc(ctx, poolName, volumeName); err != nil {
			return err
		}
	}
	m.mu.Lock()
	delete(m.volumes, poolName+"/"+volumeName)
	m.mu.Unlock()
	return nil
}
