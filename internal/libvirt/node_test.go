package libvirt

import (
	"errors"
	"testing"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/go-cmp/cmp"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

func TestNodeInfo(t *testing.T) {
	m := newMockRPC()
	m.nodeGetInfoFunc = nodeInfoFunc(8, 1, 1, 4, 2)
	c := newTestConn(m)

	got, err := c.NodeInfo()
	if err != nil {
		t.Fatalf("NodeInfo() error = %v", err)
	}
	want := v1alpha1.NodeInfo{
		Model:     "x86_64",
		MemoryKiB: 16 * 1024 * 1024,
		CPUs:      8,
		MHz:       2400,
		Nodes:     1,
		Sockets:   1,
		Cores:     4,
		Threads:   2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NodeInfo() mismatch (-want +got):\n%s", diff)
	}
}

func TestMaxCPUs(t *testing.T) {
	tests := []struct {
		name string
		info v1alpha1.NodeInfo
		want int
	}{
		{"topology", v1alpha1.NodeInfo{CPUs: 6, Nodes: 2, Sockets: 1, Cores: 2, Threads: 2}, 8},
		{"no topology", v1alpha1.NodeInfo{CPUs: 6}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maxCPUs(tt.info); got != tt.want {
				t.Errorf("maxCPUs() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNodeCellsFreeMemory(t *testing.T) {
	tests := []struct {
		name      string
		start     int32
		maxCells  int32
		nodes     int32
		wantStart int32
		wantMax   int32
		wantErr   bool
	}{
		{name: "explicit range", start: 1, maxCells: 2, nodes: 4, wantStart: 1, wantMax: 2},
		{name: "remaining cells", start: 1, maxCells: 0, nodes: 4, wantStart: 1, wantMax: 3},
		{name: "all cells", start: 0, maxCells: -1, nodes: 2, wantStart: 0, wantMax: 2},
		{name: "start beyond host", start: 4, maxCells: 0, nodes: 4, wantErr: true},
		{name: "negative start", start: -1, maxCells: 1, nodes: 4, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockRPC()
			m.nodeGetInfoFunc = nodeInfoFunc(8, tt.nodes, 1, 2, 1)
			var gotStart, gotMax int32
			m.nodeGetCellsFreeMemoryFunc = func(start, maxCells int32) ([]uint64, error) {
				gotStart, gotMax = start, maxCells
				return make([]uint64, maxCells), nil
			}
			c := newTestConn(m)

			cells, err := c.NodeCellsFreeMemory(tt.start, tt.maxCells)
			if tt.wantErr {
				if !IsKind(err, KindArgument) {
					t.Fatalf("expected invalid argument error, got %v", err)
				}
				if m.called("NodeGetCellsFreeMemory") != 0 {
					t.Error("libvirt should not be called for invalid arguments")
				}
				return
			}
			if err != nil {
				t.Fatalf("NodeCellsFreeMemory() error = %v", err)
			}
			if gotStart != tt.wantStart || gotMax != tt.wantMax {
				t.Errorf("called with (%d, %d), want (%d, %d)", gotStart, gotMax, tt.wantStart, tt.wantMax)
			}
			if len(cells) != int(tt.wantMax) {
				t.Errorf("got %d cells, want %d", len(cells), tt.wantMax)
			}
		})
	}
}

func TestNodeCPUStats(t *testing.T) {
	m := newMockRPC()
	var calls [][2]int32
	m.nodeGetCPUStatsFunc = func(cpu, nparams int32, flags uint32) ([]libvirt.NodeGetCPUStats, int32, error) {
		calls = append(calls, [2]int32{cpu, nparams})
		if nparams == 0 {
			return nil, 2, nil
		}
		return []libvirt.NodeGetCPUStats{
			{Field: "kernel", Value: 100},
			{Field: "user", Value: 200},
		}, 2, nil
	}
	c := newTestConn(m)

	got, err := c.NodeCPUStats(-5, 0)
	if err != nil {
		t.Fatalf("NodeCPUStats() error = %v", err)
	}
	if diff := cmp.Diff(map[string]uint64{"kernel": 100, "user": 200}, got); diff != "" {
		t.Errorf("NodeCPUStats() mismatch (-want +got):\n%s", diff)
	}
	// Negative CPUs mean the total, sized by a first call with no params.
	if diff := cmp.Diff([][2]int32{{-1, 0}, {-1, 2}}, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestNodeMemoryParameters(t *testing.T) {
	m := newMockRPC()
	m.nodeGetMemoryParametersFunc = func(nparams int32, flags uint32) ([]libvirt.TypedParam, int32, error) {
		if nparams == 0 {
			return nil, 2, nil
		}
		return []libvirt.TypedParam{
			typed("shm_pages_to_scan", ParamUInt, uint32(100)),
			typed("shm_merge_across_nodes", ParamUInt, uint32(1)),
		}, 2, nil
	}
	var sent []libvirt.TypedParam
	m.nodeSetMemoryParametersFunc = func(params []libvirt.TypedParam, flags uint32) error {
		sent = params
		return nil
	}
	c := newTestConn(m)

	got, err := c.NodeMemoryParameters(0)
	if err != nil {
		t.Fatalf("NodeMemoryParameters() error = %v", err)
	}
	if got["shm_pages_to_scan"] != uint32(100) {
		t.Errorf("shm_pages_to_scan = %v", got["shm_pages_to_scan"])
	}

	if err := c.SetNodeMemoryParameters(Params{"shm_pages_to_scan": "200"}, 0); err != nil {
		t.Fatalf("SetNodeMemoryParameters() error = %v", err)
	}
	want := []libvirt.TypedParam{typed("shm_pages_to_scan", ParamUInt, uint32(200))}
	if diff := cmp.Diff(want, sent); diff != "" {
		t.Errorf("sent params mismatch (-want +got):\n%s", diff)
	}

	if err := c.SetNodeMemoryParameters(Params{"no_such_knob": 1}, 0); !IsKind(err, KindArgument) {
		t.Errorf("expected invalid argument for unknown key, got %v", err)
	}
}

func TestSetNodeMemoryParameters_EmptyIsNoop(t *testing.T) {
	m := newMockRPC()
	c := newTestConn(m)

	if err := c.SetNodeMemoryParameters(Params{}, 0); err != nil {
		t.Fatalf("SetNodeMemoryParameters() error = %v", err)
	}
	if len(m.calls) != 0 {
		t.Errorf("expected no libvirt calls, got %v", m.calls)
	}
}

func TestNodeCPUMap(t *testing.T) {
	m := newMockRPC()
	m.nodeGetCPUMapFunc = func(needMap, needOnline int32, flags uint32) ([]byte, uint32, int32, error) {
		return []byte{0b1011}, 3, 4, nil
	}
	c := newTestConn(m)

	got, err := c.NodeCPUMap(0)
	if err != nil {
		t.Fatalf("NodeCPUMap() error = %v", err)
	}
	want := map[int]bool{0: true, 1: true, 2: false, 3: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NodeCPUMap() mismatch (-want +got):\n%s", diff)
	}
}

func TestNodeSuspendForDuration_InvalidTarget(t *testing.T) {
	c := newTestConn(newMockRPC())
	if err := c.NodeSuspendForDuration(NodeSuspendTarget(7), 60, 0); !IsKind(err, KindArgument) {
		t.Fatalf("expected invalid argument error, got %v", err)
	}
}

func TestConnInfo(t *testing.T) {
	m := newMockRPC()
	m.connectGetUriFunc = func() (string, error) { return "qemu:///system", nil }
	m.connectGetHostnameFunc = func() (string, error) { return "kvm01", nil }
	m.connectGetTypeFunc = func() (string, error) { return "QEMU", nil }
	m.connectGetVersionFunc = func() (uint64, error) { return 8002000, nil }
	m.connectGetLibVersionFunc = func() (uint64, error) { return 10000000, nil }
	m.connectIsSecureFunc = func() (int32, error) { return 1, nil }
	c := newTestConn(m)

	got, err := c.Info()
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	want := v1alpha1.ConnectionInfo{
		URI:        "qemu:///system",
		Hostname:   "kvm01",
		Type:       "QEMU",
		Version:    v1alpha1.ParseVersion(8002000),
		LibVersion: v1alpha1.ParseVersion(10000000),
		Encrypted:  false,
		Secure:     true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Info() mismatch (-want +got):\n%s", diff)
	}
}

func TestEncrypted(t *testing.T) {
	tests := []struct {
		name string
		opts ConnectOptions
	}{
		{name: "unix socket", opts: ConnectOptions{}},
		{name: "read-only socket", opts: ConnectOptions{ReadOnly: true}},
		{name: "plain tcp", opts: ConnectOptions{Address: "kvm01", Port: 16509}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockRPC()
			c := newTestConn(m)
			c.encrypted = tt.opts.withDefaults().encrypted()

			got, err := c.Encrypted()
			if err != nil {
				t.Fatalf("Encrypted() error = %v", err)
			}
			if got {
				t.Error("expected an unencrypted transport")
			}
			if len(m.calls) != 0 {
				t.Errorf("Encrypted() should not make RPCs, got %v", m.calls)
			}
		})
	}
}

func TestEncrypted_ReportsTransport(t *testing.T) {
	c := newTestConn(newMockRPC())
	c.encrypted = true

	got, err := c.Encrypted()
	if err != nil || !got {
		t.Fatalf("Encrypted() = %v, %v; want true", got, err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := c.Encrypted(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
}

func TestConnInfo_StopsOnError(t *testing.T) {
	m := newMockRPC()
	m.connectGetUriFunc = func() (string, error) { return "qemu:///system", nil }
	m.connectGetHostnameFunc = func() (string, error) { return "", errors.New("boom") }
	c := newTestConn(m)

	if _, err := c.Info(); !IsKind(err, KindRetrieve) {
		t.Fatalf("expected retrieve error, got %v", err)
	}
	if m.called("ConnectGetType") != 0 {
		t.Error("Info should stop at the first failure")
	}
}

func TestCompareCPU(t *testing.T) {
	m := newMockRPC()
	m.connectCompareCPUFunc = func(xml string, flags libvirt.ConnectCompareCPUFlags) (int32, error) {
		return 2, nil
	}
	c := newTestConn(m)

	got, err := c.CompareCPU("<cpu/>", 0)
	if err != nil {
		t.Fatalf("CompareCPU() error = %v", err)
	}
	if got != CPUCompareSuperset || got.String() != "superset" {
		t.Errorf("CompareCPU() = %v", got)
	}
}

func TestBaselineCPU_Empty(t *testing.T) {
	c := newTestConn(newMockRPC())
	if _, err := c.BaselineCPU(nil, 0); !IsKind(err, KindArgument) {
		t.Fatalf("expected invalid argument error, got %v", err)
	}
}

func TestInt8sToString(t *testing.T) {
	in := []int8{'s', 'e', 'l', 'i', 'n', 'u', 'x', 0, 'x'}
	if got := int8sToString(in); got != "selinux" {
		t.Errorf("int8sToString() = %q", got)
	}
}

func TestOptString(t *testing.T) {
	if got := optString(""); len(got) != 0 {
		t.Errorf("optString(\"\") = %v, want empty", got)
	}
	if got := optString("x"); len(got) != 1 || got[0] != "x" {
		t.Errorf("optString(\"x\") = %v", got)
	}
}
