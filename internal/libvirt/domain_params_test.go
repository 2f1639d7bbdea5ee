package libvirt

import (
	"errors"
	"testing"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/go-cmp/cmp"
)

func schedulerMock() *mockRPC {
	m := newMockRPC()
	m.domainGetSchedulerTypeFunc = func(dom libvirt.Domain) (string, int32, error) {
		return "posix", 3, nil
	}
	m.domainGetSchedulerParametersFlagsFunc = func(dom libvirt.Domain, nparams int32, flags uint32) ([]libvirt.TypedParam, error) {
		return []libvirt.TypedParam{
			typed("cpu_shares", ParamULLong, uint64(1024)),
			typed("vcpu_period", ParamULLong, uint64(100000)),
			typed("vcpu_quota", ParamLLong, int64(-1)),
		}[:nparams], nil
	}
	return m
}

func TestSchedulerParameters(t *testing.T) {
	m := schedulerMock()
	d := newTestConn(m).domain(testDomain("web01", 3))

	got, err := d.SchedulerParameters(AffectCurrent)
	if err != nil {
		t.Fatalf("SchedulerParameters() error = %v", err)
	}
	want := Params{
		"cpu_shares":  uint64(1024),
		"vcpu_period": uint64(100000),
		"vcpu_quota":  int64(-1),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SchedulerParameters() mismatch (-want +got):\n%s", diff)
	}
}

func TestSetSchedulerParameters(t *testing.T) {
	m := schedulerMock()
	var sent []libvirt.TypedParam
	var sentFlags uint32
	m.domainSetSchedulerParametersFlagsFunc = func(dom libvirt.Domain, params []libvirt.TypedParam, flags uint32) error {
		sent, sentFlags = params, flags
		return nil
	}
	d := newTestConn(m).domain(testDomain("web01", 3))

	err := d.SetSchedulerParameters(Params{"cpu_shares": "2048", "vcpu_quota": 50000}, AffectLive|AffectConfig)
	if err != nil {
		t.Fatalf("SetSchedulerParameters() error = %v", err)
	}
	want := []libvirt.TypedParam{
		typed("cpu_shares", ParamULLong, uint64(2048)),
		typed("vcpu_quota", ParamLLong, int64(50000)),
	}
	if diff := cmp.Diff(want, sent); diff != "" {
		t.Errorf("sent params mismatch (-want +got):\n%s", diff)
	}
	if sentFlags != AffectLive|AffectConfig {
		t.Errorf("flags = %d", sentFlags)
	}
}

func TestSetSchedulerParameters_UnknownKey(t *testing.T) {
	m := schedulerMock()
	d := newTestConn(m).domain(testDomain("web01", 3))

	err := d.SetSchedulerParameters(Params{"cpu_shares": 1, "bogus": 2}, 0)
	if !IsKind(err, KindArgument) {
		t.Fatalf("expected invalid argument error, got %v", err)
	}
	if m.called("DomainSetSchedulerParametersFlags") != 0 {
		t.Error("nothing should be set when a key is unknown")
	}
}

func TestSetParameters_EmptyIsNoop(t *testing.T) {
	for _, group := range []ParamGroup{ParamGroupScheduler, ParamGroupMemory, ParamGroupBlkio} {
		t.Run(string(group), func(t *testing.T) {
			m := newMockRPC()
			d := newTestConn(m).domain(testDomain("web01", 3))

			if err := d.SetParameters(group, Params{}, 0); err != nil {
				t.Fatalf("SetParameters() error = %v", err)
			}
			if len(m.calls) != 0 {
				t.Errorf("expected no libvirt calls, got %v", m.calls)
			}
		})
	}
}

func TestMemoryParameters_TwoCalls(t *testing.T) {
	m := newMockRPC()
	var sizes []int32
	m.domainGetMemoryParametersFunc = func(dom libvirt.Domain, nparams int32, flags uint32) ([]libvirt.TypedParam, int32, error) {
		sizes = append(sizes, nparams)
		if nparams == 0 {
			return nil, 2, nil
		}
		return []libvirt.TypedParam{
			typed("hard_limit", ParamULLong, uint64(9007199254740991)),
			typed("soft_limit", ParamULLong, uint64(9007199254740991)),
		}, 2, nil
	}
	d := newTestConn(m).domain(testDomain("web01", 3))

	got, err := d.Parameters(ParamGroupMemory, 0)
	if err != nil {
		t.Fatalf("Parameters() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d params, want 2", len(got))
	}
	if diff := cmp.Diff([]int32{0, 2}, sizes); diff != "" {
		t.Errorf("nparams mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryParameters_None(t *testing.T) {
	m := newMockRPC()
	m.domainGetMemoryParametersFunc = func(dom libvirt.Domain, nparams int32, flags uint32) ([]libvirt.TypedParam, int32, error) {
		return nil, 0, nil
	}
	d := newTestConn(m).domain(testDomain("web01", 3))

	got, err := d.MemoryParameters(0)
	if err != nil {
		t.Fatalf("MemoryParameters() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no params, got %v", got)
	}
	if m.called("DomainGetMemoryParameters") != 1 {
		t.Errorf("expected a single sizing call, got %v", m.calls)
	}
}

func TestSetMemoryParameters_SetError(t *testing.T) {
	m := newMockRPC()
	m.domainGetMemoryParametersFunc = func(dom libvirt.Domain, nparams int32, flags uint32) ([]libvirt.TypedParam, int32, error) {
		if nparams == 0 {
			return nil, 1, nil
		}
		return []libvirt.TypedParam{typed("hard_limit", ParamULLong, uint64(0))}, 1, nil
	}
	m.domainSetMemoryParametersFunc = func(dom libvirt.Domain, params []libvirt.TypedParam, flags uint32) error {
		return errors.New("cgroup unavailable")
	}
	d := newTestConn(m).domain(testDomain("web01", 3))

	err := d.SetMemoryParameters(Params{"hard_limit": 1048576}, 0)
	if !IsKind(err, KindOperation) {
		t.Fatalf("expected operation error, got %v", err)
	}
}

func TestParameters_UnknownGroup(t *testing.T) {
	d := newTestConn(newMockRPC()).domain(testDomain("web01", 3))

	if _, err := d.Parameters("numa", 0); !IsKind(err, KindArgument) {
		t.Errorf("Parameters: expected invalid argument error, got %v", err)
	}
	if err := d.SetParameters("numa", Params{"x": 1}, 0); !IsKind(err, KindArgument) {
		t.Errorf("SetParameters: expected invalid argument error, got %v", err)
	}
}
