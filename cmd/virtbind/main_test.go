package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/jbweber/virtbind/internal/config"
	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/output"
)

var errNoDaemon = errors.New("dial unix /nonexistent/libvirt-sock: connect: no such file or directory")

// testApp returns an app whose connections always fail, recording the
// options of every attempt.
func testApp(t *testing.T) (*app, *[]libvirt.ConnectOptions) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var attempts []libvirt.ConnectOptions
	a := newApp()
	a.connect = func(ctx context.Context, opts libvirt.ConnectOptions) (*libvirt.Conn, error) {
		attempts = append(attempts, opts)
		return nil, errNoDaemon
	}
	return a, &attempts
}

func run(a *app, args ...string) (string, error) {
	root := newRootCmdWithApp(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	a.teardown()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()

	paths := [][]string{
		{"conn", "info"},
		{"conn", "ping"},
		{"conn", "max-vcpus"},
		{"node", "info"},
		{"node", "cells"},
		{"node", "cpu-stats"},
		{"node", "memory-params"},
		{"node", "set-memory-params"},
		{"node", "suspend"},
		{"node", "cpu-compare"},
		{"domain", "list"},
		{"domain", "info"},
		{"domain", "state"},
		{"domain", "define"},
		{"domain", "create"},
		{"domain", "delete"},
		{"domain", "start"},
		{"domain", "stop"},
		{"domain", "shutdown"},
		{"domain", "destroy"},
		{"domain", "pin"},
		{"domain", "vcpus"},
		{"domain", "params"},
		{"domain", "set-params"},
		{"domain", "migrate"},
		{"domain", "annotate"},
		{"domain", "attach-device"},
		{"domain", "detach-device"},
		{"dom", "xml"},
		{"snapshot", "list"},
		{"snapshot", "create"},
		{"snapshot", "revert"},
		{"snap", "delete"},
		{"events"},
		{"network", "list"},
		{"net", "autostart"},
		{"pool", "list"},
		{"pool", "define-dir"},
		{"pool", "sources"},
		{"volume", "create"},
		{"vol", "path"},
		{"secret", "get-value"},
		{"iface", "list"},
		{"nodedev", "xml"},
		{"nwfilter", "list"},
	}
	for _, path := range paths {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			cmd, rest, err := root.Find(path)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if len(rest) != 0 {
				t.Errorf("Find() left %v unresolved", rest)
			}
			if cmd.RunE == nil {
				t.Errorf("%s has no RunE", cmd.CommandPath())
			}
		})
	}
}

func TestCommandsValidateBeforeConnecting(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing domain",
			args:    []string{"domain", "info"},
			wantErr: "accepts 1 arg(s)",
		},
		{
			name:    "bad shutdown mode",
			args:    []string{"domain", "shutdown", "web01", "--mode", "poweroff"},
			wantErr: `unknown shutdown mode "poweroff"`,
		},
		{
			name:    "bad param group",
			args:    []string{"domain", "params", "web01", "cpu"},
			wantErr: `unknown parameter group "cpu"`,
		},
		{
			name:    "assignment without value",
			args:    []string{"domain", "set-params", "web01", "memory", "hard_limit"},
			wantErr: "expected key=value",
		},
		{
			name:    "duplicate assignment",
			args:    []string{"domain", "set-params", "web01", "scheduler", "cpu_shares=1", "cpu_shares=2"},
			wantErr: "given more than once",
		},
		{
			name:    "bad cpu list",
			args:    []string{"domain", "pin", "web01", "0", "3-1"},
			wantErr: "3-1",
		},
		{
			name:    "bad vcpu count",
			args:    []string{"domain", "set-vcpus", "web01", "two"},
			wantErr: `invalid vcpu count "two"`,
		},
		{
			name:    "missing template",
			args:    []string{"domain", "define", "/nonexistent/web01.yaml"},
			wantErr: "/nonexistent/web01.yaml",
		},
		{
			name:    "missing create template",
			args:    []string{"domain", "create", "/nonexistent/web01.yaml", "--start"},
			wantErr: "/nonexistent/web01.yaml",
		},
		{
			name:    "zero delete timeout",
			args:    []string{"domain", "delete", "web01", "--timeout", "0s"},
			wantErr: "timeout must be > 0",
		},
		{
			name:    "bad autostart switch",
			args:    []string{"network", "autostart", "default", "maybe"},
			wantErr: `expected on or off, got "maybe"`,
		},
		{
			name:    "unknown event kind",
			args:    []string{"events", "--event", "lifecycle,shutdown"},
			wantErr: `unknown event "shutdown"`,
		},
		{
			name:    "raw volume with backing store",
			args:    []string{"volume", "create", "vms", "web01.img", "--capacity", "10", "--format", "raw", "--backing", "base.img"},
			wantErr: "backing volumes are only supported for qcow2",
		},
		{
			name:    "missing capacity",
			args:    []string{"volume", "create", "vms", "web01.qcow2"},
			wantErr: `required flag(s) "capacity" not set`,
		},
		{
			name:    "conflicting revert flags",
			args:    []string{"snapshot", "revert", "web01", "s1", "--running", "--paused"},
			wantErr: "none of the others can be",
		},
		{
			name:    "bad suspend target",
			args:    []string{"node", "suspend", "sleep", "60"},
			wantErr: `unknown suspend target "sleep"`,
		},
		{
			name:    "bad output format",
			args:    []string{"domain", "list", "-o", "xml"},
			wantErr: "xml",
		},
		{
			name:    "zero timeout",
			args:    []string{"domain", "list", "--timeout", "0s"},
			wantErr: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, attempts := testApp(t)
			_, err := run(a, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
			if len(*attempts) != 0 {
				t.Errorf("connected %d times, want 0", len(*attempts))
			}
		})
	}
}

func TestConnectFailure(t *testing.T) {
	a, attempts := testApp(t)

	_, err := run(a, "domain", "list", "--socket", "/nonexistent/libvirt-sock", "--read-only")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errNoDaemon) {
		t.Errorf("error = %v, want it to wrap %v", err, errNoDaemon)
	}
	if !strings.HasPrefix(err.Error(), "failed to connect to libvirt") {
		t.Errorf("error = %q, want connect prefix", err)
	}

	if len(*attempts) != 1 {
		t.Fatalf("connected %d times, want 1", len(*attempts))
	}
	opts := (*attempts)[0]
	if opts.Socket != "/nonexistent/libvirt-sock" {
		t.Errorf("Socket = %q", opts.Socket)
	}
	if !opts.ReadOnly {
		t.Error("ReadOnly = false, want true")
	}
}

func TestConfigFileReachesConnect(t *testing.T) {
	a, attempts := testApp(t)
	path := t.TempDir() + "/config.yaml"
	writeFile(t, path, "uri: qemu:///session\naddress: hv01\nport: 16510\n")

	_, _ = run(a, "--config", path, "conn", "ping")
	if len(*attempts) != 1 {
		t.Fatalf("connected %d times, want 1", len(*attempts))
	}
	opts := (*attempts)[0]
	if opts.URI != "qemu:///session" || opts.Address != "hv01" || opts.Port != 16510 {
		t.Errorf("ConnectOptions = %+v", opts)
	}
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"hard_limit=1048576", "soft_limit=", "swap_hard_limit = 2"})
	if err != nil {
		t.Fatalf("parseAssignments() error = %v", err)
	}
	want := libvirt.Params{"hard_limit": "1048576", "soft_limit": "", "swap_hard_limit": " 2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseAssignments() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAnnotations(t *testing.T) {
	got, err := parseAnnotations([]string{"owner=ops", "tier=web", "owner=platform"})
	if err != nil {
		t.Fatalf("parseAnnotations() error = %v", err)
	}
	want := map[string]string{"owner": "platform", "tier": "web"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseAnnotations() mismatch (-want +got):\n%s", diff)
	}

	if _, err := parseAnnotations([]string{"=x"}); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestParseOnOff(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{in: "on", want: true},
		{in: "enable", want: true},
		{in: "true", want: true},
		{in: "off"},
		{in: "disable"},
		{in: "false"},
		{in: "ON", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseOnOff(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseOnOff(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOnOff(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseNodeSuspendTarget(t *testing.T) {
	for in, want := range map[string]libvirt.NodeSuspendTarget{
		"mem":    libvirt.NodeSuspendMem,
		"disk":   libvirt.NodeSuspendDisk,
		"hybrid": libvirt.NodeSuspendHybrid,
	} {
		got, err := parseNodeSuspendTarget(in)
		if err != nil {
			t.Errorf("parseNodeSuspendTarget(%q) error = %v", in, err)
		}
		if got != want {
			t.Errorf("parseNodeSuspendTarget(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestReadInputStdin(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("<network/>"))

	got, err := readInput(cmd, "-")
	if err != nil {
		t.Fatalf("readInput() error = %v", err)
	}
	if string(got) != "<network/>" {
		t.Errorf("readInput() = %q", got)
	}
}

func TestAffectFlags(t *testing.T) {
	tests := []struct {
		args []string
		want uint32
	}{
		{args: nil, want: libvirt.AffectCurrent},
		{args: []string{"--live"}, want: libvirt.AffectLive},
		{args: []string{"--config"}, want: libvirt.AffectConfig},
		{args: []string{"--live", "--config"}, want: libvirt.AffectLive | libvirt.AffectConfig},
	}
	for _, tt := range tests {
		cmd := &cobra.Command{}
		affect := affectFlags(cmd)
		if err := cmd.Flags().Parse(tt.args); err != nil {
			t.Fatalf("Parse(%v) error = %v", tt.args, err)
		}
		if got := affect(); got != tt.want {
			t.Errorf("affect(%v) = %d, want %d", tt.args, got, tt.want)
		}
	}
}

func TestEventDetail(t *testing.T) {
	tests := []struct {
		name string
		ev   libvirt.Event
		want string
	}{
		{
			name: "lifecycle",
			ev:   libvirt.Event{ID: libvirt.EventLifecycle, Lifecycle: &libvirt.LifecycleEvent{Event: libvirt.LifecycleStarted, Detail: 0}},
			want: "started (booted)",
		},
		{
			name: "rtc change",
			ev:   libvirt.Event{ID: libvirt.EventRTCChange, RTCOffset: -3600},
			want: "offset=-3600s",
		},
		{
			name: "watchdog",
			ev:   libvirt.Event{ID: libvirt.EventWatchdog, Watchdog: &libvirt.WatchdogEvent{Action: 1}},
			want: "action=1",
		},
		{
			name: "io error reason",
			ev: libvirt.Event{ID: libvirt.EventIOErrorReason, IOError: &libvirt.IOErrorEvent{
				SrcPath: "/var/lib/libvirt/images/web01.qcow2", DevAlias: "virtio-disk0", Action: 1, Reason: "enospc",
			}},
			want: "path=/var/lib/libvirt/images/web01.qcow2 alias=virtio-disk0 action=1 reason=enospc",
		},
		{
			name: "reboot",
			ev:   libvirt.Event{ID: libvirt.EventReboot},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eventDetail(tt.ev); got != tt.want {
				t.Errorf("eventDetail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventPrinter(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []eventRecord{
		newEventRecord(libvirt.Event{ID: libvirt.EventReboot}, at),
		newEventRecord(libvirt.Event{ID: libvirt.EventRTCChange, RTCOffset: 5}, at.Add(time.Second)),
	}

	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "table",
			cfg:  config.Config{Output: string(output.FormatTable)},
			want: "TIME                       EVENT            DOMAIN                DETAIL\n" +
				"2026-03-01T12:00:00Z       reboot                                 -\n" +
				"2026-03-01T12:00:01Z       rtc-change                             offset=5s\n",
		},
		{
			name: "table without headers",
			cfg:  config.Config{Output: string(output.FormatTable), NoHeaders: true},
			want: "2026-03-01T12:00:00Z       reboot                                 -\n" +
				"2026-03-01T12:00:01Z       rtc-change                             offset=5s\n",
		},
		{
			name: "yaml documents",
			cfg:  config.Config{Output: string(output.FormatYAML)},
			want: "time: \"2026-03-01T12:00:00Z\"\nevent: reboot\ndomain: \"\"\n" +
				"---\ntime: \"2026-03-01T12:00:01Z\"\nevent: rtc-change\ndomain: \"\"\ndetail: offset=5s\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newApp()
			a.cfg = &tt.cfg
			var out bytes.Buffer
			printer, err := a.eventPrinter(&out)
			if err != nil {
				t.Fatalf("eventPrinter() error = %v", err)
			}
			for _, rec := range recs {
				if err := printer(rec); err != nil {
					t.Fatalf("printer() error = %v", err)
				}
			}
			if diff := cmp.Diff(tt.want, out.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
