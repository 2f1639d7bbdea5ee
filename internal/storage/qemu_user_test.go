package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestQEMUOwner(t *testing.T) {
	owner, err := QEMUOwner()
	if owner.UID == "" || owner.GID == "" {
		t.Errorf("expected non-empty uid and gid, got %+v", owner)
	}
	if err != nil {
		t.Logf("Warning: %v", err)
	}

	again, err2 := QEMUOwner()
	if again != owner {
		t.Errorf("owner changed between calls: %+v != %+v", owner, again)
	}
	if (err == nil) != (err2 == nil) {
		t.Errorf("error status changed between calls: %v != %v", err, err2)
	}
}

func TestReadQEMUConf(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		wantUser      string
		wantGroup     string
	}{
		{
			name: "basic config with quotes",
			configContent: `# QEMU configuration
user = "qemu"
group = "qemu"
`,
			wantUser:  "qemu",
			wantGroup: "qemu",
		},
		{
			name: "config with single quotes",
			configContent: `user = 'libvirt-qemu'
group = 'kvm'
`,
			wantUser:  "libvirt-qemu",
			wantGroup: "kvm",
		},
		{
			name: "commented settings are ignored",
			configContent: `# user = "root"
user = "qemu"

#group = "root"
`,
			wantUser:  "qemu",
			wantGroup: "",
		},
		{
			name: "config with no quotes",
			configContent: `user = qemu
group = qemu
`,
			wantUser:  "qemu",
			wantGroup: "qemu",
		},
		{
			name: "similar keys are not matched",
			configContent: `user_namespace = 1
groups = "wheel"
`,
			wantUser:  "",
			wantGroup: "",
		},
		{
			name:          "empty config",
			configContent: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "qemu.conf")
			if err := os.WriteFile(path, []byte(tt.configContent), 0o644); err != nil {
				t.Fatal(err)
			}

			gotUser, gotGroup := readQEMUConf(path)
			if gotUser != tt.wantUser || gotGroup != tt.wantGroup {
				t.Errorf("readQEMUConf() = (%q, %q), want (%q, %q)", gotUser, gotGroup, tt.wantUser, tt.wantGroup)
			}
		})
	}
}

func TestReadQEMUConf_Missing(t *testing.T) {
	u, g := readQEMUConf(filepath.Join(t.TempDir(), "absent.conf"))
	if u != "" || g != "" {
		t.Errorf("readQEMUConf() = (%q, %q), want empty", u, g)
	}
}

func TestLookupQEMUOwner_UnknownUserFallsThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qemu.conf")
	if err := os.WriteFile(path, []byte(`user = "no-such-virtbind-user"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	owner, err := lookupQEMUOwner(path)
	if owner.UID == "" || owner.GID == "" {
		t.Errorf("expected a usable owner, got %+v", owner)
	}
	if err != nil && owner.UID != fallbackQEMUID {
		t.Errorf("fallback error with uid %s, want %s", owner.UID, fallbackQEMUID)
	}
}
