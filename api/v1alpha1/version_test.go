package v1alpha1

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name  string
		input uint64
		want  LibvirtVersion
		str   string
	}{
		{name: "zero", input: 0, want: LibvirtVersion{}, str: "0.0.0"},
		{name: "libvirt 9.0.0", input: 9000000, want: LibvirtVersion{Major: 9}, str: "9.0.0"},
		{name: "libvirt 10.7.3", input: 10007003, want: LibvirtVersion{Major: 10, Minor: 7, Release: 3}, str: "10.7.3"},
		{name: "qemu 8.2.2", input: 8002002, want: LibvirtVersion{Major: 8, Minor: 2, Release: 2}, str: "8.2.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseVersion(tt.input)
			if got != tt.want {
				t.Errorf("ParseVersion(%d) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.String() != tt.str {
				t.Errorf("String() = %q, want %q", got.String(), tt.str)
			}
			if got.Encode() != tt.input {
				t.Errorf("Encode() = %d, want %d", got.Encode(), tt.input)
			}
		})
	}
}

func TestParseVersionString(t *testing.T) {
	tests := []struct {
		input   string
		want    LibvirtVersion
		wantErr bool
	}{
		{input: "10.7.3", want: LibvirtVersion{Major: 10, Minor: 7, Release: 3}},
		{input: "9.1", want: LibvirtVersion{Major: 9, Minor: 1}},
		{input: "8", want: LibvirtVersion{Major: 8}},
		{input: "", wantErr: true},
		{input: "1.2.3.4", wantErr: true},
		{input: "1.x", wantErr: true},
		{input: "1.1000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVersionString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersionString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseVersionString(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLibvirtVersion_AtLeast(t *testing.T) {
	v := LibvirtVersion{Major: 9, Minor: 5}

	if !v.AtLeast(LibvirtVersion{Major: 9}) {
		t.Error("9.5.0 should be at least 9.0.0")
	}
	if !v.AtLeast(v) {
		t.Error("version should be at least itself")
	}
	if v.AtLeast(LibvirtVersion{Major: 10}) {
		t.Error("9.5.0 should not be at least 10.0.0")
	}
}
