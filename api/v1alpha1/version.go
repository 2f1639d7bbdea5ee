package v1alpha1

import (
	"fmt"
	"strconv"
	"strings"
)

// LibvirtVersion is a decoded libvirt or hypervisor version number.
//
// libvirt encodes versions as major*1,000,000 + minor*1,000 + release.
type LibvirtVersion struct {
	Major   uint64 `json:"major" yaml:"major"`
	Minor   uint64 `json:"minor" yaml:"minor"`
	Release uint64 `json:"release" yaml:"release"`
}

// ParseVersion decodes an encoded libvirt version number.
func ParseVersion(v uint64) LibvirtVersion {
	return LibvirtVersion{
		Major:   v / 1000000,
		Minor:   (v % 1000000) / 1000,
		Release: v % 1000,
	}
}

// ParseVersionString parses a dotted "major.minor.release" string.
// Missing trailing components default to zero.
func ParseVersionString(s string) (LibvirtVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 3 || parts[0] == "" {
		return LibvirtVersion{}, fmt.Errorf("invalid version %q", s)
	}

	var nums [3]uint64
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return LibvirtVersion{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		nums[i] = n
	}

	if nums[1] > 999 || nums[2] > 999 {
		return LibvirtVersion{}, fmt.Errorf("invalid version %q: minor and release must be < 1000", s)
	}

	return LibvirtVersion{Major: nums[0], Minor: nums[1], Release: nums[2]}, nil
}

// Encode returns the libvirt integer form of the version.
func (v LibvirtVersion) Encode() uint64 {
	return v.Major*1000000 + v.Minor*1000 + v.Release
}

// AtLeast reports whether v is the same as or newer than other.
func (v LibvirtVersion) AtLeast(other LibvirtVersion) bool {
	return v.Encode() >= other.Encode()
}

func (v LibvirtVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Release)
}
