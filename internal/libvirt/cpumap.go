package libvirt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// cpuMapLen is libvirt's VIR_CPU_MAPLEN: bytes needed for ncpus bits.
func cpuMapLen(ncpus int) int {
	return (ncpus + 7) / 8
}

// encodeCPUMap sets one bit per CPU number in a map sized for ncpus host
// CPUs.
func encodeCPUMap(cpus []uint, ncpus int) ([]byte, error) {
	buf := make([]byte, cpuMapLen(ncpus))
	for _, cpu := range cpus {
		if int(cpu) >= ncpus {
			return nil, fmt.Errorf("cpu %d is beyond the %d host cpus", cpu, ncpus)
		}
		buf[cpu/8] |= 1 << (cpu % 8)
	}
	return buf, nil
}

// decodeCPUMap expands the first ncpus bits of buf.
func decodeCPUMap(buf []byte, ncpus int) []bool {
	out := make([]bool, ncpus)
	for i := 0; i < ncpus; i++ {
		if i/8 < len(buf) {
			out[i] = buf[i/8]&(1<<(i%8)) != 0
		}
	}
	return out
}

// ParseCPUList parses a virsh-style CPU list such as "0-3,6,^2".
func ParseCPUList(s string) ([]uint, error) {
	set := make(map[uint]bool)

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		exclude := strings.HasPrefix(part, "^")
		part = strings.TrimPrefix(part, "^")

		lo, hi := part, part
		if a, b, ok := strings.Cut(part, "-"); ok {
			lo, hi = a, b
		}
		start, err := strconv.ParseUint(lo, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid cpu list %q: %w", s, err)
		}
		end, err := strconv.ParseUint(hi, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid cpu list %q: %w", s, err)
		}
		if end < start {
			return nil, fmt.Errorf("invalid cpu range %q in %q", part, s)
		}

		for cpu := uint(start); cpu <= uint(end); cpu++ {
			if exclude {
				delete(set, cpu)
				continue
			}
			set[cpu] = true
		}
	}

	out := make([]uint, 0, len(set))
	for cpu := range set {
		out = append(out, cpu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	if len(out) == 0 {
		return nil, fmt.Errorf("cpu list %q selects no cpus", s)
	}
	return out, nil
}

// FormatCPUMap renders a CPU map as a virsh-style list, e.g. "0-3,6".
func FormatCPUMap(m []bool) string {
	var parts []string
	for i := 0; i < len(m); i++ {
		if !m[i] {
			continue
		}
		j := i
		for j+1 < len(m) && m[j+1] {
			j++
		}
		if j == i {
			parts = append(parts, strconv.Itoa(i))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", i, j))
		}
		i = j
	}
	return strings.Join(parts, ",")
}
