package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtbind/internal/libvirt"
)

// affectFlags registers --live and --config on cmd and returns a function
// producing the matching libvirt impact flags.
func affectFlags(cmd *cobra.Command) func() uint32 {
	live := cmd.Flags().Bool("live", false, "Affect the running domain")
	persistent := cmd.Flags().Bool("config", false, "Affect the persistent definition")
	return func() uint32 {
		flags := libvirt.AffectCurrent
		if *live {
			flags |= libvirt.AffectLive
		}
		if *persistent {
			flags |= libvirt.AffectConfig
		}
		return flags
	}
}

// parseAssignments parses key=value arguments into typed-parameter input.
// Values stay strings and are coerced against the hypervisor's types.
func parseAssignments(args []string) (libvirt.Params, error) {
	params := make(libvirt.Params, len(args))
	for _, arg := range args {
		key, value, err := libvirt.ParseParam(arg)
		if err != nil {
			return nil, err
		}
		if _, dup := params[key]; dup {
			return nil, fmt.Errorf("parameter %s given more than once", key)
		}
		params[key] = value
	}
	return params, nil
}

// parseAnnotations parses key=value arguments into string annotations.
func parseAnnotations(args []string) (map[string]string, error) {
	set := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, err := libvirt.ParseParam(arg)
		if err != nil {
			return nil, err
		}
		set[key] = value
	}
	return set, nil
}

// parseParamGroup validates a typed-parameter group name.
func parseParamGroup(s string) (libvirt.ParamGroup, error) {
	switch g := libvirt.ParamGroup(s); g {
	case libvirt.ParamGroupScheduler, libvirt.ParamGroupMemory, libvirt.ParamGroupBlkio:
		return g, nil
	default:
		return "", fmt.Errorf("unknown parameter group %q (valid groups: scheduler, memory, blkio)", s)
	}
}

// parseOnOff parses an on/off switch argument.
func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "enable", "true":
		return true, nil
	case "off", "disable", "false":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

// parseNodeSuspendTarget maps a suspend target name to its value.
func parseNodeSuspendTarget(s string) (libvirt.NodeSuspendTarget, error) {
	switch s {
	case "mem":
		return libvirt.NodeSuspendMem, nil
	case "disk":
		return libvirt.NodeSuspendDisk, nil
	case "hybrid":
		return libvirt.NodeSuspendHybrid, nil
	default:
		return 0, fmt.Errorf("unknown suspend target %q (valid targets: mem, disk, hybrid)", s)
	}
}

// readInput reads a file argument, or stdin when the name is "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}
	return data, nil
}

// uint64Params converts counters to generic parameter values.
func uint64Params(m map[string]uint64) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// sortedInts returns the keys of m in ascending order.
func sortedInts[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func itoa[T ~int | ~int32 | ~int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

func utoa[T ~uint | ~uint16 | ~uint32 | ~uint64](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}

// parseUint parses a non-negative decimal argument.
func parseUint(s, what string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return v, nil
}
