package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/output"
)

func newConnCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conn",
		Short: "Inspect the libvirt connection",
	}

	info := &cobra.Command{
		Use:   "info",
		Short: "Show driver, versions and transport properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				info, err := conn.Info()
				if err != nil {
					return fmt.Errorf("failed to get connection info: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatObject("connection", info)
				})
			})
		},
	}

	ping := &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				start := time.Now()
				if err := conn.Ping(); err != nil {
					return fmt.Errorf("connection test failed: %w", err)
				}
				a.done(cmd, "libvirtd answered in %s", time.Since(start).Round(time.Microsecond))
				return nil
			})
		},
	}

	maxVCPUs := &cobra.Command{
		Use:   "max-vcpus [type]",
		Short: "Show the vCPU limit of a hypervisor type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hvType := ""
			if len(args) == 1 {
				hvType = args[0]
			}
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				n, err := conn.MaxVCPUs(hvType)
				if err != nil {
					return fmt.Errorf("failed to get max vcpus: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatParams(map[string]any{"maxVCPUs": n})
				})
			})
		},
	}

	cmd.AddCommand(info, ping, maxVCPUs)
	return cmd
}

type cellFree struct {
	Cell      int32  `json:"cell" yaml:"cell"`
	FreeBytes uint64 `json:"freeBytes" yaml:"freeBytes"`
}

type cpuOnline struct {
	CPU    int  `json:"cpu" yaml:"cpu"`
	Online bool `json:"online" yaml:"online"`
}

func newNodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Inspect and tune the host node",
	}

	info := &cobra.Command{
		Use:   "info",
		Short: "Show host CPU and memory topology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				info, err := conn.NodeInfo()
				if err != nil {
					return fmt.Errorf("failed to get node info: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatObject("node", info)
				})
			})
		},
	}

	freeMemory := &cobra.Command{
		Use:   "free-memory",
		Short: "Show free host memory in bytes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				free, err := conn.NodeFreeMemory()
				if err != nil {
					return fmt.Errorf("failed to get free memory: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatParams(map[string]any{"freeBytes": free})
				})
			})
		},
	}

	cells := &cobra.Command{
		Use:   "cells",
		Short: "Show free memory per NUMA cell",
		Args:  cobra.NoArgs,
	}
	start := cells.Flags().Int32("start", 0, "First cell")
	maxCells := cells.Flags().Int32("max", 0, "Number of cells (0 for all remaining)")
	cells.RunE = func(cmd *cobra.Command, args []string) error {
		return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
			free, err := conn.NodeCellsFreeMemory(*start, *maxCells)
			if err != nil {
				return fmt.Errorf("failed to get cell free memory: %w", err)
			}
			records := make([]cellFree, len(free))
			rows := make([][]string, len(free))
			for i, bytes := range free {
				cell := *start + int32(i)
				records[i] = cellFree{Cell: cell, FreeBytes: bytes}
				rows[i] = []string{itoa(cell), utoa(bytes)}
			}
			return a.print(cmd, func(f output.Formatter) (string, error) {
				return f.FormatRecords("cells", []string{"CELL", "FREE BYTES"}, rows, records)
			})
		})
	}

	cpuStats := &cobra.Command{
		Use:   "cpu-stats",
		Short: "Show host CPU time counters",
		Args:  cobra.NoArgs,
	}
	cpu := cpuStats.Flags().Int32("cpu", -1, "CPU number (-1 for the total)")
	cpuStats.RunE = func(cmd *cobra.Command, args []string) error {
		return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
			stats, err := conn.NodeCPUStats(*cpu, 0)
			if err != nil {
				return fmt.Errorf("failed to get cpu stats: %w", err)
			}
			return a.print(cmd, func(f output.Formatter) (string, error) {
				return f.FormatParams(uint64Params(stats))
			})
		})
	}

	memoryStats := &cobra.Command{
		Use:   "memory-stats",
		Short: "Show host memory counters",
		Args:  cobra.NoArgs,
	}
	cell := memoryStats.Flags().Int32("cell", -1, "NUMA cell (-1 for the total)")
	memoryStats.RunE = func(cmd *cobra.Command, args []string) error {
		return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
			stats, err := conn.NodeMemoryStats(*cell, 0)
			if err != nil {
				return fmt.Errorf("failed to get memory stats: %w", err)
			}
			return a.print(cmd, func(f output.Formatter) (string, error) {
				return f.FormatParams(uint64Params(stats))
			})
		})
	}

	cpuMap := &cobra.Command{
		Use:   "cpumap",
		Short: "Show which host CPUs are online",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				online, err := conn.NodeCPUMap(0)
				if err != nil {
					return fmt.Errorf("failed to get cpu map: %w", err)
				}
				var records []cpuOnline
				var rows [][]string
				for _, n := range sortedInts(online) {
					records = append(records, cpuOnline{CPU: n, Online: online[n]})
					rows = append(rows, []string{itoa(n), fmt.Sprintf("%t", online[n])})
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatRecords("cpus", []string{"CPU", "ONLINE"}, rows, records)
				})
			})
		},
	}

	securityModel := &cobra.Command{
		Use:   "security-model",
		Short: "Show the host security driver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				model, err := conn.NodeSecurityModel()
				if err != nil {
					return fmt.Errorf("failed to get security model: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatObject("security model", model)
				})
			})
		},
	}

	sysinfo := &cobra.Command{
		Use:   "sysinfo",
		Short: "Print the host SMBIOS description XML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				xml, err := conn.SysInfo(0)
				if err != nil {
					return fmt.Errorf("failed to get sysinfo: %w", err)
				}
				return a.printRaw(cmd, xml)
			})
		},
	}

	capabilities := &cobra.Command{
		Use:   "capabilities",
		Short: "Print the host capabilities XML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				xml, err := conn.Capabilities()
				if err != nil {
					return fmt.Errorf("failed to get capabilities: %w", err)
				}
				return a.printRaw(cmd, xml)
			})
		},
	}

	memoryParams := &cobra.Command{
		Use:   "memory-params",
		Short: "Show host memory tunables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				params, err := conn.NodeMemoryParameters(0)
				if err != nil {
					return fmt.Errorf("failed to get memory parameters: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatParams(params)
				})
			})
		},
	}

	setMemoryParams := &cobra.Command{
		Use:   "set-memory-params key=value...",
		Short: "Change host memory tunables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseAssignments(args)
			if err != nil {
				return err
			}
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				if err := conn.SetNodeMemoryParameters(params, 0); err != nil {
					return fmt.Errorf("failed to set memory parameters: %w", err)
				}
				a.done(cmd, "Updated %d memory parameter(s)", len(params))
				return nil
			})
		},
	}

	suspend := &cobra.Command{
		Use:   "suspend <mem|disk|hybrid> <seconds>",
		Short: "Suspend the host for a duration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseNodeSuspendTarget(args[0])
			if err != nil {
				return err
			}
			seconds, err := parseUint(args[1], "duration")
			if err != nil {
				return err
			}
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				if err := conn.NodeSuspendForDuration(target, seconds, 0); err != nil {
					return fmt.Errorf("failed to suspend node: %w", err)
				}
				a.done(cmd, "Node suspended to %s for %ds", args[0], seconds)
				return nil
			})
		},
	}

	compareCPU := &cobra.Command{
		Use:   "cpu-compare <cpu.xml>",
		Short: "Compare a CPU description with the host CPU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xml, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				result, err := conn.CompareCPU(string(xml), 0)
				if err != nil {
					return fmt.Errorf("failed to compare cpu: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatMap(map[string]string{"result": result.String()})
				})
			})
		},
	}

	baselineCPU := &cobra.Command{
		Use:   "cpu-baseline <cpu.xml>...",
		Short: "Compute a CPU model supported by all given CPUs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cpus := make([]string, 0, len(args))
			for _, name := range args {
				xml, err := readInput(cmd, name)
				if err != nil {
					return err
				}
				cpus = append(cpus, string(xml))
			}
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				xml, err := conn.BaselineCPU(cpus, 0)
				if err != nil {
					return fmt.Errorf("failed to compute baseline cpu: %w", err)
				}
				return a.printRaw(cmd, xml)
			})
		},
	}

	cmd.AddCommand(info, freeMemory, cells, cpuStats, memoryStats, cpuMap, securityModel,
		sysinfo, capabilities, memoryParams, setMemoryParams, suspend, compareCPU, baselineCPU)
	return cmd
}
