package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtbind/api/v1alpha1"
	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/loader"
	"github.com/jbweber/virtbind/internal/output"
)

// domainAction builds a "<verb> <domain>" command around one domain call.
func domainAction(a *app, use, short, past string, action func(dom *libvirt.Domain) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <domain>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
				if err := action(dom); err != nil {
					return fmt.Errorf("failed to %s domain %s: %w", use, dom.Name(), err)
				}
				a.done(cmd, "Domain %s %s", dom.Name(), past)
				return nil
			})
		},
	}
}

func newDomainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "domain",
		Aliases: []string{"dom"},
		Short:   "Manage domains",
		Long: `Manage libvirt domains.

Domains are referenced by ID, UUID or name, tried in that order.`,
	}

	cmd.AddCommand(
		newDomainListCmd(a),
		newDomainInfoCmd(a),
		newDomainStateCmd(a),
		newDomainHostnameCmd(a),
		newDomainXMLCmd(a),
		newDomainDefineCmd(a),
		newDomainUndefineCmd(a),
		newDomainCreateCmd(a),
		newDomainDeleteCmd(a),
		domainAction(a, "start", "Start a defined domain", "started", func(d *libvirt.Domain) error { return d.Create(0) }),
		newDomainShutdownCmd(a),
		newDomainStopCmd(a),
		domainAction(a, "reboot", "Request a guest reboot", "is rebooting", func(d *libvirt.Domain) error { return d.Reboot(0) }),
		domainAction(a, "reset", "Hard-reset a domain", "reset", func(d *libvirt.Domain) error { return d.Reset() }),
		newDomainDestroyCmd(a),
		domainAction(a, "suspend", "Pause a running domain", "suspended", func(d *libvirt.Domain) error { return d.Suspend() }),
		domainAction(a, "resume", "Resume a paused domain", "resumed", func(d *libvirt.Domain) error { return d.Resume() }),
		domainAction(a, "managed-save", "Save a domain to libvirt-managed state", "saved", func(d *libvirt.Domain) error { return d.ManagedSave() }),
		domainAction(a, "inject-nmi", "Inject an NMI into the guest", "received an NMI", func(d *libvirt.Domain) error { return d.InjectNMI() }),
		newDomainSaveCmd(a),
		newDomainRestoreCmd(a),
		newDomainAutostartCmd(a),
		newDomainVCPUsCmd(a),
		newDomainSetVCPUsCmd(a),
		newDomainSetMemoryCmd(a),
		newDomainPinCmd(a),
		newDomainStatsCmd(a),
		newDomainDevicesCmd(a),
		newDomainDeviceCmd(a, "attach-device", "Attach a device described by an XML file"),
		newDomainDeviceCmd(a, "detach-device", "Detach a device described by an XML file"),
		newDomainParamsCmd(a),
		newDomainSetParamsCmd(a),
		newDomainMigrateCmd(a),
		newDomainJobCmd(a),
		newDomainAnnotateCmd(a),
	)
	return cmd
}

func newDomainListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active and defined domains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				domains, err := conn.DomainSummaries()
				if err != nil {
					return fmt.Errorf("failed to list domains: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatDomains(domains)
				})
			})
		},
	}
}

// domainDetails is the record printed by "domain info".
type domainDetails struct {
	v1alpha1.DomainSummary `yaml:",inline"`

	MaxMemKiB uint64 `json:"maxMemKiB" yaml:"maxMemKiB"`
	CPUTimeNs uint64 `json:"cpuTimeNs" yaml:"cpuTimeNs"`
	OSType    string `json:"osType" yaml:"osType"`
}

func newDomainInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <domain>",
		Short: "Show domain state and resources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
				summary, err := dom.Summary()
				if err != nil {
					return fmt.Errorf("failed to get domain summary: %w", err)
				}
				info, err := dom.Info()
				if err != nil {
					return fmt.Errorf("failed to get domain info: %w", err)
				}
				osType, err := dom.OSType()
				if err != nil {
					return fmt.Errorf("failed to get domain os type: %w", err)
				}
				details := domainDetails{
					DomainSummary: summary,
					MaxMemKiB:     info.MaxMemKiB,
					CPUTimeNs:     info.CPUTimeNs,
					OSType:        osType,
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatObject("domain", details)
				})
			})
		},
	}
}

func newDomainStateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "state <domain>",
		Short: "Show the domain state and reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
				state, reason, err := dom.State(0)
				if err != nil {
					return fmt.Errorf("failed to get domain state: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatParams(map[string]any{"state": state.String(), "reason": reason})
				})
			})
		},
	}
}

func newDomainHostnameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hostname <domain>",
		Short: "Show the guest hostname",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
				hostname, err := dom.Hostname(0)
				if err != nil {
					return fmt.Errorf("failed to get hostname: %w", err)
				}
				return a.printRaw(cmd, hostname)
			})
		},
	}
}

func newDomainXMLCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xml <domain>",
		Short: "Print the domain XML",
		Args:  cobra.ExactArgs(1),
	}
	inactive := cmd.Flags().Bool("inactive", false, "Print the persistent definition")
	secure := cmd.Flags().Bool("secure", false, "Include security-sensitive data")
	migratable := cmd.Flags().Bool("migratable", false, "Print XML suitable for migration")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var flags uint32
		if *inactive {
			flags |= libvirt.XMLInactive
		}
		if *secure {
			flags |= libvirt.XMLSecure
		}
		if *migratable {
			flags |= libvirt.XMLMigratable
		}
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			xml, err := dom.XMLDesc(flags)
			if err != nil {
				return fmt.Errorf("failed to get domain XML: %w", err)
			}
			return a.printRaw(cmd, xml)
		})
	}
	return cmd
}

func newDomainDefineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "define <template.yaml|domain.xml>",
		Short: "Define a domain from a template or domain XML",
		Long: `Define a persistent domain.

Files ending in .xml are passed to libvirt unchanged. Anything else is read as
a DomainTemplate:

  apiVersion: virtbind.cofront.xyz/v1alpha1
  kind: DomainTemplate
  name: web01
  vcpus: 2
  memoryMiB: 4096
  disks:
    - target: vda
      pool: vms
      volume: web01-root.qcow2
  interfaces:
    - bridge: br0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			isXML := strings.EqualFold(filepath.Ext(path), ".xml")

			var tmpl *v1alpha1.DomainTemplate
			var xml []byte
			var err error
			if isXML {
				xml, err = readInput(cmd, path)
			} else {
				tmpl, err = loader.LoadFromFile(path)
			}
			if err != nil {
				return err
			}

			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				var dom *libvirt.Domain
				if isXML {
					dom, err = conn.DefineDomainXML(string(xml))
				} else {
					dom, err = conn.DefineDomainFromTemplate(tmpl)
				}
				if err != nil {
					return fmt.Errorf("failed to define domain: %w", err)
				}
				a.done(cmd, "Domain %s defined (uuid %s)", dom.Name(), dom.UUID())
				return nil
			})
		},
	}
}

func newDomainUndefineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undefine <domain>",
		Short: "Remove a domain definition",
		Args:  cobra.ExactArgs(1),
	}
	managedSave := cmd.Flags().Bool("managed-save", false, "Also remove managed save state")
	snapshots := cmd.Flags().Bool("snapshots-metadata", false, "Also remove snapshot metadata")
	nvram := cmd.Flags().Bool("nvram", false, "Also remove the NVRAM file")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var flags uint32
		if *managedSave {
			flags |= libvirt.UndefineManagedSave
		}
		if *snapshots {
			flags |= libvirt.UndefineSnapshotsMetadata
		}
		if *nvram {
			flags |= libvirt.UndefineNvram
		}
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			if err := dom.Undefine(flags); err != nil {
				return fmt.Errorf("failed to undefine domain %s: %w", dom.Name(), err)
			}
			a.done(cmd, "Domain %s undefined", dom.Name())
			return nil
		})
	}
	return cmd
}

func newDomainShutdownCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shutdown <domain>",
		Short: "Request a guest shutdown",
		Args:  cobra.ExactArgs(1),
	}
	mode := cmd.Flags().String("mode", "", "Shutdown method: acpi or agent (default: hypervisor choice)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var flags uint32
		switch *mode {
		case "":
			flags = libvirt.ShutdownDefault
		case "acpi":
			flags = libvirt.ShutdownACPIPowerBtn
		case "agent":
			flags = libvirt.ShutdownGuestAgent
		default:
			return fmt.Errorf("unknown shutdown mode %q (valid modes: acpi, agent)", *mode)
		}
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			if err := dom.Shutdown(flags); err != nil {
				return fmt.Errorf("failed to shut down domain %s: %w", dom.Name(), err)
			}
			a.done(cmd, "Domain %s is shutting down", dom.Name())
			return nil
		})
	}
	return cmd
}

func newDomainStopCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <domain>",
		Short: "Shut a domain down, forcing it off after a timeout",
		Args:  cobra.ExactArgs(1),
	}
	timeout := cmd.Flags().Duration("timeout", 30*time.Second, "Time to wait for a graceful shutdown")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			forced, err := dom.Stop(ctx, *timeout)
			if err != nil {
				return fmt.Errorf("failed to stop domain %s: %w", dom.Name(), err)
			}
			if forced {
				a.done(cmd, "Domain %s destroyed after %s", dom.Name(), *timeout)
			} else {
				a.done(cmd, "Domain %s stopped", dom.Name())
			}
			return nil
		})
	}
	return cmd
}

func newDomainDestroyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "destroy <domain>",
		Short: "Force a domain off",
		Args:  cobra.ExactArgs(1),
	}
	graceful := cmd.Flags().Bool("graceful", false, "Only send SIGTERM to the hypervisor process")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		flags := libvirt.DestroyDefault
		if *graceful {
			flags = libvirt.DestroyGraceful
		}
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			if err := dom.Destroy(flags); err != nil {
				return fmt.Errorf("failed to destroy domain %s: %w", dom.Name(), err)
			}
			a.done(cmd, "Domain %s destroyed", dom.Name())
			return nil
		})
	}
	return cmd
}

func newDomainSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <domain> <file>",
		Short: "Save domain memory state to a file and stop it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
				if err := dom.Save(args[1]); err != nil {
					return fmt.Errorf("failed to save domain %s: %w", dom.Name(), err)
				}
				a.done(cmd, "Domain %s saved to %s", dom.Name(), args[1])
				return nil
			})
		},
	}
}

func newDomainRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore a domain from a saved state file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				if err := conn.RestoreDomain(args[0]); err != nil {
					return fmt.Errorf("failed to restore domain: %w", err)
				}
				a.done(cmd, "Domain restored from %s", args[0])
				return nil
			})
		},
	}
}

func newDomainAutostartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "autostart <domain> [on|off]",
		Short: "Show or change whether a domain starts with the host",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
				if len(args) == 1 {
					enabled, err := dom.Autostart()
					if err != nil {
						return fmt.Errorf("failed to get autostart: %w", err)
					}
					return a.print(cmd, func(f output.Formatter) (string, error) {
						return f.FormatParams(map[string]any{"autostart": enabled})
					})
				}
				enabled, err := parseOnOff(args[1])
				if err != nil {
					return err
				}
				if err := dom.SetAutostart(enabled); err != nil {
					return fmt.Errorf("failed to set autostart: %w", err)
				}
				a.done(cmd, "Domain %s autostart %s", dom.Name(), args[1])
				return nil
			})
		},
	}
}

func newDomainVCPUsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vcpus <domain>",
		Short: "Show vCPU placement and affinity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
				vcpus, err := dom.VCPUs()
				if err != nil {
					return fmt.Errorf("failed to get vcpus: %w", err)
				}
				rows := make([][]string, len(vcpus))
				for i, v := range vcpus {
					cpu, cpuTime := "-", "-"
					if v.Online {
						cpu = itoa(v.CPU)
						cpuTime = (time.Duration(v.CPUTimeNs) * time.Nanosecond).Round(time.Millisecond).String()
					}
					rows[i] = []string{utoa(v.Number), fmt.Sprintf("%t", v.Online), cpu, cpuTime, libvirt.FormatCPUMap(v.CPUMap)}
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatRecords("vcpus", []string{"VCPU", "ONLINE", "CPU", "TIME", "AFFINITY"}, rows, vcpus)
				})
			})
		},
	}
}

func newDomainSetVCPUsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-vcpus <domain> <count>",
		Short: "Change the number of vCPUs",
		Args:  cobra.ExactArgs(2),
	}
	affect := affectFlags(cmd)
	maximum := cmd.Flags().Bool("maximum", false, "Change the maximum instead of the current count")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		n, err := parseUint(args[1], "vcpu count")
		if err != nil {
			return err
		}
		flags := affect()
		if *maximum {
			flags |= libvirt.VCPUMaximum
		}
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			if err := dom.SetVCPUsFlags(uint32(n), flags); err != nil {
				return fmt.Errorf("failed to set vcpus: %w", err)
			}
			a.done(cmd, "Domain %s vcpus set to %d", dom.Name(), n)
			return nil
		})
	}
	return cmd
}

func newDomainSetMemoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-memory <domain> <MiB>",
		Short: "Change the domain memory",
		Args:  cobra.ExactArgs(2),
	}
	affect := affectFlags(cmd)
	maximum := cmd.Flags().Bool("maximum", false, "Change the maximum instead of the current allocation")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		mib, err := parseUint(args[1], "memory")
		if err != nil {
			return err
		}
		flags := affect()
		if *maximum {
			flags |= libvirt.MemoryMaximum
		}
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			if err := dom.SetMemoryFlags(mib*1024, flags); err != nil {
				return fmt.Errorf("failed to set memory: %w", err)
			}
			a.done(cmd, "Domain %s memory set to %d MiB", dom.Name(), mib)
			return nil
		})
	}
	return cmd
}

func newDomainPinCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin <domain> <vcpu> <cpulist>",
		Short: "Pin a vCPU to host CPUs, e.g. 0-3,^2,6",
		Args:  cobra.ExactArgs(3),
	}
	affect := affectFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		vcpu, err := parseUint(args[1], "vcpu")
		if err != nil {
			return err
		}
		cpus, err := libvirt.ParseCPUList(args[2])
		if err != nil {
			return err
		}
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			if err := dom.PinVCPU(uint32(vcpu), cpus, affect()); err != nil {
				return fmt.Errorf("failed to pin vcpu %d: %w", vcpu, err)
			}
			a.done(cmd, "Domain %s vcpu %d pinned to %s", dom.Name(), vcpu, args[2])
			return nil
		})
	}
	return cmd
}

func newDomainStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <domain>",
		Short: "Show block, interface and memory statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
				stats, err := dom.Stats()
				if err != nil {
					return fmt.Errorf("failed to get domain stats: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatObject("stats", stats)
				})
			})
		},
	}
}

func newDomainDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices <domain>",
		Short: "List disk targets and interface devices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
				devices, err := dom.Devices()
				if err != nil {
					return fmt.Errorf("failed to get devices: %w", err)
				}
				var rows [][]string
				for _, d := range devices.Disks {
					rows = append(rows, []string{"disk", d})
				}
				for _, i := range devices.Interfaces {
					rows = append(rows, []string{"interface", i})
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatRecords("devices", []string{"TYPE", "DEVICE"}, rows, devices)
				})
			})
		},
	}
}

func newDomainDeviceCmd(a *app, use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <domain> <device.xml|->",
		Short: short,
		Args:  cobra.ExactArgs(2),
	}
	affect := affectFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		xml, err := readInput(cmd, args[1])
		if err != nil {
			return err
		}
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			if use == "attach-device" {
				err = dom.AttachDevice(string(xml), affect())
			} else {
				err = dom.DetachDevice(string(xml), affect())
			}
			if err != nil {
				return fmt.Errorf("failed to %s: %w", use, err)
			}
			a.done(cmd, "Domain %s: %s succeeded", dom.Name(), use)
			return nil
		})
	}
	return cmd
}

func newDomainParamsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params <domain> <scheduler|memory|blkio>",
		Short: "Show a group of typed tunables",
		Args:  cobra.ExactArgs(2),
	}
	affect := affectFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		group, err := parseParamGroup(args[1])
		if err != nil {
			return err
		}
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			params, err := dom.Parameters(group, affect())
			if err != nil {
				return fmt.Errorf("failed to get %s parameters: %w", group, err)
			}
			return a.print(cmd, func(f output.Formatter) (string, error) {
				return f.FormatParams(params)
			})
		})
	}
	return cmd
}

func newDomainSetParamsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-params <domain> <scheduler|memory|blkio> key=value...",
		Short: "Change typed tunables",
		Long: `Change typed tunables.

Each value is converted to the type libvirt reports for that field. Unknown
fields are rejected before anything is changed.`,
		Args: cobra.MinimumNArgs(3),
	}
	affect := affectFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		group, err := parseParamGroup(args[1])
		if err != nil {
			return err
		}
		params, err := parseAssignments(args[2:])
		if err != nil {
			return err
		}
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			if err := dom.SetParameters(group, params, affect()); err != nil {
				return fmt.Errorf("failed to set %s parameters: %w", group, err)
			}
			a.done(cmd, "Domain %s: updated %d %s parameter(s)", dom.Name(), len(params), group)
			return nil
		})
	}
	return cmd
}

func newDomainMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate <domain> <destination-uri>",
		Short: "Migrate a domain to another host",
		Long: `Migrate a domain to the libvirtd at destination-uri, e.g.
qemu+ssh://hv02/system. The source daemon connects to the destination itself.`,
		Args: cobra.ExactArgs(2),
	}
	opts := libvirt.MigrateOptions{}
	cmd.Flags().StringVar(&opts.URI, "migrate-uri", "", "Hypervisor migration URI, e.g. tcp://hv02:49152")
	cmd.Flags().StringVar(&opts.DName, "dname", "", "Domain name on the destination")
	cmd.Flags().Uint64Var(&opts.Bandwidth, "bandwidth", 0, "Bandwidth limit in MiB/s")
	xmlFile := cmd.Flags().String("xml", "", "Domain XML file to use on the destination")
	live := cmd.Flags().Bool("live", false, "Migrate without pausing the guest")
	persist := cmd.Flags().Bool("persistent", false, "Define the domain on the destination")
	undefine := cmd.Flags().Bool("undefine-source", false, "Undefine the domain on the source")
	offline := cmd.Flags().Bool("offline", false, "Migrate the definition only")
	compressed := cmd.Flags().Bool("compressed", false, "Compress memory pages")
	autoConverge := cmd.Flags().Bool("auto-converge", false, "Throttle the guest to converge")
	maxDowntime := cmd.Flags().Uint64("max-downtime", 0, "Maximum tolerable downtime in ms")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		for flag, bit := range map[*bool]uint32{
			live:         libvirt.MigrateLive,
			persist:      libvirt.MigratePersistDest,
			undefine:     libvirt.MigrateUndefineSource,
			offline:      libvirt.MigrateOffline,
			compressed:   libvirt.MigrateCompressed,
			autoConverge: libvirt.MigrateAutoConverge,
		} {
			if *flag {
				opts.Flags |= bit
			}
		}
		if *xmlFile != "" {
			xml, err := readInput(cmd, *xmlFile)
			if err != nil {
				return err
			}
			opts.XML = string(xml)
		}

		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			if *maxDowntime > 0 {
				if err := dom.MigrateSetMaxDowntime(*maxDowntime); err != nil {
					return fmt.Errorf("failed to set max downtime: %w", err)
				}
			}
			start := time.Now()
			if err := dom.Migrate(args[1], opts); err != nil {
				return fmt.Errorf("failed to migrate domain %s: %w", dom.Name(), err)
			}
			a.done(cmd, "Domain %s migrated to %s in %s", dom.Name(), args[1], time.Since(start).Round(time.Second))
			return nil
		})
	}
	return cmd
}

func newDomainJobCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job <domain>",
		Short: "Show or abort the active background job",
		Args:  cobra.ExactArgs(1),
	}
	abort := cmd.Flags().Bool("abort", false, "Abort the active job")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			if *abort {
				if err := dom.AbortJob(); err != nil {
					return fmt.Errorf("failed to abort job: %w", err)
				}
				a.done(cmd, "Domain %s job aborted", dom.Name())
				return nil
			}
			job, err := dom.JobInfo()
			if err != nil {
				return fmt.Errorf("failed to get job info: %w", err)
			}
			return a.print(cmd, func(f output.Formatter) (string, error) {
				return f.FormatObject("job", job)
			})
		})
	}
	return cmd
}

func newDomainAnnotateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate <domain> [key=value...]",
		Short: "Show or change domain annotations",
		Long: `Show or change annotations: free-form key/value pairs stored in the
domain's metadata. With no assignments and no --remove the current
annotations are printed.`,
		Args: cobra.MinimumNArgs(1),
	}
	remove := cmd.Flags().StringSlice("remove", nil, "Keys to remove")
	affect := affectFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		set, err := parseAnnotations(args[1:])
		if err != nil {
			return err
		}
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			var annotations map[string]string
			if len(set) == 0 && len(*remove) == 0 {
				annotations, err = dom.LoadAnnotations(affect())
			} else {
				annotations, err = dom.Annotate(set, *remove, affect())
			}
			if err != nil {
				return fmt.Errorf("failed to update annotations: %w", err)
			}
			return a.print(cmd, func(f output.Formatter) (string, error) {
				return f.FormatMap(annotations)
			})
		})
	}
	return cmd
}
