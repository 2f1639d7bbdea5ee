package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/output"
	"github.com/jbweber/virtbind/internal/storage"
)

// withStorage opens a connection and hands fn a storage manager on it.
func (a *app) withStorage(cmd *cobra.Command, fn func(ctx context.Context, mgr *storage.Manager) error) error {
	return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
		return fn(ctx, storage.NewManager(conn.Storage()))
	})
}

func newPoolCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Manage storage pools",
	}
	cmd.AddCommand(
		newPoolListCmd(a),
		newPoolInfoCmd(a),
		newPoolVolumesCmd(a),
		poolAction(a, "start", "Start a defined pool", "started", (*storage.Manager).Start),
		poolAction(a, "stop", "Stop an active pool", "stopped", (*storage.Manager).Stop),
		poolAction(a, "refresh", "Rescan the volumes of a pool", "refreshed", (*storage.Manager).Refresh),
		newPoolAutostartCmd(a),
		newPoolDefineCmd(a),
		newPoolDefineDirCmd(a),
		newPoolDeleteCmd(a),
		newPoolXMLCmd(a),
		newPoolSourcesCmd(a),
	)
	return cmd
}

func poolAction(a *app, use, short, past string, action func(*storage.Manager, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <pool>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
				if err := action(mgr, ctx, args[0]); err != nil {
					return fmt.Errorf("failed to %s pool %s: %w", use, args[0], err)
				}
				a.done(cmd, "Pool %s %s", args[0], past)
				return nil
			})
		},
	}
}

func newPoolListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List storage pools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
				pools, err := mgr.PoolInfos(ctx)
				if err != nil {
					return fmt.Errorf("failed to list pools: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatPools(pools)
				})
			})
		},
	}
}

func newPoolInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <pool>",
		Short: "Show pool details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
				info, err := mgr.PoolInfo(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get pool info: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatObject("pool", info)
				})
			})
		},
	}
}

func newPoolVolumesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "volumes <pool>",
		Short: "List the volumes of a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
				volumes, err := mgr.ListVolumes(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to list volumes: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatVolumes(volumes)
				})
			})
		},
	}
}

func newPoolAutostartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "autostart <pool> on|off",
		Short: "Change whether a pool starts with the host",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseOnOff(args[1])
			if err != nil {
				return err
			}
			return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
				if err := mgr.SetAutostart(ctx, args[0], enabled); err != nil {
					return fmt.Errorf("failed to set autostart: %w", err)
				}
				a.done(cmd, "Pool %s autostart %s", args[0], args[1])
				return nil
			})
		},
	}
}

func newPoolDefineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "define <pool.xml|->",
		Short: "Define a pool from XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xml, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
				pool, err := mgr.DefinePoolXML(ctx, string(xml))
				if err != nil {
					return fmt.Errorf("failed to define pool: %w", err)
				}
				a.done(cmd, "Pool %s defined", pool.Name)
				return nil
			})
		},
	}
}

func newPoolDefineDirCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "define-dir <pool> <path>",
		Short: "Define, build and start a directory pool",
		Long: `Define, build and start a directory pool with autostart enabled.

The target directory is owned by the hypervisor's QEMU user.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
				if err := mgr.CreateDirPool(ctx, args[0], args[1]); err != nil {
					return fmt.Errorf("failed to create pool %s: %w", args[0], err)
				}
				a.done(cmd, "Pool %s created at %s", args[0], args[1])
				return nil
			})
		},
	}
}

func newPoolDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <pool>",
		Short: "Stop and undefine a pool",
		Args:  cobra.ExactArgs(1),
	}
	force := cmd.Flags().Bool("force", false, "Also delete every volume and the pool's storage")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
			if err := mgr.Delete(ctx, args[0], *force); err != nil {
				return fmt.Errorf("failed to delete pool %s: %w", args[0], err)
			}
			a.done(cmd, "Pool %s deleted", args[0])
			return nil
		})
	}
	return cmd
}

func newPoolXMLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "xml <pool>",
		Short: "Print the pool XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
				xml, err := mgr.PoolXML(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get pool XML: %w", err)
				}
				return a.printRaw(cmd, xml)
			})
		},
	}
}

func newPoolSourcesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources <type>",
		Short: "Discover pool sources, e.g. LVM volume groups or NFS exports",
		Args:  cobra.ExactArgs(1),
	}
	spec := cmd.Flags().String("source-spec", "", "Source XML file narrowing the search")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var srcSpec string
		if *spec != "" {
			data, err := readInput(cmd, *spec)
			if err != nil {
				return err
			}
			srcSpec = string(data)
		}
		return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
			xml, err := mgr.FindPoolSources(ctx, storage.PoolType(args[0]), srcSpec)
			if err != nil {
				return fmt.Errorf("failed to find %s pool sources: %w", args[0], err)
			}
			return a.printRaw(cmd, xml)
		})
	}
	return cmd
}

func newVolumeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "volume",
		Aliases: []string{"vol"},
		Short:   "Manage storage volumes",
	}
	cmd.AddCommand(
		newVolumeCreateCmd(a),
		newVolumeDeleteCmd(a),
		newVolumeXMLCmd(a),
		newVolumePathCmd(a),
	)
	return cmd
}

func newVolumeCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <pool> <name>",
		Short: "Create a volume",
		Args:  cobra.ExactArgs(2),
	}
	capacity := cmd.Flags().Uint64("capacity", 0, "Capacity in GiB")
	format := cmd.Flags().String("format", string(storage.VolumeFormatQCOW2), "Volume format: qcow2 or raw")
	backing := cmd.Flags().String("backing", "", "Volume in the same pool to use as qcow2 backing store")
	_ = cmd.MarkFlagRequired("capacity")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		spec := storage.VolumeSpec{
			Name:          args[1],
			Format:        storage.VolumeFormat(*format),
			CapacityGB:    *capacity,
			BackingVolume: *backing,
		}
		if err := spec.Validate(); err != nil {
			return err
		}
		return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
			if err := mgr.CreateVolume(ctx, args[0], spec); err != nil {
				return fmt.Errorf("failed to create volume %s: %w", spec.Name, err)
			}
			a.done(cmd, "Volume %s/%s created (%d GiB %s)", args[0], spec.Name, spec.CapacityGB, spec.Format)
			return nil
		})
	}
	return cmd
}

func newVolumeDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pool> <name>",
		Short: "Delete a volume",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
				if err := mgr.DeleteVolume(ctx, args[0], args[1]); err != nil {
					return fmt.Errorf("failed to delete volume %s: %w", args[1], err)
				}
				a.done(cmd, "Volume %s/%s deleted", args[0], args[1])
				return nil
			})
		},
	}
}

func newVolumeXMLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "xml <pool> <name>",
		Short: "Print the volume XML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
				xml, err := mgr.VolumeXML(ctx, args[0], args[1])
				if err != nil {
					return fmt.Errorf("failed to get volume XML: %w", err)
				}
				return a.printRaw(cmd, xml)
			})
		},
	}
}

func newVolumePathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path <pool> <name>",
		Short: "Print the volume path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd, func(ctx context.Context, mgr *storage.Manager) error {
				path, err := mgr.VolumePath(ctx, args[0], args[1])
				if err != nil {
					return fmt.Errorf("failed to get volume path: %w", err)
				}
				return a.printRaw(cmd, path)
			})
		},
	}
}
