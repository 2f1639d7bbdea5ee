package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/output"
)

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snap"},
		Short:   "Manage domain snapshots",
	}
	cmd.AddCommand(
		newSnapshotListCmd(a),
		newSnapshotCreateCmd(a),
		newSnapshotRevertCmd(a),
		newSnapshotDeleteCmd(a),
		newSnapshotCurrentCmd(a),
		newSnapshotXMLCmd(a),
	)
	return cmd
}

// withSnapshot resolves a domain and one of its snapshots by name.
func (a *app) withSnapshot(cmd *cobra.Command, ref, name string, fn func(dom *libvirt.Domain, snap *libvirt.Snapshot) error) error {
	return a.withDomain(cmd, ref, func(ctx context.Context, dom *libvirt.Domain) error {
		snap, err := dom.LookupSnapshotByName(name)
		if err != nil {
			return fmt.Errorf("failed to find snapshot %s of %s: %w", name, dom.Name(), err)
		}
		return fn(dom, snap)
	})
}

func newSnapshotListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <domain>",
		Short: "List the snapshots of a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
				snaps, err := dom.SnapshotInfos()
				if err != nil {
					return fmt.Errorf("failed to list snapshots: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatSnapshots(snaps)
				})
			})
		},
	}
}

func newSnapshotCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <domain> <name>",
		Short: "Take a snapshot",
		Args:  cobra.ExactArgs(2),
	}
	description := cmd.Flags().String("description", "", "Snapshot description")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		xml, err := libvirt.SnapshotXML(args[1], *description)
		if err != nil {
			return err
		}
		return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
			snap, err := dom.CreateSnapshotXML(xml, 0)
			if err != nil {
				return fmt.Errorf("failed to create snapshot: %w", err)
			}
			a.done(cmd, "Snapshot %s of %s created", snap.Name(), dom.Name())
			return nil
		})
	}
	return cmd
}

func newSnapshotRevertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert <domain> <name>",
		Short: "Revert a domain to a snapshot",
		Args:  cobra.ExactArgs(2),
	}
	running := cmd.Flags().Bool("running", false, "Leave the domain running after the revert")
	paused := cmd.Flags().Bool("paused", false, "Leave the domain paused after the revert")
	force := cmd.Flags().Bool("force", false, "Allow risky reverts")
	cmd.MarkFlagsMutuallyExclusive("running", "paused")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var flags uint32
		if *running {
			flags |= libvirt.SnapshotRevertRunning
		}
		if *paused {
			flags |= libvirt.SnapshotRevertPaused
		}
		if *force {
			flags |= libvirt.SnapshotRevertForce
		}
		return a.withSnapshot(cmd, args[0], args[1], func(dom *libvirt.Domain, snap *libvirt.Snapshot) error {
			if err := dom.RevertToSnapshot(snap, flags); err != nil {
				return fmt.Errorf("failed to revert to snapshot %s: %w", snap.Name(), err)
			}
			a.done(cmd, "Domain %s reverted to %s", dom.Name(), snap.Name())
			return nil
		})
	}
	return cmd
}

func newSnapshotDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <domain> <name>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(2),
	}
	children := cmd.Flags().Bool("children", false, "Also delete descendant snapshots")
	childrenOnly := cmd.Flags().Bool("children-only", false, "Delete only the descendants")
	metadataOnly := cmd.Flags().Bool("metadata-only", false, "Delete libvirt's metadata but keep the data")
	cmd.MarkFlagsMutuallyExclusive("children", "children-only")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var flags uint32
		if *children {
			flags |= libvirt.SnapshotDeleteChildren
		}
		if *childrenOnly {
			flags |= libvirt.SnapshotDeleteChildrenOnly
		}
		if *metadataOnly {
			flags |= libvirt.SnapshotDeleteMetadataOnly
		}
		return a.withSnapshot(cmd, args[0], args[1], func(dom *libvirt.Domain, snap *libvirt.Snapshot) error {
			if err := snap.Delete(flags); err != nil {
				return fmt.Errorf("failed to delete snapshot %s: %w", snap.Name(), err)
			}
			a.done(cmd, "Snapshot %s of %s deleted", snap.Name(), dom.Name())
			return nil
		})
	}
	return cmd
}

func newSnapshotCurrentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "current <domain>",
		Short: "Show the current snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDomain(cmd, args[0], func(ctx context.Context, dom *libvirt.Domain) error {
				snap, err := dom.CurrentSnapshot()
				if err != nil {
					return fmt.Errorf("failed to get current snapshot: %w", err)
				}
				info, err := snap.Info()
				if err != nil {
					return fmt.Errorf("failed to describe snapshot %s: %w", snap.Name(), err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatObject("snapshot", info)
				})
			})
		},
	}
}

func newSnapshotXMLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "xml <domain> <name>",
		Short: "Print the snapshot XML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSnapshot(cmd, args[0], args[1], func(dom *libvirt.Domain, snap *libvirt.Snapshot) error {
				xml, err := snap.XMLDesc(0)
				if err != nil {
					return fmt.Errorf("failed to get snapshot XML: %w", err)
				}
				return a.printRaw(cmd, xml)
			})
		},
	}
}
