package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/loader"
	"github.com/jbweber/virtbind/internal/vm"
)

func newDomainCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <template.yaml>",
		Short: "Provision volumes and define a domain from a template",
		Long: `Provision a domain from a DomainTemplate.

Disks with sizeGiB create their volume when it does not exist yet, using
backingVolume as a qcow2 backing store. Interfaces with an ip get a MAC
and tap device name derived from the address. If any step fails, the
domain and the volumes created by this command are removed again.`,
		Args: cobra.ExactArgs(1),
	}
	start := cmd.Flags().Bool("start", false, "Start the domain once defined")
	autostart := cmd.Flags().Bool("autostart", false, "Start the domain with the host")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		tmpl, err := loader.LoadFromFile(args[0])
		if err != nil {
			return err
		}
		return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
			opts := vm.CreateOptions{Start: *start, Autostart: *autostart}
			if err := vm.New(conn).Create(ctx, tmpl, opts); err != nil {
				return fmt.Errorf("failed to create domain %s: %w", tmpl.Name, err)
			}
			verb := "defined"
			if *start {
				verb = "started"
			}
			a.done(cmd, "Domain %s %s", tmpl.Name, verb)
			return nil
		})
	}
	return cmd
}

func newDomainDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <domain>",
		Short: "Stop and undefine a domain, optionally deleting its volumes",
		Long: `Stop a domain, forcing it off after --timeout, and undefine it with its
NVRAM, managed save image and snapshot metadata.

With --volumes, the storage volumes attached as writable disks are deleted
too. Disks given by host path are left alone.`,
		Args: cobra.ExactArgs(1),
	}
	volumes := cmd.Flags().Bool("volumes", false, "Also delete the domain's storage volumes")
	timeout := cmd.Flags().Duration("timeout", libvirt.DefaultStopTimeout, "Graceful shutdown timeout")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if *timeout <= 0 {
			return fmt.Errorf("timeout must be > 0, got %s", *timeout)
		}
		return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
			opts := vm.DestroyOptions{Timeout: *timeout, DeleteVolumes: *volumes}
			result, err := vm.New(conn).Destroy(ctx, args[0], opts)
			if err != nil {
				return fmt.Errorf("failed to delete domain %s: %w", args[0], err)
			}
			msg := "Domain %s deleted"
			if result.Forced {
				msg += " (forced off)"
			}
			a.done(cmd, msg, args[0])
			if len(result.DeletedVolumes) > 0 {
				a.done(cmd, "Deleted volumes: %s", strings.Join(result.DeletedVolumes, ", "))
			}
			return nil
		})
	}
	return cmd
}
