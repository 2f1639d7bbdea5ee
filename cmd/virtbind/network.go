package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/output"
)

func newNetworkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "network",
		Aliases: []string{"net"},
		Short:   "Manage virtual networks",
	}
	cmd.AddCommand(
		newNetworkListCmd(a),
		newNetworkInfoCmd(a),
		networkAction(a, "start", "Start a defined network", "started", (*libvirt.Network).Create),
		networkAction(a, "stop", "Stop an active network", "stopped", (*libvirt.Network).Destroy),
		networkAction(a, "undefine", "Remove a network definition", "undefined", (*libvirt.Network).Undefine),
		newNetworkXMLCmd(a),
		newNetworkAutostartCmd(a),
		newNetworkDefineCmd(a),
	)
	return cmd
}

// withNetwork opens a connection and resolves a network by name.
func (a *app) withNetwork(cmd *cobra.Command, name string, fn func(net *libvirt.Network) error) error {
	return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
		net, err := conn.LookupNetworkByName(name)
		if err != nil {
			return fmt.Errorf("failed to find network %s: %w", name, err)
		}
		return fn(net)
	})
}

func networkAction(a *app, use, short, past string, action func(*libvirt.Network) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <network>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNetwork(cmd, args[0], func(net *libvirt.Network) error {
				if err := action(net); err != nil {
					return fmt.Errorf("failed to %s network %s: %w", use, net.Name(), err)
				}
				a.done(cmd, "Network %s %s", net.Name(), past)
				return nil
			})
		},
	}
}

func newNetworkListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List virtual networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				networks, err := conn.NetworkInfos()
				if err != nil {
					return fmt.Errorf("failed to list networks: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatNetworks(networks)
				})
			})
		},
	}
}

func newNetworkInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <network>",
		Short: "Show network details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNetwork(cmd, args[0], func(net *libvirt.Network) error {
				info, err := net.Info()
				if err != nil {
					return fmt.Errorf("failed to get network info: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatObject("network", info)
				})
			})
		},
	}
}

func newNetworkXMLCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xml <network>",
		Short: "Print the network XML",
		Args:  cobra.ExactArgs(1),
	}
	inactive := cmd.Flags().Bool("inactive", false, "Print the persistent definition")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var flags uint32
		if *inactive {
			flags |= libvirt.XMLInactive
		}
		return a.withNetwork(cmd, args[0], func(net *libvirt.Network) error {
			xml, err := net.XMLDesc(flags)
			if err != nil {
				return fmt.Errorf("failed to get network XML: %w", err)
			}
			return a.printRaw(cmd, xml)
		})
	}
	return cmd
}

func newNetworkAutostartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "autostart <network> on|off",
		Short: "Change whether a network starts with the host",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseOnOff(args[1])
			if err != nil {
				return err
			}
			return a.withNetwork(cmd, args[0], func(net *libvirt.Network) error {
				if err := net.SetAutostart(enabled); err != nil {
					return fmt.Errorf("failed to set autostart: %w", err)
				}
				a.done(cmd, "Network %s autostart %s", net.Name(), args[1])
				return nil
			})
		},
	}
}

func newNetworkDefineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "define <network.xml|->",
		Short: "Define a network from XML",
		Args:  cobra.ExactArgs(1),
	}
	transient := cmd.Flags().Bool("transient", false, "Create and start a network without persisting it")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		xml, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
			var net *libvirt.Network
			if *transient {
				net, err = conn.CreateNetworkXML(string(xml))
			} else {
				net, err = conn.DefineNetworkXML(string(xml))
			}
			if err != nil {
				return fmt.Errorf("failed to define network: %w", err)
			}
			a.done(cmd, "Network %s defined (uuid %s)", net.Name(), net.UUID())
			return nil
		})
	}
	return cmd
}
