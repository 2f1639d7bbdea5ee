package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/output"
)

func newSecretCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage secrets",
	}
	cmd.AddCommand(
		newSecretListCmd(a),
		newSecretDefineCmd(a),
		newSecretSetValueCmd(a),
		newSecretGetValueCmd(a),
		newSecretXMLCmd(a),
		newSecretUndefineCmd(a),
	)
	return cmd
}

// withSecret opens a connection and resolves a secret by UUID.
func (a *app) withSecret(cmd *cobra.Command, id string, fn func(s *libvirt.Secret) error) error {
	return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
		secret, err := conn.LookupSecretByUUID(id)
		if err != nil {
			return fmt.Errorf("failed to find secret %s: %w", id, err)
		}
		return fn(secret)
	})
}

func newSecretListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List secrets without their values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				secrets, err := conn.SecretInfos()
				if err != nil {
					return fmt.Errorf("failed to list secrets: %w", err)
				}
				return a.print(cmd, func(f output.Formatter) (string, error) {
					return f.FormatSecrets(secrets)
				})
			})
		},
	}
}

func newSecretDefineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "define <secret.xml|->",
		Short: "Define a secret from XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xml, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
				secret, err := conn.DefineSecretXML(string(xml), 0)
				if err != nil {
					return fmt.Errorf("failed to define secret: %w", err)
				}
				a.done(cmd, "Secret %s defined", secret.UUID())
				return nil
			})
		},
	}
}

func newSecretSetValueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-value <uuid>",
		Short: "Set a secret value read from a file or stdin",
		Args:  cobra.ExactArgs(1),
	}
	file := cmd.Flags().String("file", "-", "File holding the value, - for stdin")
	encoded := cmd.Flags().Bool("base64", false, "The value is base64 encoded")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		value, err := readInput(cmd, *file)
		if err != nil {
			return err
		}
		if *encoded {
			value, err = base64.StdEncoding.DecodeString(strings.TrimSpace(string(value)))
			if err != nil {
				return fmt.Errorf("failed to decode secret value: %w", err)
			}
		}
		return a.withSecret(cmd, args[0], func(s *libvirt.Secret) error {
			if err := s.SetValue(value); err != nil {
				return fmt.Errorf("failed to set secret value: %w", err)
			}
			a.done(cmd, "Secret %s value set", s.UUID())
			return nil
		})
	}
	return cmd
}

func newSecretGetValueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get-value <uuid>",
		Short: "Print a secret value, base64 encoded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSecret(cmd, args[0], func(s *libvirt.Secret) error {
				value, err := s.Value()
				if err != nil {
					return fmt.Errorf("failed to get secret value: %w", err)
				}
				return a.printRaw(cmd, base64.StdEncoding.EncodeToString(value))
			})
		},
	}
}

func newSecretXMLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "xml <uuid>",
		Short: "Print the secret XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSecret(cmd, args[0], func(s *libvirt.Secret) error {
				xml, err := s.XMLDesc(0)
				if err != nil {
					return fmt.Errorf("failed to get secret XML: %w", err)
				}
				return a.printRaw(cmd, xml)
			})
		},
	}
}

func newSecretUndefineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "undefine <uuid>",
		Short: "Remove a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSecret(cmd, args[0], func(s *libvirt.Secret) error {
				if err := s.Undefine(); err != nil {
					return fmt.Errorf("failed to undefine secret: %w", err)
				}
				a.done(cmd, "Secret %s undefined", s.UUID())
				return nil
			})
		},
	}
}

func newIfaceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "iface",
		Aliases: []string{"interface"},
		Short:   "Inspect host network interfaces",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List active and defined host interfaces",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
					ifaces, err := conn.InterfaceInfos()
					if err != nil {
						return fmt.Errorf("failed to list interfaces: %w", err)
					}
					return a.print(cmd, func(f output.Formatter) (string, error) {
						return f.FormatInterfaces(ifaces)
					})
				})
			},
		},
		&cobra.Command{
			Use:   "xml <name>",
			Short: "Print the interface XML",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
					iface, err := conn.LookupInterfaceByName(args[0])
					if err != nil {
						return fmt.Errorf("failed to find interface %s: %w", args[0], err)
					}
					xml, err := iface.XMLDesc(0)
					if err != nil {
						return fmt.Errorf("failed to get interface XML: %w", err)
					}
					return a.printRaw(cmd, xml)
				})
			},
		},
	)
	return cmd
}

func newNodeDevCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodedev",
		Short: "Inspect host devices",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List host devices",
		Args:  cobra.NoArgs,
	}
	capability := list.Flags().String("cap", "", "Only list devices with this capability, e.g. pci or net")
	list.RunE = func(cmd *cobra.Command, args []string) error {
		return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
			devices, err := conn.NodeDeviceInfos(*capability)
			if err != nil {
				return fmt.Errorf("failed to list node devices: %w", err)
			}
			return a.print(cmd, func(f output.Formatter) (string, error) {
				return f.FormatNodeDevices(devices)
			})
		})
	}
	cmd.AddCommand(
		list,
		&cobra.Command{
			Use:   "xml <name>",
			Short: "Print the device XML",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
					dev, err := conn.LookupNodeDeviceByName(args[0])
					if err != nil {
						return fmt.Errorf("failed to find node device %s: %w", args[0], err)
					}
					xml, err := dev.XMLDesc(0)
					if err != nil {
						return fmt.Errorf("failed to get node device XML: %w", err)
					}
					return a.printRaw(cmd, xml)
				})
			},
		},
	)
	return cmd
}

func newNWFilterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nwfilter",
		Short: "Inspect network filters",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List network filters",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
					filters, err := conn.NWFilterInfos()
					if err != nil {
						return fmt.Errorf("failed to list network filters: %w", err)
					}
					return a.print(cmd, func(f output.Formatter) (string, error) {
						return f.FormatNWFilters(filters)
					})
				})
			},
		},
		&cobra.Command{
			Use:   "xml <name>",
			Short: "Print the filter XML",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
					filter, err := conn.LookupNWFilterByName(args[0])
					if err != nil {
						return fmt.Errorf("failed to find network filter %s: %w", args[0], err)
					}
					xml, err := filter.XMLDesc(0)
					if err != nil {
						return fmt.Errorf("failed to get network filter XML: %w", err)
					}
					return a.printRaw(cmd, xml)
				})
			},
		},
	)
	return cmd
}
