package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jbweber/virtbind/internal/config"
	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/logging"
	"github.com/jbweber/virtbind/internal/output"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	err := newRootCmdWithApp(a).ExecuteContext(ctx)
	a.teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries the state shared by all subcommands.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
	log        *zap.Logger
	undoLog    func()

	connect func(ctx context.Context, opts libvirt.ConnectOptions) (*libvirt.Conn, error)
}

func newApp() *app {
	return &app{
		v:       config.New(),
		log:     zap.NewNop(),
		connect: libvirt.ConnectWithContext,
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithApp(newApp())
}

func newRootCmdWithApp(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "virtbind",
		Short: "virtbind - libvirt management from the command line",
		Long: `virtbind exposes libvirt's management API: connections, the host node,
domains, snapshots, typed parameters, events, networks, storage pools and
volumes, secrets, host interfaces, node devices and network filters.

Results are printed as tables, YAML or JSON (-o).`,
		Version:           fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default $HOME/.config/virtbind/config.yaml)")
	config.AddFlags(flags)

	root.AddCommand(
		newConnCmd(a),
		newNodeCmd(a),
		newDomainCmd(a),
		newSnapshotCmd(a),
		newEventsCmd(a),
		newNetworkCmd(a),
		newPoolCmd(a),
		newVolumeCmd(a),
		newSecretCmd(a),
		newIfaceCmd(a),
		newNodeDevCmd(a),
		newNWFilterCmd(a),
	)
	return root
}

// setup resolves configuration and installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(a.v, cmd.Root().PersistentFlags()); err != nil {
		return err
	}

	path, explicit := a.configPath, a.configPath != ""
	if !explicit {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(a.v, path, explicit)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, undo, err := logging.Install(cfg.LogLevel, false)
	if err != nil {
		return err
	}
	a.log, a.undoLog = log, undo
	a.log.Debug("configuration loaded",
		zap.String("uri", cfg.URI),
		zap.String("output", cfg.Output),
		zap.Duration("timeout", cfg.Timeout))
	return nil
}

// teardown flushes and uninstalls the logger. It is safe to call more than
// once.
func (a *app) teardown() {
	_ = a.log.Sync()
	if a.undoLog != nil {
		a.undoLog()
		a.undoLog = nil
	}
}

// withConn opens a connection for the duration of fn.
func (a *app) withConn(cmd *cobra.Command, fn func(ctx context.Context, conn *libvirt.Conn) error) error {
	ctx := cmd.Context()
	conn, err := a.connect(ctx, a.cfg.ConnectOptions())
	if err != nil {
		return fmt.Errorf("failed to connect to libvirt: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			a.log.Warn("failed to close libvirt connection", zap.Error(closeErr))
		}
	}()
	return fn(ctx, conn)
}

// withDomain opens a connection and resolves ref to a domain.
func (a *app) withDomain(cmd *cobra.Command, ref string, fn func(ctx context.Context, dom *libvirt.Domain) error) error {
	return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
		dom, err := conn.LookupDomain(ref)
		if err != nil {
			return fmt.Errorf("failed to find domain %s: %w", ref, err)
		}
		return fn(ctx, dom)
	})
}

// print renders a result with the configured formatter.
func (a *app) print(cmd *cobra.Command, format func(f output.Formatter) (string, error)) error {
	formatter, err := output.NewFormatter(a.cfg.OutputOptions())
	if err != nil {
		return err
	}
	result, err := format(formatter)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), result)
	return err
}

// printRaw writes XML and other verbatim documents.
func (a *app) printRaw(cmd *cobra.Command, text string) error {
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprint(out, text); err != nil {
		return err
	}
	if len(text) > 0 && text[len(text)-1] != '\n' {
		_, err := fmt.Fprintln(out)
		return err
	}
	return nil
}

// done prints a confirmation line.
func (a *app) done(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "✓ "+format+"\n", args...)
}
