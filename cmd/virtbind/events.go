package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jbweber/virtbind/api/v1alpha1"
	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/output"
)

// eventRecord is one printed domain event.
type eventRecord struct {
	Time   v1alpha1.Time `json:"time" yaml:"time"`
	Event  string        `json:"event" yaml:"event"`
	Domain string        `json:"domain" yaml:"domain"`
	Detail string        `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func newEventRecord(ev libvirt.Event, at time.Time) eventRecord {
	rec := eventRecord{
		Time:   v1alpha1.Time{Time: at},
		Event:  ev.ID.String(),
		Detail: eventDetail(ev),
	}
	if ev.Domain != nil {
		rec.Domain = ev.Domain.Name()
	}
	return rec
}

// eventDetail summarizes the payload of an event in one line.
func eventDetail(ev libvirt.Event) string {
	switch {
	case ev.Lifecycle != nil:
		return ev.Lifecycle.String()
	case ev.Watchdog != nil:
		return fmt.Sprintf("action=%d", ev.Watchdog.Action)
	case ev.IOError != nil:
		detail := fmt.Sprintf("path=%s alias=%s action=%d", ev.IOError.SrcPath, ev.IOError.DevAlias, ev.IOError.Action)
		if ev.IOError.Reason != "" {
			detail += " reason=" + ev.IOError.Reason
		}
		return detail
	case ev.Graphics != nil:
		return fmt.Sprintf("phase=%d remote=%s:%s auth=%s",
			ev.Graphics.Phase, ev.Graphics.Remote.Node, ev.Graphics.Remote.Service, ev.Graphics.AuthScheme)
	case ev.ID == libvirt.EventRTCChange:
		return fmt.Sprintf("offset=%ds", ev.RTCOffset)
	default:
		return ""
	}
}

func newEventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Watch domain events",
		Long: `Watch domain events until interrupted.

Event kinds: lifecycle, reboot, rtc-change, watchdog, io-error, graphics,
io-error-reason, control-error.`,
		Args: cobra.NoArgs,
	}
	kinds := cmd.Flags().StringSlice("event", []string{"lifecycle"}, "Event kinds to watch")
	ref := cmd.Flags().String("domain", "", "Only watch this domain")
	count := cmd.Flags().Int("count", 0, "Exit after this many events (0 = unlimited)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ids := make([]libvirt.EventID, 0, len(*kinds))
		for _, k := range *kinds {
			id, err := libvirt.ParseEventID(strings.TrimSpace(k))
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return a.withConn(cmd, func(ctx context.Context, conn *libvirt.Conn) error {
			var dom *libvirt.Domain
			if *ref != "" {
				var err error
				if dom, err = conn.LookupDomain(*ref); err != nil {
					return fmt.Errorf("failed to find domain %s: %w", *ref, err)
				}
			}
			return a.watchEvents(ctx, cmd.OutOrStdout(), conn, dom, ids, *count)
		})
	}
	return cmd
}

// watchEvents prints events until ctx is cancelled or count events arrived.
func (a *app) watchEvents(ctx context.Context, out io.Writer, conn *libvirt.Conn, dom *libvirt.Domain, ids []libvirt.EventID, count int) error {
	events := make(chan eventRecord, 64)
	stop := make(chan struct{})
	handler := func(ev libvirt.Event) {
		select {
		case events <- newEventRecord(ev, time.Now()):
		case <-stop:
		}
	}

	var callbacks []int
	defer func() {
		// Handlers must be unblocked before deregistering waits on them.
		close(stop)
		for _, cb := range callbacks {
			if err := conn.DeregisterDomainEvent(cb); err != nil {
				a.log.Warn("failed to deregister event callback", zap.Int("callbackID", cb), zap.Error(err))
			}
		}
	}()
	for _, id := range ids {
		cb, err := conn.RegisterDomainEvent(id, dom, handler)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s events: %w", id, err)
		}
		callbacks = append(callbacks, cb)
	}
	a.log.Info("watching domain events", zap.Int("subscriptions", len(callbacks)))

	printer, err := a.eventPrinter(out)
	if err != nil {
		return err
	}
	for seen := 0; count == 0 || seen < count; seen++ {
		select {
		case <-ctx.Done():
			return nil
		case rec := <-events:
			if err := printer(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// eventPrinter returns a function writing one record at a time. Tables use
// fixed-width columns since rows are printed as they arrive.
func (a *app) eventPrinter(out io.Writer) (func(eventRecord) error, error) {
	opts := a.cfg.OutputOptions()
	formatter, err := output.NewFormatter(opts)
	if err != nil {
		return nil, err
	}

	switch opts.Format {
	case output.FormatTable:
		const row = "%-25s  %-15s  %-20s  %s\n"
		header := !opts.NoHeaders
		return func(rec eventRecord) error {
			if header {
				if _, err := fmt.Fprintf(out, row, "TIME", "EVENT", "DOMAIN", "DETAIL"); err != nil {
					return err
				}
				header = false
			}
			_, err := fmt.Fprintf(out, row, rec.Time.Format(time.RFC3339), rec.Event, rec.Domain, dash(rec.Detail))
			return err
		}, nil
	default:
		first := true
		return func(rec eventRecord) error {
			text, err := formatter.FormatObject("event", rec)
			if err != nil {
				return fmt.Errorf("failed to format event: %w", err)
			}
			if opts.Format == output.FormatYAML && !first {
				text = "---\n" + text
			}
			first = false
			_, err = fmt.Fprint(out, text)
			return err
		}, nil
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
