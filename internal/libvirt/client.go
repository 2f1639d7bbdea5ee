package libvirt

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/digitalocean/go-libvirt"
	"github.com/digitalocean/go-libvirt/socket"
	"github.com/digitalocean/go-libvirt/socket/dialers"
	"go.uber.org/zap"
)

const (
	// DefaultSocket is the read-write libvirtd socket.
	DefaultSocket = "/var/run/libvirt/libvirt-sock"

	// DefaultReadOnlySocket is the read-only libvirtd socket.
	DefaultReadOnlySocket = "/var/run/libvirt/libvirt-sock-ro"

	// DefaultURI is the driver URI used when none is given.
	DefaultURI = "qemu:///system"

	// DefaultTimeout bounds dialing the daemon.
	DefaultTimeout = 5 * time.Second

	// DefaultPort is libvirtd's plain TCP port.
	DefaultPort = 16509
)

// ConnectOptions selects the daemon and driver to connect to.
type ConnectOptions struct {
	// URI is the driver URI, e.g. "qemu:///system". Defaults to DefaultURI.
	URI string

	// Socket is the unix socket path. Ignored when Address is set.
	Socket string

	// Address is a remote host for a TCP connection.
	Address string

	// Port is the TCP port. Defaults to DefaultPort.
	Port int

	// Timeout bounds dialing. Defaults to DefaultTimeout.
	Timeout time.Duration

	// ReadOnly selects the read-only socket when Socket is empty.
	ReadOnly bool
}

func (o ConnectOptions) withDefaults() ConnectOptions {
	if o.URI == "" {
		o.URI = DefaultURI
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.Socket == "" {
		o.Socket = DefaultSocket
		if o.ReadOnly {
			o.Socket = DefaultReadOnlySocket
		}
	}
	return o
}

func (o ConnectOptions) dialer() socket.Dialer {
	if o.Address != "" {
		return dialers.NewRemote(
			o.Address,
			dialers.UsePort(strconv.Itoa(o.Port)),
			dialers.WithRemoteTimeout(o.Timeout),
		)
	}
	return dialers.NewLocal(
		dialers.WithSocket(o.Socket),
		dialers.WithLocalTimeout(o.Timeout),
	)
}

// encrypted reports whether the transport encrypts traffic. Only TLS does,
// and neither the unix socket nor plain TCP dialer is TLS.
func (o ConnectOptions) encrypted() bool {
	return false
}

func (o ConnectOptions) target() string {
	if o.Address != "" {
		return fmt.Sprintf("%s:%d", o.Address, o.Port)
	}
	return o.Socket
}

// Conn is an open session with libvirtd bound to one hypervisor driver.
// It must be closed via Close() when done.
type Conn struct {
	mu        sync.RWMutex
	rpc       rpcClient
	uri       string
	encrypted bool
	closed    bool
	events    *eventRegistry
	log       *zap.Logger
}

// Connect dials libvirtd and opens the driver named by opts.URI.
func Connect(opts ConnectOptions) (*Conn, error) {
	opts = opts.withDefaults()

	u, err := url.Parse(opts.URI)
	if err != nil || u.Scheme == "" {
		return nil, argumentError("virConnectOpen", "invalid connection URI %q", opts.URI)
	}

	l := libvirt.NewWithDialer(opts.dialer())
	if err := l.ConnectToURI(libvirt.ConnectURI(opts.URI)); err != nil {
		return nil, newError(KindConnection, "virConnectOpen",
			fmt.Errorf("failed to connect to libvirt at %s: %w", opts.target(), err))
	}

	zap.L().Debug("connected to libvirt",
		zap.String("uri", opts.URI),
		zap.String("target", opts.target()),
		zap.Bool("readOnly", opts.ReadOnly))

	c := newConn(l, opts.URI)
	c.encrypted = opts.encrypted()
	return c, nil
}

// ConnectWithContext establishes a connection with context support for cancellation.
func ConnectWithContext(ctx context.Context, opts ConnectOptions) (*Conn, error) {
	type result struct {
		conn *Conn
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		c, err := Connect(opts)
		resultCh <- result{conn: c, err: err}
	}()

	select {
	case <-ctx.Done():
		// Close a connection that completes after we gave up on it.
		go func() {
			if res := <-resultCh; res.conn != nil {
				_ = res.conn.Close()
			}
		}()
		return nil, newError(KindConnection, "virConnectOpen",
			fmt.Errorf("connection cancelled: %w", ctx.Err()))
	case res := <-resultCh:
		return res.conn, res.err
	}
}

func newConn(rpc rpcClient, uri string) *Conn {
	return &Conn{
		rpc:    rpc,
		uri:    uri,
		events: newEventRegistry(),
		log:    zap.L().With(zap.String("uri", uri)),
	}
}

// client returns the RPC client, or a connection error naming fn when the
// connection has been closed.
func (c *Conn) client(fn string) (rpcClient, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.rpc == nil {
		return nil, closedError(fn)
	}
	return c.rpc, nil
}

// Close deregisters all event callbacks and disconnects from libvirtd.
// It is safe to call Close multiple times.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	rpc := c.rpc
	c.mu.Unlock()

	c.events.closeAll()

	if rpc == nil {
		return nil
	}
	if err := rpc.Disconnect(); err != nil {
		c.log.Warn("disconnect failed", zap.Error(err))
		return newError(KindConnection, "virConnectClose",
			fmt.Errorf("failed to disconnect from libvirt: %w", err))
	}

	c.log.Debug("disconnected from libvirt")
	return nil
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Libvirt returns the underlying go-libvirt client for direct API access,
// or nil if the connection is closed or not backed by one.
// This should be used sparingly; prefer methods on Conn.
func (c *Conn) Libvirt() *libvirt.Libvirt {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	l, _ := c.rpc.(*libvirt.Libvirt)
	return l
}

// Ping verifies the connection is still alive by calling a simple libvirt API.
func (c *Conn) Ping() error {
	rpc, err := c.client("virConnectGetLibVersion")
	if err != nil {
		return err
	}

	if _, err := rpc.ConnectGetLibVersion(); err != nil {
		return newError(KindConnection, "virConnectGetLibVersion",
			fmt.Errorf("libvirt connection is dead: %w", err))
	}

	return nil
}
