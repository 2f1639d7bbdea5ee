// Package libvirt binds libvirt's management API to Go values.
//
// It wraps github.com/digitalocean/go-libvirt, which speaks libvirt's RPC
// protocol to libvirtd directly, so no cgo or libvirt client library is
// needed. Each method forwards to one libvirt entry point, checks the
// result and converts it into plain Go values or the records in
// api/v1alpha1.
//
// Connection Management:
//
//	conn, err := libvirt.Connect(libvirt.ConnectOptions{URI: "qemu:///system"})
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
// Handles:
//
// Conn hands out Domain, Snapshot, Network, Interface, NodeDevice, NWFilter
// and Secret handles. A handle stays bound to its Conn; once the Conn is
// closed every call fails with an error wrapping ErrClosed.
//
//	dom, err := conn.LookupDomainByName("web01")
//	if err != nil {
//	    return err
//	}
//	info, err := dom.Info()
//
// Errors:
//
// Failures are returned as *Error carrying the libvirt function name, the
// failing stage (Kind) and libvirtd's error code and message. Use
// IsNotFound for missing objects.
//
// Typed Parameters:
//
// Scheduler, memory and blkio tunables are exchanged as Params. Setters read
// the current parameters first to learn each field's type and convert the
// given values to it.
//
// Events:
//
// RegisterDomainEvent starts a subscription whose handler runs on its own
// goroutine. Close deregisters all subscriptions.
//
// Consumer-Side Interfaces:
//
// The RPC surface used here is declared by the unexported rpcClient
// interface, which *libvirt.Libvirt satisfies. Tests substitute a mock.
package libvirt
