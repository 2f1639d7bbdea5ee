// Package storage binds libvirt storage pools and volumes.
//
// It covers:
//   - Pool listing and lookup (active and defined, by name or UUID)
//   - Pool lifecycle (define, create, build, start, stop, delete, refresh, autostart)
//   - Source discovery for pool backends (FindPoolSources)
//   - Volume operations (create with optional qcow2 backing store, delete, list, path, XML)
//
// Failing libvirt calls return *libvirt.Error values from the binding
// package, so callers can use libvirt.IsNotFound and libvirt.IsKind on
// storage errors the same way they do on domain errors.
//
// Consumer-Side Interface:
//
// Manager talks to libvirtd through the LibvirtClient interface, which lists
// only the go-libvirt procedures this package calls. The *libvirt.Libvirt
// returned by Conn.Libvirt satisfies it.
//
// Example usage:
//
//	conn, err := libvirt.Connect(libvirt.ConnectOptions{})
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	mgr := storage.NewManager(conn.Storage())
//
//	if err := mgr.EnsurePool(ctx, "images", "/var/lib/libvirt/images"); err != nil {
//	    return err
//	}
//
//	spec := storage.VolumeSpec{
//	    Name:          "web01-root.qcow2",
//	    Format:        storage.VolumeFormatQCOW2,
//	    CapacityGB:    20,
//	    BackingVolume: "fedora-43.qcow2",
//	}
//	if err := mgr.CreateVolume(ctx, "images", spec); err != nil {
//	    return err
//	}
package storage
