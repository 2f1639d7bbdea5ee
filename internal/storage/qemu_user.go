package storage

import (
	"bufio"
	"fmt"
	"os"
	"os/user"
	"strings"
	"sync"
)

// qemuConfPath is read to find the user QEMU runs as on this host.
var qemuConfPath = "/etc/libvirt/qemu.conf"

// fallbackQEMUID is the Fedora/RHEL qemu uid and gid.
const fallbackQEMUID = "107"

var (
	qemuOwnerOnce sync.Once
	qemuOwner     Owner
	qemuOwnerErr  error
)

// Owner is the uid and gid written into pool and volume permissions.
type Owner struct {
	UID string
	GID string
}

// QEMUOwner returns the uid and gid of the QEMU process user. It reads the
// user and group settings in qemu.conf, then tries the usual account names,
// and finally falls back to 107 with a non-nil error. The lookup runs once.
func QEMUOwner() (Owner, error) {
	qemuOwnerOnce.Do(func() {
		qemuOwner, qemuOwnerErr = lookupQEMUOwner(qemuConfPath)
	})
	return qemuOwner, qemuOwnerErr
}

func lookupQEMUOwner(confPath string) (Owner, error) {
	username, groupname := readQEMUConf(confPath)

	if username != "" {
		if u, err := user.Lookup(username); err == nil {
			owner := Owner{UID: u.Uid, GID: u.Gid}
			if groupname != "" {
				if g, err := user.LookupGroup(groupname); err == nil {
					owner.GID = g.Gid
				}
			}
			return owner, nil
		}
	}

	for _, name := range []string{"qemu", "libvirt-qemu"} {
		if u, err := user.Lookup(name); err == nil {
			return Owner{UID: u.Uid, GID: u.Gid}, nil
		}
	}

	return Owner{UID: fallbackQEMUID, GID: fallbackQEMUID},
		fmt.Errorf("could not determine QEMU user/group, using fallback UID/GID %s", fallbackQEMUID)
}

// readQEMUConf returns the user and group names set in a qemu.conf file.
// Missing files and settings yield empty strings.
func readQEMUConf(path string) (username, groupname string) {
	file, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), "\"'")
		switch strings.TrimSpace(key) {
		case "user":
			username = value
		case "group":
			groupname = value
		}
	}
	return username, groupname
}
