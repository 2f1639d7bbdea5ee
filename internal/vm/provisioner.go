package vm

import (
	"go.uber.org/zap"

	"github.com/jbweber/virtbind/internal/libvirt"
	"github.com/jbweber/virtbind/internal/storage"
)

// Provisioner creates and destroys guests on one connection.
type Provisioner struct {
	hv      hypervisor
	storage storageManager
	log     *zap.Logger
}

// New returns a Provisioner using conn for domains and its storage pools
// for volumes.
func New(conn *libvirt.Conn) *Provisioner {
	return newProvisioner(connAdapter{conn: conn}, storage.NewManager(conn.Storage()))
}

func newProvisioner(hv hypervisor, sm storageManager) *Provisioner {
	return &Provisioner{
		hv:      hv,
		storage: sm,
		log:     zap.L().Named("vm"),
	}
}
