package libvirt

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jbweber/virtbind/api/v1alpha1"
)

// DefaultStopTimeout is how long Stop waits for a graceful shutdown before
// forcing the domain off.
const DefaultStopTimeout = 30 * time.Second

// stopPollInterval is how often Stop checks the domain state.
var stopPollInterval = 500 * time.Millisecond

// Stop shuts the domain down gracefully and destroys it if it is still
// running after timeout. It reports whether a forced destroy was needed.
// A domain that is already shut off is left alone.
//
// The steps are:
//  1. Check the domain state
//  2. Request a guest shutdown
//  3. Poll the state until shut off or timeout
//  4. Destroy if still running
func (d *Domain) Stop(ctx context.Context, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	log := d.conn.log.With(zap.String("domain", d.Name()))

	state, _, err := d.State(0)
	if err != nil {
		return false, err
	}
	if state == v1alpha1.DomainShutoff {
		return false, nil
	}

	if err := d.Shutdown(ShutdownDefault); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	} else {
		log.Debug("waiting for graceful shutdown", zap.Duration("timeout", timeout))
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		ticker := time.NewTicker(stopPollInterval)
		defer ticker.Stop()

	poll:
		for {
			select {
			case <-shutdownCtx.Done():
				if ctx.Err() != nil {
					return false, ctx.Err()
				}
				log.Debug("graceful shutdown timed out")
				break poll
			case <-ticker.C:
				current, _, err := d.State(0)
				if err != nil {
					log.Warn("failed to check shutdown state", zap.Error(err))
					break poll
				}
				if current == v1alpha1.DomainShutoff {
					log.Debug("domain shut down gracefully")
					return false, nil
				}
			}
		}
	}

	// The guest may have finished shutting down in the meantime.
	current, _, err := d.State(0)
	if err == nil && current == v1alpha1.DomainShutoff {
		return false, nil
	}

	log.Debug("force destroying domain")
	if err := d.Destroy(DestroyDefault); err != nil {
		return true, err
	}
	return true, nil
}
