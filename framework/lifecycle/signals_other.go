//go:build !unix

package lifecycle

import "context"

// WatchSignals is a no-op where job control signals do not exist.
func WatchSignals(ctx context.Context, p *Process) {}
