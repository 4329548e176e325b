//go:build unix

package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// suspend stops the whole process group the way the default SIGTSTP action
// would. It returns once the group is continued.
var suspend = func() error {
	return syscall.Kill(0, syscall.SIGTSTP)
}

// WatchSignals maps Unix job control onto the process lifecycle: SIGTSTP
// (Ctrl-Z) stops the process and then really suspends it, SIGCONT starts it
// again. Signal handlers are installed before WatchSignals returns and
// removed when ctx is done.
func WatchSignals(ctx context.Context, p *Process) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGTSTP, syscall.SIGCONT)
	halt := suspend

	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				switch sig {
				case syscall.SIGTSTP:
					p.Stop()
					// the default action has to run for the shell to see a
					// stopped job, so the handler comes back on SIGCONT
					signal.Reset(syscall.SIGTSTP)
					if err := halt(); err != nil {
						signal.Notify(ch, syscall.SIGTSTP)
					}
				case syscall.SIGCONT:
					signal.Notify(ch, syscall.SIGTSTP)
					p.Start()
				}
			}
		}
	}()
}
