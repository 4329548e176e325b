package foundation

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
)

// Opener hands a link to something outside the process.
type Opener func(ctx context.Context, target string) error

// SystemOpener opens target with the desktop's default handler.
func SystemOpener(ctx context.Context, target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", target)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "open %q", target)
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}
