package output

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/penwyp/go-bubble-hist/internal/util"
)

// CanShow reports whether an interactive viewer makes sense for this process.
func CanShow() bool {
	return util.IsTerminal(os.Stdout)
}

// Show opens path in the platform image viewer without waiting for it.
func Show(ctx context.Context, path string) error {
	name, args := viewerCommand(runtime.GOOS, path)
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func viewerCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}
