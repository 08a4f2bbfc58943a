package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ruteri/jit-activation-gateway/interfaces"
)

// defaultWaitDelay bounds how long Scale waits for output pipes after the
// process has been killed on context expiry.
const defaultWaitDelay = 2 * time.Second

// CLIScaler scales services by running `<binary> service scale <name>=<n>`.
type CLIScaler struct {
	Binary string
	// ExtraArgs are inserted between "scale" and the name=n argument, e.g. "--detach".
	ExtraArgs []string
	WaitDelay time.Duration
}

// NewCLIScaler returns a scaler invoking binary, "docker" when empty.
func NewCLIScaler(binary string, extraArgs ...string) *CLIScaler {
	if binary == "" {
		binary = "docker"
	}
	return &CLIScaler{
		Binary:    binary,
		ExtraArgs: extraArgs,
		WaitDelay: defaultWaitDelay,
	}
}

// Scale runs the scale command and returns its combined output.
// A non-zero exit status or context expiry is reported as an error.
func (s *CLIScaler) Scale(ctx context.Context, service interfaces.ServiceName, replicas uint64) (string, error) {
	args := append([]string{"service", "scale"}, s.ExtraArgs...)
	args = append(args, fmt.Sprintf("%s=%d", service, replicas))

	cmd := exec.CommandContext(ctx, s.Binary, args...)
	cmd.WaitDelay = s.WaitDelay

	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return output, fmt.Errorf("%s service scale %s: %w", s.Binary, service, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return output, fmt.Errorf("%s service scale %s: exit status %d: %s", s.Binary, service, exitErr.ExitCode(), output)
		}
		return output, fmt.Errorf("%s service scale %s: %w", s.Binary, service, err)
	}
	return output, nil
}
