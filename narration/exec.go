package narration

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrNoVoice means no speech command exists on this host.
var ErrNoVoice = errors.New("no speech synthesizer found")

// Command runs the platform voice command once per utterance.
type Command struct {
	path string
	args func(text string) []string
}

func (c *Command) Name() string { return c.path }

func (c *Command) Speak(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, c.path, c.args(text)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", c.path, err, out)
	}
	return nil
}
