//go:build linux

package narration

import "os/exec"

// NewCommand prefers espeak-ng and falls back to espeak.
func NewCommand(lang string) (*Command, error) {
	for _, name := range []string{"espeak-ng", "espeak"} {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		return &Command{path: path, args: func(text string) []string {
			args := []string{"-s", "165"}
			if lang != "" {
				args = append(args, "-v", lang)
			}
			return append(args, "--", text)
		}}, nil
	}
	return nil, ErrNoVoice
}
