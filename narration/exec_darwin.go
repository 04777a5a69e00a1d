//go:build darwin

package narration

import "os/exec"

func NewCommand(_ string) (*Command, error) {
	path, err := exec.LookPath("say")
	if err != nil {
		return nil, ErrNoVoice
	}
	return &Command{path: path, args: func(text string) []string { return []string{text} }}, nil
}
