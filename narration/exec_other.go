//go:build !darwin && !linux

package narration

import (
	"os/exec"
	"strings"
)

func NewCommand(_ string) (*Command, error) {
	path, err := exec.LookPath("powershell")
	if err != nil {
		return nil, ErrNoVoice
	}
	return &Command{path: path, args: func(text string) []string {
		quoted := "'" + strings.ReplaceAll(text, "'", "''") + "'"
		return []string{"-NoProfile", "-Command",
			"Add-Type -AssemblyName System.Speech; (New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak(" + quoted + ")"}
	}}, nil
}
