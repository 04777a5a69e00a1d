// Package clipboard copies the interview transcript for pasting elsewhere.
package clipboard

import cb "github.com/atotto/clipboard"

// Available reports whether a system clipboard tool was found.
func Available() bool {
	return !cb.Unsupported
}

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}
