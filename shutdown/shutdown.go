// Package shutdown turns termination signals into a callback.
package shutdown

import (
	"os"
	"os/signal"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, signals...)
}

// OnSignal runs fn on its own goroutine the first time the process is asked
// to stop.
func OnSignal(fn func()) {
	ch := make(chan os.Signal, 1)
	Notify(ch)
	go func() {
		<-ch
		fn()
	}()
}
