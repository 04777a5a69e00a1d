package shutdown

import (
	"os"
	"testing"
)

func TestSignalsIncludeInterrupt(t *testing.T) {
	for _, s := range signals {
		if s == os.Interrupt {
			return
		}
	}
	t.Fatalf("signals %v do not include os.Interrupt", signals)
}
