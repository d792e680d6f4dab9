package cli

import (
	"os"
	"testing"
)

func TestUseInteractive(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	// A pipe is not a terminal.
	tests := []struct {
		name      string
		flagSet   bool
		flagValue bool
		want      bool
	}{
		{"explicit on wins over non-tty", true, true, true},
		{"explicit off", true, false, false},
		{"default follows tty detection", false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := useInteractive(tt.flagSet, tt.flagValue, w.Fd()); got != tt.want {
				t.Fatalf("useInteractive(%v, %v, pipe) = %v; want %v",
					tt.flagSet, tt.flagValue, got, tt.want)
			}
		})
	}
}
