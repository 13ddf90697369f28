// ABOUTME: Tests for shared TUI styles
// ABOUTME: Verifies progress bar sizing and status style selection

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestProgressBar_Width(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		filled  int
	}{
		{"empty", 0, 0},
		{"half", 50, 10},
		{"full", 100, 20},
		{"over capacity clamps", 140, 20},
		{"negative clamps", -5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := ProgressBar(tt.percent, 20)
			if got := lipgloss.Width(bar); got != 20 {
				t.Errorf("expected width 20, got %d", got)
			}
			if got := strings.Count(bar, "█"); got != tt.filled {
				t.Errorf("expected %d filled cells, got %d", tt.filled, got)
			}
		})
	}
}

func TestForStatus(t *testing.T) {
	if ForStatus("critical").GetForeground() != StatusCritical.GetForeground() {
		t.Error("expected critical style for critical status")
	}
	if ForStatus("warning").GetForeground() != StatusWarning.GetForeground() {
		t.Error("expected warning style for warning status")
	}
	if ForStatus("anything").GetForeground() != StatusOK.GetForeground() {
		t.Error("expected ok style as the fallback")
	}
}
