package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestActivityPrefix_Stable(t *testing.T) {
	if ActivityPrefix("design") != ActivityPrefix("design") {
		t.Error("expected stable prefix for the same id")
	}
	if got := ActivityPrefix("design"); got != "[design]" {
		t.Errorf("expected [design], got %q", got)
	}
	for _, id := range []string{"a", "b", "long-activity-id", ""} {
		if i := activityColorIndex(id); i < 0 || i >= len(activityColors) {
			t.Errorf("palette index %d out of range for %q", i, id)
		}
	}
}

func TestFloatAndSlip(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Float(-2), "-2"},
		{Float(0), "0"},
		{Float(3), "3"},
		{Slip(2), "+2"},
		{Slip(-1), "-1"},
		{Slip(0), "0"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, tt.got)
		}
	}
}

func TestVarianceIcon(t *testing.T) {
	for status, want := range map[string]string{"changed": "~", "added": "+", "removed": "-", "unchanged": "="} {
		if got := VarianceIcon(status); got != want {
			t.Errorf("%s: expected %q, got %q", status, want, got)
		}
	}
}

func TestPrintLogo(t *testing.T) {
	var buf bytes.Buffer
	PrintLogo(&buf)
	if !strings.Contains(buf.String(), "P  M  S  C  H  E  D") {
		t.Error("expected banner text")
	}
}
